// Package store selects the credential and task repositories for the
// configured driver.
package store

import (
	"context"
	"fmt"

	"github.com/example/task-manager/config"
	"github.com/example/task-manager/domain/task"
	"github.com/example/task-manager/domain/user"
	"github.com/example/task-manager/store/gormstore"
	"github.com/example/task-manager/store/memstore"
	"github.com/example/task-manager/store/mongostore"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

// Handle is the lifecycle of the connection behind a repository.
type Handle interface {
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
	Describe() string
}

// OpenUsers opens the credential store.
func OpenUsers(ctx context.Context, cfg *config.Config) (user.Repository, Handle, error) {
	switch cfg.StoreDriver {
	case config.DriverMemory:
		return memstore.NewUserRepository(), noopHandle{}, nil
	case config.DriverMongo:
		h, err := openMongo(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		repo, err := mongostore.NewUserRepository(ctx, h.db)
		if err != nil {
			_ = h.Close(ctx)
			return nil, nil, err
		}
		return repo, h, nil
	default:
		db, err := gormstore.Open(cfg.AuthDBPath, &user.User{})
		if err != nil {
			return nil, nil, err
		}
		return gormstore.NewUserRepository(db), &gormHandle{db: db, path: cfg.AuthDBPath}, nil
	}
}

// OpenTasks opens the task store.
func OpenTasks(ctx context.Context, cfg *config.Config) (task.Repository, Handle, error) {
	switch cfg.StoreDriver {
	case config.DriverMemory:
		return memstore.NewTaskRepository(), noopHandle{}, nil
	case config.DriverMongo:
		h, err := openMongo(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		repo, err := mongostore.NewTaskRepository(ctx, h.db)
		if err != nil {
			_ = h.Close(ctx)
			return nil, nil, err
		}
		return repo, h, nil
	default:
		db, err := gormstore.Open(cfg.TaskDBPath, &task.Task{})
		if err != nil {
			return nil, nil, err
		}
		return gormstore.NewTaskRepository(db), &gormHandle{db: db, path: cfg.TaskDBPath}, nil
	}
}

type gormHandle struct {
	db   *gorm.DB
	path string
}

func (h *gormHandle) Ping(context.Context) error  { return gormstore.Ping(h.db) }
func (h *gormHandle) Close(context.Context) error { return gormstore.Close(h.db) }
func (h *gormHandle) Describe() string            { return "sqlite:" + h.path }

type mongoHandle struct {
	client *mongo.Client
	db     *mongo.Database
}

func openMongo(ctx context.Context, cfg *config.Config) (*mongoHandle, error) {
	client, err := mongostore.Connect(ctx, cfg.MongoURI)
	if err != nil {
		return nil, err
	}
	return &mongoHandle{client: client, db: client.Database(cfg.MongoDatabase)}, nil
}

func (h *mongoHandle) Ping(ctx context.Context) error  { return mongostore.Ping(ctx, h.client) }
func (h *mongoHandle) Close(ctx context.Context) error { return h.client.Disconnect(ctx) }
func (h *mongoHandle) Describe() string                { return fmt.Sprintf("mongo:%s", h.db.Name()) }

type noopHandle struct{}

func (noopHandle) Ping(context.Context) error  { return nil }
func (noopHandle) Close(context.Context) error { return nil }
func (noopHandle) Describe() string            { return "memory" }
