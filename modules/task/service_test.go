package task

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/example/task-manager/domain/apperror"
	"github.com/example/task-manager/domain/objectid"
	domain "github.com/example/task-manager/domain/task"
	"github.com/example/task-manager/store/memstore"
)

// countingRepo records writes so tests can assert that no-op paths skip the store.
type countingRepo struct {
	*memstore.TaskRepository
	finds   int
	updates int
}

func (r *countingRepo) FindByID(ctx context.Context, id string) (*domain.Task, error) {
	r.finds++
	return r.TaskRepository.FindByID(ctx, id)
}

func (r *countingRepo) Update(ctx context.Context, t *domain.Task) error {
	r.updates++
	return r.TaskRepository.Update(ctx, t)
}

func newTestService() (*Service, *countingRepo) {
	repo := &countingRepo{TaskRepository: memstore.NewTaskRepository()}
	return NewService(repo, nil), repo
}

func ptr[T any](v T) *T { return &v }

var (
	ana = objectid.New()
	bob = objectid.New()
)

func TestService_CreateDefaults(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	created, err := svc.Create(ctx, ana, CreateInput{Title: "  X  "})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if created.Title != "X" {
		t.Errorf("Title = %q, want %q", created.Title, "X")
	}
	if created.Completed {
		t.Error("Completed = true, want false")
	}
	if created.Status != domain.StatusPending {
		t.Errorf("Status = %q, want %q", created.Status, domain.StatusPending)
	}
	if !objectid.Valid(created.ID) {
		t.Errorf("ID = %q is not a document id", created.ID)
	}
	if created.OwnerID != ana {
		t.Errorf("OwnerID = %q, want %q", created.OwnerID, ana)
	}
	if !created.CreatedAt.Equal(created.UpdatedAt) {
		t.Error("CreatedAt and UpdatedAt differ on a new task")
	}

	got, err := svc.Get(ctx, ana, created.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !reflect.DeepEqual(got, created) {
		t.Errorf("Get() = %+v, want %+v", got, created)
	}
}

func TestService_CreateWithOptionalFields(t *testing.T) {
	svc, _ := newTestService()
	due := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	created, err := svc.Create(context.Background(), ana, CreateInput{
		Title:       "Buy milk",
		Description: "2 litres",
		DueDate:     &due,
		Status:      ptr(domain.StatusInProgress),
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if created.Description != "2 litres" {
		t.Errorf("Description = %q", created.Description)
	}
	if created.DueDate == nil || !created.DueDate.Equal(due) {
		t.Errorf("DueDate = %v, want %v", created.DueDate, due)
	}
	if created.Status != domain.StatusInProgress {
		t.Errorf("Status = %q", created.Status)
	}
	if created.Completed {
		t.Error("Completed = true, want false")
	}
}

func TestService_CreateValidation(t *testing.T) {
	svc, _ := newTestService()

	tests := []struct {
		name string
		in   CreateInput
	}{
		{name: "empty title", in: CreateInput{}},
		{name: "blank title", in: CreateInput{Title: " \t "}},
		{name: "unknown status", in: CreateInput{Title: "X", Status: ptr(domain.Status("done"))}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), ana, tt.in)
			if !errors.Is(err, apperror.ErrValidation) {
				t.Errorf("Create() error = %v, want validation error", err)
			}
		})
	}
}

func TestService_ListScopedAndOrdered(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	empty, err := svc.List(ctx, ana)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if empty == nil || len(empty) != 0 {
		t.Fatalf("List() = %v, want empty non-nil slice", empty)
	}

	var want []string
	for _, title := range []string{"first", "second", "third"} {
		created, err := svc.Create(ctx, ana, CreateInput{Title: title})
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		want = append(want, created.ID)
		if _, err := svc.Create(ctx, bob, CreateInput{Title: "bob " + title}); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	tasks, err := svc.List(ctx, ana)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}

	var got []string
	for _, tk := range tasks {
		got = append(got, tk.ID)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("List() ids = %v, want %v", got, want)
	}
}

func TestService_ByIDCheckOrder(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	owned, err := svc.Create(ctx, ana, CreateInput{Title: "Ana's"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	ops := map[string]func(owner, id string) error{
		"get": func(owner, id string) error {
			_, err := svc.Get(ctx, owner, id)
			return err
		},
		"update": func(owner, id string) error {
			_, err := svc.Update(ctx, owner, id, UpdateInput{Title: ptr("new")})
			return err
		},
		"complete": func(owner, id string) error {
			_, err := svc.Complete(ctx, owner, id)
			return err
		},
		"delete": func(owner, id string) error {
			return svc.Delete(ctx, owner, id)
		},
	}

	tests := []struct {
		name      string
		owner     string
		id        string
		want      *apperror.Error
		wantFinds int
	}{
		{name: "malformed id", owner: ana, id: "not-an-id", want: apperror.ErrInvalidIdentifier, wantFinds: 0},
		{name: "malformed id from stranger", owner: bob, id: "123", want: apperror.ErrInvalidIdentifier, wantFinds: 0},
		{name: "missing task", owner: ana, id: objectid.New(), want: apperror.ErrNotFound, wantFinds: 1},
		{name: "missing task from stranger", owner: bob, id: objectid.New(), want: apperror.ErrNotFound, wantFinds: 1},
		{name: "wrong owner", owner: bob, id: owned.ID, want: apperror.ErrForbidden, wantFinds: 1},
		{name: "wrong owner with uppercase id", owner: bob, id: strings.ToUpper(owned.ID), want: apperror.ErrForbidden, wantFinds: 1},
	}

	for opName, op := range ops {
		for _, tt := range tests {
			t.Run(opName+"/"+tt.name, func(t *testing.T) {
				repo.finds = 0
				err := op(tt.owner, tt.id)
				if !errors.Is(err, tt.want) {
					t.Errorf("error = %v, want %v", err, tt.want)
				}
				if repo.finds != tt.wantFinds {
					t.Errorf("store lookups = %d, want %d", repo.finds, tt.wantFinds)
				}
			})
		}
	}

	// The stranger's attempts must not have touched Ana's task.
	got, err := svc.Get(ctx, ana, owned.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Title != "Ana's" || got.Completed {
		t.Errorf("task modified by another user: %+v", got)
	}

	// Hex case does not matter to any store.
	got, err = svc.Get(ctx, ana, strings.ToUpper(owned.ID))
	if err != nil {
		t.Fatalf("Get(uppercase id) error = %v", err)
	}
	if got.ID != owned.ID {
		t.Errorf("ID = %q, want %q", got.ID, owned.ID)
	}
}

func TestService_Update(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	created, err := svc.Create(ctx, ana, CreateInput{Title: "Buy milk", Description: "2 litres"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	due := time.Date(2025, 4, 2, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return created.CreatedAt.Add(time.Minute) }

	updated, err := svc.Update(ctx, ana, created.ID, UpdateInput{
		Title:       ptr(" Buy oat milk "),
		Description: ptr(""),
		Completed:   ptr(true),
		DueDate:     &due,
		Status:      ptr(domain.StatusBlocked),
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	if updated.Title != "Buy oat milk" || updated.Description != "" || !updated.Completed {
		t.Errorf("Update() = %+v", updated)
	}
	if updated.Status != domain.StatusBlocked {
		t.Errorf("Status = %q", updated.Status)
	}
	if updated.DueDate == nil || !updated.DueDate.Equal(due) {
		t.Errorf("DueDate = %v", updated.DueDate)
	}
	if updated.ID != created.ID || updated.OwnerID != ana || !updated.CreatedAt.Equal(created.CreatedAt) {
		t.Error("immutable fields changed")
	}
	if !updated.UpdatedAt.After(created.UpdatedAt) {
		t.Error("UpdatedAt not advanced")
	}

	t.Run("empty patch does not write", func(t *testing.T) {
		repo.updates = 0
		same, err := svc.Update(ctx, ana, created.ID, UpdateInput{})
		if err != nil {
			t.Fatalf("Update() error = %v", err)
		}
		if repo.updates != 0 {
			t.Errorf("store writes = %d, want 0", repo.updates)
		}
		if !same.UpdatedAt.Equal(updated.UpdatedAt) {
			t.Error("UpdatedAt changed on a no-op update")
		}
	})

	t.Run("invalid patch", func(t *testing.T) {
		for _, patch := range []UpdateInput{
			{Title: ptr("   ")},
			{Status: ptr(domain.Status("finished"))},
		} {
			if _, err := svc.Update(ctx, ana, created.ID, patch); !errors.Is(err, apperror.ErrValidation) {
				t.Errorf("Update(%+v) error = %v, want validation error", patch, err)
			}
		}
	})
}

func TestService_CompleteIsIdempotent(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	created, err := svc.Create(ctx, ana, CreateInput{Title: "Buy milk"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	first, err := svc.Complete(ctx, ana, created.ID)
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if !first.Completed {
		t.Fatal("Completed = false after Complete()")
	}
	if first.Status != domain.StatusPending {
		t.Errorf("Status changed to %q; completion must not touch status", first.Status)
	}

	writes := repo.updates
	second, err := svc.Complete(ctx, ana, created.ID)
	if err != nil {
		t.Fatalf("second Complete() error = %v", err)
	}
	if !second.Completed {
		t.Error("Completed = false after second Complete()")
	}
	if repo.updates != writes {
		t.Errorf("second Complete() wrote to the store")
	}
}

func TestService_Delete(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	created, err := svc.Create(ctx, ana, CreateInput{Title: "Temp"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if err := svc.Delete(ctx, ana, created.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	if _, err := svc.Get(ctx, ana, created.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Get() after delete error = %v, want not found", err)
	}
	if err := svc.Delete(ctx, ana, created.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("second Delete() error = %v, want not found", err)
	}
}

func TestApply_ChangedFields(t *testing.T) {
	base := func() *domain.Task {
		return &domain.Task{Title: "a", Description: "d", Status: domain.StatusPending}
	}

	tests := []struct {
		name  string
		patch UpdateInput
		want  []string
	}{
		{name: "nothing", patch: UpdateInput{}, want: nil},
		{name: "same values", patch: UpdateInput{Title: ptr("a"), Completed: ptr(false)}, want: nil},
		{name: "title and status", patch: UpdateInput{Title: ptr("b"), Status: ptr(domain.StatusBlocked)}, want: []string{"title", "status"}},
		{name: "clear description", patch: UpdateInput{Description: ptr("")}, want: []string{"description"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := apply(base(), tt.patch); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("apply() = %v, want %v", got, tt.want)
			}
		})
	}
}
