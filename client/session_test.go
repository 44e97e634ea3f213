package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/example/task-manager/domain/objectid"
	"github.com/example/task-manager/domain/user"
	"github.com/example/task-manager/modules/activity"
	"github.com/example/task-manager/modules/api"
	"github.com/example/task-manager/modules/auth"
	"github.com/example/task-manager/modules/task"
	"github.com/example/task-manager/store/memstore"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type testBackend struct {
	server *httptest.Server
	users  *memstore.UserRepository
}

// newTestBackend serves the real API over in-memory stores.
func newTestBackend(t *testing.T) *testBackend {
	t.Helper()

	users := memstore.NewUserRepository()
	authService := auth.NewAuthService(users, auth.NewPasswordHasher(bcrypt.MinCost), auth.NewJWTManager(auth.JWTConfig{
		SecretKey:     "client-test-secret",
		TokenDuration: time.Hour,
	}))
	activityModule, err := activity.NewModule(activity.DefaultCapacity)
	require.NoError(t, err)

	app, err := api.NewApp(api.Options{CORSOrigins: "*"}, api.Ports{
		Auth:     authService,
		Tasks:    task.NewService(memstore.NewTaskRepository(), nil),
		Activity: activityModule,
	})
	require.NoError(t, err)

	server := httptest.NewServer(adaptor.FiberApp(app))
	t.Cleanup(server.Close)
	return &testBackend{server: server, users: users}
}

func newTestSession(t *testing.T, url string, tokens TokenStore, opts ...Option) *Session {
	t.Helper()
	if tokens == nil {
		tokens = &MemoryTokenStore{}
	}
	return NewSession(NewAPIClient(url), tokens, opts...)
}

func TestSession_RegisterAndManageTasks(t *testing.T) {
	backend := newTestBackend(t)
	tokens := &MemoryTokenStore{}
	s := newTestSession(t, backend.server.URL, tokens)
	ctx := context.Background()

	assert.Equal(t, ViewRedirectLogin, s.Gate())

	require.NoError(t, s.Register(ctx, "Ana", "ana@example.com", "secret1"))
	assert.Equal(t, StatusAuthenticated, s.Status())
	assert.Equal(t, ViewAllow, s.Gate())
	require.NotNil(t, s.Identity())
	assert.Equal(t, "Ana", s.Identity().Name)
	assert.Empty(t, s.Tasks())

	stored, err := tokens.Load()
	require.NoError(t, err)
	assert.NotEmpty(t, stored)

	milk, err := s.CreateTask(ctx, TaskInput{Title: "Buy milk", DueDate: "2030-01-02"})
	require.NoError(t, err)
	assert.False(t, milk.Completed)
	require.Len(t, s.Tasks(), 1)

	title := "Buy oat milk"
	_, err = s.UpdateTask(ctx, milk.ID, TaskPatch{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, title, s.Tasks()[0].Title)

	_, err = s.CompleteTask(ctx, milk.ID)
	require.NoError(t, err)
	assert.True(t, s.Tasks()[0].Completed)

	require.NoError(t, s.DeleteTask(ctx, milk.ID))
	assert.Empty(t, s.Tasks())

	entries, err := s.Activity(ctx, 10)
	require.NoError(t, err)
	assert.NotNil(t, entries)

	require.NoError(t, s.Logout(ctx))
	assert.Equal(t, StatusUnauthenticated, s.Status())
	assert.Nil(t, s.Identity())
	stored, _ = tokens.Load()
	assert.Empty(t, stored)
}

func TestSession_FailedMutationLeavesStateAlone(t *testing.T) {
	backend := newTestBackend(t)
	s := newTestSession(t, backend.server.URL, nil)
	ctx := context.Background()

	require.NoError(t, s.Register(ctx, "Ana", "ana@example.com", "secret1"))
	_, err := s.CreateTask(ctx, TaskInput{Title: "Keep me"})
	require.NoError(t, err)
	before := s.Tasks()

	_, err = s.CreateTask(ctx, TaskInput{Title: "   "})
	require.Error(t, err)
	_, err = s.CompleteTask(ctx, objectid.New())
	require.Error(t, err)
	err = s.DeleteTask(ctx, "not-an-id")
	require.Error(t, err)

	assert.Equal(t, before, s.Tasks())
	assert.Equal(t, StatusAuthenticated, s.Status())
	assert.Len(t, s.Errors(), 3)
}

func TestSession_ErrorsClearThemselves(t *testing.T) {
	backend := newTestBackend(t)
	s := newTestSession(t, backend.server.URL, nil, WithErrorTTL(300*time.Millisecond))

	err := s.Login(context.Background(), "nobody@example.com", "secret1")
	require.Error(t, err)
	assert.False(t, IsUnauthorized(nil))
	assert.True(t, IsUnauthorized(err))

	require.Len(t, s.Errors(), 1)
	assert.Equal(t, "invalid credentials", s.Errors()[0])
	assert.Eventually(t, func() bool { return len(s.Errors()) == 0 }, 3*time.Second, 10*time.Millisecond)
}

func TestSession_RestoreValidToken(t *testing.T) {
	backend := newTestBackend(t)
	tokens := &MemoryTokenStore{}
	ctx := context.Background()

	first := newTestSession(t, backend.server.URL, tokens)
	require.NoError(t, first.Register(ctx, "Ana", "ana@example.com", "secret1"))
	_, err := first.CreateTask(ctx, TaskInput{Title: "Buy milk"})
	require.NoError(t, err)

	second := newTestSession(t, backend.server.URL, tokens)
	assert.Equal(t, StatusUnauthenticated, second.Status())
	require.NoError(t, second.Restore(ctx))
	assert.Equal(t, StatusAuthenticated, second.Status())
	assert.Equal(t, "ana@example.com", second.Identity().Email)
	require.Len(t, second.Tasks(), 1)
	assert.Equal(t, "Buy milk", second.Tasks()[0].Title)
}

func TestSession_RestoreDiscardsRejectedToken(t *testing.T) {
	backend := newTestBackend(t)
	tokens := &MemoryTokenStore{}
	require.NoError(t, tokens.Save("not-a-real-token"))

	s := newTestSession(t, backend.server.URL, tokens)
	require.NoError(t, s.Restore(context.Background()))

	assert.Equal(t, StatusUnauthenticated, s.Status())
	assert.Equal(t, ViewRedirectLogin, s.Gate())
	stored, _ := tokens.Load()
	assert.Empty(t, stored)
}

func TestSession_RestoreWithoutToken(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer server.Close()

	s := newTestSession(t, server.URL, nil)
	require.NoError(t, s.Restore(context.Background()))
	assert.Equal(t, StatusUnauthenticated, s.Status())
	assert.Zero(t, calls.Load(), "no request without a stored token")
}

func TestSession_GateShowsLoadingWhilePending(t *testing.T) {
	release := make(chan struct{})
	var meCalls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/users/me":
			meCalls.Add(1)
			<-release
			_, _ = w.Write([]byte(`{"id":"u1","name":"Ana","email":"ana@example.com"}`))
		case "/api/tasks":
			_, _ = w.Write([]byte(`[]`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	tokens := &MemoryTokenStore{}
	require.NoError(t, tokens.Save("stored-token"))
	s := newTestSession(t, server.URL, tokens)

	done := make(chan error, 2)
	go func() { done <- s.Restore(context.Background()) }()
	go func() { done <- s.Restore(context.Background()) }()

	assert.Eventually(t, func() bool { return s.Gate() == ViewLoading }, time.Second, 5*time.Millisecond)
	close(release)

	require.NoError(t, <-done)
	require.NoError(t, <-done)
	assert.Equal(t, ViewAllow, s.Gate())
	assert.LessOrEqual(t, meCalls.Load(), int32(2))
}

func TestSession_UnauthorizedDropsToken(t *testing.T) {
	backend := newTestBackend(t)
	tokens := &MemoryTokenStore{}
	s := newTestSession(t, backend.server.URL, tokens)
	ctx := context.Background()

	require.NoError(t, s.Register(ctx, "Ghost", "ghost@example.com", "secret1"))
	_, err := s.CreateTask(ctx, TaskInput{Title: "Haunt"})
	require.NoError(t, err)

	backend.users.Remove(s.Identity().ID)

	err = s.LoadTasks(ctx)
	require.Error(t, err)
	assert.True(t, IsUnauthorized(err))
	assert.Equal(t, StatusUnauthenticated, s.Status())
	assert.Empty(t, s.Tasks())
	stored, _ := tokens.Load()
	assert.Empty(t, stored)

	_, err = s.CreateTask(ctx, TaskInput{Title: "After"})
	assert.ErrorIs(t, err, ErrNotAuthenticated)
}

func TestSession_ServerErrorMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	s := newTestSession(t, server.URL, nil)
	err := s.Login(context.Background(), "ana@example.com", "secret1")

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.Equal(t, []string{http.StatusText(http.StatusBadGateway)}, s.Errors())
}

func TestFileTokenStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.toml")
	store := NewFileTokenStore(path)

	token, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, token)

	require.NoError(t, store.Save("abc.def.ghi"))
	token, err = store.Load()
	require.NoError(t, err)
	assert.Equal(t, "abc.def.ghi", token)

	reopened := NewFileTokenStore(path)
	token, err = reopened.Load()
	require.NoError(t, err)
	assert.Equal(t, "abc.def.ghi", token)

	require.NoError(t, store.Delete())
	require.NoError(t, store.Delete())
	token, err = store.Load()
	require.NoError(t, err)
	assert.Empty(t, token)
}

// gatedTokenStore blocks Delete until release is closed.
type gatedTokenStore struct {
	MemoryTokenStore
	deleting chan struct{}
	release  chan struct{}
}

func (g *gatedTokenStore) Delete() error {
	close(g.deleting)
	<-g.release
	return g.MemoryTokenStore.Delete()
}

func TestSession_LateUnauthorizedDoesNotWipeNewLogin(t *testing.T) {
	tokens := &gatedTokenStore{deleting: make(chan struct{}), release: make(chan struct{})}
	s := newTestSession(t, "http://127.0.0.1:0", tokens)
	ana := user.Profile{ID: objectid.New(), Name: "Ana", Email: "ana@example.com"}
	require.NoError(t, s.signIn(&AuthResult{User: ana, Token: "old"}, nil))

	dropped := make(chan struct{})
	go func() {
		s.dropToken("old")
		close(dropped)
	}()
	<-tokens.deleting

	signedIn := make(chan error, 1)
	go func() { signedIn <- s.signIn(&AuthResult{User: ana, Token: "new"}, nil) }()
	time.Sleep(20 * time.Millisecond)
	close(tokens.release)

	<-dropped
	require.NoError(t, <-signedIn)

	assert.Equal(t, StatusAuthenticated, s.Status())
	token, err := s.currentToken()
	require.NoError(t, err)
	assert.Equal(t, "new", token)
	stored, _ := tokens.Load()
	assert.Equal(t, "new", stored)
}

func TestSession_StaleUnauthorizedKeepsCurrentToken(t *testing.T) {
	tokens := &MemoryTokenStore{}
	s := newTestSession(t, "http://127.0.0.1:0", tokens)
	require.NoError(t, s.signIn(&AuthResult{User: user.Profile{ID: objectid.New(), Name: "Ana"}, Token: "new"}, nil))

	s.dropToken("old")

	assert.Equal(t, StatusAuthenticated, s.Status())
	stored, _ := tokens.Load()
	assert.Equal(t, "new", stored)
}

func TestSession_RestoreLeavesAuthenticatedSessionAlone(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	tokens := &MemoryTokenStore{}
	s := newTestSession(t, server.URL, tokens)
	require.NoError(t, s.signIn(&AuthResult{User: user.Profile{ID: objectid.New(), Name: "Ana"}, Token: "live"}, nil))

	require.NoError(t, s.Restore(context.Background()))

	assert.Zero(t, calls.Load())
	assert.Equal(t, StatusAuthenticated, s.Status())
	require.NotNil(t, s.Identity())
	assert.Equal(t, "Ana", s.Identity().Name)
}

func TestSession_RestoreServerErrorClearsState(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	tokens := &MemoryTokenStore{}
	require.NoError(t, tokens.Save("stored-token"))
	s := newTestSession(t, server.URL, tokens)

	err := s.Restore(context.Background())

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, StatusUnauthenticated, s.Status())
	assert.Nil(t, s.Identity())
	assert.Empty(t, s.Tasks())
	_, err = s.currentToken()
	assert.ErrorIs(t, err, ErrNotAuthenticated)
	// Only a 401 proves the token bad.
	stored, _ := tokens.Load()
	assert.Equal(t, "stored-token", stored)
	assert.NotEmpty(t, s.Errors())
}
