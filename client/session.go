package client

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/example/task-manager/domain/task"
	"github.com/example/task-manager/domain/user"
	"golang.org/x/sync/singleflight"
)

// DefaultErrorTTL is how long a raised error stays visible.
const DefaultErrorTTL = 5 * time.Second

// ErrNotAuthenticated is returned by task operations without a session.
var ErrNotAuthenticated = errors.New("not logged in")

// Status is the authentication state of a Session.
type Status int

const (
	StatusUnauthenticated Status = iota
	// StatusPending means a stored token is being re-validated.
	StatusPending
	StatusAuthenticated
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusAuthenticated:
		return "authenticated"
	default:
		return "unauthenticated"
	}
}

// View is what a protected screen should render.
type View int

const (
	ViewRedirectLogin View = iota
	ViewLoading
	ViewAllow
)

func (v View) String() string {
	switch v {
	case ViewLoading:
		return "loading"
	case ViewAllow:
		return "allow"
	default:
		return "redirect-login"
	}
}

type notice struct {
	id   uint64
	text string
}

// Option configures a Session.
type Option func(*Session)

// WithErrorTTL overrides DefaultErrorTTL.
func WithErrorTTL(d time.Duration) Option {
	return func(s *Session) {
		s.errorTTL = d
	}
}

// Session holds the client view state: who is logged in, their tasks, and
// the errors to show. Remote results are applied only after the call
// succeeds; a failed call leaves the state as it was and raises an error.
type Session struct {
	api      *APIClient
	tokens   TokenStore
	errorTTL time.Duration
	restores singleflight.Group

	mu         sync.Mutex
	status     Status
	token      string
	identity   *user.Identity
	tasks      []task.Task
	notices    []notice
	lastNotice uint64
}

// NewSession creates an unauthenticated session. Call Restore to pick up a
// previously stored token.
func NewSession(api *APIClient, tokens TokenStore, opts ...Option) *Session {
	s := &Session{
		api:      api,
		tokens:   tokens,
		errorTTL: DefaultErrorTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Restore re-validates a stored token against the server before trusting it.
// Status is Pending while the check runs. A rejected token is deleted and the
// session stays unauthenticated. Concurrent calls share one check, and an
// already authenticated session is left alone.
func (s *Session) Restore(ctx context.Context) error {
	_, err, _ := s.restores.Do("restore", func() (any, error) {
		return nil, s.restore(ctx)
	})
	return err
}

func (s *Session) restore(ctx context.Context) error {
	if s.Status() == StatusAuthenticated {
		return nil
	}

	token, err := s.tokens.Load()
	if err != nil {
		return s.fail(err, "")
	}
	if token == "" {
		return nil
	}

	s.mu.Lock()
	s.status = StatusPending
	s.mu.Unlock()

	identity, err := s.api.Me(ctx, token)
	if err != nil {
		if IsUnauthorized(err) {
			s.dropToken(token)
			return nil
		}
		s.reset()
		return s.fail(err, "")
	}

	s.mu.Lock()
	s.status = StatusAuthenticated
	s.token = token
	s.identity = identity
	s.tasks = nil
	s.mu.Unlock()

	return s.LoadTasks(ctx)
}

// Register creates an account and signs in with it.
func (s *Session) Register(ctx context.Context, name, email, password string) error {
	result, err := s.api.Register(ctx, name, email, password)
	if err != nil {
		return s.fail(err, "")
	}
	return s.signIn(result, []task.Task{})
}

// Login signs in and loads the user's tasks.
func (s *Session) Login(ctx context.Context, email, password string) error {
	result, err := s.api.Login(ctx, email, password)
	if err != nil {
		return s.fail(err, "")
	}
	if err := s.signIn(result, nil); err != nil {
		return err
	}
	return s.LoadTasks(ctx)
}

func (s *Session) signIn(result *AuthResult, tasks []task.Task) error {
	s.mu.Lock()
	if err := s.tokens.Save(result.Token); err != nil {
		s.mu.Unlock()
		return s.fail(err, "")
	}
	defer s.mu.Unlock()
	s.status = StatusAuthenticated
	s.token = result.Token
	s.identity = &user.Identity{
		ID:    result.User.ID,
		Name:  result.User.Name,
		Email: result.User.Email,
	}
	s.tasks = tasks
	return nil
}

// Logout tells the server and forgets the token.
func (s *Session) Logout(ctx context.Context) error {
	if _, err := s.api.Logout(ctx); err != nil {
		return s.fail(err, "")
	}

	s.mu.Lock()
	err := s.tokens.Delete()
	if err == nil {
		s.clear()
	}
	s.mu.Unlock()
	if err != nil {
		return s.fail(err, "")
	}
	return nil
}

// LoadTasks replaces the task list with the server's.
func (s *Session) LoadTasks(ctx context.Context) error {
	token, err := s.currentToken()
	if err != nil {
		return err
	}

	tasks, err := s.api.ListTasks(ctx, token)
	if err != nil {
		return s.fail(err, token)
	}
	if tasks == nil {
		tasks = []task.Task{}
	}

	s.apply(token, func() {
		s.tasks = tasks
	})
	return nil
}

// Task fetches one task and refreshes its local copy.
func (s *Session) Task(ctx context.Context, id string) (*task.Task, error) {
	token, err := s.currentToken()
	if err != nil {
		return nil, err
	}

	found, err := s.api.GetTask(ctx, token, id)
	if err != nil {
		return nil, s.fail(err, token)
	}

	s.apply(token, func() {
		s.replace(*found)
	})
	return found, nil
}

// CreateTask creates a task and appends it to the list.
func (s *Session) CreateTask(ctx context.Context, in TaskInput) (*task.Task, error) {
	token, err := s.currentToken()
	if err != nil {
		return nil, err
	}

	created, err := s.api.CreateTask(ctx, token, in)
	if err != nil {
		return nil, s.fail(err, token)
	}

	s.apply(token, func() {
		s.tasks = append(s.tasks, *created)
	})
	return created, nil
}

// UpdateTask applies patch and replaces the local copy.
func (s *Session) UpdateTask(ctx context.Context, id string, patch TaskPatch) (*task.Task, error) {
	token, err := s.currentToken()
	if err != nil {
		return nil, err
	}

	updated, err := s.api.UpdateTask(ctx, token, id, patch)
	if err != nil {
		return nil, s.fail(err, token)
	}

	s.apply(token, func() {
		s.replace(*updated)
	})
	return updated, nil
}

// CompleteTask marks a task completed.
func (s *Session) CompleteTask(ctx context.Context, id string) (*task.Task, error) {
	token, err := s.currentToken()
	if err != nil {
		return nil, err
	}

	completed, err := s.api.CompleteTask(ctx, token, id)
	if err != nil {
		return nil, s.fail(err, token)
	}

	s.apply(token, func() {
		s.replace(*completed)
	})
	return completed, nil
}

// DeleteTask deletes a task and drops it from the list.
func (s *Session) DeleteTask(ctx context.Context, id string) error {
	token, err := s.currentToken()
	if err != nil {
		return err
	}

	if err := s.api.DeleteTask(ctx, token, id); err != nil {
		return s.fail(err, token)
	}

	s.apply(token, func() {
		s.tasks = slices.DeleteFunc(s.tasks, func(t task.Task) bool { return t.ID == id })
	})
	return nil
}

// Activity returns the caller's recent activity. It is not kept in the session.
func (s *Session) Activity(ctx context.Context, limit int) ([]ActivityEntry, error) {
	token, err := s.currentToken()
	if err != nil {
		return nil, err
	}

	entries, err := s.api.Activity(ctx, token, limit)
	if err != nil {
		return nil, s.fail(err, token)
	}
	return entries, nil
}

// Status returns the current authentication status.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Identity returns the signed-in user, or nil.
func (s *Session) Identity() *user.Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.identity == nil {
		return nil
	}
	identity := *s.identity
	return &identity
}

// Tasks returns a copy of the task list.
func (s *Session) Tasks() []task.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.tasks)
}

// Errors returns the messages raised in the last error TTL, oldest first.
func (s *Session) Errors() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.notices))
	for i, n := range s.notices {
		out[i] = n.text
	}
	return out
}

// Gate decides what a protected view renders. It never redirects while a
// stored token is still being checked.
func (s *Session) Gate() View {
	switch s.Status() {
	case StatusPending:
		return ViewLoading
	case StatusAuthenticated:
		return ViewAllow
	default:
		return ViewRedirectLogin
	}
}

func (s *Session) currentToken() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != StatusAuthenticated || s.token == "" {
		return "", ErrNotAuthenticated
	}
	return s.token, nil
}

// apply runs fn under the lock if the session still belongs to token.
func (s *Session) apply(token string, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token != token {
		return
	}
	fn()
}

// replace swaps in t by id. Caller holds mu.
func (s *Session) replace(t task.Task) {
	for i := range s.tasks {
		if s.tasks[i].ID == t.ID {
			s.tasks[i] = t
			return
		}
	}
}

// fail raises err and, for a 401 on a call made with token, ends the session.
func (s *Session) fail(err error, token string) error {
	if token != "" && IsUnauthorized(err) {
		s.dropToken(token)
	}

	msg := err.Error()
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		msg = apiErr.Message
	}
	s.raise(msg)
	return err
}

// dropToken forgets token unless a newer session replaced it meanwhile. The
// check, the store delete and the reset happen under one lock, so a sign-in
// cannot land between them.
func (s *Session) dropToken(token string) {
	s.mu.Lock()
	if s.token != "" && s.token != token {
		s.mu.Unlock()
		return
	}
	err := s.tokens.Delete()
	s.clear()
	s.mu.Unlock()

	if err != nil {
		s.raise(err.Error())
	}
}

func (s *Session) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clear()
}

// clear drops the signed-in state. Caller holds mu.
func (s *Session) clear() {
	s.status = StatusUnauthenticated
	s.token = ""
	s.identity = nil
	s.tasks = nil
}

func (s *Session) raise(text string) {
	s.mu.Lock()
	s.lastNotice++
	id := s.lastNotice
	s.notices = append(s.notices, notice{id: id, text: text})
	ttl := s.errorTTL
	s.mu.Unlock()

	time.AfterFunc(ttl, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.notices = slices.DeleteFunc(s.notices, func(n notice) bool { return n.id == id })
	})
}
