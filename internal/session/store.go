// Package session holds the signed-in operator's token and cached user
// record, and the login/expiry state machine around them.
package session

import (
	"errors"
	"sync"
	"time"

	"foodcourt-dashboard/internal/models"
)

type State string

const (
	StateUnauthenticated State = "unauthenticated"
	StateAuthenticating  State = "authenticating"
	StateAuthenticated   State = "authenticated"
	StateExpired         State = "expired"
)

var (
	ErrLoginInProgress = errors.New("session: login already in progress")
	ErrNotLoggingIn    = errors.New("session: no login in progress")
)

// Store is written by login/logout/expiry and read by every outbound request.
// It is passed explicitly to whoever needs it.
type Store struct {
	mu    sync.RWMutex
	token string
	user  *models.User
	state State
	now   func() time.Time
}

func NewStore() *Store {
	return &Store{state: StateUnauthenticated, now: time.Now}
}

// Restore rebuilds a session from persisted credentials. A present token is
// trusted optimistically unless it carries an exp claim that already passed.
func Restore(token string, user *models.User) *Store {
	s := NewStore()
	if token == "" {
		return s
	}
	if TokenExpired(token, s.now()) {
		s.state = StateExpired
		return s
	}
	s.token = token
	s.user = cloneUser(user)
	s.state = StateAuthenticated
	return s
}

func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *Store) User() *models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneUser(s.user)
}

func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Store) Authenticated() bool {
	return s.State() == StateAuthenticated
}

func (s *Store) BeginLogin() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateAuthenticating {
		return ErrLoginInProgress
	}
	s.state = StateAuthenticating
	return nil
}

// CompleteLogin stores token and user before the state flips, so a reader
// that sees authenticated always sees the credentials too.
func (s *Store) CompleteLogin(token string, user models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateAuthenticating {
		return ErrNotLoggingIn
	}
	s.token = token
	s.user = &user
	s.state = StateAuthenticated
	return nil
}

func (s *Store) FailLogin() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateAuthenticating {
		s.token = ""
		s.user = nil
		s.state = StateUnauthenticated
	}
}

// SetUser refreshes the cached user after a successful profile fetch.
func (s *Store) SetUser(user models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateAuthenticated {
		s.user = &user
	}
}

// Expire drops credentials after the backend rejected them.
func (s *Store) Expire() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.user = nil
	s.state = StateExpired
}

func (s *Store) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.user = nil
	s.state = StateUnauthenticated
}

func cloneUser(u *models.User) *models.User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}

// DashboardPath is where an operator lands after login.
func DashboardPath(role models.UserRole) string {
	if role == models.RoleKios {
		return "/dashboard/kios"
	}
	return "/dashboard/cashier"
}
