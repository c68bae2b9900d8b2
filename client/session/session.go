// Package session owns the client's authentication state: the bearer token,
// the signed-in user and the bootstrap lifecycle that validates a persisted
// token on startup.
package session

import (
	"context"
	"net/http"
	"sync"

	"github.com/rs/zerolog"

	"github.com/duynhne/portfolio-service/client/gateway"
	"github.com/duynhne/portfolio-service/client/tokenstore"
	"github.com/duynhne/portfolio-service/internal/core/domain"
)

// Status is the authentication state. unknown only exists before Bootstrap.
type Status string

const (
	StatusUnknown       Status = "unknown"
	StatusChecking      Status = "checking"
	StatusAuthenticated Status = "authenticated"
	StatusAnonymous     Status = "anonymous"
)

// Decision is the outcome of a route gate.
type Decision int

const (
	// Suspend means the auth state is not settled yet; render nothing.
	Suspend Decision = iota
	Allow
	Redirect
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case Redirect:
		return "redirect"
	default:
		return "suspend"
	}
}

const (
	msgNoToken        = "No token in server response. Please contact administrator."
	msgInvalidPayload = gateway.MsgInvalidResponse
)

// API is the subset of the gateway the manager calls.
type API interface {
	Login(ctx context.Context, req domain.LoginRequest) (*domain.AuthResponse, error)
	Me(ctx context.Context) (*domain.User, error)
}

// Snapshot is a consistent copy of the manager state.
type Snapshot struct {
	Status  Status
	User    *domain.User
	Token   string
	LastErr error
}

// Manager is safe for concurrent use.
type Manager struct {
	api   API
	store tokenstore.Store
	log   zerolog.Logger

	mu      sync.RWMutex
	status  Status
	user    *domain.User
	token   string
	lastErr error
	subs    map[int]func(Snapshot)
	nextSub int

	bootOnce sync.Once
}

// Option configures a Manager.
type Option func(*Manager)

func WithLogger(l zerolog.Logger) Option {
	return func(m *Manager) { m.log = l.With().Str("component", "session").Logger() }
}

func New(api API, store tokenstore.Store, opts ...Option) *Manager {
	m := &Manager{
		api:    api,
		store:  store,
		log:    zerolog.Nop(),
		status: StatusUnknown,
		subs:   make(map[int]func(Snapshot)),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Token implements gateway.TokenSource.
func (m *Manager) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token
}

func (m *Manager) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshotLocked()
}

func (m *Manager) snapshotLocked() Snapshot {
	var u *domain.User
	if m.user != nil {
		cp := *m.user
		u = &cp
	}
	return Snapshot{Status: m.status, User: u, Token: m.token, LastErr: m.lastErr}
}

func (m *Manager) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

// User returns a copy of the signed-in user, or nil.
func (m *Manager) User() *domain.User {
	return m.Snapshot().User
}

// LastError returns the most recent failure recorded by the manager.
func (m *Manager) LastError() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastErr
}

func (m *Manager) IsAdmin() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.user.IsAdmin()
}

// Subscribe registers fn to be called after every state change and returns
// a function that removes it. fn runs on the goroutine that made the change.
func (m *Manager) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	m.mu.Lock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = fn
	m.mu.Unlock()
	return func() {
		m.mu.Lock()
		delete(m.subs, id)
		m.mu.Unlock()
	}
}

// update applies fn under the write lock and notifies subscribers afterwards.
func (m *Manager) update(fn func()) {
	m.mu.Lock()
	fn()
	snap := m.snapshotLocked()
	subs := make([]func(Snapshot), 0, len(m.subs))
	for _, s := range m.subs {
		subs = append(subs, s)
	}
	m.mu.Unlock()
	for _, s := range subs {
		s(snap)
	}
}

// Bootstrap validates the persisted token once. Concurrent and later callers
// block until the first run completes and then return immediately.
// Failures are recorded in LastError, never returned.
func (m *Manager) Bootstrap(ctx context.Context) {
	m.bootOnce.Do(func() { m.bootstrap(ctx) })
}

func (m *Manager) bootstrap(ctx context.Context) {
	token, err := m.store.Load(ctx)
	if err != nil {
		m.log.Warn().Err(err).Msg("Failed to load persisted token")
	}
	if token == "" {
		m.update(func() { m.status = StatusAnonymous })
		return
	}

	m.update(func() {
		m.status = StatusChecking
		m.token = token
	})

	user, err := m.api.Me(ctx)
	if err != nil {
		m.log.Info().Err(err).Msg("Persisted token rejected, signing out")
		if cerr := m.store.Clear(context.WithoutCancel(ctx)); cerr != nil {
			m.log.Warn().Err(cerr).Msg("Failed to clear persisted token")
		}
		m.update(func() {
			m.status = StatusAnonymous
			m.token = ""
			m.user = nil
			m.lastErr = err
		})
		return
	}
	m.update(func() {
		m.status = StatusAuthenticated
		m.user = user
		m.lastErr = nil
	})
}

// Login exchanges credentials for a token. On failure the state is left as
// it was and the error is returned unchanged.
func (m *Manager) Login(ctx context.Context, req domain.LoginRequest) error {
	resp, err := m.api.Login(ctx, req)
	if err != nil {
		m.update(func() { m.lastErr = err })
		return err
	}
	if resp == nil || resp.Token == "" {
		msg := msgInvalidPayload
		if resp != nil && resp.Success {
			msg = msgNoToken
		}
		gerr := &gateway.Error{Kind: gateway.KindAuth, StatusCode: http.StatusUnauthorized, Message: msg}
		m.update(func() { m.lastErr = gerr })
		return gerr
	}

	user := resp.User
	if user == nil {
		// Me needs the new token attached; nothing is published until it answers.
		m.mu.Lock()
		prev := m.token
		m.token = resp.Token
		m.mu.Unlock()

		user, err = m.api.Me(ctx)
		if err != nil {
			m.log.Warn().Err(err).Msg("Failed to load user after login")
			m.update(func() {
				m.token = prev
				m.lastErr = err
			})
			return err
		}
	}

	if err := m.store.Save(ctx, resp.Token); err != nil {
		m.log.Warn().Err(err).Msg("Failed to persist token")
	}
	m.update(func() {
		m.token = resp.Token
		m.user = user
		m.status = StatusAuthenticated
		m.lastErr = nil
	})
	m.log.Debug().Str("email", req.Email).Msg("Signed in")
	return nil
}

// Logout forgets the token and user. It never touches the network.
func (m *Manager) Logout() {
	if err := m.store.Clear(context.Background()); err != nil {
		m.log.Warn().Err(err).Msg("Failed to clear persisted token")
	}
	m.update(func() {
		m.token = ""
		m.user = nil
		m.status = StatusAnonymous
		m.lastErr = nil
	})
}

// Refresh reloads the current user. The token is not touched and a failed
// refresh keeps the previous user.
func (m *Manager) Refresh(ctx context.Context) error {
	user, err := m.api.Me(ctx)
	if err != nil {
		m.update(func() { m.lastErr = err })
		return err
	}
	m.update(func() {
		m.user = user
		m.lastErr = nil
	})
	return nil
}

// Gate decides whether a protected view may render.
func (m *Manager) Gate() Decision {
	switch m.Status() {
	case StatusAuthenticated:
		return Allow
	case StatusAnonymous:
		return Redirect
	default:
		return Suspend
	}
}

// GateAdmin is Gate plus the admin role requirement.
func (m *Manager) GateAdmin() Decision {
	d := m.Gate()
	if d == Allow && !m.IsAdmin() {
		return Redirect
	}
	return d
}

var _ gateway.TokenSource = (*Manager)(nil)
