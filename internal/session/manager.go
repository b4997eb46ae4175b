package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/singleflight"

	"github.com/ainotes-dev/ainotes/internal/apperr"
	"github.com/ainotes-dev/ainotes/internal/log"
	"github.com/ainotes-dev/ainotes/internal/model"
	"github.com/ainotes-dev/ainotes/internal/storage"
)

// ErrNoRefreshToken is returned by RefreshAccess when nothing is persisted to refresh with.
var ErrNoRefreshToken = errors.New("no refresh token")

// ErrSessionChanged is returned by RefreshAccess when a login or logout
// replaced the session while the refresh was in flight. The refreshed pair
// is discarded.
var ErrSessionChanged = errors.New("session changed during refresh")

var validate = validator.New(validator.WithRequiredStructEnabled())

// Manager owns the access/refresh pair and the authenticated user.
// Token read-modify-write happens under mu; refreshes share one in-flight call.
type Manager struct {
	store  storage.KV
	auth   Authenticator
	logger *log.Logger

	mu        sync.Mutex
	user      *model.User
	state     State
	gen       uint64 // bumped whenever the persisted pair is replaced or cleared
	onExpired func()

	initOnce sync.Once
	refresh  singleflight.Group
}

// NewManager creates a Manager in the uninitialized state.
func NewManager(store storage.KV, auth Authenticator, logger *log.Logger) *Manager {
	return &Manager{
		store:  store,
		auth:   auth,
		logger: logger,
		state:  StateUninitialized,
	}
}

// OnExpired registers fn to run after an unrecoverable refresh failure has
// cleared the session. The UI uses it to force the login view.
func (m *Manager) OnExpired(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onExpired = fn
}

// Initialize restores a persisted session by validating the stored access
// token against the profile endpoint. Failures downgrade to anonymous.
// Only the first call does any work.
func (m *Manager) Initialize(ctx context.Context) State {
	m.initOnce.Do(func() {
		m.setState(StateLoading)

		access, err := m.store.Get(storage.KeyAccessToken)
		if err != nil || access == "" {
			m.finishInit(nil)
			return
		}

		user, err := m.auth.Me(ctx)
		if err != nil {
			_ = m.clearTokens()
			_ = m.logger.Append(log.LogEvent{Event: log.EventSessionDowngraded, Error: err.Error()})
			m.finishInit(nil)
			return
		}

		_ = m.logger.Append(log.LogEvent{Event: log.EventSessionRestored, User: user.Email})
		m.finishInit(user)
	})
	return m.State()
}

func (m *Manager) finishInit(user *model.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.user = user
	if user != nil {
		m.state = StateAuthenticated
	} else {
		m.state = StateAnonymous
	}
}

// Login exchanges credentials for a token pair, persists it, and loads the
// profile. On any failure no token state from this attempt is kept.
func (m *Manager) Login(ctx context.Context, identifier, secret string) error {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || secret == "" {
		return apperr.Validation("login", "email or username and password are required")
	}

	pair, err := m.auth.Login(ctx, identifier, secret)
	if err != nil {
		_ = m.logger.Append(log.LogEvent{Event: log.EventLoginFailed, User: identifier, Error: err.Error()})
		return err
	}

	if err := m.storePair(pair); err != nil {
		return fmt.Errorf("persisting tokens: %w", err)
	}

	user, err := m.auth.Me(ctx)
	if err != nil {
		_ = m.clearTokens()
		m.mu.Lock()
		m.user = nil
		m.state = StateAnonymous
		m.mu.Unlock()
		_ = m.logger.Append(log.LogEvent{Event: log.EventLoginFailed, User: identifier, Error: err.Error()})
		return err
	}

	m.mu.Lock()
	m.user = user
	m.state = StateAuthenticated
	m.mu.Unlock()

	_ = m.logger.Append(log.LogEvent{Event: log.EventLogin, User: user.Email})
	return nil
}

// Register creates the account and then logs in with the email, not the
// username, matching what the server guarantees to accept after sign-up.
func (m *Manager) Register(ctx context.Context, req RegisterRequest) error {
	req.Email = strings.TrimSpace(req.Email)
	req.Username = strings.TrimSpace(req.Username)
	if err := validate.Struct(req); err != nil {
		return registerValidationError(err)
	}

	if _, err := m.auth.Register(ctx, req.Email, req.Username, req.Password); err != nil {
		return err
	}
	_ = m.logger.Append(log.LogEvent{Event: log.EventRegister, User: req.Email})

	return m.Login(ctx, req.Email, req.Password)
}

func registerValidationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apperr.Validation("register", err.Error())
	}
	// A mismatched confirmation is reported before any length problem.
	for _, fe := range fieldErrs {
		if fe.Field() == "Confirm" && fe.Tag() == "eqfield" {
			return apperr.Validation("register", "passwords do not match")
		}
	}
	fe := fieldErrs[0]
	switch {
	case fe.Field() == "Email":
		return apperr.Validation("register", "a valid email address is required")
	case fe.Field() == "Username" && fe.Tag() == "max":
		return apperr.Validation("register", "username is too long")
	case fe.Field() == "Username":
		return apperr.Validation("register", "username is required")
	case fe.Field() == "Password" && fe.Tag() == "min":
		return apperr.Validation("register", "password must be at least 6 characters")
	case fe.Field() == "Password" && fe.Tag() == "max":
		return apperr.Validation("register", "password is too long")
	case fe.Field() == "Password":
		return apperr.Validation("register", "password is required")
	default:
		return apperr.Validation("register", "please confirm the password")
	}
}

// Logout clears both tokens and the user. It never touches the network.
func (m *Manager) Logout() error {
	err := m.clearTokens()

	m.mu.Lock()
	email := ""
	if m.user != nil {
		email = m.user.Email
	}
	m.user = nil
	m.state = StateAnonymous
	m.mu.Unlock()

	_ = m.logger.Append(log.LogEvent{Event: log.EventLogout, User: email})
	if err != nil {
		return fmt.Errorf("clearing tokens: %w", err)
	}
	return nil
}

// Reload re-fetches the profile from the server.
func (m *Manager) Reload(ctx context.Context) (*model.User, error) {
	user, err := m.auth.Me(ctx)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	// A refresh failure during the call may have ended the session.
	if m.state != StateAuthenticated {
		return nil, apperr.Auth("reload profile", "session ended")
	}
	m.user = user
	copied := *user
	return &copied, nil
}

// RefreshAccess obtains a new access token after the server rejected stale.
// Concurrent callers share a single refresh, which is not tied to any one
// caller's context: a caller giving up does not cancel it for the others.
// If the stored token already differs from stale, a refresh has happened and
// that token is returned. When the server rejects the refresh the session is
// cleared and the expiry hook fires.
func (m *Manager) RefreshAccess(ctx context.Context, stale string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	flight := context.WithoutCancel(ctx)
	ch := m.refresh.DoChan("refresh", func() (interface{}, error) {
		return m.doRefresh(flight, stale)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (m *Manager) doRefresh(ctx context.Context, stale string) (string, error) {
	m.mu.Lock()
	access, err := m.store.Get(storage.KeyAccessToken)
	if err != nil {
		m.mu.Unlock()
		return "", fmt.Errorf("reading access token: %w", err)
	}
	if access != "" && access != stale {
		m.mu.Unlock()
		return access, nil
	}
	refreshToken, err := m.store.Get(storage.KeyRefreshToken)
	gen := m.gen
	m.mu.Unlock()
	if err != nil {
		return "", fmt.Errorf("reading refresh token: %w", err)
	}

	if refreshToken == "" {
		m.expire(gen, ErrNoRefreshToken)
		return "", &apperr.Error{Kind: apperr.ErrAuth, Op: "refresh", Err: ErrNoRefreshToken}
	}

	pair, err := m.auth.RefreshTokens(ctx, refreshToken)
	if err != nil {
		// The refresh never reached a verdict; keep the session.
		if ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return "", err
		}
		m.expire(gen, err)
		return "", err
	}

	m.mu.Lock()
	current, err := m.store.Get(storage.KeyRefreshToken)
	if err != nil {
		m.mu.Unlock()
		return "", fmt.Errorf("reading refresh token: %w", err)
	}
	if m.gen != gen || current != refreshToken {
		m.mu.Unlock()
		_ = m.logger.Append(log.LogEvent{Event: log.EventRefreshFailed, Error: ErrSessionChanged.Error()})
		return "", &apperr.Error{Kind: apperr.ErrAuth, Op: "refresh", Err: ErrSessionChanged}
	}
	err = m.store.SetMany(map[string]string{
		storage.KeyAccessToken:  pair.AccessToken,
		storage.KeyRefreshToken: pair.RefreshToken,
	})
	m.mu.Unlock()
	if err != nil {
		return "", fmt.Errorf("persisting refreshed tokens: %w", err)
	}

	_ = m.logger.Append(log.LogEvent{Event: log.EventTokenRefreshed})
	return pair.AccessToken, nil
}

// expire ends the session after a failed refresh, unless a login or logout
// has already replaced the session the refresh started from.
func (m *Manager) expire(gen uint64, cause error) {
	m.mu.Lock()
	if m.gen != gen {
		m.mu.Unlock()
		return
	}
	m.gen++
	_ = m.store.Delete(storage.KeyAccessToken, storage.KeyRefreshToken)
	m.user = nil
	if m.state != StateLoading {
		m.state = StateAnonymous
	}
	hook := m.onExpired
	m.mu.Unlock()

	_ = m.logger.Append(log.LogEvent{Event: log.EventRefreshFailed, Error: cause.Error()})
	if hook != nil {
		hook()
	}
}

// AccessToken returns the persisted access token, or "".
func (m *Manager) AccessToken() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	token, err := m.store.Get(storage.KeyAccessToken)
	if err != nil {
		return ""
	}
	return token
}

// HasRefreshToken reports whether a refresh token is persisted.
func (m *Manager) HasRefreshToken() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	token, err := m.store.Get(storage.KeyRefreshToken)
	return err == nil && token != ""
}

// State returns the lifecycle state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Loading is true until Initialize has completed.
func (m *Manager) Loading() bool {
	s := m.State()
	return s == StateUninitialized || s == StateLoading
}

// Authenticated is derived from the presence of a user.
func (m *Manager) Authenticated() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.user != nil
}

// User returns a copy of the authenticated user, or nil.
func (m *Manager) User() *model.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.user == nil {
		return nil
	}
	u := *m.user
	return &u
}

func (m *Manager) setState(s State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = s
}

func (m *Manager) storePair(pair *model.TokenPair) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gen++
	return m.store.SetMany(map[string]string{
		storage.KeyAccessToken:  pair.AccessToken,
		storage.KeyRefreshToken: pair.RefreshToken,
	})
}

func (m *Manager) clearTokens() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gen++
	return m.store.Delete(storage.KeyAccessToken, storage.KeyRefreshToken)
}
