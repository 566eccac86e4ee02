package session

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"

	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog"
	"github.com/volumebot/console/internal/clients/volumebot"
	"github.com/volumebot/console/internal/events"
)

// State is the auth gate state.
type State string

const (
	StateUnknown         State = "unknown"
	StateAuthenticated   State = "authenticated"
	StateUnauthenticated State = "unauthenticated"
)

// LoginPath is where unauthenticated users are sent.
const LoginPath = "/login"

// ErrMissingCredentials is returned by Login when email or password is blank.
var ErrMissingCredentials = errors.New("Please enter both email and password.")

// ErrInvalidCredentials is wrapped by the error Login returns when the API
// rejects the email and password with 401 or 403.
var ErrInvalidCredentials = errors.New("Invalid email or password.")

// Store persists the credential. *Repository satisfies it.
type Store interface {
	Load() (*Session, error)
	Save(s Session) error
	Delete() error
}

// Authenticator exchanges credentials for a token. *volumebot.Client satisfies it.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (volumebot.LoginResult, error)
}

// SnapshotClearer drops every cached snapshot. *clientdata.Repository satisfies it.
type SnapshotClearer interface {
	Clear() (int64, error)
}

// Emitter publishes gate events. *events.Manager satisfies it.
type Emitter interface {
	EmitTyped(module string, data events.EventData)
}

// Config controls what a teardown discards.
type Config struct {
	ClearCacheOnLogout       bool
	ClearCacheOnUnauthorized bool
	Clock                    clock.Clock
}

// Gate is the auth state machine:
//
//	unknown -> authenticated | unauthenticated  (Start)
//	unauthenticated -> authenticated            (Login)
//	authenticated -> unauthenticated            (Logout, HandleUnauthorized)
type Gate struct {
	store     Store
	auth      Authenticator
	snapshots SnapshotClearer
	emitter   Emitter
	cfg       Config
	log       zerolog.Logger

	mu      sync.Mutex
	state   State
	session *Session

	listenersMu sync.Mutex
	nextID      int
	onChange    map[int]func(State)
	onRedirect  map[int]func()
}

// NewGate creates a gate in the unknown state. snapshots and emitter may be nil.
func NewGate(store Store, auth Authenticator, snapshots SnapshotClearer, emitter Emitter, cfg Config, log zerolog.Logger) *Gate {
	if cfg.Clock == nil {
		cfg.Clock = clock.New()
	}
	return &Gate{
		store:      store,
		auth:       auth,
		snapshots:  snapshots,
		emitter:    emitter,
		cfg:        cfg,
		log:        log.With().Str("component", "auth_gate").Logger(),
		state:      StateUnknown,
		onChange:   make(map[int]func(State)),
		onRedirect: make(map[int]func()),
	}
}

// State returns the current state.
func (g *Gate) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Authenticated reports whether protected content may be produced.
func (g *Gate) Authenticated() bool {
	return g.State() == StateAuthenticated
}

// Credential returns the active session.
func (g *Gate) Credential() (Session, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state != StateAuthenticated || g.session == nil {
		return Session{}, false
	}
	return *g.session, true
}

// Token returns the active bearer token, or "" when unauthenticated.
func (g *Gate) Token() string {
	s, _ := g.Credential()
	return s.Token
}

// Start resolves the unknown state from the persisted credential.
// A stored credential that is empty or carries an expired exp claim is deleted.
// Calling Start again returns the current state unchanged.
func (g *Gate) Start() State {
	g.mu.Lock()
	if g.state != StateUnknown {
		state := g.state
		g.mu.Unlock()
		return state
	}

	stored, err := g.store.Load()
	switch {
	case err != nil:
		g.log.Warn().Err(err).Msg("Failed to load persisted session")
		g.state = StateUnauthenticated
	case stored == nil:
		g.state = StateUnauthenticated
	case stored.Token == "" || tokenExpired(stored.Token, g.cfg.Clock.Now()):
		g.log.Info().Str("email", stored.Email).Msg("Persisted session is no longer valid, discarding")
		if err := g.store.Delete(); err != nil {
			g.log.Warn().Err(err).Msg("Failed to delete invalid session")
		}
		g.state = StateUnauthenticated
	default:
		g.session = stored
		g.state = StateAuthenticated
	}
	state := g.state
	email := g.emailLocked()
	g.mu.Unlock()

	g.log.Info().Str("state", string(state)).Msg("Auth gate started")
	g.notifyChange(state, email)
	return state
}

// Login authenticates against the remote API and persists the credential.
// On failure the state is unchanged.
func (g *Gate) Login(ctx context.Context, email, password string) (Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || strings.TrimSpace(password) == "" {
		return Session{}, ErrMissingCredentials
	}

	res, err := g.auth.Login(ctx, email, password)
	if err != nil {
		g.log.Info().Err(err).Str("email", email).Msg("Login failed")
		if volumebot.IsUnauthorized(err) {
			return Session{}, rejectedLogin(err)
		}
		return Session{}, err
	}

	s := Session{
		Token:     res.Token,
		Email:     res.Email,
		Role:      res.Role,
		CreatedAt: g.cfg.Clock.Now(),
	}

	g.mu.Lock()
	if err := g.store.Save(s); err != nil {
		g.mu.Unlock()
		return Session{}, err
	}
	g.session = &s
	g.state = StateAuthenticated
	g.mu.Unlock()

	g.log.Info().Str("email", s.Email).Str("role", s.Role).Msg("Logged in")
	g.notifyChange(StateAuthenticated, s.Email)
	return s, nil
}

// rejectedLogin turns a 401/403 from the login endpoint into a credentials
// error. There is no session yet, so it must not read as an expired one.
func rejectedLogin(err error) error {
	rejected := &volumebot.APIError{
		Status:  http.StatusUnauthorized,
		Message: volumebot.ServerMessage(err),
		Err:     ErrInvalidCredentials,
	}
	var apiErr *volumebot.APIError
	if errors.As(err, &apiErr) {
		rejected.Status = apiErr.Status
	}
	if rejected.Message == "" {
		rejected.Message = ErrInvalidCredentials.Error()
	}
	return rejected
}

// Logout ends the session on the user's request.
func (g *Gate) Logout() {
	g.mu.Lock()
	if g.state != StateAuthenticated {
		if err := g.store.Delete(); err != nil {
			g.log.Warn().Err(err).Msg("Failed to delete session")
		}
		if g.state == StateUnknown {
			g.state = StateUnauthenticated
		}
		g.mu.Unlock()
		return
	}
	g.teardownLocked("logout")
	g.mu.Unlock()

	g.afterTeardown("logout", g.cfg.ClearCacheOnLogout)
}

// HandleUnauthorized tears the session down after the server rejected token
// with 401 or 403. Only the first call for a session does anything, so the
// redirect fires once no matter how many requests fail together. A rejection
// of a token other than the active one is ignored. An empty token matches any
// session. Returns true when this call performed the teardown.
func (g *Gate) HandleUnauthorized(token string) bool {
	g.mu.Lock()
	if g.state != StateAuthenticated || g.session == nil {
		g.mu.Unlock()
		return false
	}
	if token != "" && token != g.session.Token {
		g.mu.Unlock()
		return false
	}
	g.teardownLocked("unauthorized")
	g.mu.Unlock()

	g.afterTeardown("unauthorized", g.cfg.ClearCacheOnUnauthorized)
	return true
}

func (g *Gate) teardownLocked(reason string) {
	email := g.emailLocked()
	g.session = nil
	g.state = StateUnauthenticated

	if err := g.store.Delete(); err != nil {
		g.log.Error().Err(err).Msg("Failed to delete session")
	}

	g.log.Info().Str("reason", reason).Str("email", email).Msg("Session ended")
}

// afterTeardown notifies listeners before clearing snapshots, so pages have
// dropped their in-flight fetches by the time the cache is emptied.
func (g *Gate) afterTeardown(reason string, clearSnapshots bool) {
	g.notifyChange(StateUnauthenticated, "")

	if clearSnapshots && g.snapshots != nil {
		deleted, err := g.snapshots.Clear()
		if err != nil {
			g.log.Error().Err(err).Msg("Failed to clear snapshots")
		} else {
			g.log.Info().Int64("deleted", deleted).Msg("Cleared cached snapshots")
		}
	}

	if g.emitter != nil {
		g.emitter.EmitTyped("session", &events.LoginRequiredData{Reason: reason, Redirect: LoginPath})
	}

	g.listenersMu.Lock()
	redirects := make([]func(), 0, len(g.onRedirect))
	for _, fn := range g.onRedirect {
		redirects = append(redirects, fn)
	}
	g.listenersMu.Unlock()

	for _, fn := range redirects {
		fn()
	}
}

func (g *Gate) emailLocked() string {
	if g.session == nil {
		return ""
	}
	return g.session.Email
}

func (g *Gate) notifyChange(state State, email string) {
	if g.emitter != nil {
		g.emitter.EmitTyped("session", &events.SessionChangedData{State: string(state), Email: email})
	}

	g.listenersMu.Lock()
	listeners := make([]func(State), 0, len(g.onChange))
	for _, fn := range g.onChange {
		listeners = append(listeners, fn)
	}
	g.listenersMu.Unlock()

	for _, fn := range listeners {
		fn(state)
	}
}

// OnChange registers fn for every state transition. The returned func unregisters it.
func (g *Gate) OnChange(fn func(State)) func() {
	g.listenersMu.Lock()
	defer g.listenersMu.Unlock()
	g.nextID++
	id := g.nextID
	g.onChange[id] = fn
	return func() {
		g.listenersMu.Lock()
		delete(g.onChange, id)
		g.listenersMu.Unlock()
	}
}

// OnRedirect registers fn to run once per teardown. The returned func unregisters it.
func (g *Gate) OnRedirect(fn func()) func() {
	g.listenersMu.Lock()
	defer g.listenersMu.Unlock()
	g.nextID++
	id := g.nextID
	g.onRedirect[id] = fn
	return func() {
		g.listenersMu.Lock()
		delete(g.onRedirect, id)
		g.listenersMu.Unlock()
	}
}

// Guard returns content() when the gate is authenticated and placeholder
// otherwise. content is not evaluated unless authenticated.
func Guard[T any](g *Gate, content func() T, placeholder T) T {
	if !g.Authenticated() {
		return placeholder
	}
	return content()
}
