package directory

import (
	"context"
	"sync"
)

// GuardState is the authorization guard's coarse state.
type GuardState string

const (
	// GuardLocked means no verified session exists; protected views are
	// unreachable.
	GuardLocked GuardState = "locked"
	// GuardUnlocked means a server-verified session is active.
	GuardUnlocked GuardState = "unlocked"
)

// Guard gates access to protected views. It trusts local session state only
// as a claim: the transition to Unlocked happens on login or after the
// liveness probe (the first authenticated listing) succeeds, and any
// Unauthorized outcome locks the guard and clears the store in one step.
type Guard struct {
	mu       sync.Mutex
	state    GuardState
	session  Session
	store    SessionStore
	api      DirectoryAPI
	logger   Logger
	activity ActivitySink
}

// GuardOption customizes Guard construction.
type GuardOption func(*Guard)

// WithGuardLogger overrides the default logger.
func WithGuardLogger(logger Logger) GuardOption {
	return func(g *Guard) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// WithGuardActivitySink configures the audit sink.
func WithGuardActivitySink(sink ActivitySink) GuardOption {
	return func(g *Guard) {
		g.activity = normalizeActivitySink(sink)
	}
}

// NewGuard returns a locked Guard reading and writing sessions through
// store and probing liveness through api.
func NewGuard(store SessionStore, api DirectoryAPI, opts ...GuardOption) *Guard {
	g := &Guard{
		state:    GuardLocked,
		store:    store,
		api:      api,
		logger:   defLogger{},
		activity: noopActivitySink{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}
	return g
}

// State returns the guard's current state.
func (g *Guard) State() GuardState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Principal returns the verified principal while unlocked.
func (g *Guard) Principal() (Principal, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state != GuardUnlocked {
		return Principal{}, false
	}
	return g.session.Principal, true
}

// Token returns the bearer token while unlocked.
func (g *Guard) Token() (string, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state != GuardUnlocked {
		return "", false
	}
	return g.session.Token, true
}

// Capabilities derives the current principal's capability set. A locked
// guard yields the zero set, which renders nothing.
func (g *Guard) Capabilities() Capabilities {
	principal, ok := g.Principal()
	if !ok {
		return Capabilities{}
	}
	return CapabilitiesOf(principal.Role)
}

// Login authenticates against the service and, on success, persists and
// activates the session. A successful login is itself proof of liveness, so
// no separate probe runs.
func (g *Guard) Login(ctx context.Context, email, password string) error {
	result, err := g.api.Login(ctx, email, password)
	if err != nil {
		recordActivity(ctx, g.activity, g.logger, ActivityEvent{
			EventType: ActivityEventLoginFailure,
			Metadata:  map[string]any{"email": email},
		})
		return err
	}

	if err := g.store.Save(result.Token, result.Principal); err != nil {
		return err
	}

	g.mu.Lock()
	g.state = GuardUnlocked
	g.session = Session{Token: result.Token, Principal: result.Principal}
	g.mu.Unlock()

	recordActivity(ctx, g.activity, g.logger, ActivityEvent{
		EventType:   ActivityEventLoginSuccess,
		PrincipalID: result.Principal.ID,
	})
	g.logger.Info("session established for user %d (%s)", result.Principal.ID, result.Principal.Role)
	return nil
}

// Activate restores a persisted session and verifies it with the liveness
// probe. On success the guard unlocks and the authoritative roster from the
// probe is returned so the caller can seed its view. An Unauthorized probe
// clears the store; other failures leave the claimed session on disk for a
// later explicit retry.
func (g *Guard) Activate(ctx context.Context) ([]Account, error) {
	session, ok, err := g.store.Load()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNoSession
	}

	accounts, err := g.api.ListAccounts(ctx, session.Token)
	if err != nil {
		if IsUnauthorized(err) {
			g.revoke(ctx)
		}
		return nil, err
	}

	g.mu.Lock()
	g.state = GuardUnlocked
	g.session = session
	g.mu.Unlock()

	g.logger.Info("session restored for user %d (%s)", session.Principal.ID, session.Principal.Role)
	return accounts, nil
}

// HandleFailure inspects a remote failure and, for Unauthorized outcomes,
// tears the session down. It reports whether the guard locked. Forbidden
// failures never touch the session.
func (g *Guard) HandleFailure(ctx context.Context, err error) bool {
	if !IsUnauthorized(err) {
		return false
	}
	g.revoke(ctx)
	return true
}

// Logout clears the persisted session and locks the guard.
func (g *Guard) Logout(ctx context.Context) error {
	g.mu.Lock()
	principalID := g.session.PrincipalID()
	g.state = GuardLocked
	g.session = Session{}
	g.mu.Unlock()

	if err := g.store.Clear(); err != nil {
		return err
	}

	recordActivity(ctx, g.activity, g.logger, ActivityEvent{
		EventType:   ActivityEventLogout,
		PrincipalID: principalID,
	})
	return nil
}

// revoke locks the guard and clears the store together.
func (g *Guard) revoke(ctx context.Context) {
	g.mu.Lock()
	principalID := g.session.PrincipalID()
	g.state = GuardLocked
	g.session = Session{}
	g.mu.Unlock()

	if err := g.store.Clear(); err != nil {
		g.logger.Error("clear session after revocation: %v", err)
	}

	recordActivity(ctx, g.activity, g.logger, ActivityEvent{
		EventType:   ActivityEventSessionRevoked,
		PrincipalID: principalID,
	})
	g.logger.Info("session revoked, re-authentication required")
}
