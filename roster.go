package directory

import (
	"context"
	"sync"
)

// Roster owns the in-memory account list rendered by the administrative
// view. The list is a read-through cache: after every mutation the roster
// re-fetches from the service instead of splicing the mutated record, so
// rendered state always matches server truth.
type Roster struct {
	mu         sync.Mutex
	api        DirectoryAPI
	guard      *Guard
	accounts   []Account
	loading    bool
	generation uint64
	discarded  bool
	logger     Logger
	activity   ActivitySink
}

// RosterOption customizes Roster construction.
type RosterOption func(*Roster)

// WithRosterLogger overrides the default logger.
func WithRosterLogger(logger Logger) RosterOption {
	return func(r *Roster) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithRosterActivitySink configures the audit sink.
func WithRosterActivitySink(sink ActivitySink) RosterOption {
	return func(r *Roster) {
		r.activity = normalizeActivitySink(sink)
	}
}

// NewRoster returns an empty roster bound to the guard's session.
func NewRoster(guard *Guard, api DirectoryAPI, opts ...RosterOption) *Roster {
	r := &Roster{
		api:      api,
		guard:    guard,
		logger:   defLogger{},
		activity: noopActivitySink{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Accounts returns a copy of the cached list.
func (r *Roster) Accounts() []Account {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Account, len(r.accounts))
	copy(out, r.accounts)
	return out
}

// IsLoading reports whether a refresh is in flight.
func (r *Roster) IsLoading() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loading
}

// Seed installs the authoritative list returned by the guard's liveness
// probe so activation does not trigger a second fetch.
func (r *Roster) Seed(accounts []Account) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.accounts = append([]Account(nil), accounts...)
}

// Refresh replaces the cached list wholesale with a fresh server listing.
// On Unauthorized the guard tears the session down and the cache empties;
// the stale list must not outlive the session.
func (r *Roster) Refresh(ctx context.Context) error {
	token, ok := r.guard.Token()
	if !ok {
		return ErrGuardLocked
	}

	r.mu.Lock()
	if r.discarded {
		r.mu.Unlock()
		return nil
	}
	r.loading = true
	r.generation++
	generation := r.generation
	r.mu.Unlock()

	accounts, err := r.api.ListAccounts(ctx, token)

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.discarded || generation != r.generation {
		// A newer refresh or a discard superseded this response.
		return err
	}
	r.loading = false

	if err != nil {
		if r.guard.HandleFailure(ctx, err) {
			r.accounts = nil
		}
		return err
	}

	r.accounts = accounts
	r.logger.Debug("roster reconciled: %d accounts", len(accounts))
	recordActivity(ctx, r.activity, r.logger, ActivityEvent{
		EventType: ActivityEventRosterRefresh,
		Metadata:  map[string]any{"count": len(accounts)},
	})
	return nil
}

// Create adds an account, then reconciles.
func (r *Roster) Create(ctx context.Context, input CreateAccountInput) error {
	token, ok := r.guard.Token()
	if !ok {
		return ErrGuardLocked
	}

	_, err := r.api.CreateAccount(ctx, token, input)
	return r.reconcile(ctx, err)
}

// Update edits an account, then reconciles.
func (r *Roster) Update(ctx context.Context, id int64, input UpdateAccountInput) error {
	token, ok := r.guard.Token()
	if !ok {
		return ErrGuardLocked
	}

	_, err := r.api.UpdateAccount(ctx, token, id, input)
	return r.reconcile(ctx, err)
}

// ToggleStatus flips an account's active flag relative to its last known
// state, then reconciles. Racing toggles converge on the later refresh;
// server truth always wins.
func (r *Roster) ToggleStatus(ctx context.Context, id int64) error {
	token, ok := r.guard.Token()
	if !ok {
		return ErrGuardLocked
	}

	account, found := r.lookup(id)
	if !found {
		return ErrAccountNotFound
	}

	err := r.api.SetStatus(ctx, token, id, !account.IsActive)
	return r.reconcile(ctx, err)
}

// Delete removes an account, then reconciles.
func (r *Roster) Delete(ctx context.Context, id int64) error {
	token, ok := r.guard.Token()
	if !ok {
		return ErrGuardLocked
	}

	err := r.api.DeleteAccount(ctx, token, id)
	return r.reconcile(ctx, err)
}

// Discard detaches the roster when its view unmounts. In-flight responses
// arriving afterwards are dropped.
func (r *Roster) Discard() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.discarded = true
	r.accounts = nil
	r.loading = false
}

func (r *Roster) lookup(id int64) (Account, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, account := range r.accounts {
		if account.ID == id {
			return account, true
		}
	}
	return Account{}, false
}

// reconcile runs the mandatory post-mutation refresh. The mutation's own
// error dominates the report; an Unauthorized mutation locks the guard
// before any refresh is attempted.
func (r *Roster) reconcile(ctx context.Context, mutationErr error) error {
	if mutationErr != nil && r.guard.HandleFailure(ctx, mutationErr) {
		r.mu.Lock()
		r.accounts = nil
		r.mu.Unlock()
		return mutationErr
	}

	if err := r.Refresh(ctx); err != nil && mutationErr == nil {
		return err
	}
	return mutationErr
}
