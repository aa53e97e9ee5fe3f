package directory

import (
	"context"
	"fmt"
	"time"
)

// Logger is the minimal logging surface used across the package.
type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Error(format string, args ...any)
}

// Config holds client options.
type Config interface {
	GetBaseURL() string
	GetRequestTimeout() time.Duration
	GetSessionPath() string
}

// DirectoryAPI is the typed surface of the remote directory service. The
// concrete implementation is Client; consumers accept the interface so tests
// can substitute doubles.
type DirectoryAPI interface {
	Login(ctx context.Context, email, password string) (LoginResult, error)
	Register(ctx context.Context, input RegisterInput) error
	ListAccounts(ctx context.Context, token string) ([]Account, error)
	CreateAccount(ctx context.Context, token string, input CreateAccountInput) (Account, error)
	UpdateAccount(ctx context.Context, token string, id int64, input UpdateAccountInput) (Account, error)
	SetStatus(ctx context.Context, token string, id int64, active bool) error
	DeleteAccount(ctx context.Context, token string, id int64) error
}

// SessionStore persists the Session across process restarts. Save and Clear
// operate on the token/principal pair as a unit; Load is a pure local read
// and performs no network validation.
type SessionStore interface {
	Save(token string, principal Principal) error
	Load() (Session, bool, error)
	Clear() error
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] DIR "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] DIR "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] DIR "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
