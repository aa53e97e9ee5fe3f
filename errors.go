package directory

import (
	"errors"
	"fmt"

	goerrors "github.com/goliatone/go-errors"
)

// ErrNoSession is the error we return when no persisted session exists
var ErrNoSession = errors.New("no session available")

// ErrSessionDecode is returned when the stored session cannot be decoded
var ErrSessionDecode = errors.New("unable to decode stored session")

// ErrGuardLocked is returned for operations that require an unlocked guard
var ErrGuardLocked = errors.New("authorization guard is locked")

// ErrAccountNotFound is returned when a roster entry is not in the cache
var ErrAccountNotFound = errors.New("account not found in roster")

// FailureKind classifies remote call outcomes.
type FailureKind string

const (
	// FailUnauthorized is an HTTP 401: the session is no longer valid and the
	// caller must tear it down.
	FailUnauthorized FailureKind = "unauthorized"
	// FailForbidden is an HTTP 403: the action is blocked by role, the
	// session stays intact.
	FailForbidden FailureKind = "forbidden"
	// FailRejected is a 4xx carrying a domain message (duplicate email etc.)
	// surfaced to the user verbatim.
	FailRejected FailureKind = "rejected"
	// FailTransport covers connectivity errors and absent responses.
	FailTransport FailureKind = "transport"
	// FailUnknown is any other unexpected HTTP outcome.
	FailUnknown FailureKind = "unknown"
	// FailInvalidCredentials is a login rejected for bad email/password.
	FailInvalidCredentials FailureKind = "invalid_credentials"
	// FailAccountInactive is a login rejected because the account is disabled.
	FailAccountInactive FailureKind = "account_inactive"
)

// Failure captures a normalized remote outcome.
type Failure struct {
	Kind      FailureKind
	Operation string
	Status    int
	Message   string
	Err       error
}

func (f *Failure) Error() string {
	if f == nil {
		return "directory failure"
	}

	scope := "directory"
	if f.Operation != "" {
		scope = f.Operation
	}

	if f.Message != "" {
		return fmt.Sprintf("%s failed: %s", scope, f.Message)
	}
	if f.Err != nil {
		return fmt.Sprintf("%s failed: %v", scope, f.Err)
	}
	if f.Status != 0 {
		return fmt.Sprintf("%s failed: status %d", scope, f.Status)
	}

	return fmt.Sprintf("%s failed", scope)
}

func (f *Failure) Unwrap() error {
	if f == nil {
		return nil
	}
	return f.Err
}

// RequiresReauth reports whether the failure invalidates the session.
func (f *Failure) RequiresReauth() bool {
	return f != nil && f.Kind == FailUnauthorized
}

// UserMessage returns the text shown to the user for this failure.
func (f *Failure) UserMessage() string {
	if f == nil {
		return ""
	}
	switch f.Kind {
	case FailUnauthorized:
		return "Your session has expired. Please sign in again."
	case FailForbidden:
		return "This action is reserved for administrators."
	case FailInvalidCredentials:
		return "Invalid credentials. Check your email and password."
	case FailAccountInactive:
		return "Account inactive. Contact an administrator."
	case FailTransport:
		return "Could not reach the directory service. Please retry."
	}
	if f.Message != "" {
		return f.Message
	}
	return "An unexpected error occurred. Please retry."
}

// Metadata returns structured details for logging and activity sinks.
func (f *Failure) Metadata() map[string]any {
	if f == nil {
		return nil
	}

	meta := map[string]any{"kind": string(f.Kind)}
	if f.Operation != "" {
		meta["operation"] = f.Operation
	}
	if f.Status != 0 {
		meta["status"] = f.Status
	}
	if f.Message != "" {
		meta["message"] = f.Message
	}
	if f.Err != nil {
		meta["error"] = f.Err.Error()
	}

	return meta
}

// FailureFrom extracts a *Failure from err, if one is present.
func FailureFrom(err error) (*Failure, bool) {
	var failure *Failure
	if errors.As(err, &failure) && failure != nil {
		return failure, true
	}
	return nil, false
}

// IsUnauthorized reports whether err is a 401 outcome.
func IsUnauthorized(err error) bool {
	f, ok := FailureFrom(err)
	return ok && f.Kind == FailUnauthorized
}

// IsForbidden reports whether err is a 403 outcome.
func IsForbidden(err error) bool {
	f, ok := FailureFrom(err)
	return ok && f.Kind == FailForbidden
}

// classifyStatus maps an HTTP error status and optional server message to a
// Failure for authenticated roster calls. 401 always means the session is
// dead; 403 is a role restriction on a live session.
func classifyStatus(operation string, status int, message string) *Failure {
	kind := FailUnknown
	switch {
	case status == 401:
		kind = FailUnauthorized
	case status == 403:
		kind = FailForbidden
	case status >= 400 && status < 500 && message != "":
		kind = FailRejected
	case status >= 500:
		kind = FailTransport
	}

	return &Failure{
		Kind:      kind,
		Operation: operation,
		Status:    status,
		Message:   message,
	}
}

// transportFailure wraps a transport-level error (connection refused, DNS,
// timeout, missing response).
func transportFailure(operation string, err error) *Failure {
	return &Failure{
		Kind:      FailTransport,
		Operation: operation,
		Err:       goerrors.Wrap(err, goerrors.CategoryOperation, "directory request failed"),
	}
}
