package directory

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
)

// Account is a roster entry as the remote directory reports it. The client
// never treats its copy as a source of truth; every mutation is followed by
// a fresh listing.
type Account struct {
	ID       int64  `json:"id"`
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Role     Role   `json:"role"`
	IsActive bool   `json:"isActive"`
}

// LoginResult is the payload of a successful authentication.
type LoginResult struct {
	Token     string    `json:"token"`
	Principal Principal `json:"user"`
}

// RegisterInput is the self-registration payload.
type RegisterInput struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Password string `json:"password"`
	RoleKey  int    `json:"role_id"`
}

// CreateAccountInput is the administrator account-creation payload.
type CreateAccountInput struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Password string `json:"password"`
	RoleKey  int    `json:"role_id"`
}

// UpdateAccountInput is the account-edit payload. It never carries a
// password: edits do not alter credentials.
type UpdateAccountInput struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	RoleKey  int    `json:"role_id"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type statusRequest struct {
	IsActive bool `json:"isActive"`
}

// serverError mirrors the service's error envelope: either a message or an
// express-validator style errors array.
type serverError struct {
	Message string `json:"message"`
	Errors  []struct {
		Msg string `json:"msg"`
	} `json:"errors"`
}

func (e *serverError) text() string {
	if e == nil {
		return ""
	}
	if e.Message != "" {
		return e.Message
	}
	if len(e.Errors) > 0 {
		return e.Errors[0].Msg
	}
	return ""
}

var _ DirectoryAPI = &Client{}

// Client issues authenticated HTTP requests to the remote directory
// service. It performs no local permission pre-checks and never retries on
// its own; every retry is a new explicit caller action.
type Client struct {
	http     *resty.Client
	logger   Logger
	activity ActivitySink
}

// ClientOption customizes Client construction.
type ClientOption func(*Client)

// WithClientLogger overrides the default logger.
func WithClientLogger(logger Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithClientActivitySink configures an ActivitySink for request outcomes.
func WithClientActivitySink(sink ActivitySink) ClientOption {
	return func(c *Client) {
		c.activity = normalizeActivitySink(sink)
	}
}

// NewClient returns a Client for the directory service described by cfg.
func NewClient(cfg Config, opts ...ClientOption) *Client {
	timeout := cfg.GetRequestTimeout()
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	// Retry count stays at zero: failed calls are reported, not replayed.
	httpClient := resty.New().
		SetBaseURL(cfg.GetBaseURL()).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	c := &Client{
		http:     httpClient,
		logger:   defLogger{},
		activity: noopActivitySink{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Login authenticates with email and password. The service reports bad
// credentials as 400/401 and an inactive account as 403; both leave no
// session to tear down since none exists yet.
func (c *Client) Login(ctx context.Context, email, password string) (LoginResult, error) {
	var result LoginResult
	var srvErr serverError

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(loginRequest{Email: email, Password: password}).
		SetResult(&result).
		SetError(&srvErr).
		Post("/auth/login")
	if err != nil {
		return LoginResult{}, transportFailure("login", err)
	}

	if resp.IsError() {
		failure := &Failure{
			Operation: "login",
			Status:    resp.StatusCode(),
			Message:   srvErr.text(),
		}
		switch resp.StatusCode() {
		case 400, 401:
			failure.Kind = FailInvalidCredentials
		case 403:
			failure.Kind = FailAccountInactive
		default:
			failure.Kind = classifyStatus("login", resp.StatusCode(), srvErr.text()).Kind
		}
		c.logger.Info("login rejected for %s: status %d", email, resp.StatusCode())
		return LoginResult{}, failure
	}

	c.logger.Debug("login succeeded for user %d", result.Principal.ID)
	return result, nil
}

// Register submits a self-registration. Server validation messages are
// surfaced verbatim.
func (c *Client) Register(ctx context.Context, input RegisterInput) error {
	var srvErr serverError

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(input).
		SetError(&srvErr).
		Post("/auth/register")
	if err != nil {
		return transportFailure("register", err)
	}
	if resp.IsError() {
		return classifyStatus("register", resp.StatusCode(), srvErr.text())
	}
	return nil
}

// ListAccounts fetches the authoritative roster.
func (c *Client) ListAccounts(ctx context.Context, token string) ([]Account, error) {
	var accounts []Account
	var srvErr serverError

	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetResult(&accounts).
		SetError(&srvErr).
		Get("/users")
	if err != nil {
		return nil, transportFailure("list accounts", err)
	}
	if resp.IsError() {
		return nil, classifyStatus("list accounts", resp.StatusCode(), srvErr.text())
	}

	c.logger.Debug("listed %d accounts", len(accounts))
	return accounts, nil
}

// CreateAccount creates a roster entry. Administrator only; the service is
// the authority, the client sends the request regardless of local role.
func (c *Client) CreateAccount(ctx context.Context, token string, input CreateAccountInput) (Account, error) {
	var account Account
	var srvErr serverError

	resp, err := c.mutation(ctx, token).
		SetBody(input).
		SetResult(&account).
		SetError(&srvErr).
		Post("/users")
	if err != nil {
		return Account{}, transportFailure("create account", err)
	}
	if resp.IsError() {
		return Account{}, classifyStatus("create account", resp.StatusCode(), srvErr.text())
	}

	c.recordAccountEvent(ctx, ActivityEventAccountCreated, account.ID)
	return account, nil
}

// UpdateAccount edits name, email, and role of an existing entry.
func (c *Client) UpdateAccount(ctx context.Context, token string, id int64, input UpdateAccountInput) (Account, error) {
	var account Account
	var srvErr serverError

	resp, err := c.mutation(ctx, token).
		SetBody(input).
		SetResult(&account).
		SetError(&srvErr).
		Put(fmt.Sprintf("/users/%d", id))
	if err != nil {
		return Account{}, transportFailure("update account", err)
	}
	if resp.IsError() {
		return Account{}, classifyStatus("update account", resp.StatusCode(), srvErr.text())
	}

	c.recordAccountEvent(ctx, ActivityEventAccountUpdated, id)
	return account, nil
}

// SetStatus activates or deactivates an account.
func (c *Client) SetStatus(ctx context.Context, token string, id int64, active bool) error {
	var srvErr serverError

	resp, err := c.mutation(ctx, token).
		SetBody(statusRequest{IsActive: active}).
		SetError(&srvErr).
		Put(fmt.Sprintf("/users/%d/status", id))
	if err != nil {
		return transportFailure("set status", err)
	}
	if resp.IsError() {
		return classifyStatus("set status", resp.StatusCode(), srvErr.text())
	}

	c.recordAccountEvent(ctx, ActivityEventStatusToggled, id)
	return nil
}

// DeleteAccount removes an account from the directory.
func (c *Client) DeleteAccount(ctx context.Context, token string, id int64) error {
	var srvErr serverError

	resp, err := c.mutation(ctx, token).
		SetError(&srvErr).
		Delete(fmt.Sprintf("/users/%d", id))
	if err != nil {
		return transportFailure("delete account", err)
	}
	if resp.IsError() {
		return classifyStatus("delete account", resp.StatusCode(), srvErr.text())
	}

	c.recordAccountEvent(ctx, ActivityEventAccountDeleted, id)
	return nil
}

// mutation prepares an authenticated request with a request id for audit
// correlation.
func (c *Client) mutation(ctx context.Context, token string) *resty.Request {
	return c.http.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetHeader("X-Request-ID", uuid.NewString())
}

func (c *Client) recordAccountEvent(ctx context.Context, eventType ActivityEventType, id int64) {
	recordActivity(ctx, c.activity, c.logger, ActivityEvent{
		EventType: eventType,
		AccountID: id,
	})
}
