package directory_test

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	directory "github.com/medmanager/go-directory"
)

// MockDirectoryAPI implements directory.DirectoryAPI
type MockDirectoryAPI struct {
	mock.Mock
}

func (m *MockDirectoryAPI) Login(ctx context.Context, email, password string) (directory.LoginResult, error) {
	args := m.Called(ctx, email, password)
	return args.Get(0).(directory.LoginResult), args.Error(1)
}

func (m *MockDirectoryAPI) Register(ctx context.Context, input directory.RegisterInput) error {
	args := m.Called(ctx, input)
	return args.Error(0)
}

func (m *MockDirectoryAPI) ListAccounts(ctx context.Context, token string) ([]directory.Account, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]directory.Account), args.Error(1)
}

func (m *MockDirectoryAPI) CreateAccount(ctx context.Context, token string, input directory.CreateAccountInput) (directory.Account, error) {
	args := m.Called(ctx, token, input)
	return args.Get(0).(directory.Account), args.Error(1)
}

func (m *MockDirectoryAPI) UpdateAccount(ctx context.Context, token string, id int64, input directory.UpdateAccountInput) (directory.Account, error) {
	args := m.Called(ctx, token, id, input)
	return args.Get(0).(directory.Account), args.Error(1)
}

func (m *MockDirectoryAPI) SetStatus(ctx context.Context, token string, id int64, active bool) error {
	args := m.Called(ctx, token, id, active)
	return args.Error(0)
}

func (m *MockDirectoryAPI) DeleteAccount(ctx context.Context, token string, id int64) error {
	args := m.Called(ctx, token, id)
	return args.Error(0)
}

// recordingSink collects activity events for assertions.
type recordingSink struct {
	mu     sync.Mutex
	events []directory.ActivityEvent
}

func (s *recordingSink) Record(_ context.Context, event directory.ActivityEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *recordingSink) types() []directory.ActivityEventType {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]directory.ActivityEventType, 0, len(s.events))
	for _, event := range s.events {
		out = append(out, event.EventType)
	}
	return out
}

// testConfig implements directory.Config for client tests.
type testConfig struct {
	baseURL string
	timeout time.Duration
}

func (c testConfig) GetBaseURL() string {
	return c.baseURL
}

func (c testConfig) GetRequestTimeout() time.Duration {
	if c.timeout == 0 {
		return 2 * time.Second
	}
	return c.timeout
}

func (c testConfig) GetSessionPath() string {
	return ""
}

func adminPrincipal() directory.Principal {
	return directory.Principal{ID: 1, DisplayName: "Ada Root", Role: directory.RoleAdministrator}
}

func doctorPrincipal() directory.Principal {
	return directory.Principal{ID: 7, DisplayName: "Greg House", Role: directory.RoleDoctor}
}

func sampleRoster() []directory.Account {
	return []directory.Account{
		{ID: 1, FullName: "Ada Root", Email: "ada@med.com", Role: directory.RoleAdministrator, IsActive: true},
		{ID: 7, FullName: "Greg House", Email: "doc@med.com", Role: directory.RoleDoctor, IsActive: true},
		{ID: 9, FullName: "Pat Ent", Email: "pat@med.com", Role: directory.RolePatient, IsActive: false},
	}
}
