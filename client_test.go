package directory_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	directory "github.com/medmanager/go-directory"
)

func newTestClient(t *testing.T, handler http.Handler) (*directory.Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client := directory.NewClient(testConfig{baseURL: server.URL})
	return client, server
}

func TestClientLoginSuccess(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/auth/login", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "doc@med.com", body["email"])
		assert.Equal(t, "secret1", body["password"])
		// Login carries no bearer token: no session exists yet.
		assert.Empty(t, r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"token": "abc",
			"user":  map[string]any{"id": 7, "fullName": "Greg House", "role": "Doctor"},
		})
	}))

	result, err := client.Login(context.Background(), "doc@med.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "abc", result.Token)
	assert.Equal(t, doctorPrincipal(), result.Principal)
}

func TestClientLoginFailureClassification(t *testing.T) {
	cases := []struct {
		name   string
		status int
		want   directory.FailureKind
	}{
		{"bad credentials", http.StatusBadRequest, directory.FailInvalidCredentials},
		{"unauthorized", http.StatusUnauthorized, directory.FailInvalidCredentials},
		{"inactive account", http.StatusForbidden, directory.FailAccountInactive},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tc.status)
				json.NewEncoder(w).Encode(map[string]string{"message": "nope"})
			}))

			_, err := client.Login(context.Background(), "doc@med.com", "wrong")
			failure, ok := directory.FailureFrom(err)
			require.True(t, ok)
			assert.Equal(t, tc.want, failure.Kind)
			assert.False(t, failure.RequiresReauth())
		})
	}
}

func TestClientListAccounts(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/users", r.URL.Path)
		require.Equal(t, "Bearer abc", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(sampleRoster())
	}))

	accounts, err := client.ListAccounts(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, sampleRoster(), accounts)
}

func TestClientStatusClassification(t *testing.T) {
	cases := []struct {
		name           string
		status         int
		body           string
		want           directory.FailureKind
		wantMessage    string
		requiresReauth bool
	}{
		{"expired session", http.StatusUnauthorized, `{"message":"jwt expired"}`, directory.FailUnauthorized, "jwt expired", true},
		{"role restriction", http.StatusForbidden, `{"message":"admin only"}`, directory.FailForbidden, "admin only", false},
		{"domain rejection", http.StatusConflict, `{"message":"email already in use"}`, directory.FailRejected, "email already in use", false},
		{"validator envelope", http.StatusBadRequest, `{"errors":[{"msg":"email invalid"}]}`, directory.FailRejected, "email invalid", false},
		{"server error", http.StatusInternalServerError, `{}`, directory.FailTransport, "", false},
		{"unexplained 4xx", http.StatusTeapot, `{}`, directory.FailUnknown, "", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tc.status)
				w.Write([]byte(tc.body))
			}))

			_, err := client.ListAccounts(context.Background(), "abc")
			failure, ok := directory.FailureFrom(err)
			require.True(t, ok)
			assert.Equal(t, tc.want, failure.Kind)
			assert.Equal(t, tc.wantMessage, failure.Message)
			assert.Equal(t, tc.requiresReauth, failure.RequiresReauth())
		})
	}
}

func TestClientTransportFailure(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	client := directory.NewClient(testConfig{baseURL: url})
	_, err := client.ListAccounts(context.Background(), "abc")

	failure, ok := directory.FailureFrom(err)
	require.True(t, ok)
	assert.Equal(t, directory.FailTransport, failure.Kind)
	assert.False(t, failure.RequiresReauth())
}

func TestClientUpdateNeverSendsPassword(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		require.Equal(t, "/users/9", r.URL.Path)
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.NotContains(t, body, "password")
		assert.Equal(t, "Pat Entity", body["fullName"])
		assert.Equal(t, float64(3), body["role_id"])

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(directory.Account{ID: 9, FullName: "Pat Entity", Email: "pat@med.com", Role: directory.RolePatient, IsActive: false})
	}))

	_, err := client.UpdateAccount(context.Background(), "abc", 9, directory.UpdateAccountInput{
		FullName: "Pat Entity",
		Email:    "pat@med.com",
		RoleKey:  3,
	})
	require.NoError(t, err)
}

func TestClientSetStatus(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		require.Equal(t, "/users/9/status", r.URL.Path)

		var body map[string]bool
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.True(t, body["isActive"])

		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{}`))
	}))

	require.NoError(t, client.SetStatus(context.Background(), "abc", 9, true))
}

func TestClientDeleteAccount(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodDelete, r.Method)
		require.Equal(t, "/users/9", r.URL.Path)
		require.Equal(t, "Bearer abc", r.Header.Get("Authorization"))

		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{}`))
	}))

	require.NoError(t, client.DeleteAccount(context.Background(), "abc", 9))
}

func TestClientRegisterSurfacesServerMessage(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/auth/register", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"message":"email already registered"}`))
	}))

	err := client.Register(context.Background(), directory.RegisterInput{
		FullName: "Ada Lovelace",
		Email:    "ada@med.com",
		Password: "secret1",
		RoleKey:  3,
	})
	failure, ok := directory.FailureFrom(err)
	require.True(t, ok)
	assert.Equal(t, directory.FailRejected, failure.Kind)
	assert.Equal(t, "email already registered", failure.Message)
	assert.Equal(t, "email already registered", failure.UserMessage())
}
