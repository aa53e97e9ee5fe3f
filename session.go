package directory

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// Principal is the authenticated identity and role bound to the current
// session. The role is immutable for the session's lifetime; a role change
// requires re-authentication.
type Principal struct {
	ID          int64  `json:"id"`
	DisplayName string `json:"fullName"`
	Role        Role   `json:"role"`
}

// Session pairs the bearer token with its Principal. Token and principal are
// always set and cleared together; a session missing either member is
// treated as absent.
type Session struct {
	Token     string    `json:"token"`
	Principal Principal `json:"user"`
}

// Valid reports whether both members of the pair are present.
func (s Session) Valid() bool {
	return s.Token != "" && s.Principal.ID != 0
}

// PrincipalID returns the bound principal's id, or 0 when absent.
func (s Session) PrincipalID() int64 {
	return s.Principal.ID
}

func (s Session) String() string {
	return fmt.Sprintf("user=%d name=%q role=%s", s.Principal.ID, s.Principal.DisplayName, s.Principal.Role)
}

var _ SessionStore = &FileSessionStore{}
var _ SessionStore = &MemorySessionStore{}

// FileSessionStore persists the session as a single JSON document holding
// the fixed "token" and "user" keys. Writes go through a temp file and
// rename so the pair is atomic on disk.
type FileSessionStore struct {
	path string
	mu   sync.Mutex
}

// NewFileSessionStore returns a store backed by the given file path.
func NewFileSessionStore(path string) *FileSessionStore {
	return &FileSessionStore{path: path}
}

// Save persists token and principal as one record.
func (s *FileSessionStore) Save(token string, principal Principal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(Session{Token: token, Principal: principal})
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".session-*")
	if err != nil {
		return fmt.Errorf("create session temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write session: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("chmod session: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close session temp file: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("commit session: %w", err)
	}
	return nil
}

// Load reads the persisted session. The second return value is false when no
// valid session exists. Load never touches the network; staleness is only
// discovered by a failing authenticated call.
func (s *FileSessionStore) Load() (Session, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return Session{}, false, nil
	}
	if err != nil {
		return Session{}, false, fmt.Errorf("read session: %w", err)
	}

	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		return Session{}, false, fmt.Errorf("%w: %v", ErrSessionDecode, err)
	}

	// A record missing either member never counts as partially valid.
	if !session.Valid() {
		return Session{}, false, nil
	}
	return session, true, nil
}

// Clear removes the persisted pair.
func (s *FileSessionStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// MemorySessionStore is an in-process SessionStore, used in tests and
// ephemeral environments.
type MemorySessionStore struct {
	mu      sync.Mutex
	session Session
	present bool
}

// NewMemorySessionStore returns an empty in-memory store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{}
}

// Save stores the pair.
func (s *MemorySessionStore) Save(token string, principal Principal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = Session{Token: token, Principal: principal}
	s.present = true
	return nil
}

// Load returns the stored session, if any.
func (s *MemorySessionStore) Load() (Session, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.present || !s.session.Valid() {
		return Session{}, false, nil
	}
	return s.session, true, nil
}

// Clear removes the stored session.
func (s *MemorySessionStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = Session{}
	s.present = false
	return nil
}
