// Package session keeps the verified player between login and play.
package session

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/BurntSushi/toml"

	"wagonquiz/internal/models"
)

// Store persists the SessionIdentity written at login
type Store interface {
	Load() (models.SessionIdentity, error)
	Save(identity models.SessionIdentity) error
	Clear() error
}

// prefs is the on-disk layout of the prefs file
type prefs struct {
	PlayerUID   string `toml:"PlayerUID"`
	PlayerGrade int    `toml:"PlayerGrade"`
}

// FileStore keeps the identity in a small TOML prefs file
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore creates a store at path. The file is created on first Save.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the prefs file location
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the prefs file. A missing file yields the zero identity.
func (s *FileStore) Load() (models.SessionIdentity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var p prefs
	if _, err := toml.DecodeFile(s.path, &p); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return models.SessionIdentity{}, nil
		}
		return models.SessionIdentity{}, fmt.Errorf("failed to decode prefs: %w", err)
	}
	return models.SessionIdentity{Identifier: p.PlayerUID, Grade: p.PlayerGrade}, nil
}

// Save overwrites the prefs file atomically
func (s *FileStore) Save(identity models.SessionIdentity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(prefs{PlayerUID: identity.Identifier, PlayerGrade: identity.Grade}); err != nil {
		return fmt.Errorf("failed to encode prefs: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create prefs directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".prefs-*.toml")
	if err != nil {
		return fmt.Errorf("failed to create temp prefs: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write prefs: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write prefs: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to replace prefs: %w", err)
	}
	return nil
}

// Clear removes the prefs file
func (s *FileStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove prefs: %w", err)
	}
	return nil
}

// MemoryStore is a Store held in memory
type MemoryStore struct {
	mu       sync.Mutex
	identity models.SessionIdentity
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Load() (models.SessionIdentity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.identity, nil
}

func (s *MemoryStore) Save(identity models.SessionIdentity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.identity = identity
	return nil
}

func (s *MemoryStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.identity = models.SessionIdentity{}
	return nil
}
