package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"wagonquiz/internal/models"
)

// fakeStore is an in-memory keyed store for service tests
type fakeStore struct {
	mu        sync.Mutex
	users     map[string]models.UserRecord
	tests     []models.TestRecord
	results   map[string][]models.StoredResult
	userErr   error
	testsErr  error
	appendErr error
	userCalls int
	seq       int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:   make(map[string]models.UserRecord),
		results: make(map[string][]models.StoredResult),
	}
}

func (f *fakeStore) GetUser(ctx context.Context, id string) (*models.UserRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.userCalls++
	if f.userErr != nil {
		return nil, f.userErr
	}
	u, ok := f.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (f *fakeStore) UpsertUser(ctx context.Context, user models.UserRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[user.Identifier] = user
	return nil
}

func (f *fakeStore) SetPassword(ctx context.Context, id, password string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return fmt.Errorf("user %s not found", id)
	}
	u.Password = password
	f.users[id] = u
	return nil
}

func (f *fakeStore) ListTests(ctx context.Context) ([]models.TestRecord, error) {
	if f.testsErr != nil {
		return nil, f.testsErr
	}
	return f.tests, nil
}

func (f *fakeStore) Append(ctx context.Context, userID string, rec models.ResultRecord) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.appendErr != nil {
		return "", f.appendErr
	}
	f.seq++
	key := fmt.Sprintf("k%03d", f.seq)
	f.results[userID] = append(f.results[userID], models.StoredResult{Key: key, Result: rec})
	return key, nil
}

func (f *fakeStore) List(ctx context.Context, userID string, limit int) ([]models.StoredResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored := f.results[userID]
	var out []models.StoredResult
	for i := len(stored) - 1; i >= 0; i-- {
		out = append(out, stored[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeStore) resultsFor(id string) []models.StoredResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.StoredResult(nil), f.results[id]...)
}

// failingSessionStore fails every save
type failingSessionStore struct{}

func (failingSessionStore) Load() (models.SessionIdentity, error) {
	return models.SessionIdentity{}, errors.New("disk unavailable")
}
func (failingSessionStore) Save(models.SessionIdentity) error { return errors.New("disk full") }
func (failingSessionStore) Clear() error                      { return nil }

func strPtr(s string) *string { return &s }

func findPrevNext(maxRange, duration, numQuestions, percent string) *models.MiniGameConfig {
	opt := func(s string) *string {
		if s == "" {
			return nil
		}
		return strPtr(s)
	}
	return &models.MiniGameConfig{
		MaxNumberRange:   opt(maxRange),
		MiniGameDuration: opt(duration),
		NumQuestions:     opt(numQuestions),
		RequiredPercent:  opt(percent),
	}
}
