package main

import (
	"bytes"
	"context"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"wagonquiz/internal/config"
	"wagonquiz/internal/models"
	"wagonquiz/internal/service"
	"wagonquiz/internal/session"
)

func strPtr(s string) *string { return &s }

// stubStore serves one test config and keeps appended results
type stubStore struct {
	mu      sync.Mutex
	tests   []models.TestRecord
	results []models.ResultRecord
}

func (s *stubStore) ListTests(ctx context.Context) ([]models.TestRecord, error) {
	return s.tests, nil
}

func (s *stubStore) Append(ctx context.Context, userID string, rec models.ResultRecord) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append(s.results, rec)
	return fmt.Sprintf("k%d", len(s.results)), nil
}

func (s *stubStore) List(ctx context.Context, userID string, limit int) ([]models.StoredResult, error) {
	return nil, nil
}

func TestRunGame(t *testing.T) {
	store := &stubStore{tests: []models.TestRecord{{
		ID:    "0",
		Grade: strPtr("3"),
		FindPrevNext: &models.MiniGameConfig{
			MaxNumberRange:   strPtr("10"),
			MiniGameDuration: strPtr("30"),
			NumQuestions:     strPtr("2"),
			RequiredPercent:  strPtr("50"),
		},
	}}}
	log := zap.NewNop()
	recorder := service.NewRecorder(store, time.Second, log)
	plays := service.NewPlayService(service.NewConfigLoader(store, service.MergeStrict, time.Second, log), recorder, session.NewMemoryStore(), log)
	plays.NewRand = func() *rand.Rand { return rand.New(rand.NewSource(42)) }

	// questions are drawn from the same seeded source
	r := rand.New(rand.NewSource(42))
	first := 2 + r.Intn(8)

	play, err := plays.Begin(context.Background(), models.SessionIdentity{Identifier: "1001", Grade: 3})
	require.NoError(t, err)
	require.Equal(t, first, play.State().CurrentNumber)

	input := strings.Join([]string{
		"x", "1", // rejected, asked again
		fmt.Sprint(first - 1), fmt.Sprint(first + 1),
		"", // next question
		"0", "0",
		"n",
	}, "\n") + "\n"
	var out bytes.Buffer

	require.NoError(t, runGame(newPrompter(strings.NewReader(input), &out), play))
	recorder.Wait()

	text := out.String()
	assert.Contains(t, text, "Grade 3: 2 questions, 1 correct to pass")
	assert.Contains(t, text, "Please enter valid numbers.")
	assert.Contains(t, text, "Correct! Score: 1")
	assert.Contains(t, text, "Not quite")
	assert.Contains(t, text, "Round over: 1 of 2 correct (50%). Passed!")

	require.Len(t, store.results, 1)
	assert.True(t, store.results[0].Passed)
}

func TestRunGameStopsAtEndOfInput(t *testing.T) {
	store := &stubStore{}
	log := zap.NewNop()
	recorder := service.NewRecorder(store, time.Second, log)
	plays := service.NewPlayService(service.NewConfigLoader(store, service.MergeStrict, time.Second, log), recorder, session.NewMemoryStore(), log)

	play, err := plays.Begin(context.Background(), models.SessionIdentity{Identifier: "1001", Grade: 1})
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, runGame(newPrompter(strings.NewReader("4\n"), &out), play))
	recorder.Wait()

	assert.Contains(t, out.String(), "(using the default settings)")
	assert.Empty(t, store.results)
	assert.Equal(t, models.PhaseAwaitingAnswer, play.State().Phase)
}

func TestPrintResults(t *testing.T) {
	var out bytes.Buffer
	printResults(&out, nil)
	assert.Equal(t, "No results yet\n", out.String())

	out.Reset()
	printResults(&out, []models.StoredResult{{Key: "a", Result: models.ResultRecord{
		AnsweredQuestions: 4, NumQuestions: 5, Score: 80, Passed: true, CompletedAt: "2026-01-02T03:04:05.0000000Z",
	}}})
	assert.Contains(t, out.String(), "4/5")
	assert.Contains(t, out.String(), "80%")
}

func TestDefaultExportPath(t *testing.T) {
	got := defaultExportPath(time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC))
	assert.Equal(t, "backup_20260304_050607.json", got)
}

func runCLI(t *testing.T, a *app, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmdFor(a)
	var out bytes.Buffer
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCLIEndToEnd(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	dir := t.TempDir()
	a := &app{
		cfg: &config.Config{
			Backend:        config.BackendSQL,
			DatabaseType:   "sqlite",
			DatabasePath:   filepath.Join(dir, "cli.db"),
			PrefsPath:      filepath.Join(dir, "prefs.toml"),
			RequestTimeout: 5 * time.Second,
			ConfigMerge:    "strict",
		},
		log: zap.NewNop(),
	}

	out, err := runCLI(t, a, "", "user", "add", "1001", "--grade", "2", "--pin", "1234")
	require.NoError(t, err, out)
	assert.Contains(t, out, "Saved 1001 (grade 2)")

	out, err = runCLI(t, a, "", "login", "--uid", "1001", "--pin", "9999")
	require.Error(t, err)
	assert.Contains(t, out, "Invalid PIN.")

	out, err = runCLI(t, a, "1234\n", "login", "--uid", "1001")
	require.NoError(t, err, out)
	assert.Contains(t, out, "Logged in as 1001 (grade 2)")

	identity, err := session.NewFileStore(a.cfg.PrefsPath).Load()
	require.NoError(t, err)
	assert.Equal(t, models.SessionIdentity{Identifier: "1001", Grade: 2}, identity)

	out, err = runCLI(t, a, "", "results")
	require.NoError(t, err, out)
	assert.Contains(t, out, "No results yet")

	backup := filepath.Join(dir, "out", "backup.json")
	out, err = runCLI(t, a, "", "export", "--output", backup)
	require.NoError(t, err, out)
	_, err = os.Stat(backup)
	require.NoError(t, err)

	out, err = runCLI(t, a, "no\n", "import", "--input", backup, "--clear")
	require.NoError(t, err, out)
	assert.Contains(t, out, "Import cancelled")

	out, err = runCLI(t, a, "", "import", "--input", backup, "--clear", "--yes")
	require.NoError(t, err, out)
	assert.Contains(t, out, "Imported 1 users, 0 tests and 0 results")

	out, err = runCLI(t, a, "", "logout")
	require.NoError(t, err, out)

	out, err = runCLI(t, a, "", "play")
	require.Error(t, err)
	assert.Contains(t, out, "Please log in first.")
}
