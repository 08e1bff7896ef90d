package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"wagonquiz/internal/models"
)

func TestRecorderAppendsInBackground(t *testing.T) {
	store := newFakeStore()
	recorder := NewRecorder(store, time.Second, zap.NewNop())
	identity := models.SessionIdentity{Identifier: "s1", Grade: 3}

	recorder.Record(identity, models.ResultRecord{Score: 60, Passed: true})
	recorder.Record(identity, models.ResultRecord{Score: 80, Passed: true})
	recorder.Wait()

	stored := store.resultsFor("s1")
	require.Len(t, stored, 2)
	scores := []int{stored[0].Result.Score, stored[1].Result.Score}
	assert.ElementsMatch(t, []int{60, 80}, scores)
}

func TestRecorderLogsFailures(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	store := newFakeStore()
	store.appendErr = errors.New("write denied")
	recorder := NewRecorder(store, time.Second, zap.New(core))

	recorder.Record(models.SessionIdentity{Identifier: "s1", Grade: 3}, models.ResultRecord{Score: 60})
	recorder.Wait()

	assert.Empty(t, store.resultsFor("s1"))
	entries := logs.FilterMessage("failed to save result").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "s1", entries[0].ContextMap()["uid"])
}

func TestResultsHistory(t *testing.T) {
	store := newFakeStore()
	for _, score := range []int{20, 40, 60} {
		_, err := store.Append(context.Background(), "s1", models.ResultRecord{Score: score})
		require.NoError(t, err)
	}
	history := NewResults(store, time.Second)

	results, err := history.History(context.Background(), "s1", 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, 60, results[0].Result.Score)
	assert.Equal(t, 40, results[1].Result.Score)

	_, err = history.History(context.Background(), "", 0)
	assert.ErrorIs(t, err, ErrValidation)
}
