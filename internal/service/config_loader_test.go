package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"wagonquiz/internal/models"
)

func TestConfigLoaderFirstMatch(t *testing.T) {
	store := newFakeStore()
	store.tests = []models.TestRecord{
		{ID: "a", Grade: strPtr("3")}, // no mini-game block
		{ID: "b", Grade: strPtr("2"), FindPrevNext: findPrevNext("50", "60", "10", "70")},
		{ID: "c", Grade: strPtr("3.0"), FindPrevNext: findPrevNext("20", "45", "8", "75")},
		{ID: "d", Grade: strPtr("3"), FindPrevNext: findPrevNext("99", "99", "99", "99")},
	}
	loader := NewConfigLoader(store, MergeStrict, time.Second, zap.NewNop())

	cfg, source, err := loader.Load(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, SourceBackend, source)
	assert.Equal(t, models.GameConfig{MaxNumberRange: 20, Duration: 45, NumQuestions: 8, RequiredScore: 6}, cfg)
}

func TestConfigLoaderDefaults(t *testing.T) {
	tests := []struct {
		name     string
		tests    []models.TestRecord
		testsErr error
	}{
		{name: "no tests"},
		{name: "no matching grade", tests: []models.TestRecord{{ID: "a", Grade: strPtr("1"), FindPrevNext: findPrevNext("20", "45", "8", "75")}}},
		{name: "unparseable grade", tests: []models.TestRecord{{ID: "a", Grade: strPtr("three"), FindPrevNext: findPrevNext("20", "45", "8", "75")}}},
		{name: "fetch failure", testsErr: errors.New("permission denied")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore()
			store.tests = tt.tests
			store.testsErr = tt.testsErr
			loader := NewConfigLoader(store, MergeStrict, time.Second, zap.NewNop())

			cfg, source, err := loader.Load(context.Background(), 3)
			require.NoError(t, err)
			assert.Equal(t, SourceDefaults, source)
			assert.Equal(t, models.GameConfig{MaxNumberRange: 10, Duration: 30, NumQuestions: 5, RequiredScore: 3}, cfg)
		})
	}
}

func TestConfigLoaderStrictRejectsPartialRecord(t *testing.T) {
	store := newFakeStore()
	store.tests = []models.TestRecord{
		{ID: "a", Grade: strPtr("3"), FindPrevNext: findPrevNext("20", "", "8", "75")},
		{ID: "b", Grade: strPtr("3"), FindPrevNext: findPrevNext("30", "45", "8", "75")},
	}
	loader := NewConfigLoader(store, MergeStrict, time.Second, zap.NewNop())

	cfg, source, err := loader.Load(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, SourceDefaults, source, "the first match decides, later records are not consulted")
	assert.Equal(t, models.DefaultGameConfig(), cfg)
}

func TestConfigLoaderStrictRejectsInvalidValues(t *testing.T) {
	store := newFakeStore()
	store.tests = []models.TestRecord{{ID: "a", Grade: strPtr("3"), FindPrevNext: findPrevNext("2", "45", "8", "75")}}
	loader := NewConfigLoader(store, MergeStrict, time.Second, zap.NewNop())

	cfg, source, err := loader.Load(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, SourceDefaults, source)
	assert.Equal(t, models.DefaultGameConfig(), cfg)
}

func TestConfigLoaderLegacyMerge(t *testing.T) {
	t.Run("missing duration stays zero", func(t *testing.T) {
		store := newFakeStore()
		store.tests = []models.TestRecord{{ID: "a", Grade: strPtr("3"), FindPrevNext: findPrevNext("20", "", "8", "75")}}
		loader := NewConfigLoader(store, MergeLegacy, time.Second, zap.NewNop())

		cfg, source, err := loader.Load(context.Background(), 3)
		require.NoError(t, err)
		assert.Equal(t, SourceBackend, source)
		assert.Equal(t, models.GameConfig{MaxNumberRange: 20, Duration: 0, NumQuestions: 8, RequiredScore: 6}, cfg)
	})

	t.Run("missing range fails fast", func(t *testing.T) {
		store := newFakeStore()
		store.tests = []models.TestRecord{{ID: "a", Grade: strPtr("3"), FindPrevNext: findPrevNext("", "30", "8", "75")}}
		loader := NewConfigLoader(store, MergeLegacy, time.Second, zap.NewNop())

		_, _, err := loader.Load(context.Background(), 3)
		assert.ErrorIs(t, err, ErrData)
	})
}

func TestRequiredScore(t *testing.T) {
	tests := []struct {
		numQuestions, percent, want int
	}{
		{5, 60, 3},
		{5, 50, 3},
		{10, 30, 3},
		{8, 75, 6},
		{7, 10, 1},
		{5, 0, 0},
		{5, 100, 5},
	}

	for _, tt := range tests {
		if got := requiredScore(tt.numQuestions, tt.percent); got != tt.want {
			t.Errorf("requiredScore(%d, %d) = %d, want %d", tt.numQuestions, tt.percent, got, tt.want)
		}
	}
}

func TestParseMergePolicy(t *testing.T) {
	assert.Equal(t, MergeLegacy, ParseMergePolicy("legacy"))
	assert.Equal(t, MergeStrict, ParseMergePolicy("strict"))
	assert.Equal(t, MergeStrict, ParseMergePolicy(""))
	assert.Equal(t, MergeStrict, ParseMergePolicy("other"))
}
