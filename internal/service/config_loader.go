package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"wagonquiz/internal/models"
	"wagonquiz/internal/validation"
)

// MergePolicy decides how a matched test record with missing fields is applied
type MergePolicy string

const (
	// MergeStrict uses a matched record only when all four fields are
	// present and valid; otherwise the defaults apply.
	MergeStrict MergePolicy = "strict"
	// MergeLegacy starts from a zero config and copies whichever fields are
	// present, so missing fields stay zero.
	MergeLegacy MergePolicy = "legacy"
)

// ParseMergePolicy maps CONFIG_MERGE to a policy, defaulting to strict
func ParseMergePolicy(s string) MergePolicy {
	if MergePolicy(s) == MergeLegacy {
		return MergeLegacy
	}
	return MergeStrict
}

// Source tells where a GameConfig came from
type Source string

const (
	SourceBackend  Source = "backend"
	SourceDefaults Source = "defaults"
)

// ConfigLoader picks the GameConfig for a grade from the tests collection
type ConfigLoader struct {
	tests   TestSource
	policy  MergePolicy
	timeout time.Duration
	log     *zap.Logger
}

// NewConfigLoader creates a config loader
func NewConfigLoader(tests TestSource, policy MergePolicy, timeout time.Duration, log *zap.Logger) *ConfigLoader {
	return &ConfigLoader{tests: tests, policy: policy, timeout: timeout, log: log}
}

// Load returns the config of the first test record for grade. Fetch failures
// and missing matches fall back to the defaults and are not returned as errors.
func (l *ConfigLoader) Load(ctx context.Context, grade int) (models.GameConfig, Source, error) {
	defaults := models.DefaultGameConfig()

	fetchCtx, cancel := withTimeout(ctx, l.timeout)
	tests, err := l.tests.ListTests(fetchCtx)
	cancel()
	if err != nil {
		l.log.Error("failed to load game config, using defaults", zap.Int("grade", grade), zap.Error(err))
		return defaults, SourceDefaults, nil
	}

	match := firstMatch(tests, grade)
	if match == nil {
		l.log.Info("no game config for grade, using defaults", zap.Int("grade", grade))
		return defaults, SourceDefaults, nil
	}

	var cfg models.GameConfig
	if l.policy == MergeLegacy {
		cfg = mergeLegacy(match.FindPrevNext)
	} else {
		cfg, err = mergeStrict(match.FindPrevNext)
	}
	if err == nil {
		err = validateConfig(cfg)
	}

	if err != nil {
		if l.policy == MergeLegacy {
			return models.GameConfig{}, SourceBackend, fmt.Errorf("%w: %w: test %s: %w", ErrData, ErrConfig, match.ID, err)
		}
		l.log.Error("game config is incomplete, using defaults",
			zap.String("test", match.ID), zap.Int("grade", grade), zap.Error(err))
		return defaults, SourceDefaults, nil
	}

	l.log.Debug("loaded game config", zap.String("test", match.ID), zap.Int("grade", grade))
	return cfg, SourceBackend, nil
}

// firstMatch returns the first record whose grade equals grade and that
// carries the mini-game block. Later duplicates are ignored.
func firstMatch(tests []models.TestRecord, grade int) *models.TestRecord {
	for i := range tests {
		t := &tests[i]
		if t.Grade == nil || t.FindPrevNext == nil {
			continue
		}
		if g, ok := validation.ParseWholeNumber(*t.Grade); ok && g == grade {
			return t
		}
	}
	return nil
}

func mergeStrict(mc *models.MiniGameConfig) (models.GameConfig, error) {
	var cfg models.GameConfig
	var ok bool

	if cfg.MaxNumberRange, ok = parseInt(mc.MaxNumberRange); !ok {
		return cfg, fmt.Errorf("maxNumberRange is missing or invalid")
	}
	if cfg.Duration, ok = parseFloat(mc.MiniGameDuration); !ok {
		return cfg, fmt.Errorf("miniGameDuration is missing or invalid")
	}
	if cfg.NumQuestions, ok = parseInt(mc.NumQuestions); !ok {
		return cfg, fmt.Errorf("numQuestions is missing or invalid")
	}
	percent, ok := parseInt(mc.RequiredPercent)
	if !ok {
		return cfg, fmt.Errorf("requiredCorrectAnswersMinimumPercent is missing or invalid")
	}
	cfg.RequiredScore = requiredScore(cfg.NumQuestions, percent)
	return cfg, nil
}

func mergeLegacy(mc *models.MiniGameConfig) models.GameConfig {
	var cfg models.GameConfig
	if v, ok := parseInt(mc.MaxNumberRange); ok {
		cfg.MaxNumberRange = v
	}
	if v, ok := parseFloat(mc.MiniGameDuration); ok {
		cfg.Duration = v
	}
	if v, ok := parseInt(mc.NumQuestions); ok {
		cfg.NumQuestions = v
	}
	if v, ok := parseInt(mc.RequiredPercent); ok {
		cfg.RequiredScore = requiredScore(cfg.NumQuestions, v)
	}
	return cfg
}

func validateConfig(cfg models.GameConfig) error {
	if cfg.MaxNumberRange <= 2 {
		return fmt.Errorf("maxNumberRange must be greater than 2, got %d", cfg.MaxNumberRange)
	}
	if cfg.NumQuestions <= 0 {
		return fmt.Errorf("numQuestions must be positive, got %d", cfg.NumQuestions)
	}
	return nil
}

// requiredScore is ceil(numQuestions * percent / 100)
func requiredScore(numQuestions, percent int) int {
	product := numQuestions * percent
	if product <= 0 {
		return 0
	}
	return (product + 99) / 100
}

func parseInt(raw *string) (int, bool) {
	if raw == nil {
		return 0, false
	}
	return validation.ParseWholeNumber(*raw)
}

func parseFloat(raw *string) (float64, bool) {
	if raw == nil {
		return 0, false
	}
	return validation.ParseDecimal(*raw)
}
