package repository

import (
	"context"
	"database/sql"
	"fmt"

	"wagonquiz/internal/database"
	"wagonquiz/internal/models"
)

// TestRepository reads and writes the tests collection. Row order mirrors
// the key order of the tests collection through sort_key.
type TestRepository struct {
	db database.DBTX
}

// NewTestRepository creates a new test repository
func NewTestRepository(db database.DBTX) *TestRepository {
	return &TestRepository{db: db}
}

// ListTests returns all test records in collection order
func (r *TestRepository) ListTests(ctx context.Context) ([]models.TestRecord, error) {
	query := `
		SELECT id, grade, has_find_prev_next, max_number_range, mini_game_duration, num_questions, required_percent
		FROM tests
		ORDER BY sort_key, id
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list tests: %w", err)
	}
	defer rows.Close()

	var tests []models.TestRecord
	for rows.Next() {
		var (
			rec          models.TestRecord
			grade        sql.NullString
			hasConfig    bool
			maxRange     sql.NullString
			duration     sql.NullString
			numQuestions sql.NullString
			percent      sql.NullString
		)
		if err := rows.Scan(&rec.ID, &grade, &hasConfig, &maxRange, &duration, &numQuestions, &percent); err != nil {
			return nil, fmt.Errorf("failed to scan test: %w", err)
		}
		rec.Grade = fromNull(grade)
		if hasConfig {
			rec.FindPrevNext = &models.MiniGameConfig{
				MaxNumberRange:   fromNull(maxRange),
				MiniGameDuration: fromNull(duration),
				NumQuestions:     fromNull(numQuestions),
				RequiredPercent:  fromNull(percent),
			}
		}
		tests = append(tests, rec)
	}
	return tests, rows.Err()
}

// UpsertTest stores a test record at the given collection position
func (r *TestRepository) UpsertTest(ctx context.Context, sortKey int, rec models.TestRecord) error {
	columns := []string{"id", "sort_key", "grade", "has_find_prev_next", "max_number_range", "mini_game_duration", "num_questions", "required_percent"}
	query := r.db.GetDialect().UpsertQuery("tests", "id", columns)

	cfg := rec.FindPrevNext
	if cfg == nil {
		cfg = &models.MiniGameConfig{}
	}
	_, err := r.db.ExecContext(ctx, query,
		rec.ID,
		sortKey,
		toNull(rec.Grade),
		rec.FindPrevNext != nil,
		toNull(cfg.MaxNumberRange),
		toNull(cfg.MiniGameDuration),
		toNull(cfg.NumQuestions),
		toNull(cfg.RequiredPercent),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert test %s: %w", rec.ID, err)
	}
	return nil
}

// DeleteAll removes every test record
func (r *TestRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM tests`); err != nil {
		return fmt.Errorf("failed to clear tests: %w", err)
	}
	return nil
}
