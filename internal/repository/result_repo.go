package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"wagonquiz/internal/database"
	"wagonquiz/internal/models"
)

// ResultRepository appends and lists users/{id}/results
type ResultRepository struct {
	db database.DBTX
}

// NewResultRepository creates a new result repository
func NewResultRepository(db database.DBTX) *ResultRepository {
	return &ResultRepository{db: db}
}

// Append stores a result under a new time-ordered key and returns the key
func (r *ResultRepository) Append(ctx context.Context, userID string, rec models.ResultRecord) (string, error) {
	key, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("failed to generate result key: %w", err)
	}
	if err := r.Insert(ctx, userID, key.String(), rec); err != nil {
		return "", err
	}
	return key.String(), nil
}

// Insert stores a result under an existing key, as used by import. A result
// already stored under key is replaced.
func (r *ResultRepository) Insert(ctx context.Context, userID, key string, rec models.ResultRecord) error {
	query := r.db.GetDialect().UpsertQuery("results", "id", []string{
		"id", "user_id", "answered_questions", "score", "duration", "num_questions", "passed", "completed_at",
	})
	_, err := r.db.ExecContext(ctx, query, key, userID, rec.AnsweredQuestions, rec.Score, rec.Duration, rec.NumQuestions, rec.Passed, rec.CompletedAt)
	if err != nil {
		return fmt.Errorf("failed to store result %s: %w", key, err)
	}
	return nil
}

// List returns a user's results newest first. limit <= 0 returns all of them.
func (r *ResultRepository) List(ctx context.Context, userID string, limit int) ([]models.StoredResult, error) {
	query := `
		SELECT id, answered_questions, score, duration, num_questions, passed, completed_at
		FROM results
		WHERE user_id = ?
		ORDER BY id DESC
	`
	args := []interface{}{userID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list results: %w", err)
	}
	defer rows.Close()

	var results []models.StoredResult
	for rows.Next() {
		var sr models.StoredResult
		res := &sr.Result
		if err := rows.Scan(&sr.Key, &res.AnsweredQuestions, &res.Score, &res.Duration, &res.NumQuestions, &res.Passed, &res.CompletedAt); err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		results = append(results, sr)
	}
	return results, rows.Err()
}
