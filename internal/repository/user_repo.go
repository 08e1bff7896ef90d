package repository

import (
	"context"
	"database/sql"
	"fmt"

	"wagonquiz/internal/database"
	"wagonquiz/internal/models"
)

// UserRepository handles database operations for users/{id}
type UserRepository struct {
	db database.DBTX
}

// NewUserRepository creates a new user repository
func NewUserRepository(db database.DBTX) *UserRepository {
	return &UserRepository{db: db}
}

// GetUser retrieves a user by identifier. A missing user is (nil, nil).
func (r *UserRepository) GetUser(ctx context.Context, id string) (*models.UserRecord, error) {
	query := `
		SELECT id, password, school_grade, math_grade
		FROM users
		WHERE id = ?
	`
	var (
		user        models.UserRecord
		schoolGrade sql.NullString
		mathGrade   sql.NullString
	)
	err := r.db.QueryRowContext(ctx, query, id).Scan(&user.Identifier, &user.Password, &schoolGrade, &mathGrade)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	user.SchoolGrade = fromNull(schoolGrade)
	user.MathGrade = fromNull(mathGrade)
	return &user, nil
}

// ListUsers returns every user ordered by identifier
func (r *UserRepository) ListUsers(ctx context.Context) ([]models.UserRecord, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, password, school_grade, math_grade FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []models.UserRecord
	for rows.Next() {
		var (
			user        models.UserRecord
			schoolGrade sql.NullString
			mathGrade   sql.NullString
		)
		if err := rows.Scan(&user.Identifier, &user.Password, &schoolGrade, &mathGrade); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		user.SchoolGrade = fromNull(schoolGrade)
		user.MathGrade = fromNull(mathGrade)
		users = append(users, user)
	}
	return users, rows.Err()
}

// UpsertUser creates the user or replaces its fields
func (r *UserRepository) UpsertUser(ctx context.Context, user models.UserRecord) error {
	query := r.db.GetDialect().UpsertQuery("users", "id", []string{"id", "password", "school_grade", "math_grade"})
	_, err := r.db.ExecContext(ctx, query, user.Identifier, user.Password, toNull(user.SchoolGrade), toNull(user.MathGrade))
	if err != nil {
		return fmt.Errorf("failed to upsert user %s: %w", user.Identifier, err)
	}
	return nil
}

// SetPassword replaces the stored PIN for a user
func (r *UserRepository) SetPassword(ctx context.Context, id, password string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET password = ? WHERE id = ?`, password, id)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("user %s not found", id)
	}
	return nil
}

// DeleteAll removes every user together with their results
func (r *UserRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM results`); err != nil {
		return fmt.Errorf("failed to clear results: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, `DELETE FROM users`); err != nil {
		return fmt.Errorf("failed to clear users: %w", err)
	}
	return nil
}
