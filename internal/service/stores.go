package service

import (
	"context"

	"wagonquiz/internal/models"
)

// UserSource looks users up by identifier. A missing user is (nil, nil).
type UserSource interface {
	GetUser(ctx context.Context, id string) (*models.UserRecord, error)
}

// TestSource lists the tests collection in key order
type TestSource interface {
	ListTests(ctx context.Context) ([]models.TestRecord, error)
}

// ResultStore appends to and reads from users/{id}/results
type ResultStore interface {
	Append(ctx context.Context, userID string, rec models.ResultRecord) (string, error)
	List(ctx context.Context, userID string, limit int) ([]models.StoredResult, error)
}
