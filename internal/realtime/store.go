package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"wagonquiz/internal/models"
)

// Store maps the users and tests collections onto the Client
type Store struct {
	client *Client
}

// NewStore creates a store backed by client
func NewStore(client *Client) *Store {
	return &Store{client: client}
}

// validKey reports whether id can name a single child node
func validKey(id string) bool {
	return id != "" && !strings.ContainsAny(id, "/.#$[]")
}

// GetUser reads users/{id}. A missing user is (nil, nil).
func (s *Store) GetUser(ctx context.Context, id string) (*models.UserRecord, error) {
	if !validKey(id) {
		return nil, nil
	}
	raw, err := s.client.Get(ctx, "users/"+id, nil)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}

	return DecodeUser(id, raw)
}

// DecodeUser decodes a users/{id} node
func DecodeUser(id string, raw json.RawMessage) (*models.UserRecord, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("user %s is not an object: %w", id, err)
	}

	user := &models.UserRecord{
		Identifier:  id,
		SchoolGrade: Scalar(fields["schoolGrade"]),
		MathGrade:   Scalar(fields["mathGrade"]),
	}
	if pw := Scalar(fields["password"]); pw != nil {
		user.Password = *pw
	}
	return user, nil
}

// ListTests reads the tests collection in key order
func (s *Store) ListTests(ctx context.Context) ([]models.TestRecord, error) {
	raw, err := s.client.Get(ctx, "tests", nil)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}

	keys, nodes, err := Children(raw)
	if err != nil {
		return nil, fmt.Errorf("tests collection is malformed: %w", err)
	}

	tests := make([]models.TestRecord, 0, len(keys))
	for _, key := range keys {
		tests = append(tests, DecodeTest(key, nodes[key]))
	}
	return tests, nil
}

// DecodeTest decodes a tests/{id} node. Malformed parts are treated as absent.
func DecodeTest(id string, raw json.RawMessage) models.TestRecord {
	rec := models.TestRecord{ID: id}

	var fields map[string]json.RawMessage
	if json.Unmarshal(raw, &fields) != nil {
		return rec
	}
	rec.Grade = Scalar(fields["grade"])

	var miniGames map[string]json.RawMessage
	if json.Unmarshal(fields["miniGameConfigs"], &miniGames) != nil {
		return rec
	}
	block, ok := miniGames[models.MiniGameKey]
	if !ok || isNull(block) {
		return rec
	}

	var cfg map[string]json.RawMessage
	if json.Unmarshal(block, &cfg) != nil {
		return rec
	}
	rec.FindPrevNext = &models.MiniGameConfig{
		MaxNumberRange:   Scalar(cfg["maxNumberRange"]),
		MiniGameDuration: Scalar(cfg["miniGameDuration"]),
		NumQuestions:     Scalar(cfg["numQuestions"]),
		RequiredPercent:  Scalar(cfg["requiredCorrectAnswersMinimumPercent"]),
	}
	return rec
}

// Append pushes a result under users/{id}/results
func (s *Store) Append(ctx context.Context, userID string, rec models.ResultRecord) (string, error) {
	if !validKey(userID) {
		return "", fmt.Errorf("invalid user key %q", userID)
	}
	return s.client.Push(ctx, "users/"+userID+"/results", rec)
}

// List returns a user's results newest first. Push keys sort chronologically.
func (s *Store) List(ctx context.Context, userID string, limit int) ([]models.StoredResult, error) {
	if !validKey(userID) {
		return nil, fmt.Errorf("invalid user key %q", userID)
	}
	query := url.Values{}
	query.Set("orderBy", `"$key"`)
	if limit > 0 {
		query.Set("limitToLast", strconv.Itoa(limit))
	}

	raw, err := s.client.Get(ctx, "users/"+userID+"/results", query)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}

	keys, nodes, err := Children(raw)
	if err != nil {
		return nil, fmt.Errorf("results collection is malformed: %w", err)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(keys)))

	results := make([]models.StoredResult, 0, len(keys))
	for _, key := range keys {
		var rec models.ResultRecord
		if err := json.Unmarshal(nodes[key], &rec); err != nil {
			continue
		}
		results = append(results, models.StoredResult{Key: key, Result: rec})
	}
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}
