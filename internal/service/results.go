package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"wagonquiz/internal/models"
)

// Recorder appends finished rounds without making the player wait. Failed
// writes are logged and dropped.
type Recorder struct {
	results ResultStore
	timeout time.Duration
	log     *zap.Logger
	wg      sync.WaitGroup
}

// NewRecorder creates a recorder. timeout bounds each write.
func NewRecorder(results ResultStore, timeout time.Duration, log *zap.Logger) *Recorder {
	return &Recorder{results: results, timeout: timeout, log: log}
}

// Record starts appending rec for identity and returns immediately
func (r *Recorder) Record(identity models.SessionIdentity, rec models.ResultRecord) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		ctx, cancel := withTimeout(context.Background(), r.timeout)
		defer cancel()

		key, err := r.results.Append(ctx, identity.Identifier, rec)
		if err != nil {
			r.log.Error("failed to save result",
				zap.String("uid", identity.Identifier),
				zap.Int("score", rec.Score),
				zap.Error(err))
			return
		}
		r.log.Info("result saved",
			zap.String("uid", identity.Identifier),
			zap.String("key", key),
			zap.Int("score", rec.Score),
			zap.Bool("passed", rec.Passed))
	}()
}

// Wait blocks until every started write has finished
func (r *Recorder) Wait() {
	r.wg.Wait()
}

// Results reads a player's result history
type Results struct {
	results ResultStore
	timeout time.Duration
}

// NewResults creates a history reader
func NewResults(results ResultStore, timeout time.Duration) *Results {
	return &Results{results: results, timeout: timeout}
}

// History returns up to limit results for id, newest first
func (h *Results) History(ctx context.Context, id string, limit int) ([]models.StoredResult, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: no active session", ErrValidation)
	}

	ctx, cancel := withTimeout(ctx, h.timeout)
	defer cancel()

	results, err := h.results.List(ctx, id, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransient, err)
	}
	return results, nil
}
