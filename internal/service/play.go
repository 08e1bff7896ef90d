package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"wagonquiz/internal/game"
	"wagonquiz/internal/models"
	"wagonquiz/internal/session"
)

// PlayService starts rounds for a logged-in player
type PlayService struct {
	loader   *ConfigLoader
	recorder *Recorder
	store    session.Store
	log      *zap.Logger

	// NewRand and Now are replaced in tests
	NewRand func() *rand.Rand
	Now     func() time.Time
}

// NewPlayService creates a play service
func NewPlayService(loader *ConfigLoader, recorder *Recorder, store session.Store, log *zap.Logger) *PlayService {
	return &PlayService{
		loader:   loader,
		recorder: recorder,
		store:    store,
		log:      log,
		NewRand: func() *rand.Rand {
			return rand.New(rand.NewSource(time.Now().UnixNano()))
		},
		Now: time.Now,
	}
}

// Play is one player's sequence of rounds
type Play struct {
	identity models.SessionIdentity
	source   Source
	round    *game.Round
	recorder *Recorder
	log      *zap.Logger
}

// Begin loads the config for identity's grade and starts the first round
func (s *PlayService) Begin(ctx context.Context, identity models.SessionIdentity) (*Play, error) {
	if !identity.IsActive() {
		return nil, fmt.Errorf("%w: no active session", ErrValidation)
	}

	cfg, source, err := s.loader.Load(ctx, identity.Grade)
	if err != nil {
		return nil, err
	}

	round, err := game.NewRound(cfg, s.NewRand(), game.WithClock(s.Now))
	if err != nil {
		return nil, fmt.Errorf("%w: %w: %w", ErrData, ErrConfig, err)
	}
	round.Start()

	s.log.Info("round started",
		zap.String("uid", identity.Identifier),
		zap.Int("grade", identity.Grade),
		zap.String("config", string(source)),
		zap.Int("questions", cfg.NumQuestions))

	return &Play{
		identity: identity,
		source:   source,
		round:    round,
		recorder: s.recorder,
		log:      s.log,
	}, nil
}

// BeginFromStore starts a round for the identity saved at the last login
func (s *PlayService) BeginFromStore(ctx context.Context) (*Play, error) {
	identity, err := s.store.Load()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransient, err)
	}
	return s.Begin(ctx, identity)
}

// Identity returns the player this play belongs to
func (p *Play) Identity() models.SessionIdentity {
	return p.identity
}

// Source tells whether the config came from the store or the defaults
func (p *Play) Source() Source {
	return p.source
}

// Config returns the config of the current round
func (p *Play) Config() models.GameConfig {
	return p.round.Config()
}

// State returns a snapshot of the current round
func (p *Play) State() models.RoundState {
	return p.round.State()
}

// Result returns the record of a finished round, or nil
func (p *Play) Result() *models.ResultRecord {
	return p.round.Result()
}

// Submit answers the current question
func (p *Play) Submit(prev, next string) (game.Feedback, error) {
	fb, err := p.round.SubmitAnswer(prev, next)
	if err != nil {
		if errors.Is(err, game.ErrInvalidAnswer) {
			return fb, fmt.Errorf("%w: %w", ErrValidation, err)
		}
		return fb, err
	}
	return fb, nil
}

// Next moves to the next question, or finishes the round. A finished round's
// result is handed to the recorder and returned.
func (p *Play) Next() (*models.ResultRecord, error) {
	res, err := p.round.Advance()
	if err != nil || res == nil {
		return res, err
	}

	p.log.Info("round finished",
		zap.String("uid", p.identity.Identifier),
		zap.Int("score", res.Score),
		zap.Bool("passed", res.Passed))
	p.recorder.Record(p.identity, *res)
	return res, nil
}

// Restart replaces a finished round with a fresh one using the same config
func (p *Play) Restart() error {
	round, err := p.round.Restart()
	if err != nil {
		return err
	}
	p.round = round
	return nil
}
