// Package game runs the find-the-previous-and-next-number round.
//
// A Round is owned by one goroutine at a time and does no locking.
package game

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"wagonquiz/internal/models"
	"wagonquiz/internal/validation"
)

var (
	ErrInvalidRange  = errors.New("max number range must be greater than 2")
	ErrInvalidConfig = errors.New("number of questions must be positive")
	ErrWrongPhase    = errors.New("action not allowed in the current phase")
	ErrInvalidAnswer = errors.New("answers must be whole numbers")
)

// lowestNumber is the smallest number asked about, so that its previous
// number is still positive
const lowestNumber = 2

// Feedback describes the outcome of one submitted answer
type Feedback struct {
	Correct       bool
	Previous      int // expected previous number
	Next          int // expected next number
	Score         int
	QuestionCount int
	GameOver      bool
}

// Round is one play-through of NumQuestions questions
type Round struct {
	cfg    models.GameConfig
	rng    *rand.Rand
	now    func() time.Time
	state  models.RoundState
	result *models.ResultRecord
}

// Option customises a Round
type Option func(*Round)

// WithClock sets the clock used to stamp the result
func WithClock(now func() time.Time) Option {
	return func(r *Round) { r.now = now }
}

// NewRound validates cfg and returns an idle round. A nil rng is seeded from
// the current time.
func NewRound(cfg models.GameConfig, rng *rand.Rand, opts ...Option) (*Round, error) {
	if cfg.MaxNumberRange <= lowestNumber {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidRange, cfg.MaxNumberRange)
	}
	if cfg.NumQuestions <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidConfig, cfg.NumQuestions)
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	r := &Round{cfg: cfg, rng: rng, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Config returns the parameters the round was built with
func (r *Round) Config() models.GameConfig {
	return r.cfg
}

// State returns a snapshot of the round
func (r *Round) State() models.RoundState {
	return r.state
}

// Result returns the record emitted when the round finished, if any
func (r *Round) Result() *models.ResultRecord {
	if r.result == nil {
		return nil
	}
	res := *r.result
	return &res
}

// Start resets the counters and asks the first question
func (r *Round) Start() {
	r.state = models.RoundState{}
	r.result = nil
	r.generateQuestion()
}

// generateQuestion picks a number in [2, MaxNumberRange)
func (r *Round) generateQuestion() {
	r.state.CurrentNumber = lowestNumber + r.rng.Intn(r.cfg.MaxNumberRange-lowestNumber)
	r.state.Phase = models.PhaseAwaitingAnswer
}

// SubmitAnswer checks the typed previous and next numbers. Unparseable input
// leaves the round untouched so the player can try again.
func (r *Round) SubmitAnswer(prev, next string) (Feedback, error) {
	if r.state.Phase != models.PhaseAwaitingAnswer {
		return Feedback{}, fmt.Errorf("%w: cannot answer while %s", ErrWrongPhase, r.state.Phase)
	}

	p, err := validation.ParseAnswer("previous", prev)
	if err != nil {
		return Feedback{}, fmt.Errorf("%w: %w", ErrInvalidAnswer, err)
	}
	n, err := validation.ParseAnswer("next", next)
	if err != nil {
		return Feedback{}, fmt.Errorf("%w: %w", ErrInvalidAnswer, err)
	}

	current := r.state.CurrentNumber
	correct := p == current-1 && n == current+1
	if correct {
		r.state.Score++
	}
	r.state.QuestionCount++
	if r.state.QuestionCount >= r.cfg.NumQuestions {
		r.state.GameOver = true
	}
	r.state.Phase = models.PhaseAwaitingNext

	return Feedback{
		Correct:       correct,
		Previous:      current - 1,
		Next:          current + 1,
		Score:         r.state.Score,
		QuestionCount: r.state.QuestionCount,
		GameOver:      r.state.GameOver,
	}, nil
}

// Advance moves past the feedback. When the last question has been answered
// the round finishes and the ResultRecord is returned; this happens exactly
// once per round. Otherwise the next question is asked and nil is returned.
func (r *Round) Advance() (*models.ResultRecord, error) {
	if r.state.Phase != models.PhaseAwaitingNext {
		return nil, fmt.Errorf("%w: cannot advance while %s", ErrWrongPhase, r.state.Phase)
	}

	if !r.state.GameOver {
		r.generateQuestion()
		return nil, nil
	}

	r.state.Phase = models.PhaseFinished
	r.result = r.buildResult()
	return r.Result(), nil
}

// Restart returns a new started round with the same config and randomness.
// The finished round is left as it was.
func (r *Round) Restart() (*Round, error) {
	if r.state.Phase != models.PhaseFinished {
		return nil, fmt.Errorf("%w: cannot restart while %s", ErrWrongPhase, r.state.Phase)
	}

	next, err := NewRound(r.cfg, r.rng, WithClock(r.now))
	if err != nil {
		return nil, err
	}
	next.Start()
	return next, nil
}

func (r *Round) buildResult() *models.ResultRecord {
	score := r.state.Score * 100 / r.cfg.NumQuestions
	return &models.ResultRecord{
		AnsweredQuestions: r.state.Score,
		Score:             score,
		Duration:          r.cfg.Duration,
		NumQuestions:      r.cfg.NumQuestions,
		Passed:            r.state.Score >= r.cfg.RequiredScore,
		CompletedAt:       r.now().UTC().Format(models.CompletedAtLayout),
	}
}
