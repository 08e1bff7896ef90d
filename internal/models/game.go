package models

// GameConfig holds the tunable parameters for one round
type GameConfig struct {
	MaxNumberRange int
	Duration       float64 // seconds, informational only
	NumQuestions   int
	RequiredScore  int
}

// DefaultGameConfig is used when no per-grade config is available
func DefaultGameConfig() GameConfig {
	return GameConfig{
		MaxNumberRange: 10,
		Duration:       30,
		NumQuestions:   5,
		RequiredScore:  3,
	}
}

// Phase is the position of a round in its question/answer cycle
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseAwaitingAnswer
	PhaseAwaitingNext
	PhaseFinished
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseAwaitingAnswer:
		return "awaiting_answer"
	case PhaseAwaitingNext:
		return "awaiting_next"
	case PhaseFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// RoundState is a snapshot of a round in progress
type RoundState struct {
	CurrentNumber int
	Score         int
	QuestionCount int
	GameOver      bool
	Phase         Phase
}
