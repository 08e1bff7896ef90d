package models

// MiniGameKey names the mini-game config block this module reads
const MiniGameKey = "find_previous_next_number"

// MiniGameConfig is tests/{id}/miniGameConfigs/find_previous_next_number.
// Every field is optional and holds the raw stored value.
type MiniGameConfig struct {
	MaxNumberRange   *string
	MiniGameDuration *string
	NumQuestions     *string
	RequiredPercent  *string
}

// TestRecord is one entry of the tests collection
type TestRecord struct {
	ID           string
	Grade        *string
	FindPrevNext *MiniGameConfig
}
