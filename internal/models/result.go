package models

// CompletedAtLayout matches the round-trip timestamp format existing readers
// of users/{id}/results expect.
const CompletedAtLayout = "2006-01-02T15:04:05.0000000Z"

// ResultRecord is appended once per finished round under users/{id}/results.
// The JSON names are part of the stored contract, including the space in
// "completed At".
type ResultRecord struct {
	AnsweredQuestions int     `json:"AnsweredQuestions"`
	Score             int     `json:"score"`
	Duration          float64 `json:"duration"`
	NumQuestions      int     `json:"numQuestions"`
	Passed            bool    `json:"passed"`
	CompletedAt       string  `json:"completed At"`
}

// StoredResult is a ResultRecord together with the key it was appended under
type StoredResult struct {
	Key    string
	Result ResultRecord
}
