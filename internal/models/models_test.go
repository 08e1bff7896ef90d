package models

import (
	"encoding/json"
	"testing"
)

func strPtr(s string) *string { return &s }

func TestDefaultGameConfig(t *testing.T) {
	want := GameConfig{MaxNumberRange: 10, Duration: 30, NumQuestions: 5, RequiredScore: 3}
	if got := DefaultGameConfig(); got != want {
		t.Errorf("DefaultGameConfig() = %+v, want %+v", got, want)
	}
}

func TestUserRecordRawGrade(t *testing.T) {
	tests := []struct {
		name   string
		user   UserRecord
		want   string
		wantOK bool
	}{
		{
			name:   "school grade preferred",
			user:   UserRecord{SchoolGrade: strPtr("3"), MathGrade: strPtr("4")},
			want:   "3",
			wantOK: true,
		},
		{
			name:   "math grade fallback",
			user:   UserRecord{MathGrade: strPtr("4")},
			want:   "4",
			wantOK: true,
		},
		{
			name:   "present but unparseable school grade still wins",
			user:   UserRecord{SchoolGrade: strPtr("third"), MathGrade: strPtr("4")},
			want:   "third",
			wantOK: true,
		},
		{
			name:   "no grade",
			user:   UserRecord{},
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.user.RawGrade()
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("RawGrade() = (%q, %v), want (%q, %v)", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestSessionIdentityIsActive(t *testing.T) {
	tests := []struct {
		name     string
		identity SessionIdentity
		want     bool
	}{
		{"active", SessionIdentity{Identifier: "u1", Grade: 2}, true},
		{"no identifier", SessionIdentity{Grade: 2}, false},
		{"zero grade", SessionIdentity{Identifier: "u1"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.identity.IsActive(); got != tt.want {
				t.Errorf("IsActive() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestResultRecordFieldNames(t *testing.T) {
	data, err := json.Marshal(ResultRecord{AnsweredQuestions: 3, Score: 60, Duration: 30, NumQuestions: 5, Passed: true, CompletedAt: "2024-01-02T03:04:05.0000000Z"})
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	for _, key := range []string{"AnsweredQuestions", "score", "duration", "numQuestions", "passed", "completed At"} {
		if _, ok := fields[key]; !ok {
			t.Errorf("marshalled result is missing %q: %s", key, data)
		}
	}
}

func TestPhaseString(t *testing.T) {
	if PhaseAwaitingNext.String() != "awaiting_next" {
		t.Errorf("PhaseAwaitingNext.String() = %q", PhaseAwaitingNext.String())
	}
	if Phase(42).String() != "unknown" {
		t.Errorf("Phase(42).String() = %q", Phase(42).String())
	}
}
