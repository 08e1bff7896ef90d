package validation

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateCredentials trims both inputs and checks neither is empty
func ValidateCredentials(identifier, pin string) (string, string, error) {
	identifier = strings.TrimSpace(identifier)
	pin = strings.TrimSpace(pin)
	if identifier == "" {
		return "", "", ValidationError{Field: "uid", Message: "missing identifier or PIN"}
	}
	if pin == "" {
		return "", "", ValidationError{Field: "pin", Message: "missing identifier or PIN"}
	}
	return identifier, pin, nil
}

// ParseAnswer parses a typed answer. Only plain base-10 integers are accepted.
func ParseAnswer(field, raw string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, ValidationError{Field: field, Message: "must be a whole number"}
	}
	return n, nil
}

// ParseWholeNumber parses a stored value that should hold an integer. Stores
// may hand back "3", 3 or 3.0 for the same value, so integral decimals are
// accepted too.
func ParseWholeNumber(raw string) (int, bool) {
	raw = strings.Trim(strings.TrimSpace(raw), `"`)
	if n, err := strconv.Atoi(raw); err == nil {
		return n, true
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	if f > math.MaxInt32 || f < math.MinInt32 {
		return 0, false
	}
	return int(f), true
}

// ParseDecimal parses a stored numeric value such as a duration in seconds
func ParseDecimal(raw string) (float64, bool) {
	raw = strings.Trim(strings.TrimSpace(raw), `"`)
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
