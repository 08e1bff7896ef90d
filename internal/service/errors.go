package service

import (
	"errors"
	"strings"

	"wagonquiz/internal/game"
	"wagonquiz/internal/validation"
)

var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("not found")
	ErrAuth       = errors.New("authentication failed")
	ErrTransient  = errors.New("store unavailable")
	ErrData       = errors.New("invalid stored data")

	// ErrConfig marks stored game settings that cannot start a round. It is
	// always wrapped together with ErrData.
	ErrConfig = errors.New("invalid game config")
)

// UserMessage turns an error from this package into the text shown to the player
func UserMessage(err error) string {
	var ve validation.ValidationError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, game.ErrInvalidAnswer):
		return "Please enter valid numbers."
	case errors.Is(err, ErrValidation) && errors.As(err, &ve) && (ve.Field == "uid" || ve.Field == "pin"):
		return "Please enter both UID and PIN."
	case errors.Is(err, ErrValidation):
		return "Please log in first."
	case errors.Is(err, ErrNotFound):
		return "UID not found."
	case errors.Is(err, ErrAuth):
		return "Invalid PIN."
	case errors.Is(err, ErrTransient):
		return "Database error: " + transientCause(err)
	case errors.Is(err, game.ErrWrongPhase):
		return "Press next to continue."
	case errors.Is(err, ErrConfig):
		return "Game settings for your grade are invalid."
	case errors.Is(err, ErrData):
		return "No grade found for this user."
	default:
		return "Something went wrong."
	}
}

// transientCause strips the sentinel prefix so the store's own message is shown as-is
func transientCause(err error) string {
	return strings.TrimPrefix(err.Error(), ErrTransient.Error()+": ")
}
