package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"wagonquiz/internal/models"
	"wagonquiz/internal/security"
	"wagonquiz/internal/session"
	"wagonquiz/internal/validation"
)

// Verifier checks a UID and PIN against the store and records the player
type Verifier struct {
	users   UserSource
	store   session.Store
	timeout time.Duration
	log     *zap.Logger
}

// NewVerifier creates a verifier. timeout bounds each store call. A nil store
// skips saving the identity, for hosts that carry it elsewhere.
func NewVerifier(users UserSource, store session.Store, timeout time.Duration, log *zap.Logger) *Verifier {
	return &Verifier{users: users, store: store, timeout: timeout, log: log}
}

// Login verifies the credentials, saves the resulting identity and returns it
func (v *Verifier) Login(ctx context.Context, identifier, pin string) (*models.SessionIdentity, error) {
	identifier, pin, err := validation.ValidateCredentials(identifier, pin)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	lookupCtx, cancel := withTimeout(ctx, v.timeout)
	user, err := v.users.GetUser(lookupCtx, identifier)
	cancel()
	if err != nil {
		v.log.Error("user lookup failed", zap.String("uid", identifier), zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrTransient, err)
	}
	if user == nil {
		return nil, fmt.Errorf("%w: user %s", ErrNotFound, identifier)
	}

	ok, legacy := security.CheckPIN(user.Password, pin)
	if legacy {
		v.log.Warn("user has a plaintext PIN", zap.String("uid", identifier))
	}
	if !ok {
		return nil, fmt.Errorf("%w: wrong PIN for %s", ErrAuth, identifier)
	}

	grade, err := extractGrade(user)
	if err != nil {
		return nil, err
	}

	identity := models.SessionIdentity{Identifier: identifier, Grade: grade}
	if v.store != nil {
		if err := v.store.Save(identity); err != nil {
			return nil, fmt.Errorf("%w: failed to save session: %w", ErrTransient, err)
		}
	}

	v.log.Info("player logged in", zap.String("uid", identifier), zap.Int("grade", grade))
	return &identity, nil
}

// extractGrade reads schoolGrade, falling back to mathGrade only when
// schoolGrade is absent
func extractGrade(user *models.UserRecord) (int, error) {
	raw, ok := user.RawGrade()
	if !ok {
		return 0, fmt.Errorf("%w: no grade for user %s", ErrData, user.Identifier)
	}
	grade, ok := validation.ParseWholeNumber(raw)
	if !ok || grade <= 0 {
		return 0, fmt.Errorf("%w: no grade for user %s (got %q)", ErrData, user.Identifier, raw)
	}
	return grade, nil
}

// withTimeout applies d when positive
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
