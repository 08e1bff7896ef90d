package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"wagonquiz/internal/credentials"
	"wagonquiz/internal/models"
	"wagonquiz/internal/security"
	"wagonquiz/internal/validation"
)

// AccountStore is the writable side of the users collection
type AccountStore interface {
	UserSource
	UpsertUser(ctx context.Context, user models.UserRecord) error
	SetPassword(ctx context.Context, id, password string) error
}

// AccountService provisions players on the SQL backend
type AccountService struct {
	users AccountStore
	log   *zap.Logger
}

// NewAccountService creates a new account service
func NewAccountService(users AccountStore, log *zap.Logger) *AccountService {
	return &AccountService{users: users, log: log}
}

// AddUser creates or replaces a player. When pin is empty a random one is
// generated. The PIN is returned in plaintext so it can be handed out; only
// its hash is stored.
func (s *AccountService) AddUser(ctx context.Context, identifier, grade, pin string) (string, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return "", fmt.Errorf("%w: %w", ErrValidation, validation.ValidationError{Field: "uid", Message: "identifier is required"})
	}
	g, ok := validation.ParseWholeNumber(grade)
	if !ok || g < 1 {
		return "", fmt.Errorf("%w: %w", ErrValidation, validation.ValidationError{Field: "grade", Message: "grade must be a positive whole number"})
	}

	pin, hash, err := s.preparePIN(pin)
	if err != nil {
		return "", err
	}

	gradeText := strconv.Itoa(g)
	user := models.UserRecord{Identifier: identifier, Password: hash, SchoolGrade: &gradeText}
	if err := s.users.UpsertUser(ctx, user); err != nil {
		return "", fmt.Errorf("%w: %w", ErrTransient, err)
	}

	s.log.Info("user saved", zap.String("uid", identifier), zap.Int("grade", g))
	return pin, nil
}

// ResetPIN replaces a player's PIN, generating one when pin is empty
func (s *AccountService) ResetPIN(ctx context.Context, identifier, pin string) (string, error) {
	identifier = strings.TrimSpace(identifier)
	existing, err := s.users.GetUser(ctx, identifier)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrTransient, err)
	}
	if existing == nil {
		return "", fmt.Errorf("%w: user %s", ErrNotFound, identifier)
	}

	pin, hash, err := s.preparePIN(pin)
	if err != nil {
		return "", err
	}
	if err := s.users.SetPassword(ctx, identifier, hash); err != nil {
		return "", fmt.Errorf("%w: %w", ErrTransient, err)
	}

	s.log.Info("PIN reset", zap.String("uid", identifier))
	return pin, nil
}

func (s *AccountService) preparePIN(pin string) (string, string, error) {
	pin = strings.TrimSpace(pin)
	if pin == "" {
		generated, err := credentials.GeneratePIN()
		if err != nil {
			return "", "", fmt.Errorf("failed to generate PIN: %w", err)
		}
		pin = generated
	}

	hash, err := security.HashPIN(pin)
	if err != nil {
		return "", "", fmt.Errorf("failed to hash PIN: %w", err)
	}
	return pin, hash, nil
}
