package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"powerpay/internal/auth"
	"powerpay/internal/models"
	"powerpay/internal/repository"
)

var (
	// ErrUsernameTaken is returned when registering a duplicate username.
	ErrUsernameTaken = errors.New("auth: username already registered")
	// ErrInvalidCredentials represents login failure.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
)

// UserStore defines the storage contract used by the service.
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByUsername(ctx context.Context, username string) (*models.User, error)
}

// AuthService contains registration and login logic.
type AuthService struct {
	store     UserStore
	hasher    auth.Hasher
	tokenizer *auth.TokenService
	logger    *zap.Logger
}

// NewAuthService builds AuthService.
func NewAuthService(store UserStore, hasher auth.Hasher, tokenizer *auth.TokenService, logger *zap.Logger) *AuthService {
	return &AuthService{
		store:     store,
		hasher:    hasher,
		tokenizer: tokenizer,
		logger:    logger,
	}
}

// Signup registers a new dashboard user.
func (s *AuthService) Signup(ctx context.Context, username, password, role string) (*models.User, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" {
		return nil, errors.New("auth: username required")
	}
	if password == "" {
		return nil, errors.New("auth: password required")
	}
	if role == "" {
		role = "user"
	}

	if _, err := s.store.GetByUsername(ctx, username); err == nil {
		return nil, ErrUsernameTaken
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username:     username,
		PasswordHash: hash,
		Role:         role,
	}
	if err := s.store.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("user signed up", zap.Int64("user_id", user.ID), zap.String("username", user.Username))
	return user, nil
}

// Login authenticates a user and produces a JWT.
func (s *AuthService) Login(ctx context.Context, username, password string) (string, *models.User, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" || password == "" {
		return "", nil, ErrInvalidCredentials
	}

	user, err := s.store.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}

	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.tokenizer.Generate(user.ID, user.Username, user.Role)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}
