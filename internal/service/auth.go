// Package service contains the business logic layer of the application.
//
// The layering follows the usual three-tier shape:
//
//	Handler (HTTP)       → parses requests, writes responses
//	Service (this layer) → validates, enforces ownership, orchestrates
//	Repository (data)    → reads/writes SQLite
//
// Services receive repository INTERFACES, not the concrete sqlite.DB, so
// tests swap in in-memory fakes and the business rules get exercised
// without a database. Caller identity always arrives as an explicit
// username argument — proven upstream by JWT validation — never from any
// ambient or global state.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/snippet-vault/internal/apperror"
	"github.com/sakif/snippet-vault/internal/auth"
	"github.com/sakif/snippet-vault/internal/model"
	"github.com/sakif/snippet-vault/internal/repository"
)

const (
	MaxUsernameLength = 64
	MaxEmailLength    = 128
)

// AuthService handles registration and login.
//
// It is the thin "auth gateway" between the HTTP layer and the credential
// store: registration hashes the password and persists the account; login
// verifies credentials and issues a session token.
type AuthService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *slog.Logger
}

// NewAuthService creates an AuthService with all required dependencies.
func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
	}
}

// AuthResult is returned by Login: the authenticated username and the
// freshly issued session token, bundled so the handler responds in one
// step.
type AuthResult struct {
	Username string
	Token    string
}

// Register creates a new account.
//
// Duplicate username or email fails with a conflict error. The explicit
// existence checks produce field-specific messages for the common case;
// the UNIQUE constraints in the storage layer remain the actual guarantee
// when two registrations race — the loser's INSERT fails and surfaces as
// the same conflict error.
func (s *AuthService) Register(ctx context.Context, username, email, rawPassword string) (*model.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)

	if username == "" {
		return nil, apperror.ValidationFailed("username", "username is required")
	}
	if len(username) > MaxUsernameLength {
		return nil, apperror.ValidationFailed("username",
			fmt.Sprintf("username must be %d characters or less", MaxUsernameLength))
	}
	if email == "" {
		return nil, apperror.ValidationFailed("email", "email is required")
	}
	if len(email) > MaxEmailLength {
		return nil, apperror.ValidationFailed("email",
			fmt.Sprintf("email must be %d characters or less", MaxEmailLength))
	}
	if rawPassword == "" {
		return nil, apperror.ValidationFailed("password", "password is required")
	}

	taken, err := s.users.ExistsByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("service/auth: checking username: %w", err)
	}
	if taken {
		return nil, apperror.Conflict("username", username)
	}

	inUse, err := s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("service/auth: checking email: %w", err)
	}
	if inUse {
		return nil, apperror.Conflict("email", email)
	}

	hash, err := s.passwords.Hash(rawPassword)
	if err != nil {
		return nil, fmt.Errorf("service/auth: hashing password: %w", err)
	}

	user := &model.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         model.RoleUser,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, err // already a conflict or wrapped storage error
	}

	s.logger.Info("user registered",
		slog.String("userID", user.ID),
		slog.String("username", user.Username),
	)

	return user, nil
}

// Login verifies the credentials and issues a session token.
//
// Every failure — unknown username OR wrong password — collapses into the
// same generic unauthorized error. Distinguishing the two would let an
// attacker enumerate which usernames exist.
func (s *AuthService) Login(ctx context.Context, username, rawPassword string) (*AuthResult, error) {
	username = strings.TrimSpace(username)

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		s.logger.Info("login failed", slog.String("username", username))
		return nil, apperror.Unauthorized("invalid credentials")
	}

	if err := s.passwords.Verify(user.PasswordHash, rawPassword); err != nil {
		s.logger.Info("login failed", slog.String("username", username))
		return nil, apperror.Unauthorized("invalid credentials")
	}

	token, err := s.tokens.Generate(user.Username)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for %s: %w", user.Username, err)
	}

	s.logger.Info("user logged in", slog.String("username", user.Username))

	return &AuthResult{
		Username: user.Username,
		Token:    token,
	}, nil
}

// ValidateToken validates a session token string and returns the username
// it was issued to. Thin delegation to TokenService so callers only need
// the service package.
func (s *AuthService) ValidateToken(tokenStr string) (string, error) {
	username, err := s.tokens.Validate(tokenStr)
	if err != nil {
		return "", fmt.Errorf("service/auth: %w", err)
	}
	return username, nil
}
