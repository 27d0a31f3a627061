package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/sakif/chess-lobby/internal/apperror"
	"github.com/sakif/chess-lobby/internal/model"
	"github.com/sakif/chess-lobby/internal/repository"
)

const (
	MaxUsernameLength = 255
	MaxEmailLength    = 255
	MaxPasswordLength = 72 // bcrypt input limit
)

// PasswordHasher is the one-way credential transform. auth.PasswordService
// implements it with bcrypt.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(hash, plaintext string) error
}

// UserService registers accounts and checks credentials.
type UserService struct {
	users  repository.UserRepository
	auth   *AuthService
	hasher PasswordHasher
	logger *slog.Logger

	// dummyHash is verified against when the username is unknown, so a login
	// for a missing user costs the same as one with a wrong password.
	dummyOnce sync.Once
	dummyHash string
}

func NewUserService(users repository.UserRepository, auth *AuthService, hasher PasswordHasher, logger *slog.Logger) *UserService {
	return &UserService{
		users:  users,
		auth:   auth,
		hasher: hasher,
		logger: logger,
	}
}

// Register creates the account and returns its first token. The user row and
// the token row are written together; if the username is taken neither is.
func (s *UserService) Register(ctx context.Context, username, password, email string) (*model.AuthToken, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)

	if err := validateCredentials(username, password); err != nil {
		return nil, err
	}
	if email == "" {
		return nil, apperror.ValidationFailed("email", "Error: bad request")
	}
	if len(email) > MaxEmailLength {
		return nil, apperror.ValidationFailed("email",
			fmt.Sprintf("email must be %d characters or fewer", MaxEmailLength))
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("service/user: hashing password: %w", err)
	}

	user := &model.User{Username: username, PasswordHash: hash, Email: email}
	token := s.auth.NewToken(username)
	if err := s.users.CreateUser(ctx, user, token); err != nil {
		if errors.Is(err, apperror.ErrAlreadyTaken) {
			s.logger.Info("registration rejected, username taken", slog.String("username", username))
		}
		return nil, fmt.Errorf("service/user: registering %s: %w", username, err)
	}

	s.logger.Info("user registered", slog.String("username", username))
	return token, nil
}

// Login checks the password and issues a new token. Unknown users and wrong
// passwords produce the same error.
func (s *UserService) Login(ctx context.Context, username, password string) (*model.AuthToken, error) {
	username = strings.TrimSpace(username)
	if err := validateCredentials(username, password); err != nil {
		return nil, err
	}

	user, err := s.users.GetUser(ctx, username)
	switch {
	case errors.Is(err, apperror.ErrNotFound):
		// Burn the same bcrypt work as a real comparison.
		_ = s.hasher.Verify(s.dummy(), password)
		s.logger.Info("login failed", slog.String("username", username))
		return nil, apperror.Unauthorized("Error: unauthorized")
	case err != nil:
		return nil, fmt.Errorf("service/user: loading %s: %w", username, err)
	}

	if err := s.hasher.Verify(user.PasswordHash, password); err != nil {
		s.logger.Info("login failed", slog.String("username", username))
		return nil, apperror.Unauthorized("Error: unauthorized")
	}

	token, err := s.auth.IssueToken(ctx, username)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user logged in", slog.String("username", username))
	return &model.AuthToken{Token: token, Username: username}, nil
}

func (s *UserService) dummy() string {
	s.dummyOnce.Do(func() {
		h, err := s.hasher.Hash("not-a-real-password")
		if err != nil {
			s.logger.Error("building dummy hash", slog.String("error", err.Error()))
			return
		}
		s.dummyHash = h
	})
	return s.dummyHash
}

func validateCredentials(username, password string) error {
	if username == "" {
		return apperror.ValidationFailed("username", "Error: bad request")
	}
	if len(username) > MaxUsernameLength {
		return apperror.ValidationFailed("username",
			fmt.Sprintf("username must be %d characters or fewer", MaxUsernameLength))
	}
	if password == "" {
		return apperror.ValidationFailed("password", "Error: bad request")
	}
	if len(password) > MaxPasswordLength {
		return apperror.ValidationFailed("password",
			fmt.Sprintf("password must be %d bytes or fewer", MaxPasswordLength))
	}
	return nil
}
