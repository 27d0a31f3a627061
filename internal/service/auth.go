// Package service holds the lobby's business rules. Handlers, the CLI's
// server and tests all call into it; it knows nothing about HTTP or SQL.
//
//	Handler (HTTP) → Lobby → AuthService / UserService / GameService → repository.Store
//
// Every dependency is an interface injected through a New function, so tests
// run the services against in-memory fakes.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/sakif/chess-lobby/internal/apperror"
	"github.com/sakif/chess-lobby/internal/model"
	"github.com/sakif/chess-lobby/internal/repository"
)

// TokenCache is an optional read-through cache for token lookups.
// auth.RedisTokenCache implements it.
//
// Fill must refuse to write once MarkRevoked was called for the token, or
// once Flush ran after the epoch was read. That keeps a lookup that read a row
// just before it was deleted from caching the dead token.
type TokenCache interface {
	Get(ctx context.Context, token string) (username string, ok bool, err error)
	Epoch(ctx context.Context) (int64, error)
	Fill(ctx context.Context, token, username string, epoch int64) (bool, error)
	MarkRevoked(ctx context.Context, token string) error
	Delete(ctx context.Context, token string) error
	Flush(ctx context.Context) error
}

// AuthService issues, validates and revokes opaque bearer tokens.
type AuthService struct {
	tokens   repository.TokenRepository
	cache    TokenCache // nil when no cache is configured
	newToken func() string
	logger   *slog.Logger
}

// NewAuthService wires the token store. cache may be nil.
func NewAuthService(tokens repository.TokenRepository, cache TokenCache, logger *slog.Logger) *AuthService {
	return &AuthService{
		tokens:   tokens,
		cache:    cache,
		newToken: func() string { return uuid.NewString() },
		logger:   logger,
	}
}

// NewToken builds an unsaved token for username. UserService uses it to write
// the user and the first token in one transaction.
func (s *AuthService) NewToken(username string) *model.AuthToken {
	return &model.AuthToken{Token: s.newToken(), Username: username}
}

// IssueToken creates and persists a fresh token for an existing user.
// Tokens already held by the user stay valid.
//
// A collision with an existing token is reported as a storage failure and is
// not retried.
func (s *AuthService) IssueToken(ctx context.Context, username string) (string, error) {
	tok := s.NewToken(username)
	if err := s.tokens.CreateToken(ctx, tok); err != nil {
		return "", fmt.Errorf("service/auth: issuing token for %s: %w", username, err)
	}
	s.logger.Debug("token issued", slog.String("username", username))
	return tok.Token, nil
}

// Validate resolves token to its owner. Missing and unknown tokens are both
// apperror.ErrUnauthorized.
func (s *AuthService) Validate(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", apperror.Unauthorized("Error: unauthorized")
	}

	canFill := false
	var epoch int64
	if s.cache != nil {
		username, ok, err := s.cache.Get(ctx, token)
		if err != nil {
			s.logger.Warn("token cache read failed", slog.String("error", err.Error()))
		} else if ok {
			return username, nil
		}

		// The epoch must be read before the row.
		if epoch, err = s.cache.Epoch(ctx); err != nil {
			s.logger.Warn("token cache read failed", slog.String("error", err.Error()))
		} else {
			canFill = true
		}
	}

	t, err := s.tokens.GetToken(ctx, token)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return "", apperror.Unauthorized("Error: unauthorized")
		}
		return "", fmt.Errorf("service/auth: validating token: %w", err)
	}

	if canFill {
		if _, err := s.cache.Fill(ctx, token, t.Username, epoch); err != nil {
			s.logger.Warn("token cache write failed", slog.String("error", err.Error()))
		}
	}
	return t.Username, nil
}

// Revoke deletes token. Revoking an unknown or already revoked token is not
// an error.
//
// The cache is fenced before the row goes and evicted again after, so no
// lookup can serve the token once Revoke returns.
func (s *AuthService) Revoke(ctx context.Context, token string) error {
	if s.cache != nil {
		if err := s.cache.MarkRevoked(ctx, token); err != nil {
			s.logger.Warn("token cache revoke failed", slog.String("error", err.Error()))
		}
	}

	deleted, err := s.tokens.DeleteToken(ctx, token)
	if err != nil {
		return fmt.Errorf("service/auth: revoking token: %w", err)
	}
	if !deleted {
		s.logger.Debug("revoke of unknown token ignored")
	}

	if s.cache != nil {
		if err := s.cache.Delete(ctx, token); err != nil {
			s.logger.Warn("token cache evict failed", slog.String("error", err.Error()))
		}
	}
	return nil
}

// FlushCache drops every cached token and invalidates fills started before
// it. Called after a wipe so no cached entry outlives its row.
func (s *AuthService) FlushCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Flush(ctx); err != nil {
		s.logger.Warn("token cache flush failed", slog.String("error", err.Error()))
	}
}
