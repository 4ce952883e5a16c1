package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Dan9191/worklog-service/internal/customerrors"
	"github.com/Dan9191/worklog-service/internal/models"
	"github.com/Dan9191/worklog-service/internal/repository"
)

// Login authenticates a user and returns a session token. Unknown users
// and wrong passwords fail with the same error.
func (s *Service) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	if err := models.Validate(&req); err != nil {
		return nil, err
	}

	user, err := s.repo.FindUserByUsername(ctx, req.Username)
	if errors.Is(err, repository.ErrNotFound) {
		// Spend the same hashing time as a real check.
		_, _ = s.hasher.Verify(req.Password, s.dummy())
		return nil, customerrors.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	ok, err := s.hasher.Verify(req.Password, user.PasswordHash)
	if err != nil {
		s.log.Warnf("Stored password hash for user %s is unreadable: %v", user.ID, err)
		return nil, customerrors.ErrInvalidCredentials
	}
	if !ok {
		return nil, customerrors.ErrInvalidCredentials
	}

	identity := user.Identity()
	tokenString, err := s.tokens.Issue(identity)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	s.log.Infof("User logged in: %s", user.Username)
	return &models.LoginResponse{Token: tokenString, User: identity}, nil
}

// dummy returns a hash to verify against for unknown users. A failed
// build is retried on the next call.
func (s *Service) dummy() string {
	s.dummyMu.Lock()
	defer s.dummyMu.Unlock()
	if s.dummyHash != "" {
		return s.dummyHash
	}
	hash, err := s.hasher.Hash("dummy-Passw0rd!")
	if err != nil {
		s.log.Warnf("Failed to prepare dummy hash: %v", err)
		return ""
	}
	s.dummyHash = hash
	return hash
}
