package service

import (
	"context"
	"fmt"

	"github.com/Dan9191/worklog-service/internal/customerrors"
	"github.com/Dan9191/worklog-service/internal/models"
)

// CreateUser registers a user with a hashed password. Admin gating is the
// caller's concern.
func (s *Service) CreateUser(ctx context.Context, req models.CreateUserRequest) (*models.Identity, error) {
	if err := models.Validate(&req); err != nil {
		return nil, err
	}

	exists, err := s.repo.UsernameExists(ctx, req.Username)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, customerrors.ErrUsernameAlreadyExists
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username:     req.Username,
		PasswordHash: hash,
		IsAdmin:      req.IsAdmin,
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	s.log.Infof("User created: %s (admin=%t)", user.Username, user.IsAdmin)
	identity := user.Identity()
	return &identity, nil
}

// ListUsers returns every user without password hashes
func (s *Service) ListUsers(ctx context.Context) ([]models.User, error) {
	return s.repo.ListUsers(ctx)
}
