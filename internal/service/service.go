package service

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/Dan9191/worklog-service/internal/customerrors"
	"github.com/Dan9191/worklog-service/internal/repository"
	"github.com/Dan9191/worklog-service/internal/token"
	"github.com/Dan9191/worklog-service/internal/utils"
)

// Service handles business logic
type Service struct {
	repo   *repository.Repository
	hasher utils.PasswordHasher
	tokens token.Issuer
	log    *logrus.Logger

	dummyMu   sync.Mutex
	dummyHash string
}

// NewService initializes a new service
func NewService(repo *repository.Repository, hasher utils.PasswordHasher, tokens token.Issuer, log *logrus.Logger) *Service {
	return &Service{repo: repo, hasher: hasher, tokens: tokens, log: log}
}

// HealthCheck verifies the database is reachable
func (s *Service) HealthCheck(ctx context.Context) error {
	if err := s.repo.Ping(ctx); err != nil {
		s.log.Errorf("Health check failed: %v", err)
		return customerrors.ErrDbUnreachable
	}
	return nil
}
