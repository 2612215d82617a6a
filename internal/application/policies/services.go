package policies

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/Gokhanagingil/grc-sub001/internal/application"
	domain "github.com/Gokhanagingil/grc-sub001/internal/domain/policies"
)

var validate = validator.New()

// Service implements use-cases untuk Policy
type Service struct {
	Repo  domain.Repository
	Clock application.Clock
}

type CreateCommand struct {
	TenantID    string `validate:"required,max=64"`
	Name        string `validate:"required,max=255"`
	Description string `validate:"max=4000"`
	Version     string `validate:"max=32"`
}

// Create validates and persists a new policy in draft status
func (s *Service) Create(ctx context.Context, cmd CreateCommand) (*domain.Policy, error) {
	if err := validate.Struct(cmd); err != nil {
		return nil, fmt.Errorf("invalid policy payload: %w", err)
	}

	version := cmd.Version
	if version == "" {
		version = "1.0"
	}
	p := &domain.Policy{
		ID:          domain.PolicyID(uuid.New().String()),
		TenantID:    cmd.TenantID,
		Name:        cmd.Name,
		Description: cmd.Description,
		Version:     version,
		Status:      domain.StatusDraft,
		CreatedAt:   s.Clock.Now(),
	}
	if err := s.Repo.Save(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Get ambil 1 policy by id
func (s *Service) Get(ctx context.Context, tenant string, id domain.PolicyID) (*domain.Policy, error) {
	return s.Repo.Get(ctx, tenant, id)
}

// Latest ambil N policy terakhir
func (s *Service) Latest(ctx context.Context, tenant string, limit int) ([]*domain.Policy, error) {
	return s.Repo.Latest(ctx, tenant, limit)
}
