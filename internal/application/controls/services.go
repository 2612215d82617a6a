package controls

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/Gokhanagingil/grc-sub001/internal/application"
	domain "github.com/Gokhanagingil/grc-sub001/internal/domain/controls"
)

var validate = validator.New()

// Service implements use-cases untuk Control
type Service struct {
	Repo  domain.Repository
	Clock application.Clock
}

type CreateCommand struct {
	TenantID    string `validate:"required,max=64"`
	Name        string `validate:"required,max=255"`
	Description string `validate:"max=4000"`
	ControlType string `validate:"required,oneof=preventive detective corrective"`
}

// Create validates and persists a new control in draft status
func (s *Service) Create(ctx context.Context, cmd CreateCommand) (*domain.Control, error) {
	if err := validate.Struct(cmd); err != nil {
		return nil, fmt.Errorf("invalid control payload: %w", err)
	}

	c := &domain.Control{
		ID:            domain.ControlID(uuid.New().String()),
		TenantID:      cmd.TenantID,
		Name:          cmd.Name,
		Description:   cmd.Description,
		ControlType:   domain.ControlType(cmd.ControlType),
		Status:        domain.StatusDraft,
		Effectiveness: "not_tested",
		CreatedAt:     s.Clock.Now(),
	}
	if err := s.Repo.Save(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Get ambil 1 control by id
func (s *Service) Get(ctx context.Context, tenant string, id domain.ControlID) (*domain.Control, error) {
	return s.Repo.Get(ctx, tenant, id)
}

// Latest ambil N control terakhir
func (s *Service) Latest(ctx context.Context, tenant string, limit int) ([]*domain.Control, error) {
	return s.Repo.Latest(ctx, tenant, limit)
}
