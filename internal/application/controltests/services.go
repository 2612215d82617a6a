package controltests

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/Gokhanagingil/grc-sub001/internal/application"
	"github.com/Gokhanagingil/grc-sub001/internal/domain/controls"
	domain "github.com/Gokhanagingil/grc-sub001/internal/domain/controltests"
)

var validate = validator.New()

// Service implements use-cases untuk ControlTest
type Service struct {
	Repo     domain.Repository
	Controls controls.Repository
	Clock    application.Clock
}

// CreateCommand requires an existing control; a test without a control has
// nothing to verify.
type CreateCommand struct {
	TenantID  string `validate:"required,max=64"`
	ControlID string `validate:"required,max=128"`
	Name      string `validate:"required,max=255"`
	Procedure string `validate:"max=4000"`
	Frequency string `validate:"omitempty,oneof=once monthly quarterly annual"`
}

// Create verifies the linked control exists, then persists the test
func (s *Service) Create(ctx context.Context, cmd CreateCommand) (*domain.ControlTest, error) {
	if err := validate.Struct(cmd); err != nil {
		return nil, fmt.Errorf("invalid control test payload: %w", err)
	}

	ctrl, err := s.Controls.Get(ctx, cmd.TenantID, controls.ControlID(cmd.ControlID))
	if err != nil {
		return nil, err
	}
	if ctrl == nil {
		return nil, fmt.Errorf("control not found: %s", cmd.ControlID)
	}

	t := &domain.ControlTest{
		ID:        domain.ControlTestID(uuid.New().String()),
		TenantID:  cmd.TenantID,
		ControlID: cmd.ControlID,
		Name:      cmd.Name,
		Procedure: cmd.Procedure,
		Frequency: cmd.Frequency,
		Result:    domain.ResultPending,
		CreatedAt: s.Clock.Now(),
	}
	if err := s.Repo.Save(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// ListByControl lists tests recorded for one control
func (s *Service) ListByControl(ctx context.Context, tenant string, controlID string, limit int) ([]*domain.ControlTest, error) {
	return s.Repo.ListByControl(ctx, tenant, controlID, limit)
}
