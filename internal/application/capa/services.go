package capa

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/Gokhanagingil/grc-sub001/internal/application"
	domain "github.com/Gokhanagingil/grc-sub001/internal/domain/capa"
)

var validate = validator.New()

// ErrInvalidTransition indicates a status update outside the allowed table
var ErrInvalidTransition = fmt.Errorf("invalid capa status transition")

// Service implements use-cases untuk CAPA
type Service struct {
	Repo  domain.Repository
	Clock application.Clock
}

// CreateCommand carries a validated CAPA creation payload. The advisory
// draft mapper builds these; the HTTP handler builds them for manual creation.
type CreateCommand struct {
	TenantID    string          `validate:"required,max=64"`
	RiskID      string          `validate:"max=128"`
	Title       string          `validate:"required,max=255"`
	Description string          `validate:"max=4000"`
	Type        domain.CAPAType `validate:"required,oneof=corrective preventive both"`
	Priority    domain.Priority `validate:"required,oneof=low medium high critical"`
	Source      domain.Source   `validate:"required,oneof=manual advisory"`
	DueDate     *time.Time
}

// Create validates the command, generates id + code and persists the record
func (s *Service) Create(ctx context.Context, cmd CreateCommand) (*domain.CAPA, error) {
	if err := validate.Struct(cmd); err != nil {
		return nil, fmt.Errorf("invalid capa payload: %w", err)
	}

	now := s.Clock.Now()
	id := uuid.New().String()
	code := "CAPA-" + strings.ToUpper(strings.ReplaceAll(id, "-", "")[:8])

	c := &domain.CAPA{
		ID:          domain.CAPAID(id),
		Code:        code,
		TenantID:    cmd.TenantID,
		RiskID:      cmd.RiskID,
		Title:       cmd.Title,
		Description: cmd.Description,
		Type:        cmd.Type,
		Priority:    cmd.Priority,
		Status:      domain.StatusOpen,
		Source:      cmd.Source,
		DueDate:     cmd.DueDate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.Repo.Save(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Get ambil 1 CAPA by id
func (s *Service) Get(ctx context.Context, tenant string, id domain.CAPAID) (*domain.CAPA, error) {
	return s.Repo.Get(ctx, tenant, id)
}

// Latest ambil N CAPA terakhir
func (s *Service) Latest(ctx context.Context, tenant string, limit int) ([]*domain.CAPA, error) {
	return s.Repo.Latest(ctx, tenant, limit)
}

// ListByRisk lists CAPAs created for a given risk
func (s *Service) ListByRisk(ctx context.Context, tenant string, riskID string, limit int) ([]*domain.CAPA, error) {
	return s.Repo.ListByRisk(ctx, tenant, riskID, limit)
}

// UpdateStatus applies a guarded status transition
func (s *Service) UpdateStatus(ctx context.Context, tenant string, id domain.CAPAID, next domain.Status) error {
	existing, err := s.Repo.Get(ctx, tenant, id)
	if err != nil {
		return err
	}
	if existing == nil {
		return fmt.Errorf("capa not found: %s", id)
	}
	if !domain.CanTransition(existing.Status, next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, existing.Status, next)
	}
	return s.Repo.UpdateStatus(ctx, tenant, id, next)
}
