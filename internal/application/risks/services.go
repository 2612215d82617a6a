package risks

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/Gokhanagingil/grc-sub001/internal/application"
	"github.com/Gokhanagingil/grc-sub001/internal/domain/controls"
	"github.com/Gokhanagingil/grc-sub001/internal/domain/policies"
	domain "github.com/Gokhanagingil/grc-sub001/internal/domain/risks"
)

// Service implements use-cases untuk Risk
type Service struct {
	Repo  domain.Repository
	Clock application.Clock
}

// Command untuk create/update risk
type CreateRiskCommand struct {
	TenantID    string
	Title       string
	Description string
	Category    string
	Severity    string
	Likelihood  string
	Impact      string
	OwnerEmail  string
}

// scoreWeights maps a level onto the 1..4 scale used for inherent scoring
var scoreWeights = map[domain.RiskLevel]float64{
	domain.LevelLow:      1,
	domain.LevelMedium:   2,
	domain.LevelHigh:     3,
	domain.LevelCritical: 4,
}

// Create validates enums, computes the inherent score and persists the risk
func (s *Service) Create(ctx context.Context, cmd CreateRiskCommand) (*domain.Risk, error) {
	if cmd.Title == "" {
		return nil, fmt.Errorf("title is required")
	}
	severity := levelOrDefault(cmd.Severity)
	likelihood := levelOrDefault(cmd.Likelihood)
	impact := levelOrDefault(cmd.Impact)

	now := s.Clock.Now()
	inherent := scoreWeights[likelihood] * scoreWeights[impact]

	r := &domain.Risk{
		ID:            domain.RiskID(uuid.New().String()),
		TenantID:      cmd.TenantID,
		Title:         cmd.Title,
		Description:   cmd.Description,
		Category:      cmd.Category,
		Severity:      severity,
		Likelihood:    likelihood,
		Impact:        impact,
		InherentScore: inherent,
		ResidualScore: inherent,
		Status:        domain.StatusOpen,
		OwnerEmail:    cmd.OwnerEmail,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.Repo.Save(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

// Get ambil 1 risk by id (tenant-scoped, excludes soft-deleted)
func (s *Service) Get(ctx context.Context, tenant string, id domain.RiskID) (*domain.Risk, error) {
	return s.Repo.Get(ctx, tenant, id)
}

// Latest ambil N risk terakhir
func (s *Service) Latest(ctx context.Context, tenant string, limit int) ([]*domain.Risk, error) {
	return s.Repo.Latest(ctx, tenant, limit)
}

// Paginate with optional filters (category, status, severity, title)
func (s *Service) Paginate(ctx context.Context, tenant string, page, pageSize int, filters map[string]interface{}) (domain.PaginatedResult, error) {
	return s.Repo.Paginate(ctx, tenant, page, pageSize, filters)
}

// SoftDelete marks the risk deleted without removing the row
func (s *Service) SoftDelete(ctx context.Context, tenant string, id domain.RiskID) error {
	return s.Repo.SoftDelete(ctx, tenant, id)
}

// LinkControl attaches an existing control to the risk
func (s *Service) LinkControl(ctx context.Context, tenant string, id domain.RiskID, controlID string) error {
	return s.Repo.LinkControl(ctx, tenant, id, controlID)
}

// LinkPolicy attaches an existing policy to the risk
func (s *Service) LinkPolicy(ctx context.Context, tenant string, id domain.RiskID, policyID string) error {
	return s.Repo.LinkPolicy(ctx, tenant, id, policyID)
}

// LinkedControls returns the controls attached to the risk
func (s *Service) LinkedControls(ctx context.Context, tenant string, id domain.RiskID) ([]*controls.Control, error) {
	return s.Repo.LinkedControls(ctx, tenant, id)
}

// LinkedPolicies returns the policies attached to the risk
func (s *Service) LinkedPolicies(ctx context.Context, tenant string, id domain.RiskID) ([]*policies.Policy, error) {
	return s.Repo.LinkedPolicies(ctx, tenant, id)
}

func levelOrDefault(v string) domain.RiskLevel {
	lvl := domain.RiskLevel(v)
	if domain.ValidLevel(lvl) {
		return lvl
	}
	return domain.LevelMedium
}
