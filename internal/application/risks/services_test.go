package risks

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Gokhanagingil/grc-sub001/internal/domain/controls"
	"github.com/Gokhanagingil/grc-sub001/internal/domain/policies"
	domain "github.com/Gokhanagingil/grc-sub001/internal/domain/risks"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

type memRepo struct {
	saved []*domain.Risk
}

func (m *memRepo) Save(_ context.Context, r *domain.Risk) error {
	m.saved = append(m.saved, r)
	return nil
}

func (m *memRepo) Get(context.Context, string, domain.RiskID) (*domain.Risk, error) {
	return nil, nil
}

func (m *memRepo) Latest(context.Context, string, int) ([]*domain.Risk, error) {
	return nil, nil
}

func (m *memRepo) Paginate(context.Context, string, int, int, map[string]interface{}) (domain.PaginatedResult, error) {
	return domain.PaginatedResult{}, nil
}

func (m *memRepo) Count(context.Context, string, map[string]interface{}) (int64, error) {
	return 0, nil
}

func (m *memRepo) SoftDelete(context.Context, string, domain.RiskID) error { return nil }

func (m *memRepo) LinkControl(context.Context, string, domain.RiskID, string) error { return nil }

func (m *memRepo) LinkPolicy(context.Context, string, domain.RiskID, string) error { return nil }

func (m *memRepo) LinkedControls(context.Context, string, domain.RiskID) ([]*controls.Control, error) {
	return nil, nil
}

func (m *memRepo) LinkedPolicies(context.Context, string, domain.RiskID) ([]*policies.Policy, error) {
	return nil, nil
}

func TestCreateComputesInherentScore(t *testing.T) {
	now := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
	repo := &memRepo{}
	svc := &Service{Repo: repo, Clock: fixedClock{t: now}}

	r, err := svc.Create(context.Background(), CreateRiskCommand{
		TenantID:   "acme",
		Title:      "Unpatched CVE",
		Severity:   "high",
		Likelihood: "high",
		Impact:     "critical",
	})
	require.NoError(t, err)

	assert.Equal(t, 12.0, r.InherentScore) // high(3) * critical(4)
	assert.Equal(t, r.InherentScore, r.ResidualScore)
	assert.Equal(t, domain.StatusOpen, r.Status)
	assert.Equal(t, now, r.CreatedAt)
	require.Len(t, repo.saved, 1)
}

func TestCreateDefaultsUnknownLevels(t *testing.T) {
	svc := &Service{Repo: &memRepo{}, Clock: fixedClock{t: time.Now()}}

	r, err := svc.Create(context.Background(), CreateRiskCommand{
		TenantID:   "acme",
		Title:      "Vague concern",
		Severity:   "severe",
		Likelihood: "",
		Impact:     "huge",
	})
	require.NoError(t, err)

	assert.Equal(t, domain.LevelMedium, r.Severity)
	assert.Equal(t, domain.LevelMedium, r.Likelihood)
	assert.Equal(t, domain.LevelMedium, r.Impact)
	assert.Equal(t, 4.0, r.InherentScore)
}

func TestCreateRequiresTitle(t *testing.T) {
	svc := &Service{Repo: &memRepo{}, Clock: fixedClock{t: time.Now()}}
	_, err := svc.Create(context.Background(), CreateRiskCommand{TenantID: "acme"})
	assert.Error(t, err)
}
