package advisory

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Gokhanagingil/grc-sub001/internal/application"
	appcapa "github.com/Gokhanagingil/grc-sub001/internal/application/capa"
	domain "github.com/Gokhanagingil/grc-sub001/internal/domain/advisory"
	capadomain "github.com/Gokhanagingil/grc-sub001/internal/domain/capa"
	"github.com/Gokhanagingil/grc-sub001/internal/domain/controls"
	"github.com/Gokhanagingil/grc-sub001/internal/domain/policies"
	risksdomain "github.com/Gokhanagingil/grc-sub001/internal/domain/risks"
)

// ---- in-package fakes ----

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

var _ application.Clock = fixedClock{}

type fakeRiskRepo struct {
	risks    map[string]*risksdomain.Risk
	linkErr  error
	controls []*controls.Control
}

func (f *fakeRiskRepo) key(tenant string, id risksdomain.RiskID) string {
	return tenant + ":" + string(id)
}

func (f *fakeRiskRepo) Save(_ context.Context, r *risksdomain.Risk) error {
	if f.risks == nil {
		f.risks = map[string]*risksdomain.Risk{}
	}
	f.risks[f.key(r.TenantID, r.ID)] = r
	return nil
}

func (f *fakeRiskRepo) Get(_ context.Context, tenant string, id risksdomain.RiskID) (*risksdomain.Risk, error) {
	return f.risks[f.key(tenant, id)], nil
}

func (f *fakeRiskRepo) Latest(context.Context, string, int) ([]*risksdomain.Risk, error) {
	return nil, nil
}

func (f *fakeRiskRepo) Paginate(context.Context, string, int, int, map[string]interface{}) (risksdomain.PaginatedResult, error) {
	return risksdomain.PaginatedResult{}, nil
}

func (f *fakeRiskRepo) Count(context.Context, string, map[string]interface{}) (int64, error) {
	return 0, nil
}

func (f *fakeRiskRepo) SoftDelete(_ context.Context, tenant string, id risksdomain.RiskID) error {
	delete(f.risks, f.key(tenant, id))
	return nil
}

func (f *fakeRiskRepo) LinkControl(context.Context, string, risksdomain.RiskID, string) error {
	return nil
}

func (f *fakeRiskRepo) LinkPolicy(context.Context, string, risksdomain.RiskID, string) error {
	return nil
}

func (f *fakeRiskRepo) LinkedControls(context.Context, string, risksdomain.RiskID) ([]*controls.Control, error) {
	return f.controls, f.linkErr
}

func (f *fakeRiskRepo) LinkedPolicies(context.Context, string, risksdomain.RiskID) ([]*policies.Policy, error) {
	return nil, nil
}

type mapCache struct {
	entries map[string]*domain.AdvisoryResult
}

func newMapCache() *mapCache {
	return &mapCache{entries: map[string]*domain.AdvisoryResult{}}
}

func (c *mapCache) Put(_ context.Context, tenant, riskID string, res *domain.AdvisoryResult) error {
	c.entries[tenant+":"+riskID] = res
	return nil
}

func (c *mapCache) Get(_ context.Context, tenant, riskID string) (*domain.AdvisoryResult, bool, error) {
	res, ok := c.entries[tenant+":"+riskID]
	return res, ok, nil
}

func (c *mapCache) Delete(_ context.Context, tenant, riskID string) error {
	delete(c.entries, tenant+":"+riskID)
	return nil
}

type stubProvider struct {
	result    *domain.AdvisoryResult
	err       error
	available bool
}

func (p *stubProvider) GenerateAdvisory(context.Context, domain.RiskContext) (*domain.AdvisoryResult, error) {
	return p.result, p.err
}

func (p *stubProvider) Available() bool { return p.available }

func (p *stubProvider) Name() string { return "stub" }

type fakeCAPARepo struct {
	saved   []*capadomain.CAPA
	saveErr error
}

func (f *fakeCAPARepo) Save(_ context.Context, c *capadomain.CAPA) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved = append(f.saved, c)
	return nil
}

func (f *fakeCAPARepo) Get(context.Context, string, capadomain.CAPAID) (*capadomain.CAPA, error) {
	return nil, nil
}

func (f *fakeCAPARepo) Latest(context.Context, string, int) ([]*capadomain.CAPA, error) {
	return nil, nil
}

func (f *fakeCAPARepo) ListByRisk(context.Context, string, string, int) ([]*capadomain.CAPA, error) {
	return nil, nil
}

func (f *fakeCAPARepo) UpdateStatus(context.Context, string, capadomain.CAPAID, capadomain.Status) error {
	return nil
}

// ---- helpers ----

const (
	tenant = "acme"
	riskID = risksdomain.RiskID("11111111-1111-1111-1111-111111111111")
)

func testRisk(updated time.Time) *risksdomain.Risk {
	return &risksdomain.Risk{
		ID:          riskID,
		TenantID:    tenant,
		Title:       "Unpatched CVE on edge servers",
		Description: "Several internet-facing hosts run outdated firmware.",
		Category:    "Patch Management",
		Severity:    risksdomain.LevelHigh,
		UpdatedAt:   updated,
	}
}

func newService(repo *fakeRiskRepo, capaRepo *fakeCAPARepo, clock application.Clock) *Service {
	svc := &Service{
		Risks: repo,
		Cache: newMapCache(),
		Clock: clock,
	}
	if capaRepo != nil {
		svc.CAPAs = &appcapa.Service{Repo: capaRepo, Clock: clock}
	}
	return svc
}

// ---- tests ----

func TestAnalyzeUnknownRisk(t *testing.T) {
	svc := newService(&fakeRiskRepo{}, nil, fixedClock{t: time.Now()})

	_, err := svc.Analyze(context.Background(), tenant, riskID)
	assert.ErrorIs(t, err, domain.ErrRiskNotFound)
}

func TestAnalyzeCachesAndStamps(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	repo := &fakeRiskRepo{}
	require.NoError(t, repo.Save(context.Background(), testRisk(now.Add(-time.Hour))))
	svc := newService(repo, nil, fixedClock{t: now})

	res, err := svc.Analyze(context.Background(), tenant, riskID)
	require.NoError(t, err)

	assert.NotEmpty(t, res.ID)
	assert.Equal(t, tenant, res.TenantID)
	assert.Equal(t, string(riskID), res.RiskID)
	assert.Equal(t, now, res.GeneratedAt)
	assert.Equal(t, domain.SchemaVersion, res.SchemaVersion)
	assert.Equal(t, "heuristics", res.Source)
	assert.Equal(t, domain.ThemePatching, res.Theme)

	cached, err := svc.GetLatest(context.Background(), tenant, riskID)
	require.NoError(t, err)
	assert.Equal(t, res, cached)
}

func TestAnalyzeOverwritesPriorResult(t *testing.T) {
	now := time.Now()
	repo := &fakeRiskRepo{}
	require.NoError(t, repo.Save(context.Background(), testRisk(now)))
	svc := newService(repo, nil, fixedClock{t: now})

	first, err := svc.Analyze(context.Background(), tenant, riskID)
	require.NoError(t, err)
	second, err := svc.Analyze(context.Background(), tenant, riskID)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	latest, err := svc.GetLatest(context.Background(), tenant, riskID)
	require.NoError(t, err)
	assert.Equal(t, second.ID, latest.ID)
}

func TestAnalyzeQuotaErrorPropagates(t *testing.T) {
	repo := &fakeRiskRepo{}
	require.NoError(t, repo.Save(context.Background(), testRisk(time.Now())))
	svc := newService(repo, nil, fixedClock{t: time.Now()})
	svc.Provider = &stubProvider{available: true, err: domain.ErrQuotaExceeded}

	_, err := svc.Analyze(context.Background(), tenant, riskID)
	assert.ErrorIs(t, err, domain.ErrQuotaExceeded)
}

func TestAnalyzeFallsBackOnProviderFailure(t *testing.T) {
	repo := &fakeRiskRepo{}
	require.NoError(t, repo.Save(context.Background(), testRisk(time.Now())))
	svc := newService(repo, nil, fixedClock{t: time.Now()})
	svc.Provider = &stubProvider{available: true, err: fmt.Errorf("upstream down")}

	res, err := svc.Analyze(context.Background(), tenant, riskID)
	require.NoError(t, err)
	assert.Equal(t, "heuristics", res.Source)
}

func TestAnalyzeUsesProviderResult(t *testing.T) {
	repo := &fakeRiskRepo{}
	require.NoError(t, repo.Save(context.Background(), testRisk(time.Now())))
	svc := newService(repo, nil, fixedClock{t: time.Now()})
	svc.Provider = &stubProvider{available: true, result: &domain.AdvisoryResult{
		Source: "ai",
		Theme:  domain.ThemeCompliance,
	}}

	res, err := svc.Analyze(context.Background(), tenant, riskID)
	require.NoError(t, err)
	assert.Equal(t, "ai", res.Source)
	assert.Equal(t, domain.ThemeCompliance, res.Theme)
}

func TestAnalyzeSoftFailsLinkedLoads(t *testing.T) {
	repo := &fakeRiskRepo{linkErr: fmt.Errorf("join table broken")}
	require.NoError(t, repo.Save(context.Background(), testRisk(time.Now())))
	svc := newService(repo, nil, fixedClock{t: time.Now()})

	res, err := svc.Analyze(context.Background(), tenant, riskID)
	require.NoError(t, err)
	assert.NotNil(t, res)
}

func TestGetLatestWithoutAnalyze(t *testing.T) {
	repo := &fakeRiskRepo{}
	require.NoError(t, repo.Save(context.Background(), testRisk(time.Now())))
	svc := newService(repo, nil, fixedClock{t: time.Now()})

	res, err := svc.GetLatest(context.Background(), tenant, riskID)
	require.NoError(t, err)
	assert.Nil(t, res)
}

func TestCreateDraftsRequiresAnalyze(t *testing.T) {
	repo := &fakeRiskRepo{}
	require.NoError(t, repo.Save(context.Background(), testRisk(time.Now())))
	svc := newService(repo, &fakeCAPARepo{}, fixedClock{t: time.Now()})

	_, err := svc.CreateDrafts(context.Background(), tenant, riskID, CreateDraftsCommand{
		SuggestionIDs: []string{"anything"},
	})
	assert.ErrorIs(t, err, domain.ErrAdvisoryNotGenerated)
}

func TestCreateDraftsPartialSuccess(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	repo := &fakeRiskRepo{}
	require.NoError(t, repo.Save(context.Background(), testRisk(now.Add(-time.Hour))))
	capaRepo := &fakeCAPARepo{}
	svc := newService(repo, capaRepo, fixedClock{t: now})

	res, err := svc.Analyze(context.Background(), tenant, riskID)
	require.NoError(t, err)
	require.Len(t, res.Suggestions, 5)

	// two valid CAPA-bound suggestions plus one that does not exist
	batch, err := svc.CreateDrafts(context.Background(), tenant, riskID, CreateDraftsCommand{
		SuggestionIDs: []string{
			res.Suggestions[0].ID, // immediate CAPA
			res.Suggestions[1].ID, // short-term TASK -> CAPA
			"missing-suggestion-id",
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, batch.Created)
	assert.Equal(t, 1, batch.Failed)
	assert.Equal(t, 0, batch.Skipped)
	require.Len(t, batch.Items, 3)

	assert.Equal(t, domain.DraftCreated, batch.Items[0].Status)
	assert.NotEmpty(t, batch.Items[0].RecordID)
	assert.Contains(t, batch.Items[0].RecordCode, "CAPA-")

	// TASK resolves to a CAPA record
	assert.Equal(t, domain.SuggestionTask, batch.Items[1].RequestedType)
	assert.Equal(t, domain.SuggestionCAPA, batch.Items[1].ResolvedTargetType)
	assert.Equal(t, domain.DraftCreated, batch.Items[1].Status)

	assert.Equal(t, domain.DraftFailed, batch.Items[2].Status)
	assert.Equal(t, domain.CodeSuggestionNotFound, batch.Items[2].ErrorCode)

	require.Len(t, capaRepo.saved, 2)
	assert.Equal(t, capadomain.SourceAdvisory, capaRepo.saved[0].Source)
	assert.Equal(t, string(riskID), capaRepo.saved[0].RiskID)
}

func TestCreateDraftsSkipsChangeAndControlTest(t *testing.T) {
	now := time.Now()
	repo := &fakeRiskRepo{}
	require.NoError(t, repo.Save(context.Background(), testRisk(now)))
	svc := newService(repo, &fakeCAPARepo{}, fixedClock{t: now})

	res, err := svc.Analyze(context.Background(), tenant, riskID)
	require.NoError(t, err)

	batch, err := svc.CreateDrafts(context.Background(), tenant, riskID, CreateDraftsCommand{
		SuggestionIDs: []string{
			res.Suggestions[3].ID, // CHANGE
			res.Suggestions[4].ID, // CONTROL_TEST
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 0, batch.Created)
	assert.Equal(t, 2, batch.Skipped)
	assert.Equal(t, domain.CodeChangeNotSupported, batch.Items[0].ErrorCode)
	assert.Equal(t, domain.CodeControlTestRequiresControl, batch.Items[1].ErrorCode)
}

func TestCreateDraftsWithoutCAPAService(t *testing.T) {
	now := time.Now()
	repo := &fakeRiskRepo{}
	require.NoError(t, repo.Save(context.Background(), testRisk(now)))
	svc := newService(repo, nil, fixedClock{t: now})

	res, err := svc.Analyze(context.Background(), tenant, riskID)
	require.NoError(t, err)

	batch, err := svc.CreateDrafts(context.Background(), tenant, riskID, CreateDraftsCommand{
		SuggestionIDs: []string{res.Suggestions[0].ID},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, batch.Failed)
	assert.Equal(t, domain.CodeCAPAServiceUnavailable, batch.Items[0].ErrorCode)
}

func TestCreateDraftsIdempotentReplay(t *testing.T) {
	now := time.Now()
	repo := &fakeRiskRepo{}
	require.NoError(t, repo.Save(context.Background(), testRisk(now)))
	capaRepo := &fakeCAPARepo{}
	svc := newService(repo, capaRepo, fixedClock{t: now})

	res, err := svc.Analyze(context.Background(), tenant, riskID)
	require.NoError(t, err)

	cmd := CreateDraftsCommand{SuggestionIDs: []string{res.Suggestions[0].ID}}
	first, err := svc.CreateDrafts(context.Background(), tenant, riskID, cmd)
	require.NoError(t, err)
	second, err := svc.CreateDrafts(context.Background(), tenant, riskID, cmd)
	require.NoError(t, err)

	// replay creates a new record; counts stay per-batch, not cumulative
	assert.Equal(t, 1, first.Created)
	assert.Equal(t, 1, second.Created)
	assert.Equal(t, first.AnalysisID, second.AnalysisID)
	assert.Len(t, capaRepo.saved, 2)
}

func TestCreateDraftsStalenessWarning(t *testing.T) {
	analyzedAt := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	repo := &fakeRiskRepo{}
	require.NoError(t, repo.Save(context.Background(), testRisk(analyzedAt.Add(-time.Hour))))
	svc := newService(repo, &fakeCAPARepo{}, fixedClock{t: analyzedAt})

	res, err := svc.Analyze(context.Background(), tenant, riskID)
	require.NoError(t, err)

	// risk modified after the analysis
	stale := testRisk(analyzedAt.Add(time.Hour))
	require.NoError(t, repo.Save(context.Background(), stale))

	batch, err := svc.CreateDrafts(context.Background(), tenant, riskID, CreateDraftsCommand{
		SuggestionIDs: []string{res.Suggestions[0].ID},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, batch.Warnings)
	assert.Equal(t, 1, batch.Created)
}

func TestCreateDraftsAppliesOverrides(t *testing.T) {
	now := time.Now()
	repo := &fakeRiskRepo{}
	require.NoError(t, repo.Save(context.Background(), testRisk(now)))
	capaRepo := &fakeCAPARepo{}
	svc := newService(repo, capaRepo, fixedClock{t: now})

	res, err := svc.Analyze(context.Background(), tenant, riskID)
	require.NoError(t, err)

	sugID := res.Suggestions[0].ID
	batch, err := svc.CreateDrafts(context.Background(), tenant, riskID, CreateDraftsCommand{
		SuggestionIDs: []string{sugID},
		Overrides: map[string]DraftOverride{
			sugID: {Title: "Patch the edge fleet this week", Priority: "critical"},
		},
	})
	require.NoError(t, err)
	require.Equal(t, 1, batch.Created)

	require.Len(t, capaRepo.saved, 1)
	assert.Equal(t, "Patch the edge fleet this week", capaRepo.saved[0].Title)
	assert.Equal(t, capadomain.PriorityCritical, capaRepo.saved[0].Priority)
}
