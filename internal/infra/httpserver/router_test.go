package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Gokhanagingil/grc-sub001/internal/application"
	appadvisory "github.com/Gokhanagingil/grc-sub001/internal/application/advisory"
	appcapa "github.com/Gokhanagingil/grc-sub001/internal/application/capa"
	domain "github.com/Gokhanagingil/grc-sub001/internal/domain/advisory"
	capadomain "github.com/Gokhanagingil/grc-sub001/internal/domain/capa"
	"github.com/Gokhanagingil/grc-sub001/internal/domain/controls"
	"github.com/Gokhanagingil/grc-sub001/internal/domain/policies"
	risksdomain "github.com/Gokhanagingil/grc-sub001/internal/domain/risks"
	"github.com/Gokhanagingil/grc-sub001/internal/infra/cache"
)

type memRiskRepo struct {
	risks map[string]*risksdomain.Risk
}

func newMemRiskRepo() *memRiskRepo {
	return &memRiskRepo{risks: map[string]*risksdomain.Risk{}}
}

func (m *memRiskRepo) Save(_ context.Context, r *risksdomain.Risk) error {
	m.risks[r.TenantID+":"+string(r.ID)] = r
	return nil
}

func (m *memRiskRepo) Get(_ context.Context, tenant string, id risksdomain.RiskID) (*risksdomain.Risk, error) {
	return m.risks[tenant+":"+string(id)], nil
}

func (m *memRiskRepo) Latest(context.Context, string, int) ([]*risksdomain.Risk, error) {
	return nil, nil
}

func (m *memRiskRepo) Paginate(context.Context, string, int, int, map[string]interface{}) (risksdomain.PaginatedResult, error) {
	return risksdomain.PaginatedResult{}, nil
}

func (m *memRiskRepo) Count(context.Context, string, map[string]interface{}) (int64, error) {
	return 0, nil
}

func (m *memRiskRepo) SoftDelete(_ context.Context, tenant string, id risksdomain.RiskID) error {
	delete(m.risks, tenant+":"+string(id))
	return nil
}

func (m *memRiskRepo) LinkControl(context.Context, string, risksdomain.RiskID, string) error {
	return nil
}

func (m *memRiskRepo) LinkPolicy(context.Context, string, risksdomain.RiskID, string) error {
	return nil
}

func (m *memRiskRepo) LinkedControls(context.Context, string, risksdomain.RiskID) ([]*controls.Control, error) {
	return nil, nil
}

func (m *memRiskRepo) LinkedPolicies(context.Context, string, risksdomain.RiskID) ([]*policies.Policy, error) {
	return nil, nil
}

type memCAPARepo struct {
	saved []*capadomain.CAPA
}

func (m *memCAPARepo) Save(_ context.Context, c *capadomain.CAPA) error {
	m.saved = append(m.saved, c)
	return nil
}

func (m *memCAPARepo) Get(context.Context, string, capadomain.CAPAID) (*capadomain.CAPA, error) {
	return nil, nil
}

func (m *memCAPARepo) Latest(context.Context, string, int) ([]*capadomain.CAPA, error) {
	return nil, nil
}

func (m *memCAPARepo) ListByRisk(context.Context, string, string, int) ([]*capadomain.CAPA, error) {
	return nil, nil
}

func (m *memCAPARepo) UpdateStatus(context.Context, string, capadomain.CAPAID, capadomain.Status) error {
	return nil
}

func newTestServer(t *testing.T) (http.Handler, *memRiskRepo, *memCAPARepo) {
	t.Helper()
	clock := application.SystemClock{}
	riskRepo := newMemRiskRepo()
	capaRepo := &memCAPARepo{}

	capaSvc := &appcapa.Service{Repo: capaRepo, Clock: clock}
	advisorySvc := &appadvisory.Service{
		Risks: riskRepo,
		Cache: cache.NewMemory(time.Minute),
		CAPAs: capaSvc,
		Clock: clock,
	}

	h := NewRouter(Deps{
		Advisory: advisorySvc,
		CAPAs:    capaSvc,
	})
	return h, riskRepo, capaRepo
}

func seedRisk(t *testing.T, repo *memRiskRepo) *risksdomain.Risk {
	t.Helper()
	r := &risksdomain.Risk{
		ID:        "11111111-1111-1111-1111-111111111111",
		TenantID:  "acme",
		Title:     "Unpatched CVE on edge servers",
		Category:  "Patch Management",
		Severity:  risksdomain.LevelHigh,
		UpdatedAt: time.Now().Add(-time.Hour),
	}
	require.NoError(t, repo.Save(context.Background(), r))
	return r
}

func TestAdvisoryAnalyzeEndpoint(t *testing.T) {
	h, repo, _ := newTestServer(t)
	risk := seedRisk(t, repo)

	req := httptest.NewRequest(http.MethodPost, "/v1/acme/risks/"+string(risk.ID)+"/advisory/analyze", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var res domain.AdvisoryResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, domain.ThemePatching, res.Theme)
	assert.Equal(t, domain.SchemaVersion, res.SchemaVersion)
	assert.NotEmpty(t, res.Suggestions)
}

func TestAdvisoryAnalyzeUnknownRisk(t *testing.T) {
	h, _, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/acme/risks/22222222-2222-2222-2222-222222222222/advisory/analyze", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdvisoryLatestBeforeAnalyze(t *testing.T) {
	h, repo, _ := newTestServer(t)
	risk := seedRisk(t, repo)

	req := httptest.NewRequest(http.MethodGet, "/v1/acme/risks/"+string(risk.ID)+"/advisory", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "null\n", rec.Body.String())
}

func TestAdvisoryDraftsBeforeAnalyze(t *testing.T) {
	h, repo, _ := newTestServer(t)
	risk := seedRisk(t, repo)

	body, _ := json.Marshal(map[string]any{"suggestion_ids": []string{"x"}})
	req := httptest.NewRequest(http.MethodPost, "/v1/acme/risks/"+string(risk.ID)+"/advisory/drafts", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdvisoryDraftsFlow(t *testing.T) {
	h, repo, capaRepo := newTestServer(t)
	risk := seedRisk(t, repo)

	// analyze first
	req := httptest.NewRequest(http.MethodPost, "/v1/acme/risks/"+string(risk.ID)+"/advisory/analyze", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var res domain.AdvisoryResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.GreaterOrEqual(t, len(res.Suggestions), 4)

	body, _ := json.Marshal(map[string]any{
		"suggestion_ids": []string{
			res.Suggestions[0].ID, // CAPA
			res.Suggestions[3].ID, // CHANGE
			"missing",
		},
	})
	req = httptest.NewRequest(http.MethodPost, "/v1/acme/risks/"+string(risk.ID)+"/advisory/drafts", bytes.NewReader(body))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var batch domain.DraftBatchResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &batch))
	assert.Equal(t, 1, batch.Created)
	assert.Equal(t, 1, batch.Skipped)
	assert.Equal(t, 1, batch.Failed)
	assert.Len(t, capaRepo.saved, 1)
}

func TestDraftsRequireSuggestionIDs(t *testing.T) {
	h, repo, _ := newTestServer(t)
	risk := seedRisk(t, repo)

	body, _ := json.Marshal(map[string]any{"suggestion_ids": []string{}})
	req := httptest.NewRequest(http.MethodPost, "/v1/acme/risks/"+string(risk.ID)+"/advisory/drafts", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
