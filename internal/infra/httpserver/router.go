package httpserver

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	appadvisory "github.com/Gokhanagingil/grc-sub001/internal/application/advisory"
	appaudit "github.com/Gokhanagingil/grc-sub001/internal/application/audit"
	appcapa "github.com/Gokhanagingil/grc-sub001/internal/application/capa"
	appcontrols "github.com/Gokhanagingil/grc-sub001/internal/application/controls"
	appcontroltests "github.com/Gokhanagingil/grc-sub001/internal/application/controltests"
	apppolicies "github.com/Gokhanagingil/grc-sub001/internal/application/policies"
	apprisks "github.com/Gokhanagingil/grc-sub001/internal/application/risks"
	advdomain "github.com/Gokhanagingil/grc-sub001/internal/domain/advisory"
	capadomain "github.com/Gokhanagingil/grc-sub001/internal/domain/capa"
	controlsdomain "github.com/Gokhanagingil/grc-sub001/internal/domain/controls"
	policiesdomain "github.com/Gokhanagingil/grc-sub001/internal/domain/policies"
	risksdomain "github.com/Gokhanagingil/grc-sub001/internal/domain/risks"
	"github.com/Gokhanagingil/grc-sub001/internal/middleware"
)

type Router struct {
	risksSvc        *apprisks.Service
	advisorySvc     *appadvisory.Service
	capaSvc         *appcapa.Service
	controlsSvc     *appcontrols.Service
	policiesSvc     *apppolicies.Service
	controlTestsSvc *appcontroltests.Service
	auditSvc        *appaudit.Service
}

type Deps struct {
	Risks        *apprisks.Service
	Advisory     *appadvisory.Service
	CAPAs        *appcapa.Service
	Controls     *appcontrols.Service
	Policies     *apppolicies.Service
	ControlTests *appcontroltests.Service
	Audit        *appaudit.Service
	Health       map[string]middleware.HealthChecker
}

func NewRouter(d Deps) http.Handler {
	r := &Router{
		risksSvc:        d.Risks,
		advisorySvc:     d.Advisory,
		capaSvc:         d.CAPAs,
		controlsSvc:     d.Controls,
		policiesSvc:     d.Policies,
		controlTestsSvc: d.ControlTests,
		auditSvc:        d.Audit,
	}
	mux := chi.NewRouter()

	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	mux.Get("/health", middleware.HealthHandler(d.Health))
	mux.Get("/ready", middleware.ReadinessHandler)
	mux.Get("/metrics", middleware.MetricsHandler)

	mux.Route("/v1/{tenant}", func(rt chi.Router) {
		rt.Post("/risks", r.wrap(r.handleCreateRisk))
		rt.Get("/risks", r.wrap(r.handleListRisks))
		rt.Get("/risks/latest", r.wrap(r.handleLatestRisks))
		rt.Get("/risks/{id}", r.wrap(r.handleGetRisk))
		rt.Delete("/risks/{id}", r.wrap(r.handleDeleteRisk))

		rt.Post("/risks/{id}/controls/{controlID}", r.wrap(r.handleLinkControl))
		rt.Get("/risks/{id}/controls", r.wrap(r.handleLinkedControls))
		rt.Post("/risks/{id}/policies/{policyID}", r.wrap(r.handleLinkPolicy))
		rt.Get("/risks/{id}/policies", r.wrap(r.handleLinkedPolicies))
		rt.Get("/risks/{id}/capas", r.wrap(r.handleCAPAsByRisk))

		rt.Post("/risks/{id}/advisory/analyze", r.wrap(r.handleAdvisoryAnalyze))
		rt.Get("/risks/{id}/advisory", r.wrap(r.handleAdvisoryLatest))
		rt.Post("/risks/{id}/advisory/drafts", r.wrap(r.handleAdvisoryDrafts))

		rt.Post("/capas", r.wrap(r.handleCreateCAPA))
		rt.Get("/capas/latest", r.wrap(r.handleLatestCAPAs))
		rt.Get("/capas/{id}", r.wrap(r.handleGetCAPA))
		rt.Patch("/capas/{id}/status", r.wrap(r.handleCAPAStatus))

		rt.Post("/controls", r.wrap(r.handleCreateControl))
		rt.Get("/controls/latest", r.wrap(r.handleLatestControls))
		rt.Get("/controls/{id}", r.wrap(r.handleGetControl))
		rt.Post("/controls/{id}/tests", r.wrap(r.handleCreateControlTest))
		rt.Get("/controls/{id}/tests", r.wrap(r.handleListControlTests))

		rt.Post("/policies", r.wrap(r.handleCreatePolicy))
		rt.Get("/policies/latest", r.wrap(r.handleLatestPolicies))
		rt.Get("/policies/{id}", r.wrap(r.handleGetPolicy))

		rt.Get("/audit/latest", r.wrap(r.handleLatestAudit))
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if err := h(w, req); err != nil {
			switch {
			case errors.Is(err, advdomain.ErrRiskNotFound), errors.Is(err, sql.ErrNoRows):
				http.Error(w, err.Error(), http.StatusNotFound)
			case errors.Is(err, advdomain.ErrAdvisoryNotGenerated):
				http.Error(w, err.Error(), http.StatusBadRequest)
			case errors.Is(err, advdomain.ErrQuotaExceeded):
				http.Error(w, "advisory quota exceeded", http.StatusTooManyRequests)
			case errors.Is(err, appcapa.ErrInvalidTransition):
				http.Error(w, err.Error(), http.StatusConflict)
			default:
				http.Error(w, err.Error(), http.StatusInternalServerError)
			}
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

// POST /v1/{tenant}/risks
func (r *Router) handleCreateRisk(w http.ResponseWriter, req *http.Request) error {
	tenant := chi.URLParam(req, "tenant")
	var body struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		Category    string `json:"category"`
		Severity    string `json:"severity"`
		Likelihood  string `json:"likelihood"`
		Impact      string `json:"impact"`
		OwnerEmail  string `json:"owner_email"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return err
	}

	risk, err := r.risksSvc.Create(req.Context(), apprisks.CreateRiskCommand{
		TenantID:    tenant,
		Title:       middleware.SanitizeString(body.Title),
		Description: middleware.SanitizeString(body.Description),
		Category:    middleware.SanitizeString(body.Category),
		Severity:    body.Severity,
		Likelihood:  body.Likelihood,
		Impact:      body.Impact,
		OwnerEmail:  body.OwnerEmail,
	})
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusCreated, risk)
}

// GET /v1/{tenant}/risks?page=&page_size=&category=&status=&severity=&title=
func (r *Router) handleListRisks(w http.ResponseWriter, req *http.Request) error {
	tenant := chi.URLParam(req, "tenant")
	q := req.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	size, _ := strconv.Atoi(q.Get("page_size"))
	size = middleware.ValidatePageSize(size)

	filters := map[string]interface{}{}
	for _, key := range []string{"category", "status", "severity", "title"} {
		if v := q.Get(key); v != "" {
			filters[key] = v
		}
	}

	list, err := r.risksSvc.Paginate(req.Context(), tenant, page, size, filters)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, list)
}

// GET /v1/{tenant}/risks/latest?limit=20
func (r *Router) handleLatestRisks(w http.ResponseWriter, req *http.Request) error {
	tenant := chi.URLParam(req, "tenant")
	limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))

	list, err := r.risksSvc.Latest(req.Context(), tenant, middleware.ValidateLimit(limit))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, list)
}

// GET /v1/{tenant}/risks/{id}
func (r *Router) handleGetRisk(w http.ResponseWriter, req *http.Request) error {
	tenant := chi.URLParam(req, "tenant")
	id := chi.URLParam(req, "id")

	risk, err := r.risksSvc.Get(req.Context(), tenant, risksdomain.RiskID(id))
	if err != nil {
		return err
	}
	if risk == nil {
		return fmt.Errorf("%w: %s", advdomain.ErrRiskNotFound, id)
	}
	return writeJSON(w, http.StatusOK, risk)
}

// DELETE /v1/{tenant}/risks/{id}
func (r *Router) handleDeleteRisk(w http.ResponseWriter, req *http.Request) error {
	tenant := chi.URLParam(req, "tenant")
	id := chi.URLParam(req, "id")

	risk, err := r.risksSvc.Get(req.Context(), tenant, risksdomain.RiskID(id))
	if err != nil {
		return err
	}
	if risk == nil {
		return fmt.Errorf("%w: %s", advdomain.ErrRiskNotFound, id)
	}
	if err := r.risksSvc.SoftDelete(req.Context(), tenant, risksdomain.RiskID(id)); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

// POST /v1/{tenant}/risks/{id}/controls/{controlID}
func (r *Router) handleLinkControl(w http.ResponseWriter, req *http.Request) error {
	tenant := chi.URLParam(req, "tenant")
	id := chi.URLParam(req, "id")
	controlID := chi.URLParam(req, "controlID")

	ctrl, err := r.controlsSvc.Get(req.Context(), tenant, controlsdomain.ControlID(controlID))
	if err != nil {
		return err
	}
	if ctrl == nil {
		return fmt.Errorf("control not found: %s", controlID)
	}
	if err := r.risksSvc.LinkControl(req.Context(), tenant, risksdomain.RiskID(id), controlID); err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, map[string]string{"status": "linked"})
}

// GET /v1/{tenant}/risks/{id}/controls
func (r *Router) handleLinkedControls(w http.ResponseWriter, req *http.Request) error {
	tenant := chi.URLParam(req, "tenant")
	id := chi.URLParam(req, "id")

	list, err := r.risksSvc.LinkedControls(req.Context(), tenant, risksdomain.RiskID(id))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, list)
}

// POST /v1/{tenant}/risks/{id}/policies/{policyID}
func (r *Router) handleLinkPolicy(w http.ResponseWriter, req *http.Request) error {
	tenant := chi.URLParam(req, "tenant")
	id := chi.URLParam(req, "id")
	policyID := chi.URLParam(req, "policyID")

	pol, err := r.policiesSvc.Get(req.Context(), tenant, policiesdomain.PolicyID(policyID))
	if err != nil {
		return err
	}
	if pol == nil {
		return fmt.Errorf("policy not found: %s", policyID)
	}
	if err := r.risksSvc.LinkPolicy(req.Context(), tenant, risksdomain.RiskID(id), policyID); err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, map[string]string{"status": "linked"})
}

// GET /v1/{tenant}/risks/{id}/policies
func (r *Router) handleLinkedPolicies(w http.ResponseWriter, req *http.Request) error {
	tenant := chi.URLParam(req, "tenant")
	id := chi.URLParam(req, "id")

	list, err := r.risksSvc.LinkedPolicies(req.Context(), tenant, risksdomain.RiskID(id))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, list)
}

// GET /v1/{tenant}/risks/{id}/capas?limit=50
func (r *Router) handleCAPAsByRisk(w http.ResponseWriter, req *http.Request) error {
	tenant := chi.URLParam(req, "tenant")
	id := chi.URLParam(req, "id")
	limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))

	list, err := r.capaSvc.ListByRisk(req.Context(), tenant, id, middleware.ValidateLimit(limit))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, list)
}

// POST /v1/{tenant}/risks/{id}/advisory/analyze
func (r *Router) handleAdvisoryAnalyze(w http.ResponseWriter, req *http.Request) error {
	tenant := chi.URLParam(req, "tenant")
	id := chi.URLParam(req, "id")

	middleware.IncrementAdvisories()
	result, err := r.advisorySvc.Analyze(req.Context(), tenant, risksdomain.RiskID(id))
	if err != nil {
		middleware.IncrementAdvisoriesFailed()
		return err
	}
	return writeJSON(w, http.StatusOK, result)
}

// GET /v1/{tenant}/risks/{id}/advisory
// Responds 200 with a JSON null body when no advisory exists yet.
func (r *Router) handleAdvisoryLatest(w http.ResponseWriter, req *http.Request) error {
	tenant := chi.URLParam(req, "tenant")
	id := chi.URLParam(req, "id")

	result, err := r.advisorySvc.GetLatest(req.Context(), tenant, risksdomain.RiskID(id))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, result)
}

// POST /v1/{tenant}/risks/{id}/advisory/drafts
func (r *Router) handleAdvisoryDrafts(w http.ResponseWriter, req *http.Request) error {
	tenant := chi.URLParam(req, "tenant")
	id := chi.URLParam(req, "id")

	var cmd appadvisory.CreateDraftsCommand
	if err := json.NewDecoder(req.Body).Decode(&cmd); err != nil {
		return err
	}
	if len(cmd.SuggestionIDs) == 0 {
		return fmt.Errorf("suggestion_ids is required")
	}

	batch, err := r.advisorySvc.CreateDrafts(req.Context(), tenant, risksdomain.RiskID(id), cmd)
	if err != nil {
		return err
	}
	middleware.AddDraftOutcomes(uint64(batch.Created), uint64(batch.Failed), uint64(batch.Skipped))

	// 207-style partial result: the batch itself succeeded even when items failed
	return writeJSON(w, http.StatusOK, batch)
}

// POST /v1/{tenant}/capas
func (r *Router) handleCreateCAPA(w http.ResponseWriter, req *http.Request) error {
	tenant := chi.URLParam(req, "tenant")
	var body struct {
		RiskID      string `json:"risk_id"`
		Title       string `json:"title"`
		Description string `json:"description"`
		Type        string `json:"type"`
		Priority    string `json:"priority"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return err
	}

	created, err := r.capaSvc.Create(req.Context(), appcapa.CreateCommand{
		TenantID:    tenant,
		RiskID:      body.RiskID,
		Title:       middleware.SanitizeString(body.Title),
		Description: middleware.SanitizeString(body.Description),
		Type:        capadomain.CAPAType(body.Type),
		Priority:    capadomain.Priority(body.Priority),
		Source:      capadomain.SourceManual,
	})
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusCreated, created)
}

// GET /v1/{tenant}/capas/latest?limit=20
func (r *Router) handleLatestCAPAs(w http.ResponseWriter, req *http.Request) error {
	tenant := chi.URLParam(req, "tenant")
	limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))

	list, err := r.capaSvc.Latest(req.Context(), tenant, middleware.ValidateLimit(limit))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, list)
}

// GET /v1/{tenant}/capas/{id}
func (r *Router) handleGetCAPA(w http.ResponseWriter, req *http.Request) error {
	tenant := chi.URLParam(req, "tenant")
	id := chi.URLParam(req, "id")

	c, err := r.capaSvc.Get(req.Context(), tenant, capadomain.CAPAID(id))
	if err != nil {
		return err
	}
	if c == nil {
		return fmt.Errorf("capa not found: %w", sql.ErrNoRows)
	}
	return writeJSON(w, http.StatusOK, c)
}

// PATCH /v1/{tenant}/capas/{id}/status
func (r *Router) handleCAPAStatus(w http.ResponseWriter, req *http.Request) error {
	tenant := chi.URLParam(req, "tenant")
	id := chi.URLParam(req, "id")

	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return err
	}
	if err := r.capaSvc.UpdateStatus(req.Context(), tenant, capadomain.CAPAID(id), capadomain.Status(body.Status)); err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, map[string]string{"status": body.Status})
}

// POST /v1/{tenant}/controls
func (r *Router) handleCreateControl(w http.ResponseWriter, req *http.Request) error {
	tenant := chi.URLParam(req, "tenant")
	var body struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		ControlType string `json:"control_type"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return err
	}

	created, err := r.controlsSvc.Create(req.Context(), appcontrols.CreateCommand{
		TenantID:    tenant,
		Name:        middleware.SanitizeString(body.Name),
		Description: middleware.SanitizeString(body.Description),
		ControlType: body.ControlType,
	})
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusCreated, created)
}

// GET /v1/{tenant}/controls/latest?limit=20
func (r *Router) handleLatestControls(w http.ResponseWriter, req *http.Request) error {
	tenant := chi.URLParam(req, "tenant")
	limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))

	list, err := r.controlsSvc.Latest(req.Context(), tenant, middleware.ValidateLimit(limit))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, list)
}

// GET /v1/{tenant}/controls/{id}
func (r *Router) handleGetControl(w http.ResponseWriter, req *http.Request) error {
	tenant := chi.URLParam(req, "tenant")
	id := chi.URLParam(req, "id")

	c, err := r.controlsSvc.Get(req.Context(), tenant, controlsdomain.ControlID(id))
	if err != nil {
		return err
	}
	if c == nil {
		return fmt.Errorf("control not found: %w", sql.ErrNoRows)
	}
	return writeJSON(w, http.StatusOK, c)
}

// POST /v1/{tenant}/controls/{id}/tests
func (r *Router) handleCreateControlTest(w http.ResponseWriter, req *http.Request) error {
	tenant := chi.URLParam(req, "tenant")
	id := chi.URLParam(req, "id")

	var body struct {
		Name      string `json:"name"`
		Procedure string `json:"procedure"`
		Frequency string `json:"frequency"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return err
	}

	created, err := r.controlTestsSvc.Create(req.Context(), appcontroltests.CreateCommand{
		TenantID:  tenant,
		ControlID: id,
		Name:      middleware.SanitizeString(body.Name),
		Procedure: middleware.SanitizeString(body.Procedure),
		Frequency: body.Frequency,
	})
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusCreated, created)
}

// GET /v1/{tenant}/controls/{id}/tests?limit=50
func (r *Router) handleListControlTests(w http.ResponseWriter, req *http.Request) error {
	tenant := chi.URLParam(req, "tenant")
	id := chi.URLParam(req, "id")
	limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))

	list, err := r.controlTestsSvc.ListByControl(req.Context(), tenant, id, middleware.ValidateLimit(limit))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, list)
}

// POST /v1/{tenant}/policies
func (r *Router) handleCreatePolicy(w http.ResponseWriter, req *http.Request) error {
	tenant := chi.URLParam(req, "tenant")
	var body struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		Version     string `json:"version"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return err
	}

	created, err := r.policiesSvc.Create(req.Context(), apppolicies.CreateCommand{
		TenantID:    tenant,
		Name:        middleware.SanitizeString(body.Name),
		Description: middleware.SanitizeString(body.Description),
		Version:     body.Version,
	})
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusCreated, created)
}

// GET /v1/{tenant}/policies/latest?limit=20
func (r *Router) handleLatestPolicies(w http.ResponseWriter, req *http.Request) error {
	tenant := chi.URLParam(req, "tenant")
	limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))

	list, err := r.policiesSvc.Latest(req.Context(), tenant, middleware.ValidateLimit(limit))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, list)
}

// GET /v1/{tenant}/policies/{id}
func (r *Router) handleGetPolicy(w http.ResponseWriter, req *http.Request) error {
	tenant := chi.URLParam(req, "tenant")
	id := chi.URLParam(req, "id")

	p, err := r.policiesSvc.Get(req.Context(), tenant, policiesdomain.PolicyID(id))
	if err != nil {
		return err
	}
	if p == nil {
		return fmt.Errorf("policy not found: %w", sql.ErrNoRows)
	}
	return writeJSON(w, http.StatusOK, p)
}

// GET /v1/{tenant}/audit/latest?limit=50
func (r *Router) handleLatestAudit(w http.ResponseWriter, req *http.Request) error {
	tenant := chi.URLParam(req, "tenant")
	limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))

	if !r.auditSvc.Available() {
		return writeJSON(w, http.StatusOK, []struct{}{})
	}
	list, err := r.auditSvc.Latest(req.Context(), tenant, middleware.ValidateLimit(limit))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, list)
}
