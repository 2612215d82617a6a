package advisory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/oklog/ulid/v2"

	"github.com/Gokhanagingil/grc-sub001/internal/application"
	appaudit "github.com/Gokhanagingil/grc-sub001/internal/application/audit"
	appcapa "github.com/Gokhanagingil/grc-sub001/internal/application/capa"
	domain "github.com/Gokhanagingil/grc-sub001/internal/domain/advisory"
	auditdomain "github.com/Gokhanagingil/grc-sub001/internal/domain/audit"
	risksdomain "github.com/Gokhanagingil/grc-sub001/internal/domain/risks"
)

// Service implements the advisory use-cases: analyze, get latest, create
// drafts. Per (tenant, risk) there are two states: no-advisory and analyzed;
// analyze always overwrites the cached result for the key.
//
// CAPAs, Audit and Artifacts are optional collaborators: a deployment may
// run analysis without draft promotion or without an audit trail.
type Service struct {
	Risks     risksdomain.Repository
	Provider  domain.Provider
	Cache     domain.Cache
	CAPAs     *appcapa.Service
	Audit     *appaudit.Service
	Artifacts domain.ArtifactStore
	Clock     application.Clock
	Logger    *slog.Logger
}

func (s *Service) log() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

// loadRisk maps missing/foreign/soft-deleted risks onto ErrRiskNotFound
func (s *Service) loadRisk(ctx context.Context, tenant string, riskID risksdomain.RiskID) (*risksdomain.Risk, error) {
	r, err := s.Risks.Get(ctx, tenant, riskID)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrRiskNotFound, riskID)
	}
	return r, nil
}

// Analyze loads the risk and its linked records, generates a fresh advisory
// (provider first, heuristics fallback) and caches it under tenant:risk.
// Linked-record loading is soft-fail: a join failure degrades to an empty
// list with a warning rather than aborting the analysis.
func (s *Service) Analyze(ctx context.Context, tenant string, riskID risksdomain.RiskID) (*domain.AdvisoryResult, error) {
	risk, err := s.loadRisk(ctx, tenant, riskID)
	if err != nil {
		return nil, err
	}

	rc := domain.RiskContext{Risk: risk, Topology: nil}

	rc.Controls, err = s.Risks.LinkedControls(ctx, tenant, riskID)
	if err != nil {
		s.log().Warn("loading linked controls failed, continuing with none",
			"tenant", tenant, "risk_id", riskID, "error", err)
		rc.Controls = nil
	}
	rc.Policies, err = s.Risks.LinkedPolicies(ctx, tenant, riskID)
	if err != nil {
		s.log().Warn("loading linked policies failed, continuing with none",
			"tenant", tenant, "risk_id", riskID, "error", err)
		rc.Policies = nil
	}

	var result *domain.AdvisoryResult
	if s.Provider != nil && s.Provider.Available() {
		result, err = s.Provider.GenerateAdvisory(ctx, rc)
		if err != nil {
			if errors.Is(err, domain.ErrQuotaExceeded) {
				return nil, err
			}
			s.log().Warn("advisory provider failed, falling back to heuristics",
				"provider", s.Provider.Name(), "tenant", tenant, "risk_id", riskID, "error", err)
			result = nil
		}
	}
	if result == nil {
		result = domain.Evaluate(rc)
	}

	result.ID = domain.AnalysisID(ulid.Make().String())
	result.TenantID = tenant
	result.RiskID = string(riskID)
	result.GeneratedAt = s.Clock.Now()
	result.SchemaVersion = domain.SchemaVersion

	if err := s.Cache.Put(ctx, tenant, string(riskID), result); err != nil {
		return nil, fmt.Errorf("caching advisory: %w", err)
	}

	s.recordAudit(ctx, tenant, "advisory.analyze", string(riskID), result)
	return result, nil
}

// GetLatest re-validates the risk, then returns the cached advisory or nil.
// No recomputation happens here.
func (s *Service) GetLatest(ctx context.Context, tenant string, riskID risksdomain.RiskID) (*domain.AdvisoryResult, error) {
	if _, err := s.loadRisk(ctx, tenant, riskID); err != nil {
		return nil, err
	}
	res, ok, err := s.Cache.Get(ctx, tenant, string(riskID))
	if err != nil {
		return nil, fmt.Errorf("reading advisory cache: %w", err)
	}
	if !ok {
		return nil, nil
	}
	return res, nil
}

// CreateDraftsCommand selects cached suggestions for promotion, with
// optional per-suggestion overrides keyed by suggestion id.
type CreateDraftsCommand struct {
	SuggestionIDs []string                 `json:"suggestion_ids"`
	Overrides     map[string]DraftOverride `json:"overrides,omitempty"`
}

// CreateDrafts promotes selected suggestions into real records. It requires
// a prior Analyze for the same (tenant, risk) and never aborts the batch on
// a per-item failure: each item carries its own status and error code, and
// the aggregate counts are recomputed from the items.
func (s *Service) CreateDrafts(ctx context.Context, tenant string, riskID risksdomain.RiskID, cmd CreateDraftsCommand) (*domain.DraftBatchResult, error) {
	risk, err := s.loadRisk(ctx, tenant, riskID)
	if err != nil {
		return nil, err
	}

	cached, ok, err := s.Cache.Get(ctx, tenant, string(riskID))
	if err != nil {
		return nil, fmt.Errorf("reading advisory cache: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: call analyze first", domain.ErrAdvisoryNotGenerated)
	}

	batch := &domain.DraftBatchResult{
		SchemaVersion: domain.SchemaVersion,
		TenantID:      tenant,
		RiskID:        string(riskID),
		AnalysisID:    cached.ID,
	}
	// The cached snapshot stays authoritative, but the caller should know
	// when the risk changed after the analysis it is promoting from.
	if risk.UpdatedAt.After(cached.GeneratedAt) {
		batch.Warnings = append(batch.Warnings,
			"risk was modified after this advisory was generated; drafts use the analyzed snapshot")
	}

	for _, sugID := range cmd.SuggestionIDs {
		batch.Items = append(batch.Items, s.promoteSuggestion(ctx, tenant, string(riskID), cached, sugID, cmd.Overrides))
	}
	batch.Tally()

	s.recordAudit(ctx, tenant, "advisory.create_drafts", string(riskID), batch)
	return batch, nil
}

// promoteSuggestion handles one suggestion independently; it never returns
// a Go error; every outcome is a DraftResultItem.
func (s *Service) promoteSuggestion(ctx context.Context, tenant, riskID string, cached *domain.AdvisoryResult, sugID string, overrides map[string]DraftOverride) domain.DraftResultItem {
	item := domain.DraftResultItem{SuggestionID: sugID}

	sug, found := cached.Suggestion(sugID)
	if !found {
		item.Status = domain.DraftFailed
		item.ErrorCode = domain.CodeSuggestionNotFound
		item.Message = "The suggestion is not part of the current advisory."
		item.TechnicalMessage = fmt.Sprintf("suggestion %s not found in advisory %s", sugID, cached.ID)
		return item
	}

	item.RequestedType = sug.TargetType
	item.ResolvedTargetType = ResolveEffectiveTargetType(sug.TargetType)

	switch sug.TargetType {
	case domain.SuggestionChange:
		// cross-module dependency deliberately deferred
		item.Status = domain.DraftSkipped
		item.ErrorCode = domain.CodeChangeNotSupported
		item.Message = "Change records cannot be created from advisories yet."

	case domain.SuggestionControlTest:
		// a control test needs a linked control the advisory cannot guarantee
		item.Status = domain.DraftSkipped
		item.ErrorCode = domain.CodeControlTestRequiresControl
		item.Message = "Link a control to the risk and create the test from there."

	case domain.SuggestionCAPA, domain.SuggestionTask:
		if s.CAPAs == nil {
			item.Status = domain.DraftFailed
			item.ErrorCode = domain.CodeCAPAServiceUnavailable
			item.Message = "CAPA management is not enabled in this deployment."
			return item
		}
		var ov *DraftOverride
		if o, has := overrides[sugID]; has {
			ov = &o
		}
		payload, derr := BuildCAPAPayload(tenant, riskID, sug, ov)
		if derr != nil {
			item.Status = domain.DraftFailed
			item.ErrorCode = derr.Code
			item.Message = derr.UserMessage
			item.TechnicalMessage = derr.TechnicalMessage
			return item
		}
		created, err := s.CAPAs.Create(ctx, payload)
		if err != nil {
			item.Status = domain.DraftFailed
			item.ErrorCode = domain.CodeCAPACreateFailed
			item.Message = "The CAPA record could not be created."
			item.TechnicalMessage = err.Error()
			return item
		}
		item.Status = domain.DraftCreated
		item.RecordID = string(created.ID)
		item.RecordCode = created.Code

	default:
		item.Status = domain.DraftFailed
		item.ErrorCode = domain.CodeUnsupportedSuggestionType
		item.Message = fmt.Sprintf("Suggestions of type %s are not supported.", sug.TargetType)
	}
	return item
}

// recordAudit is best-effort: audit/artifact failures are logged, never
// propagated into the advisory flow.
func (s *Service) recordAudit(ctx context.Context, tenant, action, riskID string, payload any) {
	if !s.Audit.Available() {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		s.log().Warn("marshaling audit payload failed", "action", action, "error", err)
		return
	}

	var artifactURL string
	if s.Artifacts != nil {
		key := fmt.Sprintf("advisory/%s/%s/%s.json", tenant, riskID, ulid.Make().String())
		artifactURL, err = s.Artifacts.UploadJSON(ctx, key, data)
		if err != nil {
			s.log().Warn("uploading advisory artifact failed", "action", action, "error", err)
			artifactURL = ""
		}
	}

	if err := s.Audit.Record(ctx, &auditdomain.Event{
		TenantID:    tenant,
		Action:      action,
		EntityType:  "risk",
		EntityID:    riskID,
		DetailsJSON: string(data),
		ArtifactURL: artifactURL,
	}); err != nil {
		s.log().Warn("recording audit event failed", "action", action, "error", err)
	}
}
