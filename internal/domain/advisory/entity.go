package advisory

import (
	"time"

	"github.com/Gokhanagingil/grc-sub001/internal/domain/controls"
	"github.com/Gokhanagingil/grc-sub001/internal/domain/policies"
	"github.com/Gokhanagingil/grc-sub001/internal/domain/risks"
)

// SchemaVersion of AdvisoryResult and DraftBatchResult payloads.
// Bumped instead of carrying duplicate legacy fields.
const SchemaVersion = 2

// AnalysisID identifier type (ULID, stamped by the orchestration service)
type AnalysisID string

// RiskTheme classified by the heuristics engine
type RiskTheme string

const (
	ThemePatching       RiskTheme = "PATCHING"
	ThemeAccessControl  RiskTheme = "ACCESS_CONTROL"
	ThemeDataProtection RiskTheme = "DATA_PROTECTION"
	ThemeContinuity     RiskTheme = "CONTINUITY"
	ThemeThirdParty     RiskTheme = "THIRD_PARTY"
	ThemeCompliance     RiskTheme = "COMPLIANCE"
	ThemeGeneral        RiskTheme = "GENERAL"
)

// Timeframe buckets for the mitigation plan. Exactly four, fixed.
type Timeframe string

const (
	TimeframeImmediate    Timeframe = "IMMEDIATE"
	TimeframeShortTerm    Timeframe = "SHORT_TERM"
	TimeframePermanent    Timeframe = "PERMANENT"
	TimeframeVerification Timeframe = "VERIFICATION"
)

// SuggestionType is the UI-facing target type of a suggested record
type SuggestionType string

const (
	SuggestionCAPA        SuggestionType = "CAPA"
	SuggestionControlTest SuggestionType = "CONTROL_TEST"
	SuggestionChange      SuggestionType = "CHANGE"
	SuggestionTask        SuggestionType = "TASK"
)

// SuggestedPriority is the semantic (uppercase) priority emitted by the engine,
// resolved to the stored lowercase enum at draft-creation time.
type SuggestedPriority string

const (
	SuggestedLow      SuggestedPriority = "LOW"
	SuggestedMedium   SuggestedPriority = "MEDIUM"
	SuggestedHigh     SuggestedPriority = "HIGH"
	SuggestedCritical SuggestedPriority = "CRITICAL"
)

// MitigationAction is one entry of a mitigation plan bucket
type MitigationAction struct {
	Action              string            `json:"action"`
	Timeframe           Timeframe         `json:"timeframe"`
	SuggestedRecordType SuggestionType    `json:"suggested_record_type,omitempty"`
	Priority            SuggestedPriority `json:"priority"`
}

// MitigationPlan holds the four fixed timeframe buckets
type MitigationPlan struct {
	Immediate    []MitigationAction `json:"immediate"`
	ShortTerm    []MitigationAction `json:"short_term"`
	Permanent    []MitigationAction `json:"permanent"`
	Verification []MitigationAction `json:"verification"`
}

// SuggestedRecord is an ephemeral value object; its ID is only meaningful
// within the AdvisoryResult that produced it.
type SuggestedRecord struct {
	ID           string            `json:"id"`
	TargetType   SuggestionType    `json:"target_type"`
	Title        string            `json:"title"`
	Description  string            `json:"description,omitempty"`
	Priority     SuggestedPriority `json:"priority"`
	Timeframe    Timeframe         `json:"timeframe"`
	TemplateData map[string]string `json:"template_data,omitempty"` // semantic hints, e.g. {"type": "CORRECTIVE"}
}

// Explanation is one explainability entry behind a classification
type Explanation struct {
	Signal string  `json:"signal"`
	Detail string  `json:"detail"`
	Weight float64 `json:"weight"`
}

// AdvisoryResult is the full recommendation bundle for one risk.
// Ephemeral: recomputed on each analyze call, superseded results are discarded.
type AdvisoryResult struct {
	ID            AnalysisID        `json:"id,omitempty"`
	TenantID      string            `json:"tenant_id,omitempty"`
	RiskID        string            `json:"risk_id,omitempty"`
	Source        string            `json:"source"` // heuristics | ai
	Theme         RiskTheme         `json:"risk_theme"`
	Confidence    float64           `json:"confidence"`
	Plan          MitigationPlan    `json:"mitigation_plan"`
	Suggestions   []SuggestedRecord `json:"suggested_records"`
	Explanations  []Explanation     `json:"explanations,omitempty"`
	Warnings      []string          `json:"warnings,omitempty"`
	Assumptions   []string          `json:"assumptions,omitempty"`
	GeneratedAt   time.Time         `json:"generated_at,omitempty"`
	SchemaVersion int               `json:"schema_version"`
}

// Suggestion returns the suggested record with the given id, if present
func (a *AdvisoryResult) Suggestion(id string) (*SuggestedRecord, bool) {
	for i := range a.Suggestions {
		if a.Suggestions[i].ID == id {
			return &a.Suggestions[i], true
		}
	}
	return nil, false
}

// TopologyContext is a reserved CMDB extension point; always nil today.
type TopologyContext struct {
	Nodes []string `json:"nodes,omitempty"`
	Edges []string `json:"edges,omitempty"`
}

// RiskContext is the full input of an advisory evaluation
type RiskContext struct {
	Risk     *risks.Risk
	Controls []*controls.Control
	Policies []*policies.Policy
	Topology *TopologyContext
}
