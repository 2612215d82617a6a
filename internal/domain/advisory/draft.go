package advisory

// DraftStatus of one promoted suggestion
type DraftStatus string

const (
	DraftCreated DraftStatus = "created"
	DraftFailed  DraftStatus = "failed"
	DraftSkipped DraftStatus = "skipped"
)

// Machine-readable error codes attached to draft result items
const (
	CodeSuggestionNotFound         = "SUGGESTION_NOT_FOUND"
	CodeChangeNotSupported         = "CHANGE_NOT_SUPPORTED_YET"
	CodeControlTestRequiresControl = "CONTROL_TEST_REQUIRES_CONTROL"
	CodeCAPAServiceUnavailable     = "CAPA_SERVICE_UNAVAILABLE"
	CodeCAPACreateFailed           = "CAPA_CREATE_FAILED"
	CodeUnresolvedCAPAType         = "UNRESOLVED_CAPA_TYPE"
	CodeInvalidPayload             = "INVALID_PAYLOAD"
	CodeUnsupportedSuggestionType  = "UNSUPPORTED_SUGGESTION_TYPE"
)

// DraftError is a structured mapping/creation failure. It replaces thrown
// errors on the per-item path so the caller can aggregate partial failures.
type DraftError struct {
	Code             string `json:"code"`
	UserMessage      string `json:"user_message"`
	TechnicalMessage string `json:"technical_message,omitempty"`
}

// DraftResultItem is the outcome of promoting one suggestion.
// ResolvedTargetType is the record type actually created (TASK resolves to
// CAPA), so failures are attributed to the real downstream type.
type DraftResultItem struct {
	SuggestionID       string         `json:"suggestion_id"`
	RequestedType      SuggestionType `json:"requested_type"`
	ResolvedTargetType SuggestionType `json:"resolved_target_type"`
	Status             DraftStatus    `json:"status"`
	Message            string         `json:"message,omitempty"`
	TechnicalMessage   string         `json:"technical_message,omitempty"`
	ErrorCode          string         `json:"error_code,omitempty"`
	RecordID           string         `json:"record_id,omitempty"`
	RecordCode         string         `json:"record_code,omitempty"`
}

// DraftBatchResult aggregates one create-drafts call. Counts are always
// recomputed from the item statuses (see Tally), never tracked incrementally.
type DraftBatchResult struct {
	SchemaVersion int               `json:"schema_version"`
	TenantID      string            `json:"tenant_id"`
	RiskID        string            `json:"risk_id"`
	AnalysisID    AnalysisID        `json:"analysis_id"`
	Items         []DraftResultItem `json:"items"`
	Created       int               `json:"created"`
	Failed        int               `json:"failed"`
	Skipped       int               `json:"skipped"`
	Warnings      []string          `json:"warnings,omitempty"`
}

// Tally recomputes the aggregate counts from the per-item statuses
func (b *DraftBatchResult) Tally() {
	b.Created, b.Failed, b.Skipped = 0, 0, 0
	for _, it := range b.Items {
		switch it.Status {
		case DraftCreated:
			b.Created++
		case DraftFailed:
			b.Failed++
		case DraftSkipped:
			b.Skipped++
		}
	}
}
