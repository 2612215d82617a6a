package audit

import "time"

// Event represents a persisted audit trail entry
type Event struct {
	ID          int64     `json:"id"`
	TenantID    string    `json:"tenant_id"`
	Action      string    `json:"action"`      // advisory.analyze | advisory.create_drafts | ...
	EntityType  string    `json:"entity_type"` // risk | capa | ...
	EntityID    string    `json:"entity_id"`
	DetailsJSON string    `json:"details_json,omitempty"` // raw JSON string
	ArtifactURL string    `json:"artifact_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
