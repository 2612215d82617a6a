package controls

import "time"

// ID tipe untuk Control
type ControlID string

// ControlType enum
type ControlType string

const (
	TypePreventive ControlType = "preventive"
	TypeDetective  ControlType = "detective"
	TypeCorrective ControlType = "corrective"
)

// Status enum
type Status string

const (
	StatusDraft   Status = "draft"
	StatusActive  Status = "active"
	StatusRetired Status = "retired"
)

// Control represents an implemented safeguard linked to zero-or-more risks
type Control struct {
	ID            ControlID   `json:"id"`
	TenantID      string      `json:"tenant_id"`
	Name          string      `json:"name"`
	Description   string      `json:"description,omitempty"`
	ControlType   ControlType `json:"control_type"`
	Status        Status      `json:"status"`
	Effectiveness string      `json:"effectiveness,omitempty"` // not_tested | effective | ineffective
	CreatedAt     time.Time   `json:"created_at"`
}
