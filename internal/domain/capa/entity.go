package capa

import "time"

// ID tipe untuk CAPA
type CAPAID string

// CAPAType enum (stored lowercase)
type CAPAType string

const (
	TypeCorrective CAPAType = "corrective"
	TypePreventive CAPAType = "preventive"
	TypeBoth       CAPAType = "both"
)

// Priority enum (stored lowercase)
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// Status enum
type Status string

const (
	StatusOpen       Status = "open"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusVerified   Status = "verified"
	StatusCancelled  Status = "cancelled"
)

// Source enum: how the record came to exist
type Source string

const (
	SourceManual   Source = "manual"
	SourceAdvisory Source = "advisory"
)

// Aggregate Root: CAPA (Corrective and Preventive Action)
type CAPA struct {
	ID          CAPAID     `json:"id"`
	Code        string     `json:"code"` // human-facing, e.g. CAPA-1a2b3c4d
	TenantID    string     `json:"tenant_id"`
	RiskID      string     `json:"risk_id,omitempty"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Type        CAPAType   `json:"type"`
	Priority    Priority   `json:"priority"`
	Status      Status     `json:"status"`
	Source      Source     `json:"source"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// ValidType reports whether t is a member of the stored enum
func ValidType(t CAPAType) bool {
	switch t {
	case TypeCorrective, TypePreventive, TypeBoth:
		return true
	}
	return false
}

// ValidPriority reports whether p is a member of the stored enum
func ValidPriority(p Priority) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

// allowedTransitions guards status updates
var allowedTransitions = map[Status][]Status{
	StatusOpen:       {StatusInProgress, StatusCancelled},
	StatusInProgress: {StatusCompleted, StatusCancelled},
	StatusCompleted:  {StatusVerified},
}

// CanTransition reports whether the status move is allowed
func CanTransition(from, to Status) bool {
	for _, s := range allowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}
