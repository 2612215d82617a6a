package risks

import (
	"time"
)

// ID tipe untuk Risk
type RiskID string

// RiskLevel enum, shared by severity, likelihood and impact
type RiskLevel string

const (
	LevelLow      RiskLevel = "low"
	LevelMedium   RiskLevel = "medium"
	LevelHigh     RiskLevel = "high"
	LevelCritical RiskLevel = "critical"
)

// Status enum
type Status string

const (
	StatusOpen        Status = "open"
	StatusInTreatment Status = "in_treatment"
	StatusMitigated   Status = "mitigated"
	StatusAccepted    Status = "accepted"
	StatusClosed      Status = "closed"
)

// Aggregate Root: Risk
type Risk struct {
	ID            RiskID     `json:"id"`
	TenantID      string     `json:"tenant_id"`
	Title         string     `json:"title"`
	Description   string     `json:"description,omitempty"`
	Category      string     `json:"category,omitempty"`
	Severity      RiskLevel  `json:"severity"`
	Likelihood    RiskLevel  `json:"likelihood"`
	Impact        RiskLevel  `json:"impact"`
	InherentScore float64    `json:"inherent_score"`
	ResidualScore float64    `json:"residual_score"`
	Status        Status     `json:"status"`
	OwnerEmail    string     `json:"owner_email,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	DeletedAt     *time.Time `json:"deleted_at,omitempty"`
}

// ValidLevel reports whether v is a member of the RiskLevel enum
func ValidLevel(v RiskLevel) bool {
	switch v {
	case LevelLow, LevelMedium, LevelHigh, LevelCritical:
		return true
	}
	return false
}
