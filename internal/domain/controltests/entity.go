package controltests

import "time"

// ID tipe untuk ControlTest
type ControlTestID string

// Result enum
type Result string

const (
	ResultPending Result = "pending"
	ResultPassed  Result = "passed"
	ResultFailed  Result = "failed"
)

// ControlTest verifies the operating effectiveness of a linked control.
// ControlID is mandatory: a test without a control has nothing to verify.
type ControlTest struct {
	ID        ControlTestID `json:"id"`
	TenantID  string        `json:"tenant_id"`
	ControlID string        `json:"control_id"`
	Name      string        `json:"name"`
	Procedure string        `json:"procedure,omitempty"`
	Frequency string        `json:"frequency,omitempty"` // once | monthly | quarterly | annual
	Result    Result        `json:"result"`
	CreatedAt time.Time     `json:"created_at"`
}
