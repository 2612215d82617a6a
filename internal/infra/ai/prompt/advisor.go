package prompt

import (
	"encoding/json"
	"fmt"

	domain "github.com/Gokhanagingil/grc-sub001/internal/domain/advisory"
)

// GetSystemPrompt provides strict directions and schema for JSON output.
func GetSystemPrompt() string {
	return `You are a senior GRC (governance, risk and compliance) advisor. You must produce one valid JSON object only (no markdown, no commentary) that follows the schema below. Do not include code fences.

Requirements:
- Output must be a single JSON object.
- risk_theme must be one of: PATCHING, ACCESS_CONTROL, DATA_PROTECTION, CONTINUITY, THIRD_PARTY, COMPLIANCE, GENERAL.
- confidence is a number between 0 and 1.
- Every mitigation action carries a timeframe (IMMEDIATE, SHORT_TERM, PERMANENT, VERIFICATION), a priority (LOW, MEDIUM, HIGH, CRITICAL) and a suggested_record_type (CAPA, CONTROL_TEST, CHANGE, TASK).
- Keep actions concise and actionable; at least one IMMEDIATE action.

Schema (example with empty values):
{
  "risk_theme": "<string>",
  "confidence": 0,
  "mitigation_plan": {
    "immediate": [{"action": "<string>", "priority": "<string>", "suggested_record_type": "<string>"}],
    "short_term": [],
    "permanent": [],
    "verification": []
  },
  "warnings": ["<string>"],
  "assumptions": ["<string>"]
}`
}

// GetUserPrompt serializes the risk context into a compact user message.
func GetUserPrompt(rc domain.RiskContext) string {
	type linked struct {
		Name string `json:"name"`
		Type string `json:"type,omitempty"`
	}
	payload := struct {
		Title       string   `json:"title"`
		Description string   `json:"description,omitempty"`
		Category    string   `json:"category,omitempty"`
		Severity    string   `json:"severity"`
		Likelihood  string   `json:"likelihood"`
		Impact      string   `json:"impact"`
		Controls    []linked `json:"linked_controls,omitempty"`
		Policies    []linked `json:"linked_policies,omitempty"`
	}{
		Title:       rc.Risk.Title,
		Description: rc.Risk.Description,
		Category:    rc.Risk.Category,
		Severity:    string(rc.Risk.Severity),
		Likelihood:  string(rc.Risk.Likelihood),
		Impact:      string(rc.Risk.Impact),
	}
	for _, c := range rc.Controls {
		payload.Controls = append(payload.Controls, linked{Name: c.Name, Type: string(c.ControlType)})
	}
	for _, p := range rc.Policies {
		payload.Policies = append(payload.Policies, linked{Name: p.Name})
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Sprintf("Analyze this risk and respond with the JSON per schema. Title: %s", rc.Risk.Title)
	}
	return fmt.Sprintf("Analyze this risk and respond with the JSON per schema. Risk: %s", data)
}
