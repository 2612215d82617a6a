package advisory

import (
	"fmt"
	"strings"

	"github.com/Gokhanagingil/grc-sub001/internal/domain/risks"
)

// Signal weights per field. Category is the strongest signal because it is
// an explicit taxonomy choice, free text the weakest.
const (
	weightCategory    = 3.0
	weightTitle       = 2.0
	weightDescription = 1.0
)

// Confidence bounds and scaling for keyword scoring
const (
	confidenceFloor   = 0.2
	confidenceBase    = 0.35
	confidencePerHit  = 0.06
	confidenceCeiling = 0.95
)

// themeRule is one classification entry. Rules are evaluated in declaration
// order; on equal scores the earlier rule wins.
type themeRule struct {
	Theme    RiskTheme
	Keywords []string
}

var themeRules = []themeRule{
	{ThemePatching, []string{"patch", "unpatched", "cve", "vulnerab", "end-of-life", "outdated", "firmware"}},
	{ThemeAccessControl, []string{"access", "privilege", "account", "authentication", "authorization", "mfa", "password"}},
	{ThemeDataProtection, []string{"encryption", "pii", "personal data", "leak", "exfiltration", "confidential", "data loss"}},
	{ThemeContinuity, []string{"availability", "outage", "backup", "disaster", "recovery", "continuity", "downtime", "single point of failure"}},
	{ThemeThirdParty, []string{"vendor", "supplier", "third party", "third-party", "outsourc", "subcontractor"}},
	{ThemeCompliance, []string{"compliance", "regulation", "regulatory", "audit finding", "nonconform", "statement of applicability", "legal"}},
}

// planTemplate describes the mitigation actions emitted for a theme. The
// immediate action always promotes to a corrective CAPA; the permanent ones
// split between a preventive CAPA and a change; verification is a control test.
type planTemplate struct {
	Immediate    string
	ShortTerm    string
	Permanent    string
	Change       string
	Verification string
}

var planTemplates = map[RiskTheme]planTemplate{
	ThemePatching: {
		Immediate:    "Apply vendor security patches to the affected systems",
		ShortTerm:    "Inventory unpatched assets and schedule remediation waves",
		Permanent:    "Establish an automated patch management cycle with SLA tracking",
		Change:       "Roll out automated patch deployment through the change process",
		Verification: "Verify installed patch levels against the approved baseline",
	},
	ThemeAccessControl: {
		Immediate:    "Revoke stale and over-privileged accounts",
		ShortTerm:    "Review privileged role assignments with system owners",
		Permanent:    "Enforce least-privilege provisioning with periodic recertification",
		Change:       "Introduce centralized identity lifecycle tooling",
		Verification: "Test the access recertification control end to end",
	},
	ThemeDataProtection: {
		Immediate:    "Contain the exposure and confirm encryption of the affected data sets",
		ShortTerm:    "Classify the affected data and restrict handling paths",
		Permanent:    "Mandate encryption at rest and in transit for the data class",
		Change:       "Deploy data loss prevention monitoring on the egress paths",
		Verification: "Test the encryption and DLP controls on a sampled data set",
	},
	ThemeContinuity: {
		Immediate:    "Validate current backups and failover readiness of the affected service",
		ShortTerm:    "Update the business continuity runbook for the affected service",
		Permanent:    "Remove the single point of failure through redundant capacity",
		Change:       "Implement automated failover for the affected service",
		Verification: "Exercise the recovery procedure and measure RTO/RPO",
	},
	ThemeThirdParty: {
		Immediate:    "Reassess the vendor's current security posture and contractual duties",
		ShortTerm:    "Collect assurance evidence (certifications, reports) from the vendor",
		Permanent:    "Embed security requirements and exit criteria into the vendor contract",
		Change:       "Onboard the vendor into continuous third-party monitoring",
		Verification: "Test the vendor oversight control against the contract terms",
	},
	ThemeCompliance: {
		Immediate:    "Remediate the specific nonconformity named by the risk",
		ShortTerm:    "Map the risk to the applicable clauses and owners",
		Permanent:    "Integrate the requirement into the recurring compliance calendar",
		Change:       "Automate evidence collection for the affected requirement",
		Verification: "Re-test the affected clause before the next audit cycle",
	},
	ThemeGeneral: {
		Immediate:    "Contain and assess the exposure described by the risk",
		ShortTerm:    "Assign an owner and break the risk down into tracked actions",
		Permanent:    "Define a preventive measure addressing the root cause",
		Change:       "Plan the structural remediation through the change process",
		Verification: "Verify the implemented measures against the risk acceptance criteria",
	},
}

// Evaluate is the pure heuristics engine: same RiskContext in, bit-identical
// AdvisoryResult out. It never fails; missing signals degrade to the GENERAL
// theme with a recorded assumption. The ID/tenant/timestamps are left zero;
// the orchestration service stamps them.
func Evaluate(rc RiskContext) *AdvisoryResult {
	res := &AdvisoryResult{
		Source:        "heuristics",
		SchemaVersion: SchemaVersion,
	}

	category := strings.ToLower(rc.Risk.Category)
	title := strings.ToLower(rc.Risk.Title)
	description := strings.ToLower(rc.Risk.Description)

	var (
		best      RiskTheme
		bestScore float64
	)
	for _, rule := range themeRules {
		var score float64
		for _, kw := range rule.Keywords {
			if strings.Contains(category, kw) {
				score += weightCategory
				res.Explanations = append(res.Explanations, Explanation{
					Signal: "keyword:" + kw, Detail: "matched in category", Weight: weightCategory,
				})
			}
			if strings.Contains(title, kw) {
				score += weightTitle
				res.Explanations = append(res.Explanations, Explanation{
					Signal: "keyword:" + kw, Detail: "matched in title", Weight: weightTitle,
				})
			}
			if strings.Contains(description, kw) {
				score += weightDescription
				res.Explanations = append(res.Explanations, Explanation{
					Signal: "keyword:" + kw, Detail: "matched in description", Weight: weightDescription,
				})
			}
		}
		if score > bestScore {
			best, bestScore = rule.Theme, score
		}
	}

	if bestScore == 0 {
		res.Theme = ThemeGeneral
		res.Confidence = confidenceFloor
		res.Assumptions = append(res.Assumptions,
			"no theme signal found in category/title/description; defaulted to GENERAL")
	} else {
		res.Theme = best
		res.Confidence = confidenceBase + confidencePerHit*bestScore
		if res.Confidence > confidenceCeiling {
			res.Confidence = confidenceCeiling
		}
	}

	// Linked records inform explainability but never fail evaluation.
	if len(rc.Controls) == 0 {
		res.Warnings = append(res.Warnings,
			"no linked controls; suggested control tests cannot be promoted until a control is linked")
	} else {
		res.Explanations = append(res.Explanations, Explanation{
			Signal: "linked_controls",
			Detail: fmt.Sprintf("%d linked control(s) considered", len(rc.Controls)),
		})
	}
	if len(rc.Policies) == 0 {
		res.Assumptions = append(res.Assumptions, "no linked policies considered")
	} else {
		res.Explanations = append(res.Explanations, Explanation{
			Signal: "linked_policies",
			Detail: fmt.Sprintf("%d linked policy(ies) considered", len(rc.Policies)),
		})
	}
	if rc.Topology != nil {
		res.Assumptions = append(res.Assumptions, "CMDB topology context ignored (not implemented)")
	}

	res.Plan = buildPlan(res.Theme, rc)
	res.Suggestions = SuggestionsFromPlan(string(rc.Risk.ID), res.Plan)
	return res
}

func buildPlan(theme RiskTheme, rc RiskContext) MitigationPlan {
	tpl := planTemplates[theme]
	immediatePriority := priorityFromSeverity(rc.Risk)

	return MitigationPlan{
		Immediate: []MitigationAction{{
			Action:              tpl.Immediate,
			Timeframe:           TimeframeImmediate,
			SuggestedRecordType: SuggestionCAPA,
			Priority:            immediatePriority,
		}},
		ShortTerm: []MitigationAction{{
			Action:              tpl.ShortTerm,
			Timeframe:           TimeframeShortTerm,
			SuggestedRecordType: SuggestionTask,
			Priority:            SuggestedMedium,
		}},
		Permanent: []MitigationAction{
			{
				Action:              tpl.Permanent,
				Timeframe:           TimeframePermanent,
				SuggestedRecordType: SuggestionCAPA,
				Priority:            SuggestedMedium,
			},
			{
				Action:              tpl.Change,
				Timeframe:           TimeframePermanent,
				SuggestedRecordType: SuggestionChange,
				Priority:            SuggestedMedium,
			},
		},
		Verification: []MitigationAction{{
			Action:              tpl.Verification,
			Timeframe:           TimeframeVerification,
			SuggestedRecordType: SuggestionControlTest,
			Priority:            SuggestedLow,
		}},
	}
}

// SuggestionsFromPlan flattens plan actions into suggested records. IDs
// derive from the risk ID plus an ordinal so identical input yields
// identical output. Shared by the heuristics engine and the AI provider.
func SuggestionsFromPlan(riskID string, plan MitigationPlan) []SuggestedRecord {
	var out []SuggestedRecord
	ordinal := 0
	add := func(actions []MitigationAction) {
		for _, a := range actions {
			if a.SuggestedRecordType == "" {
				continue
			}
			ordinal++
			out = append(out, SuggestedRecord{
				ID:           fmt.Sprintf("%s-%s-%02d", riskID, strings.ToLower(string(a.SuggestedRecordType)), ordinal),
				TargetType:   a.SuggestedRecordType,
				Title:        a.Action,
				Description:  fmt.Sprintf("%s (suggested for risk %s, %s horizon)", a.Action, riskID, a.Timeframe),
				Priority:     a.Priority,
				Timeframe:    a.Timeframe,
				TemplateData: templateDataFor(a),
			})
		}
	}
	add(plan.Immediate)
	add(plan.ShortTerm)
	add(plan.Permanent)
	add(plan.Verification)
	return out
}

// templateDataFor emits the semantic hints consumed by the draft mapper.
// CAPA semantics stay uppercase here; the mapper owns the lowercase domain enum.
func templateDataFor(a MitigationAction) map[string]string {
	switch a.SuggestedRecordType {
	case SuggestionCAPA, SuggestionTask:
		t := "CORRECTIVE"
		if a.Timeframe == TimeframePermanent {
			t = "PREVENTIVE"
		}
		return map[string]string{"type": t}
	case SuggestionControlTest:
		return map[string]string{"frequency": "once"}
	default:
		return nil
	}
}

func priorityFromSeverity(r *risks.Risk) SuggestedPriority {
	switch r.Severity {
	case risks.LevelCritical:
		return SuggestedCritical
	case risks.LevelHigh:
		return SuggestedHigh
	case risks.LevelLow:
		return SuggestedLow
	default:
		return SuggestedMedium
	}
}
