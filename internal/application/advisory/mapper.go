package advisory

import (
	"fmt"
	"strings"
	"time"

	appcapa "github.com/Gokhanagingil/grc-sub001/internal/application/capa"
	domain "github.com/Gokhanagingil/grc-sub001/internal/domain/advisory"
	capadomain "github.com/Gokhanagingil/grc-sub001/internal/domain/capa"
)

// semanticCAPATypes maps the engine's uppercase semantic tokens onto the
// stored lowercase enum. Lookups are case-insensitive; the stored values
// themselves are accepted too so overrides may pass domain values directly.
var semanticCAPATypes = map[string]capadomain.CAPAType{
	"CORRECTIVE":            capadomain.TypeCorrective,
	"PREVENTIVE":            capadomain.TypePreventive,
	"CORRECTIVE_PREVENTIVE": capadomain.TypeBoth,
	"BOTH":                  capadomain.TypeBoth,
}

var semanticPriorities = map[string]capadomain.Priority{
	"LOW":      capadomain.PriorityLow,
	"MEDIUM":   capadomain.PriorityMedium,
	"HIGH":     capadomain.PriorityHigh,
	"CRITICAL": capadomain.PriorityCritical,
}

// ResolveCAPAType resolves a semantic type token into the stored enum.
// Absent/blank input defaults to corrective (the safest value). An
// unrecognized non-blank token returns ok=false, never a silent default,
// so the caller can surface a typed error.
func ResolveCAPAType(raw string) (capadomain.CAPAType, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return capadomain.TypeCorrective, true
	}
	if t, ok := semanticCAPATypes[strings.ToUpper(trimmed)]; ok {
		return t, true
	}
	return "", false
}

// ResolvePriority resolves a semantic priority token. Unknown values fall
// back to medium; this path never errors.
func ResolvePriority(raw string) capadomain.Priority {
	if p, ok := semanticPriorities[strings.ToUpper(strings.TrimSpace(raw))]; ok {
		return p
	}
	return capadomain.PriorityMedium
}

// ValidateCAPAType reports whether the resolved value is a member of the
// stored enum.
func ValidateCAPAType(t capadomain.CAPAType) bool {
	return capadomain.ValidType(t)
}

// ResolveEffectiveTargetType maps the UI-facing suggestion type onto the
// record type actually created. TASK is a domain alias for CAPA (no
// standalone task entity exists), so failure messages must attribute errors
// to CAPA, not to the type the user clicked.
func ResolveEffectiveTargetType(requested domain.SuggestionType) domain.SuggestionType {
	if requested == domain.SuggestionTask {
		return domain.SuggestionCAPA
	}
	return requested
}

// DraftOverride carries optional per-suggestion user overrides
type DraftOverride struct {
	Title       string     `json:"title,omitempty"`
	Description string     `json:"description,omitempty"`
	Priority    string     `json:"priority,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
}

// BuildCAPAPayload maps a suggestion (plus optional overrides) into a
// validated CAPA creation command. It never returns a Go error: mapping
// failures come back as a structured DraftError so the caller can aggregate
// partial failures without per-item exception handling.
func BuildCAPAPayload(tenant, riskID string, s *domain.SuggestedRecord, ov *DraftOverride) (appcapa.CreateCommand, *domain.DraftError) {
	title := s.Title
	description := s.Description
	rawPriority := string(s.Priority)
	var dueDate *time.Time
	if ov != nil {
		if ov.Title != "" {
			title = ov.Title
		}
		if ov.Description != "" {
			description = ov.Description
		}
		if ov.Priority != "" {
			rawPriority = ov.Priority
		}
		dueDate = ov.DueDate
	}

	if strings.TrimSpace(title) == "" {
		return appcapa.CreateCommand{}, &domain.DraftError{
			Code:             domain.CodeInvalidPayload,
			UserMessage:      "The suggestion has no title; provide one before creating the record.",
			TechnicalMessage: fmt.Sprintf("suggestion %s: empty title after overrides", s.ID),
		}
	}

	capaType, ok := ResolveCAPAType(s.TemplateData["type"])
	if !ok {
		return appcapa.CreateCommand{}, &domain.DraftError{
			Code:             domain.CodeUnresolvedCAPAType,
			UserMessage:      "The suggested CAPA type is not recognized.",
			TechnicalMessage: fmt.Sprintf("suggestion %s: unresolved semantic type %q", s.ID, s.TemplateData["type"]),
		}
	}
	if !ValidateCAPAType(capaType) {
		return appcapa.CreateCommand{}, &domain.DraftError{
			Code:             domain.CodeInvalidPayload,
			UserMessage:      "The resolved CAPA type is not valid.",
			TechnicalMessage: fmt.Sprintf("suggestion %s: resolved type %q outside domain enum", s.ID, capaType),
		}
	}

	return appcapa.CreateCommand{
		TenantID:    tenant,
		RiskID:      riskID,
		Title:       title,
		Description: description,
		Type:        capaType,
		Priority:    ResolvePriority(rawPriority),
		Source:      capadomain.SourceAdvisory,
		DueDate:     dueDate,
	}, nil
}
