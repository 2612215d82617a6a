package advisory

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/Gokhanagingil/grc-sub001/internal/domain/advisory"
	capadomain "github.com/Gokhanagingil/grc-sub001/internal/domain/capa"
)

func TestResolveCAPAType(t *testing.T) {
	cases := []struct {
		raw    string
		want   capadomain.CAPAType
		wantOK bool
	}{
		{"CORRECTIVE", capadomain.TypeCorrective, true},
		{"corrective", capadomain.TypeCorrective, true},
		{"Preventive", capadomain.TypePreventive, true},
		{"CORRECTIVE_PREVENTIVE", capadomain.TypeBoth, true},
		{"both", capadomain.TypeBoth, true},
		{"  BOTH  ", capadomain.TypeBoth, true},
		{"", capadomain.TypeCorrective, true},
		{"   ", capadomain.TypeCorrective, true},
		{"URGENT", "", false},
		{"corrective-preventive", "", false},
	}
	for _, tc := range cases {
		got, ok := ResolveCAPAType(tc.raw)
		assert.Equal(t, tc.wantOK, ok, "raw %q", tc.raw)
		assert.Equal(t, tc.want, got, "raw %q", tc.raw)
	}
}

func TestResolvePriority(t *testing.T) {
	assert.Equal(t, capadomain.PriorityCritical, ResolvePriority("CRITICAL"))
	assert.Equal(t, capadomain.PriorityLow, ResolvePriority("low"))
	assert.Equal(t, capadomain.PriorityMedium, ResolvePriority("unknown"))
	assert.Equal(t, capadomain.PriorityMedium, ResolvePriority(""))
}

func TestResolveEffectiveTargetType(t *testing.T) {
	assert.Equal(t, domain.SuggestionCAPA, ResolveEffectiveTargetType(domain.SuggestionTask))
	assert.Equal(t, domain.SuggestionCAPA, ResolveEffectiveTargetType(domain.SuggestionCAPA))
	assert.Equal(t, domain.SuggestionChange, ResolveEffectiveTargetType(domain.SuggestionChange))
	assert.Equal(t, domain.SuggestionControlTest, ResolveEffectiveTargetType(domain.SuggestionControlTest))
}

func suggestion() *domain.SuggestedRecord {
	return &domain.SuggestedRecord{
		ID:           "risk-1-capa-01",
		TargetType:   domain.SuggestionCAPA,
		Title:        "Apply vendor security patches",
		Description:  "Apply vendor security patches (suggested)",
		Priority:     domain.SuggestedHigh,
		Timeframe:    domain.TimeframeImmediate,
		TemplateData: map[string]string{"type": "CORRECTIVE"},
	}
}

func TestBuildCAPAPayload(t *testing.T) {
	cmd, derr := BuildCAPAPayload("acme", "risk-1", suggestion(), nil)
	require.Nil(t, derr)

	assert.Equal(t, "acme", cmd.TenantID)
	assert.Equal(t, "risk-1", cmd.RiskID)
	assert.Equal(t, capadomain.TypeCorrective, cmd.Type)
	assert.Equal(t, capadomain.PriorityHigh, cmd.Priority)
	assert.Equal(t, capadomain.SourceAdvisory, cmd.Source)
	assert.Nil(t, cmd.DueDate)
}

func TestBuildCAPAPayloadPreventiveSemantics(t *testing.T) {
	s := suggestion()
	s.TemplateData = map[string]string{"type": "PREVENTIVE"}

	cmd, derr := BuildCAPAPayload("acme", "risk-1", s, nil)
	require.Nil(t, derr)
	assert.Equal(t, capadomain.TypePreventive, cmd.Type)
}

func TestBuildCAPAPayloadAppliesOverrides(t *testing.T) {
	due := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	ov := &DraftOverride{
		Title:    "Custom title",
		Priority: "critical",
		DueDate:  &due,
	}

	cmd, derr := BuildCAPAPayload("acme", "risk-1", suggestion(), ov)
	require.Nil(t, derr)
	assert.Equal(t, "Custom title", cmd.Title)
	assert.Equal(t, capadomain.PriorityCritical, cmd.Priority)
	require.NotNil(t, cmd.DueDate)
	assert.True(t, cmd.DueDate.Equal(due))
}

func TestBuildCAPAPayloadEmptyTitle(t *testing.T) {
	s := suggestion()
	s.Title = "   "

	_, derr := BuildCAPAPayload("acme", "risk-1", s, nil)
	require.NotNil(t, derr)
	assert.Equal(t, domain.CodeInvalidPayload, derr.Code)
}

func TestBuildCAPAPayloadUnresolvedType(t *testing.T) {
	s := suggestion()
	s.TemplateData = map[string]string{"type": "URGENT"}

	_, derr := BuildCAPAPayload("acme", "risk-1", s, nil)
	require.NotNil(t, derr)
	assert.Equal(t, domain.CodeUnresolvedCAPAType, derr.Code)
}

func TestBuildCAPAPayloadMissingTemplateData(t *testing.T) {
	s := suggestion()
	s.TemplateData = nil

	cmd, derr := BuildCAPAPayload("acme", "risk-1", s, nil)
	require.Nil(t, derr)
	assert.Equal(t, capadomain.TypeCorrective, cmd.Type)
}
