package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	domain "github.com/Gokhanagingil/grc-sub001/internal/domain/advisory"
	"github.com/Gokhanagingil/grc-sub001/internal/infra/ai/prompt"
)

const maxTokens = 2048

// Provider generates advisories through the OpenAI chat completion API.
// It is only available when an API key is configured; unavailable calls
// return (nil, nil) so the caller falls back to the heuristics engine.
type Provider struct {
	client *openai.Client
	model  string
}

func NewProvider(apiKey, model string) *Provider {
	p := &Provider{model: model}
	if apiKey != "" {
		p.client = openai.NewClient(apiKey)
	}
	return p
}

func (p *Provider) Available() bool { return p.client != nil }

func (p *Provider) Name() string { return "openai" }

// reply mirrors the JSON schema demanded by the system prompt
type reply struct {
	RiskTheme      string  `json:"risk_theme"`
	Confidence     float64 `json:"confidence"`
	MitigationPlan struct {
		Immediate    []replyAction `json:"immediate"`
		ShortTerm    []replyAction `json:"short_term"`
		Permanent    []replyAction `json:"permanent"`
		Verification []replyAction `json:"verification"`
	} `json:"mitigation_plan"`
	Warnings    []string `json:"warnings"`
	Assumptions []string `json:"assumptions"`
}

type replyAction struct {
	Action              string `json:"action"`
	Priority            string `json:"priority"`
	SuggestedRecordType string `json:"suggested_record_type"`
}

func (p *Provider) GenerateAdvisory(ctx context.Context, rc domain.RiskContext) (*domain.AdvisoryResult, error) {
	if p.client == nil {
		return nil, nil
	}

	model := p.model
	if model == "" {
		model = "gpt-4o-mini"
	}
	req := openai.ChatCompletionRequest{
		Model: model,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: prompt.GetSystemPrompt()},
			{Role: openai.ChatMessageRoleUser, Content: prompt.GetUserPrompt(rc)},
		},
	}
	// For reasoning models (o1/o3/o4/gpt-5*) use MaxCompletionTokens instead of MaxTokens
	if strings.HasPrefix(model, "o1") || strings.HasPrefix(model, "o3") || strings.HasPrefix(model, "o4") || strings.HasPrefix(model, "gpt-5") {
		req.MaxCompletionTokens = maxTokens
	} else {
		req.MaxTokens = maxTokens
	}

	resp, err := p.client.CreateChatCompletion(ctx, req)
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == 429 {
			return nil, domain.ErrQuotaExceeded
		}
		return nil, fmt.Errorf("failed to create chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, nil
	}

	var r reply
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &r); err != nil {
		return nil, fmt.Errorf("decoding advisory reply: %w", err)
	}
	return toResult(rc, r), nil
}

func toResult(rc domain.RiskContext, r reply) *domain.AdvisoryResult {
	res := &domain.AdvisoryResult{
		Source:        "ai",
		Theme:         parseTheme(r.RiskTheme),
		Confidence:    clamp(r.Confidence),
		Warnings:      r.Warnings,
		Assumptions:   r.Assumptions,
		SchemaVersion: domain.SchemaVersion,
	}
	res.Plan = domain.MitigationPlan{
		Immediate:    toActions(r.MitigationPlan.Immediate, domain.TimeframeImmediate),
		ShortTerm:    toActions(r.MitigationPlan.ShortTerm, domain.TimeframeShortTerm),
		Permanent:    toActions(r.MitigationPlan.Permanent, domain.TimeframePermanent),
		Verification: toActions(r.MitigationPlan.Verification, domain.TimeframeVerification),
	}
	res.Suggestions = domain.SuggestionsFromPlan(string(rc.Risk.ID), res.Plan)
	res.Explanations = []domain.Explanation{
		{Signal: "provider", Detail: "generated by the openai advisory provider"},
	}
	return res
}

func toActions(in []replyAction, tf domain.Timeframe) []domain.MitigationAction {
	var out []domain.MitigationAction
	for _, a := range in {
		if strings.TrimSpace(a.Action) == "" {
			continue
		}
		out = append(out, domain.MitigationAction{
			Action:              a.Action,
			Timeframe:           tf,
			SuggestedRecordType: parseSuggestionType(a.SuggestedRecordType),
			Priority:            parsePriority(a.Priority),
		})
	}
	return out
}

func parseTheme(s string) domain.RiskTheme {
	t := domain.RiskTheme(strings.ToUpper(strings.TrimSpace(s)))
	switch t {
	case domain.ThemePatching, domain.ThemeAccessControl, domain.ThemeDataProtection,
		domain.ThemeContinuity, domain.ThemeThirdParty, domain.ThemeCompliance:
		return t
	default:
		return domain.ThemeGeneral
	}
}

func parseSuggestionType(s string) domain.SuggestionType {
	t := domain.SuggestionType(strings.ToUpper(strings.TrimSpace(s)))
	switch t {
	case domain.SuggestionCAPA, domain.SuggestionControlTest, domain.SuggestionChange, domain.SuggestionTask:
		return t
	default:
		return domain.SuggestionCAPA
	}
}

func parsePriority(s string) domain.SuggestedPriority {
	p := domain.SuggestedPriority(strings.ToUpper(strings.TrimSpace(s)))
	switch p {
	case domain.SuggestedLow, domain.SuggestedMedium, domain.SuggestedHigh, domain.SuggestedCritical:
		return p
	default:
		return domain.SuggestedMedium
	}
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
