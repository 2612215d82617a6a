package noop

import (
	"context"

	domain "github.com/Gokhanagingil/grc-sub001/internal/domain/advisory"
)

// Provider is the default advisory provider: it is never available and
// never produces a result, forcing the caller onto the heuristics engine.
// It exists as the implemented variant of the provider seam so a future
// generation strategy can be swapped in without touching the orchestration.
type Provider struct{}

func New() *Provider { return &Provider{} }

// GenerateAdvisory always returns (nil, nil): "no result" is a valid,
// expected outcome of the provider contract, not an error.
func (*Provider) GenerateAdvisory(context.Context, domain.RiskContext) (*domain.AdvisoryResult, error) {
	return nil, nil
}

func (*Provider) Available() bool { return false }

func (*Provider) Name() string { return "noop" }
