package advisory

import "context"

// Provider port for swappable advisory generation strategies.
// A (nil, nil) return is a valid, expected outcome and means "no result,
// fall back to heuristics", not an error.
type Provider interface {
	GenerateAdvisory(ctx context.Context, rc RiskContext) (*AdvisoryResult, error)
	Available() bool
	Name() string
}

// Cache port keyed by (tenant, risk). Put overwrites any prior entry for
// the same key; Get returns (nil, false, nil) on miss or expiry.
type Cache interface {
	Put(ctx context.Context, tenant, riskID string, res *AdvisoryResult) error
	Get(ctx context.Context, tenant, riskID string) (*AdvisoryResult, bool, error)
	Delete(ctx context.Context, tenant, riskID string) error
}

// ArtifactStore port (penyimpanan snapshot untuk audit trail)
type ArtifactStore interface {
	UploadJSON(ctx context.Context, key string, data []byte) (string, error)
}
