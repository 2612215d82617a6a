package policies

import "context"

// Repository port for policies
type Repository interface {
	Save(ctx context.Context, p *Policy) error
	Get(ctx context.Context, tenant string, id PolicyID) (*Policy, error)
	Latest(ctx context.Context, tenant string, limit int) ([]*Policy, error)
}
