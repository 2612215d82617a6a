package risks

import (
	"context"

	"github.com/Gokhanagingil/grc-sub001/internal/domain/controls"
	"github.com/Gokhanagingil/grc-sub001/internal/domain/policies"
)

// Repository port (interface untuk persistence)
// Get excludes soft-deleted rows and rows belonging to another tenant.
type Repository interface {
	Save(ctx context.Context, r *Risk) error
	Get(ctx context.Context, tenant string, id RiskID) (*Risk, error)
	Latest(ctx context.Context, tenant string, limit int) ([]*Risk, error)
	Paginate(ctx context.Context, tenant string, page, pageSize int, filters map[string]interface{}) (PaginatedResult, error)
	Count(ctx context.Context, tenant string, filters map[string]interface{}) (int64, error)
	SoftDelete(ctx context.Context, tenant string, id RiskID) error

	// link management
	LinkControl(ctx context.Context, tenant string, id RiskID, controlID string) error
	LinkPolicy(ctx context.Context, tenant string, id RiskID, policyID string) error
	LinkedControls(ctx context.Context, tenant string, id RiskID) ([]*controls.Control, error)
	LinkedPolicies(ctx context.Context, tenant string, id RiskID) ([]*policies.Policy, error)
}
