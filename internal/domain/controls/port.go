package controls

import "context"

// Repository port for controls; read-mostly from the advisory side
type Repository interface {
	Save(ctx context.Context, c *Control) error
	Get(ctx context.Context, tenant string, id ControlID) (*Control, error)
	Latest(ctx context.Context, tenant string, limit int) ([]*Control, error)
}
