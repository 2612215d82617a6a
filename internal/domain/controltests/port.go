package controltests

import "context"

// Repository port for control tests
type Repository interface {
	Save(ctx context.Context, t *ControlTest) error
	Get(ctx context.Context, tenant string, id ControlTestID) (*ControlTest, error)
	ListByControl(ctx context.Context, tenant string, controlID string, limit int) ([]*ControlTest, error)
}
