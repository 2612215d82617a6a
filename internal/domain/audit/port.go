package audit

import (
	"context"
)

// Repository defines persistence for audit events
type Repository interface {
	Save(ctx context.Context, e *Event) error
	Latest(ctx context.Context, tenant string, limit int) ([]*Event, error)
	ListByEntity(ctx context.Context, tenant string, entityType, entityID string, limit int) ([]*Event, error)
}
