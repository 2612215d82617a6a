package capa

import "context"

// Repository port for CAPA records
type Repository interface {
	Save(ctx context.Context, c *CAPA) error
	Get(ctx context.Context, tenant string, id CAPAID) (*CAPA, error)
	Latest(ctx context.Context, tenant string, limit int) ([]*CAPA, error)
	ListByRisk(ctx context.Context, tenant string, riskID string, limit int) ([]*CAPA, error)
	UpdateStatus(ctx context.Context, tenant string, id CAPAID, status Status) error
}
