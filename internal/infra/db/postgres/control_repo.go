package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	domain "github.com/Gokhanagingil/grc-sub001/internal/domain/controls"
)

type ControlRepository struct {
	db *sql.DB
}

func NewControlRepository(db *sql.DB) *ControlRepository {
	return &ControlRepository{db: db}
}

// Save insert/update Control record
func (r *ControlRepository) Save(ctx context.Context, c *domain.Control) error {
	const q = `
INSERT INTO controls
(id, tenant_id, name, description, control_type, status, effectiveness, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
ON CONFLICT (id) DO UPDATE SET
 name = EXCLUDED.name,
 description = EXCLUDED.description,
 control_type = EXCLUDED.control_type,
 status = EXCLUDED.status,
 effectiveness = EXCLUDED.effectiveness;`

	created := c.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	_, err := r.db.ExecContext(ctx, q,
		c.ID, stringOrDash(c.TenantID), c.Name, c.Description, c.ControlType, c.Status,
		stringOrDash(c.Effectiveness), created,
	)
	return err
}

// Get by ID + Tenant
func (r *ControlRepository) Get(ctx context.Context, tenant string, id domain.ControlID) (*domain.Control, error) {
	const q = `
SELECT id, tenant_id, name, description, control_type, status, effectiveness, created_at
FROM controls
WHERE tenant_id=$1 AND id=$2
LIMIT 1;`
	var c domain.Control
	err := r.db.QueryRowContext(ctx, q, tenant, id).Scan(
		&c.ID, &c.TenantID, &c.Name, &c.Description, &c.ControlType, &c.Status, &c.Effectiveness, &c.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Latest controls per tenant
func (r *ControlRepository) Latest(ctx context.Context, tenant string, limit int) ([]*domain.Control, error) {
	if limit <= 0 {
		limit = 20
	}
	const q = `
SELECT id, tenant_id, name, description, control_type, status, effectiveness, created_at
FROM controls
WHERE tenant_id=$1 ORDER BY created_at DESC
LIMIT $2;`
	rows, err := r.db.QueryContext(ctx, q, tenant, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Control
	for rows.Next() {
		var c domain.Control
		if err := rows.Scan(&c.ID, &c.TenantID, &c.Name, &c.Description, &c.ControlType, &c.Status, &c.Effectiveness, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &c)
	}
	return out, rows.Err()
}
