package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	domain "github.com/Gokhanagingil/grc-sub001/internal/domain/policies"
)

type PolicyRepository struct {
	db *sql.DB
}

func NewPolicyRepository(db *sql.DB) *PolicyRepository {
	return &PolicyRepository{db: db}
}

// Save insert/update Policy record
func (r *PolicyRepository) Save(ctx context.Context, p *domain.Policy) error {
	const q = `
INSERT INTO policies
(id, tenant_id, name, description, version, status, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)
ON CONFLICT (id) DO UPDATE SET
 name = EXCLUDED.name,
 description = EXCLUDED.description,
 version = EXCLUDED.version,
 status = EXCLUDED.status;`

	created := p.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	_, err := r.db.ExecContext(ctx, q,
		p.ID, stringOrDash(p.TenantID), p.Name, p.Description, stringOrDash(p.Version), p.Status, created,
	)
	return err
}

// Get by ID + Tenant
func (r *PolicyRepository) Get(ctx context.Context, tenant string, id domain.PolicyID) (*domain.Policy, error) {
	const q = `
SELECT id, tenant_id, name, description, version, status, created_at
FROM policies
WHERE tenant_id=$1 AND id=$2
LIMIT 1;`
	var p domain.Policy
	err := r.db.QueryRowContext(ctx, q, tenant, id).Scan(
		&p.ID, &p.TenantID, &p.Name, &p.Description, &p.Version, &p.Status, &p.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Latest policies per tenant
func (r *PolicyRepository) Latest(ctx context.Context, tenant string, limit int) ([]*domain.Policy, error) {
	if limit <= 0 {
		limit = 20
	}
	const q = `
SELECT id, tenant_id, name, description, version, status, created_at
FROM policies
WHERE tenant_id=$1 ORDER BY created_at DESC
LIMIT $2;`
	rows, err := r.db.QueryContext(ctx, q, tenant, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Policy
	for rows.Next() {
		var p domain.Policy
		if err := rows.Scan(&p.ID, &p.TenantID, &p.Name, &p.Description, &p.Version, &p.Status, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &p)
	}
	return out, rows.Err()
}
