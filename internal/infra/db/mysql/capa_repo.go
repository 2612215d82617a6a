package mysql

import (
	"context"
	"database/sql"
	"errors"
	"time"

	domain "github.com/Gokhanagingil/grc-sub001/internal/domain/capa"
)

type CAPARepository struct {
	db *sql.DB
}

func NewCAPARepository(db *sql.DB) *CAPARepository {
	return &CAPARepository{db: db}
}

const capaColumns = `id, code, tenant_id, risk_id, title, description, capa_type, priority,
       status, source, due_date, created_at, updated_at`

// Save insert/update CAPA record
func (r *CAPARepository) Save(ctx context.Context, c *domain.CAPA) error {
	const q = `
INSERT INTO capas
(id, code, tenant_id, risk_id, title, description, capa_type, priority, status, source, due_date, created_at, updated_at)
VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)
ON DUPLICATE KEY UPDATE
 title=VALUES(title), description=VALUES(description), capa_type=VALUES(capa_type),
 priority=VALUES(priority), status=VALUES(status), due_date=VALUES(due_date),
 updated_at=VALUES(updated_at);
`
	tenant := stringOrDash(c.TenantID)
	created := c.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	updated := c.UpdatedAt
	if updated.IsZero() {
		updated = created
	}

	var due sql.NullTime
	if c.DueDate != nil {
		due = sql.NullTime{Time: *c.DueDate, Valid: true}
	}

	_, err := r.db.ExecContext(ctx, q,
		c.ID, c.Code, tenant, c.RiskID, c.Title, c.Description, c.Type, c.Priority,
		c.Status, c.Source, due, created, updated,
	)
	return err
}

// Get by ID + Tenant
func (r *CAPARepository) Get(ctx context.Context, tenant string, id domain.CAPAID) (*domain.CAPA, error) {
	const q = `
SELECT ` + capaColumns + `
FROM capas
WHERE tenant_id=? AND id=? LIMIT 1;
`
	row := r.db.QueryRowContext(ctx, q, tenant, id)
	c, err := scanCAPA(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return c, err
}

// Latest CAPAs per tenant
func (r *CAPARepository) Latest(ctx context.Context, tenant string, limit int) ([]*domain.CAPA, error) {
	if limit <= 0 {
		limit = 20
	}
	const q = `
SELECT ` + capaColumns + `
FROM capas
WHERE tenant_id=? ORDER BY created_at DESC LIMIT ?;
`
	return r.queryCAPAs(ctx, q, tenant, limit)
}

// ListByRisk returns the CAPAs attached to a risk, newest first
func (r *CAPARepository) ListByRisk(ctx context.Context, tenant string, riskID string, limit int) ([]*domain.CAPA, error) {
	if limit <= 0 {
		limit = 50
	}
	const q = `
SELECT ` + capaColumns + `
FROM capas
WHERE tenant_id=? AND risk_id=? ORDER BY created_at DESC LIMIT ?;
`
	return r.queryCAPAs(ctx, q, tenant, riskID, limit)
}

// UpdateStatus moves the CAPA to a new status; the caller guards transitions
func (r *CAPARepository) UpdateStatus(ctx context.Context, tenant string, id domain.CAPAID, status domain.Status) error {
	const q = `
UPDATE capas SET status = ?, updated_at = ? WHERE tenant_id = ? AND id = ?;`
	_, err := r.db.ExecContext(ctx, q, status, time.Now(), tenant, id)
	return err
}

func (r *CAPARepository) queryCAPAs(ctx context.Context, q string, args ...interface{}) ([]*domain.CAPA, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.CAPA
	for rows.Next() {
		c, err := scanCAPA(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func scanCAPA(row rowScanner) (*domain.CAPA, error) {
	var c domain.CAPA
	var due sql.NullTime
	if err := row.Scan(
		&c.ID, &c.Code, &c.TenantID, &c.RiskID, &c.Title, &c.Description, &c.Type, &c.Priority,
		&c.Status, &c.Source, &due, &c.CreatedAt, &c.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if due.Valid {
		t := due.Time
		c.DueDate = &t
	}
	return &c, nil
}
