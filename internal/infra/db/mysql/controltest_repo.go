package mysql

import (
	"context"
	"database/sql"
	"errors"
	"time"

	domain "github.com/Gokhanagingil/grc-sub001/internal/domain/controltests"
)

type ControlTestRepository struct {
	db *sql.DB
}

func NewControlTestRepository(db *sql.DB) *ControlTestRepository {
	return &ControlTestRepository{db: db}
}

// Save insert/update ControlTest record
func (r *ControlTestRepository) Save(ctx context.Context, t *domain.ControlTest) error {
	const q = `
INSERT INTO control_tests
(id, tenant_id, control_id, name, test_procedure, frequency, result, created_at)
VALUES (?,?,?,?,?,?,?,?)
ON DUPLICATE KEY UPDATE
 name=VALUES(name), test_procedure=VALUES(test_procedure), frequency=VALUES(frequency), result=VALUES(result);
`
	created := t.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	_, err := r.db.ExecContext(ctx, q,
		t.ID, stringOrDash(t.TenantID), t.ControlID, t.Name, t.Procedure, stringOrDash(t.Frequency), t.Result, created,
	)
	return err
}

// Get by ID + Tenant
func (r *ControlTestRepository) Get(ctx context.Context, tenant string, id domain.ControlTestID) (*domain.ControlTest, error) {
	const q = `
SELECT id, tenant_id, control_id, name, test_procedure, frequency, result, created_at
FROM control_tests
WHERE tenant_id=? AND id=? LIMIT 1;
`
	var t domain.ControlTest
	err := r.db.QueryRowContext(ctx, q, tenant, id).Scan(
		&t.ID, &t.TenantID, &t.ControlID, &t.Name, &t.Procedure, &t.Frequency, &t.Result, &t.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// ListByControl returns the tests recorded against a control, newest first
func (r *ControlTestRepository) ListByControl(ctx context.Context, tenant string, controlID string, limit int) ([]*domain.ControlTest, error) {
	if limit <= 0 {
		limit = 50
	}
	const q = `
SELECT id, tenant_id, control_id, name, test_procedure, frequency, result, created_at
FROM control_tests
WHERE tenant_id=? AND control_id=? ORDER BY created_at DESC LIMIT ?;
`
	rows, err := r.db.QueryContext(ctx, q, tenant, controlID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.ControlTest
	for rows.Next() {
		var t domain.ControlTest
		if err := rows.Scan(&t.ID, &t.TenantID, &t.ControlID, &t.Name, &t.Procedure, &t.Frequency, &t.Result, &t.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &t)
	}
	return out, rows.Err()
}
