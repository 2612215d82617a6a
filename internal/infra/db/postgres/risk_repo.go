package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/Gokhanagingil/grc-sub001/internal/domain/controls"
	"github.com/Gokhanagingil/grc-sub001/internal/domain/policies"
	domain "github.com/Gokhanagingil/grc-sub001/internal/domain/risks"
)

type RiskRepository struct {
	db *sql.DB
}

func NewRiskRepository(db *sql.DB) *RiskRepository {
	return &RiskRepository{db: db}
}

const riskColumns = `id, tenant_id, title, description, category, severity, likelihood, impact,
       inherent_score, residual_score, status, owner_email, created_at, updated_at, deleted_at`

// Save insert/update Risk record
func (r *RiskRepository) Save(ctx context.Context, s *domain.Risk) error {
	const q = `
INSERT INTO risks
(id, tenant_id, title, description, category, severity, likelihood, impact,
 inherent_score, residual_score, status, owner_email, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
ON CONFLICT (id) DO UPDATE SET
 title = EXCLUDED.title,
 description = EXCLUDED.description,
 category = EXCLUDED.category,
 severity = EXCLUDED.severity,
 likelihood = EXCLUDED.likelihood,
 impact = EXCLUDED.impact,
 inherent_score = EXCLUDED.inherent_score,
 residual_score = EXCLUDED.residual_score,
 status = EXCLUDED.status,
 owner_email = EXCLUDED.owner_email,
 updated_at = EXCLUDED.updated_at;`

	tenant := stringOrDash(s.TenantID)
	status := stringOrDash(string(s.Status))
	created := s.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	updated := s.UpdatedAt
	if updated.IsZero() {
		updated = created
	}

	_, err := r.db.ExecContext(ctx, q,
		s.ID, tenant, s.Title, s.Description, s.Category, s.Severity, s.Likelihood, s.Impact,
		s.InherentScore, s.ResidualScore, status, s.OwnerEmail, created, updated,
	)
	return err
}

// Get by ID + Tenant; soft-deleted rows behave like missing rows
func (r *RiskRepository) Get(ctx context.Context, tenant string, id domain.RiskID) (*domain.Risk, error) {
	const q = `
SELECT ` + riskColumns + `
FROM risks
WHERE tenant_id=$1 AND id=$2 AND deleted_at IS NULL
LIMIT 1;`
	row := r.db.QueryRowContext(ctx, q, tenant, id)
	s, err := scanRisk(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return s, err
}

// Latest risks per tenant
func (r *RiskRepository) Latest(ctx context.Context, tenant string, limit int) ([]*domain.Risk, error) {
	if limit <= 0 {
		limit = 20
	}
	const q = `
SELECT ` + riskColumns + `
FROM risks
WHERE tenant_id=$1 AND deleted_at IS NULL ORDER BY created_at DESC
LIMIT $2;`
	rows, err := r.db.QueryContext(ctx, q, tenant, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Risk
	for rows.Next() {
		s, err := scanRisk(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Paginate with offset + limit (classic pagination)
func (r *RiskRepository) Paginate(ctx context.Context, tenant string, page, pageSize int, filters map[string]interface{}) (domain.PaginatedResult, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	query := `
SELECT ` + riskColumns + `
FROM risks
WHERE tenant_id=$1 AND deleted_at IS NULL`
	args := []interface{}{tenant}
	next := 2
	query, args, next = appendRiskFilters(query, args, next, filters)

	query += fmt.Sprintf("\n ORDER BY created_at DESC LIMIT $%d OFFSET $%d", next, next+1)
	args = append(args, pageSize, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return domain.PaginatedResult{}, fmt.Errorf("querying risks: %w", err)
	}
	defer rows.Close()

	var risks []*domain.Risk
	for rows.Next() {
		s, err := scanRisk(rows)
		if err != nil {
			return domain.PaginatedResult{}, fmt.Errorf("scanning row: %w", err)
		}
		risks = append(risks, s)
	}
	if err = rows.Err(); err != nil {
		return domain.PaginatedResult{}, fmt.Errorf("iterating rows: %w", err)
	}

	total, err := r.Count(ctx, tenant, filters)
	if err != nil {
		return domain.PaginatedResult{}, fmt.Errorf("getting total count: %w", err)
	}

	return domain.PaginatedResult{
		Data:       risks,
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: int(math.Ceil(float64(total) / float64(pageSize))),
	}, nil
}

// Count returns the total number of records matching the given filters
func (r *RiskRepository) Count(ctx context.Context, tenant string, filters map[string]interface{}) (int64, error) {
	query := "SELECT COUNT(*) FROM risks WHERE tenant_id = $1 AND deleted_at IS NULL"
	args := []interface{}{tenant}
	next := 2
	query, args, _ = appendRiskFilters(query, args, next, filters)

	var count int64
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// SoftDelete marks the risk deleted; the row stays for the audit trail
func (r *RiskRepository) SoftDelete(ctx context.Context, tenant string, id domain.RiskID) error {
	const q = `
UPDATE risks SET deleted_at = $1 WHERE tenant_id = $2 AND id = $3 AND deleted_at IS NULL;`
	_, err := r.db.ExecContext(ctx, q, time.Now(), tenant, id)
	return err
}

// LinkControl attaches a control via the risk_controls join table
func (r *RiskRepository) LinkControl(ctx context.Context, tenant string, id domain.RiskID, controlID string) error {
	const q = `
INSERT INTO risk_controls (tenant_id, risk_id, control_id)
VALUES ($1,$2,$3)
ON CONFLICT (tenant_id, risk_id, control_id) DO NOTHING;`
	_, err := r.db.ExecContext(ctx, q, tenant, id, controlID)
	return err
}

// LinkPolicy attaches a policy via the risk_policies join table
func (r *RiskRepository) LinkPolicy(ctx context.Context, tenant string, id domain.RiskID, policyID string) error {
	const q = `
INSERT INTO risk_policies (tenant_id, risk_id, policy_id)
VALUES ($1,$2,$3)
ON CONFLICT (tenant_id, risk_id, policy_id) DO NOTHING;`
	_, err := r.db.ExecContext(ctx, q, tenant, id, policyID)
	return err
}

// LinkedControls returns the controls joined to the risk
func (r *RiskRepository) LinkedControls(ctx context.Context, tenant string, id domain.RiskID) ([]*controls.Control, error) {
	const q = `
SELECT c.id, c.tenant_id, c.name, c.description, c.control_type, c.status, c.effectiveness, c.created_at
FROM controls c
JOIN risk_controls rc ON rc.control_id = c.id AND rc.tenant_id = c.tenant_id
WHERE rc.tenant_id=$1 AND rc.risk_id=$2
ORDER BY c.created_at DESC;`
	rows, err := r.db.QueryContext(ctx, q, tenant, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*controls.Control
	for rows.Next() {
		var c controls.Control
		if err := rows.Scan(&c.ID, &c.TenantID, &c.Name, &c.Description, &c.ControlType, &c.Status, &c.Effectiveness, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &c)
	}
	return out, rows.Err()
}

// LinkedPolicies returns the policies joined to the risk
func (r *RiskRepository) LinkedPolicies(ctx context.Context, tenant string, id domain.RiskID) ([]*policies.Policy, error) {
	const q = `
SELECT p.id, p.tenant_id, p.name, p.description, p.version, p.status, p.created_at
FROM policies p
JOIN risk_policies rp ON rp.policy_id = p.id AND rp.tenant_id = p.tenant_id
WHERE rp.tenant_id=$1 AND rp.risk_id=$2
ORDER BY p.created_at DESC;`
	rows, err := r.db.QueryContext(ctx, q, tenant, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*policies.Policy
	for rows.Next() {
		var p policies.Policy
		if err := rows.Scan(&p.ID, &p.TenantID, &p.Name, &p.Description, &p.Version, &p.Status, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &p)
	}
	return out, rows.Err()
}

func appendRiskFilters(query string, args []interface{}, next int, filters map[string]interface{}) (string, []interface{}, int) {
	if filters == nil {
		return query, args, next
	}
	for key, value := range filters {
		switch key {
		case "category":
			query += fmt.Sprintf(" AND category = $%d", next)
			args = append(args, value)
			next++
		case "status":
			query += fmt.Sprintf(" AND status = $%d", next)
			args = append(args, value)
			next++
		case "severity":
			query += fmt.Sprintf(" AND severity = $%d", next)
			args = append(args, value)
			next++
		case "title":
			term, _ := value.(string)
			query += fmt.Sprintf(" AND title ILIKE $%d", next)
			args = append(args, "%"+term+"%")
			next++
		}
	}
	return query, args, next
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRisk(row rowScanner) (*domain.Risk, error) {
	var s domain.Risk
	var deleted sql.NullTime
	if err := row.Scan(
		&s.ID, &s.TenantID, &s.Title, &s.Description, &s.Category, &s.Severity, &s.Likelihood, &s.Impact,
		&s.InherentScore, &s.ResidualScore, &s.Status, &s.OwnerEmail, &s.CreatedAt, &s.UpdatedAt, &deleted,
	); err != nil {
		return nil, err
	}
	if deleted.Valid {
		t := deleted.Time
		s.DeletedAt = &t
	}
	return &s, nil
}
