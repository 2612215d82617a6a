package mysql

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
VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?)
ON DUPLICATE KEY UPDATE
 title=VALUES(title), description=VALUES(description), category=VALUES(category),
 severity=VALUES(severity), likelihood=VALUES(likelihood), impact=VALUES(impact),
 inherent_score=VALUES(inherent_score), residual_score=VALUES(residual_score),
 status=VALUES(status), owner_email=VALUES(owner_email), updated_at=VALUES(updated_at);
`
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
WHERE tenant_id=? AND id=? AND deleted_at IS NULL LIMIT 1;
`
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
WHERE tenant_id=? AND deleted_at IS NULL ORDER BY created_at DESC LIMIT ?;
`
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
WHERE tenant_id=? AND deleted_at IS NULL`
	args := []interface{}{tenant}
	query, args = appendRiskFilters(query, args, filters)

	query += "\n ORDER BY created_at DESC LIMIT ? OFFSET ?"
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
	query := "SELECT COUNT(*) FROM risks WHERE tenant_id = ? AND deleted_at IS NULL"
	args := []interface{}{tenant}
	query, args = appendRiskFilters(query, args, filters)

	var count int64
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// SoftDelete marks the risk deleted; the row stays for the audit trail
func (r *RiskRepository) SoftDelete(ctx context.Context, tenant string, id domain.RiskID) error {
	const q = `
UPDATE risks SET deleted_at = ? WHERE tenant_id = ? AND id = ? AND deleted_at IS NULL;`
	_, err := r.db.ExecContext(ctx, q, time.Now(), tenant, id)
	return err
}

// LinkControl attaches a control via the risk_controls join table
func (r *RiskRepository) LinkControl(ctx context.Context, tenant string, id domain.RiskID, controlID string) error {
	const q = `
INSERT INTO risk_controls (tenant_id, risk_id, control_id)
VALUES (?,?,?)
ON DUPLICATE KEY UPDATE control_id=VALUES(control_id);`
	_, err := r.db.ExecContext(ctx, q, tenant, id, controlID)
	return err
}

// LinkPolicy attaches a policy via the risk_policies join table
func (r *RiskRepository) LinkPolicy(ctx context.Context, tenant string, id domain.RiskID, policyID string) error {
	const q = `
INSERT INTO risk_policies (tenant_id, risk_id, policy_id)
VALUES (?,?,?)
ON DUPLICATE KEY UPDATE policy_id=VALUES(policy_id);`
	_, err := r.db.ExecContext(ctx, q, tenant, id, policyID)
	return err
}

// LinkedControls returns the controls joined to the risk
func (r *RiskRepository) LinkedControls(ctx context.Context, tenant string, id domain.RiskID) ([]*controls.Control, error) {
	const q = `
SELECT c.id, c.tenant_id, c.name, c.description, c.control_type, c.status, c.effectiveness, c.created_at
FROM controls c
JOIN risk_controls rc ON rc.control_id = c.id AND rc.tenant_id = c.tenant_id
WHERE rc.tenant_id=? AND rc.risk_id=?
ORDER BY c.created_at DESC;
`
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
WHERE rp.tenant_id=? AND rp.risk_id=?
ORDER BY p.created_at DESC;
`
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

// appendRiskFilters adds the supported filters to a risk query
func appendRiskFilters(query string, args []interface{}, filters map[string]interface{}) (string, []interface{}) {
	if filters == nil {
		return query, args
	}
	for key, value := range filters {
		switch key {
		case "category":
			query += " AND category = ?"
			args = append(args, value)
		case "status":
			query += " AND status = ?"
			args = append(args, value)
		case "severity":
			query += " AND severity = ?"
			args = append(args, value)
		case "title":
			// Use LIKE with wildcards - sanitize input to prevent SQL injection
			query += " AND title LIKE ?"
			searchTerm, _ := value.(string)
			searchTerm = escapeLikePattern(searchTerm)
			args = append(args, "%"+searchTerm+"%")
		}
	}
	return query, args
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
