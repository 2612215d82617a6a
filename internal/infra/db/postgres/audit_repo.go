package postgres

import (
	"context"
	"database/sql"
	"time"

	domain "github.com/Gokhanagingil/grc-sub001/internal/domain/audit"
)

type AuditRepository struct {
	db *sql.DB
}

func NewAuditRepository(db *sql.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// Save appends an audit event; events are never updated
func (r *AuditRepository) Save(ctx context.Context, e *domain.Event) error {
	const q = `
INSERT INTO audit_events
(tenant_id, action, entity_type, entity_id, details_json, artifact_url, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)
RETURNING id;`

	created := e.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	return r.db.QueryRowContext(ctx, q,
		stringOrDash(e.TenantID), e.Action, e.EntityType, e.EntityID, e.DetailsJSON, e.ArtifactURL, created,
	).Scan(&e.ID)
}

// Latest events per tenant
func (r *AuditRepository) Latest(ctx context.Context, tenant string, limit int) ([]*domain.Event, error) {
	if limit <= 0 {
		limit = 50
	}
	const q = `
SELECT id, tenant_id, action, entity_type, entity_id, details_json, artifact_url, created_at
FROM audit_events
WHERE tenant_id=$1 ORDER BY id DESC
LIMIT $2;`
	return r.queryEvents(ctx, q, tenant, limit)
}

// ListByEntity returns the trail for one entity, newest first
func (r *AuditRepository) ListByEntity(ctx context.Context, tenant string, entityType, entityID string, limit int) ([]*domain.Event, error) {
	if limit <= 0 {
		limit = 50
	}
	const q = `
SELECT id, tenant_id, action, entity_type, entity_id, details_json, artifact_url, created_at
FROM audit_events
WHERE tenant_id=$1 AND entity_type=$2 AND entity_id=$3 ORDER BY id DESC
LIMIT $4;`
	return r.queryEvents(ctx, q, tenant, entityType, entityID, limit)
}

func (r *AuditRepository) queryEvents(ctx context.Context, q string, args ...interface{}) ([]*domain.Event, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Event
	for rows.Next() {
		var e domain.Event
		var details, artifact sql.NullString
		if err := rows.Scan(&e.ID, &e.TenantID, &e.Action, &e.EntityType, &e.EntityID, &details, &artifact, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.DetailsJSON = details.String
		e.ArtifactURL = artifact.String
		out = append(out, &e)
	}
	return out, rows.Err()
}
