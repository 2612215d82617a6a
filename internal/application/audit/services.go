package audit

import (
	"context"

	"github.com/Gokhanagingil/grc-sub001/internal/application"
	domain "github.com/Gokhanagingil/grc-sub001/internal/domain/audit"
)

// Service records audit events. It is an OPTIONAL collaborator of the
// advisory subsystem: callers consult Available() instead of nil-checking
// at every call site, and absence is a supported deployment mode.
type Service struct {
	Repo  domain.Repository
	Clock application.Clock
}

// Available reports whether audit persistence is wired in this deployment
func (s *Service) Available() bool {
	return s != nil && s.Repo != nil
}

// Record persists one audit event; CreatedAt is stamped here
func (s *Service) Record(ctx context.Context, e *domain.Event) error {
	if !s.Available() {
		return nil
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.Clock.Now()
	}
	return s.Repo.Save(ctx, e)
}

// Latest returns the newest events for a tenant
func (s *Service) Latest(ctx context.Context, tenant string, limit int) ([]*domain.Event, error) {
	return s.Repo.Latest(ctx, tenant, limit)
}
