package capa

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/Gokhanagingil/grc-sub001/internal/domain/capa"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

type memRepo struct {
	byID map[domain.CAPAID]*domain.CAPA
}

func newMemRepo() *memRepo {
	return &memRepo{byID: map[domain.CAPAID]*domain.CAPA{}}
}

func (m *memRepo) Save(_ context.Context, c *domain.CAPA) error {
	cp := *c
	m.byID[c.ID] = &cp
	return nil
}

func (m *memRepo) Get(_ context.Context, tenant string, id domain.CAPAID) (*domain.CAPA, error) {
	c, ok := m.byID[id]
	if !ok || c.TenantID != tenant {
		return nil, nil
	}
	return c, nil
}

func (m *memRepo) Latest(context.Context, string, int) ([]*domain.CAPA, error) {
	return nil, nil
}

func (m *memRepo) ListByRisk(context.Context, string, string, int) ([]*domain.CAPA, error) {
	return nil, nil
}

func (m *memRepo) UpdateStatus(_ context.Context, _ string, id domain.CAPAID, status domain.Status) error {
	m.byID[id].Status = status
	return nil
}

func validCommand() CreateCommand {
	return CreateCommand{
		TenantID: "acme",
		RiskID:   "risk-1",
		Title:    "Apply vendor patches",
		Type:     domain.TypeCorrective,
		Priority: domain.PriorityHigh,
		Source:   domain.SourceAdvisory,
	}
}

func TestCreateStampsIdentityAndCode(t *testing.T) {
	now := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
	svc := &Service{Repo: newMemRepo(), Clock: fixedClock{t: now}}

	c, err := svc.Create(context.Background(), validCommand())
	require.NoError(t, err)

	assert.NotEmpty(t, c.ID)
	assert.True(t, strings.HasPrefix(c.Code, "CAPA-"))
	assert.Len(t, c.Code, len("CAPA-")+8)
	assert.Equal(t, domain.StatusOpen, c.Status)
	assert.Equal(t, now, c.CreatedAt)
	assert.Equal(t, now, c.UpdatedAt)
}

func TestCreateRejectsInvalidEnum(t *testing.T) {
	svc := &Service{Repo: newMemRepo(), Clock: fixedClock{t: time.Now()}}

	cmd := validCommand()
	cmd.Type = "urgent"
	_, err := svc.Create(context.Background(), cmd)
	assert.Error(t, err)

	cmd = validCommand()
	cmd.Priority = "ASAP"
	_, err = svc.Create(context.Background(), cmd)
	assert.Error(t, err)

	cmd = validCommand()
	cmd.Title = ""
	_, err = svc.Create(context.Background(), cmd)
	assert.Error(t, err)
}

func TestUpdateStatusTransitions(t *testing.T) {
	repo := newMemRepo()
	svc := &Service{Repo: repo, Clock: fixedClock{t: time.Now()}}

	c, err := svc.Create(context.Background(), validCommand())
	require.NoError(t, err)

	// open -> completed is not allowed
	err = svc.UpdateStatus(context.Background(), "acme", c.ID, domain.StatusCompleted)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	require.NoError(t, svc.UpdateStatus(context.Background(), "acme", c.ID, domain.StatusInProgress))
	require.NoError(t, svc.UpdateStatus(context.Background(), "acme", c.ID, domain.StatusCompleted))
	require.NoError(t, svc.UpdateStatus(context.Background(), "acme", c.ID, domain.StatusVerified))

	// verified is terminal
	err = svc.UpdateStatus(context.Background(), "acme", c.ID, domain.StatusOpen)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestUpdateStatusUnknownCAPA(t *testing.T) {
	svc := &Service{Repo: newMemRepo(), Clock: fixedClock{t: time.Now()}}
	err := svc.UpdateStatus(context.Background(), "acme", "nope", domain.StatusInProgress)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidTransition)
}
