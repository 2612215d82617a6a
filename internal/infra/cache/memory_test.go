package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/Gokhanagingil/grc-sub001/internal/domain/advisory"
)

func result(id string) *domain.AdvisoryResult {
	return &domain.AdvisoryResult{
		ID:            domain.AnalysisID(id),
		Theme:         domain.ThemePatching,
		SchemaVersion: domain.SchemaVersion,
	}
}

func TestMemoryPutGet(t *testing.T) {
	m := NewMemory(time.Minute)
	ctx := context.Background()

	_, ok, err := m.Get(ctx, "acme", "r1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, m.Put(ctx, "acme", "r1", result("a")))
	got, ok, err := m.Get(ctx, "acme", "r1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, domain.AnalysisID("a"), got.ID)

	// keys are tenant-scoped
	_, ok, err = m.Get(ctx, "other", "r1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryOverwrite(t *testing.T) {
	m := NewMemory(time.Minute)
	ctx := context.Background()

	require.NoError(t, m.Put(ctx, "acme", "r1", result("a")))
	require.NoError(t, m.Put(ctx, "acme", "r1", result("b")))

	got, ok, err := m.Get(ctx, "acme", "r1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, domain.AnalysisID("b"), got.ID)
}

func TestMemoryExpiry(t *testing.T) {
	m := NewMemory(10 * time.Millisecond)
	ctx := context.Background()

	require.NoError(t, m.Put(ctx, "acme", "r1", result("a")))
	time.Sleep(25 * time.Millisecond)

	_, ok, err := m.Get(ctx, "acme", "r1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryDelete(t *testing.T) {
	m := NewMemory(time.Minute)
	ctx := context.Background()

	require.NoError(t, m.Put(ctx, "acme", "r1", result("a")))
	require.NoError(t, m.Delete(ctx, "acme", "r1"))

	_, ok, err := m.Get(ctx, "acme", "r1")
	require.NoError(t, err)
	assert.False(t, ok)
}
