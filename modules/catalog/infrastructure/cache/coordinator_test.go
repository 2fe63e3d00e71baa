package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Names []string `json:"names"`
}

func newTestCoordinator(store Store) *Coordinator {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return NewCoordinator(store, time.Minute, log)
}

func TestCoordinator_ReadThrough(t *testing.T) {
	ctx := context.Background()
	c := newTestCoordinator(NewMemoryStore())
	tenantID := uuid.New()

	loads := 0
	load := func(ctx context.Context) (payload, error) {
		loads++
		return payload{Names: []string{"Electronics"}}, nil
	}

	first, err := GetOrLoad(ctx, c, tenantID, "subtree", "root", load)
	require.NoError(t, err)
	assert.Equal(t, []string{"Electronics"}, first.Names)
	assert.Equal(t, 1, loads)

	second, err := GetOrLoad(ctx, c, tenantID, "subtree", "root", load)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, loads, "second read must be served from cache")
}

func TestCoordinator_InvalidateOrphansAllShapes(t *testing.T) {
	ctx := context.Background()
	c := newTestCoordinator(NewMemoryStore())
	tenantID := uuid.New()

	loads := 0
	load := func(ctx context.Context) (payload, error) {
		loads++
		return payload{Names: []string{fmt.Sprintf("v%d", loads)}}, nil
	}

	for _, shape := range []string{"subtree", "ancestors", "products"} {
		_, err := GetOrLoad(ctx, c, tenantID, shape, "x", load)
		require.NoError(t, err)
	}
	require.Equal(t, 3, loads)

	c.Invalidate(ctx, tenantID)

	for _, shape := range []string{"subtree", "ancestors", "products"} {
		_, err := GetOrLoad(ctx, c, tenantID, shape, "x", load)
		require.NoError(t, err)
	}
	assert.Equal(t, 6, loads, "every shape reloads after invalidation")
}

func TestCoordinator_InvalidateScopedToTenant(t *testing.T) {
	ctx := context.Background()
	c := newTestCoordinator(NewMemoryStore())
	tenantA := uuid.New()
	tenantB := uuid.New()

	loads := 0
	load := func(ctx context.Context) (payload, error) {
		loads++
		return payload{}, nil
	}

	_, err := GetOrLoad(ctx, c, tenantA, "subtree", "x", load)
	require.NoError(t, err)
	_, err = GetOrLoad(ctx, c, tenantB, "subtree", "x", load)
	require.NoError(t, err)
	require.Equal(t, 2, loads)

	c.Invalidate(ctx, tenantA)

	_, err = GetOrLoad(ctx, c, tenantB, "subtree", "x", load)
	require.NoError(t, err)
	assert.Equal(t, 2, loads, "other tenants keep their entries")

	_, err = GetOrLoad(ctx, c, tenantA, "subtree", "x", load)
	require.NoError(t, err)
	assert.Equal(t, 3, loads)
}

// A loader that races with a mutation must not poison the cache: its result
// lands under the generation observed before the load, which no reader uses
// after the bump.
func TestCoordinator_StaleFillUnreachableAfterInvalidate(t *testing.T) {
	ctx := context.Background()
	c := newTestCoordinator(NewMemoryStore())
	tenantID := uuid.New()

	stale := func(ctx context.Context) (payload, error) {
		// mutation commits and invalidates while this read is in flight
		c.Invalidate(ctx, tenantID)
		return payload{Names: []string{"stale"}}, nil
	}
	got, err := GetOrLoad(ctx, c, tenantID, "subtree", "x", stale)
	require.NoError(t, err)
	assert.Equal(t, []string{"stale"}, got.Names, "the racing caller still gets its own read")

	fresh, err := GetOrLoad(ctx, c, tenantID, "subtree", "x", func(ctx context.Context) (payload, error) {
		return payload{Names: []string{"fresh"}}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"fresh"}, fresh.Names, "post-mutation readers never see the stale fill")
}

type brokenStore struct{}

func (brokenStore) Get(context.Context, string) ([]byte, error) {
	return nil, fmt.Errorf("store down")
}

func (brokenStore) Set(context.Context, string, []byte, time.Duration) error {
	return fmt.Errorf("store down")
}

func (brokenStore) SetNX(context.Context, string, []byte, time.Duration) (bool, error) {
	return false, fmt.Errorf("store down")
}

func (brokenStore) Incr(context.Context, string) (int64, error) {
	return 0, fmt.Errorf("store down")
}

func TestCoordinator_DegradesToLoadWhenStoreDown(t *testing.T) {
	ctx := context.Background()
	c := newTestCoordinator(brokenStore{})
	tenantID := uuid.New()

	got, err := GetOrLoad(ctx, c, tenantID, "subtree", "x", func(ctx context.Context) (payload, error) {
		return payload{Names: []string{"db"}}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"db"}, got.Names)

	// invalidation on a dead store must not fail the mutation path
	c.Invalidate(ctx, tenantID)
}

func TestMemoryStore_TTL(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.Set(ctx, "k", []byte("v"), time.Nanosecond))
	time.Sleep(5 * time.Millisecond)

	_, err := s.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestMemoryStore_Incr(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	n, err := s.Incr(ctx, "counter")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = s.Incr(ctx, "counter")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestMemoryStore_SetNX(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	ok, err := s.SetNX(ctx, "k", []byte("a"), 0)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.SetNX(ctx, "k", []byte("b"), 0)
	require.NoError(t, err)
	assert.False(t, ok)

	val, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("a"), val)
}
