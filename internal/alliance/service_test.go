package alliance

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddWritesBothDirections(t *testing.T) {
	store := newMemoryStore()
	svc := NewService(store, discardLogger())
	city, a, b := uuid.New(), uuid.New(), uuid.New()

	require.NoError(t, svc.Add(context.Background(), nil, city, []uuid.UUID{a, b}))

	assert.Equal(t, 4, store.size())
	for _, ally := range []uuid.UUID{a, b} {
		assert.True(t, store.has(city, ally))
		assert.True(t, store.has(ally, city))
	}
	assert.Equal(t, 1, store.inserts, "all edges go in one batch")
}

func TestAddNothing(t *testing.T) {
	store := newMemoryStore()
	svc := NewService(store, discardLogger())

	require.NoError(t, svc.Add(context.Background(), nil, uuid.New(), nil))
	assert.Zero(t, store.inserts)
}

func TestRemoveAllDeletesBothDirections(t *testing.T) {
	store := newMemoryStore()
	svc := NewService(store, discardLogger())
	city, a, b, other := uuid.New(), uuid.New(), uuid.New(), uuid.New()
	require.NoError(t, svc.Add(context.Background(), nil, city, []uuid.UUID{a, b}))
	require.NoError(t, svc.Add(context.Background(), nil, a, []uuid.UUID{other}))

	require.NoError(t, svc.RemoveAll(context.Background(), nil, city, store.outgoing(city)))

	assert.Empty(t, store.outgoing(city))
	assert.False(t, store.has(a, city))
	assert.False(t, store.has(b, city))
	assert.True(t, store.has(a, other), "unrelated alliances survive")
	assert.True(t, store.has(other, a))
	assert.Equal(t, 4, store.deletes)
}

func TestReconcile(t *testing.T) {
	city, a, b, c := uuid.New(), uuid.New(), uuid.New(), uuid.New()

	tests := []struct {
		name        string
		initial     []uuid.UUID
		desired     []uuid.UUID
		wantAdded   []uuid.UUID
		wantRemoved []uuid.UUID
	}{
		{
			name:      "from nothing",
			desired:   []uuid.UUID{a, b},
			wantAdded: []uuid.UUID{a, b},
		},
		{
			name:        "swap one ally",
			initial:     []uuid.UUID{a, b},
			desired:     []uuid.UUID{b, c},
			wantAdded:   []uuid.UUID{c},
			wantRemoved: []uuid.UUID{a},
		},
		{
			name:        "clear",
			initial:     []uuid.UUID{a, b},
			desired:     []uuid.UUID{},
			wantRemoved: []uuid.UUID{a, b},
		},
		{
			name:    "unchanged in different order",
			initial: []uuid.UUID{a, b, c},
			desired: []uuid.UUID{c, a, b},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemoryStore()
			svc := NewService(store, discardLogger())
			require.NoError(t, svc.Add(context.Background(), nil, city, tt.initial))

			diff, err := svc.Reconcile(context.Background(), nil, city, store.outgoing(city), tt.desired)
			require.NoError(t, err)

			assert.ElementsMatch(t, tt.wantAdded, diff.Added)
			assert.ElementsMatch(t, tt.wantRemoved, diff.Removed)
			assert.ElementsMatch(t, tt.desired, AllyUUIDs(store.outgoing(city)))
			for _, ally := range tt.desired {
				assert.True(t, store.has(ally, city), "reverse edge for %s", ally)
			}
			for _, ally := range tt.wantRemoved {
				assert.False(t, store.has(ally, city), "reverse edge for %s", ally)
			}
		})
	}
}

func TestReconcileIsIdempotent(t *testing.T) {
	store := newMemoryStore()
	svc := NewService(store, discardLogger())
	city, a, b := uuid.New(), uuid.New(), uuid.New()
	require.NoError(t, svc.Add(context.Background(), nil, city, []uuid.UUID{a}))

	first, err := svc.Reconcile(context.Background(), nil, city, store.outgoing(city), []uuid.UUID{b})
	require.NoError(t, err)
	require.False(t, first.Empty())

	inserts, deletes := store.inserts, store.deletes
	second, err := svc.Reconcile(context.Background(), nil, city, store.outgoing(city), []uuid.UUID{b})
	require.NoError(t, err)

	assert.True(t, second.Empty())
	assert.Equal(t, inserts, store.inserts)
	assert.Equal(t, deletes, store.deletes)
}

func TestReconcileKeepsUntouchedEdges(t *testing.T) {
	store := newMemoryStore()
	svc := NewService(store, discardLogger())
	city, a, b := uuid.New(), uuid.New(), uuid.New()
	require.NoError(t, svc.Add(context.Background(), nil, city, []uuid.UUID{a}))
	before := store.outgoing(city)

	_, err := svc.Reconcile(context.Background(), nil, city, before, []uuid.UUID{a, b})
	require.NoError(t, err)

	after := store.outgoing(city)
	require.Len(t, after, 2)
	assert.Equal(t, before[0].ID, after[0].ID, "existing edge was not rewritten")
}

func TestReconcileStopsOnStoreFailure(t *testing.T) {
	store := newMemoryStore()
	svc := NewService(store, discardLogger())
	city, a := uuid.New(), uuid.New()
	require.NoError(t, svc.Add(context.Background(), nil, city, []uuid.UUID{a}))
	edges := store.outgoing(city)
	store.failOn = assert.AnError

	_, err := svc.Reconcile(context.Background(), nil, city, edges, nil)
	assert.ErrorIs(t, err, assert.AnError)
}
