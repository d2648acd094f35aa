package alliance

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"sync"

	"cities-server/internal/shared/database"

	"github.com/google/uuid"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// memoryStore is an EdgeStore over a set of directed pairs
type memoryStore struct {
	mu      sync.Mutex
	edges   map[[2]uuid.UUID]int
	nextID  int
	inserts int
	deletes int
	failOn  error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{edges: make(map[[2]uuid.UUID]int)}
}

func (m *memoryStore) InsertBatch(_ context.Context, edges []Edge, _ *database.Tx) ([]Edge, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failOn != nil {
		return nil, m.failOn
	}
	m.inserts++

	var out []Edge
	for _, e := range edges {
		key := [2]uuid.UUID{e.CityUUID, e.AlliedCityUUID}
		if _, ok := m.edges[key]; ok {
			continue
		}
		m.nextID++
		m.edges[key] = m.nextID
		e.ID = m.nextID
		out = append(out, e)
	}
	return out, nil
}

func (m *memoryStore) DeletePair(_ context.Context, cityUUID, alliedUUID uuid.UUID, _ *database.Tx) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failOn != nil {
		return 0, m.failOn
	}
	m.deletes++

	key := [2]uuid.UUID{cityUUID, alliedUUID}
	if _, ok := m.edges[key]; !ok {
		return 0, nil
	}
	delete(m.edges, key)
	return 1, nil
}

// outgoing returns the edges leaving cityUUID ordered by id
func (m *memoryStore) outgoing(cityUUID uuid.UUID) []Edge {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []Edge
	for key, id := range m.edges {
		if key[0] == cityUUID {
			out = append(out, Edge{ID: id, CityUUID: key[0], AlliedCityUUID: key[1]})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *memoryStore) has(from, to uuid.UUID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.edges[[2]uuid.UUID{from, to}]
	return ok
}

func (m *memoryStore) size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.edges)
}

// staticLookup is a CityLookup over a fixed set of cities
type staticLookup struct {
	cities map[uuid.UUID]struct{}
	calls  int
	err    error
}

func newStaticLookup(ids ...uuid.UUID) *staticLookup {
	l := &staticLookup{cities: make(map[uuid.UUID]struct{})}
	for _, id := range ids {
		l.cities[id] = struct{}{}
	}
	return l
}

func (l *staticLookup) ExistingUUIDs(_ context.Context, ids []uuid.UUID, _ *database.Tx) (map[uuid.UUID]struct{}, error) {
	l.calls++
	if l.err != nil {
		return nil, l.err
	}
	found := make(map[uuid.UUID]struct{})
	for _, id := range ids {
		if _, ok := l.cities[id]; ok {
			found[id] = struct{}{}
		}
	}
	return found, nil
}
