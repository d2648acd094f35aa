package city

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"cities-server/internal/alliance"
	"cities-server/internal/shared/database"

	"github.com/google/uuid"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// memoryWorld stores cities and edges in memory. It implements Store,
// EdgeReader, alliance.EdgeStore and alliance.CityLookup.
type memoryWorld struct {
	mu       sync.Mutex
	cities   map[uuid.UUID]City
	edges    map[[2]uuid.UUID]alliance.Edge
	nextEdge int
	clock    time.Time

	edgeInserts int
	edgeDeletes int
	insertErr   error
	locks       []RowLock
}

func newMemoryWorld() *memoryWorld {
	return &memoryWorld{
		cities: make(map[uuid.UUID]City),
		edges:  make(map[[2]uuid.UUID]alliance.Edge),
		clock:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

type worldSnapshot struct {
	cities   map[uuid.UUID]City
	edges    map[[2]uuid.UUID]alliance.Edge
	nextEdge int
}

func (w *memoryWorld) snapshot() worldSnapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	s := worldSnapshot{
		cities:   make(map[uuid.UUID]City, len(w.cities)),
		edges:    make(map[[2]uuid.UUID]alliance.Edge, len(w.edges)),
		nextEdge: w.nextEdge,
	}
	for k, v := range w.cities {
		s.cities[k] = v
	}
	for k, v := range w.edges {
		s.edges[k] = v
	}
	return s
}

func (w *memoryWorld) restore(s worldSnapshot) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.cities = s.cities
	w.edges = s.edges
	w.nextEdge = s.nextEdge
}

func (w *memoryWorld) Create(_ context.Context, c *City, _ *database.Tx) (*City, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.clock = w.clock.Add(time.Second)
	stored := *c
	stored.CreatedAt = w.clock
	stored.UpdatedAt = w.clock
	stored.Alliances = nil
	w.cities[c.UUID] = stored
	return &stored, nil
}

func (w *memoryWorld) GetByUUID(_ context.Context, id uuid.UUID, lock RowLock, _ *database.Tx) (*City, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.locks = append(w.locks, lock)
	c, ok := w.cities[id]
	if !ok {
		return nil, ErrCityNotFound
	}
	return &c, nil
}

func (w *memoryWorld) ListByUUIDs(_ context.Context, ids []uuid.UUID, _ *database.Tx) ([]City, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := []City{}
	for _, id := range ids {
		if c, ok := w.cities[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

func (w *memoryWorld) ordered() []City {
	out := make([]City, 0, len(w.cities))
	for _, c := range w.cities {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].UUID.String() < out[j].UUID.String()
	})
	return out
}

func (w *memoryWorld) List(_ context.Context, offset, limit int, _ *database.Tx) ([]City, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	all := w.ordered()
	if offset >= len(all) {
		return []City{}, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return append([]City{}, all[offset:end]...), nil
}

func (w *memoryWorld) Count(_ context.Context, _ *database.Tx) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.cities), nil
}

func (w *memoryWorld) Update(_ context.Context, id uuid.UUID, changes Changes, _ *database.Tx) (*City, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	c, ok := w.cities[id]
	if !ok {
		return nil, ErrCityNotFound
	}
	if changes.Name != nil {
		c.Name = *changes.Name
	}
	if changes.Latitude != nil {
		c.Latitude = *changes.Latitude
	}
	if changes.Longitude != nil {
		c.Longitude = *changes.Longitude
	}
	if changes.Beauty != nil {
		c.Beauty = *changes.Beauty
	}
	if changes.Population != nil {
		c.Population = *changes.Population
	}
	w.clock = w.clock.Add(time.Second)
	c.UpdatedAt = w.clock
	w.cities[id] = c
	return &c, nil
}

func (w *memoryWorld) Delete(_ context.Context, id uuid.UUID, _ *database.Tx) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.cities[id]; !ok {
		return ErrCityNotFound
	}
	for key := range w.edges {
		if key[0] == id || key[1] == id {
			panic("city deleted while still referenced by an alliance edge")
		}
	}
	delete(w.cities, id)
	return nil
}

func (w *memoryWorld) ExistingUUIDs(_ context.Context, ids []uuid.UUID, _ *database.Tx) (map[uuid.UUID]struct{}, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	found := make(map[uuid.UUID]struct{})
	for _, id := range ids {
		if _, ok := w.cities[id]; ok {
			found[id] = struct{}{}
		}
	}
	return found, nil
}

func (w *memoryWorld) outgoingLocked(id uuid.UUID) []alliance.Edge {
	out := []alliance.Edge{}
	for key, e := range w.edges {
		if key[0] == id {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (w *memoryWorld) ListByCity(_ context.Context, id uuid.UUID, _ *database.Tx) ([]alliance.Edge, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.outgoingLocked(id), nil
}

func (w *memoryWorld) ListByCities(_ context.Context, ids []uuid.UUID, _ *database.Tx) (map[uuid.UUID][]alliance.Edge, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make(map[uuid.UUID][]alliance.Edge)
	for _, id := range ids {
		if edges := w.outgoingLocked(id); len(edges) > 0 {
			out[id] = edges
		}
	}
	return out, nil
}

func (w *memoryWorld) InsertBatch(_ context.Context, edges []alliance.Edge, _ *database.Tx) ([]alliance.Edge, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.insertErr != nil {
		return nil, w.insertErr
	}
	w.edgeInserts++
	inserted := []alliance.Edge{}
	for _, e := range edges {
		key := [2]uuid.UUID{e.CityUUID, e.AlliedCityUUID}
		if _, ok := w.edges[key]; ok {
			continue
		}
		w.nextEdge++
		e.ID = w.nextEdge
		e.CreatedAt = w.clock
		w.edges[key] = e
		inserted = append(inserted, e)
	}
	return inserted, nil
}

func (w *memoryWorld) DeletePair(_ context.Context, cityUUID, alliedUUID uuid.UUID, _ *database.Tx) (int64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.edgeDeletes++
	key := [2]uuid.UUID{cityUUID, alliedUUID}
	if _, ok := w.edges[key]; !ok {
		return 0, nil
	}
	delete(w.edges, key)
	return 1, nil
}

func (w *memoryWorld) allies(id uuid.UUID) []uuid.UUID {
	w.mu.Lock()
	defer w.mu.Unlock()
	return alliance.AllyUUIDs(w.outgoingLocked(id))
}

// snapshotTransactor commits by keeping the world as it is and rolls back by
// restoring the state from before the unit of work
type snapshotTransactor struct {
	world     *memoryWorld
	commits   int
	rollbacks int
}

func (s *snapshotTransactor) WithTx(_ context.Context, fn func(tx *database.Tx) error) error {
	before := s.world.snapshot()
	if err := fn(nil); err != nil {
		s.world.restore(before)
		s.rollbacks++
		return err
	}
	s.commits++
	return nil
}
