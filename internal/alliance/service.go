package alliance

import (
	"context"
	"log/slog"

	"cities-server/internal/shared/database"
	"cities-server/internal/shared/metrics"

	"github.com/google/uuid"
)

// EdgeStore persists directed alliance edges
type EdgeStore interface {
	InsertBatch(ctx context.Context, edges []Edge, tx *database.Tx) ([]Edge, error)
	DeletePair(ctx context.Context, cityUUID, alliedUUID uuid.UUID, tx *database.Tx) (int64, error)
}

// Service is the only writer of alliance edges. It keeps every alliance
// symmetric: both directions are added and removed together.
type Service struct {
	store  EdgeStore
	logger *slog.Logger
}

func NewService(store EdgeStore, logger *slog.Logger) *Service {
	logger.Debug("Initializing alliance service")

	return &Service{
		store:  store,
		logger: logger,
	}
}

// Add allies cityUUID with each of allies, writing both directions in one statement
func (s *Service) Add(ctx context.Context, tx *database.Tx, cityUUID uuid.UUID, allies []uuid.UUID) error {
	if len(allies) == 0 {
		return nil
	}

	logger := s.logger.With("component", "alliance_service", "operation", "add", "city_uuid", cityUUID, "allies", len(allies))

	edges := make([]Edge, 0, 2*len(allies))
	for _, ally := range allies {
		edges = append(edges,
			Edge{CityUUID: cityUUID, AlliedCityUUID: ally},
			Edge{CityUUID: ally, AlliedCityUUID: cityUUID},
		)
	}

	inserted, err := s.store.InsertBatch(ctx, edges, tx)
	if err != nil {
		return err
	}
	metrics.RecordAllianceEdges(metrics.EdgeOpAdded, len(inserted))

	logger.Debug("Alliances added", "edges", len(inserted))
	return nil
}

// RemoveAll dissolves every alliance the given edges describe, in both directions
func (s *Service) RemoveAll(ctx context.Context, tx *database.Tx, cityUUID uuid.UUID, edges []Edge) error {
	if len(edges) == 0 {
		return nil
	}

	logger := s.logger.With("component", "alliance_service", "operation", "remove_all", "city_uuid", cityUUID, "edges", len(edges))

	var removed int64
	for _, pair := range symmetricPairs(edges) {
		n, err := s.store.DeletePair(ctx, pair[0], pair[1], tx)
		if err != nil {
			return err
		}
		removed += n
	}
	metrics.RecordAllianceEdges(metrics.EdgeOpRemoved, int(removed))

	logger.Debug("Alliances removed", "edges", removed)
	return nil
}

// Reconcile makes the alliances of cityUUID equal to desired. Only the
// alliances that differ are touched; edges holds the city's current
// outgoing edges.
func (s *Service) Reconcile(ctx context.Context, tx *database.Tx, cityUUID uuid.UUID, edges []Edge, desired []uuid.UUID) (Diff, error) {
	logger := s.logger.With("component", "alliance_service", "operation", "reconcile", "city_uuid", cityUUID)

	wanted := make(map[uuid.UUID]struct{}, len(desired))
	for _, id := range desired {
		wanted[id] = struct{}{}
	}

	current := make(map[uuid.UUID]struct{}, len(edges))
	var stale []Edge
	var diff Diff
	for _, e := range edges {
		current[e.AlliedCityUUID] = struct{}{}
		if _, keep := wanted[e.AlliedCityUUID]; !keep {
			stale = append(stale, e)
			diff.Removed = append(diff.Removed, e.AlliedCityUUID)
		}
	}

	for _, id := range desired {
		if _, exists := current[id]; exists {
			continue
		}
		current[id] = struct{}{}
		diff.Added = append(diff.Added, id)
	}

	if diff.Empty() {
		logger.Debug("Alliances unchanged")
		return diff, nil
	}

	if err := s.RemoveAll(ctx, tx, cityUUID, stale); err != nil {
		return Diff{}, err
	}
	if err := s.Add(ctx, tx, cityUUID, diff.Added); err != nil {
		return Diff{}, err
	}

	logger.Info("Alliances reconciled", "added", len(diff.Added), "removed", len(diff.Removed))
	return diff, nil
}

// symmetricPairs expands edges into the distinct directed pairs covering both directions
func symmetricPairs(edges []Edge) [][2]uuid.UUID {
	seen := make(map[[2]uuid.UUID]struct{}, 2*len(edges))
	pairs := make([][2]uuid.UUID, 0, 2*len(edges))
	for _, e := range edges {
		for _, p := range [][2]uuid.UUID{
			{e.CityUUID, e.AlliedCityUUID},
			{e.AlliedCityUUID, e.CityUUID},
		} {
			if _, ok := seen[p]; ok {
				continue
			}
			seen[p] = struct{}{}
			pairs = append(pairs, p)
		}
	}
	return pairs
}
