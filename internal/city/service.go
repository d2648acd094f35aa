package city

import (
	"context"
	"fmt"
	"log/slog"

	"cities-server/internal/alliance"
	"cities-server/internal/power"
	"cities-server/internal/shared/database"
	"cities-server/internal/shared/errors"
	"cities-server/internal/shared/metrics"

	"github.com/google/uuid"
)

// Store persists cities
type Store interface {
	Create(ctx context.Context, c *City, tx *database.Tx) (*City, error)
	GetByUUID(ctx context.Context, id uuid.UUID, lock RowLock, tx *database.Tx) (*City, error)
	ListByUUIDs(ctx context.Context, ids []uuid.UUID, tx *database.Tx) ([]City, error)
	List(ctx context.Context, offset, limit int, tx *database.Tx) ([]City, error)
	Count(ctx context.Context, tx *database.Tx) (int, error)
	Update(ctx context.Context, id uuid.UUID, changes Changes, tx *database.Tx) (*City, error)
	Delete(ctx context.Context, id uuid.UUID, tx *database.Tx) error
}

// EdgeReader loads stored alliance edges
type EdgeReader interface {
	ListByCity(ctx context.Context, cityUUID uuid.UUID, tx *database.Tx) ([]alliance.Edge, error)
	ListByCities(ctx context.Context, cityUUIDs []uuid.UUID, tx *database.Tx) (map[uuid.UUID][]alliance.Edge, error)
}

// Service orchestrates city operations. Every mutation runs in one
// transaction that is committed as a unit or rolled back entirely.
type Service struct {
	db        database.Transactor
	cities    Store
	edges     EdgeReader
	validator *alliance.Validator
	alliances *alliance.Service
	power     *power.Calculator
	logger    *slog.Logger
}

func NewService(
	db database.Transactor,
	cities Store,
	edges EdgeReader,
	validator *alliance.Validator,
	alliances *alliance.Service,
	calculator *power.Calculator,
	logger *slog.Logger,
) *Service {
	logger.Debug("Initializing city service")

	return &Service{
		db:        db,
		cities:    cities,
		edges:     edges,
		validator: validator,
		alliances: alliances,
		power:     calculator,
		logger:    logger,
	}
}

// Create stores a new city together with its alliances
func (s *Service) Create(ctx context.Context, req CreateRequest) (*City, error) {
	id := uuid.New()
	logger := s.logger.With("component", "city_service", "operation", "create", "city_uuid", id)

	var created *City
	err := s.db.WithTx(ctx, func(tx *database.Tx) error {
		if len(req.Alliances) > 0 {
			// the new city has no row yet, so it cannot be its own ally
			if err := s.validator.Validate(ctx, tx, id, req.Alliances, false); err != nil {
				return err
			}
		}

		c, err := s.cities.Create(ctx, req.city(id), tx)
		if err != nil {
			return err
		}

		if err := s.alliances.Add(ctx, tx, id, req.Alliances); err != nil {
			return err
		}

		if c.Alliances, err = s.edges.ListByCity(ctx, id, tx); err != nil {
			return err
		}

		created = c
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("City created", "name", created.Name, "alliances", len(created.Alliances))
	return created, nil
}

// Get returns a city with its alliances and allied power
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*City, error) {
	logger := s.logger.With("component", "city_service", "operation", "get", "city_uuid", id)

	c, err := s.cities.GetByUUID(ctx, id, LockNone, nil)
	if err != nil {
		return nil, err
	}

	if c.Alliances, err = s.edges.ListByCity(ctx, id, nil); err != nil {
		return nil, err
	}

	allies, err := s.cities.ListByUUIDs(ctx, alliance.AllyUUIDs(c.Alliances), nil)
	if err != nil {
		return nil, err
	}

	sites := make([]power.Site, len(allies))
	for i := range allies {
		sites[i] = allies[i].site()
	}

	alliedPower, err := s.power.AlliedPower(c.site(), sites)
	metrics.RecordAlliedPower(err == nil)
	if err != nil {
		return nil, err
	}
	c.AlliedPower = &alliedPower

	logger.Debug("City retrieved", "alliances", len(c.Alliances), "allied_power", alliedPower)
	return c, nil
}

// List returns one page of cities ordered by creation, each with its alliances
func (s *Service) List(ctx context.Context, page, pageSize int) (*Page, error) {
	logger := s.logger.With("component", "city_service", "operation", "list", "page", page, "page_size", pageSize)

	if page < 1 {
		return nil, fmt.Errorf("%w: page must be greater than 0", ErrInvalidPage)
	}
	if pageSize < 1 {
		return nil, errors.Validation("page_size must be greater than 0")
	}

	total, err := s.cities.Count(ctx, nil)
	if err != nil {
		return nil, err
	}

	totalPages := (total + pageSize - 1) / pageSize
	if page > totalPages && total > 0 {
		logger.Debug("Page out of range", "total_pages", totalPages)
		return nil, fmt.Errorf("%w: page must be less than or equal to %d", ErrInvalidPage, totalPages)
	}

	cities, err := s.cities.List(ctx, (page-1)*pageSize, pageSize, nil)
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, len(cities))
	for i := range cities {
		ids[i] = cities[i].UUID
	}

	edgesByCity, err := s.edges.ListByCities(ctx, ids, nil)
	if err != nil {
		return nil, err
	}

	for i := range cities {
		cities[i].Alliances = edgesByCity[cities[i].UUID]
		if cities[i].Alliances == nil {
			cities[i].Alliances = []alliance.Edge{}
		}
	}

	logger.Debug("Cities listed", "total", total, "returned", len(cities))
	return &Page{
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
		Cities:     cities,
	}, nil
}

// Update applies a partial update. The city row is locked for the duration
// of the transaction so concurrent updates of the same city serialise.
func (s *Service) Update(ctx context.Context, id uuid.UUID, req UpdateRequest) (*City, error) {
	logger := s.logger.With("component", "city_service", "operation", "update", "city_uuid", id)

	var updated *City
	var diff alliance.Diff
	err := s.db.WithTx(ctx, func(tx *database.Tx) error {
		c, err := s.cities.GetByUUID(ctx, id, LockNoKeyUpdate, tx)
		if err != nil {
			return err
		}

		if req.Alliances != nil {
			desired := *req.Alliances
			if err := s.validator.Validate(ctx, tx, id, desired, true); err != nil {
				return err
			}

			current, err := s.edges.ListByCity(ctx, id, tx)
			if err != nil {
				return err
			}

			if diff, err = s.alliances.Reconcile(ctx, tx, id, current, desired); err != nil {
				return err
			}
		}

		if changes := req.changes(); !changes.IsEmpty() {
			if c, err = s.cities.Update(ctx, id, changes, tx); err != nil {
				return err
			}
		}

		if c.Alliances, err = s.edges.ListByCity(ctx, id, tx); err != nil {
			return err
		}

		updated = c
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("City updated", "alliances_added", len(diff.Added), "alliances_removed", len(diff.Removed))
	return updated, nil
}

// Delete removes a city and dissolves all of its alliances
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	logger := s.logger.With("component", "city_service", "operation", "delete", "city_uuid", id)

	err := s.db.WithTx(ctx, func(tx *database.Tx) error {
		if _, err := s.cities.GetByUUID(ctx, id, LockUpdate, tx); err != nil {
			return err
		}

		edges, err := s.edges.ListByCity(ctx, id, tx)
		if err != nil {
			return err
		}

		if err := s.alliances.RemoveAll(ctx, tx, id, edges); err != nil {
			return err
		}

		return s.cities.Delete(ctx, id, tx)
	})
	if err != nil {
		return err
	}

	logger.Info("City deleted")
	return nil
}
