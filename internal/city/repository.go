package city

import (
	"context"
	"database/sql"
	stderrors "errors"
	"log/slog"

	"cities-server/internal/shared/database"
	"cities-server/internal/shared/errors"

	"github.com/google/uuid"
)

const cityColumns = `city_uuid, name, geo_location_latitude, geo_location_longitude, beauty, population, created_at, updated_at`

type Repository struct {
	db     *database.DB
	logger *slog.Logger
}

func NewRepository(db *database.DB, logger *slog.Logger) *Repository {
	logger.Debug("Initializing city repository")

	return &Repository{
		db:     db,
		logger: logger,
	}
}

func (r *Repository) getExecutor(tx *database.Tx) database.Executor {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *Repository) Create(ctx context.Context, c *City, tx *database.Tx) (*City, error) {
	exec := r.getExecutor(tx)

	logger := r.logger.With("component", "city_repository", "operation", "create", "city_uuid", c.UUID)
	logger.Debug("Creating city", "name", c.Name)

	query := `
		INSERT INTO city (city_uuid, name, geo_location_latitude, geo_location_longitude, beauty, population)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + cityColumns

	var created City
	err := exec.GetContext(ctx, &created, query, c.UUID, c.Name, c.Latitude, c.Longitude, c.Beauty, c.Population)
	if err != nil {
		logger.Error("Failed to create city", "error", err)
		return nil, errors.WrapStorage("failed to create city", err)
	}

	logger.Debug("City created successfully")
	return &created, nil
}

// RowLock is the lock strength GetByUUID takes on the city row
type RowLock int

const (
	LockNone RowLock = iota
	// LockNoKeyUpdate still lets other transactions insert alliance rows
	// that reference the city (their foreign key check takes FOR KEY SHARE).
	LockNoKeyUpdate
	// LockUpdate blocks new references; used before deleting the city.
	LockUpdate
)

func (l RowLock) clause() string {
	switch l {
	case LockNoKeyUpdate:
		return ` FOR NO KEY UPDATE`
	case LockUpdate:
		return ` FOR UPDATE`
	default:
		return ""
	}
}

func (l RowLock) String() string {
	switch l {
	case LockNoKeyUpdate:
		return "no_key_update"
	case LockUpdate:
		return "update"
	default:
		return "none"
	}
}

// GetByUUID loads one city. Any lock other than LockNone is held until tx ends.
func (r *Repository) GetByUUID(ctx context.Context, id uuid.UUID, lock RowLock, tx *database.Tx) (*City, error) {
	exec := r.getExecutor(tx)

	logger := r.logger.With("component", "city_repository", "operation", "get_by_uuid", "city_uuid", id, "lock", lock.String())

	query := `SELECT ` + cityColumns + ` FROM city WHERE city_uuid = $1` + lock.clause()

	var c City
	if err := exec.GetContext(ctx, &c, query, id); err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			logger.Debug("City not found")
			return nil, ErrCityNotFound
		}
		logger.Error("Failed to get city", "error", err)
		return nil, errors.WrapStorage("failed to get city", err)
	}

	return &c, nil
}

// ExistingUUIDs returns the subset of ids that belong to stored cities
func (r *Repository) ExistingUUIDs(ctx context.Context, ids []uuid.UUID, tx *database.Tx) (map[uuid.UUID]struct{}, error) {
	existing := make(map[uuid.UUID]struct{}, len(ids))
	if len(ids) == 0 {
		return existing, nil
	}

	exec := r.getExecutor(tx)

	logger := r.logger.With("component", "city_repository", "operation", "existing_uuids", "count", len(ids))

	var found []uuid.UUID
	query := `SELECT city_uuid FROM city WHERE city_uuid = ANY($1::uuid[])`
	if err := exec.SelectContext(ctx, &found, query, database.UUIDArray(ids)); err != nil {
		logger.Error("Failed to look up cities", "error", err)
		return nil, errors.WrapStorage("failed to look up cities", err)
	}

	for _, id := range found {
		existing[id] = struct{}{}
	}

	logger.Debug("Cities looked up", "found", len(existing))
	return existing, nil
}

func (r *Repository) ListByUUIDs(ctx context.Context, ids []uuid.UUID, tx *database.Tx) ([]City, error) {
	if len(ids) == 0 {
		return []City{}, nil
	}

	exec := r.getExecutor(tx)

	logger := r.logger.With("component", "city_repository", "operation", "list_by_uuids", "count", len(ids))

	query := `SELECT ` + cityColumns + ` FROM city WHERE city_uuid = ANY($1::uuid[])`

	cities := []City{}
	if err := exec.SelectContext(ctx, &cities, query, database.UUIDArray(ids)); err != nil {
		logger.Error("Failed to list cities", "error", err)
		return nil, errors.WrapStorage("failed to list cities", err)
	}

	return cities, nil
}

// List returns one window of cities in creation order
func (r *Repository) List(ctx context.Context, offset, limit int, tx *database.Tx) ([]City, error) {
	exec := r.getExecutor(tx)

	logger := r.logger.With("component", "city_repository", "operation", "list", "offset", offset, "limit", limit)

	query := `
		SELECT ` + cityColumns + `
		FROM city
		ORDER BY created_at, city_uuid
		LIMIT $1 OFFSET $2`

	cities := []City{}
	if err := exec.SelectContext(ctx, &cities, query, limit, offset); err != nil {
		logger.Error("Failed to list cities", "error", err)
		return nil, errors.WrapStorage("failed to list cities", err)
	}

	logger.Debug("Cities retrieved", "count", len(cities))
	return cities, nil
}

func (r *Repository) Count(ctx context.Context, tx *database.Tx) (int, error) {
	exec := r.getExecutor(tx)

	var total int
	if err := exec.GetContext(ctx, &total, `SELECT COUNT(*) FROM city`); err != nil {
		r.logger.Error("Failed to count cities", "component", "city_repository", "operation", "count", "error", err)
		return 0, errors.WrapStorage("failed to count cities", err)
	}
	return total, nil
}

// Update applies the non-nil fields of changes and bumps updated_at
func (r *Repository) Update(ctx context.Context, id uuid.UUID, changes Changes, tx *database.Tx) (*City, error) {
	exec := r.getExecutor(tx)

	logger := r.logger.With("component", "city_repository", "operation", "update", "city_uuid", id)
	logger.Debug("Updating city")

	query := `
		UPDATE city SET
			name = COALESCE($2::varchar, name),
			geo_location_latitude = COALESCE($3::double precision, geo_location_latitude),
			geo_location_longitude = COALESCE($4::double precision, geo_location_longitude),
			beauty = COALESCE($5::beauty_type, beauty),
			population = COALESCE($6::bigint, population),
			updated_at = NOW()
		WHERE city_uuid = $1
		RETURNING ` + cityColumns

	var updated City
	err := exec.GetContext(ctx, &updated, query,
		id,
		changes.Name,
		changes.Latitude,
		changes.Longitude,
		changes.Beauty,
		changes.Population,
	)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, ErrCityNotFound
		}
		logger.Error("Failed to update city", "error", err)
		return nil, errors.WrapStorage("failed to update city", err)
	}

	logger.Debug("City updated successfully")
	return &updated, nil
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID, tx *database.Tx) error {
	exec := r.getExecutor(tx)

	logger := r.logger.With("component", "city_repository", "operation", "delete", "city_uuid", id)

	result, err := exec.ExecContext(ctx, `DELETE FROM city WHERE city_uuid = $1`, id)
	if err != nil {
		logger.Error("Failed to delete city", "error", err)
		return errors.WrapStorage("failed to delete city", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return errors.WrapStorage("failed to read deleted city count", err)
	}
	if affected == 0 {
		return ErrCityNotFound
	}

	logger.Debug("City deleted successfully")
	return nil
}
