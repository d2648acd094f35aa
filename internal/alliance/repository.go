package alliance

import (
	"context"
	"encoding/json"
	"log/slog"

	"cities-server/internal/shared/database"
	"cities-server/internal/shared/errors"

	"github.com/google/uuid"
)

type Repository struct {
	db     *database.DB
	logger *slog.Logger
}

func NewRepository(db *database.DB, logger *slog.Logger) *Repository {
	logger.Debug("Initializing alliance repository")

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

type edgeInsert struct {
	CityUUID       uuid.UUID `json:"city_uuid"`
	AlliedCityUUID uuid.UUID `json:"allied_city_uuid"`
}

// InsertBatch writes all edges in a single statement. Edges that already
// exist are skipped and not returned.
func (r *Repository) InsertBatch(ctx context.Context, edges []Edge, tx *database.Tx) ([]Edge, error) {
	if len(edges) == 0 {
		return []Edge{}, nil
	}

	exec := r.getExecutor(tx)

	logger := r.logger.With(
		"component", "alliance_repository",
		"operation", "insert_batch",
		"count", len(edges),
	)
	logger.Debug("Inserting alliance edges")

	rows := make([]edgeInsert, len(edges))
	for i, e := range edges {
		rows[i] = edgeInsert{CityUUID: e.CityUUID, AlliedCityUUID: e.AlliedCityUUID}
	}

	edgesJSON, err := json.Marshal(rows)
	if err != nil {
		return nil, errors.WrapInternal("failed to marshal alliance edges", err)
	}

	query := `
		INSERT INTO city_alliances (city_uuid, allied_city_uuid)
		SELECT
			(data->>'city_uuid')::uuid,
			(data->>'allied_city_uuid')::uuid
		FROM json_array_elements($1::json) AS data
		ON CONFLICT (city_uuid, allied_city_uuid) DO NOTHING
		RETURNING alliance_id, city_uuid, allied_city_uuid, created_at`

	inserted := []Edge{}
	if err := exec.SelectContext(ctx, &inserted, query, string(edgesJSON)); err != nil {
		logger.Error("Failed to insert alliance edges", "error", err)
		return nil, errors.WrapStorage("failed to insert alliance edges", err)
	}

	logger.Debug("Alliance edges inserted", "inserted", len(inserted))
	return inserted, nil
}

// DeletePair removes the single directed edge cityUUID -> alliedUUID
func (r *Repository) DeletePair(ctx context.Context, cityUUID, alliedUUID uuid.UUID, tx *database.Tx) (int64, error) {
	exec := r.getExecutor(tx)

	logger := r.logger.With(
		"component", "alliance_repository",
		"operation", "delete_pair",
		"city_uuid", cityUUID,
		"allied_city_uuid", alliedUUID,
	)

	query := `DELETE FROM city_alliances WHERE city_uuid = $1 AND allied_city_uuid = $2`

	result, err := exec.ExecContext(ctx, query, cityUUID, alliedUUID)
	if err != nil {
		logger.Error("Failed to delete alliance edge", "error", err)
		return 0, errors.WrapStorage("failed to delete alliance edge", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, errors.WrapStorage("failed to read deleted alliance edge count", err)
	}

	logger.Debug("Alliance edge deleted", "rows_affected", affected)
	return affected, nil
}

func (r *Repository) ListByCity(ctx context.Context, cityUUID uuid.UUID, tx *database.Tx) ([]Edge, error) {
	exec := r.getExecutor(tx)

	logger := r.logger.With("component", "alliance_repository", "operation", "list_by_city", "city_uuid", cityUUID)

	query := `
		SELECT alliance_id, city_uuid, allied_city_uuid, created_at
		FROM city_alliances
		WHERE city_uuid = $1
		ORDER BY alliance_id`

	edges := []Edge{}
	if err := exec.SelectContext(ctx, &edges, query, cityUUID); err != nil {
		logger.Error("Failed to list alliance edges", "error", err)
		return nil, errors.WrapStorage("failed to list alliance edges", err)
	}

	logger.Debug("Alliance edges retrieved", "count", len(edges))
	return edges, nil
}

// ListByCities loads the outgoing edges of every given city in one query.
// Cities without alliances are absent from the result.
func (r *Repository) ListByCities(ctx context.Context, cityUUIDs []uuid.UUID, tx *database.Tx) (map[uuid.UUID][]Edge, error) {
	byCity := make(map[uuid.UUID][]Edge, len(cityUUIDs))
	if len(cityUUIDs) == 0 {
		return byCity, nil
	}

	exec := r.getExecutor(tx)

	logger := r.logger.With("component", "alliance_repository", "operation", "list_by_cities", "count", len(cityUUIDs))

	query := `
		SELECT alliance_id, city_uuid, allied_city_uuid, created_at
		FROM city_alliances
		WHERE city_uuid = ANY($1::uuid[])
		ORDER BY city_uuid, alliance_id`

	var edges []Edge
	if err := exec.SelectContext(ctx, &edges, query, database.UUIDArray(cityUUIDs)); err != nil {
		logger.Error("Failed to list alliance edges", "error", err)
		return nil, errors.WrapStorage("failed to list alliance edges", err)
	}

	for _, e := range edges {
		byCity[e.CityUUID] = append(byCity[e.CityUUID], e)
	}

	logger.Debug("Alliance edges retrieved", "edges", len(edges), "cities", len(byCity))
	return byCity, nil
}
