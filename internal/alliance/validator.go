package alliance

import (
	"context"
	"log/slog"

	"cities-server/internal/shared/database"

	"github.com/google/uuid"
)

// CityLookup reports which of the given city UUIDs exist
type CityLookup interface {
	ExistingUUIDs(ctx context.Context, uuids []uuid.UUID, tx *database.Tx) (map[uuid.UUID]struct{}, error)
}

type Validator struct {
	cities CityLookup
	logger *slog.Logger
}

func NewValidator(cities CityLookup, logger *slog.Logger) *Validator {
	return &Validator{
		cities: cities,
		logger: logger,
	}
}

// Validate checks a proposed alliance list for cityUUID. Duplicates are
// rejected before any lookup; the remaining checks run per UUID in input
// order, with the self check first when checkSelfAlliance is set.
func (v *Validator) Validate(ctx context.Context, tx *database.Tx, cityUUID uuid.UUID, proposed []uuid.UUID, checkSelfAlliance bool) error {
	logger := v.logger.With(
		"component", "alliance_validator",
		"operation", "validate",
		"city_uuid", cityUUID,
		"proposed", len(proposed),
	)

	if len(proposed) == 0 {
		return nil
	}

	seen := make(map[uuid.UUID]struct{}, len(proposed))
	for _, id := range proposed {
		if _, dup := seen[id]; dup {
			logger.Debug("Duplicate alliance in request", "allied_city_uuid", id)
			return ErrDuplicateAlliance
		}
		seen[id] = struct{}{}
	}

	existing, err := v.cities.ExistingUUIDs(ctx, proposed, tx)
	if err != nil {
		return err
	}

	for _, id := range proposed {
		if checkSelfAlliance && id == cityUUID {
			logger.Debug("Self alliance in request")
			return ErrSelfAlliance
		}
		if _, ok := existing[id]; !ok {
			logger.Debug("Unknown allied city", "allied_city_uuid", id)
			return &UnknownCityError{UUID: id}
		}
	}

	return nil
}
