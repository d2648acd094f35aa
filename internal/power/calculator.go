package power

import (
	"fmt"
	"log/slog"
	"math"

	"cities-server/internal/shared/errors"

	"github.com/google/uuid"
)

// Distance bands in kilometres
const (
	NearRangeKm = 1000
	FarRangeKm  = 10000
)

// Site is the part of a city the computation needs
type Site struct {
	UUID       uuid.UUID
	Latitude   float64
	Longitude  float64
	Population int64
}

// ComputationError reports the ally whose distance could not be computed
type ComputationError struct {
	Ally uuid.UUID
	Err  error
}

func (e *ComputationError) Error() string {
	return fmt.Sprintf("failed to compute distance to allied city %s: %v", e.Ally, e.Err)
}

func (e *ComputationError) Unwrap() error {
	return e.Err
}

func (e *ComputationError) ErrorType() errors.ErrorType {
	return errors.ErrorTypeComputation
}

type Calculator struct {
	distance DistanceFunc
	logger   *slog.Logger
}

func NewCalculator(logger *slog.Logger) *Calculator {
	return NewCalculatorWithDistance(Distance, logger)
}

func NewCalculatorWithDistance(distance DistanceFunc, logger *slog.Logger) *Calculator {
	return &Calculator{
		distance: distance,
		logger:   logger,
	}
}

// AlliedPower adds each ally's discounted population to the origin's own.
// The first distance failure aborts the whole computation.
func (c *Calculator) AlliedPower(origin Site, allies []Site) (int64, error) {
	logger := c.logger.With("component", "power_calculator", "operation", "allied_power", "city_uuid", origin.UUID)

	power := origin.Population
	for _, ally := range allies {
		distance, err := c.distance(origin.Latitude, origin.Longitude, ally.Latitude, ally.Longitude)
		if err != nil {
			logger.Error("Error calculating distance for allied city", "allied_city_uuid", ally.UUID, "error", err)
			return 0, &ComputationError{Ally: ally.UUID, Err: err}
		}
		power += Contribution(distance, ally.Population)
	}

	logger.Debug("Allied power calculated", "allies", len(allies), "allied_power", power)
	return power, nil
}

// Contribution is the share of an ally's population that counts towards
// allied power: a quarter beyond FarRangeKm, half beyond NearRangeKm, all of
// it otherwise. Fractions are rounded half to even.
func Contribution(distanceKm, population int64) int64 {
	switch {
	case distanceKm > FarRangeKm:
		return int64(math.RoundToEven(float64(population) / 4))
	case distanceKm > NearRangeKm:
		return int64(math.RoundToEven(float64(population) / 2))
	default:
		return population
	}
}
