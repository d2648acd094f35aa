package alliance

import (
	"fmt"

	"cities-server/internal/shared/errors"

	"github.com/google/uuid"
)

var (
	ErrDuplicateAlliance = errors.Validation("Duplicate alliances found")
	ErrSelfAlliance      = errors.Validation("A city cannot form an alliance with itself")
)

// UnknownCityError is returned when a proposed ally does not exist
type UnknownCityError struct {
	UUID uuid.UUID
}

func (e *UnknownCityError) Error() string {
	return fmt.Sprintf("City UUID %s does not exist for alliance", e.UUID)
}

func (e *UnknownCityError) ErrorType() errors.ErrorType {
	return errors.ErrorTypeValidation
}
