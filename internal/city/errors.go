package city

import (
	"cities-server/internal/shared/errors"
)

var (
	ErrCityNotFound = errors.NotFound("City not found")
	ErrInvalidPage  = errors.Validation("invalid page")
)
