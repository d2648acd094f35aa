// Package validation wraps go-playground/validator with the custom tags used
// by city requests and converts failures into validation errors.
package validation

import (
	stderrors "errors"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"cities-server/internal/shared/errors"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// MaxGeoDecimals is the number of decimal digits allowed in a coordinate
const MaxGeoDecimals = 6

var cityNamePattern = regexp.MustCompile(`^[a-zA-Z ]{3,100}$`)

type Validator struct {
	validate *validator.Validate
}

func New() *Validator {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(jsonFieldName)
	validate.RegisterCustomTypeFunc(uuidString, uuid.UUID{})
	RegisterCustomValidators(validate)

	return &Validator{validate: validate}
}

// RegisterCustomValidators registers the city_name and geo_precision tags
func RegisterCustomValidators(validate *validator.Validate) {
	validate.RegisterValidation("city_name", validateCityName)
	validate.RegisterValidation("geo_precision", validateGeoPrecision)
}

// Struct validates s and reports every failing field in one validation error
func (v *Validator) Struct(s interface{}) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !stderrors.As(err, &validationErrors) {
		return errors.WrapInternal("failed to validate request", err)
	}

	messages := make([]string, 0, len(validationErrors))
	for _, fieldError := range validationErrors {
		messages = append(messages, formatValidationError(fieldError))
	}
	return errors.Validation(strings.Join(messages, "; "))
}

func validateCityName(fl validator.FieldLevel) bool {
	return cityNamePattern.MatchString(fl.Field().String())
}

// validateGeoPrecision accepts coordinates with at most MaxGeoDecimals
// digits after the point in their shortest decimal form
func validateGeoPrecision(fl validator.FieldLevel) bool {
	field := fl.Field()
	if field.Kind() != reflect.Float64 && field.Kind() != reflect.Float32 {
		return false
	}
	return Decimals(field.Float()) <= MaxGeoDecimals
}

// Decimals counts the digits after the decimal point of the shortest
// representation of f
func Decimals(f float64) int {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if i := strings.IndexByte(s, '.'); i >= 0 {
		return len(s) - i - 1
	}
	return 0
}

// uuidString lets the string tags (uuid4 and friends) check uuid.UUID values
func uuidString(v reflect.Value) interface{} {
	if id, ok := v.Interface().(uuid.UUID); ok {
		return id.String()
	}
	return nil
}

func jsonFieldName(field reflect.StructField) string {
	name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	if name == "" {
		return field.Name
	}
	return name
}

// formatValidationError formats a validation error into a human-readable message
func formatValidationError(err validator.FieldError) string {
	field := err.Field()
	param := err.Param()

	switch err.Tag() {
	case "required":
		return field + " is required"
	case "min":
		if err.Kind() == reflect.String {
			return field + " must be at least " + param + " characters"
		}
		return field + " must be greater than or equal to " + param
	case "max":
		if err.Kind() == reflect.String {
			return field + " must be at most " + param + " characters"
		}
		return field + " must be less than or equal to " + param
	case "oneof":
		return field + " must be one of: " + param
	case "city_name":
		return field + " must only contain letters and spaces, between 3 and 100 characters"
	case "geo_precision":
		return field + " should not have more than " + strconv.Itoa(MaxGeoDecimals) + " decimal places"
	case "uuid4":
		return field + " must be a version 4 UUID"
	case "unique":
		return field + " must not contain duplicates"
	default:
		return field + " is invalid"
	}
}
