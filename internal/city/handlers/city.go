package handlers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"cities-server/internal/city"
	"cities-server/internal/shared/config"
	"cities-server/internal/shared/errors"
	"cities-server/internal/shared/response"
	"cities-server/internal/shared/validation"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const (
	// CityUUIDParam is the route parameter holding the city identifier
	CityUUIDParam = "cityUUID"

	maxBodyBytes = 1 << 20

	deletedMessage = "City deleted successfully"
)

// Service is the part of city.Service the handlers use
type Service interface {
	Create(ctx context.Context, req city.CreateRequest) (*city.City, error)
	Get(ctx context.Context, id uuid.UUID) (*city.City, error)
	List(ctx context.Context, page, pageSize int) (*city.Page, error)
	Update(ctx context.Context, id uuid.UUID, req city.UpdateRequest) (*city.City, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type CityHandler struct {
	service    Service
	validator  *validation.Validator
	pagination config.PaginationConfig
}

func NewCityHandler(service Service, validator *validation.Validator, pagination config.PaginationConfig) *CityHandler {
	return &CityHandler{
		service:    service,
		validator:  validator,
		pagination: pagination,
	}
}

func (h *CityHandler) Create(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "create_city")

	var req city.CreateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		response.Error(w, r, logger, err)
		return
	}
	if err := h.validator.Struct(&req); err != nil {
		response.Error(w, r, logger, err)
		return
	}

	created, err := h.service.Create(r.Context(), req)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	response.Success(w, http.StatusOK, created)
}

func (h *CityHandler) List(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "list_cities")

	page, err := queryInt(r, "page", 1)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}
	pageSize, err := queryInt(r, "page_size", h.pagination.DefaultPageSize)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	if page < 1 {
		response.Error(w, r, logger, errors.Validation("page must be greater than 0"))
		return
	}
	if pageSize < 1 || pageSize > h.pagination.MaxPageSize {
		response.Error(w, r, logger, errors.Validationf("page_size must be between 1 and %d", h.pagination.MaxPageSize))
		return
	}

	result, err := h.service.List(r.Context(), page, pageSize)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	response.Success(w, http.StatusOK, result)
}

func (h *CityHandler) Get(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "get_city")

	id, err := cityUUID(r)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	c, err := h.service.Get(r.Context(), id)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	response.Success(w, http.StatusOK, c)
}

func (h *CityHandler) Update(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "update_city")

	id, err := cityUUID(r)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	var req city.UpdateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		response.Error(w, r, logger, err)
		return
	}
	if err := h.validator.Struct(&req); err != nil {
		response.Error(w, r, logger, err)
		return
	}

	updated, err := h.service.Update(r.Context(), id, req)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	response.Success(w, http.StatusOK, updated)
}

func (h *CityHandler) Delete(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "delete_city")

	id, err := cityUUID(r)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		response.Error(w, r, logger, err)
		return
	}

	response.Success(w, http.StatusOK, response.MessageResponse{Message: deletedMessage})
}

func cityUUID(r *http.Request) (uuid.UUID, error) {
	raw := chi.URLParam(r, CityUUIDParam)
	if raw == "" {
		return uuid.Nil, errors.Validation("city UUID is required")
	}

	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, errors.WrapValidation("invalid city UUID format", err)
	}
	return id, nil
}

func queryInt(r *http.Request, name string, fallback int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}

	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.Validationf("%s must be an integer", name)
	}
	return value, nil
}

// decodeJSON reads exactly one JSON object with no unknown fields
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		if err == io.EOF {
			return errors.Validation("request body is required")
		}
		return errors.WrapValidation("invalid request body", err)
	}

	if decoder.More() {
		return errors.Validation("request body must contain a single JSON object")
	}
	return nil
}
