package city

import (
	"github.com/google/uuid"
)

// CreateRequest is the body of POST /cities/
type CreateRequest struct {
	Name       string      `json:"name" validate:"required,city_name"`
	Latitude   *float64    `json:"geo_location_latitude" validate:"required,min=-90,max=90,geo_precision"`
	Longitude  *float64    `json:"geo_location_longitude" validate:"required,min=-180,max=180,geo_precision"`
	Beauty     Beauty      `json:"beauty" validate:"required,oneof=Ugly Average Gorgeous"`
	Population int64       `json:"population" validate:"required,min=1,max=1000000000"`
	Alliances  []uuid.UUID `json:"alliances" validate:"omitempty,dive,uuid4"`
}

func (r CreateRequest) city(id uuid.UUID) *City {
	c := &City{
		UUID:       id,
		Name:       r.Name,
		Beauty:     r.Beauty,
		Population: r.Population,
	}
	if r.Latitude != nil {
		c.Latitude = *r.Latitude
	}
	if r.Longitude != nil {
		c.Longitude = *r.Longitude
	}
	return c
}

// UpdateRequest is the body of PATCH /cities/{uuid}. Absent fields are not
// touched; an absent or null alliances list leaves alliances alone, while an
// empty list dissolves them all.
type UpdateRequest struct {
	Name       *string      `json:"name" validate:"omitempty,city_name"`
	Latitude   *float64     `json:"geo_location_latitude" validate:"omitempty,min=-90,max=90,geo_precision"`
	Longitude  *float64     `json:"geo_location_longitude" validate:"omitempty,min=-180,max=180,geo_precision"`
	Beauty     *Beauty      `json:"beauty" validate:"omitempty,oneof=Ugly Average Gorgeous"`
	Population *int64       `json:"population" validate:"omitempty,min=1,max=1000000000"`
	Alliances  *[]uuid.UUID `json:"alliances" validate:"omitempty,dive,uuid4"`
}

func (r UpdateRequest) changes() Changes {
	return Changes{
		Name:       r.Name,
		Latitude:   r.Latitude,
		Longitude:  r.Longitude,
		Beauty:     r.Beauty,
		Population: r.Population,
	}
}
