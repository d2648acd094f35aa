package city

import (
	"time"

	"cities-server/internal/alliance"
	"cities-server/internal/power"

	"github.com/google/uuid"
)

type Beauty string

const (
	BeautyUgly     Beauty = "Ugly"
	BeautyAverage  Beauty = "Average"
	BeautyGorgeous Beauty = "Gorgeous"
)

type City struct {
	UUID        uuid.UUID       `db:"city_uuid" json:"city_uuid"`
	Name        string          `db:"name" json:"name"`
	Latitude    float64         `db:"geo_location_latitude" json:"geo_location_latitude"`
	Longitude   float64         `db:"geo_location_longitude" json:"geo_location_longitude"`
	Beauty      Beauty          `db:"beauty" json:"beauty"`
	Population  int64           `db:"population" json:"population"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updated_at"`
	Alliances   []alliance.Edge `db:"-" json:"alliances"`
	AlliedPower *int64          `db:"-" json:"allied_power,omitempty"`
}

func (c *City) site() power.Site {
	return power.Site{
		UUID:       c.UUID,
		Latitude:   c.Latitude,
		Longitude:  c.Longitude,
		Population: c.Population,
	}
}

// Changes holds the scalar fields of a partial update; nil fields are left as they are
type Changes struct {
	Name       *string
	Latitude   *float64
	Longitude  *float64
	Beauty     *Beauty
	Population *int64
}

func (c Changes) IsEmpty() bool {
	return c.Name == nil && c.Latitude == nil && c.Longitude == nil && c.Beauty == nil && c.Population == nil
}

// Page is one page of the city listing
type Page struct {
	Total      int    `json:"total"`
	Page       int    `json:"page"`
	PageSize   int    `json:"page_size"`
	TotalPages int    `json:"total_pages"`
	Cities     []City `json:"cities"`
}
