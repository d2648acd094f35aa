package alliance

import (
	"time"

	"github.com/google/uuid"
)

// Edge is one directed half of an alliance. Every alliance is stored as two
// edges, one in each direction.
type Edge struct {
	ID             int       `db:"alliance_id" json:"-"`
	CityUUID       uuid.UUID `db:"city_uuid" json:"-"`
	AlliedCityUUID uuid.UUID `db:"allied_city_uuid" json:"allied_city_uuid"`
	CreatedAt      time.Time `db:"created_at" json:"-"`
}

// Diff is the outcome of a reconciliation, by ally UUID
type Diff struct {
	Added   []uuid.UUID
	Removed []uuid.UUID
}

func (d Diff) Empty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0
}

// AllyUUIDs returns the allied city of each edge in order
func AllyUUIDs(edges []Edge) []uuid.UUID {
	ids := make([]uuid.UUID, len(edges))
	for i, e := range edges {
		ids[i] = e.AlliedCityUUID
	}
	return ids
}
