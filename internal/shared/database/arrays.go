package database

import (
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// UUIDArray converts ids into a text array parameter for "= ANY($n::uuid[])" predicates
func UUIDArray(ids []uuid.UUID) pq.StringArray {
	out := make(pq.StringArray, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
