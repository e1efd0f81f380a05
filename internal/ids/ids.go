package ids

import (
	"github.com/oklog/ulid/v2"
)

// New returns a lexicographically sortable identifier for stored records.
// Identifiers created within the same millisecond stay ordered.
func New() string {
	return ulid.Make().String()
}

// Valid reports whether s has the shape of an identifier returned by New.
func Valid(s string) bool {
	_, err := ulid.ParseStrict(s)
	return err == nil
}
