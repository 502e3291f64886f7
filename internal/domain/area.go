package domain

import (
	"strings"
	"time"
)

// Area is a named group of physical storage slots. TotalSlots is the declared
// capacity; it only grows (extension or gap-fill minting), never shrinks, so
// slot numbers below it may be missing after deletions.
type Area struct {
	Name       string
	TotalSlots int
	CreatedAt  time.Time
}

// AreaStats is an Area plus derived occupancy counts for display.
type AreaStats struct {
	Area
	LiveSlots     int
	OccupiedSlots int
}

// NormalizeAreaName canonicalizes an area name for lookups and slot ids.
func NormalizeAreaName(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}
