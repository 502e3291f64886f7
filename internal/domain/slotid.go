package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Slot ids look like "A_001": the area name, an underscore, and the slot
// number zero-padded to at least three digits. Ids are primary keys in the
// backing store and appear on printed shelf labels, so the format is stable.
// Areas that grow past 999 slots mint wider numbers (e.g. "A_1000") without
// renumbering existing slots.

const minSlotNumberWidth = 3

// FormatSlotID renders the id for a slot number within an area.
func FormatSlotID(area string, number int) string {
	width := minSlotNumberWidth
	if digits := len(strconv.Itoa(number)); digits > width {
		width = digits
	}
	return fmt.Sprintf("%s_%0*d", NormalizeAreaName(area), width, number)
}

// ParseSlotID splits an id into its area name and slot number. The area name
// itself may contain underscores; the number is everything after the last one.
func ParseSlotID(id string) (area string, number int, err error) {
	idx := strings.LastIndex(id, "_")
	if idx <= 0 || idx == len(id)-1 {
		return "", 0, ErrInvalidSlotID
	}
	area = id[:idx]
	suffix := id[idx+1:]
	number, err = strconv.Atoi(suffix)
	if err != nil || number < 1 {
		return "", 0, ErrInvalidSlotID
	}
	return area, number, nil
}
