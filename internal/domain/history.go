package domain

import "time"

// HistoryEntry is one record of the append-only assignment log: a client was
// assigned a slot at a point in time. The core only reads the log to bias
// future slot suggestions; records are appended by the layer that drives a
// successful assignment.
type HistoryEntry struct {
	ID         string
	ClientRef  int64
	SlotID     string
	AssignedAt time.Time
}
