package domain

import "time"

// Slot is one physical storage location. A slot holds at most one occupant
// triple (car, client, tire set), each an external entity id. Occupancy is
// derived from the references, never stored separately.
type Slot struct {
	ID         string
	Area       string
	Number     int
	CarRef     *int64
	ClientRef  *int64
	TireSetRef *int64
	// Version is the optimistic-concurrency token, bumped on every write.
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Occupied reports whether any reference is set.
func (s Slot) Occupied() bool {
	return s.CarRef != nil || s.ClientRef != nil || s.TireSetRef != nil
}

// Available is the inverse of Occupied.
func (s Slot) Available() bool {
	return !s.Occupied()
}

// Refs returns the occupant triple of the slot.
func (s Slot) Refs() Refs {
	return Refs{Car: s.CarRef, Client: s.ClientRef, TireSet: s.TireSetRef}
}

// Refs is the occupant triple. A nil field means "no reference".
type Refs struct {
	Car     *int64
	Client  *int64
	TireSet *int64
}

// Empty reports whether all three references are nil.
func (r Refs) Empty() bool {
	return r.Car == nil && r.Client == nil && r.TireSet == nil
}

// RefPatch is a partial update of a slot's references: fields whose Set flag
// is false are left unchanged, a Set field with a nil Ref clears it.
type RefPatch struct {
	Car     RefChange
	Client  RefChange
	TireSet RefChange
}

// RefChange describes one field of a RefPatch.
type RefChange struct {
	Set bool
	Ref *int64
}

// SetRef builds a RefChange that assigns the given external id.
func SetRef(id int64) RefChange {
	return RefChange{Set: true, Ref: &id}
}

// ClearRef builds a RefChange that nulls the field.
func ClearRef() RefChange {
	return RefChange{Set: true}
}

// AssignsAnything reports whether the patch sets at least one non-nil
// reference. A patch that only clears fields assigns nothing.
func (p RefPatch) AssignsAnything() bool {
	for _, c := range []RefChange{p.Car, p.Client, p.TireSet} {
		if c.Set && c.Ref != nil {
			return true
		}
	}
	return false
}

// ClearAllRefs is the patch applied by a clear operation.
func ClearAllRefs() RefPatch {
	return RefPatch{Car: ClearRef(), Client: ClearRef(), TireSet: ClearRef()}
}
