package domain

import "errors"

var (
	ErrAreaNameRequired   = errors.New("area name required")
	ErrUnknownArea        = errors.New("area not found")
	ErrDuplicateArea      = errors.New("area already exists")
	ErrInvalidCapacity    = errors.New("invalid capacity")
	ErrSlotNotFound       = errors.New("slot not found")
	ErrDuplicateSlot      = errors.New("slot already exists")
	ErrInvalidSlotID      = errors.New("invalid slot id")
	ErrEmptyAssignment    = errors.New("assignment has no references")
	ErrAssignmentConflict = errors.New("slot changed since it was checked")
	ErrInvalidClientRef   = errors.New("invalid client reference")
)
