package app

import "sort"

// slotPlan is the outcome of planning a gap-filled slot creation: the numbers
// to materialize and the capacity the area must grow to, if any.
type slotPlan struct {
	Numbers     []int
	HolesReused int
	Minted      int
	NewCapacity int // 0 when capacity is unchanged
}

// planSlotNumbers decides which slot numbers to create when count more slots
// are requested for an area. Holes (numbers below the current live maximum
// with no live slot) are reused first, ascending; the remainder is minted
// sequentially past both the declared capacity and the live maximum. Reusing
// holes keeps shelf numbering dense before the area is physically extended.
func planSlotNumbers(existing []int, capacity, count int) slotPlan {
	if count <= 0 {
		return slotPlan{}
	}

	live := make(map[int]struct{}, len(existing))
	maxExisting := 0
	for _, n := range existing {
		live[n] = struct{}{}
		if n > maxExisting {
			maxExisting = n
		}
	}

	var holes []int
	for n := 1; n < maxExisting; n++ {
		if _, ok := live[n]; !ok {
			holes = append(holes, n)
		}
	}
	sort.Ints(holes)
	if len(holes) > count {
		holes = holes[:count]
	}

	plan := slotPlan{
		Numbers:     holes,
		HolesReused: len(holes),
	}

	next := capacity
	if maxExisting > next {
		next = maxExisting
	}
	for len(plan.Numbers) < count {
		next++
		plan.Numbers = append(plan.Numbers, next)
		plan.Minted++
	}
	if plan.Minted > 0 && next > capacity {
		plan.NewCapacity = next
	}
	return plan
}
