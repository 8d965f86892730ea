// Package ordering holds the position arithmetic shared by every
// owner-scoped ordered collection (links, layout blocks).
//
// The functions here are pure: they take the current state of one owner's
// collection and return the positions to persist. Persisting them
// atomically is the repository's job.
package ordering

import (
	"fmt"
	"sort"

	"github.com/wadjakorntonsri/linkhub/pkg/core/domain"
)

// Slot is the positional view of an item: its id and order key.
type Slot struct {
	ID       string
	Position int
}

// Sort orders slots by position, breaking ties by id so that legacy data
// with duplicate positions still reads back deterministically.
func Sort(slots []Slot) {
	sort.SliceStable(slots, func(i, j int) bool {
		if slots[i].Position != slots[j].Position {
			return slots[i].Position < slots[j].Position
		}
		return slots[i].ID < slots[j].ID
	})
}

// NextPosition returns the position for an item appended to the
// collection. An empty collection counts as max = 0, so the first item
// lands on 1.
func NextPosition(slots []Slot) int {
	max := 0
	for _, s := range slots {
		if s.Position > max {
			max = s.Position
		}
	}
	return max + 1
}

// Plan computes the positions that make the collection read back in the
// requested order.
//
// Listed ids get positions 0..k-1 in the order given. Ids of the owner that
// were not listed keep their relative order and follow at k..n-1. The
// returned plan covers the whole collection, so positions end up dense and
// unique even if the stored ones were not.
//
// An empty request yields a nil plan and no error. An id that is not in
// current, or is listed twice, fails the whole plan with
// domain.ErrInvalidReference.
func Plan(current []Slot, requested []string) ([]Slot, error) {
	if len(requested) == 0 {
		return nil, nil
	}

	owned := make(map[string]struct{}, len(current))
	for _, s := range current {
		owned[s.ID] = struct{}{}
	}

	listed := make(map[string]struct{}, len(requested))
	plan := make([]Slot, 0, len(current))
	for _, id := range requested {
		if _, ok := owned[id]; !ok {
			return nil, fmt.Errorf("%w: item %q is not part of this collection", domain.ErrInvalidReference, id)
		}
		if _, dup := listed[id]; dup {
			return nil, fmt.Errorf("%w: item %q listed more than once", domain.ErrInvalidReference, id)
		}
		listed[id] = struct{}{}
		plan = append(plan, Slot{ID: id, Position: len(plan)})
	}

	rest := make([]Slot, 0, len(current)-len(plan))
	for _, s := range current {
		if _, ok := listed[s.ID]; !ok {
			rest = append(rest, s)
		}
	}
	Sort(rest)
	for _, s := range rest {
		plan = append(plan, Slot{ID: s.ID, Position: len(plan)})
	}

	return plan, nil
}

// Changed filters a plan down to the slots whose position differs from the
// current one.
func Changed(current, plan []Slot) []Slot {
	was := make(map[string]int, len(current))
	for _, s := range current {
		was[s.ID] = s.Position
	}
	var out []Slot
	for _, s := range plan {
		if p, ok := was[s.ID]; !ok || p != s.Position {
			out = append(out, s)
		}
	}
	return out
}

// Dense returns the plan that rewrites the collection to 0..n-1 in its
// current order.
func Dense(current []Slot) []Slot {
	ordered := make([]Slot, len(current))
	copy(ordered, current)
	Sort(ordered)
	for i := range ordered {
		ordered[i].Position = i
	}
	return ordered
}
