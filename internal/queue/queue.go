// Package queue derives the preparation board of one kios from a flat list
// of its orders.
package queue

import (
	"slices"

	"foodcourt-dashboard/internal/models"
)

// Board holds disjoint groups keyed by exact status. It is a projection and
// is recomputed from scratch on every fetch.
type Board struct {
	Waiting   []models.Order `json:"waiting"`
	Preparing []models.Order `json:"preparing"`
	Ready     []models.Order `json:"ready"`
	Serving   *models.Order  `json:"serving"`
}

func Project(orders []models.Order) Board {
	b := Board{
		Waiting:   []models.Order{},
		Preparing: []models.Order{},
		Ready:     []models.Order{},
	}
	for _, o := range orders {
		switch o.Status {
		case models.StatusPaid:
			b.Waiting = append(b.Waiting, o)
		case models.StatusPreparing:
			b.Preparing = append(b.Preparing, o)
		case models.StatusReady:
			b.Ready = append(b.Ready, o)
		}
	}
	slices.SortStableFunc(b.Waiting, byCreation)
	slices.SortStableFunc(b.Preparing, byCreation)
	slices.SortStableFunc(b.Ready, byCreation)

	if s, ok := CurrentlyServing(b.Ready); ok {
		b.Serving = &s
	}
	return b
}

// CurrentlyServing picks the ready order that became ready first, breaking
// ties by the smaller id. Orders without ready_at rank after those with one.
func CurrentlyServing(ready []models.Order) (models.Order, bool) {
	var (
		best  models.Order
		found bool
	)
	for _, o := range ready {
		if o.Status != models.StatusReady {
			continue
		}
		if !found || readyBefore(o, best) {
			best = o
			found = true
		}
	}
	return best, found
}

func (b Board) Len() int {
	return len(b.Waiting) + len(b.Preparing) + len(b.Ready)
}

func readyBefore(a, b models.Order) bool {
	switch {
	case a.ReadyAt != nil && b.ReadyAt == nil:
		return true
	case a.ReadyAt == nil && b.ReadyAt != nil:
		return false
	case a.ReadyAt != nil && b.ReadyAt != nil && !a.ReadyAt.Equal(*b.ReadyAt):
		return a.ReadyAt.Before(*b.ReadyAt)
	}
	return a.ID < b.ID
}

func byCreation(a, b models.Order) int {
	if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
		return c
	}
	switch {
	case a.ID < b.ID:
		return -1
	case a.ID > b.ID:
		return 1
	}
	return 0
}
