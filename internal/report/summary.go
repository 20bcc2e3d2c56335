// Package report computes the dashboard headline numbers and writes the
// spreadsheet export.
package report

import (
	"time"

	"foodcourt-dashboard/internal/models"
)

type Summary struct {
	Total          int                        `json:"total"`
	ByStatus       map[models.OrderStatus]int `json:"by_status"`
	Revenue        int64                      `json:"revenue"`
	InProgress     int                        `json:"in_progress"`
	CompletedToday int                        `json:"completed_today"`
}

// Summarize counts orders per status. Revenue covers every order that was
// not cancelled; in progress is preparing plus ready; completed today uses
// completed_at in now's location.
func Summarize(orders []models.Order, now time.Time) Summary {
	s := Summary{Total: len(orders), ByStatus: map[models.OrderStatus]int{}}
	for _, st := range models.OrderStatuses {
		s.ByStatus[st] = 0
	}
	for _, o := range orders {
		s.ByStatus[o.Status]++
		if o.Status != models.StatusCancelled {
			s.Revenue += o.TotalAmount
		}
		if o.Status == models.StatusCompleted && o.CompletedAt != nil && sameDay(*o.CompletedAt, now) {
			s.CompletedToday++
		}
	}
	s.InProgress = s.ByStatus[models.StatusPreparing] + s.ByStatus[models.StatusReady]
	return s
}

func sameDay(t, now time.Time) bool {
	y1, m1, d1 := t.In(now.Location()).Date()
	y2, m2, d2 := now.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

// FilterStatus is the status tab of the cashier view; an empty status keeps
// everything.
func FilterStatus(orders []models.Order, status models.OrderStatus) []models.Order {
	if status == "" {
		return orders
	}
	out := make([]models.Order, 0, len(orders))
	for _, o := range orders {
		if o.Status == status {
			out = append(out, o)
		}
	}
	return out
}
