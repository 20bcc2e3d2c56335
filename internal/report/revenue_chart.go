package report

import (
	"errors"
	"slices"
	"time"

	"foodcourt-dashboard/internal/models"
)

var ErrBadPeriod = errors.New("report: period must be daily, weekly or monthly")

type ChartPoint struct {
	Label   string `json:"label"` // bucket start, YYYY-MM-DD
	Cash    int64  `json:"cash"`
	Card    int64  `json:"card"`
	Digital int64  `json:"digital"`
	Total   int64  `json:"total"`
}

type Chart struct {
	Period      string       `json:"period"` // daily | weekly | monthly
	From        string       `json:"from"`
	To          string       `json:"to"`
	Points      []ChartPoint `json:"points"`
	GrandTotals ChartPoint   `json:"grand_totals"`
}

func ValidPeriod(period string) bool {
	switch period {
	case "", "daily", "weekly", "monthly":
		return true
	}
	return false
}

// DefaultCount is the number of buckets shown when none is asked for.
func DefaultCount(period string) int {
	switch period {
	case "weekly":
		return 8
	case "monthly":
		return 12
	}
	return 7
}

// RevenueChart buckets paid revenue by payment method over the last count
// days, weeks (starting Monday) or months ending with the one holding now.
// Orders that were never paid or were cancelled carry no revenue.
func RevenueChart(orders []models.Order, period string, count int, now time.Time) (Chart, error) {
	if count <= 0 {
		count = DefaultCount(period)
	}
	loc := now.Location()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)

	var bucket func(time.Time) time.Time
	var start, end time.Time
	switch period {
	case "", "daily":
		period = "daily"
		bucket = func(t time.Time) time.Time {
			t = t.In(loc)
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
		}
		start = today.AddDate(0, 0, -(count - 1))
		end = today.AddDate(0, 0, 1)
	case "weekly":
		bucket = func(t time.Time) time.Time {
			t = t.In(loc)
			day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
			offset := (int(day.Weekday()) + 6) % 7
			return day.AddDate(0, 0, -offset)
		}
		thisWeek := bucket(now)
		start = thisWeek.AddDate(0, 0, -7*(count-1))
		end = thisWeek.AddDate(0, 0, 7)
	case "monthly":
		bucket = func(t time.Time) time.Time {
			t = t.In(loc)
			return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, loc)
		}
		thisMonth := bucket(now)
		start = thisMonth.AddDate(0, -(count - 1), 0)
		end = thisMonth.AddDate(0, 1, 0)
	default:
		return Chart{}, ErrBadPeriod
	}

	buckets := map[time.Time]*ChartPoint{}
	for _, o := range orders {
		if o.PaidAt == nil || o.Status == models.StatusCancelled {
			continue
		}
		if o.PaidAt.Before(start) || !o.PaidAt.Before(end) {
			continue
		}
		key := bucket(*o.PaidAt)
		p, ok := buckets[key]
		if !ok {
			p = &ChartPoint{Label: key.Format(time.DateOnly)}
			buckets[key] = p
		}
		switch o.PaymentMethod {
		case models.PaymentCard:
			p.Card += o.TotalAmount
		case models.PaymentDigital:
			p.Digital += o.TotalAmount
		default:
			p.Cash += o.TotalAmount
		}
		p.Total += o.TotalAmount
	}

	keys := make([]time.Time, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b time.Time) int { return a.Compare(b) })

	chart := Chart{
		Period: period,
		From:   start.Format(time.DateOnly),
		To:     end.AddDate(0, 0, -1).Format(time.DateOnly),
		Points: make([]ChartPoint, 0, len(keys)),
	}
	for _, k := range keys {
		p := *buckets[k]
		chart.Points = append(chart.Points, p)
		chart.GrandTotals.Cash += p.Cash
		chart.GrandTotals.Card += p.Card
		chart.GrandTotals.Digital += p.Digital
		chart.GrandTotals.Total += p.Total
	}
	return chart, nil
}
