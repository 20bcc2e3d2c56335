// Package aggregate merges the orders of every kios into one list for the
// cashier view.
package aggregate

import (
	"context"
	"fmt"
	"slices"

	"foodcourt-dashboard/internal/api"
	"foodcourt-dashboard/internal/models"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

type OrderSource interface {
	ListKios(ctx context.Context) ([]models.Kios, error)
	ListOrders(ctx context.Context, kiosID uint, f models.OrderFilter) ([]models.Order, error)
}

type Policy string

const (
	// FailFast fails the whole aggregate when any kios fails.
	FailFast Policy = "fail_fast"
	// BestEffort skips failing kios and reports them in Result.Skipped.
	BestEffort Policy = "best_effort"
)

func (p Policy) Valid() bool {
	return p == FailFast || p == BestEffort
}

const DefaultConcurrency = 8

type Skipped struct {
	KiosID   uint   `json:"kios_id"`
	KiosName string `json:"kios_name"`
	Reason   string `json:"error"`
	Err      error  `json:"-"`
}

type Result struct {
	Orders  []models.Order `json:"orders"`
	Skipped []Skipped      `json:"skipped,omitempty"`
}

// Partial reports whether some kios were left out.
func (r Result) Partial() bool { return len(r.Skipped) > 0 }

type Aggregator struct {
	src         OrderSource
	policy      Policy
	concurrency int
	log         *logrus.Entry
}

func New(src OrderSource, policy Policy, concurrency int, log *logrus.Entry) *Aggregator {
	if !policy.Valid() {
		policy = FailFast
	}
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Aggregator{src: src, policy: policy, concurrency: concurrency, log: log.WithField("component", "aggregate")}
}

func (a *Aggregator) Policy() Policy { return a.policy }

// AllOrders lists the kios, fetches each kios's orders concurrently and
// returns them newest first. f.KiosID, when set, restricts the fan-out to
// that kios; f.Status and f.Date are passed through to each fetch.
func (a *Aggregator) AllOrders(ctx context.Context, f models.OrderFilter) (Result, error) {
	kios, err := a.src.ListKios(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("aggregate: list kios: %w", err)
	}
	if f.KiosID != 0 {
		kios = restrict(kios, f.KiosID)
	}

	perKios := make([][]models.Order, len(kios))
	failures := make([]error, len(kios))

	g, gctx := errgroup.WithContext(ctx)
	if a.policy == BestEffort {
		// One kios failing must not cancel the others.
		g, gctx = &errgroup.Group{}, ctx
	}
	g.SetLimit(a.concurrency)

	for i, k := range kios {
		g.Go(func() error {
			orders, err := a.src.ListOrders(gctx, k.ID, f)
			if err != nil {
				err = fmt.Errorf("aggregate: orders of kios %d: %w", k.ID, err)
				// A rejected session is never one kios's problem.
				if a.policy == FailFast || api.IsUnauthorized(err) {
					return err
				}
				failures[i] = err
				return nil
			}
			perKios[i] = orders
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	res := Result{Orders: []models.Order{}}
	for i, orders := range perKios {
		if failures[i] != nil {
			res.Skipped = append(res.Skipped, Skipped{
				KiosID:   kios[i].ID,
				KiosName: kios[i].Name,
				Reason:   failures[i].Error(),
				Err:      failures[i],
			})
			a.log.WithError(failures[i]).WithField("kios_id", kios[i].ID).Warn("kios skipped in aggregate")
			continue
		}
		res.Orders = append(res.Orders, orders...)
	}
	SortNewestFirst(res.Orders)
	return res, nil
}

// SortNewestFirst orders by created_at descending, ties by id descending.
func SortNewestFirst(orders []models.Order) {
	slices.SortFunc(orders, func(a, b models.Order) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		switch {
		case a.ID > b.ID:
			return -1
		case a.ID < b.ID:
			return 1
		}
		return 0
	})
}

func restrict(kios []models.Kios, id uint) []models.Kios {
	for _, k := range kios {
		if k.ID == id {
			return []models.Kios{k}
		}
	}
	// Not listed (e.g. inactive and filtered server-side); ask for it anyway.
	return []models.Kios{{ID: id}}
}
