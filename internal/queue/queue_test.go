package queue

import (
	"fmt"
	"testing"
	"time"

	"foodcourt-dashboard/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)

func at(min int) *time.Time {
	t := base.Add(time.Duration(min) * time.Minute)
	return &t
}

func order(id uint, status models.OrderStatus, createdMin int) models.Order {
	return models.Order{
		ID:          id,
		QueueNumber: fmt.Sprintf("A%03d", id),
		Status:      status,
		CreatedAt:   *at(createdMin),
	}
}

func ids(orders []models.Order) []uint {
	out := make([]uint, 0, len(orders))
	for _, o := range orders {
		out = append(out, o.ID)
	}
	return out
}

func TestProjectPartitionsByExactStatus(t *testing.T) {
	orders := []models.Order{
		order(1, models.StatusPending, 0),
		order(2, models.StatusPaid, 1),
		order(3, models.StatusPreparing, 2),
		order(4, models.StatusReady, 3),
		order(5, models.StatusCompleted, 4),
		order(6, models.StatusCancelled, 5),
		order(7, models.StatusPaid, 6),
	}

	b := Project(orders)

	assert.Equal(t, []uint{2, 7}, ids(b.Waiting))
	assert.Equal(t, []uint{3}, ids(b.Preparing))
	assert.Equal(t, []uint{4}, ids(b.Ready))
	assert.Equal(t, 4, b.Len())

	seen := map[uint]int{}
	for _, g := range [][]models.Order{b.Waiting, b.Preparing, b.Ready} {
		for _, o := range g {
			seen[o.ID]++
		}
	}
	for id, n := range seen {
		assert.Equal(t, 1, n, "order %d appears in more than one group", id)
	}
	assert.NotContains(t, seen, uint(1))
	assert.NotContains(t, seen, uint(5))
	assert.NotContains(t, seen, uint(6))
}

func TestProjectIsIdempotent(t *testing.T) {
	orders := []models.Order{
		order(9, models.StatusReady, 9),
		order(3, models.StatusPaid, 1),
		order(4, models.StatusReady, 2),
		order(5, models.StatusPreparing, 0),
	}
	orders[0].ReadyAt = at(20)
	orders[2].ReadyAt = at(15)
	snapshot := append([]models.Order(nil), orders...)

	first := Project(orders)
	second := Project(orders)

	assert.Equal(t, first, second)
	assert.Equal(t, snapshot, orders, "input must not be reordered")
}

func TestProjectOrdersGroupsByCreation(t *testing.T) {
	orders := []models.Order{
		order(3, models.StatusPaid, 5),
		order(1, models.StatusPaid, 5),
		order(2, models.StatusPaid, 1),
	}
	assert.Equal(t, []uint{2, 1, 3}, ids(Project(orders).Waiting))
}

func TestServingPicksEarliestReadyAt(t *testing.T) {
	a := order(1, models.StatusReady, 0)
	a.ReadyAt = at(30)
	b := order(2, models.StatusReady, 1)
	b.ReadyAt = at(10)

	board := Project([]models.Order{a, b})
	require.NotNil(t, board.Serving)
	assert.Equal(t, uint(2), board.Serving.ID)
}

func TestServingTieBreaksOnLowerID(t *testing.T) {
	a := order(8, models.StatusReady, 0)
	a.ReadyAt = at(10)
	b := order(5, models.StatusReady, 1)
	b.ReadyAt = at(10)

	board := Project([]models.Order{a, b})
	require.NotNil(t, board.Serving)
	assert.Equal(t, uint(5), board.Serving.ID)
}

func TestServingPrefersTimestampedOrders(t *testing.T) {
	a := order(1, models.StatusReady, 0)
	b := order(2, models.StatusReady, 1)
	b.ReadyAt = at(50)

	s, ok := CurrentlyServing([]models.Order{a, b})
	require.True(t, ok)
	assert.Equal(t, uint(2), s.ID)
}

func TestServingEmptyWhenNothingReady(t *testing.T) {
	board := Project([]models.Order{order(1, models.StatusPaid, 0)})
	assert.Nil(t, board.Serving)
	assert.Empty(t, board.Ready)

	board = Project(nil)
	assert.Nil(t, board.Serving)
	assert.Equal(t, 0, board.Len())
}
