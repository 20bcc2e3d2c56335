package orderflow

import (
	"testing"

	"foodcourt-dashboard/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNext(t *testing.T) {
	tests := []struct {
		from models.OrderStatus
		want models.OrderStatus
		ok   bool
	}{
		{models.StatusPending, models.StatusPaid, true},
		{models.StatusPaid, models.StatusPreparing, true},
		{models.StatusPreparing, models.StatusReady, true},
		{models.StatusReady, models.StatusCompleted, true},
		{models.StatusCompleted, "", false},
		{models.StatusCancelled, "", false},
		{models.OrderStatus("refunded"), "", false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from), func(t *testing.T) {
			got, ok := Next(tt.from)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCancel(t *testing.T) {
	for _, s := range []models.OrderStatus{models.StatusPending, models.StatusPaid, models.StatusPreparing, models.StatusReady} {
		assert.True(t, CanCancel(s), s)
		req, err := Cancel(s)
		require.NoError(t, err)
		assert.Equal(t, models.StatusCancelled, req.Status)
		assert.Empty(t, req.PaymentMethod)
	}
	for _, s := range []models.OrderStatus{models.StatusCompleted, models.StatusCancelled} {
		assert.False(t, CanCancel(s), s)
		_, err := Cancel(s)
		assert.ErrorIs(t, err, ErrTerminal)
	}
	_, err := Cancel("bogus")
	assert.ErrorIs(t, err, ErrUnknownStatus)
}

func TestActionLabels(t *testing.T) {
	assert.Equal(t, "Confirm payment", ActionLabel(models.StatusPending))
	assert.Equal(t, "Start preparing", ActionLabel(models.StatusPaid))
	assert.Equal(t, "Mark ready", ActionLabel(models.StatusPreparing))
	assert.Equal(t, "Mark completed", ActionLabel(models.StatusReady))
	assert.Empty(t, ActionLabel(models.StatusCompleted))
}

func TestAdvanceDefaultsPaymentToCash(t *testing.T) {
	m := NewMachine("")
	req, err := m.Advance(models.StatusPending, "")
	require.NoError(t, err)
	assert.Equal(t, models.StatusPaid, req.Status)
	assert.Equal(t, models.PaymentCash, req.PaymentMethod)
}

func TestAdvanceKeepsExplicitPayment(t *testing.T) {
	m := NewMachine(models.PaymentCash)
	req, err := m.Advance(models.StatusPending, models.PaymentDigital)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentDigital, req.PaymentMethod)

	_, err = m.Advance(models.StatusPending, "cheque")
	assert.ErrorIs(t, err, ErrInvalidPayment)
}

func TestAdvanceOnlyPaymentStepCarriesMethod(t *testing.T) {
	m := NewMachine(models.PaymentCash)
	req, err := m.Advance(models.StatusPaid, models.PaymentCard)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPreparing, req.Status)
	assert.Empty(t, req.PaymentMethod)

	_, err = m.Advance(models.StatusCompleted, "")
	assert.ErrorIs(t, err, ErrTerminal)
}

func TestTransition(t *testing.T) {
	m := NewMachine(models.PaymentCash)

	req, err := m.Transition(models.StatusPending, models.StatusPaid, "")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentCash, req.PaymentMethod)

	req, err = m.Transition(models.StatusReady, models.StatusCancelled, "")
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, req.Status)

	_, err = m.Transition(models.StatusPending, models.StatusReady, "")
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = m.Transition(models.StatusPaid, models.StatusPending, "")
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = m.Transition(models.StatusCancelled, models.StatusCancelled, "")
	assert.ErrorIs(t, err, ErrTerminal)

	_, err = m.Transition(models.StatusCompleted, models.StatusPaid, "")
	assert.ErrorIs(t, err, ErrTerminal)
}
