package order

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatus(t *testing.T) {
	for _, raw := range []string{
		"PENDING", "CONFIRMED", "PROCESSING", "OUT_FOR_DELIVERY", "DELIVERED", "CANCELLED",
	} {
		s, err := ParseStatus(raw)
		require.NoError(t, err)
		assert.Equal(t, Status(raw), s)
	}

	for _, raw := range []string{"", "pending", "SHIPPED", "REFUNDED"} {
		_, err := ParseStatus(raw)
		var invalid *InvalidStatusError
		require.ErrorAs(t, err, &invalid)
		assert.Equal(t, raw, invalid.Status)
	}
}

func TestCanTransition(t *testing.T) {
	allowed := []struct{ from, to Status }{
		{StatusPending, StatusConfirmed},
		{StatusPending, StatusCancelled},
		{StatusConfirmed, StatusProcessing},
		{StatusConfirmed, StatusCancelled},
		{StatusProcessing, StatusOutForDelivery},
		{StatusOutForDelivery, StatusDelivered},
	}
	for _, tr := range allowed {
		assert.True(t, CanTransition(tr.from, tr.to), "%s -> %s should be allowed", tr.from, tr.to)
	}

	forbidden := []struct{ from, to Status }{
		{StatusPending, StatusProcessing},
		{StatusPending, StatusDelivered},
		{StatusConfirmed, StatusDelivered},
		{StatusProcessing, StatusCancelled},
		{StatusOutForDelivery, StatusCancelled},
		{StatusDelivered, StatusCancelled},
		{StatusDelivered, StatusPending},
		{StatusCancelled, StatusPending},
		{StatusCancelled, StatusConfirmed},
		{StatusOutForDelivery, StatusProcessing},
	}
	for _, tr := range forbidden {
		assert.False(t, CanTransition(tr.from, tr.to), "%s -> %s should be forbidden", tr.from, tr.to)
	}
}

func TestTerminalAndCancellable(t *testing.T) {
	assert.True(t, StatusDelivered.Terminal())
	assert.True(t, StatusCancelled.Terminal())
	assert.False(t, StatusPending.Terminal())
	assert.False(t, StatusOutForDelivery.Terminal())

	assert.True(t, StatusPending.Cancellable())
	assert.True(t, StatusConfirmed.Cancellable())
	assert.False(t, StatusProcessing.Cancellable())
	assert.False(t, StatusOutForDelivery.Cancellable())
	assert.False(t, StatusDelivered.Cancellable())
	assert.False(t, StatusCancelled.Cancellable())
}
