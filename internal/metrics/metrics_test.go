package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRegisterIsIdempotent(t *testing.T) {
	assert.NotPanics(t, func() {
		Register()
		Register()
	})
}

func TestCounters(t *testing.T) {
	before := testutil.ToFloat64(bookingRejected.WithLabelValues("double_booking"))
	IncBookingRejected("double_booking")
	assert.Equal(t, before+1, testutil.ToFloat64(bookingRejected.WithLabelValues("double_booking")))

	before = testutil.ToFloat64(statusTransition.WithLabelValues("PENDING", "CONFIRMED"))
	IncTransition("PENDING", "CONFIRMED")
	assert.Equal(t, before+1, testutil.ToFloat64(statusTransition.WithLabelValues("PENDING", "CONFIRMED")))

	before = testutil.ToFloat64(slotCache.WithLabelValues("hit"))
	IncSlotCache(true)
	assert.Equal(t, before+1, testutil.ToFloat64(slotCache.WithLabelValues("hit")))

	ObserveHTTP("GET", "/health", 200, 5*time.Millisecond)
	assert.Equal(t, 1, testutil.CollectAndCount(httpDuration))
}
