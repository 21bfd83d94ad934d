package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAvailability(t *testing.T) {
	tests := []struct {
		name      string
		price     float64
		capacity  int
		available int
		want      Availability
	}{
		{"paid event with plenty of seats", 25, 100, 80, StatusAvailable},
		{"free event with plenty of seats", 0, 100, 80, StatusFree},
		{"paid event running low", 25, 100, 9, StatusFewTickets},
		{"free event running low", 0, 100, 3, StatusFewTickets},
		{"no seats left", 25, 100, 0, StatusSoldOut},
		{"free event sold out", 0, 100, 0, StatusSoldOut},
		{"exactly at the low stock threshold", 25, 100, LowStockThreshold, StatusAvailable},
		{"one below the threshold", 25, 100, LowStockThreshold - 1, StatusFewTickets},
		{"single seat left", 0, 1, 1, StatusFewTickets},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := Event{Price: tt.price, Capacity: tt.capacity, AvailableSeats: tt.available}
			assert.Equal(t, tt.want, e.Availability())
		})
	}
}

func TestAvailabilityScarcityBeatsPrice(t *testing.T) {
	// A free event that is nearly sold out reports scarcity, not price.
	e := Event{Price: 0, Capacity: 50, AvailableSeats: 2}
	assert.Equal(t, StatusFewTickets, e.Availability())
}

func TestIsSoldOut(t *testing.T) {
	assert.True(t, (&Event{AvailableSeats: 0}).IsSoldOut())
	assert.False(t, (&Event{AvailableSeats: 1}).IsSoldOut())
}

func TestIsValidAvailability(t *testing.T) {
	for _, valid := range []string{"available", "few-tickets", "free", "sold-out"} {
		assert.True(t, IsValidAvailability(valid), valid)
	}
	assert.False(t, IsValidAvailability("FEW-TICKETS"))
	assert.False(t, IsValidAvailability(""))
	assert.False(t, IsValidAvailability("unknown"))
}
