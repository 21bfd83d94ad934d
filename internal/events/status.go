package events

// Availability is never stored; it is derived from price and remaining
// seats every time an event is read, so a booking immediately moves the
// event between buckets.
type Availability string

const (
	StatusAvailable  Availability = "available"
	StatusFewTickets Availability = "few-tickets"
	StatusFree       Availability = "free"
	StatusSoldOut    Availability = "sold-out"
)

// LowStockThreshold is the seat count below which an event is flagged
// as running out.
const LowStockThreshold = 10

// Availability derives the status bucket. Sold-out wins over everything,
// scarcity wins over price, free wins over plain available.
func (e *Event) Availability() Availability {
	switch {
	case e.AvailableSeats == 0:
		return StatusSoldOut
	case e.AvailableSeats < LowStockThreshold:
		return StatusFewTickets
	case e.Price == 0:
		return StatusFree
	default:
		return StatusAvailable
	}
}

func (e *Event) IsSoldOut() bool {
	return e.AvailableSeats == 0
}

// IsValidAvailability reports whether s names a known status bucket.
func IsValidAvailability(s string) bool {
	switch Availability(s) {
	case StatusAvailable, StatusFewTickets, StatusFree, StatusSoldOut:
		return true
	}
	return false
}
