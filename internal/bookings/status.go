package bookings

type Status string

const (
	StatusConfirmed Status = "CONFIRMED"
	StatusCancelled Status = "CANCELLED"
	StatusAttended  Status = "ATTENDED"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusConfirmed, StatusCancelled, StatusAttended:
		return true
	}
	return false
}

// CanBeCancelled reports whether a booking in this status may still be
// cancelled by its owner.
func (s Status) CanBeCancelled() bool {
	return s == StatusConfirmed
}

func (s Status) String() string {
	return string(s)
}
