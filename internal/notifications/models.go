package notifications

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type MessageType string

const (
	TypeBookingConfirmed MessageType = "booking_confirmed"
	TypeBookingCancelled MessageType = "booking_cancelled"
	TypeEventCancelled   MessageType = "event_cancelled"
)

// Message is the wire format published to the notification topic.
// Messages are keyed by user so one user's notifications stay ordered.
type Message struct {
	ID         uuid.UUID   `json:"id"`
	Type       MessageType `json:"type"`
	UserID     uuid.UUID   `json:"user_id"`
	EventID    uuid.UUID   `json:"event_id"`
	EventTitle string      `json:"event_title"`
	BookingID  *uuid.UUID  `json:"booking_id,omitempty"`
	BookingRef string      `json:"booking_ref,omitempty"`
	Quantity   int         `json:"quantity,omitempty"`
	TotalPrice float64     `json:"total_price,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
}

func (m *Message) ToJSON() ([]byte, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal notification message: %w", err)
	}
	return data, nil
}

func MessageFromJSON(data []byte) (*Message, error) {
	var m Message
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to unmarshal notification message: %w", err)
	}
	return &m, nil
}

// PartitionKey routes all of a user's notifications to one partition.
func (m *Message) PartitionKey() string {
	return m.UserID.String()
}

// Subject builds the email subject line for a message type.
func (m *Message) Subject() string {
	switch m.Type {
	case TypeBookingConfirmed:
		return fmt.Sprintf("Booking confirmed for %s", m.EventTitle)
	case TypeBookingCancelled:
		return fmt.Sprintf("Booking cancelled for %s", m.EventTitle)
	case TypeEventCancelled:
		return fmt.Sprintf("Event cancelled: %s", m.EventTitle)
	default:
		return "Notification from EventHub"
	}
}
