package notifications

import (
	"context"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"

	"eventhub/internal/bookings"
	"eventhub/internal/shared/config"
	"eventhub/pkg/logger"
)

// Producer publishes notification messages to Kafka. It implements
// bookings.Notifier so the booking service stays unaware of transport
// details.
type Producer struct {
	producer sarama.SyncProducer
	topic    string
	log      *logger.Logger
}

func NewProducer(cfg config.KafkaConfig, log *logger.Logger) (*Producer, error) {
	saramaConfig := sarama.NewConfig()
	saramaConfig.Producer.Return.Successes = true
	saramaConfig.Producer.Return.Errors = true
	saramaConfig.Producer.RequiredAcks = sarama.WaitForAll
	saramaConfig.Producer.Compression = sarama.CompressionSnappy
	saramaConfig.Producer.Retry.Max = 3
	saramaConfig.Producer.Timeout = 10 * time.Second
	saramaConfig.Producer.Idempotent = true
	saramaConfig.Net.MaxOpenRequests = 1
	saramaConfig.Producer.Partitioner = sarama.NewHashPartitioner

	producer, err := sarama.NewSyncProducer(cfg.Brokers, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}

	return &Producer{
		producer: producer,
		topic:    cfg.Topic,
		log:      log,
	}, nil
}

func (p *Producer) BookingConfirmed(ctx context.Context, booking bookings.Booking, eventTitle string) {
	bookingID := booking.ID
	p.publish(ctx, &Message{
		ID:         uuid.New(),
		Type:       TypeBookingConfirmed,
		UserID:     booking.UserID,
		EventID:    booking.EventID,
		EventTitle: eventTitle,
		BookingID:  &bookingID,
		BookingRef: booking.BookingRef,
		Quantity:   booking.Quantity,
		TotalPrice: booking.TotalPrice,
		CreatedAt:  time.Now().UTC(),
	})
}

func (p *Producer) BookingCancelled(ctx context.Context, booking bookings.Booking, eventTitle string) {
	bookingID := booking.ID
	p.publish(ctx, &Message{
		ID:         uuid.New(),
		Type:       TypeBookingCancelled,
		UserID:     booking.UserID,
		EventID:    booking.EventID,
		EventTitle: eventTitle,
		BookingID:  &bookingID,
		BookingRef: booking.BookingRef,
		Quantity:   booking.Quantity,
		CreatedAt:  time.Now().UTC(),
	})
}

// EventCancelled fans out to every confirmed booking holder of a
// cancelled event.
func (p *Producer) EventCancelled(ctx context.Context, userID, eventID uuid.UUID, eventTitle string) {
	p.publish(ctx, &Message{
		ID:         uuid.New(),
		Type:       TypeEventCancelled,
		UserID:     userID,
		EventID:    eventID,
		EventTitle: eventTitle,
		CreatedAt:  time.Now().UTC(),
	})
}

// publish is fire-and-forget from the caller's perspective: a broker
// failure must not fail the booking that triggered it.
func (p *Producer) publish(ctx context.Context, msg *Message) {
	data, err := msg.ToJSON()
	if err != nil {
		p.log.ErrorWithContext(ctx, "Failed to encode notification", err, nil)
		return
	}

	_, _, err = p.producer.SendMessage(&sarama.ProducerMessage{
		Topic:     p.topic,
		Key:       sarama.StringEncoder(msg.PartitionKey()),
		Value:     sarama.ByteEncoder(data),
		Timestamp: msg.CreatedAt,
		Headers: []sarama.RecordHeader{
			{Key: []byte("message_type"), Value: []byte(msg.Type)},
		},
	})
	if err != nil {
		p.log.ErrorWithContext(ctx, "Failed to publish notification", err, map[string]interface{}{
			"message_type": string(msg.Type),
			"user_id":      msg.UserID.String(),
		})
	}
}

func (p *Producer) Close() error {
	if p.producer == nil {
		return nil
	}
	if err := p.producer.Close(); err != nil {
		return fmt.Errorf("failed to close Kafka producer: %w", err)
	}
	return nil
}
