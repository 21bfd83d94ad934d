package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"eventhub/internal/bookings"
	"eventhub/internal/events"
	"eventhub/internal/shared/constants"
)

// RedisPersister keeps one JSON snapshot per collection under a fixed
// key. Snapshots never expire; they survive restarts as long as Redis
// does.
type RedisPersister struct {
	client *redis.Client
}

func NewRedisPersister(client *redis.Client) *RedisPersister {
	return &RedisPersister{client: client}
}

func (p *RedisPersister) SaveEvents(ctx context.Context, items []events.Event) error {
	return p.save(ctx, constants.SNAPSHOT_KEY_EVENTS, items)
}

func (p *RedisPersister) SaveBookings(ctx context.Context, items []bookings.Booking) error {
	return p.save(ctx, constants.SNAPSHOT_KEY_BOOKINGS, items)
}

func (p *RedisPersister) LoadEvents(ctx context.Context) ([]events.Event, error) {
	var items []events.Event
	if err := p.load(ctx, constants.SNAPSHOT_KEY_EVENTS, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (p *RedisPersister) LoadBookings(ctx context.Context) ([]bookings.Booking, error) {
	var items []bookings.Booking
	if err := p.load(ctx, constants.SNAPSHOT_KEY_BOOKINGS, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (p *RedisPersister) save(ctx context.Context, key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	if err := p.client.Set(ctx, key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to write snapshot %s: %w", key, err)
	}
	return nil
}

func (p *RedisPersister) load(ctx context.Context, key string, out interface{}) error {
	data, err := p.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil // no snapshot yet
		}
		return fmt.Errorf("failed to read snapshot %s: %w", key, err)
	}
	if err := json.Unmarshal([]byte(data), out); err != nil {
		return fmt.Errorf("failed to unmarshal snapshot %s: %w", key, err)
	}
	return nil
}
