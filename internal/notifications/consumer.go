package notifications

import (
	"context"
	"errors"
	"fmt"

	"github.com/IBM/sarama"

	"eventhub/internal/shared/config"
	"eventhub/internal/users"
	"eventhub/pkg/logger"
)

// Consumer reads notification messages and delivers them by email. It
// resolves recipient addresses at delivery time so a changed email is
// picked up without republishing.
type Consumer struct {
	group sarama.ConsumerGroup
	topic string
	users users.Repository
	email *EmailService
	log   *logger.Logger
}

func NewConsumer(cfg config.KafkaConfig, usersRepo users.Repository, email *EmailService, log *logger.Logger) (*Consumer, error) {
	saramaConfig := sarama.NewConfig()
	saramaConfig.Consumer.Group.Rebalance.GroupStrategies = []sarama.BalanceStrategy{sarama.NewBalanceStrategyRoundRobin()}
	saramaConfig.Consumer.Offsets.Initial = sarama.OffsetNewest

	group, err := sarama.NewConsumerGroup(cfg.Brokers, cfg.ConsumerGroup, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka consumer group: %w", err)
	}

	return &Consumer{
		group: group,
		topic: cfg.Topic,
		users: usersRepo,
		email: email,
		log:   log,
	}, nil
}

// Start consumes until ctx is cancelled. Run it on its own goroutine.
func (c *Consumer) Start(ctx context.Context) {
	for {
		if err := c.group.Consume(ctx, []string{c.topic}, c); err != nil {
			if errors.Is(err, sarama.ErrClosedConsumerGroup) {
				return
			}
			c.log.ErrorWithContext(ctx, "Notification consumer error", err, nil)
		}
		if ctx.Err() != nil {
			return
		}
	}
}

func (c *Consumer) Close() error {
	return c.group.Close()
}

func (c *Consumer) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (c *Consumer) Cleanup(sarama.ConsumerGroupSession) error { return nil }

func (c *Consumer) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for kafkaMsg := range claim.Messages() {
		c.handle(session.Context(), kafkaMsg)
		session.MarkMessage(kafkaMsg, "")
	}
	return nil
}

// handle never returns an error: a bad message is logged and skipped so
// it cannot wedge the partition.
func (c *Consumer) handle(ctx context.Context, kafkaMsg *sarama.ConsumerMessage) {
	msg, err := MessageFromJSON(kafkaMsg.Value)
	if err != nil {
		c.log.ErrorWithContext(ctx, "Failed to decode notification message", err, nil)
		return
	}

	user, err := c.users.GetByID(ctx, msg.UserID)
	if err != nil {
		// User deleted after publish; nothing to deliver.
		c.log.InfoWithContext(ctx, "Skipping notification for unknown user", map[string]interface{}{
			"user_id": msg.UserID.String(),
			"type":    string(msg.Type),
		})
		return
	}

	if err := c.email.SendNotification(ctx, user.Email, msg); err != nil {
		c.log.ErrorWithContext(ctx, "Failed to deliver notification email", err, map[string]interface{}{
			"user_id": msg.UserID.String(),
			"type":    string(msg.Type),
		})
	}
}
