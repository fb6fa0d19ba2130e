package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"maillot-be/internal/logger"
	"maillot-be/internal/order"

	"github.com/IBM/sarama"
	"go.uber.org/zap"
)

const OrderCreatedTopic = "order.created"

type OrderCreatedEvent struct {
	OrderID       string    `json:"order_id"`
	CustomerEmail string    `json:"customer_email"`
	ItemCount     int       `json:"item_count"`
	TotalPrice    float64   `json:"total_price"`
	CreatedAt     time.Time `json:"created_at"`
	EventTime     time.Time `json:"event_time"`
}

// Publisher announces placed orders to downstream systems.
type Publisher interface {
	PublishOrderCreated(ctx context.Context, o order.Order) error
}

type KafkaPublisher struct {
	producer sarama.SyncProducer
	now      func() time.Time
}

func NewKafkaPublisher(brokers []string) (*KafkaPublisher, error) {
	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 3
	config.Producer.Return.Successes = true
	config.Version = sarama.V2_6_0_0

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, err
	}

	return NewKafkaPublisherWithProducer(producer), nil
}

func NewKafkaPublisherWithProducer(producer sarama.SyncProducer) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, now: time.Now}
}

// PublishOrderCreated blocks until the broker acks. The sync producer has
// no context hook, so a late ack is abandoned rather than cancelled.
func (p *KafkaPublisher) PublishOrderCreated(ctx context.Context, o order.Order) error {
	event := OrderCreatedEvent{
		OrderID:       o.ID,
		CustomerEmail: o.CustomerDetails.Email,
		ItemCount:     len(o.OrderItems),
		TotalPrice:    o.TotalPrice,
		CreatedAt:     o.CreatedAt,
		EventTime:     p.now(),
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPublish, err)
	}

	msg := &sarama.ProducerMessage{
		Topic: OrderCreatedTopic,
		Key:   sarama.StringEncoder(o.ID),
		Value: sarama.ByteEncoder(data),
	}

	type result struct {
		partition int32
		offset    int64
		err       error
	}
	done := make(chan result, 1)
	go func() {
		partition, offset, err := p.producer.SendMessage(msg)
		done <- result{partition, offset, err}
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("%w: %w", ErrPublish, ctx.Err())
	case res := <-done:
		if res.err != nil {
			return fmt.Errorf("%w: %w", ErrPublish, res.err)
		}
		logger.FromCtx(ctx).Debug("event published",
			zap.String("topic", OrderCreatedTopic),
			zap.Int32("partition", res.partition),
			zap.Int64("offset", res.offset),
			zap.String("order_id", o.ID),
		)
		return nil
	}
}

func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}
