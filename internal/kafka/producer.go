package kafka

import (
	"context"
	"encoding/json"
	"time"

	"iris-server/config"
	"iris-server/internal/models"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/compress"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// ActivityProducer publishes audit trail entries. Track never blocks the
// caller on the broker and never reports failure to it.
type ActivityProducer struct {
	writer  messageWriter
	topic   string
	metrics *config.Metrics
}

func NewActivityProducer(brokers []string, topic string, metrics *config.Metrics) *ActivityProducer {
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchSize:    100,
		BatchBytes:   1024 * 1024, // 1MB
		BatchTimeout: 50 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
		Compression:  compress.Snappy,
		Async:        true,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				log.Warn().Err(err).Int("count", len(messages)).Msg("activity batch not delivered")
				for range messages {
					config.RecordActivity(metrics, topic, "produce_failed")
				}
				return
			}
			for range messages {
				config.RecordActivity(metrics, topic, "produced")
			}
		},
	}

	return &ActivityProducer{writer: w, topic: topic, metrics: metrics}
}

func (p *ActivityProducer) Track(ctx context.Context, activity models.Activity) {
	if activity.CreatedAt.IsZero() {
		activity.CreatedAt = time.Now()
	}
	value, err := json.Marshal(activity)
	if err != nil {
		log.Warn().Err(err).Msg("activity not encodable, dropped")
		config.RecordActivity(p.metrics, p.topic, "dropped")
		return
	}

	// the request context may be cancelled as soon as the handler returns
	ctx = context.WithoutCancel(ctx)
	msg := kafka.Message{Key: []byte(activity.UserID.Hex()), Value: value}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		log.Warn().Err(err).Msg("activity not queued")
		config.RecordActivity(p.metrics, p.topic, "dropped")
	}
}

func (p *ActivityProducer) Close() error {
	return p.writer.Close()
}
