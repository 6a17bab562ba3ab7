package kafka

import (
	"context"
	"encoding/json"
	"time"

	"iris-server/config"
	"iris-server/internal/models"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"
)

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type ActivityStore interface {
	InsertActivities(ctx context.Context, activities []models.Activity) error
}

// ActivityConsumer persists audit trail entries published by ActivityProducer.
type ActivityConsumer struct {
	reader  messageReader
	store   ActivityStore
	topic   string
	metrics *config.Metrics
}

func NewActivityConsumer(brokers []string, topic, groupID string, store ActivityStore, metrics *config.Metrics) *ActivityConsumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       1,
		MaxBytes:       10e6, // 10MB
		CommitInterval: time.Second,
	})

	return &ActivityConsumer{reader: r, store: store, topic: topic, metrics: metrics}
}

// Start blocks until ctx is cancelled.
func (c *ActivityConsumer) Start(ctx context.Context) {
	log.Info().Str("topic", c.topic).Msg("activity consumer started")
	for {
		m, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Info().Str("topic", c.topic).Msg("activity consumer stopped")
				return
			}
			log.Error().Err(err).Msg("error fetching activity")
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}

		var activity models.Activity
		if err := json.Unmarshal(m.Value, &activity); err != nil {
			log.Error().Err(err).
				Int("partition", m.Partition).
				Int64("offset", m.Offset).
				Msg("malformed activity, skipping")
			config.RecordActivity(c.metrics, c.topic, "dropped")
			c.commit(ctx, m)
			continue
		}

		if err := c.store.InsertActivities(ctx, []models.Activity{activity}); err != nil {
			// left uncommitted so the group redelivers it
			log.Error().Err(err).Int64("offset", m.Offset).Msg("failed to persist activity")
			continue
		}
		config.RecordActivity(c.metrics, c.topic, "consumed")
		c.commit(ctx, m)
	}
}

func (c *ActivityConsumer) commit(ctx context.Context, m kafka.Message) {
	if err := c.reader.CommitMessages(ctx, m); err != nil {
		log.Error().Err(err).Int64("offset", m.Offset).Msg("error committing activity")
	}
}

func (c *ActivityConsumer) Close() error {
	return c.reader.Close()
}
