package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	"healthchain/internal/platform/metrics"
)

// KafkaPublisher mirrors audit entries onto a Kafka topic for downstream
// compliance consumers. Publish enqueues without blocking; when the inbox is
// full the entry is dropped and counted, never backpressured into the
// request path. The store remains the source of truth.
type KafkaPublisher struct {
	client  *kgo.Client
	topic   string
	inbox   chan Entry
	logger  *slog.Logger
	metrics *metrics.Metrics
}

const (
	publisherInboxSize = 1024
	flushTimeout       = 5 * time.Second
)

func NewKafkaPublisher(brokers []string, topic string, logger *slog.Logger, m *metrics.Metrics) (*KafkaPublisher, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return &KafkaPublisher{
		client:  client,
		topic:   topic,
		inbox:   make(chan Entry, publisherInboxSize),
		logger:  logger,
		metrics: m,
	}, nil
}

func (p *KafkaPublisher) Publish(entry Entry) {
	select {
	case p.inbox <- entry:
	default:
		if p.metrics != nil {
			p.metrics.AuditDropped.Inc()
		}
	}
}

// Run consumes the inbox until ctx is cancelled, then flushes and closes the
// client.
func (p *KafkaPublisher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			flushCtx, cancel := context.WithTimeout(context.Background(), flushTimeout)
			defer cancel()
			_ = p.client.Flush(flushCtx)
			p.client.Close()
			return ctx.Err()
		case entry := <-p.inbox:
			p.produce(ctx, entry)
		}
	}
}

func (p *KafkaPublisher) produce(ctx context.Context, entry Entry) {
	payload, err := json.Marshal(entry)
	if err != nil {
		p.logger.ErrorContext(ctx, "marshal audit entry", "error", err)
		return
	}
	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(entry.Actor),
		Value: payload,
	}
	p.client.Produce(ctx, record, func(_ *kgo.Record, err error) {
		if err != nil {
			p.logger.ErrorContext(ctx, "produce audit entry",
				"error", err,
				"log_id", uint64(entry.ID),
			)
		}
	})
}
