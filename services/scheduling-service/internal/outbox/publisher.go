package outbox

import (
	"context"
	"log/slog"
	"time"

	"github.com/Satyamdhote/appointment-scheduling-backend/libs/db"
	"github.com/Satyamdhote/appointment-scheduling-backend/libs/kafkax"
	"github.com/jackc/pgx/v5"
	"github.com/segmentio/kafka-go"
)

// MessageWriter is the part of *kafka.Writer the publishers use.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// NewWriter returns a hash-balanced writer, or nil when no brokers are set.
func NewWriter(brokers string) *kafka.Writer {
	list := kafkax.SplitBrokers(brokers)
	if len(list) == 0 {
		return nil
	}
	return &kafka.Writer{
		Addr:                   kafka.TCP(list...),
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
	}
}

// Publisher drains outbox_events into kafka on a fixed interval.
type Publisher struct {
	pool      *db.Pool
	repo      *Repository
	logger    *slog.Logger
	brokers   string
	pollEvery time.Duration
	batchSize int
}

type PublisherConfig struct {
	Brokers   string
	PollEvery time.Duration
	BatchSize int
}

func NewPublisher(pool *db.Pool, repo *Repository, logger *slog.Logger, cfg PublisherConfig) *Publisher {
	if cfg.PollEvery <= 0 {
		cfg.PollEvery = 2 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	return &Publisher{
		pool:      pool,
		repo:      repo,
		logger:    logger,
		brokers:   cfg.Brokers,
		pollEvery: cfg.PollEvery,
		batchSize: cfg.BatchSize,
	}
}

func (p *Publisher) Run(ctx context.Context) {
	writer := NewWriter(p.brokers)
	if writer == nil {
		p.logger.Warn("outbox publisher disabled (no kafka brokers configured)")
		return
	}
	defer writer.Close()

	ticker := time.NewTicker(p.pollEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n, err := p.publishBatch(ctx, writer); err != nil {
				p.logger.Error("outbox publish failed", "err", err)
			} else if n > 0 {
				p.logger.Debug("outbox batch published", "count", n)
			}
		}
	}
}

// publishBatch sends one batch of unpublished rows and marks them published.
// Rows stay locked until the commit, so concurrent publishers skip them.
func (p *Publisher) publishBatch(ctx context.Context, writer MessageWriter) (int, error) {
	var n int
	err := p.pool.WithTx(ctx, func(tx pgx.Tx) error {
		records, err := p.repo.FetchUnpublished(ctx, tx, p.batchSize)
		if err != nil || len(records) == 0 {
			return err
		}

		msgs := make([]kafka.Message, 0, len(records))
		ids := make([]int64, 0, len(records))
		for _, r := range records {
			msgs = append(msgs, recordMessage(ctx, r))
			ids = append(ids, r.ID)
		}
		if err := writer.WriteMessages(ctx, msgs...); err != nil {
			return err
		}
		n = len(records)
		return p.repo.MarkPublished(ctx, tx, ids)
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}

// recordMessage builds the kafka message for r, restoring the trace context
// that was active when the row was written.
func recordMessage(ctx context.Context, r Record) kafka.Message {
	meta := kafkax.EventMeta{EventID: r.EventID, EventType: r.EventType, Source: Source, OccurredAt: r.CreatedAt}
	return kafkax.NewMessage(r.Trace.Restore(ctx), meta, r.AggregateID, r.Payload)
}
