// Package historian records accepted game actions. Game servers push records
// onto a Redis queue; the historian service drains that queue in batches into
// a Sink, normally Postgres.
package historian

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Sink persists a batch of records atomically.
type Sink interface {
	WriteActions(ctx context.Context, recs []ActionRecord) error
}

// Config tunes the historian service.
type Config struct {
	Queue      string
	BatchSize  int
	FlushDelay time.Duration
	PopTimeout time.Duration
}

// DefaultConfig mirrors the environment defaults.
func DefaultConfig() Config {
	return Config{
		Queue:      DefaultQueueName,
		BatchSize:  20,
		FlushDelay: 500 * time.Millisecond,
		PopTimeout: 3 * time.Second,
	}
}

// Service pops records from the Redis queue and flushes them to the sink
// whenever the batch fills or the flush delay elapses.
type Service struct {
	client *redis.Client
	sink   Sink
	cfg    Config
	logger *logrus.Entry

	batchMu sync.Mutex
	batch   []ActionRecord
}

// NewService builds a historian service. Zero config fields fall back to
// DefaultConfig.
func NewService(client *redis.Client, sink Sink, cfg Config, logger *logrus.Logger) *Service {
	def := DefaultConfig()
	if cfg.Queue == "" {
		cfg.Queue = def.Queue
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = def.BatchSize
	}
	if cfg.FlushDelay <= 0 {
		cfg.FlushDelay = def.FlushDelay
	}
	if cfg.PopTimeout <= 0 {
		cfg.PopTimeout = def.PopTimeout
	}
	return &Service{
		client: client,
		sink:   sink,
		cfg:    cfg,
		logger: logger.WithField("component", "historian"),
		batch:  make([]ActionRecord, 0, cfg.BatchSize),
	}
}

// Run blocks until ctx is cancelled, then flushes whatever is left.
func (s *Service) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.FlushDelay)
	defer ticker.Stop()

	s.logger.WithField("queue", s.cfg.Queue).Info("historian started")
	for {
		select {
		case <-ctx.Done():
			s.flush(context.Background())
			s.logger.Info("historian stopped")
			return nil
		case <-ticker.C:
			s.flush(ctx)
		default:
		}

		res, err := s.client.BLPop(ctx, s.cfg.PopTimeout, s.cfg.Queue).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) || ctx.Err() != nil {
				continue
			}
			s.logger.WithError(err).Error("BLPop failed")
			select {
			case <-ctx.Done():
			case <-time.After(time.Second):
			}
			continue
		}
		if len(res) < 2 {
			continue
		}

		// res[0] is the queue name and res[1] the payload.
		var rec ActionRecord
		if err := json.Unmarshal([]byte(res[1]), &rec); err != nil {
			s.logger.WithError(err).Warn("invalid action record")
			continue
		}
		s.append(ctx, rec)
	}
}

func (s *Service) append(ctx context.Context, rec ActionRecord) {
	s.batchMu.Lock()
	s.batch = append(s.batch, rec)
	full := len(s.batch) >= s.cfg.BatchSize
	s.batchMu.Unlock()

	if full {
		s.flush(ctx)
	}
}

// flush writes the pending batch. A failed batch is logged and dropped.
func (s *Service) flush(ctx context.Context) {
	s.batchMu.Lock()
	if len(s.batch) == 0 {
		s.batchMu.Unlock()
		return
	}
	pending := make([]ActionRecord, len(s.batch))
	copy(pending, s.batch)
	s.batch = s.batch[:0]
	s.batchMu.Unlock()

	if err := s.sink.WriteActions(ctx, pending); err != nil {
		s.logger.WithError(err).WithField("count", len(pending)).Error("failed to flush actions")
		return
	}
	s.logger.WithField("count", len(pending)).Debug("flushed actions")
}
