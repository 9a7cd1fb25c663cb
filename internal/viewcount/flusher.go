package viewcount

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/vidtube/backend/internal/logging"
)

// ViewUpdater folds drained deltas into durable storage.
type ViewUpdater interface {
	AddViews(ctx context.Context, videoID string, delta int64) error
}

// Flusher periodically drains the counter into the updater.
type Flusher struct {
	counter  Counter
	updater  ViewUpdater
	interval time.Duration
	logger   *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once
}

// NewFlusher starts a background worker that flushes pending view deltas at
// the given interval.
func NewFlusher(counter Counter, updater ViewUpdater, interval time.Duration, logger *slog.Logger) *Flusher {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())

	f := &Flusher{
		counter:  counter,
		updater:  updater,
		interval: interval,
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
	}

	f.wg.Add(1)
	go f.run()

	return f
}

// Shutdown stops the ticker and performs one final flush so pending views are
// not lost on graceful termination.
func (f *Flusher) Shutdown(ctx context.Context) error {
	f.once.Do(f.cancel)

	done := make(chan struct{})
	go func() {
		f.wg.Wait()
		f.flush(ctx)
		close(done)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

func (f *Flusher) run() {
	defer f.wg.Done()

	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	for {
		select {
		case <-f.ctx.Done():
			return
		case <-ticker.C:
			flushCtx, cancel := context.WithTimeout(context.Background(), f.interval)
			f.flush(flushCtx)
			cancel()
		}
	}
}

func (f *Flusher) flush(ctx context.Context) {
	ctx, span := logging.StartSpan(logging.WithLogger(ctx, f.logger), "viewcount.flush")
	defer span.End()
	logger := logging.FromContext(ctx)

	deltas, err := f.counter.Drain(ctx)
	if err != nil {
		logger.Error("drain view counter", "error", err)
		return
	}

	for videoID, delta := range deltas {
		if err := f.updater.AddViews(ctx, videoID, delta); err != nil {
			logger.Error("flush view delta", "videoId", videoID, "delta", delta, "error", err)
		}
	}
}
