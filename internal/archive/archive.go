// Package archive writes a durable log of answered questions to object
// storage as parquet segments. The log is best effort: a failed upload is
// retried on the next flush and never blocks answering.
package archive

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hubia/hubia/internal/storage"
)

type Record struct {
	Question   string
	SQL        string
	Answer     string
	Outcome    string
	FromCache  bool
	RowCount   int64
	AnsweredAt time.Time
}

type Config struct {
	Dataset       string
	FlushInterval time.Duration
	MaxBuffered   int
}

type Archiver struct {
	ObjectStore storage.ObjectStore
	Config      Config
	Logger      *slog.Logger
	Clock       func() time.Time

	mu       sync.Mutex
	pending  []Record
	sequence int64
}

func (a *Archiver) Run(ctx context.Context) error {
	a.ensureDefaults()

	ticker := time.NewTicker(a.Config.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			// Final flush with a fresh context so shutdown still drains.
			flushCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			if err := a.Flush(flushCtx); err != nil && a.Logger != nil {
				a.Logger.Error("final archive flush failed", slog.Any("error", err))
			}
			cancel()
			return nil
		case <-ticker.C:
			if err := a.Flush(ctx); err != nil && a.Logger != nil {
				a.Logger.ErrorContext(ctx, "archive flush failed", slog.Any("error", err))
			}
		}
	}
}

// Append queues a record for the next flush. When the buffer is full the
// oldest record is dropped so answering never blocks on a slow store.
func (a *Archiver) Append(record Record) {
	a.ensureDefaults()

	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.pending) >= a.Config.MaxBuffered {
		a.pending = a.pending[1:]
		if a.Logger != nil {
			a.Logger.Warn("archive buffer full, dropping oldest record")
		}
	}
	a.pending = append(a.pending, record)
}

func (a *Archiver) Flush(ctx context.Context) error {
	a.ensureDefaults()

	a.mu.Lock()
	records := a.pending
	a.pending = nil
	sequence := a.sequence
	a.sequence++
	a.mu.Unlock()

	if len(records) == 0 {
		return nil
	}

	data, err := encodeRecordsToParquet(records)
	if err != nil {
		return fmt.Errorf("encode answer log: %w", err)
	}

	key, err := storage.BuildAnswerLogPath(a.Config.Dataset, a.Clock(), sequence)
	if err != nil {
		return fmt.Errorf("build answer log path: %w", err)
	}

	if _, err := a.ObjectStore.Put(ctx, key, bytes.NewReader(data), int64(len(data)), storage.PutOptions{ContentType: "application/octet-stream"}); err != nil {
		a.requeue(records)
		return fmt.Errorf("put answer log segment: %w", err)
	}

	if a.Logger != nil {
		a.Logger.InfoContext(ctx, "archived answer log segment",
			slog.String("key", key),
			slog.Int("records", len(records)))
	}
	return nil
}

func (a *Archiver) requeue(records []Record) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.pending = append(records, a.pending...)
	if overflow := len(a.pending) - a.Config.MaxBuffered; overflow > 0 {
		a.pending = a.pending[overflow:]
	}
}

func (a *Archiver) ensureDefaults() {
	if a.Clock == nil {
		a.Clock = time.Now
	}
	if a.Config.Dataset == "" {
		a.Config.Dataset = "answers"
	}
	if a.Config.FlushInterval <= 0 {
		a.Config.FlushInterval = 30 * time.Second
	}
	if a.Config.MaxBuffered <= 0 {
		a.Config.MaxBuffered = 1000
	}
}
