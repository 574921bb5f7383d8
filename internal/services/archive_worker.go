package services

import (
	"context"
	"log"
	"time"

	"github.com/agamariel/poscore/internal/storage"
)

// retainCompleted - сколько завершённый заказ остаётся в рабочей таблице
// до переноса в архив.
const retainCompleted = 24 * time.Hour

// ArchiveWorker периодически переносит завершённые заказы старше суток
// в архивную таблицу, освобождая рабочую таблицу открытых заказов.
type ArchiveWorker struct {
	orderStorage storage.OrderStorage
	interval     time.Duration
	logger       *log.Logger
}

func NewArchiveWorker(orderStorage storage.OrderStorage, interval time.Duration, logger *log.Logger) *ArchiveWorker {
	if interval <= 0 {
		interval = time.Hour
	}
	if logger == nil {
		logger = log.Default()
	}
	return &ArchiveWorker{
		orderStorage: orderStorage,
		interval:     interval,
		logger:       logger,
	}
}

// Start запускает воркер в отдельной горутине и останавливается по ctx.Done().
func (w *ArchiveWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	go func() {
		defer ticker.Stop()
		if err := w.archiveBatch(ctx); err != nil {
			w.logger.Printf("archive worker error on initial batch: %v", err)
		}
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := w.archiveBatch(ctx); err != nil {
					w.logger.Printf("archive worker error: %v", err)
				}
			}
		}
	}()
}

func (w *ArchiveWorker) archiveBatch(ctx context.Context) error {
	cutoff := time.Now().Add(-retainCompleted)
	archived, err := w.orderStorage.ArchiveCompleted(ctx, cutoff)
	if err != nil {
		return err
	}
	if archived > 0 {
		w.logger.Printf("archived %d completed orders older than %s", archived, cutoff.Format(time.RFC3339))
	}
	return nil
}
