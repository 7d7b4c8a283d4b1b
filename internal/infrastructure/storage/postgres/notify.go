package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"pharmstock/internal/core/apperror"
	"pharmstock/internal/domain/realtime"
	"pharmstock/internal/domain/sales"
	"pharmstock/pkg/logger"
)

// salesChannel is raised by a trigger on every sale insert; the payload is
// the sale id.
const salesChannel = "sales_events"

// SaleHandler consumes one newly ingested sale. The listener only cares
// about hard failures; the summary is for interactive callers.
type SaleHandler interface {
	HandleSale(ctx context.Context, sale *sales.Sale) (realtime.Summary, error)
}

// SaleListener delivers new sales to a handler. It listens on the
// notification channel and additionally polls on a timer, so sales ingested
// while the listener was down are still picked up; the ledger makes the
// overlap harmless.
type SaleListener struct {
	pool         *pgxpool.Pool
	repo         sales.Repository
	handler      SaleHandler
	pollInterval time.Duration
	retryDelay   time.Duration

	lastSeen time.Time
}

// NewSaleListener creates a listener. pollInterval bounds how stale the
// worker can get when notifications are lost.
func NewSaleListener(pool *Pool, repo sales.Repository, handler SaleHandler, pollInterval time.Duration) *SaleListener {
	if pollInterval <= 0 {
		pollInterval = 30 * time.Second
	}
	return &SaleListener{
		pool:         pool.Pool,
		repo:         repo,
		handler:      handler,
		pollInterval: pollInterval,
		retryDelay:   5 * time.Second,
	}
}

// Run blocks until ctx is cancelled. Connection failures reconnect after a
// delay; handler failures are logged and never stop the loop.
func (l *SaleListener) Run(ctx context.Context) error {
	// First pass catches up on everything ingested before the worker
	// started, then the watermark advances.
	l.catchUp(ctx)

	for {
		if err := l.listen(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logger.Warn(ctx, "sales listener disconnected, retrying",
				"error", err,
				"delay", l.retryDelay,
			)
			select {
			case <-time.After(l.retryDelay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

// listen holds one dedicated connection and waits for notifications,
// falling back to a catch-up poll on every timeout.
func (l *SaleListener) listen(ctx context.Context) error {
	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "LISTEN "+salesChannel); err != nil {
		return err
	}
	logger.Info(ctx, "listening for sales", "channel", salesChannel)

	for {
		waitCtx, cancel := context.WithTimeout(ctx, l.pollInterval)
		notification, err := conn.Conn().WaitForNotification(waitCtx)
		cancel()

		switch {
		case err == nil:
			l.dispatch(ctx, notification.Payload)
		case errors.Is(err, context.DeadlineExceeded):
			l.catchUp(ctx)
		default:
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
	}
}

// dispatch handles one notified sale.
func (l *SaleListener) dispatch(ctx context.Context, saleID string) {
	sale, err := l.repo.GetByID(ctx, saleID)
	if err != nil {
		if apperror.IsNotFound(err) {
			// The inserting transaction rolled back after notifying.
			logger.Warn(ctx, "notified sale not found", "sale_id", saleID)
			return
		}
		logger.Error(ctx, "load notified sale", "sale_id", saleID, "error", err)
		return
	}

	if _, err := l.handler.HandleSale(ctx, sale); err != nil {
		logger.Error(ctx, "handle sale", "sale_id", sale.ID, "error", err)
	}
	l.advance(sale.CreatedAt)
}

// catchUp processes every sale ingested at or after the watermark. The
// boundary sale comes back on every poll; downstream idempotence makes the
// repeat a no-op.
func (l *SaleListener) catchUp(ctx context.Context) {
	missed, err := l.repo.ListCreatedAfter(ctx, l.lastSeen)
	if err != nil {
		logger.Error(ctx, "poll sales", "error", err)
		return
	}
	if len(missed) == 0 {
		return
	}

	logger.Info(ctx, "processing sales from poll", "count", len(missed))
	for i := range missed {
		sale := &missed[i]
		if _, err := l.handler.HandleSale(ctx, sale); err != nil {
			logger.Error(ctx, "handle sale", "sale_id", sale.ID, "error", err)
		}
		l.advance(sale.CreatedAt)
	}
}

func (l *SaleListener) advance(createdAt time.Time) {
	if createdAt.After(l.lastSeen) {
		l.lastSeen = createdAt
	}
}
