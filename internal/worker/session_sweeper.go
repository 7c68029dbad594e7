package worker

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/DanielPopoola/creski-storefront/internal/application"
	"github.com/DanielPopoola/creski-storefront/internal/clock"
	"github.com/DanielPopoola/creski-storefront/internal/domain"
)

var errStillRunning = errors.New("session no longer expired")

// SessionSweeper fails sessions left in ORDER_CREATING or VERIFYING past
// their deadline, e.g. after a restart interrupted the request driving them.
type SessionSweeper struct {
	sessions  application.SessionStore
	clock     clock.Clock
	interval  time.Duration
	batchSize int
	logger    *slog.Logger
}

func NewSessionSweeper(
	sessions application.SessionStore,
	clk clock.Clock,
	interval time.Duration,
	batchSize int,
	logger *slog.Logger,
) *SessionSweeper {
	return &SessionSweeper{
		sessions:  sessions,
		clock:     clk,
		interval:  interval,
		batchSize: batchSize,
		logger:    logger,
	}
}

func (w *SessionSweeper) Start(ctx context.Context) {
	w.logger.Info("session sweeper started", "interval", w.interval)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("session sweeper stopping")
			return
		case <-ticker.C:
			if _, err := w.Sweep(ctx); err != nil {
				w.logger.Error("session sweep failed", "error", err)
			}
		}
	}
}

// Sweep handles one batch and returns how many sessions it failed.
func (w *SessionSweeper) Sweep(ctx context.Context) (int, error) {
	now := w.clock.Now()

	ids, err := w.sessions.ExpiredInFlight(ctx, now, w.batchSize)
	if err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}

	var expired int
	for _, id := range ids {
		if err := w.expire(ctx, id, now); err != nil {
			switch {
			case errors.Is(err, errStillRunning), errors.Is(err, domain.ErrSessionNotFound):
			case errors.Is(err, domain.ErrConcurrentUpdate):
				w.logger.Debug("session changed while sweeping", "session_id", id)
			default:
				w.logger.Error("failed to expire session", "session_id", id, "error", err)
			}
			continue
		}
		expired++
	}

	w.logger.Info("processed stuck sessions",
		"checked", len(ids),
		"marked_errored", expired)

	return expired, nil
}

func (w *SessionSweeper) expire(ctx context.Context, id string, now time.Time) error {
	_, err := w.sessions.Update(ctx, id, func(s *domain.CheckoutSession) error {
		if !s.Expired(now) {
			return errStillRunning
		}
		timeout := application.NewTimeoutError(operationFor(s.State), nil)
		return s.Fail(timeout.Code, timeout.Message, now)
	})
	return err
}

func operationFor(state domain.SessionState) string {
	if state == domain.StateVerifying {
		return "verifying your payment"
	}
	return "creating your order"
}
