package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/art_shop/internal/models"
	"github.com/Skotchmaster/art_shop/pkg/logging"
)

const (
	reconcileBatch = 100
	// reconcileHorizon is past the longest gateway session lifetime; older
	// pending orders can no longer be paid.
	reconcileHorizon = 48 * time.Hour
)

// Reconcile asks the gateway about pending orders older than olderThan and
// fulfills the ones that were paid but whose webhook never arrived. Every
// order in the window is checked once per run, so abandoned sessions cannot
// hide newer paid ones. It returns how many orders it completed.
func (s *CheckoutService) Reconcile(ctx context.Context, fulfill *FulfillmentService, olderThan time.Duration) (int, error) {
	l := logging.FromContext(ctx).With("svc", "reconcile")

	runStart := time.Now()
	cutoff := runStart.Add(-olderThan)
	notBefore := runStart.Add(-reconcileHorizon)
	seen := make(map[uuid.UUID]struct{})

	completed := 0
	for {
		orders, err := s.Repo.ListStalePending(ctx, cutoff, notBefore, runStart, PlaceholderPrefix, reconcileBatch)
		if err != nil {
			return completed, err
		}

		ids := make([]uuid.UUID, 0, len(orders))
		for _, o := range orders {
			if _, ok := seen[o.ID]; ok {
				continue
			}
			seen[o.ID] = struct{}{}
			ids = append(ids, o.ID)

			if ctx.Err() != nil {
				return completed, ctx.Err()
			}
			if s.reconcileOne(ctx, l, fulfill, o) {
				completed++
			}
		}
		if len(ids) == 0 {
			return completed, nil
		}

		if err := s.Repo.MarkReconciled(ctx, ids, time.Now()); err != nil {
			return completed, err
		}
		if len(orders) < reconcileBatch {
			return completed, nil
		}
	}
}

func (s *CheckoutService) reconcileOne(ctx context.Context, l *slog.Logger, fulfill *FulfillmentService, o models.Order) bool {
	paid, err := s.Gateway.SessionPaid(ctx, o.PaymentSessionID)
	if err != nil {
		l.Warn("reconcile_status_error", "order_id", o.ID, "session_id", o.PaymentSessionID, "error", err)
		return false
	}
	if !paid {
		return false
	}

	res, err := fulfill.Fulfill(ctx, o.PaymentSessionID, o.ID.String())
	if err != nil {
		l.Error("reconcile_fulfill_error", "order_id", o.ID, "error", err)
		return false
	}
	if res.AlreadyCompleted {
		return false
	}
	l.Info("reconcile_completed", "order_id", o.ID)
	return true
}

// RunReconciler runs Reconcile every interval until ctx is cancelled.
func (s *CheckoutService) RunReconciler(ctx context.Context, fulfill *FulfillmentService, interval, olderThan time.Duration) {
	l := logging.FromContext(ctx).With("svc", "reconcile")
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.Reconcile(ctx, fulfill, olderThan)
			if err != nil && !errors.Is(err, context.Canceled) {
				l.Error("reconcile_error", "error", err)
				continue
			}
			if n > 0 {
				l.Info("reconcile_done", "completed", n)
			}
		}
	}
}
