package worker

// reconcile_cron.go
// Background goroutine that periodically backfills pending delivery records
// for committed delivery-type orders that lost theirs. Order creation writes
// the delivery row after the order transaction commits, so a crash or write
// failure in between leaves an order without its row; this cron heals that.

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"propshop/internal/dto"
)

const reconcileTickInterval = 60 * time.Second

// DeliveryReconciler is the slice of the delivery service the cron needs.
type DeliveryReconciler interface {
	Reconcile(ctx context.Context) (*dto.ReconcileResponse, error)
}

// StartReconcileCron launches a background goroutine that ticks every minute
// and recreates missing delivery rows. It respects the context for graceful
// shutdown.
func StartReconcileCron(ctx context.Context, reconciler DeliveryReconciler) {
	go func() {
		ticker := time.NewTicker(reconcileTickInterval)
		defer ticker.Stop()

		log.Info().Msg("reconcile_cron: started")

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("reconcile_cron: shutting down")
				return
			case <-ticker.C:
				resp, err := reconciler.Reconcile(ctx)
				if err != nil {
					log.Error().Err(err).Msg("reconcile_cron: tick failed")
					continue
				}
				if resp.Created > 0 {
					log.Info().Int("created", resp.Created).Msg("reconcile_cron: delivery rows backfilled")
				}
			}
		}
	}()
}
