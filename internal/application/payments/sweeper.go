package payments

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/factusystem/factu-api/internal/domain/repository"
)

// ExpirySweeper marca como expired los pagos pendientes vencidos que ningún
// awaiter cerró (reinicios del proceso, borradores abandonados).
type ExpirySweeper struct {
	pending  repository.PendingPaymentRepository
	interval time.Duration
	log      zerolog.Logger
	now      func() time.Time
}

// NewExpirySweeper construye el barrido.
func NewExpirySweeper(pending repository.PendingPaymentRepository, interval time.Duration, log zerolog.Logger) *ExpirySweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	return &ExpirySweeper{
		pending:  pending,
		interval: interval,
		log:      log.With().Str("component", "expiry_sweeper").Logger(),
		now:      time.Now,
	}
}

// Run barre cada intervalo hasta que ctx termine.
func (s *ExpirySweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.SweepOnce(ctx)
		}
	}
}

// SweepOnce ejecuta un barrido y devuelve cuántos pagos expiró.
func (s *ExpirySweeper) SweepOnce(ctx context.Context) int64 {
	n, err := s.pending.ExpireOverdue(ctx, s.now())
	if err != nil {
		s.log.Error().Err(err).Msg("error expirando pagos vencidos")
		return 0
	}
	if n > 0 {
		s.log.Info().Int64("expired", n).Msg("pagos pendientes vencidos")
	}
	return n
}
