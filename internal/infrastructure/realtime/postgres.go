package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/factusystem/factu-api/internal/application/payments"
)

var _ payments.NotificationBroker = (*PostgresBroker)(nil)

// PostgresBroker escucha el NOTIFY que emite el trigger de payment_notifications
// con una sola conexión y reparte los eventos por sucursal en memoria.
type PostgresBroker struct {
	pool  *pgxpool.Pool
	local *MemoryBroker
	log   zerolog.Logger
	retry time.Duration
}

// NewPostgresBroker construye el broker; Run debe correr en una goroutine.
func NewPostgresBroker(pool *pgxpool.Pool, log zerolog.Logger) *PostgresBroker {
	return &PostgresBroker{
		pool:  pool,
		local: NewMemoryBroker(),
		log:   log.With().Str("component", "realtime_pg").Logger(),
		retry: 2 * time.Second,
	}
}

// Subscribe eventos de la sucursal.
func (b *PostgresBroker) Subscribe(ctx context.Context, branchID string) (<-chan payments.NotificationEvent, func(), error) {
	return b.local.Subscribe(ctx, branchID)
}

// Publish no hace nada: el trigger de la tabla ya emitió pg_notify al insertar.
func (b *PostgresBroker) Publish(context.Context, payments.NotificationEvent) error {
	return nil
}

// Run mantiene el LISTEN hasta que ctx termina, reconectando ante errores.
func (b *PostgresBroker) Run(ctx context.Context) {
	for {
		err := b.listen(ctx)
		if ctx.Err() != nil {
			return
		}
		b.log.Warn().Err(err).Dur("retry_in", b.retry).Msg("LISTEN interrumpido, reconectando")
		select {
		case <-ctx.Done():
			return
		case <-time.After(b.retry):
		}
	}
}

func (b *PostgresBroker) listen(ctx context.Context) error {
	conn, err := b.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "LISTEN "+PostgresChannel); err != nil {
		return err
	}
	b.log.Info().Str("channel", PostgresChannel).Msg("escuchando notificaciones de pago")

	for {
		n, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			return err
		}
		ev, err := decodeEvent([]byte(n.Payload))
		if err != nil {
			b.log.Warn().Err(err).Str("payload", n.Payload).Msg("NOTIFY con payload inválido")
			continue
		}
		_ = b.local.Publish(ctx, ev)
	}
}

// decodeEvent valida el JSON de un evento de pago.
func decodeEvent(payload []byte) (payments.NotificationEvent, error) {
	var ev payments.NotificationEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		return ev, err
	}
	if ev.PaymentID == "" || ev.BranchID == "" {
		return ev, errors.New("evento sin payment_id o branch_id")
	}
	return ev, nil
}
