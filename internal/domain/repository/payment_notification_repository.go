package repository

import (
	"context"

	"github.com/factusystem/factu-api/internal/domain/entity"
)

// PaymentNotificationRepository puerto append-only de notificaciones de pago.
type PaymentNotificationRepository interface {
	// Insert agrega la notificación si no existe otra con el mismo (payment_id, status).
	// Devuelve false cuando era un duplicado.
	Insert(ctx context.Context, n *entity.PaymentNotification) (bool, error)
	// FindLatestByPaymentID última notificación del pago; nil, nil si no hay.
	FindLatestByPaymentID(ctx context.Context, paymentID string) (*entity.PaymentNotification, error)
	// FlagManualReview marca la notificación (payment_id, status) para conciliación manual.
	// Es el único cambio permitido sobre una fila ya insertada.
	FlagManualReview(ctx context.Context, paymentID, status, reason string) error
}
