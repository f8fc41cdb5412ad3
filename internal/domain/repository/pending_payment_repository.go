package repository

import (
	"context"
	"time"

	"github.com/factusystem/factu-api/internal/domain/entity"
)

// PendingPaymentRepository puerto de persistencia de pagos externos pendientes.
type PendingPaymentRepository interface {
	Create(ctx context.Context, p *entity.PendingPayment) error
	// UpdateProviderData guarda lo que devolvió el proveedor (id externo, datos del QR).
	UpdateProviderData(ctx context.Context, paymentID, externalID, qrData, qrImageURL string) error
	// FindByPaymentID devuelve nil, nil si no existe.
	FindByPaymentID(ctx context.Context, paymentID string) (*entity.PendingPayment, error)
	// FindByExternalID devuelve nil, nil si no existe.
	FindByExternalID(ctx context.Context, externalID string) (*entity.PendingPayment, error)
	// Transition mueve el pago desde "pending" a status. Devuelve false si ya no estaba pendiente.
	Transition(ctx context.Context, paymentID, status string) (bool, error)
	// ExpireOverdue marca como expired los pendientes vencidos a now. Devuelve cuántos.
	ExpireOverdue(ctx context.Context, now time.Time) (int64, error)
}
