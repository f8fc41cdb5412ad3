package entity

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Estados de un pago pendiente.
const (
	PaymentStatusPending  = "pending"
	PaymentStatusApproved = "approved"
	PaymentStatusRejected = "rejected"
	PaymentStatusExpired  = "expired"
)

// PendingPayment pago externo solicitado y aún no resuelto por el proveedor.
// Sale de "pending" una sola vez (approved, rejected o expired).
type PendingPayment struct {
	PaymentID     string
	ExternalID    string // asignado por el proveedor; vacío hasta que responde
	BranchID      string
	UserID        string
	SaleID        string // borrador de venta que originó el pedido
	Amount        decimal.Decimal
	Currency      string
	PaymentMethod TenderMethod
	Status        string
	QRData        string
	QRImageURL    string
	ExpiresAt     time.Time
	Metadata      json.RawMessage
	CreatedAt     time.Time
}

// IsExpiredAt true si la ventana de espera terminó.
func (p *PendingPayment) IsExpiredAt(now time.Time) bool {
	return !now.Before(p.ExpiresAt)
}
