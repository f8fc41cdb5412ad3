package payments

import (
	"context"
	"encoding/json"
	"time"

	"github.com/factusystem/factu-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// ProviderPayment detalle autoritativo de un pago, tal como lo informa el proveedor.
type ProviderPayment struct {
	ID                string
	OrderID           string
	Status            string // approved, rejected, pending, in_process, cancelled, refunded...
	StatusDetail      string
	ExternalReference string // payment_id local enviado al crear la orden
	Amount            decimal.Decimal
	Currency          string
	PaymentMethodID   string
	PaymentTypeID     string
	AuthorizationCode string
	PayerEmail        string
	PayerName         string
	Raw               json.RawMessage
}

// ProviderClient consulta el detalle de un pago al proveedor.
type ProviderClient interface {
	GetPayment(ctx context.Context, id string) (*ProviderPayment, error)
}

// PaymentRequest pedido de cobro externo.
type PaymentRequest struct {
	PaymentID   string
	BranchID    string
	PointOfSale int
	Amount      decimal.Decimal
	Currency    string
	Method      entity.TenderMethod
	Description string
	ExpiresAt   time.Time
}

// PaymentPayload lo que el cajero muestra al cliente para pagar.
type PaymentPayload struct {
	ExternalID   string            `json:"external_id,omitempty"`
	QRData       string            `json:"qr_data,omitempty"`
	QRImageURL   string            `json:"qr_image_url,omitempty"`
	Instructions map[string]string `json:"instructions,omitempty"`
}

// PaymentRequester genera el cobro en el proveedor (orden QR, datos de transferencia).
type PaymentRequester interface {
	RequestPayment(ctx context.Context, req PaymentRequest) (*PaymentPayload, error)
}

// NotificationEvent aviso de que se insertó una notificación de pago.
type NotificationEvent struct {
	ID        int64  `json:"id"`
	PaymentID string `json:"payment_id"`
	BranchID  string `json:"branch_id"`
	Status    string `json:"status"`
}

// NotificationBroker canal de tiempo real por sucursal.
type NotificationBroker interface {
	// Subscribe devuelve los eventos de la sucursal y la función para desuscribirse.
	Subscribe(ctx context.Context, branchID string) (<-chan NotificationEvent, func(), error)
	// Publish difunde un evento. Con el driver postgres lo hace el trigger y es no-op.
	Publish(ctx context.Context, ev NotificationEvent) error
}
