package billing

import (
	"context"
	"time"

	"github.com/factusystem/factu-api/internal/application/payments"
	"github.com/factusystem/factu-api/internal/domain/entity"
	"github.com/factusystem/factu-api/internal/domain/repository"
)

// SaleTxRunner ejecuta una función dentro de una transacción con los repos de numeración y ventas.
type SaleTxRunner interface {
	RunSale(ctx context.Context, fn func(
		counterRepo repository.CounterRepository,
		saleRepo repository.SaleRepository,
	) error) error
}

// PaymentAwaiter inicia cobros externos y notifica su resolución.
type PaymentAwaiter interface {
	Request(ctx context.Context, req payments.StartRequest, onResult func(payments.Result)) (*payments.Handle, error)
	// FlagForReview deja la aprobación del pago marcada para conciliación manual.
	FlagForReview(ctx context.Context, paymentID, reason string) error
}

// FiscalProcessor autoriza comprobantes fiscales fuera del ciclo HTTP.
type FiscalProcessor interface {
	ProcessAsync(saleID string)
}

// FiscalResult respuesta del organismo fiscal (AFIP WSFE).
type FiscalResult struct {
	Approved  bool
	CAE       string
	CAEExpiry time.Time
	Errors    string
}

// FiscalAuthorizer solicita el CAE de un comprobante.
type FiscalAuthorizer interface {
	Authorize(ctx context.Context, sale *entity.Sale) (*FiscalResult, error)
}

// IssuerInfo datos del emisor impresos en el comprobante.
type IssuerInfo struct {
	Name         string
	CUIT         string
	Address      string
	TaxCondition string
}

// ReceiptRenderer genera la representación impresa (PDF) de una venta.
type ReceiptRenderer interface {
	RenderReceipt(ctx context.Context, sale *entity.Sale, issuer IssuerInfo) ([]byte, error)
}
