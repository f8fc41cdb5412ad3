// Package banktransfer cobro por transferencia: el cliente transfiere al alias/CBU
// indicando la referencia y el banco confirma por webhook firmado.
package banktransfer

import (
	"context"
	"errors"
	"time"

	"github.com/factusystem/factu-api/internal/application/payments"
	"github.com/factusystem/factu-api/internal/domain/entity"
)

var _ payments.PaymentRequester = (*Requester)(nil)

// Requester arma las instrucciones de transferencia; no llama a ningún servicio.
type Requester struct {
	alias string
	cbu   string
}

// NewRequester construye el requester con la cuenta receptora.
func NewRequester(alias, cbu string) *Requester {
	return &Requester{alias: alias, cbu: cbu}
}

// RequestPayment devuelve alias, CBU, monto y referencia (= payment_id) para mostrar al cliente.
func (r *Requester) RequestPayment(_ context.Context, req payments.PaymentRequest) (*payments.PaymentPayload, error) {
	if req.Method != entity.TenderBankTransfer {
		return nil, errors.New("banktransfer: medio no soportado")
	}
	if r.alias == "" && r.cbu == "" {
		return nil, errors.New("banktransfer: falta BANK_ALIAS o BANK_CBU")
	}
	instructions := map[string]string{
		"amount":     req.Amount.StringFixed(2),
		"currency":   req.Currency,
		"reference":  req.PaymentID,
		"expires_at": req.ExpiresAt.Format(time.RFC3339),
	}
	if r.alias != "" {
		instructions["alias"] = r.alias
	}
	if r.cbu != "" {
		instructions["cbu"] = r.cbu
	}
	return &payments.PaymentPayload{Instructions: instructions}, nil
}
