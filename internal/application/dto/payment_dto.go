package dto

import (
	"bytes"
	"encoding/json"

	"github.com/shopspring/decimal"
)

// MercadoPagoWebhook body de POST /api/webhooks/mercadopago.
type MercadoPagoWebhook struct {
	Type   string `json:"type"`
	Action string `json:"action"`
	Data   struct {
		ID FlexibleID `json:"id"`
	} `json:"data"`
}

// FlexibleID acepta ids numéricos o string (Mercado Pago envía ambos).
type FlexibleID string

// UnmarshalJSON implementa json.Unmarshaler.
func (f *FlexibleID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = FlexibleID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = FlexibleID(n.String())
	return nil
}

// TestPaymentRequest body de POST /api/webhooks/test-payment.
type TestPaymentRequest struct {
	PaymentID string           `json:"payment_id"`
	Status    string           `json:"status,omitempty"`
	Amount    *decimal.Decimal `json:"amount,omitempty"`
}

// WebhookAck respuesta de los webhooks.
type WebhookAck struct {
	Received bool   `json:"received"`
	Outcome  string `json:"outcome,omitempty"`
}
