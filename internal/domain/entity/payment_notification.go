package entity

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// PaymentNotification registro inmutable (append-only) de un resultado informado por el proveedor.
// Único por (payment_id, status): las reentregas del webhook no generan filas nuevas.
type PaymentNotification struct {
	ID                int64
	PaymentID         string
	ExternalID        string
	BranchID          string
	UserID            string
	SaleID            string
	Amount            decimal.Decimal
	Currency          string
	PaymentMethod     TenderMethod
	Status            string // approved | rejected
	StatusDetail      string
	TransactionID     string
	AuthorizationCode string
	PayerEmail        string
	PayerName         string
	Metadata          json.RawMessage
	RawWebhookData    json.RawMessage
	Processed         bool
	CreatedAt         time.Time
}
