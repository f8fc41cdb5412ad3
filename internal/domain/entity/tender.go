package entity

import (
	"strings"

	"github.com/shopspring/decimal"
)

// TenderMethod medio de pago de una entrada del ledger.
type TenderMethod string

const (
	TenderCash         TenderMethod = "cash"
	TenderVoucher      TenderMethod = "voucher"       // vale / nota de crédito: equivalente a efectivo
	TenderCurrentAcct  TenderMethod = "current_account"
	TenderDebitCard    TenderMethod = "debit_card"
	TenderCreditCard   TenderMethod = "credit_card"
	TenderQR           TenderMethod = "qr"
	TenderWallet       TenderMethod = "wallet"
	TenderBankTransfer TenderMethod = "bank_transfer"
)

// ParseTenderMethod valida el método recibido por la API.
func ParseTenderMethod(s string) (TenderMethod, bool) {
	m := TenderMethod(strings.ToLower(strings.TrimSpace(s)))
	switch m {
	case TenderCash, TenderVoucher, TenderCurrentAcct, TenderDebitCard, TenderCreditCard,
		TenderQR, TenderWallet, TenderBankTransfer:
		return m, true
	}
	return "", false
}

// IsCashEquivalent medios que no pasan por un procesador (admiten comprobante X).
func (m TenderMethod) IsCashEquivalent() bool {
	return m == TenderCash || m == TenderVoucher || m == TenderCurrentAcct
}

// IsExternal medios que requieren confirmación asíncrona del proveedor.
func (m TenderMethod) IsExternal() bool {
	return m == TenderQR || m == TenderWallet || m == TenderBankTransfer
}

// Estados de confirmación de una entrada externa.
const (
	ConfirmationNone      = ""
	ConfirmationConfirmed = "confirmed"
)

// TenderEntry una entrada del ledger de pagos.
type TenderEntry struct {
	Method             TenderMethod
	Amount             decimal.Decimal
	ExternalReference  string // payment_id local para pagos externos
	ConfirmationStatus string
	AmountMismatch     bool // el proveedor informó un monto distinto al solicitado
}

// IsConfirmedExternal true si la entrada vino de una confirmación del proveedor.
func (t TenderEntry) IsConfirmedExternal() bool {
	return t.Method.IsExternal() && t.ConfirmationStatus == ConfirmationConfirmed
}
