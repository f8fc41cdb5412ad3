package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateDraftRequest body para POST /api/billing/drafts.
type CreateDraftRequest struct {
	ClientID string `json:"client_id,omitempty"`
}

// SetClientRequest body para PUT /api/billing/drafts/:id/client. Vacío = consumidor final.
type SetClientRequest struct {
	ClientID string `json:"client_id"`
}

// AddItemRequest línea nueva del borrador. UnitPrice incluye IVA.
type AddItemRequest struct {
	ProductID       string          `json:"product_id,omitempty"`
	Description     string          `json:"description"`
	Quantity        decimal.Decimal `json:"quantity"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	VATRate         decimal.Decimal `json:"vat_rate"`
}

// SetInvoiceTypeRequest elección manual del comprobante.
type SetInvoiceTypeRequest struct {
	InvoiceType string `json:"invoice_type"`
}

// AddTenderRequest body para POST /api/billing/drafts/:id/tenders.
type AddTenderRequest struct {
	Method string          `json:"method"`
	Amount decimal.Decimal `json:"amount"`
}

// ClientResponse cliente del borrador.
type ClientResponse struct {
	ID           string `json:"id,omitempty"`
	Name         string `json:"name"`
	TaxID        string `json:"tax_id,omitempty"`
	TaxCondition string `json:"tax_condition"`
}

// LineItemResponse línea con su desglose.
type LineItemResponse struct {
	ProductID       string          `json:"product_id,omitempty"`
	Description     string          `json:"description"`
	Quantity        decimal.Decimal `json:"quantity"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	VATRate         decimal.Decimal `json:"vat_rate"`
	Net             decimal.Decimal `json:"net"`
	VAT             decimal.Decimal `json:"vat"`
	Total           decimal.Decimal `json:"total"`
}

// TenderResponse pago cargado.
type TenderResponse struct {
	Method             string          `json:"method"`
	Amount             decimal.Decimal `json:"amount"`
	ExternalReference  string          `json:"external_reference,omitempty"`
	ConfirmationStatus string          `json:"confirmation_status,omitempty"`
	AmountMismatch     bool            `json:"amount_mismatch,omitempty"`
}

// NoticeResponse aviso visible para el cajero.
type NoticeResponse struct {
	Kind    string    `json:"kind"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// ExternalPaymentResponse pago externo en espera y lo necesario para cobrarlo.
type ExternalPaymentResponse struct {
	PaymentID    string            `json:"payment_id"`
	Method       string            `json:"method"`
	Amount       decimal.Decimal   `json:"amount"`
	ExpiresAt    time.Time         `json:"expires_at"`
	QRData       string            `json:"qr_data,omitempty"`
	QRImageURL   string            `json:"qr_image_url,omitempty"`
	Instructions map[string]string `json:"instructions,omitempty"`
}

// DraftResponse estado completo del borrador.
type DraftResponse struct {
	ID               string                   `json:"id"`
	BranchID         string                   `json:"branch_id"`
	PointOfSale      int                      `json:"pos_number"`
	Client           ClientResponse           `json:"client"`
	InvoiceType      string                   `json:"invoice_type"`
	InvoiceTypeFixed bool                     `json:"invoice_type_fixed"`
	Items            []LineItemResponse       `json:"items"`
	Tenders          []TenderResponse         `json:"tenders"`
	NetTotal         decimal.Decimal          `json:"net_total"`
	TaxTotal         decimal.Decimal          `json:"tax_total"`
	GrandTotal       decimal.Decimal          `json:"grand_total"`
	TotalTendered    decimal.Decimal          `json:"total_tendered"`
	Remaining        decimal.Decimal          `json:"remaining"`
	AwaitingPayment  *ExternalPaymentResponse `json:"awaiting_payment,omitempty"`
	LastNotice       *NoticeResponse          `json:"last_notice,omitempty"`
	CreatedAt        time.Time                `json:"created_at"`
}

// SaleItemResponse línea de una venta confirmada.
type SaleItemResponse struct {
	ProductID       string          `json:"product_id,omitempty"`
	Description     string          `json:"description"`
	Quantity        decimal.Decimal `json:"quantity"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	VATRate         decimal.Decimal `json:"vat_rate"`
	Net             decimal.Decimal `json:"net"`
	VAT             decimal.Decimal `json:"vat"`
	Total           decimal.Decimal `json:"total"`
}

// SaleResponse venta confirmada (para recibo y consultas).
type SaleResponse struct {
	ID             string             `json:"id"`
	BranchID       string             `json:"branch_id"`
	PointOfSale    int                `json:"pos_number"`
	InvoiceType    string             `json:"invoice_type"`
	Number         int64              `json:"number"`
	FormattedNum   string             `json:"formatted_number"`
	Client         ClientResponse     `json:"client"`
	NetTotal       decimal.Decimal    `json:"net_total"`
	TaxTotal       decimal.Decimal    `json:"tax_total"`
	GrandTotal     decimal.Decimal    `json:"grand_total"`
	TenderedTotal  decimal.Decimal    `json:"tendered_total"`
	Change         decimal.Decimal    `json:"change"`
	Currency       string             `json:"currency"`
	FiscalStatus   string             `json:"fiscal_status"`
	AuthCode       string             `json:"cae,omitempty"`
	AuthCodeExpiry *time.Time         `json:"cae_expiry,omitempty"`
	Items          []SaleItemResponse `json:"items"`
	Tenders        []TenderResponse   `json:"tenders"`
	CreatedAt      time.Time          `json:"created_at"`
}
