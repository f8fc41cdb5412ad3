package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de autorización fiscal (AFIP) de una venta confirmada.
const (
	FiscalStatusNotApplicable = "NO_APLICA"  // X y P
	FiscalStatusPending       = "PENDIENTE"  // guardada, esperando CAE
	FiscalStatusAuthorized    = "AUTORIZADO" // CAE obtenido (o simulado en dev)
	FiscalStatusRejected      = "RECHAZADO"  // AFIP rechazó el comprobante
	FiscalStatusError         = "ERROR"      // falla técnica al solicitar CAE
)

// Sale registro inmutable de una venta confirmada.
type Sale struct {
	ID             string
	BranchID       string
	PointOfSale    int
	UserID         string
	ClientID       string // vacío = consumidor final
	ClientName     string
	ClientTaxID    string
	TaxCondition   TaxCondition
	InvoiceType    InvoiceType
	Number         int64
	NetTotal       decimal.Decimal
	TaxTotal       decimal.Decimal
	GrandTotal     decimal.Decimal
	TenderedTotal  decimal.Decimal
	Change         decimal.Decimal
	Currency       string
	FiscalStatus   string
	AuthCode       string // CAE
	AuthCodeExpiry *time.Time
	FiscalErrors   string
	Items          []SaleItem
	Tenders        []SaleTender
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// SaleItem línea de la venta confirmada.
type SaleItem struct {
	ID              string
	SaleID          string
	ProductID       string // vacío = ítem genérico
	Description     string
	Quantity        decimal.Decimal
	UnitPrice       decimal.Decimal // IVA incluido
	DiscountPercent decimal.Decimal
	VATRate         decimal.Decimal // porcentaje: 21, 10.5, 0
	NetAmount       decimal.Decimal
	VATAmount       decimal.Decimal
	Total           decimal.Decimal
}

// SaleTender pago aplicado a la venta confirmada.
type SaleTender struct {
	ID                string
	SaleID            string
	Method            TenderMethod
	Amount            decimal.Decimal
	ExternalReference string
}

// FormattedNumber número de comprobante con punto de venta: 0001-00000042.
func (s *Sale) FormattedNumber() string {
	return formatInvoiceNumber(s.PointOfSale, s.Number)
}
