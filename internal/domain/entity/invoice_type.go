package entity

import "strings"

// InvoiceType tipo de comprobante (AFIP, Argentina).
type InvoiceType string

const (
	InvoiceTypeA InvoiceType = "A" // Factura A: receptor Responsable Inscripto
	InvoiceTypeB InvoiceType = "B" // Factura B: consumidor final / monotributo
	InvoiceTypeC InvoiceType = "C" // Factura C: emisor monotributista (elección manual)
	InvoiceTypeX InvoiceType = "X" // Comprobante no fiscal
	InvoiceTypeP InvoiceType = "P" // Presupuesto
)

// ParseInvoiceType normaliza y valida el tipo recibido desde la API.
func ParseInvoiceType(s string) (InvoiceType, bool) {
	t := InvoiceType(strings.ToUpper(strings.TrimSpace(s)))
	switch t {
	case InvoiceTypeA, InvoiceTypeB, InvoiceTypeC, InvoiceTypeX, InvoiceTypeP:
		return t, true
	}
	return "", false
}

// IsFiscal indica si el comprobante se informa a AFIP.
func (t InvoiceType) IsFiscal() bool {
	return t == InvoiceTypeA || t == InvoiceTypeB || t == InvoiceTypeC
}

// IsManualOnly tipos que la regla automática nunca pisa.
func (t InvoiceType) IsManualOnly() bool {
	return t == InvoiceTypeC || t == InvoiceTypeP
}

// CounterFamily familia de numeración.
type CounterFamily string

const (
	FamilyFiscal    CounterFamily = "fiscal"
	FamilyNonFiscal CounterFamily = "x"
	FamilyQuote     CounterFamily = "quote"
)

// Family devuelve la familia de numeración del tipo.
func (t InvoiceType) Family() CounterFamily {
	switch t {
	case InvoiceTypeX:
		return FamilyNonFiscal
	case InvoiceTypeP:
		return FamilyQuote
	default:
		return FamilyFiscal
	}
}

// TaxCondition condición frente al IVA del cliente.
type TaxCondition string

const (
	TaxConditionRegistered  TaxCondition = "RI"
	TaxConditionMonotributo TaxCondition = "MONOTRIBUTO"
	TaxConditionFinal       TaxCondition = "CONSUMIDOR_FINAL"
	TaxConditionExempt      TaxCondition = "EXENTO"
)

// IsRegistered true si el cliente es Responsable Inscripto.
func (c TaxCondition) IsRegistered() bool {
	return c == TaxConditionRegistered
}
