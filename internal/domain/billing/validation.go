package billing

import (
	"github.com/factusystem/factu-api/internal/domain"
	"github.com/factusystem/factu-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// DefaultTolerance diferencia máxima aceptada entre pagado y total (10 centavos).
var DefaultTolerance = decimal.New(10, -2)

// ValidateForCommit verifica que el borrador pueda confirmarse.
func ValidateForCommit(d *SaleDraft, tolerance decimal.Decimal) error {
	if len(d.items) == 0 {
		return domain.ErrEmptySale
	}
	if d.awaiting != nil {
		return domain.ErrPaymentPending
	}
	total := d.Totals().Total
	if d.ledger.Total().LessThan(total.Sub(tolerance)) {
		return domain.ErrInsufficientPayment
	}
	return ValidateTenderMix(d.invoiceType, d.ledger.entries, d.typeFixed)
}

// ValidateTenderMix invariante tipo/medios de pago:
// X solo admite equivalentes de efectivo; A, B y C requieren algún pago no efectivo
// salvo que el tipo se haya fijado antes de cargar pagos.
func ValidateTenderMix(t entity.InvoiceType, tenders []entity.TenderEntry, typeFixed bool) error {
	switch {
	case t == entity.InvoiceTypeX:
		if !allCashEquivalent(tenders) {
			return domain.ErrInvalidInvoiceTenderMix
		}
	case t.IsFiscal():
		if !hasNonCash(tenders) && !typeFixed {
			return domain.ErrInvalidInvoiceTenderMix
		}
	}
	return nil
}
