package billing

import "github.com/factusystem/factu-api/internal/domain/entity"

// SelectorState lo que la regla automática necesita para decidir el tipo.
type SelectorState struct {
	Current    entity.InvoiceType
	Registered bool
	Tenders    []entity.TenderEntry
}

// NextInvoiceType reductor puro del tipo de comprobante:
//
//	sin pagos               → A si el cliente es RI, si no X
//	pagos todos en efectivo → X
//	algún pago no efectivo  → A si el cliente es RI, si no B
//
// C y P son elecciones manuales y nunca se pisan.
func NextInvoiceType(s SelectorState) (entity.InvoiceType, bool) {
	if s.Current.IsManualOnly() {
		return s.Current, false
	}
	next := entity.InvoiceTypeX
	switch {
	case len(s.Tenders) == 0:
		if s.Registered {
			next = entity.InvoiceTypeA
		}
	case allCashEquivalent(s.Tenders):
		next = entity.InvoiceTypeX
	default:
		next = entity.InvoiceTypeB
		if s.Registered {
			next = entity.InvoiceTypeA
		}
	}
	return next, next != s.Current
}

func allCashEquivalent(tenders []entity.TenderEntry) bool {
	for _, t := range tenders {
		if !t.Method.IsCashEquivalent() {
			return false
		}
	}
	return true
}

func hasNonCash(tenders []entity.TenderEntry) bool {
	return len(tenders) > 0 && !allCashEquivalent(tenders)
}
