package billing

import (
	"github.com/factusystem/factu-api/internal/domain"
	"github.com/factusystem/factu-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// TenderLedger acumula los pagos aplicados a una venta en curso.
// No es seguro para uso concurrente: el llamador serializa el acceso.
type TenderLedger struct {
	entries []entity.TenderEntry
}

// NewTenderLedger crea un ledger vacío.
func NewTenderLedger() *TenderLedger {
	return &TenderLedger{}
}

// Add agrega un pago directo. Los medios externos (QR, billetera, transferencia)
// no se agregan acá: pasan por el awaiter y entran con AppendConfirmed.
func (l *TenderLedger) Add(method entity.TenderMethod, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return domain.ErrInvalidAmount
	}
	if _, ok := entity.ParseTenderMethod(string(method)); !ok {
		return domain.ErrInvalidTenderMethod
	}
	if method.IsExternal() {
		return domain.ErrExternalTender
	}
	l.entries = append(l.entries, entity.TenderEntry{Method: method, Amount: amount})
	return nil
}

// AppendConfirmed agrega un pago externo confirmado por el proveedor.
func (l *TenderLedger) AppendConfirmed(entry entity.TenderEntry) error {
	if !entry.Amount.IsPositive() {
		return domain.ErrInvalidAmount
	}
	if !entry.Method.IsExternal() {
		return domain.ErrInvalidTenderMethod
	}
	entry.ConfirmationStatus = entity.ConfirmationConfirmed
	l.entries = append(l.entries, entry)
	return nil
}

// Remove quita la entrada en index. Un pago externo confirmado ya fue cobrado
// por el proveedor y queda bloqueado.
func (l *TenderLedger) Remove(index int) (entity.TenderEntry, error) {
	if index < 0 || index >= len(l.entries) {
		return entity.TenderEntry{}, domain.ErrIndexOutOfRange
	}
	removed := l.entries[index]
	if removed.IsConfirmedExternal() {
		return entity.TenderEntry{}, domain.ErrTenderLocked
	}
	l.entries = append(l.entries[:index], l.entries[index+1:]...)
	return removed, nil
}

// Total suma exacta de las entradas.
func (l *TenderLedger) Total() decimal.Decimal {
	total := decimal.Zero
	for _, e := range l.entries {
		total = total.Add(e.Amount)
	}
	return total
}

// Remaining saldo contra saleTotal; negativo = vuelto.
func (l *TenderLedger) Remaining(saleTotal decimal.Decimal) decimal.Decimal {
	return saleTotal.Sub(l.Total())
}

// Len cantidad de entradas.
func (l *TenderLedger) Len() int { return len(l.entries) }

// Entries copia de las entradas (orden de carga).
func (l *TenderLedger) Entries() []entity.TenderEntry {
	out := make([]entity.TenderEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Reset vacía el ledger.
func (l *TenderLedger) Reset() {
	l.entries = nil
}
