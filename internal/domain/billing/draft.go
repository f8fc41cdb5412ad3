package billing

import (
	"fmt"
	"time"

	"github.com/factusystem/factu-api/internal/domain"
	"github.com/factusystem/factu-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

var (
	hundred = decimal.NewFromInt(100)
	one     = decimal.NewFromInt(1)
)

// LineItem línea de una venta en curso. UnitPrice incluye IVA.
type LineItem struct {
	ProductID       string
	Description     string
	Quantity        decimal.Decimal
	UnitPrice       decimal.Decimal
	DiscountPercent decimal.Decimal
	VATRate         decimal.Decimal
}

// Validate reglas mínimas de la línea.
func (li LineItem) Validate() error {
	if !li.Quantity.IsPositive() || li.UnitPrice.IsNegative() || li.VATRate.IsNegative() {
		return domain.ErrInvalidInput
	}
	if li.DiscountPercent.IsNegative() || li.DiscountPercent.GreaterThan(hundred) {
		return domain.ErrInvalidInput
	}
	if li.Description == "" && li.ProductID == "" {
		return domain.ErrInvalidInput
	}
	return nil
}

// Total qty × precio × (1 − descuento/100), redondeado a centavos.
func (li LineItem) Total() decimal.Decimal {
	factor := one.Sub(li.DiscountPercent.Div(hundred))
	return li.Quantity.Mul(li.UnitPrice).Mul(factor).Round(2)
}

// Net neto gravado: total / (1 + alícuota/100).
func (li LineItem) Net() decimal.Decimal {
	return li.Total().Div(one.Add(li.VATRate.Div(hundred))).Round(2)
}

// VAT IVA contenido en el total.
func (li LineItem) VAT() decimal.Decimal {
	return li.Total().Sub(li.Net())
}

// Totals desglose de la venta.
type Totals struct {
	Net   decimal.Decimal
	VAT   decimal.Decimal
	Total decimal.Decimal
}

// Tipos de aviso visibles para el cajero.
const (
	NoticeInvoiceTypeChanged = "invoice_type_changed"
	NoticePaymentConfirmed   = "payment_confirmed"
	NoticePaymentRejected    = "payment_rejected"
	NoticePaymentExpired     = "payment_expired"
	NoticePaymentCancelled   = "payment_cancelled"
	NoticePaymentFailed      = "payment_failed"
)

// Notice aviso al cajero; se reemplaza con cada evento.
type Notice struct {
	Kind    string
	Message string
	At      time.Time
}

// SaleDraft venta en curso. Vive en memoria hasta que se confirma o se cancela.
type SaleDraft struct {
	ID          string
	BranchID    string
	PointOfSale int
	UserID      string
	CreatedAt   time.Time

	items       []LineItem
	client      *entity.Client
	invoiceType entity.InvoiceType
	// typeFixed: el tipo quedó definido con el ledger vacío (por el cliente o a mano).
	typeFixed bool
	ledger    *TenderLedger
	awaiting  *AwaitingPayment
	notice    *Notice
	now       func() time.Time
}

// AwaitingPayment pago externo en espera para este borrador.
type AwaitingPayment struct {
	PaymentID string
	Method    entity.TenderMethod
	Amount    decimal.Decimal
	ExpiresAt time.Time
}

// NewSaleDraft crea un borrador vacío. client nil = consumidor final.
func NewSaleDraft(id, branchID string, pos int, userID string, client *entity.Client) *SaleDraft {
	d := &SaleDraft{
		ID:          id,
		BranchID:    branchID,
		PointOfSale: pos,
		UserID:      userID,
		ledger:      NewTenderLedger(),
		now:         time.Now,
	}
	d.CreatedAt = d.now()
	d.setClient(client)
	return d
}

// SetClock reemplaza el reloj (tests).
func (d *SaleDraft) SetClock(now func() time.Time) { d.now = now }

func (d *SaleDraft) setClient(client *entity.Client) {
	if client == nil {
		client = entity.FinalConsumer()
	}
	d.client = client
	d.invoiceType = entity.InvoiceTypeX
	if client.TaxCondition.IsRegistered() {
		d.invoiceType = entity.InvoiceTypeA
	}
	d.typeFixed = true
}

// SetClient cambia el cliente y re-evalúa el tipo.
func (d *SaleDraft) SetClient(client *entity.Client) {
	if client == nil {
		client = entity.FinalConsumer()
	}
	d.client = client
	d.reevaluate()
}

// SetInvoiceType elección manual del tipo. Con el ledger vacío queda fijada;
// con pagos cargados la regla puede volver a cambiarla en la próxima mutación.
func (d *SaleDraft) SetInvoiceType(t entity.InvoiceType) error {
	if _, ok := entity.ParseInvoiceType(string(t)); !ok {
		return domain.ErrInvalidInvoiceType
	}
	d.invoiceType = t
	d.typeFixed = d.ledger.Len() == 0
	return nil
}

// AddItem agrega una línea.
func (d *SaleDraft) AddItem(item LineItem) error {
	if err := item.Validate(); err != nil {
		return err
	}
	d.items = append(d.items, item)
	return nil
}

// RemoveItem quita la línea en index.
func (d *SaleDraft) RemoveItem(index int) error {
	if index < 0 || index >= len(d.items) {
		return domain.ErrIndexOutOfRange
	}
	d.items = append(d.items[:index], d.items[index+1:]...)
	return nil
}

// AddTender agrega un pago directo y re-evalúa el tipo.
func (d *SaleDraft) AddTender(method entity.TenderMethod, amount decimal.Decimal) error {
	if err := d.ledger.Add(method, amount); err != nil {
		return err
	}
	d.reevaluate()
	return nil
}

// RemoveTender quita un pago y re-evalúa el tipo.
func (d *SaleDraft) RemoveTender(index int) error {
	if _, err := d.ledger.Remove(index); err != nil {
		return err
	}
	d.reevaluate()
	return nil
}

// BeginExternalPayment marca el borrador como esperando un pago externo.
// Solo uno a la vez.
func (d *SaleDraft) BeginExternalPayment(p AwaitingPayment) error {
	if d.awaiting != nil {
		return domain.ErrAwaiterBusy
	}
	if !p.Amount.IsPositive() {
		return domain.ErrInvalidAmount
	}
	if !p.Method.IsExternal() {
		return domain.ErrInvalidTenderMethod
	}
	d.awaiting = &p
	return nil
}

// Awaiting pago externo en espera, o nil.
func (d *SaleDraft) Awaiting() *AwaitingPayment {
	if d.awaiting == nil {
		return nil
	}
	cp := *d.awaiting
	return &cp
}

// ConfirmExternalPayment aplica la confirmación del proveedor con el monto informado por él.
func (d *SaleDraft) ConfirmExternalPayment(paymentID string, confirmed decimal.Decimal) error {
	if d.awaiting == nil || d.awaiting.PaymentID != paymentID {
		return domain.ErrNoActiveAwaiter
	}
	req := *d.awaiting
	entry := entity.TenderEntry{
		Method:            req.Method,
		Amount:            confirmed,
		ExternalReference: paymentID,
		AmountMismatch:    !confirmed.Equal(req.Amount),
	}
	if err := d.ledger.AppendConfirmed(entry); err != nil {
		return err
	}
	d.awaiting = nil
	msg := fmt.Sprintf("Pago %s confirmado por %s", methodLabel(req.Method), confirmed.StringFixed(2))
	if entry.AmountMismatch {
		msg += fmt.Sprintf(" (se solicitaron %s)", req.Amount.StringFixed(2))
	}
	d.setNotice(NoticePaymentConfirmed, msg)
	d.reevaluate()
	return nil
}

// FailExternalPayment cierra la espera sin tocar el ledger.
func (d *SaleDraft) FailExternalPayment(paymentID, kind, message string) error {
	if d.awaiting == nil || d.awaiting.PaymentID != paymentID {
		return domain.ErrNoActiveAwaiter
	}
	d.awaiting = nil
	d.setNotice(kind, message)
	return nil
}

// Reset deja el borrador vacío para la próxima venta.
func (d *SaleDraft) Reset() {
	d.items = nil
	d.ledger.Reset()
	d.awaiting = nil
	d.notice = nil
	d.setClient(nil)
}

func (d *SaleDraft) reevaluate() {
	next, changed := NextInvoiceType(SelectorState{
		Current:    d.invoiceType,
		Registered: d.client.TaxCondition.IsRegistered(),
		Tenders:    d.ledger.entries,
	})
	if d.ledger.Len() == 0 && !d.invoiceType.IsManualOnly() {
		d.typeFixed = true
	}
	if !changed {
		return
	}
	prev := d.invoiceType
	d.invoiceType = next
	d.typeFixed = d.ledger.Len() == 0
	d.setNotice(NoticeInvoiceTypeChanged,
		fmt.Sprintf("El comprobante cambió de %s a %s por los medios de pago cargados", prev, next))
}

func (d *SaleDraft) setNotice(kind, msg string) {
	d.notice = &Notice{Kind: kind, Message: msg, At: d.now()}
}

// Items copia de las líneas.
func (d *SaleDraft) Items() []LineItem {
	out := make([]LineItem, len(d.items))
	copy(out, d.items)
	return out
}

// Client cliente actual (nunca nil).
func (d *SaleDraft) Client() *entity.Client { return d.client }

// InvoiceType tipo de comprobante actual.
func (d *SaleDraft) InvoiceType() entity.InvoiceType { return d.invoiceType }

// TypeFixed true si el tipo se definió antes de cargar pagos.
func (d *SaleDraft) TypeFixed() bool { return d.typeFixed }

// Tenders copia de los pagos cargados.
func (d *SaleDraft) Tenders() []entity.TenderEntry { return d.ledger.Entries() }

// TotalTendered suma de pagos.
func (d *SaleDraft) TotalTendered() decimal.Decimal { return d.ledger.Total() }

// Remaining saldo; negativo = vuelto.
func (d *SaleDraft) Remaining() decimal.Decimal { return d.ledger.Remaining(d.Totals().Total) }

// LastNotice último aviso, o nil.
func (d *SaleDraft) LastNotice() *Notice { return d.notice }

// Totals neto, IVA y total sumando línea por línea.
func (d *SaleDraft) Totals() Totals {
	t := Totals{Net: decimal.Zero, VAT: decimal.Zero, Total: decimal.Zero}
	for _, it := range d.items {
		t.Net = t.Net.Add(it.Net())
		t.VAT = t.VAT.Add(it.VAT())
		t.Total = t.Total.Add(it.Total())
	}
	return t
}

func methodLabel(m entity.TenderMethod) string {
	switch m {
	case entity.TenderQR:
		return "QR"
	case entity.TenderWallet:
		return "con billetera"
	case entity.TenderBankTransfer:
		return "por transferencia"
	}
	return string(m)
}
