package billing_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/factusystem/factu-api/internal/domain"
	"github.com/factusystem/factu-api/internal/domain/billing"
	"github.com/factusystem/factu-api/internal/domain/entity"
)

func registeredClient() *entity.Client {
	return &entity.Client{ID: "cli-1", Name: "Ferretería Sur SRL", TaxID: "30-71234567-9", TaxCondition: entity.TaxConditionRegistered}
}

func item(total string) billing.LineItem {
	return billing.LineItem{Description: "Genérico", Quantity: d("1"), UnitPrice: d(total), VATRate: d("21")}
}

func TestLineItem_NetoEIVA(t *testing.T) {
	li := billing.LineItem{Description: "Taladro", Quantity: d("2"), UnitPrice: d("605"), VATRate: d("21")}
	assert.Equal(t, "1210.00", li.Total().StringFixed(2))
	assert.Equal(t, "1000.00", li.Net().StringFixed(2))
	assert.Equal(t, "210.00", li.VAT().StringFixed(2))

	conDescuento := billing.LineItem{Description: "Martillo", Quantity: d("1"), UnitPrice: d("1000"), DiscountPercent: d("10"), VATRate: d("10.5")}
	assert.Equal(t, "900.00", conDescuento.Total().StringFixed(2))
	assert.Equal(t, "814.48", conDescuento.Net().StringFixed(2))
	assert.Equal(t, "85.52", conDescuento.VAT().StringFixed(2))
}

func TestLineItem_Validacion(t *testing.T) {
	assert.ErrorIs(t, billing.LineItem{Description: "x", Quantity: d("0"), UnitPrice: d("1")}.Validate(), domain.ErrInvalidInput)
	assert.ErrorIs(t, billing.LineItem{Description: "x", Quantity: d("1"), UnitPrice: d("-1")}.Validate(), domain.ErrInvalidInput)
	assert.ErrorIs(t, billing.LineItem{Description: "x", Quantity: d("1"), UnitPrice: d("1"), DiscountPercent: d("101")}.Validate(), domain.ErrInvalidInput)
	assert.ErrorIs(t, billing.LineItem{Quantity: d("1"), UnitPrice: d("1")}.Validate(), domain.ErrInvalidInput)
	assert.NoError(t, item("10").Validate())
}

func TestSaleDraft_TipoPorDefectoSegunCliente(t *testing.T) {
	cf := billing.NewSaleDraft("d1", "b1", 1, "u1", nil)
	assert.Equal(t, entity.InvoiceTypeX, cf.InvoiceType())
	assert.Equal(t, entity.TaxConditionFinal, cf.Client().TaxCondition)

	ri := billing.NewSaleDraft("d2", "b1", 1, "u1", registeredClient())
	assert.Equal(t, entity.InvoiceTypeA, ri.InvoiceType())
	assert.True(t, ri.TypeFixed())
}

func TestSaleDraft_CambioDeTipoGeneraAviso(t *testing.T) {
	draft := billing.NewSaleDraft("d1", "b1", 1, "u1", registeredClient())
	fixed := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	draft.SetClock(func() time.Time { return fixed })

	require.NoError(t, draft.AddTender(entity.TenderCash, d("100")))
	assert.Equal(t, entity.InvoiceTypeX, draft.InvoiceType())
	require.NotNil(t, draft.LastNotice())
	assert.Equal(t, billing.NoticeInvoiceTypeChanged, draft.LastNotice().Kind)
	assert.Equal(t, fixed, draft.LastNotice().At)

	require.NoError(t, draft.AddTender(entity.TenderCreditCard, d("100")))
	assert.Equal(t, entity.InvoiceTypeA, draft.InvoiceType())

	require.NoError(t, draft.RemoveTender(1))
	assert.Equal(t, entity.InvoiceTypeX, draft.InvoiceType())

	require.NoError(t, draft.RemoveTender(0))
	assert.Equal(t, entity.InvoiceTypeA, draft.InvoiceType())
	assert.True(t, draft.TypeFixed())
}

func TestSaleDraft_CambioDeClienteReevalua(t *testing.T) {
	draft := billing.NewSaleDraft("d1", "b1", 1, "u1", nil)
	require.NoError(t, draft.AddTender(entity.TenderDebitCard, d("50")))
	assert.Equal(t, entity.InvoiceTypeB, draft.InvoiceType())

	draft.SetClient(registeredClient())
	assert.Equal(t, entity.InvoiceTypeA, draft.InvoiceType())

	draft.SetClient(nil)
	assert.Equal(t, entity.InvoiceTypeB, draft.InvoiceType())
}

func TestSaleDraft_UnSoloPagoExternoALaVez(t *testing.T) {
	draft := billing.NewSaleDraft("d1", "b1", 1, "u1", nil)
	p := billing.AwaitingPayment{PaymentID: "pay-1", Method: entity.TenderQR, Amount: d("500")}
	require.NoError(t, draft.BeginExternalPayment(p))

	p.PaymentID = "pay-2"
	assert.ErrorIs(t, draft.BeginExternalPayment(p), domain.ErrAwaiterBusy)
	assert.Equal(t, "pay-1", draft.Awaiting().PaymentID)
}

func TestSaleDraft_ConfirmacionExternaAgregaPago(t *testing.T) {
	draft := billing.NewSaleDraft("d1", "b1", 1, "u1", nil)
	require.NoError(t, draft.AddItem(item("500")))
	require.NoError(t, draft.BeginExternalPayment(billing.AwaitingPayment{PaymentID: "pay-1", Method: entity.TenderQR, Amount: d("500")}))

	assert.ErrorIs(t, draft.ConfirmExternalPayment("otro", d("500")), domain.ErrNoActiveAwaiter)
	require.NoError(t, draft.ConfirmExternalPayment("pay-1", d("500")))

	tenders := draft.Tenders()
	require.Len(t, tenders, 1)
	assert.Equal(t, entity.TenderQR, tenders[0].Method)
	assert.Equal(t, "pay-1", tenders[0].ExternalReference)
	assert.True(t, tenders[0].IsConfirmedExternal())
	assert.False(t, tenders[0].AmountMismatch)
	assert.Nil(t, draft.Awaiting())
	assert.Equal(t, entity.InvoiceTypeB, draft.InvoiceType())
	assert.Equal(t, billing.NoticeInvoiceTypeChanged, draft.LastNotice().Kind)
}

func TestSaleDraft_MontoDistintoSeAceptaYMarca(t *testing.T) {
	draft := billing.NewSaleDraft("d1", "b1", 1, "u1", nil)
	require.NoError(t, draft.SetInvoiceType(entity.InvoiceTypeB))
	require.NoError(t, draft.BeginExternalPayment(billing.AwaitingPayment{PaymentID: "pay-1", Method: entity.TenderWallet, Amount: d("500")}))
	require.NoError(t, draft.ConfirmExternalPayment("pay-1", d("480")))

	tenders := draft.Tenders()
	require.Len(t, tenders, 1)
	assert.Equal(t, "480.00", tenders[0].Amount.StringFixed(2))
	assert.True(t, tenders[0].AmountMismatch)
	assert.Equal(t, billing.NoticePaymentConfirmed, draft.LastNotice().Kind)
	assert.Contains(t, draft.LastNotice().Message, "500.00")
}

func TestSaleDraft_FalloExternoNoTocaLedger(t *testing.T) {
	draft := billing.NewSaleDraft("d1", "b1", 1, "u1", nil)
	require.NoError(t, draft.BeginExternalPayment(billing.AwaitingPayment{PaymentID: "pay-1", Method: entity.TenderQR, Amount: d("500")}))
	require.NoError(t, draft.FailExternalPayment("pay-1", billing.NoticePaymentExpired, "venció"))

	assert.Empty(t, draft.Tenders())
	assert.Nil(t, draft.Awaiting())
	assert.Equal(t, billing.NoticePaymentExpired, draft.LastNotice().Kind)
}

func TestSaleDraft_Reset(t *testing.T) {
	draft := billing.NewSaleDraft("d1", "b1", 1, "u1", registeredClient())
	require.NoError(t, draft.AddItem(item("100")))
	require.NoError(t, draft.AddTender(entity.TenderCreditCard, d("100")))
	draft.Reset()

	assert.Empty(t, draft.Items())
	assert.Empty(t, draft.Tenders())
	assert.Nil(t, draft.LastNotice())
	assert.Equal(t, entity.InvoiceTypeX, draft.InvoiceType())
	assert.Equal(t, "d1", draft.ID)
}
