package pdf

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/factusystem/factu-api/internal/application/billing"
	"github.com/factusystem/factu-api/internal/domain/entity"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func sampleSale(t entity.InvoiceType) *entity.Sale {
	expiry := time.Date(2026, 10, 27, 0, 0, 0, 0, time.UTC)
	return &entity.Sale{
		ID:             "s1",
		PointOfSale:    1,
		InvoiceType:    t,
		Number:         7,
		ClientName:     "Ferretería Norte SRL",
		ClientTaxID:    "30712345679",
		TaxCondition:   entity.TaxConditionRegistered,
		NetTotal:       d("1000"),
		TaxTotal:       d("210"),
		GrandTotal:     d("1210"),
		Change:         d("290"),
		AuthCode:       "76123456789012",
		AuthCodeExpiry: &expiry,
		CreatedAt:      time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC),
		Items: []entity.SaleItem{{
			Description: "Taladro percutor", Quantity: d("1"), UnitPrice: d("1210"),
			DiscountPercent: decimal.Zero, VATRate: d("21"),
			NetAmount: d("1000"), VATAmount: d("210"), Total: d("1210"),
		}},
		Tenders: []entity.SaleTender{{Method: entity.TenderCash, Amount: d("1500")}},
	}
}

var issuer = billing.IssuerInfo{Name: "FactuSystem Demo", CUIT: "20123456786", Address: "Av. Siempreviva 742", TaxCondition: "IVA Responsable Inscripto"}

func TestRenderReceipt_FacturaA(t *testing.T) {
	out, err := NewReceiptRenderer().RenderReceipt(context.Background(), sampleSale(entity.InvoiceTypeA), issuer)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestRenderReceipt_NoFiscal(t *testing.T) {
	s := sampleSale(entity.InvoiceTypeX)
	s.AuthCode = ""
	s.AuthCodeExpiry = nil
	out, err := NewReceiptRenderer().RenderReceipt(context.Background(), s, issuer)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestMoney_FormatoArgentino(t *testing.T) {
	r := NewReceiptRenderer()
	assert.Equal(t, "$ 1.234.567,89", r.money(d("1234567.891")))
	assert.Equal(t, "$ 0,50", r.money(d("0.5")))
}

func TestLabels(t *testing.T) {
	assert.Equal(t, "COD. 06", codeLabel(entity.InvoiceTypeB))
	assert.Empty(t, codeLabel(entity.InvoiceTypeX))
	assert.Equal(t, "PRESUPUESTO", invoiceLabel(entity.InvoiceTypeP))
	assert.Equal(t, "FACTURA", invoiceLabel(entity.InvoiceTypeC))
}
