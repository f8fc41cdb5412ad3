package billing_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/factusystem/factu-api/internal/application/billing"
	"github.com/factusystem/factu-api/internal/domain"
	"github.com/factusystem/factu-api/internal/domain/entity"
)

type stubRenderer struct {
	issuer billing.IssuerInfo
}

func (r *stubRenderer) RenderReceipt(_ context.Context, _ *entity.Sale, issuer billing.IssuerInfo) ([]byte, error) {
	r.issuer = issuer
	return []byte("%PDF-1.4"), nil
}

func TestSaleUseCase_GetSaleControlaSucursal(t *testing.T) {
	sales := newMemSales()
	pendingSale(t, sales)
	uc := billing.NewSaleUseCase(sales, &stubRenderer{}, billing.IssuerInfo{})

	got, err := uc.GetSale(context.Background(), "b1", "s1")
	require.NoError(t, err)
	assert.Equal(t, "0003-00000042", got.FormattedNum)

	_, err = uc.GetSale(context.Background(), "b2", "s1")
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = uc.GetSale(context.Background(), "b1", "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSaleUseCase_ReciboRequiereCAE(t *testing.T) {
	sales := newMemSales()
	s := pendingSale(t, sales)
	renderer := &stubRenderer{}
	issuer := billing.IssuerInfo{Name: "Ferretería Central", CUIT: "20123456786"}
	uc := billing.NewSaleUseCase(sales, renderer, issuer)

	_, _, err := uc.Receipt(context.Background(), "b1", "s1")
	assert.ErrorIs(t, err, domain.ErrConflict)

	s.FiscalStatus = entity.FiscalStatusAuthorized
	s.AuthCode = "74123456789012"
	require.NoError(t, sales.UpdateFiscal(context.Background(), s))

	pdf, name, err := uc.Receipt(context.Background(), "b1", "s1")
	require.NoError(t, err)
	assert.NotEmpty(t, pdf)
	assert.Equal(t, "comprobante_B_0003-00000042.pdf", name)
	assert.Equal(t, issuer, renderer.issuer)
}

func TestSaleUseCase_ReciboNoFiscalSinCAE(t *testing.T) {
	sales := newMemSales()
	require.NoError(t, sales.Create(context.Background(), &entity.Sale{
		ID: "x1", BranchID: "b1", PointOfSale: 1, InvoiceType: entity.InvoiceTypeX,
		Number: 7, FiscalStatus: entity.FiscalStatusNotApplicable,
	}))
	uc := billing.NewSaleUseCase(sales, &stubRenderer{}, billing.IssuerInfo{})

	_, name, err := uc.Receipt(context.Background(), "b1", "x1")
	require.NoError(t, err)
	assert.Equal(t, "comprobante_X_0001-00000007.pdf", name)
}
