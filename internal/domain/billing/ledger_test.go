package billing_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/factusystem/factu-api/internal/domain"
	"github.com/factusystem/factu-api/internal/domain/billing"
	"github.com/factusystem/factu-api/internal/domain/entity"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestTenderLedger_RechazaMontoNoPositivo(t *testing.T) {
	l := billing.NewTenderLedger()
	assert.ErrorIs(t, l.Add(entity.TenderCash, decimal.Zero), domain.ErrInvalidAmount)
	assert.ErrorIs(t, l.Add(entity.TenderCash, d("-5")), domain.ErrInvalidAmount)
	assert.Equal(t, 0, l.Len())
}

func TestTenderLedger_ExternosNoSeAgreganDirecto(t *testing.T) {
	l := billing.NewTenderLedger()
	for _, m := range []entity.TenderMethod{entity.TenderQR, entity.TenderWallet, entity.TenderBankTransfer} {
		assert.ErrorIs(t, l.Add(m, d("100")), domain.ErrExternalTender, string(m))
	}
	assert.ErrorIs(t, l.Add("cheque", d("100")), domain.ErrInvalidTenderMethod)
	assert.Equal(t, 0, l.Len())
}

// La suma es exacta en ciclos de alta y baja (sin deriva de redondeo).
func TestTenderLedger_SumaExactaAltaBaja(t *testing.T) {
	l := billing.NewTenderLedger()
	amounts := []string{"0.10", "0.20", "33.33", "66.67", "1000.01"}
	for i := 0; i < 50; i++ {
		for _, a := range amounts {
			require.NoError(t, l.Add(entity.TenderCash, d(a)))
		}
		before := l.Total()
		removed, err := l.Remove(l.Len() - 3)
		require.NoError(t, err)
		assert.True(t, before.Sub(removed.Amount).Equal(l.Total()))
	}
	expected := decimal.Zero
	for _, e := range l.Entries() {
		expected = expected.Add(e.Amount)
	}
	assert.True(t, expected.Equal(l.Total()))
	// 50 vueltas dejando 4 de 5 montos: 50 × (1100.31 − 33.33)
	assert.Equal(t, "53349.00", l.Total().StringFixed(2))
	assert.Equal(t, 200, l.Len())
}

func TestTenderLedger_RemainingNegativoEsVuelto(t *testing.T) {
	l := billing.NewTenderLedger()
	require.NoError(t, l.Add(entity.TenderCash, d("1500")))
	assert.Equal(t, "-500.00", l.Remaining(d("1000")).StringFixed(2))
}

func TestTenderLedger_RemoveFueraDeRango(t *testing.T) {
	l := billing.NewTenderLedger()
	_, err := l.Remove(0)
	assert.ErrorIs(t, err, domain.ErrIndexOutOfRange)
	_, err = l.Remove(-1)
	assert.ErrorIs(t, err, domain.ErrIndexOutOfRange)
}

func TestTenderLedger_ExternoConfirmadoBloqueado(t *testing.T) {
	l := billing.NewTenderLedger()
	require.NoError(t, l.AppendConfirmed(entity.TenderEntry{
		Method: entity.TenderQR, Amount: d("500"), ExternalReference: "pay-1",
	}))
	require.NoError(t, l.Add(entity.TenderCash, d("100")))

	_, err := l.Remove(0)
	assert.ErrorIs(t, err, domain.ErrTenderLocked)

	removed, err := l.Remove(1)
	require.NoError(t, err)
	assert.Equal(t, entity.TenderCash, removed.Method)
	assert.Equal(t, "500.00", l.Total().StringFixed(2))
	assert.Equal(t, entity.ConfirmationConfirmed, l.Entries()[0].ConfirmationStatus)
}
