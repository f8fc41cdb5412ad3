package banktransfer

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/factusystem/factu-api/internal/application/payments"
	"github.com/factusystem/factu-api/internal/domain/entity"
)

func TestRequestPayment_Instrucciones(t *testing.T) {
	r := NewRequester("ferreteria.sur.mp", "0000003100012345678901")
	exp := time.Date(2026, 10, 17, 15, 0, 0, 0, time.UTC)

	out, err := r.RequestPayment(context.Background(), payments.PaymentRequest{
		PaymentID: "pay-1", Amount: decimal.RequireFromString("1500"), Currency: "ARS",
		Method: entity.TenderBankTransfer, ExpiresAt: exp,
	})
	require.NoError(t, err)
	assert.Empty(t, out.ExternalID)
	assert.Equal(t, "1500.00", out.Instructions["amount"])
	assert.Equal(t, "pay-1", out.Instructions["reference"])
	assert.Equal(t, "ferreteria.sur.mp", out.Instructions["alias"])
	assert.Equal(t, "2026-10-17T15:00:00Z", out.Instructions["expires_at"])
}

func TestRequestPayment_SinCuenta(t *testing.T) {
	_, err := NewRequester("", "").RequestPayment(context.Background(), payments.PaymentRequest{Method: entity.TenderBankTransfer})
	assert.Error(t, err)

	_, err = NewRequester("a", "").RequestPayment(context.Background(), payments.PaymentRequest{Method: entity.TenderQR})
	assert.Error(t, err)
}
