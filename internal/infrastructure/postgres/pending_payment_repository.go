package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/factusystem/factu-api/internal/domain"
	"github.com/factusystem/factu-api/internal/domain/entity"
	"github.com/factusystem/factu-api/internal/domain/repository"
)

var _ repository.PendingPaymentRepository = (*PendingPaymentRepo)(nil)

// PendingPaymentRepo implementación de PendingPaymentRepository (usable con pool o tx).
type PendingPaymentRepo struct {
	q Querier
}

// NewPendingPaymentRepository construye el adaptador. Pasar pool o tx (Querier).
func NewPendingPaymentRepository(q Querier) *PendingPaymentRepo {
	return &PendingPaymentRepo{q: q}
}

const pendingColumns = `payment_id, external_id, branch_id, user_id, sale_id, amount, currency,
	payment_method, status, qr_data, qr_image_url, expires_at, metadata, created_at`

// Create persiste el pago pendiente.
func (r *PendingPaymentRepo) Create(ctx context.Context, p *entity.PendingPayment) error {
	query := `INSERT INTO pending_payments (` + pendingColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	_, err := r.q.Exec(ctx, query,
		p.PaymentID, nullIfEmpty(p.ExternalID), p.BranchID, p.UserID, nullIfEmpty(p.SaleID),
		p.Amount, p.Currency, string(p.PaymentMethod), p.Status,
		nullIfEmpty(p.QRData), nullIfEmpty(p.QRImageURL), p.ExpiresAt,
		jsonOrEmpty(p.Metadata), p.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("pago pendiente %s: %w", p.PaymentID, domain.ErrDuplicate)
		}
		return fmt.Errorf("insert pending payment: %w", err)
	}
	return nil
}

// UpdateProviderData guarda el id externo y los datos del QR.
func (r *PendingPaymentRepo) UpdateProviderData(ctx context.Context, paymentID, externalID, qrData, qrImageURL string) error {
	query := `
		UPDATE pending_payments
		SET external_id  = COALESCE($2, external_id),
		    qr_data      = COALESCE($3, qr_data),
		    qr_image_url = COALESCE($4, qr_image_url)
		WHERE payment_id = $1`
	_, err := r.q.Exec(ctx, query, paymentID, nullIfEmpty(externalID), nullIfEmpty(qrData), nullIfEmpty(qrImageURL))
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("external_id %s: %w", externalID, domain.ErrDuplicate)
		}
		return fmt.Errorf("update pending payment: %w", err)
	}
	return nil
}

// FindByPaymentID devuelve nil, nil si no existe.
func (r *PendingPaymentRepo) FindByPaymentID(ctx context.Context, paymentID string) (*entity.PendingPayment, error) {
	return r.findOne(ctx, `SELECT `+pendingColumns+` FROM pending_payments WHERE payment_id = $1`, paymentID)
}

// FindByExternalID devuelve nil, nil si no existe.
func (r *PendingPaymentRepo) FindByExternalID(ctx context.Context, externalID string) (*entity.PendingPayment, error) {
	if externalID == "" {
		return nil, nil
	}
	return r.findOne(ctx, `SELECT `+pendingColumns+` FROM pending_payments WHERE external_id = $1`, externalID)
}

// Transition solo aplica si la fila sigue en pending (un único paso terminal).
func (r *PendingPaymentRepo) Transition(ctx context.Context, paymentID, status string) (bool, error) {
	tag, err := r.q.Exec(ctx,
		`UPDATE pending_payments SET status = $2 WHERE payment_id = $1 AND status = 'pending'`,
		paymentID, status,
	)
	if err != nil {
		return false, fmt.Errorf("transition pending payment: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// ExpireOverdue marca expired los pendientes vencidos.
func (r *PendingPaymentRepo) ExpireOverdue(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.q.Exec(ctx,
		`UPDATE pending_payments SET status = 'expired' WHERE status = 'pending' AND expires_at <= $1`,
		now,
	)
	if err != nil {
		return 0, fmt.Errorf("expire pending payments: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *PendingPaymentRepo) findOne(ctx context.Context, query string, arg any) (*entity.PendingPayment, error) {
	var (
		p                                      entity.PendingPayment
		externalID, saleID, qrData, qrImageURL *string
		method                                 string
	)
	err := r.q.QueryRow(ctx, query, arg).Scan(
		&p.PaymentID, &externalID, &p.BranchID, &p.UserID, &saleID, &p.Amount, &p.Currency,
		&method, &p.Status, &qrData, &qrImageURL, &p.ExpiresAt, &p.Metadata, &p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get pending payment: %w", err)
	}
	p.ExternalID = derefStr(externalID)
	p.SaleID = derefStr(saleID)
	p.QRData = derefStr(qrData)
	p.QRImageURL = derefStr(qrImageURL)
	p.PaymentMethod = entity.TenderMethod(method)
	return &p, nil
}
