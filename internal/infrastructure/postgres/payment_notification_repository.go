package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/factusystem/factu-api/internal/domain/entity"
	"github.com/factusystem/factu-api/internal/domain/repository"
)

var _ repository.PaymentNotificationRepository = (*PaymentNotificationRepo)(nil)

// PaymentNotificationRepo tabla append-only de notificaciones. El trigger de la tabla
// emite pg_notify en cada alta.
type PaymentNotificationRepo struct {
	q Querier
}

// NewPaymentNotificationRepository construye el adaptador.
func NewPaymentNotificationRepository(q Querier) *PaymentNotificationRepo {
	return &PaymentNotificationRepo{q: q}
}

// Insert agrega la fila; un (payment_id, status) repetido no inserta y devuelve false.
func (r *PaymentNotificationRepo) Insert(ctx context.Context, n *entity.PaymentNotification) (bool, error) {
	query := `
		INSERT INTO payment_notifications (
			payment_id, external_id, branch_id, user_id, sale_id, amount, currency, payment_method,
			status, status_detail, transaction_id, authorization_code, payer_email, payer_name,
			metadata, raw_webhook_data, processed, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		ON CONFLICT (payment_id, status) DO NOTHING
		RETURNING id`
	err := r.q.QueryRow(ctx, query,
		n.PaymentID, nullIfEmpty(n.ExternalID), n.BranchID, nullIfEmpty(n.UserID), nullIfEmpty(n.SaleID),
		n.Amount, n.Currency, string(n.PaymentMethod),
		n.Status, nullIfEmpty(n.StatusDetail), nullIfEmpty(n.TransactionID), nullIfEmpty(n.AuthorizationCode),
		nullIfEmpty(n.PayerEmail), nullIfEmpty(n.PayerName),
		jsonOrEmpty(n.Metadata), jsonOrEmpty(n.RawWebhookData), n.Processed, n.CreatedAt,
	).Scan(&n.ID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("insert payment notification: %w", err)
	}
	return true, nil
}

// FindLatestByPaymentID última notificación del pago; nil, nil si no hay.
func (r *PaymentNotificationRepo) FindLatestByPaymentID(ctx context.Context, paymentID string) (*entity.PaymentNotification, error) {
	query := `
		SELECT id, payment_id, external_id, branch_id, user_id, sale_id, amount, currency, payment_method,
		       status, status_detail, transaction_id, authorization_code, payer_email, payer_name,
		       metadata, raw_webhook_data, processed, created_at
		FROM payment_notifications
		WHERE payment_id = $1
		ORDER BY id DESC
		LIMIT 1`
	var (
		n                                                  entity.PaymentNotification
		externalID, userID, saleID, detail, txID, authCode *string
		email, name                                        *string
		method                                             string
	)
	err := r.q.QueryRow(ctx, query, paymentID).Scan(
		&n.ID, &n.PaymentID, &externalID, &n.BranchID, &userID, &saleID, &n.Amount, &n.Currency, &method,
		&n.Status, &detail, &txID, &authCode, &email, &name,
		&n.Metadata, &n.RawWebhookData, &n.Processed, &n.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get payment notification: %w", err)
	}
	n.ExternalID = derefStr(externalID)
	n.UserID = derefStr(userID)
	n.SaleID = derefStr(saleID)
	n.StatusDetail = derefStr(detail)
	n.TransactionID = derefStr(txID)
	n.AuthorizationCode = derefStr(authCode)
	n.PayerEmail = derefStr(email)
	n.PayerName = derefStr(name)
	n.PaymentMethod = entity.TenderMethod(method)
	return &n, nil
}

// FlagManualReview agrega manual_review y el motivo a la metadata de la fila.
func (r *PaymentNotificationRepo) FlagManualReview(ctx context.Context, paymentID, status, reason string) error {
	query := `
		UPDATE payment_notifications
		SET metadata = metadata || jsonb_build_object('manual_review', true, 'review_reason', $3::text)
		WHERE payment_id = $1 AND status = $2`
	if _, err := r.q.Exec(ctx, query, paymentID, status, reason); err != nil {
		return fmt.Errorf("flag payment notification: %w", err)
	}
	return nil
}
