package payments

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/factusystem/factu-api/internal/domain"
	"github.com/factusystem/factu-api/internal/domain/entity"
	"github.com/factusystem/factu-api/internal/domain/repository"
	"github.com/factusystem/factu-api/pkg/metrics"
)

// Proveedores de webhook (etiqueta de métricas y logs).
const (
	ProviderMercadoPago  = "mercadopago"
	ProviderBankTransfer = "bank_transfer"
	ProviderTest         = "test"
)

// WebhookOutcome qué hizo el reconciliador con un evento.
type WebhookOutcome string

const (
	WebhookIgnored             WebhookOutcome = "ignored"              // tipo/acción o estado no relevante
	WebhookProviderUnavailable WebhookOutcome = "provider_unavailable" // no se pudo obtener el detalle
	WebhookUnmatched           WebhookOutcome = "unmatched"            // sin pago pendiente asociado
	WebhookRecorded            WebhookOutcome = "recorded"
	WebhookDuplicate           WebhookOutcome = "duplicate"
	WebhookInvalidSignature    WebhookOutcome = "invalid_signature"
	WebhookInvalidAmount       WebhookOutcome = "invalid_amount" // aprobado sin monto positivo
)

// MercadoPagoEvent cuerpo del webhook de Mercado Pago.
type MercadoPagoEvent struct {
	Type   string
	Action string
	DataID string
}

// BankTransferEvent cuerpo del webhook del banco.
type BankTransferEvent struct {
	TransactionID string          `json:"transaction_id"`
	Amount        decimal.Decimal `json:"amount"`
	Reference     string          `json:"reference"`
	Status        string          `json:"status"`
	PayerAccount  string          `json:"payer_account"`
	PayerName     string          `json:"payer_name"`
}

// ReconcilerDeps contexto de servicio explícito del reconciliador.
type ReconcilerDeps struct {
	Pending       repository.PendingPaymentRepository
	Notifications repository.PaymentNotificationRepository
	Provider      ProviderClient
	Publisher     NotificationBroker // opcional
	Metrics       *metrics.Metrics
	Log           zerolog.Logger
	BankSecret    string
}

// Reconciler convierte eventos de proveedores en filas de payment_notifications.
// Nunca modifica pending_payments ni ventas: la inserción es su único efecto.
type Reconciler struct {
	deps ReconcilerDeps
	log  zerolog.Logger
	now  func() time.Time
}

// NewReconciler construye el reconciliador.
func NewReconciler(deps ReconcilerDeps) *Reconciler {
	return &Reconciler{
		deps: deps,
		log:  deps.Log.With().Str("component", "webhook_reconciler").Logger(),
		now:  time.Now,
	}
}

// ReconcileMercadoPago procesa un evento de Mercado Pago.
// Devuelve domain.ErrInvalidInput si falta data.id; cualquier otro error es reintentable.
func (r *Reconciler) ReconcileMercadoPago(ctx context.Context, ev MercadoPagoEvent, raw []byte) (WebhookOutcome, error) {
	outcome, err := r.reconcileMercadoPago(ctx, ev, raw)
	r.record(ProviderMercadoPago, outcome, err)
	return outcome, err
}

func (r *Reconciler) reconcileMercadoPago(ctx context.Context, ev MercadoPagoEvent, raw []byte) (WebhookOutcome, error) {
	if ev.Type != "payment" || ev.Action != "payment.created" {
		return WebhookIgnored, nil
	}
	if strings.TrimSpace(ev.DataID) == "" {
		return "", domain.ErrInvalidInput
	}
	log := r.log.With().Str("provider", ProviderMercadoPago).Str("external_id", ev.DataID).Logger()

	detail, err := r.deps.Provider.GetPayment(ctx, ev.DataID)
	if err != nil || detail == nil || detail.Status == "" {
		// Transitorio: el proveedor reintenta.
		log.Warn().Err(err).Msg("no se pudo obtener el detalle del pago")
		return WebhookProviderUnavailable, nil
	}

	pp, err := r.findForProvider(ctx, ev.DataID, detail)
	if err != nil {
		return "", err
	}
	if pp == nil {
		log.Info().Msg("pago sin pendiente asociado")
		return WebhookUnmatched, nil
	}

	if detail.Status != entity.PaymentStatusApproved && detail.Status != entity.PaymentStatusRejected {
		log.Info().Str("status", detail.Status).Msg("estado sin efecto")
		return WebhookIgnored, nil
	}
	if detail.Status == entity.PaymentStatusApproved && !detail.Amount.IsPositive() {
		log.Warn().Str("amount", detail.Amount.String()).Msg("pago aprobado sin monto positivo")
		return WebhookInvalidAmount, nil
	}

	raw = ensureJSON(raw)
	n := &entity.PaymentNotification{
		PaymentID:         pp.PaymentID,
		ExternalID:        detail.ID,
		BranchID:          pp.BranchID,
		UserID:            pp.UserID,
		SaleID:            pp.SaleID,
		Amount:            detail.Amount,
		Currency:          firstNonEmpty(detail.Currency, pp.Currency),
		PaymentMethod:     pp.PaymentMethod,
		Status:            detail.Status,
		StatusDetail:      detail.StatusDetail,
		TransactionID:     detail.ID,
		AuthorizationCode: detail.AuthorizationCode,
		PayerEmail:        detail.PayerEmail,
		PayerName:         detail.PayerName,
		Metadata: metadataFor(pp, map[string]any{
			"payment_method_id": detail.PaymentMethodID,
			"payment_type_id":   detail.PaymentTypeID,
			"provider_payment":  detail.Raw,
		}),
		RawWebhookData: raw,
		CreatedAt:      r.now(),
	}
	return r.insert(ctx, n, log)
}

// findForProvider busca el pendiente por id externo (pago u orden) y luego por external_reference.
func (r *Reconciler) findForProvider(ctx context.Context, dataID string, detail *ProviderPayment) (*entity.PendingPayment, error) {
	for _, id := range []string{dataID, detail.ID, detail.OrderID} {
		if id == "" {
			continue
		}
		pp, err := r.deps.Pending.FindByExternalID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("buscar pendiente por external_id: %w", err)
		}
		if pp != nil {
			return pp, nil
		}
	}
	if detail.ExternalReference == "" {
		return nil, nil
	}
	pp, err := r.deps.Pending.FindByPaymentID(ctx, detail.ExternalReference)
	if err != nil {
		return nil, fmt.Errorf("buscar pendiente por referencia: %w", err)
	}
	return pp, nil
}

// ReconcileBankTransfer procesa un aviso de transferencia. La firma es
// hex(HMAC-SHA256(secreto, cuerpo crudo)).
func (r *Reconciler) ReconcileBankTransfer(ctx context.Context, raw []byte, signature string) (WebhookOutcome, error) {
	outcome, err := r.reconcileBankTransfer(ctx, raw, signature)
	r.record(ProviderBankTransfer, outcome, err)
	return outcome, err
}

func (r *Reconciler) reconcileBankTransfer(ctx context.Context, raw []byte, signature string) (WebhookOutcome, error) {
	if !VerifySignature(r.deps.BankSecret, raw, signature) {
		r.log.Warn().Str("provider", ProviderBankTransfer).Msg("firma inválida")
		return WebhookInvalidSignature, domain.ErrInvalidSignature
	}
	var ev BankTransferEvent
	if err := json.Unmarshal(raw, &ev); err != nil {
		return "", domain.ErrInvalidInput
	}
	status := strings.ToLower(strings.TrimSpace(ev.Status))
	if status != "approved" && status != "completed" {
		return WebhookIgnored, nil
	}
	if ev.Reference == "" {
		return WebhookUnmatched, nil
	}
	log := r.log.With().Str("provider", ProviderBankTransfer).Str("reference", ev.Reference).Logger()
	if !ev.Amount.IsPositive() {
		log.Warn().Str("amount", ev.Amount.String()).Msg("transferencia sin monto positivo")
		return WebhookInvalidAmount, nil
	}

	pp, err := r.deps.Pending.FindByPaymentID(ctx, ev.Reference)
	if err != nil {
		return "", fmt.Errorf("buscar pendiente por referencia: %w", err)
	}
	if pp == nil {
		if pp, err = r.deps.Pending.FindByExternalID(ctx, ev.Reference); err != nil {
			return "", fmt.Errorf("buscar pendiente por external_id: %w", err)
		}
	}
	if pp == nil {
		log.Info().Msg("transferencia sin pendiente asociado")
		return WebhookUnmatched, nil
	}

	n := &entity.PaymentNotification{
		PaymentID:     pp.PaymentID,
		ExternalID:    ev.TransactionID,
		BranchID:      pp.BranchID,
		UserID:        pp.UserID,
		SaleID:        pp.SaleID,
		Amount:        ev.Amount,
		Currency:      pp.Currency,
		PaymentMethod: entity.TenderBankTransfer,
		Status:        entity.PaymentStatusApproved,
		StatusDetail:  status,
		TransactionID: ev.TransactionID,
		PayerName:     ev.PayerName,
		Metadata: metadataFor(pp, map[string]any{
			"payer_account": ev.PayerAccount,
		}),
		RawWebhookData: ensureJSON(raw),
		CreatedAt:      r.now(),
	}
	return r.insert(ctx, n, log)
}

// SimulatePayment genera una notificación sin pasar por el proveedor (solo fuera de producción).
func (r *Reconciler) SimulatePayment(ctx context.Context, paymentID, status string, amount *decimal.Decimal) (WebhookOutcome, error) {
	if status == "" {
		status = entity.PaymentStatusApproved
	}
	if status != entity.PaymentStatusApproved && status != entity.PaymentStatusRejected {
		return "", domain.ErrInvalidInput
	}
	pp, err := r.deps.Pending.FindByPaymentID(ctx, paymentID)
	if err != nil {
		return "", fmt.Errorf("buscar pendiente: %w", err)
	}
	if pp == nil {
		return "", domain.ErrNotFound
	}
	amt := pp.Amount
	if amount != nil {
		amt = *amount
	}
	if status == entity.PaymentStatusApproved && !amt.IsPositive() {
		return "", domain.ErrInvalidInput
	}
	n := &entity.PaymentNotification{
		PaymentID:     pp.PaymentID,
		ExternalID:    pp.ExternalID,
		BranchID:      pp.BranchID,
		UserID:        pp.UserID,
		SaleID:        pp.SaleID,
		Amount:        amt,
		Currency:      pp.Currency,
		PaymentMethod: pp.PaymentMethod,
		Status:        status,
		StatusDetail:  "simulated",
		Metadata:      metadataFor(pp, map[string]any{"simulated": true}),
		CreatedAt:     r.now(),
	}
	outcome, err := r.insert(ctx, n, r.log.With().Str("provider", ProviderTest).Logger())
	r.record(ProviderTest, outcome, err)
	return outcome, err
}

func (r *Reconciler) insert(ctx context.Context, n *entity.PaymentNotification, log zerolog.Logger) (WebhookOutcome, error) {
	log = log.With().Str("payment_id", n.PaymentID).Str("status", n.Status).Logger()
	inserted, err := r.deps.Notifications.Insert(ctx, n)
	if err != nil {
		return "", fmt.Errorf("insertar notificación: %w", err)
	}
	if !inserted {
		log.Info().Msg("notificación duplicada, sin efecto")
		return WebhookDuplicate, nil
	}
	if r.deps.Publisher != nil {
		ev := NotificationEvent{ID: n.ID, PaymentID: n.PaymentID, BranchID: n.BranchID, Status: n.Status}
		if err := r.deps.Publisher.Publish(ctx, ev); err != nil {
			// El awaiter sigue viendo la fila por polling.
			log.Warn().Err(err).Msg("no se pudo publicar la notificación")
		}
	}
	log.Info().Msg("notificación registrada")
	return WebhookRecorded, nil
}

func (r *Reconciler) record(provider string, outcome WebhookOutcome, err error) {
	if err != nil && outcome == "" {
		outcome = "error"
		if errors.Is(err, domain.ErrInvalidInput) {
			outcome = "malformed"
		}
	}
	r.deps.Metrics.WebhookEvent(provider, string(outcome))
}

// VerifySignature compara en tiempo constante la firma hex recibida.
func VerifySignature(secret string, body []byte, signature string) bool {
	if secret == "" || signature == "" {
		return false
	}
	got, err := hex.DecodeString(strings.TrimSpace(signature))
	if err != nil {
		return false
	}
	return hmac.Equal(got, Sign(secret, body))
}

// Sign HMAC-SHA256 del cuerpo con el secreto compartido.
func Sign(secret string, body []byte) []byte {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return mac.Sum(nil)
}

// metadataFor arma la metadata de la notificación. Si el pendiente ya no estaba
// en "pending" la confirmación llegó tarde y queda marcada para revisión manual.
func metadataFor(pp *entity.PendingPayment, extra map[string]any) json.RawMessage {
	meta := map[string]any{"pending_status": pp.Status}
	for k, v := range extra {
		if v == nil || v == "" {
			continue
		}
		if raw, ok := v.(json.RawMessage); ok && len(raw) == 0 {
			continue
		}
		meta[k] = v
	}
	if pp.Status != entity.PaymentStatusPending {
		meta["manual_review"] = true
	}
	b, _ := json.Marshal(meta)
	return b
}

func ensureJSON(raw []byte) json.RawMessage {
	if len(raw) == 0 || !json.Valid(raw) {
		return json.RawMessage("{}")
	}
	return json.RawMessage(raw)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
