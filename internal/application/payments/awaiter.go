package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/factusystem/factu-api/internal/domain"
	"github.com/factusystem/factu-api/internal/domain/entity"
	"github.com/factusystem/factu-api/internal/domain/repository"
	"github.com/factusystem/factu-api/pkg/metrics"
)

// Outcome resolución de un pago externo esperado.
type Outcome string

const (
	OutcomeConfirmed Outcome = "confirmed"
	OutcomeRejected  Outcome = "rejected"
	OutcomeExpired   Outcome = "expired"
	OutcomeCancelled Outcome = "cancelled"
)

// Result resultado final de una espera.
type Result struct {
	PaymentID    string
	Outcome      Outcome
	Method       entity.TenderMethod
	Requested    decimal.Decimal
	Amount       decimal.Decimal // informado por el proveedor
	StatusDetail string
	ManualReview bool // hubo cobro aprobado que no entra a la venta
}

// Motivos de revisión manual guardados en la metadata de la notificación.
const (
	ReviewLateConfirmation  = "late_confirmation"
	ReviewCancelledApproved = "approved_after_cancel"
	ReviewInvalidAmount     = "invalid_amount"
	ReviewDraftNotAwaiting  = "draft_not_awaiting"
)

// AwaiterConfig ventana de espera y frecuencia del polling de respaldo.
type AwaiterConfig struct {
	Window       time.Duration
	PollInterval time.Duration
	Currency     string
}

// StartRequest datos del cobro externo a iniciar.
type StartRequest struct {
	BranchID    string
	PointOfSale int
	UserID      string
	SaleID      string // id del borrador
	Amount      decimal.Decimal
	Method      entity.TenderMethod
}

// Handle espera en curso. Cancel es idempotente.
type Handle struct {
	PaymentID string
	Payload   *PaymentPayload
	ExpiresAt time.Time

	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
	result Result
}

// Cancel aborta la espera; el pago pendiente se marca expired.
func (h *Handle) Cancel() { h.cancel() }

// Done se cierra cuando la espera terminó y el callback ya se ejecutó.
func (h *Handle) Done() <-chan struct{} { return h.done }

// Result resultado final; válido después de Done.
func (h *Handle) Result() Result {
	<-h.done
	return h.result
}

// Awaiter gestiona la espera asíncrona de confirmaciones de pagos externos.
// Escucha el canal de tiempo real de la sucursal y, como respaldo, consulta
// periódicamente la tabla de notificaciones.
type Awaiter struct {
	root          context.Context
	pending       repository.PendingPaymentRepository
	notifications repository.PaymentNotificationRepository
	requesters    map[entity.TenderMethod]PaymentRequester
	broker        NotificationBroker
	metrics       *metrics.Metrics
	log           zerolog.Logger
	cfg           AwaiterConfig
	now           func() time.Time
}

// NewAwaiter construye el awaiter. root acota todas las esperas (apagado del proceso).
func NewAwaiter(
	root context.Context,
	pending repository.PendingPaymentRepository,
	notifications repository.PaymentNotificationRepository,
	requesters map[entity.TenderMethod]PaymentRequester,
	broker NotificationBroker,
	m *metrics.Metrics,
	log zerolog.Logger,
	cfg AwaiterConfig,
) *Awaiter {
	if cfg.Window <= 0 {
		cfg.Window = 15 * time.Minute
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 3 * time.Second
	}
	if cfg.Currency == "" {
		cfg.Currency = "ARS"
	}
	return &Awaiter{
		root:          root,
		pending:       pending,
		notifications: notifications,
		requesters:    requesters,
		broker:        broker,
		metrics:       m,
		log:           log.With().Str("component", "payment_awaiter").Logger(),
		cfg:           cfg,
		now:           time.Now,
	}
}

// Request crea el pago pendiente, pide el cobro al proveedor y arranca la espera
// en una goroutine. onResult se invoca una sola vez con el resultado.
func (a *Awaiter) Request(ctx context.Context, req StartRequest, onResult func(Result)) (*Handle, error) {
	if !req.Amount.IsPositive() {
		return nil, domain.ErrInvalidAmount
	}
	requester, ok := a.requesters[req.Method]
	if !ok || !req.Method.IsExternal() {
		return nil, domain.ErrInvalidTenderMethod
	}

	paymentID := uuid.New().String()
	now := a.now()
	expiresAt := now.Add(a.cfg.Window)
	meta, _ := json.Marshal(map[string]any{"point_of_sale": req.PointOfSale})
	pp := &entity.PendingPayment{
		PaymentID:     paymentID,
		BranchID:      req.BranchID,
		UserID:        req.UserID,
		SaleID:        req.SaleID,
		Amount:        req.Amount,
		Currency:      a.cfg.Currency,
		PaymentMethod: req.Method,
		Status:        entity.PaymentStatusPending,
		ExpiresAt:     expiresAt,
		Metadata:      meta,
		CreatedAt:     now,
	}
	if err := a.pending.Create(ctx, pp); err != nil {
		return nil, fmt.Errorf("crear pago pendiente: %w", err)
	}
	log := a.log.With().Str("payment_id", paymentID).Str("branch_id", req.BranchID).Logger()

	// Suscribirse antes de pedir el cobro para no perder una confirmación rápida.
	var events <-chan NotificationEvent
	unsubscribe := func() {}
	if a.broker != nil {
		ch, unsub, err := a.broker.Subscribe(a.root, req.BranchID)
		if err != nil {
			log.Warn().Err(err).Msg("sin canal de tiempo real, se usa solo polling")
		} else {
			events, unsubscribe = ch, unsub
		}
	}

	payload, err := requester.RequestPayment(ctx, PaymentRequest{
		PaymentID:   paymentID,
		BranchID:    req.BranchID,
		PointOfSale: req.PointOfSale,
		Amount:      req.Amount,
		Currency:    a.cfg.Currency,
		Method:      req.Method,
		Description: "Venta " + req.SaleID,
		ExpiresAt:   expiresAt,
	})
	if err != nil {
		unsubscribe()
		if _, tErr := a.pending.Transition(context.WithoutCancel(ctx), paymentID, entity.PaymentStatusExpired); tErr != nil {
			log.Error().Err(tErr).Msg("no se pudo expirar el pago tras la falla del proveedor")
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrProviderUnavailable, err)
	}
	if err := a.pending.UpdateProviderData(ctx, paymentID, payload.ExternalID, payload.QRData, payload.QRImageURL); err != nil {
		log.Error().Err(err).Msg("no se pudieron guardar los datos del proveedor")
	}

	waitCtx, cancel := context.WithDeadline(a.root, expiresAt)
	h := &Handle{
		PaymentID: paymentID,
		Payload:   payload,
		ExpiresAt: expiresAt,
		cancel:    cancel,
		done:      make(chan struct{}),
	}
	base := Result{PaymentID: paymentID, Method: req.Method, Requested: req.Amount}
	go a.wait(waitCtx, h, base, events, unsubscribe, onResult, log)

	log.Info().Str("method", string(req.Method)).Str("amount", req.Amount.StringFixed(2)).Msg("pago externo en espera")
	return h, nil
}

func (a *Awaiter) wait(
	ctx context.Context,
	h *Handle,
	base Result,
	events <-chan NotificationEvent,
	unsubscribe func(),
	onResult func(Result),
	log zerolog.Logger,
) {
	defer unsubscribe()
	defer h.cancel()

	finish := func(r Result) {
		h.once.Do(func() {
			h.result = r
			a.metrics.ExternalPaymentResult(string(r.Outcome))
			log.Info().Str("outcome", string(r.Outcome)).Msg("pago externo resuelto")
			if onResult != nil {
				onResult(r)
			}
			close(h.done)
		})
	}

	ticker := time.NewTicker(a.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			// Los cambios finales usan un contexto propio: ctx ya terminó.
			finalCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				// Última consulta: la confirmación pudo llegar justo al vencer.
				if r, ok := a.check(finalCtx, base, log); ok {
					cancel()
					finish(r)
					return
				}
				a.expire(finalCtx, base.PaymentID, log)
				cancel()
				r := base
				r.Outcome = OutcomeExpired
				finish(r)
				return
			}
			r := a.settleCancelled(finalCtx, base, log)
			cancel()
			finish(r)
			return

		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if ev.PaymentID != base.PaymentID {
				continue
			}
			if r, ok := a.check(ctx, base, log); ok {
				finish(r)
				return
			}

		case <-ticker.C:
			if r, ok := a.check(ctx, base, log); ok {
				finish(r)
				return
			}
		}
	}
}

// check busca una notificación del pago y, si la hay, mueve el pendiente una sola vez.
func (a *Awaiter) check(ctx context.Context, base Result, log zerolog.Logger) (Result, bool) {
	n, err := a.notifications.FindLatestByPaymentID(ctx, base.PaymentID)
	if err != nil {
		log.Warn().Err(err).Msg("error consultando notificaciones")
		return Result{}, false
	}
	if n == nil {
		return Result{}, false
	}
	r := base
	r.StatusDetail = n.StatusDetail
	switch n.Status {
	case entity.PaymentStatusApproved:
		if !n.Amount.IsPositive() {
			// Monto inválido: no se aplica, la espera sigue hasta vencer.
			log.Warn().Str("amount", n.Amount.String()).Msg("confirmación con monto inválido")
			a.flag(ctx, base.PaymentID, ReviewInvalidAmount, log)
			return Result{}, false
		}
		applied, err := a.pending.Transition(ctx, base.PaymentID, entity.PaymentStatusApproved)
		if err != nil {
			log.Warn().Err(err).Msg("error aprobando pago pendiente")
			return Result{}, false
		}
		if !applied {
			// Ya no estaba pendiente (vencido por el barrido): queda para revisión manual.
			log.Warn().Msg("confirmación sobre un pago que ya no estaba pendiente")
			a.flag(ctx, base.PaymentID, ReviewLateConfirmation, log)
			r.Outcome = OutcomeExpired
			r.Amount = n.Amount
			r.ManualReview = true
			return r, true
		}
		r.Outcome = OutcomeConfirmed
		r.Amount = n.Amount
		return r, true
	case entity.PaymentStatusRejected:
		if _, err := a.pending.Transition(ctx, base.PaymentID, entity.PaymentStatusRejected); err != nil {
			log.Warn().Err(err).Msg("error rechazando pago pendiente")
			return Result{}, false
		}
		r.Outcome = OutcomeRejected
		return r, true
	}
	return Result{}, false
}

// settleCancelled cierra una espera cancelada por el cajero. Si el proveedor ya
// había aprobado el pago, el pendiente queda approved y la notificación marcada
// para revisión: el cobro existe aunque la venta ya no lo espere.
func (a *Awaiter) settleCancelled(ctx context.Context, base Result, log zerolog.Logger) Result {
	r := base
	r.Outcome = OutcomeCancelled
	n, err := a.notifications.FindLatestByPaymentID(ctx, base.PaymentID)
	if err != nil {
		log.Warn().Err(err).Msg("error consultando notificaciones al cancelar")
	}
	if n == nil || err != nil {
		a.expire(ctx, base.PaymentID, log)
		return r
	}
	r.StatusDetail = n.StatusDetail
	switch n.Status {
	case entity.PaymentStatusApproved:
		if _, err := a.pending.Transition(ctx, base.PaymentID, entity.PaymentStatusApproved); err != nil {
			log.Error().Err(err).Msg("error aprobando pago cancelado")
		}
		a.flag(ctx, base.PaymentID, ReviewCancelledApproved, log)
		r.Amount = n.Amount
		r.ManualReview = true
	case entity.PaymentStatusRejected:
		if _, err := a.pending.Transition(ctx, base.PaymentID, entity.PaymentStatusRejected); err != nil {
			log.Error().Err(err).Msg("error rechazando pago cancelado")
		}
	default:
		a.expire(ctx, base.PaymentID, log)
	}
	return r
}

// FlagForReview marca la aprobación de un pago para conciliación manual.
// La usa quien recibe un Result confirmado que ya no puede aplicar.
func (a *Awaiter) FlagForReview(ctx context.Context, paymentID, reason string) error {
	return a.notifications.FlagManualReview(ctx, paymentID, entity.PaymentStatusApproved, reason)
}

func (a *Awaiter) flag(ctx context.Context, paymentID, reason string, log zerolog.Logger) {
	if err := a.FlagForReview(ctx, paymentID, reason); err != nil {
		log.Error().Err(err).Str("reason", reason).Msg("no se pudo marcar el pago para revisión manual")
		return
	}
	log.Warn().Str("reason", reason).Bool("manual_review", true).Msg("pago marcado para revisión manual")
}

func (a *Awaiter) expire(ctx context.Context, paymentID string, log zerolog.Logger) {
	if _, err := a.pending.Transition(ctx, paymentID, entity.PaymentStatusExpired); err != nil {
		log.Error().Err(err).Msg("no se pudo marcar el pago como expired")
	}
}
