package billing

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/factusystem/factu-api/internal/application/dto"
	"github.com/factusystem/factu-api/internal/application/payments"
	"github.com/factusystem/factu-api/internal/domain"
	domainbilling "github.com/factusystem/factu-api/internal/domain/billing"
	"github.com/factusystem/factu-api/internal/domain/entity"
	"github.com/factusystem/factu-api/internal/domain/repository"
)

// Scope caja que opera (sale del JWT).
type Scope struct {
	BranchID    string
	PointOfSale int
	UserID      string
}

// draftEntry un borrador y su espera externa. mu serializa todas las mutaciones,
// incluidas las que llegan desde la goroutine del awaiter.
type draftEntry struct {
	mu       sync.Mutex
	draft    *domainbilling.SaleDraft
	handle   *payments.Handle
	payload  *payments.PaymentPayload
	lastUsed time.Time
}

// DraftService mantiene en memoria las ventas en curso de todas las cajas.
type DraftService struct {
	mu        sync.RWMutex
	drafts    map[string]*draftEntry
	clients   repository.ClientRepository
	awaiter   PaymentAwaiter
	finalizer *FinalizeSaleUseCase
	log       zerolog.Logger
	now       func() time.Time
}

// NewDraftService construye el servicio.
func NewDraftService(clients repository.ClientRepository, awaiter PaymentAwaiter, finalizer *FinalizeSaleUseCase, log zerolog.Logger) *DraftService {
	return &DraftService{
		drafts:    make(map[string]*draftEntry),
		clients:   clients,
		awaiter:   awaiter,
		finalizer: finalizer,
		log:       log.With().Str("component", "drafts").Logger(),
		now:       time.Now,
	}
}

// Create abre un borrador vacío. clientID vacío = consumidor final.
func (s *DraftService) Create(ctx context.Context, scope Scope, clientID string) (*dto.DraftResponse, error) {
	if scope.BranchID == "" || scope.UserID == "" {
		return nil, domain.ErrUnauthorized
	}
	client, err := s.lookupClient(ctx, clientID)
	if err != nil {
		return nil, err
	}
	d := domainbilling.NewSaleDraft(uuid.New().String(), scope.BranchID, scope.PointOfSale, scope.UserID, client)
	entry := &draftEntry{draft: d, lastUsed: s.now()}

	s.mu.Lock()
	s.drafts[d.ID] = entry
	s.mu.Unlock()
	return toDraftDTO(d, nil), nil
}

// Get devuelve el estado del borrador.
func (s *DraftService) Get(scope Scope, id string) (*dto.DraftResponse, error) {
	return s.with(scope, id, func(e *draftEntry) error { return nil })
}

// Cancel descarta el borrador y cancela cualquier pago externo en espera.
func (s *DraftService) Cancel(scope Scope, id string) error {
	entry, err := s.entry(scope, id)
	if err != nil {
		return err
	}
	entry.mu.Lock()
	if entry.handle != nil {
		entry.handle.Cancel()
		entry.handle = nil
	}
	entry.draft.Reset()
	entry.mu.Unlock()

	s.mu.Lock()
	delete(s.drafts, id)
	s.mu.Unlock()
	return nil
}

// SetClient cambia el cliente; el tipo de comprobante se re-evalúa.
func (s *DraftService) SetClient(ctx context.Context, scope Scope, id, clientID string) (*dto.DraftResponse, error) {
	client, err := s.lookupClient(ctx, clientID)
	if err != nil {
		return nil, err
	}
	return s.with(scope, id, func(e *draftEntry) error {
		e.draft.SetClient(client)
		return nil
	})
}

// AddItem agrega una línea.
func (s *DraftService) AddItem(scope Scope, id string, in dto.AddItemRequest) (*dto.DraftResponse, error) {
	return s.with(scope, id, func(e *draftEntry) error {
		return e.draft.AddItem(toLineItem(in))
	})
}

// RemoveItem quita una línea.
func (s *DraftService) RemoveItem(scope Scope, id string, index int) (*dto.DraftResponse, error) {
	return s.with(scope, id, func(e *draftEntry) error {
		return e.draft.RemoveItem(index)
	})
}

// SetInvoiceType elección manual del comprobante.
func (s *DraftService) SetInvoiceType(scope Scope, id, invoiceType string) (*dto.DraftResponse, error) {
	t, ok := entity.ParseInvoiceType(invoiceType)
	if !ok {
		return nil, domain.ErrInvalidInvoiceType
	}
	return s.with(scope, id, func(e *draftEntry) error {
		return e.draft.SetInvoiceType(t)
	})
}

// AddTender carga un pago. Los directos entran al ledger; los externos abren
// una espera y devuelven los datos de cobro (el ledger no cambia hasta la confirmación).
func (s *DraftService) AddTender(ctx context.Context, scope Scope, id string, in dto.AddTenderRequest) (*dto.DraftResponse, *dto.ExternalPaymentResponse, error) {
	method, ok := entity.ParseTenderMethod(in.Method)
	if !ok {
		return nil, nil, domain.ErrInvalidTenderMethod
	}
	if !in.Amount.IsPositive() {
		return nil, nil, domain.ErrInvalidAmount
	}
	if !method.IsExternal() {
		out, err := s.with(scope, id, func(e *draftEntry) error {
			return e.draft.AddTender(method, in.Amount)
		})
		return out, nil, err
	}

	var external *dto.ExternalPaymentResponse
	out, err := s.with(scope, id, func(e *draftEntry) error {
		if e.draft.Awaiting() != nil {
			return domain.ErrAwaiterBusy
		}
		h, err := s.awaiter.Request(ctx, payments.StartRequest{
			BranchID:    e.draft.BranchID,
			PointOfSale: e.draft.PointOfSale,
			UserID:      scope.UserID,
			SaleID:      e.draft.ID,
			Amount:      in.Amount,
			Method:      method,
		}, func(r payments.Result) { s.applyResult(e, r) })
		if err != nil {
			return err
		}
		awaiting := domainbilling.AwaitingPayment{
			PaymentID: h.PaymentID,
			Method:    method,
			Amount:    in.Amount,
			ExpiresAt: h.ExpiresAt,
		}
		if err := e.draft.BeginExternalPayment(awaiting); err != nil {
			h.Cancel()
			return err
		}
		e.handle = h
		e.payload = h.Payload
		external = toExternalDTO(&awaiting, h.Payload)
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return out, external, nil
}

// RemoveTender quita un pago directo o uno externo no confirmado.
func (s *DraftService) RemoveTender(scope Scope, id string, index int) (*dto.DraftResponse, error) {
	return s.with(scope, id, func(e *draftEntry) error {
		return e.draft.RemoveTender(index)
	})
}

// CancelExternalPayment aborta la espera en curso; el pendiente pasa a expired.
func (s *DraftService) CancelExternalPayment(scope Scope, id string) (*dto.DraftResponse, error) {
	return s.with(scope, id, func(e *draftEntry) error {
		a := e.draft.Awaiting()
		if a == nil || e.handle == nil {
			return domain.ErrNoActiveAwaiter
		}
		e.handle.Cancel()
		e.handle = nil
		e.payload = nil
		return e.draft.FailExternalPayment(a.PaymentID, domainbilling.NoticePaymentCancelled, "Pago externo cancelado")
	})
}

// Commit confirma la venta y deja el borrador vacío para la próxima.
func (s *DraftService) Commit(ctx context.Context, scope Scope, id string) (*dto.SaleResponse, error) {
	var sale *entity.Sale
	_, err := s.with(scope, id, func(e *draftEntry) error {
		var err error
		sale, err = s.finalizer.Finalize(ctx, e.draft)
		return err
	})
	if err != nil {
		return nil, err
	}
	return toSaleDTO(sale), nil
}

// applyResult corre en la goroutine del awaiter.
func (s *DraftService) applyResult(e *draftEntry, r payments.Result) {
	reason := s.applyLocked(e, r)
	if reason == "" {
		return
	}
	// El cobro existe pero no entró a ninguna venta.
	s.log.Warn().
		Str("payment_id", r.PaymentID).
		Str("draft_id", e.draft.ID).
		Str("amount", r.Amount.StringFixed(2)).
		Str("reason", reason).
		Bool("manual_review", true).
		Msg("pago confirmado que no se aplicó al borrador")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.awaiter.FlagForReview(ctx, r.PaymentID, reason); err != nil {
		s.log.Error().Err(err).Str("payment_id", r.PaymentID).Msg("no se pudo marcar el pago para revisión manual")
	}
}

// applyLocked aplica el resultado al borrador. Devuelve el motivo de revisión
// manual cuando una confirmación no pudo aplicarse.
func (s *DraftService) applyLocked(e *draftEntry, r payments.Result) string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.handle != nil && e.handle.PaymentID == r.PaymentID {
		e.handle = nil
		e.payload = nil
	}

	switch r.Outcome {
	case payments.OutcomeConfirmed:
		err := e.draft.ConfirmExternalPayment(r.PaymentID, r.Amount)
		if err == nil {
			return ""
		}
		if errors.Is(err, domain.ErrNoActiveAwaiter) {
			return payments.ReviewDraftNotAwaiting
		}
		// La espera se cierra igual: el borrador nunca queda bloqueado.
		_ = e.draft.FailExternalPayment(r.PaymentID, domainbilling.NoticePaymentFailed,
			"El proveedor informó un pago que no se pudo registrar; queda para revisión manual")
		return payments.ReviewInvalidAmount
	case payments.OutcomeRejected:
		msg := "El pago fue rechazado por el proveedor"
		if r.StatusDetail != "" {
			msg += " (" + r.StatusDetail + ")"
		}
		_ = e.draft.FailExternalPayment(r.PaymentID, domainbilling.NoticePaymentRejected, msg)
	case payments.OutcomeExpired:
		_ = e.draft.FailExternalPayment(r.PaymentID, domainbilling.NoticePaymentExpired,
			"El pago no se confirmó antes del vencimiento")
	case payments.OutcomeCancelled:
		_ = e.draft.FailExternalPayment(r.PaymentID, domainbilling.NoticePaymentCancelled, "Pago externo cancelado")
	}
	return ""
}

// EvictIdle descarta los borradores sin uso desde hace más de maxIdle y cancela
// sus esperas. Devuelve cuántos descartó.
func (s *DraftService) EvictIdle(maxIdle time.Duration) int {
	cutoff := s.now().Add(-maxIdle)
	s.mu.Lock()
	var stale []*draftEntry
	for id, e := range s.drafts {
		e.mu.Lock()
		if e.lastUsed.Before(cutoff) {
			stale = append(stale, e)
			delete(s.drafts, id)
		}
		e.mu.Unlock()
	}
	s.mu.Unlock()

	for _, e := range stale {
		e.mu.Lock()
		if e.handle != nil {
			e.handle.Cancel()
			e.handle = nil
		}
		e.draft.Reset()
		e.mu.Unlock()
	}
	return len(stale)
}

// RunEviction corre EvictIdle cada interval hasta que ctx termine.
func (s *DraftService) RunEviction(ctx context.Context, interval, maxIdle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.EvictIdle(maxIdle); n > 0 {
				s.log.Info().Int("evicted", n).Msg("borradores inactivos descartados")
			}
		}
	}
}

func (s *DraftService) lookupClient(ctx context.Context, clientID string) (*entity.Client, error) {
	if clientID == "" {
		return nil, nil
	}
	client, err := s.clients.GetByID(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("obtener cliente: %w", err)
	}
	if client == nil {
		return nil, domain.ErrNotFound
	}
	return client, nil
}

func (s *DraftService) entry(scope Scope, id string) (*draftEntry, error) {
	s.mu.RLock()
	e, ok := s.drafts[id]
	s.mu.RUnlock()
	if !ok || e.draft.BranchID != scope.BranchID || e.draft.PointOfSale != scope.PointOfSale {
		return nil, domain.ErrNotFound
	}
	return e, nil
}

// with ejecuta fn con el borrador bloqueado y devuelve su estado resultante.
func (s *DraftService) with(scope Scope, id string, fn func(e *draftEntry) error) (*dto.DraftResponse, error) {
	e, err := s.entry(scope, id)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.lastUsed = s.now()
	if err := fn(e); err != nil {
		return nil, err
	}
	return toDraftDTO(e.draft, e.payload), nil
}
