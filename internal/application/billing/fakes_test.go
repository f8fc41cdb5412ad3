package billing_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/factusystem/factu-api/internal/application/billing"
	"github.com/factusystem/factu-api/internal/application/payments"
	"github.com/factusystem/factu-api/internal/domain/entity"
	"github.com/factusystem/factu-api/internal/domain/repository"
)

// ── Ventas y numeración ──────────────────────────────────────────────────────

type memSales struct {
	mu   sync.Mutex
	rows map[string]*entity.Sale
}

func newMemSales() *memSales { return &memSales{rows: make(map[string]*entity.Sale)} }

func (m *memSales) Create(_ context.Context, s *entity.Sale) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.rows[s.ID] = &cp
	return nil
}

func (m *memSales) GetByID(_ context.Context, id string) (*entity.Sale, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.rows[id]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, nil
}

func (m *memSales) UpdateFiscal(_ context.Context, s *entity.Sale) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[s.ID]
	if !ok {
		return errors.New("venta inexistente")
	}
	row.FiscalStatus = s.FiscalStatus
	row.AuthCode = s.AuthCode
	row.AuthCodeExpiry = s.AuthCodeExpiry
	row.FiscalErrors = s.FiscalErrors
	row.UpdatedAt = s.UpdatedAt
	return nil
}

func (m *memSales) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

type memCounters struct {
	mu     sync.Mutex
	values map[string]int64
}

func newMemCounters() *memCounters { return &memCounters{values: make(map[string]int64)} }

func counterKey(branchID string, pos int, family entity.CounterFamily) string {
	return fmt.Sprintf("%s/%d/%s", branchID, pos, family)
}

func (m *memCounters) Next(_ context.Context, branchID string, pos int, family entity.CounterFamily) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := counterKey(branchID, pos, family)
	m.values[k]++
	return m.values[k], nil
}

func (m *memCounters) value(branchID string, pos int, family entity.CounterFamily) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.values[counterKey(branchID, pos, family)]
}

// memTx aplica los cambios solo si fn no falla (numeración incluida).
type memTx struct {
	counters *memCounters
	sales    *memSales
	failSave error
}

func (t *memTx) RunSale(ctx context.Context, fn func(repository.CounterRepository, repository.SaleRepository) error) error {
	stagedCounters := newMemCounters()
	t.counters.mu.Lock()
	for k, v := range t.counters.values {
		stagedCounters.values[k] = v
	}
	t.counters.mu.Unlock()
	staged := &stagedSales{fail: t.failSave}

	if err := fn(stagedCounters, staged); err != nil {
		return err
	}
	t.counters.mu.Lock()
	t.counters.values = stagedCounters.values
	t.counters.mu.Unlock()
	for _, s := range staged.rows {
		_ = t.sales.Create(ctx, s)
	}
	return nil
}

type stagedSales struct {
	rows []*entity.Sale
	fail error
}

func (s *stagedSales) Create(_ context.Context, sale *entity.Sale) error {
	if s.fail != nil {
		return s.fail
	}
	s.rows = append(s.rows, sale)
	return nil
}

func (s *stagedSales) GetByID(context.Context, string) (*entity.Sale, error) { return nil, nil }
func (s *stagedSales) UpdateFiscal(context.Context, *entity.Sale) error     { return nil }

var _ billing.SaleTxRunner = (*memTx)(nil)

// ── Clientes ─────────────────────────────────────────────────────────────────

type memClients map[string]*entity.Client

func (m memClients) GetByID(_ context.Context, id string) (*entity.Client, error) {
	if c, ok := m[id]; ok {
		return c, nil
	}
	return nil, nil
}

// ── Fiscal ───────────────────────────────────────────────────────────────────

type recordingFiscal struct {
	mu  sync.Mutex
	ids []string
}

func (r *recordingFiscal) ProcessAsync(saleID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ids = append(r.ids, saleID)
}

func (r *recordingFiscal) calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.ids...)
}

type fakeAuthorizer struct {
	res *billing.FiscalResult
	err error
}

func (f *fakeAuthorizer) Authorize(context.Context, *entity.Sale) (*billing.FiscalResult, error) {
	return f.res, f.err
}

// ── Pagos externos ───────────────────────────────────────────────────────────

type memPending struct {
	mu   sync.Mutex
	rows map[string]*entity.PendingPayment
}

func newMemPending() *memPending { return &memPending{rows: make(map[string]*entity.PendingPayment)} }

func (m *memPending) Create(_ context.Context, p *entity.PendingPayment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.rows[p.PaymentID] = &cp
	return nil
}

func (m *memPending) UpdateProviderData(_ context.Context, paymentID, externalID, qrData, qrImageURL string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.rows[paymentID]; ok {
		p.ExternalID, p.QRData, p.QRImageURL = externalID, qrData, qrImageURL
	}
	return nil
}

func (m *memPending) FindByPaymentID(_ context.Context, paymentID string) (*entity.PendingPayment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.rows[paymentID]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, nil
}

func (m *memPending) FindByExternalID(_ context.Context, externalID string) (*entity.PendingPayment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.rows {
		if p.ExternalID == externalID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memPending) Transition(_ context.Context, paymentID, status string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.rows[paymentID]
	if !ok || p.Status != entity.PaymentStatusPending {
		return false, nil
	}
	p.Status = status
	return true, nil
}

func (m *memPending) ExpireOverdue(context.Context, time.Time) (int64, error) { return 0, nil }

func (m *memPending) status(paymentID string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.rows[paymentID]; ok {
		return p.Status
	}
	return ""
}

type memNotifications struct {
	mu      sync.Mutex
	rows    []*entity.PaymentNotification
	reviews map[string]string
}

func (m *memNotifications) Insert(_ context.Context, n *entity.PaymentNotification) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rows {
		if r.PaymentID == n.PaymentID && r.Status == n.Status {
			return false, nil
		}
	}
	n.ID = int64(len(m.rows) + 1)
	cp := *n
	m.rows = append(m.rows, &cp)
	return true, nil
}

// FlagManualReview guarda el motivo por pago; solo aplica a filas existentes.
func (m *memNotifications) FlagManualReview(_ context.Context, paymentID, status, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rows {
		if r.PaymentID == paymentID && r.Status == status {
			if m.reviews == nil {
				m.reviews = make(map[string]string)
			}
			m.reviews[paymentID] = reason
		}
	}
	return nil
}

func (m *memNotifications) reviewReason(paymentID string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reviews[paymentID]
}

func (m *memNotifications) FindLatestByPaymentID(_ context.Context, paymentID string) (*entity.PaymentNotification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.rows) - 1; i >= 0; i-- {
		if m.rows[i].PaymentID == paymentID {
			cp := *m.rows[i]
			return &cp, nil
		}
	}
	return nil, nil
}

type qrRequester struct{}

func (qrRequester) RequestPayment(_ context.Context, req payments.PaymentRequest) (*payments.PaymentPayload, error) {
	return &payments.PaymentPayload{
		ExternalID: "order-" + req.PaymentID,
		QRData:     "00020101021243650016COM.MERCADOLIBRE" + req.PaymentID,
	}, nil
}

// scriptedAwaiter entrega resultados a mano para probar el borrador sin proveedor.
type scriptedAwaiter struct {
	mu       sync.Mutex
	n        int
	onResult func(payments.Result)
	reviews  map[string]string
}

func (a *scriptedAwaiter) Request(_ context.Context, _ payments.StartRequest, onResult func(payments.Result)) (*payments.Handle, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.n++
	a.onResult = onResult
	return &payments.Handle{PaymentID: fmt.Sprintf("pay-%d", a.n), ExpiresAt: time.Now().Add(time.Minute)}, nil
}

func (a *scriptedAwaiter) FlagForReview(_ context.Context, paymentID, reason string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.reviews == nil {
		a.reviews = make(map[string]string)
	}
	a.reviews[paymentID] = reason
	return nil
}

func (a *scriptedAwaiter) deliver(r payments.Result) {
	a.mu.Lock()
	fn := a.onResult
	a.mu.Unlock()
	fn(r)
}

func (a *scriptedAwaiter) reviewReason(paymentID string) string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.reviews[paymentID]
}
