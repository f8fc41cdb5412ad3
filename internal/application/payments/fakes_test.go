package payments_test

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/factusystem/factu-api/internal/application/payments"
	"github.com/factusystem/factu-api/internal/domain/entity"
)

// ── Repositorios en memoria ──────────────────────────────────────────────────

type memPending struct {
	mu   sync.Mutex
	rows map[string]*entity.PendingPayment
}

func newMemPending() *memPending {
	return &memPending{rows: make(map[string]*entity.PendingPayment)}
}

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
		if p.ExternalID != "" && p.ExternalID == externalID {
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

func (m *memPending) ExpireOverdue(_ context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, p := range m.rows {
		if p.Status == entity.PaymentStatusPending && p.IsExpiredAt(now) {
			p.Status = entity.PaymentStatusExpired
			n++
		}
	}
	return n, nil
}

func (m *memPending) status(paymentID string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.rows[paymentID]; ok {
		return p.Status
	}
	return ""
}

func (m *memPending) only() *entity.PendingPayment {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.rows {
		cp := *p
		return &cp
	}
	return nil
}

type memNotifications struct {
	mu      sync.Mutex
	rows    []*entity.PaymentNotification
	reviews map[string]string
	failOn  error
}

func (m *memNotifications) Insert(_ context.Context, n *entity.PaymentNotification) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failOn != nil {
		return false, m.failOn
	}
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

func (m *memNotifications) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

func (m *memNotifications) all() []*entity.PaymentNotification {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*entity.PaymentNotification, len(m.rows))
	copy(out, m.rows)
	return out
}

// ── Proveedor ────────────────────────────────────────────────────────────────

type fakeRequester struct {
	err error
}

func (f *fakeRequester) RequestPayment(_ context.Context, req payments.PaymentRequest) (*payments.PaymentPayload, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &payments.PaymentPayload{
		ExternalID: "order-" + req.PaymentID,
		QRData:     "00020101021243650016COM.MERCADOLIBRE" + req.PaymentID,
	}, nil
}

type fakeProvider struct {
	byID map[string]*payments.ProviderPayment
}

var errProviderDown = errors.New("mercadopago: 503")

func (f *fakeProvider) GetPayment(_ context.Context, id string) (*payments.ProviderPayment, error) {
	if f.byID == nil {
		return nil, errProviderDown
	}
	p, ok := f.byID[id]
	if !ok {
		return nil, errors.New("mercadopago: 404")
	}
	return p, nil
}
