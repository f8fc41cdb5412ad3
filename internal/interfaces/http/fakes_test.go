package http_test

import (
	"context"
	"sync"
	"time"

	"github.com/factusystem/factu-api/internal/application/billing"
	"github.com/factusystem/factu-api/internal/application/payments"
	"github.com/factusystem/factu-api/internal/domain/entity"
	"github.com/factusystem/factu-api/internal/domain/repository"
)

type memPending struct {
	mu   sync.Mutex
	rows map[string]*entity.PendingPayment
}

func newMemPending(rows ...*entity.PendingPayment) *memPending {
	m := &memPending{rows: make(map[string]*entity.PendingPayment)}
	for _, p := range rows {
		m.rows[p.PaymentID] = p
	}
	return m
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

func (m *memPending) ExpireOverdue(context.Context, time.Time) (int64, error) { return 0, nil }

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

func (m *memNotifications) all() []*entity.PaymentNotification {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*entity.PaymentNotification(nil), m.rows...)
}

// stubProvider responde GET /v1/payments/{id} desde un mapa.
type stubProvider map[string]*payments.ProviderPayment

func (s stubProvider) GetPayment(_ context.Context, id string) (*payments.ProviderPayment, error) {
	if p, ok := s[id]; ok {
		return p, nil
	}
	return nil, context.DeadlineExceeded
}

type memClients map[string]*entity.Client

func (m memClients) GetByID(_ context.Context, id string) (*entity.Client, error) {
	return m[id], nil
}

type memSales struct {
	mu   sync.Mutex
	rows map[string]*entity.Sale
	next map[string]int64
}

func newMemSales() *memSales {
	return &memSales{rows: make(map[string]*entity.Sale), next: make(map[string]int64)}
}

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

func (m *memSales) UpdateFiscal(context.Context, *entity.Sale) error { return nil }

func (m *memSales) Next(_ context.Context, branchID string, pos int, family entity.CounterFamily) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := branchID + "/" + string(family)
	m.next[k]++
	return m.next[k], nil
}

// RunSale sin rollback: alcanza para los tests de contrato HTTP.
func (m *memSales) RunSale(_ context.Context, fn func(repository.CounterRepository, repository.SaleRepository) error) error {
	return fn(m, m)
}

type nopFiscal struct{}

func (nopFiscal) ProcessAsync(string) {}

type pdfStub struct{}

func (pdfStub) RenderReceipt(context.Context, *entity.Sale, billing.IssuerInfo) ([]byte, error) {
	return []byte("%PDF-1.3 stub"), nil
}

type users map[string]*entity.User

func (u users) GetByID(_ context.Context, id string) (*entity.User, error) {
	for _, x := range u {
		if x.ID == id {
			return x, nil
		}
	}
	return nil, nil
}

func (u users) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	return u[email], nil
}

type qrRequester struct{}

func (qrRequester) RequestPayment(_ context.Context, req payments.PaymentRequest) (*payments.PaymentPayload, error) {
	return &payments.PaymentPayload{ExternalID: "order-" + req.PaymentID, QRData: "qr:" + req.PaymentID}, nil
}
