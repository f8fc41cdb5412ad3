package realtime

import (
	"context"
	"sync"

	"github.com/factusystem/factu-api/internal/application/payments"
)

var _ payments.NotificationBroker = (*MemoryBroker)(nil)

// MemoryBroker difusión en proceso (un solo nodo o tests).
type MemoryBroker struct {
	mu     sync.Mutex
	nextID int
	subs   map[string]map[int]chan payments.NotificationEvent
}

// NewMemoryBroker crea el broker vacío.
func NewMemoryBroker() *MemoryBroker {
	return &MemoryBroker{subs: make(map[string]map[int]chan payments.NotificationEvent)}
}

// Subscribe registra un suscriptor de la sucursal. La suscripción termina con
// la función devuelta o cuando ctx termina.
func (b *MemoryBroker) Subscribe(ctx context.Context, branchID string) (<-chan payments.NotificationEvent, func(), error) {
	ch := make(chan payments.NotificationEvent, subscriberBuffer)
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	if b.subs[branchID] == nil {
		b.subs[branchID] = make(map[int]chan payments.NotificationEvent)
	}
	b.subs[branchID][id] = ch
	b.mu.Unlock()

	stop := make(chan struct{})
	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			close(stop)
			b.mu.Lock()
			delete(b.subs[branchID], id)
			if len(b.subs[branchID]) == 0 {
				delete(b.subs, branchID)
			}
			b.mu.Unlock()
			close(ch)
		})
	}
	go func() {
		select {
		case <-ctx.Done():
			unsubscribe()
		case <-stop:
		}
	}()
	return ch, unsubscribe, nil
}

// Publish entrega el evento a los suscriptores de la sucursal sin bloquear:
// si un suscriptor está lleno se descarta (el polling lo cubre).
func (b *MemoryBroker) Publish(_ context.Context, ev payments.NotificationEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs[ev.BranchID] {
		select {
		case ch <- ev:
		default:
		}
	}
	return nil
}
