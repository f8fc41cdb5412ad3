package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"

	"github.com/factusystem/factu-api/internal/application/payments"
)

var _ payments.NotificationBroker = (*RedisBroker)(nil)

// RedisBroker pub/sub de Redis con un canal por sucursal; sirve a varios nodos de la API.
type RedisBroker struct {
	client *redis.Client
	log    zerolog.Logger
}

// NewRedisBroker construye el broker desde una URL redis://.
func NewRedisBroker(redisURL string, log zerolog.Logger) (*RedisBroker, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("REDIS_URL: %w", err)
	}
	return &RedisBroker{
		client: redis.NewClient(opts),
		log:    log.With().Str("component", "realtime_redis").Logger(),
	}, nil
}

// Ping verifica la conexión al arrancar.
func (b *RedisBroker) Ping(ctx context.Context) error {
	return b.client.Ping(ctx).Err()
}

// Close libera el cliente.
func (b *RedisBroker) Close() error {
	return b.client.Close()
}

// Publish envía el evento al canal de la sucursal.
func (b *RedisBroker) Publish(ctx context.Context, ev payments.NotificationEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return b.client.Publish(ctx, RedisChannel(ev.BranchID), body).Err()
}

// Subscribe abre una suscripción al canal de la sucursal. Termina con la función
// devuelta o cuando ctx termina.
func (b *RedisBroker) Subscribe(ctx context.Context, branchID string) (<-chan payments.NotificationEvent, func(), error) {
	pubsub := b.client.Subscribe(ctx, RedisChannel(branchID))
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, nil, fmt.Errorf("suscribir %s: %w", RedisChannel(branchID), err)
	}

	out := make(chan payments.NotificationEvent, subscriberBuffer)
	stop := make(chan struct{})
	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			close(stop)
			_ = pubsub.Close()
		})
	}

	go func() {
		defer close(out)
		msgs := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				unsubscribe()
				return
			case <-stop:
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				ev, err := decodeEvent([]byte(msg.Payload))
				if err != nil {
					b.log.Warn().Err(err).Str("channel", msg.Channel).Msg("mensaje inválido")
					continue
				}
				select {
				case out <- ev:
				default:
				}
			}
		}
	}()
	return out, unsubscribe, nil
}
