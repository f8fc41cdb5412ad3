// Package realtime implementa el canal de notificaciones de pago por sucursal
// sobre PostgreSQL LISTEN/NOTIFY, Redis pub/sub o memoria.
package realtime

const (
	subscriberBuffer = 16
	// PostgresChannel canal NOTIFY que dispara el trigger de payment_notifications.
	PostgresChannel = "payment_notifications"
)

// RedisChannel canal Redis de una sucursal.
func RedisChannel(branchID string) string {
	return "factu:payments:" + branchID
}
