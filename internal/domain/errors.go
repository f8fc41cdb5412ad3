package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound     = errors.New("recurso no encontrado")
	ErrUserNotFound = errors.New("usuario no encontrado")
	ErrInvalidInput = errors.New("entrada inválida")
	ErrDuplicate    = errors.New("recurso duplicado")
	ErrUnauthorized = errors.New("no autorizado")
	ErrForbidden    = errors.New("acceso denegado")
	ErrConflict     = errors.New("conflicto con el estado actual")
)

// Errores del flujo de facturación. Son recuperables: el cajero corrige y reintenta.
var (
	ErrInvalidAmount           = errors.New("el monto debe ser mayor a cero")
	ErrEmptySale               = errors.New("la venta no tiene ítems")
	ErrInsufficientPayment     = errors.New("el total pagado no cubre el total de la venta")
	ErrInvalidInvoiceTenderMix = errors.New("el tipo de comprobante no admite los medios de pago cargados")
	ErrInvalidInvoiceType      = errors.New("tipo de comprobante inválido")
	ErrInvalidTenderMethod     = errors.New("medio de pago inválido")
	ErrTenderLocked            = errors.New("el pago fue confirmado por el proveedor y no puede quitarse")
	ErrIndexOutOfRange         = errors.New("índice fuera de rango")
	ErrExternalTender          = errors.New("el medio de pago requiere confirmación del proveedor")
)

// Errores de pagos externos (QR, billetera, transferencia).
var (
	ErrAwaiterBusy         = errors.New("ya hay un pago externo en espera para esta venta")
	ErrPaymentPending      = errors.New("hay un pago externo pendiente de confirmación")
	ErrNoActiveAwaiter     = errors.New("no hay pago externo en espera")
	ErrProviderUnavailable = errors.New("proveedor de pagos no disponible")
	ErrInvalidSignature    = errors.New("firma del webhook inválida")
)
