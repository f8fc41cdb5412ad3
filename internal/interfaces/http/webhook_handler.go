package http

import (
	"encoding/json"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/factusystem/factu-api/internal/application/dto"
	"github.com/factusystem/factu-api/internal/application/payments"
	"github.com/factusystem/factu-api/internal/domain"
)

// BankSignatureHeader header con hex(HMAC-SHA256(secreto, cuerpo crudo)).
const BankSignatureHeader = "x-bank-signature"

// WebhookHandler recibe avisos de proveedores de pago. No requiere JWT.
//
// Contrato de status:
//   - 200 procesado, duplicado o ignorado (el proveedor no debe reintentar).
//   - 400 cuerpo ilegible o sin identificador.
//   - 403 firma inválida (transferencias).
//   - 500 error reintentable.
type WebhookHandler struct {
	reconciler      *payments.Reconciler
	allowSimulation bool
	log             zerolog.Logger
}

// NewWebhookHandler construye el handler. allowSimulation habilita /test-payment (fuera de producción).
func NewWebhookHandler(reconciler *payments.Reconciler, allowSimulation bool, log zerolog.Logger) *WebhookHandler {
	return &WebhookHandler{
		reconciler:      reconciler,
		allowSimulation: allowSimulation,
		log:             log.With().Str("component", "webhook_handler").Logger(),
	}
}

// MercadoPago godoc
// @Summary      Webhook de Mercado Pago
// @Tags         webhooks
// @Accept       json
// @Produce      json
// @Param        body  body  dto.MercadoPagoWebhook  true  "type, action, data.id"
// @Success      200   {object}  dto.WebhookAck
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      500   {object}  dto.ErrorResponse
// @Router       /api/webhooks/mercadopago [post]
func (h *WebhookHandler) MercadoPago(c *fiber.Ctx) error {
	raw := append([]byte(nil), c.Body()...)
	var in dto.MercadoPagoWebhook
	if err := json.Unmarshal(raw, &in); err != nil {
		return badBody(c)
	}
	outcome, err := h.reconciler.ReconcileMercadoPago(c.UserContext(), payments.MercadoPagoEvent{
		Type:   in.Type,
		Action: in.Action,
		DataID: string(in.Data.ID),
	}, raw)
	return h.ack(c, payments.ProviderMercadoPago, outcome, err)
}

// BankTransfer godoc
// @Summary      Webhook de transferencias bancarias
// @Tags         webhooks
// @Accept       json
// @Produce      json
// @Param        x-bank-signature  header  string  true  "hex(HMAC-SHA256(secreto, cuerpo))"
// @Success      200   {object}  dto.WebhookAck
// @Failure      403   {object}  dto.ErrorResponse
// @Router       /api/webhooks/bank-transfer [post]
func (h *WebhookHandler) BankTransfer(c *fiber.Ctx) error {
	raw := append([]byte(nil), c.Body()...)
	outcome, err := h.reconciler.ReconcileBankTransfer(c.UserContext(), raw, c.Get(BankSignatureHeader))
	return h.ack(c, payments.ProviderBankTransfer, outcome, err)
}

// TestPayment simula la confirmación de un pago pendiente. 404 en producción.
// El router la monta detrás de RequireRole(admin, supervisor).
func (h *WebhookHandler) TestPayment(c *fiber.Ctx) error {
	if !h.allowSimulation {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "ruta no disponible"})
	}
	var in dto.TestPaymentRequest
	if err := c.BodyParser(&in); err != nil || in.PaymentID == "" {
		return badBody(c)
	}
	outcome, err := h.reconciler.SimulatePayment(c.UserContext(), in.PaymentID, in.Status, in.Amount)
	if errors.Is(err, domain.ErrNotFound) {
		return respondError(c, err)
	}
	return h.ack(c, payments.ProviderTest, outcome, err)
}

func (h *WebhookHandler) ack(c *fiber.Ctx, provider string, outcome payments.WebhookOutcome, err error) error {
	switch {
	case err == nil:
		return c.JSON(dto.WebhookAck{Received: true, Outcome: string(outcome)})
	case errors.Is(err, domain.ErrInvalidSignature):
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "INVALID_SIGNATURE", Message: "firma inválida"})
	case errors.Is(err, domain.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "evento sin identificador válido"})
	default:
		h.log.Error().Err(err).Str("provider", provider).Msg("webhook con error, el proveedor reintentará")
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: "error procesando el evento"})
	}
}
