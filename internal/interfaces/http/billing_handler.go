package http

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/factusystem/factu-api/internal/application/billing"
	"github.com/factusystem/factu-api/internal/application/dto"
)

// BillingHandler borradores de venta: ítems, pagos, comprobante y confirmación.
type BillingHandler struct {
	drafts *billing.DraftService
}

// NewBillingHandler construye el handler.
func NewBillingHandler(drafts *billing.DraftService) *BillingHandler {
	return &BillingHandler{drafts: drafts}
}

// ExternalTenderAccepted respuesta 202 de un pago externo iniciado.
type ExternalTenderAccepted struct {
	Draft   *dto.DraftResponse           `json:"draft"`
	Payment *dto.ExternalPaymentResponse `json:"payment"`
}

// CreateDraft godoc
// @Summary      Abrir borrador de venta
// @Tags         billing
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body  dto.CreateDraftRequest  false  "cliente opcional"
// @Success      201   {object}  dto.DraftResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/billing/drafts [post]
func (h *BillingHandler) CreateDraft(c *fiber.Ctx) error {
	var in dto.CreateDraftRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&in); err != nil {
			return badBody(c)
		}
	}
	out, err := h.drafts.Create(c.UserContext(), scopeFrom(c), in.ClientID)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// GetDraft godoc
// @Summary      Estado del borrador
// @Tags         billing
// @Produce      json
// @Security     BearerAuth
// @Param        id   path  string  true  "ID del borrador"
// @Success      200  {object}  dto.DraftResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/billing/drafts/{id} [get]
func (h *BillingHandler) GetDraft(c *fiber.Ctx) error {
	out, err := h.drafts.Get(scopeFrom(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// CancelDraft descarta el borrador y cancela cualquier pago externo en espera.
func (h *BillingHandler) CancelDraft(c *fiber.Ctx) error {
	if err := h.drafts.Cancel(scopeFrom(c), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// SetClient godoc
// @Summary      Asignar cliente (recalcula el tipo de comprobante)
// @Tags         billing
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path  string                true  "ID del borrador"
// @Param        body  body  dto.SetClientRequest  true  "client_id vacío = consumidor final"
// @Success      200   {object}  dto.DraftResponse
// @Router       /api/billing/drafts/{id}/client [put]
func (h *BillingHandler) SetClient(c *fiber.Ctx) error {
	var in dto.SetClientRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.drafts.SetClient(c.UserContext(), scopeFrom(c), c.Params("id"), in.ClientID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// AddItem godoc
// @Summary      Agregar ítem
// @Tags         billing
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path  string              true  "ID del borrador"
// @Param        body  body  dto.AddItemRequest  true  "precio con IVA incluido"
// @Success      200   {object}  dto.DraftResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/billing/drafts/{id}/items [post]
func (h *BillingHandler) AddItem(c *fiber.Ctx) error {
	var in dto.AddItemRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.drafts.AddItem(scopeFrom(c), c.Params("id"), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// RemoveItem quita la línea en la posición :index.
func (h *BillingHandler) RemoveItem(c *fiber.Ctx) error {
	idx, err := strconv.Atoi(c.Params("index"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INDEX_OUT_OF_RANGE", Message: "índice inválido"})
	}
	out, err := h.drafts.RemoveItem(scopeFrom(c), c.Params("id"), idx)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// SetInvoiceType godoc
// @Summary      Elegir tipo de comprobante manualmente
// @Tags         billing
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path  string                     true  "ID del borrador"
// @Param        body  body  dto.SetInvoiceTypeRequest  true  "A, B, C, X o P"
// @Success      200   {object}  dto.DraftResponse
// @Router       /api/billing/drafts/{id}/invoice-type [put]
func (h *BillingHandler) SetInvoiceType(c *fiber.Ctx) error {
	var in dto.SetInvoiceTypeRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.drafts.SetInvoiceType(scopeFrom(c), c.Params("id"), in.InvoiceType)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// AddTender godoc
// @Summary      Cargar pago
// @Description  Efectivo, tarjeta, vale o cuenta corriente se aplican al instante (200).
// @Description  QR, billetera y transferencia inician un cobro externo (202) que se confirma por webhook.
// @Tags         billing
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path  string                true  "ID del borrador"
// @Param        body  body  dto.AddTenderRequest  true  "método y monto"
// @Success      200   {object}  dto.DraftResponse
// @Success      202   {object}  ExternalTenderAccepted
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/billing/drafts/{id}/tenders [post]
func (h *BillingHandler) AddTender(c *fiber.Ctx) error {
	var in dto.AddTenderRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	draft, payment, err := h.drafts.AddTender(c.UserContext(), scopeFrom(c), c.Params("id"), in)
	if err != nil {
		return respondError(c, err)
	}
	if payment != nil {
		return c.Status(fiber.StatusAccepted).JSON(ExternalTenderAccepted{Draft: draft, Payment: payment})
	}
	return c.JSON(draft)
}

// RemoveTender quita el pago en la posición :index.
func (h *BillingHandler) RemoveTender(c *fiber.Ctx) error {
	idx, err := strconv.Atoi(c.Params("index"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INDEX_OUT_OF_RANGE", Message: "índice inválido"})
	}
	out, err := h.drafts.RemoveTender(scopeFrom(c), c.Params("id"), idx)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// CancelExternalPayment cancela el cobro externo en espera.
func (h *BillingHandler) CancelExternalPayment(c *fiber.Ctx) error {
	out, err := h.drafts.CancelExternalPayment(scopeFrom(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Commit godoc
// @Summary      Confirmar venta
// @Tags         billing
// @Produce      json
// @Security     BearerAuth
// @Param        id   path  string  true  "ID del borrador"
// @Success      201  {object}  dto.SaleResponse
// @Failure      409  {object}  dto.ErrorResponse  "PAYMENT_PENDING"
// @Failure      422  {object}  dto.ErrorResponse  "EMPTY_SALE, INSUFFICIENT_PAYMENT, INVALID_INVOICE_TENDER_MIX"
// @Router       /api/billing/drafts/{id}/commit [post]
func (h *BillingHandler) Commit(c *fiber.Ctx) error {
	out, err := h.drafts.Commit(c.UserContext(), scopeFrom(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}
