package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/factusystem/factu-api/internal/application/dto"
	"github.com/factusystem/factu-api/internal/domain"
)

type errorMapping struct {
	err    error
	status int
	code   string
}

// Orden importa: el primer sentinel que matchea gana.
var errorTable = []errorMapping{
	{domain.ErrInvalidAmount, fiber.StatusBadRequest, "INVALID_AMOUNT"},
	{domain.ErrEmptySale, fiber.StatusUnprocessableEntity, "EMPTY_SALE"},
	{domain.ErrInsufficientPayment, fiber.StatusUnprocessableEntity, "INSUFFICIENT_PAYMENT"},
	{domain.ErrInvalidInvoiceTenderMix, fiber.StatusUnprocessableEntity, "INVALID_INVOICE_TENDER_MIX"},
	{domain.ErrInvalidInvoiceType, fiber.StatusBadRequest, "INVALID_INVOICE_TYPE"},
	{domain.ErrInvalidTenderMethod, fiber.StatusBadRequest, "INVALID_TENDER_METHOD"},
	{domain.ErrTenderLocked, fiber.StatusConflict, "TENDER_LOCKED"},
	{domain.ErrIndexOutOfRange, fiber.StatusBadRequest, "INDEX_OUT_OF_RANGE"},
	{domain.ErrExternalTender, fiber.StatusBadRequest, "EXTERNAL_TENDER"},
	{domain.ErrAwaiterBusy, fiber.StatusConflict, "AWAITER_BUSY"},
	{domain.ErrPaymentPending, fiber.StatusConflict, "PAYMENT_PENDING"},
	{domain.ErrNoActiveAwaiter, fiber.StatusConflict, "NO_ACTIVE_AWAITER"},
	{domain.ErrProviderUnavailable, fiber.StatusBadGateway, "PROVIDER_UNAVAILABLE"},
	{domain.ErrInvalidSignature, fiber.StatusForbidden, "INVALID_SIGNATURE"},
	{domain.ErrNotFound, fiber.StatusNotFound, "NOT_FOUND"},
	{domain.ErrInvalidInput, fiber.StatusBadRequest, "VALIDATION"},
	{domain.ErrDuplicate, fiber.StatusConflict, "DUPLICATE"},
	{domain.ErrConflict, fiber.StatusConflict, "CONFLICT"},
	{domain.ErrUnauthorized, fiber.StatusUnauthorized, "UNAUTHORIZED"},
	{domain.ErrForbidden, fiber.StatusForbidden, "FORBIDDEN"},
}

// respondError traduce errores de dominio a dto.ErrorResponse. Lo no mapeado es 500.
func respondError(c *fiber.Ctx, err error) error {
	for _, m := range errorTable {
		if errors.Is(err, m.err) {
			return c.Status(m.status).JSON(dto.ErrorResponse{Code: m.code, Message: err.Error()})
		}
	}
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: "error interno"})
}

func badBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
}
