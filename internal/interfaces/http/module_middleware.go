package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/factusystem/factu-api/internal/application/dto"
)

// RequireCashRegister exige que el token tenga sucursal y punto de venta asignados.
// Debe usarse DESPUÉS de AuthMiddleware.
//
// Comportamiento:
//   - 401 si no hay usuario en el contexto.
//   - 403 si el usuario no tiene caja: puede consultar pero no facturar.
func RequireCashRegister() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if GetUserID(c) == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Code:    "UNAUTHORIZED",
				Message: "usuario no encontrado en el token",
			})
		}
		if GetBranchID(c) == "" || GetPOS(c) <= 0 {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
				Code:    "NO_CASH_REGISTER",
				Message: "el usuario no tiene sucursal y punto de venta asignados",
			})
		}
		return c.Next()
	}
}
