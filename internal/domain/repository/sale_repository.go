package repository

import (
	"context"

	"github.com/factusystem/factu-api/internal/domain/entity"
)

// SaleRepository puerto de persistencia de ventas confirmadas.
type SaleRepository interface {
	// Create guarda cabecera, líneas y pagos.
	Create(ctx context.Context, sale *entity.Sale) error
	GetByID(ctx context.Context, id string) (*entity.Sale, error)
	// UpdateFiscal actualiza solo los campos de autorización fiscal.
	UpdateFiscal(ctx context.Context, sale *entity.Sale) error
}

// CounterRepository numeración por familia, sucursal y punto de venta.
type CounterRepository interface {
	// Next incrementa y devuelve el próximo número. Usar dentro de la transacción de la venta.
	Next(ctx context.Context, branchID string, pos int, family entity.CounterFamily) (int64, error)
}
