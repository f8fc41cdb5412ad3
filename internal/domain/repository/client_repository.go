package repository

import (
	"context"

	"github.com/factusystem/factu-api/internal/domain/entity"
)

// ClientRepository lectura de clientes (el ABM queda fuera de este servicio).
type ClientRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Client, error)
}
