package repository

import (
	"context"

	"github.com/factusystem/factu-api/internal/domain/entity"
)

// UserRepository lectura de usuarios para el login de cajeros.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
}
