package auth_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/factusystem/factu-api/internal/application/auth"
	"github.com/factusystem/factu-api/internal/application/dto"
	"github.com/factusystem/factu-api/internal/domain"
	"github.com/factusystem/factu-api/internal/domain/entity"
	pkgjwt "github.com/factusystem/factu-api/pkg/jwt"
)

type memUsers map[string]*entity.User

func (m memUsers) GetByID(_ context.Context, id string) (*entity.User, error) {
	for _, u := range m {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, nil
}

func (m memUsers) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	return m[email], nil
}

func newUsers(t *testing.T) memUsers {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("caja1234"), bcrypt.MinCost)
	require.NoError(t, err)
	return memUsers{
		"caja@sucursal.com": {ID: "u1", BranchID: "b1", PointOfSale: 2, Email: "caja@sucursal.com", PasswordHash: string(hash), Role: entity.RoleCashier, Status: "active"},
		"baja@sucursal.com": {ID: "u2", BranchID: "b1", PointOfSale: 2, Email: "baja@sucursal.com", PasswordHash: string(hash), Role: entity.RoleCashier, Status: "inactive"},
		"sincaja@x.com":     {ID: "u3", Email: "sincaja@x.com", PasswordHash: string(hash), Role: entity.RoleAdmin, Status: "active"},
	}
}

func TestLogin_TokenConSucursalYCaja(t *testing.T) {
	uc := auth.NewAuthUseCase(newUsers(t), auth.JWTConfig{Secret: "s", ExpMinutes: 5, Issuer: "factu"})

	out, err := uc.Login(context.Background(), dto.LoginRequest{Email: "caja@sucursal.com", Password: "caja1234"})
	require.NoError(t, err)
	assert.Equal(t, "b1", out.User.BranchID)

	id, err := pkgjwt.Parse("s", out.Token)
	require.NoError(t, err)
	assert.Equal(t, pkgjwt.Identity{UserID: "u1", BranchID: "b1", PointOfSale: 2, Role: entity.RoleCashier}, id)
}

func TestLogin_Errores(t *testing.T) {
	uc := auth.NewAuthUseCase(newUsers(t), auth.JWTConfig{Secret: "s", ExpMinutes: 5})
	ctx := context.Background()

	_, err := uc.Login(ctx, dto.LoginRequest{Email: "nadie@x.com", Password: "x"})
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	_, err = uc.Login(ctx, dto.LoginRequest{Email: "caja@sucursal.com", Password: "mala"})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = uc.Login(ctx, dto.LoginRequest{Email: "baja@sucursal.com", Password: "caja1234"})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = uc.Login(ctx, dto.LoginRequest{Email: "sincaja@x.com", Password: "caja1234"})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}
