package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/factusystem/factu-api/internal/domain/entity"
	"github.com/factusystem/factu-api/internal/domain/repository"
)

var _ repository.ClientRepository = (*ClientRepo)(nil)

// ClientRepo lectura de clientes.
type ClientRepo struct {
	q Querier
}

// NewClientRepository construye el adaptador.
func NewClientRepository(q Querier) *ClientRepo {
	return &ClientRepo{q: q}
}

// GetByID nil, nil si no existe.
func (r *ClientRepo) GetByID(ctx context.Context, id string) (*entity.Client, error) {
	query := `
		SELECT id, name, tax_id, tax_condition, email, phone, created_at, updated_at
		FROM clients WHERE id = $1`
	var (
		c                   entity.Client
		taxID, email, phone *string
		cond                string
	)
	err := r.q.QueryRow(ctx, query, id).Scan(&c.ID, &c.Name, &taxID, &cond, &email, &phone, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get client: %w", err)
	}
	c.TaxID = derefStr(taxID)
	c.Email = derefStr(email)
	c.Phone = derefStr(phone)
	c.TaxCondition = entity.TaxCondition(cond)
	return &c, nil
}
