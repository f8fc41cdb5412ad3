package postgres

import (
	"context"
	"fmt"

	"github.com/factusystem/factu-api/internal/domain/entity"
	"github.com/factusystem/factu-api/internal/domain/repository"
)

var _ repository.CounterRepository = (*CounterRepo)(nil)

// CounterRepo numeración con upsert: la fila queda bloqueada hasta el fin de la transacción,
// dos cajas del mismo punto de venta nunca obtienen el mismo número.
type CounterRepo struct {
	q Querier
}

// NewCounterRepository construye el adaptador (usar con la tx de la venta).
func NewCounterRepository(q Querier) *CounterRepo {
	return &CounterRepo{q: q}
}

// Next incrementa y devuelve el próximo número de la familia.
func (r *CounterRepo) Next(ctx context.Context, branchID string, pos int, family entity.CounterFamily) (int64, error) {
	query := `
		INSERT INTO invoice_counters (branch_id, pos_number, family, last_number)
		VALUES ($1, $2, $3, 1)
		ON CONFLICT (branch_id, pos_number, family)
		DO UPDATE SET last_number = invoice_counters.last_number + 1
		RETURNING last_number`
	var n int64
	if err := r.q.QueryRow(ctx, query, branchID, pos, string(family)).Scan(&n); err != nil {
		return 0, fmt.Errorf("next counter %s/%d/%s: %w", branchID, pos, family, err)
	}
	return n, nil
}
