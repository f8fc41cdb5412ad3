package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/factusystem/factu-api/internal/domain"
	"github.com/factusystem/factu-api/internal/domain/entity"
	"github.com/factusystem/factu-api/internal/domain/repository"
)

var _ repository.SaleRepository = (*SaleRepo)(nil)

// SaleRepo ventas confirmadas con sus líneas y pagos.
type SaleRepo struct {
	q Querier
}

// NewSaleRepository construye el adaptador. Pasar pool o tx (Querier).
func NewSaleRepository(q Querier) *SaleRepo {
	return &SaleRepo{q: q}
}

// Create persiste cabecera, líneas y pagos. Llamar dentro de la tx que tomó el número.
func (r *SaleRepo) Create(ctx context.Context, s *entity.Sale) error {
	query := `
		INSERT INTO sales (id, branch_id, pos_number, user_id, client_id, client_name, client_tax_id, tax_condition,
		                   invoice_type, number, net_total, tax_total, grand_total, tendered_total, change_amount,
		                   currency, fiscal_status, cae, cae_expiry, fiscal_errors, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)`
	_, err := r.q.Exec(ctx, query,
		s.ID, s.BranchID, s.PointOfSale, s.UserID, nullIfEmpty(s.ClientID), s.ClientName, nullIfEmpty(s.ClientTaxID),
		string(s.TaxCondition), string(s.InvoiceType), s.Number,
		s.NetTotal, s.TaxTotal, s.GrandTotal, s.TenderedTotal, s.Change,
		s.Currency, s.FiscalStatus, nullIfEmpty(s.AuthCode), s.AuthCodeExpiry, nullIfEmpty(s.FiscalErrors),
		s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("número %s ya usado: %w", s.FormattedNumber(), domain.ErrDuplicate)
		}
		return fmt.Errorf("insert sale: %w", err)
	}

	for i, it := range s.Items {
		_, err := r.q.Exec(ctx, `
			INSERT INTO sale_items (id, sale_id, line, product_id, description, quantity, unit_price,
			                        discount_percent, vat_rate, net_amount, vat_amount, total)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
			it.ID, s.ID, i+1, nullIfEmpty(it.ProductID), it.Description, it.Quantity, it.UnitPrice,
			it.DiscountPercent, it.VATRate, it.NetAmount, it.VATAmount, it.Total,
		)
		if err != nil {
			return fmt.Errorf("insert sale item %d: %w", i+1, err)
		}
	}
	for i, t := range s.Tenders {
		_, err := r.q.Exec(ctx, `
			INSERT INTO sale_tenders (id, sale_id, line, method, amount, external_reference)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			t.ID, s.ID, i+1, string(t.Method), t.Amount, nullIfEmpty(t.ExternalReference),
		)
		if err != nil {
			return fmt.Errorf("insert sale tender %d: %w", i+1, err)
		}
	}
	return nil
}

// GetByID venta completa; nil, nil si no existe.
func (r *SaleRepo) GetByID(ctx context.Context, id string) (*entity.Sale, error) {
	query := `
		SELECT id, branch_id, pos_number, user_id, client_id, client_name, client_tax_id, tax_condition,
		       invoice_type, number, net_total, tax_total, grand_total, tendered_total, change_amount,
		       currency, fiscal_status, cae, cae_expiry, fiscal_errors, created_at, updated_at
		FROM sales WHERE id = $1`
	var (
		s                                      entity.Sale
		clientID, clientTaxID, cae, fiscalErrs *string
		taxCond, invType                       string
	)
	err := r.q.QueryRow(ctx, query, id).Scan(
		&s.ID, &s.BranchID, &s.PointOfSale, &s.UserID, &clientID, &s.ClientName, &clientTaxID, &taxCond,
		&invType, &s.Number, &s.NetTotal, &s.TaxTotal, &s.GrandTotal, &s.TenderedTotal, &s.Change,
		&s.Currency, &s.FiscalStatus, &cae, &s.AuthCodeExpiry, &fiscalErrs, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get sale: %w", err)
	}
	s.ClientID = derefStr(clientID)
	s.ClientTaxID = derefStr(clientTaxID)
	s.AuthCode = derefStr(cae)
	s.FiscalErrors = derefStr(fiscalErrs)
	s.TaxCondition = entity.TaxCondition(taxCond)
	s.InvoiceType = entity.InvoiceType(invType)

	if s.Items, err = r.items(ctx, s.ID); err != nil {
		return nil, err
	}
	if s.Tenders, err = r.tenders(ctx, s.ID); err != nil {
		return nil, err
	}
	return &s, nil
}

// UpdateFiscal solo toca los campos de autorización.
func (r *SaleRepo) UpdateFiscal(ctx context.Context, s *entity.Sale) error {
	query := `
		UPDATE sales
		SET fiscal_status = $2,
		    cae           = COALESCE($3, cae),
		    cae_expiry    = COALESCE($4, cae_expiry),
		    fiscal_errors = $5,
		    updated_at    = $6
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query,
		s.ID, s.FiscalStatus, nullIfEmpty(s.AuthCode), s.AuthCodeExpiry, nullIfEmpty(s.FiscalErrors), s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update sale fiscal: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *SaleRepo) items(ctx context.Context, saleID string) ([]entity.SaleItem, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, sale_id, product_id, description, quantity, unit_price, discount_percent,
		       vat_rate, net_amount, vat_amount, total
		FROM sale_items WHERE sale_id = $1 ORDER BY line`, saleID)
	if err != nil {
		return nil, fmt.Errorf("list sale items: %w", err)
	}
	defer rows.Close()

	var out []entity.SaleItem
	for rows.Next() {
		var it entity.SaleItem
		var productID *string
		if err := rows.Scan(&it.ID, &it.SaleID, &productID, &it.Description, &it.Quantity, &it.UnitPrice,
			&it.DiscountPercent, &it.VATRate, &it.NetAmount, &it.VATAmount, &it.Total); err != nil {
			return nil, fmt.Errorf("scan sale item: %w", err)
		}
		it.ProductID = derefStr(productID)
		out = append(out, it)
	}
	return out, rows.Err()
}

func (r *SaleRepo) tenders(ctx context.Context, saleID string) ([]entity.SaleTender, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, sale_id, method, amount, external_reference
		FROM sale_tenders WHERE sale_id = $1 ORDER BY line`, saleID)
	if err != nil {
		return nil, fmt.Errorf("list sale tenders: %w", err)
	}
	defer rows.Close()

	var out []entity.SaleTender
	for rows.Next() {
		var t entity.SaleTender
		var method string
		var ref *string
		if err := rows.Scan(&t.ID, &t.SaleID, &method, &t.Amount, &ref); err != nil {
			return nil, fmt.Errorf("scan sale tender: %w", err)
		}
		t.Method = entity.TenderMethod(method)
		t.ExternalReference = derefStr(ref)
		out = append(out, t)
	}
	return out, rows.Err()
}
