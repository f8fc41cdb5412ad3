package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	domainbilling "github.com/factusystem/factu-api/internal/domain/billing"
	"github.com/factusystem/factu-api/internal/domain/entity"
	"github.com/factusystem/factu-api/internal/domain/repository"
	"github.com/factusystem/factu-api/pkg/metrics"
)

// FinalizeConfig tolerancia de pago y moneda de los comprobantes.
type FinalizeConfig struct {
	Tolerance *decimal.Decimal // nil = domainbilling.DefaultTolerance
	Currency  string
}

// FinalizeSaleUseCase valida el borrador, asigna número y guarda la venta en una sola transacción.
type FinalizeSaleUseCase struct {
	txRunner SaleTxRunner
	fiscal   FiscalProcessor // nil = sin autorización fiscal
	metrics  *metrics.Metrics
	log      zerolog.Logger
	cfg      FinalizeConfig
	now      func() time.Time
}

// NewFinalizeSaleUseCase construye el caso de uso.
func NewFinalizeSaleUseCase(
	txRunner SaleTxRunner,
	fiscal FiscalProcessor,
	m *metrics.Metrics,
	log zerolog.Logger,
	cfg FinalizeConfig,
) *FinalizeSaleUseCase {
	if cfg.Tolerance == nil {
		def := domainbilling.DefaultTolerance
		cfg.Tolerance = &def
	}
	if cfg.Currency == "" {
		cfg.Currency = "ARS"
	}
	return &FinalizeSaleUseCase{
		txRunner: txRunner,
		fiscal:   fiscal,
		metrics:  m,
		log:      log.With().Str("component", "sale_finalizer").Logger(),
		cfg:      cfg,
		now:      time.Now,
	}
}

// Finalize confirma la venta. Si la transacción falla el borrador queda intacto;
// si confirma, el borrador se vacía y los comprobantes A/B/C pasan a autorización.
// El llamador serializa el acceso al borrador.
func (uc *FinalizeSaleUseCase) Finalize(ctx context.Context, d *domainbilling.SaleDraft) (*entity.Sale, error) {
	if err := domainbilling.ValidateForCommit(d, *uc.cfg.Tolerance); err != nil {
		return nil, err
	}

	sale := uc.buildSale(d)
	family := sale.InvoiceType.Family()

	err := uc.txRunner.RunSale(ctx, func(counterRepo repository.CounterRepository, saleRepo repository.SaleRepository) error {
		number, err := counterRepo.Next(ctx, sale.BranchID, sale.PointOfSale, family)
		if err != nil {
			return err
		}
		sale.Number = number
		return saleRepo.Create(ctx, sale)
	})
	if err != nil {
		return nil, err
	}

	d.Reset()
	uc.metrics.SaleCommitted(string(family))
	uc.log.Info().
		Str("sale_id", sale.ID).
		Str("branch_id", sale.BranchID).
		Str("invoice_type", string(sale.InvoiceType)).
		Int64("number", sale.Number).
		Str("total", sale.GrandTotal.StringFixed(2)).
		Msg("venta confirmada")

	if sale.InvoiceType.IsFiscal() && uc.fiscal != nil {
		uc.fiscal.ProcessAsync(sale.ID)
	}
	return sale, nil
}

func (uc *FinalizeSaleUseCase) buildSale(d *domainbilling.SaleDraft) *entity.Sale {
	now := uc.now()
	totals := d.Totals()
	tendered := d.TotalTendered()
	change := tendered.Sub(totals.Total)
	if change.IsNegative() {
		change = decimal.Zero
	}
	client := d.Client()

	sale := &entity.Sale{
		ID:            uuid.New().String(),
		BranchID:      d.BranchID,
		PointOfSale:   d.PointOfSale,
		UserID:        d.UserID,
		ClientID:      client.ID,
		ClientName:    client.Name,
		ClientTaxID:   client.TaxID,
		TaxCondition:  client.TaxCondition,
		InvoiceType:   d.InvoiceType(),
		NetTotal:      totals.Net,
		TaxTotal:      totals.VAT,
		GrandTotal:    totals.Total,
		TenderedTotal: tendered,
		Change:        change,
		Currency:      uc.cfg.Currency,
		FiscalStatus:  entity.FiscalStatusNotApplicable,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if sale.InvoiceType.IsFiscal() {
		sale.FiscalStatus = entity.FiscalStatusPending
	}
	for _, it := range d.Items() {
		sale.Items = append(sale.Items, entity.SaleItem{
			ID:              uuid.New().String(),
			SaleID:          sale.ID,
			ProductID:       it.ProductID,
			Description:     it.Description,
			Quantity:        it.Quantity,
			UnitPrice:       it.UnitPrice,
			DiscountPercent: it.DiscountPercent,
			VATRate:         it.VATRate,
			NetAmount:       it.Net(),
			VATAmount:       it.VAT(),
			Total:           it.Total(),
		})
	}
	for _, t := range d.Tenders() {
		sale.Tenders = append(sale.Tenders, entity.SaleTender{
			ID:                uuid.New().String(),
			SaleID:            sale.ID,
			Method:            t.Method,
			Amount:            t.Amount,
			ExternalReference: t.ExternalReference,
		})
	}
	return sale
}
