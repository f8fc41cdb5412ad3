package billing

import (
	"context"
	"fmt"

	"github.com/factusystem/factu-api/internal/application/dto"
	"github.com/factusystem/factu-api/internal/domain"
	"github.com/factusystem/factu-api/internal/domain/entity"
	"github.com/factusystem/factu-api/internal/domain/repository"
)

// SaleUseCase consulta de ventas confirmadas y su comprobante impreso.
type SaleUseCase struct {
	saleRepo repository.SaleRepository
	renderer ReceiptRenderer
	issuer   IssuerInfo
}

// NewSaleUseCase construye el caso de uso.
func NewSaleUseCase(saleRepo repository.SaleRepository, renderer ReceiptRenderer, issuer IssuerInfo) *SaleUseCase {
	return &SaleUseCase{saleRepo: saleRepo, renderer: renderer, issuer: issuer}
}

// GetSale devuelve la venta si pertenece a la sucursal del token.
func (uc *SaleUseCase) GetSale(ctx context.Context, branchID, saleID string) (*dto.SaleResponse, error) {
	sale, err := uc.load(ctx, branchID, saleID)
	if err != nil {
		return nil, err
	}
	return toSaleDTO(sale), nil
}

// Receipt genera el PDF del comprobante.
//
// Retorna:
//   - (pdfBytes, filename, nil)  si todo sale bien.
//   - domain.ErrNotFound         si la venta no existe.
//   - domain.ErrForbidden        si la venta es de otra sucursal.
//   - domain.ErrConflict         si es fiscal y todavía no tiene CAE.
func (uc *SaleUseCase) Receipt(ctx context.Context, branchID, saleID string) ([]byte, string, error) {
	sale, err := uc.load(ctx, branchID, saleID)
	if err != nil {
		return nil, "", err
	}
	if sale.InvoiceType.IsFiscal() && sale.FiscalStatus != entity.FiscalStatusAuthorized {
		return nil, "", fmt.Errorf("%w: comprobante en estado %s, espere la autorización", domain.ErrConflict, sale.FiscalStatus)
	}
	pdf, err := uc.renderer.RenderReceipt(ctx, sale, uc.issuer)
	if err != nil {
		return nil, "", fmt.Errorf("recibo: generación fallida: %w", err)
	}
	return pdf, fmt.Sprintf("comprobante_%s_%s.pdf", sale.InvoiceType, sale.FormattedNumber()), nil
}

func (uc *SaleUseCase) load(ctx context.Context, branchID, saleID string) (*entity.Sale, error) {
	sale, err := uc.saleRepo.GetByID(ctx, saleID)
	if err != nil {
		return nil, fmt.Errorf("obtener venta: %w", err)
	}
	if sale == nil {
		return nil, domain.ErrNotFound
	}
	if sale.BranchID != branchID {
		return nil, domain.ErrForbidden
	}
	return sale, nil
}
