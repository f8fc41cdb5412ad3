package billing

import (
	"github.com/factusystem/factu-api/internal/application/dto"
	"github.com/factusystem/factu-api/internal/application/payments"
	domainbilling "github.com/factusystem/factu-api/internal/domain/billing"
	"github.com/factusystem/factu-api/internal/domain/entity"
)

func toClientDTO(c *entity.Client) dto.ClientResponse {
	return dto.ClientResponse{
		ID:           c.ID,
		Name:         c.Name,
		TaxID:        c.TaxID,
		TaxCondition: string(c.TaxCondition),
	}
}

func toTenderDTOs(tenders []entity.TenderEntry) []dto.TenderResponse {
	out := make([]dto.TenderResponse, 0, len(tenders))
	for _, t := range tenders {
		out = append(out, dto.TenderResponse{
			Method:             string(t.Method),
			Amount:             t.Amount,
			ExternalReference:  t.ExternalReference,
			ConfirmationStatus: t.ConfirmationStatus,
			AmountMismatch:     t.AmountMismatch,
		})
	}
	return out
}

func toDraftDTO(d *domainbilling.SaleDraft, payload *payments.PaymentPayload) *dto.DraftResponse {
	totals := d.Totals()
	items := make([]dto.LineItemResponse, 0)
	for _, it := range d.Items() {
		items = append(items, dto.LineItemResponse{
			ProductID:       it.ProductID,
			Description:     it.Description,
			Quantity:        it.Quantity,
			UnitPrice:       it.UnitPrice,
			DiscountPercent: it.DiscountPercent,
			VATRate:         it.VATRate,
			Net:             it.Net(),
			VAT:             it.VAT(),
			Total:           it.Total(),
		})
	}
	out := &dto.DraftResponse{
		ID:               d.ID,
		BranchID:         d.BranchID,
		PointOfSale:      d.PointOfSale,
		Client:           toClientDTO(d.Client()),
		InvoiceType:      string(d.InvoiceType()),
		InvoiceTypeFixed: d.TypeFixed(),
		Items:            items,
		Tenders:          toTenderDTOs(d.Tenders()),
		NetTotal:         totals.Net,
		TaxTotal:         totals.VAT,
		GrandTotal:       totals.Total,
		TotalTendered:    d.TotalTendered(),
		Remaining:        d.Remaining(),
		CreatedAt:        d.CreatedAt,
	}
	if a := d.Awaiting(); a != nil {
		out.AwaitingPayment = toExternalDTO(a, payload)
	}
	if n := d.LastNotice(); n != nil {
		out.LastNotice = &dto.NoticeResponse{Kind: n.Kind, Message: n.Message, At: n.At}
	}
	return out
}

func toExternalDTO(a *domainbilling.AwaitingPayment, payload *payments.PaymentPayload) *dto.ExternalPaymentResponse {
	out := &dto.ExternalPaymentResponse{
		PaymentID: a.PaymentID,
		Method:    string(a.Method),
		Amount:    a.Amount,
		ExpiresAt: a.ExpiresAt,
	}
	if payload != nil {
		out.QRData = payload.QRData
		out.QRImageURL = payload.QRImageURL
		out.Instructions = payload.Instructions
	}
	return out
}

func toSaleDTO(s *entity.Sale) *dto.SaleResponse {
	items := make([]dto.SaleItemResponse, 0, len(s.Items))
	for _, it := range s.Items {
		items = append(items, dto.SaleItemResponse{
			ProductID:       it.ProductID,
			Description:     it.Description,
			Quantity:        it.Quantity,
			UnitPrice:       it.UnitPrice,
			DiscountPercent: it.DiscountPercent,
			VATRate:         it.VATRate,
			Net:             it.NetAmount,
			VAT:             it.VATAmount,
			Total:           it.Total,
		})
	}
	tenders := make([]dto.TenderResponse, 0, len(s.Tenders))
	for _, t := range s.Tenders {
		tenders = append(tenders, dto.TenderResponse{
			Method:            string(t.Method),
			Amount:            t.Amount,
			ExternalReference: t.ExternalReference,
		})
	}
	return &dto.SaleResponse{
		ID:           s.ID,
		BranchID:     s.BranchID,
		PointOfSale:  s.PointOfSale,
		InvoiceType:  string(s.InvoiceType),
		Number:       s.Number,
		FormattedNum: s.FormattedNumber(),
		Client: dto.ClientResponse{
			ID:           s.ClientID,
			Name:         s.ClientName,
			TaxID:        s.ClientTaxID,
			TaxCondition: string(s.TaxCondition),
		},
		NetTotal:       s.NetTotal,
		TaxTotal:       s.TaxTotal,
		GrandTotal:     s.GrandTotal,
		TenderedTotal:  s.TenderedTotal,
		Change:         s.Change,
		Currency:       s.Currency,
		FiscalStatus:   s.FiscalStatus,
		AuthCode:       s.AuthCode,
		AuthCodeExpiry: s.AuthCodeExpiry,
		Items:          items,
		Tenders:        tenders,
		CreatedAt:      s.CreatedAt,
	}
}

func toLineItem(in dto.AddItemRequest) domainbilling.LineItem {
	return domainbilling.LineItem{
		ProductID:       in.ProductID,
		Description:     in.Description,
		Quantity:        in.Quantity,
		UnitPrice:       in.UnitPrice,
		DiscountPercent: in.DiscountPercent,
		VATRate:         in.VATRate,
	}
}
