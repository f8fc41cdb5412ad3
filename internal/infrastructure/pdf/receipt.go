// Package pdf genera el comprobante impreso de una venta con Maroto v2.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  Emisor (razón social, CUIT)  │ [letra] │  N° + fecha        │
//	│  RECEPTOR: nombre, CUIT/DNI, condición frente al IVA         │
//	│  TABLA: Cant | Descripción | P.Unit | IVA% | Importe         │
//	│  TOTALES (A discrimina IVA)  +  medios de pago y vuelto      │
//	│  PIE: CAE + vencimiento + QR, o leyenda de no fiscal         │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/factusystem/factu-api/internal/application/billing"
	"github.com/factusystem/factu-api/internal/domain/entity"
	"github.com/factusystem/factu-api/internal/infrastructure/afip"
)

var _ billing.ReceiptRenderer = (*ReceiptRenderer)(nil)

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
)

var tenderLabels = map[entity.TenderMethod]string{
	entity.TenderCash:         "Efectivo",
	entity.TenderVoucher:      "Vale / nota de crédito",
	entity.TenderCurrentAcct:  "Cuenta corriente",
	entity.TenderDebitCard:    "Tarjeta de débito",
	entity.TenderCreditCard:   "Tarjeta de crédito",
	entity.TenderQR:           "QR Mercado Pago",
	entity.TenderWallet:       "Billetera virtual",
	entity.TenderBankTransfer: "Transferencia",
}

// ReceiptRenderer implementa billing.ReceiptRenderer.
type ReceiptRenderer struct {
	printer *message.Printer
}

// NewReceiptRenderer construye el renderer con formato de montos es-AR.
func NewReceiptRenderer() *ReceiptRenderer {
	return &ReceiptRenderer{printer: message.NewPrinter(language.MustParse("es-AR"))}
}

// RenderReceipt genera el PDF y devuelve sus bytes.
func (r *ReceiptRenderer) RenderReceipt(_ context.Context, sale *entity.Sale, issuer billing.IssuerInfo) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle(fmt.Sprintf("%s %s", invoiceLabel(sale.InvoiceType), sale.FormattedNumber()), true).
		WithAuthor(issuer.Name, true).
		Build()

	m := maroto.New(cfg)
	m.AddRows(r.headerRow(sale, issuer))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(receiverRow(sale))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	discriminate := sale.InvoiceType == entity.InvoiceTypeA
	m.AddRows(tableHeaderRow(discriminate))
	m.AddRows(r.itemRows(sale.Items, discriminate)...)

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(r.totalsRow(sale, discriminate))
	m.AddRows(r.tenderRows(sale)...)

	m.AddRows(line.NewRow(3))
	m.AddRows(line.NewRow(1, props.Line{Color: colorGray, Thickness: 0.3}))
	m.AddRows(r.footerRows(sale, issuer)...)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

func (r *ReceiptRenderer) headerRow(sale *entity.Sale, issuer billing.IssuerInfo) core.Row {
	return row.New(22).Add(
		col.New(5).Add(
			text.New(issuer.Name, props.Text{Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1}),
			text.New("CUIT: "+nonEmpty(issuer.CUIT, "-"), props.Text{Size: 8, Top: 9, Color: colorGray}),
			text.New(nonEmpty(issuer.Address, ""), props.Text{Size: 8, Top: 13, Color: colorGray}),
			text.New(nonEmpty(issuer.TaxCondition, ""), props.Text{Size: 8, Top: 17, Color: colorGray}),
		),
		col.New(2).Add(
			text.New(string(sale.InvoiceType), props.Text{Style: fontstyle.Bold, Size: 24, Align: align.Center, Top: 2}),
			text.New(codeLabel(sale.InvoiceType), props.Text{Size: 6, Align: align.Center, Top: 15, Color: colorGray}),
		),
		col.New(5).Add(
			text.New(invoiceLabel(sale.InvoiceType), props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right, Color: colorPrimary, Top: 1}),
			text.New("N° "+sale.FormattedNumber(), props.Text{Style: fontstyle.Bold, Size: 12, Align: align.Right, Top: 7}),
			text.New("Fecha: "+sale.CreatedAt.Format("02/01/2006 15:04"), props.Text{Size: 8, Align: align.Right, Top: 14, Color: colorGray}),
		),
	)
}

func receiverRow(sale *entity.Sale) core.Row {
	name := nonEmpty(sale.ClientName, "Consumidor final")
	return row.New(14).Add(
		col.New(12).Add(
			text.New("RECEPTOR", props.Text{Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1}),
			text.New(name, props.Text{Style: fontstyle.Bold, Size: 10, Top: 6}),
			text.New(fmt.Sprintf("CUIT/DNI: %s   |   Condición IVA: %s",
				nonEmpty(sale.ClientTaxID, "-"),
				nonEmpty(string(sale.TaxCondition), string(entity.TaxConditionFinal)),
			), props.Text{Size: 8, Top: 12, Color: colorGray}),
		),
	)
}

func tableHeaderRow(discriminate bool) core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{Style: fontstyle.Bold, Size: 8, Align: a, Top: 2, Left: 1, Right: 1}))
	}
	price := "Precio Unit."
	if discriminate {
		price = "Precio Unit. s/IVA"
	}
	return row.New(8).Add(
		h("Cant.", 1, align.Center),
		h("Descripción", 5, align.Left),
		h(price, 2, align.Right),
		h("IVA%", 1, align.Center),
		h("Importe", 3, align.Right),
	)
}

func (r *ReceiptRenderer) itemRows(items []entity.SaleItem, discriminate bool) []core.Row {
	out := make([]core.Row, 0, len(items))
	for _, it := range items {
		unit, amount := it.UnitPrice, it.Total
		if discriminate {
			amount = it.NetAmount
			if !it.Quantity.IsZero() {
				unit = it.NetAmount.Div(it.Quantity)
			}
		}
		desc := it.Description
		if it.DiscountPercent.IsPositive() {
			desc = fmt.Sprintf("%s (-%s%%)", desc, it.DiscountPercent.String())
		}
		out = append(out, row.New(7).Add(
			col.New(1).Add(text.New(it.Quantity.String(), props.Text{Size: 8, Align: align.Center, Top: 1})),
			col.New(5).Add(text.New(desc, props.Text{Size: 8, Top: 1, Left: 1})),
			col.New(2).Add(text.New(r.money(unit), props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
			col.New(1).Add(text.New(it.VATRate.String()+"%", props.Text{Size: 8, Align: align.Center, Top: 1})),
			col.New(3).Add(text.New(r.money(amount), props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
		))
	}
	return out
}

func (r *ReceiptRenderer) totalsRow(sale *entity.Sale, discriminate bool) core.Row {
	label := func(s string, top float64) core.Component {
		return text.New(s, props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 2, Top: top})
	}
	value := func(s string, top float64) core.Component {
		return text.New(s, props.Text{Size: 9, Align: align.Right, Right: 1, Top: top})
	}
	labels := col.New(3)
	values := col.New(3)
	top := 1.0
	if discriminate {
		labels.Add(label("Neto gravado:", top), label("IVA:", top+5))
		values.Add(value(r.money(sale.NetTotal), top), value(r.money(sale.TaxTotal), top+5))
		top += 10
	}
	labels.Add(text.New("TOTAL:", props.Text{Style: fontstyle.Bold, Size: 11, Align: align.Right, Color: colorPrimary, Right: 2, Top: top}))
	values.Add(text.New(r.money(sale.GrandTotal), props.Text{Style: fontstyle.Bold, Size: 11, Align: align.Right, Color: colorPrimary, Right: 1, Top: top}))

	return row.New(top+8).Add(col.New(6), labels, values)
}

func (r *ReceiptRenderer) tenderRows(sale *entity.Sale) []core.Row {
	if len(sale.Tenders) == 0 {
		return nil
	}
	rows := []core.Row{row.New(6).Add(col.New(12).Add(
		text.New("MEDIOS DE PAGO", props.Text{Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1}),
	))}
	for _, t := range sale.Tenders {
		rows = append(rows, row.New(5).Add(
			col.New(6).Add(text.New(nonEmpty(tenderLabels[t.Method], string(t.Method)), props.Text{Size: 8, Left: 2})),
			col.New(3).Add(text.New(r.money(t.Amount), props.Text{Size: 8, Align: align.Right, Right: 1})),
		))
	}
	if sale.Change.IsPositive() {
		rows = append(rows, row.New(5).Add(
			col.New(6).Add(text.New("Vuelto", props.Text{Style: fontstyle.Bold, Size: 8, Left: 2})),
			col.New(3).Add(text.New(r.money(sale.Change), props.Text{Style: fontstyle.Bold, Size: 8, Align: align.Right, Right: 1})),
		))
	}
	return rows
}

func (r *ReceiptRenderer) footerRows(sale *entity.Sale, issuer billing.IssuerInfo) []core.Row {
	if !sale.InvoiceType.IsFiscal() {
		return []core.Row{row.New(10).Add(col.New(12).Add(
			text.New("DOCUMENTO NO VÁLIDO COMO FACTURA", props.Text{
				Style: fontstyle.Bold, Size: 10, Align: align.Center, Color: colorPrimary, Top: 2,
			}),
		))}
	}

	expiry := "-"
	if sale.AuthCodeExpiry != nil {
		expiry = sale.AuthCodeExpiry.Format("02/01/2006")
	}
	info := col.New(8).Add(
		text.New("Comprobante autorizado", props.Text{Style: fontstyle.Bold, Size: 10, Top: 4, Left: 3, Color: colorPrimary}),
		text.New("CAE N°: "+sale.AuthCode, props.Text{Size: 9, Top: 12, Left: 3}),
		text.New("Vencimiento CAE: "+expiry, props.Text{Size: 9, Top: 18, Left: 3}),
	)
	qr := afip.ReceiptQRURL(sale, issuer.CUIT)
	if qr == "" {
		return []core.Row{row.New(26).Add(info)}
	}
	return []core.Row{row.New(40).Add(
		col.New(4).Add(code.NewQr(qr, props.Rect{Percent: 95, Center: true})),
		info,
	)}
}

// money formatea con separadores es-AR: $ 1.234,50.
func (r *ReceiptRenderer) money(d decimal.Decimal) string {
	f, _ := d.Round(2).Float64()
	return r.printer.Sprintf("$ %v", number.Decimal(f, number.MinFractionDigits(2), number.MaxFractionDigits(2)))
}

func invoiceLabel(t entity.InvoiceType) string {
	switch t {
	case entity.InvoiceTypeX:
		return "COMPROBANTE NO FISCAL"
	case entity.InvoiceTypeP:
		return "PRESUPUESTO"
	}
	return "FACTURA"
}

// codeLabel código AFIP del tipo de comprobante impreso bajo la letra.
func codeLabel(t entity.InvoiceType) string {
	switch t {
	case entity.InvoiceTypeA:
		return "COD. 01"
	case entity.InvoiceTypeB:
		return "COD. 06"
	case entity.InvoiceTypeC:
		return "COD. 11"
	}
	return ""
}

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}
