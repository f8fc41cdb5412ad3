// Package afip autorización de comprobantes electrónicos en AFIP (WSFEv1) y
// datos del código QR impreso en el comprobante.
package afip

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/beevik/etree"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/factusystem/factu-api/internal/application/billing"
	"github.com/factusystem/factu-api/internal/domain/entity"
)

var _ billing.FiscalAuthorizer = (*WSFEClient)(nil)

const (
	wsfeURLHomo = "https://wswhomo.afip.gov.ar/wsfev1/service.asmx"
	wsfeURLProd = "https://servicios1.afip.gov.ar/wsfev1/service.asmx"

	nsSoap = "http://schemas.xmlsoap.org/soap/envelope/"
	nsFEV1 = "http://ar.gov.afip.dif.FEV1/"

	dateLayout = "20060102"
)

// Credentials ticket de acceso del WSAA (token y sign vigentes) y CUIT emisor.
type Credentials struct {
	Token string
	Sign  string
	CUIT  string
}

// WSFEClient solicita CAE con FECAESolicitar.
type WSFEClient struct {
	url        string
	creds      Credentials
	httpClient *http.Client
	log        zerolog.Logger
	loc        *time.Location
}

// NewWSFEClient construye el cliente para "homo" o "prod". url vacía = la oficial del entorno.
func NewWSFEClient(env, url string, creds Credentials, log zerolog.Logger) (*WSFEClient, error) {
	if url == "" {
		switch env {
		case billing.FiscalEnvHomo:
			url = wsfeURLHomo
		case billing.FiscalEnvProd:
			url = wsfeURLProd
		default:
			return nil, fmt.Errorf("afip: entorno desconocido %q (usar homo o prod)", env)
		}
	}
	loc, err := time.LoadLocation("America/Argentina/Buenos_Aires")
	if err != nil {
		loc = time.FixedZone("ART", -3*60*60)
	}
	return &WSFEClient{
		url:        url,
		creds:      creds,
		httpClient: &http.Client{Timeout: 25 * time.Second},
		log:        log.With().Str("component", "afip_wsfe").Logger(),
		loc:        loc,
	}, nil
}

// Authorize envía el comprobante y devuelve CAE o los motivos de rechazo.
// Un error solo indica falla técnica (red, SOAP Fault, respuesta ilegible).
func (c *WSFEClient) Authorize(ctx context.Context, sale *entity.Sale) (*billing.FiscalResult, error) {
	payload, err := c.buildRequest(sale)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("afip: crear request: %w", err)
	}
	req.Header.Set("Content-Type", "text/xml; charset=utf-8")
	req.Header.Set("SOAPAction", nsFEV1+"FECAESolicitar")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("afip: timeout o cancelación: %w", ctx.Err())
		}
		return nil, fmt.Errorf("afip: llamada HTTP fallida: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("afip: leer respuesta: %w", err)
	}
	c.log.Debug().Str("sale_id", sale.ID).Int("status", resp.StatusCode).Msg("respuesta WSFE")
	return parseResponse(raw)
}

// Códigos de tipo de comprobante (tabla FEParamGetTiposCbte).
var cbteTipo = map[entity.InvoiceType]int{
	entity.InvoiceTypeA: 1,
	entity.InvoiceTypeB: 6,
	entity.InvoiceTypeC: 11,
}

// Alícuotas de IVA (tabla FEParamGetTiposIva).
var alicIvaID = map[string]int{
	"0":    3,
	"10.5": 4,
	"21":   5,
	"27":   6,
	"5":    8,
	"2.5":  9,
}

// condicionIVAReceptor tabla FEParamGetCondicionIvaReceptor.
func condicionIVAReceptor(c entity.TaxCondition) int {
	switch c {
	case entity.TaxConditionRegistered:
		return 1
	case entity.TaxConditionExempt:
		return 4
	case entity.TaxConditionMonotributo:
		return 6
	default:
		return 5
	}
}

// docReceptor tipo y número de documento: CUIT (80), DNI (96) o sin identificar (99).
func docReceptor(sale *entity.Sale) (int, string) {
	id := strings.ReplaceAll(strings.TrimSpace(sale.ClientTaxID), "-", "")
	switch {
	case len(id) == 11:
		return 80, id
	case len(id) >= 7 && len(id) <= 8:
		return 96, id
	default:
		return 99, "0"
	}
}

type ivaGroup struct {
	id   int
	base decimal.Decimal
	vat  decimal.Decimal
}

// ivaGroups agrupa las líneas por alícuota.
func ivaGroups(items []entity.SaleItem) ([]ivaGroup, error) {
	byID := map[int]*ivaGroup{}
	for _, it := range items {
		id, ok := alicIvaID[it.VATRate.String()]
		if !ok {
			return nil, fmt.Errorf("afip: alícuota de IVA no soportada: %s%%", it.VATRate)
		}
		g, ok := byID[id]
		if !ok {
			g = &ivaGroup{id: id, base: decimal.Zero, vat: decimal.Zero}
			byID[id] = g
		}
		g.base = g.base.Add(it.NetAmount)
		g.vat = g.vat.Add(it.VATAmount)
	}
	out := make([]ivaGroup, 0, len(byID))
	for _, g := range byID {
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out, nil
}

func (c *WSFEClient) buildRequest(sale *entity.Sale) ([]byte, error) {
	tipo, ok := cbteTipo[sale.InvoiceType]
	if !ok {
		return nil, fmt.Errorf("afip: el comprobante %s no es fiscal", sale.InvoiceType)
	}

	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	env := doc.CreateElement("soapenv:Envelope")
	env.CreateAttr("xmlns:soapenv", nsSoap)
	env.CreateAttr("xmlns:ar", nsFEV1)
	env.CreateElement("soapenv:Header")
	op := env.CreateElement("soapenv:Body").CreateElement("ar:FECAESolicitar")

	auth := op.CreateElement("ar:Auth")
	auth.CreateElement("ar:Token").SetText(c.creds.Token)
	auth.CreateElement("ar:Sign").SetText(c.creds.Sign)
	auth.CreateElement("ar:Cuit").SetText(c.creds.CUIT)

	feReq := op.CreateElement("ar:FeCAEReq")
	cab := feReq.CreateElement("ar:FeCabReq")
	cab.CreateElement("ar:CantReg").SetText("1")
	cab.CreateElement("ar:PtoVta").SetText(fmt.Sprint(sale.PointOfSale))
	cab.CreateElement("ar:CbteTipo").SetText(fmt.Sprint(tipo))

	det := feReq.CreateElement("ar:FeDetReq").CreateElement("ar:FECAEDetRequest")
	docTipo, docNro := docReceptor(sale)
	number := fmt.Sprint(sale.Number)
	det.CreateElement("ar:Concepto").SetText("1") // productos
	det.CreateElement("ar:DocTipo").SetText(fmt.Sprint(docTipo))
	det.CreateElement("ar:DocNro").SetText(docNro)
	det.CreateElement("ar:CbteDesde").SetText(number)
	det.CreateElement("ar:CbteHasta").SetText(number)
	det.CreateElement("ar:CbteFch").SetText(sale.CreatedAt.In(c.loc).Format(dateLayout))
	det.CreateElement("ar:ImpTotal").SetText(sale.GrandTotal.StringFixed(2))
	det.CreateElement("ar:ImpTotConc").SetText("0.00")

	// C: el emisor es monotributista y no discrimina IVA.
	if sale.InvoiceType == entity.InvoiceTypeC {
		det.CreateElement("ar:ImpNeto").SetText(sale.GrandTotal.StringFixed(2))
		det.CreateElement("ar:ImpOpEx").SetText("0.00")
		det.CreateElement("ar:ImpTrib").SetText("0.00")
		det.CreateElement("ar:ImpIVA").SetText("0.00")
	} else {
		det.CreateElement("ar:ImpNeto").SetText(sale.NetTotal.StringFixed(2))
		det.CreateElement("ar:ImpOpEx").SetText("0.00")
		det.CreateElement("ar:ImpTrib").SetText("0.00")
		det.CreateElement("ar:ImpIVA").SetText(sale.TaxTotal.StringFixed(2))
	}
	det.CreateElement("ar:MonId").SetText("PES")
	det.CreateElement("ar:MonCotiz").SetText("1")
	det.CreateElement("ar:CondicionIVAReceptorId").SetText(fmt.Sprint(condicionIVAReceptor(sale.TaxCondition)))

	if sale.InvoiceType != entity.InvoiceTypeC {
		groups, err := ivaGroups(sale.Items)
		if err != nil {
			return nil, err
		}
		iva := det.CreateElement("ar:Iva")
		for _, g := range groups {
			a := iva.CreateElement("ar:AlicIva")
			a.CreateElement("ar:Id").SetText(fmt.Sprint(g.id))
			a.CreateElement("ar:BaseImp").SetText(g.base.StringFixed(2))
			a.CreateElement("ar:Importe").SetText(g.vat.StringFixed(2))
		}
	}

	doc.Indent(2)
	return doc.WriteToBytes()
}

// parseResponse interpreta FECAESolicitarResult. Se busca por nombre local para
// no depender de los prefijos que elija el servidor.
func parseResponse(raw []byte) (*billing.FiscalResult, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(raw); err != nil {
		return nil, fmt.Errorf("afip: respuesta ilegible: %w", err)
	}
	if fault := doc.FindElement("//Fault"); fault != nil {
		return nil, fmt.Errorf("afip: SOAP Fault [%s]: %s", childText(fault, "faultcode"), childText(fault, "faultstring"))
	}
	result := doc.FindElement("//FECAESolicitarResult")
	if result == nil {
		return nil, fmt.Errorf("afip: respuesta sin FECAESolicitarResult")
	}

	var msgs []string
	for _, e := range result.FindElements("./Errors/Err") {
		msgs = append(msgs, childText(e, "Code")+": "+childText(e, "Msg"))
	}
	det := result.FindElement("./FeDetResp/FECAEDetResponse")
	if det != nil {
		for _, o := range det.FindElements("./Observaciones/Obs") {
			msgs = append(msgs, childText(o, "Code")+": "+childText(o, "Msg"))
		}
	}

	out := &billing.FiscalResult{Errors: strings.Join(msgs, "; ")}
	if det == nil || childText(det, "Resultado") != "A" {
		return out, nil
	}
	cae := childText(det, "CAE")
	expiry, err := time.Parse(dateLayout, childText(det, "CAEFchVto"))
	if cae == "" || err != nil {
		return nil, fmt.Errorf("afip: aprobado sin CAE válido")
	}
	out.Approved = true
	out.CAE = cae
	out.CAEExpiry = expiry
	return out, nil
}

func childText(e *etree.Element, tag string) string {
	if c := e.SelectElement(tag); c != nil {
		return strings.TrimSpace(c.Text())
	}
	return ""
}
