package afip

import (
	"encoding/base64"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/factusystem/factu-api/internal/domain/entity"
)

const qrBaseURL = "https://www.afip.gob.ar/fe/qr/?p="

// qrPayload datos del QR de comprobantes (RG 4892), versión 1.
type qrPayload struct {
	Ver        int     `json:"ver"`
	Fecha      string  `json:"fecha"`
	Cuit       int64   `json:"cuit"`
	PtoVta     int     `json:"ptoVta"`
	TipoCmp    int     `json:"tipoCmp"`
	NroCmp     int64   `json:"nroCmp"`
	Importe    float64 `json:"importe"`
	Moneda     string  `json:"moneda"`
	Ctz        float64 `json:"ctz"`
	TipoDocRec int     `json:"tipoDocRec,omitempty"`
	NroDocRec  int64   `json:"nroDocRec,omitempty"`
	TipoCodAut string  `json:"tipoCodAut"`
	CodAut     int64   `json:"codAut"`
}

// ReceiptQRURL URL que se codifica en el QR del comprobante. Vacía si la venta
// no es fiscal o todavía no tiene CAE.
func ReceiptQRURL(sale *entity.Sale, issuerCUIT string) string {
	tipo, ok := cbteTipo[sale.InvoiceType]
	if !ok || sale.AuthCode == "" {
		return ""
	}
	cuit, err := strconv.ParseInt(strings.ReplaceAll(issuerCUIT, "-", ""), 10, 64)
	if err != nil {
		return ""
	}
	cae, err := strconv.ParseInt(sale.AuthCode, 10, 64)
	if err != nil {
		return ""
	}
	importe, _ := sale.GrandTotal.Round(2).Float64()

	p := qrPayload{
		Ver:        1,
		Fecha:      sale.CreatedAt.Format("2006-01-02"),
		Cuit:       cuit,
		PtoVta:     sale.PointOfSale,
		TipoCmp:    tipo,
		NroCmp:     sale.Number,
		Importe:    importe,
		Moneda:     "PES",
		Ctz:        1,
		TipoCodAut: "E",
		CodAut:     cae,
	}
	if docTipo, docNro := docReceptor(sale); docTipo != 99 {
		p.TipoDocRec = docTipo
		p.NroDocRec, _ = strconv.ParseInt(docNro, 10, 64)
	}
	body, err := json.Marshal(p)
	if err != nil {
		return ""
	}
	return qrBaseURL + base64.StdEncoding.EncodeToString(body)
}
