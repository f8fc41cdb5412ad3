// Package mercadopago cliente HTTP de la API de Mercado Pago: detalle de pagos
// para el webhook y órdenes QR / preferencias para los cobros en caja.
package mercadopago

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"github.com/factusystem/factu-api/internal/application/payments"
	"github.com/factusystem/factu-api/internal/domain/entity"
)

var (
	_ payments.ProviderClient   = (*Client)(nil)
	_ payments.PaymentRequester = (*Client)(nil)
)

// Config credenciales y destino.
type Config struct {
	AccessToken     string
	BaseURL         string
	CollectorID     string  // user_id de la cuenta vendedora (órdenes QR)
	ExternalPOSID   string  // caja registrada en Mercado Pago
	NotificationURL string  // webhook público; vacío = el configurado en la cuenta
	RatePerSecond   float64 // límite de llamadas salientes
}

// Client habla con api.mercadopago.com. Todas las llamadas pasan por el limitador.
type Client struct {
	cfg     Config
	http    *http.Client
	limiter *rate.Limiter
	log     zerolog.Logger
}

// NewClient construye el cliente. httpClient nil = cliente con timeout de 10 s.
func NewClient(cfg Config, httpClient *http.Client, log zerolog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.mercadopago.com"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	limit := rate.Inf
	burst := 1
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
		burst = int(cfg.RatePerSecond) + 1
	}
	return &Client{
		cfg:     cfg,
		http:    httpClient,
		limiter: rate.NewLimiter(limit, burst),
		log:     log.With().Str("component", "mercadopago").Logger(),
	}
}

// APIError respuesta no 2xx de Mercado Pago.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("mercadopago: HTTP %d: %s", e.StatusCode, e.Message)
}

type paymentResponse struct {
	ID                json.Number     `json:"id"`
	Status            string          `json:"status"`
	StatusDetail      string          `json:"status_detail"`
	ExternalReference string          `json:"external_reference"`
	TransactionAmount decimal.Decimal `json:"transaction_amount"`
	CurrencyID        string          `json:"currency_id"`
	PaymentMethodID   string          `json:"payment_method_id"`
	PaymentTypeID     string          `json:"payment_type_id"`
	AuthorizationCode string          `json:"authorization_code"`
	Order             struct {
		ID json.Number `json:"id"`
	} `json:"order"`
	Payer struct {
		Email     string `json:"email"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
	} `json:"payer"`
}

// GetPayment detalle autoritativo de un pago (GET /v1/payments/{id}).
func (c *Client) GetPayment(ctx context.Context, id string) (*payments.ProviderPayment, error) {
	raw, err := c.do(ctx, http.MethodGet, "/v1/payments/"+id, nil)
	if err != nil {
		return nil, err
	}
	var p paymentResponse
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("mercadopago: decodificar pago: %w", err)
	}
	return &payments.ProviderPayment{
		ID:                p.ID.String(),
		OrderID:           p.Order.ID.String(),
		Status:            p.Status,
		StatusDetail:      p.StatusDetail,
		ExternalReference: p.ExternalReference,
		Amount:            p.TransactionAmount,
		Currency:          p.CurrencyID,
		PaymentMethodID:   p.PaymentMethodID,
		PaymentTypeID:     p.PaymentTypeID,
		AuthorizationCode: p.AuthorizationCode,
		PayerEmail:        p.Payer.Email,
		PayerName:         strings.TrimSpace(p.Payer.FirstName + " " + p.Payer.LastName),
		Raw:               raw,
	}, nil
}

type orderItem struct {
	Title       string      `json:"title"`
	UnitPrice   json.Number `json:"unit_price"`
	Quantity    int         `json:"quantity"`
	UnitMeasure string      `json:"unit_measure,omitempty"`
	TotalAmount json.Number `json:"total_amount,omitempty"`
}

type qrOrderRequest struct {
	ExternalReference string      `json:"external_reference"`
	Title             string      `json:"title"`
	Description       string      `json:"description"`
	TotalAmount       json.Number `json:"total_amount"`
	ExpirationDate    string      `json:"expiration_date"`
	NotificationURL   string      `json:"notification_url,omitempty"`
	Items             []orderItem `json:"items"`
}

type qrOrderResponse struct {
	InStoreOrderID string `json:"in_store_order_id"`
	QRData         string `json:"qr_data"`
}

type preferenceRequest struct {
	ExternalReference string      `json:"external_reference"`
	Items             []orderItem `json:"items"`
	Expires           bool        `json:"expires"`
	ExpirationDateTo  string      `json:"expiration_date_to"`
	NotificationURL   string      `json:"notification_url,omitempty"`
}

type preferenceResponse struct {
	ID        string `json:"id"`
	InitPoint string `json:"init_point"`
}

// RequestPayment QR: orden dinámica en la caja. Billetera: preferencia con link de pago.
// En ambos casos external_reference = payment_id local.
func (c *Client) RequestPayment(ctx context.Context, req payments.PaymentRequest) (*payments.PaymentPayload, error) {
	amount := json.Number(req.Amount.StringFixed(2))
	expires := req.ExpiresAt.Format("2006-01-02T15:04:05.000-07:00")
	items := []orderItem{{Title: req.Description, UnitPrice: amount, Quantity: 1, UnitMeasure: "unit", TotalAmount: amount}}

	switch req.Method {
	case entity.TenderQR:
		if c.cfg.CollectorID == "" || c.cfg.ExternalPOSID == "" {
			return nil, fmt.Errorf("mercadopago: falta MP_COLLECTOR_ID o MP_EXTERNAL_POS_ID")
		}
		body := qrOrderRequest{
			ExternalReference: req.PaymentID,
			Title:             req.Description,
			Description:       req.Description,
			TotalAmount:       amount,
			ExpirationDate:    expires,
			NotificationURL:   c.cfg.NotificationURL,
			Items:             items,
		}
		path := fmt.Sprintf("/instore/orders/qr/seller/collectors/%s/pos/%s/qrs", c.cfg.CollectorID, c.cfg.ExternalPOSID)
		raw, err := c.do(ctx, http.MethodPost, path, body)
		if err != nil {
			return nil, err
		}
		var out qrOrderResponse
		if err := json.Unmarshal(raw, &out); err != nil {
			return nil, fmt.Errorf("mercadopago: decodificar orden QR: %w", err)
		}
		return &payments.PaymentPayload{ExternalID: out.InStoreOrderID, QRData: out.QRData}, nil

	case entity.TenderWallet:
		body := preferenceRequest{
			ExternalReference: req.PaymentID,
			Items:             []orderItem{{Title: req.Description, UnitPrice: amount, Quantity: 1}},
			Expires:           true,
			ExpirationDateTo:  expires,
			NotificationURL:   c.cfg.NotificationURL,
		}
		raw, err := c.do(ctx, http.MethodPost, "/checkout/preferences", body)
		if err != nil {
			return nil, err
		}
		var out preferenceResponse
		if err := json.Unmarshal(raw, &out); err != nil {
			return nil, fmt.Errorf("mercadopago: decodificar preferencia: %w", err)
		}
		return &payments.PaymentPayload{ExternalID: out.ID, QRData: out.InitPoint, QRImageURL: out.InitPoint}, nil
	}
	return nil, fmt.Errorf("mercadopago: medio %q no soportado", req.Method)
}

func (c *Client) do(ctx context.Context, method, path string, body any) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("mercadopago: limitador: %w", err)
	}
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(b)
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, reader)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.cfg.AccessToken)
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("mercadopago: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("mercadopago: leer respuesta: %w", err)
	}
	c.log.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("llamada a Mercado Pago")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr struct {
			Message string `json:"message"`
		}
		_ = json.Unmarshal(raw, &apiErr)
		if apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		return nil, &APIError{StatusCode: resp.StatusCode, Message: apiErr.Message}
	}
	return raw, nil
}
