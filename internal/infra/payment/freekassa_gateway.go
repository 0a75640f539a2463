// Package payment implements the outbound Freekassa invoice gateway.
package payment

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"vpn-subscription-backend/internal/config"
	"vpn-subscription-backend/internal/domain"
	"vpn-subscription-backend/internal/domain/ports/adapter"
)

const invoiceCurrency = "USD"

var _ adapter.InvoiceGateway = (*FreekassaGateway)(nil)

// FreekassaGateway creates invoices against the Freekassa merchant API.
type FreekassaGateway struct {
	shopID          string
	apiKey          string
	paymentSystemID int
	endpoint        string
	client          *http.Client
}

func NewFreekassaGateway(cfg config.FreekassaConfig) *FreekassaGateway {
	return &FreekassaGateway{
		shopID:          cfg.ShopID,
		apiKey:          cfg.APIKey,
		paymentSystemID: cfg.PaymentSystemID,
		endpoint:        cfg.InvoiceAPIURI,
		client:          &http.Client{Timeout: cfg.RequestTimeout},
	}
}

func (g *FreekassaGateway) Name() string { return "freekassa" }

type invoiceResponse struct {
	Location  string `json:"location"`
	OrderID   string `json:"orderId"`
	OrderHash string `json:"orderHash"`
	Type      string `json:"type"`
	Message   string `json:"message"`
}

// CreateInvoice signs the canonical field list and posts it as JSON.
// The nonce is the current unix time; the signature is HMAC-SHA256 over the
// fields joined with "|" in the gateway's documented order.
func (g *FreekassaGateway) CreateInvoice(ctx context.Context, req adapter.InvoiceRequest) (*adapter.InvoiceResult, error) {
	nonce := strconv.FormatInt(time.Now().Unix(), 10)
	amount := req.Amount.StringFixed(2)

	subject := strings.Join([]string{
		amount,
		invoiceCurrency,
		req.Email,
		strconv.Itoa(g.paymentSystemID),
		req.IP,
		nonce,
		req.PaymentID,
		g.shopID,
	}, "|")
	signature := g.sign(subject)

	payload := map[string]interface{}{
		"amount":    amount,
		"currency":  invoiceCurrency,
		"email":     req.Email,
		"i":         g.paymentSystemID,
		"ip":        req.IP,
		"nonce":     nonce,
		"paymentId": req.PaymentID,
		"shopId":    g.shopID,
		"signature": signature,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal invoice: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build invoice request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Signature", signature)

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: can't request invoice by %s ex=%v", domain.ErrInvoiceFailed, g.endpoint, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response from %s ex=%v", domain.ErrInvoiceFailed, g.endpoint, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s returned status %d body=%s", domain.ErrInvoiceFailed, g.endpoint, resp.StatusCode, raw)
	}

	var parsed invoiceResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("%w: unmarshal response from %s ex=%v body=%s", domain.ErrInvoiceFailed, g.endpoint, err, raw)
	}
	// A 2xx response without a redirect location is still a failure.
	if parsed.Location == "" {
		return nil, fmt.Errorf("%w: no location in response from %s body=%s", domain.ErrInvoiceFailed, g.endpoint, raw)
	}

	return &adapter.InvoiceResult{Location: parsed.Location, InvoiceID: parsed.OrderID}, nil
}

func (g *FreekassaGateway) sign(subject string) string {
	mac := hmac.New(sha256.New, []byte(g.apiKey))
	mac.Write([]byte(subject))
	return hex.EncodeToString(mac.Sum(nil))
}
