// Package gateway talks to the Midtrans payment gateway: Snap transaction creation,
// transaction status queries and notification signatures.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/DanielPopoola/storefront/internal/application"
	"github.com/DanielPopoola/storefront/internal/config"
	"github.com/DanielPopoola/storefront/internal/domain"
)

type HTTPGatewayClient struct {
	snapBaseURL string
	apiBaseURL  string
	serverKey   string
	httpClient  *http.Client
}

func NewGatewayClient(cfg config.GatewayConfig) *HTTPGatewayClient {
	return &HTTPGatewayClient{
		snapBaseURL: strings.TrimRight(cfg.SnapBaseURL, "/"),
		apiBaseURL:  strings.TrimRight(cfg.APIBaseURL, "/"),
		serverKey:   cfg.ServerKey,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

var _ application.GatewayClient = (*HTTPGatewayClient)(nil)

// CreateTransaction opens a Snap payment page for the order. Shipping is sent as its
// own item so the item prices add up to the gross amount.
func (c *HTTPGatewayClient) CreateTransaction(ctx context.Context, req application.CreateTransactionRequest) (*application.CreateTransactionResponse, error) {
	items := make([]ItemDetail, 0, len(req.Items)+1)
	for _, item := range req.Items {
		items = append(items, ItemDetail{
			ID:       item.ProductID,
			Price:    item.UnitPrice,
			Quantity: item.Quantity,
			Name:     truncate(item.ProductTitle, 50),
		})
	}
	if req.ShippingCost > 0 {
		items = append(items, ItemDetail{
			ID:       "shipping",
			Price:    req.ShippingCost,
			Quantity: 1,
			Name:     "Shipping",
		})
	}

	body := SnapRequest{
		TransactionDetails: TransactionDetails{
			OrderID:     req.GatewayOrderID,
			GrossAmount: req.Amount,
		},
		CustomerDetails: CustomerDetails{
			FirstName: req.Customer.Name,
			Email:     req.Customer.Email,
			Phone:     req.Customer.Phone,
		},
		ItemDetails: items,
	}

	endpoint := fmt.Sprintf("%s/snap/v1/transactions", c.snapBaseURL)
	resp, err := sendRequest[SnapRequest, SnapResponse](c, ctx, http.MethodPost, endpoint, &body)
	if err != nil {
		return nil, err
	}
	if resp.Token == "" {
		return nil, &GatewayError{Code: "empty_token", Message: "gateway returned no payment token", StatusCode: http.StatusBadGateway}
	}

	return &application.CreateTransactionResponse{
		Token:       resp.Token,
		RedirectURL: resp.RedirectURL,
	}, nil
}

// GetTransactionStatus asks the gateway where a transaction stands. The answer is
// shaped like a notification so callers can run it through the same path.
func (c *HTTPGatewayClient) GetTransactionStatus(ctx context.Context, gatewayOrderID string) (*domain.Notification, error) {
	endpoint := fmt.Sprintf("%s/v2/%s/status", c.apiBaseURL, url.PathEscape(gatewayOrderID))
	resp, err := sendRequest[any, StatusResponse](c, ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	// The status endpoint answers 200 with the real outcome in the body.
	if code := resp.StatusCode; code != "" && !strings.HasPrefix(code, "2") {
		return nil, &GatewayError{
			Code:       "status_" + code,
			Message:    resp.StatusMessage,
			StatusCode: parseStatusCode(code),
		}
	}

	return &domain.Notification{
		OrderID:           resp.OrderID,
		StatusCode:        resp.StatusCode,
		GrossAmount:       resp.GrossAmount,
		TransactionStatus: resp.TransactionStatus,
		TransactionID:     resp.TransactionID,
		SignatureKey:      resp.SignatureKey,
		PaymentType:       resp.PaymentType,
		FraudStatus:       resp.FraudStatus,
	}, nil
}

func sendRequest[Req any, Resp any](c *HTTPGatewayClient, ctx context.Context, method, endpoint string, reqBody *Req) (*Resp, error) {
	var bodyReader io.Reader
	if reqBody != nil {
		jsonData, err := json.Marshal(reqBody)
		if err != nil {
			return nil, fmt.Errorf("error marshalling json: %w", err)
		}
		bodyReader = bytes.NewReader(jsonData)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, endpoint, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}

	httpReq.Header.Set("Accept", "application/json")
	if reqBody != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.SetBasicAuth(c.serverKey, "")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &GatewayError{
			Code:    "transport_error",
			Message: "error making request",
			Err:     err,
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		var errResp ErrorResponse
		if err := json.Unmarshal(body, &errResp); err != nil {
			return nil, &GatewayError{
				Code:       "http_error",
				Message:    http.StatusText(resp.StatusCode),
				StatusCode: resp.StatusCode,
			}
		}
		msg := errResp.StatusMessage
		if len(errResp.ErrorMessages) > 0 {
			msg = strings.Join(errResp.ErrorMessages, "; ")
		}
		return nil, &GatewayError{
			Code:       "http_error",
			Message:    msg,
			StatusCode: resp.StatusCode,
		}
	}

	var gwResp Resp
	if err := json.NewDecoder(resp.Body).Decode(&gwResp); err != nil {
		return nil, fmt.Errorf("error decoding json response: %w", err)
	}

	return &gwResp, nil
}

func parseStatusCode(code string) int {
	n := 0
	for _, ch := range code {
		if ch < '0' || ch > '9' {
			return http.StatusBadGateway
		}
		n = n*10 + int(ch-'0')
	}
	return n
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
