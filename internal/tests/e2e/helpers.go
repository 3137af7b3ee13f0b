package e2e

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/DanielPopoola/storefront/internal/domain"
	"github.com/DanielPopoola/storefront/internal/infrastructure/gateway"
	"github.com/stretchr/testify/require"
)

// TestClient wraps HTTP calls to the storefront API.
type TestClient struct {
	baseURL    string
	staffToken string
	httpClient *http.Client
}

func NewTestClient(baseURL, staffToken string) *TestClient {
	return &TestClient{
		baseURL:    baseURL,
		staffToken: staffToken,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type apiResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Do sends body as JSON and decodes the envelope. Admin paths carry the staff token.
func (c *TestClient) Do(t *testing.T, method, path string, body any, staff bool) (int, apiResponse) {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case []byte:
		reader = bytes.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if staff {
		req.Header.Set("Authorization", "Bearer "+c.staffToken)
	}

	resp, err := c.httpClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var env apiResponse
	require.NoError(t, json.Unmarshal(raw, &env), string(raw))
	return resp.StatusCode, env
}

// Decode unmarshals the data part of a successful response.
func Decode[T any](t *testing.T, env apiResponse) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(env.Data, &v))
	return v
}

// FakeMidtrans serves the Snap and status endpoints and remembers the orders it saw.
type FakeMidtrans struct {
	serverKey string

	mu       sync.Mutex
	orders   []gateway.SnapRequest
	statuses map[string]string
}

func NewFakeMidtrans(serverKey string) *FakeMidtrans {
	return &FakeMidtrans{serverKey: serverKey, statuses: make(map[string]string)}
}

func (f *FakeMidtrans) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/snap/v1/transactions":
		var req gateway.SnapRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		f.mu.Lock()
		f.orders = append(f.orders, req)
		f.mu.Unlock()

		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(gateway.SnapResponse{
			Token:       "snap-" + req.TransactionDetails.OrderID,
			RedirectURL: "https://app.sandbox.midtrans.test/snap/v2/vtweb/" + req.TransactionDetails.OrderID,
		})

	case r.Method == http.MethodGet && r.PathValue("id") != "":
		id := r.PathValue("id")
		f.mu.Lock()
		status, ok := f.statuses[id]
		f.mu.Unlock()
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"status_code":"404","status_message":"Transaction doesn't exist."}`))
			return
		}
		n := f.Notification(id, status)
		_ = json.NewEncoder(w).Encode(gateway.StatusResponse{
			StatusCode:        n.StatusCode,
			OrderID:           n.OrderID,
			TransactionID:     n.TransactionID,
			TransactionStatus: n.TransactionStatus,
			GrossAmount:       n.GrossAmount,
			SignatureKey:      n.SignatureKey,
		})

	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

// Handler mounts the fake so the status route can read its path value.
func (f *FakeMidtrans) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("POST /snap/v1/transactions", f)
	mux.Handle("GET /v2/{id}/status", f)
	return mux
}

// LastOrder returns the most recent Snap request.
func (f *FakeMidtrans) LastOrder(t *testing.T) gateway.SnapRequest {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.orders, "no transaction was opened")
	return f.orders[len(f.orders)-1]
}

// SetStatus makes the status endpoint report status for gatewayOrderID.
func (f *FakeMidtrans) SetStatus(gatewayOrderID, status string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses[gatewayOrderID] = status
}

// Notification builds a signed notification for the amount the order was opened with.
func (f *FakeMidtrans) Notification(gatewayOrderID, status string) domain.Notification {
	f.mu.Lock()
	var amount int64
	for _, o := range f.orders {
		if o.TransactionDetails.OrderID == gatewayOrderID {
			amount = o.TransactionDetails.GrossAmount
		}
	}
	f.mu.Unlock()

	n := domain.Notification{
		OrderID:           gatewayOrderID,
		StatusCode:        "200",
		GrossAmount:       formatAmount(amount),
		TransactionStatus: status,
		TransactionID:     "trx-" + gatewayOrderID,
		PaymentType:       "bank_transfer",
	}
	n.SignatureKey = gateway.Sign(n, f.serverKey)
	return n
}

func formatAmount(amount int64) string {
	return strconv.FormatInt(amount, 10) + ".00"
}
