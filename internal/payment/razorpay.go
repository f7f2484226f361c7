package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/coderkeshav-yt/naturalpuff/internal/util"
)

// RemoteOrderRequest is the body of a remote payment-order creation.
// Amount is in the smallest currency unit.
type RemoteOrderRequest struct {
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt,omitempty"`
	Notes    map[string]string `json:"notes,omitempty"`
}

// RemoteOrder is the gateway-side order the hosted checkout binds to
type RemoteOrder struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt,omitempty"`
	Status   string `json:"status,omitempty"`
}

// RemoteOrderCreator creates gateway orders on a trusted server
type RemoteOrderCreator interface {
	CreateOrder(ctx context.Context, req RemoteOrderRequest) (*RemoteOrder, error)
}

// GatewayError carries the gateway's own description of a failure
type GatewayError struct {
	StatusCode  int
	Code        string
	Description string
}

func (e *GatewayError) Error() string {
	if e.Description == "" {
		return fmt.Sprintf("payment gateway returned status %d", e.StatusCode)
	}
	return e.Description
}

// RazorpayClient talks to the Razorpay Orders API with the secret key pair.
// It must only run server-side.
type RazorpayClient struct {
	baseURL    string
	keyID      string
	keySecret  string
	httpClient *http.Client
}

// NewRazorpayClient creates a client for the Orders API
func NewRazorpayClient(baseURL, keyID, keySecret string, httpClient *http.Client) *RazorpayClient {
	return &RazorpayClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		keyID:      keyID,
		keySecret:  keySecret,
		httpClient: httpClient,
	}
}

type razorpayErrorBody struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

// CreateOrder creates an order on Razorpay
func (c *RazorpayClient) CreateOrder(ctx context.Context, req RemoteOrderRequest) (*RemoteOrder, error) {
	ctx, span := util.StartSpan(ctx, "RazorpayClient.CreateOrder")
	defer span.End()

	if c.keyID == "" || c.keySecret == "" {
		return nil, util.FailSpan(span, fmt.Errorf("razorpay API keys are not configured"))
	}
	if req.Receipt == "" {
		req.Receipt = fmt.Sprintf("receipt_%d", time.Now().UnixMilli())
	}
	if req.Notes == nil {
		req.Notes = map[string]string{}
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal order request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/orders", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.SetBasicAuth(c.keyID, c.keySecret)

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	util.GatewayRequestLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, util.FailSpan(span, fmt.Errorf("failed to communicate with Razorpay: %w", err))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, util.FailSpan(span, fmt.Errorf("failed to read Razorpay response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		gwErr := &GatewayError{StatusCode: resp.StatusCode}
		var eb razorpayErrorBody
		if json.Unmarshal(raw, &eb) == nil {
			gwErr.Code = eb.Error.Code
			gwErr.Description = eb.Error.Description
		}
		return nil, util.FailSpan(span, gwErr)
	}

	var order RemoteOrder
	if err := json.Unmarshal(raw, &order); err != nil {
		return nil, util.FailSpan(span, fmt.Errorf("failed to decode Razorpay order: %w", err))
	}
	if order.ID == "" {
		return nil, util.FailSpan(span, fmt.Errorf("razorpay returned an order without id"))
	}
	return &order, nil
}
