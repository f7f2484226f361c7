package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/coderkeshav-yt/naturalpuff/internal/util"
)

// FunctionClient creates remote orders through a serverless function that
// holds the gateway secret. The function answers {data} or {error}.
type FunctionClient struct {
	url        string
	httpClient *http.Client
}

// NewFunctionClient creates a client for the order function at url
func NewFunctionClient(url string, httpClient *http.Client) *FunctionClient {
	return &FunctionClient{url: url, httpClient: httpClient}
}

type functionResponse struct {
	Data  *RemoteOrder `json:"data"`
	Error string       `json:"error"`
}

// CreateOrder posts the order request to the function
func (c *FunctionClient) CreateOrder(ctx context.Context, req RemoteOrderRequest) (*RemoteOrder, error) {
	ctx, span := util.StartSpan(ctx, "FunctionClient.CreateOrder")
	defer span.End()

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal order request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, util.FailSpan(span, fmt.Errorf("order function request failed: %w", err))
	}
	defer resp.Body.Close()

	var out functionResponse
	decodeErr := json.NewDecoder(resp.Body).Decode(&out)

	if resp.StatusCode != http.StatusOK {
		desc := "Failed to create order"
		if decodeErr == nil && out.Error != "" {
			desc = out.Error
		}
		return nil, util.FailSpan(span, &GatewayError{StatusCode: resp.StatusCode, Description: desc})
	}
	if decodeErr != nil {
		return nil, util.FailSpan(span, fmt.Errorf("failed to decode order function response: %w", decodeErr))
	}
	if out.Error != "" {
		return nil, util.FailSpan(span, &GatewayError{StatusCode: resp.StatusCode, Description: out.Error})
	}
	if out.Data == nil || out.Data.ID == "" {
		return nil, util.FailSpan(span, fmt.Errorf("order function returned no order"))
	}
	return out.Data, nil
}
