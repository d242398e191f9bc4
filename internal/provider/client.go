package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"
)

// Client is the outbound payment-gateway API, kept small so tests can stub
// it.
type Client interface {
	CreateCharge(ctx context.Context, apiKey string, params ChargeParams) (*Charge, error)
}

type ChargeParams struct {
	CustomerID     string          `json:"customer"`
	Amount         decimal.Decimal `json:"amount"`
	Currency       string          `json:"currency"`
	Description    string          `json:"description"`
	IdempotencyKey string          `json:"idempotency_key"`
	// Destination routes a marketplace charge to the tenant's connected
	// sub-account.
	Destination string `json:"destination,omitempty"`
	// ApplicationFee is the platform's cut, retained before the transfer.
	ApplicationFee *decimal.Decimal `json:"application_fee,omitempty"`
}

type Charge struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// APIError is a failure reported by the gateway itself, carrying its
// low-level failure code.
type APIError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("gateway error %s: %s", e.Code, e.Message)
}

type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewHTTPClient(baseURL string, httpClient *http.Client) HTTPClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return HTTPClient{baseURL: baseURL, httpClient: httpClient}
}

func (c HTTPClient) CreateCharge(ctx context.Context, apiKey string, params ChargeParams) (*Charge, error) {
	body, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("could not encode charge request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/charges", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", params.IdempotencyKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var envelope struct {
			Error APIError `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
			return nil, &APIError{Code: "", Message: fmt.Sprintf("gateway returned status %d", resp.StatusCode), HTTPStatus: resp.StatusCode}
		}
		envelope.Error.HTTPStatus = resp.StatusCode
		return nil, &envelope.Error
	}

	charge := &Charge{}
	if err := json.NewDecoder(resp.Body).Decode(charge); err != nil {
		return nil, fmt.Errorf("could not decode gateway response: %w", err)
	}
	return charge, nil
}
