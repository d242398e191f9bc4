// Package bookkeeping pushes settled charges to the tenant's external
// bookkeeping system. Exports are best effort: a failed push never rolls
// back the charge it describes.
package bookkeeping

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"
)

type ChargeExport struct {
	OrgID       string          `json:"org_id"`
	ChargeRef   string          `json:"charge_ref"`
	MemberName  string          `json:"member_name"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	Description string          `json:"description"`
}

type Exporter interface {
	ExportCharge(ctx context.Context, export ChargeExport) error
}

type HTTPExporter struct {
	endpoint   string
	httpClient *http.Client
}

func NewHTTPExporter(endpoint string, httpClient *http.Client) HTTPExporter {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return HTTPExporter{endpoint: endpoint, httpClient: httpClient}
}

func (e HTTPExporter) ExportCharge(ctx context.Context, export ChargeExport) error {
	body, err := json.Marshal(export)
	if err != nil {
		return fmt.Errorf("could not encode export: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("bookkeeping export failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("bookkeeping export rejected with status %d", resp.StatusCode)
	}
	return nil
}
