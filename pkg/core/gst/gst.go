// Package gst is the client for the GST authority lookup. One call per
// (case, gstin); the case repo's conditional cache update guarantees the
// exactly-once behavior, this client is stateless.
package gst

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"loanintel/pkg/core/validate"
)

// CompanyDetails are the borrower descriptors the authority returns for a
// GSTIN. A nil result means the GSTIN is unknown to the authority.
type CompanyDetails struct {
	BorrowerName         string   `json:"borrower_name"`
	EntityType           string   `json:"entity_type"`
	BusinessVintageYears *float64 `json:"business_vintage_years,omitempty"`
	Pincode              string   `json:"pincode"`
	IndustryType         string   `json:"industry_type"`
	RegistrationDate     string   `json:"registration_date,omitempty"` // dd/mm/yyyy
}

// Client calls the GST authority API.
type Client struct {
	BaseURL string
	APIKey  string
	HTTP    *http.Client
}

// NewClient creates a GST authority client.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		BaseURL: baseURL,
		APIKey:  apiKey,
		HTTP:    &http.Client{Timeout: timeout},
	}
}

type authorityResponse struct {
	Found   bool            `json:"found"`
	Details *CompanyDetails `json:"details"`
	Error   string          `json:"error,omitempty"`
}

// FetchCompanyDetails looks up a GSTIN. Returns (nil, nil) when the authority
// does not know the GSTIN; structural garbage is rejected before the call.
func (c *Client) FetchCompanyDetails(ctx context.Context, gstin string) (*CompanyDetails, error) {
	if !validate.IsValidGSTIN(gstin) {
		return nil, fmt.Errorf("invalid GSTIN %q", gstin)
	}
	if c.BaseURL == "" {
		return nil, fmt.Errorf("GST authority URL not configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.BaseURL+"/v1/taxpayers/"+gstin, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create GST request: %w", err)
	}
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GST authority request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read GST response: %w", err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GST authority returned %d: %s", resp.StatusCode, string(body))
	}

	var out authorityResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("failed to parse GST response: %w", err)
	}
	if out.Error != "" {
		return nil, fmt.Errorf("GST authority error: %s", out.Error)
	}
	if !out.Found || out.Details == nil {
		return nil, nil
	}
	return out.Details, nil
}
