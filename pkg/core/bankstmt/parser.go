package bankstmt

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Parser turns raw statement bytes into normalized transactions.
type Parser interface {
	Parse(ctx context.Context, filename string, data []byte) ([]Transaction, error)
}

// =============================================================================
// REMOTE PARSER
// =============================================================================

// RemoteParser calls the bank-statement parser service with the PDF bytes and
// decodes its statements/transactions JSON.
type RemoteParser struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

// NewRemoteParser creates a parser client for the given service URL.
func NewRemoteParser(baseURL, apiKey string) *RemoteParser {
	return &RemoteParser{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Client:  &http.Client{Timeout: 90 * time.Second},
	}
}

// Parse uploads the statement and flattens every returned statement's
// transactions into one list.
func (p *RemoteParser) Parse(ctx context.Context, filename string, data []byte) ([]Transaction, error) {
	if p.BaseURL == "" {
		return nil, fmt.Errorf("bank parser URL not configured")
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("failed to build upload: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, fmt.Errorf("failed to write upload: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize upload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.BaseURL+"/v1/parse", &body)
	if err != nil {
		return nil, fmt.Errorf("failed to create parser request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if p.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.APIKey)
	}

	resp, err := p.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("parser request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read parser response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("parser service returned %d: %s", resp.StatusCode, string(respBody))
	}

	return decodeParseResponse(respBody)
}

func decodeParseResponse(data []byte) ([]Transaction, error) {
	var out parseResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to parse statement JSON: %w", err)
	}
	if out.Error != "" {
		return nil, fmt.Errorf("parser service error: %s", out.Error)
	}

	var txns []Transaction
	for _, stmt := range out.Statements {
		for i := range stmt.Transactions {
			txns = append(txns, stmt.Transactions[i].normalize())
		}
	}
	return txns, nil
}

// =============================================================================
// LOCAL CSV PARSER
// =============================================================================

// LocalCSVParser handles statements exported as CSV, the fallback when the
// remote parser is unavailable or the upload is not a PDF. Column names are
// matched loosely against the common bank export headers.
type LocalCSVParser struct{}

var csvColumnAliases = map[string][]string{
	"date":       {"date", "txn date", "transaction date", "tran date"},
	"value_date": {"value date", "value dt"},
	"narration":  {"narration", "description", "particulars", "remarks"},
	"ref":        {"cheque", "chq", "ref no", "reference"},
	"withdrawal": {"withdrawal", "debit", "dr"},
	"deposit":    {"deposit", "credit", "cr"},
	"balance":    {"balance", "closing balance", "bal"},
}

func matchColumn(header string) string {
	h := strings.ToLower(strings.TrimSpace(header))
	for canonical, aliases := range csvColumnAliases {
		for _, alias := range aliases {
			if strings.Contains(h, alias) {
				return canonical
			}
		}
	}
	return ""
}

// Parse reads a CSV statement. Rows whose date fails to parse are skipped.
func (p *LocalCSVParser) Parse(_ context.Context, _ string, data []byte) ([]Transaction, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read statement CSV: %w", err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("statement CSV has no transaction rows")
	}

	cols := map[string]int{}
	for i, header := range records[0] {
		if canonical := matchColumn(header); canonical != "" {
			if _, taken := cols[canonical]; !taken {
				cols[canonical] = i
			}
		}
	}
	if _, ok := cols["date"]; !ok {
		return nil, fmt.Errorf("statement CSV has no date column")
	}

	cell := func(row []string, name string) string {
		idx, ok := cols[name]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	var txns []Transaction
	for _, row := range records[1:] {
		date, ok := parseCSVDate(cell(row, "date"))
		if !ok {
			continue
		}
		t := Transaction{
			TransactionDate: date,
			Narration:       cell(row, "narration"),
			ChequeRef:       cell(row, "ref"),
		}
		if vd, ok := parseCSVDate(cell(row, "value_date")); ok {
			t.ValueDate = vd
		}
		if v, ok := parseCSVAmount(cell(row, "withdrawal")); ok {
			t.Withdrawal = v
			t.HasAmount = true
		}
		if v, ok := parseCSVAmount(cell(row, "deposit")); ok {
			t.Deposit = v
			t.HasAmount = true
		}
		if v, ok := parseCSVAmount(cell(row, "balance")); ok {
			t.ClosingBalance = v
			t.HasBalance = true
		}
		txns = append(txns, t)
	}
	return txns, nil
}

func parseCSVDate(s string) (time.Time, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), "-", "/")
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{"02/01/2006", "2/1/2006", "02/01/06", "2006/01/02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func parseCSVAmount(s string) (float64, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" || s == "-" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
