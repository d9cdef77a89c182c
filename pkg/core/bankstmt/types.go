// Package bankstmt analyzes parsed bank statements into banking-strength
// metrics: average balances by the three-checkpoint method, credit and debit
// averages, EMI outflow, bounce counts and the cash deposit ratio.
package bankstmt

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// Transaction is one normalized statement row.
type Transaction struct {
	TransactionDate time.Time `json:"transaction_date"`
	ValueDate       time.Time `json:"value_date"`
	Narration       string    `json:"narration"`
	ChequeRef       string    `json:"cheque_ref"`
	Withdrawal      float64   `json:"withdrawal_amt"`
	Deposit         float64   `json:"deposit_amt"`
	ClosingBalance  float64   `json:"closing_balance"`

	// Parser output can omit balances or amounts on damaged rows; the
	// confidence blend needs to know.
	HasBalance bool `json:"has_balance"`
	HasAmount  bool `json:"has_amount"`
}

// parsedStatement mirrors the parser service's JSON for one statement.
type parsedStatement struct {
	BasicInfo       map[string]any   `json:"basicInfo"`
	CAMAnalysisData map[string]any   `json:"camAnalysisData"`
	GrandTotal      map[string]any   `json:"grandTotal"`
	Transactions    []rawTransaction `json:"transactions"`
}

// parseResponse is the parser service's top-level reply.
type parseResponse struct {
	Statements []parsedStatement `json:"statements"`
	Error      string            `json:"error,omitempty"`
}

// rawTransaction tolerates the parser's loose typing: dates as epoch
// milliseconds or dd/mm/yyyy strings, amounts as numbers or comma-grouped
// strings.
type rawTransaction struct {
	TransactionDate flexDate   `json:"transaction_date"`
	ValueDate       flexDate   `json:"value_date"`
	Narration       string     `json:"narration"`
	ChequeRef       string     `json:"cheque_ref"`
	Withdrawal      flexAmount `json:"withdrawal_amt"`
	Deposit         flexAmount `json:"deposit_amt"`
	ClosingBalance  flexAmount `json:"closing_balance"`
}

func (r *rawTransaction) normalize() Transaction {
	t := Transaction{
		TransactionDate: r.TransactionDate.Time,
		ValueDate:       r.ValueDate.Time,
		Narration:       r.Narration,
		ChequeRef:       r.ChequeRef,
		Withdrawal:      r.Withdrawal.Value,
		Deposit:         r.Deposit.Value,
		ClosingBalance:  r.ClosingBalance.Value,
		HasBalance:      r.ClosingBalance.Present,
		HasAmount:       r.Withdrawal.Present || r.Deposit.Present,
	}
	if t.TransactionDate.IsZero() {
		t.TransactionDate = t.ValueDate
	}
	return t
}

// flexDate decodes epoch-milliseconds or dd/mm/yyyy (slash or dash) strings.
type flexDate struct {
	Time time.Time
}

func (d *flexDate) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" || s == `""` {
		return nil
	}

	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		d.Time = time.UnixMilli(ms).UTC()
		return nil
	}

	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return nil // unparseable dates leave the zero value
	}
	str = strings.ReplaceAll(strings.TrimSpace(str), "-", "/")
	for _, layout := range []string{"02/01/2006", "2/1/2006", "02/01/06"} {
		if t, err := time.Parse(layout, str); err == nil {
			d.Time = t
			return nil
		}
	}
	return nil
}

// flexAmount decodes numbers or comma-grouped numeric strings, tracking
// whether the field was present at all.
type flexAmount struct {
	Value   float64
	Present bool
}

func (a *flexAmount) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" || s == `""` {
		return nil
	}

	if v, err := strconv.ParseFloat(s, 64); err == nil {
		a.Value = v
		a.Present = true
		return nil
	}

	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return nil
	}
	str = strings.ReplaceAll(strings.TrimSpace(str), ",", "")
	if v, err := strconv.ParseFloat(str, 64); err == nil {
		a.Value = v
		a.Present = true
	}
	return nil
}
