package bankstmt

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestDecodeParseResponse(t *testing.T) {
	// Dates arrive as epoch milliseconds or dd/mm/yyyy; amounts as numbers or
	// comma-grouped strings.
	payload := []byte(`{
		"statements": [{
			"basicInfo": {"bank": "HDFC"},
			"transactions": [
				{"transaction_date": 1736985600000, "narration": "NEFT IN",
				 "deposit_amt": 25000, "closing_balance": "1,25,000.50"},
				{"transaction_date": "20/01/2025", "narration": "EMI NACH",
				 "withdrawal_amt": "12,000", "closing_balance": 113000.5},
				{"transaction_date": "garbage", "narration": "dropped later"}
			]
		}]
	}`)

	txns, err := decodeParseResponse(payload)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if len(txns) != 3 {
		t.Fatalf("got %d transactions, want 3", len(txns))
	}

	first := txns[0]
	if first.TransactionDate.IsZero() {
		t.Error("epoch-ms date not decoded")
	}
	if first.Deposit != 25000 || !first.HasAmount {
		t.Errorf("deposit = %v (present=%v)", first.Deposit, first.HasAmount)
	}
	if first.ClosingBalance != 125000.50 || !first.HasBalance {
		t.Errorf("balance = %v (present=%v)", first.ClosingBalance, first.HasBalance)
	}

	second := txns[1]
	want := time.Date(2025, 1, 20, 0, 0, 0, 0, time.UTC)
	if !second.TransactionDate.Equal(want) {
		t.Errorf("dd/mm/yyyy date = %v, want %v", second.TransactionDate, want)
	}
	if second.Withdrawal != 12000 {
		t.Errorf("string withdrawal = %v, want 12000", second.Withdrawal)
	}

	if !txns[2].TransactionDate.IsZero() {
		t.Error("unparseable date should stay zero")
	}
}

func TestDecodeParseResponseServiceError(t *testing.T) {
	if _, err := decodeParseResponse([]byte(`{"error": "unreadable pdf"}`)); err == nil {
		t.Error("service error not surfaced")
	}
}

func TestLocalCSVParser(t *testing.T) {
	csvData := []byte(`Txn Date,Particulars,Chq No,Debit,Credit,Balance
02/01/2025,NEFT FROM CUSTOMER,,"","45,000","1,45,000"
05-01-2025,NACH EMI BAJAJ FIN,123,12000,,133000
bad-date-row,ignored,,,,"99"
`)
	p := &LocalCSVParser{}
	txns, err := p.Parse(context.Background(), "stmt.csv", csvData)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(txns) != 2 {
		t.Fatalf("got %d rows, want 2 (bad date skipped)", len(txns))
	}
	if txns[0].Deposit != 45000 || txns[0].ClosingBalance != 145000 {
		t.Errorf("row 1 = %+v", txns[0])
	}
	if txns[1].Withdrawal != 12000 || txns[1].Narration != "NACH EMI BAJAJ FIN" {
		t.Errorf("row 2 = %+v", txns[1])
	}
	if !txns[0].HasBalance || !txns[0].HasAmount {
		t.Error("presence flags not set from CSV")
	}
}

func TestLocalCSVParserNoDateColumn(t *testing.T) {
	p := &LocalCSVParser{}
	if _, err := p.Parse(context.Background(), "x.csv", []byte("a,b\n1,2\n")); err == nil {
		t.Error("missing date column not rejected")
	}
}

type failingRemote struct{ calls int }

func (p *failingRemote) Parse(_ context.Context, _ string, _ []byte) ([]Transaction, error) {
	p.calls++
	return nil, errors.New("parser service returned 503")
}

func TestParseOneFallsBackToLocalOnRemoteError(t *testing.T) {
	csvData := []byte("Txn Date,Particulars,Debit,Credit,Balance\n02/01/2025,NEFT,,45000,145000\n")
	remote := &failingRemote{}
	s := &Service{remote: remote, local: &LocalCSVParser{}}

	txns, err := s.parseOne(context.Background(), "stmt.pdf", csvData)
	if err != nil {
		t.Fatalf("local fallback failed: %v", err)
	}
	if remote.calls != 1 {
		t.Errorf("remote calls = %d, want 1", remote.calls)
	}
	if len(txns) != 1 || txns[0].Deposit != 45000 {
		t.Errorf("fallback txns = %+v", txns)
	}
}

func TestParseOneWithoutRemoteTriesLocal(t *testing.T) {
	csvData := []byte("Txn Date,Particulars,Debit,Credit,Balance\n02/01/2025,NEFT,,45000,145000\n")
	s := &Service{local: &LocalCSVParser{}}

	txns, err := s.parseOne(context.Background(), "stmt.pdf", csvData)
	if err != nil {
		t.Fatalf("local parse failed: %v", err)
	}
	if len(txns) != 1 {
		t.Errorf("txns = %+v", txns)
	}

	// Genuinely unparsable bytes surface the local parser's error, never a
	// hard "no parser" refusal.
	_, err = s.parseOne(context.Background(), "scan.pdf", []byte("\x25PDF-1.7 binary"))
	if err == nil {
		t.Fatal("binary statement without remote must fail")
	}
	if strings.Contains(err.Error(), "no parser available") {
		t.Errorf("err = %v, want a local parse error", err)
	}
}
