package bankstmt

import (
	"math"
	"testing"
	"time"
)

func txn(day string, narration string, withdrawal, deposit, balance float64) Transaction {
	d, err := time.Parse("2006-01-02", day)
	if err != nil {
		panic(err)
	}
	return Transaction{
		TransactionDate: d,
		Narration:       narration,
		Withdrawal:      withdrawal,
		Deposit:         deposit,
		ClosingBalance:  balance,
		HasBalance:      true,
		HasAmount:       true,
	}
}

func TestAnalyzeEmpty(t *testing.T) {
	a := Analyze(nil)
	if a.TransactionCount != 0 || a.Confidence != 0 {
		t.Errorf("empty analysis = %+v", a)
	}
}

func TestMonthSpan(t *testing.T) {
	jan := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	mar := time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC)
	if got := monthSpan(jan, mar); got != 3 {
		t.Errorf("monthSpan(jan, mar) = %d, want 3", got)
	}
	if got := monthSpan(jan, jan); got != 1 {
		t.Errorf("same-day span = %d, want 1", got)
	}
}

func TestCheckpointBalances(t *testing.T) {
	// One month: balances 100 (day 3), 200 (day 10), 300 (day 20), 400 (day 28).
	// Checkpoints: day5 -> 100, day15 -> 200, day25 -> 300. ABB = 200.
	txns := []Transaction{
		txn("2025-04-03", "opening", 0, 1000, 100),
		txn("2025-04-10", "credit", 0, 500, 200),
		txn("2025-04-20", "credit", 0, 500, 300),
		txn("2025-04-28", "credit", 0, 500, 400),
	}
	a := Analyze(txns)
	if a.AvgMonthlyBalance != 200 {
		t.Errorf("AvgMonthlyBalance = %v, want 200", a.AvgMonthlyBalance)
	}
}

func TestCheckpointFallsBackToFirstBalance(t *testing.T) {
	// No transaction before day 5: checkpoint uses the first available.
	txns := []Transaction{
		txn("2025-04-18", "credit", 0, 500, 900),
		txn("2025-04-22", "credit", 0, 500, 1100),
	}
	a := Analyze(txns)
	// day5 -> 900 (first), day15 -> 900 (first), day25 -> 1100. avg = 966.67
	want := (900.0 + 900.0 + 1100.0) / 3
	if math.Abs(a.AvgMonthlyBalance-want) > 0.01 {
		t.Errorf("AvgMonthlyBalance = %v, want %v", a.AvgMonthlyBalance, want)
	}
}

func TestEMIOutflowUsesLatestMonth(t *testing.T) {
	txns := []Transaction{
		txn("2025-01-05", "NACH BAJAJ FIN EMI", 12000, 0, 50000),
		txn("2025-01-12", "ECS LOAN REPAY", 8000, 0, 42000),
		txn("2025-02-05", "NACH BAJAJ FIN EMI", 12000, 0, 60000),
	}
	a := Analyze(txns)
	// January has 20000 of EMI but February (the latest month) has 12000.
	if a.EMIOutflowMonthly != 12000 {
		t.Errorf("EMIOutflowMonthly = %v, want 12000 (latest month)", a.EMIOutflowMonthly)
	}
}

func TestBounceCounting(t *testing.T) {
	txns := []Transaction{
		txn("2025-03-02", "CHQ RET INSUFFICIENT FUNDS", 500, 0, 10000),
		txn("2025-03-05", "ECS RETURN CHARGES", 0, 0, 10000), // explicit RETURN, zero debit
		txn("2025-03-09", "INSUFF BAL CHARGE", 0, 0, 10000),  // zero debit, no RETURN/BOUNCE word
		txn("2025-03-15", "SALARY CREDIT", 0, 30000, 40000),
	}
	a := Analyze(txns)
	if a.BounceCount != 2 {
		t.Errorf("BounceCount = %d, want 2", a.BounceCount)
	}
}

func TestCashDepositRatio(t *testing.T) {
	txns := []Transaction{
		txn("2025-05-02", "CASH DEPOSIT BRANCH", 0, 20000, 20000),
		txn("2025-05-10", "NEFT FROM CUSTOMER", 0, 60000, 80000),
		txn("2025-05-12", "CDM DEPOSIT", 0, 20000, 100000),
		// cash credit account rows are excluded from both sides
		txn("2025-05-20", "TRF FROM CASH CREDIT A/C", 0, 50000, 150000),
	}
	a := Analyze(txns)
	want := 40000.0 / 100000.0
	if math.Abs(a.CashDepositRatio-want) > 0.0001 {
		t.Errorf("CashDepositRatio = %v, want %v", a.CashDepositRatio, want)
	}
}

func TestMonthlyCreditAverageAndSummaries(t *testing.T) {
	txns := []Transaction{
		txn("2025-01-10", "NEFT IN", 0, 100000, 100000),
		txn("2025-02-10", "NEFT IN", 0, 200000, 300000),
	}
	a := Analyze(txns)
	if a.MonthlyCreditAvg != 150000 {
		t.Errorf("MonthlyCreditAvg = %v, want 150000", a.MonthlyCreditAvg)
	}
	if len(a.MonthlySummaries) != 2 {
		t.Fatalf("summaries = %d, want 2", len(a.MonthlySummaries))
	}
	if a.MonthlySummaries[0].Month != "2025-01" || a.MonthlySummaries[0].Credits != 100000 {
		t.Errorf("first summary = %+v", a.MonthlySummaries[0])
	}
	if a.MonthlySummaries[1].ClosingBalance != 300000 {
		t.Errorf("second summary closing = %v, want 300000", a.MonthlySummaries[1].ClosingBalance)
	}
}

func TestPeakAndMinBalance(t *testing.T) {
	txns := []Transaction{
		txn("2025-06-01", "a", 0, 100, 5000),
		txn("2025-06-10", "b", 4800, 0, 200),
		txn("2025-06-20", "c", 0, 9800, 10000),
	}
	a := Analyze(txns)
	if a.PeakBalance != 10000 || a.MinBalance != 200 {
		t.Errorf("peak/min = %v/%v, want 10000/200", a.PeakBalance, a.MinBalance)
	}
}

func TestConfidenceBlend(t *testing.T) {
	// 12 complete months of data with 100+ transactions scores the maximum.
	var txns []Transaction
	for m := 1; m <= 12; m++ {
		for d := 1; d <= 9; d++ {
			txns = append(txns, txn(
				time.Date(2025, time.Month(m), d, 0, 0, 0, 0, time.UTC).Format("2006-01-02"),
				"NEFT IN", 0, 1000, float64(d*1000)))
		}
	}
	a := Analyze(txns)
	if a.Confidence != 1.0 {
		t.Errorf("Confidence = %v, want 1.0 for ideal data", a.Confidence)
	}

	// A handful of rows in one month scores low.
	small := Analyze([]Transaction{
		txn("2025-01-02", "x", 0, 100, 100),
		txn("2025-01-03", "y", 0, 100, 200),
	})
	if small.Confidence >= 0.5 {
		t.Errorf("Confidence = %v for thin data, want < 0.5", small.Confidence)
	}
}

func TestRowsWithoutDatesAreDropped(t *testing.T) {
	txns := []Transaction{
		{Narration: "no date", Deposit: 999999, HasAmount: true},
		txn("2025-01-02", "real", 0, 100, 100),
	}
	a := Analyze(txns)
	if a.TransactionCount != 1 || a.TotalCredits != 100 {
		t.Errorf("undated row not dropped: %+v", a)
	}
}
