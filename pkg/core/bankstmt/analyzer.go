package bankstmt

import (
	"math"
	"sort"
	"strings"
	"time"
)

// emiKeywords flag a debit as a loan obligation.
var emiKeywords = []string{
	"EMI", "NACH", "ECS", "LOAN", "BAJAJ FIN", "HDB FIN", "TATA CAP",
	"ADITYA BIRLA FIN", "FULLERTON", "LENDINGKART", "INDIFI", "NEOGROWTH",
}

// bounceKeywords flag a returned or failed debit.
var bounceKeywords = []string{
	"BOUNCE", "RETURN", "DISHON", "INSUFFICIENT", "CHQ RET", "ECS RET",
	"NACH RET", "INSUFF",
}

// cashDepositKeywords flag a deposit as cash.
var cashDepositKeywords = []string{
	"CASH DEP", "CASH DEPOSIT", "BY CASH", "CDM", "CSH DEP", "SELF DEPOSIT",
}

// cashCreditExclusions keep cash-credit account narrations out of the cash
// deposit ratio.
var cashCreditExclusions = []string{
	"CASH CREDIT", "CC A/C", "CC ACCOUNT", "CC LIMIT", "OD A/C",
}

// MonthlySummary is the per-month breakdown.
type MonthlySummary struct {
	Month          string  `json:"month"` // YYYY-MM
	Credits        float64 `json:"credits"`
	Debits         float64 `json:"debits"`
	ClosingBalance float64 `json:"closing_balance"`
	BounceCount    int     `json:"bounce_count"`
}

// Analysis is the computed banking profile for a case.
type Analysis struct {
	TransactionCount  int     `json:"transaction_count"`
	StatementMonths   int     `json:"statement_months"`
	AvgMonthlyBalance float64 `json:"avg_monthly_balance"`
	MonthlyCreditAvg  float64 `json:"monthly_credit_avg"`
	MonthlyDebitAvg   float64 `json:"monthly_debit_avg"`
	EMIOutflowMonthly float64 `json:"emi_outflow_monthly"`
	BounceCount       int     `json:"bounce_count"`
	CashDepositRatio  float64 `json:"cash_deposit_ratio"`
	PeakBalance       float64 `json:"peak_balance"`
	MinBalance        float64 `json:"min_balance"`
	TotalCredits      float64 `json:"total_credits"`
	TotalDebits       float64 `json:"total_debits"`

	MonthlySummaries []MonthlySummary `json:"monthly_summaries"`
	Confidence       float64          `json:"confidence"`
}

func containsAny(narration string, keywords []string) bool {
	upper := strings.ToUpper(narration)
	for _, kw := range keywords {
		if strings.Contains(upper, kw) {
			return true
		}
	}
	return false
}

func monthKey(t time.Time) string {
	return t.Format("2006-01")
}

// Analyze computes the banking profile from normalized transactions. Rows
// without a usable date are dropped before any metric.
func Analyze(txns []Transaction) *Analysis {
	var dated []Transaction
	for _, t := range txns {
		if !t.TransactionDate.IsZero() {
			dated = append(dated, t)
		}
	}
	if len(dated) == 0 {
		return &Analysis{}
	}

	sort.Slice(dated, func(i, j int) bool {
		return dated[i].TransactionDate.Before(dated[j].TransactionDate)
	})

	a := &Analysis{TransactionCount: len(dated)}

	first, last := dated[0].TransactionDate, dated[len(dated)-1].TransactionDate
	a.StatementMonths = monthSpan(first, last)

	byMonth := map[string][]Transaction{}
	var monthOrder []string
	for _, t := range dated {
		key := monthKey(t.TransactionDate)
		if _, seen := byMonth[key]; !seen {
			monthOrder = append(monthOrder, key)
		}
		byMonth[key] = append(byMonth[key], t)
	}
	sort.Strings(monthOrder)

	a.MinBalance = math.Inf(1)
	balanceSeen := false

	emiByMonth := map[string]float64{}
	var cashDeposits, allDeposits float64

	for _, t := range dated {
		a.TotalCredits += t.Deposit
		a.TotalDebits += t.Withdrawal

		if t.HasBalance {
			balanceSeen = true
			if t.ClosingBalance > a.PeakBalance {
				a.PeakBalance = t.ClosingBalance
			}
			if t.ClosingBalance < a.MinBalance {
				a.MinBalance = t.ClosingBalance
			}
		}

		if t.Withdrawal > 0 && containsAny(t.Narration, emiKeywords) {
			emiByMonth[monthKey(t.TransactionDate)] += t.Withdrawal
		}

		if containsAny(t.Narration, bounceKeywords) {
			// gate out credit-side reversal noise: count only positive debits
			// or rows that say RETURN/BOUNCE outright
			if t.Withdrawal > 0 || containsAny(t.Narration, []string{"RETURN", "BOUNCE"}) {
				a.BounceCount++
			}
		}

		if t.Deposit > 0 && !containsAny(t.Narration, cashCreditExclusions) {
			allDeposits += t.Deposit
			if containsAny(t.Narration, cashDepositKeywords) {
				cashDeposits += t.Deposit
			}
		}
	}
	if !balanceSeen {
		a.MinBalance = 0
	}
	if allDeposits > 0 {
		a.CashDepositRatio = cashDeposits / allDeposits
	}

	months := float64(len(monthOrder))
	a.MonthlyCreditAvg = a.TotalCredits / months
	a.MonthlyDebitAvg = a.TotalDebits / months

	// EMI obligation is the latest month's flagged outflow, not an average:
	// the current obligation is what matters for FOIR.
	a.EMIOutflowMonthly = emiByMonth[monthOrder[len(monthOrder)-1]]

	a.AvgMonthlyBalance = averageCheckpointBalance(byMonth, monthOrder)
	a.MonthlySummaries = monthlySummaries(byMonth, monthOrder)
	a.Confidence = confidence(dated, a.StatementMonths)

	return a
}

// monthSpan counts calendar months between two dates inclusive, floor 1.
func monthSpan(first, last time.Time) int {
	span := (last.Year()-first.Year())*12 + int(last.Month()) - int(first.Month()) + 1
	if span < 1 {
		return 1
	}
	return span
}

// averageCheckpointBalance implements the three-checkpoint method: per month
// take the closing balance of the latest transaction on or before day 5, 15
// and 25 (or the month's first balance when none precedes the checkpoint),
// average the three, then average across months.
func averageCheckpointBalance(byMonth map[string][]Transaction, monthOrder []string) float64 {
	var monthlyAvgs []float64
	for _, key := range monthOrder {
		var withBalance []Transaction
		for _, t := range byMonth[key] {
			if t.HasBalance {
				withBalance = append(withBalance, t)
			}
		}
		if len(withBalance) == 0 {
			continue
		}

		var sum float64
		for _, day := range []int{5, 15, 25} {
			sum += checkpointBalance(withBalance, day)
		}
		monthlyAvgs = append(monthlyAvgs, sum/3)
	}
	if len(monthlyAvgs) == 0 {
		return 0
	}
	var total float64
	for _, v := range monthlyAvgs {
		total += v
	}
	return total / float64(len(monthlyAvgs))
}

// checkpointBalance picks the closing balance of the latest transaction on or
// before the checkpoint day. txns are date-sorted and all carry balances.
func checkpointBalance(txns []Transaction, day int) float64 {
	balance := txns[0].ClosingBalance // first available when none precede
	for _, t := range txns {
		if t.TransactionDate.Day() <= day {
			balance = t.ClosingBalance
		} else {
			break
		}
	}
	return balance
}

func monthlySummaries(byMonth map[string][]Transaction, monthOrder []string) []MonthlySummary {
	out := make([]MonthlySummary, 0, len(monthOrder))
	for _, key := range monthOrder {
		s := MonthlySummary{Month: key}
		for _, t := range byMonth[key] {
			s.Credits += t.Deposit
			s.Debits += t.Withdrawal
			if t.HasBalance {
				s.ClosingBalance = t.ClosingBalance
			}
			if containsAny(t.Narration, bounceKeywords) &&
				(t.Withdrawal > 0 || containsAny(t.Narration, []string{"RETURN", "BOUNCE"})) {
				s.BounceCount++
			}
		}
		out = append(out, s)
	}
	return out
}

// confidence blends transaction volume (30 points, capped at 100 rows),
// statement period against an ideal 12 months (30 points) and field
// completeness (40 points).
func confidence(txns []Transaction, months int) float64 {
	volume := math.Min(float64(len(txns)), 100) / 100 * 30

	period := math.Min(float64(months)/12, 1) * 30

	complete := 0
	for _, t := range txns {
		if t.HasBalance && t.HasAmount {
			complete++
		}
	}
	completeness := float64(complete) / float64(len(txns)) * 40

	return math.Round((volume+period+completeness)) / 100
}
