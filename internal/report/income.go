package report

import "budgetview/internal/core"

// IncomeOptions mirror the month-bucket toggles; CurrentMonth anchors the
// last bucket (and the last-month exclusion).
type IncomeOptions struct {
	CurrentMonth      string
	ExcludeFirstMonth bool
	ExcludeLastMonth  bool
}

// SpendingTransactions filters a budget's ledger down to real cash flow:
// starting-balance and reconciliation artifacts are dropped, as are
// budget-neutral transfers, and the excluded edge months. Classifier
// composition via NotAny means an entry matching any exclusion never passes,
// whatever else it looks like.
func SpendingTransactions(b *core.BudgetDetail, investmentAccounts map[string]bool, opts IncomeOptions) []core.Transaction {
	firstMonth := FirstMonth(b)
	pass := core.NotAny(
		core.IsStartingBalanceOrReconciliation(b),
		core.IsTransfer(investmentAccounts),
		func(t core.Transaction) bool {
			return opts.ExcludeFirstMonth && t.Month() == firstMonth
		},
		func(t core.Transaction) bool {
			return opts.ExcludeLastMonth && t.Month() == opts.CurrentMonth
		},
	)

	var out []core.Transaction
	for _, t := range b.Transactions {
		if pass(t) {
			out = append(out, t)
		}
	}
	return out
}

// IncomeTransactions keeps only income-classified entries of the filtered
// ledger, with amounts negated so the income view shares the sign convention
// of the spending views.
func IncomeTransactions(b *core.BudgetDetail, investmentAccounts map[string]bool, opts IncomeOptions) []core.Transaction {
	isIncome := core.IsIncome(b)
	var out []core.Transaction
	for _, t := range SpendingTransactions(b, investmentAccounts, opts) {
		if !isIncome(t) {
			continue
		}
		t.Amount = t.Amount.Neg()
		out = append(out, t)
	}
	return out
}

// IncomeView is the derived income/projection page data: month buckets over
// income entries plus the payee breakdown.
type IncomeView struct {
	Months []MonthTotal      `json:"months"`
	Payees []EntityBreakdown `json:"payees"`
}

func Income(b *core.BudgetDetail, investmentAccounts map[string]bool, opts IncomeOptions, breakdownOpts BreakdownOptions) IncomeView {
	transactions := IncomeTransactions(b, investmentAccounts, opts)
	months := BudgetMonths(b, opts.CurrentMonth, opts.ExcludeFirstMonth, opts.ExcludeLastMonth)
	if breakdownOpts.NumMonths == 0 {
		breakdownOpts.NumMonths = len(months)
	}
	return IncomeView{
		Months: MonthlyTotals(transactions, months),
		Payees: PayeeBreakdown(b, transactions, breakdownOpts),
	}
}
