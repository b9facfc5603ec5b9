package core

import "strings"

// Reserved payees the service books balance adjustments under. These are
// bookkeeping artifacts, not real cash flow.
const (
	startingBalancePayee     = "Starting Balance"
	reconciliationPayee      = "Reconciliation Balance Adjustment"
	incomeCategoryName       = "To be Budgeted"
	incomeCategoryNamePrefix = "Inflow"
)

// Predicate labels a single transaction.
type Predicate func(Transaction) bool

// NotAny returns the logical NOR of the given predicates: a transaction
// passes only if none of them match. An empty list always passes.
func NotAny(preds ...Predicate) Predicate {
	return func(t Transaction) bool {
		for _, p := range preds {
			if p != nil && p(t) {
				return false
			}
		}
		return true
	}
}

// IsTransfer matches transactions moving funds between two accounts of the
// budget. Transfers touching an investment account are treated as real
// economic activity and do not match: moving money into an investment account
// is not budget-neutral from a net-worth standpoint.
func IsTransfer(investmentAccounts map[string]bool) Predicate {
	return func(t Transaction) bool {
		if t.TransferAccountID == "" {
			return false
		}
		if investmentAccounts[t.AccountID] || investmentAccounts[t.TransferAccountID] {
			return false
		}
		return true
	}
}

// IsStartingBalanceOrReconciliation matches transactions booked against the
// service's reserved balance-adjustment payees.
func IsStartingBalanceOrReconciliation(b *BudgetDetail) Predicate {
	ids := make(map[string]bool)
	for id, p := range b.PayeesByID {
		if p.Name == startingBalancePayee || p.Name == reconciliationPayee {
			ids[id] = true
		}
	}
	return func(t Transaction) bool {
		return ids[t.PayeeID]
	}
}

// IsIncome matches transactions categorized under the reserved income
// category ("To be Budgeted" / "Inflow: ...").
func IsIncome(b *BudgetDetail) Predicate {
	ids := make(map[string]bool)
	for _, c := range b.Categories {
		if c.Name == incomeCategoryName || strings.HasPrefix(c.Name, incomeCategoryNamePrefix) {
			ids[c.ID] = true
		}
	}
	return func(t Transaction) bool {
		return ids[t.CategoryID]
	}
}
