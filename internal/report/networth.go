package report

import (
	"sort"

	"budgetview/internal/core"
)

type Stack string

const (
	StackAsset     Stack = "asset"
	StackLiability Stack = "liability"
)

// Credit-type accounts are liabilities unless user configuration says
// otherwise; the mortgage set adds to, never removes from, the liability side.
var creditAccountTypes = map[string]bool{
	"mortgage":   true,
	"creditCard": true,
}

// AccountStack classifies an account for net-worth stacking.
func AccountStack(a core.Account, mortgageAccounts map[string]bool) Stack {
	if mortgageAccounts[a.ID] || creditAccountTypes[a.Type] {
		return StackLiability
	}
	return StackAsset
}

// AccountSeries is one account's per-month balance series. Liability values
// are negated (magnitude flipped negative) so stacked charts diverge around
// zero.
type AccountSeries struct {
	AccountID string       `json:"accountId"`
	Name      string       `json:"name"`
	Stack     Stack        `json:"stack"`
	Balances  []core.Money `json:"balances"`
}

// NetWorthSeries carries the stacked asset/liability view. Assets and
// Liabilities are sign-normalized positive magnitudes per month; Net is the
// raw combined balance. Accounts lists liabilities first so the stacks render
// in a fixed order regardless of data order.
type NetWorthSeries struct {
	Months      []string        `json:"months"`
	Accounts    []AccountSeries `json:"accounts"`
	Assets      []core.Money    `json:"assets"`
	Liabilities []core.Money    `json:"liabilities"`
	Net         []core.Money    `json:"net"`
}

// NetWorth computes cumulative per-account balances for each month bucket and
// folds them into the two stacks plus the combined net series.
func NetWorth(b *core.BudgetDetail, mortgageAccounts map[string]bool, months []string) NetWorthSeries {
	series := NetWorthSeries{
		Months:      months,
		Assets:      make([]core.Money, len(months)),
		Liabilities: make([]core.Money, len(months)),
		Net:         make([]core.Money, len(months)),
	}
	if len(months) == 0 {
		return series
	}

	// Per-account per-month activity, then cumulative sum across months.
	// Activity before the first bucket is folded into it so balances carry
	// history even when early months are excluded.
	activity := make(map[string][]core.Money, len(b.Accounts))
	for _, a := range b.Accounts {
		activity[a.ID] = make([]core.Money, len(months))
	}
	index := make(map[string]int, len(months))
	for i, m := range months {
		index[m] = i
	}
	for _, t := range b.Transactions {
		buckets, ok := activity[t.AccountID]
		if !ok {
			continue
		}
		m := t.Month()
		i, ok := index[m]
		if !ok {
			if m > months[len(months)-1] {
				continue
			}
			i = 0
		}
		buckets[i] = buckets[i].Add(t.Amount)
	}

	for _, a := range b.Accounts {
		buckets := activity[a.ID]
		balances := make([]core.Money, len(months))
		running := core.Money{}
		for i := range months {
			running = running.Add(buckets[i])
			balances[i] = running
		}

		stack := AccountStack(a, mortgageAccounts)
		display := make([]core.Money, len(months))
		for i, bal := range balances {
			series.Net[i] = series.Net[i].Add(bal)
			if stack == StackLiability {
				series.Liabilities[i] = series.Liabilities[i].Add(bal.Abs())
				display[i] = bal.Abs().Neg()
			} else {
				series.Assets[i] = series.Assets[i].Add(bal)
				display[i] = bal
			}
		}
		series.Accounts = append(series.Accounts, AccountSeries{
			AccountID: a.ID,
			Name:      a.Name,
			Stack:     stack,
			Balances:  display,
		})
	}

	// Liabilities first, stable within each stack.
	sort.SliceStable(series.Accounts, func(i, j int) bool {
		return series.Accounts[i].Stack == StackLiability && series.Accounts[j].Stack != StackLiability
	})
	return series
}
