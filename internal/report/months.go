// Package report is the derived-aggregate engine: pure functions turning a
// budget snapshot into the grouped, bucketed views presentation consumes.
// Nothing here mutates the snapshot or raises domain errors; unresolved
// references land in sentinel buckets and empty inputs yield empty results.
package report

import (
	"time"

	"budgetview/internal/core"
)

const monthLayout = "2006-01"

// FirstMonth returns the YYYY-MM of the budget's earliest transaction, or ""
// when there are none. Transactions are unsorted; order is established here.
func FirstMonth(b *core.BudgetDetail) string {
	first := ""
	for _, t := range b.Transactions {
		m := t.Month()
		if m == "" {
			continue
		}
		if first == "" || m < first {
			first = m
		}
	}
	return first
}

// Months builds the ordered month sequence from first through current,
// inclusive. Either end can be excluded, for buckets known to be partial
// (the opening month, the in-progress current month). Returns nil when the
// range is empty or unparsable.
func Months(first, current string, excludeFirst, excludeLast bool) []string {
	start, err := time.Parse(monthLayout, first)
	if err != nil {
		return nil
	}
	end, err := time.Parse(monthLayout, current)
	if err != nil {
		return nil
	}

	var months []string
	for m := start; !m.After(end); m = m.AddDate(0, 1, 0) {
		months = append(months, m.Format(monthLayout))
	}
	if excludeFirst && len(months) > 0 {
		months = months[1:]
	}
	if excludeLast && len(months) > 0 {
		months = months[:len(months)-1]
	}
	return months
}

// BudgetMonths is Months anchored at the budget's first transaction and the
// given current month.
func BudgetMonths(b *core.BudgetDetail, currentMonth string, excludeFirst, excludeLast bool) []string {
	first := FirstMonth(b)
	if first == "" {
		return nil
	}
	return Months(first, currentMonth, excludeFirst, excludeLast)
}

// MonthTotal is one month bucket of a transaction set.
type MonthTotal struct {
	Month  string     `json:"month"`
	Amount core.Money `json:"amount"`
	Count  int        `json:"count"`
}

// MonthlyTotals buckets transactions into the given month sequence. Months
// without transactions produce zero buckets; transactions outside the
// sequence are ignored (the caller excluded those buckets deliberately).
func MonthlyTotals(transactions []core.Transaction, months []string) []MonthTotal {
	index := make(map[string]int, len(months))
	totals := make([]MonthTotal, len(months))
	for i, m := range months {
		index[m] = i
		totals[i].Month = m
	}
	for _, t := range transactions {
		i, ok := index[t.Month()]
		if !ok {
			continue
		}
		totals[i].Amount = totals[i].Amount.Add(t.Amount)
		totals[i].Count++
	}
	return totals
}

// FilterMonth keeps only transactions in the given month.
func FilterMonth(transactions []core.Transaction, month string) []core.Transaction {
	var out []core.Transaction
	for _, t := range transactions {
		if t.Month() == month {
			out = append(out, t)
		}
	}
	return out
}
