package report

import (
	"sort"

	"budgetview/internal/core"
)

// OtherID collects entities beyond the display limit into one bucket.
const (
	OtherID   = "other"
	OtherName = "Other"
)

// EntityBreakdown is the per-entity (payee or category) sum over a
// transaction set. Average is populated only when requested.
type EntityBreakdown struct {
	ID      string     `json:"id"`
	Name    string     `json:"name"`
	Amount  core.Money `json:"amount"`
	Count   int        `json:"count"`
	Average core.Money `json:"average,omitempty"`
}

// BreakdownOptions control optional derivations. NumMonths > 0 adds a rolling
// average over that many months; Limit > 0 keeps the Limit largest entities
// and collapses the rest into Other.
type BreakdownOptions struct {
	NumMonths int
	Limit     int
}

// PayeeBreakdown groups transactions by payee. Transactions whose payee does
// not resolve are attributed to the Unknown Payee bucket.
func PayeeBreakdown(b *core.BudgetDetail, transactions []core.Transaction, opts BreakdownOptions) []EntityBreakdown {
	return breakdown(transactions, opts, func(t core.Transaction) (string, string) {
		if p, ok := b.PayeesByID[t.PayeeID]; ok {
			return p.ID, p.Name
		}
		return UnknownPayeeID, UnknownPayeeName
	})
}

// CategoryBreakdown groups transactions by category, with the Uncategorized
// bucket for unresolved references.
func CategoryBreakdown(b *core.BudgetDetail, transactions []core.Transaction, opts BreakdownOptions) []EntityBreakdown {
	names := make(map[string]string, len(b.Categories))
	for _, c := range b.Categories {
		names[c.ID] = c.Name
	}
	return breakdown(transactions, opts, func(t core.Transaction) (string, string) {
		if name, ok := names[t.CategoryID]; ok {
			return t.CategoryID, name
		}
		return UncategorizedID, UncategorizedName
	})
}

func breakdown(transactions []core.Transaction, opts BreakdownOptions, entity func(core.Transaction) (string, string)) []EntityBreakdown {
	index := make(map[string]int)
	var out []EntityBreakdown
	for _, t := range transactions {
		id, name := entity(t)
		i, ok := index[id]
		if !ok {
			i = len(out)
			index[id] = i
			out = append(out, EntityBreakdown{ID: id, Name: name})
		}
		out[i].Amount = out[i].Amount.Add(t.Amount)
		out[i].Count++
	}

	// Largest magnitude first; spending and income views both read top-down.
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Amount.Abs().Cents > out[j].Amount.Abs().Cents
	})

	if opts.Limit > 0 && len(out) > opts.Limit {
		other := EntityBreakdown{ID: OtherID, Name: OtherName}
		for _, e := range out[opts.Limit:] {
			other.Amount = other.Amount.Add(e.Amount)
			other.Count += e.Count
		}
		out = append(out[:opts.Limit:opts.Limit], other)
	}

	if opts.NumMonths > 0 {
		for i := range out {
			out[i].Average = out[i].Amount.Div(opts.NumMonths)
		}
	}
	return out
}
