package report

import (
	"sort"
	"strings"

	"budgetview/internal/core"
)

// Sentinel buckets for unresolved references. Every transaction is accounted
// for in every sum; nothing is dropped.
const (
	UncategorizedID   = "uncategorized"
	UncategorizedName = "Uncategorized"
	UnknownPayeeID    = "unknown-payee"
	UnknownPayeeName  = "Unknown Payee"
)

type RollupSort string

const (
	SortByAmount RollupSort = "amount"
	SortByName   RollupSort = "name"
	SortByCount  RollupSort = "count"
)

// GroupRollup is the per-category-group sum over a transaction set.
type GroupRollup struct {
	ID     string     `json:"id"`
	Name   string     `json:"name"`
	Amount core.Money `json:"amount"`
	Count  int        `json:"count"`
}

// CategoryGroupRollup groups transactions by category group. Every group of
// the budget appears, zero-valued when unused; transactions whose category
// does not resolve land in the Uncategorized group. Amount sort is ascending,
// which puts the heaviest spending (most negative) first.
func CategoryGroupRollup(b *core.BudgetDetail, transactions []core.Transaction, by RollupSort) []GroupRollup {
	groupOfCategory := make(map[string]string, len(b.Categories))
	for _, c := range b.Categories {
		groupOfCategory[c.ID] = c.CategoryGroupID
	}

	rollups := make([]GroupRollup, 0, len(b.CategoryGroups)+1)
	index := make(map[string]int, len(b.CategoryGroups))
	for _, g := range b.CategoryGroups {
		index[g.ID] = len(rollups)
		rollups = append(rollups, GroupRollup{ID: g.ID, Name: g.Name})
	}

	for _, t := range transactions {
		groupID, resolved := groupOfCategory[t.CategoryID]
		i, known := index[groupID]
		if !resolved || !known {
			var have bool
			i, have = index[UncategorizedID]
			if !have {
				i = len(rollups)
				index[UncategorizedID] = i
				rollups = append(rollups, GroupRollup{ID: UncategorizedID, Name: UncategorizedName})
			}
		}
		rollups[i].Amount = rollups[i].Amount.Add(t.Amount)
		rollups[i].Count++
	}

	sortRollups(rollups, by)
	return rollups
}

func sortRollups(rollups []GroupRollup, by RollupSort) {
	switch by {
	case SortByName:
		sort.SliceStable(rollups, func(i, j int) bool {
			return sortableName(rollups[i].Name) < sortableName(rollups[j].Name)
		})
	case SortByCount:
		sort.SliceStable(rollups, func(i, j int) bool {
			return rollups[i].Count < rollups[j].Count
		})
	default:
		sort.SliceStable(rollups, func(i, j int) bool {
			return rollups[i].Amount.Cents < rollups[j].Amount.Cents
		})
	}
}

// sortableName strips non-alphanumeric characters so decorated names
// ("🏠 Home", "[Archived] Fun") sort by their text.
func sortableName(name string) string {
	var sb strings.Builder
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
