package report

import (
	"testing"

	"budgetview/internal/core"
)

func TestPayeeBreakdown(t *testing.T) {
	b := testBudget()
	out := PayeeBreakdown(b, b.Transactions, BreakdownOptions{})

	if want := sumTransactions(b.Transactions); breakdownTotal(out) != want {
		t.Fatalf("breakdown total %v != transaction total %v", breakdownTotal(out), want)
	}

	byID := make(map[string]EntityBreakdown)
	for _, e := range out {
		byID[e.ID] = e
	}
	market, ok := byID["payee-market"]
	if !ok || market.Count != 4 {
		t.Fatalf("payee-market = %+v", market)
	}
	unknown, ok := byID[UnknownPayeeID]
	if !ok || unknown.Count != 1 || unknown.Name != UnknownPayeeName {
		t.Fatalf("unresolved payee bucket = %+v", unknown)
	}

	// Largest magnitude first.
	for i := 1; i < len(out); i++ {
		if out[i-1].Amount.Abs().Cents < out[i].Amount.Abs().Cents {
			t.Fatalf("not sorted by magnitude: %+v", out)
		}
	}
}

func TestCategoryBreakdownUnresolved(t *testing.T) {
	b := testBudget()
	out := CategoryBreakdown(b, b.Transactions, BreakdownOptions{})

	var uncategorized *EntityBreakdown
	for i := range out {
		if out[i].ID == UncategorizedID {
			uncategorized = &out[i]
		}
	}
	if uncategorized == nil {
		t.Fatal("expected an Uncategorized bucket")
	}
	if uncategorized.Count != 3 {
		t.Fatalf("uncategorized count = %d, want 3", uncategorized.Count)
	}
}

func TestBreakdownLimitCollapsesIntoOther(t *testing.T) {
	b := testBudget()
	out := PayeeBreakdown(b, b.Transactions, BreakdownOptions{Limit: 2})

	if len(out) != 3 {
		t.Fatalf("expected 2 entities + Other, got %d: %+v", len(out), out)
	}
	last := out[len(out)-1]
	if last.ID != OtherID || last.Name != OtherName {
		t.Fatalf("last bucket = %+v, want Other", last)
	}
	// Collapsing must not change the overall sum.
	if want := sumTransactions(b.Transactions); breakdownTotal(out) != want {
		t.Fatalf("limited total %v != transaction total %v", breakdownTotal(out), want)
	}
}

func TestBreakdownLimitAtOrAboveSizeIsNoop(t *testing.T) {
	b := testBudget()
	full := PayeeBreakdown(b, b.Transactions, BreakdownOptions{})
	limited := PayeeBreakdown(b, b.Transactions, BreakdownOptions{Limit: len(full)})

	if len(limited) != len(full) {
		t.Fatalf("limit == size must not add an Other bucket: %+v", limited)
	}
	for _, e := range limited {
		if e.ID == OtherID {
			t.Fatalf("unexpected Other bucket: %+v", limited)
		}
	}
}

func TestBreakdownAverage(t *testing.T) {
	b := testBudget()
	out := PayeeBreakdown(b, b.Transactions, BreakdownOptions{NumMonths: 2})

	for _, e := range out {
		if want := e.Amount.Div(2); e.Average != want {
			t.Fatalf("%s average = %v, want %v", e.ID, e.Average, want)
		}
	}

	noAvg := PayeeBreakdown(b, b.Transactions, BreakdownOptions{})
	for _, e := range noAvg {
		if e.Average.Cents != 0 {
			t.Fatalf("average must stay zero without NumMonths: %+v", e)
		}
	}
}

func breakdownTotal(entries []EntityBreakdown) core.Money {
	var total core.Money
	for _, e := range entries {
		total = total.Add(e.Amount)
	}
	return total
}

func TestCategoryTreeSums(t *testing.T) {
	b := testBudget()
	tree := CategoryTree(b, b.Transactions)

	var total core.Money
	for _, group := range tree {
		var children core.Money
		for _, leaf := range group.Nodes {
			children = children.Add(leaf.Amount)
		}
		if children != group.Amount {
			t.Fatalf("group %s amount %v != sum of children %v", group.ID, group.Amount, children)
		}
		total = total.Add(group.Amount)
	}
	if want := sumTransactions(b.Transactions); total != want {
		t.Fatalf("tree total %v != transaction total %v", total, want)
	}
}

func TestCategoryTreeOnlyTouchedGroups(t *testing.T) {
	b := testBudget()
	// Fun Money has no transactions, so Everyday must not list it and an
	// untouched group must not appear at all.
	tree := CategoryTree(b, b.Transactions)

	for _, group := range tree {
		if len(group.Nodes) == 0 {
			t.Fatalf("group %s has no leaves", group.ID)
		}
		for _, leaf := range group.Nodes {
			if leaf.ID == "cat-fun" {
				t.Fatal("untouched category must not appear")
			}
		}
	}

	var sawUncategorized bool
	for _, group := range tree {
		if group.ID == UncategorizedID {
			sawUncategorized = true
		}
	}
	if !sawUncategorized {
		t.Fatal("unresolved categories must land in an Uncategorized group")
	}
}

func TestCategoryTreeOrder(t *testing.T) {
	b := testBudget()
	tree := CategoryTree(b, b.Transactions)

	for i := 1; i < len(tree); i++ {
		if tree[i-1].Amount.Cents > tree[i].Amount.Cents {
			t.Fatalf("groups not ordered heaviest first: %+v", tree)
		}
	}
	for _, group := range tree {
		for i := 1; i < len(group.Nodes); i++ {
			if group.Nodes[i-1].Amount.Cents > group.Nodes[i].Amount.Cents {
				t.Fatalf("leaves of %s not ordered: %+v", group.ID, group.Nodes)
			}
		}
	}
}
