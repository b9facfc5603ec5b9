package core

import "testing"

func classifierBudget() *BudgetDetail {
	return &BudgetDetail{
		ID: "b1",
		Categories: []Category{
			{ID: "cat-income", CategoryGroupID: "grp-internal", Name: "Inflow: Ready to Assign"},
			{ID: "cat-food", CategoryGroupID: "grp-everyday", Name: "Groceries"},
		},
		PayeesByID: map[string]Payee{
			"payee-start":    {ID: "payee-start", Name: "Starting Balance"},
			"payee-recon":    {ID: "payee-recon", Name: "Reconciliation Balance Adjustment"},
			"payee-employer": {ID: "payee-employer", Name: "ACME Corp"},
		},
	}
}

func TestIsTransfer(t *testing.T) {
	investment := map[string]bool{"acc-broker": true}
	isTransfer := IsTransfer(investment)

	cases := []struct {
		name string
		tx   Transaction
		want bool
	}{
		{"plain spend", Transaction{AccountID: "acc-check"}, false},
		{"internal transfer", Transaction{AccountID: "acc-check", TransferAccountID: "acc-save"}, true},
		{"into investment account", Transaction{AccountID: "acc-check", TransferAccountID: "acc-broker"}, false},
		{"out of investment account", Transaction{AccountID: "acc-broker", TransferAccountID: "acc-check"}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := isTransfer(tc.tx); got != tc.want {
				t.Errorf("IsTransfer = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestIsStartingBalanceOrReconciliation(t *testing.T) {
	pred := IsStartingBalanceOrReconciliation(classifierBudget())

	if !pred(Transaction{PayeeID: "payee-start"}) {
		t.Error("starting balance payee should match")
	}
	if !pred(Transaction{PayeeID: "payee-recon"}) {
		t.Error("reconciliation payee should match")
	}
	if pred(Transaction{PayeeID: "payee-employer"}) {
		t.Error("regular payee should not match")
	}
}

func TestIsIncome(t *testing.T) {
	pred := IsIncome(classifierBudget())

	if !pred(Transaction{CategoryID: "cat-income"}) {
		t.Error("inflow category should match")
	}
	if pred(Transaction{CategoryID: "cat-food"}) {
		t.Error("spending category should not match")
	}
	if pred(Transaction{CategoryID: "missing"}) {
		t.Error("unresolved category should not match")
	}
}

func TestNotAny(t *testing.T) {
	always := func(Transaction) bool { return true }
	never := func(Transaction) bool { return false }

	if !NotAny()(Transaction{}) {
		t.Error("empty predicate list must always pass")
	}
	if !NotAny(never, never)(Transaction{}) {
		t.Error("no matches must pass")
	}
	if NotAny(never, always)(Transaction{}) {
		t.Error("any match must fail")
	}
	if NotAny(nil, always)(Transaction{}) {
		t.Error("nil predicates are skipped but matches still fail")
	}
}

// A starting-balance entry that is also income-classified must be excluded
// when the classifiers compose: the exclusion wins.
func TestClassifierComposition(t *testing.T) {
	budget := classifierBudget()
	tx := Transaction{PayeeID: "payee-start", CategoryID: "cat-income"}

	pass := NotAny(IsStartingBalanceOrReconciliation(budget), IsTransfer(nil))
	if pass(tx) {
		t.Fatal("starting-balance income entry must not pass the cash-flow filter")
	}
}
