package sync

import (
	"context"
	"errors"
	"testing"

	"budgetview/internal/core"
	"budgetview/internal/kv"
	"budgetview/internal/snapshot"
	"budgetview/internal/ynab"
)

// fakeRemote scripts the service boundary and records every call.
type fakeRemote struct {
	budgets     []core.BudgetSummary
	details     map[string]*core.BudgetDetail
	deltas      map[string]*core.BudgetDetail
	err         error
	listCalls   int
	getCalls    int
	lastCursor  int64
	lastBudget  string
}

func (f *fakeRemote) ListBudgets(ctx context.Context) ([]core.BudgetSummary, error) {
	f.listCalls++
	if f.err != nil {
		return nil, f.err
	}
	return f.budgets, nil
}

func (f *fakeRemote) GetBudget(ctx context.Context, id string, serverKnowledge int64) (*core.BudgetDetail, error) {
	f.getCalls++
	f.lastBudget = id
	f.lastCursor = serverKnowledge
	if f.err != nil {
		return nil, f.err
	}
	if serverKnowledge > 0 {
		return f.deltas[id], nil
	}
	return f.details[id], nil
}

func baseDetail() *core.BudgetDetail {
	return &core.BudgetDetail{
		ID:   "b1",
		Name: "Household",
		Categories: []core.Category{
			{ID: "cat-1", Name: "Groceries"},
		},
		PayeesByID: map[string]core.Payee{
			"p1": {ID: "p1", Name: "Corner Market"},
		},
		Transactions: []core.Transaction{
			{ID: "A", Date: "2023-01-01", Amount: core.Money{Cents: -100}},
			{ID: "B", Date: "2023-01-02", Amount: core.Money{Cents: -200}},
			{ID: "C", Date: "2023-01-03", Amount: core.Money{Cents: -300}},
		},
		ServerKnowledge: 10,
	}
}

func newService(remote *fakeRemote) (*Service, *snapshot.Store) {
	store := snapshot.New(kv.NewMemory())
	return New(remote, store), store
}

func TestListBudgetsCachesFetch(t *testing.T) {
	remote := &fakeRemote{budgets: []core.BudgetSummary{{ID: "b1", Name: "Household"}}}
	svc, _ := newService(remote)
	ctx := context.Background()

	first, err := svc.ListBudgets(ctx)
	if err != nil {
		t.Fatalf("first list: %v", err)
	}
	second, err := svc.ListBudgets(ctx)
	if err != nil {
		t.Fatalf("second list: %v", err)
	}
	if remote.listCalls != 1 {
		t.Fatalf("remote called %d times, want 1", remote.listCalls)
	}
	if len(first) != 1 || len(second) != 1 || second[0].ID != "b1" {
		t.Fatalf("unexpected lists %v / %v", first, second)
	}
}

func TestGetBudgetCachesFullSnapshot(t *testing.T) {
	remote := &fakeRemote{details: map[string]*core.BudgetDetail{"b1": baseDetail()}}
	svc, _ := newService(remote)
	ctx := context.Background()

	if _, err := svc.GetBudget(ctx, "b1"); err != nil {
		t.Fatalf("first get: %v", err)
	}
	if remote.lastCursor != 0 {
		t.Fatalf("cache miss must request a full snapshot, cursor = %d", remote.lastCursor)
	}
	detail, err := svc.GetBudget(ctx, "b1")
	if err != nil {
		t.Fatalf("second get: %v", err)
	}
	if remote.getCalls != 1 {
		t.Fatalf("remote called %d times, want 1", remote.getCalls)
	}
	if detail.ServerKnowledge != 10 || len(detail.Transactions) != 3 {
		t.Fatalf("cached detail = %+v", detail)
	}
}

func TestRefreshWithoutBaseline(t *testing.T) {
	remote := &fakeRemote{details: map[string]*core.BudgetDetail{"b1": baseDetail()}}
	svc, _ := newService(remote)

	_, err := svc.RefreshBudget(context.Background(), "b1")
	if !errors.Is(err, ErrNoSnapshot) {
		t.Fatalf("err = %v, want ErrNoSnapshot", err)
	}
	if remote.getCalls != 0 {
		t.Fatal("a refresh without a baseline must not hit the remote")
	}
}

func TestRefreshMergesDelta(t *testing.T) {
	remote := &fakeRemote{
		details: map[string]*core.BudgetDetail{"b1": baseDetail()},
		deltas: map[string]*core.BudgetDetail{"b1": {
			ID: "b1",
			Transactions: []core.Transaction{
				{ID: "B", Date: "2023-01-02", Amount: core.Money{Cents: -999}},
				{ID: "D", Date: "2023-01-04", Amount: core.Money{Cents: -400}},
			},
			ServerKnowledge: 20,
		}},
	}
	svc, store := newService(remote)
	ctx := context.Background()

	if _, err := svc.GetBudget(ctx, "b1"); err != nil {
		t.Fatalf("seed snapshot: %v", err)
	}
	merged, err := svc.RefreshBudget(ctx, "b1")
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}

	if remote.lastCursor != 10 {
		t.Fatalf("delta requested at cursor %d, want 10", remote.lastCursor)
	}
	wantIDs := []string{"A", "B", "C", "D"}
	if len(merged.Transactions) != len(wantIDs) {
		t.Fatalf("merged transactions = %+v", merged.Transactions)
	}
	for i, id := range wantIDs {
		if merged.Transactions[i].ID != id {
			t.Fatalf("transaction[%d] = %s, want %s (baseline order preserved)", i, merged.Transactions[i].ID, id)
		}
	}
	if merged.Transactions[1].Amount.Cents != -999 {
		t.Fatal("delta version of B must replace the stored one")
	}
	if merged.ServerKnowledge != 20 {
		t.Fatalf("cursor = %d, want 20", merged.ServerKnowledge)
	}
	// Untouched fields survive a delta that does not mention them.
	if merged.Name != "Household" || len(merged.Categories) != 1 {
		t.Fatalf("baseline fields lost: %+v", merged)
	}

	stored, ok, err := store.BudgetDetail(ctx, "b1")
	if err != nil || !ok {
		t.Fatalf("stored snapshot missing: ok=%v err=%v", ok, err)
	}
	if stored.ServerKnowledge != 20 {
		t.Fatal("merged snapshot must be persisted before returning")
	}
}

func TestMergeCursorNeverMovesBackwards(t *testing.T) {
	base := baseDetail()
	merged := Merge(base, &core.BudgetDetail{ID: "b1", ServerKnowledge: 5})
	if merged.ServerKnowledge != 10 {
		t.Fatalf("cursor = %d, want 10", merged.ServerKnowledge)
	}
}

func TestMergeDoesNotMutateInputs(t *testing.T) {
	base := baseDetail()
	delta := &core.BudgetDetail{
		ID: "b1",
		Transactions: []core.Transaction{
			{ID: "A", Amount: core.Money{Cents: -777}},
		},
		ServerKnowledge: 11,
	}
	Merge(base, delta)

	if base.Transactions[0].Amount.Cents != -100 {
		t.Fatal("base mutated")
	}
	if base.ServerKnowledge != 10 {
		t.Fatal("base cursor mutated")
	}
}

func TestRefreshIdempotentOnEmptyDelta(t *testing.T) {
	remote := &fakeRemote{
		details: map[string]*core.BudgetDetail{"b1": baseDetail()},
		deltas:  map[string]*core.BudgetDetail{"b1": {ID: "b1", ServerKnowledge: 10}},
	}
	svc, _ := newService(remote)
	ctx := context.Background()

	if _, err := svc.GetBudget(ctx, "b1"); err != nil {
		t.Fatalf("seed snapshot: %v", err)
	}
	first, err := svc.RefreshBudget(ctx, "b1")
	if err != nil {
		t.Fatalf("first refresh: %v", err)
	}
	second, err := svc.RefreshBudget(ctx, "b1")
	if err != nil {
		t.Fatalf("second refresh: %v", err)
	}
	if first.ServerKnowledge != 10 || second.ServerKnowledge != 10 {
		t.Fatalf("cursors moved: %d / %d", first.ServerKnowledge, second.ServerKnowledge)
	}
	if len(second.Transactions) != 3 {
		t.Fatalf("empty delta changed the snapshot: %+v", second.Transactions)
	}
}

func TestAuthFailureWipesCache(t *testing.T) {
	remote := &fakeRemote{details: map[string]*core.BudgetDetail{"b1": baseDetail()}}
	svc, store := newService(remote)
	ctx := context.Background()

	if _, err := svc.GetBudget(ctx, "b1"); err != nil {
		t.Fatalf("seed snapshot: %v", err)
	}

	remote.err = ynab.ErrUnauthorized
	_, err := svc.RefreshBudget(ctx, "b1")
	if !errors.Is(err, ynab.ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}

	if _, ok, _ := store.BudgetDetail(ctx, "b1"); ok {
		t.Fatal("cached snapshot must be wiped after an auth failure")
	}
}

func TestRemoteErrorKeepsCache(t *testing.T) {
	remote := &fakeRemote{details: map[string]*core.BudgetDetail{"b1": baseDetail()}}
	svc, store := newService(remote)
	ctx := context.Background()

	if _, err := svc.GetBudget(ctx, "b1"); err != nil {
		t.Fatalf("seed snapshot: %v", err)
	}

	remote.err = &ynab.RemoteError{StatusCode: 503, Detail: "down for maintenance"}
	var remoteErr *ynab.RemoteError
	if _, err := svc.RefreshBudget(ctx, "b1"); !errors.As(err, &remoteErr) {
		t.Fatalf("err = %v, want RemoteError", err)
	}

	if _, ok, _ := store.BudgetDetail(ctx, "b1"); !ok {
		t.Fatal("a transient remote failure must not evict the snapshot")
	}
}
