// Package sync keeps local budget snapshots in step with the remote service:
// cache-or-fetch reads, incremental cursor-based refreshes and the delta
// merge that folds partial responses into a stored snapshot.
package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/singleflight"

	"budgetview/internal/core"
	"budgetview/internal/snapshot"
	"budgetview/internal/ynab"
)

// ErrNoSnapshot is returned by RefreshBudget when no cached baseline exists;
// a refresh without a baseline is meaningless.
var ErrNoSnapshot = errors.New("no cached snapshot to refresh")

// Remote is the service boundary consumed by the sync client. With
// serverKnowledge > 0 GetBudget returns only entities changed since that
// cursor.
type Remote interface {
	ListBudgets(ctx context.Context) ([]core.BudgetSummary, error)
	GetBudget(ctx context.Context, id string, serverKnowledge int64) (*core.BudgetDetail, error)
}

// Service is the only writer of the snapshot store.
type Service struct {
	remote Remote
	store  *snapshot.Store

	// Coalesces concurrent refreshes per budget id so two merges never race
	// against the same cursor.
	group singleflight.Group
}

func New(remote Remote, store *snapshot.Store) *Service {
	return &Service{remote: remote, store: store}
}

// ListBudgets returns the cached budget list, fetching and storing it on a
// cache miss. The list is immutable for the session once fetched.
func (s *Service) ListBudgets(ctx context.Context) ([]core.BudgetSummary, error) {
	list, ok, err := s.store.BudgetList(ctx)
	if err != nil {
		return nil, err
	}
	if ok {
		return list, nil
	}

	list, err = s.remote.ListBudgets(ctx)
	if err != nil {
		return nil, s.handleRemoteError(ctx, err)
	}
	if err := s.store.SetBudgetList(ctx, list); err != nil {
		return nil, err
	}
	return list, nil
}

// GetBudget returns the cached snapshot for a budget, fetching a full one on
// a cache miss. Amounts are normalized before anything is stored.
func (s *Service) GetBudget(ctx context.Context, id string) (*core.BudgetDetail, error) {
	detail, ok, err := s.store.BudgetDetail(ctx, id)
	if err != nil {
		return nil, err
	}
	if ok {
		return detail, nil
	}

	detail, err = s.remote.GetBudget(ctx, id, 0)
	if err != nil {
		return nil, s.handleRemoteError(ctx, err)
	}
	if err := s.store.SetBudgetDetail(ctx, detail); err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "Fetched full budget snapshot",
		"budget_id", id,
		"server_knowledge", detail.ServerKnowledge,
		"transactions", len(detail.Transactions))
	return detail, nil
}

// RefreshBudget requests changes since the stored cursor and merges them into
// the cached snapshot: merge, then persist, then return. Concurrent calls for
// the same budget are coalesced onto one in-flight refresh. Returns
// ErrNoSnapshot when no baseline exists.
func (s *Service) RefreshBudget(ctx context.Context, id string) (*core.BudgetDetail, error) {
	v, err, _ := s.group.Do(id, func() (any, error) {
		return s.refresh(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	return v.(*core.BudgetDetail), nil
}

func (s *Service) refresh(ctx context.Context, id string) (*core.BudgetDetail, error) {
	base, ok, err := s.store.BudgetDetail(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("budget %s: %w", id, ErrNoSnapshot)
	}

	delta, err := s.remote.GetBudget(ctx, id, base.ServerKnowledge)
	if err != nil {
		return nil, s.handleRemoteError(ctx, err)
	}

	merged := Merge(base, delta)
	if err := s.store.SetBudgetDetail(ctx, merged); err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "Merged budget delta",
		"budget_id", id,
		"old_knowledge", base.ServerKnowledge,
		"new_knowledge", merged.ServerKnowledge)
	return merged, nil
}

// Merge folds a delta response into a baseline snapshot. The contract: an
// entity present in the delta replaces the stored entity with the same id,
// entities the delta does not mention are left untouched, and the cursor
// never moves backwards. Neither input is mutated.
func Merge(base, delta *core.BudgetDetail) *core.BudgetDetail {
	merged := &core.BudgetDetail{
		ID:              base.ID,
		Name:            base.Name,
		CategoryGroups:  mergeByID(base.CategoryGroups, delta.CategoryGroups, func(g core.CategoryGroup) string { return g.ID }),
		Categories:      mergeByID(base.Categories, delta.Categories, func(c core.Category) string { return c.ID }),
		Accounts:        mergeByID(base.Accounts, delta.Accounts, func(a core.Account) string { return a.ID }),
		Transactions:    mergeByID(base.Transactions, delta.Transactions, func(t core.Transaction) string { return t.ID }),
		PayeesByID:      make(map[string]core.Payee, len(base.PayeesByID)+len(delta.PayeesByID)),
		ServerKnowledge: base.ServerKnowledge,
	}
	if delta.Name != "" {
		merged.Name = delta.Name
	}
	for id, p := range base.PayeesByID {
		merged.PayeesByID[id] = p
	}
	for id, p := range delta.PayeesByID {
		merged.PayeesByID[id] = p
	}
	if delta.ServerKnowledge > merged.ServerKnowledge {
		merged.ServerKnowledge = delta.ServerKnowledge
	}
	return merged
}

// mergeByID replaces entities in place preserving baseline order, then
// appends entities new in the delta in delta order.
func mergeByID[E any](base, delta []E, id func(E) string) []E {
	out := append([]E(nil), base...)
	index := make(map[string]int, len(base))
	for i, e := range base {
		index[id(e)] = i
	}
	for _, e := range delta {
		if i, ok := index[id(e)]; ok {
			out[i] = e
			continue
		}
		index[id(e)] = len(out)
		out = append(out, e)
	}
	return out
}

// handleRemoteError wipes all cached data on an authorization failure; the
// remote session is assumed void and stale snapshots must not outlive it.
func (s *Service) handleRemoteError(ctx context.Context, err error) error {
	if errors.Is(err, ynab.ErrUnauthorized) {
		slog.WarnContext(ctx, "Authorization revoked, clearing cached snapshots")
		if clearErr := s.store.Clear(ctx); clearErr != nil {
			slog.ErrorContext(ctx, "Failed to clear snapshot store", "error", clearErr)
		}
	}
	return err
}
