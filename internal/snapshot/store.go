// Package snapshot is the typed store for locally cached budget state: the
// budget list, per-budget detail snapshots and their sync cursors. It is the
// single writer boundary; every consumer treats returned snapshots as
// read-only.
package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"budgetview/internal/core"
	"budgetview/internal/kv"
)

const budgetListKey = "budget-list"

func budgetDetailKey(id string) string {
	return "budget-detail:" + id
}

// entry is the stored envelope. FetchedAt records when the value was last
// written; staleness decisions stay with the caller.
type entry struct {
	Key       string          `json:"key"`
	FetchedAt time.Time       `json:"fetchedAt"`
	Value     json.RawMessage `json:"value"`
}

type Store struct {
	kv  kv.Store
	now func() time.Time
}

func New(store kv.Store) *Store {
	return &Store{kv: store, now: time.Now}
}

func (s *Store) BudgetList(ctx context.Context) ([]core.BudgetSummary, bool, error) {
	var list []core.BudgetSummary
	ok, err := s.get(ctx, budgetListKey, &list)
	return list, ok, err
}

func (s *Store) SetBudgetList(ctx context.Context, list []core.BudgetSummary) error {
	return s.set(ctx, budgetListKey, list)
}

func (s *Store) BudgetDetail(ctx context.Context, id string) (*core.BudgetDetail, bool, error) {
	var detail core.BudgetDetail
	ok, err := s.get(ctx, budgetDetailKey(id), &detail)
	if err != nil || !ok {
		return nil, ok, err
	}
	return &detail, true, nil
}

func (s *Store) SetBudgetDetail(ctx context.Context, detail *core.BudgetDetail) error {
	return s.set(ctx, budgetDetailKey(detail.ID), detail)
}

// Cursor returns the stored sync cursor for a budget. The cursor lives on the
// detail snapshot so a refresh can never read one from a different sync.
func (s *Store) Cursor(ctx context.Context, id string) (int64, bool, error) {
	detail, ok, err := s.BudgetDetail(ctx, id)
	if err != nil || !ok {
		return 0, ok, err
	}
	return detail.ServerKnowledge, true, nil
}

func (s *Store) RemoveBudgetDetail(ctx context.Context, id string) error {
	return s.kv.Remove(ctx, budgetDetailKey(id))
}

// Clear wipes the whole store, used when the remote session is voided.
func (s *Store) Clear(ctx context.Context) error {
	return s.kv.Clear(ctx)
}

func (s *Store) get(ctx context.Context, key string, out any) (bool, error) {
	raw, ok, err := s.kv.Get(ctx, key)
	if err != nil {
		return false, fmt.Errorf("read %s: %w", key, err)
	}
	if !ok {
		return false, nil
	}
	var e entry
	if err := json.Unmarshal(raw, &e); err != nil {
		return false, fmt.Errorf("decode %s envelope: %w", key, err)
	}
	if err := json.Unmarshal(e.Value, out); err != nil {
		return false, fmt.Errorf("decode %s value: %w", key, err)
	}
	return true, nil
}

func (s *Store) set(ctx context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s value: %w", key, err)
	}
	e := entry{Key: key, FetchedAt: s.now(), Value: raw}
	encoded, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode %s envelope: %w", key, err)
	}
	if err := s.kv.Set(ctx, key, encoded); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}
