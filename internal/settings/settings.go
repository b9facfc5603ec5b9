// Package settings stores per-budget user configuration: named sets of
// account ids the classifiers treat as investment or mortgage accounts.
package settings

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"budgetview/internal/kv"
)

const (
	InvestmentAccounts = "investment-accounts"
	MortgageAccounts   = "mortgage-accounts"
)

type Store struct {
	kv kv.Store
}

func New(store kv.Store) *Store {
	return &Store{kv: store}
}

func settingKey(name, budgetID string) string {
	return "settings:" + name + ":" + budgetID
}

// AccountSet returns the configured account-id set, empty when unset.
func (s *Store) AccountSet(ctx context.Context, name, budgetID string) (map[string]bool, error) {
	raw, ok, err := s.kv.Get(ctx, settingKey(name, budgetID))
	if err != nil {
		return nil, fmt.Errorf("read setting %s: %w", name, err)
	}
	set := make(map[string]bool)
	if !ok {
		return set, nil
	}
	var ids []string
	if err := json.Unmarshal(raw, &ids); err != nil {
		return nil, fmt.Errorf("decode setting %s: %w", name, err)
	}
	for _, id := range ids {
		set[id] = true
	}
	return set, nil
}

func (s *Store) SetAccountSet(ctx context.Context, name, budgetID string, set map[string]bool) error {
	ids := make([]string, 0, len(set))
	for id, on := range set {
		if on {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	raw, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("encode setting %s: %w", name, err)
	}
	if err := s.kv.Set(ctx, settingKey(name, budgetID), raw); err != nil {
		return fmt.Errorf("write setting %s: %w", name, err)
	}
	return nil
}
