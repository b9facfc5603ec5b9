package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"budgetview/internal/core"
	"budgetview/internal/memo"
	"budgetview/internal/report"
	"budgetview/internal/settings"
	"budgetview/internal/sync"
	"budgetview/internal/ynab"
)

// viewCaches hold single-slot memoized aggregations. Keys carry the budget
// identity (id + cursor) and every filter parameter, so a re-render with
// unchanged inputs hits the slot and any change recomputes it.
type viewCaches struct {
	rollup   memo.Slot[rollupKey, []report.GroupRollup]
	months   memo.Slot[monthsKey, []report.MonthTotal]
	netWorth memo.Slot[netWorthKey, report.NetWorthSeries]
	income   memo.Slot[incomeKey, report.IncomeView]
}

type budgetKey struct {
	ID        string
	Knowledge int64
}

type rollupKey struct {
	budgetKey
	Sort report.RollupSort
}

type monthsKey struct {
	budgetKey
	CurrentMonth string
	ExcludeFirst bool
	ExcludeLast  bool
	Investment   string
}

type netWorthKey struct {
	budgetKey
	CurrentMonth string
	Mortgage     string
}

type incomeKey struct {
	budgetKey
	CurrentMonth string
	ExcludeFirst bool
	ExcludeLast  bool
	Investment   string
	Limit        int
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	list, err := s.svc.ListBudgets(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleRefreshBudget(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if s.publisher != nil && r.URL.Query().Get("async") == "true" {
		if err := s.publisher.PublishRefreshRequest(r.Context(), id); err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]string{"id": id, "status": "queued"})
		return
	}

	detail, err := s.svc.RefreshBudget(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"id":              detail.ID,
		"serverKnowledge": detail.ServerKnowledge,
		"transactions":    len(detail.Transactions),
	})
}

func (s *Server) handleCategoryGroups(w http.ResponseWriter, r *http.Request) {
	budget, err := s.svc.GetBudget(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	by := report.RollupSort(r.URL.Query().Get("sort"))
	if by == "" {
		by = report.SortByAmount
	}

	key := rollupKey{budgetKey: keyOf(budget), Sort: by}
	rollups := s.caches.rollup.Get(key, func() []report.GroupRollup {
		return report.CategoryGroupRollup(budget, budget.Transactions, by)
	})
	writeJSON(w, http.StatusOK, rollups)
}

func (s *Server) handleMonths(w http.ResponseWriter, r *http.Request) {
	budget, err := s.svc.GetBudget(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	investment, err := s.settings.AccountSet(r.Context(), settings.InvestmentAccounts, budget.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	opts := monthOptions(r, s.currentMonth())

	key := monthsKey{
		budgetKey:    keyOf(budget),
		CurrentMonth: opts.CurrentMonth,
		ExcludeFirst: opts.ExcludeFirstMonth,
		ExcludeLast:  opts.ExcludeLastMonth,
		Investment:   fingerprint(investment),
	}
	totals := s.caches.months.Get(key, func() []report.MonthTotal {
		transactions := report.SpendingTransactions(budget, investment, opts)
		months := report.BudgetMonths(budget, opts.CurrentMonth, opts.ExcludeFirstMonth, opts.ExcludeLastMonth)
		return report.MonthlyTotals(transactions, months)
	})
	writeJSON(w, http.StatusOK, totals)
}

func (s *Server) handlePayees(w http.ResponseWriter, r *http.Request) {
	budget, err := s.svc.GetBudget(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	investment, err := s.settings.AccountSet(r.Context(), settings.InvestmentAccounts, budget.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	opts := monthOptions(r, s.currentMonth())
	transactions := report.SpendingTransactions(budget, investment, opts)
	if month := r.URL.Query().Get("month"); month != "" {
		transactions = report.FilterMonth(transactions, month)
	}
	breakdown := report.PayeeBreakdown(budget, transactions, report.BreakdownOptions{
		Limit:     queryInt(r, "limit"),
		NumMonths: queryInt(r, "months"),
	})
	writeJSON(w, http.StatusOK, breakdown)
}

func (s *Server) handleBreakdown(w http.ResponseWriter, r *http.Request) {
	budget, err := s.svc.GetBudget(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	investment, err := s.settings.AccountSet(r.Context(), settings.InvestmentAccounts, budget.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	opts := monthOptions(r, s.currentMonth())
	transactions := report.SpendingTransactions(budget, investment, opts)
	if month := r.URL.Query().Get("month"); month != "" {
		transactions = report.FilterMonth(transactions, month)
	}
	writeJSON(w, http.StatusOK, report.CategoryTree(budget, transactions))
}

func (s *Server) handleNetWorth(w http.ResponseWriter, r *http.Request) {
	budget, err := s.svc.GetBudget(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	mortgage, err := s.settings.AccountSet(r.Context(), settings.MortgageAccounts, budget.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	current := s.currentMonth()
	key := netWorthKey{budgetKey: keyOf(budget), CurrentMonth: current, Mortgage: fingerprint(mortgage)}
	series := s.caches.netWorth.Get(key, func() report.NetWorthSeries {
		months := report.BudgetMonths(budget, current, false, false)
		return report.NetWorth(budget, mortgage, months)
	})
	writeJSON(w, http.StatusOK, series)
}

func (s *Server) handleIncome(w http.ResponseWriter, r *http.Request) {
	budget, err := s.svc.GetBudget(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	investment, err := s.settings.AccountSet(r.Context(), settings.InvestmentAccounts, budget.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	opts := monthOptions(r, s.currentMonth())
	limit := queryInt(r, "limit")
	key := incomeKey{
		budgetKey:    keyOf(budget),
		CurrentMonth: opts.CurrentMonth,
		ExcludeFirst: opts.ExcludeFirstMonth,
		ExcludeLast:  opts.ExcludeLastMonth,
		Investment:   fingerprint(investment),
		Limit:        limit,
	}
	view := s.caches.income.Get(key, func() report.IncomeView {
		return report.Income(budget, investment, opts, report.BreakdownOptions{Limit: limit})
	})
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleUpdateAccountSets(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Investment []string `json:"investment"`
		Mortgage   []string `json:"mortgage"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	budgetID := r.PathValue("id")
	if err := s.settings.SetAccountSet(r.Context(), settings.InvestmentAccounts, budgetID, toSet(body.Investment)); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.settings.SetAccountSet(r.Context(), settings.MortgageAccounts, budgetID, toSet(body.Mortgage)); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) currentMonth() string {
	return s.now().Format("2006-01")
}

func keyOf(b *core.BudgetDetail) budgetKey {
	return budgetKey{ID: b.ID, Knowledge: b.ServerKnowledge}
}

func monthOptions(r *http.Request, currentMonth string) report.IncomeOptions {
	q := r.URL.Query()
	return report.IncomeOptions{
		CurrentMonth:      currentMonth,
		ExcludeFirstMonth: q.Get("excludeFirst") == "true",
		ExcludeLastMonth:  q.Get("excludeLast") == "true",
	}
}

func queryInt(r *http.Request, name string) int {
	if v := r.URL.Query().Get(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return 0
}

// fingerprint folds an account set into a stable string usable in a
// comparable cache key.
func fingerprint(set map[string]bool) string {
	ids := make([]string, 0, len(set))
	for id, on := range set {
		if on {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return strings.Join(ids, ",")
}

func toSet(ids []string) map[string]bool {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	var remoteErr *ynab.RemoteError
	switch {
	case errors.Is(err, sync.ErrNoSnapshot):
		status = http.StatusPreconditionFailed
	case errors.Is(err, ynab.ErrUnauthorized):
		status = http.StatusUnauthorized
	case errors.As(err, &remoteErr):
		status = http.StatusBadGateway
	}

	slog.ErrorContext(r.Context(), "Request failed",
		"method", r.Method,
		"path", r.URL.Path,
		"status", status,
		"error", err)
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
