// Package ynab is the retry-free adapter for the remote budgeting service.
// It owns the wire representation (integer milliunit amounts, snake_case
// JSON) and converts it to normalized core types at the boundary; nothing
// past this package ever sees milliunits.
package ynab

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"budgetview/internal/core"
)

// ErrUnauthorized marks a 401 from the service: the session is void and the
// caller must wipe cached state and reauthorize.
var ErrUnauthorized = errors.New("unauthorized")

// RemoteError is any other network or service failure. There is no automatic
// retry; repeated user action re-triggers the call.
type RemoteError struct {
	StatusCode int
	Detail     string
}

func (e *RemoteError) Error() string {
	if e.StatusCode == 0 {
		return "remote service: " + e.Detail
	}
	return fmt.Sprintf("remote service: status %d: %s", e.StatusCode, e.Detail)
}

// Client is an explicit session handle configured once after authorization.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
}

func NewClient(baseURL, token string, timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
	}
}

type (
	errorEnvelope struct {
		Error struct {
			ID     string `json:"id"`
			Name   string `json:"name"`
			Detail string `json:"detail"`
		} `json:"error"`
	}

	budgetListResponse struct {
		Data struct {
			Budgets []struct {
				ID   string `json:"id"`
				Name string `json:"name"`
			} `json:"budgets"`
		} `json:"data"`
	}

	budgetDetailResponse struct {
		Data struct {
			Budget          wireBudget `json:"budget"`
			ServerKnowledge int64      `json:"server_knowledge"`
		} `json:"data"`
	}

	wireBudget struct {
		ID             string `json:"id"`
		Name           string `json:"name"`
		CategoryGroups []struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"category_groups"`
		Categories []struct {
			ID              string `json:"id"`
			CategoryGroupID string `json:"category_group_id"`
			Name            string `json:"name"`
			Budgeted        int64  `json:"budgeted"`
			Activity        int64  `json:"activity"`
			Balance         int64  `json:"balance"`
		} `json:"categories"`
		Payees []struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"payees"`
		Accounts []struct {
			ID   string `json:"id"`
			Type string `json:"type"`
			Name string `json:"name"`
		} `json:"accounts"`
		Transactions []struct {
			ID                string `json:"id"`
			Date              string `json:"date"`
			Amount            int64  `json:"amount"`
			CategoryID        string `json:"category_id"`
			PayeeID           string `json:"payee_id"`
			AccountID         string `json:"account_id"`
			TransferAccountID string `json:"transfer_account_id"`
		} `json:"transactions"`
	}
)

// ListBudgets fetches the budget list. The list carries no currency fields,
// so nothing is normalized.
func (c *Client) ListBudgets(ctx context.Context) ([]core.BudgetSummary, error) {
	var resp budgetListResponse
	if err := c.getJSON(ctx, "/budgets", nil, &resp); err != nil {
		return nil, err
	}
	out := make([]core.BudgetSummary, 0, len(resp.Data.Budgets))
	for _, b := range resp.Data.Budgets {
		out = append(out, core.BudgetSummary{ID: b.ID, Name: b.Name})
	}
	return out, nil
}

// GetBudget fetches a budget snapshot. With serverKnowledge > 0 the service
// returns only entities changed since that cursor; the returned detail then
// holds just the delta plus the new cursor.
func (c *Client) GetBudget(ctx context.Context, id string, serverKnowledge int64) (*core.BudgetDetail, error) {
	var query url.Values
	if serverKnowledge > 0 {
		query = url.Values{"last_knowledge_of_server": {strconv.FormatInt(serverKnowledge, 10)}}
	}
	var resp budgetDetailResponse
	if err := c.getJSON(ctx, "/budgets/"+url.PathEscape(id), query, &resp); err != nil {
		return nil, err
	}
	detail := toDetail(resp.Data.Budget)
	detail.ServerKnowledge = resp.Data.ServerKnowledge
	if detail.ID == "" {
		detail.ID = id
	}
	return detail, nil
}

// toDetail converts wire entities to core types, applying the currency
// normalizer to every amount field. This is the only place that happens.
func toDetail(w wireBudget) *core.BudgetDetail {
	detail := &core.BudgetDetail{
		ID:         w.ID,
		Name:       w.Name,
		PayeesByID: make(map[string]core.Payee, len(w.Payees)),
	}
	for _, g := range w.CategoryGroups {
		detail.CategoryGroups = append(detail.CategoryGroups, core.CategoryGroup{ID: g.ID, Name: g.Name})
	}
	for _, c := range w.Categories {
		detail.Categories = append(detail.Categories, core.Category{
			ID:              c.ID,
			CategoryGroupID: c.CategoryGroupID,
			Name:            c.Name,
			Budgeted:        core.NormalizeMilliunits(c.Budgeted),
			Activity:        core.NormalizeMilliunits(c.Activity),
			Balance:         core.NormalizeMilliunits(c.Balance),
		})
	}
	for _, p := range w.Payees {
		detail.PayeesByID[p.ID] = core.Payee{ID: p.ID, Name: p.Name}
	}
	for _, a := range w.Accounts {
		detail.Accounts = append(detail.Accounts, core.Account{ID: a.ID, Type: a.Type, Name: a.Name})
	}
	for _, t := range w.Transactions {
		detail.Transactions = append(detail.Transactions, core.Transaction{
			ID:                t.ID,
			Date:              t.Date,
			Amount:            core.NormalizeMilliunits(t.Amount),
			CategoryID:        t.CategoryID,
			PayeeID:           t.PayeeID,
			AccountID:         t.AccountID,
			TransferAccountID: t.TransferAccountID,
		})
	}
	return detail
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return &RemoteError{Detail: err.Error()}
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &RemoteError{Detail: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		slog.WarnContext(ctx, "Remote session rejected", "path", path)
		return fmt.Errorf("%s: %w", path, ErrUnauthorized)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &RemoteError{StatusCode: resp.StatusCode, Detail: readErrorDetail(resp.Body)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &RemoteError{StatusCode: resp.StatusCode, Detail: "decode response: " + err.Error()}
	}
	return nil
}

func readErrorDetail(r io.Reader) string {
	body, err := io.ReadAll(io.LimitReader(r, 1<<16))
	if err != nil {
		return "unreadable error body"
	}
	var envelope errorEnvelope
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error.Detail != "" {
		return envelope.Error.Detail
	}
	return strings.TrimSpace(string(body))
}
