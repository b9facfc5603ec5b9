package core

import "errors"

var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidDate   = errors.New("invalid date")
)

type (
	// BudgetSummary is one entry of the cheaply fetched budget list.
	BudgetSummary struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}

	CategoryGroup struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}

	Category struct {
		ID              string `json:"id"`
		CategoryGroupID string `json:"categoryGroupId"`
		Name            string `json:"name"`
		Budgeted        Money  `json:"budgeted"`
		Activity        Money  `json:"activity"`
		Balance         Money  `json:"balance"`
	}

	Payee struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}

	// Account carries the service's type string; type drives the
	// asset/liability split unless user settings override it.
	Account struct {
		ID   string `json:"id"`
		Type string `json:"type"`
		Name string `json:"name"`
	}

	Transaction struct {
		ID                string `json:"id"`
		Date              string `json:"date"` // YYYY-MM-DD
		Amount            Money  `json:"amount"`
		CategoryID        string `json:"categoryId"`
		PayeeID           string `json:"payeeId"`
		AccountID         string `json:"accountId"`
		TransferAccountID string `json:"transferAccountId,omitempty"`
	}

	// BudgetDetail is the locally cached snapshot of one budget. It is owned
	// by the snapshot store and read-only to every consumer; amounts are
	// already normalized. ServerKnowledge is the opaque sync cursor and is
	// monotone per budget.
	BudgetDetail struct {
		ID              string           `json:"id"`
		Name            string           `json:"name"`
		CategoryGroups  []CategoryGroup  `json:"categoryGroups"`
		Categories      []Category       `json:"categories"`
		PayeesByID      map[string]Payee `json:"payeesById"`
		Accounts        []Account        `json:"accounts"`
		Transactions    []Transaction    `json:"transactions"`
		ServerKnowledge int64            `json:"serverKnowledge"`
	}
)

// Month returns the YYYY-MM bucket of the transaction, or "" when the date is
// too short to carry one. Transactions are not guaranteed sorted; callers
// needing month order must establish it themselves.
func (t Transaction) Month() string {
	if len(t.Date) < 7 {
		return ""
	}
	return t.Date[:7]
}

func (t Transaction) Validate() error {
	if len(t.Date) != 10 || t.Date[4] != '-' || t.Date[7] != '-' {
		return ErrInvalidDate
	}
	return nil
}
