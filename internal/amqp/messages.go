package amqp

import (
	"encoding/json"
	"time"
)

// RefreshRequest asks the worker to run an incremental refresh for one
// budget. The worker reads the stored cursor itself; the message carries only
// the id.
type RefreshRequest struct {
	BudgetID  string    `json:"budget_id"`
	Timestamp time.Time `json:"timestamp"`
}

func NewRefreshRequest(budgetID string) *RefreshRequest {
	return &RefreshRequest{BudgetID: budgetID, Timestamp: time.Now()}
}

func (m *RefreshRequest) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func RefreshRequestFromJSON(data []byte) (*RefreshRequest, error) {
	var msg RefreshRequest
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// BudgetSynced announces a completed refresh and the cursor it advanced to.
type BudgetSynced struct {
	BudgetID        string    `json:"budget_id"`
	ServerKnowledge int64     `json:"server_knowledge"`
	Timestamp       time.Time `json:"timestamp"`
}

func NewBudgetSynced(budgetID string, serverKnowledge int64) *BudgetSynced {
	return &BudgetSynced{
		BudgetID:        budgetID,
		ServerKnowledge: serverKnowledge,
		Timestamp:       time.Now(),
	}
}

func (m *BudgetSynced) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}
