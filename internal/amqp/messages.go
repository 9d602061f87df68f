package amqp

import (
	"encoding/json"
	"time"
)

// Sync operations carried by a SyncMessage.
const (
	OpUpsert = "upsert"
	OpDelete = "delete"
)

// SyncMessage is the lightweight message handed to the sheet-export
// worker. It carries only identifiers; the worker fetches the full
// expense from the database.
type SyncMessage struct {
	Op        string    `json:"op"`
	ExpenseID string    `json:"expense_id"`
	UserID    string    `json:"user_id"`
	Timestamp time.Time `json:"timestamp"`
}

// NewSyncMessage creates a sync message for the given operation
func NewSyncMessage(op, expenseID, userID string) *SyncMessage {
	return &SyncMessage{
		Op:        op,
		ExpenseID: expenseID,
		UserID:    userID,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *SyncMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// SyncMessageFromJSON creates a message from JSON bytes
func SyncMessageFromJSON(data []byte) (*SyncMessage, error) {
	var msg SyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
