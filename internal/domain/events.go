package domain

import "time"

// Event types
const (
	EventTypeMovementRecorded = "movement.recorded"
	EventTypeDocumentAttached = "movement.document_attached"
	EventTypeExpenseApproved  = "expense.approved"
	EventTypeExpenseRejected  = "expense.rejected"
	EventTypeExpensePaid      = "expense.paid"
)

// Aggregate types
const (
	AggregateTypeMovement = "movement"
	AggregateTypeExpense  = "expense"
)

// OutboxEvent represents an event to be published to collaborators. It is
// written in the same transaction as the state change it describes. Payload
// holds one of the typed event payloads below on the write side; events
// read back from storage carry the decoded JSON.
type OutboxEvent struct {
	ID            string
	TenantID      string
	AggregateID   string
	AggregateType string
	EventType     string
	Payload       any
	CreatedAt     time.Time
	PublishedAt   *time.Time
	Published     bool
}

// MovementRecordedEvent payload
type MovementRecordedEvent struct {
	MovementID    string `json:"movement_id"`
	TenantID      string `json:"tenant_id"`
	Direction     string `json:"direction"`
	Amount        string `json:"amount"`
	Currency      string `json:"currency"`
	Source        string `json:"source"`
	ReferenceType string `json:"reference_type,omitempty"`
	ReferenceID   string `json:"reference_id,omitempty"`
}

// DocumentAttachedEvent payload
type DocumentAttachedEvent struct {
	MovementID string `json:"movement_id"`
	TenantID   string `json:"tenant_id"`
	DocumentID string `json:"document_id"`
}

// ExpenseStatusChangedEvent payload
type ExpenseStatusChangedEvent struct {
	ExpenseID  string `json:"expense_id"`
	TenantID   string `json:"tenant_id"`
	Status     string `json:"status"`
	ReviewedBy string `json:"reviewed_by,omitempty"`
}
