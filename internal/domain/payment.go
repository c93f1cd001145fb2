package domain

// PaymentStatus mirrors the tuition payment lifecycle owned by the payment
// collaborator. Only the completed transition reaches the ledger; failed
// payments never produce a movement.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
)

// Settleable reports whether a payment in this status may reach the
// ledger. An empty status is accepted for senders that only notify on
// completion.
func (s PaymentStatus) Settleable() bool {
	return s == "" || s == PaymentStatusCompleted
}
