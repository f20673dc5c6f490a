package entity

// Processor-side payment statuses as returned by the payments API. Anything
// outside this set is treated as not approved.
const (
	PaymentStatusPending  = "pending"
	PaymentStatusApproved = "approved"
	PaymentStatusRejected = "rejected"
)

// PaymentRecord is the authoritative state of a payment, always fetched fresh
// from the processor. The notification body itself is never trusted.
type PaymentRecord struct {
	ID                string
	Status            string
	ExternalReference string
	TransactionAmount float64
}

func (r *PaymentRecord) Approved() bool {
	return r.Status == PaymentStatusApproved
}
