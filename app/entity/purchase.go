package entity

import "time"

// Purchase lifecycle. Nothing between Requested and NotificationReceived is
// held in memory; correlation rides on the external reference round-trip.
const (
	PurchaseRequested            int32 = 1
	PurchaseNotificationReceived int32 = 2
	PurchaseStatusFetched        int32 = 3
	PurchaseDelivered            int32 = 10
	PurchaseDropped              int32 = 20
)

const PaymentMethodPix = "pix"

// Purchase is one attempt to buy access. It lives for a single command
// invocation and is never persisted; past purchases are only reconstructable
// from the processor's own history. Known gap inherited from the design.
type Purchase struct {
	UserID         string
	CorrelationID  string
	IdempotencyKey string
	AmountCents    int64
	PaymentMethod  string
	Status         int32
	CreatedAt      time.Time
}

// PurchaseInvoice is what the buyer sees: the rendered QR code plus the
// copy-paste Pix code.
type PurchaseInvoice struct {
	PaymentID  string
	QRCodePNG  []byte
	QRCodeText string
}
