package provider

import (
	"context"

	"github.com/neobotlabs/neobot/app/entity"
)

type CreateInput struct {
	AmountCents       int64
	Description       string
	ExternalReference string
	IdempotencyKey    string

	PayerEmail     string
	PayerFirstName string
}

type CreateOutput struct {
	PaymentID  string
	QRCodePNG  []byte
	QRCodeText string
}

type Provider interface {
	// Name is the provider's webhook path segment.
	Name() string
	CreatePixPayment(ctx context.Context, input *CreateInput) (*CreateOutput, error)
	GetPayment(ctx context.Context, paymentID string) (*entity.PaymentRecord, error)
}
