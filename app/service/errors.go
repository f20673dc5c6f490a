package service

import "errors"

var (
	ErrInvalidRequest        = errors.New("invalid request")
	ErrProviderUnsupported   = errors.New("provider is not supported")
	ErrPaymentCreationFailed = errors.New("payment creation failed")
	ErrPaymentLookupFailed   = errors.New("payment lookup failed")
	// ErrReferenceInvalid marks an approved payment whose external reference
	// does not identify a user: money received, no recipient. Raised as a
	// distinct anomaly instead of the silent not-approved drop.
	ErrReferenceInvalid      = errors.New("approved payment has no usable external reference")
	ErrDeliveryTargetMissing = errors.New("delivery target is missing")
)
