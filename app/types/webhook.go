package types

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
)

// PaymentNotification is an inbound, untrusted processor event. Only the event
// type and the nested payment id are read; everything else in the body is
// ignored and re-fetched from the processor instead.
type PaymentNotification struct {
	Type      string
	PaymentID string
}

func NewPaymentNotificationFromContext(ctx echo.Context) (*PaymentNotification, error) {
	var body struct {
		Type string `json:"type"`
		Data struct {
			ID json.RawMessage `json:"id"`
		} `json:"data"`
	}
	if err := json.NewDecoder(ctx.Request().Body).Decode(&body); err != nil {
		return nil, err
	}

	return &PaymentNotification{
		Type:      strings.TrimSpace(body.Type),
		PaymentID: decodePaymentID(body.Data.ID),
	}, nil
}

// Actionable reports whether this notification refers to a payment event this
// service handles. Irrelevant event types are expected traffic, not errors.
func (n *PaymentNotification) Actionable() bool {
	return n.Type == "payment" && n.PaymentID != ""
}

// The processor sends data.id either as a JSON string or as a number.
func decodePaymentID(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	if raw[0] == '"' {
		var s string
		if json.Unmarshal(raw, &s) == nil {
			return strings.TrimSpace(s)
		}
		return ""
	}
	var n json.Number
	if json.Unmarshal(raw, &n) == nil {
		return n.String()
	}
	return ""
}

var ErrReferenceNotNumeric = errors.New("external reference is not a numeric user id")

// ParseExternalReference validates that ref is the decimal user snowflake set
// as external_reference at payment creation and returns its canonical form.
// The round-trip must be lossless: the parsed value identifies the grant
// target.
func ParseExternalReference(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", ErrReferenceNotNumeric
	}
	id, err := strconv.ParseUint(ref, 10, 64)
	if err != nil {
		return "", ErrReferenceNotNumeric
	}
	return strconv.FormatUint(id, 10), nil
}
