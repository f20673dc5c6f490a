package types

import (
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

func notificationFromBody(t *testing.T, body string) (*PaymentNotification, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest("POST", "/webhook/mercadopago", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return NewPaymentNotificationFromContext(e.NewContext(req, rec))
}

func TestNewPaymentNotificationStringID(t *testing.T) {
	n, err := notificationFromBody(t, `{"type":"payment","data":{"id":"abc123"}}`)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if n.Type != "payment" || n.PaymentID != "abc123" {
		t.Fatalf("unexpected notification: %+v", n)
	}
	if !n.Actionable() {
		t.Fatal("expected notification to be actionable")
	}
}

func TestNewPaymentNotificationNumericID(t *testing.T) {
	n, err := notificationFromBody(t, `{"type":"payment","data":{"id":123456789}}`)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if n.PaymentID != "123456789" {
		t.Fatalf("unexpected payment id: %q", n.PaymentID)
	}
}

func TestNewPaymentNotificationIrrelevantType(t *testing.T) {
	n, err := notificationFromBody(t, `{"type":"plan","data":{"id":"abc123"}}`)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if n.Actionable() {
		t.Fatal("expected non-payment notification to be inactionable")
	}
}

func TestNewPaymentNotificationMissingID(t *testing.T) {
	for _, body := range []string{
		`{"type":"payment"}`,
		`{"type":"payment","data":{}}`,
		`{"type":"payment","data":{"id":""}}`,
	} {
		n, err := notificationFromBody(t, body)
		if err != nil {
			t.Fatalf("body %s: expected no error, got %v", body, err)
		}
		if n.Actionable() {
			t.Fatalf("body %s: expected inactionable notification", body)
		}
	}
}

func TestNewPaymentNotificationMalformedBody(t *testing.T) {
	if _, err := notificationFromBody(t, `{not json`); err == nil {
		t.Fatal("expected error for malformed body")
	}
}

func TestParseExternalReferenceRoundTrip(t *testing.T) {
	userID := uint64(555)
	ref := strconv.FormatUint(userID, 10)

	parsed, err := ParseExternalReference(ref)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	back, err := strconv.ParseUint(parsed, 10, 64)
	if err != nil {
		t.Fatalf("parsed reference is not numeric: %v", err)
	}
	if back != userID {
		t.Fatalf("reference did not round-trip: got %d want %d", back, userID)
	}
}

func TestParseExternalReferenceRejectsGarbage(t *testing.T) {
	for _, ref := range []string{"", "  ", "user-555", "-1", "12.5"} {
		if _, err := ParseExternalReference(ref); err == nil {
			t.Fatalf("expected error for reference %q", ref)
		}
	}
}
