package controller

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/neobotlabs/neobot/app/service"
)

type stubProcessor struct {
	processFn func(ctx context.Context, providerName, paymentID string) error
	calls     []string
}

func (p *stubProcessor) ProcessNotification(ctx context.Context, providerName, paymentID string) error {
	p.calls = append(p.calls, providerName+":"+paymentID)
	if p.processFn != nil {
		return p.processFn(ctx, providerName, paymentID)
	}
	return nil
}

func postWebhook(t *testing.T, c *WebhookController, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/webhook/mercadopago", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	ctx := e.NewContext(req, rec)
	ctx.SetPath("/webhook/:provider")
	ctx.SetParamNames("provider")
	ctx.SetParamValues("mercadopago")

	if err := c.HandleProviderNotification(ctx); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	return rec
}

func TestWebhookIrrelevantTypeIsAcknowledgedWithoutProcessing(t *testing.T) {
	processor := &stubProcessor{}
	c := NewWebhookController(processor)

	rec := postWebhook(t, c, `{"type":"plan","data":{"id":"abc123"}}`)
	if rec.Code != http.StatusOK || rec.Body.String() != "OK" {
		t.Fatalf("unexpected response: %d %q", rec.Code, rec.Body.String())
	}
	if len(processor.calls) != 0 {
		t.Fatalf("expected no processing calls, got %v", processor.calls)
	}
}

func TestWebhookMissingPaymentIDBehavesLikeIrrelevantType(t *testing.T) {
	processor := &stubProcessor{}
	c := NewWebhookController(processor)

	rec := postWebhook(t, c, `{"type":"payment","data":{}}`)
	if rec.Code != http.StatusOK || rec.Body.String() != "OK" {
		t.Fatalf("unexpected response: %d %q", rec.Code, rec.Body.String())
	}
	if len(processor.calls) != 0 {
		t.Fatalf("expected no processing calls, got %v", processor.calls)
	}
}

func TestWebhookPaymentNotificationIsProcessedOnce(t *testing.T) {
	processor := &stubProcessor{}
	c := NewWebhookController(processor)

	rec := postWebhook(t, c, `{"type":"payment","data":{"id":"abc123"}}`)
	if rec.Code != http.StatusOK || rec.Body.String() != "OK" {
		t.Fatalf("unexpected response: %d %q", rec.Code, rec.Body.String())
	}
	if len(processor.calls) != 1 || processor.calls[0] != "mercadopago:abc123" {
		t.Fatalf("unexpected processing calls: %v", processor.calls)
	}
}

func TestWebhookAcknowledgesDespiteProcessingFailures(t *testing.T) {
	for _, failure := range []error{
		fmt.Errorf("%w: status=500", service.ErrPaymentLookupFailed),
		fmt.Errorf("%w: payment_id=abc123", service.ErrReferenceInvalid),
		service.ErrProviderUnsupported,
		fmt.Errorf("unexpected"),
	} {
		processor := &stubProcessor{processFn: func(context.Context, string, string) error { return failure }}
		c := NewWebhookController(processor)

		rec := postWebhook(t, c, `{"type":"payment","data":{"id":"abc123"}}`)
		if rec.Code != http.StatusOK || rec.Body.String() != "OK" {
			t.Fatalf("failure %v: unexpected response: %d %q", failure, rec.Code, rec.Body.String())
		}
	}
}

func TestWebhookNonJSONBodyIsBadRequest(t *testing.T) {
	processor := &stubProcessor{}
	c := NewWebhookController(processor)

	rec := postWebhook(t, c, `{not json`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for a non-JSON body, got %d", rec.Code)
	}
	if len(processor.calls) != 0 {
		t.Fatalf("expected no processing calls, got %v", processor.calls)
	}
}

func TestHealth(t *testing.T) {
	c := NewWebhookController(&stubProcessor{})
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	if err := c.Health(e.NewContext(req, rec)); err != nil {
		t.Fatalf("health returned error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
}
