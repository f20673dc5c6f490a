package controller

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/neobotlabs/neobot/app/factory"
	"github.com/neobotlabs/neobot/app/service"
	"github.com/neobotlabs/neobot/app/types"
)

type notificationProcessor interface {
	ProcessNotification(ctx context.Context, providerName, paymentID string) error
}

type WebhookController struct {
	purchases notificationProcessor
	logger    logrus.FieldLogger
}

func NewWebhookController(purchases notificationProcessor) *WebhookController {
	return &WebhookController{
		purchases: purchases,
		logger:    factory.NewModuleLogger("webhook-controller"),
	}
}

func (c *WebhookController) Health(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, &types.HealthResponse{Status: "ok"})
}

// HandleProviderNotification acknowledges the processor with 200 on every
// recognized path. A non-2xx here triggers the processor's retry machinery,
// so downstream failures are logged and swallowed; only a body that is not
// JSON at all earns a 400.
func (c *WebhookController) HandleProviderNotification(ctx echo.Context) error {
	notification, err := types.NewPaymentNotificationFromContext(ctx)
	if err != nil {
		return c.writeError(ctx, http.StatusBadRequest, "invalid request body")
	}

	providerName := strings.ToLower(strings.TrimSpace(ctx.Param("provider")))
	log := factory.LoggerWithContext(c.logger, ctx).WithField("provider", providerName)

	if !notification.Actionable() {
		// Unrecognized or irrelevant event types are expected traffic.
		log.WithField("type", notification.Type).Debug("notification_ignored")
		return ctx.String(http.StatusOK, "OK")
	}

	log = log.WithField("payment_id", notification.PaymentID)
	log.Info("payment_notification_received")

	err = c.purchases.ProcessNotification(ctx.Request().Context(), providerName, notification.PaymentID)
	switch {
	case err == nil:
	case errors.Is(err, service.ErrReferenceInvalid):
		// Money arrived with no identifiable recipient. Needs an operator;
		// the processor is still acknowledged.
		log.WithError(err).Error("approved_payment_unattributable")
	case errors.Is(err, service.ErrPaymentLookupFailed):
		// Acceptable loss beats a retry storm: the processor already
		// committed this payment as terminal history.
		log.WithError(err).Warn("payment_lookup_failed")
	case errors.Is(err, service.ErrProviderUnsupported):
		log.WithError(err).Warn("notification_for_unknown_provider")
	default:
		log.WithError(err).Error("notification_processing_failed")
	}

	return ctx.String(http.StatusOK, "OK")
}

func (c *WebhookController) writeError(ctx echo.Context, statusCode int, message string) error {
	return ctx.JSON(statusCode, &types.ErrorResponse{Error: message})
}
