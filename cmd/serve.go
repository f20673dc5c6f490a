package cmd

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/neobotlabs/neobot/app/controller"
	"github.com/neobotlabs/neobot/app/discord"
	"github.com/neobotlabs/neobot/app/dispatch"
	"github.com/neobotlabs/neobot/app/provider"
	"github.com/neobotlabs/neobot/app/service"
	"github.com/neobotlabs/neobot/config"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the bot gateway and the webhook HTTP server",
	Long:  "Connect to the Discord gateway, register the /buy command, and serve the payment processor's webhook endpoint.",
	Run:   runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) {
	// Configuration failures must halt before any listener binds.
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}
	if err := configureLogging(cfg); err != nil {
		logrus.WithError(err).Fatal("Failed to configure logging")
	}

	mercadoPago := provider.NewMercadoPagoProvider(provider.MercadoPagoConfig{
		AccessToken:     cfg.MercadoPago.AccessToken,
		BaseURL:         cfg.MercadoPago.BaseURL,
		NotificationURL: notificationURL(cfg.MercadoPago.WebhookBaseURL, "mercadopago"),
		HTTPTimeout:     cfg.MercadoPago.HTTPTimeout,
	})
	providerRegistry := provider.NewRegistry(mercadoPago)

	dispatcher := dispatch.New(cfg.Dispatch.QueueSize)

	session, err := discord.NewSession(cfg.Discord)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to create discord session")
	}

	purchaseService := service.NewPurchaseService(providerRegistry, session, dispatcher, cfg.Discord, cfg.VIP)
	session.RegisterCommands(purchaseService, mercadoPago.Name())

	webhookController := controller.NewWebhookController(purchaseService)
	e := setupHTTPServer(webhookController)

	if err := session.Open(); err != nil {
		logrus.WithError(err).Fatal("Failed to connect to the discord gateway")
	}

	runCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go dispatcher.Run(runCtx)

	go func() {
		httpAddr := net.JoinHostPort(cfg.HTTP.Host, cfg.HTTP.Port)
		logrus.WithField("addr", httpAddr).Info("Starting HTTP server")
		if err := e.Start(httpAddr); err != nil && err != http.ErrServerClosed {
			logrus.WithError(err).Fatal("HTTP server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("Shutting down...")

	dispatcher.Close()
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Warn("HTTP shutdown error")
	}
	if err := session.Close(); err != nil {
		logrus.WithError(err).Warn("Discord session close error")
	}

	logrus.Info("Server stopped")
}

func setupHTTPServer(webhookController *controller.WebhookController) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	e.Use(echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogURI:      true,
		LogStatus:   true,
		LogMethod:   true,
		LogRemoteIP: true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(_ echo.Context, v echomiddleware.RequestLoggerValues) error {
			fields := logrus.Fields{
				"remote_ip": v.RemoteIP,
				"method":    v.Method,
				"uri":       v.URI,
				"status":    v.Status,
				"latency":   v.Latency.String(),
			}
			entry := logrus.WithFields(fields)
			if v.Error != nil {
				entry = entry.WithError(v.Error)
			}
			entry.Info("http_request")
			return nil
		},
	}))
	e.Use(echomiddleware.Recover())

	e.GET("/health", webhookController.Health)
	e.POST("/webhook/:provider", webhookController.HandleProviderNotification)

	return e
}

func notificationURL(baseURL, providerName string) string {
	return strings.TrimRight(strings.TrimSpace(baseURL), "/") + "/webhook/" + providerName
}
