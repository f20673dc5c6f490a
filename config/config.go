package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App         AppConfig
	HTTP        ServerConfig
	Log         LogConfig
	Discord     DiscordConfig
	MercadoPago MercadoPagoConfig
	VIP         VIPConfig
	Dispatch    DispatchConfig
}

type AppConfig struct {
	ServiceName string
}

type ServerConfig struct {
	Host string
	Port string
}

type LogConfig struct {
	Level string
}

type DiscordConfig struct {
	Token        string
	GuildID      string
	VIPRoleID    string
	LogChannelID string
}

type MercadoPagoConfig struct {
	AccessToken    string
	BaseURL        string
	WebhookBaseURL string
	HTTPTimeout    time.Duration
}

type VIPConfig struct {
	PriceCents  int64
	Description string
}

type DispatchConfig struct {
	QueueSize int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	discordToken := os.Getenv("DISCORD_TOKEN")
	if discordToken == "" {
		return nil, errors.New("DISCORD_TOKEN environment variable is required")
	}
	mpAccessToken := os.Getenv("MP_ACCESS_TOKEN")
	if mpAccessToken == "" {
		return nil, errors.New("MP_ACCESS_TOKEN environment variable is required")
	}
	guildID := os.Getenv("DISCORD_GUILD_ID")
	if guildID == "" {
		return nil, errors.New("DISCORD_GUILD_ID environment variable is required")
	}
	vipRoleID := os.Getenv("DISCORD_VIP_ROLE_ID")
	if vipRoleID == "" {
		return nil, errors.New("DISCORD_VIP_ROLE_ID environment variable is required")
	}
	logChannelID := os.Getenv("DISCORD_LOG_CHANNEL_ID")
	if logChannelID == "" {
		return nil, errors.New("DISCORD_LOG_CHANNEL_ID environment variable is required")
	}
	webhookBaseURL := os.Getenv("WEBHOOK_BASE_URL")
	if webhookBaseURL == "" {
		return nil, errors.New("WEBHOOK_BASE_URL environment variable is required")
	}

	return &Config{
		App: AppConfig{
			ServiceName: getEnv("APP_SERVICE_NAME", "neobot"),
		},
		HTTP: ServerConfig{
			Host: getEnv("HTTP_HOST", "0.0.0.0"),
			Port: getEnv("PORT", "8080"),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Discord: DiscordConfig{
			Token:        discordToken,
			GuildID:      guildID,
			VIPRoleID:    vipRoleID,
			LogChannelID: logChannelID,
		},
		MercadoPago: MercadoPagoConfig{
			AccessToken:    mpAccessToken,
			BaseURL:        getEnv("MP_BASE_URL", "https://api.mercadopago.com"),
			WebhookBaseURL: webhookBaseURL,
			HTTPTimeout:    getSecondsEnv("MP_HTTP_TIMEOUT_SECONDS", 10*time.Second),
		},
		VIP: VIPConfig{
			PriceCents:  getInt64Env("VIP_PRICE_CENTS", 100),
			Description: getEnv("VIP_DESCRIPTION", "VIP access on the server"),
		},
		Dispatch: DispatchConfig{
			QueueSize: getIntEnv("DISPATCH_QUEUE_SIZE", 64),
		},
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getInt64Env(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.ParseInt(value, 10, 64); err == nil {
			return n
		}
	}
	return defaultValue
}

func getSecondsEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if seconds, err := strconv.Atoi(value); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return defaultValue
}
