package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
)

// Config aggregates every configuration section of the service.
type Config struct {
	Server   ServerConfig
	AI       AIConfig
	Channels ChannelConfig
	Dispatch DispatchConfig
	Store    StoreConfig
	Alert    AlertConfig
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	ai, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	channels, err := loadChannelConfig()
	if err != nil {
		return nil, err
	}

	dispatch, err := loadDispatchConfig()
	if err != nil {
		return nil, err
	}

	alert := AlertConfig{
		SlackWebhookURL: strings.TrimSpace(os.Getenv("SLACK_WEBHOOK_URL")),
	}

	store := StoreConfig{
		Driver: getEnvOrDefault("STORE_DRIVER", "sqlite"),
		DSN:    getEnvOrDefault("STORE_DSN", "mparb.db"),
	}

	return &Config{
		Server:   server,
		AI:       ai,
		Channels: channels,
		Dispatch: dispatch,
		Store:    store,
		Alert:    alert,
	}, nil
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr string
}

func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// Allow passing ":8080" or "127.0.0.1:8080" directly.
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// AIConfig describes the response-generation model.
type AIConfig struct {
	APIKey      string
	AccessKey   string
	SecretKey   string
	Model       string
	BaseURL     string
	Region      string
	Temperature *float64
	MaxTokens   *int
	Timeout     time.Duration
}

// Enabled reports whether the required model credentials are present.
func (c AIConfig) Enabled() bool {
	return c.Model != "" && (c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != ""))
}

// NewChatModel constructs a chat model instance from the configuration.
func (c AIConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("model credentials missing: provide ARK_API_KEY + ARK_MODEL or the AK/SK pair")
	}

	var temperature *float32
	if c.Temperature != nil {
		val := float32(*c.Temperature)
		temperature = &val
	}

	cfg := &ark.ChatModelConfig{
		BaseURL:     c.BaseURL,
		Region:      c.Region,
		APIKey:      c.APIKey,
		AccessKey:   c.AccessKey,
		SecretKey:   c.SecretKey,
		Model:       c.Model,
		MaxTokens:   c.MaxTokens,
		Temperature: temperature,
	}

	return ark.NewChatModel(ctx, cfg)
}

func loadAIConfig() (AIConfig, error) {
	temperature, err := parseOptionalFloatEnv("ARK_TEMPERATURE")
	if err != nil {
		return AIConfig{}, err
	}

	maxTokens, err := parseOptionalIntEnv("ARK_MAX_TOKENS")
	if err != nil {
		return AIConfig{}, err
	}

	timeout, err := parseDurationEnv("AI_TIMEOUT", 20*time.Second)
	if err != nil {
		return AIConfig{}, err
	}

	return AIConfig{
		APIKey:      strings.TrimSpace(os.Getenv("ARK_API_KEY")),
		AccessKey:   strings.TrimSpace(os.Getenv("ARK_ACCESS_KEY")),
		SecretKey:   strings.TrimSpace(os.Getenv("ARK_SECRET_KEY")),
		Model:       strings.TrimSpace(os.Getenv("ARK_MODEL")),
		BaseURL:     getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
		Region:      getEnvOrDefault("ARK_REGION", "cn-beijing"),
		Temperature: temperature,
		MaxTokens:   maxTokens,
		Timeout:     timeout,
	}, nil
}

// ChannelConfig describes the inbound channels and their sender destinations.
type ChannelConfig struct {
	// SessionWindow is the free-text messaging window for the
	// direct-message channels. The review channel has no window.
	SessionWindow time.Duration

	InstagramVerifyToken string
	WhatsAppVerifyToken  string

	InstagramSenderURL string
	WhatsAppSenderURL  string
	ReviewsSenderURL   string
	SenderAccessToken  string
}

func loadChannelConfig() (ChannelConfig, error) {
	window, err := parseDurationEnv("SESSION_WINDOW", 24*time.Hour)
	if err != nil {
		return ChannelConfig{}, err
	}

	return ChannelConfig{
		SessionWindow:        window,
		InstagramVerifyToken: strings.TrimSpace(os.Getenv("INSTAGRAM_VERIFY_TOKEN")),
		WhatsAppVerifyToken:  strings.TrimSpace(os.Getenv("WHATSAPP_VERIFY_TOKEN")),
		InstagramSenderURL:   getEnvOrDefault("INSTAGRAM_SENDER_URL", "http://localhost:8081/sender-instagram"),
		WhatsAppSenderURL:    getEnvOrDefault("WHATSAPP_SENDER_URL", "http://localhost:8081/sender-whatsapp"),
		ReviewsSenderURL:     getEnvOrDefault("GBP_SENDER_URL", "http://localhost:8081/sender-gbp"),
		SenderAccessToken:    strings.TrimSpace(os.Getenv("SENDER_ACCESS_TOKEN")),
	}, nil
}

// DispatchConfig bounds the outbound delivery attempts.
type DispatchConfig struct {
	MaxAttempts       int
	BackoffBase       time.Duration
	BackoffCap        time.Duration
	PerAttemptTimeout time.Duration
	PipelineTimeout   time.Duration
}

func loadDispatchConfig() (DispatchConfig, error) {
	attempts := 3
	if override, err := parseOptionalIntEnv("DISPATCH_MAX_ATTEMPTS"); err != nil {
		return DispatchConfig{}, err
	} else if override != nil {
		if *override < 1 {
			return DispatchConfig{}, fmt.Errorf("DISPATCH_MAX_ATTEMPTS must be at least 1, got %d", *override)
		}
		attempts = *override
	}

	base, err := parseDurationEnv("DISPATCH_BACKOFF_BASE", time.Second)
	if err != nil {
		return DispatchConfig{}, err
	}

	backoffCap, err := parseDurationEnv("DISPATCH_BACKOFF_CAP", 60*time.Second)
	if err != nil {
		return DispatchConfig{}, err
	}

	attemptTimeout, err := parseDurationEnv("DISPATCH_ATTEMPT_TIMEOUT", 10*time.Second)
	if err != nil {
		return DispatchConfig{}, err
	}

	pipelineTimeout, err := parseDurationEnv("PIPELINE_TIMEOUT", 2*time.Minute)
	if err != nil {
		return DispatchConfig{}, err
	}

	return DispatchConfig{
		MaxAttempts:       attempts,
		BackoffBase:       base,
		BackoffCap:        backoffCap,
		PerAttemptTimeout: attemptTimeout,
		PipelineTimeout:   pipelineTimeout,
	}, nil
}

// StoreConfig selects the persistent store backend.
type StoreConfig struct {
	Driver string
	DSN    string
}

// AlertConfig describes the alerting channel.
type AlertConfig struct {
	SlackWebhookURL string
}

// Enabled reports whether an alerting destination is configured.
func (c AlertConfig) Enabled() bool {
	return c.SlackWebhookURL != ""
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	if val <= 0 {
		return 0, fmt.Errorf("invalid %s value %q: must be positive", key, raw)
	}
	return val, nil
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
