package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port          string
	Env           string
	LogLevel      string
	DatabaseURL   string
	PublicBaseURL string

	// DefaultOrgID scopes requests that carry no explicit organization,
	// for single-org deployments.
	DefaultOrgID string

	// Default WhatsApp gateway credentials, used when a tenant has no
	// settings row of its own.
	GatewayBaseURL  string
	GatewayAPIKey   string
	GatewayInstance string
	GatewayTimeout  time.Duration

	// Outbound dispatch pacing
	DispatchSendDelay   time.Duration
	DispatchSendTimeout time.Duration

	// Inbound reply context
	ContextTurnLimit int

	// Reply generation
	LLMProvider    string
	GeminiAPIKey   string
	GeminiModelID  string
	BedrockModelID string
	ReplyMaxTokens int
	FallbackReply  string

	// Sender identity used for placeholder substitution
	SenderCompany  string
	SenderName     string
	SenderCategory string

	AWSRegion          string
	AWSAccessKeyID     string
	AWSSecretAccessKey string

	RedisAddr     string
	RedisPassword string
	RedisTLS      bool

	AdminJWTSecret string

	// SendGrid dispatch summary notifications
	SendGridAPIKey    string
	SendGridFromEmail string
	SendGridFromName  string
	DispatchReportTo  string

	CORSAllowedOrigins []string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		DatabaseURL:   getEnv("DATABASE_URL", ""),
		PublicBaseURL: getEnv("PUBLIC_BASE_URL", ""),

		DefaultOrgID: getEnv("DEFAULT_ORG_ID", "default"),

		GatewayBaseURL:  getEnv("GATEWAY_BASE_URL", ""),
		GatewayAPIKey:   getEnv("GATEWAY_API_KEY", ""),
		GatewayInstance: getEnv("GATEWAY_INSTANCE", ""),
		GatewayTimeout:  getEnvAsDuration("GATEWAY_TIMEOUT", 30*time.Second),

		DispatchSendDelay:   getEnvAsDuration("DISPATCH_SEND_DELAY", 500*time.Millisecond),
		DispatchSendTimeout: getEnvAsDuration("DISPATCH_SEND_TIMEOUT", 30*time.Second),

		ContextTurnLimit: getEnvAsInt("CONTEXT_TURN_LIMIT", 10),

		LLMProvider:    strings.ToLower(strings.TrimSpace(getEnv("LLM_PROVIDER", "gemini"))),
		GeminiAPIKey:   getEnv("GEMINI_API_KEY", ""),
		GeminiModelID:  getEnv("GEMINI_MODEL_ID", "gemini-2.5-flash"),
		BedrockModelID: getEnv("BEDROCK_MODEL_ID", ""),
		ReplyMaxTokens: getEnvAsInt("REPLY_MAX_TOKENS", 300),
		FallbackReply:  getEnv("FALLBACK_REPLY", "Obrigado pela sua mensagem! Em breve um de nossos consultores entrará em contato."),

		SenderCompany:  getEnv("SENDER_COMPANY", ""),
		SenderName:     getEnv("SENDER_NAME", ""),
		SenderCategory: getEnv("SENDER_CATEGORY", ""),

		AWSRegion:          getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),

		AdminJWTSecret: getEnv("ADMIN_JWT_SECRET", ""),

		SendGridAPIKey:    getEnv("SENDGRID_API_KEY", ""),
		SendGridFromEmail: getEnv("SENDGRID_FROM_EMAIL", ""),
		SendGridFromName:  getEnv("SENDGRID_FROM_NAME", "ZapLeads"),
		DispatchReportTo:  getEnv("DISPATCH_REPORT_TO", ""),

		CORSAllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS"),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsSlice(key string) []string {
	raw := getEnv(key, "")
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if v := strings.TrimSpace(p); v != "" {
			out = append(out, v)
		}
	}
	return out
}
