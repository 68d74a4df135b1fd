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
	PublicBaseURL string
	LogLevel      string

	// Lead intake
	LeadVariant        string
	LeadPath           string
	MandatoryAdapter   string
	DeliveryTimeout    time.Duration
	MaxAttachments     int
	MaxAttachmentBytes int64

	// Spreadsheet
	SheetsWebhookURL      string
	SheetsSpreadsheetID   string
	SheetsRange           string
	SheetsCredentialsFile string

	// HubSpot CRM
	HubSpotAPIKey     string
	HubSpotBaseURL    string
	HubSpotLeadSource string

	// Email
	EmailProvider     string
	ResendAPIKey      string
	ResendBaseURL     string
	SendGridAPIKey    string
	MailgunDomain     string
	MailgunAPIKey     string
	SESConfigSet      string
	EmailFromAddress  string
	EmailFromName     string
	SystemFromAddress string
	SalesEmail        string

	// Storage
	DatabaseURL        string
	DatabaseDriver     string
	DynamoLeadsTable   string
	AttachmentsBucket  string
	LeadEventsQueueURL string

	// AWS
	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpointOverride string

	// Redis
	RedisAddr     string
	RedisPassword string
	RedisTLS      bool

	RateLimitPerMinute  int
	AdminJWTSecret      string
	AdminAllowedOrigins string

	// Confirmation page analytics
	GAMeasurementID     string
	AdsConversionSendTo string
	SupportPhone        string
	KakaoChannelURL     string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		PublicBaseURL: getEnv("PUBLIC_BASE_URL", ""),
		LogLevel:      getEnv("LOG_LEVEL", "info"),

		LeadVariant:        strings.ToLower(strings.TrimSpace(getEnv("LEAD_VARIANT", "inquiry"))),
		LeadPath:           getEnv("LEAD_PATH", ""),
		MandatoryAdapter:   strings.ToLower(strings.TrimSpace(getEnv("MANDATORY_ADAPTER", ""))),
		DeliveryTimeout:    getEnvAsDuration("DELIVERY_TIMEOUT", 10*time.Second),
		MaxAttachments:     getEnvAsInt("MAX_ATTACHMENTS", 5),
		MaxAttachmentBytes: getEnvAsInt64("MAX_ATTACHMENT_BYTES", 10<<20),

		SheetsWebhookURL:      getEnv("GOOGLE_SHEETS_WEBHOOK_URL", ""),
		SheetsSpreadsheetID:   getEnv("GOOGLE_SHEETS_SPREADSHEET_ID", ""),
		SheetsRange:           getEnv("GOOGLE_SHEETS_RANGE", "Leads!A1"),
		SheetsCredentialsFile: getEnv("GOOGLE_SHEETS_CREDENTIALS_FILE", ""),

		HubSpotAPIKey:     getEnv("HUBSPOT_API_KEY", ""),
		HubSpotBaseURL:    getEnv("HUBSPOT_BASE_URL", "https://api.hubapi.com"),
		HubSpotLeadSource: getEnv("HUBSPOT_LEAD_SOURCE", "Korea LP - Demand Validation"),

		EmailProvider:     strings.ToLower(strings.TrimSpace(getEnv("EMAIL_PROVIDER", "auto"))),
		ResendAPIKey:      getEnv("RESEND_API_KEY", ""),
		ResendBaseURL:     getEnv("RESEND_BASE_URL", "https://api.resend.com"),
		SendGridAPIKey:    getEnv("SENDGRID_API_KEY", ""),
		MailgunDomain:     getEnv("MAILGUN_DOMAIN", ""),
		MailgunAPIKey:     getEnv("MAILGUN_API_KEY", ""),
		SESConfigSet:      getEnv("SES_CONFIGURATION_SET", ""),
		EmailFromAddress:  getEnv("EMAIL_FROM_ADDRESS", "noreply@visitplus.kr"),
		EmailFromName:     getEnv("EMAIL_FROM_NAME", "VisitPlus Korea"),
		SystemFromAddress: getEnv("SYSTEM_FROM_ADDRESS", "system@visitplus.kr"),
		SalesEmail:        getEnv("SALES_EMAIL", "sales@visitplus.kr"),

		DatabaseURL:        getEnv("DATABASE_URL", ""),
		DatabaseDriver:     strings.ToLower(strings.TrimSpace(getEnv("DATABASE_DRIVER", "postgres"))),
		DynamoLeadsTable:   getEnv("DYNAMODB_LEADS_TABLE", "lead_submissions"),
		AttachmentsBucket:  getEnv("ATTACHMENTS_BUCKET", ""),
		LeadEventsQueueURL: getEnv("LEAD_EVENTS_QUEUE_URL", ""),

		AWSRegion:           getEnv("AWS_REGION", "ap-northeast-2"),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),

		RateLimitPerMinute:  getEnvAsInt("RATE_LIMIT_PER_MINUTE", 20),
		AdminJWTSecret:      getEnv("ADMIN_JWT_SECRET", ""),
		AdminAllowedOrigins: getEnv("ADMIN_ALLOWED_ORIGINS", ""),

		GAMeasurementID:     getEnv("GA_MEASUREMENT_ID", ""),
		AdsConversionSendTo: getEnv("ADS_CONVERSION_SEND_TO", ""),
		SupportPhone:        getEnv("SUPPORT_PHONE", "02-1234-5678"),
		KakaoChannelURL:     getEnv("KAKAO_CHANNEL_URL", ""),
	}
}

// HubSpotEnabled reports whether a real HubSpot token is configured.
// The development placeholder shipped in sample env files does not count.
func (c *Config) HubSpotEnabled() bool {
	key := strings.TrimSpace(c.HubSpotAPIKey)
	return key != "" && key != "dummy_hubspot_api_key_for_development"
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

func getEnvAsInt64(key string, defaultValue int64) int64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseInt(valueStr, 10, 64); err == nil {
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
