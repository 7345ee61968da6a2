package config

import (
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string `mapstructure:"APP_PORT"`
	Env               string `mapstructure:"ENV"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`
	AppBaseURL        string `mapstructure:"APP_BASE_URL"`
	SiteURL           string `mapstructure:"SITE_URL"`
	PrimaryTimezone   string `mapstructure:"PRIMARY_TIMEZONE"`
	DefaultOwnerID    string `mapstructure:"DEFAULT_OWNER_ID"`
	JWTSecret         string `mapstructure:"JWT_SECRET"`
	TokenEncryptKey   string `mapstructure:"TOKEN_ENCRYPTION_KEY"`

	// Redis configuration.
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisCacheDB  int    `mapstructure:"REDIS_CACHE_DB"`

	// Language models.
	OpenAIAPIKey  string `mapstructure:"OPENAI_API_KEY"`
	OpenAIBaseURL string `mapstructure:"OPENAI_BASE_URL"`
	OpenAIModels  string `mapstructure:"OPENAI_MODELS"`
	GeminiAPIKey  string `mapstructure:"GEMINI_API_KEY"`
	GeminiModel   string `mapstructure:"GEMINI_MODEL"`
	AIModelOnly   bool   `mapstructure:"AI_MODEL_ONLY"`

	// Google Calendar + OAuth.
	GoogleClientID         string `mapstructure:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret     string `mapstructure:"GOOGLE_CLIENT_SECRET"`
	GoogleOAuthRedirectURI string `mapstructure:"GOOGLE_OAUTH_REDIRECT_URI"`
	GoogleCalendarID       string `mapstructure:"GOOGLE_CALENDAR_ID"`
	BusyICSURLs            string `mapstructure:"BUSY_ICS_URLS"`

	// Supabase row store.
	SupabaseURL        string `mapstructure:"SUPABASE_URL"`
	SupabaseServiceKey string `mapstructure:"SUPABASE_SERVICE_ROLE_KEY"`

	// Booking behaviour.
	StrictBooking        bool `mapstructure:"STRICT_BOOKING"`
	DebugBooking         bool `mapstructure:"DEBUG_BOOKING"`
	AllowFabricatedSlots bool `mapstructure:"ALLOW_FABRICATED_SLOTS"`
	SlotBufferMins       int  `mapstructure:"SLOT_BUFFER_MINS"`
	LeadTimeMins         int  `mapstructure:"LEAD_TIME_MINS"`
	ReducedLeadTimeMins  int  `mapstructure:"REDUCED_LEAD_TIME_MINS"`
	FabricateLeadMins    int  `mapstructure:"FABRICATE_LEAD_MINS"`
	FabricateMaxSlots    int  `mapstructure:"FABRICATE_MAX_SLOTS"`
	FabricateMaxDays     int  `mapstructure:"FABRICATE_MAX_DAYS"`
	SlotHoldSeconds      int  `mapstructure:"SLOT_HOLD_SECONDS"`

	BusinessHours map[string][]string `mapstructure:"BUSINESS_HOURS"`

	// Email.
	SMTPHost          string `mapstructure:"SMTP_HOST"`
	SMTPPort          int    `mapstructure:"SMTP_PORT"`
	SMTPUser          string `mapstructure:"SMTP_USER"`
	SMTPPass          string `mapstructure:"SMTP_PASS"`
	BookingsFromEmail string `mapstructure:"BOOKINGS_FROM_EMAIL"`
	FromEmail         string `mapstructure:"FROM_EMAIL"`
	OwnerNotifyEmail  string `mapstructure:"OWNER_NOTIFY_EMAIL"`

	// Stripe.
	StripeKey           string `mapstructure:"STRIPE_SECRET_KEY"`
	StripeWebhookSecret string `mapstructure:"STRIPE_WEBHOOK_SECRET"`
	StripePriceStarter  string `mapstructure:"STRIPE_PRICE_STARTER"`
	StripePriceGrowth   string `mapstructure:"STRIPE_PRICE_GROWTH"`
}

var AppConfig Config

// DefaultBusinessHours is Monday to Friday, 09:00-17:00.
func DefaultBusinessHours() map[string][]string {
	return map[string][]string{
		"mon": {"09:00-17:00"},
		"tue": {"09:00-17:00"},
		"wed": {"09:00-17:00"},
		"thu": {"09:00-17:00"},
		"fri": {"09:00-17:00"},
		"sat": {},
		"sun": {},
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "")
	v.SetDefault("MAX_REQUESTS_PER_MIN", 100)
	v.SetDefault("APP_BASE_URL", "http://localhost:8080")
	v.SetDefault("SITE_URL", "http://localhost:3000")
	v.SetDefault("PRIMARY_TIMEZONE", "America/New_York")
	v.SetDefault("DEFAULT_OWNER_ID", "")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("TOKEN_ENCRYPTION_KEY", "")

	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_CACHE_DB", 0)

	v.SetDefault("OPENAI_API_KEY", "")
	v.SetDefault("OPENAI_BASE_URL", "")
	v.SetDefault("OPENAI_MODELS", "gpt-4o-mini,gpt-4o,gpt-3.5-turbo")
	v.SetDefault("GEMINI_API_KEY", "")
	v.SetDefault("GEMINI_MODEL", "gemini-1.5-flash")
	v.SetDefault("AI_MODEL_ONLY", false)

	v.SetDefault("GOOGLE_CLIENT_ID", "")
	v.SetDefault("GOOGLE_CLIENT_SECRET", "")
	v.SetDefault("GOOGLE_OAUTH_REDIRECT_URI", "")
	v.SetDefault("GOOGLE_CALENDAR_ID", "primary")
	v.SetDefault("BUSY_ICS_URLS", "")

	v.SetDefault("SUPABASE_URL", "")
	v.SetDefault("SUPABASE_SERVICE_ROLE_KEY", "")

	v.SetDefault("STRICT_BOOKING", false)
	v.SetDefault("DEBUG_BOOKING", false)
	v.SetDefault("ALLOW_FABRICATED_SLOTS", true)
	v.SetDefault("SLOT_BUFFER_MINS", 10)
	v.SetDefault("LEAD_TIME_MINS", 120)
	v.SetDefault("REDUCED_LEAD_TIME_MINS", 60)
	v.SetDefault("FABRICATE_LEAD_MINS", 45)
	v.SetDefault("FABRICATE_MAX_SLOTS", 6)
	v.SetDefault("FABRICATE_MAX_DAYS", 14)
	v.SetDefault("SLOT_HOLD_SECONDS", 120)
	v.SetDefault("BUSINESS_HOURS", DefaultBusinessHours())

	v.SetDefault("SMTP_HOST", "")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("SMTP_USER", "")
	v.SetDefault("SMTP_PASS", "")
	v.SetDefault("BOOKINGS_FROM_EMAIL", "services@blueridge-ai.com")
	v.SetDefault("FROM_EMAIL", "")
	v.SetDefault("OWNER_NOTIFY_EMAIL", "")

	v.SetDefault("STRIPE_SECRET_KEY", "")
	v.SetDefault("STRIPE_WEBHOOK_SECRET", "")
	v.SetDefault("STRIPE_PRICE_STARTER", "")
	v.SetDefault("STRIPE_PRICE_GROWTH", "")
}

// Load reads configuration from config.yaml (if any) and the environment into a fresh Config.
func Load(v *viper.Viper) (Config, error) {
	// Look for a config file named "config.yaml" in the current and "config" directory.
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	// Automatically use environment variables where available.
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	if len(cfg.BusinessHours) == 0 {
		cfg.BusinessHours = DefaultBusinessHours()
	}
	return cfg, nil
}

func LoadConfig() {
	cfg, err := Load(viper.GetViper())
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	AppConfig = cfg
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}

// Location resolves PRIMARY_TIMEZONE, falling back to America/New_York and then UTC.
func (c Config) Location() *time.Location {
	for _, name := range []string{c.PrimaryTimezone, "America/New_York"} {
		if name == "" {
			continue
		}
		if loc, err := time.LoadLocation(name); err == nil {
			return loc
		}
	}
	return time.UTC
}

// Models returns the ordered OpenAI fallback list.
func (c Config) Models() []string {
	return SplitList(c.OpenAIModels)
}

// ICSFeeds returns the configured read-only busy feeds.
func (c Config) ICSFeeds() []string {
	return SplitList(c.BusyICSURLs)
}

// SplitList splits a comma separated setting, dropping blanks.
func SplitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// OwnerEmail is the inbox that receives booking notifications.
func (c Config) OwnerEmail() string {
	if c.FromEmail != "" {
		return c.FromEmail
	}
	return c.BookingsFromEmail
}
