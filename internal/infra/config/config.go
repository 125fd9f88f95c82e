package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type AppConfig struct {
	App       AppSettings       `mapstructure:"app"`
	Postgres  PostgresSettings  `mapstructure:"postgres"`
	Redis     RedisSettings     `mapstructure:"redis"`
	Kafka     KafkaSettings     `mapstructure:"kafka"`
	JWT       JWTSettings       `mapstructure:"jwt"`
	Email     EmailSettings     `mapstructure:"email"`
	Storage   StorageSettings   `mapstructure:"storage"`
	AI        AISettings        `mapstructure:"ai"`
	Cache     CacheSettings     `mapstructure:"cache"`
	OTP       OTPSettings       `mapstructure:"otp"`
	Lockout   LockoutSettings   `mapstructure:"lockout"`
	RateLimit RateLimitSettings `mapstructure:"rate_limit"`
}

type AppSettings struct {
	Name           string   `mapstructure:"name"`
	Env            string   `mapstructure:"env"`
	Host           string   `mapstructure:"host"`
	Port           int      `mapstructure:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// IsDev reports whether the service runs with a development configuration.
func (s AppSettings) IsDev() bool {
	return s.Env != "production"
}

type PostgresSettings struct {
	Host              string        `mapstructure:"host"`
	Port              int           `mapstructure:"port"`
	User              string        `mapstructure:"user"`
	Password          string        `mapstructure:"password"`
	Database          string        `mapstructure:"database"`
	SSLMode           string        `mapstructure:"ssl_mode"`
	MaxConns          int32         `mapstructure:"max_conns"`
	MinConns          int32         `mapstructure:"min_conns"`
	MaxConnLifetime   time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime   time.Duration `mapstructure:"max_conn_idle_time"`
	HealthCheckPeriod time.Duration `mapstructure:"health_check_period"`
}

// RedisSettings configures the optional Redis backend for the IP rate
// limiter. Leaving Host empty keeps every limiter in process memory.
type RedisSettings struct {
	Host       string `mapstructure:"host"`
	Port       int    `mapstructure:"port"`
	DB         int    `mapstructure:"db"`
	Password   string `mapstructure:"password"`
	TLSEnabled bool   `mapstructure:"tls_enabled"`
}

// Enabled reports whether a Redis backend is configured.
func (s RedisSettings) Enabled() bool {
	return strings.TrimSpace(s.Host) != ""
}

// KafkaSettings configures the audit event producer.
type KafkaSettings struct {
	Brokers     []string `mapstructure:"brokers"`
	TopicPrefix string   `mapstructure:"topic_prefix"`
}

type JWTSettings struct {
	Secret          string        `mapstructure:"secret"`
	RefreshSecret   string        `mapstructure:"refresh_secret"`
	AccessTokenTTL  time.Duration `mapstructure:"access_token_ttl"`
	RefreshTokenTTL time.Duration `mapstructure:"refresh_token_ttl"`
}

// RefreshEnabled reports whether refresh token issuance is configured.
func (s JWTSettings) RefreshEnabled() bool {
	return strings.TrimSpace(s.RefreshSecret) != ""
}

// EmailSettings configures the SendGrid transactional email sender.
type EmailSettings struct {
	SendGridAPIKey string        `mapstructure:"sendgrid_api_key"`
	FromEmail      string        `mapstructure:"from_email"`
	FromName       string        `mapstructure:"from_name"`
	SendTimeout    time.Duration `mapstructure:"send_timeout"`
}

// StorageSettings configures the MinIO object storage used for PDF uploads.
type StorageSettings struct {
	Endpoint  string        `mapstructure:"endpoint"`
	AccessKey string        `mapstructure:"access_key"`
	SecretKey string        `mapstructure:"secret_key"`
	Bucket    string        `mapstructure:"bucket"`
	UseSSL    bool          `mapstructure:"use_ssl"`
	URLExpiry time.Duration `mapstructure:"url_expiry"`
}

// Enabled reports whether object storage is configured.
func (s StorageSettings) Enabled() bool {
	return strings.TrimSpace(s.Endpoint) != ""
}

// AISettings configures the Gemini quiz generation client.
type AISettings struct {
	GeminiAPIKey string        `mapstructure:"gemini_api_key"`
	Model        string        `mapstructure:"model"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

// CacheSettings configures the in-memory response cache.
type CacheSettings struct {
	DefaultTTL    time.Duration `mapstructure:"default_ttl"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

// OTPSettings configures one-time code issuance and verification.
type OTPSettings struct {
	IssueLimit        int           `mapstructure:"issue_limit"`
	IssueWindow       time.Duration `mapstructure:"issue_window"`
	MaxAttempts       int           `mapstructure:"max_attempts"`
	RegistrationTTL   time.Duration `mapstructure:"registration_ttl"`
	ResetTTL          time.Duration `mapstructure:"reset_ttl"`
	VerifiedMarkTTL   time.Duration `mapstructure:"verified_mark_ttl"`
	VerifiedMarksFile string        `mapstructure:"verified_marks_file"`
	SweepInterval     time.Duration `mapstructure:"sweep_interval"`
}

// LockoutSettings configures the per-(email,IP) login failure counter.
type LockoutSettings struct {
	MaxFailures int           `mapstructure:"max_failures"`
	Window      time.Duration `mapstructure:"window"`
}

// RateLimitSettings configures the per-IP sliding window limits applied in
// front of the auth endpoints.
type RateLimitSettings struct {
	WindowDuration           time.Duration `mapstructure:"window_duration"`
	LoginMaxAttempts         int           `mapstructure:"login_max_attempts"`
	SendOTPMaxAttempts       int           `mapstructure:"send_otp_max_attempts"`
	PasswordResetMaxAttempts int           `mapstructure:"password_reset_max_attempts"`
}

func Load() (*AppConfig, error) {
	v := viper.New()

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetEnvPrefix("CAPREP")

	setDefaults(v)

	if err := bindEnvs(v, []string{
		"app.name",
		"app.env",
		"app.host",
		"app.port",
		"app.allowed_origins",
		"postgres.host",
		"postgres.port",
		"postgres.user",
		"postgres.password",
		"postgres.database",
		"postgres.ssl_mode",
		"postgres.max_conns",
		"postgres.min_conns",
		"postgres.max_conn_lifetime",
		"postgres.max_conn_idle_time",
		"postgres.health_check_period",
		"redis.host",
		"redis.port",
		"redis.db",
		"redis.password",
		"redis.tls_enabled",
		"kafka.brokers",
		"kafka.topic_prefix",
		"jwt.secret",
		"jwt.refresh_secret",
		"jwt.access_token_ttl",
		"jwt.refresh_token_ttl",
		"email.sendgrid_api_key",
		"email.from_email",
		"email.from_name",
		"email.send_timeout",
		"storage.endpoint",
		"storage.access_key",
		"storage.secret_key",
		"storage.bucket",
		"storage.use_ssl",
		"storage.url_expiry",
		"ai.gemini_api_key",
		"ai.model",
		"ai.timeout",
		"cache.default_ttl",
		"cache.sweep_interval",
		"otp.issue_limit",
		"otp.issue_window",
		"otp.max_attempts",
		"otp.registration_ttl",
		"otp.reset_ttl",
		"otp.verified_mark_ttl",
		"otp.verified_marks_file",
		"otp.sweep_interval",
		"lockout.max_failures",
		"lockout.window",
		"rate_limit.window_duration",
		"rate_limit.login_max_attempts",
		"rate_limit.send_otp_max_attempts",
		"rate_limit.password_reset_max_attempts",
	}); err != nil {
		return nil, err
	}

	v.AutomaticEnv()

	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if strings.TrimSpace(cfg.JWT.Secret) == "" {
		return nil, fmt.Errorf("jwt secret is required")
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "caprep-api")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.host", "0.0.0.0")
	v.SetDefault("app.port", 8080)
	v.SetDefault("app.allowed_origins", []string{})

	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.user", "caprep")
	v.SetDefault("postgres.password", "caprep_password")
	v.SetDefault("postgres.database", "caprep")
	v.SetDefault("postgres.ssl_mode", "disable")
	v.SetDefault("postgres.max_conns", 10)
	v.SetDefault("postgres.min_conns", 2)
	v.SetDefault("postgres.max_conn_lifetime", "60m")
	v.SetDefault("postgres.max_conn_idle_time", "15m")
	v.SetDefault("postgres.health_check_period", "30s")

	v.SetDefault("redis.host", "")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.tls_enabled", false)

	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.topic_prefix", "caprep")

	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.refresh_secret", "")
	v.SetDefault("jwt.access_token_ttl", "24h")
	v.SetDefault("jwt.refresh_token_ttl", "168h")

	v.SetDefault("email.sendgrid_api_key", "")
	v.SetDefault("email.from_email", "noreply@caprep.example.com")
	v.SetDefault("email.from_name", "CAprep Support")
	v.SetDefault("email.send_timeout", "30s")

	v.SetDefault("storage.endpoint", "")
	v.SetDefault("storage.access_key", "")
	v.SetDefault("storage.secret_key", "")
	v.SetDefault("storage.bucket", "caprep-resources")
	v.SetDefault("storage.use_ssl", true)
	v.SetDefault("storage.url_expiry", "15m")

	v.SetDefault("ai.gemini_api_key", "")
	v.SetDefault("ai.model", "gemini-2.5-flash-lite")
	v.SetDefault("ai.timeout", "45s")

	v.SetDefault("cache.default_ttl", "300s")
	v.SetDefault("cache.sweep_interval", "60s")

	v.SetDefault("otp.issue_limit", 3)
	v.SetDefault("otp.issue_window", "15m")
	v.SetDefault("otp.max_attempts", 5)
	v.SetDefault("otp.registration_ttl", "15m")
	v.SetDefault("otp.reset_ttl", "10m")
	v.SetDefault("otp.verified_mark_ttl", "2h")
	v.SetDefault("otp.verified_marks_file", "./data/verified_emails.json")
	v.SetDefault("otp.sweep_interval", "60s")

	v.SetDefault("lockout.max_failures", 5)
	v.SetDefault("lockout.window", "15m")

	v.SetDefault("rate_limit.window_duration", "15m")
	v.SetDefault("rate_limit.login_max_attempts", 10)
	v.SetDefault("rate_limit.send_otp_max_attempts", 5)
	v.SetDefault("rate_limit.password_reset_max_attempts", 5)
}

func bindEnvs(v *viper.Viper, keys []string) error {
	for _, key := range keys {
		envKey := strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, "CAPREP_"+envKey, envKey); err != nil {
			return fmt.Errorf("bind env for %s: %w", key, err)
		}
	}
	return nil
}
