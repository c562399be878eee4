package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	defaultJWTSecret    = "change-me-jwt-secret"
	defaultLoginPepper  = "change-me-login-code-pepper"
	defaultDatabaseURL  = "labbook.db"
	defaultAMQPExchange = "labbook.bookings"
)

type Config struct {
	AppEnv      string `mapstructure:"APP_ENV"`
	AppPort     string `mapstructure:"APP_PORT"`
	DatabaseURL string `mapstructure:"DATABASE_URL"`

	JWTSecret string        `mapstructure:"JWT_SECRET"`
	JWTTTL    time.Duration `mapstructure:"JWT_TTL"`

	LoginCodePepper     string        `mapstructure:"LOGIN_CODE_PEPPER"`
	LoginCodeTTL        time.Duration `mapstructure:"LOGIN_CODE_TTL"`
	LoginResendCooldown time.Duration `mapstructure:"LOGIN_RESEND_COOLDOWN"`
	LoginMaxAttempts    int           `mapstructure:"LOGIN_MAX_ATTEMPTS"`

	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`

	AMQPURL      string `mapstructure:"AMQP_URL"`
	AMQPExchange string `mapstructure:"AMQP_EXCHANGE"`

	CORSAllowedOrigins string `mapstructure:"CORS_ALLOWED_ORIGINS"`
	AuthRatePerMin     int    `mapstructure:"AUTH_RATE_PER_MIN"`
	AuthRateBurst      int    `mapstructure:"AUTH_RATE_BURST"`

	DevMailer    bool   `mapstructure:"DEV_MAILER"`
	SMTPAddr     string `mapstructure:"SMTP_ADDR"`
	SMTPFrom     string `mapstructure:"SMTP_FROM"`
	SMTPUser     string `mapstructure:"SMTP_USER"`
	SMTPPassword string `mapstructure:"SMTP_PASSWORD"`
}

var defaults = map[string]any{
	"APP_ENV":               "dev",
	"APP_PORT":              "8080",
	"DATABASE_URL":          defaultDatabaseURL,
	"JWT_SECRET":            defaultJWTSecret,
	"JWT_TTL":               "24h",
	"LOGIN_CODE_PEPPER":     defaultLoginPepper,
	"LOGIN_CODE_TTL":        "10m",
	"LOGIN_RESEND_COOLDOWN": "60s",
	"LOGIN_MAX_ATTEMPTS":    5,
	"REDIS_ADDR":            "",
	"REDIS_PASSWORD":        "",
	"REDIS_DB":              0,
	"AMQP_URL":              "",
	"AMQP_EXCHANGE":         defaultAMQPExchange,
	"CORS_ALLOWED_ORIGINS":  "",
	"AUTH_RATE_PER_MIN":     20,
	"AUTH_RATE_BURST":       5,
	"DEV_MAILER":            true,
	"SMTP_ADDR":             "",
	"SMTP_FROM":             "",
	"SMTP_USER":             "",
	"SMTP_PASSWORD":         "",
}

// Load reads .env (if any), an optional config.yaml and the environment, in increasing priority.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.AppEnv = strings.ToLower(strings.TrimSpace(cfg.AppEnv))

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return isProdLike(c.AppEnv)
}

// AllowedOrigins splits CORS_ALLOWED_ORIGINS on commas.
func (c *Config) AllowedOrigins() []string {
	var out []string
	for _, o := range strings.Split(c.CORSAllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.AppPort) == "" {
		return fmt.Errorf("APP_PORT must not be empty")
	}
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL must not be empty")
	}
	if c.JWTTTL <= 0 {
		return fmt.Errorf("JWT_TTL must be > 0")
	}
	if c.LoginCodeTTL <= 0 {
		return fmt.Errorf("LOGIN_CODE_TTL must be > 0")
	}
	if c.LoginResendCooldown < 0 {
		return fmt.Errorf("LOGIN_RESEND_COOLDOWN must be >= 0")
	}
	if c.LoginMaxAttempts <= 0 {
		return fmt.Errorf("LOGIN_MAX_ATTEMPTS must be > 0")
	}
	if c.AuthRatePerMin <= 0 || c.AuthRateBurst <= 0 {
		return fmt.Errorf("AUTH_RATE_PER_MIN and AUTH_RATE_BURST must be > 0")
	}
	if !c.DevMailer && (c.SMTPAddr == "" || c.SMTPFrom == "") {
		return fmt.Errorf("SMTP_ADDR and SMTP_FROM are required when DEV_MAILER=false")
	}

	if c.IsProduction() {
		if isEmptyOrDefault(c.JWTSecret, defaultJWTSecret) {
			return fmt.Errorf("in prod/release JWT_SECRET must be set and not default")
		}
		if isEmptyOrDefault(c.LoginCodePepper, defaultLoginPepper) {
			return fmt.Errorf("in prod/release LOGIN_CODE_PEPPER must be set and not default")
		}
		if c.DevMailer {
			return fmt.Errorf("in prod/release DEV_MAILER must be false")
		}
	}
	return nil
}

func isProdLike(env string) bool {
	env = strings.ToLower(strings.TrimSpace(env))
	return env == "prod" || env == "production" || env == "release"
}

func isEmptyOrDefault(v, def string) bool {
	v = strings.TrimSpace(v)
	return v == "" || v == def
}
