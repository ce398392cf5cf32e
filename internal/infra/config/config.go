package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Env         string
	HTTPAddress string

	MongoURL      string
	MongoDatabase string

	RedisAddress  string
	RedisPassword string
	RedisDB       int

	AccessTokenSecret     string
	RefreshTokenSecret    string
	ActivationTokenSecret string
	AccessTokenTTL        time.Duration
	RefreshTokenTTL       time.Duration
	ActivationTokenTTL    time.Duration
	JWTIssuer             string

	CookieDomain     string
	AllowedOrigins   []string
	AllowCredentials bool

	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	MailFrom     string

	CloudinaryURL string

	PurgeSchedule string
}

var keys = []string{
	"ENV",
	"HTTP_ADDRESS",
	"MONGO_URL",
	"MONGO_DATABASE",
	"REDIS_ADDRESS",
	"REDIS_PASSWORD",
	"REDIS_DB",
	"ACCESS_TOKEN_SECRET",
	"REFRESH_TOKEN_SECRET",
	"ACTIVATION_TOKEN_SECRET",
	"ACCESS_TOKEN_TTL",
	"REFRESH_TOKEN_TTL",
	"ACTIVATION_TOKEN_TTL",
	"JWT_ISSUER",
	"COOKIE_DOMAIN",
	"ALLOWED_ORIGINS",
	"ALLOW_CREDENTIALS",
	"SMTP_HOST",
	"SMTP_PORT",
	"SMTP_USER",
	"SMTP_PASSWORD",
	"MAIL_FROM",
	"CLOUDINARY_URL",
	"PURGE_SCHEDULE",
}

var required = []string{
	"MONGO_URL",
	"REDIS_ADDRESS",
	"ACCESS_TOKEN_SECRET",
	"REFRESH_TOKEN_SECRET",
	"ACTIVATION_TOKEN_SECRET",
}

func Load() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	for _, key := range keys {
		if err := v.BindEnv(key); err != nil {
			return nil, err
		}
	}

	v.SetDefault("ENV", "local")
	v.SetDefault("HTTP_ADDRESS", ":8080")
	v.SetDefault("MONGO_DATABASE", "learnora")
	v.SetDefault("ACCESS_TOKEN_TTL", "5m")
	v.SetDefault("REFRESH_TOKEN_TTL", "72h")
	v.SetDefault("ACTIVATION_TOKEN_TTL", "5m")
	v.SetDefault("JWT_ISSUER", "learnora")
	v.SetDefault("SMTP_PORT", 587)
	// every night at midnight
	v.SetDefault("PURGE_SCHEDULE", "0 0 * * *")

	for _, key := range required {
		if v.GetString(key) == "" {
			return nil, fmt.Errorf("config: %s is not set", key)
		}
	}

	cfg := &Config{
		Env:                   v.GetString("ENV"),
		HTTPAddress:           v.GetString("HTTP_ADDRESS"),
		MongoURL:              v.GetString("MONGO_URL"),
		MongoDatabase:         v.GetString("MONGO_DATABASE"),
		RedisAddress:          v.GetString("REDIS_ADDRESS"),
		RedisPassword:         v.GetString("REDIS_PASSWORD"),
		RedisDB:               v.GetInt("REDIS_DB"),
		AccessTokenSecret:     v.GetString("ACCESS_TOKEN_SECRET"),
		RefreshTokenSecret:    v.GetString("REFRESH_TOKEN_SECRET"),
		ActivationTokenSecret: v.GetString("ACTIVATION_TOKEN_SECRET"),
		AccessTokenTTL:        v.GetDuration("ACCESS_TOKEN_TTL"),
		RefreshTokenTTL:       v.GetDuration("REFRESH_TOKEN_TTL"),
		ActivationTokenTTL:    v.GetDuration("ACTIVATION_TOKEN_TTL"),
		JWTIssuer:             v.GetString("JWT_ISSUER"),
		CookieDomain:          v.GetString("COOKIE_DOMAIN"),
		AllowedOrigins:        v.GetStringSlice("ALLOWED_ORIGINS"),
		AllowCredentials:      v.GetBool("ALLOW_CREDENTIALS"),
		SMTPHost:              v.GetString("SMTP_HOST"),
		SMTPPort:              v.GetInt("SMTP_PORT"),
		SMTPUser:              v.GetString("SMTP_USER"),
		SMTPPassword:          v.GetString("SMTP_PASSWORD"),
		MailFrom:              v.GetString("MAIL_FROM"),
		CloudinaryURL:         v.GetString("CLOUDINARY_URL"),
		PurgeSchedule:         v.GetString("PURGE_SCHEDULE"),
	}

	if cfg.AccessTokenTTL <= 0 || cfg.RefreshTokenTTL <= 0 || cfg.ActivationTokenTTL <= 0 {
		return nil, fmt.Errorf("config: token TTLs must be positive")
	}

	return cfg, nil
}

// Local reports whether the process runs without TLS termination in front;
// the secure cookie flag follows it.
func (c *Config) Local() bool {
	return c.Env == "local"
}
