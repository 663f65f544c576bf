package config

import (
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	Debug bool `env:"DEBUG" envDefault:"false"`

	Server struct {
		Port           int      `env:"PORT" envDefault:"5100"`
		AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`
		BodyLimitMB    int      `env:"BODY_LIMIT_MB" envDefault:"25"`
	}

	DatabaseURL string `env:"DATABASE_URL,required"`

	Redis struct {
		Addr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
		Password string `env:"REDIS_PASSWORD" envDefault:""`
		DB       int    `env:"REDIS_DB" envDefault:"0"`
	}

	JWTSecret string `env:"JWT_SECRET,required"`

	Admin struct {
		Email    string `env:"ADMIN_EMAIL,required"`
		Password string `env:"ADMIN_PASSWORD,required"`
	}

	OTP struct {
		TTL         time.Duration `env:"OTP_TTL" envDefault:"5m"`
		MaxAttempts int           `env:"OTP_MAX_ATTEMPTS" envDefault:"3"`
		Cooldown    time.Duration `env:"OTP_RESEND_COOLDOWN" envDefault:"60s"`
	}

	Mail struct {
		APIURL string `env:"MAIL_API_URL" envDefault:"https://api.resend.com/emails"`
		APIKey string `env:"MAIL_API_KEY"` // empty = dev mode, codes are logged instead
		From   string `env:"MAIL_FROM" envDefault:"BattleManager <no-reply@battlemanager.app>"`
	}

	R2 struct {
		AccountID       string `env:"CLOUDFLARE_ACCOUNT_ID"`
		AccessKeyID     string `env:"R2_ACCESS_KEY_ID"`
		AccessKeySecret string `env:"R2_ACCESS_KEY_SECRET"`
		Bucket          string `env:"R2_BUCKET_NAME"`
		CDNBaseURL      string `env:"CDN_BASE_URL"`
	}

	// 64 hex chars (32 bytes) used to encrypt tournament room credentials.
	CredentialsKey string `env:"CREDENTIALS_KEY"`

	Chat struct {
		RetentionMaxAge time.Duration `env:"CHAT_RETENTION_MAX_AGE" envDefault:"720h"`
		RetentionKeep   int           `env:"CHAT_RETENTION_KEEP" envDefault:"500"`
		SweepInterval   time.Duration `env:"CHAT_SWEEP_INTERVAL" envDefault:"1h"`
	}
}

func Load() (*Config, error) {
	// .env is optional; in production the variables are set directly.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
