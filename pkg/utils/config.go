package utils

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// LoadDotEnv reads an optional .env file before config is assembled. A missing
// file is not an error; real env vars always win.
func LoadDotEnv() {
	_ = godotenv.Load()
}

type AuthConfig struct {
	JWTSecret   string
	JWTIssuer   string
	JWTDuration time.Duration
}

func LoadAuthConfig() AuthConfig {
	secret := os.Getenv("SWIPEREEL_JWT_SECRET")
	if secret == "" {
		// dev default (change for demo / production)
		secret = "dev-secret-change-me"
	}

	issuer := os.Getenv("SWIPEREEL_JWT_ISSUER")
	if issuer == "" {
		issuer = "swipereel"
	}

	dur := 24 * time.Hour
	if ttl := os.Getenv("SWIPEREEL_JWT_TTL_HOURS"); ttl != "" {
		if h, err := strconv.Atoi(ttl); err == nil && h > 0 {
			dur = time.Duration(h) * time.Hour
		}
	}

	return AuthConfig{
		JWTSecret:   secret,
		JWTIssuer:   issuer,
		JWTDuration: dur,
	}
}

type CatalogConfig struct {
	APIKey  string
	BaseURL string
}

func LoadCatalogConfig() CatalogConfig {
	base := os.Getenv("SWIPEREEL_TMDB_BASE_URL")
	if base == "" {
		base = "https://api.themoviedb.org/3"
	}
	return CatalogConfig{
		APIKey:  os.Getenv("SWIPEREEL_TMDB_API_KEY"),
		BaseURL: base,
	}
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

func LoadRedisConfig() RedisConfig {
	db := 0
	if v := os.Getenv("SWIPEREEL_REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			db = n
		}
	}
	return RedisConfig{
		Addr:     os.Getenv("SWIPEREEL_REDIS_ADDR"),
		Password: os.Getenv("SWIPEREEL_REDIS_PASSWORD"),
		DB:       db,
	}
}

type ShareConfig struct {
	SMTPAddr string // host:port; empty disables outbound mail
	From     string
	Username string
	Password string
}

func LoadShareConfig() ShareConfig {
	from := os.Getenv("SWIPEREEL_SMTP_FROM")
	if from == "" {
		from = "noreply@swipereel.local"
	}
	return ShareConfig{
		SMTPAddr: os.Getenv("SWIPEREEL_SMTP_ADDR"),
		From:     from,
		Username: os.Getenv("SWIPEREEL_SMTP_USERNAME"),
		Password: os.Getenv("SWIPEREEL_SMTP_PASSWORD"),
	}
}
