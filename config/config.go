package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type HTTP struct {
	Port           string
	AllowedOrigins []string
	MaxBodyBytes   int64
	RequestTimeout time.Duration
	RateLimitRPS   float64
	RateLimitBurst int
}

type Mongo struct {
	URI          string
	Database     string
	WriteTimeout time.Duration
}

type Auth struct {
	AccessTokenSecret              string
	AccessTokenExpiry              time.Duration
	RefreshTokenSecret             string
	RefreshTokenExpiry             time.Duration
	BcryptCost                     int
	RevokeSessionsOnPasswordChange bool
}

type Cookie struct {
	Secure bool
	Domain string
}

type Log struct {
	Level      string
	JSON       bool
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

type Storage struct {
	Provider string // "r2" or "gcs"

	R2Bucket       string
	R2AccessKey    string
	R2SecretKey    string
	R2Endpoint     string
	R2PublicDomain string

	GCSBucket          string
	GCSCredentialsFile string

	MaxUploadSizeMB   int
	AllowedExtensions []string
	AllowedMimeTypes  []string
}

type Redis struct {
	Addr            string
	Password        string
	DB              int
	ChannelCacheTTL time.Duration
}

type Config struct {
	Env     string
	HTTP    HTTP
	Mongo   Mongo
	Auth    Auth
	Cookie  Cookie
	Log     Log
	Storage Storage
	Redis   Redis
}

func (c *Config) IsProduction() bool { return c.Env == "production" }

// Load reads .env (if present) and the process environment. Secrets and the
// database URI have no defaults; their absence is a startup error.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromViper(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("APP_ENV", "development")
	v.SetDefault("PORT", "8000")
	v.SetDefault("CORS_ORIGIN", "")
	v.SetDefault("MAX_BODY_BYTES", 16<<20)
	v.SetDefault("REQUEST_TIMEOUT", "15s")
	v.SetDefault("AUTH_RATE_LIMIT_RPS", 5)
	v.SetDefault("AUTH_RATE_LIMIT_BURST", 10)

	v.SetDefault("DATABASE_NAME", "videotube")
	v.SetDefault("MONGODB_WRITE_TIMEOUT", "5s")

	v.SetDefault("ACCESS_TOKEN_EXPIRY", "15m")
	v.SetDefault("REFRESH_TOKEN_EXPIRY", "240h")
	v.SetDefault("AUTH_BCRYPT_COST", 10)
	v.SetDefault("AUTH_REVOKE_SESSIONS_ON_PASSWORD_CHANGE", false)

	v.SetDefault("COOKIE_SECURE", true)

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_JSON", false)
	v.SetDefault("LOG_MAX_SIZE_MB", 50)
	v.SetDefault("LOG_MAX_BACKUPS", 5)
	v.SetDefault("LOG_MAX_AGE_DAYS", 14)

	v.SetDefault("STORAGE_PROVIDER", "r2")
	v.SetDefault("MAX_UPLOAD_SIZE_MB", 5)
	v.SetDefault("ALLOWED_FILE_EXTENSIONS", ".jpg,.jpeg,.png,.webp,.gif")
	v.SetDefault("ALLOWED_FILE_MIME_TYPES", "image/jpeg,image/png,image/webp,image/gif")

	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CHANNEL_CACHE_TTL", "30s")
	return v
}

func FromViper(v *viper.Viper) (*Config, error) {
	c := &Config{
		Env: v.GetString("APP_ENV"),
		HTTP: HTTP{
			Port:           v.GetString("PORT"),
			AllowedOrigins: splitList(v.GetString("CORS_ORIGIN")),
			MaxBodyBytes:   v.GetInt64("MAX_BODY_BYTES"),
			RequestTimeout: v.GetDuration("REQUEST_TIMEOUT"),
			RateLimitRPS:   v.GetFloat64("AUTH_RATE_LIMIT_RPS"),
			RateLimitBurst: v.GetInt("AUTH_RATE_LIMIT_BURST"),
		},
		Mongo: Mongo{
			URI:          v.GetString("MONGODB_URI"),
			Database:     v.GetString("DATABASE_NAME"),
			WriteTimeout: v.GetDuration("MONGODB_WRITE_TIMEOUT"),
		},
		Auth: Auth{
			AccessTokenSecret:              v.GetString("ACCESS_TOKEN_SECRET"),
			AccessTokenExpiry:              v.GetDuration("ACCESS_TOKEN_EXPIRY"),
			RefreshTokenSecret:             v.GetString("REFRESH_TOKEN_SECRET"),
			RefreshTokenExpiry:             v.GetDuration("REFRESH_TOKEN_EXPIRY"),
			BcryptCost:                     v.GetInt("AUTH_BCRYPT_COST"),
			RevokeSessionsOnPasswordChange: v.GetBool("AUTH_REVOKE_SESSIONS_ON_PASSWORD_CHANGE"),
		},
		Cookie: Cookie{
			Secure: v.GetBool("COOKIE_SECURE"),
			Domain: v.GetString("COOKIE_DOMAIN"),
		},
		Log: Log{
			Level:      v.GetString("LOG_LEVEL"),
			JSON:       v.GetBool("LOG_JSON"),
			File:       v.GetString("LOG_FILE"),
			MaxSizeMB:  v.GetInt("LOG_MAX_SIZE_MB"),
			MaxBackups: v.GetInt("LOG_MAX_BACKUPS"),
			MaxAgeDays: v.GetInt("LOG_MAX_AGE_DAYS"),
		},
		Storage: Storage{
			Provider:           strings.ToLower(v.GetString("STORAGE_PROVIDER")),
			R2Bucket:           v.GetString("R2_BUCKET"),
			R2AccessKey:        v.GetString("R2_ACCESS_KEY_ID"),
			R2SecretKey:        v.GetString("R2_SECRET_ACCESS_KEY"),
			R2Endpoint:         v.GetString("R2_ENDPOINT"),
			R2PublicDomain:     v.GetString("R2_PUBLIC_DOMAIN"),
			GCSBucket:          v.GetString("GCS_BUCKET"),
			GCSCredentialsFile: v.GetString("CREDENTIALS_FILE_LOCATION"),
			MaxUploadSizeMB:    v.GetInt("MAX_UPLOAD_SIZE_MB"),
			AllowedExtensions:  splitList(v.GetString("ALLOWED_FILE_EXTENSIONS")),
			AllowedMimeTypes:   splitList(v.GetString("ALLOWED_FILE_MIME_TYPES")),
		},
		Redis: Redis{
			Addr:            v.GetString("REDIS_ADDR"),
			Password:        v.GetString("REDIS_PASSWORD"),
			DB:              v.GetInt("REDIS_DB"),
			ChannelCacheTTL: v.GetDuration("CHANNEL_CACHE_TTL"),
		},
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.Mongo.URI == "" {
		errs = append(errs, errors.New("MONGODB_URI is required"))
	}
	if c.Auth.AccessTokenSecret == "" {
		errs = append(errs, errors.New("ACCESS_TOKEN_SECRET is required"))
	}
	if c.Auth.RefreshTokenSecret == "" {
		errs = append(errs, errors.New("REFRESH_TOKEN_SECRET is required"))
	}
	if c.Auth.AccessTokenSecret != "" && c.Auth.AccessTokenSecret == c.Auth.RefreshTokenSecret {
		errs = append(errs, errors.New("ACCESS_TOKEN_SECRET and REFRESH_TOKEN_SECRET must differ"))
	}
	if c.Auth.AccessTokenExpiry <= 0 {
		errs = append(errs, errors.New("ACCESS_TOKEN_EXPIRY must be positive"))
	}
	if c.Auth.RefreshTokenExpiry <= c.Auth.AccessTokenExpiry {
		errs = append(errs, errors.New("REFRESH_TOKEN_EXPIRY must be longer than ACCESS_TOKEN_EXPIRY"))
	}
	switch c.Storage.Provider {
	case "r2", "gcs":
	default:
		errs = append(errs, fmt.Errorf("STORAGE_PROVIDER %q is not one of r2, gcs", c.Storage.Provider))
	}
	return errors.Join(errs...)
}

func splitList(s string) []string {
	out := make([]string, 0)
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
