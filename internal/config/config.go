// Package config reads runtime settings from the environment. A .env file is
// loaded first unless APP_ENV is production.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreSQLite = "sqlite"
	StoreMongo  = "mongo"

	MediaDB  = "db"
	MediaS3  = "s3"
	MediaGCS = "gcs"
)

type S3 struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	PublicURL string
}

type GCS struct {
	Bucket          string
	CredentialsFile string
}

type Log struct {
	Level  string
	Format string // text, json or both
	File   string // rotated log file pattern; empty logs to stderr
	MaxAge time.Duration
}

type Config struct {
	Port         string
	Env          string
	JWTSecret    string
	CookieSecure bool
	BcryptCost   int

	StoreDriver   string
	DatabasePath  string
	MongoURI      string
	MongoDatabase string

	MediaDriver string
	S3          S3
	GCS         GCS

	Log Log

	LoginRate  float64 // tokens per second per client
	LoginBurst float64
}

// IsProduction reports whether APP_ENV is production.
func (c *Config) IsProduction() bool { return c.Env == "production" }

// Load reads the environment. envFiles are passed to godotenv and default to
// .env; a missing file is not an error.
func Load(envFiles ...string) (*Config, error) {
	if os.Getenv("APP_ENV") != "production" {
		if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load env file: %w", err)
		}
	}

	var errs []error
	cfg := &Config{
		Port:         getEnv("PORT", "8080"),
		Env:          getEnv("APP_ENV", "development"),
		JWTSecret:    os.Getenv("JWT_SECRET"),
		CookieSecure: os.Getenv("COOKIE_SECURE") != "false",
		BcryptCost:   getInt("BCRYPT_COST", 12, &errs),

		StoreDriver:   strings.ToLower(getEnv("STORE_DRIVER", StoreSQLite)),
		DatabasePath:  getEnv("DATABASE_PATH", "book-exchange.db"),
		MongoURI:      getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase: getEnv("MONGO_DATABASE", "book_exchange"),

		MediaDriver: strings.ToLower(getEnv("MEDIA_DRIVER", MediaDB)),
		S3: S3{
			Endpoint:  os.Getenv("S3_ENDPOINT"),
			Region:    getEnv("S3_REGION", "auto"),
			Bucket:    os.Getenv("S3_BUCKET"),
			AccessKey: os.Getenv("S3_ACCESS_KEY_ID"),
			SecretKey: os.Getenv("S3_SECRET_ACCESS_KEY"),
			PublicURL: os.Getenv("S3_PUBLIC_BASE_URL"),
		},
		GCS: GCS{
			Bucket:          os.Getenv("GCS_BUCKET"),
			CredentialsFile: os.Getenv("GCS_CREDENTIALS_FILE"),
		},

		Log: Log{
			Level:  strings.ToLower(getEnv("LOG_LEVEL", "info")),
			Format: strings.ToLower(getEnv("LOG_FORMAT", "both")),
			File:   os.Getenv("LOG_FILE"),
			MaxAge: getDuration("LOG_MAX_AGE", 7*24*time.Hour, &errs),
		},

		LoginRate:  getFloat("LOGIN_RATE", 0.2, &errs),
		LoginBurst: getFloat("LOGIN_BURST", 5, &errs),
	}

	errs = append(errs, cfg.validate()...)
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return cfg, nil
}

func (c *Config) validate() []error {
	var errs []error
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	} else if len(c.JWTSecret) < 32 {
		errs = append(errs, errors.New("JWT_SECRET must be at least 32 characters for HMAC-SHA256 security"))
	}
	if c.BcryptCost < 4 || c.BcryptCost > 14 {
		errs = append(errs, fmt.Errorf("BCRYPT_COST must be between 4 and 14, got %d", c.BcryptCost))
	}

	switch c.StoreDriver {
	case StoreSQLite:
	case StoreMongo:
		if c.MongoURI == "" {
			errs = append(errs, errors.New("MONGO_URI is required for the mongo store"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver))
	}

	switch c.MediaDriver {
	case MediaDB:
	case MediaS3:
		if c.S3.Bucket == "" {
			errs = append(errs, errors.New("S3_BUCKET is required for the s3 media driver"))
		}
	case MediaGCS:
		if c.GCS.Bucket == "" {
			errs = append(errs, errors.New("GCS_BUCKET is required for the gcs media driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown MEDIA_DRIVER %q", c.MediaDriver))
	}

	switch c.Log.Format {
	case "text", "json", "both":
	default:
		errs = append(errs, fmt.Errorf("unknown LOG_FORMAT %q", c.Log.Format))
	}

	if c.LoginRate < 0 || c.LoginBurst < 1 {
		errs = append(errs, errors.New("LOGIN_RATE must be >= 0 and LOGIN_BURST >= 1"))
	}
	return errs
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int, errs *[]error) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("invalid %s: %w", key, err))
		return fallback
	}
	return n
}

func getFloat(key string, fallback float64, errs *[]error) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("invalid %s: %w", key, err))
		return fallback
	}
	return f
}

func getDuration(key string, fallback time.Duration, errs *[]error) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("invalid %s: %w", key, err))
		return fallback
	}
	return d
}
