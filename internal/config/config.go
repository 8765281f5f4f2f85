package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all service configuration loaded from environment variables.
type Config struct {
	Port string

	MongoURI string
	MongoDB  string

	// UserBackend selects the user directory: "mongo" or "postgres".
	UserBackend string
	PostgresDSN string

	RedisAddr     string
	RedisPassword string

	// MediaBackend selects the media store: "minio" or "s3".
	MediaBackend   string
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool
	MediaPublicURL string
	S3Region       string
	S3Endpoint     string

	JWTSecret      string
	AccessTokenTTL time.Duration
	BcryptCost     int

	MaxUploadBytes    int64
	ReconcileSchedule string

	LogLevel    string
	LogFormat   string
	CORSOrigins []string
}

// Load reads the configuration and checks that required values are present.
func Load() (*Config, error) {
	cfg := &Config{
		Port:              getenv("PORT", "8080"),
		MongoURI:          getenv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:           getenv("MONGO_DB", "imagehub"),
		UserBackend:       strings.ToLower(getenv("USER_BACKEND", "mongo")),
		PostgresDSN:       getenv("POSTGRES_DSN", ""),
		RedisAddr:         getenv("REDIS_ADDR", "redis:6379"),
		RedisPassword:     getenv("REDIS_PASSWORD", ""),
		MediaBackend:      strings.ToLower(getenv("MEDIA_BACKEND", "minio")),
		MinioEndpoint:     getenv("MINIO_ENDPOINT", "minio:9000"),
		MinioAccessKey:    getenv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey:    getenv("MINIO_SECRET_KEY", ""),
		MinioBucket:       getenv("MINIO_BUCKET", "images"),
		MinioUseSSL:       getenv("MINIO_USE_SSL", "false") == "true",
		MediaPublicURL:    getenv("MEDIA_PUBLIC_URL", ""),
		S3Region:          getenv("S3_REGION", "us-east-1"),
		S3Endpoint:        getenv("S3_ENDPOINT", ""),
		JWTSecret:         getenv("JWT_SECRET_KEY", ""),
		ReconcileSchedule: os.Getenv("RECONCILE_SCHEDULE"),
		LogLevel:          getenv("LOG_LEVEL", "info"),
		LogFormat:         getenv("LOG_FORMAT", "json"),
		CORSOrigins:       splitList(getenv("CORS_ORIGINS", "http://localhost:5173,http://localhost:3000")),
	}
	if _, set := os.LookupEnv("RECONCILE_SCHEDULE"); !set {
		cfg.ReconcileSchedule = "@every 10m"
	}

	var err error
	if cfg.AccessTokenTTL, err = time.ParseDuration(getenv("ACCESS_TOKEN_TTL", "15m")); err != nil {
		return nil, fmt.Errorf("ACCESS_TOKEN_TTL: %w", err)
	}
	if cfg.BcryptCost, err = strconv.Atoi(getenv("BCRYPT_COST", "10")); err != nil {
		return nil, fmt.Errorf("BCRYPT_COST: %w", err)
	}
	if cfg.MaxUploadBytes, err = strconv.ParseInt(getenv("MAX_UPLOAD_BYTES", "10485760"), 10, 64); err != nil {
		return nil, fmt.Errorf("MAX_UPLOAD_BYTES: %w", err)
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET_KEY is required")
	}
	switch cfg.UserBackend {
	case "mongo":
	case "postgres":
		if cfg.PostgresDSN == "" {
			return nil, fmt.Errorf("POSTGRES_DSN is required when USER_BACKEND=postgres")
		}
	default:
		return nil, fmt.Errorf("unknown USER_BACKEND %q", cfg.UserBackend)
	}
	switch cfg.MediaBackend {
	case "minio", "s3":
	default:
		return nil, fmt.Errorf("unknown MEDIA_BACKEND %q", cfg.MediaBackend)
	}

	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
