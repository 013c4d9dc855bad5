package config

import (
	"os"
	"strings"
	"time"
)

type Config struct {
	Environment string // ENV: production, development, etc.
	Port        string
	Host        string

	DatabaseDriver string // postgres or sqlite
	PostgresURI    string
	SQLitePath     string
	AutoMigrate    bool

	RedisURI string
	MongoURI string

	JWTSecret      string
	FrontendURL    string
	AllowedOrigins []string // CORS: from ALLOWED_ORIGINS or FRONTEND_URL(s)
	TrustProxy     bool     // read client IP from X-Forwarded-For

	CloudinaryName      string
	CloudinaryAPIKey    string
	CloudinaryAPISecret string
	MediaUploadTimeout  time.Duration

	OpenWeatherAPIKey string
	OpenWeatherURL    string
}

func Load() *Config {
	env := strings.ToLower(strings.TrimSpace(getEnv("ENV", "development")))

	allowedOrigins := parseOrigins(getEnv("ALLOWED_ORIGINS", ""))
	if len(allowedOrigins) == 0 {
		for _, u := range []string{getEnv("FRONTEND_URL", "http://localhost:3000"), getEnv("FRONTEND_URL_2", "")} {
			u = strings.TrimSpace(u)
			if u != "" && !containsOrigin(allowedOrigins, u) {
				allowedOrigins = append(allowedOrigins, u)
			}
		}
	}
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"http://localhost:3000"}
	}

	return &Config{
		Environment:         env,
		Port:                getEnv("PORT", "8080"),
		Host:                getEnv("HOST", "http://localhost:8080"),
		DatabaseDriver:      strings.ToLower(getEnv("DATABASE_DRIVER", "postgres")),
		PostgresURI:         getEnv("POSTGRES_URI", getEnv("DATABASE_URL", "postgres://localhost:5432/agrowtify?sslmode=disable")),
		SQLitePath:          getEnv("SQLITE_PATH", "agrowtify.db"),
		AutoMigrate:         getEnvBool("DB_AUTO_MIGRATE", true),
		RedisURI:            getEnv("REDIS_URI", "redis://localhost:6379/0"),
		MongoURI:            getEnv("MONGODB_URI", getEnv("MONGO_URI", "mongodb://localhost:27017/agrowtify")),
		JWTSecret:           getEnv("JWT_SECRET", "your-secret-key-change-in-production"),
		FrontendURL:         getEnv("FRONTEND_URL", "http://localhost:3000"),
		AllowedOrigins:      allowedOrigins,
		TrustProxy:          getEnvBool("TRUST_PROXY", false),
		CloudinaryName:      getEnv("CLOUDINARY_CLOUD_NAME", ""),
		CloudinaryAPIKey:    getEnv("CLOUDINARY_API_KEY", ""),
		CloudinaryAPISecret: getEnv("CLOUDINARY_API_SECRET", ""),
		MediaUploadTimeout:  getEnvDuration("MEDIA_UPLOAD_TIMEOUT", 2*time.Minute),
		OpenWeatherAPIKey:   getEnv("OPENWEATHER_API_KEY", ""),
		OpenWeatherURL:      getEnv("OPENWEATHER_URL", "https://api.openweathermap.org/data/2.5/onecall"),
	}
}

func parseOrigins(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func containsOrigin(list []string, o string) bool {
	o = strings.TrimSpace(strings.ToLower(o))
	for _, v := range list {
		if strings.TrimSpace(strings.ToLower(v)) == o {
			return true
		}
	}
	return false
}

// IsProduction returns true when ENV is set to "production".
func (c *Config) IsProduction() bool {
	return strings.ToLower(strings.TrimSpace(c.Environment)) == "production"
}

// CloudinaryConfigured reports whether all three Cloudinary credentials are present.
func (c *Config) CloudinaryConfigured() bool {
	return c.CloudinaryName != "" && c.CloudinaryAPIKey != "" && c.CloudinaryAPISecret != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "":
		return defaultValue
	case "false", "0", "no", "off":
		return false
	default:
		return true
	}
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return defaultValue
	}
	return d
}
