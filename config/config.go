package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"weeromzet/models"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string
	StoreResults     bool

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	RapidAPIKey      string
	RapidAPIHost     string
	MeteostatBaseURL string
	WeatherLat       float64
	WeatherLon       float64
	WeatherCacheSize int
	WeatherCacheTTL  time.Duration

	MaxConcurrency int
	RateLimitMs    int
	MaxRetries     int

	HTTPPort       string
	MaxUploadBytes int

	CSVExportPath string
	ChromeBin     string
	LogLevel      string
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	return &Config{
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "weeromzet"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "weeromzet"),
		PostgresDB:       getEnv("POSTGRES_DB", "weeromzet"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
		StoreResults:     getEnvBool("STORE_RESULTS", false),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		RapidAPIKey:      getEnv("RAPIDAPI_KEY", ""),
		RapidAPIHost:     getEnv("RAPIDAPI_HOST", "meteostat.p.rapidapi.com"),
		MeteostatBaseURL: getEnv("METEOSTAT_BASE_URL", "https://meteostat.p.rapidapi.com"),
		WeatherLat:       getEnvFloat("WEATHER_LAT", models.Amsterdam.Lat),
		WeatherLon:       getEnvFloat("WEATHER_LON", models.Amsterdam.Lon),
		WeatherCacheSize: getEnvInt("WEATHER_CACHE_SIZE", 100),
		WeatherCacheTTL:  getEnvDuration("WEATHER_CACHE_TTL", 24*time.Hour),

		MaxConcurrency: getEnvInt("MAX_CONCURRENCY", 3),
		RateLimitMs:    getEnvInt("RATE_LIMIT_MS", 250),
		MaxRetries:     getEnvInt("MAX_RETRIES", 3),

		HTTPPort:       getEnv("HTTP_PORT", "8080"),
		MaxUploadBytes: getEnvInt("MAX_UPLOAD_BYTES", 5*1024*1024),

		CSVExportPath: getEnv("CSV_EXPORT_PATH", "./output/parsed_sales.csv"),
		ChromeBin:     getEnv("CHROME_BIN", ""),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
	}
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

// WeatherEnabled reports whether a Meteostat key is configured.
func (c *Config) WeatherEnabled() bool {
	return c.RapidAPIKey != ""
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		f, err := strconv.ParseFloat(val, 64)
		if err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	switch strings.ToLower(os.Getenv(key)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		d, err := time.ParseDuration(val)
		if err == nil {
			return d
		}
	}
	return fallback
}
