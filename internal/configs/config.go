package configs

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type RESTconfig struct {
	PORT string
	// CORSAllowedOrigins - источники WebView/dev-сервера UI
	CORSAllowedOrigins []string
}

type ApiClientConfig struct {
	BaseURL           string
	Token             string // Начальный токен, можно заменить через PUT /api/v1/session
	Timeout           time.Duration
	ValidateResponses bool
}

type FetcherConfig struct {
	FilterDebounce  time.Duration
	PageSize        int
	GenerationGuard bool
	DedupeOnAppend  bool
}

type FavoritesConfig struct {
	LikedFetchConcurrency int
}

type PreferencesConfig struct {
	DBPath string
}

type RabbitMQConfig struct {
	URL      string // Пустая строка - публикация событий избранного выключена
	Exchange string
}

type StdoutLogConfig struct {
	Level string
}

type FluentBitConfig struct {
	Host    string
	Port    int
	Enabled bool
	Level   string
}

// AppConfig хранит всю конфигурацию приложения
type AppConfig struct {
	AppName      string
	Rest         RESTconfig
	ApiClient    ApiClientConfig
	Fetcher      FetcherConfig
	Favorites    FavoritesConfig
	Preferences  PreferencesConfig
	RabbitMQ     RabbitMQConfig
	FluentBit    FluentBitConfig
	StdoutLogger StdoutLogConfig
}

// LoadConfig загружает конфигурацию из переменных окружения.
// Файл .env необязателен: на устройстве агент обычно запускается только с переменными окружения.
func LoadConfig(envPath ...string) (*AppConfig, error) {
	var err error
	if len(envPath) > 0 {
		err = godotenv.Load(envPath[0])
	} else {
		err = godotenv.Load()
	}
	if err != nil {
		log.Printf("Info: Could not load .env file (path: %v): %v. Using environment only.\n", envPath, err)
	}

	cfg := &AppConfig{}

	cfg.AppName = getEnvAsString("APP_NAME", "listings-agent")

	cfg.Rest.PORT = getEnvAsString("PORT", "8090")
	cfg.Rest.CORSAllowedOrigins = getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:5173"})

	cfg.ApiClient.BaseURL = os.Getenv("API_BASE_URL")
	if cfg.ApiClient.BaseURL == "" {
		return nil, fmt.Errorf("API_BASE_URL environment variable is required")
	}
	cfg.ApiClient.Token = getEnvAsString("API_TOKEN", "")
	cfg.ApiClient.Timeout = getEnvAsDuration("API_TIMEOUT", 15*time.Second)
	cfg.ApiClient.ValidateResponses = getEnvAsBool("API_VALIDATE_RESPONSES", false)

	cfg.Fetcher.FilterDebounce = getEnvAsDuration("FILTER_DEBOUNCE", 300*time.Millisecond)
	cfg.Fetcher.PageSize = getEnvAsInt("PAGE_SIZE", 20)
	if cfg.Fetcher.PageSize <= 0 {
		log.Printf("Warning: PAGE_SIZE must be positive, got %d. Using default value: 20\n", cfg.Fetcher.PageSize)
		cfg.Fetcher.PageSize = 20
	}
	cfg.Fetcher.GenerationGuard = getEnvAsBool("FETCH_GENERATION_GUARD", true)
	cfg.Fetcher.DedupeOnAppend = getEnvAsBool("DEDUPE_ON_APPEND", true)

	cfg.Favorites.LikedFetchConcurrency = getEnvAsInt("LIKED_FETCH_CONCURRENCY", 8)

	cfg.Preferences.DBPath = getEnvAsString("PREFERENCES_DB_PATH", "listings-agent.db")

	cfg.RabbitMQ.URL = getEnvAsString("RABBITMQ_URL", "")
	cfg.RabbitMQ.Exchange = getEnvAsString("RABBITMQ_EXCHANGE", "favorites_events")

	cfg.FluentBit.Enabled = getEnvAsBool("FLUENTBIT_ENABLED", false)
	if cfg.FluentBit.Enabled {
		cfg.FluentBit.Host = os.Getenv("FLUENTBIT_HOST")
		if cfg.FluentBit.Host == "" {
			log.Println("WARNING: FLUENTBIT_ENABLED is true, but FLUENTBIT_HOST is not set. Disabling Fluent Bit.")
			cfg.FluentBit.Enabled = false
		}

		cfg.FluentBit.Port = getEnvAsInt("FLUENTBIT_PORT", 24224)
		cfg.FluentBit.Level = getEnvAsString("FLUENTBIT_LOG_LEVEL", "info")
	}

	cfg.StdoutLogger.Level = getEnvAsString("STDOUT_LOG_LEVEL", "debug")

	return cfg, nil
}

func getEnvAsString(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}

	valueInt, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Warning: Environment variable %s (value: %s) could not be parsed as int: %v. Using default value: %d\n", key, valueStr, err, defaultValue)
		return defaultValue
	}
	return valueInt
}

// getEnvAsBool читает переменную окружения как bool или возвращает значение по умолчанию
func getEnvAsBool(key string, defaultValue bool) bool {
	valStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	valBool, err := strconv.ParseBool(valStr)
	if err != nil {
		log.Printf("Warning: Environment variable %s (value: %s) could not be parsed as bool: %v. Using default value: %t\n", key, valStr, err, defaultValue)
		return defaultValue
	}
	return valBool
}

// getEnvAsDuration понимает формат time.ParseDuration ("300ms", "15s")
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	d, err := time.ParseDuration(valStr)
	if err != nil || d < 0 {
		log.Printf("Warning: Environment variable %s (value: %s) could not be parsed as duration: %v. Using default value: %s\n", key, valStr, err, defaultValue)
		return defaultValue
	}
	return d
}

// getEnvAsList - список через запятую, пустые элементы отбрасываются
func getEnvAsList(key string, defaultValue []string) []string {
	valStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
