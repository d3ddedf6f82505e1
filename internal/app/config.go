package app

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"torn_war_odds/internal/odds"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config holds application configuration
type Config struct {
	TornAPIKey      string `validate:"required"`
	SpreadsheetID   string `validate:"required"`
	CredentialsFile string `validate:"required"`

	HouseEdge      float64 `validate:"gte=0,lt=1"`
	DollarPerXanax int64   `validate:"gt=0"`
	SampleSize     int     `validate:"gt=0,lte=100"`
	KeepWeeks      int     `validate:"gt=0"`

	UpdateSchedule string `validate:"required"`
	SampleSchedule string `validate:"required"`

	ExportPath       string `validate:"required"`
	DeployURL        string
	DeployKeyFile    string
	DeployKnownHosts string

	WebhookURL string `validate:"omitempty,url"`

	BigQueryProject string
	BigQueryDataset string `validate:"required_with=BigQueryProject"`
	BigQueryTable   string `validate:"required_with=BigQueryProject"`

	MetricsAddr string
}

// SetupEnvironment loads .env file and configures zerolog output and log level.
func SetupEnvironment() {
	// Load .env file if it exists
	err := godotenv.Load()

	// Configure logging
	if os.Getenv("ENV") == "production" {
		zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
		log.Logger = log.Output(os.Stderr)
	} else {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	levelStr := strings.ToLower(os.Getenv("LOGLEVEL"))
	switch levelStr {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn", "warning":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	case "fatal":
		zerolog.SetGlobalLevel(zerolog.FatalLevel)
	case "panic":
		zerolog.SetGlobalLevel(zerolog.PanicLevel)
	case "disabled":
		zerolog.SetGlobalLevel(zerolog.Disabled)
	case "":
		if os.Getenv("ENV") == "production" {
			zerolog.SetGlobalLevel(zerolog.WarnLevel)
		} else {
			zerolog.SetGlobalLevel(zerolog.InfoLevel)
		}
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
		log.Warn().Msgf("Unknown LOGLEVEL '%s', defaulting to info.", levelStr)
	}

	// wait until now to report on the .env file so we have the chance to set up logging first
	if err == nil {
		log.Debug().Msg("Loaded environment variables from .env file.")
	} else {
		log.Debug().Msg("No .env file found or error loading .env file; proceeding with existing environment variables.")
	}
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	apiKey := os.Getenv("TORN_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("TORN_API_KEY environment variable is required")
	}

	spreadsheetID := os.Getenv("SPREADSHEET_ID")
	if spreadsheetID == "" {
		return nil, fmt.Errorf("SPREADSHEET_ID environment variable is required")
	}

	houseEdge, err := floatEnv("HOUSE_EDGE", odds.DefaultHouseEdge)
	if err != nil {
		return nil, err
	}
	dollarPerXanax, err := int64Env("DOLLAR_PER_XANAX", odds.DefaultUnitValue)
	if err != nil {
		return nil, err
	}
	sampleSize, err := int64Env("SAMPLE_SIZE", 10)
	if err != nil {
		return nil, err
	}
	keepWeeks, err := int64Env("KEEP_WEEKS", 8)
	if err != nil {
		return nil, err
	}

	config := &Config{
		TornAPIKey:       apiKey,
		SpreadsheetID:    spreadsheetID,
		CredentialsFile:  envOrDefault("GOOGLE_CREDENTIALS_FILE", "credentials.json"),
		HouseEdge:        houseEdge,
		DollarPerXanax:   dollarPerXanax,
		SampleSize:       int(sampleSize),
		KeepWeeks:        int(keepWeeks),
		UpdateSchedule:   envOrDefault("UPDATE_SCHEDULE", "@every 1h"),
		SampleSchedule:   envOrDefault("SAMPLE_SCHEDULE", "@every 6h"),
		ExportPath:       envOrDefault("EXPORT_PATH", "Data/random_wars_sample.json"),
		DeployURL:        os.Getenv("DEPLOY_URL"),
		DeployKeyFile:    envOrDefault("DEPLOY_KEY_FILE", "deploy.pem"),
		DeployKnownHosts: os.Getenv("DEPLOY_KNOWN_HOSTS"),
		WebhookURL:       os.Getenv("WEBHOOK_URL"),
		BigQueryProject:  os.Getenv("BIGQUERY_PROJECT"),
		BigQueryDataset:  os.Getenv("BIGQUERY_DATASET"),
		BigQueryTable:    os.Getenv("BIGQUERY_TABLE"),
		MetricsAddr:      os.Getenv("METRICS_ADDR"),
	}

	if err := validator.New().Struct(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// OddsConfig builds the pricing engine configuration from the application settings
func (c *Config) OddsConfig() odds.Config {
	cfg := odds.DefaultConfig()
	cfg.HouseEdge = c.HouseEdge
	cfg.UnitValue = c.DollarPerXanax
	return cfg
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func floatEnv(key string, fallback float64) (float64, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number: %w", key, err)
	}
	return value, nil
}

func int64Env(key string, fallback int64) (int64, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return value, nil
}
