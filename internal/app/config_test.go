package app

import (
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

// requiredEnv sets the variables every valid configuration needs
func requiredEnv(t *testing.T) {
	t.Setenv("TORN_API_KEY", "test_api_key")
	t.Setenv("SPREADSHEET_ID", "test_spreadsheet_id")
}

// clearOptionalEnv makes sure values from the developer's shell do not leak into tests
func clearOptionalEnv(t *testing.T) {
	for _, key := range []string{
		"GOOGLE_CREDENTIALS_FILE", "HOUSE_EDGE", "DOLLAR_PER_XANAX", "SAMPLE_SIZE", "KEEP_WEEKS",
		"UPDATE_SCHEDULE", "SAMPLE_SCHEDULE", "EXPORT_PATH", "DEPLOY_URL", "DEPLOY_KEY_FILE",
		"WEBHOOK_URL", "BIGQUERY_PROJECT", "BIGQUERY_DATASET", "BIGQUERY_TABLE", "METRICS_ADDR",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadConfig(t *testing.T) {
	t.Run("ValidConfiguration", func(t *testing.T) {
		clearOptionalEnv(t)
		requiredEnv(t)
		t.Setenv("GOOGLE_CREDENTIALS_FILE", "test_credentials.json")
		t.Setenv("HOUSE_EDGE", "0.08")
		t.Setenv("DOLLAR_PER_XANAX", "800000")
		t.Setenv("SAMPLE_SIZE", "5")

		config, err := LoadConfig()
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}

		if config.TornAPIKey != "test_api_key" {
			t.Errorf("Expected TornAPIKey to be 'test_api_key', got '%s'", config.TornAPIKey)
		}
		if config.SpreadsheetID != "test_spreadsheet_id" {
			t.Errorf("Expected SpreadsheetID to be 'test_spreadsheet_id', got '%s'", config.SpreadsheetID)
		}
		if config.CredentialsFile != "test_credentials.json" {
			t.Errorf("Expected CredentialsFile to be 'test_credentials.json', got '%s'", config.CredentialsFile)
		}
		if config.HouseEdge != 0.08 {
			t.Errorf("Expected HouseEdge 0.08, got %v", config.HouseEdge)
		}
		if config.DollarPerXanax != 800000 {
			t.Errorf("Expected DollarPerXanax 800000, got %d", config.DollarPerXanax)
		}
		if config.SampleSize != 5 {
			t.Errorf("Expected SampleSize 5, got %d", config.SampleSize)
		}
	})

	t.Run("Defaults", func(t *testing.T) {
		clearOptionalEnv(t)
		requiredEnv(t)

		config, err := LoadConfig()
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}

		if config.CredentialsFile != "credentials.json" {
			t.Errorf("Expected CredentialsFile to default to 'credentials.json', got '%s'", config.CredentialsFile)
		}
		if config.HouseEdge != 0.06 {
			t.Errorf("Expected HouseEdge to default to 0.06, got %v", config.HouseEdge)
		}
		if config.DollarPerXanax != 744983 {
			t.Errorf("Expected DollarPerXanax to default to 744983, got %d", config.DollarPerXanax)
		}
		if config.SampleSize != 10 || config.KeepWeeks != 8 {
			t.Errorf("Expected SampleSize 10 and KeepWeeks 8, got %d and %d", config.SampleSize, config.KeepWeeks)
		}
		if config.ExportPath != "Data/random_wars_sample.json" {
			t.Errorf("Unexpected default export path %s", config.ExportPath)
		}
		if config.UpdateSchedule != "@every 1h" || config.SampleSchedule != "@every 6h" {
			t.Errorf("Unexpected default schedules %s / %s", config.UpdateSchedule, config.SampleSchedule)
		}
	})

	t.Run("MissingTornAPIKey", func(t *testing.T) {
		clearOptionalEnv(t)
		t.Setenv("TORN_API_KEY", "")
		t.Setenv("SPREADSHEET_ID", "test_spreadsheet_id")

		_, err := LoadConfig()
		if err == nil {
			t.Fatal("Expected error for missing TORN_API_KEY, got nil")
		}
		if !strings.Contains(err.Error(), "TORN_API_KEY") {
			t.Errorf("Expected error message to contain 'TORN_API_KEY', got '%s'", err.Error())
		}
	})

	t.Run("MissingSpreadsheetID", func(t *testing.T) {
		clearOptionalEnv(t)
		t.Setenv("TORN_API_KEY", "test_api_key")
		t.Setenv("SPREADSHEET_ID", "")

		_, err := LoadConfig()
		if err == nil {
			t.Fatal("Expected error for missing SPREADSHEET_ID, got nil")
		}
		if !strings.Contains(err.Error(), "SPREADSHEET_ID") {
			t.Errorf("Expected error message to contain 'SPREADSHEET_ID', got '%s'", err.Error())
		}
	})

	t.Run("InvalidNumbers", func(t *testing.T) {
		testCases := []struct {
			key   string
			value string
		}{
			{"HOUSE_EDGE", "six percent"},
			{"HOUSE_EDGE", "1.5"},
			{"DOLLAR_PER_XANAX", "0"},
			{"DOLLAR_PER_XANAX", "lots"},
			{"SAMPLE_SIZE", "-1"},
			{"KEEP_WEEKS", "0"},
		}

		for _, tc := range testCases {
			t.Run(tc.key+"="+tc.value, func(t *testing.T) {
				clearOptionalEnv(t)
				requiredEnv(t)
				t.Setenv(tc.key, tc.value)

				if _, err := LoadConfig(); err == nil {
					t.Errorf("Expected error for %s=%s", tc.key, tc.value)
				}
			})
		}
	})

	t.Run("BigQueryNeedsDatasetAndTable", func(t *testing.T) {
		clearOptionalEnv(t)
		requiredEnv(t)
		t.Setenv("BIGQUERY_PROJECT", "my-project")

		if _, err := LoadConfig(); err == nil {
			t.Error("Expected error when BIGQUERY_PROJECT is set without dataset and table")
		}
	})

	t.Run("InvalidWebhookURL", func(t *testing.T) {
		clearOptionalEnv(t)
		requiredEnv(t)
		t.Setenv("WEBHOOK_URL", "not a url")

		if _, err := LoadConfig(); err == nil {
			t.Error("Expected error for invalid WEBHOOK_URL")
		}
	})
}

func TestOddsConfig(t *testing.T) {
	config := &Config{HouseEdge: 0.1, DollarPerXanax: 900000}

	oddsConfig := config.OddsConfig()
	if oddsConfig.HouseEdge != 0.1 {
		t.Errorf("Expected HouseEdge 0.1, got %v", oddsConfig.HouseEdge)
	}
	if oddsConfig.UnitValue != 900000 {
		t.Errorf("Expected UnitValue 900000, got %d", oddsConfig.UnitValue)
	}
	if err := oddsConfig.Validate(); err != nil {
		t.Errorf("Expected derived odds config to be valid, got %v", err)
	}
}

func TestFactionHistory(t *testing.T) {
	testCases := []struct {
		name     string
		history  FactionHistory
		expected string
	}{
		{"NoWars", FactionHistory{}, "N/A"},
		{"AllWins", FactionHistory{WarsWon: 4}, "100%"},
		{"Mixed", FactionHistory{WarsWon: 45, WarsLost: 30}, "60%"},
		{"RoundsToNearest", FactionHistory{WarsWon: 2, WarsLost: 1}, "67%"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.history.WinRateString(); got != tc.expected {
				t.Errorf("Expected win rate %s, got %s", tc.expected, got)
			}
		})
	}
}

func TestSetupEnvironment(t *testing.T) {
	originalLevel := zerolog.GlobalLevel()
	defer zerolog.SetGlobalLevel(originalLevel)

	testCases := []struct {
		name          string
		env           string
		logLevel      string
		expectedLevel zerolog.Level
	}{
		{"ProductionDebug", "production", "debug", zerolog.DebugLevel},
		{"ProductionInfo", "production", "info", zerolog.InfoLevel},
		{"ProductionWarn", "production", "warn", zerolog.WarnLevel},
		{"ProductionWarning", "production", "warning", zerolog.WarnLevel},
		{"ProductionError", "production", "error", zerolog.ErrorLevel},
		{"ProductionFatal", "production", "fatal", zerolog.FatalLevel},
		{"ProductionPanic", "production", "panic", zerolog.PanicLevel},
		{"ProductionDisabled", "production", "disabled", zerolog.Disabled},
		{"ProductionDefault", "production", "", zerolog.WarnLevel},
		{"ProductionUnknown", "production", "unknown", zerolog.InfoLevel},
		{"DevelopmentDebug", "development", "debug", zerolog.DebugLevel},
		{"DevelopmentDefault", "development", "", zerolog.InfoLevel},
		{"DevelopmentUnknown", "", "unknown", zerolog.InfoLevel},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("ENV", tc.env)
			t.Setenv("LOGLEVEL", tc.logLevel)

			SetupEnvironment()

			if zerolog.GlobalLevel() != tc.expectedLevel {
				t.Errorf("Expected log level %v, got %v", tc.expectedLevel, zerolog.GlobalLevel())
			}
		})
	}
}

func TestEnvOrDefault(t *testing.T) {
	t.Setenv("TEST_OPTIONAL_VAR", "")
	if got := envOrDefault("TEST_OPTIONAL_VAR", "fallback"); got != "fallback" {
		t.Errorf("Expected 'fallback', got '%s'", got)
	}

	t.Setenv("TEST_OPTIONAL_VAR", "value")
	if got := envOrDefault("TEST_OPTIONAL_VAR", "fallback"); got != "value" {
		t.Errorf("Expected 'value', got '%s'", got)
	}
}
