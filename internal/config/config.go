package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"wealth/internal/advisor"
)

const (
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
	BackendSheets = "sheets"
)

type Config struct {
	// HTTP Server
	Port               string
	RateLimitPerMinute int

	// Logging
	LogLevel  string
	LogFormat string

	// Backend selection
	DataBackend string

	// Database
	SQLiteDBPath string

	// Memory backend seed (YAML, optional)
	MemorySeedFile string

	// AMQP (optional; empty URL disables record events)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets (read-only record source)
	GoogleSpreadsheetID      string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string

	// Generative model
	GenAIBackend         string
	GeminiAPIKey         string
	GoogleCloudProject   string
	GoogleCloudLocation  string
	GenAIBaseURL         string
	GenAIModel           string
	GenAIMaxOutputTokens int
	GenAITemperature     float64
	GenAITimeout         time.Duration

	// Auth
	JWTSecret string
	JWTTTL    time.Duration

	// Audit worker
	AuditBatchSize int
}

func Load() *Config {
	return &Config{
		Port:               getEnv("PORT", "3001"),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 60),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),

		DataBackend:  getEnv("DATA_BACKEND", BackendSQLite),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/wealth.db"),

		MemorySeedFile: getEnv("MEMORY_SEED_FILE", ""),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "wealth"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "record_events"),

		GoogleSpreadsheetID:      getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
		GoogleServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", ""),

		GenAIBackend:         getEnv("GENAI_BACKEND", advisor.BackendGemini),
		GeminiAPIKey:         getEnv("GEMINI_API_KEY", ""),
		GoogleCloudProject:   getEnv("GOOGLE_CLOUD_PROJECT", ""),
		GoogleCloudLocation:  getEnv("GOOGLE_CLOUD_LOCATION", "us-central1"),
		GenAIBaseURL:         getEnv("GENAI_BASE_URL", ""),
		GenAIModel:           getEnv("GENAI_MODEL", "gemini-2.5-flash"),
		GenAIMaxOutputTokens: getEnvInt("GENAI_MAX_OUTPUT_TOKENS", 1000),
		GenAITemperature:     getEnvFloat("GENAI_TEMPERATURE", 0.7),
		GenAITimeout:         getEnvDuration("GENAI_TIMEOUT", 30*time.Second),

		JWTSecret: getEnv("JWT_SECRET", ""),
		JWTTTL:    getEnvDuration("JWT_TTL", 720*time.Hour),

		AuditBatchSize: getEnvInt("AUDIT_BATCH_SIZE", 10),
	}
}

// Validate checks everything the API server needs and returns an error
// listing every problem found.
func (c *Config) Validate() error {
	var errs []string
	errs = append(errs, c.httpErrors()...)
	errs = append(errs, c.backendErrors()...)
	errs = append(errs, c.amqpErrors()...)
	// Missing model credentials are not fatal: the server answers with the
	// fallback recommendations until they are configured.
	errs = append(errs, c.genAIErrors(false)...)
	errs = append(errs, c.authErrors()...)
	return joinErrors(errs)
}

// ValidateWorker checks the settings of the audit worker, which needs the
// SQLite database and a broker.
func (c *Config) ValidateWorker() error {
	var errs []string
	if c.DataBackend != BackendSQLite {
		errs = append(errs, fmt.Sprintf("audit worker requires the sqlite backend, got '%s'", c.DataBackend))
	}
	if c.AMQPURL == "" {
		errs = append(errs, "AMQP_URL is required for the audit worker")
	}
	errs = append(errs, c.backendErrors()...)
	errs = append(errs, c.amqpErrors()...)
	if c.AuditBatchSize < 1 || c.AuditBatchSize > 1000 {
		errs = append(errs, fmt.Sprintf("invalid audit batch size %d: must be between 1 and 1000", c.AuditBatchSize))
	}
	return joinErrors(errs)
}

// ValidateAdvisor checks what an offline recommendation run needs: a record
// source and a model.
func (c *Config) ValidateAdvisor() error {
	var errs []string
	errs = append(errs, c.backendErrors()...)
	errs = append(errs, c.genAIErrors(true)...)
	return joinErrors(errs)
}

func (c *Config) httpErrors() []string {
	var errs []string
	if port, err := strconv.Atoi(c.Port); err != nil {
		errs = append(errs, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errs = append(errs, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}
	if c.RateLimitPerMinute < 1 {
		errs = append(errs, fmt.Sprintf("invalid rate limit %d: must be at least 1 request per minute", c.RateLimitPerMinute))
	}
	return errs
}

func (c *Config) backendErrors() []string {
	var errs []string
	validBackends := []string{BackendMemory, BackendSheets, BackendSQLite}
	if !slices.Contains(validBackends, c.DataBackend) {
		errs = append(errs, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	switch c.DataBackend {
	case BackendSQLite:
		if c.SQLiteDBPath == "" {
			errs = append(errs, "SQLite database path cannot be empty when using sqlite backend")
			break
		}
		dir := filepath.Dir(c.SQLiteDBPath)
		if dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					errs = append(errs, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
				}
			}
		}
	case BackendSheets:
		if c.GoogleSpreadsheetID == "" {
			errs = append(errs, "Google Spreadsheet ID is required when using sheets backend")
		}
		hasFile := c.GoogleServiceAccountFile != ""
		if !hasFile && c.GoogleServiceAccountJSON == "" {
			errs = append(errs, "either GOOGLE_SERVICE_ACCOUNT_FILE or GOOGLE_SERVICE_ACCOUNT_JSON must be provided for sheets backend")
		}
		if hasFile {
			if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
				errs = append(errs, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
			}
		}
	case BackendMemory:
		if c.MemorySeedFile != "" {
			if _, err := os.Stat(c.MemorySeedFile); os.IsNotExist(err) {
				errs = append(errs, fmt.Sprintf("memory seed file does not exist: %s", c.MemorySeedFile))
			}
		}
	}
	return errs
}

func (c *Config) amqpErrors() []string {
	if c.AMQPURL == "" {
		return nil
	}
	var errs []string
	if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
		errs = append(errs, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
	} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
		errs = append(errs, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
	}
	if c.AMQPExchange == "" {
		errs = append(errs, "AMQP exchange name cannot be empty when AMQP URL is provided")
	}
	if c.AMQPQueue == "" {
		errs = append(errs, "AMQP queue name cannot be empty when AMQP URL is provided")
	}
	return errs
}

func (c *Config) genAIErrors(requireCredentials bool) []string {
	var errs []string
	switch c.GenAIBackend {
	case advisor.BackendGemini:
		if requireCredentials && c.GeminiAPIKey == "" {
			errs = append(errs, "GEMINI_API_KEY is required when GENAI_BACKEND is gemini")
		}
	case advisor.BackendVertex:
		if requireCredentials && c.GoogleCloudProject == "" {
			errs = append(errs, "GOOGLE_CLOUD_PROJECT is required when GENAI_BACKEND is vertex")
		}
	default:
		errs = append(errs, fmt.Sprintf("invalid genai backend '%s': must be one of [gemini vertex]", c.GenAIBackend))
	}
	if c.GenAIModel == "" {
		errs = append(errs, "GENAI_MODEL cannot be empty")
	}
	if c.GenAIMaxOutputTokens < 1 {
		errs = append(errs, fmt.Sprintf("invalid max output tokens %d: must be at least 1", c.GenAIMaxOutputTokens))
	}
	if c.GenAITemperature < 0 || c.GenAITemperature > 2 {
		errs = append(errs, fmt.Sprintf("invalid temperature %v: must be between 0 and 2", c.GenAITemperature))
	}
	if c.GenAITimeout < time.Second {
		errs = append(errs, fmt.Sprintf("invalid genai timeout %v: must be at least 1 second", c.GenAITimeout))
	}
	return errs
}

func (c *Config) authErrors() []string {
	var errs []string
	if len(c.JWTSecret) < 16 {
		errs = append(errs, "JWT_SECRET must be at least 16 characters")
	}
	if c.JWTTTL < time.Minute {
		errs = append(errs, fmt.Sprintf("invalid JWT TTL %v: must be at least 1 minute", c.JWTTTL))
	}
	return errs
}

func joinErrors(errs []string) error {
	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}

// InferenceConfig builds the model settings handed to the advisor.
func (c *Config) InferenceConfig() advisor.InferenceConfig {
	provider := "Google Gemini"
	if c.GenAIBackend == advisor.BackendVertex {
		provider = "Google Vertex AI"
	}
	return advisor.InferenceConfig{
		Provider:        provider,
		Model:           c.GenAIModel,
		Region:          c.GoogleCloudLocation,
		MaxOutputTokens: int32(c.GenAIMaxOutputTokens),
		Temperature:     float32(c.GenAITemperature),
		Timeout:         c.GenAITimeout,
	}
}

// GeminiConfig builds the client settings for advisor.NewGeminiModel.
func (c *Config) GeminiConfig() advisor.GeminiConfig {
	return advisor.GeminiConfig{
		Backend:  c.GenAIBackend,
		APIKey:   c.GeminiAPIKey,
		Project:  c.GoogleCloudProject,
		Location: c.GoogleCloudLocation,
		BaseURL:  c.GenAIBaseURL,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
