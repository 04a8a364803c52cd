package config

import (
	"fmt"
	"os"
	"strconv"

	"tickerpulse/models"
)

// Config holds all application configuration.
type Config struct {
	Pipeline PipelineConfig
	Providers ProvidersConfig
	AWS       AWSConfig
	HTTP      HTTPConfig
}

// PipelineConfig holds the news-sentiment and support/resistance tuning
// knobs enumerated in the configuration block.
type PipelineConfig struct {
	UseMockData       bool
	EnableCache       bool
	SimilarityThreshold float64
	CacheTTLSeconds   int
	MinRelevanceScore float64
	MaxArticles       int
	MinStrength       float64
	MaxLevels         int
	UseTimeWeighting  bool
	CalculateImpact   bool
	UseMLPredictions  bool
	MLModelPath       string
}

// ProvidersConfig holds upstream API credentials.
type ProvidersConfig struct {
	FinnhubAPIKey      string
	NewsAPIKey         string
	AlphaVantageAPIKey string
	OpenAIAPIKey       string
}

// AWSConfig holds AWS/Bedrock configuration for the Bedrock LLMClient backend.
type AWSConfig struct {
	Region           string
	BedrockModelID   string
	BedrockMaxTokens int
	AnthropicVersion string
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port               int
	CORSAllowedOrigins string
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Pipeline: PipelineConfig{
			UseMockData:         getEnvBool("USE_MOCK_DATA", false),
			EnableCache:         getEnvBool("ENABLE_CACHE", true),
			SimilarityThreshold: getEnvFloatRange("SIMILARITY_THRESHOLD", 0.85, 0, 1),
			CacheTTLSeconds:     getEnvInt("CACHE_TTL_SEC", 3600),
			MinRelevanceScore:   getEnvFloatRange("MIN_RELEVANCE_SCORE", 0.5, 0, 1),
			MaxArticles:         getEnvInt("MAX_ARTICLES", 50),
			MinStrength:         getEnvFloatRange("MIN_STRENGTH", 50, 0, 100),
			MaxLevels:           getEnvInt("MAX_LEVELS", 5),
			UseTimeWeighting:    getEnvBool("USE_TIME_WEIGHTING", true),
			CalculateImpact:     getEnvBool("CALCULATE_IMPACT", true),
			UseMLPredictions:    getEnvBool("USE_ML_PREDICTIONS", false),
			MLModelPath:         os.Getenv("ML_MODEL_PATH"),
		},
		Providers: ProvidersConfig{
			FinnhubAPIKey:      os.Getenv("FINNHUB_API_KEY"),
			NewsAPIKey:         os.Getenv("NEWSAPI_KEY"),
			AlphaVantageAPIKey: os.Getenv("ALPHA_VANTAGE_API_KEY"),
			OpenAIAPIKey:       os.Getenv("OPENAI_API_KEY"),
		},
		AWS: AWSConfig{
			Region:           getEnvString("AWS_REGION", "us-east-1"),
			BedrockModelID:   os.Getenv("BEDROCK_MODEL_ID"),
			BedrockMaxTokens: getEnvInt("BEDROCK_MAX_TOKENS", 4096),
			AnthropicVersion: getEnvString("BEDROCK_ANTHROPIC_VERSION", "bedrock-2023-05-31"),
		},
		HTTP: HTTPConfig{
			Port:               getEnvInt("HTTP_PORT", 8080),
			CORSAllowedOrigins: getEnvString("CORS_ALLOWED_ORIGINS", "*"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate rejects nonsensical configuration values at startup.
func (c *Config) Validate() error {
	if c.Pipeline.SimilarityThreshold < 0 || c.Pipeline.SimilarityThreshold > 1 {
		return fmt.Errorf("%w: SIMILARITY_THRESHOLD must be between 0 and 1, got %.2f", models.ErrInvalidConfig, c.Pipeline.SimilarityThreshold)
	}
	if c.Pipeline.MinRelevanceScore < 0 || c.Pipeline.MinRelevanceScore > 1 {
		return fmt.Errorf("%w: MIN_RELEVANCE_SCORE must be between 0 and 1, got %.2f", models.ErrInvalidConfig, c.Pipeline.MinRelevanceScore)
	}
	if c.Pipeline.MinStrength < 0 || c.Pipeline.MinStrength > 100 {
		return fmt.Errorf("%w: MIN_STRENGTH must be between 0 and 100, got %.2f", models.ErrInvalidConfig, c.Pipeline.MinStrength)
	}
	if c.Pipeline.MaxArticles <= 0 {
		return fmt.Errorf("%w: MAX_ARTICLES must be positive, got %d", models.ErrInvalidConfig, c.Pipeline.MaxArticles)
	}
	if c.Pipeline.MaxLevels <= 0 {
		return fmt.Errorf("%w: MAX_LEVELS must be positive, got %d", models.ErrInvalidConfig, c.Pipeline.MaxLevels)
	}
	if c.Pipeline.CacheTTLSeconds < 0 {
		return fmt.Errorf("%w: CACHE_TTL_SEC must not be negative, got %d", models.ErrInvalidConfig, c.Pipeline.CacheTTLSeconds)
	}
	if c.Pipeline.UseMLPredictions && c.Pipeline.MLModelPath == "" {
		return fmt.Errorf("%w: ML_MODEL_PATH is required when USE_ML_PREDICTIONS is true", models.ErrInvalidConfig)
	}
	if c.AWS.BedrockMaxTokens <= 0 {
		return fmt.Errorf("%w: BEDROCK_MAX_TOKENS must be positive, got %d", models.ErrInvalidConfig, c.AWS.BedrockMaxTokens)
	}
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("%w: HTTP_PORT must be a valid port number, got %d", models.ErrInvalidConfig, c.HTTP.Port)
	}
	return nil
}

// HasFinnhub returns true if Finnhub configuration is available.
func (c *Config) HasFinnhub() bool {
	return c.Providers.FinnhubAPIKey != ""
}

// HasNewsAPI returns true if NewsAPI configuration is available.
func (c *Config) HasNewsAPI() bool {
	return c.Providers.NewsAPIKey != ""
}

// HasAlphaVantage returns true if Alpha Vantage configuration is available.
func (c *Config) HasAlphaVantage() bool {
	return c.Providers.AlphaVantageAPIKey != ""
}

// HasOpenAI returns true if OpenAI configuration is available.
func (c *Config) HasOpenAI() bool {
	return c.Providers.OpenAIAPIKey != ""
}

// HasBedrock returns true if Bedrock configuration is available.
func (c *Config) HasBedrock() bool {
	return c.AWS.Region != "" && c.AWS.BedrockModelID != ""
}

// getEnvString gets an environment variable with a default value.
func getEnvString(key, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultValue
}

// getEnvInt gets an environment variable as an integer with a default value.
func getEnvInt(key string, defaultValue int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getEnvFloatRange gets an environment variable as a float with min/max bounds.
func getEnvFloatRange(key string, defaultValue, minVal, maxVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseFloat(val, 64); err == nil && parsed >= minVal && parsed <= maxVal {
			return parsed
		}
	}
	return defaultValue
}

// getEnvBool gets an environment variable as a bool with a default value.
func getEnvBool(key string, defaultValue bool) bool {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// NewTestConfig creates a Config with default values for testing.
func NewTestConfig() *Config {
	return &Config{
		Pipeline: PipelineConfig{
			UseMockData:         true,
			EnableCache:         true,
			SimilarityThreshold: 0.85,
			CacheTTLSeconds:     3600,
			MinRelevanceScore:   0.5,
			MaxArticles:         50,
			MinStrength:         50,
			MaxLevels:           5,
			UseTimeWeighting:    true,
			CalculateImpact:     true,
			UseMLPredictions:    false,
		},
		Providers: ProvidersConfig{},
		AWS: AWSConfig{
			Region:           "us-east-1",
			BedrockModelID:   "anthropic.claude-3-sonnet",
			BedrockMaxTokens: 4096,
			AnthropicVersion: "bedrock-2023-05-31",
		},
		HTTP: HTTPConfig{
			Port:               8080,
			CORSAllowedOrigins: "*",
		},
	}
}
