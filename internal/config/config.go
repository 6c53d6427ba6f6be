package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the BuildQuote quote engine.
type Config struct {
	Port         int
	Version      string
	Database     DatabaseConfig
	Telemetry    TelemetryConfig
	Orchestrator OrchestratorConfig
	Providers    ProvidersConfig
	Pricing      PricingConfig
}

type DatabaseConfig struct {
	// URL is the optional PostgreSQL connection string for the regional
	// pricing reference tables. Empty means the embedded static tables.
	URL            string
	MaxConnections int
}

type TelemetryConfig struct {
	Enabled      bool
	OTLPEndpoint string
	ServiceName  string
}

// OrchestratorConfig controls provider selection and fallback.
type OrchestratorConfig struct {
	Primary        string
	FallbackOrder  []string
	Vision         string // provider preferred for image requests
	Conversational string // provider preferred for long histories / complex projects
	Timeout        time.Duration
	AllowFallback  bool
}

// ProviderConfig is the connection configuration for one analysis backend.
type ProviderConfig struct {
	Endpoint string
	APIKey   string
	Model    string
}

type ProvidersConfig struct {
	OpenAI    ProviderConfig
	Anthropic ProviderConfig
	Ollama    ProviderConfig
}

type PricingConfig struct {
	CacheTTL              time.Duration
	AllowEstimateFallback bool
	// HighDemandRules are expr expressions evaluated against the project
	// type; a match applies the labor demand multiplier.
	HighDemandRules []string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() *Config {
	return &Config{
		Port:    envInt("BUILDQUOTE_PORT", 8080),
		Version: envStr("BUILDQUOTE_VERSION", "0.4.0"),
		Database: DatabaseConfig{
			URL:            envStr("BUILDQUOTE_DATABASE_URL", ""),
			MaxConnections: envInt("BUILDQUOTE_DATABASE_MAX_CONNECTIONS", 10),
		},
		Telemetry: TelemetryConfig{
			Enabled:      envBool("OTEL_ENABLED", false),
			OTLPEndpoint: envStr("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			ServiceName:  envStr("OTEL_SERVICE_NAME", "buildquote-quote-engine"),
		},
		Orchestrator: OrchestratorConfig{
			Primary:        envStr("BUILDQUOTE_PRIMARY_PROVIDER", "openai"),
			FallbackOrder:  envList("BUILDQUOTE_FALLBACK_ORDER", "anthropic,ollama"),
			Vision:         envStr("BUILDQUOTE_VISION_PROVIDER", "openai"),
			Conversational: envStr("BUILDQUOTE_CONVERSATIONAL_PROVIDER", "anthropic"),
			Timeout:        envDur("BUILDQUOTE_PROVIDER_TIMEOUT", 30*time.Second),
			AllowFallback:  envBool("BUILDQUOTE_ALLOW_FALLBACK", true),
		},
		Providers: ProvidersConfig{
			OpenAI: ProviderConfig{
				Endpoint: envStr("OPENAI_ENDPOINT", "https://api.openai.com/v1"),
				APIKey:   envStr("OPENAI_API_KEY", ""),
				Model:    envStr("OPENAI_MODEL", "gpt-4o"),
			},
			Anthropic: ProviderConfig{
				Endpoint: envStr("ANTHROPIC_ENDPOINT", "https://api.anthropic.com"),
				APIKey:   envStr("ANTHROPIC_API_KEY", ""),
				Model:    envStr("ANTHROPIC_MODEL", "claude-sonnet-4-20250514"),
			},
			Ollama: ProviderConfig{
				Endpoint: envStr("OLLAMA_ENDPOINT", "http://localhost:11434"),
				Model:    envStr("OLLAMA_MODEL", "llama3.1"),
			},
		},
		Pricing: PricingConfig{
			CacheTTL:              envDur("BUILDQUOTE_PRICING_CACHE_TTL", 30*time.Minute),
			AllowEstimateFallback: envBool("BUILDQUOTE_PRICING_ESTIMATE_FALLBACK", true),
			HighDemandRules: envList("BUILDQUOTE_HIGH_DEMAND_RULES",
				`projectType contains "extension";projectType contains "renovation";projectType contains "loft";projectType contains "conversion"`),
		},
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDur(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

// envList splits a delimited env var into a trimmed slice. Rules use ";"
// as the delimiter when the values themselves contain commas.
func envList(key, fallback string) []string {
	raw := envStr(key, fallback)
	sep := ","
	if strings.Contains(raw, ";") {
		sep = ";"
	}
	var out []string
	for _, part := range strings.Split(raw, sep) {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
