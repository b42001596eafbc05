// Package config provides application settings loaded from environment variables.
//
// Settings are created via New() which handles:
// - Environment variable parsing with validation
// - Default value application
// - Provider-specific configuration lookup
//
// The .env file, if any, is loaded by the command before New is called.

package config

import (
	"fmt"
	"os"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/richinex/calcflow/llm"
)

// Settings holds all application configuration.
type Settings struct {
	LLM     LLMConfig
	Gateway GatewayConfig
	Log     LogConfig
	History HistoryConfig
}

// LLMConfig holds LLM provider configuration.
type LLMConfig struct {
	Provider    string
	Model       string
	MaxTokens   uint32
	Temperature float64
}

// GatewayConfig holds computation gateway configuration.
type GatewayConfig struct {
	// CacheSize bounds the result cache; 0 disables it.
	CacheSize int
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string
	Format string
}

// HistoryConfig holds calculation history configuration.
type HistoryConfig struct {
	// Path of the SQLite database; empty keeps history in memory.
	Path string
}

// providerInfo holds configuration for a specific LLM provider.
type providerInfo struct {
	modelEnv     string
	defaultModel string
	apiKeyEnv    string
}

// DefaultProvider is used when neither the caller nor CALC_PROVIDER names one.
const DefaultProvider = "gemini"

// Supported providers and their configuration.
var providers = map[string]providerInfo{
	"openai":    {"OPENAI_MODEL", llm.ModelOpenAIGPT4o, "OPENAI_API_KEY"},
	"anthropic": {"ANTHROPIC_MODEL", llm.ModelAnthropicClaudeSonnet4, "ANTHROPIC_API_KEY"},
	"deepseek":  {"DEEPSEEK_MODEL", llm.ModelDeepSeekChat, "DEEPSEEK_API_KEY"},
	"gemini":    {"GEMINI_MODEL", llm.ModelGeminiFlash3Preview, "GEMINI_API_KEY"},
}

// Provider aliases map to canonical names.
var providerAliases = map[string]string{
	"claude": "anthropic",
	"google": "gemini",
	"gpt":    "openai",
}

var (
	logLevels  = []string{"debug", "info", "warn", "error"}
	logFormats = []string{"text", "json"}
)

// New creates settings for the specified provider, loading values from environment variables.
// An empty provider falls back to CALC_PROVIDER, then DefaultProvider.
// Returns an error if the provider is unknown or environment variables contain invalid values.
func New(provider string) (Settings, error) {
	if provider == "" {
		provider = getEnvString("CALC_PROVIDER", DefaultProvider)
	}
	provider = normalizeProvider(provider)

	info, err := getProviderInfo(provider)
	if err != nil {
		return Settings{}, err
	}

	maxTokens, err := getEnvUint32("LLM_MAX_TOKENS", llm.DefaultMaxTokens)
	if err != nil {
		return Settings{}, err
	}

	temperature, err := getEnvFloat64("LLM_TEMPERATURE", float64(llm.DefaultTemperature))
	if err != nil {
		return Settings{}, err
	}

	cacheSize, err := getEnvInt("CALC_CACHE_SIZE", 64)
	if err != nil {
		return Settings{}, err
	}
	if cacheSize < 0 {
		return Settings{}, fmt.Errorf("invalid value for CALC_CACHE_SIZE: %d: must not be negative", cacheSize)
	}

	level, err := getEnvChoice("CALC_LOG_LEVEL", "warn", logLevels)
	if err != nil {
		return Settings{}, err
	}

	format, err := getEnvChoice("CALC_LOG_FORMAT", "text", logFormats)
	if err != nil {
		return Settings{}, err
	}

	// Get model from environment or use default
	model := getEnvString(info.modelEnv, info.defaultModel)

	return Settings{
		LLM: LLMConfig{
			Provider:    provider,
			Model:       model,
			MaxTokens:   maxTokens,
			Temperature: temperature,
		},
		Gateway: GatewayConfig{
			CacheSize: cacheSize,
		},
		Log: LogConfig{
			Level:  level,
			Format: format,
		},
		History: HistoryConfig{
			Path: os.Getenv("CALC_HISTORY_DB"),
		},
	}, nil
}

// MustNew creates settings for the specified provider.
// Panics if the provider is unknown or environment variables are invalid.
// Use this only when configuration errors should be fatal.
func MustNew(provider string) Settings {
	settings, err := New(provider)
	if err != nil {
		panic(fmt.Sprintf("config: %v", err))
	}
	return settings
}

// normalizeProvider converts provider aliases to canonical names.
func normalizeProvider(provider string) string {
	provider = strings.ToLower(provider)
	if canonical, ok := providerAliases[provider]; ok {
		return canonical
	}
	return provider
}

// getProviderInfo returns configuration for a provider.
func getProviderInfo(provider string) (providerInfo, error) {
	info, ok := providers[provider]
	if !ok {
		return providerInfo{}, fmt.Errorf("unknown provider: %q", provider)
	}
	return info, nil
}

// APIKeyFor returns the API key for a provider from environment variables.
func APIKeyFor(provider string) (string, error) {
	provider = normalizeProvider(provider)

	info, err := getProviderInfo(provider)
	if err != nil {
		return "", err
	}

	key := os.Getenv(info.apiKeyEnv)
	if key == "" {
		return "", fmt.Errorf("%s environment variable not set", info.apiKeyEnv)
	}
	return key, nil
}

// ModelFor returns the model for a provider, checking environment first.
func ModelFor(provider string) (string, error) {
	provider = normalizeProvider(provider)

	info, err := getProviderInfo(provider)
	if err != nil {
		return "", err
	}

	if val := os.Getenv(info.modelEnv); val != "" {
		return val, nil
	}
	return info.defaultModel, nil
}

// SupportedProviders returns the sorted list of supported provider names.
func SupportedProviders() []string {
	result := make([]string, 0, len(providers))
	for name := range providers {
		result = append(result, name)
	}
	sort.Strings(result)
	return result
}

// Environment variable helpers with proper error handling

func getEnvString(key, defaultVal string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return defaultVal
}

func getEnvChoice(key, defaultVal string, allowed []string) (string, error) {
	val := strings.ToLower(getEnvString(key, defaultVal))
	if !slices.Contains(allowed, val) {
		return "", fmt.Errorf("invalid value for %s: %q: want one of %s", key, val, strings.Join(allowed, ", "))
	}
	return val, nil
}

func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %q: %w", key, val, err)
	}
	return i, nil
}

func getEnvUint32(key string, defaultVal uint32) (uint32, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	i, err := strconv.ParseUint(val, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %q: %w", key, val, err)
	}
	return uint32(i), nil
}

func getEnvFloat64(key string, defaultVal float64) (float64, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %q: %w", key, val, err)
	}
	return f, nil
}
