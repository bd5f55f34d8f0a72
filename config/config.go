package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"ai_blog_post_writer/generator"
)

const DefaultPath = "config/config.json"

// Config holds the application settings.
type Config struct {
	ServerAddr string        `json:"server_addr,omitempty"`
	Gemini     GeminiConfig  `json:"gemini"`
	LLM        *LLMConfig    `json:"llm,omitempty"`
	ImageSize  string        `json:"image_size,omitempty"`
	Credential string        `json:"credential_path,omitempty"`
	SessionTTL int           `json:"session_ttl_minutes,omitempty"`
	Timeout    int           `json:"request_timeout_seconds,omitempty"`
	Proxy      ProxyConfig   `json:"proxy"`
	Logging    LoggingConfig `json:"logging"`
}

// GeminiConfig configures the text and image models used with the caller's key.
// APIKey is the server-side fallback when a request carries no key.
type GeminiConfig struct {
	APIKey            string `json:"api_key,omitempty"`
	Model             string `json:"model,omitempty"`
	ImageModel        string `json:"image_model,omitempty"`
	RequestsPerMinute int    `json:"requests_per_minute,omitempty"`
}

// LLMConfig 预留给服务端代理与自由格式生成的模型配置（OpenAI 兼容）。
type LLMConfig struct {
	Provider string `json:"provider,omitempty"`
	Model    string `json:"model,omitempty"`
	APIKey   string `json:"api_key,omitempty"`
	BaseURL  string `json:"base_url,omitempty"`
}

// ProxyConfig toggles the serverless-style proxy endpoints.
type ProxyConfig struct {
	Enabled *bool `json:"enabled,omitempty"`
}

type LoggingConfig struct {
	Level string `json:"level,omitempty"`
}

// Load reads .env (if present), the JSON file at path (if present), then
// environment overrides, and fills defaults. A missing file is not an error.
func Load(path string) (Config, error) {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return Config{}, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return Config{}, err
		default:
			if err := json.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse %s: %w", path, err)
			}
		}
	}

	cfg.applyEnv()
	cfg.setDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.ServerAddr = getEnv("SERVER_ADDR", c.ServerAddr)
	if port := os.Getenv("PORT"); port != "" && os.Getenv("SERVER_ADDR") == "" {
		c.ServerAddr = ":" + port
	}
	c.Gemini.APIKey = getEnv("GEMINI_API_KEY", c.Gemini.APIKey)
	c.Gemini.Model = getEnv("GEMINI_MODEL", c.Gemini.Model)
	c.Gemini.ImageModel = getEnv("GEMINI_IMAGE_MODEL", c.Gemini.ImageModel)
	c.Gemini.RequestsPerMinute = getEnvInt("GEMINI_RPM", c.Gemini.RequestsPerMinute)

	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		if c.LLM == nil {
			c.LLM = &LLMConfig{Provider: "openai"}
		}
		c.LLM.APIKey = key
	}
	if c.LLM != nil {
		c.LLM.Model = getEnv("OPENAI_MODEL", c.LLM.Model)
		c.LLM.BaseURL = getEnv("OPENAI_BASE_URL", c.LLM.BaseURL)
	}

	c.ImageSize = getEnv("IMAGE_SIZE", c.ImageSize)
	c.Credential = getEnv("CREDENTIAL_PATH", c.Credential)
	c.SessionTTL = getEnvInt("SESSION_TTL_MINUTES", c.SessionTTL)
	c.Timeout = getEnvInt("REQUEST_TIMEOUT_SECONDS", c.Timeout)
	c.Logging.Level = getEnv("LOG_LEVEL", c.Logging.Level)
}

func (c *Config) setDefaults() {
	if c.ServerAddr == "" {
		c.ServerAddr = ":8080"
	}
	if c.Gemini.Model == "" {
		c.Gemini.Model = generator.DefaultGeminiModel
	}
	if c.Gemini.ImageModel == "" {
		c.Gemini.ImageModel = generator.DefaultImageModel
	}
	if c.LLM != nil {
		if c.LLM.Provider == "" {
			c.LLM.Provider = "openai"
		}
		if c.LLM.Model == "" {
			c.LLM.Model = generator.DefaultOpenAIModel
		}
	}
	if c.ImageSize == "" {
		c.ImageSize = generator.DefaultOpenAIImageSize
	}
	if c.SessionTTL <= 0 {
		c.SessionTTL = 60
	}
	if c.Proxy.Enabled == nil {
		on := true
		c.Proxy.Enabled = &on
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "warn"
	}
}

// SessionTTLDuration is how long an idle server session is kept.
func (c Config) SessionTTLDuration() time.Duration {
	return time.Duration(c.SessionTTL) * time.Minute
}

// RequestTimeout is zero (no timeout) unless configured.
func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}

// ProxyEnabled reports whether /api/generate and /api/dalle are served.
func (c Config) ProxyEnabled() bool {
	return c.Proxy.Enabled == nil || *c.Proxy.Enabled
}

// LLMSettings converts the llm block for the OpenAI-compatible clients.
func (c Config) LLMSettings() (*generator.LLMSettings, error) {
	if c.LLM == nil || c.LLM.Provider == "" {
		return nil, errors.New("llm config missing; please set llm.provider/model/api_key in config or OPENAI_API_KEY")
	}
	switch c.LLM.Provider {
	case "openai":
	case "deepseek":
		// DeepSeek 提供 OpenAI 兼容接口，需填写 base_url。
		if c.LLM.BaseURL == "" {
			return nil, errors.New("llm provider deepseek requires base_url (OpenAI-compatible endpoint)")
		}
	default:
		return nil, fmt.Errorf("llm provider %s not supported", c.LLM.Provider)
	}
	return &generator.LLMSettings{
		Provider: c.LLM.Provider,
		Model:    c.LLM.Model,
		APIKey:   c.LLM.APIKey,
		BaseURL:  c.LLM.BaseURL,
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
