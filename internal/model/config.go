package model

import "time"

// Config holds all runtime settings for the worldview CLI
type Config struct {
	Tokens       TokensConfig       `yaml:"tokens" mapstructure:"tokens"`
	LLM          LLMConfig          `yaml:"llm" mapstructure:"llm"`
	Agent        AgentConfig        `yaml:"agent" mapstructure:"agent"`
	Cache        CacheConfig        `yaml:"cache" mapstructure:"cache"`
	Concurrency  ConcurrencyConfig  `yaml:"concurrency" mapstructure:"concurrency"`
	RateLimiting RateLimitingConfig `yaml:"rate_limiting" mapstructure:"rate_limiting"`
	HTTP         HTTPConfig         `yaml:"http" mapstructure:"http"`
	Output       OutputConfig       `yaml:"output" mapstructure:"output"`
}

// TokensConfig selects the token table
type TokensConfig struct {
	File string `yaml:"file" mapstructure:"file"` // Empty uses the embedded table
}

// LLMConfig configures the language model used by add and eval
type LLMConfig struct {
	Provider    string        `yaml:"provider" mapstructure:"provider"` // openai, anthropic, ollama; empty disables
	Model       string        `yaml:"model" mapstructure:"model"`
	APIKey      string        `yaml:"api_key,omitempty" mapstructure:"api_key"`
	BaseURL     string        `yaml:"base_url,omitempty" mapstructure:"base_url"`
	MaxTokens   int           `yaml:"max_tokens" mapstructure:"max_tokens"`
	Temperature float32       `yaml:"temperature" mapstructure:"temperature"`
	Timeout     time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// AgentConfig tunes the edit loop
type AgentConfig struct {
	MaxAttempts int    `yaml:"max_attempts" mapstructure:"max_attempts"`
	File        string `yaml:"file" mapstructure:"file"`             // Default worldview file for add
	Statements  int    `yaml:"statements" mapstructure:"statements"` // Statements taken from a page for add --url
}

// CacheConfig configures the LLM response cache
type CacheConfig struct {
	Enabled bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir     string        `yaml:"dir" mapstructure:"dir"`
	TTL     time.Duration `yaml:"ttl" mapstructure:"ttl"`
}

// ConcurrencyConfig bounds the worker pool
type ConcurrencyConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// RateLimitingConfig paces outbound LLM requests per provider
type RateLimitingConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	BurstSize         int     `yaml:"burst_size" mapstructure:"burst_size"`
}

// HTTPConfig configures fetching for add --url
type HTTPConfig struct {
	Timeout       time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent     string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes  int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	HTTPProxy     string        `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy    string        `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy       string        `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"`
	InsecureTLS   bool          `yaml:"insecure_tls" mapstructure:"insecure_tls"`
	RespectRobots bool          `yaml:"respect_robots" mapstructure:"respect_robots"`
}

// OutputConfig controls how results are printed
type OutputConfig struct {
	Format  string `yaml:"format" mapstructure:"format"` // text or json
	Strict  bool   `yaml:"strict" mapstructure:"strict"` // Warnings fail validation
	Verbose bool   `yaml:"verbose" mapstructure:"verbose"`
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			MaxTokens:   4096,
			Temperature: 0,
			Timeout:     120 * time.Second,
		},
		Agent: AgentConfig{
			MaxAttempts: 3,
			File:        "worldview.wvf",
			Statements:  5,
		},
		Cache: CacheConfig{
			Enabled: true,
			Dir:     ".worldview-cache",
			TTL:     24 * time.Hour,
		},
		Concurrency: ConcurrencyConfig{
			Workers: 4,
		},
		RateLimiting: RateLimitingConfig{
			RequestsPerSecond: 2.0,
			BurstSize:         4,
		},
		HTTP: HTTPConfig{
			Timeout:       15 * time.Second,
			UserAgent:     "worldview/0.1 (+https://github.com/ppiankov/worldview)",
			MaxBodyBytes:  2 << 20,
			RespectRobots: true,
		},
		Output: OutputConfig{
			Format: "text",
		},
	}
}
