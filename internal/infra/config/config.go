package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config aggregates runtime configuration used across the service.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Auth     AuthConfig     `yaml:"auth"`
	NLU      NLUConfig      `yaml:"nlu"`
	Speech   SpeechConfig   `yaml:"speech"`
	FAQ      FAQConfig      `yaml:"faq"`
	Pending  PendingConfig  `yaml:"pending"`
	Audio    AudioConfig    `yaml:"audio"`
	Postgres PostgresConfig `yaml:"postgres"`
	Seed     SeedConfig     `yaml:"seed"`
}

// HTTPConfig controls server level behavior.
type HTTPConfig struct {
	Address      string          `yaml:"address"`
	ReadTimeout  time.Duration   `yaml:"readTimeout"`
	WriteTimeout time.Duration   `yaml:"writeTimeout"`
	RateLimit    RateLimitConfig `yaml:"rateLimit"`
}

// RateLimitConfig drives the request limiting middleware.
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMinute int  `yaml:"requestsPerMinute"`
	Burst             int  `yaml:"burst"`
}

// AuthConfig contains token signing settings.
type AuthConfig struct {
	Secret   string        `yaml:"secret"`
	TokenTTL time.Duration `yaml:"tokenTtl"`
}

// NLUConfig contains Gemini intent-classifier settings.
type NLUConfig struct {
	APIKey  string `yaml:"apiKey"`
	BaseURL string `yaml:"baseUrl"`
	Model   string `yaml:"model"`
}

// SpeechConfig contains speech-to-text and text-to-speech settings.
type SpeechConfig struct {
	DeepgramAPIKey  string `yaml:"deepgramApiKey"`
	DeepgramBaseURL string `yaml:"deepgramBaseUrl"`
	DeepgramModel   string `yaml:"deepgramModel"`
	TTSLanguage     string `yaml:"ttsLanguage"`
}

// FAQConfig controls question matching behavior.
type FAQConfig struct {
	Threshold      float64 `yaml:"threshold"`
	CandidateLimit int     `yaml:"candidateLimit"`
}

// PendingConfig controls the per-session pending question store.
type PendingConfig struct {
	TTL    time.Duration `yaml:"ttl"`
	Valkey ValkeyConfig  `yaml:"valkey"`
}

// ValkeyConfig contains connection information for shared session state.
type ValkeyConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// AudioConfig contains object storage settings for synthesized clips.
type AudioConfig struct {
	Minio MinioConfig `yaml:"minio"`
}

// MinioConfig contains connection information for clip storage.
type MinioConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"accessKey"`
	SecretKey string `yaml:"secretKey"`
	Bucket    string `yaml:"bucket"`
	UseSSL    bool   `yaml:"useSsl"`
}

// PostgresConfig contains DSN and pooling settings.
type PostgresConfig struct {
	DSN      string `yaml:"dsn"`
	MaxConns int32  `yaml:"maxConns"`
	MinConns int32  `yaml:"minConns"`
}

// SeedConfig holds demo records loaded at startup when the backing
// stores are empty.
type SeedConfig struct {
	Accounts []SeedAccount `yaml:"accounts"`
	Users    []SeedUser    `yaml:"users"`
	FAQs     []SeedFAQ     `yaml:"faqs"`
}

// SeedAccount is a demo ledger account.
type SeedAccount struct {
	AccountID string  `yaml:"accountId"`
	Name      string  `yaml:"name"`
	Balance   float64 `yaml:"balance"`
	Status    string  `yaml:"status"`
}

// SeedUser is a demo login bound to a seeded account.
type SeedUser struct {
	Username  string `yaml:"username"`
	Password  string `yaml:"password"`
	AccountID string `yaml:"accountId"`
}

// SeedFAQ is a demo question/answer pair.
type SeedFAQ struct {
	Question string `yaml:"question"`
	Answer   string `yaml:"answer"`
}

// Load reads configuration from a YAML file and environment variables.
func Load() (*Config, error) {
	cfg := defaultConfig()

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := hydrateFromFile(cfg, path); err != nil {
			return nil, err
		}
	} else if _, err := os.Stat("configs/config.yaml"); err == nil {
		if err := hydrateFromFile(cfg, "configs/config.yaml"); err != nil {
			return nil, err
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func hydrateFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("HTTP_ADDRESS"); v != "" {
		cfg.HTTP.Address = v
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_ENABLED"); v != "" {
		cfg.HTTP.RateLimit.Enabled = v == "1" || strings.EqualFold(v, "true")
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_RPM"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.RateLimit.RequestsPerMinute = parsed
		}
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_BURST"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.RateLimit.Burst = parsed
		}
	}
	if v := os.Getenv("AUTH_SECRET"); v != "" {
		cfg.Auth.Secret = v
	}
	if v := os.Getenv("AUTH_TOKEN_TTL"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Auth.TokenTTL = parsed
		}
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		cfg.NLU.APIKey = v
	}
	if v := os.Getenv("GEMINI_BASE_URL"); v != "" {
		cfg.NLU.BaseURL = v
	}
	if v := os.Getenv("GEMINI_MODEL"); v != "" {
		cfg.NLU.Model = v
	}
	if v := os.Getenv("DEEPGRAM_API_KEY"); v != "" {
		cfg.Speech.DeepgramAPIKey = v
	}
	if v := os.Getenv("DEEPGRAM_BASE_URL"); v != "" {
		cfg.Speech.DeepgramBaseURL = v
	}
	if v := os.Getenv("DEEPGRAM_MODEL"); v != "" {
		cfg.Speech.DeepgramModel = v
	}
	if v := os.Getenv("TTS_LANGUAGE"); v != "" {
		cfg.Speech.TTSLanguage = v
	}
	if v := os.Getenv("FAQ_THRESHOLD"); v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.FAQ.Threshold = parsed
		}
	}
	if v := os.Getenv("FAQ_CANDIDATE_LIMIT"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.FAQ.CandidateLimit = parsed
		}
	}
	if v := os.Getenv("PENDING_TTL"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Pending.TTL = parsed
		}
	}
	if v := os.Getenv("PENDING_VALKEY_ENABLED"); v != "" {
		cfg.Pending.Valkey.Enabled = v == "1" || strings.EqualFold(v, "true")
	}
	if v := os.Getenv("PENDING_VALKEY_ADDR"); v != "" {
		cfg.Pending.Valkey.Addr = v
	}
	if v := os.Getenv("AUDIO_MINIO_ENABLED"); v != "" {
		cfg.Audio.Minio.Enabled = v == "1" || strings.EqualFold(v, "true")
	}
	if v := os.Getenv("AUDIO_MINIO_ENDPOINT"); v != "" {
		cfg.Audio.Minio.Endpoint = v
	}
	if v := os.Getenv("AUDIO_MINIO_ACCESS_KEY"); v != "" {
		cfg.Audio.Minio.AccessKey = v
	}
	if v := os.Getenv("AUDIO_MINIO_SECRET_KEY"); v != "" {
		cfg.Audio.Minio.SecretKey = v
	}
	if v := os.Getenv("AUDIO_MINIO_BUCKET"); v != "" {
		cfg.Audio.Minio.Bucket = v
	}
	if v := os.Getenv("AUDIO_MINIO_USE_SSL"); v != "" {
		cfg.Audio.Minio.UseSSL = v == "1" || strings.EqualFold(v, "true")
	}
	if v := os.Getenv("POSTGRES_DSN"); v != "" {
		cfg.Postgres.DSN = v
	}
	if v := os.Getenv("POSTGRES_MAX_CONNS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Postgres.MaxConns = int32(parsed)
		}
	}
	if v := os.Getenv("POSTGRES_MIN_CONNS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Postgres.MinConns = int32(parsed)
		}
	}
}

func defaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Address:      ":8080",
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			RateLimit: RateLimitConfig{
				Enabled:           true,
				RequestsPerMinute: 60,
				Burst:             20,
			},
		},
		Auth: AuthConfig{
			Secret:   "supersecretkey",
			TokenTTL: 4 * time.Hour,
		},
		NLU: NLUConfig{
			Model: "gemini-2.5-flash",
		},
		Speech: SpeechConfig{
			DeepgramModel: "nova-2",
			TTSLanguage:   "en",
		},
		FAQ: FAQConfig{
			Threshold:      0.45,
			CandidateLimit: 300,
		},
		Pending: PendingConfig{
			TTL: 10 * time.Minute,
			Valkey: ValkeyConfig{
				Enabled: false,
				Addr:    "",
			},
		},
		Audio: AudioConfig{
			Minio: MinioConfig{
				Enabled: false,
				Bucket:  "voicebank-tts",
			},
		},
		Postgres: PostgresConfig{
			DSN:      "",
			MaxConns: 4,
			MinConns: 0,
		},
		Seed: SeedConfig{
			Accounts: []SeedAccount{
				{AccountID: "101", Name: "Yanqian", Balance: 5000, Status: "active"},
				{AccountID: "102", Name: "Ravi", Balance: 12500, Status: "active"},
			},
			Users: []SeedUser{
				{Username: "demo", Password: "demo1234", AccountID: "101"},
			},
			FAQs: []SeedFAQ{
				{
					Question: "How do I open an account?",
					Answer:   "Visit the nearest branch with a valid ID proof, or register through the mobile app.",
				},
				{
					Question: "How can I reset my net banking password?",
					Answer:   "Use the Forgot Password link on the login page and verify with your registered mobile number.",
				},
				{
					Question: "What is the minimum balance requirement?",
					Answer:   "Savings accounts require a minimum balance of ₹1000.",
				},
			},
		},
	}
}

// Validate ensures the configuration is safe to use.
func (c *Config) Validate() error {
	if c.HTTP.Address == "" {
		return errors.New("http.address cannot be empty")
	}
	if c.HTTP.RateLimit.Enabled {
		if c.HTTP.RateLimit.RequestsPerMinute <= 0 {
			return errors.New("http.rateLimit.requestsPerMinute must be positive")
		}
		if c.HTTP.RateLimit.Burst <= 0 {
			return errors.New("http.rateLimit.burst must be positive")
		}
	}
	if strings.TrimSpace(c.Auth.Secret) == "" {
		return errors.New("auth.secret cannot be empty")
	}
	if c.Auth.TokenTTL <= 0 {
		return errors.New("auth.tokenTtl must be positive")
	}
	if c.FAQ.Threshold < 0 || c.FAQ.Threshold > 1 {
		return errors.New("faq.threshold must be between 0 and 1")
	}
	if c.FAQ.CandidateLimit <= 0 {
		return errors.New("faq.candidateLimit must be positive")
	}
	if c.Pending.TTL <= 0 {
		return errors.New("pending.ttl must be positive")
	}
	if c.Pending.Valkey.Enabled && strings.TrimSpace(c.Pending.Valkey.Addr) == "" {
		return errors.New("pending.valkey.addr cannot be empty when valkey is enabled")
	}
	if c.Audio.Minio.Enabled {
		if strings.TrimSpace(c.Audio.Minio.Endpoint) == "" {
			return errors.New("audio.minio.endpoint cannot be empty when minio is enabled")
		}
		if strings.TrimSpace(c.Audio.Minio.Bucket) == "" {
			return errors.New("audio.minio.bucket cannot be empty when minio is enabled")
		}
	}
	return nil
}
