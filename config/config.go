package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type OpenAI struct {
	OpenAIAPIKey        string        `yaml:"api_key" env:"OPENAI_API_KEY"`
	OpenAIModel         string        `yaml:"model" env:"OPENAI_MODEL" env-default:"gpt-3.5-turbo"`
	OpenAIBaseURL       string        `yaml:"base_url" env:"OPENAI_BASE_URL" env-default:"https://api.openai.com"`
	Temperature         float32       `yaml:"temperature" env:"OPENAI_TEMPERATURE" env-default:"0.7"`
	ProbeTemperature    float32       `yaml:"probe_temperature" env:"OPENAI_PROBE_TEMPERATURE" env-default:"0.1"`
	CheckTimeout        time.Duration `yaml:"check_timeout" env:"OPENAI_CHECK_TIMEOUT" env-default:"15s"`
	MaxTokens           int           `yaml:"max_tokens" env:"OPENAI_MAX_TOKENS" env-default:"500"`
	HistoryTokenWarning int           `yaml:"history_token_warning" env:"OPENAI_HISTORY_TOKEN_WARNING" env-default:"3500"`
}

type Conversation struct {
	RequestTimeout time.Duration `yaml:"request_timeout" env:"CONVERSATION_REQUEST_TIMEOUT" env-default:"30s"`
	ProbeTimeout   time.Duration `yaml:"probe_timeout" env:"CONVERSATION_PROBE_TIMEOUT" env-default:"5s"`
}

type Redis struct {
	Endpoint string `yaml:"endpoint" env:"REDIS_ENDPOINT"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
}

type HTTP struct {
	Port int `yaml:"port" env:"HTTP_PORT" env-default:"8080"`
}

type Telegram struct {
	TelegramAPIToken  string  `yaml:"api_token" env:"TELEGRAM_APITOKEN"`
	AllowedTelegramID []int64 `yaml:"allowed_telegram_id" env:"ALLOWED_TELEGRAM_ID" env-separator:","`
	Language          string  `yaml:"language" env:"TELEGRAM_LANGUAGE" env-default:"en"`
	UpdateWorkers     int     `yaml:"update_workers" env:"TELEGRAM_UPDATE_WORKERS" env-default:"8"`
}

type BotSeed struct {
	Name   string `yaml:"name"`
	Type   string `yaml:"type"`
	Status string `yaml:"status"`
}

type Config struct {
	OpenAI       OpenAI       `yaml:"openai"`
	Conversation Conversation `yaml:"conversation"`
	Redis        Redis        `yaml:"redis"`
	HTTP         HTTP         `yaml:"http"`
	Telegram     Telegram     `yaml:"telegram"`
	Bots         []BotSeed    `yaml:"bots"`
}

// DefaultBots are the bots a fresh console starts with.
func DefaultBots() []BotSeed {
	return []BotSeed{
		{Name: "SupportBot", Type: "Support", Status: "Active"},
		{Name: "HRBot", Type: "HR", Status: "Idle"},
		{Name: "FinanceBot", Type: "Finance", Status: "Error"},
	}
}

// LoadConfig reads the optional yaml file at cfgPath and then the environment.
// A .env file in the working directory is loaded first when present.
func LoadConfig(cfgPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("WARN: failed to load .env file: %v", err)
	}

	var cfg Config
	if cfgPath != "" {
		if err := cleanenv.ReadConfig(cfgPath, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", cfgPath, err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read env: %w", err)
	}

	if len(cfg.Bots) == 0 {
		cfg.Bots = DefaultBots()
	}
	return &cfg, nil
}
