package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	ServerPort        int           `yaml:"server_port" validate:"required,min=1,max=65535"`
	JWTSecret         string        `yaml:"jwt_secret" validate:"omitempty,min=32"`
	AllowedOrigins    []string      `yaml:"allowed_origins"`
	WSRateLimit       int           `yaml:"ws_rate_limit" validate:"min=1"`
	WSRateWindow      time.Duration `yaml:"ws_rate_window" validate:"gt=0"`
	LogLevel          string        `yaml:"log_level" validate:"oneof=trace debug info warn error"`
	InitialBoardTitle string        `yaml:"initial_board_title"`
	ShutdownTimeout   time.Duration `yaml:"shutdown_timeout" validate:"gt=0"`
}

func Default() *Config {
	return &Config{
		ServerPort:        8080,
		WSRateLimit:       5,
		WSRateWindow:      time.Second,
		LogLevel:          "info",
		InitialBoardTitle: "Kanban Board",
		ShutdownTimeout:   5 * time.Second,
	}
}

// AuthEnabled reports whether bearer tokens are required on the API.
func (c *Config) AuthEnabled() bool {
	return c.JWTSecret != ""
}

/*
Load builds the config in this order:
  - defaults
  - env files (".env" when none given); a missing file is skipped
  - YAML file named by BOARD_CONFIG, if set
  - environment variables
*/
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load env file %s: %w", f, err)
		}
	}

	cfg := Default()
	if path := os.Getenv("BOARD_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := cfg.applyYAML(data); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func (c *Config) applyYAML(data []byte) error {
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("decode config yaml: %w", err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	if v, ok := os.LookupEnv("SERVER_PORT"); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid SERVER_PORT: %w", err)
		}
		c.ServerPort = port
	}
	if v, ok := os.LookupEnv("JWT_SECRET"); ok {
		c.JWTSecret = v
	}
	if v, ok := os.LookupEnv("ALLOWED_ORIGINS"); ok {
		c.AllowedOrigins = splitList(v)
	}
	if v, ok := os.LookupEnv("WS_RATE_LIMIT"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid WS_RATE_LIMIT: %w", err)
		}
		c.WSRateLimit = n
	}
	if v, ok := os.LookupEnv("WS_RATE_WINDOW"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid WS_RATE_WINDOW: %w", err)
		}
		c.WSRateWindow = d
	}
	if v, ok := os.LookupEnv("LOG_LEVEL"); ok {
		c.LogLevel = strings.ToLower(v)
	}
	if v, ok := os.LookupEnv("INITIAL_BOARD_TITLE"); ok {
		c.InitialBoardTitle = v
	}
	if v, ok := os.LookupEnv("SHUTDOWN_TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid SHUTDOWN_TIMEOUT: %w", err)
		}
		c.ShutdownTimeout = d
	}
	return nil
}

// splitList parses "a, b,,c" into [a b c].
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
