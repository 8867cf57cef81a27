// Package config loads server settings from an optional YAML file, an
// optional .env file and the environment, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"io/ioutil"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

const DefaultFile = "config.yaml"

type Config struct {
	ServerAddress     string        `yaml:"server_address"`
	BaseURL           string        `yaml:"base_url"`
	DeezerAPIURL      string        `yaml:"deezer_api_url"`
	RequestTimeout    time.Duration `yaml:"request_timeout"`
	LogLevel          string        `yaml:"log_level"`
	LogFormat         string        `yaml:"log_format"`
	WidgetTemplateDir string        `yaml:"widget_template_dir"`
	WidgetDomain      string        `yaml:"widget_domain"`
	AllowedOrigins    []string      `yaml:"allowed_origins"`
	MCPInstructions   string        `yaml:"mcp_instructions"`
	MCPStateless      bool          `yaml:"mcp_stateless"`
	MCPSessionTimeout time.Duration `yaml:"mcp_session_timeout"`
}

const defaultInstructions = "Use deezer_search to find tracks on Deezer. Results are shown in the Deezer widget."

func Default() *Config {
	return &Config{
		ServerAddress:  ":8002",
		BaseURL:        "http://localhost:8002",
		DeezerAPIURL:   "https://api.deezer.com",
		RequestTimeout: 10 * time.Second,
		LogLevel:       "info",
		LogFormat:      "text",
		WidgetDomain:   "https://www.deezer.com",
		AllowedOrigins: []string{"*"},

		MCPInstructions:   defaultInstructions,
		MCPSessionTimeout: 30 * time.Minute,
	}
}

// Load builds the configuration. CONFIG_FILE names the YAML file; a missing
// default file is not an error, a missing explicit one is.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logrus.Debug("No .env file found")
	}

	cfg := Default()

	filename, explicit := os.LookupEnv("CONFIG_FILE")
	if !explicit {
		filename = DefaultFile
	}
	if err := cfg.loadFile(filename); err != nil {
		if explicit || !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}

	if err := cfg.loadEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func (c *Config) loadFile(filename string) error {
	data, err := ioutil.ReadFile(filename)
	if err != nil {
		return err
	}
	return c.Parse(data)
}

// Parse overlays YAML data onto c.
func (c *Config) Parse(data []byte) error {
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}
	return nil
}

func (c *Config) loadEnv() error {
	setString(&c.ServerAddress, "SERVER_ADDRESS")
	setString(&c.BaseURL, "BASE_URL")
	setString(&c.DeezerAPIURL, "DEEZER_API_URL")
	setString(&c.LogLevel, "LOG_LEVEL")
	setString(&c.LogFormat, "LOG_FORMAT")
	setString(&c.WidgetTemplateDir, "WIDGET_TEMPLATE_DIR")
	setString(&c.WidgetDomain, "WIDGET_DOMAIN")
	setString(&c.MCPInstructions, "MCP_INSTRUCTIONS")

	if v := os.Getenv("REQUEST_TIMEOUT"); v != "" {
		timeout, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid REQUEST_TIMEOUT: %w", err)
		}
		c.RequestTimeout = timeout
	}
	if v := os.Getenv("MCP_SESSION_TIMEOUT"); v != "" {
		timeout, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid MCP_SESSION_TIMEOUT: %w", err)
		}
		c.MCPSessionTimeout = timeout
	}
	if v := os.Getenv("MCP_STATELESS"); v != "" {
		stateless, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid MCP_STATELESS: %w", err)
		}
		c.MCPStateless = stateless
	}
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		var origins []string
		for _, origin := range strings.Split(v, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				origins = append(origins, origin)
			}
		}
		c.AllowedOrigins = origins
	}
	return nil
}

func setString(field *string, key string) {
	if v := os.Getenv(key); v != "" {
		*field = v
	}
}

func (c *Config) Validate() error {
	if c.ServerAddress == "" {
		return errors.New("server address cannot be empty")
	}
	for name, raw := range map[string]string{"base url": c.BaseURL, "deezer api url": c.DeezerAPIURL} {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("invalid %v: %q", name, raw)
		}
	}
	if c.RequestTimeout <= 0 {
		return errors.New("request timeout must be positive")
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("unknown log format: %v", c.LogFormat)
	}
	if c.MCPSessionTimeout < 0 {
		return errors.New("mcp session timeout cannot be negative")
	}
	if len(c.AllowedOrigins) == 0 {
		return errors.New("at least one allowed origin is required")
	}
	return nil
}

// ConfigureLogging applies the log settings to the standard logrus logger.
func (c *Config) ConfigureLogging() {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
	if c.LogFormat == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
}
