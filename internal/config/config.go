// Package config handles loading and validation of client configuration.
// Supports both development (env vars, .env) and production (Secret Manager) modes.
package config

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultAPIBaseURL is the storefront API root used when none is configured.
const DefaultAPIBaseURL = "http://localhost:5000/api"

// Config holds all client and gateway configuration.
// Environment determines whether credentials load from env vars (development) or Secret Manager (production).
type Config struct {
	// Server settings (gateway only)
	Port        string
	Environment string // "development" or "production"
	LogLevel    string // "debug", "info", "warn", "error"

	// Storefront API
	APIBaseURL        string
	ChromeTLS         bool    // Use the Chrome TLS fingerprint transport
	RequestsPerSecond float64 // Client-side pacing; 0 disables

	// SessionFile is where the CLI persists the logged-in session.
	SessionFile string

	// GCP settings (required in production)
	GCPProject string
	SecretID   string

	// Customer credentials the gateway logs in with (loaded from secrets in production)
	Customer CustomerConfig
}

// CustomerConfig is the storefront account the gateway acts for.
// In production this is loaded from Secret Manager as JSON.
type CustomerConfig struct {
	Email    string `json:"email" yaml:"email"`
	Password string `json:"password" yaml:"password"`
}

// fileConfig mirrors the CONFIG_FILE layout (JSON or YAML).
type fileConfig struct {
	Port              string         `json:"port" yaml:"port"`
	Environment       string         `json:"environment" yaml:"environment"`
	LogLevel          string         `json:"log_level" yaml:"log_level"`
	APIBaseURL        string         `json:"api_base_url" yaml:"api_base_url"`
	ChromeTLS         bool           `json:"chrome_tls" yaml:"chrome_tls"`
	RequestsPerSecond float64        `json:"requests_per_second" yaml:"requests_per_second"`
	SessionFile       string         `json:"session_file" yaml:"session_file"`
	Customer          CustomerConfig `json:"customer" yaml:"customer"`
}

// Load reads configuration from file, environment, or Secret Manager.
// Priority: CONFIG_FILE (if set) → ENV vars / Secret Manager.
// A .env file in the working directory is loaded first outside production;
// variables already set in the environment win.
func Load(ctx context.Context) (*Config, error) {
	if os.Getenv("ENVIRONMENT") != "production" {
		// Missing .env is fine
		_ = godotenv.Load()
	}

	if configPath := os.Getenv("CONFIG_FILE"); configPath != "" {
		return loadFromFile(configPath)
	}

	cfg := &Config{
		Port:        envOrDefault("PORT", "8080"),
		Environment: envOrDefault("ENVIRONMENT", "development"),
		LogLevel:    envOrDefault("LOG_LEVEL", "info"),
		APIBaseURL:  envOrDefault("API_BASE_URL", DefaultAPIBaseURL),
		SessionFile: envOrDefault("SESSION_FILE", defaultSessionFile()),
		GCPProject:  os.Getenv("GCP_PROJECT"),
		SecretID:    envOrDefault("SECRET_ID", "storefront-customer"),
	}

	var err error
	if cfg.ChromeTLS, err = envBool("CHROME_TLS"); err != nil {
		return nil, err
	}
	if v := os.Getenv("REQUESTS_PER_SECOND"); v != "" {
		cfg.RequestsPerSecond, err = strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("parsing REQUESTS_PER_SECOND: %w", err)
		}
	}

	if cfg.Environment == "production" {
		if cfg.GCPProject == "" {
			return nil, fmt.Errorf("GCP_PROJECT required in production environment")
		}
		err = cfg.loadFromSecretManager(ctx)
	} else {
		cfg.loadFromEnv()
	}
	if err != nil {
		return nil, fmt.Errorf("loading customer config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFromFile reads all configuration from a JSON or YAML file.
// The format is chosen by extension (.yaml/.yml → YAML, anything else JSON).
func loadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var fc fileConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &fc)
	default:
		err = json.Unmarshal(data, &fc)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg := &Config{
		Port:              withDefault(fc.Port, "8080"),
		Environment:       withDefault(fc.Environment, "development"),
		LogLevel:          withDefault(fc.LogLevel, "info"),
		APIBaseURL:        withDefault(fc.APIBaseURL, DefaultAPIBaseURL),
		ChromeTLS:         fc.ChromeTLS,
		RequestsPerSecond: fc.RequestsPerSecond,
		SessionFile:       withDefault(fc.SessionFile, defaultSessionFile()),
		Customer:          fc.Customer,
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// withDefault returns val if non-empty, otherwise defaultVal.
func withDefault(val, defaultVal string) string {
	if val != "" {
		return val
	}
	return defaultVal
}

// loadFromSecretManager fetches customer credentials from GCP Secret Manager.
// Secret name format: projects/{project}/secrets/{secret_id}/versions/latest
func (c *Config) loadFromSecretManager(ctx context.Context) error {
	client, err := secretmanager.NewClient(ctx)
	if err != nil {
		return fmt.Errorf("creating secret manager client: %w", err)
	}
	defer client.Close()

	secretName := fmt.Sprintf("projects/%s/secrets/%s/versions/latest",
		c.GCPProject, c.SecretID)

	result, err := client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: secretName,
	})
	if err != nil {
		return fmt.Errorf("accessing secret %s: %w", secretName, err)
	}

	if err := json.Unmarshal(result.Payload.Data, &c.Customer); err != nil {
		return fmt.Errorf("parsing secret JSON: %w", err)
	}

	return nil
}

// loadFromEnv reads customer credentials from individual environment variables.
func (c *Config) loadFromEnv() {
	c.Customer = CustomerConfig{
		Email:    os.Getenv("CUSTOMER_EMAIL"),
		Password: os.Getenv("CUSTOMER_PASSWORD"),
	}
}

// validate checks that the configuration is usable.
// Customer credentials are optional: the CLI logs in interactively.
func (c *Config) validate() error {
	u, err := url.Parse(c.APIBaseURL)
	if err != nil {
		return fmt.Errorf("invalid api_base_url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid api_base_url: scheme must be http or https")
	}
	if u.Host == "" {
		return fmt.Errorf("invalid api_base_url: missing host")
	}
	if c.RequestsPerSecond < 0 {
		return fmt.Errorf("requests_per_second must not be negative")
	}
	if (c.Customer.Email == "") != (c.Customer.Password == "") {
		return fmt.Errorf("customer email and password must be set together")
	}
	return nil
}

// HasCustomer reports whether gateway credentials are configured.
func (c *Config) HasCustomer() bool {
	return c.Customer.Email != "" && c.Customer.Password != ""
}

// APIBase returns the API root without a trailing slash.
func (c *Config) APIBase() string {
	return strings.TrimSuffix(c.APIBaseURL, "/")
}

func defaultSessionFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".storefront", "session.json")
	}
	return filepath.Join(home, ".storefront", "session.json")
}

func envBool(key string) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("parsing %s: %w", key, err)
	}
	return b, nil
}

// envOrDefault returns the environment variable value or the default if not set.
func envOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
