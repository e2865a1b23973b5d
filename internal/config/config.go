// Package config provides application configuration management with support for environment variables, command-line flags, and .env files.
package config

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"
)

// Config holds the application configuration.
type Config struct {
	App     AppConfig
	Logger  LoggerConfig
	Backend BackendConfig
	Auth    AuthConfig
	Dev     DevServerConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
	// StartPath is the URL path the shell restores its route from on boot.
	StartPath string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level  string
	Format string
}

// BackendConfig holds settings for talking to the fragment/JSON backend.
type BackendConfig struct {
	// BaseURL is the origin the shell fetches fragments and data from.
	BaseURL string
	// Timeout bounds every request (default: 30s).
	Timeout time.Duration
	// RPS and Burst feed the per-host token bucket on the content loader.
	RPS   float64
	Burst int
}

// AuthConfig holds sign-in gating configuration.
type AuthConfig struct {
	// ProtectedViews are view names that require an active session.
	ProtectedViews []string
}

// DevServerConfig holds settings for the development stub backend.
type DevServerConfig struct {
	Port string
	Seed bool
}

// Default protected views. The gate falls back to these when no override
// is configured.
var defaultProtectedViews = []string{"My Books", "Recommendations", "Diary"}

// Options carries flag values supplied by the command. Commands own flag
// registration so shell and devserver can expose different surfaces.
type Options struct {
	Environment    string
	LogLevel       string
	LogFormat      string
	BackendURL     string
	StartPath      string
	Timeout        string
	RPS            string
	Burst          string
	ProtectedViews string
	DevPort        string
	DevSeed        string
	EnvFile        string
}

// Load builds configuration with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func Load(opts Options) (*Config, error) {
	envFile := opts.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	// Load .env file if it exists (silently ignore if not found).
	_ = loadEnvFile(envFile)

	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(opts.Environment, "ENV", "development"),
			StartPath:   getConfigValue(opts.StartPath, "START_PATH", "/"),
		},
		Logger: LoggerConfig{
			Level:  getConfigValue(opts.LogLevel, "LOG_LEVEL", "info"),
			Format: getConfigValue(opts.LogFormat, "LOG_FORMAT", ""),
		},
		Backend: BackendConfig{
			BaseURL: getConfigValue(opts.BackendURL, "BACKEND_URL", "http://localhost:8080"),
			RPS:     getFloatConfigValue(opts.RPS, "REQUEST_RPS", 10),
			Burst:   getIntConfigValue(opts.Burst, "REQUEST_BURST", 5),
		},
		Auth: AuthConfig{
			ProtectedViews: getListConfigValue(opts.ProtectedViews, "PROTECTED_VIEWS", defaultProtectedViews),
		},
		Dev: DevServerConfig{
			Port: getConfigValue(opts.DevPort, "DEVSERVER_PORT", "8080"),
			Seed: getBoolConfigValue(opts.DevSeed, "DEVSERVER_SEED", true),
		},
	}

	timeoutStr := getConfigValue(opts.Timeout, "REQUEST_TIMEOUT", "30s")
	timeout, err := time.ParseDuration(timeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid request timeout %q: %w", timeoutStr, err)
	}
	cfg.Backend.Timeout = timeout

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	if c.App.Environment == "" {
		return fmt.Errorf("environment must not be empty")
	}
	if c.Backend.BaseURL == "" {
		return fmt.Errorf("backend URL must not be empty")
	}
	if strings.Contains(c.Backend.BaseURL, " ") {
		return fmt.Errorf("backend URL %q must not contain spaces", c.Backend.BaseURL)
	}
	if !strings.HasPrefix(c.App.StartPath, "/") {
		return fmt.Errorf("start path %q must begin with a slash", c.App.StartPath)
	}
	if c.Backend.RPS <= 0 {
		return fmt.Errorf("request RPS must be positive, got %v", c.Backend.RPS)
	}
	if c.Backend.Burst < 1 {
		return fmt.Errorf("request burst must be at least 1, got %d", c.Backend.Burst)
	}
	return nil
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	// Priority 1: Command-line flag.
	if flagValue != "" {
		return flagValue
	}

	// Priority 2: Environment variable.
	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}

	// Priority 3: Default value.
	return defaultValue
}

// getBoolConfigValue returns a bool from flag, env var, or default.
// Accepts: "true", "1", "yes" (case-insensitive) as true; anything else is false.
func getBoolConfigValue(flagValue, envKey string, defaultValue bool) bool {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	strValue = strings.ToLower(strValue)
	return strValue == "true" || strValue == "1" || strValue == "yes"
}

// getIntConfigValue returns an int from flag, env var, or default.
func getIntConfigValue(flagValue, envKey string, defaultValue int) int {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	var result int
	if _, err := fmt.Sscanf(strValue, "%d", &result); err != nil {
		return defaultValue
	}
	return result
}

// getFloatConfigValue returns a float64 from flag, env var, or default.
func getFloatConfigValue(flagValue, envKey string, defaultValue float64) float64 {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	var result float64
	if _, err := fmt.Sscanf(strValue, "%g", &result); err != nil {
		return defaultValue
	}
	return result
}

// getListConfigValue returns a comma-separated list from flag, env var, or default.
func getListConfigValue(flagValue, envKey string, defaultValue []string) []string {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	parts := strings.Split(strValue, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// loadEnvFile loads environment variables from a .env file.
// Format: KEY=value (one per line, # for comments).
func loadEnvFile(path string) error {
	file, err := os.Open(path) //#nosec G304 -- Config file path from user input is expected
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments.
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse KEY=value.
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return fmt.Errorf("invalid format at line %d: %s", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		// Remove quotes if present.
		value = strings.Trim(value, `"'`)

		// Only set if not already set (env vars take precedence over .env file).
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("failed to set env var %s: %w", key, err)
			}
		}
	}

	return scanner.Err()
}
