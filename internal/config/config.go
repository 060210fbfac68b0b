// Copyright 2025 SirSeer, LLC
//
// Licensed under the Business Source License 1.1 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://mariadb.com/bsl11
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	apperrors "github.com/sirseerhq/prharvest/internal/errors"
	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from file and environment variables.
// Priority order (highest to lowest):
// 1. Environment variables
// 2. Config file (if provided)
// 3. Default values
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if configPath != "" {
		if err := loadConfigFile(configPath, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	} else {
		for _, path := range defaultPaths() {
			if _, err := os.Stat(path); err == nil {
				if err := loadConfigFile(path, cfg); err != nil {
					return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
				}
				break
			}
		}
	}

	applyEnvOverrides(cfg)

	return cfg, nil
}

func defaultPaths() []string {
	paths := []string{".prharvest.yaml", ".prharvest.yml"}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths,
			filepath.Join(home, ".prharvest", "config.yaml"),
			filepath.Join(home, ".prharvest", "config.yml"),
		)
	}
	return paths
}

// loadConfigFile reads and parses a YAML configuration file.
func loadConfigFile(path string, cfg *Config) error {
	// #nosec G304 -- config file path is provided by the operator
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to the configuration.
func applyEnvOverrides(cfg *Config) {
	if endpoint := os.Getenv("GITHUB_GRAPHQL_ENDPOINT"); endpoint != "" {
		cfg.GitHub.GraphQLEndpoint = endpoint
	}

	if n, ok := envPositiveInt("PRHARVEST_MAX_REPOSITORIES"); ok {
		cfg.Repositories.MaxRepositories = n
	}
	if n, ok := envPositiveInt("PRHARVEST_MAX_PRS_PER_REPO"); ok {
		cfg.PullRequests.MaxPerRepository = n
	}
	if n, ok := envPositiveInt("PRHARVEST_WORKERS"); ok {
		cfg.PullRequests.Workers = n
	}
	if n, ok := envPositiveInt("PRHARVEST_MAX_ATTEMPTS"); ok {
		cfg.Fetch.MaxAttempts = n
	}

	if dsn := os.Getenv("PRHARVEST_POSTGRES_DSN"); dsn != "" {
		cfg.Store.PostgresDSN = dsn
	}
	if level := os.Getenv("PRHARVEST_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
	if format := os.Getenv("PRHARVEST_OUTPUT_FORMAT"); format != "" {
		cfg.Output.Format = strings.ToLower(format)
	}
	if v := os.Getenv("PRHARVEST_CHECKPOINT"); v != "" {
		cfg.PullRequests.Checkpoint = parseBool(v)
	}
}

// parseBool parses a string as a boolean value.
// Accepts: true/false, yes/no, 1/0, on/off (case-insensitive).
func parseBool(s string) bool {
	switch strings.ToLower(s) {
	case "true", "yes", "1", "on":
		return true
	default:
		return false
	}
}

func envPositiveInt(name string) (int, bool) {
	raw := os.Getenv(name)
	if raw == "" {
		return 0, false
	}
	n, err := parsePositiveInt(raw)
	if err != nil {
		return 0, false
	}
	return n, true
}

// parsePositiveInt parses a string as a positive integer.
func parsePositiveInt(s string) (int, error) {
	var i int
	_, err := fmt.Sscanf(s, "%d", &i)
	if err != nil {
		return 0, fmt.Errorf("failed to parse integer from '%s': %w", s, err)
	}
	if i <= 0 {
		return 0, fmt.Errorf("value must be positive, got: %d", i)
	}
	return i, nil
}

// Token resolves the GitHub credential: an explicit value wins, then the
// environment variable named by github.token_env.
func (c *Config) Token(flagToken string) string {
	if flagToken != "" {
		return flagToken
	}
	if c.GitHub.TokenEnv == "" {
		return ""
	}
	return os.Getenv(c.GitHub.TokenEnv)
}

// Validate checks if the configuration is valid. Every failure wraps
// ErrInvalidConfig so the CLI reports it as a precondition failure.
func (c *Config) Validate() error {
	var problems []string
	add := func(format string, args ...interface{}) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	if c.GitHub.GraphQLEndpoint == "" {
		add("GitHub GraphQL endpoint cannot be empty")
	}

	if c.Repositories.MaxRepositories <= 0 {
		add("max_repositories must be positive, got: %d", c.Repositories.MaxRepositories)
	}
	if c.Repositories.PageSize <= 0 || c.Repositories.PageSize > 100 {
		add("repositories page_size must be between 1 and 100, got: %d", c.Repositories.PageSize)
	}

	pr := c.PullRequests
	if pr.MaxPerRepository <= 0 {
		add("max_per_repository must be positive, got: %d", pr.MaxPerRepository)
	}
	if pr.PageSize <= 0 || pr.PageSize > 100 {
		add("pull_requests page_size must be between 1 and 100, got: %d", pr.PageSize)
	}
	if pr.MinResolved < 0 {
		add("min_resolved cannot be negative, got: %d", pr.MinResolved)
	}
	if pr.Workers <= 0 {
		add("workers must be positive, got: %d", pr.Workers)
	}
	if pr.RepositoryDelay < 0 {
		add("repository_delay cannot be negative, got: %s", pr.RepositoryDelay)
	}

	f := c.Fetch
	if f.PageDelay < 0 {
		add("page_delay cannot be negative, got: %s", f.PageDelay)
	}
	if f.RetryDelay <= 0 {
		add("retry_delay must be positive, got: %s", f.RetryDelay)
	}
	if f.MaxAttempts < 0 {
		add("max_attempts cannot be negative, got: %d", f.MaxAttempts)
	}
	if f.Backoff != BackoffConstant && f.Backoff != BackoffExponential {
		add("backoff must be %q or %q, got: %q", BackoffConstant, BackoffExponential, f.Backoff)
	}
	if f.JitterPercent < 0 || f.JitterPercent > 100 {
		add("jitter_percent must be between 0 and 100, got: %d", f.JitterPercent)
	}
	if f.MaxDelay < 0 {
		add("max_delay cannot be negative, got: %s", f.MaxDelay)
	}

	if c.Output.Format != FormatCSV && c.Output.Format != FormatNDJSON {
		add("output format must be %q or %q, got: %q", FormatCSV, FormatNDJSON, c.Output.Format)
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", apperrors.ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}
