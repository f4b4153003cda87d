// Package config loads wikimg configuration from defaults, YAML files and environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Backend names accepted by storage.backend and --kvs.
const (
	BackendMemory = "memory"
	BackendDisk   = "disk"
	BackendCloud  = "cloud"
)

// Config represents the complete wikimg configuration.
type Config struct {
	Version  int            `yaml:"version" json:"version"`
	Storage  StorageConfig  `yaml:"storage" json:"storage"`
	DynamoDB DynamoDBConfig `yaml:"dynamodb" json:"dynamodb"`
	Input    InputConfig    `yaml:"input" json:"input"`
	Index    IndexConfig    `yaml:"index" json:"index"`
	Query    QueryConfig    `yaml:"query" json:"query"`
	Logging  LoggingConfig  `yaml:"logging" json:"logging"`
}

// StorageConfig selects and parameterizes the key-value backend.
type StorageConfig struct {
	// Backend is one of memory, disk or cloud ("mem" is accepted as an alias).
	Backend string `yaml:"backend" json:"backend"`
	// DataDir holds <name>.db files for the disk backend.
	DataDir string `yaml:"data_dir" json:"data_dir"`
	// ImagesName and TermsName are the namespaces of the two stores.
	ImagesName string `yaml:"images_name" json:"images_name"`
	TermsName  string `yaml:"terms_name" json:"terms_name"`
	// BatchSize is the number of puts per SQLite transaction (disk backend).
	BatchSize int `yaml:"batch_size" json:"batch_size"`
}

// DynamoDBConfig configures the cloud backend.
type DynamoDBConfig struct {
	Region string `yaml:"region" json:"region"`
	// Endpoint overrides the service endpoint, e.g. http://localhost:8000 for DynamoDB Local.
	Endpoint    string `yaml:"endpoint" json:"endpoint"`
	TablePrefix string `yaml:"table_prefix" json:"table_prefix"`
	// CreateTables creates missing tables on open.
	CreateTables bool `yaml:"create_tables" json:"create_tables"`
}

// InputConfig names the triple files read by build.
type InputConfig struct {
	Images string `yaml:"images" json:"images"`
	Labels string `yaml:"labels" json:"labels"`
	// Filter keeps only image subjects whose last path segment starts with it.
	Filter string `yaml:"filter" json:"filter"`
}

// IndexConfig tunes the build.
type IndexConfig struct {
	StemCacheSize int `yaml:"stem_cache_size" json:"stem_cache_size"`
}

// QueryConfig tunes query resolution.
type QueryConfig struct {
	// Workers bounds concurrent image lookups; 1 resolves sequentially.
	Workers int `yaml:"workers" json:"workers"`
}

// LoggingConfig sets the stderr log level used without --debug.
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
}

// NewConfig creates a new Config with defaults.
func NewConfig() *Config {
	return &Config{
		Version: 1,
		Storage: StorageConfig{
			Backend:    BackendDisk,
			DataDir:    ".wikimg",
			ImagesName: "images",
			TermsName:  "terms",
			BatchSize:  1000,
		},
		DynamoDB: DynamoDBConfig{
			Region: "us-east-1",
		},
		Input: InputConfig{
			Images: filepath.Join("data", "images_en.nt"),
			Labels: filepath.Join("data", "labels_en.nt"),
		},
		Index: IndexConfig{
			StemCacheSize: 10000,
		},
		Query: QueryConfig{
			Workers: 4,
		},
		Logging: LoggingConfig{
			Level: "warn",
		},
	}
}

// GetUserConfigPath returns the path to the user configuration file:
//   - $XDG_CONFIG_HOME/wikimg/config.yaml (if XDG_CONFIG_HOME is set)
//   - ~/.config/wikimg/config.yaml (default)
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "wikimg", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "wikimg", "config.yaml")
	}
	return filepath.Join(home, ".config", "wikimg", "config.yaml")
}

// UserConfigExists returns true if the user configuration file exists.
func UserConfigExists() bool {
	return fileExists(GetUserConfigPath())
}

// Load loads configuration for the project in dir.
// Precedence, lowest first:
//  1. Hardcoded defaults
//  2. User config (~/.config/wikimg/config.yaml)
//  3. Project config (.wikimg.yaml or .wikimg.yml in dir)
//  4. Environment variables (WIKIMG_*)
func Load(dir string) (*Config, error) {
	cfg := NewConfig()

	if path := GetUserConfigPath(); fileExists(path) {
		if err := cfg.loadYAML(path); err != nil {
			return nil, fmt.Errorf("failed to load user config: %w", err)
		}
	}

	if err := cfg.loadFromFile(dir); err != nil {
		return nil, err
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// loadFromFile loads .wikimg.yaml, falling back to .wikimg.yml.
func (c *Config) loadFromFile(dir string) error {
	for _, name := range []string{".wikimg.yaml", ".wikimg.yml"} {
		path := filepath.Join(dir, name)
		if fileExists(path) {
			return c.loadYAML(path)
		}
	}
	return nil
}

// loadYAML merges non-zero values from the YAML file at path.
func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var parsed Config
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	c.mergeWith(&parsed)
	return nil
}

// mergeWith merges non-zero values from other into c.
func (c *Config) mergeWith(other *Config) {
	if other.Version != 0 {
		c.Version = other.Version
	}

	if other.Storage.Backend != "" {
		c.Storage.Backend = other.Storage.Backend
	}
	if other.Storage.DataDir != "" {
		c.Storage.DataDir = other.Storage.DataDir
	}
	if other.Storage.ImagesName != "" {
		c.Storage.ImagesName = other.Storage.ImagesName
	}
	if other.Storage.TermsName != "" {
		c.Storage.TermsName = other.Storage.TermsName
	}
	if other.Storage.BatchSize != 0 {
		c.Storage.BatchSize = other.Storage.BatchSize
	}

	if other.DynamoDB.Region != "" {
		c.DynamoDB.Region = other.DynamoDB.Region
	}
	if other.DynamoDB.Endpoint != "" {
		c.DynamoDB.Endpoint = other.DynamoDB.Endpoint
	}
	if other.DynamoDB.TablePrefix != "" {
		c.DynamoDB.TablePrefix = other.DynamoDB.TablePrefix
	}
	if other.DynamoDB.CreateTables {
		c.DynamoDB.CreateTables = true
	}

	if other.Input.Images != "" {
		c.Input.Images = other.Input.Images
	}
	if other.Input.Labels != "" {
		c.Input.Labels = other.Input.Labels
	}
	if other.Input.Filter != "" {
		c.Input.Filter = other.Input.Filter
	}

	if other.Index.StemCacheSize != 0 {
		c.Index.StemCacheSize = other.Index.StemCacheSize
	}
	if other.Query.Workers != 0 {
		c.Query.Workers = other.Query.Workers
	}
	if other.Logging.Level != "" {
		c.Logging.Level = other.Logging.Level
	}
}

// applyEnvOverrides applies WIKIMG_* environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("WIKIMG_KVS"); v != "" {
		c.Storage.Backend = v
	}
	if v := os.Getenv("WIKIMG_DATA_DIR"); v != "" {
		c.Storage.DataDir = v
	}
	if v := os.Getenv("WIKIMG_BATCH_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Storage.BatchSize = n
		}
	}

	if v := os.Getenv("WIKIMG_DYNAMODB_REGION"); v != "" {
		c.DynamoDB.Region = v
	}
	if v := os.Getenv("WIKIMG_DYNAMODB_ENDPOINT"); v != "" {
		c.DynamoDB.Endpoint = v
	}
	if v := os.Getenv("WIKIMG_DYNAMODB_TABLE_PREFIX"); v != "" {
		c.DynamoDB.TablePrefix = v
	}
	if v := os.Getenv("WIKIMG_DYNAMODB_CREATE_TABLES"); v != "" {
		c.DynamoDB.CreateTables = strings.ToLower(v) == "true" || v == "1"
	}

	if v := os.Getenv("WIKIMG_QUERY_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Query.Workers = n
		}
	}
	if v := os.Getenv("WIKIMG_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

// NormalizeBackend maps accepted backend spellings to their canonical name.
// Unknown names are returned lowercased and unchanged.
func NormalizeBackend(name string) string {
	switch n := strings.ToLower(strings.TrimSpace(name)); n {
	case "mem":
		return BackendMemory
	default:
		return n
	}
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	switch NormalizeBackend(c.Storage.Backend) {
	case BackendMemory, BackendDisk, BackendCloud:
	default:
		return fmt.Errorf("storage.backend must be 'memory', 'disk' or 'cloud', got %q", c.Storage.Backend)
	}

	if c.Storage.ImagesName == "" || c.Storage.TermsName == "" {
		return fmt.Errorf("storage.images_name and storage.terms_name must not be empty")
	}
	if c.Storage.ImagesName == c.Storage.TermsName {
		return fmt.Errorf("storage.images_name and storage.terms_name must differ, both are %q", c.Storage.ImagesName)
	}
	if c.Storage.BatchSize <= 0 {
		return fmt.Errorf("storage.batch_size must be positive, got %d", c.Storage.BatchSize)
	}
	if NormalizeBackend(c.Storage.Backend) == BackendCloud && c.DynamoDB.Region == "" {
		return fmt.Errorf("dynamodb.region is required for the cloud backend")
	}
	if c.Index.StemCacheSize < 0 {
		return fmt.Errorf("index.stem_cache_size must be non-negative, got %d", c.Index.StemCacheSize)
	}
	if c.Query.Workers <= 0 {
		return fmt.Errorf("query.workers must be positive, got %d", c.Query.Workers)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("logging.level must be 'debug', 'info', 'warn', or 'error', got %s", c.Logging.Level)
	}

	return nil
}

// YAML returns the configuration encoded as YAML.
func (c *Config) YAML() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return data, nil
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := c.YAML()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
