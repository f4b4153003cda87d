package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points the user config at an empty directory and clears WIKIMG_* overrides.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	for _, key := range []string{
		"WIKIMG_KVS", "WIKIMG_DATA_DIR", "WIKIMG_BATCH_SIZE",
		"WIKIMG_DYNAMODB_REGION", "WIKIMG_DYNAMODB_ENDPOINT",
		"WIKIMG_DYNAMODB_TABLE_PREFIX", "WIKIMG_DYNAMODB_CREATE_TABLES",
		"WIKIMG_QUERY_WORKERS", "WIKIMG_LOG_LEVEL",
	} {
		t.Setenv(key, "")
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestNewConfig_ReturnsDefaults(t *testing.T) {
	// Given: no configuration file exists
	cfg := NewConfig()

	// Then: all defaults should be applied
	require.NotNil(t, cfg)
	assert.Equal(t, 1, cfg.Version)

	assert.Equal(t, BackendDisk, cfg.Storage.Backend)
	assert.Equal(t, ".wikimg", cfg.Storage.DataDir)
	assert.Equal(t, "images", cfg.Storage.ImagesName)
	assert.Equal(t, "terms", cfg.Storage.TermsName)
	assert.Equal(t, 1000, cfg.Storage.BatchSize)

	assert.Equal(t, "us-east-1", cfg.DynamoDB.Region)
	assert.Empty(t, cfg.DynamoDB.Endpoint)
	assert.False(t, cfg.DynamoDB.CreateTables)

	assert.Equal(t, filepath.Join("data", "images_en.nt"), cfg.Input.Images)
	assert.Equal(t, filepath.Join("data", "labels_en.nt"), cfg.Input.Labels)
	assert.Empty(t, cfg.Input.Filter)

	assert.Equal(t, 10000, cfg.Index.StemCacheSize)
	assert.Equal(t, 4, cfg.Query.Workers)
	assert.Equal(t, "warn", cfg.Logging.Level)

	assert.NoError(t, cfg.Validate())
}

func TestLoad_NoFiles_ReturnsDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load(t.TempDir())

	require.NoError(t, err)
	assert.Equal(t, NewConfig(), cfg)
}

func TestLoad_ProjectConfigOverridesDefaults(t *testing.T) {
	isolate(t)

	// Given: a project config selecting the memory backend
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".wikimg.yaml"), `
storage:
  backend: memory
  batch_size: 50
input:
  filter: Az
query:
  workers: 2
`)

	// When: loading
	cfg, err := Load(dir)

	// Then: file values win, unset values keep defaults
	require.NoError(t, err)
	assert.Equal(t, BackendMemory, cfg.Storage.Backend)
	assert.Equal(t, 50, cfg.Storage.BatchSize)
	assert.Equal(t, "Az", cfg.Input.Filter)
	assert.Equal(t, 2, cfg.Query.Workers)
	assert.Equal(t, "terms", cfg.Storage.TermsName)
}

func TestLoad_YMLExtensionIsAccepted(t *testing.T) {
	isolate(t)

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".wikimg.yml"), "storage:\n  data_dir: /tmp/idx\n")

	cfg, err := Load(dir)

	require.NoError(t, err)
	assert.Equal(t, "/tmp/idx", cfg.Storage.DataDir)
}

func TestLoad_YAMLPreferredOverYML(t *testing.T) {
	isolate(t)

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".wikimg.yaml"), "storage:\n  data_dir: from-yaml\n")
	writeFile(t, filepath.Join(dir, ".wikimg.yml"), "storage:\n  data_dir: from-yml\n")

	cfg, err := Load(dir)

	require.NoError(t, err)
	assert.Equal(t, "from-yaml", cfg.Storage.DataDir)
}

func TestLoad_PrecedenceUserProjectEnv(t *testing.T) {
	isolate(t)

	// Given: user config, project config and environment all set values
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)
	writeFile(t, filepath.Join(xdg, "wikimg", "config.yaml"), `
storage:
  backend: cloud
dynamodb:
  region: eu-west-1
  table_prefix: user-
`)

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".wikimg.yaml"), `
dynamodb:
  table_prefix: project-
`)
	t.Setenv("WIKIMG_DYNAMODB_ENDPOINT", "http://localhost:8000")

	// When: loading
	cfg, err := Load(dir)

	// Then: each layer overrides the one below it
	require.NoError(t, err)
	assert.Equal(t, BackendCloud, cfg.Storage.Backend)
	assert.Equal(t, "eu-west-1", cfg.DynamoDB.Region)
	assert.Equal(t, "project-", cfg.DynamoDB.TablePrefix)
	assert.Equal(t, "http://localhost:8000", cfg.DynamoDB.Endpoint)
}

func TestLoad_EnvOverrides(t *testing.T) {
	isolate(t)

	t.Setenv("WIKIMG_KVS", "mem")
	t.Setenv("WIKIMG_DATA_DIR", "/var/lib/wikimg")
	t.Setenv("WIKIMG_BATCH_SIZE", "25")
	t.Setenv("WIKIMG_DYNAMODB_CREATE_TABLES", "true")
	t.Setenv("WIKIMG_QUERY_WORKERS", "8")
	t.Setenv("WIKIMG_LOG_LEVEL", "debug")

	cfg, err := Load(t.TempDir())

	require.NoError(t, err)
	assert.Equal(t, "mem", cfg.Storage.Backend)
	assert.Equal(t, BackendMemory, NormalizeBackend(cfg.Storage.Backend))
	assert.Equal(t, "/var/lib/wikimg", cfg.Storage.DataDir)
	assert.Equal(t, 25, cfg.Storage.BatchSize)
	assert.True(t, cfg.DynamoDB.CreateTables)
	assert.Equal(t, 8, cfg.Query.Workers)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoad_InvalidNumericEnvIsIgnored(t *testing.T) {
	isolate(t)
	t.Setenv("WIKIMG_QUERY_WORKERS", "many")

	cfg, err := Load(t.TempDir())

	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Query.Workers)
}

func TestLoad_InvalidUserConfig_ReturnsError(t *testing.T) {
	isolate(t)

	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)
	writeFile(t, filepath.Join(xdg, "wikimg", "config.yaml"), "storage: [not, a, map\n")

	_, err := Load(t.TempDir())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "user config")
}

func TestLoad_InvalidProjectConfig_ReturnsError(t *testing.T) {
	isolate(t)

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".wikimg.yaml"), "query:\n  workers: [1\n")

	_, err := Load(dir)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config file")
}

func TestLoad_UnknownBackend_FailsValidation(t *testing.T) {
	isolate(t)
	t.Setenv("WIKIMG_KVS", "redis")

	_, err := Load(t.TempDir())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "storage.backend")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"mem alias", func(c *Config) { c.Storage.Backend = "mem" }, ""},
		{"upper case backend", func(c *Config) { c.Storage.Backend = "DISK" }, ""},
		{"unknown backend", func(c *Config) { c.Storage.Backend = "shelf" }, "storage.backend"},
		{"empty images name", func(c *Config) { c.Storage.ImagesName = "" }, "must not be empty"},
		{"same names", func(c *Config) { c.Storage.TermsName = "images" }, "must differ"},
		{"zero batch", func(c *Config) { c.Storage.BatchSize = 0 }, "batch_size"},
		{"cloud without region", func(c *Config) {
			c.Storage.Backend = BackendCloud
			c.DynamoDB.Region = ""
		}, "dynamodb.region"},
		{"negative cache", func(c *Config) { c.Index.StemCacheSize = -1 }, "stem_cache_size"},
		{"zero cache disables caching", func(c *Config) { c.Index.StemCacheSize = 0 }, ""},
		{"zero workers", func(c *Config) { c.Query.Workers = 0 }, "query.workers"},
		{"bad level", func(c *Config) { c.Logging.Level = "verbose" }, "logging.level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			tt.mutate(cfg)

			err := cfg.Validate()

			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNormalizeBackend(t *testing.T) {
	assert.Equal(t, BackendMemory, NormalizeBackend("mem"))
	assert.Equal(t, BackendMemory, NormalizeBackend(" Memory "))
	assert.Equal(t, BackendDisk, NormalizeBackend("disk"))
	assert.Equal(t, BackendCloud, NormalizeBackend("CLOUD"))
	assert.Equal(t, "redis", NormalizeBackend("redis"))
}

func TestGetUserConfigPath_UsesXDG(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)

	assert.Equal(t, filepath.Join(xdg, "wikimg", "config.yaml"), GetUserConfigPath())
	assert.False(t, UserConfigExists())
}

func TestWriteYAML_RoundTripsThroughLoad(t *testing.T) {
	isolate(t)

	// Given: a customized config written to a project file
	cfg := NewConfig()
	cfg.Storage.Backend = BackendMemory
	cfg.Input.Filter = "Al"
	dir := t.TempDir()

	require.NoError(t, cfg.WriteYAML(filepath.Join(dir, ".wikimg.yaml")))

	// When: loading that directory
	loaded, err := Load(dir)

	// Then: the values survive
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}
