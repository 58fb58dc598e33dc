package config_test

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shutterhouse/leadmail/pkg/config"
)

type mailSettings struct {
	Host    string        `env:"TEST_MAIL_HOST" envDefault:"localhost"`
	Port    int           `env:"TEST_MAIL_PORT" envDefault:"587"`
	Timeout time.Duration `env:"TEST_MAIL_TIMEOUT" envDefault:"10s"`
	Admins  []string      `env:"TEST_MAIL_ADMINS" envSeparator:","`
}

type requiredSettings struct {
	Token string `env:"TEST_REQUIRED_TOKEN,required"`
}

type cachedSettings struct {
	Value string `env:"TEST_CACHED_VALUE" envDefault:"first"`
}

type fileSettings struct {
	Studio string `env:"TEST_FILE_STUDIO"`
}

func TestLoad_FromEnvironment(t *testing.T) {
	config.ResetCache()
	t.Setenv("TEST_MAIL_HOST", "smtp.example.com")
	t.Setenv("TEST_MAIL_PORT", "465")
	t.Setenv("TEST_MAIL_TIMEOUT", "3s")
	t.Setenv("TEST_MAIL_ADMINS", "a@example.com,b@example.com")

	var cfg mailSettings
	require.NoError(t, config.Load(&cfg))

	assert.Equal(t, "smtp.example.com", cfg.Host)
	assert.Equal(t, 465, cfg.Port)
	assert.Equal(t, 3*time.Second, cfg.Timeout)
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, cfg.Admins)
}

func TestLoad_Defaults(t *testing.T) {
	config.ResetCache()
	os.Unsetenv("TEST_MAIL_HOST")
	os.Unsetenv("TEST_MAIL_PORT")
	os.Unsetenv("TEST_MAIL_TIMEOUT")
	os.Unsetenv("TEST_MAIL_ADMINS")

	var cfg mailSettings
	require.NoError(t, config.Load(&cfg))

	assert.Equal(t, "localhost", cfg.Host)
	assert.Equal(t, 587, cfg.Port)
	assert.Equal(t, 10*time.Second, cfg.Timeout)
	assert.Empty(t, cfg.Admins)
}

func TestLoad_MissingRequired(t *testing.T) {
	config.ResetCache()
	os.Unsetenv("TEST_REQUIRED_TOKEN")

	var cfg requiredSettings
	err := config.Load(&cfg)

	require.Error(t, err)
	assert.ErrorIs(t, err, config.ErrParsingConfig)
}

func TestLoad_NilPointer(t *testing.T) {
	var cfg *mailSettings
	assert.ErrorIs(t, config.Load(cfg), config.ErrNilPointer)
}

func TestLoad_CachedPerType(t *testing.T) {
	config.ResetCache()
	t.Setenv("TEST_CACHED_VALUE", "first")

	var first cachedSettings
	require.NoError(t, config.Load(&first))

	t.Setenv("TEST_CACHED_VALUE", "second")

	var second cachedSettings
	require.NoError(t, config.Load(&second))
	assert.Equal(t, "first", second.Value, "cached copy must win until ResetCache")

	config.ResetCache()
	var third cachedSettings
	require.NoError(t, config.Load(&third))
	assert.Equal(t, "second", third.Value)
}

func TestLoad_Concurrent(t *testing.T) {
	config.ResetCache()
	t.Setenv("TEST_CACHED_VALUE", "shared")

	var wg sync.WaitGroup
	results := make([]string, 20)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			var cfg cachedSettings
			if err := config.Load(&cfg); err == nil {
				results[i] = cfg.Value
			}
		}(i)
	}
	wg.Wait()

	for _, v := range results {
		assert.Equal(t, "shared", v)
	}
}

func TestMustLoad_Panics(t *testing.T) {
	config.ResetCache()
	os.Unsetenv("TEST_REQUIRED_TOKEN")

	assert.Panics(t, func() {
		var cfg requiredSettings
		config.MustLoad(&cfg)
	})
}

func TestLoadEnv(t *testing.T) {
	config.ResetCache()
	os.Unsetenv("TEST_FILE_STUDIO")
	t.Cleanup(func() { os.Unsetenv("TEST_FILE_STUDIO") })

	path := filepath.Join(t.TempDir(), ".env.test")
	require.NoError(t, os.WriteFile(path, []byte("TEST_FILE_STUDIO=\"Shutter House\"\n"), 0o600))

	require.NoError(t, config.LoadEnv(path))

	var cfg fileSettings
	require.NoError(t, config.Load(&cfg))
	assert.Equal(t, "Shutter House", cfg.Studio)
}

func TestLoadEnv_MissingFile(t *testing.T) {
	err := config.LoadEnv(filepath.Join(t.TempDir(), "missing.env"))
	assert.ErrorIs(t, err, config.ErrLoadingEnvFile)
}
