package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name     string
		envVars  map[string]string
		validate func(t *testing.T, cfg *Config)
	}{
		{
			name:    "load default configuration",
			envVars: map[string]string{},
			validate: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "0.0.0.0", cfg.ServerHost)
				assert.Equal(t, 8080, cfg.ServerPort)
				assert.Equal(t, "postgres", cfg.DBDriver)
				assert.Equal(t, 25, cfg.DBMaxOpenConnections)
				assert.Equal(t, 5, cfg.DBMaxIdleConnections)
				assert.Equal(t, 5*time.Minute, cfg.DBConnMaxLifetime)
				assert.Equal(t, "info", cfg.LogLevel)
				assert.Equal(t, "./keys", cfg.KeysDir)
				assert.Equal(t, "aes-gcm", cfg.AEADAlgorithm)
				assert.Equal(t, 48*time.Hour, cfg.EmailVerifyTokenTTL)
				assert.Equal(t, time.Hour, cfg.PasswordResetTokenTTL)
				assert.Equal(t, 48*time.Hour, cfg.NewsletterTokenTTL)
				assert.Equal(t, "identity", cfg.MetricsNamespace)
			},
		},
		{
			name: "load custom server configuration",
			envVars: map[string]string{
				"SERVER_HOST": "localhost",
				"SERVER_PORT": "9090",
			},
			validate: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "localhost", cfg.ServerHost)
				assert.Equal(t, 9090, cfg.ServerPort)
			},
		},
		{
			name: "load custom key material configuration",
			envVars: map[string]string{
				"KEYS_DIR":       "/etc/identity/keys",
				"AEAD_ALGORITHM": "chacha20-poly1305",
			},
			validate: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "/etc/identity/keys", cfg.KeysDir)
				assert.Equal(t, "chacha20-poly1305", cfg.AEADAlgorithm)
			},
		},
		{
			name: "load custom token ttl configuration",
			envVars: map[string]string{
				"EMAIL_VERIFY_TOKEN_TTL_HOURS":   "24",
				"PASSWORD_RESET_TOKEN_TTL_HOURS": "2",
			},
			validate: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 24*time.Hour, cfg.EmailVerifyTokenTTL)
				assert.Equal(t, 2*time.Hour, cfg.PasswordResetTokenTTL)
			},
		},
		{
			name: "load custom mail dispatch configuration",
			envVars: map[string]string{
				"MAIL_DISPATCH_INTERVAL_SECONDS": "10",
				"MAIL_DISPATCH_BATCH_SIZE":       "100",
				"MAIL_DISPATCH_PER_SEC":          "2.5",
			},
			validate: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 10*time.Second, cfg.MailDispatchInterval)
				assert.Equal(t, 100, cfg.MailDispatchBatchSize)
				assert.Equal(t, 2.5, cfg.MailDispatchPerSec)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for key, value := range tt.envVars {
				t.Setenv(key, value)
			}

			cfg := Load()
			tt.validate(t, cfg)
		})
	}
}

func TestGetGinMode(t *testing.T) {
	tests := []struct {
		logLevel string
		expected string
	}{
		{"debug", "debug"},
		{"info", "release"},
		{"warn", "release"},
		{"error", "release"},
		{"unknown", "release"},
	}

	for _, tt := range tests {
		t.Run(tt.logLevel, func(t *testing.T) {
			cfg := &Config{LogLevel: tt.logLevel}
			assert.Equal(t, tt.expected, cfg.GetGinMode())
		})
	}
}

func TestMain(m *testing.M) {
	// Avoid picking up a developer .env during tests
	os.Clearenv()
	os.Exit(m.Run())
}
