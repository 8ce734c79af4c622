package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestLoadLedgerConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		viper.Reset()
		cfg := LoadLedgerConfig()
		assert.Equal(t, 0.7, cfg.AuthorPayoutRate)
		assert.Equal(t, "NN_", cfg.ReferencePrefix)
		assert.Equal(t, 5*time.Minute, cfg.PackageCacheTTL)
	})

	t.Run("payout rate is clamped", func(t *testing.T) {
		viper.Reset()
		viper.Set("ledger.author_payout_rate", 1.5)
		assert.Equal(t, 1.0, LoadLedgerConfig().AuthorPayoutRate)

		viper.Set("ledger.author_payout_rate", -0.2)
		assert.Equal(t, 0.0, LoadLedgerConfig().AuthorPayoutRate)
	})
}

func TestLoadPaystackConfig(t *testing.T) {
	viper.Reset()
	viper.Set("paystack.secret_key", "sk_test_123")

	cfg := LoadPaystackConfig()
	assert.Equal(t, "sk_test_123", cfg.SecretKey)
	assert.Equal(t, "https://api.paystack.co", cfg.BaseURL)
	assert.Equal(t, 15*time.Second, cfg.Timeout)
}

func TestLoadServerConfig(t *testing.T) {
	viper.Reset()
	cfg := LoadServerConfig()
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 5.0, cfg.RateLimitRPS)
	assert.Equal(t, 10, cfg.RateLimitBurst)

	viper.Set("server.rate_limit_burst", 3)
	assert.Equal(t, 3, LoadServerConfig().RateLimitBurst)
}
