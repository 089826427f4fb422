package config_test

import (
	"testing"

	"bookstore/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("PORT", "8080")
	t.Setenv("POSTGRES_USER", "app")
	t.Setenv("POSTGRES_PASSWORD", "secret")
	t.Setenv("POSTGRES_DB", "bookstore")
	t.Setenv("POSTGRES_HOST", "localhost")
	t.Setenv("POSTGRES_PORT", "5432")
	t.Setenv("JWT_SECRET", "test-secret")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 5432, cfg.PostgresPort)
	// 送料はデフォルト300セント
	assert.Equal(t, int64(300), cfg.ShippingFeeCents)
	assert.Equal(t, "https://api-m.sandbox.paypal.com", cfg.PayPalBaseURL)
	assert.Equal(t, "dev", cfg.GoEnv)
}

func TestLoad_ShippingFeeOverride(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SHIPPING_FEE_CENTS", "500")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, int64(500), cfg.ShippingFeeCents)
}

func TestLoad_InvalidShippingFee(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SHIPPING_FEE_CENTS", "-1")

	_, err := config.Load()
	assert.Error(t, err)
}

func TestLoad_MissingJWTSecret(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("JWT_SECRET", "")

	_, err := config.Load()
	assert.ErrorContains(t, err, "JWT_SECRET")
}

func TestLoad_MissingPostgresPort(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("POSTGRES_PORT", "")

	_, err := config.Load()
	assert.ErrorContains(t, err, "POSTGRES_PORT")
}
