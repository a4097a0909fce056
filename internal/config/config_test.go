package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/parkspot_test")
	t.Setenv("JWT_SECRET", "test-secret")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 1440, cfg.JWTExpireMin)
	assert.Equal(t, 30, cfg.PendingTTLMin)
	assert.Equal(t, 15, cfg.ActivationGraceMin)
	assert.Equal(t, "http://localhost:3000/bookings/confirmed?session_id={CHECKOUT_SESSION_ID}", cfg.CheckoutSuccessURL)
	assert.Equal(t, "http://localhost:3000/bookings/failed?session_id={CHECKOUT_SESSION_ID}", cfg.CheckoutCancelURL)
	assert.Equal(t, "*", cfg.CORSAllowedOrigin)
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("PORT", "9090")
	t.Setenv("CHECKOUT_SUCCESS_URL", "https://app.example.com/paid")
	t.Setenv("CHECKOUT_CANCEL_URL", "https://app.example.com/failed")
	t.Setenv("PENDING_TTL_MIN", "45")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "https://app.example.com/paid", cfg.CheckoutSuccessURL)
	assert.Equal(t, "https://app.example.com/failed", cfg.CheckoutCancelURL)
	assert.Equal(t, 45, cfg.PendingTTLMin)
}

func TestLoadRequiresDatabaseURL(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("DATABASE_URL", "")

	_, err := Load()
	assert.Error(t, err)
}
