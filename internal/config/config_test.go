package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, 168, cfg.CartTTLHours)
	assert.Equal(t, 15, cfg.PendingConflictTTLMins)
	assert.Equal(t, PaymentProviderMock, cfg.PaymentProvider)
	assert.Equal(t, "MXN", cfg.Currency)
}

func TestLoad_InvalidHTTPPort(t *testing.T) {
	t.Setenv("MARKETPLACE_HTTP_PORT", "0")

	cfg, err := Load()

	assert.Nil(t, cfg)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid HTTP port")
}

func TestLoad_UnknownPaymentProvider(t *testing.T) {
	t.Setenv("PAYMENT_PROVIDER", "paypal")

	cfg, err := Load()

	assert.Nil(t, cfg)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "PAYMENT_PROVIDER")
}

func TestLoad_InvalidTimezone(t *testing.T) {
	t.Setenv("RESERVATION_TIMEZONE", "Mars/Olympus_Mons")

	cfg, err := Load()

	assert.Nil(t, cfg)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "RESERVATION_TIMEZONE")
}

func TestLoad_InvalidGatewayURL(t *testing.T) {
	t.Setenv("PAYMENT_GATEWAY_URL", "not a url")

	cfg, err := Load()

	assert.Nil(t, cfg)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "PAYMENT_GATEWAY_URL")
}

func TestLoad_CustomCartTTL(t *testing.T) {
	t.Setenv("CART_TTL_HOURS", "24")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, 24*time.Hour, cfg.CartTTL())
}

func TestLoad_ZeroPendingTTL(t *testing.T) {
	t.Setenv("PENDING_CONFLICT_TTL_MINUTES", "0")

	cfg, err := Load()

	assert.Nil(t, cfg)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "PENDING_CONFLICT_TTL_MINUTES")
}

func TestPostgres_CarriesPoolSettings(t *testing.T) {
	t.Setenv("DB_MAX_CONNS", "50")
	t.Setenv("DB_MAX_CONN_LIFETIME_MINUTES", "90")

	cfg, err := Load()
	require.NoError(t, err)

	pg := cfg.Postgres()
	assert.Equal(t, int32(50), pg.MaxConns)
	assert.Equal(t, 90*time.Minute, pg.MaxConnLifetime)
	assert.Contains(t, pg.DSN(), "marketplace_db")
}

func TestReservationLocation(t *testing.T) {
	t.Setenv("RESERVATION_TIMEZONE", "UTC")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, cfg.ReservationLocation())
}
