package app

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yxshee/biteback/services/api/internal/config"
)

func testConfig(driver, dsn string) config.Config {
	return config.Config{
		Port:                   "8080",
		Environment:            "test",
		LogLevel:               "error",
		JWTSecret:              "test-secret",
		JWTIssuer:              "biteback-api",
		AccessTokenTTL:         15 * time.Minute,
		RefreshTokenTTL:        time.Hour,
		OwnerEmails:            "owner@example.com",
		RateLimitRPS:           100,
		RateLimitBurst:         100,
		DatabaseDriver:         driver,
		DatabaseURL:            dsn,
		RewardPointsPerVisit:   100,
		CleanupInterval:        time.Hour,
		ReservationGracePeriod: 2 * time.Hour,
	}
}

func register(t *testing.T, handler http.Handler, email string) int {
	t.Helper()
	body := []byte(`{"email":"` + email + `","password":"strong-password"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr.Code
}

func TestNewWithMemoryStorage(t *testing.T) {
	app, err := New(context.Background(), testConfig(config.DriverMemory, ""))
	require.NoError(t, err)
	defer func() { assert.NoError(t, app.Close()) }()

	rr := httptest.NewRecorder()
	app.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rr.Code)

	assert.Equal(t, http.StatusCreated, register(t, app.Handler, "diner@example.com"))

	report, err := app.Cleaner.RunOnce(context.Background(), time.Now().UTC())
	require.NoError(t, err)
	assert.Zero(t, report.ExpiredReservations)
	assert.Zero(t, app.Notifications.Len())
}

func TestNewWithSQLitePersistsAcrossRestarts(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "biteback.db")

	first, err := New(context.Background(), testConfig(config.DriverSQLite, dsn))
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, register(t, first.Handler, "diner@example.com"))
	require.NoError(t, first.Close())

	second, err := New(context.Background(), testConfig(config.DriverSQLite, dsn))
	require.NoError(t, err)
	defer func() { assert.NoError(t, second.Close()) }()

	assert.Equal(t, http.StatusConflict, register(t, second.Handler, "diner@example.com"))
}

func TestOpenStoreRejectsUnknownDriver(t *testing.T) {
	_, err := OpenStore(context.Background(), testConfig("mysql", "whatever"))
	require.Error(t, err)
}
