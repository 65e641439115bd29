package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nekogravitycat/pet-booking-backend/internal/booking"
)

func setRequired(t *testing.T) {
	t.Setenv("DB_DSN", "postgres://localhost/pets")
	t.Setenv("JWT_SECRET", "secret")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, time.UTC, cfg.Location)
	assert.True(t, decimal.Zero.Equal(cfg.PlatformFeePercent))
	assert.Equal(t, time.Hour, cfg.PendingGrace)
	assert.Equal(t, 72*time.Hour, cfg.AutoApproveAfter)
	assert.Equal(t, time.Minute, cfg.SweepInterval)
	assert.Equal(t, 10*time.Second, cfg.LockTTL)
	assert.Empty(t, cfg.RedisAddr)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.Equal(t, "booking-transitions", cfg.KafkaTopic)
	assert.False(t, cfg.IsProduction)
}

func TestLoad_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("APP_ENV", "prod")
	t.Setenv("APP_TIMEZONE", "Asia/Taipei")
	t.Setenv("PLATFORM_FEE_PERCENT", "7.5")
	t.Setenv("SWEEP_INTERVAL", "0")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092,")
	t.Setenv("REDIS_DB", "2")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction)
	assert.Equal(t, "Asia/Taipei", cfg.Location.String())
	assert.True(t, decimal.RequireFromString("7.5").Equal(cfg.PlatformFeePercent))
	assert.Zero(t, cfg.SweepInterval)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 2, cfg.RedisDB)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing dsn", map[string]string{"DB_DSN": ""}},
		{"missing secret", map[string]string{"JWT_SECRET": ""}},
		{"bad timezone", map[string]string{"APP_TIMEZONE": "Mars/Olympus"}},
		{"bad fee", map[string]string{"PLATFORM_FEE_PERCENT": "ten"}},
		{"negative fee", map[string]string{"PLATFORM_FEE_PERCENT": "-1"}},
		{"bad duration", map[string]string{"PENDING_GRACE_PERIOD": "soon"}},
		{"negative duration", map[string]string{"AUTO_APPROVE_AFTER": "-1h"}},
		{"bad redis db", map[string]string{"REDIS_DB": "one"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequired(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoadPolicy(t *testing.T) {
	cfg := &Config{PendingGrace: 2 * time.Hour, AutoApproveAfter: 24 * time.Hour}

	t.Run("default table", func(t *testing.T) {
		p, err := LoadPolicy(cfg)
		require.NoError(t, err)
		assert.Equal(t, 2*time.Hour, p.PendingGrace)
		assert.Equal(t, 24*time.Hour, p.AutoApproveAfter)
		assert.Equal(t, booking.DefaultPolicy().Cancellation, p.Cancellation)
	})

	t.Run("from file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "policy.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`
cancellation:
  customer: [pending]
  owner: [PENDING, CONFIRMED, LATE]
`), 0o600))

		withFile := *cfg
		withFile.PolicyFile = path
		p, err := LoadPolicy(&withFile)
		require.NoError(t, err)

		assert.Equal(t, map[booking.Role][]booking.Status{
			booking.RoleCustomer: {booking.StatusPending},
			booking.RoleOwner:    {booking.StatusPending, booking.StatusConfirmed, booking.StatusLate},
		}, p.Cancellation)
		assert.False(t, p.MayCancel(booking.RoleCustomer, booking.StatusConfirmed))
		assert.False(t, p.MayCancel(booking.RoleAdmin, booking.StatusPending))
	})

	t.Run("missing file", func(t *testing.T) {
		withFile := *cfg
		withFile.PolicyFile = filepath.Join(t.TempDir(), "absent.yaml")
		_, err := LoadPolicy(&withFile)
		assert.Error(t, err)
	})
}

func TestParseCancellation_Rejects(t *testing.T) {
	tests := map[string]string{
		"not yaml":        "cancellation: [",
		"empty":           "cancellation: {}",
		"unknown role":    "cancellation:\n  groomer: [PENDING]\n",
		"system role":     "cancellation:\n  system: [PENDING]\n",
		"unknown status":  "cancellation:\n  owner: [ARCHIVED]\n",
		"non cancellable": "cancellation:\n  owner: [IN_PROGRESS]\n",
		"terminal status": "cancellation:\n  admin: [COMPLETED]\n",
	}

	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseCancellation([]byte(doc))
			assert.Error(t, err)
		})
	}
}
