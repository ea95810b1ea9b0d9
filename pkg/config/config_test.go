package config

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromViper_ValoresPorDefecto(t *testing.T) {
	cfg, err := fromViper(viper.New())
	require.NoError(t, err)

	assert.True(t, decimal.NewFromInt(16).Equal(cfg.Sales.DefaultTaxRate))
	assert.Equal(t, "MXN", cfg.Sales.DefaultCurrency)
	assert.Equal(t, 10*time.Second, cfg.Sales.Timeout)
	assert.Equal(t, 3*time.Second, cfg.Sales.LockTimeout)
	assert.Equal(t, 2, cfg.Sales.MaxRetries)
	assert.Equal(t, "log", cfg.Notifier.Driver)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "0.0.0.0:8080", cfg.HTTP.Addr())
}

func TestFromViper_Sobrescrituras(t *testing.T) {
	v := viper.New()
	v.Set("SALES_DEFAULT_TAX_RATE", "8")
	v.Set("SALES_TIMEOUT", "500ms")
	v.Set("SALES_LOCK_TIMEOUT", "2")
	v.Set("SALES_DEFAULT_CURRENCY", "usd")
	v.Set("NOTIFIER_DRIVER", "Kafka")
	v.Set("KAFKA_BROKERS", "k1:9092, k2:9092")
	v.Set("METRICS_ENABLED", "false")

	cfg, err := fromViper(v)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(8).Equal(cfg.Sales.DefaultTaxRate))
	assert.Equal(t, 500*time.Millisecond, cfg.Sales.Timeout)
	assert.Equal(t, 2*time.Second, cfg.Sales.LockTimeout)
	assert.Equal(t, "USD", cfg.Sales.DefaultCurrency)
	assert.Equal(t, "kafka", cfg.Notifier.Driver)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.False(t, cfg.Telemetry.MetricsEnabled)
}

func TestFromViper_Invalidos(t *testing.T) {
	v := viper.New()
	v.Set("NOTIFIER_DRIVER", "smtp")
	_, err := fromViper(v)
	assert.Error(t, err)

	v = viper.New()
	v.Set("SALES_DEFAULT_TAX_RATE", "-1")
	_, err = fromViper(v)
	assert.Error(t, err)
}

func TestDBConfig_ConnectionString(t *testing.T) {
	c := DBConfig{Host: "db", Port: 5432, User: "app", Password: "p@ss", DBName: "ledger", SSLMode: "disable"}
	assert.Equal(t, "postgres://app:p%40ss@db:5432/ledger?sslmode=disable", c.ConnectionString())

	c.DatabaseURL = "postgres://x"
	assert.Equal(t, "postgres://x", c.ConnectionString())
}
