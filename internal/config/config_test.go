package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"HTTP_ADDR", "KAFKA_BROKERS", "PAYMENTS_GROUP", "PAYMENTS_WORKERS"} {
		t.Setenv(k, "")
	}
	cfg := Load()
	assert.Equal(t, ":8081", cfg.HTTPAddr)
	assert.Equal(t, []string{"kafka:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "payment-worker", cfg.PaymentsGroup)
	assert.Equal(t, 4, cfg.PaymentsWorkers)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "a:9092, b:9092,")
	t.Setenv("PAYMENTS_GROUP", "payments-eu")
	t.Setenv("PAYMENTS_WORKERS", "16")

	cfg := Load()
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "payments-eu", cfg.PaymentsGroup)
	assert.Equal(t, 16, cfg.PaymentsWorkers)
}

func TestLoadRejectsBadWorkerCount(t *testing.T) {
	t.Setenv("PAYMENTS_WORKERS", "zero")
	assert.Equal(t, 4, Load().PaymentsWorkers)

	t.Setenv("PAYMENTS_WORKERS", "-2")
	assert.Equal(t, 4, Load().PaymentsWorkers)
}
