package telemetry_test

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/sales-ledger/internal/infrastructure/telemetry"
)

func TestMetrics_ContadoresYHandler(t *testing.T) {
	m := telemetry.NewMetrics("ledger")
	m.SalePosted(20 * time.Millisecond)
	m.SaleRejected("insufficient_stock")
	m.SaleRejected("insufficient_stock")
	m.MovementApplied("sale")
	m.LowStockSignaled()

	n, err := testutil.GatherAndCount(m.Registry(), "ledger_sales_rejected_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n, "una serie por motivo")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	assert.Contains(t, string(body), `ledger_sales_rejected_total{reason="insufficient_stock"} 2`)
	assert.Contains(t, string(body), "ledger_sales_posted_total 1")
	assert.Contains(t, string(body), `ledger_inventory_movements_total{type="sale"} 1`)
	assert.Contains(t, string(body), "ledger_low_stock_signals_total 1")
}
