package ports

import "time"

// Metrics puerto de métricas del motor de ventas e inventario.
// La implementación Prometheus vive en infrastructure/telemetry.
type Metrics interface {
	SalePosted(elapsed time.Duration)
	SaleRejected(reason string)
	MovementApplied(movementType string)
	LowStockSignaled()
}

// NopMetrics implementación vacía para tests y para cuando las métricas están deshabilitadas.
type NopMetrics struct{}

func (NopMetrics) SalePosted(time.Duration) {}
func (NopMetrics) SaleRejected(string) {}
func (NopMetrics) MovementApplied(string) {}
func (NopMetrics) LowStockSignaled() {}
