package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product representa un producto del catálogo con su stock autoritativo por negocio.
// StockQuantity solo lo modifica el ledger de inventario; nunca es negativo fuera de una tx.
type Product struct {
	ID               string
	BusinessID       string
	Name             string
	UnitPrice        decimal.Decimal  // precio de venta
	UnitCost         decimal.Decimal  // costo unitario
	TaxRatePercent   *decimal.Decimal // nil = usar la tasa por defecto configurada
	StockQuantity    int64
	MinStockQuantity int64 // umbral de stock bajo
	Active           bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// IsLowStock indica si una cantidad cruza el umbral mínimo del producto.
func (p *Product) IsLowStock(qty int64) bool {
	return qty <= p.MinStockQuantity
}
