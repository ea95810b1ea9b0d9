package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// RegisterMovementRequest body para POST /api/inventory/movements.
type RegisterMovementRequest struct {
	ProductID     string           `json:"product_id" validate:"required"`
	Type          string           `json:"type" validate:"required,oneof=initial adjustment transfer return damage purchase"`
	QuantityDelta int64            `json:"quantity_delta" validate:"required,min=-1000000000,max=1000000000"`
	Reference     string           `json:"reference,omitempty" validate:"max=120"`
	Reason        string           `json:"reason,omitempty" validate:"max=500"`
	UnitCost      *decimal.Decimal `json:"unit_cost,omitempty"`
}

// MovementResponse movimiento del ledger en respuestas.
type MovementResponse struct {
	ID            string    `json:"id"`
	ProductID     string    `json:"product_id"`
	ActorID       string    `json:"actor_id"`
	Type          string    `json:"type"`
	QuantityDelta int64     `json:"quantity_delta"`
	StockBefore   int64     `json:"stock_before"`
	StockAfter    int64     `json:"stock_after"`
	Reference     string    `json:"reference,omitempty"`
	Reason        string    `json:"reason,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// MovementHistoryResponse cadena de movimientos de un producto.
type MovementHistoryResponse struct {
	ProductID  string             `json:"product_id"`
	Movements  []MovementResponse `json:"movements"`
	ChainValid bool               `json:"chain_valid"`
	ChainError string             `json:"chain_error,omitempty"`
	Page       PageResponse       `json:"page"`
}

// LowStockItemDTO producto en o bajo su stock mínimo, con sugerencia de reposición.
type LowStockItemDTO struct {
	ProductID         string          `json:"product_id"`
	ProductName       string          `json:"product_name"`
	StockQuantity     int64           `json:"stock_quantity"`
	MinStockQuantity  int64           `json:"min_stock_quantity"`
	IdealStock        int64           `json:"ideal_stock"`         // ceil(MinStockQuantity * 1.5)
	SuggestedOrderQty int64           `json:"suggested_order_qty"` // IdealStock - StockQuantity
	UnitCost          decimal.Decimal `json:"unit_cost"`
	EstimatedCost     decimal.Decimal `json:"estimated_cost"` // SuggestedOrderQty * UnitCost
	Priority          int             `json:"priority"`       // 1 = más urgente
}
