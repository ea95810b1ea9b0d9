package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateProductRequest entrada para dar de alta un producto.
// El stock nunca se escribe directo: InitialStock se registra como movimiento initial.
type CreateProductRequest struct {
	Name             string           `json:"name" validate:"required,min=1,max=200"`
	UnitPrice        decimal.Decimal  `json:"unit_price"`
	UnitCost         decimal.Decimal  `json:"unit_cost"`
	TaxRatePercent   *decimal.Decimal `json:"tax_rate_percent,omitempty"` // nil = tasa por defecto
	MinStockQuantity int64            `json:"min_stock_quantity" validate:"min=0"`
	InitialStock     int64            `json:"initial_stock" validate:"min=0"`
}

// ProductResponse salida de un producto.
type ProductResponse struct {
	ID               string           `json:"id"`
	BusinessID       string           `json:"business_id"`
	Name             string           `json:"name"`
	UnitPrice        decimal.Decimal  `json:"unit_price"`
	UnitCost         decimal.Decimal  `json:"unit_cost"`
	TaxRatePercent   *decimal.Decimal `json:"tax_rate_percent,omitempty"`
	StockQuantity    int64            `json:"stock_quantity"`
	MinStockQuantity int64            `json:"min_stock_quantity"`
	Active           bool             `json:"active"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

// CreateCustomerRequest body para POST /api/customers.
// Los datos pueden quedar incompletos; nombre, documento y teléfono se exigen al vender.
type CreateCustomerRequest struct {
	Name       string `json:"name" validate:"required,max=200"`
	DocumentID string `json:"document_id,omitempty" validate:"max=40"`
	Email      string `json:"email,omitempty" validate:"omitempty,email"`
	Phone      string `json:"phone,omitempty" validate:"max=30"`
}

// CustomerResponse cliente en respuestas.
type CustomerResponse struct {
	ID         string `json:"id"`
	BusinessID string `json:"business_id"`
	Name       string `json:"name"`
	DocumentID string `json:"document_id,omitempty"`
	Email      string `json:"email,omitempty"`
	Phone      string `json:"phone,omitempty"`
}
