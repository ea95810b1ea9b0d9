package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// PostSaleRequest body para POST /api/sales.
// Los totales no se aceptan: siempre se calculan en el servidor.
type PostSaleRequest struct {
	CustomerID    string            `json:"customer_id" validate:"required"`
	Items         []SaleItemRequest `json:"items" validate:"required,min=1,dive"`
	PaymentMethod string            `json:"payment_method" validate:"required"`
	Currency      string            `json:"currency,omitempty" validate:"omitempty,len=3,alpha"`
	ExchangeRate  *decimal.Decimal  `json:"exchange_rate,omitempty"`
	Discount      *decimal.Decimal  `json:"discount,omitempty"`
	Shipping      *decimal.Decimal  `json:"shipping,omitempty"`
}

// SaleItemRequest línea solicitada.
type SaleItemRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int64  `json:"quantity" validate:"required,gt=0"`
}

// SaleResponse venta completada con sus líneas.
type SaleResponse struct {
	ID            string                 `json:"id"`
	BusinessID    string                 `json:"business_id"`
	CustomerID    string                 `json:"customer_id"`
	Subtotal      decimal.Decimal        `json:"subtotal"`
	TaxTotal      decimal.Decimal        `json:"tax_total"`
	Discount      decimal.Decimal        `json:"discount"`
	Shipping      decimal.Decimal        `json:"shipping"`
	Total         decimal.Decimal        `json:"total"`
	Currency      string                 `json:"currency"`
	ExchangeRate  *decimal.Decimal       `json:"exchange_rate,omitempty"`
	PaymentMethod string                 `json:"payment_method"`
	Status        string                 `json:"status"`
	CreatedBy     string                 `json:"created_by"`
	CreatedAt     time.Time              `json:"created_at"`
	Items         []SaleLineItemResponse `json:"items"`
}

// SaleLineItemResponse línea de venta en la respuesta.
type SaleLineItemResponse struct {
	ID              string          `json:"id"`
	ProductID       string          `json:"product_id"`
	Quantity        int64           `json:"quantity"`
	UnitPriceAtSale decimal.Decimal `json:"unit_price_at_sale"`
	TaxRatePercent  decimal.Decimal `json:"tax_rate_percent"`
	LineTotal       decimal.Decimal `json:"line_total"`
	TaxAmount       decimal.Decimal `json:"tax_amount"`
}
