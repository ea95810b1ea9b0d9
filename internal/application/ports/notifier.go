package ports

import (
	"context"
	"time"
)

// LowStockEvent mensaje post-commit emitido cuando un movimiento deja el stock
// en o por debajo del mínimo configurado del producto.
type LowStockEvent struct {
	BusinessID       string    `json:"business_id"`
	ProductID        string    `json:"product_id"`
	StockAfter       int64     `json:"stock_after"`
	MinStockQuantity int64     `json:"min_stock_quantity"`
	MovementType     string    `json:"movement_type"`
	Reference        string    `json:"reference,omitempty"`
	OccurredAt       time.Time `json:"occurred_at"`
}

// LowStockNotifier observador externo de stock bajo (fire-and-forget).
// Se invoca siempre fuera de la transacción; un error solo se registra en log
// y nunca revierte la operación que lo originó.
type LowStockNotifier interface {
	Notify(ctx context.Context, event LowStockEvent) error
}

// NopNotifier descarta los eventos.
type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, LowStockEvent) error { return nil }
