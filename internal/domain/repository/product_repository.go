package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/sales-ledger/internal/domain/entity"
)

// ProductRepository define el puerto de persistencia para Product (DIP).
// Todas las lecturas filtran por businessID; un producto de otro negocio no existe.
type ProductRepository interface {
	// Create da de alta el producto. domain.ErrDuplicate si el id ya existe.
	Create(ctx context.Context, p *entity.Product) error
	// GetByID devuelve (nil, nil) si no existe en el negocio.
	GetByID(ctx context.Context, businessID, id string) (*entity.Product, error)
	// GetForUpdate lee el producto bloqueando su fila hasta el fin de la transacción.
	GetForUpdate(ctx context.Context, businessID, id string) (*entity.Product, error)
	// UpdateStock escribe stock_quantity. Solo lo invoca el ledger de inventario.
	UpdateStock(ctx context.Context, businessID, id string, quantity int64) error
	UpdateCost(ctx context.Context, businessID, id string, cost decimal.Decimal) error
	// ListLowStock lista productos activos con stock_quantity <= min_stock_quantity.
	ListLowStock(ctx context.Context, businessID string, limit, offset int) ([]*entity.Product, error)
}
