package repository

import (
	"context"

	"github.com/jhoicas/sales-ledger/internal/domain/entity"
)

// InventoryMovementRepository define el puerto del ledger append-only.
// No hay Update ni Delete.
type InventoryMovementRepository interface {
	Create(ctx context.Context, movement *entity.InventoryMovement) error
	// ListByProduct lista en orden de creación ascendente.
	ListByProduct(ctx context.Context, businessID, productID string, limit, offset int) ([]*entity.InventoryMovement, error)
	CountByProduct(ctx context.Context, businessID, productID string) (int, error)
}
