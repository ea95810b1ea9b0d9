package repository

import (
	"context"

	"github.com/jhoicas/sales-ledger/internal/domain/entity"
)

// SaleRepository define el puerto de persistencia para Sale y sus líneas.
type SaleRepository interface {
	Create(ctx context.Context, sale *entity.Sale) error
	CreateLineItem(ctx context.Context, item *entity.SaleLineItem) error
	GetByID(ctx context.Context, businessID, id string) (*entity.Sale, error)
	ListLineItems(ctx context.Context, saleID string) ([]*entity.SaleLineItem, error)
}
