package repository

import (
	"context"

	"github.com/jhoicas/sales-ledger/internal/domain/entity"
)

// CustomerRepository define el puerto de persistencia de clientes.
type CustomerRepository interface {
	Create(ctx context.Context, c *entity.Customer) error
	// GetByID devuelve (nil, nil) si no existe en el negocio.
	GetByID(ctx context.Context, businessID, id string) (*entity.Customer, error)
}
