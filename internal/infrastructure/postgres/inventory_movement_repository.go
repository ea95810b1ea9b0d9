package postgres

import (
	"context"

	"github.com/jhoicas/sales-ledger/internal/domain/entity"
	"github.com/jhoicas/sales-ledger/internal/domain/repository"
)

var _ repository.InventoryMovementRepository = (*InventoryMovementRepo)(nil)

// InventoryMovementRepo ledger append-only sobre PostgreSQL (usable con pool o tx).
type InventoryMovementRepo struct {
	q Querier
}

// NewInventoryMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewInventoryMovementRepository(q Querier) *InventoryMovementRepo {
	return &InventoryMovementRepo{q: q}
}

// Create agrega un movimiento. No existe Update ni Delete.
func (r *InventoryMovementRepo) Create(ctx context.Context, m *entity.InventoryMovement) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO inventory_movements (id, business_id, product_id, actor_id, type, quantity_delta,
			stock_before, stock_after, reference, reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		m.ID, m.BusinessID, m.ProductID, m.ActorID, m.Type, m.QuantityDelta,
		m.StockBefore, m.StockAfter, m.Reference, m.Reason, m.CreatedAt,
	)
	return classify("insert inventory movement", err)
}

// ListByProduct lista los movimientos de un producto en orden de inserción.
func (r *InventoryMovementRepo) ListByProduct(ctx context.Context, businessID, productID string, limit, offset int) ([]*entity.InventoryMovement, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, business_id, product_id, actor_id, type, quantity_delta, stock_before, stock_after,
			reference, reason, created_at
		FROM inventory_movements
		WHERE business_id = $1 AND product_id = $2
		ORDER BY seq
		LIMIT $3 OFFSET $4`, businessID, productID, limit, offset)
	if err != nil {
		return nil, classify("list inventory movements", err)
	}
	defer rows.Close()

	var out []*entity.InventoryMovement
	for rows.Next() {
		var m entity.InventoryMovement
		if err := rows.Scan(&m.ID, &m.BusinessID, &m.ProductID, &m.ActorID, &m.Type, &m.QuantityDelta,
			&m.StockBefore, &m.StockAfter, &m.Reference, &m.Reason, &m.CreatedAt); err != nil {
			return nil, classify("scan inventory movement", err)
		}
		out = append(out, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("list inventory movements", err)
	}
	return out, nil
}

// CountByProduct número de movimientos del producto.
func (r *InventoryMovementRepo) CountByProduct(ctx context.Context, businessID, productID string) (int, error) {
	var n int
	err := r.q.QueryRow(ctx,
		`SELECT count(*) FROM inventory_movements WHERE business_id = $1 AND product_id = $2`,
		businessID, productID,
	).Scan(&n)
	if err != nil {
		return 0, classify("count inventory movements", err)
	}
	return n, nil
}
