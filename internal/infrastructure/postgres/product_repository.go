package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/sales-ledger/internal/domain"
	"github.com/jhoicas/sales-ledger/internal/domain/entity"
	"github.com/jhoicas/sales-ledger/internal/domain/repository"
)

var _ repository.ProductRepository = (*ProductRepo)(nil)

const productColumns = `id, business_id, name, unit_price, unit_cost, tax_rate_percent,
	stock_quantity, min_stock_quantity, active, created_at, updated_at`

// ProductRepo implementación del puerto ProductRepository sobre PostgreSQL (usable con pool o tx).
type ProductRepo struct {
	q Querier
}

// NewProductRepository construye el adaptador de persistencia para productos. Pasar pool o tx (Querier).
func NewProductRepository(q Querier) *ProductRepo {
	return &ProductRepo{q: q}
}

func scanProduct(row pgx.Row) (*entity.Product, error) {
	var p entity.Product
	err := row.Scan(
		&p.ID, &p.BusinessID, &p.Name, &p.UnitPrice, &p.UnitCost, &p.TaxRatePercent,
		&p.StockQuantity, &p.MinStockQuantity, &p.Active, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Create persiste un producto (alta de catálogo y seed). El stock inicial debe registrarse
// después como movimiento initial para que el ledger lo explique.
func (r *ProductRepo) Create(ctx context.Context, p *entity.Product) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO products (`+productColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		p.ID, p.BusinessID, p.Name, p.UnitPrice, p.UnitCost, p.TaxRatePercent,
		p.StockQuantity, p.MinStockQuantity, p.Active, p.CreatedAt, p.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("insert product: %w", domain.ErrDuplicate)
	}
	return classify("insert product", err)
}

// GetByID obtiene un producto del negocio. (nil, nil) si no existe.
func (r *ProductRepo) GetByID(ctx context.Context, businessID, id string) (*entity.Product, error) {
	p, err := scanProduct(r.q.QueryRow(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = $1 AND business_id = $2`, id, businessID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, classify("get product", err)
	}
	return p, nil
}

// GetForUpdate obtiene el producto y bloquea la fila hasta el fin de la tx (SELECT FOR UPDATE).
func (r *ProductRepo) GetForUpdate(ctx context.Context, businessID, id string) (*entity.Product, error) {
	p, err := scanProduct(r.q.QueryRow(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = $1 AND business_id = $2 FOR UPDATE`, id, businessID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, classify("lock product", err)
	}
	return p, nil
}

// UpdateStock escribe el stock calculado por el ledger.
func (r *ProductRepo) UpdateStock(ctx context.Context, businessID, id string, quantity int64) error {
	_, err := r.q.Exec(ctx,
		`UPDATE products SET stock_quantity = $3, updated_at = now() WHERE id = $1 AND business_id = $2`,
		id, businessID, quantity,
	)
	return classify("update product stock", err)
}

// UpdateCost actualiza solo el costo del producto (usado por el motor de inventario).
func (r *ProductRepo) UpdateCost(ctx context.Context, businessID, id string, cost decimal.Decimal) error {
	_, err := r.q.Exec(ctx,
		`UPDATE products SET unit_cost = $3, updated_at = now() WHERE id = $1 AND business_id = $2`,
		id, businessID, cost,
	)
	return classify("update product cost", err)
}

// ListLowStock lista productos activos en o bajo su mínimo.
func (r *ProductRepo) ListLowStock(ctx context.Context, businessID string, limit, offset int) ([]*entity.Product, error) {
	rows, err := r.q.Query(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE business_id = $1 AND active AND stock_quantity <= min_stock_quantity
		ORDER BY name, id
		LIMIT $2 OFFSET $3`, businessID, limit, offset)
	if err != nil {
		return nil, classify("list low stock", err)
	}
	defer rows.Close()

	var out []*entity.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, classify("scan product", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("list low stock", err)
	}
	return out, nil
}
