package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/sales-ledger/internal/domain/entity"
	"github.com/jhoicas/sales-ledger/internal/domain/repository"
)

var _ repository.SaleRepository = (*SaleRepo)(nil)

// SaleRepo persiste ventas y sus líneas (usable con pool o tx).
type SaleRepo struct {
	q Querier
}

// NewSaleRepository construye el adaptador. Pasar pool o tx (Querier).
func NewSaleRepository(q Querier) *SaleRepo {
	return &SaleRepo{q: q}
}

// Create persiste la cabecera de la venta.
func (r *SaleRepo) Create(ctx context.Context, s *entity.Sale) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO sales (id, business_id, customer_id, subtotal, tax_total, discount, shipping, total,
			currency, exchange_rate, payment_method, status, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		s.ID, s.BusinessID, s.CustomerID, s.Subtotal, s.TaxTotal, s.Discount, s.Shipping, s.Total,
		s.Currency, s.ExchangeRate, s.PaymentMethod, s.Status, s.CreatedBy, s.CreatedAt,
	)
	return classify("insert sale", err)
}

// CreateLineItem persiste una línea; el orden de inserción se conserva (seq).
func (r *SaleRepo) CreateLineItem(ctx context.Context, it *entity.SaleLineItem) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO sale_line_items (id, sale_id, product_id, quantity, unit_price_at_sale, tax_rate_percent, line_total, tax_amount)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		it.ID, it.SaleID, it.ProductID, it.Quantity, it.UnitPriceAtSale, it.TaxRatePercent, it.LineTotal, it.TaxAmount,
	)
	return classify("insert sale line item", err)
}

// GetByID obtiene la cabecera de una venta del negocio con los ids de sus líneas. (nil, nil) si no existe.
func (r *SaleRepo) GetByID(ctx context.Context, businessID, id string) (*entity.Sale, error) {
	var s entity.Sale
	err := r.q.QueryRow(ctx, `
		SELECT s.id, s.business_id, s.customer_id, s.subtotal, s.tax_total, s.discount, s.shipping, s.total,
			s.currency, s.exchange_rate, s.payment_method, s.status, s.created_by, s.created_at,
			COALESCE(ARRAY(SELECT li.id FROM sale_line_items li WHERE li.sale_id = s.id ORDER BY li.seq), '{}')
		FROM sales s WHERE s.id = $1 AND s.business_id = $2`, id, businessID,
	).Scan(
		&s.ID, &s.BusinessID, &s.CustomerID, &s.Subtotal, &s.TaxTotal, &s.Discount, &s.Shipping, &s.Total,
		&s.Currency, &s.ExchangeRate, &s.PaymentMethod, &s.Status, &s.CreatedBy, &s.CreatedAt,
		&s.LineItemIDs,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, classify("get sale", err)
	}
	return &s, nil
}

// ListLineItems lista las líneas de una venta en el orden en que se solicitaron.
func (r *SaleRepo) ListLineItems(ctx context.Context, saleID string) ([]*entity.SaleLineItem, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, sale_id, product_id, quantity, unit_price_at_sale, tax_rate_percent, line_total, tax_amount
		FROM sale_line_items WHERE sale_id = $1 ORDER BY seq`, saleID)
	if err != nil {
		return nil, classify("list sale line items", err)
	}
	defer rows.Close()

	var out []*entity.SaleLineItem
	for rows.Next() {
		var it entity.SaleLineItem
		if err := rows.Scan(&it.ID, &it.SaleID, &it.ProductID, &it.Quantity, &it.UnitPriceAtSale,
			&it.TaxRatePercent, &it.LineTotal, &it.TaxAmount); err != nil {
			return nil, classify("scan sale line item", err)
		}
		out = append(out, &it)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("list sale line items", err)
	}
	return out, nil
}
