package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/sales-ledger/internal/domain"
	"github.com/jhoicas/sales-ledger/internal/domain/entity"
	"github.com/jhoicas/sales-ledger/internal/domain/repository"
)

var (
	_ repository.ProductRepository           = (*productRepo)(nil)
	_ repository.CustomerRepository          = (*customerRepo)(nil)
	_ repository.SaleRepository              = (*saleRepo)(nil)
	_ repository.InventoryMovementRepository = (*movementRepo)(nil)
)

// productRepo lee del staging de la tx (si hay) y luego del estado confirmado.
type productRepo struct {
	s  *Store
	tx *txState
}

func (r *productRepo) lookup(businessID, id string) *entity.Product {
	if r.tx != nil {
		if p, ok := r.tx.products[id]; ok {
			if p.BusinessID != businessID {
				return nil
			}
			return cloneProduct(p)
		}
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	p, ok := r.s.products[id]
	if !ok || p.BusinessID != businessID {
		return nil
	}
	return cloneProduct(p)
}

// Create escribe directo al estado confirmado: el alta de catálogo no forma parte de la tx.
func (r *productRepo) Create(ctx context.Context, p *entity.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.products[p.ID]; ok {
		return fmt.Errorf("producto %s: %w", p.ID, domain.ErrDuplicate)
	}
	r.s.products[p.ID] = cloneProduct(p)
	return nil
}

func (r *productRepo) GetByID(ctx context.Context, businessID, id string) (*entity.Product, error) {
	return r.lookup(businessID, id), nil
}

// GetForUpdate no necesita bloqueo adicional: la tx ya tiene el semáforo del Store.
func (r *productRepo) GetForUpdate(ctx context.Context, businessID, id string) (*entity.Product, error) {
	if err := r.s.check("products.get_for_update"); err != nil {
		return nil, err
	}
	return r.lookup(businessID, id), nil
}

func (r *productRepo) stage(businessID, id string, mutate func(p *entity.Product)) error {
	p := r.lookup(businessID, id)
	if p == nil {
		return nil
	}
	mutate(p)
	p.UpdatedAt = time.Now().UTC()
	if r.tx == nil {
		r.s.PutProduct(p)
		return nil
	}
	r.tx.products[id] = p
	return nil
}

func (r *productRepo) UpdateStock(ctx context.Context, businessID, id string, quantity int64) error {
	if err := r.s.check("products.update_stock"); err != nil {
		return err
	}
	return r.stage(businessID, id, func(p *entity.Product) { p.StockQuantity = quantity })
}

func (r *productRepo) UpdateCost(ctx context.Context, businessID, id string, cost decimal.Decimal) error {
	if err := r.s.check("products.update_cost"); err != nil {
		return err
	}
	return r.stage(businessID, id, func(p *entity.Product) { p.UnitCost = cost })
}

func (r *productRepo) ListLowStock(ctx context.Context, businessID string, limit, offset int) ([]*entity.Product, error) {
	r.s.mu.RLock()
	var out []*entity.Product
	for _, p := range r.s.products {
		if p.BusinessID == businessID && p.Active && p.StockQuantity <= p.MinStockQuantity {
			out = append(out, cloneProduct(p))
		}
	}
	r.s.mu.RUnlock()
	sortProducts(out)
	return page(out, limit, offset), nil
}

type customerRepo struct {
	s *Store
}

func (r *customerRepo) Create(ctx context.Context, c *entity.Customer) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.customers[c.ID]; ok {
		return fmt.Errorf("cliente %s: %w", c.ID, domain.ErrDuplicate)
	}
	if c.PrimaryDocumentID != "" {
		for _, other := range r.s.customers {
			if other.BusinessID == c.BusinessID && other.PrimaryDocumentID == c.PrimaryDocumentID {
				return fmt.Errorf("documento %s: %w", c.PrimaryDocumentID, domain.ErrDuplicate)
			}
		}
	}
	cp := *c
	r.s.customers[c.ID] = &cp
	return nil
}

func (r *customerRepo) GetByID(ctx context.Context, businessID, id string) (*entity.Customer, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	c, ok := r.s.customers[id]
	if !ok || c.BusinessID != businessID {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

type saleRepo struct {
	s  *Store
	tx *txState
}

func (r *saleRepo) Create(ctx context.Context, sale *entity.Sale) error {
	if err := r.s.check("sales.create"); err != nil {
		return err
	}
	cp := *sale
	cp.LineItems = nil
	cp.LineItemIDs = append([]string(nil), sale.LineItemIDs...)
	if r.tx == nil {
		r.s.mu.Lock()
		r.s.sales[cp.ID] = &cp
		r.s.mu.Unlock()
		return nil
	}
	r.tx.sales = append(r.tx.sales, &cp)
	return nil
}

func (r *saleRepo) CreateLineItem(ctx context.Context, item *entity.SaleLineItem) error {
	if err := r.s.check("sales.create_line_item"); err != nil {
		return err
	}
	cp := *item
	if r.tx == nil {
		r.s.mu.Lock()
		r.s.items[cp.SaleID] = append(r.s.items[cp.SaleID], &cp)
		r.s.mu.Unlock()
		return nil
	}
	r.tx.items = append(r.tx.items, &cp)
	return nil
}

func (r *saleRepo) GetByID(ctx context.Context, businessID, id string) (*entity.Sale, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	sale, ok := r.s.sales[id]
	if !ok || sale.BusinessID != businessID {
		return nil, nil
	}
	cp := *sale
	cp.LineItemIDs = append([]string(nil), sale.LineItemIDs...)
	return &cp, nil
}

func (r *saleRepo) ListLineItems(ctx context.Context, saleID string) ([]*entity.SaleLineItem, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*entity.SaleLineItem, 0, len(r.s.items[saleID]))
	for _, it := range r.s.items[saleID] {
		cp := *it
		out = append(out, &cp)
	}
	return out, nil
}

type movementRepo struct {
	s  *Store
	tx *txState
}

func (r *movementRepo) Create(ctx context.Context, m *entity.InventoryMovement) error {
	if err := r.s.check("movements.create"); err != nil {
		return err
	}
	cp := *m
	if r.tx == nil {
		r.s.mu.Lock()
		r.s.movements = append(r.s.movements, &cp)
		r.s.mu.Unlock()
		return nil
	}
	r.tx.movements = append(r.tx.movements, &cp)
	return nil
}

func (r *movementRepo) all(businessID, productID string) []*entity.InventoryMovement {
	var out []*entity.InventoryMovement
	r.s.mu.RLock()
	for _, m := range r.s.movements {
		if m.BusinessID == businessID && m.ProductID == productID {
			cp := *m
			out = append(out, &cp)
		}
	}
	r.s.mu.RUnlock()
	if r.tx != nil {
		for _, m := range r.tx.movements {
			if m.BusinessID == businessID && m.ProductID == productID {
				cp := *m
				out = append(out, &cp)
			}
		}
	}
	return out
}

func (r *movementRepo) ListByProduct(ctx context.Context, businessID, productID string, limit, offset int) ([]*entity.InventoryMovement, error) {
	return page(r.all(businessID, productID), limit, offset), nil
}

func (r *movementRepo) CountByProduct(ctx context.Context, businessID, productID string) (int, error) {
	return len(r.all(businessID, productID)), nil
}
