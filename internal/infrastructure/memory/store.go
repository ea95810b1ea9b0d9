// Package memory implementa los puertos de persistencia en memoria.
// Lo usan los tests de aplicación y el modo sin base de datos (APP_ENV=test).
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/jhoicas/sales-ledger/internal/application/inventory"
	"github.com/jhoicas/sales-ledger/internal/domain"
	"github.com/jhoicas/sales-ledger/internal/domain/entity"
	"github.com/jhoicas/sales-ledger/internal/domain/repository"
)

var _ inventory.TxRunner = (*Store)(nil)

// FaultFunc se invoca antes de cada escritura y antes del commit con el nombre de la operación
// ("products.update_stock", "movements.create", "sales.create", "sales.create_line_item", "commit").
// Si devuelve error, la operación falla con ese error.
type FaultFunc func(op string) error

// Store guarda el estado confirmado. Las transacciones se serializan con un semáforo
// de una plaza, equivalente a bloquear todas las filas a la vez; sus escrituras quedan
// en un área de staging y solo se publican en el commit.
type Store struct {
	sem chan struct{}

	mu        sync.RWMutex
	products  map[string]*entity.Product
	customers map[string]*entity.Customer
	sales     map[string]*entity.Sale
	items     map[string][]*entity.SaleLineItem
	movements []*entity.InventoryMovement
	fault     FaultFunc
}

// NewStore crea un almacén vacío.
func NewStore() *Store {
	return &Store{
		sem:       make(chan struct{}, 1),
		products:  make(map[string]*entity.Product),
		customers: make(map[string]*entity.Customer),
		sales:     make(map[string]*entity.Sale),
		items:     make(map[string][]*entity.SaleLineItem),
	}
}

// SetFault instala (o quita con nil) el inyector de fallos.
func (s *Store) SetFault(f FaultFunc) {
	s.mu.Lock()
	s.fault = f
	s.mu.Unlock()
}

func (s *Store) check(op string) error {
	s.mu.RLock()
	f := s.fault
	s.mu.RUnlock()
	if f == nil {
		return nil
	}
	return f(op)
}

// PutProduct inserta o reemplaza un producto confirmado.
func (s *Store) PutProduct(p *entity.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[p.ID] = cloneProduct(p)
}

// PutCustomer inserta o reemplaza un cliente confirmado.
func (s *Store) PutCustomer(c *entity.Customer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *c
	s.customers[c.ID] = &cp
}

// Product devuelve una copia del producto confirmado.
func (s *Store) Product(id string) (*entity.Product, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.products[id]
	if !ok {
		return nil, false
	}
	return cloneProduct(p), true
}

// MovementsOf devuelve los movimientos confirmados de un producto en orden de creación.
func (s *Store) MovementsOf(productID string) []*entity.InventoryMovement {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*entity.InventoryMovement
	for _, m := range s.movements {
		if m.ProductID == productID {
			cp := *m
			out = append(out, &cp)
		}
	}
	return out
}

// SaleCount número de ventas confirmadas.
func (s *Store) SaleCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sales)
}

// LineItemCount número de líneas de venta confirmadas.
func (s *Store) LineItemCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, it := range s.items {
		n += len(it)
	}
	return n
}

// Products repositorio de lectura fuera de transacción.
func (s *Store) Products() repository.ProductRepository { return &productRepo{s: s} }

// Customers repositorio de lectura fuera de transacción.
func (s *Store) Customers() repository.CustomerRepository { return &customerRepo{s: s} }

// Sales repositorio de lectura fuera de transacción.
func (s *Store) Sales() repository.SaleRepository { return &saleRepo{s: s} }

// Movements repositorio de lectura fuera de transacción.
func (s *Store) Movements() repository.InventoryMovementRepository { return &movementRepo{s: s} }

// Run ejecuta fn en una transacción. Si fn devuelve error, el staging se descarta.
func (s *Store) Run(ctx context.Context, fn func(repos repository.TxRepos) error) error {
	select {
	case s.sem <- struct{}{}:
	case <-ctx.Done():
		return &domain.StorageError{Op: "begin", Err: ctx.Err()}
	}
	defer func() { <-s.sem }()

	tx := &txState{products: make(map[string]*entity.Product)}
	repos := repository.TxRepos{
		Products:  &productRepo{s: s, tx: tx},
		Customers: &customerRepo{s: s},
		Sales:     &saleRepo{s: s, tx: tx},
		Movements: &movementRepo{s: s, tx: tx},
	}
	if err := fn(repos); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return &domain.StorageError{Op: "commit", Err: err}
	}
	if err := s.check("commit"); err != nil {
		return err
	}
	s.commit(tx)
	return nil
}

func (s *Store) commit(tx *txState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, p := range tx.products {
		s.products[id] = p
	}
	s.movements = append(s.movements, tx.movements...)
	for _, sale := range tx.sales {
		s.sales[sale.ID] = sale
	}
	for _, it := range tx.items {
		s.items[it.SaleID] = append(s.items[it.SaleID], it)
	}
}

// txState escrituras pendientes de una transacción.
type txState struct {
	products  map[string]*entity.Product
	movements []*entity.InventoryMovement
	sales     []*entity.Sale
	items     []*entity.SaleLineItem
}

func cloneProduct(p *entity.Product) *entity.Product {
	cp := *p
	return &cp
}

func page[T any](in []T, limit, offset int) []T {
	if offset >= len(in) {
		return nil
	}
	in = in[offset:]
	if limit > 0 && limit < len(in) {
		in = in[:limit]
	}
	return in
}

func sortProducts(ps []*entity.Product) {
	sort.Slice(ps, func(i, j int) bool {
		if ps[i].Name != ps[j].Name {
			return ps[i].Name < ps[j].Name
		}
		return ps[i].ID < ps[j].ID
	})
}
