// Package catalog da de alta y consulta productos y clientes del negocio.
package catalog

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/sales-ledger/internal/application/dto"
	"github.com/jhoicas/sales-ledger/internal/application/inventory"
	"github.com/jhoicas/sales-ledger/internal/domain"
	"github.com/jhoicas/sales-ledger/internal/domain/entity"
	"github.com/jhoicas/sales-ledger/internal/domain/repository"
)

// ProductUseCase casos de uso de productos. Cost y Stock se manejan vía movimientos.
type ProductUseCase struct {
	repo   repository.ProductRepository
	ledger *inventory.Ledger
	now    func() time.Time
}

// NewProductUseCase construye el caso de uso.
func NewProductUseCase(repo repository.ProductRepository, ledger *inventory.Ledger) *ProductUseCase {
	return &ProductUseCase{repo: repo, ledger: ledger, now: time.Now}
}

// Create da de alta el producto con stock 0 y, si InitialStock > 0, registra el
// movimiento initial a nombre del actor. Si ese movimiento falla el producto queda
// creado sin stock y se devuelve el error.
func (uc *ProductUseCase) Create(ctx context.Context, businessID, actorID string, in dto.CreateProductRequest) (*dto.ProductResponse, error) {
	if err := validateProduct(in); err != nil {
		return nil, err
	}
	now := uc.now().UTC()
	product := &entity.Product{
		ID:               uuid.New().String(),
		BusinessID:       businessID,
		Name:             in.Name,
		UnitPrice:        in.UnitPrice,
		UnitCost:         in.UnitCost,
		TaxRatePercent:   in.TaxRatePercent,
		MinStockQuantity: in.MinStockQuantity,
		Active:           true,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := uc.repo.Create(ctx, product); err != nil {
		return nil, err
	}

	if in.InitialStock > 0 {
		mov, err := uc.ledger.Apply(ctx, inventory.MovementInput{
			BusinessID:    businessID,
			ProductID:     product.ID,
			ActorID:       actorID,
			Type:          entity.MovementTypeInitial,
			QuantityDelta: in.InitialStock,
			Reason:        "alta de producto",
		})
		if err != nil {
			return nil, err
		}
		product.StockQuantity = mov.StockAfter
	}
	return ToProductResponse(product), nil
}

// GetByID obtiene un producto del negocio.
func (uc *ProductUseCase) GetByID(ctx context.Context, businessID, id string) (*dto.ProductResponse, error) {
	product, err := uc.repo.GetByID(ctx, businessID, id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, &domain.NotFoundError{Entity: "producto", ID: id}
	}
	return ToProductResponse(product), nil
}

func validateProduct(in dto.CreateProductRequest) error {
	verr := &domain.ValidationError{}
	if in.Name == "" {
		verr.Fields = append(verr.Fields, domain.FieldError{Field: "name", Reason: "requerido", Missing: true})
	}
	if in.UnitPrice.IsNegative() {
		verr.Fields = append(verr.Fields, domain.FieldError{Field: "unit_price", Reason: "no puede ser negativo"})
	}
	if in.UnitCost.IsNegative() {
		verr.Fields = append(verr.Fields, domain.FieldError{Field: "unit_cost", Reason: "no puede ser negativo"})
	}
	if in.TaxRatePercent != nil && (in.TaxRatePercent.IsNegative() || in.TaxRatePercent.GreaterThan(decimal.NewFromInt(100))) {
		verr.Fields = append(verr.Fields, domain.FieldError{Field: "tax_rate_percent", Reason: "debe estar entre 0 y 100"})
	}
	if in.MinStockQuantity < 0 {
		verr.Fields = append(verr.Fields, domain.FieldError{Field: "min_stock_quantity", Reason: "no puede ser negativo"})
	}
	if in.InitialStock < 0 {
		verr.Fields = append(verr.Fields, domain.FieldError{Field: "initial_stock", Reason: "no puede ser negativo"})
	}
	if len(verr.Fields) > 0 {
		return verr
	}
	return nil
}

// ToProductResponse convierte la entidad al DTO de salida.
func ToProductResponse(p *entity.Product) *dto.ProductResponse {
	return &dto.ProductResponse{
		ID:               p.ID,
		BusinessID:       p.BusinessID,
		Name:             p.Name,
		UnitPrice:        p.UnitPrice,
		UnitCost:         p.UnitCost,
		TaxRatePercent:   p.TaxRatePercent,
		StockQuantity:    p.StockQuantity,
		MinStockQuantity: p.MinStockQuantity,
		Active:           p.Active,
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
	}
}
