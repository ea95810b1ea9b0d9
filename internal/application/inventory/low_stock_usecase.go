package inventory

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/sales-ledger/internal/application/dto"
	"github.com/jhoicas/sales-ledger/internal/domain/repository"
)

// LowStockUseCase genera la lista de reposición: productos en o bajo su stock mínimo.
type LowStockUseCase struct {
	productRepo repository.ProductRepository
}

// NewLowStockUseCase construye el caso de uso.
func NewLowStockUseCase(productRepo repository.ProductRepository) *LowStockUseCase {
	return &LowStockUseCase{productRepo: productRepo}
}

// List devuelve los productos bajo mínimo con la cantidad sugerida de pedido,
// ordenados por mayor déficit relativo primero.
func (uc *LowStockUseCase) List(ctx context.Context, businessID string, page dto.PageRequest) ([]dto.LowStockItemDTO, error) {
	page.DefaultPage()
	products, err := uc.productRepo.ListLowStock(ctx, businessID, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	items := make([]dto.LowStockItemDTO, 0, len(products))
	for _, p := range products {
		// Stock ideal = mínimo * 1.5 (redondeo hacia arriba)
		ideal := (p.MinStockQuantity*3 + 1) / 2
		suggested := ideal - p.StockQuantity
		if suggested < 0 {
			suggested = 0
		}
		items = append(items, dto.LowStockItemDTO{
			ProductID:         p.ID,
			ProductName:       p.Name,
			StockQuantity:     p.StockQuantity,
			MinStockQuantity:  p.MinStockQuantity,
			IdealStock:        ideal,
			SuggestedOrderQty: suggested,
			UnitCost:          p.UnitCost,
			EstimatedCost:     p.UnitCost.Mul(decimal.NewFromInt(suggested)),
		})
	}

	sort.SliceStable(items, func(i, j int) bool {
		return deficitRatio(items[i]) > deficitRatio(items[j])
	})
	for i := range items {
		items[i].Priority = i + 1
	}
	return items, nil
}

func deficitRatio(it dto.LowStockItemDTO) float64 {
	if it.MinStockQuantity <= 0 {
		return 0
	}
	return float64(it.MinStockQuantity-it.StockQuantity) / float64(it.MinStockQuantity)
}
