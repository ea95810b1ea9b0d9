package inventory

import (
	"context"

	"github.com/jhoicas/sales-ledger/internal/application/dto"
	"github.com/jhoicas/sales-ledger/internal/domain"
	domaininv "github.com/jhoicas/sales-ledger/internal/domain/inventory"
	"github.com/jhoicas/sales-ledger/internal/domain/repository"
)

// MovementHistoryUseCase consulta la cadena de movimientos de un producto (solo lectura).
type MovementHistoryUseCase struct {
	productRepo  repository.ProductRepository
	movementRepo repository.InventoryMovementRepository
}

// NewMovementHistoryUseCase construye el caso de uso.
func NewMovementHistoryUseCase(productRepo repository.ProductRepository, movementRepo repository.InventoryMovementRepository) *MovementHistoryUseCase {
	return &MovementHistoryUseCase{productRepo: productRepo, movementRepo: movementRepo}
}

// ListByProduct devuelve la página pedida del ledger y si la cadena de esa página es consistente.
func (uc *MovementHistoryUseCase) ListByProduct(ctx context.Context, businessID, productID string, page dto.PageRequest) (*dto.MovementHistoryResponse, error) {
	page.DefaultPage()
	product, err := uc.productRepo.GetByID(ctx, businessID, productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, &domain.NotFoundError{Entity: "producto", ID: productID}
	}
	movs, err := uc.movementRepo.ListByProduct(ctx, businessID, productID, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	total, err := uc.movementRepo.CountByProduct(ctx, businessID, productID)
	if err != nil {
		return nil, err
	}
	resp := &dto.MovementHistoryResponse{
		ProductID:  productID,
		Movements:  make([]dto.MovementResponse, 0, len(movs)),
		ChainValid: true,
		Page:       dto.PageResponse{Limit: page.Limit, Offset: page.Offset, Total: total},
	}
	for _, m := range movs {
		resp.Movements = append(resp.Movements, ToMovementResponse(m))
	}
	if err := domaininv.VerifyChain(movs); err != nil {
		resp.ChainValid = false
		resp.ChainError = err.Error()
	}
	return resp, nil
}
