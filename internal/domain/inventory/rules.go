package inventory

import (
	"math"

	"github.com/jhoicas/sales-ledger/internal/domain"
	"github.com/jhoicas/sales-ledger/internal/domain/entity"
)

// ValidateDelta aplica las reglas de signo por tipo de movimiento:
// sale y damage solo restan; initial, purchase y return solo suman;
// adjustment y transfer aceptan cualquier signo. Un delta cero nunca es válido.
func ValidateDelta(movementType string, delta int64) error {
	if !entity.IsValidMovementType(movementType) {
		return domain.NewValidationError("type", "tipo de movimiento desconocido")
	}
	if delta == 0 {
		return domain.NewValidationError("quantity_delta", "no puede ser cero")
	}
	switch movementType {
	case entity.MovementTypeSale, entity.MovementTypeDamage:
		if delta > 0 {
			return domain.NewValidationError("quantity_delta", "debe ser negativo para "+movementType)
		}
	case entity.MovementTypeInitial, entity.MovementTypePurchase, entity.MovementTypeReturn:
		if delta < 0 {
			return domain.NewValidationError("quantity_delta", "debe ser positivo para "+movementType)
		}
	}
	return nil
}

// NextStock calcula el stock resultante y rechaza cualquier resultado negativo.
// Un delta que desborda int64 es entrada inválida, no falta de stock.
func NextStock(productID string, stockBefore, delta int64) (int64, error) {
	if delta == math.MinInt64 || (delta > 0 && stockBefore > math.MaxInt64-delta) {
		return stockBefore, domain.NewValidationError("quantity_delta", "fuera de rango")
	}
	after := stockBefore + delta
	if after < 0 {
		return stockBefore, &domain.InsufficientStockError{
			ProductID: productID,
			Requested: -delta,
			Available: stockBefore,
		}
	}
	return after, nil
}
