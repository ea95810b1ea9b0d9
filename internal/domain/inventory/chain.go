package inventory

import (
	"fmt"

	"github.com/jhoicas/sales-ledger/internal/domain/entity"
)

// VerifyChain comprueba la cadena de movimientos de un producto ordenada por creación:
// cada entrada cumple StockAfter == StockBefore + QuantityDelta y su StockBefore
// coincide con el StockAfter de la anterior.
func VerifyChain(movements []*entity.InventoryMovement) error {
	for i, m := range movements {
		if m.StockAfter != m.StockBefore+m.QuantityDelta {
			return fmt.Errorf("movimiento %s: stock_after %d != %d + %d", m.ID, m.StockAfter, m.StockBefore, m.QuantityDelta)
		}
		if m.StockAfter < 0 {
			return fmt.Errorf("movimiento %s: stock negativo %d", m.ID, m.StockAfter)
		}
		if i == 0 {
			continue
		}
		prev := movements[i-1]
		if prev.ProductID != m.ProductID {
			return fmt.Errorf("movimiento %s: producto %s distinto de %s", m.ID, m.ProductID, prev.ProductID)
		}
		if m.StockBefore != prev.StockAfter {
			return fmt.Errorf("movimiento %s: stock_before %d no encadena con %d", m.ID, m.StockBefore, prev.StockAfter)
		}
	}
	return nil
}
