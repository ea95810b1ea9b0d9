package entity

import "time"

// Tipos de movimiento de inventario.
const (
	MovementTypeInitial    = "initial"    // stock inicial
	MovementTypeSale       = "sale"       // salida por venta
	MovementTypeAdjustment = "adjustment" // ajuste manual (+/-)
	MovementTypeTransfer   = "transfer"   // traslado
	MovementTypeReturn     = "return"     // devolución de cliente
	MovementTypeDamage     = "damage"     // merma
	MovementTypePurchase   = "purchase"   // entrada por compra
)

// MovementTypes lista los tipos válidos.
var MovementTypes = []string{
	MovementTypeInitial, MovementTypeSale, MovementTypeAdjustment, MovementTypeTransfer,
	MovementTypeReturn, MovementTypeDamage, MovementTypePurchase,
}

// IsValidMovementType indica si t es un tipo de movimiento conocido.
func IsValidMovementType(t string) bool {
	for _, mt := range MovementTypes {
		if mt == t {
			return true
		}
	}
	return false
}

// InventoryMovement entrada inmutable del ledger. Nunca se actualiza ni se borra.
// Invariante: StockAfter == StockBefore + QuantityDelta.
type InventoryMovement struct {
	ID            string
	ProductID     string
	BusinessID    string
	ActorID       string
	Type          string
	QuantityDelta int64 // positivo entrada, negativo salida
	StockBefore   int64
	StockAfter    int64
	Reference     string // ej. ID de la venta
	Reason        string
	CreatedAt     time.Time
}
