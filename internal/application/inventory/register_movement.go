package inventory

import (
	"context"

	"github.com/jhoicas/sales-ledger/internal/application/dto"
	"github.com/jhoicas/sales-ledger/internal/domain/entity"
)

// RegisterMovementFromRequest adapta el request HTTP a Ledger.Apply(ctx, MovementInput).
// businessID y actorID llegan del resolvedor de sesión y se consideran ya autorizados.
func (l *Ledger) RegisterMovementFromRequest(ctx context.Context, businessID, actorID string, in dto.RegisterMovementRequest) (*dto.MovementResponse, error) {
	input := MovementInput{
		BusinessID:    businessID,
		ProductID:     in.ProductID,
		ActorID:       actorID,
		Type:          in.Type,
		QuantityDelta: in.QuantityDelta,
		Reference:     in.Reference,
		Reason:        in.Reason,
		UnitCost:      in.UnitCost,
	}
	mov, err := l.Apply(ctx, input)
	if err != nil {
		return nil, err
	}
	resp := ToMovementResponse(mov)
	return &resp, nil
}

// ToMovementResponse convierte la entidad al DTO de salida.
func ToMovementResponse(m *entity.InventoryMovement) dto.MovementResponse {
	return dto.MovementResponse{
		ID:            m.ID,
		ProductID:     m.ProductID,
		ActorID:       m.ActorID,
		Type:          m.Type,
		QuantityDelta: m.QuantityDelta,
		StockBefore:   m.StockBefore,
		StockAfter:    m.StockAfter,
		Reference:     m.Reference,
		Reason:        m.Reason,
		CreatedAt:     m.CreatedAt,
	}
}
