package sales

import (
	"context"
	"errors"

	"github.com/jhoicas/sales-ledger/internal/application/dto"
	"github.com/jhoicas/sales-ledger/internal/domain"
	"github.com/jhoicas/sales-ledger/internal/domain/entity"
)

// PostSaleFromRequest construye los value objects de línea a partir del body HTTP
// y delega en PostSale. businessID y actorID vienen del resolvedor de sesión.
func (p *SaleTransactionProcessor) PostSaleFromRequest(ctx context.Context, businessID, actorID string, in dto.PostSaleRequest) (*dto.SaleResponse, error) {
	items, err := BuildLineItems(in.Items)
	if err != nil {
		return nil, err
	}
	sale, err := p.PostSale(ctx, PostSaleInput{
		BusinessID:    businessID,
		ActorID:       actorID,
		CustomerID:    in.CustomerID,
		LineItems:     items,
		PaymentMethod: in.PaymentMethod,
		Currency:      in.Currency,
		ExchangeRate:  in.ExchangeRate,
		Discount:      in.Discount,
		Shipping:      in.Shipping,
	})
	if err != nil {
		return nil, err
	}
	return ToResponse(sale), nil
}

// BuildLineItems valida cada línea y acumula todos los errores en un solo ValidationError.
func BuildLineItems(reqs []dto.SaleItemRequest) ([]entity.LineItemRequest, error) {
	if len(reqs) == 0 {
		return nil, domain.NewMissingFieldsError("items")
	}
	items := make([]entity.LineItemRequest, 0, len(reqs))
	verr := &domain.ValidationError{}
	for _, r := range reqs {
		li, err := entity.NewLineItemRequest(r.ProductID, r.Quantity)
		if err != nil {
			var fe *domain.ValidationError
			if errors.As(err, &fe) {
				verr.Fields = append(verr.Fields, fe.Fields...)
				continue
			}
			return nil, err
		}
		items = append(items, li)
	}
	if len(verr.Fields) > 0 {
		return nil, verr
	}
	return items, nil
}
