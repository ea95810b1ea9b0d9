package sales

import (
	"context"

	"github.com/jhoicas/sales-ledger/internal/application/dto"
	"github.com/jhoicas/sales-ledger/internal/domain"
	"github.com/jhoicas/sales-ledger/internal/domain/entity"
)

// GetSale obtiene una venta del negocio con su detalle completo.
func (p *SaleTransactionProcessor) GetSale(ctx context.Context, businessID, id string) (*entity.Sale, error) {
	sale, err := p.saleRepo.GetByID(ctx, businessID, id)
	if err != nil {
		return nil, err
	}
	if sale == nil {
		return nil, &domain.NotFoundError{Entity: "venta", ID: id}
	}
	items, err := p.saleRepo.ListLineItems(ctx, sale.ID)
	if err != nil {
		return nil, err
	}
	sale.LineItems = items
	sale.LineItemIDs = sale.LineItemIDs[:0]
	for _, it := range items {
		sale.LineItemIDs = append(sale.LineItemIDs, it.ID)
	}
	return sale, nil
}

// ToResponse convierte la venta al DTO de salida.
func ToResponse(s *entity.Sale) *dto.SaleResponse {
	resp := &dto.SaleResponse{
		ID:            s.ID,
		BusinessID:    s.BusinessID,
		CustomerID:    s.CustomerID,
		Subtotal:      s.Subtotal,
		TaxTotal:      s.TaxTotal,
		Discount:      s.Discount,
		Shipping:      s.Shipping,
		Total:         s.Total,
		Currency:      s.Currency,
		ExchangeRate:  s.ExchangeRate,
		PaymentMethod: s.PaymentMethod,
		Status:        s.Status,
		CreatedBy:     s.CreatedBy,
		CreatedAt:     s.CreatedAt,
		Items:         make([]dto.SaleLineItemResponse, 0, len(s.LineItems)),
	}
	for _, it := range s.LineItems {
		resp.Items = append(resp.Items, dto.SaleLineItemResponse{
			ID:              it.ID,
			ProductID:       it.ProductID,
			Quantity:        it.Quantity,
			UnitPriceAtSale: it.UnitPriceAtSale,
			TaxRatePercent:  it.TaxRatePercent,
			LineTotal:       it.LineTotal,
			TaxAmount:       it.TaxAmount,
		})
	}
	return resp
}
