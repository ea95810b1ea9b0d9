package entity

import (
	"strings"

	"github.com/jhoicas/sales-ledger/internal/domain"
)

// LineItemRequest línea solicitada ya validada. Solo se construye con NewLineItemRequest,
// así que un valor no nulo siempre tiene producto y cantidad positiva.
type LineItemRequest struct {
	productID string
	quantity  int64
}

// NewLineItemRequest valida y construye la línea.
func NewLineItemRequest(productID string, quantity int64) (LineItemRequest, error) {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return LineItemRequest{}, domain.NewMissingFieldsError("product_id")
	}
	if quantity <= 0 {
		return LineItemRequest{}, domain.NewValidationError("quantity", "debe ser mayor que cero")
	}
	return LineItemRequest{productID: productID, quantity: quantity}, nil
}

// ProductID producto solicitado.
func (l LineItemRequest) ProductID() string { return l.productID }

// Quantity unidades solicitadas (> 0).
func (l LineItemRequest) Quantity() int64 { return l.quantity }

// IsZero indica si la línea no pasó por el constructor.
func (l LineItemRequest) IsZero() bool { return l.productID == "" }
