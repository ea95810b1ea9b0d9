package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de una venta.
const (
	SaleStatusPending   = "pending"
	SaleStatusCompleted = "completed"
	SaleStatusCancelled = "cancelled"
)

// Métodos de pago aceptados.
const (
	PaymentMethodCash     = "cash"
	PaymentMethodCard     = "card"
	PaymentMethodTransfer = "transfer"
	PaymentMethodCredit   = "credit"
	PaymentMethodOther    = "other"
)

// IsValidPaymentMethod indica si m es un método de pago aceptado.
func IsValidPaymentMethod(m string) bool {
	switch m {
	case PaymentMethodCash, PaymentMethodCard, PaymentMethodTransfer, PaymentMethodCredit, PaymentMethodOther:
		return true
	}
	return false
}

// Sale cabecera de una venta. Total se calcula, nunca lo envía el llamador:
// Total = Subtotal + TaxTotal - Discount + Shipping.
type Sale struct {
	ID            string
	BusinessID    string
	CustomerID    string
	LineItemIDs   []string
	Subtotal      decimal.Decimal
	TaxTotal      decimal.Decimal
	Discount      decimal.Decimal
	Shipping      decimal.Decimal
	Total         decimal.Decimal
	Currency      string
	ExchangeRate  *decimal.Decimal
	PaymentMethod string
	Status        string
	CreatedBy     string
	CreatedAt     time.Time
	LineItems     []*SaleLineItem // cargadas junto a la venta; no se persisten en la cabecera
}

// SaleLineItem línea de una venta. Inmutable una vez completada la venta.
type SaleLineItem struct {
	ID              string
	SaleID          string
	ProductID       string
	Quantity        int64
	UnitPriceAtSale decimal.Decimal
	TaxRatePercent  decimal.Decimal
	LineTotal       decimal.Decimal
	TaxAmount       decimal.Decimal
}
