package sales

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/sales-ledger/internal/domain/entity"
)

var hundred = decimal.NewFromInt(100)

// TaxPolicy resuelve la tasa de impuesto de cada producto.
// La tasa por defecto viene de configuración y se resuelve una vez por producto.
type TaxPolicy struct {
	DefaultRatePercent decimal.Decimal
}

// RateFor devuelve la tasa explícita del producto o la tasa por defecto.
func (p TaxPolicy) RateFor(product *entity.Product) decimal.Decimal {
	if product != nil && product.TaxRatePercent != nil {
		return *product.TaxRatePercent
	}
	return p.DefaultRatePercent
}

// PricedLine línea con precio y tasa ya resueltos.
type PricedLine struct {
	UnitPrice      decimal.Decimal
	Quantity       int64
	TaxRatePercent decimal.Decimal
}

// LineAmounts importes calculados para una línea.
type LineAmounts struct {
	LineTotal decimal.Decimal
	Tax       decimal.Decimal
}

// Totals resultado del cálculo de una venta.
type Totals struct {
	Lines    []LineAmounts
	Subtotal decimal.Decimal
	TaxTotal decimal.Decimal
	Discount decimal.Decimal
	Shipping decimal.Decimal
	Total    decimal.Decimal
}

// ComputeTotals calcula los importes de la venta. Es determinista y sin efectos:
//
//	lineTotal_i = unitPrice_i * quantity_i
//	tax_i       = lineTotal_i * taxRatePercent_i / 100
//	total       = subtotal + taxTotal - discount + shipping
func ComputeTotals(lines []PricedLine, discount, shipping decimal.Decimal) Totals {
	t := Totals{
		Lines:    make([]LineAmounts, 0, len(lines)),
		Subtotal: decimal.Zero,
		TaxTotal: decimal.Zero,
		Discount: discount,
		Shipping: shipping,
	}
	for _, l := range lines {
		lineTotal := l.UnitPrice.Mul(decimal.NewFromInt(l.Quantity))
		tax := lineTotal.Mul(l.TaxRatePercent).Div(hundred)
		t.Lines = append(t.Lines, LineAmounts{LineTotal: lineTotal, Tax: tax})
		t.Subtotal = t.Subtotal.Add(lineTotal)
		t.TaxTotal = t.TaxTotal.Add(tax)
	}
	t.Total = t.Subtotal.Add(t.TaxTotal).Sub(discount).Add(shipping)
	return t
}
