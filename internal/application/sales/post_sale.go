package sales

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/jhoicas/sales-ledger/internal/application/inventory"
	"github.com/jhoicas/sales-ledger/internal/application/ports"
	"github.com/jhoicas/sales-ledger/internal/domain"
	"github.com/jhoicas/sales-ledger/internal/domain/entity"
	"github.com/jhoicas/sales-ledger/internal/domain/repository"
	domainsales "github.com/jhoicas/sales-ledger/internal/domain/sales"
	"github.com/jhoicas/sales-ledger/pkg/logger"
)

var tracer = otel.Tracer("github.com/jhoicas/sales-ledger/sales")

// Config parámetros de despliegue del procesador de ventas.
type Config struct {
	TaxPolicy       domainsales.TaxPolicy
	DefaultCurrency string
	Timeout         time.Duration // 0 = sin timeout propio
	MaxRetries      int           // reintentos ante ConcurrencyConflictError
}

// PostSaleInput entrada de PostSale. Las líneas ya vienen validadas como value objects.
type PostSaleInput struct {
	BusinessID    string
	ActorID       string
	CustomerID    string
	LineItems     []entity.LineItemRequest
	PaymentMethod string
	Currency      string
	ExchangeRate  *decimal.Decimal
	Discount      *decimal.Decimal
	Shipping      *decimal.Decimal
}

// SaleTransactionProcessor convierte una venta propuesta en registros durables y consistentes:
// venta, líneas, stock decrementado y movimientos del ledger, todo en una sola transacción.
type SaleTransactionProcessor struct {
	txRunner     inventory.TxRunner
	ledger       *inventory.Ledger
	customerRepo repository.CustomerRepository
	productRepo  repository.ProductRepository
	saleRepo     repository.SaleRepository
	metrics      ports.Metrics
	log          *logger.Logger
	cfg          Config
	now          func() time.Time
}

// Option personaliza el procesador.
type Option func(*SaleTransactionProcessor)

// WithMetrics inyecta el recolector de métricas.
func WithMetrics(m ports.Metrics) Option {
	return func(p *SaleTransactionProcessor) { p.metrics = m }
}

// WithClock reemplaza el reloj (tests).
func WithClock(now func() time.Time) Option {
	return func(p *SaleTransactionProcessor) { p.now = now }
}

// NewSaleTransactionProcessor construye el procesador.
// customerRepo, productRepo y saleRepo son lecturas fuera de la transacción (pool).
func NewSaleTransactionProcessor(
	txRunner inventory.TxRunner,
	ledger *inventory.Ledger,
	customerRepo repository.CustomerRepository,
	productRepo repository.ProductRepository,
	saleRepo repository.SaleRepository,
	cfg Config,
	log *logger.Logger,
	opts ...Option,
) *SaleTransactionProcessor {
	if log == nil {
		log = logger.Nop()
	}
	if cfg.DefaultCurrency == "" {
		cfg.DefaultCurrency = "MXN"
	}
	p := &SaleTransactionProcessor{
		txRunner:     txRunner,
		ledger:       ledger,
		customerRepo: customerRepo,
		productRepo:  productRepo,
		saleRepo:     saleRepo,
		metrics:      ports.NopMetrics{},
		log:          log.Component("sales"),
		cfg:          cfg,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// PostSale valida la venta, calcula totales y ejecuta el protocolo de commit:
//  1. por cada línea, el ledger descuenta stock (type=sale, reference=<sale id>)
//  2. persiste la venta (completed) y sus líneas
//  3. commit
//
// Cualquier fallo dentro de la unidad hace rollback completo. Tras el commit se
// señalan los productos que quedaron en o bajo su mínimo; esos errores no se propagan.
func (p *SaleTransactionProcessor) PostSale(ctx context.Context, in PostSaleInput) (*entity.Sale, error) {
	started := p.now()
	ctx, span := tracer.Start(ctx, "sales.PostSale")
	defer span.End()
	span.SetAttributes(
		attribute.String("business.id", in.BusinessID),
		attribute.String("customer.id", in.CustomerID),
		attribute.Int("sale.lines", len(in.LineItems)),
	)

	sale, applied, err := p.postSale(ctx, in)
	if err != nil {
		reason := rejectReason(err)
		p.metrics.SaleRejected(reason)
		span.RecordError(err)
		span.SetStatus(codes.Error, reason)
		ev := p.log.Info()
		if reason == "storage" || reason == "other" {
			ev = p.log.Error()
		}
		ev.Err(err).
			Str("business_id", in.BusinessID).
			Str("customer_id", in.CustomerID).
			Str("reason", reason).
			Msg("venta rechazada")
		return nil, err
	}

	p.metrics.SalePosted(p.now().Sub(started))
	span.SetAttributes(attribute.String("sale.id", sale.ID), attribute.String("sale.total", sale.Total.String()))
	p.log.Info().
		Str("business_id", sale.BusinessID).
		Str("sale_id", sale.ID).
		Str("total", sale.Total.StringFixed(2)).
		Int("lines", len(sale.LineItems)).
		Msg("venta registrada")

	p.ledger.NotifyLowStock(ctx, lastPerProduct(applied)...)
	return sale, nil
}

func (p *SaleTransactionProcessor) postSale(ctx context.Context, in PostSaleInput) (*entity.Sale, []inventory.Applied, error) {
	if p.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.Timeout)
		defer cancel()
	}

	// 1) Validaciones de entrada (sin efectos)
	currency, err := p.validateInput(&in)
	if err != nil {
		return nil, nil, err
	}

	// 2) Cliente: existe, es del negocio y tiene los datos mínimos para vender
	customer, err := p.customerRepo.GetByID(ctx, in.BusinessID, in.CustomerID)
	if err != nil {
		return nil, nil, asStorageTimeout(err)
	}
	if customer == nil {
		return nil, nil, &domain.NotFoundError{Entity: "cliente", ID: in.CustomerID}
	}
	if err := validateCustomerForSale(customer); err != nil {
		return nil, nil, err
	}

	// 3) Productos: existen, son del negocio y están activos (lectura fuera de la tx).
	// Activo se vuelve a comprobar sobre la fila bloqueada.
	productsByID := make(map[string]*entity.Product, len(in.LineItems))
	requested := make(map[string]int64, len(in.LineItems))
	for i, li := range in.LineItems {
		total := requested[li.ProductID()] + li.Quantity()
		if total < requested[li.ProductID()] {
			return nil, nil, domain.NewValidationError(fmt.Sprintf("items[%d].quantity", i), "la cantidad acumulada del producto excede el máximo")
		}
		requested[li.ProductID()] = total
		if _, ok := productsByID[li.ProductID()]; ok {
			continue
		}
		product, err := p.productRepo.GetByID(ctx, in.BusinessID, li.ProductID())
		if err != nil {
			return nil, nil, asStorageTimeout(err)
		}
		if product == nil || !product.Active {
			return nil, nil, &domain.NotFoundError{Entity: "producto", ID: li.ProductID()}
		}
		productsByID[li.ProductID()] = product
	}

	// 4) Totales (deterministas)
	priced := make([]domainsales.PricedLine, len(in.LineItems))
	for i, li := range in.LineItems {
		product := productsByID[li.ProductID()]
		priced[i] = domainsales.PricedLine{
			UnitPrice:      product.UnitPrice,
			Quantity:       li.Quantity(),
			TaxRatePercent: p.cfg.TaxPolicy.RateFor(product),
		}
	}
	discount := valueOrZero(in.Discount)
	shipping := valueOrZero(in.Shipping)
	totals := domainsales.ComputeTotals(priced, discount, shipping)
	if totals.Total.IsNegative() {
		return nil, nil, domain.NewValidationError("discount", "el descuento excede el total de la venta")
	}

	now := p.now().UTC()
	sale := &entity.Sale{
		ID:            uuid.New().String(),
		BusinessID:    in.BusinessID,
		CustomerID:    in.CustomerID,
		Subtotal:      totals.Subtotal,
		TaxTotal:      totals.TaxTotal,
		Discount:      totals.Discount,
		Shipping:      totals.Shipping,
		Total:         totals.Total,
		Currency:      currency,
		ExchangeRate:  in.ExchangeRate,
		PaymentMethod: in.PaymentMethod,
		Status:        entity.SaleStatusCompleted,
		CreatedBy:     in.ActorID,
		CreatedAt:     now,
	}
	for i, li := range in.LineItems {
		item := &entity.SaleLineItem{
			ID:              uuid.New().String(),
			SaleID:          sale.ID,
			ProductID:       li.ProductID(),
			Quantity:        li.Quantity(),
			UnitPriceAtSale: priced[i].UnitPrice,
			TaxRatePercent:  priced[i].TaxRatePercent,
			LineTotal:       totals.Lines[i].LineTotal,
			TaxAmount:       totals.Lines[i].Tax,
		}
		sale.LineItems = append(sale.LineItems, item)
		sale.LineItemIDs = append(sale.LineItemIDs, item.ID)
	}

	// Las filas se bloquean en orden ascendente de producto para que dos ventas
	// concurrentes sobre los mismos productos no se bloqueen mutuamente.
	lockOrder := make([]int, len(sale.LineItems))
	for i := range lockOrder {
		lockOrder[i] = i
	}
	sort.SliceStable(lockOrder, func(a, b int) bool {
		return sale.LineItems[lockOrder[a]].ProductID < sale.LineItems[lockOrder[b]].ProductID
	})

	// 5) Unidad atómica
	var applied []inventory.Applied
	err = inventory.RetryConflicts(ctx, p.cfg.MaxRetries, func() error {
		applied = applied[:0]
		return p.txRunner.Run(ctx, func(repos repository.TxRepos) error {
			// Stock previo a la venta por producto, para reportar el faltante sobre el total pedido.
			stockAtStart := make(map[string]int64, len(productsByID))
			for _, idx := range lockOrder {
				item := sale.LineItems[idx]
				a, err := p.ledger.ApplyInTx(ctx, repos, inventory.MovementInput{
					BusinessID:    in.BusinessID,
					ProductID:     item.ProductID,
					ActorID:       in.ActorID,
					Type:          entity.MovementTypeSale,
					QuantityDelta: -item.Quantity,
					Reference:     sale.ID,
					Reason:        "venta",
					RequireActive: true,
				})
				if err != nil {
					return insufficientForSale(err, requested, stockAtStart)
				}
				if _, ok := stockAtStart[item.ProductID]; !ok {
					stockAtStart[item.ProductID] = a.Movement.StockBefore
				}
				applied = append(applied, a)
			}
			if err := repos.Sales.Create(ctx, sale); err != nil {
				return err
			}
			for _, item := range sale.LineItems {
				if err := repos.Sales.CreateLineItem(ctx, item); err != nil {
					return err
				}
			}
			return nil
		})
	})
	if err != nil {
		return nil, nil, asStorageTimeout(err)
	}
	return sale, applied, nil
}

func (p *SaleTransactionProcessor) validateInput(in *PostSaleInput) (string, error) {
	var missing []string
	if strings.TrimSpace(in.BusinessID) == "" {
		missing = append(missing, "business_id")
	}
	if strings.TrimSpace(in.ActorID) == "" {
		missing = append(missing, "actor_id")
	}
	if strings.TrimSpace(in.CustomerID) == "" {
		missing = append(missing, "customer_id")
	}
	if strings.TrimSpace(in.PaymentMethod) == "" {
		missing = append(missing, "payment_method")
	}
	verr := domain.NewMissingFieldsError(missing...)

	if len(in.LineItems) == 0 {
		verr.Fields = append(verr.Fields, domain.FieldError{Field: "items", Reason: "al menos una línea", Missing: true})
	}
	for _, li := range in.LineItems {
		if li.IsZero() || li.Quantity() <= 0 {
			verr.Fields = append(verr.Fields, domain.FieldError{Field: "items", Reason: "línea inválida"})
			break
		}
	}
	if in.PaymentMethod != "" && !entity.IsValidPaymentMethod(in.PaymentMethod) {
		verr.Fields = append(verr.Fields, domain.FieldError{Field: "payment_method", Reason: "método de pago no soportado"})
	}

	currency := strings.ToUpper(strings.TrimSpace(in.Currency))
	if currency == "" {
		currency = p.cfg.DefaultCurrency
	}
	if !isCurrencyCode(currency) {
		verr.Fields = append(verr.Fields, domain.FieldError{Field: "currency", Reason: "código ISO 4217 de 3 letras"})
	}
	if in.ExchangeRate != nil && !in.ExchangeRate.IsPositive() {
		verr.Fields = append(verr.Fields, domain.FieldError{Field: "exchange_rate", Reason: "debe ser mayor que cero"})
	}
	if in.Discount != nil && in.Discount.IsNegative() {
		verr.Fields = append(verr.Fields, domain.FieldError{Field: "discount", Reason: "no puede ser negativo"})
	}
	if in.Shipping != nil && in.Shipping.IsNegative() {
		verr.Fields = append(verr.Fields, domain.FieldError{Field: "shipping", Reason: "no puede ser negativo"})
	}

	if len(verr.Fields) > 0 {
		return "", verr
	}
	return currency, nil
}

// validateCustomerForSale exige nombre, documento y teléfono al momento de vender.
func validateCustomerForSale(c *entity.Customer) error {
	var missing []string
	if strings.TrimSpace(c.Name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(c.PrimaryDocumentID) == "" {
		missing = append(missing, "document_id")
	}
	if strings.TrimSpace(c.Phone) == "" {
		missing = append(missing, "phone")
	}
	if len(missing) > 0 {
		return domain.NewMissingFieldsError(missing...)
	}
	return nil
}

func isCurrencyCode(s string) bool {
	if len(s) != 3 {
		return false
	}
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

func valueOrZero(d *decimal.Decimal) decimal.Decimal {
	if d == nil {
		return decimal.Zero
	}
	return *d
}

// asStorageTimeout convierte un timeout o cancelación sin clasificar en StorageError.
func asStorageTimeout(err error) error {
	if err == nil || errors.Is(err, domain.ErrStorage) || errors.Is(err, domain.ErrConflict) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return &domain.StorageError{Op: "post_sale", Err: err}
	}
	return err
}

// lastPerProduct conserva solo el último movimiento por producto (stock final de la venta).
// insufficientForSale reescribe el rechazo por stock con la cantidad total pedida del
// producto y su stock antes de la venta, no con los de la línea que falló.
func insufficientForSale(err error, requested, stockAtStart map[string]int64) error {
	var stockErr *domain.InsufficientStockError
	if !errors.As(err, &stockErr) {
		return err
	}
	available := stockErr.Available
	if before, ok := stockAtStart[stockErr.ProductID]; ok {
		available = before
	}
	return &domain.InsufficientStockError{
		ProductID: stockErr.ProductID,
		Requested: requested[stockErr.ProductID],
		Available: available,
	}
}

func lastPerProduct(applied []inventory.Applied) []inventory.Applied {
	idx := make(map[string]int, len(applied))
	out := make([]inventory.Applied, 0, len(applied))
	for _, a := range applied {
		if i, ok := idx[a.Movement.ProductID]; ok {
			out[i] = a
			continue
		}
		idx[a.Movement.ProductID] = len(out)
		out = append(out, a)
	}
	return out
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return "validation"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, domain.ErrConflict):
		return "conflict"
	case errors.Is(err, domain.ErrStorage):
		return "storage"
	default:
		return "other"
	}
}
