package inventory

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/jhoicas/sales-ledger/internal/application/ports"
	"github.com/jhoicas/sales-ledger/internal/domain"
	"github.com/jhoicas/sales-ledger/internal/domain/entity"
	domaininv "github.com/jhoicas/sales-ledger/internal/domain/inventory"
	"github.com/jhoicas/sales-ledger/internal/domain/repository"
	"github.com/jhoicas/sales-ledger/pkg/logger"
)

var tracer = otel.Tracer("github.com/jhoicas/sales-ledger/inventory")

// MovementInput entrada para aplicar un movimiento al ledger.
// UnitCost solo aplica a entradas por compra (recalcula el costo promedio ponderado).
type MovementInput struct {
	BusinessID    string
	ProductID     string
	ActorID       string
	Type          string
	QuantityDelta int64
	Reference     string
	Reason        string
	UnitCost      *decimal.Decimal
	// RequireActive rechaza el movimiento si el producto bloqueado está inactivo (ventas).
	RequireActive bool
}

// Applied resultado de un movimiento ya escrito (aún dentro de la tx del llamador).
type Applied struct {
	Movement *entity.InventoryMovement
	Product  *entity.Product // fila leída con bloqueo
}

// LowStock indica si el movimiento dejó el producto en o bajo su mínimo.
func (a Applied) LowStock() bool {
	return a.Movement != nil && a.Product != nil && a.Product.IsLowStock(a.Movement.StockAfter)
}

// Event construye el mensaje post-commit de stock bajo.
func (a Applied) Event() ports.LowStockEvent {
	return ports.LowStockEvent{
		BusinessID:       a.Movement.BusinessID,
		ProductID:        a.Movement.ProductID,
		StockAfter:       a.Movement.StockAfter,
		MinStockQuantity: a.Product.MinStockQuantity,
		MovementType:     a.Movement.Type,
		Reference:        a.Movement.Reference,
		OccurredAt:       a.Movement.CreatedAt,
	}
}

// Ledger es el único punto que modifica Product.StockQuantity.
// Cada escritura de stock va acompañada de su movimiento en la misma transacción.
type Ledger struct {
	txRunner   TxRunner
	notifier   ports.LowStockNotifier
	metrics    ports.Metrics
	log        *logger.Logger
	maxRetries int
	now        func() time.Time
}

// LedgerOption personaliza el Ledger.
type LedgerOption func(*Ledger)

// WithLedgerMetrics inyecta el recolector de métricas.
func WithLedgerMetrics(m ports.Metrics) LedgerOption {
	return func(l *Ledger) { l.metrics = m }
}

// WithLedgerRetries fija los reintentos ante conflictos de concurrencia en Apply.
func WithLedgerRetries(n int) LedgerOption {
	return func(l *Ledger) { l.maxRetries = n }
}

// WithClock reemplaza el reloj (tests).
func WithClock(now func() time.Time) LedgerOption {
	return func(l *Ledger) { l.now = now }
}

// NewLedger construye el ledger de inventario.
func NewLedger(txRunner TxRunner, notifier ports.LowStockNotifier, log *logger.Logger, opts ...LedgerOption) *Ledger {
	if notifier == nil {
		notifier = ports.NopNotifier{}
	}
	if log == nil {
		log = logger.Nop()
	}
	l := &Ledger{
		txRunner: txRunner,
		notifier: notifier,
		metrics:  ports.NopMetrics{},
		log:      log.Component("ledger"),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Apply ejecuta un movimiento manual (initial, adjustment, return, damage, purchase, transfer)
// en su propia transacción y, tras el commit, señala stock bajo si corresponde.
func (l *Ledger) Apply(ctx context.Context, in MovementInput) (*entity.InventoryMovement, error) {
	if err := validateMovementInput(in); err != nil {
		return nil, err
	}
	var applied Applied
	err := RetryConflicts(ctx, l.maxRetries, func() error {
		return l.txRunner.Run(ctx, func(repos repository.TxRepos) error {
			var err error
			applied, err = l.ApplyInTx(ctx, repos, in)
			return err
		})
	})
	if err != nil {
		return nil, err
	}
	l.NotifyLowStock(ctx, applied)
	return applied.Movement, nil
}

// ApplyInTx aplica el movimiento con los repositorios de la transacción del llamador:
// bloquea la fila del producto, calcula stock_after, rechaza negativos, escribe el stock
// y agrega el movimiento. No notifica; eso es responsabilidad del llamador tras el commit.
func (l *Ledger) ApplyInTx(ctx context.Context, repos repository.TxRepos, in MovementInput) (Applied, error) {
	ctx, span := tracer.Start(ctx, "inventory.Apply")
	defer span.End()
	span.SetAttributes(
		attribute.String("business.id", in.BusinessID),
		attribute.String("product.id", in.ProductID),
		attribute.String("movement.type", in.Type),
		attribute.Int64("movement.delta", in.QuantityDelta),
	)

	applied, err := l.applyInTx(ctx, repos, in)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Applied{}, err
	}
	return applied, nil
}

func (l *Ledger) applyInTx(ctx context.Context, repos repository.TxRepos, in MovementInput) (Applied, error) {
	if err := validateMovementInput(in); err != nil {
		return Applied{}, err
	}

	// Lectura con bloqueo de fila: la misma tx que hará la escritura.
	product, err := repos.Products.GetForUpdate(ctx, in.BusinessID, in.ProductID)
	if err != nil {
		return Applied{}, err
	}
	if product == nil || (in.RequireActive && !product.Active) {
		return Applied{}, &domain.NotFoundError{Entity: "producto", ID: in.ProductID}
	}

	if in.Type == entity.MovementTypeInitial {
		n, err := repos.Movements.CountByProduct(ctx, in.BusinessID, in.ProductID)
		if err != nil {
			return Applied{}, err
		}
		if n > 0 {
			return Applied{}, domain.NewValidationError("type", "el producto ya tiene movimientos; use adjustment")
		}
	}

	stockBefore := product.StockQuantity
	stockAfter, err := domaininv.NextStock(product.ID, stockBefore, in.QuantityDelta)
	if err != nil {
		return Applied{}, err
	}

	if in.Type == entity.MovementTypePurchase && in.UnitCost != nil {
		newCost := domaininv.CostCalculator(stockBefore, product.UnitCost, in.QuantityDelta, *in.UnitCost)
		if err := repos.Products.UpdateCost(ctx, in.BusinessID, product.ID, newCost); err != nil {
			return Applied{}, err
		}
	}

	if err := repos.Products.UpdateStock(ctx, in.BusinessID, product.ID, stockAfter); err != nil {
		return Applied{}, err
	}
	mov := &entity.InventoryMovement{
		ID:            uuid.New().String(),
		ProductID:     product.ID,
		BusinessID:    in.BusinessID,
		ActorID:       in.ActorID,
		Type:          in.Type,
		QuantityDelta: in.QuantityDelta,
		StockBefore:   stockBefore,
		StockAfter:    stockAfter,
		Reference:     in.Reference,
		Reason:        in.Reason,
		CreatedAt:     l.now().UTC(),
	}
	if err := repos.Movements.Create(ctx, mov); err != nil {
		return Applied{}, err
	}
	l.metrics.MovementApplied(in.Type)

	return Applied{Movement: mov, Product: product}, nil
}

// NotifyLowStock entrega al observador los movimientos que cruzaron el umbral.
// Se llama después del commit; los errores se registran y se descartan.
func (l *Ledger) NotifyLowStock(ctx context.Context, applied ...Applied) {
	for _, a := range applied {
		if !a.LowStock() {
			continue
		}
		l.metrics.LowStockSignaled()
		if err := l.notifier.Notify(context.WithoutCancel(ctx), a.Event()); err != nil {
			l.log.Warn().Err(err).
				Str("business_id", a.Movement.BusinessID).
				Str("product_id", a.Movement.ProductID).
				Int64("stock_after", a.Movement.StockAfter).
				Msg("notificación de stock bajo descartada")
		}
	}
}

func validateMovementInput(in MovementInput) error {
	var missing []string
	if strings.TrimSpace(in.BusinessID) == "" {
		missing = append(missing, "business_id")
	}
	if strings.TrimSpace(in.ProductID) == "" {
		missing = append(missing, "product_id")
	}
	if strings.TrimSpace(in.ActorID) == "" {
		missing = append(missing, "actor_id")
	}
	if len(missing) > 0 {
		return domain.NewMissingFieldsError(missing...)
	}
	if err := domaininv.ValidateDelta(in.Type, in.QuantityDelta); err != nil {
		return err
	}
	if in.UnitCost != nil && in.UnitCost.IsNegative() {
		return domain.NewValidationError("unit_cost", "no puede ser negativo")
	}
	return nil
}
