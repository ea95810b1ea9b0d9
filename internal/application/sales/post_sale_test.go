package sales_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/sales-ledger/internal/application/dto"
	"github.com/jhoicas/sales-ledger/internal/application/inventory"
	"github.com/jhoicas/sales-ledger/internal/application/ports"
	"github.com/jhoicas/sales-ledger/internal/application/sales"
	"github.com/jhoicas/sales-ledger/internal/domain"
	"github.com/jhoicas/sales-ledger/internal/domain/entity"
	domainsales "github.com/jhoicas/sales-ledger/internal/domain/sales"
	"github.com/jhoicas/sales-ledger/internal/infrastructure/memory"
	"github.com/jhoicas/sales-ledger/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

const (
	testBusinessID = "biz-1"
	testActorID    = "cajero-1"
	testCustomerID = "cli-1"
)

type recordingNotifier struct {
	mu     sync.Mutex
	events []ports.LowStockEvent
	err    error
}

func (n *recordingNotifier) Notify(_ context.Context, ev ports.LowStockEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, ev)
	return n.err
}

func (n *recordingNotifier) Events() []ports.LowStockEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]ports.LowStockEvent(nil), n.events...)
}

type fixture struct {
	store     *memory.Store
	notifier  *recordingNotifier
	processor *sales.SaleTransactionProcessor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	store.PutCustomer(&entity.Customer{
		ID:                testCustomerID,
		BusinessID:        testBusinessID,
		Name:              "Ana López",
		PrimaryDocumentID: "LOAA800101XXX",
		Phone:             "5512345678",
	})
	n := &recordingNotifier{}
	ledger := inventory.NewLedger(store, n, logger.Nop())
	cfg := sales.Config{
		TaxPolicy:       domainsales.TaxPolicy{DefaultRatePercent: decimal.NewFromInt(16)},
		DefaultCurrency: "MXN",
		MaxRetries:      2,
	}
	proc := sales.NewSaleTransactionProcessor(store, ledger, store.Customers(), store.Products(), store.Sales(), cfg, logger.Nop())
	return &fixture{store: store, notifier: n, processor: proc}
}

func (f *fixture) product(id string, stock, min int64) {
	f.store.PutProduct(&entity.Product{
		ID:               id,
		BusinessID:       testBusinessID,
		Name:             "Producto " + id,
		UnitPrice:        decimal.NewFromInt(10),
		StockQuantity:    stock,
		MinStockQuantity: min,
		Active:           true,
	})
}

func (f *fixture) stock(t *testing.T, id string) int64 {
	t.Helper()
	p, ok := f.store.Product(id)
	require.True(t, ok)
	return p.StockQuantity
}

func line(t *testing.T, productID string, qty int64) entity.LineItemRequest {
	t.Helper()
	li, err := entity.NewLineItemRequest(productID, qty)
	require.NoError(t, err)
	return li
}

func input(lines ...entity.LineItemRequest) sales.PostSaleInput {
	return sales.PostSaleInput{
		BusinessID:    testBusinessID,
		ActorID:       testActorID,
		CustomerID:    testCustomerID,
		LineItems:     lines,
		PaymentMethod: entity.PaymentMethodCash,
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Escenarios base
// ──────────────────────────────────────────────────────────────────────────────

func TestPostSale_VentaSimpleSinStockBajo(t *testing.T) {
	f := newFixture(t)
	f.product("P1", 10, 5)

	sale, err := f.processor.PostSale(context.Background(), input(line(t, "P1", 3)))
	require.NoError(t, err)

	assert.True(t, decimal.NewFromInt(30).Equal(sale.Subtotal), "subtotal %s", sale.Subtotal)
	assert.True(t, decimal.RequireFromString("4.8").Equal(sale.TaxTotal), "tax %s", sale.TaxTotal)
	assert.True(t, decimal.RequireFromString("34.8").Equal(sale.Total), "total %s", sale.Total)
	assert.Equal(t, entity.SaleStatusCompleted, sale.Status)
	assert.Equal(t, "MXN", sale.Currency)
	require.Len(t, sale.LineItems, 1)
	assert.Equal(t, sale.LineItems[0].ID, sale.LineItemIDs[0])

	assert.Equal(t, int64(7), f.stock(t, "P1"))
	movs := f.store.MovementsOf("P1")
	require.Len(t, movs, 1)
	assert.Equal(t, int64(-3), movs[0].QuantityDelta)
	assert.Equal(t, int64(10), movs[0].StockBefore)
	assert.Equal(t, int64(7), movs[0].StockAfter)
	assert.Equal(t, entity.MovementTypeSale, movs[0].Type)
	assert.Equal(t, sale.ID, movs[0].Reference)
	assert.Equal(t, testActorID, movs[0].ActorID)

	assert.Empty(t, f.notifier.Events(), "7 > 5 no es stock bajo")
}

func TestPostSale_StockBajoNotificaAlObservador(t *testing.T) {
	f := newFixture(t)
	f.product("P1", 7, 5)

	_, err := f.processor.PostSale(context.Background(), input(line(t, "P1", 6)))
	require.NoError(t, err)

	events := f.notifier.Events()
	require.Len(t, events, 1)
	assert.Equal(t, "P1", events[0].ProductID)
	assert.Equal(t, int64(1), events[0].StockAfter)
	assert.Equal(t, int64(5), events[0].MinStockQuantity)
	assert.Equal(t, testBusinessID, events[0].BusinessID)
}

func TestPostSale_StockInsuficienteNoCreaVenta(t *testing.T) {
	f := newFixture(t)
	f.product("P1", 2, 0)

	_, err := f.processor.PostSale(context.Background(), input(line(t, "P1", 5)))

	var stockErr *domain.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, "P1", stockErr.ProductID)
	assert.Equal(t, int64(5), stockErr.Requested)
	assert.Equal(t, int64(2), stockErr.Available)

	assert.Equal(t, int64(2), f.stock(t, "P1"))
	assert.Zero(t, f.store.SaleCount())
	assert.Empty(t, f.store.MovementsOf("P1"))
}

func TestPostSale_ClienteSinTelefonoEsValidacion(t *testing.T) {
	f := newFixture(t)
	f.product("P1", 10, 0)
	f.store.PutCustomer(&entity.Customer{
		ID:                "cli-sin-tel",
		BusinessID:        testBusinessID,
		Name:              "Luis Pérez",
		PrimaryDocumentID: "PELL900101XXX",
	})
	in := input(line(t, "P1", 1))
	in.CustomerID = "cli-sin-tel"

	_, err := f.processor.PostSale(context.Background(), in)

	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"phone"}, verr.MissingFields())
	assert.Equal(t, int64(10), f.stock(t, "P1"))
	assert.Empty(t, f.store.MovementsOf("P1"))
}

// ──────────────────────────────────────────────────────────────────────────────
// Atomicidad y errores
// ──────────────────────────────────────────────────────────────────────────────

func TestPostSale_FalloEnTerceraLineaRevierteTodo(t *testing.T) {
	f := newFixture(t)
	ids := []string{"P1", "P2", "P3", "P4", "P5"}
	var lines []entity.LineItemRequest
	for _, id := range ids {
		f.product(id, 10, 0)
		lines = append(lines, line(t, id, 1))
	}
	var writes int32
	f.store.SetFault(func(op string) error {
		if op == "movements.create" && atomic.AddInt32(&writes, 1) == 3 {
			return &domain.StorageError{Op: "insert movement", Err: errors.New("conexión perdida")}
		}
		return nil
	})

	_, err := f.processor.PostSale(context.Background(), input(lines...))
	require.ErrorIs(t, err, domain.ErrStorage)

	for _, id := range ids {
		assert.Equal(t, int64(10), f.stock(t, id), "stock de %s", id)
		assert.Empty(t, f.store.MovementsOf(id))
	}
	assert.Zero(t, f.store.SaleCount())
	assert.Zero(t, f.store.LineItemCount())
}

func TestPostSale_FalloAlGuardarLineaRevierteStock(t *testing.T) {
	f := newFixture(t)
	f.product("P1", 10, 0)
	f.store.SetFault(func(op string) error {
		if op == "sales.create_line_item" {
			return &domain.StorageError{Op: "insert line", Err: errors.New("timeout")}
		}
		return nil
	})

	_, err := f.processor.PostSale(context.Background(), input(line(t, "P1", 4)))
	require.Error(t, err)
	assert.True(t, domain.IsRetryable(err))
	assert.Equal(t, int64(10), f.stock(t, "P1"))
	assert.Zero(t, f.store.SaleCount())
}

func TestPostSale_FalloDelNotificadorNoAfectaLaVenta(t *testing.T) {
	f := newFixture(t)
	f.product("P1", 3, 5)
	f.notifier.err = errors.New("cola llena")

	sale, err := f.processor.PostSale(context.Background(), input(line(t, "P1", 1)))
	require.NoError(t, err)
	assert.NotEmpty(t, sale.ID)
	assert.Equal(t, int64(2), f.stock(t, "P1"))
	assert.Len(t, f.notifier.Events(), 1)
}

func TestPostSale_ProductoDeOtroNegocioEsNotFound(t *testing.T) {
	f := newFixture(t)
	f.store.PutProduct(&entity.Product{ID: "AJENO", BusinessID: "biz-2", UnitPrice: decimal.NewFromInt(1), StockQuantity: 10, Active: true})

	_, err := f.processor.PostSale(context.Background(), input(line(t, "AJENO", 1)))
	var nf *domain.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "AJENO", nf.ID)
	p, _ := f.store.Product("AJENO")
	assert.Equal(t, int64(10), p.StockQuantity)
}

func TestPostSale_ProductoInactivoEsNotFound(t *testing.T) {
	f := newFixture(t)
	f.store.PutProduct(&entity.Product{ID: "P1", BusinessID: testBusinessID, UnitPrice: decimal.NewFromInt(1), StockQuantity: 10})

	_, err := f.processor.PostSale(context.Background(), input(line(t, "P1", 1)))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPostSale_ClienteInexistenteEsNotFound(t *testing.T) {
	f := newFixture(t)
	f.product("P1", 10, 0)
	in := input(line(t, "P1", 1))
	in.CustomerID = "no-existe"

	_, err := f.processor.PostSale(context.Background(), in)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPostSale_ValidacionAcumulaCampos(t *testing.T) {
	f := newFixture(t)
	neg := decimal.NewFromInt(-1)
	in := sales.PostSaleInput{
		BusinessID:    testBusinessID,
		ActorID:       testActorID,
		PaymentMethod: "bitcoin",
		Currency:      "pesos",
		Discount:      &neg,
	}

	_, err := f.processor.PostSale(context.Background(), in)
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	fields := map[string]bool{}
	for _, fe := range verr.Fields {
		fields[fe.Field] = true
	}
	for _, want := range []string{"customer_id", "items", "payment_method", "currency", "discount"} {
		assert.True(t, fields[want], "falta %s en %v", want, verr.Fields)
	}
}

func TestPostSale_DescuentoMayorAlTotalEsValidacion(t *testing.T) {
	f := newFixture(t)
	f.product("P1", 10, 0)
	in := input(line(t, "P1", 1))
	d := decimal.NewFromInt(100)
	in.Discount = &d

	_, err := f.processor.PostSale(context.Background(), in)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Equal(t, int64(10), f.stock(t, "P1"))
}

func TestPostSale_DescuentoEnvioYTasaPropia(t *testing.T) {
	f := newFixture(t)
	rate := decimal.NewFromInt(8)
	f.store.PutProduct(&entity.Product{
		ID: "P1", BusinessID: testBusinessID, UnitPrice: decimal.RequireFromString("12.50"),
		TaxRatePercent: &rate, StockQuantity: 10, Active: true,
	})
	in := input(line(t, "P1", 2))
	d, s := decimal.NewFromInt(5), decimal.NewFromInt(3)
	in.Discount, in.Shipping = &d, &s
	in.Currency = "usd"

	sale, err := f.processor.PostSale(context.Background(), in)
	require.NoError(t, err)
	// 25 + 2 - 5 + 3
	assert.True(t, decimal.NewFromInt(25).Equal(sale.Subtotal))
	assert.True(t, decimal.NewFromInt(2).Equal(sale.TaxTotal))
	assert.True(t, decimal.NewFromInt(25).Equal(sale.Total), "total %s", sale.Total)
	assert.Equal(t, "USD", sale.Currency)
	assert.True(t, rate.Equal(sale.LineItems[0].TaxRatePercent))
}

func TestPostSale_LineasRepetidasDelMismoProducto(t *testing.T) {
	f := newFixture(t)
	f.product("P1", 10, 5)

	_, err := f.processor.PostSale(context.Background(), input(line(t, "P1", 3), line(t, "P1", 3)))
	require.NoError(t, err)
	assert.Equal(t, int64(4), f.stock(t, "P1"))

	movs := f.store.MovementsOf("P1")
	require.Len(t, movs, 2)
	assert.Equal(t, movs[0].StockAfter, movs[1].StockBefore)
	events := f.notifier.Events()
	require.Len(t, events, 1, "una sola señal por producto")
	assert.Equal(t, int64(4), events[0].StockAfter)
}

func TestPostSale_LineasRepetidasSinStockReportanElTotal(t *testing.T) {
	f := newFixture(t)
	f.product("P1", 5, 0)

	_, err := f.processor.PostSale(context.Background(), input(line(t, "P1", 3), line(t, "P1", 3)))

	var stockErr *domain.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, "P1", stockErr.ProductID)
	assert.Equal(t, int64(6), stockErr.Requested)
	assert.Equal(t, int64(5), stockErr.Available)
	assert.Equal(t, int64(5), f.stock(t, "P1"))
	assert.Empty(t, f.store.MovementsOf("P1"))
	assert.Zero(t, f.store.SaleCount())
}

func TestPostSale_ProductoDesactivadoAntesDelBloqueoEsNotFound(t *testing.T) {
	f := newFixture(t)
	f.product("P1", 10, 0)
	f.store.SetFault(func(op string) error {
		if op == "products.get_for_update" {
			p, _ := f.store.Product("P1")
			p.Active = false
			f.store.PutProduct(p)
		}
		return nil
	})

	_, err := f.processor.PostSale(context.Background(), input(line(t, "P1", 1)))

	var nf *domain.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "P1", nf.ID)
	assert.Equal(t, int64(10), f.stock(t, "P1"))
	assert.Zero(t, f.store.SaleCount())
}

func TestPostSale_TimeoutEsStorageError(t *testing.T) {
	f := newFixture(t)
	f.product("P1", 10, 0)
	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	time.Sleep(time.Millisecond)

	_, err := f.processor.PostSale(ctx, input(line(t, "P1", 1)))
	require.ErrorIs(t, err, domain.ErrStorage)
	assert.Equal(t, int64(10), f.stock(t, "P1"))
}

// ──────────────────────────────────────────────────────────────────────────────
// Concurrencia
// ──────────────────────────────────────────────────────────────────────────────

func TestPostSale_UltimaUnidadSoloLaVendeUno(t *testing.T) {
	f := newFixture(t)
	f.product("P1", 1, 0)

	const buyers = 8
	var ok, rejected int32
	var wg sync.WaitGroup
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.processor.PostSale(context.Background(), input(line(t, "P1", 1)))
			switch {
			case err == nil:
				atomic.AddInt32(&ok, 1)
			case errors.Is(err, domain.ErrInsufficientStock):
				atomic.AddInt32(&rejected, 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), ok)
	assert.Equal(t, int32(buyers-1), rejected)
	assert.Equal(t, int64(0), f.stock(t, "P1"))
	assert.Equal(t, 1, f.store.SaleCount())
	assert.Len(t, f.store.MovementsOf("P1"), 1)
}

func TestPostSale_VentasConcurrentesConservanElLedger(t *testing.T) {
	f := newFixture(t)
	f.product("P1", 50, 0)
	f.product("P2", 50, 0)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			// órdenes de línea opuestas para forzar el orden de bloqueo
			lines := []entity.LineItemRequest{line(t, "P1", 2), line(t, "P2", 1)}
			if i%2 == 1 {
				lines[0], lines[1] = lines[1], lines[0]
			}
			_, err := f.processor.PostSale(context.Background(), input(lines...))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int64(10), f.stock(t, "P1"))
	assert.Equal(t, int64(30), f.stock(t, "P2"))
	for _, id := range []string{"P1", "P2"} {
		movs := f.store.MovementsOf(id)
		for i := 1; i < len(movs); i++ {
			assert.Equal(t, movs[i-1].StockAfter, movs[i].StockBefore)
		}
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Consulta y adaptador HTTP
// ──────────────────────────────────────────────────────────────────────────────

func TestGetSale_DevuelveLineasYAislaNegocio(t *testing.T) {
	f := newFixture(t)
	f.product("P1", 10, 0)
	f.product("P2", 10, 0)
	posted, err := f.processor.PostSale(context.Background(), input(line(t, "P2", 1), line(t, "P1", 2)))
	require.NoError(t, err)

	got, err := f.processor.GetSale(context.Background(), testBusinessID, posted.ID)
	require.NoError(t, err)
	require.Len(t, got.LineItems, 2)
	assert.Equal(t, "P2", got.LineItems[0].ProductID, "las líneas conservan el orden de la solicitud")
	assert.True(t, posted.Total.Equal(got.Total))

	_, err = f.processor.GetSale(context.Background(), "biz-2", posted.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPostSaleFromRequest_LineaInvalidaEsValidacion(t *testing.T) {
	f := newFixture(t)
	_, err := f.processor.PostSaleFromRequest(context.Background(), testBusinessID, testActorID, dto.PostSaleRequest{
		CustomerID:    testCustomerID,
		PaymentMethod: "cash",
		Items:         []dto.SaleItemRequest{{ProductID: "", Quantity: 1}, {ProductID: "P1", Quantity: 0}},
	})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Fields, 2)
}
