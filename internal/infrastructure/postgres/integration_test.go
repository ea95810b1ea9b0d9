//go:build integration

package postgres_test

// Ejecutar con: go test -tags integration ./internal/infrastructure/postgres/... -v

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/jhoicas/sales-ledger/internal/application/inventory"
	"github.com/jhoicas/sales-ledger/internal/application/sales"
	"github.com/jhoicas/sales-ledger/internal/domain"
	"github.com/jhoicas/sales-ledger/internal/domain/entity"
	domainsales "github.com/jhoicas/sales-ledger/internal/domain/sales"
	"github.com/jhoicas/sales-ledger/internal/infrastructure/postgres"
	"github.com/jhoicas/sales-ledger/pkg/config"
	"github.com/jhoicas/sales-ledger/pkg/logger"
)

type pgEnv struct {
	pool       *pgxpool.Pool
	businessID string
	customerID string
	processor  *sales.SaleTransactionProcessor
	products   *postgres.ProductRepo
}

func setupPostgres(t *testing.T) *pgEnv {
	t.Helper()
	ctx := context.Background()

	pgC, err := tcPostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:16-alpine"),
		tcPostgres.WithDatabase("sales_ledger_test"),
		tcPostgres.WithUsername("ledger"),
		tcPostgres.WithPassword("ledger"),
		testcontainers.WithWaitStrategy(tcPostgres.BasicWaitStrategies()...),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(ctx) })

	url, err := pgC.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := postgres.NewPool(ctx, config.DBConfig{DatabaseURL: url, MaxConns: 10})
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, postgres.Migrate(ctx, pool))
	require.NoError(t, postgres.Migrate(ctx, pool), "el esquema debe ser idempotente")

	env := &pgEnv{
		pool:       pool,
		businessID: uuid.NewString(),
		customerID: uuid.NewString(),
		products:   postgres.NewProductRepository(pool),
	}
	now := time.Now().UTC()
	require.NoError(t, postgres.NewCustomerRepository(pool).Create(ctx, &entity.Customer{
		ID: env.customerID, BusinessID: env.businessID, Name: "Cliente Integración",
		PrimaryDocumentID: "XAXX010101000", Phone: "5500000000", CreatedAt: now, UpdatedAt: now,
	}))

	txRunner := postgres.NewTxRunner(pool, 2*time.Second)
	ledger := inventory.NewLedger(txRunner, nil, logger.Nop())
	env.processor = sales.NewSaleTransactionProcessor(
		txRunner, ledger,
		postgres.NewCustomerRepository(pool),
		postgres.NewProductRepository(pool),
		postgres.NewSaleRepository(pool),
		sales.Config{
			TaxPolicy:  domainsales.TaxPolicy{DefaultRatePercent: decimal.NewFromInt(16)},
			Timeout:    10 * time.Second,
			MaxRetries: 3,
		},
		logger.Nop(),
	)
	return env
}

func (e *pgEnv) product(t *testing.T, stock, min int64) string {
	t.Helper()
	now := time.Now().UTC()
	id := uuid.NewString()
	require.NoError(t, e.products.Create(context.Background(), &entity.Product{
		ID: id, BusinessID: e.businessID, Name: "Producto " + id[:8], UnitPrice: decimal.NewFromInt(10),
		StockQuantity: stock, MinStockQuantity: min, Active: true, CreatedAt: now, UpdatedAt: now,
	}))
	return id
}

func (e *pgEnv) input(t *testing.T, productID string, qty int64) sales.PostSaleInput {
	t.Helper()
	li, err := entity.NewLineItemRequest(productID, qty)
	require.NoError(t, err)
	return sales.PostSaleInput{
		BusinessID: e.businessID, ActorID: "integration", CustomerID: e.customerID,
		LineItems: []entity.LineItemRequest{li}, PaymentMethod: entity.PaymentMethodCard,
	}
}

func TestPostgres_VentaPersisteVentaLineasYLedger(t *testing.T) {
	env := setupPostgres(t)
	ctx := context.Background()
	pid := env.product(t, 10, 5)

	sale, err := env.processor.PostSale(ctx, env.input(t, pid, 3))
	require.NoError(t, err)

	got, err := env.processor.GetSale(ctx, env.businessID, sale.ID)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("34.8").Equal(got.Total), got.Total.String())
	require.Len(t, got.LineItems, 1)
	assert.Equal(t, got.LineItems[0].ID, got.LineItemIDs[0])

	p, err := env.products.GetByID(ctx, env.businessID, pid)
	require.NoError(t, err)
	assert.Equal(t, int64(7), p.StockQuantity)

	movs, err := postgres.NewInventoryMovementRepository(env.pool).ListByProduct(ctx, env.businessID, pid, 10, 0)
	require.NoError(t, err)
	require.Len(t, movs, 1)
	assert.Equal(t, sale.ID, movs[0].Reference)
	assert.Equal(t, int64(7), movs[0].StockAfter)
}

func TestPostgres_StockInsuficienteHaceRollback(t *testing.T) {
	env := setupPostgres(t)
	ctx := context.Background()
	pid := env.product(t, 2, 0)

	_, err := env.processor.PostSale(ctx, env.input(t, pid, 5))
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	p, err := env.products.GetByID(ctx, env.businessID, pid)
	require.NoError(t, err)
	assert.Equal(t, int64(2), p.StockQuantity)
	var n int
	require.NoError(t, env.pool.QueryRow(ctx, `SELECT count(*) FROM sales WHERE business_id = $1`, env.businessID).Scan(&n))
	assert.Zero(t, n)
}

func TestPostgres_UltimaUnidadConcurrente(t *testing.T) {
	env := setupPostgres(t)
	pid := env.product(t, 1, 0)

	var ok, rejected int32
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.processor.PostSale(context.Background(), env.input(t, pid, 1))
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
	assert.Equal(t, int32(9), rejected)
	p, err := env.products.GetByID(context.Background(), env.businessID, pid)
	require.NoError(t, err)
	assert.Equal(t, int64(0), p.StockQuantity)
}

func TestPostgres_LockTimeoutEsConflicto(t *testing.T) {
	env := setupPostgres(t)
	ctx := context.Background()
	pid := env.product(t, 5, 0)

	// Otra transacción retiene el bloqueo de la fila.
	holder, err := env.pool.Begin(ctx)
	require.NoError(t, err)
	defer func() { _ = holder.Rollback(ctx) }()
	_, err = holder.Exec(ctx, `SELECT 1 FROM products WHERE id = $1 FOR UPDATE`, pid)
	require.NoError(t, err)

	runner := postgres.NewTxRunner(env.pool, 200*time.Millisecond)
	ledger := inventory.NewLedger(runner, nil, logger.Nop())
	_, err = ledger.Apply(ctx, inventory.MovementInput{
		BusinessID: env.businessID, ProductID: pid, ActorID: "integration",
		Type: entity.MovementTypeAdjustment, QuantityDelta: -1,
	})
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.True(t, domain.IsRetryable(err))
}
