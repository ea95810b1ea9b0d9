// seed carga un catálogo de demostración (productos, clientes y su inventario inicial)
// para un negocio en PostgreSQL.
//
// Uso: go run ./cmd/seed [business_id]
// El stock inicial se registra como movimientos "initial" a través del ledger,
// de modo que la cadena de cada producto queda completa desde el primer registro.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/sales-ledger/internal/application/inventory"
	"github.com/jhoicas/sales-ledger/internal/application/ports"
	"github.com/jhoicas/sales-ledger/internal/domain/entity"
	"github.com/jhoicas/sales-ledger/internal/infrastructure/postgres"
	"github.com/jhoicas/sales-ledger/pkg/config"
	"github.com/jhoicas/sales-ledger/pkg/logger"
)

const seedActor = "seed"

type seedProduct struct {
	name     string
	price    string
	cost     string
	taxRate  string // vacío = tasa por defecto
	stock    int64
	minStock int64
}

var catalog = []seedProduct{
	{name: "Café molido 500g", price: "89.90", cost: "52.00", stock: 40, minStock: 10},
	{name: "Azúcar estándar 1kg", price: "32.50", cost: "21.00", stock: 60, minStock: 15},
	{name: "Leche entera 1L", price: "27.00", cost: "18.40", stock: 24, minStock: 12},
	{name: "Tortillas de maíz 1kg", price: "22.00", cost: "14.00", taxRate: "0", stock: 30, minStock: 8},
	{name: "Jabón de tocador", price: "18.00", cost: "9.50", stock: 5, minStock: 6},
}

var customers = []entity.Customer{
	{Name: "Público en general", PrimaryDocumentID: "XAXX010101000", Phone: "0000000000"},
	{Name: "Ana López", PrimaryDocumentID: "LOAA800101XXX", Phone: "5512345678", Email: "ana@example.com"},
}

func main() {
	businessID := "00000000-0000-0000-0000-000000000002"
	if len(os.Args) > 1 {
		businessID = os.Args[1]
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "cargar configuración: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel})

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()
	if err := postgres.Migrate(ctx, pool); err != nil {
		log.Fatal().Err(err).Msg("migrar esquema")
	}

	productRepo := postgres.NewProductRepository(pool)
	customerRepo := postgres.NewCustomerRepository(pool)
	ledger := inventory.NewLedger(postgres.NewTxRunner(pool, cfg.Sales.LockTimeout), ports.NopNotifier{}, log)

	for i := range customers {
		c := customers[i]
		c.ID = uuid.New().String()
		c.BusinessID = businessID
		if err := customerRepo.Create(ctx, &c); err != nil {
			log.Fatal().Err(err).Str("customer", c.Name).Msg("crear cliente")
		}
		log.Info().Str("id", c.ID).Str("name", c.Name).Msg("cliente creado")
	}

	for _, sp := range catalog {
		p := &entity.Product{
			ID:               uuid.New().String(),
			BusinessID:       businessID,
			Name:             sp.name,
			UnitPrice:        decimal.RequireFromString(sp.price),
			UnitCost:         decimal.RequireFromString(sp.cost),
			MinStockQuantity: sp.minStock,
			Active:           true,
		}
		if sp.taxRate != "" {
			rate := decimal.RequireFromString(sp.taxRate)
			p.TaxRatePercent = &rate
		}
		if err := productRepo.Create(ctx, p); err != nil {
			log.Fatal().Err(err).Str("product", sp.name).Msg("crear producto")
		}
		mov, err := ledger.Apply(ctx, inventory.MovementInput{
			BusinessID:    businessID,
			ProductID:     p.ID,
			ActorID:       seedActor,
			Type:          entity.MovementTypeInitial,
			QuantityDelta: sp.stock,
			Reason:        "carga inicial",
		})
		if err != nil {
			log.Fatal().Err(err).Str("product", sp.name).Msg("inventario inicial")
		}
		log.Info().
			Str("id", p.ID).
			Str("name", p.Name).
			Int64("stock", mov.StockAfter).
			Msg("producto creado")
	}

	log.Info().Str("business_id", businessID).Msg("seed completo")
}
