package http

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/jhoicas/sales-ledger/internal/application/catalog"
	"github.com/jhoicas/sales-ledger/internal/application/inventory"
	"github.com/jhoicas/sales-ledger/internal/application/sales"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Sales     *sales.SaleTransactionProcessor
	Ledger    *inventory.Ledger
	History   *inventory.MovementHistoryUseCase
	LowStock  *inventory.LowStockUseCase
	Products  *catalog.ProductUseCase
	Customers *catalog.CustomerUseCase
	JWTSecret string
	AppName   string
	// Metrics handler Prometheus; nil deshabilita /metrics.
	Metrics http.Handler
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "app": deps.AppName})
	})
	if deps.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(deps.Metrics))
	}

	api := app.Group("/api")

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	// Catálogo: el alta de productos es de bodega; la de clientes, de mostrador.
	products := protected.Group("/products")
	productHandler := NewProductHandler(deps.Products)
	products.Post("/", RequireRole(RoleAdmin, RoleBodeguero), productHandler.Create)
	products.Get("/:id", productHandler.GetByID)

	customers := protected.Group("/customers")
	customerHandler := NewCustomerHandler(deps.Customers)
	customers.Post("/", RequireRole(RoleAdmin, RoleVendedor), customerHandler.Create)
	customers.Get("/:id", customerHandler.GetByID)

	// Ventas: admin o vendedor registran; cualquier rol consulta.
	salesGroup := protected.Group("/sales")
	saleHandler := NewSaleHandler(deps.Sales)
	salesGroup.Post("/", RequireRole(RoleAdmin, RoleVendedor), saleHandler.Create)
	salesGroup.Get("/:id", saleHandler.GetByID)

	// Inventario: admin o bodeguero registran movimientos manuales.
	invGroup := protected.Group("/inventory")
	inventoryHandler := NewInventoryHandler(deps.Ledger, deps.History, deps.LowStock)
	invGroup.Post("/movements", RequireRole(RoleAdmin, RoleBodeguero), inventoryHandler.RegisterMovement)
	invGroup.Get("/products/:id/movements", inventoryHandler.ListMovements)
	invGroup.Get("/low-stock", inventoryHandler.LowStock)
}
