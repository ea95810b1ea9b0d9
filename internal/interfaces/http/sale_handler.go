package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/sales-ledger/internal/application/dto"
	"github.com/jhoicas/sales-ledger/internal/application/sales"
)

// SaleHandler maneja el registro y consulta de ventas (protegido).
type SaleHandler struct {
	processor *sales.SaleTransactionProcessor
}

// NewSaleHandler construye el handler.
func NewSaleHandler(processor *sales.SaleTransactionProcessor) *SaleHandler {
	return &SaleHandler{processor: processor}
}

// Create godoc
// @Summary      Registrar venta
// @Description  Descuenta stock, crea la venta con sus líneas y un movimiento por línea en una sola transacción.
// @Tags         sales
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.PostSaleRequest  true  "customer_id, items, payment_method"
// @Success      201   {object}  dto.SaleResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      503   {object}  dto.ErrorResponse
// @Router       /api/sales [post]
func (h *SaleHandler) Create(c *fiber.Ctx) error {
	businessID := GetBusinessID(c)
	actorID := GetActorID(c)
	if businessID == "" || actorID == "" {
		return unauthorized(c)
	}
	var in dto.PostSaleRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	if err := validateStruct(in); err != nil {
		return writeError(c, err)
	}
	out, err := h.processor.PostSaleFromRequest(c.UserContext(), businessID, actorID, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// GetByID godoc
// @Summary      Obtener venta por ID
// @Tags         sales
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la venta"
// @Success      200  {object}  dto.SaleResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/sales/{id} [get]
func (h *SaleHandler) GetByID(c *fiber.Ctx) error {
	businessID := GetBusinessID(c)
	if businessID == "" {
		return unauthorized(c)
	}
	sale, err := h.processor.GetSale(c.UserContext(), businessID, c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(sales.ToResponse(sale))
}
