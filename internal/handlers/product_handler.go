package handlers

import (
	"fmt"

	"catalog/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// ProductHandler handles HTTP requests for products.
type ProductHandler struct {
	service  *services.ProductService
	validate *validator.Validate
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(service *services.ProductService, validate *validator.Validate) *ProductHandler {
	return &ProductHandler{
		service:  service,
		validate: validate,
	}
}

// RegisterRoutes registers the product routes. Reads are public; writes go
// through the guard handler.
func (h *ProductHandler) RegisterRoutes(router fiber.Router, guard fiber.Handler) {
	productRoutes := router.Group("/products")
	productRoutes.Get("/", h.HandleGetProducts)
	productRoutes.Get("/:term", h.HandleGetProduct)
	productRoutes.Post("/", guard, h.HandleCreateProduct)
	productRoutes.Patch("/:id", guard, h.HandleUpdateProduct)
	productRoutes.Put("/:id", guard, h.HandleUpdateProduct)
	productRoutes.Delete("/:id", guard, h.HandleDeleteProduct)
}

// HandleGetProducts returns one page of products.
func (h *ProductHandler) HandleGetProducts(c *fiber.Ctx) error {
	var page services.PaginationQuery
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid pagination parameters",
			"error":   err.Error(),
		})
	}
	if err := h.validate.Struct(page); err != nil {
		return validationFailed(c, err)
	}

	products, err := h.service.GetAllProducts(c.UserContext(), page)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(products)
}

// HandleGetProduct looks a product up by id, title or slug.
func (h *ProductHandler) HandleGetProduct(c *fiber.Ctx) error {
	product, err := h.service.GetProduct(c.UserContext(), c.Params("term"))
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(product)
}

// HandleCreateProduct creates a new product.
func (h *ProductHandler) HandleCreateProduct(c *fiber.Ctx) error {
	var input services.CreateProductInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := h.validate.Struct(input); err != nil {
		return validationFailed(c, err)
	}

	product, err := h.service.CreateProduct(c.UserContext(), input)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(product)
}

// HandleUpdateProduct applies a partial update to the product with the given id.
func (h *ProductHandler) HandleUpdateProduct(c *fiber.Ctx) error {
	id, ok := uuidParam(c)
	if !ok {
		return invalidID(c)
	}

	var patch services.UpdateProductInput
	if err := c.BodyParser(&patch); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := h.validate.Struct(patch); err != nil {
		return validationFailed(c, err)
	}

	product, err := h.service.UpdateProduct(c.UserContext(), id, patch)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(product)
}

// HandleDeleteProduct removes the product with the given id.
func (h *ProductHandler) HandleDeleteProduct(c *fiber.Ctx) error {
	id, ok := uuidParam(c)
	if !ok {
		return invalidID(c)
	}

	if err := h.service.DeleteProduct(c.UserContext(), id); err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": fmt.Sprintf("Product %s deleted successfully", id),
	})
}

func uuidParam(c *fiber.Ctx) (string, bool) {
	id := c.Params("id")
	if _, err := uuid.Parse(id); err != nil || len(id) != 36 {
		return "", false
	}
	return id, true
}

func invalidID(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"message": fmt.Sprintf("Validation failed (uuid is expected): %s", c.Params("id")),
	})
}
