package transport

import (
	"errors"
	"net/http"
	"time"

	"stockledger/internal/domain"
	"stockledger/internal/middleware"
	"stockledger/internal/repository"
	"stockledger/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CreateProductRequest represents the product creation payload. Prices are
// pointers so an explicit zero survives the required check.
type CreateProductRequest struct {
	SKU         string   `json:"sku" validate:"required,max=255"`
	Name        string   `json:"name" validate:"required,max=255"`
	Description string   `json:"description"`
	CostPrice   *float64 `json:"cost_price" validate:"required,gte=0"`
	SalePrice   *float64 `json:"sale_price" validate:"required,gte=0"`
}

// UpdateProductRequest represents a partial product update
type UpdateProductRequest struct {
	SKU         *string  `json:"sku" validate:"omitempty,max=255"`
	Name        *string  `json:"name" validate:"omitempty,max=255"`
	Description *string  `json:"description"`
	CostPrice   *float64 `json:"cost_price" validate:"omitempty,gte=0"`
	SalePrice   *float64 `json:"sale_price" validate:"omitempty,gte=0"`
}

// ProductResponse is the product view with derived profit figures
type ProductResponse struct {
	ID            string             `json:"id"`
	SKU           string             `json:"sku"`
	Name          string             `json:"name"`
	Description   string             `json:"description"`
	CostPrice     float64            `json:"cost_price"`
	SalePrice     float64            `json:"sale_price"`
	ProfitMargin  float64            `json:"profit_margin"`
	UnitProfit    float64            `json:"unit_profit"`
	StockQuantity *int               `json:"stock_quantity,omitempty"`
	Inventory     *InventoryResponse `json:"inventory,omitempty"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

// InventoryResponse is the inventory block on the product detail view
type InventoryResponse struct {
	Quantity        int       `json:"quantity"`
	TotalCost       float64   `json:"total_cost"`
	TotalValue      float64   `json:"total_value"`
	ProjectedProfit float64   `json:"projected_profit"`
	LastUpdated     time.Time `json:"last_updated"`
}

// ProductHandler handles HTTP requests for product operations
type ProductHandler struct {
	productService service.ProductService
	logger         *zap.Logger
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(productService service.ProductService, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{
		productService: productService,
		logger:         logger,
	}
}

// RegisterRoutes registers all product routes
func (h *ProductHandler) RegisterRoutes(r chi.Router) {
	r.Route("/products", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Get("/{id}", h.Get)
		r.Put("/{id}", h.Update)
		r.Delete("/{id}", h.Delete)
	})
}

// List handles listing all products with stock and margins
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	products, err := h.productService.List(r.Context())
	if err != nil {
		h.logger.Error("Failed to list products", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to list products")
		return
	}

	responses := make([]ProductResponse, 0, len(products))
	for _, p := range products {
		resp := newProductResponse(&p.Product)
		stock := p.StockQuantity
		resp.StockQuantity = &stock
		responses = append(responses, resp)
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]any{"data": responses})
}

// Create handles product creation
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateProductRequest

	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.respondDecodeError(w, err)
		return
	}

	if *req.SalePrice < *req.CostPrice {
		middleware.RespondWithValidationErrors(w, []middleware.ValidationError{
			{Field: "sale_price", Message: "Sale price must be greater than or equal to cost price"},
		})
		return
	}

	product, err := h.productService.Create(r.Context(), service.CreateProductInput{
		SKU:         req.SKU,
		Name:        req.Name,
		Description: req.Description,
		CostPrice:   *req.CostPrice,
		SalePrice:   *req.SalePrice,
	})
	if err != nil {
		if errors.Is(err, service.ErrSKUAlreadyExists) {
			middleware.RespondWithValidationErrors(w, []middleware.ValidationError{
				{Field: "sku", Message: "SKU already exists"},
			})
			return
		}

		h.logger.Error("Failed to create product", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to create product")
		return
	}

	middleware.RespondWithJSON(w, http.StatusCreated, map[string]any{
		"message": "product created successfully",
		"data":    newProductResponse(product),
	})
}

// Get handles product detail with its inventory block
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusNotFound, "product not found")
		return
	}

	detail, err := h.productService.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, "product not found")
			return
		}

		h.logger.Error("Failed to get product", zap.String("product_id", id.String()), zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to get product")
		return
	}

	resp := newProductResponse(detail.Product)
	if detail.Inventory != nil {
		valuation := domain.Valuate(detail.Inventory.Quantity, detail.Product.CostPrice, detail.Product.SalePrice)
		resp.Inventory = &InventoryResponse{
			Quantity:        detail.Inventory.Quantity,
			TotalCost:       valuation.TotalCost,
			TotalValue:      valuation.TotalValue,
			ProjectedProfit: valuation.ProjectedProfit,
			LastUpdated:     detail.Inventory.LastUpdated,
		}
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]any{"data": resp})
}

// Update handles a partial product update
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusNotFound, "product not found")
		return
	}

	var req UpdateProductRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.respondDecodeError(w, err)
		return
	}

	if req.CostPrice != nil && req.SalePrice != nil && *req.SalePrice < *req.CostPrice {
		middleware.RespondWithValidationErrors(w, []middleware.ValidationError{
			{Field: "sale_price", Message: "Sale price must be greater than or equal to cost price"},
		})
		return
	}

	product, err := h.productService.Update(r.Context(), id, service.UpdateProductInput{
		SKU:         req.SKU,
		Name:        req.Name,
		Description: req.Description,
		CostPrice:   req.CostPrice,
		SalePrice:   req.SalePrice,
	})
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, "product not found")
			return
		}
		if errors.Is(err, service.ErrSKUAlreadyExists) {
			middleware.RespondWithValidationErrors(w, []middleware.ValidationError{
				{Field: "sku", Message: "SKU already exists"},
			})
			return
		}

		h.logger.Error("Failed to update product", zap.String("product_id", id.String()), zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to update product")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]any{
		"message": "product updated successfully",
		"data":    newProductResponse(product),
	})
}

// Delete handles product deletion
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusNotFound, "product not found")
		return
	}

	if err := h.productService.Delete(r.Context(), id); err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, "product not found")
			return
		}

		h.logger.Error("Failed to delete product", zap.String("product_id", id.String()), zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to delete product")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]any{
		"message": "product deleted successfully",
	})
}

func (h *ProductHandler) respondDecodeError(w http.ResponseWriter, err error) {
	h.logger.Debug("Product request validation failed", zap.Error(err))

	if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
		middleware.RespondWithValidationErrors(w, validationErrors)
		return
	}

	middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
}

func newProductResponse(p *domain.Product) ProductResponse {
	return ProductResponse{
		ID:           p.ID.String(),
		SKU:          p.SKU,
		Name:         p.Name,
		Description:  p.Description,
		CostPrice:    p.CostPrice,
		SalePrice:    p.SalePrice,
		ProfitMargin: domain.ProfitMargin(p.CostPrice, p.SalePrice),
		UnitProfit:   domain.UnitProfit(p.CostPrice, p.SalePrice),
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}
