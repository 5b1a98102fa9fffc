package transport

import (
	"errors"
	"net/http"

	"stockledger/internal/middleware"
	"stockledger/internal/repository"
	"stockledger/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AddInventoryRequest represents a stock addition payload
type AddInventoryRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Quantity  int    `json:"quantity" validate:"required,gt=0"`
}

// InventoryHandler handles HTTP requests for inventory operations
type InventoryHandler struct {
	inventoryService service.InventoryService
	productService   service.ProductService
	logger           *zap.Logger
}

// NewInventoryHandler creates a new InventoryHandler
func NewInventoryHandler(
	inventoryService service.InventoryService,
	productService service.ProductService,
	logger *zap.Logger,
) *InventoryHandler {
	return &InventoryHandler{
		inventoryService: inventoryService,
		productService:   productService,
		logger:           logger,
	}
}

// RegisterRoutes registers all inventory routes
func (h *InventoryHandler) RegisterRoutes(r chi.Router) {
	r.Route("/inventory", func(r chi.Router) {
		r.Post("/", h.AddStock)
		r.Get("/", h.Status)
	})
}

// AddStock handles adding units to a product's stock
func (h *InventoryHandler) AddStock(w http.ResponseWriter, r *http.Request) {
	var req AddInventoryRequest

	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Inventory request validation failed", zap.Error(err))

		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}

		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		middleware.RespondWithValidationErrors(w, []middleware.ValidationError{
			{Field: "product_id", Message: "Invalid product ID"},
		})
		return
	}

	detail, err := h.productService.Get(r.Context(), productID)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			middleware.RespondWithValidationErrors(w, []middleware.ValidationError{
				{Field: "product_id", Message: "Product not found"},
			})
			return
		}

		h.logger.Error("Failed to resolve product for stock addition", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to add stock")
		return
	}

	inventory, err := h.inventoryService.AddStock(r.Context(), productID, req.Quantity)
	if err != nil {
		h.logger.Error("Failed to add stock",
			zap.String("product_id", productID.String()),
			zap.Int("quantity", req.Quantity),
			zap.Error(err),
		)
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to add stock")
		return
	}

	middleware.RespondWithJSON(w, http.StatusCreated, map[string]any{
		"message": "stock updated successfully",
		"data": map[string]any{
			"product_id":   inventory.ProductID.String(),
			"product_name": detail.Product.Name,
			"quantity":     inventory.Quantity,
			"last_updated": inventory.LastUpdated,
		},
	})
}

// Status handles the inventory status listing with its summary
func (h *InventoryHandler) Status(w http.ResponseWriter, r *http.Request) {
	statuses, summary, err := h.inventoryService.Status(r.Context())
	if err != nil {
		h.logger.Error("Failed to load inventory status", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to load inventory status")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]any{
		"data":    statuses,
		"summary": summary,
	})
}
