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

// CreateSaleRequest represents a sale creation payload
type CreateSaleRequest struct {
	Items []SaleItemRequest `json:"items" validate:"required,min=1,dive"`
}

// SaleItemRequest is one requested sale line
type SaleItemRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Quantity  int    `json:"quantity" validate:"required,gte=1"`
}

// SaleResponse is the sale view with derived figures per item
type SaleResponse struct {
	ID           string             `json:"id"`
	TotalAmount  float64            `json:"total_amount"`
	TotalCost    float64            `json:"total_cost"`
	TotalProfit  float64            `json:"total_profit"`
	ProfitMargin float64            `json:"profit_margin"`
	Status       string             `json:"status"`
	Items        []SaleItemResponse `json:"items,omitempty"`
	CreatedAt    time.Time          `json:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at"`
}

// SaleItemResponse is one sale line with its derived figures
type SaleItemResponse struct {
	ID          string  `json:"id"`
	ProductID   string  `json:"product_id"`
	ProductName string  `json:"product_name"`
	ProductSKU  string  `json:"product_sku,omitempty"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	UnitCost    float64 `json:"unit_cost"`
	Subtotal    float64 `json:"subtotal"`
	TotalCost   float64 `json:"total_cost"`
	Profit      float64 `json:"profit"`
}

// SaleHandler handles HTTP requests for sale operations
type SaleHandler struct {
	saleService service.SaleService
	logger      *zap.Logger
}

// NewSaleHandler creates a new SaleHandler
func NewSaleHandler(saleService service.SaleService, logger *zap.Logger) *SaleHandler {
	return &SaleHandler{
		saleService: saleService,
		logger:      logger,
	}
}

// RegisterRoutes registers all sale routes
func (h *SaleHandler) RegisterRoutes(r chi.Router) {
	r.Route("/sales", func(r chi.Router) {
		r.Post("/", h.Create)
		r.Get("/", h.List)
		r.Get("/statistics", h.Statistics)
		r.Get("/{id}", h.Get)
	})
}

// Create handles sale creation
func (h *SaleHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateSaleRequest

	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Sale request validation failed", zap.Error(err))

		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}

		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	lines := make([]service.SaleLine, 0, len(req.Items))
	for _, item := range req.Items {
		productID, err := uuid.Parse(item.ProductID)
		if err != nil {
			middleware.RespondWithValidationErrors(w, []middleware.ValidationError{
				{Field: "items", Message: "One or more product IDs are invalid"},
			})
			return
		}
		lines = append(lines, service.SaleLine{ProductID: productID, Quantity: item.Quantity})
	}

	sale, err := h.saleService.CreateSale(r.Context(), lines)
	if err != nil {
		var stockErr *service.StockInsufficientError
		switch {
		case errors.As(err, &stockErr):
			middleware.RespondWithError(w, http.StatusBadRequest, stockErr.Error())
		case errors.Is(err, repository.ErrProductNotFound):
			middleware.RespondWithValidationErrors(w, []middleware.ValidationError{
				{Field: "items", Message: "One or more products were not found"},
			})
		default:
			h.logger.Error("Failed to create sale", zap.Error(err))
			middleware.RespondWithError(w, http.StatusInternalServerError, "failed to create sale")
		}
		return
	}

	middleware.RespondWithJSON(w, http.StatusCreated, map[string]any{
		"message": "sale created successfully",
		"data":    newSaleResponse(sale),
	})
}

// Get handles the sale detail view
func (h *SaleHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusNotFound, "sale not found")
		return
	}

	sale, err := h.saleService.GetSale(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrSaleNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, "sale not found")
			return
		}

		h.logger.Error("Failed to get sale", zap.String("sale_id", id.String()), zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to get sale")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]any{"data": newSaleResponse(sale)})
}

// List handles listing all sales newest first
func (h *SaleHandler) List(w http.ResponseWriter, r *http.Request) {
	sales, err := h.saleService.ListSales(r.Context())
	if err != nil {
		h.logger.Error("Failed to list sales", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to list sales")
		return
	}

	responses := make([]SaleResponse, 0, len(sales))
	for _, sale := range sales {
		responses = append(responses, newSaleResponse(sale))
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]any{"data": responses})
}

// Statistics handles the completed-sales aggregation
func (h *SaleHandler) Statistics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.saleService.Statistics(r.Context())
	if err != nil {
		h.logger.Error("Failed to compute sale statistics", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to compute sale statistics")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]any{"data": stats})
}

func newSaleResponse(sale *domain.Sale) SaleResponse {
	resp := SaleResponse{
		ID:           sale.ID.String(),
		TotalAmount:  sale.TotalAmount,
		TotalCost:    sale.TotalCost,
		TotalProfit:  sale.TotalProfit,
		ProfitMargin: domain.SaleProfitMargin(sale.TotalAmount, sale.TotalProfit),
		Status:       string(sale.Status),
		CreatedAt:    sale.CreatedAt,
		UpdatedAt:    sale.UpdatedAt,
	}

	for _, item := range sale.Items {
		resp.Items = append(resp.Items, SaleItemResponse{
			ID:          item.ID.String(),
			ProductID:   item.ProductID.String(),
			ProductName: item.ProductName,
			ProductSKU:  item.ProductSKU,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			UnitCost:    item.UnitCost,
			Subtotal:    domain.ItemSubtotal(item.Quantity, item.UnitPrice),
			TotalCost:   domain.ItemCost(item.Quantity, item.UnitCost),
			Profit:      domain.ItemProfit(item.Quantity, item.UnitPrice, item.UnitCost),
		})
	}

	return resp
}
