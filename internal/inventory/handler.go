package inventory

import (
	"errors"
	"log/slog"
	"net/http"

	httperr "github.com/bookstore-lab/bookstore/internal/core/errors"
	"github.com/gin-gonic/gin"
)

// API exposes the inventory read/write surface over HTTP. The write endpoint
// doubles as the manual reconciliation path for products whose creation event
// was lost.
type API struct {
	store Store
}

func NewAPI(store Store) *API {
	if store == nil {
		panic("inventory: store must not be nil")
	}
	return &API{store: store}
}

// RegisterRoutes registers the inventory API routes.
func (a *API) RegisterRoutes(r gin.IRouter) {
	r.GET("/v1/inventory", a.ListHandler)
	r.GET("/v1/inventory/:productId", a.GetHandler)
	r.POST("/v1/inventory", a.UpsertHandler)
}

func (a *API) ListHandler(c *gin.Context) {
	records, err := a.store.List(c.Request.Context())
	if err != nil {
		slog.Error("Failed to list inventory records", "error", err)
		c.JSON(http.StatusInternalServerError, httperr.ErrorResponse{
			ErrorType: httperr.HttpInternalError,
			Message:   "Failed to list inventory records",
		})
		return
	}
	if records == nil {
		records = []*Record{}
	}
	c.JSON(http.StatusOK, records)
}

func (a *API) GetHandler(c *gin.Context) {
	productID := c.Param("productId")

	rec, err := a.store.GetByProductID(c.Request.Context(), productID)
	if errors.Is(err, ErrNotFound) {
		c.JSON(http.StatusNotFound, httperr.ErrorResponse{
			ErrorType: httperr.HttpNotFoundError,
			Message:   "No inventory record for product",
			Details:   map[string]interface{}{"product_id": productID},
		})
		return
	}
	if err != nil {
		slog.Error("Failed to get inventory record", "error", err, "product_id", productID)
		c.JSON(http.StatusInternalServerError, httperr.ErrorResponse{
			ErrorType: httperr.HttpInternalError,
			Message:   "Failed to get inventory record",
		})
		return
	}
	c.JSON(http.StatusOK, rec)
}

// UpsertRequest is the body of POST /v1/inventory.
type UpsertRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

func (a *API) UpsertHandler(c *gin.Context) {
	var req UpsertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
			ErrorType: httperr.HttpInvalidJsonError,
			Message:   "Invalid JSON body",
		})
		return
	}

	if req.ProductID == "" {
		c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
			ErrorType: httperr.HttpValidationError,
			Message:   "product_id is required",
		})
		return
	}
	if req.Quantity < 0 {
		c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
			ErrorType: httperr.HttpValidationError,
			Message:   "quantity must be >= 0",
		})
		return
	}

	if err := a.store.Upsert(c.Request.Context(), req.ProductID, req.Quantity); err != nil {
		slog.Error("Failed to upsert inventory record", "error", err, "product_id", req.ProductID)
		c.JSON(http.StatusInternalServerError, httperr.ErrorResponse{
			ErrorType: httperr.HttpInternalError,
			Message:   "Failed to upsert inventory record",
		})
		return
	}

	slog.Info("Manual inventory upsert", "product_id", req.ProductID, "quantity", req.Quantity)
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
