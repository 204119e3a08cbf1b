package catalog

import (
	"errors"
	"log/slog"
	"net/http"

	httperr "github.com/bookstore-lab/bookstore/internal/core/errors"
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers the catalog CRUD routes.
func (s *Service) RegisterRoutes(r gin.IRouter) {
	r.GET("/v1/products", s.ListHandler)
	r.GET("/v1/products/:id", s.GetHandler)
	r.POST("/v1/products", s.CreateHandler)
	r.PUT("/v1/products/:id", s.UpdateHandler)
	r.DELETE("/v1/products/:id", s.DeleteHandler)
}

func (s *Service) ListHandler(c *gin.Context) {
	products, err := s.GetAll(c.Request.Context())
	if err != nil {
		slog.Error("Failed to list products", "error", err)
		c.JSON(http.StatusInternalServerError, httperr.ErrorResponse{
			ErrorType: httperr.HttpInternalError,
			Message:   "Failed to list products",
		})
		return
	}
	if products == nil {
		products = []*Product{}
	}
	c.JSON(http.StatusOK, products)
}

func (s *Service) GetHandler(c *gin.Context) {
	p, err := s.GetByID(c.Request.Context(), c.Param("id"))
	if errors.Is(err, ErrNotFound) {
		c.JSON(http.StatusNotFound, httperr.ErrorResponse{
			ErrorType: httperr.HttpNotFoundError,
			Message:   "Product not found",
		})
		return
	}
	if err != nil {
		slog.Error("Failed to get product", "error", err, "product_id", c.Param("id"))
		c.JSON(http.StatusInternalServerError, httperr.ErrorResponse{
			ErrorType: httperr.HttpInternalError,
			Message:   "Failed to get product",
		})
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *Service) CreateHandler(c *gin.Context) {
	var p Product
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
			ErrorType: httperr.HttpInvalidJsonError,
			Message:   "Invalid JSON body",
		})
		return
	}

	created, err := s.Create(c.Request.Context(), &p)
	if err != nil {
		c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
			ErrorType: httperr.HttpValidationError,
			Message:   err.Error(),
		})
		return
	}

	// Always 201: the catalog write is authoritative regardless of whether
	// the product-created envelope reached the broker.
	c.JSON(http.StatusCreated, created)
}

func (s *Service) UpdateHandler(c *gin.Context) {
	var p Product
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
			ErrorType: httperr.HttpInvalidJsonError,
			Message:   "Invalid JSON body",
		})
		return
	}
	p.ID = c.Param("id")

	updated, err := s.Update(c.Request.Context(), &p)
	if errors.Is(err, ErrNotFound) {
		c.JSON(http.StatusNotFound, httperr.ErrorResponse{
			ErrorType: httperr.HttpNotFoundError,
			Message:   "Product not found",
		})
		return
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
			ErrorType: httperr.HttpValidationError,
			Message:   err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (s *Service) DeleteHandler(c *gin.Context) {
	err := s.Delete(c.Request.Context(), c.Param("id"))
	if errors.Is(err, ErrNotFound) {
		c.JSON(http.StatusNotFound, httperr.ErrorResponse{
			ErrorType: httperr.HttpNotFoundError,
			Message:   "Product not found",
		})
		return
	}
	if err != nil {
		slog.Error("Failed to delete product", "error", err, "product_id", c.Param("id"))
		c.JSON(http.StatusInternalServerError, httperr.ErrorResponse{
			ErrorType: httperr.HttpInternalError,
			Message:   "Failed to delete product",
		})
		return
	}
	c.Status(http.StatusNoContent)
}
