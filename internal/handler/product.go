package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"delivery/internal/service"
)

// ProductHandler handles HTTP requests for the product catalog.
type ProductHandler struct {
	catalogService *service.CatalogService
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(catalogService *service.CatalogService) *ProductHandler {
	return &ProductHandler{catalogService: catalogService}
}

// List handles GET /v1/products
func (h *ProductHandler) List(c *gin.Context) {
	products, err := h.catalogService.ListProducts(c.Request.Context(), c.Query("customer_site_id"))
	if err != nil {
		respondError(c, err)
		return
	}

	data := make([]ProductResponse, 0, len(products))
	for _, p := range products {
		data = append(data, toProductResponse(p))
	}

	respondJSON(c, http.StatusOK, gin.H{"success": true, "data": data, "count": len(data)})
}
