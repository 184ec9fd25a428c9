package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	appinv "github.com/shopstock/backend/internal/application/inventory"
	"github.com/shopstock/backend/internal/domain/shared"
	"github.com/shopstock/backend/internal/interfaces/http/dto"
)

// InventoryHandler handles product and batch HTTP endpoints
type InventoryHandler struct {
	BaseHandler
	service           *appinv.InventoryService
	expiryWarningDays int
}

// NewInventoryHandler creates a new InventoryHandler
func NewInventoryHandler(service *appinv.InventoryService, expiryWarningDays int) *InventoryHandler {
	return &InventoryHandler{
		service:           service,
		expiryWarningDays: expiryWarningDays,
	}
}

// CreateProduct handles POST /products
func (h *InventoryHandler) CreateProduct(c *gin.Context) {
	var req appinv.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	product, err := h.service.CreateProduct(c.Request.Context(), &req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, product)
}

// GetProduct handles GET /products/:id
func (h *InventoryHandler) GetProduct(c *gin.Context) {
	productID, ok := h.parseID(c)
	if !ok {
		return
	}

	product, err := h.service.GetProduct(c.Request.Context(), productID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, product)
}

// ListProducts handles GET /products
func (h *InventoryHandler) ListProducts(c *gin.Context) {
	listReq := dto.DefaultListRequest()
	if err := c.ShouldBindQuery(&listReq); err != nil {
		h.BadRequest(c, "Invalid query parameters: "+err.Error())
		return
	}

	filter := shared.Filter{
		Page:     listReq.Page,
		PageSize: listReq.PageSize,
		OrderBy:  listReq.OrderBy,
		OrderDir: listReq.OrderDir,
		Filters:  map[string]interface{}{},
	}
	if listReq.Search != "" {
		filter.Filters["search"] = listReq.Search
	}

	page, err := h.service.ListProducts(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// ListLowStock handles GET /products/low-stock
func (h *InventoryHandler) ListLowStock(c *gin.Context) {
	products, err := h.service.ListLowStock(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, products)
}

// ReceiveBatch handles POST /batches
func (h *InventoryHandler) ReceiveBatch(c *gin.Context) {
	var req appinv.ReceiveBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	batch, err := h.service.ReceiveBatch(c.Request.Context(), &req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, batch)
}

// CancelBatch handles POST /batches/:id/cancel
func (h *InventoryHandler) CancelBatch(c *gin.Context) {
	batchID, ok := h.parseID(c)
	if !ok {
		return
	}

	var req appinv.CancelBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	batch, err := h.service.CancelBatch(c.Request.Context(), batchID, &req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, batch)
}

// GetAvailableBatches handles GET /products/:id/batches
func (h *InventoryHandler) GetAvailableBatches(c *gin.Context) {
	productID, ok := h.parseID(c)
	if !ok {
		return
	}

	batches, err := h.service.GetAvailableBatches(c.Request.Context(), productID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, batches)
}

// GetValuation handles GET /products/:id/valuation
func (h *InventoryHandler) GetValuation(c *gin.Context) {
	productID, ok := h.parseID(c)
	if !ok {
		return
	}

	valuation, err := h.service.GetValuation(c.Request.Context(), productID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, valuation)
}

// ListExpiringBatches handles GET /batches/expiring
func (h *InventoryHandler) ListExpiringBatches(c *gin.Context) {
	listReq := dto.DefaultListRequest()
	if err := c.ShouldBindQuery(&listReq); err != nil {
		h.BadRequest(c, "Invalid query parameters: "+err.Error())
		return
	}

	filter := shared.Filter{Page: listReq.Page, PageSize: listReq.PageSize}
	batches, err := h.service.ListExpiringBatches(c.Request.Context(), h.expiryWarningDays, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, batches)
}

// Reconcile handles POST /products/:id/reconcile
func (h *InventoryHandler) Reconcile(c *gin.Context) {
	productID, ok := h.parseID(c)
	if !ok {
		return
	}
	repair := c.DefaultQuery("repair", "true") == "true"

	result, err := h.service.Reconcile(c.Request.Context(), productID, repair)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// RegisterRoutes registers inventory routes
func (h *InventoryHandler) RegisterRoutes(rg *gin.RouterGroup) {
	products := rg.Group("/products")
	{
		products.POST("", h.CreateProduct)
		products.GET("", h.ListProducts)
		products.GET("/low-stock", h.ListLowStock)
		products.GET(":id", h.GetProduct)
		products.GET(":id/batches", h.GetAvailableBatches)
		products.GET(":id/valuation", h.GetValuation)
		products.POST(":id/reconcile", h.Reconcile)
	}

	batches := rg.Group("/batches")
	{
		batches.POST("", h.ReceiveBatch)
		batches.GET("/expiring", h.ListExpiringBatches)
		batches.POST(":id/cancel", h.CancelBatch)
	}
}

// parseID parses the :id path parameter as a UUID
func (h *InventoryHandler) parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid ID format")
		return uuid.Nil, false
	}
	return id, true
}
