package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	appsales "github.com/shopstock/backend/internal/application/sales"
	"github.com/shopstock/backend/internal/domain/shared"
	"github.com/shopstock/backend/internal/interfaces/http/dto"
)

// SalesHandler handles sale HTTP endpoints
type SalesHandler struct {
	BaseHandler
	service *appsales.SaleService
}

// NewSalesHandler creates a new SalesHandler
func NewSalesHandler(service *appsales.SaleService) *SalesHandler {
	return &SalesHandler{service: service}
}

// ProcessSale handles POST /sales
func (h *SalesHandler) ProcessSale(c *gin.Context) {
	var req appsales.ProcessSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	sale, err := h.service.ProcessSale(c.Request.Context(), &req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, sale)
}

// GetSale handles GET /sales/:id
func (h *SalesHandler) GetSale(c *gin.Context) {
	saleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid ID format")
		return
	}

	sale, err := h.service.GetSale(c.Request.Context(), saleID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, sale)
}

// GetSaleByReceipt handles GET /sales/receipt/:number
func (h *SalesHandler) GetSaleByReceipt(c *gin.Context) {
	receiptNumber := c.Param("number")
	if receiptNumber == "" {
		h.BadRequest(c, "Receipt number is required")
		return
	}

	sale, err := h.service.GetSaleByReceipt(c.Request.Context(), receiptNumber)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, sale)
}

// GetSaleHistory handles GET /sales
func (h *SalesHandler) GetSaleHistory(c *gin.Context) {
	from, to, ok := h.parseDateRange(c)
	if !ok {
		return
	}

	listReq := dto.DefaultListRequest()
	if err := c.ShouldBindQuery(&listReq); err != nil {
		h.BadRequest(c, "Invalid query parameters: "+err.Error())
		return
	}

	filter := shared.Filter{Page: listReq.Page, PageSize: listReq.PageSize}
	history, err := h.service.GetSaleHistory(c.Request.Context(), from, to, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, history)
}

// GetSalesSummary handles GET /sales/summary
func (h *SalesHandler) GetSalesSummary(c *gin.Context) {
	from, to, ok := h.parseDateRange(c)
	if !ok {
		return
	}

	summary, err := h.service.GetSalesSummary(c.Request.Context(), from, to)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, summary)
}

// parseDateRange parses from/to query parameters, defaulting to the last 30 days
func (h *SalesHandler) parseDateRange(c *gin.Context) (time.Time, time.Time, bool) {
	now := time.Now()
	from := now.AddDate(0, 0, -30)
	to := now

	if s := c.Query("from"); s != "" {
		parsed, err := time.Parse(time.RFC3339, s)
		if err != nil {
			h.BadRequest(c, "Invalid 'from' date, expected RFC3339")
			return time.Time{}, time.Time{}, false
		}
		from = parsed
	}
	if s := c.Query("to"); s != "" {
		parsed, err := time.Parse(time.RFC3339, s)
		if err != nil {
			h.BadRequest(c, "Invalid 'to' date, expected RFC3339")
			return time.Time{}, time.Time{}, false
		}
		to = parsed
	}
	if to.Before(from) {
		h.BadRequest(c, "'to' must not be before 'from'")
		return time.Time{}, time.Time{}, false
	}
	return from, to, true
}

// RegisterRoutes registers sales routes
func (h *SalesHandler) RegisterRoutes(rg *gin.RouterGroup) {
	sales := rg.Group("/sales")
	{
		sales.POST("", h.ProcessSale)
		sales.GET("", h.GetSaleHistory)
		sales.GET("/summary", h.GetSalesSummary)
		sales.GET("/receipt/:number", h.GetSaleByReceipt)
		sales.GET(":id", h.GetSale)
	}
}
