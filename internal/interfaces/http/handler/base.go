package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appsales "github.com/shopstock/backend/internal/application/sales"
	"github.com/shopstock/backend/internal/domain/inventory"
	"github.com/shopstock/backend/internal/domain/shared"
	"github.com/shopstock/backend/internal/infrastructure/logger"
	"github.com/shopstock/backend/internal/interfaces/http/dto"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// getRequestID extracts the request ID from the context
func getRequestID(c *gin.Context) string {
	if id := c.GetString("request_id"); id != "" {
		return id
	}
	if id := logger.GetRequestID(c.Request.Context()); id != "" {
		return id
	}
	return c.GetHeader("X-Request-ID")
}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// SuccessWithMeta sends a success response with pagination meta
func (h *BaseHandler) SuccessWithMeta(c *gin.Context, data any, total int64, page, pageSize int) {
	c.JSON(http.StatusOK, dto.NewSuccessResponseWithMeta(data, total, page, pageSize))
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// Error sends an error response with the given status code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, dto.NewErrorResponseWithRequestID(code, message, getRequestID(c)))
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// NotFound sends a 404 not found response
func (h *BaseHandler) NotFound(c *gin.Context, message string) {
	h.Error(c, http.StatusNotFound, dto.ErrCodeNotFound, message)
}

// HandleError maps application and domain errors to HTTP responses
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	var validationErr *appsales.ValidationError
	if errors.As(err, &validationErr) {
		fields := make([]dto.FieldError, 0, len(validationErr.Fields))
		for _, f := range validationErr.Fields {
			fields = append(fields, dto.FieldError{Field: f.Field, Message: f.Message})
		}
		c.JSON(http.StatusBadRequest, dto.Response{
			Success: false,
			Error: &dto.ErrorInfo{
				Code:      dto.ErrCodeValidation,
				Message:   "Request validation failed",
				Fields:    fields,
				RequestID: getRequestID(c),
			},
		})
		return
	}

	var stockErr *inventory.InsufficientStockError
	if errors.As(err, &stockErr) {
		h.Error(c, http.StatusUnprocessableEntity, dto.ErrCodeInsufficientStock, stockErr.Error())
		return
	}

	var consistencyErr *inventory.ConsistencyError
	if errors.As(err, &consistencyErr) {
		h.Error(c, http.StatusInternalServerError, dto.ErrCodeConsistency, consistencyErr.Error())
		return
	}

	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		code, status := mapDomainCode(domainErr.Code)
		h.Error(c, status, code, domainErr.Message)
		return
	}

	logger.FromContext(c.Request.Context()).Error("unhandled error", zap.Error(err))
	h.Error(c, http.StatusInternalServerError, dto.ErrCodeInternal, "An internal error occurred")
}

// mapDomainCode maps domain error codes to API error codes and statuses
func mapDomainCode(code string) (string, int) {
	switch code {
	case "NOT_FOUND":
		return dto.ErrCodeNotFound, http.StatusNotFound
	case "ALREADY_EXISTS", "DUPLICATE_BATCH_NUMBER":
		return dto.ErrCodeAlreadyExists, http.StatusConflict
	case "CONCURRENCY_CONFLICT":
		return dto.ErrCodeConcurrencyConflict, http.StatusConflict
	case "INSUFFICIENT_STOCK":
		return dto.ErrCodeInsufficientStock, http.StatusUnprocessableEntity
	case "INVALID_STATE", "CONSUME_EXCEEDS_REMAINING":
		return dto.ErrCodeInvalidState, http.StatusUnprocessableEntity
	case "VALIDATION_FAILED":
		return dto.ErrCodeValidation, http.StatusBadRequest
	case "CONSISTENCY_VIOLATION":
		return dto.ErrCodeConsistency, http.StatusInternalServerError
	default:
		// Domain construction errors (INVALID_*) are client input problems
		if len(code) > 8 && code[:8] == "INVALID_" {
			return dto.ErrCodeInvalidInput, http.StatusBadRequest
		}
		return dto.ErrCodeBusinessRule, http.StatusUnprocessableEntity
	}
}
