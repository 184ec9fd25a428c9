package sales

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shopstock/backend/internal/domain/sales"
	"github.com/shopstock/backend/internal/domain/shared"
)

// FieldError describes one invalid field in a request
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError aggregates every field problem found in a single
// validation pass, so a caller can fix all of them at once instead of
// discovering them one round trip at a time.
type ValidationError struct {
	Fields []FieldError
}

// Error returns the validation error message
func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Unwrap allows errors.Is checks against the validation sentinel
func (e *ValidationError) Unwrap() error {
	return shared.ErrValidation
}

func (e *ValidationError) add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

func (e *ValidationError) hasErrors() bool {
	return len(e.Fields) > 0
}

// SaleLineRequest is one requested product line in a sale
type SaleLineRequest struct {
	ProductID     uuid.UUID       `json:"product_id" binding:"required"`
	Quantity      decimal.Decimal `json:"quantity" binding:"required,dgt0"`
	UnitSellPrice decimal.Decimal `json:"unit_sell_price" binding:"required,dgte0"`
	LineTotal     decimal.Decimal `json:"line_total" binding:"required,dgte0"`
}

// ProcessSaleRequest is a request to record a multi-line sale
type ProcessSaleRequest struct {
	Lines       []SaleLineRequest `json:"lines" binding:"required,min=1,dive"`
	TotalAmount decimal.Decimal   `json:"total_amount" binding:"required"`
	Note        string            `json:"note" binding:"max=500"`
}

// AllocationResponse is one batch consumption in a sale line response
type AllocationResponse struct {
	BatchID     uuid.UUID       `json:"batch_id"`
	BatchNumber string          `json:"batch_number"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitCost    decimal.Decimal `json:"unit_cost"`
	Profit      decimal.Decimal `json:"profit"`
}

// SaleLineResponse is one line in a sale response
type SaleLineResponse struct {
	ID            uuid.UUID            `json:"id"`
	ProductID     uuid.UUID            `json:"product_id"`
	ProductName   string               `json:"product_name"`
	Quantity      decimal.Decimal      `json:"quantity"`
	UnitSellPrice decimal.Decimal      `json:"unit_sell_price"`
	LineTotal     decimal.Decimal      `json:"line_total"`
	Profit        decimal.Decimal      `json:"profit"`
	Allocations   []AllocationResponse `json:"allocations"`
}

// SaleResponse represents a completed sale in API responses
type SaleResponse struct {
	ID            uuid.UUID          `json:"id"`
	ReceiptNumber string             `json:"receipt_number"`
	TotalAmount   decimal.Decimal    `json:"total_amount"`
	TotalProfit   decimal.Decimal    `json:"total_profit"`
	SoldAt        time.Time          `json:"sold_at"`
	Note          string             `json:"note,omitempty"`
	Lines         []SaleLineResponse `json:"lines"`
}

// SalesSummaryResponse aggregates sales over a date range
type SalesSummaryResponse struct {
	From         time.Time       `json:"from"`
	To           time.Time       `json:"to"`
	SaleCount    int             `json:"sale_count"`
	TotalRevenue decimal.Decimal `json:"total_revenue"`
	TotalCost    decimal.Decimal `json:"total_cost"`
	TotalProfit  decimal.Decimal `json:"total_profit"`
	Margin       decimal.Decimal `json:"margin"` // profit over revenue, 0 when no revenue
}

// ToSaleResponse converts a sale to its response representation
func ToSaleResponse(sale *sales.Sale) *SaleResponse {
	lines := make([]SaleLineResponse, 0, len(sale.Lines))
	for _, line := range sale.Lines {
		allocations := make([]AllocationResponse, 0, len(line.Allocations))
		for _, a := range line.Allocations {
			allocations = append(allocations, AllocationResponse{
				BatchID:     a.BatchID,
				BatchNumber: a.BatchNumber,
				Quantity:    a.Quantity,
				UnitCost:    a.UnitCost,
				Profit:      a.Profit,
			})
		}
		lines = append(lines, SaleLineResponse{
			ID:            line.ID,
			ProductID:     line.ProductID,
			ProductName:   line.ProductName,
			Quantity:      line.Quantity,
			UnitSellPrice: line.UnitSellPrice,
			LineTotal:     line.LineTotal,
			Profit:        line.Profit,
			Allocations:   allocations,
		})
	}

	return &SaleResponse{
		ID:            sale.ID,
		ReceiptNumber: sale.ReceiptNumber,
		TotalAmount:   sale.TotalAmount,
		TotalProfit:   sale.TotalProfit,
		SoldAt:        sale.SoldAt,
		Note:          sale.Note,
		Lines:         lines,
	}
}
