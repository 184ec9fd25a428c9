package sales

import (
	"github.com/shopspring/decimal"

	"github.com/shopstock/backend/internal/domain/shared"
)

const (
	EventTypeSaleCompleted = "sales.sale_completed"
)

// SaleCompletedEvent is emitted when a sale commits
type SaleCompletedEvent struct {
	shared.BaseDomainEvent
	ReceiptNumber string          `json:"receipt_number"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	TotalProfit   decimal.Decimal `json:"total_profit"`
	LineCount     int             `json:"line_count"`
}

// NewSaleCompletedEvent creates a sale completed event
func NewSaleCompletedEvent(sale *Sale) *SaleCompletedEvent {
	return &SaleCompletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSaleCompleted, "Sale", sale.ID),
		ReceiptNumber:   sale.ReceiptNumber,
		TotalAmount:     sale.TotalAmount,
		TotalProfit:     sale.TotalProfit,
		LineCount:       len(sale.Lines),
	}
}
