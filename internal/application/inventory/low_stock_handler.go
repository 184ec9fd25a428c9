package inventory

import (
	"context"

	"go.uber.org/zap"

	"github.com/shopstock/backend/internal/domain/inventory"
	"github.com/shopstock/backend/internal/domain/shared"
)

// LowStockAlertHandler logs a warning whenever a product roll-up drops
// below its configured threshold. Operators watch for these entries.
type LowStockAlertHandler struct {
	logger *zap.Logger
}

// NewLowStockAlertHandler creates a new LowStockAlertHandler
func NewLowStockAlertHandler(logger *zap.Logger) *LowStockAlertHandler {
	return &LowStockAlertHandler{logger: logger}
}

// Handle processes a stock below threshold event
func (h *LowStockAlertHandler) Handle(_ context.Context, event shared.DomainEvent) error {
	evt, ok := event.(*inventory.StockBelowThresholdEvent)
	if !ok {
		return nil
	}
	h.logger.Warn("product stock below threshold",
		zap.String("product_id", evt.AggregateID().String()),
		zap.String("product_name", evt.ProductName),
		zap.String("total_quantity", evt.TotalQuantity.String()),
		zap.String("threshold", evt.Threshold.String()),
	)
	return nil
}

// EventTypes returns the event types this handler subscribes to
func (h *LowStockAlertHandler) EventTypes() []string {
	return []string{inventory.EventTypeStockBelowThreshold}
}

var _ shared.EventHandler = (*LowStockAlertHandler)(nil)
