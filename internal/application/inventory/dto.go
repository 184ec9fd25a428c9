package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shopstock/backend/internal/domain/inventory"
)

// CreateProductRequest represents a request to register a new product
type CreateProductRequest struct {
	Name              string           `json:"name" binding:"required,min=1,max=255"`
	LowStockThreshold *decimal.Decimal `json:"low_stock_threshold"`
}

// ReceiveBatchRequest represents a request to receive a purchase batch
type ReceiveBatchRequest struct {
	ProductID           uuid.UUID       `json:"product_id" binding:"required"`
	BuyPrice            decimal.Decimal `json:"buy_price" binding:"required,dgte0"`
	SellPriceAtPurchase decimal.Decimal `json:"sell_price_at_purchase" binding:"required,dgte0"`
	Quantity            decimal.Decimal `json:"quantity" binding:"required,dgt0"`
	PurchaseDate        time.Time       `json:"purchase_date"` // defaults to now when omitted
	ExpiryDate          *time.Time      `json:"expiry_date"`
	BatchNumber         string          `json:"batch_number"`
	SupplierName        string          `json:"supplier_name"`
	Notes               string          `json:"notes"`
}

// CancelBatchRequest represents a request to cancel an erroneous batch
type CancelBatchRequest struct {
	Reason string `json:"reason" binding:"required,min=1,max=255"`
}

// ProductResponse represents a product summary in API responses
type ProductResponse struct {
	ID                uuid.UUID       `json:"id"`
	Name              string          `json:"name"`
	TotalQuantity     decimal.Decimal `json:"total_quantity"`
	WeightedBuyPrice  decimal.Decimal `json:"weighted_buy_price"`
	WeightedSellPrice decimal.Decimal `json:"weighted_sell_price"`
	LowStockThreshold decimal.Decimal `json:"low_stock_threshold"`
	IsBelowThreshold  bool            `json:"is_below_threshold"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
	Version           int             `json:"version"`
}

// BatchResponse represents a batch in API responses
type BatchResponse struct {
	ID                  uuid.UUID       `json:"id"`
	ProductID           uuid.UUID       `json:"product_id"`
	BatchNumber         string          `json:"batch_number"`
	BuyPrice            decimal.Decimal `json:"buy_price"`
	SellPriceAtPurchase decimal.Decimal `json:"sell_price_at_purchase"`
	InitialQuantity     decimal.Decimal `json:"initial_quantity"`
	RemainingQuantity   decimal.Decimal `json:"remaining_quantity"`
	PurchaseDate        time.Time       `json:"purchase_date"`
	ExpiryDate          *time.Time      `json:"expiry_date"`
	Status              string          `json:"status"`
	SupplierName        string          `json:"supplier_name,omitempty"`
	Notes               string          `json:"notes,omitempty"`
	CancelReason        string          `json:"cancel_reason,omitempty"`
	CreatedAt           time.Time       `json:"created_at"`
}

// ValuationResponse represents the current inventory valuation of a product
type ValuationResponse struct {
	ProductID     uuid.UUID       `json:"product_id"`
	TotalQuantity decimal.Decimal `json:"total_quantity"`
	TotalCost     decimal.Decimal `json:"total_cost"`
	BatchCount    int             `json:"batch_count"`
}

// ReconcileResponse reports the outcome of a consistency check for one product
type ReconcileResponse struct {
	ProductID      uuid.UUID       `json:"product_id"`
	Consistent     bool            `json:"consistent"`
	StoredQuantity decimal.Decimal `json:"stored_quantity"`
	LiveQuantity   decimal.Decimal `json:"live_quantity"`
	Repaired       bool            `json:"repaired"`
}

// ToProductResponse converts a product to its response representation
func ToProductResponse(p *inventory.Product) *ProductResponse {
	return &ProductResponse{
		ID:                p.ID,
		Name:              p.Name,
		TotalQuantity:     p.TotalQuantity,
		WeightedBuyPrice:  p.WeightedBuyPrice,
		WeightedSellPrice: p.WeightedSellPrice,
		LowStockThreshold: p.LowStockThreshold,
		IsBelowThreshold:  p.IsBelowThreshold(),
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
		Version:           p.Version,
	}
}

// ToBatchResponse converts a batch to its response representation
func ToBatchResponse(b *inventory.InventoryBatch) *BatchResponse {
	return &BatchResponse{
		ID:                  b.ID,
		ProductID:           b.ProductID,
		BatchNumber:         b.BatchNumber,
		BuyPrice:            b.BuyPrice,
		SellPriceAtPurchase: b.SellPriceAtPurchase,
		InitialQuantity:     b.InitialQuantity,
		RemainingQuantity:   b.RemainingQuantity,
		PurchaseDate:        b.PurchaseDate,
		ExpiryDate:          b.ExpiryDate,
		Status:              b.Status.String(),
		SupplierName:        b.SupplierName,
		Notes:               b.Notes,
		CancelReason:        b.CancelReason,
		CreatedAt:           b.CreatedAt,
	}
}

// ToBatchResponses converts a batch slice to response representations
func ToBatchResponses(batches []inventory.InventoryBatch) []*BatchResponse {
	responses := make([]*BatchResponse, 0, len(batches))
	for i := range batches {
		responses = append(responses, ToBatchResponse(&batches[i]))
	}
	return responses
}
