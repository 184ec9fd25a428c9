package inventory

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shopstock/backend/internal/domain/shared"
)

// ConsistencyError reports that a product's stored rollup diverged from the
// live batch sum beyond tolerance. It is never shown to end users; only the
// operational repair path sees it.
type ConsistencyError struct {
	ProductID      uuid.UUID
	StoredQuantity decimal.Decimal
	LiveQuantity   decimal.Decimal
}

// Error implements the error interface
func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("product %s rollup diverged: stored=%s live=%s",
		e.ProductID, e.StoredQuantity.String(), e.LiveQuantity.String())
}

// Drift returns the signed difference between stored and live quantity
func (e *ConsistencyError) Drift() decimal.Decimal {
	return e.StoredQuantity.Sub(e.LiveQuantity)
}

// Unwrap allows errors.Is(err, shared.ErrConsistency)
func (e *ConsistencyError) Unwrap() error {
	return shared.ErrConsistency
}
