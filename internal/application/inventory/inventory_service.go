package inventory

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/shopstock/backend/internal/domain/inventory"
	"github.com/shopstock/backend/internal/domain/shared"
)

const (
	// batchNumberRetries bounds regeneration attempts on a batch number collision
	batchNumberRetries = 3
)

// SummaryCache caches product summary responses. A nil-safe implementation
// backed by Redis lives in infrastructure/cache; the service works without
// one configured.
type SummaryCache interface {
	GetProduct(ctx context.Context, productID uuid.UUID) (*ProductResponse, bool)
	SetProduct(ctx context.Context, summary *ProductResponse)
	Invalidate(ctx context.Context, productID uuid.UUID)
}

// InventoryService handles product and batch business operations
type InventoryService struct {
	productRepo    inventory.ProductRepository
	batchRepo      inventory.BatchRepository
	scope          TransactionScope
	engine         *inventory.AllocationEngine
	cache          SummaryCache
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
	now            func() time.Time
}

// InventoryServiceOption configures an InventoryService
type InventoryServiceOption func(*InventoryService)

// WithSummaryCache attaches a product summary cache
func WithSummaryCache(cache SummaryCache) InventoryServiceOption {
	return func(s *InventoryService) {
		s.cache = cache
	}
}

// WithClock overrides the service clock, for tests
func WithClock(now func() time.Time) InventoryServiceOption {
	return func(s *InventoryService) {
		s.now = now
	}
}

// NewInventoryService creates a new InventoryService
func NewInventoryService(
	productRepo inventory.ProductRepository,
	batchRepo inventory.BatchRepository,
	scope TransactionScope,
	logger *zap.Logger,
	opts ...InventoryServiceOption,
) *InventoryService {
	s := &InventoryService{
		productRepo: productRepo,
		batchRepo:   batchRepo,
		scope:       scope,
		logger:      logger,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.engine = inventory.NewAllocationEngine(inventory.WithClock(s.now))
	return s
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *InventoryService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// CreateProduct registers a new product with empty stock
func (s *InventoryService) CreateProduct(ctx context.Context, req *CreateProductRequest) (*ProductResponse, error) {
	threshold := decimal.Zero
	if req.LowStockThreshold != nil {
		threshold = *req.LowStockThreshold
	}
	product, err := inventory.NewProduct(req.Name, threshold)
	if err != nil {
		return nil, err
	}

	if err := s.productRepo.Save(ctx, product); err != nil {
		return nil, err
	}

	s.logger.Info("product created",
		zap.String("product_id", product.ID.String()),
		zap.String("name", product.Name))

	return ToProductResponse(product), nil
}

// ReceiveBatch records a purchase batch for a product and refreshes the
// product roll-up. The batch and the roll-up update commit atomically. A
// missing purchase date defaults to the time of receipt.
func (s *InventoryService) ReceiveBatch(ctx context.Context, req *ReceiveBatchRequest) (*BatchResponse, error) {
	var created *inventory.InventoryBatch

	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		product, err := repos.Products().FindByID(ctx, req.ProductID)
		if err != nil {
			return err
		}

		batchNumber := req.BatchNumber
		if batchNumber == "" {
			batchNumber, err = s.uniqueBatchNumber(ctx, repos.Batches())
			if err != nil {
				return err
			}
		} else {
			exists, err := repos.Batches().ExistsByBatchNumber(ctx, batchNumber)
			if err != nil {
				return err
			}
			if exists {
				return shared.NewDomainError("DUPLICATE_BATCH_NUMBER", "Batch number already exists")
			}
		}

		purchaseDate := req.PurchaseDate
		if purchaseDate.IsZero() {
			purchaseDate = s.now()
		}

		batch, err := inventory.NewInventoryBatch(
			product.ID, batchNumber,
			req.BuyPrice, req.SellPriceAtPurchase, req.Quantity,
			purchaseDate, req.ExpiryDate, s.now(),
		)
		if err != nil {
			return err
		}
		batch.SupplierName = req.SupplierName
		batch.Notes = req.Notes

		if err := repos.Batches().Save(ctx, batch); err != nil {
			return err
		}

		if err := s.recomputeProduct(ctx, repos, product); err != nil {
			return err
		}

		created = batch
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, req.ProductID)
	s.publish(ctx, inventory.NewBatchReceivedEvent(created))

	s.logger.Info("batch received",
		zap.String("product_id", created.ProductID.String()),
		zap.String("batch_number", created.BatchNumber),
		zap.String("quantity", created.InitialQuantity.String()))

	return ToBatchResponse(created), nil
}

// CancelBatch removes an erroneously entered batch from availability. Any
// still-active batch can be cancelled, consumed or not; sales already made
// from it keep their recorded allocations.
func (s *InventoryService) CancelBatch(ctx context.Context, batchID uuid.UUID, req *CancelBatchRequest) (*BatchResponse, error) {
	var cancelled *inventory.InventoryBatch

	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		batch, err := repos.Batches().FindByID(ctx, batchID)
		if err != nil {
			return err
		}

		if err := batch.Cancel(req.Reason); err != nil {
			return err
		}
		if err := repos.Batches().Save(ctx, batch); err != nil {
			return err
		}

		product, err := repos.Products().FindByID(ctx, batch.ProductID)
		if err != nil {
			return err
		}
		if err := s.recomputeProduct(ctx, repos, product); err != nil {
			return err
		}

		cancelled = batch
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, cancelled.ProductID)
	s.publish(ctx, inventory.NewBatchCancelledEvent(cancelled))

	return ToBatchResponse(cancelled), nil
}

// GetProduct returns a product's summary, served from cache when available
func (s *InventoryService) GetProduct(ctx context.Context, productID uuid.UUID) (*ProductResponse, error) {
	if s.cache != nil {
		if summary, ok := s.cache.GetProduct(ctx, productID); ok {
			return summary, nil
		}
	}

	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	resp := ToProductResponse(product)
	if s.cache != nil {
		s.cache.SetProduct(ctx, resp)
	}
	return resp, nil
}

// ListProducts returns a page of product summaries
func (s *InventoryService) ListProducts(ctx context.Context, filter shared.Filter) (*shared.Paginated[*ProductResponse], error) {
	products, err := s.productRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.productRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	items := make([]*ProductResponse, 0, len(products))
	for i := range products {
		items = append(items, ToProductResponse(&products[i]))
	}
	page := shared.NewPaginated(items, total, filter.Page, filter.PageSize)
	return &page, nil
}

// ListLowStock returns products at or below their low stock threshold
func (s *InventoryService) ListLowStock(ctx context.Context) ([]*ProductResponse, error) {
	products, err := s.productRepo.FindBelowThreshold(ctx)
	if err != nil {
		return nil, err
	}
	items := make([]*ProductResponse, 0, len(products))
	for i := range products {
		items = append(items, ToProductResponse(&products[i]))
	}
	return items, nil
}

// GetAvailableBatches returns a product's sellable batches in consumption order
func (s *InventoryService) GetAvailableBatches(ctx context.Context, productID uuid.UUID) ([]*BatchResponse, error) {
	if _, err := s.productRepo.FindByID(ctx, productID); err != nil {
		return nil, err
	}
	batches, err := s.batchRepo.FindAvailable(ctx, productID)
	if err != nil {
		return nil, err
	}
	return ToBatchResponses(s.engine.AvailableBatches(productID, batches)), nil
}

// ListExpiringBatches returns active batches that expire within the window
func (s *InventoryService) ListExpiringBatches(ctx context.Context, withinDays int, filter shared.Filter) ([]*BatchResponse, error) {
	batches, err := s.batchRepo.FindExpiringSoon(ctx, withinDays, filter)
	if err != nil {
		return nil, err
	}
	return ToBatchResponses(batches), nil
}

// GetValuation returns the current cost valuation of a product's stock
func (s *InventoryService) GetValuation(ctx context.Context, productID uuid.UUID) (*ValuationResponse, error) {
	if _, err := s.productRepo.FindByID(ctx, productID); err != nil {
		return nil, err
	}
	batches, err := s.batchRepo.FindAvailable(ctx, productID)
	if err != nil {
		return nil, err
	}

	available := s.engine.AvailableBatches(productID, batches)
	totalCost := decimal.Zero
	totalQty := decimal.Zero
	for _, b := range available {
		totalCost = totalCost.Add(b.Value())
		totalQty = totalQty.Add(b.RemainingQuantity)
	}

	return &ValuationResponse{
		ProductID:     productID,
		TotalQuantity: totalQty,
		TotalCost:     totalCost.Round(2),
		BatchCount:    len(available),
	}, nil
}

// Reconcile checks a product's stored roll-up against its batches and
// repairs any drift by recomputing from the batch list. Recompute is
// idempotent, so repairing an already consistent product is a no-op.
func (s *InventoryService) Reconcile(ctx context.Context, productID uuid.UUID, repair bool) (*ReconcileResponse, error) {
	var result *ReconcileResponse

	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		product, err := repos.Products().FindByID(ctx, productID)
		if err != nil {
			return err
		}
		batches, err := repos.Batches().FindByProduct(ctx, productID)
		if err != nil {
			return err
		}

		rollup := inventory.ComputeRollup(batches, s.now())
		result = &ReconcileResponse{
			ProductID:      productID,
			StoredQuantity: product.TotalQuantity,
			LiveQuantity:   rollup.TotalQuantity,
		}

		checkErr := product.CheckConsistency(batches, s.now())
		result.Consistent = checkErr == nil
		if checkErr == nil || !repair {
			var drift *inventory.ConsistencyError
			if errors.As(checkErr, &drift) {
				s.logger.Warn("roll-up drift detected",
					zap.String("product_id", productID.String()),
					zap.String("stored", drift.StoredQuantity.String()),
					zap.String("live", drift.LiveQuantity.String()))
			}
			return nil
		}

		if err := s.recomputeProduct(ctx, repos, product); err != nil {
			return err
		}
		result.Repaired = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Repaired {
		s.invalidate(ctx, productID)
	}
	return result, nil
}

// recomputeProduct refreshes the roll-up from the product's full batch list
// and saves under the optimistic version check
func (s *InventoryService) recomputeProduct(ctx context.Context, repos TransactionalRepositories, product *inventory.Product) error {
	batches, err := repos.Batches().FindByProduct(ctx, product.ID)
	if err != nil {
		return err
	}
	product.Recompute(batches, s.now())
	if err := repos.Products().SaveWithLock(ctx, product); err != nil {
		return err
	}
	for _, event := range product.GetDomainEvents() {
		s.publish(ctx, event)
	}
	product.ClearDomainEvents()
	return nil
}

func (s *InventoryService) uniqueBatchNumber(ctx context.Context, repo inventory.BatchRepository) (string, error) {
	for i := 0; i < batchNumberRetries; i++ {
		candidate := inventory.GenerateBatchNumber(s.now())
		exists, err := repo.ExistsByBatchNumber(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
	}
	return "", shared.NewDomainError("BATCH_NUMBER_EXHAUSTED", "Could not generate a unique batch number")
}

func (s *InventoryService) invalidate(ctx context.Context, productID uuid.UUID) {
	if s.cache != nil {
		s.cache.Invalidate(ctx, productID)
	}
}

func (s *InventoryService) publish(ctx context.Context, event shared.DomainEvent) {
	if s.eventPublisher == nil || event == nil {
		return
	}
	if err := s.eventPublisher.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to publish domain event",
			zap.String("event_type", event.EventType()),
			zap.Error(err))
	}
}

// IsNotFound reports whether the error is a not-found domain error
func IsNotFound(err error) bool {
	return errors.Is(err, shared.ErrNotFound)
}
