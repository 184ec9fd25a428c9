package sales

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	appinv "github.com/shopstock/backend/internal/application/inventory"
	"github.com/shopstock/backend/internal/domain/inventory"
	"github.com/shopstock/backend/internal/domain/sales"
	"github.com/shopstock/backend/internal/domain/shared"
)

const (
	// maxCommitRetries bounds re-execution when a concurrent sale wins the
	// optimistic version check first
	maxCommitRetries = 3
)

// saleTolerance is the currency tolerance for client-supplied totals
var saleTolerance = decimal.NewFromFloat(0.01)

// SaleService orchestrates the multi-step sale transaction: validate every
// line, allocate stock in FIFO order, consume batches, refresh product
// roll-ups and record the immutable sale, all inside one transaction scope.
type SaleService struct {
	scope          appinv.TransactionScope
	saleRepo       sales.SaleRepository
	engine         *inventory.AllocationEngine
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
	now            func() time.Time
}

// SaleServiceOption configures a SaleService
type SaleServiceOption func(*SaleService)

// WithClock overrides the service clock, for tests
func WithClock(now func() time.Time) SaleServiceOption {
	return func(s *SaleService) {
		s.now = now
	}
}

// NewSaleService creates a new SaleService
func NewSaleService(
	scope appinv.TransactionScope,
	saleRepo sales.SaleRepository,
	logger *zap.Logger,
	opts ...SaleServiceOption,
) *SaleService {
	s := &SaleService{
		scope:    scope,
		saleRepo: saleRepo,
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.engine = inventory.NewAllocationEngine(inventory.WithClock(s.now))
	return s
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *SaleService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// productState tracks one product's live entities across the lines of an
// in-flight sale, so a later line for the same product sees the consumption
// of an earlier one.
type productState struct {
	product *inventory.Product
	batches []*inventory.InventoryBatch
	touched map[uuid.UUID]bool
}

func (st *productState) snapshot() []inventory.InventoryBatch {
	out := make([]inventory.InventoryBatch, len(st.batches))
	for i, b := range st.batches {
		out[i] = *b
	}
	return out
}

// consumedBatches returns copies of only the batches this sale drew from
func (st *productState) consumedBatches() []inventory.InventoryBatch {
	out := make([]inventory.InventoryBatch, 0, len(st.touched))
	for _, b := range st.batches {
		if st.touched[b.ID] {
			out = append(out, *b)
		}
	}
	return out
}

// ProcessSale records a multi-line sale atomically. Either every line
// allocates, every batch consumption commits and the sale record is written,
// or nothing changes at all. The receipt number is generated only once the
// sale is about to commit, so failed attempts never produce receipt IDs.
//
// When a concurrent sale wins the product version check first, the whole
// transaction is re-executed against fresh state, a bounded number of times.
func (s *SaleService) ProcessSale(ctx context.Context, req *ProcessSaleRequest) (*SaleResponse, error) {
	if err := validateProcessSale(req); err != nil {
		return nil, err
	}

	var (
		created *sales.Sale
		events  []shared.DomainEvent
	)

	var err error
	for attempt := 0; attempt < maxCommitRetries; attempt++ {
		created, events, err = s.executeSale(ctx, req)
		if err == nil {
			break
		}
		if !errors.Is(err, shared.ErrConcurrencyConflict) {
			return nil, err
		}
		s.logger.Debug("sale commit lost version check, retrying",
			zap.Int("attempt", attempt+1))
	}
	if err != nil {
		return nil, err
	}

	for _, event := range events {
		s.publish(ctx, event)
	}
	for _, event := range created.GetDomainEvents() {
		s.publish(ctx, event)
	}
	created.ClearDomainEvents()

	s.logger.Info("sale recorded",
		zap.String("receipt_number", created.ReceiptNumber),
		zap.Int("lines", len(created.Lines)),
		zap.String("total_amount", created.TotalAmount.String()))

	return ToSaleResponse(created), nil
}

// executeSale runs one transactional attempt of the sale
func (s *SaleService) executeSale(ctx context.Context, req *ProcessSaleRequest) (*sales.Sale, []shared.DomainEvent, error) {
	var (
		created *sales.Sale
		events  []shared.DomainEvent
	)

	err := s.scope.Execute(ctx, func(repos appinv.TransactionalRepositories) error {
		states := make(map[uuid.UUID]*productState)
		saleLines := make([]*sales.SaleLine, 0, len(req.Lines))

		for _, lineReq := range req.Lines {
			state, ok := states[lineReq.ProductID]
			if !ok {
				var err error
				state, err = s.loadProductState(ctx, repos, lineReq.ProductID)
				if err != nil {
					return err
				}
				states[lineReq.ProductID] = state
			}

			result, err := s.engine.Allocate(lineReq.ProductID, lineReq.Quantity, state.snapshot())
			if err != nil {
				return err
			}

			line, err := sales.NewSaleLine(
				lineReq.ProductID, state.product.Name,
				lineReq.Quantity, lineReq.UnitSellPrice, lineReq.LineTotal,
			)
			if err != nil {
				return err
			}
			if err := line.AttachAllocation(result, s.now()); err != nil {
				return err
			}
			if err := inventory.ApplyAllocation(state.batches, result); err != nil {
				return err
			}
			for _, c := range result.Consumptions {
				state.touched[c.BatchID] = true
			}

			saleLines = append(saleLines, line)
		}

		for _, state := range states {
			// Only the batches this sale actually drew from are rewritten
			// and announced. Batches depleted by earlier sales stay as they
			// are.
			consumed := state.consumedBatches()
			if err := repos.Batches().SaveAll(ctx, consumed); err != nil {
				return err
			}
			for i := range consumed {
				if consumed[i].Status == inventory.BatchStatusDepleted {
					events = append(events, inventory.NewBatchDepletedEvent(&consumed[i]))
				}
			}

			state.product.Recompute(state.snapshot(), s.now())
			if err := repos.Products().SaveWithLock(ctx, state.product); err != nil {
				return err
			}
			events = append(events, state.product.GetDomainEvents()...)
			state.product.ClearDomainEvents()
		}

		sale, err := sales.NewSale(
			sales.GenerateReceiptNumber(s.now()),
			saleLines, req.TotalAmount, req.Note,
		)
		if err != nil {
			return err
		}
		if err := repos.Sales().Create(ctx, sale); err != nil {
			return err
		}

		created = sale
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return created, events, nil
}

func (s *SaleService) loadProductState(ctx context.Context, repos appinv.TransactionalRepositories, productID uuid.UUID) (*productState, error) {
	product, err := repos.Products().FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	batchList, err := repos.Batches().FindByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	ptrs := make([]*inventory.InventoryBatch, len(batchList))
	for i := range batchList {
		ptrs[i] = &batchList[i]
	}
	return &productState{
		product: product,
		batches: ptrs,
		touched: make(map[uuid.UUID]bool),
	}, nil
}

// GetSale returns a sale by its ID
func (s *SaleService) GetSale(ctx context.Context, saleID uuid.UUID) (*SaleResponse, error) {
	sale, err := s.saleRepo.FindByID(ctx, saleID)
	if err != nil {
		return nil, err
	}
	return ToSaleResponse(sale), nil
}

// GetSaleByReceipt returns a sale by its receipt number
func (s *SaleService) GetSaleByReceipt(ctx context.Context, receiptNumber string) (*SaleResponse, error) {
	sale, err := s.saleRepo.FindByReceiptNumber(ctx, receiptNumber)
	if err != nil {
		return nil, err
	}
	return ToSaleResponse(sale), nil
}

// GetSaleHistory returns sales in the date range, newest first
func (s *SaleService) GetSaleHistory(ctx context.Context, from, to time.Time, filter shared.Filter) ([]*SaleResponse, error) {
	found, err := s.saleRepo.FindByDateRange(ctx, from, to, filter)
	if err != nil {
		return nil, err
	}
	responses := make([]*SaleResponse, 0, len(found))
	for _, sale := range found {
		responses = append(responses, ToSaleResponse(sale))
	}
	return responses, nil
}

// GetSalesSummary aggregates revenue, cost and profit over a date range
func (s *SaleService) GetSalesSummary(ctx context.Context, from, to time.Time) (*SalesSummaryResponse, error) {
	filter := shared.Filter{Page: 1, PageSize: summaryPageSize}
	summary := &SalesSummaryResponse{
		From:         from,
		To:           to,
		TotalRevenue: decimal.Zero,
		TotalCost:    decimal.Zero,
		TotalProfit:  decimal.Zero,
	}

	for {
		page, err := s.saleRepo.FindByDateRange(ctx, from, to, filter)
		if err != nil {
			return nil, err
		}
		for _, sale := range page {
			summary.SaleCount++
			summary.TotalRevenue = summary.TotalRevenue.Add(sale.TotalAmount)
			summary.TotalCost = summary.TotalCost.Add(sale.TotalCost)
			summary.TotalProfit = summary.TotalProfit.Add(sale.TotalProfit)
		}
		if len(page) < filter.PageSize {
			break
		}
		filter.Page++
	}

	summary.TotalCost = summary.TotalCost.Round(2)
	if summary.TotalRevenue.IsPositive() {
		summary.Margin = summary.TotalProfit.Div(summary.TotalRevenue).Round(4)
	} else {
		summary.Margin = decimal.Zero
	}
	return summary, nil
}

// summaryPageSize is the scan page size for summary aggregation
const summaryPageSize = 500

func (s *SaleService) publish(ctx context.Context, event shared.DomainEvent) {
	if s.eventPublisher == nil || event == nil {
		return
	}
	if err := s.eventPublisher.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to publish domain event",
			zap.String("event_type", event.EventType()),
			zap.Error(err))
	}
}

// validateProcessSale checks the whole request in a single pass and reports
// every invalid field at once
func validateProcessSale(req *ProcessSaleRequest) error {
	verr := &ValidationError{}

	if len(req.Lines) == 0 {
		verr.add("lines", "at least one line is required")
	}

	lineSum := decimal.Zero
	for i, line := range req.Lines {
		prefix := fmt.Sprintf("lines[%d]", i)
		if line.ProductID == uuid.Nil {
			verr.add(prefix+".product_id", "product id is required")
		}
		if line.Quantity.LessThanOrEqual(decimal.Zero) {
			verr.add(prefix+".quantity", "quantity must be positive")
		}
		if line.UnitSellPrice.IsNegative() {
			verr.add(prefix+".unit_sell_price", "unit sell price cannot be negative")
		}
		expected := line.Quantity.Mul(line.UnitSellPrice)
		if line.LineTotal.Sub(expected).Abs().GreaterThan(saleTolerance) {
			verr.add(prefix+".line_total", "line total does not match quantity times unit price")
		}
		lineSum = lineSum.Add(line.LineTotal)
	}

	if len(req.Lines) > 0 && req.TotalAmount.Sub(lineSum).Abs().GreaterThan(saleTolerance) {
		verr.add("total_amount", "total amount does not match the sum of line totals")
	}

	if verr.hasErrors() {
		return verr
	}
	return nil
}
