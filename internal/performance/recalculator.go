package performance

import (
	"context"
	"fmt"
	"time"

	"vendor-management-api/internal/models"

	"go.uber.org/zap"
)

// Repository is the storage the Recalculator reads from and writes to.
// Implementations are expected to be scoped to the caller's transaction.
type Repository interface {
	VendorPerformance(ctx context.Context, vendorID int64) (models.Performance, error)
	VendorOrders(ctx context.Context, vendorID int64) ([]models.PurchaseOrder, error)
	SetVendorPerformance(ctx context.Context, vendorID int64, p models.Performance) error
	// LatestSnapshot returns nil, nil when the vendor has no history yet.
	LatestSnapshot(ctx context.Context, vendorID int64) (*models.HistoricalPerformance, error)
	AppendSnapshot(ctx context.Context, vendorID int64, p models.Performance, at time.Time) error
}

// Observer is notified after every successful recalculation.
type Observer interface {
	ObserveRecalculation(snapshotted bool)
}

// Result is the outcome of one recalculation.
type Result struct {
	Performance models.Performance
	Snapshotted bool
}

type Recalculator struct {
	log      *zap.Logger
	now      func() time.Time
	observer Observer
}

type Option func(*Recalculator)

// WithClock overrides the time source used for snapshot dates.
func WithClock(now func() time.Time) Option {
	return func(r *Recalculator) { r.now = now }
}

func WithObserver(o Observer) Option {
	return func(r *Recalculator) { r.observer = o }
}

func NewRecalculator(log *zap.Logger, opts ...Option) *Recalculator {
	if log == nil {
		log = zap.NewNop()
	}
	r := &Recalculator{log: log, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Recalculate recomputes a vendor's metrics from its current orders, stores
// them on the vendor and appends a snapshot when they differ from the latest one.
func (r *Recalculator) Recalculate(ctx context.Context, repo Repository, vendorID int64) (Result, error) {
	prev, err := repo.VendorPerformance(ctx, vendorID)
	if err != nil {
		return Result{}, fmt.Errorf("load vendor %d performance: %w", vendorID, err)
	}
	orders, err := repo.VendorOrders(ctx, vendorID)
	if err != nil {
		return Result{}, fmt.Errorf("load vendor %d orders: %w", vendorID, err)
	}

	next := Compute(prev, orders)
	if err := repo.SetVendorPerformance(ctx, vendorID, next); err != nil {
		return Result{}, fmt.Errorf("store vendor %d performance: %w", vendorID, err)
	}

	latest, err := repo.LatestSnapshot(ctx, vendorID)
	if err != nil {
		return Result{}, fmt.Errorf("load vendor %d history: %w", vendorID, err)
	}
	res := Result{Performance: next}
	if latest == nil || latest.Performance.Differs(next) {
		if err := repo.AppendSnapshot(ctx, vendorID, next, r.now()); err != nil {
			return Result{}, fmt.Errorf("append vendor %d snapshot: %w", vendorID, err)
		}
		res.Snapshotted = true
	}

	r.log.Debug("vendor performance recalculated",
		zap.Int64("vendor_id", vendorID),
		zap.Int("orders", len(orders)),
		zap.Float64("on_time_delivery_rate", next.OnTimeDeliveryRate),
		zap.Float64("quality_rating_avg", next.QualityRatingAvg),
		zap.Float64("average_response_time", next.AverageResponseTime),
		zap.Float64("fulfillment_rate", next.FulfillmentRate),
		zap.Bool("snapshotted", res.Snapshotted))

	if r.observer != nil {
		r.observer.ObserveRecalculation(res.Snapshotted)
	}
	return res, nil
}
