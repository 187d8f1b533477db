package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"vendor-management-api/internal/models"
	"vendor-management-api/internal/performance"
)

const snapshotColumns = `id, vendor_id, date,
	on_time_delivery_rate, quality_rating_avg, average_response_time, fulfillment_rate`

func scanSnapshot(row scanner, extra ...any) (models.HistoricalPerformance, error) {
	var h models.HistoricalPerformance
	dest := []any{
		&h.ID, &h.VendorID, &h.Date,
		&h.OnTimeDeliveryRate, &h.QualityRatingAvg, &h.AverageResponseTime, &h.FulfillmentRate,
	}
	err := row.Scan(append(dest, extra...)...)
	return h, err
}

// txRepo backs the Recalculator with whatever querier the caller holds,
// normally the transaction of the triggering mutation.
type txRepo struct {
	q querier
}

var _ performance.Repository = txRepo{}

func (r txRepo) VendorPerformance(ctx context.Context, vendorID int64) (models.Performance, error) {
	var p models.Performance
	err := r.q.QueryRowContext(ctx, `
		SELECT on_time_delivery_rate, quality_rating_avg, average_response_time, fulfillment_rate
		FROM vendors WHERE id = $1`, vendorID).
		Scan(&p.OnTimeDeliveryRate, &p.QualityRatingAvg, &p.AverageResponseTime, &p.FulfillmentRate)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Performance{}, ErrNotFound
	}
	if err != nil {
		return models.Performance{}, fmt.Errorf("vendor %d performance: %w", vendorID, err)
	}
	return p, nil
}

func (r txRepo) VendorOrders(ctx context.Context, vendorID int64) ([]models.PurchaseOrder, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT `+purchaseOrderColumns+` FROM purchase_orders WHERE vendor_id = $1 ORDER BY id`, vendorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []models.PurchaseOrder
	for rows.Next() {
		po, err := scanPurchaseOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, po)
	}
	return orders, rows.Err()
}

func (r txRepo) SetVendorPerformance(ctx context.Context, vendorID int64, p models.Performance) error {
	res, err := r.q.ExecContext(ctx, `
		UPDATE vendors
		SET on_time_delivery_rate = $1, quality_rating_avg = $2, average_response_time = $3, fulfillment_rate = $4
		WHERE id = $5`,
		p.OnTimeDeliveryRate, p.QualityRatingAvg, p.AverageResponseTime, p.FulfillmentRate, vendorID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r txRepo) LatestSnapshot(ctx context.Context, vendorID int64) (*models.HistoricalPerformance, error) {
	h, err := scanSnapshot(r.q.QueryRowContext(ctx, `
		SELECT `+snapshotColumns+`
		FROM historical_performances
		WHERE vendor_id = $1
		ORDER BY date DESC, id DESC
		LIMIT 1`, vendorID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &h, nil
}

func (r txRepo) AppendSnapshot(ctx context.Context, vendorID int64, p models.Performance, at time.Time) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO historical_performances
			(vendor_id, date, on_time_delivery_rate, quality_rating_avg, average_response_time, fulfillment_rate)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		vendorID, at.UTC(), p.OnTimeDeliveryRate, p.QualityRatingAvg, p.AverageResponseTime, p.FulfillmentRate)
	return err
}
