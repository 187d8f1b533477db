// Package performance derives vendor performance metrics from purchase orders.
package performance

import "vendor-management-api/internal/models"

// Compute derives all four metrics from a vendor's orders. prev supplies the
// quality and response-time values that are kept when no order qualifies.
func Compute(prev models.Performance, orders []models.PurchaseOrder) models.Performance {
	out := prev
	out.OnTimeDeliveryRate = OnTimeDeliveryRate(orders)
	if avg, ok := QualityRatingAvg(orders); ok {
		out.QualityRatingAvg = avg
	}
	if avg, ok := AverageResponseTime(orders); ok {
		out.AverageResponseTime = avg
	}
	out.FulfillmentRate = FulfillmentRate(orders)
	return out
}

// OnTimeDeliveryRate is the percentage of completed orders whose delivery
// date is not after their acknowledgment date. Unacknowledged completed
// orders count as late. Returns 0 when there are no completed orders.
func OnTimeDeliveryRate(orders []models.PurchaseOrder) float64 {
	var completed, onTime int
	for _, po := range orders {
		if !po.Completed() {
			continue
		}
		completed++
		if po.AcknowledgmentDate != nil && !po.DeliveryDate.After(*po.AcknowledgmentDate) {
			onTime++
		}
	}
	if completed == 0 {
		return 0
	}
	return float64(onTime) / float64(completed) * 100
}

// QualityRatingAvg is the mean rating over completed, rated orders.
// ok is false when no such order exists.
func QualityRatingAvg(orders []models.PurchaseOrder) (avg float64, ok bool) {
	var sum float64
	var n int
	for _, po := range orders {
		if !po.Completed() || po.QualityRating == nil {
			continue
		}
		sum += *po.QualityRating
		n++
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

// AverageResponseTime is the mean time in seconds between issue and
// acknowledgment over acknowledged orders of any status.
// ok is false when no order has been acknowledged.
func AverageResponseTime(orders []models.PurchaseOrder) (avg float64, ok bool) {
	var sum float64
	var n int
	for _, po := range orders {
		if po.AcknowledgmentDate == nil {
			continue
		}
		sum += po.AcknowledgmentDate.Sub(po.IssueDate).Seconds()
		n++
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

// FulfillmentRate is the percentage of orders that are completed, 0 without orders.
func FulfillmentRate(orders []models.PurchaseOrder) float64 {
	if len(orders) == 0 {
		return 0
	}
	var completed int
	for _, po := range orders {
		if po.Completed() {
			completed++
		}
	}
	return float64(completed) / float64(len(orders)) * 100
}
