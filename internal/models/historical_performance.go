package models

import "time"

// HistoricalPerformance is an immutable snapshot of a vendor's metrics.
type HistoricalPerformance struct {
	ID       int64     `json:"id"`
	VendorID int64     `json:"vendor"`
	Date     time.Time `json:"date"`
	Performance
}

