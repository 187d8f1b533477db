package models

import (
	"encoding/json"
	"time"
)

// OrderStatus is the lifecycle state of a purchase order.
type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusCompleted OrderStatus = "completed"
	StatusCanceled  OrderStatus = "canceled"
)

// Valid reports whether s is one of the known statuses.
func (s OrderStatus) Valid() bool {
	switch s {
	case StatusPending, StatusCompleted, StatusCanceled:
		return true
	}
	return false
}

type PurchaseOrder struct {
	ID                 int64           `json:"id"`
	PONumber           string          `json:"po_number"`
	VendorID           int64           `json:"vendor"`
	OrderDate          time.Time       `json:"order_date"`
	DeliveryDate       time.Time       `json:"delivery_date"`
	Items              json.RawMessage `json:"items"`
	Quantity           int             `json:"quantity"`
	Status             OrderStatus     `json:"status"`
	QualityRating      *float64        `json:"quality_rating"`
	IssueDate          time.Time       `json:"issue_date"`
	AcknowledgmentDate *time.Time      `json:"acknowledgment_date"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// Completed reports whether the order counts toward fulfillment.
func (po PurchaseOrder) Completed() bool {
	return po.Status == StatusCompleted
}

// CreatePurchaseOrderRequest is the body of POST /purchase_orders.
// OrderDate and IssueDate default to the creation time; Status defaults to pending.
type CreatePurchaseOrderRequest struct {
	PONumber           string          `json:"po_number" validate:"notblank,max=100"`
	VendorID           int64           `json:"vendor" validate:"required,gt=0"`
	OrderDate          *time.Time      `json:"order_date,omitempty"`
	DeliveryDate       *time.Time      `json:"delivery_date" validate:"required"`
	Items              json.RawMessage `json:"items,omitempty"`
	Quantity           int             `json:"quantity" validate:"gte=0"`
	Status             OrderStatus     `json:"status,omitempty" validate:"omitempty,oneof=pending completed canceled"`
	QualityRating      *float64        `json:"quality_rating,omitempty" validate:"omitempty,gte=0,lte=5"`
	IssueDate          *time.Time      `json:"issue_date,omitempty"`
	AcknowledgmentDate *time.Time      `json:"acknowledgment_date,omitempty"`
}

// UpdatePurchaseOrderRequest is the body of PUT /purchase_orders/{id}. Nil fields are left as is.
type UpdatePurchaseOrderRequest struct {
	PONumber           *string          `json:"po_number,omitempty" validate:"omitempty,notblank,max=100"`
	VendorID           *int64           `json:"vendor,omitempty" validate:"omitempty,gt=0"`
	OrderDate          *time.Time       `json:"order_date,omitempty"`
	DeliveryDate       *time.Time       `json:"delivery_date,omitempty"`
	Items              *json.RawMessage `json:"items,omitempty"`
	Quantity           *int             `json:"quantity,omitempty" validate:"omitempty,gte=0"`
	Status             *OrderStatus     `json:"status,omitempty" validate:"omitempty,oneof=pending completed canceled"`
	QualityRating      *float64         `json:"quality_rating,omitempty" validate:"omitempty,gte=0,lte=5"`
	IssueDate          *time.Time       `json:"issue_date,omitempty"`
	AcknowledgmentDate *time.Time       `json:"acknowledgment_date,omitempty"`
}

// Empty reports whether the request carries no field to change.
func (r UpdatePurchaseOrderRequest) Empty() bool {
	return r.PONumber == nil && r.VendorID == nil && r.OrderDate == nil &&
		r.DeliveryDate == nil && r.Items == nil && r.Quantity == nil &&
		r.Status == nil && r.QualityRating == nil && r.IssueDate == nil &&
		r.AcknowledgmentDate == nil
}

// PurchaseOrderFilter narrows a purchase order listing.
type PurchaseOrderFilter struct {
	VendorID int64
	Statuses []string
	Q        string
	Sort     string
	Limit    int
	Offset   int
}
