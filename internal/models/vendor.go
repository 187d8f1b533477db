package models

import "time"

// Performance holds the four derived vendor metrics.
type Performance struct {
	OnTimeDeliveryRate  float64 `json:"on_time_delivery_rate"`
	QualityRatingAvg    float64 `json:"quality_rating_avg"`
	AverageResponseTime float64 `json:"average_response_time"`
	FulfillmentRate     float64 `json:"fulfillment_rate"`
}

// Differs reports whether any metric in p is not equal to the one in other.
func (p Performance) Differs(other Performance) bool {
	return p.OnTimeDeliveryRate != other.OnTimeDeliveryRate ||
		p.QualityRatingAvg != other.QualityRatingAvg ||
		p.AverageResponseTime != other.AverageResponseTime ||
		p.FulfillmentRate != other.FulfillmentRate
}

type Vendor struct {
	ID             int64   `json:"id"`
	Name           string  `json:"name"`
	ContactDetails *string `json:"contact_details,omitempty"`
	Address        *string `json:"address,omitempty"`
	VendorCode     string  `json:"vendor_code"`
	Performance
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateVendorRequest is the body of POST /vendors.
type CreateVendorRequest struct {
	Name           string  `json:"name" validate:"notblank,max=255"`
	ContactDetails *string `json:"contact_details,omitempty"`
	Address        *string `json:"address,omitempty"`
	VendorCode     string  `json:"vendor_code" validate:"notblank,max=50"`
}

// UpdateVendorRequest is the body of PUT /vendors/{id}. Nil fields are left as is.
// Metric fields are not accepted here.
type UpdateVendorRequest struct {
	Name           *string `json:"name,omitempty" validate:"omitempty,notblank,max=255"`
	ContactDetails *string `json:"contact_details,omitempty"`
	Address        *string `json:"address,omitempty"`
	VendorCode     *string `json:"vendor_code,omitempty" validate:"omitempty,notblank,max=50"`
}

// Empty reports whether the request carries no field to change.
func (r UpdateVendorRequest) Empty() bool {
	return r.Name == nil && r.ContactDetails == nil && r.Address == nil && r.VendorCode == nil
}

// VendorFilter narrows a vendor listing.
type VendorFilter struct {
	Q      string
	Sort   string
	Limit  int
	Offset int
}
