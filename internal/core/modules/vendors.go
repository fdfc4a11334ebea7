package modules

import (
	"slices"

	"github.com/baseplate/backoffice/internal/core/query"
	"github.com/baseplate/backoffice/internal/core/record"
	"github.com/baseplate/backoffice/internal/core/schema"
)

const (
	VendorPending   = "pending"
	VendorApproved  = "approved"
	VendorRejected  = "rejected"
	VendorSuspended = "suspended"
)

var (
	VendorStatuses   = []string{VendorPending, VendorApproved, VendorRejected, VendorSuspended}
	VendorCategories = []string{"electronics", "apparel", "food", "furniture", "office"}
)

type Address struct {
	Street  string `json:"street,omitempty"`
	City    string `json:"city"`
	Country string `json:"country"`
}

type Vendor struct {
	record.Meta
	Name          string  `json:"name"`
	Email         string  `json:"email"`
	Phone         string  `json:"phone,omitempty"`
	ContactPerson string  `json:"contactPerson,omitempty"`
	Category      string  `json:"category"`
	Status        string  `json:"status"`
	Rating        float64 `json:"rating"`
	ProductCount  int     `json:"productCount"`
	Address       Address `json:"address"`
}

func VendorsConfig() *query.Config {
	return &query.Config{
		Name:             "vendors",
		Title:            "Vendors",
		SearchableFields: []string{"name", "email", "contactPerson", "address.city"},
		FilterableFields: []query.FilterField{
			{Field: "status", Values: VendorStatuses},
			{Field: "category", Values: VendorCategories},
		},
		SortableFields: []string{"name", "rating", "productCount", "createdAt"},
		DefaultSort:    query.Sort{Field: "name", Order: query.SortAsc},
		DateFields:     []string{"createdAt"},
		NumericFields:  []string{"rating", "productCount"},
		Schema: schema.New("Vendor", map[string]*schema.Property{
			"name":          schema.String(),
			"email":         schema.Email(),
			"phone":         schema.OptionalString(),
			"contactPerson": schema.OptionalString(),
			"category":      schema.Enum(VendorCategories...),
			"status":        schema.Enum(VendorStatuses...),
			"rating":        schema.Between(0, 5),
			"productCount":  schema.Integer(0),
			"address": schema.Object(map[string]*schema.Property{
				"street":  schema.OptionalString(),
				"city":    schema.String(),
				"country": schema.String(),
			}, "city", "country"),
		}, "name", "email", "category", "status", "address"),
	}
}

var VendorFields = withMeta(query.Fields[Vendor]{
	"name":          func(v Vendor) any { return v.Name },
	"email":         func(v Vendor) any { return v.Email },
	"contactPerson": func(v Vendor) any { return v.ContactPerson },
	"address.city":  func(v Vendor) any { return v.Address.City },
	"status":        func(v Vendor) any { return v.Status },
	"category":      func(v Vendor) any { return v.Category },
	"rating":        func(v Vendor) any { return v.Rating },
	"productCount":  func(v Vendor) any { return v.ProductCount },
})

func PendingVendors(vendors []Vendor) []Vendor {
	return filter(vendors, func(v Vendor) bool { return v.Status == VendorPending })
}

// TopRatedVendors returns the n approved vendors with the highest rating.
// Vendors with equal ratings keep their collection order.
func TopRatedVendors(vendors []Vendor, n int) []Vendor {
	approved := filter(vendors, func(v Vendor) bool { return v.Status == VendorApproved })
	slices.SortStableFunc(approved, func(a, b Vendor) int {
		switch {
		case a.Rating > b.Rating:
			return -1
		case a.Rating < b.Rating:
			return 1
		}
		return 0
	})
	if n >= 0 && len(approved) > n {
		approved = approved[:n]
	}
	return approved
}

type VendorSummary struct {
	Total         int            `json:"total"`
	Pending       int            `json:"pending"`
	Approved      int            `json:"approved"`
	AverageRating float64        `json:"averageRating"`
	ByCategory    map[string]int `json:"byCategory"`
}

func VendorStats(vendors []Vendor) VendorSummary {
	s := VendorSummary{Total: len(vendors), ByCategory: make(map[string]int)}
	var ratings float64
	for _, v := range vendors {
		switch v.Status {
		case VendorPending:
			s.Pending++
		case VendorApproved:
			s.Approved++
		}
		ratings += v.Rating
		s.ByCategory[v.Category]++
	}
	if len(vendors) > 0 {
		s.AverageRating = ratings / float64(len(vendors))
	}
	return s
}
