package modules

import (
	"github.com/baseplate/backoffice/internal/core/query"
	"github.com/baseplate/backoffice/internal/core/record"
	"github.com/baseplate/backoffice/internal/core/schema"
)

const (
	ProductActive       = "active"
	ProductInactive     = "inactive"
	ProductDiscontinued = "discontinued"
)

var (
	ProductStatuses   = []string{ProductActive, ProductInactive, ProductDiscontinued}
	ProductCategories = []string{"Electronics", "Office", "Furniture", "Apparel", "Grocery"}
)

type VendorRef struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
}

type Product struct {
	record.Meta
	Name         string    `json:"name"`
	SKU          string    `json:"sku"`
	Description  string    `json:"description,omitempty"`
	Category     string    `json:"category"`
	Status       string    `json:"status"`
	Price        float64   `json:"price"`
	Stock        int       `json:"stock"`
	ReorderLevel int       `json:"reorderLevel"`
	Vendor       VendorRef `json:"vendor"`
}

func ProductsConfig() *query.Config {
	return &query.Config{
		Name:             "products",
		Title:            "Products",
		SearchableFields: []string{"name", "sku", "description", "vendor.name"},
		FilterableFields: []query.FilterField{
			{Field: "status", Values: ProductStatuses},
			{Field: "category", Values: ProductCategories},
		},
		SortableFields: []string{"name", "sku", "price", "stock", "createdAt"},
		DefaultSort:    query.Sort{Field: "name", Order: query.SortAsc},
		DateFields:     []string{"createdAt", "updatedAt"},
		NumericFields:  []string{"price", "stock"},
		Schema: schema.New("Product", map[string]*schema.Property{
			"name":         schema.String(),
			"sku":          schema.String(),
			"description":  schema.OptionalString(),
			"category":     schema.Enum(ProductCategories...),
			"status":       schema.Enum(ProductStatuses...),
			"price":        schema.Number(0),
			"stock":        schema.Integer(0),
			"reorderLevel": schema.Integer(0),
			"vendor":       schema.Object(map[string]*schema.Property{"id": schema.OptionalString(), "name": schema.OptionalString()}),
		}, "name", "sku", "category", "status", "price", "stock"),
	}
}

var ProductFields = withMeta(query.Fields[Product]{
	"name":        func(p Product) any { return p.Name },
	"sku":         func(p Product) any { return p.SKU },
	"description": func(p Product) any { return p.Description },
	"vendor.name": func(p Product) any { return p.Vendor.Name },
	"status":      func(p Product) any { return p.Status },
	"category":    func(p Product) any { return p.Category },
	"price":       func(p Product) any { return p.Price },
	"stock":       func(p Product) any { return p.Stock },
})

// LowStockProducts returns products at or below their reorder level,
// including those out of stock.
func LowStockProducts(products []Product) []Product {
	return filter(products, func(p Product) bool { return p.Stock <= p.ReorderLevel })
}

func OutOfStockProducts(products []Product) []Product {
	return filter(products, func(p Product) bool { return p.Stock <= 0 })
}

// InventoryValue is the sum of price times stock over all products.
func InventoryValue(products []Product) float64 {
	var total float64
	for _, p := range products {
		total += p.Price * float64(p.Stock)
	}
	return total
}

type ProductSummary struct {
	Total          int     `json:"total"`
	Active         int     `json:"active"`
	LowStock       int     `json:"lowStock"`
	OutOfStock     int     `json:"outOfStock"`
	InventoryValue float64 `json:"inventoryValue"`
}

func ProductStats(products []Product) ProductSummary {
	return ProductSummary{
		Total:          len(products),
		Active:         count(products, func(p Product) bool { return p.Status == ProductActive }),
		LowStock:       len(LowStockProducts(products)),
		OutOfStock:     len(OutOfStockProducts(products)),
		InventoryValue: InventoryValue(products),
	}
}
