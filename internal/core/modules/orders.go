package modules

import (
	"time"

	"github.com/baseplate/backoffice/internal/core/query"
	"github.com/baseplate/backoffice/internal/core/record"
	"github.com/baseplate/backoffice/internal/core/schema"
)

const (
	OrderPending    = "pending"
	OrderProcessing = "processing"
	OrderShipped    = "shipped"
	OrderDelivered  = "delivered"
	OrderCancelled  = "cancelled"

	PaymentUnpaid   = "unpaid"
	PaymentPaid     = "paid"
	PaymentRefunded = "refunded"
)

var (
	OrderStatuses   = []string{OrderPending, OrderProcessing, OrderShipped, OrderDelivered, OrderCancelled}
	PaymentStatuses = []string{PaymentUnpaid, PaymentPaid, PaymentRefunded}
)

type Customer struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type OrderItem struct {
	ProductID string  `json:"productId,omitempty"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unitPrice"`
}

type Order struct {
	record.Meta
	Number        string      `json:"number"`
	Customer      Customer    `json:"customer"`
	Status        string      `json:"status"`
	PaymentStatus string      `json:"paymentStatus"`
	Items         []OrderItem `json:"items"`
	Total         float64     `json:"total"`
	ShippedAt     *time.Time  `json:"shippedAt,omitempty"`
}

// ItemCount is the number of units across all lines.
func (o Order) ItemCount() int {
	n := 0
	for _, it := range o.Items {
		n += it.Quantity
	}
	return n
}

func OrdersConfig() *query.Config {
	return &query.Config{
		Name:             "orders",
		Title:            "Orders",
		SearchableFields: []string{"number", "customer.name", "customer.email"},
		FilterableFields: []query.FilterField{
			{Field: "status", Values: OrderStatuses},
			{Field: "paymentStatus", Values: PaymentStatuses},
		},
		SortableFields: []string{"number", "total", "itemCount", "createdAt", "shippedAt"},
		DefaultSort:    query.Sort{Field: "createdAt", Order: query.SortDesc},
		DateFields:     []string{"createdAt", "shippedAt"},
		NumericFields:  []string{"total", "itemCount"},
		Schema: schema.New("Order", map[string]*schema.Property{
			"number": schema.String(),
			"customer": schema.Object(map[string]*schema.Property{
				"name":  schema.String(),
				"email": schema.Email(),
			}, "name", "email"),
			"status":        schema.Enum(OrderStatuses...),
			"paymentStatus": schema.Enum(PaymentStatuses...),
			"items": schema.ArrayOf(schema.Object(map[string]*schema.Property{
				"productId": schema.OptionalString(),
				"name":      schema.String(),
				"quantity":  schema.Integer(1),
				"unitPrice": schema.Number(0),
			}, "name", "quantity", "unitPrice")),
			"total":     schema.Number(0),
			"shippedAt": schema.DateTime(),
		}, "number", "customer", "status", "paymentStatus", "items", "total"),
	}
}

var OrderFields = withMeta(query.Fields[Order]{
	"number":         func(o Order) any { return o.Number },
	"customer.name":  func(o Order) any { return o.Customer.Name },
	"customer.email": func(o Order) any { return o.Customer.Email },
	"status":         func(o Order) any { return o.Status },
	"paymentStatus":  func(o Order) any { return o.PaymentStatus },
	"total":          func(o Order) any { return o.Total },
	"itemCount":      func(o Order) any { return o.ItemCount() },
	"shippedAt":      func(o Order) any { return query.TimePtr(o.ShippedAt) },
})

func PendingOrders(orders []Order) []Order {
	return filter(orders, func(o Order) bool { return o.Status == OrderPending })
}

func OrdersByStatus(orders []Order) map[string]int {
	out := make(map[string]int)
	for _, o := range orders {
		out[o.Status]++
	}
	return out
}

type OrderSummary struct {
	Total             int            `json:"total"`
	Pending           int            `json:"pending"`
	Delivered         int            `json:"delivered"`
	Cancelled         int            `json:"cancelled"`
	Revenue           float64        `json:"revenue"`
	AverageOrderValue float64        `json:"averageOrderValue"`
	ByStatus          map[string]int `json:"byStatus"`
}

// OrderStats summarises orders. Revenue counts paid orders that were not
// cancelled; the average is taken over those same orders.
func OrderStats(orders []Order) OrderSummary {
	s := OrderSummary{Total: len(orders), ByStatus: OrdersByStatus(orders)}
	s.Pending = s.ByStatus[OrderPending]
	s.Delivered = s.ByStatus[OrderDelivered]
	s.Cancelled = s.ByStatus[OrderCancelled]

	paid := 0
	for _, o := range orders {
		if o.PaymentStatus == PaymentPaid && o.Status != OrderCancelled {
			s.Revenue += o.Total
			paid++
		}
	}
	if paid > 0 {
		s.AverageOrderValue = s.Revenue / float64(paid)
	}
	return s
}
