package modules

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/baseplate/backoffice/internal/core/record"
)

// SeedEpoch is the creation time of the first generated record.
var SeedEpoch = time.Date(2024, time.January, 1, 9, 0, 0, 0, time.UTC)

var (
	firstNames = []string{"Alice", "Bob", "Carla", "Deepak", "Elena", "Farid", "Grace", "Hiro", "Ines", "Jonas", "Kemi", "Luis"}
	lastNames  = []string{"Smith", "Okafor", "Nguyen", "Rossi", "Haddad", "Schmidt", "Tanaka", "Silva", "Novak", "Kowalski"}
	companies  = []string{"Acme", "Globex", "Initech", "Umbrella", "Hooli", "Vandelay", "Stark", "Wayne", "Tyrell", "Soylent"}
	suffixes   = []string{"Supplies", "Trading", "Industries", "Goods", "Partners"}
	cities     = []string{"Berlin", "Lagos", "Lisbon", "Osaka", "Toronto", "Nairobi", "Austin", "Dubai"}
	countries  = []string{"DE", "NG", "PT", "JP", "CA", "KE", "US", "AE"}
	items      = []string{"Laptop", "Desk", "Chair", "Monitor", "Notebook", "Jacket", "Coffee", "Headset", "Lamp", "Printer"}
	adjectives = []string{"Compact", "Deluxe", "Eco", "Pro", "Classic", "Ultra"}
	depts      = []string{"Sales", "Support", "Finance", "Operations", "Engineering"}
)

// Dataset is a deterministic set of records for every module.
type Dataset struct {
	Users        []User
	Vendors      []Vendor
	Products     []Product
	Transactions []Transaction
	Orders       []Order
}

// Generate builds n records per module. The same seed always yields the same
// dataset.
func Generate(n int, seed uint64) Dataset {
	g := &generator{rnd: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
	var ds Dataset
	for i := range n {
		ds.Users = append(ds.Users, g.user(i))
	}
	for i := range n {
		ds.Vendors = append(ds.Vendors, g.vendor(i))
	}
	for i := range n {
		ds.Products = append(ds.Products, g.product(i, ds.Vendors))
	}
	for i := range n {
		ds.Orders = append(ds.Orders, g.order(i, ds.Products))
	}
	for i := range n {
		ds.Transactions = append(ds.Transactions, g.transaction(i, ds.Orders))
	}
	return ds
}

// Seed replaces every module's records with a generated dataset.
func (c *Catalog) Seed(ctx context.Context, n int, seed uint64) error {
	ds := Generate(n, seed)
	if err := c.Users.Replace(ctx, ds.Users); err != nil {
		return err
	}
	if err := c.Vendors.Replace(ctx, ds.Vendors); err != nil {
		return err
	}
	if err := c.Products.Replace(ctx, ds.Products); err != nil {
		return err
	}
	if err := c.Transactions.Replace(ctx, ds.Transactions); err != nil {
		return err
	}
	return c.Orders.Replace(ctx, ds.Orders)
}

type generator struct {
	rnd *rand.Rand
}

func pick[T any](g *generator, xs []T) T {
	return xs[g.rnd.IntN(len(xs))]
}

func (g *generator) meta(prefix string, i int) record.Meta {
	created := SeedEpoch.Add(time.Duration(i) * 7 * time.Hour)
	return record.Meta{
		ID:        fmt.Sprintf("%s-%05d", prefix, i+1),
		CreatedAt: created,
		UpdatedAt: created.Add(time.Duration(g.rnd.IntN(96)) * time.Hour),
	}
}

func (g *generator) money(lo, hi float64) float64 {
	v := lo + g.rnd.Float64()*(hi-lo)
	return float64(int(v*100)) / 100
}

func (g *generator) user(i int) User {
	first, last := pick(g, firstNames), pick(g, lastNames)
	u := User{
		Meta:       g.meta("usr", i),
		Name:       first + " " + last,
		Email:      fmt.Sprintf("%s.%s%d@example.com", strings.ToLower(first), strings.ToLower(last), i+1),
		Status:     pick(g, UserStatuses),
		Role:       Role{Name: pick(g, UserRoles)},
		Department: pick(g, depts),
	}
	if u.Status == UserActive {
		t := u.UpdatedAt.Add(time.Duration(g.rnd.IntN(72)) * time.Hour)
		u.LastLogin = &t
	}
	return u
}

func (g *generator) vendor(i int) Vendor {
	name := pick(g, companies) + " " + pick(g, suffixes)
	city := g.rnd.IntN(len(cities))
	return Vendor{
		Meta:          g.meta("vnd", i),
		Name:          name,
		Email:         fmt.Sprintf("contact%d@%s.example.com", i+1, strings.ToLower(pick(g, companies))),
		ContactPerson: pick(g, firstNames) + " " + pick(g, lastNames),
		Category:      pick(g, VendorCategories),
		Status:        pick(g, VendorStatuses),
		Rating:        float64(g.rnd.IntN(51)) / 10,
		ProductCount:  g.rnd.IntN(200),
		Address:       Address{City: cities[city], Country: countries[city]},
	}
}

func (g *generator) product(i int, vendors []Vendor) Product {
	p := Product{
		Meta:         g.meta("prd", i),
		Name:         pick(g, adjectives) + " " + pick(g, items),
		SKU:          fmt.Sprintf("SKU-%06d", 100000+i),
		Category:     pick(g, ProductCategories),
		Status:       pick(g, ProductStatuses),
		Price:        g.money(2, 2500),
		Stock:        g.rnd.IntN(120),
		ReorderLevel: 10 + g.rnd.IntN(15),
	}
	if len(vendors) > 0 {
		v := pick(g, vendors)
		p.Vendor = VendorRef{ID: v.ID, Name: v.Name}
	}
	return p
}

func (g *generator) order(i int, products []Product) Order {
	o := Order{
		Meta:          g.meta("ord", i),
		Number:        fmt.Sprintf("ORD-%06d", 1000+i),
		Customer:      Customer{Name: pick(g, firstNames) + " " + pick(g, lastNames)},
		Status:        pick(g, OrderStatuses),
		PaymentStatus: pick(g, PaymentStatuses),
		Items:         []OrderItem{},
	}
	o.Customer.Email = fmt.Sprintf("customer%d@example.com", i+1)
	for range 1 + g.rnd.IntN(3) {
		it := OrderItem{Name: pick(g, items), Quantity: 1 + g.rnd.IntN(5), UnitPrice: g.money(2, 500)}
		if len(products) > 0 {
			p := pick(g, products)
			it.ProductID, it.Name, it.UnitPrice = p.ID, p.Name, p.Price
		}
		o.Items = append(o.Items, it)
		o.Total += float64(it.Quantity) * it.UnitPrice
	}
	if o.Status == OrderShipped || o.Status == OrderDelivered {
		t := o.CreatedAt.Add(time.Duration(24+g.rnd.IntN(72)) * time.Hour)
		o.ShippedAt = &t
	}
	return o
}

func (g *generator) transaction(i int, orders []Order) Transaction {
	t := Transaction{
		Meta:      g.meta("txn", i),
		Reference: fmt.Sprintf("TXN-%08d", 5000000+i),
		Type:      pick(g, TransactionTypes),
		Status:    pick(g, TransactionStatuses),
		Method:    pick(g, PaymentMethods),
		Amount:    g.money(1, 3000),
		Currency:  "USD",
	}
	if len(orders) > 0 && (t.Type == TxSale || t.Type == TxRefund) {
		o := pick(g, orders)
		t.OrderID, t.Customer = o.ID, o.Customer.Name
	}
	if t.Status == TxCompleted {
		p := t.CreatedAt.Add(time.Duration(1+g.rnd.IntN(48)) * time.Minute)
		t.ProcessedAt = &p
	}
	return t
}
