package modules

import (
	"time"

	"github.com/baseplate/backoffice/internal/core/query"
	"github.com/baseplate/backoffice/internal/core/record"
	"github.com/baseplate/backoffice/internal/core/schema"
)

const (
	TxSale   = "sale"
	TxRefund = "refund"
	TxPayout = "payout"
	TxFee    = "fee"

	TxPending   = "pending"
	TxCompleted = "completed"
	TxFailed    = "failed"
)

var (
	TransactionTypes    = []string{TxSale, TxRefund, TxPayout, TxFee}
	TransactionStatuses = []string{TxPending, TxCompleted, TxFailed}
	PaymentMethods      = []string{"card", "bank_transfer", "cash", "wallet"}
)

type Transaction struct {
	record.Meta
	Reference   string     `json:"reference"`
	Type        string     `json:"type"`
	Status      string     `json:"status"`
	Method      string     `json:"method"`
	Amount      float64    `json:"amount"`
	Currency    string     `json:"currency"`
	Customer    string     `json:"customer,omitempty"`
	OrderID     string     `json:"orderId,omitempty"`
	ProcessedAt *time.Time `json:"processedAt,omitempty"`
}

func TransactionsConfig() *query.Config {
	return &query.Config{
		Name:             "transactions",
		Title:            "Transactions",
		SearchableFields: []string{"reference", "customer", "orderId"},
		FilterableFields: []query.FilterField{
			{Field: "type", Values: TransactionTypes},
			{Field: "status", Values: TransactionStatuses},
			{Field: "method", Values: PaymentMethods},
		},
		SortableFields: []string{"reference", "amount", "createdAt", "processedAt"},
		DefaultSort:    query.Sort{Field: "createdAt", Order: query.SortDesc},
		DateFields:     []string{"createdAt", "processedAt"},
		NumericFields:  []string{"amount"},
		Schema: schema.New("Transaction", map[string]*schema.Property{
			"reference":   schema.String(),
			"type":        schema.Enum(TransactionTypes...),
			"status":      schema.Enum(TransactionStatuses...),
			"method":      schema.Enum(PaymentMethods...),
			"amount":      schema.Number(0),
			"currency":    schema.String(),
			"customer":    schema.OptionalString(),
			"orderId":     schema.OptionalString(),
			"processedAt": schema.DateTime(),
		}, "reference", "type", "status", "method", "amount", "currency"),
	}
}

var TransactionFields = withMeta(query.Fields[Transaction]{
	"reference":   func(t Transaction) any { return t.Reference },
	"customer":    func(t Transaction) any { return t.Customer },
	"orderId":     func(t Transaction) any { return t.OrderID },
	"type":        func(t Transaction) any { return t.Type },
	"status":      func(t Transaction) any { return t.Status },
	"method":      func(t Transaction) any { return t.Method },
	"amount":      func(t Transaction) any { return t.Amount },
	"processedAt": func(t Transaction) any { return query.TimePtr(t.ProcessedAt) },
})

// TotalRevenue is completed sales minus completed refunds.
func TotalRevenue(txs []Transaction) float64 {
	var total float64
	for _, t := range txs {
		if t.Status != TxCompleted {
			continue
		}
		switch t.Type {
		case TxSale:
			total += t.Amount
		case TxRefund:
			total -= t.Amount
		}
	}
	return total
}

func FailedTransactions(txs []Transaction) []Transaction {
	return filter(txs, func(t Transaction) bool { return t.Status == TxFailed })
}

type TransactionSummary struct {
	Total     int     `json:"total"`
	Completed int     `json:"completed"`
	Pending   int     `json:"pending"`
	Failed    int     `json:"failed"`
	Revenue   float64 `json:"revenue"`
	Refunded  float64 `json:"refunded"`
}

func TransactionStats(txs []Transaction) TransactionSummary {
	s := TransactionSummary{Total: len(txs), Revenue: TotalRevenue(txs)}
	for _, t := range txs {
		switch t.Status {
		case TxCompleted:
			s.Completed++
			if t.Type == TxRefund {
				s.Refunded += t.Amount
			}
		case TxPending:
			s.Pending++
		case TxFailed:
			s.Failed++
		}
	}
	return s
}
