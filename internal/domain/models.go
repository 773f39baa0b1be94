package domain

import "github.com/shopspring/decimal"

// Order lifecycle. An order is created pending, promoted to completed only
// after its payment has been validated and persisted. There is no transition
// back from completed to pending.
const (
	OrderPending   = "pending"
	OrderCompleted = "completed"
	OrderCancelled = "cancelled"
)

// Payment methods accepted at the till.
const (
	PayCash = "cash"
	PayCard = "card"
	PayUPI  = "upi"
)

// Stock adjustment types. Addition/reduction are inferred from the delta
// sign; correction is an explicit recount; return is written by refunds.
const (
	AdjustAddition   = "addition"
	AdjustReduction  = "reduction"
	AdjustCorrection = "correction"
	AdjustReturn     = "return"
)

type Product struct {
	ID          string          `db:"id" json:"id"`
	SKU         string          `db:"sku" json:"sku"`
	Name        string          `db:"name" json:"name"`
	Description string          `db:"description" json:"description,omitempty"`
	Price       decimal.Decimal `db:"price" json:"price"`
	CategoryID  string          `db:"category_id" json:"category_id,omitempty"`
	BrandID     string          `db:"brand_id" json:"brand_id,omitempty"`
	SupplierID  string          `db:"supplier_id" json:"supplier_id,omitempty"`
	Active      bool            `db:"active" json:"active"`
	CreatedAt   string          `db:"created_at" json:"created_at"`
	UpdatedAt   string          `db:"updated_at" json:"updated_at,omitempty"`
}

// Inventory is one-to-one with Product. Quantity is mutated only through the
// ledger's adjust operation; qty >= 0 is enforced there and by a schema CHECK.
type Inventory struct {
	ProductID         string `db:"product_id" json:"product_id"`
	Quantity          int    `db:"qty" json:"qty"`
	LowStockThreshold int    `db:"low_stock_threshold" json:"low_stock_threshold"`
	UpdatedAt         string `db:"updated_at" json:"updated_at,omitempty"`
}

// StockAdjustment is the immutable audit row written for every inventory
// mutation, including those sales and refunds trigger internally.
type StockAdjustment struct {
	ID         string `db:"id" json:"id"`
	ProductID  string `db:"product_id" json:"product_id"`
	Delta      int    `db:"delta" json:"delta"`
	Type       string `db:"adjustment_type" json:"adjustment_type"`
	Reason     string `db:"reason" json:"reason"`
	AdjustedBy string `db:"adjusted_by" json:"adjusted_by"`
	CreatedAt  string `db:"created_at" json:"created_at"`
}

type Order struct {
	ID            string          `db:"id" json:"id"`
	CustomerID    string          `db:"customer_id" json:"customer_id,omitempty"` // empty = walk-in
	SalespersonID string          `db:"salesperson_id" json:"salesperson_id"`
	AssistantID   string          `db:"assistant_id" json:"assistant_id,omitempty"`
	Subtotal      decimal.Decimal `db:"subtotal" json:"subtotal"`
	Tax           decimal.Decimal `db:"tax" json:"tax"`
	Total         decimal.Decimal `db:"total" json:"total"`
	Status        string          `db:"status" json:"status"`
	CreatedAt     string          `db:"created_at" json:"created_at"`
}

// OrderItem captures the unit price at time of sale. The captured price is
// immutable even if the catalog price later changes.
type OrderItem struct {
	ID        string          `db:"id" json:"id"`
	OrderID   string          `db:"order_id" json:"order_id"`
	ProductID string          `db:"product_id" json:"product_id"`
	Quantity  int             `db:"qty" json:"qty"`
	Price     decimal.Decimal `db:"price" json:"price"`
	Status    string          `db:"status" json:"status,omitempty"` // "" | "returned"
}

// Transaction is the payment record, one per order, written once at
// settlement time and never mutated.
type Transaction struct {
	ID            string          `db:"id" json:"id"`
	OrderID       string          `db:"order_id" json:"order_id"`
	PaymentMethod string          `db:"payment_method" json:"payment_method"`
	AmountPaid    decimal.Decimal `db:"amount_paid" json:"amount_paid"`
	ChangeAmount  decimal.Decimal `db:"change_amount" json:"change_amount"`
	CreatedAt     string          `db:"created_at" json:"created_at"`
}

// Customer carries a materialized aggregate: the sum of totals over its
// completed orders, recomputed after every settlement or refund touching it.
type Customer struct {
	ID                 string          `db:"id" json:"id"`
	Name               string          `db:"name" json:"name"`
	Email              string          `db:"email" json:"email,omitempty"`
	Phone              string          `db:"phone" json:"phone,omitempty"`
	TotalPurchaseValue decimal.Decimal `db:"total_purchase_value" json:"total_purchase_value"`
	CreatedAt          string          `db:"created_at" json:"created_at"`
	UpdatedAt          string          `db:"updated_at" json:"updated_at,omitempty"`
}

type ShopAssistant struct {
	ID     string `db:"id" json:"id"`
	Name   string `db:"name" json:"name"`
	Active bool   `db:"active" json:"active"`
}

type Availability struct {
	Status string `json:"status"` // IN_STOCK | LOW_STOCK | OUT_OF_STOCK
	Qty    int    `json:"qty"`
}

func ValidPaymentMethod(m string) bool {
	return m == PayCash || m == PayCard || m == PayUPI
}
