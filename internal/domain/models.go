package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Persist amounts as JSON numbers rather than quoted strings.
	decimal.MarshalJSONWithoutQuotes = true
}

var (
	hundred = decimal.NewFromInt(100)

	// GSTRate is the fixed tax applied to every sale.
	GSTRate = decimal.RequireFromString("0.18")
)

const (
	CategoryPaints            = "Paints"
	CategorySanitary          = "Sanitary"
	CategoryBuildingMaterials = "Building Materials"
)

type Product struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Category      string          `json:"category"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	StockQuantity decimal.Decimal `json:"stock_quantity"`
	Unit          string          `json:"unit"`
}

type ProductInput struct {
	ID            string           `json:"id" validate:"required"`
	Name          string           `json:"name" validate:"required"`
	Category      string           `json:"category" validate:"required"`
	UnitPrice     *decimal.Decimal `json:"unit_price" validate:"required,gte=0"`
	StockQuantity *decimal.Decimal `json:"stock_quantity" validate:"required,gte=0"`
	Unit          string           `json:"unit" validate:"required"`
}

// Normalize trims surrounding whitespace from every text field.
func (in ProductInput) Normalize() ProductInput {
	in.ID = strings.TrimSpace(in.ID)
	in.Name = strings.TrimSpace(in.Name)
	in.Category = strings.TrimSpace(in.Category)
	in.Unit = strings.TrimSpace(in.Unit)
	return in
}

// Product builds the catalog entry. Missing amounts become zero; validate first.
func (in ProductInput) Product() Product {
	return Product{
		ID:            in.ID,
		Name:          in.Name,
		Category:      in.Category,
		UnitPrice:     valueOrZero(in.UnitPrice),
		StockQuantity: valueOrZero(in.StockQuantity),
		Unit:          in.Unit,
	}
}

func valueOrZero(d *decimal.Decimal) decimal.Decimal {
	if d == nil {
		return decimal.Zero
	}
	return *d
}

type Customer struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Email   string `json:"email,omitempty"`
	Address string `json:"address,omitempty"`
}

type CustomerInput struct {
	ID      string `json:"id" validate:"required"`
	Name    string `json:"name" validate:"required"`
	Phone   string `json:"phone" validate:"required"`
	Email   string `json:"email"`
	Address string `json:"address"`
}

func (in CustomerInput) Normalize() CustomerInput {
	in.ID = strings.TrimSpace(in.ID)
	in.Name = strings.TrimSpace(in.Name)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Email = strings.TrimSpace(in.Email)
	in.Address = strings.TrimSpace(in.Address)
	return in
}

func (in CustomerInput) Customer() Customer {
	return Customer{
		ID:      in.ID,
		Name:    in.Name,
		Phone:   in.Phone,
		Email:   in.Email,
		Address: in.Address,
	}
}

type CartLineInput struct {
	ProductID       string          `json:"product_id" validate:"required"`
	Quantity        decimal.Decimal `json:"quantity" validate:"gt=0"`
	DiscountPercent decimal.Decimal `json:"discount_percent" validate:"gte=0,lte=100"`
}

// CartLine is a priced snapshot of one product taken when it was added to the cart.
type CartLine struct {
	ProductID       string          `json:"product_id"`
	ProductName     string          `json:"product_name"`
	Quantity        decimal.Decimal `json:"quantity"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	LineTotal       decimal.Decimal `json:"line_total"`
}

func NewCartLine(product Product, quantity decimal.Decimal, discountPercent decimal.Decimal) CartLine {
	line := CartLine{
		ProductID:       product.ID,
		ProductName:     product.Name,
		Quantity:        quantity,
		UnitPrice:       product.UnitPrice,
		DiscountPercent: discountPercent,
	}
	line.LineTotal = line.Gross().Sub(line.Discount())
	return line
}

// Gross is quantity times unit price, before discount.
func (l CartLine) Gross() decimal.Decimal {
	return l.Quantity.Mul(l.UnitPrice)
}

func (l CartLine) Discount() decimal.Decimal {
	return l.Gross().Mul(l.DiscountPercent).Div(hundred)
}

type Summary struct {
	Subtotal      decimal.Decimal `json:"subtotal"`
	DiscountTotal decimal.Decimal `json:"discount_total"`
	Tax           decimal.Decimal `json:"tax"`
	GrandTotal    decimal.Decimal `json:"grand_total"`
}

// Summarize totals a sequence of lines and applies GST to the discounted amount.
func Summarize(lines []CartLine) Summary {
	subtotal := decimal.Zero
	discount := decimal.Zero
	for _, line := range lines {
		subtotal = subtotal.Add(line.Gross())
		discount = discount.Add(line.Discount())
	}
	afterDiscount := subtotal.Sub(discount)
	tax := afterDiscount.Mul(GSTRate)
	return Summary{
		Subtotal:      subtotal,
		DiscountTotal: discount,
		Tax:           tax,
		GrandTotal:    afterDiscount.Add(tax),
	}
}

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "Pending"
	OrderStatusCompleted OrderStatus = "Completed"
	OrderStatusCancelled OrderStatus = "Cancelled"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusCompleted, OrderStatusCancelled:
		return true
	default:
		return false
	}
}

// ParseOrderStatus accepts a status name in any letter case.
func ParseOrderStatus(raw string) (OrderStatus, bool) {
	for _, status := range []OrderStatus{OrderStatusPending, OrderStatusCompleted, OrderStatusCancelled} {
		if strings.EqualFold(strings.TrimSpace(raw), string(status)) {
			return status, true
		}
	}
	return "", false
}

type Order struct {
	OrderID       string          `json:"order_id"`
	CustomerID    string          `json:"customer_id"`
	CustomerName  string          `json:"customer_name"`
	Timestamp     time.Time       `json:"timestamp"`
	Lines         []CartLine      `json:"lines"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	DiscountTotal decimal.Decimal `json:"discount_total"`
	Tax           decimal.Decimal `json:"tax"`
	GrandTotal    decimal.Decimal `json:"grand_total"`
	Status        OrderStatus     `json:"status"`
}

func (o Order) Summary() Summary {
	return Summary{
		Subtotal:      o.Subtotal,
		DiscountTotal: o.DiscountTotal,
		Tax:           o.Tax,
		GrandTotal:    o.GrandTotal,
	}
}

func (o Order) Clone() Order {
	o.Lines = append([]CartLine(nil), o.Lines...)
	return o
}

// SalesHistoryEntry is the revenue summary written alongside each order.
type SalesHistoryEntry struct {
	Date         string          `json:"date"`
	OrderID      string          `json:"order_id"`
	CustomerName string          `json:"customer_name"`
	GrandTotal   decimal.Decimal `json:"grand_total"`
}

const HistoryDateLayout = "2006-01-02"

func NewSalesHistoryEntry(order Order) SalesHistoryEntry {
	return SalesHistoryEntry{
		Date:         order.Timestamp.Format(HistoryDateLayout),
		OrderID:      order.OrderID,
		CustomerName: order.CustomerName,
		GrandTotal:   order.GrandTotal,
	}
}

// Snapshot is the complete persisted state of the shop.
type Snapshot struct {
	Products     []Product
	Customers    []Customer
	Orders       []Order
	SalesHistory []SalesHistoryEntry
}

func (s Snapshot) Clone() Snapshot {
	orders := make([]Order, 0, len(s.Orders))
	for _, order := range s.Orders {
		orders = append(orders, order.Clone())
	}
	return Snapshot{
		Products:     append([]Product(nil), s.Products...),
		Customers:    append([]Customer(nil), s.Customers...),
		Orders:       orders,
		SalesHistory: append([]SalesHistoryEntry(nil), s.SalesHistory...),
	}
}

type Receipt struct {
	Order       Order  `json:"order"`
	Invoice     string `json:"invoice"`
	InvoicePath string `json:"invoice_path,omitempty"`
}

type CartView struct {
	Lines   []CartLine `json:"lines"`
	Summary Summary    `json:"summary"`
}

type CategoryRevenue struct {
	Category string          `json:"category"`
	Revenue  decimal.Decimal `json:"revenue"`
}

type ProductRevenue struct {
	Name     string          `json:"name"`
	Quantity decimal.Decimal `json:"quantity"`
	Revenue  decimal.Decimal `json:"revenue"`
}

type ReportPeriod struct {
	From *time.Time `json:"from,omitempty"`
	To   *time.Time `json:"to,omitempty"`
}

// Contains reports whether t falls on or between the period's calendar days.
func (p ReportPeriod) Contains(t time.Time) bool {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	if p.From != nil && day.Before(truncateDay(*p.From)) {
		return false
	}
	if p.To != nil && day.After(truncateDay(*p.To)) {
		return false
	}
	return true
}

func (p ReportPeriod) Unbounded() bool {
	return p.From == nil && p.To == nil
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

type Report struct {
	GeneratedAt       time.Time         `json:"generated_at"`
	Period            ReportPeriod      `json:"period"`
	TotalRevenue      decimal.Decimal   `json:"total_revenue"`
	TotalOrders       int               `json:"total_orders"`
	TotalCustomers    int               `json:"total_customers"`
	ByCategory        []CategoryRevenue `json:"by_category"`
	TopN              int               `json:"top_n"`
	TopProducts       []ProductRevenue  `json:"top_products"`
	LowStock          []Product         `json:"low_stock"`
	LowStockThreshold decimal.Decimal   `json:"low_stock_threshold"`
	UnresolvedLines   int               `json:"unresolved_lines"`
}

type Dashboard struct {
	ProductCount  int             `json:"product_count"`
	CustomerCount int             `json:"customer_count"`
	OrderCount    int             `json:"order_count"`
	TotalRevenue  decimal.Decimal `json:"total_revenue"`
	LowStockCount int             `json:"low_stock_count"`
	PendingOrders int             `json:"pending_orders"`
}
