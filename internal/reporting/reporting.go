package reporting

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"kabraji/internal/domain"
)

const (
	DefaultTopN              = 10
	DefaultLowStockThreshold = 10
)

type Options struct {
	Period            domain.ReportPeriod
	TopN              int
	LowStockThreshold decimal.Decimal
	Now               time.Time
}

func (o Options) withDefaults() Options {
	if o.TopN <= 0 {
		o.TopN = DefaultTopN
	}
	if o.LowStockThreshold.IsZero() {
		o.LowStockThreshold = decimal.NewFromInt(DefaultLowStockThreshold)
	}
	if o.Now.IsZero() {
		o.Now = time.Now()
	}
	return o
}

// Build folds the snapshot into a report. Lines whose product has since been
// deleted are left out of the category rollup and counted as unresolved.
func Build(snapshot domain.Snapshot, opts Options) domain.Report {
	opts = opts.withDefaults()

	orders := OrdersInPeriod(snapshot.Orders, opts.Period)
	history := HistoryInPeriod(snapshot.SalesHistory, opts.Period)
	byCategory, unresolved := RevenueByCategory(orders, productIndex(snapshot.Products))

	return domain.Report{
		GeneratedAt:       opts.Now,
		Period:            opts.Period,
		TotalRevenue:      TotalRevenue(history),
		TotalOrders:       len(orders),
		TotalCustomers:    len(snapshot.Customers),
		ByCategory:        byCategory,
		TopN:              opts.TopN,
		TopProducts:       TopProductsByRevenue(orders, opts.TopN),
		LowStock:          LowStock(snapshot.Products, opts.LowStockThreshold),
		LowStockThreshold: opts.LowStockThreshold,
		UnresolvedLines:   unresolved,
	}
}

func BuildDashboard(snapshot domain.Snapshot, threshold decimal.Decimal) domain.Dashboard {
	pending := 0
	for _, order := range snapshot.Orders {
		if order.Status == domain.OrderStatusPending {
			pending++
		}
	}
	return domain.Dashboard{
		ProductCount:  len(snapshot.Products),
		CustomerCount: len(snapshot.Customers),
		OrderCount:    len(snapshot.Orders),
		TotalRevenue:  TotalRevenue(snapshot.SalesHistory),
		LowStockCount: len(LowStock(snapshot.Products, threshold)),
		PendingOrders: pending,
	}
}

func OrdersInPeriod(orders []domain.Order, period domain.ReportPeriod) []domain.Order {
	if period.Unbounded() {
		return orders
	}
	out := make([]domain.Order, 0, len(orders))
	for _, order := range orders {
		if period.Contains(order.Timestamp) {
			out = append(out, order)
		}
	}
	return out
}

// HistoryInPeriod drops entries whose date cannot be parsed once a period is set.
func HistoryInPeriod(history []domain.SalesHistoryEntry, period domain.ReportPeriod) []domain.SalesHistoryEntry {
	if period.Unbounded() {
		return history
	}
	out := make([]domain.SalesHistoryEntry, 0, len(history))
	for _, entry := range history {
		day, err := time.Parse(domain.HistoryDateLayout, entry.Date)
		if err != nil {
			continue
		}
		if period.Contains(day) {
			out = append(out, entry)
		}
	}
	return out
}

func TotalRevenue(history []domain.SalesHistoryEntry) decimal.Decimal {
	total := decimal.Zero
	for _, entry := range history {
		total = total.Add(entry.GrandTotal)
	}
	return total
}

// RevenueByCategory sums line totals per category in first-seen category order.
func RevenueByCategory(orders []domain.Order, products map[string]domain.Product) ([]domain.CategoryRevenue, int) {
	out := make([]domain.CategoryRevenue, 0)
	positions := make(map[string]int)
	unresolved := 0

	for _, order := range orders {
		for _, line := range order.Lines {
			product, ok := products[line.ProductID]
			if !ok {
				unresolved++
				continue
			}
			pos, seen := positions[product.Category]
			if !seen {
				pos = len(out)
				positions[product.Category] = pos
				out = append(out, domain.CategoryRevenue{Category: product.Category, Revenue: decimal.Zero})
			}
			out[pos].Revenue = out[pos].Revenue.Add(line.LineTotal)
		}
	}
	return out, unresolved
}

// TopProductsByRevenue ranks products by name, highest revenue first. Ties keep
// the order in which products were first sold.
func TopProductsByRevenue(orders []domain.Order, n int) []domain.ProductRevenue {
	out := make([]domain.ProductRevenue, 0)
	positions := make(map[string]int)

	for _, order := range orders {
		for _, line := range order.Lines {
			pos, seen := positions[line.ProductName]
			if !seen {
				pos = len(out)
				positions[line.ProductName] = pos
				out = append(out, domain.ProductRevenue{Name: line.ProductName, Quantity: decimal.Zero, Revenue: decimal.Zero})
			}
			out[pos].Quantity = out[pos].Quantity.Add(line.Quantity)
			out[pos].Revenue = out[pos].Revenue.Add(line.LineTotal)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Revenue.GreaterThan(out[j].Revenue)
	})
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

func LowStock(products []domain.Product, threshold decimal.Decimal) []domain.Product {
	low := make([]domain.Product, 0)
	for _, p := range products {
		if p.StockQuantity.LessThan(threshold) {
			low = append(low, p)
		}
	}
	return low
}

func productIndex(products []domain.Product) map[string]domain.Product {
	index := make(map[string]domain.Product, len(products))
	for _, p := range products {
		index[p.ID] = p
	}
	return index
}
