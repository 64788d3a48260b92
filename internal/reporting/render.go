package reporting

import (
	"fmt"
	"strings"
	"time"

	"kabraji/internal/domain"
)

const (
	reportWidth   = 80
	displayLayout = "02/01/2006 15:04:05"
	dayLayout     = "02/01/2006"
)

// DefaultExportName is the file name offered when a report is exported without a path.
func DefaultExportName(now time.Time) string {
	return now.Format("kabraji_report_20060102_150405.txt")
}

// RenderText lays the report out as an 80-column plain text document.
func RenderText(report domain.Report) string {
	var b strings.Builder
	heavy := strings.Repeat("=", reportWidth)
	light := strings.Repeat("-", reportWidth)

	section := func(title string) {
		b.WriteString(light + "\n")
		b.WriteString(title + "\n")
		b.WriteString(light + "\n")
	}

	b.WriteString(heavy + "\n")
	b.WriteString(strings.Repeat(" ", 25) + "KABRAJI SALES REPORT\n")
	b.WriteString(heavy + "\n\n")
	fmt.Fprintf(&b, "Generated on: %s\n", report.GeneratedAt.Format(displayLayout))
	if !report.Period.Unbounded() {
		fmt.Fprintf(&b, "Period: %s - %s\n", periodBound(report.Period.From), periodBound(report.Period.To))
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "TOTAL REVENUE: %s\n", domain.FormatMoney(report.TotalRevenue))
	fmt.Fprintf(&b, "TOTAL ORDERS: %d\n", report.TotalOrders)
	fmt.Fprintf(&b, "TOTAL CUSTOMERS: %d\n\n", report.TotalCustomers)

	section("SALES BY CATEGORY:")
	for _, c := range report.ByCategory {
		fmt.Fprintf(&b, "%-30s %s%15s\n", c.Category, domain.CurrencySymbol, domain.FormatAmount(c.Revenue))
	}
	if report.UnresolvedLines > 0 {
		fmt.Fprintf(&b, "(%d order lines refer to deleted products)\n", report.UnresolvedLines)
	}
	b.WriteString("\n")

	topN := report.TopN
	if topN <= 0 {
		topN = DefaultTopN
	}
	section(fmt.Sprintf("TOP %d SELLING PRODUCTS:", topN))
	for i, p := range report.TopProducts {
		fmt.Fprintf(&b, "%d. %-40s Qty: %8s  Revenue: %s%12s\n",
			i+1, p.Name, p.Quantity.StringFixed(2), domain.CurrencySymbol, domain.FormatAmount(p.Revenue))
	}
	b.WriteString("\n")

	section(fmt.Sprintf("LOW STOCK ALERT (Stock < %s):", report.LowStockThreshold.String()))
	if len(report.LowStock) == 0 {
		b.WriteString("No low stock items!\n")
	}
	for _, p := range report.LowStock {
		fmt.Fprintf(&b, "%s - %-40s Stock: %s %s\n", p.ID, p.Name, p.StockQuantity.String(), p.Unit)
	}

	b.WriteString("\n" + heavy + "\n")
	return b.String()
}

func periodBound(t *time.Time) string {
	if t == nil {
		return "..."
	}
	return t.Format(dayLayout)
}
