package invoice

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/renameio/v2"
	"github.com/pkg/errors"

	"kabraji/internal/domain"
)

const (
	width      = 70
	dateLayout = "02/01/2006 15:04:05"
)

// FileName is the artifact name for an order's invoice.
func FileName(orderID string) string {
	return "invoice_" + orderID + ".txt"
}

// Render lays out the invoice for a committed order. A nil customer means the
// record has been deleted; only the name captured on the order is printed.
func Render(order domain.Order, customer *domain.Customer) string {
	var b strings.Builder
	heavy := strings.Repeat("=", width)
	light := strings.Repeat("-", width)

	b.WriteString(heavy + "\n")
	b.WriteString(strings.Repeat(" ", 20) + "KABRAJI\n")
	b.WriteString(strings.Repeat(" ", 10) + "Building Dreams, One Product at a Time\n")
	b.WriteString(strings.Repeat(" ", 8) + "Quality Paints, Sanitary & Building Materials\n")
	b.WriteString(heavy + "\n\n")

	fmt.Fprintf(&b, "INVOICE NO: %s\n", order.OrderID)
	fmt.Fprintf(&b, "DATE: %s\n", order.Timestamp.Format(dateLayout))
	b.WriteString(light + "\n\n")

	b.WriteString("CUSTOMER DETAILS:\n")
	if customer == nil {
		fmt.Fprintf(&b, "Name: %s\n", order.CustomerName)
	} else {
		fmt.Fprintf(&b, "Name: %s\n", customer.Name)
		fmt.Fprintf(&b, "Phone: %s\n", customer.Phone)
		fmt.Fprintf(&b, "Email: %s\n", customer.Email)
		fmt.Fprintf(&b, "Address: %s\n", customer.Address)
	}

	b.WriteString("\n" + heavy + "\n")
	fmt.Fprintf(&b, "%-30s %-8s %-12s %-8s %-12s\n", "ITEM", "QTY", "PRICE", "DISC%", "TOTAL")
	b.WriteString(heavy + "\n")
	for _, line := range order.Lines {
		fmt.Fprintf(&b, "%-30s %-8s %s%-10s %-7s%% %s%-10s\n",
			line.ProductName,
			line.Quantity.StringFixed(2),
			domain.CurrencySymbol, line.UnitPrice.StringFixed(2),
			line.DiscountPercent.StringFixed(1),
			domain.CurrencySymbol, line.LineTotal.StringFixed(2),
		)
	}
	b.WriteString(heavy + "\n")

	total := func(label string, amount string) {
		fmt.Fprintf(&b, "%-50s %s: %s%12s\n", "", label, domain.CurrencySymbol, amount)
	}
	total("Subtotal", domain.FormatAmount(order.Subtotal))
	total("Discount", domain.FormatAmount(order.DiscountTotal))
	total("GST (18%)", domain.FormatAmount(order.Tax))
	b.WriteString(light + "\n")
	total("TOTAL", domain.FormatAmount(order.GrandTotal))
	b.WriteString(heavy + "\n\n")

	b.WriteString("Thank you for your business!\n")
	b.WriteString("For queries: contact@kabraji.com\n")
	b.WriteString(heavy + "\n")
	return b.String()
}

// Write stores the invoice text under dir and returns the file path.
func Write(dir string, orderID string, text string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrapf(err, "create invoice dir %s", dir)
	}
	path := filepath.Join(dir, FileName(orderID))
	if err := renameio.WriteFile(path, []byte(text), 0o644, renameio.WithTempDir(dir)); err != nil {
		return "", errors.Wrapf(err, "write invoice %s", path)
	}
	return path, nil
}
