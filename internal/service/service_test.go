package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kabraji/internal/cache"
	"kabraji/internal/domain"
	"kabraji/internal/reporting"
	"kabraji/internal/store"
	"kabraji/internal/store/jsonfile"
	"kabraji/internal/store/memory"
)

var fixedNow = time.Date(2024, 3, 9, 16, 4, 5, 0, time.UTC)

type flakyGateway struct {
	*memory.Store
	fail bool
}

func (g *flakyGateway) Save(ctx context.Context, snapshot domain.Snapshot) error {
	if g.fail {
		return errors.New("disk full")
	}
	return g.Store.Save(ctx, snapshot)
}

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func amount(s string) *decimal.Decimal {
	v := d(s)
	return &v
}

func openService(t *testing.T, gateway store.Gateway) *Service {
	t.Helper()
	logger, _ := test.NewNullLogger()
	return Open(context.Background(), gateway, Options{
		InvoiceDir: t.TempDir(),
		Logger:     logger,
		Clock:      func() time.Time { return fixedNow },
	})
}

// seeded returns a service with the default catalog and one customer, C1.
func seeded(t *testing.T, gateway store.Gateway) *Service {
	t.Helper()
	svc := openService(t, gateway)
	ctx := context.Background()
	_, err := svc.InitializeDefaults(ctx)
	require.NoError(t, err)
	_, err = svc.AddCustomer(ctx, domain.CustomerInput{ID: "C1", Name: "Asha Patel", Phone: "9820000000", Email: "asha@example.com"})
	require.NoError(t, err)
	return svc
}

func addToCart(t *testing.T, svc *Service, productID string, qty, disc string) {
	t.Helper()
	_, err := svc.AddToCart(domain.CartLineInput{ProductID: productID, Quantity: d(qty), DiscountPercent: d(disc)})
	require.NoError(t, err)
}

func stockOf(t *testing.T, svc *Service, id string) decimal.Decimal {
	t.Helper()
	p, err := svc.GetProduct(id)
	require.NoError(t, err)
	return p.StockQuantity
}

func TestInitializeDefaultsIsIdempotent(t *testing.T) {
	gateway := memory.New()
	svc := openService(t, gateway)
	ctx := context.Background()

	n, err := svc.InitializeDefaults(ctx)
	require.NoError(t, err)
	assert.Equal(t, 20, n)

	n, err = svc.InitializeDefaults(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	assert.Len(t, svc.ListProducts(), 20)
	assert.Equal(t, 1, gateway.Saves())
}

func TestAddProductValidation(t *testing.T) {
	svc := openService(t, memory.New())
	ctx := context.Background()
	valid := domain.ProductInput{ID: " P1 ", Name: "Primer", Category: domain.CategoryPaints, UnitPrice: amount("120"), StockQuantity: amount("5"), Unit: "Liter"}

	created, err := svc.AddProduct(ctx, valid)
	require.NoError(t, err)
	assert.Equal(t, "P1", created.ID)

	_, err = svc.AddProduct(ctx, valid)
	assert.ErrorIs(t, err, store.ErrDuplicateKey)

	blank := valid
	blank.ID, blank.Name = "P2", "  "
	_, err = svc.AddProduct(ctx, blank)
	assert.ErrorIs(t, err, store.ErrInvalidArgument)
	assert.Contains(t, err.Error(), "name is required")

	negative := valid
	negative.ID, negative.UnitPrice = "P3", amount("-1")
	_, err = svc.AddProduct(ctx, negative)
	assert.ErrorIs(t, err, store.ErrInvalidArgument)

	free := valid
	free.ID, free.UnitPrice = "P4", nil
	_, err = svc.AddProduct(ctx, free)
	assert.ErrorIs(t, err, store.ErrInvalidArgument)
	assert.Contains(t, err.Error(), "unit_price is required")

	outOfStock := valid
	outOfStock.ID, outOfStock.StockQuantity = "P5", amount("0")
	_, err = svc.AddProduct(ctx, outOfStock)
	require.NoError(t, err)

	assert.Len(t, svc.ListProducts(), 2)
}

func TestUpdateAndDeleteProduct(t *testing.T) {
	svc := seeded(t, memory.New())
	ctx := context.Background()

	updated, err := svc.UpdateProduct(ctx, "PROD0001", domain.ProductInput{
		ID: "ignored", Name: "Royale Luxury", Category: domain.CategoryPaints, UnitPrice: amount("480"), StockQuantity: amount("12"), Unit: "Liter",
	})
	require.NoError(t, err)
	assert.Equal(t, "PROD0001", updated.ID)
	assert.True(t, stockOf(t, svc, "PROD0001").Equal(d("12")))

	_, err = svc.UpdateProduct(ctx, "PROD9999", domain.ProductInput{Name: "x", Category: "x", UnitPrice: amount("1"), StockQuantity: amount("1"), Unit: "x"})
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = svc.UpdateProduct(ctx, "PROD0001", domain.ProductInput{Name: "Royale", Category: domain.CategoryPaints, UnitPrice: amount("480"), Unit: "Liter"})
	assert.ErrorIs(t, err, store.ErrInvalidArgument)
	assert.Contains(t, err.Error(), "stock_quantity is required")
	assert.True(t, stockOf(t, svc, "PROD0001").Equal(d("12")))

	require.NoError(t, svc.DeleteProduct(ctx, "PROD0001"))
	assert.ErrorIs(t, svc.DeleteProduct(ctx, "PROD0001"), store.ErrNotFound)
	assert.Len(t, svc.ListProducts(), 19)
}

func TestCustomers(t *testing.T) {
	svc := seeded(t, memory.New())
	ctx := context.Background()

	_, err := svc.AddCustomer(ctx, domain.CustomerInput{ID: "C1", Name: "Other", Phone: "1"})
	assert.ErrorIs(t, err, store.ErrDuplicateKey)
	_, err = svc.AddCustomer(ctx, domain.CustomerInput{ID: "C2", Name: "No Phone"})
	assert.ErrorIs(t, err, store.ErrInvalidArgument)

	require.NoError(t, svc.DeleteCustomer(ctx, "C1"))
	assert.ErrorIs(t, svc.DeleteCustomer(ctx, "C1"), store.ErrNotFound)
	assert.Empty(t, svc.ListCustomers())
}

func TestCheckoutCommitsOrder(t *testing.T) {
	svc := seeded(t, memory.New())
	ctx := context.Background()
	addToCart(t, svc, "PROD0001", "2", "10")

	view := svc.Cart()
	require.Len(t, view.Lines, 1)
	assert.Equal(t, "955.80", view.Summary.GrandTotal.StringFixed(2))

	receipt, err := svc.Checkout(ctx, "C1")
	require.NoError(t, err)

	order := receipt.Order
	assert.Equal(t, "ORD00001", order.OrderID)
	assert.Equal(t, "Asha Patel", order.CustomerName)
	assert.Equal(t, domain.OrderStatusPending, order.Status)
	assert.Equal(t, "900.00", order.Subtotal.StringFixed(2))
	assert.Equal(t, "90.00", order.DiscountTotal.StringFixed(2))
	assert.Equal(t, "145.80", order.Tax.StringFixed(2))
	assert.Equal(t, "955.80", order.GrandTotal.StringFixed(2))
	assert.True(t, fixedNow.Equal(order.Timestamp))

	assert.True(t, stockOf(t, svc, "PROD0001").Equal(d("48")))
	assert.Empty(t, svc.Cart().Lines)
	assert.Contains(t, receipt.Invoice, "INVOICE NO: ORD00001")

	require.NotEmpty(t, receipt.InvoicePath)
	assert.Equal(t, "invoice_ORD00001.txt", filepath.Base(receipt.InvoicePath))
	raw, err := os.ReadFile(receipt.InvoicePath)
	require.NoError(t, err)
	assert.Equal(t, receipt.Invoice, string(raw))

	_, err = svc.Checkout(ctx, "C1")
	assert.ErrorIs(t, err, store.ErrEmptyCart)
}

func TestCheckoutDecrementsSumOfQuantities(t *testing.T) {
	svc := seeded(t, memory.New())
	ctx := context.Background()
	addToCart(t, svc, "PROD0001", "2", "0")
	addToCart(t, svc, "PROD0001", "3.5", "5")
	addToCart(t, svc, "PROD0002", "1", "0")

	first, err := svc.Checkout(ctx, "C1")
	require.NoError(t, err)
	assert.True(t, stockOf(t, svc, "PROD0001").Equal(d("44.5")))

	addToCart(t, svc, "PROD0002", "1", "0")
	second, err := svc.Checkout(ctx, "C1")
	require.NoError(t, err)

	assert.Equal(t, "ORD00001", first.Order.OrderID)
	assert.Equal(t, "ORD00002", second.Order.OrderID)
	assert.Len(t, svc.ListOrders(), 2)
}

func TestInsufficientStockMutatesNothing(t *testing.T) {
	gateway := memory.New()
	svc := seeded(t, gateway)
	ctx := context.Background()

	_, err := svc.AddToCart(domain.CartLineInput{ProductID: "PROD0001", Quantity: d("1000"), DiscountPercent: d("0")})
	require.ErrorIs(t, err, store.ErrInsufficientStock)
	assert.Empty(t, svc.Cart().Lines)

	addToCart(t, svc, "PROD0001", "40", "0")
	_, err = svc.UpdateProduct(ctx, "PROD0001", domain.ProductInput{
		Name: "Asian Paints Royale", Category: domain.CategoryPaints, UnitPrice: amount("450"), StockQuantity: amount("10"), Unit: "Liter",
	})
	require.NoError(t, err)
	saves := gateway.Saves()

	_, err = svc.Checkout(ctx, "C1")
	require.ErrorIs(t, err, store.ErrInsufficientStock)
	assert.True(t, stockOf(t, svc, "PROD0001").Equal(d("10")))
	assert.Empty(t, svc.ListOrders())
	assert.Len(t, svc.Cart().Lines, 1)
	assert.Equal(t, saves, gateway.Saves())
}

func TestCheckoutUnknownCustomerKeepsCart(t *testing.T) {
	svc := seeded(t, memory.New())
	addToCart(t, svc, "PROD0003", "1", "0")

	_, err := svc.Checkout(context.Background(), "C404")
	require.ErrorIs(t, err, store.ErrNotFound)
	assert.Len(t, svc.Cart().Lines, 1)
}

func TestCartEditing(t *testing.T) {
	svc := seeded(t, memory.New())
	addToCart(t, svc, "PROD0001", "1", "0")
	addToCart(t, svc, "PROD0002", "1", "0")

	_, err := svc.AddToCart(domain.CartLineInput{ProductID: "PROD0001", Quantity: d("1"), DiscountPercent: d("150")})
	assert.ErrorIs(t, err, store.ErrInvalidArgument)
	_, err = svc.AddToCart(domain.CartLineInput{ProductID: "PROD0001", Quantity: d("0")})
	assert.ErrorIs(t, err, store.ErrInvalidArgument)
	_, err = svc.AddToCart(domain.CartLineInput{ProductID: "PROD0404", Quantity: d("1")})
	assert.ErrorIs(t, err, store.ErrNotFound)

	assert.ErrorIs(t, svc.RemoveFromCart(5), store.ErrIndexOutOfRange)
	require.NoError(t, svc.RemoveFromCart(0))
	assert.Equal(t, "PROD0002", svc.Cart().Lines[0].ProductID)

	svc.ClearCart()
	assert.Empty(t, svc.Cart().Lines)
}

func TestPersistenceFailureLeavesStateUntouched(t *testing.T) {
	gateway := &flakyGateway{Store: memory.New()}
	svc := seeded(t, gateway)
	ctx := context.Background()
	addToCart(t, svc, "PROD0001", "2", "0")

	gateway.fail = true

	_, err := svc.Checkout(ctx, "C1")
	require.ErrorIs(t, err, store.ErrPersistence)
	assert.True(t, stockOf(t, svc, "PROD0001").Equal(d("50")))
	assert.Empty(t, svc.ListOrders())
	assert.Len(t, svc.Cart().Lines, 1)

	_, err = svc.AddProduct(ctx, domain.ProductInput{ID: "P1", Name: "n", Category: "c", UnitPrice: amount("1"), StockQuantity: amount("1"), Unit: "u"})
	require.ErrorIs(t, err, store.ErrPersistence)
	_, err = svc.GetProduct("P1")
	assert.ErrorIs(t, err, store.ErrNotFound)

	gateway.fail = false
	receipt, err := svc.Checkout(ctx, "C1")
	require.NoError(t, err)
	assert.Equal(t, "ORD00001", receipt.Order.OrderID)
}

func TestSetOrderStatus(t *testing.T) {
	svc := seeded(t, memory.New())
	ctx := context.Background()
	addToCart(t, svc, "PROD0001", "1", "0")
	_, err := svc.Checkout(ctx, "C1")
	require.NoError(t, err)

	order, err := svc.SetOrderStatus(ctx, "ORD00001", "completed")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusCompleted, order.Status)

	order, err = svc.SetOrderStatus(ctx, "ORD00001", "Pending")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPending, order.Status)

	_, err = svc.SetOrderStatus(ctx, "ORD00001", "shipped")
	assert.ErrorIs(t, err, store.ErrInvalidArgument)
	_, err = svc.SetOrderStatus(ctx, "ORD00042", "Cancelled")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestOpenFallsBackOnCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kabraji_data.json")
	require.NoError(t, os.WriteFile(path, []byte("{broken"), 0o644))

	logger, hook := test.NewNullLogger()
	svc := Open(context.Background(), jsonfile.New(path, logger), Options{Logger: logger})

	assert.Empty(t, svc.ListProducts())
	var warned bool
	for _, entry := range hook.AllEntries() {
		if entry.Level == log.WarnLevel && entry.Data["component"] == "service" {
			warned = true
			assert.ErrorIs(t, entry.Data[log.ErrorKey].(error), store.ErrPersistence)
		}
	}
	assert.True(t, warned, "expected a warning about the unreadable data file")

	n, err := svc.InitializeDefaults(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 20, n)
}

func TestStateSurvivesReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kabraji_data.json")
	svc := seeded(t, jsonfile.New(path, nil))
	ctx := context.Background()
	addToCart(t, svc, "PROD0001", "2", "10")
	committed, err := svc.Checkout(ctx, "C1")
	require.NoError(t, err)

	reopened := openService(t, jsonfile.New(path, nil))

	assert.Len(t, reopened.ListProducts(), 20)
	assert.True(t, stockOf(t, reopened, "PROD0001").Equal(d("48")))
	customer, err := reopened.GetCustomer("C1")
	require.NoError(t, err)
	assert.Equal(t, "asha@example.com", customer.Email)

	orders := reopened.ListOrders()
	require.Len(t, orders, 1)
	assert.Equal(t, committed.Order.OrderID, orders[0].OrderID)
	assert.True(t, committed.Order.GrandTotal.Equal(orders[0].GrandTotal))
	assert.True(t, committed.Order.Timestamp.Equal(orders[0].Timestamp))
	require.Len(t, orders[0].Lines, 1)
	assert.True(t, orders[0].Lines[0].LineTotal.Equal(d("810")))

	reprinted, err := reopened.ReprintInvoice("ORD00001")
	require.NoError(t, err)
	assert.Equal(t, committed.Invoice, reprinted)
}

func TestReprintInvoiceAfterCustomerDeleted(t *testing.T) {
	svc := seeded(t, memory.New())
	ctx := context.Background()
	addToCart(t, svc, "PROD0001", "1", "0")
	_, err := svc.Checkout(ctx, "C1")
	require.NoError(t, err)
	require.NoError(t, svc.DeleteCustomer(ctx, "C1"))

	text, err := svc.ReprintInvoice("ORD00001")
	require.NoError(t, err)
	assert.Contains(t, text, "Name: Asha Patel")
	assert.NotContains(t, text, "Phone:")

	_, err = svc.ReprintInvoice("ORD00404")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestReportFollowsStateChanges(t *testing.T) {
	mr := miniredis.RunT(t)
	redisCache := cache.NewRedisReportCache(mr.Addr(), "", 0)
	t.Cleanup(func() { _ = redisCache.Close() })

	logger, _ := test.NewNullLogger()
	gateway := memory.New()
	svc := Open(context.Background(), gateway, Options{
		Reports: reporting.NewEngine(redisCache, time.Minute, logger),
		Logger:  logger,
		Clock:   func() time.Time { return fixedNow },
	})
	ctx := context.Background()
	_, err := svc.InitializeDefaults(ctx)
	require.NoError(t, err)
	_, err = svc.AddCustomer(ctx, domain.CustomerInput{ID: "C1", Name: "Asha", Phone: "1"})
	require.NoError(t, err)

	addToCart(t, svc, "PROD0001", "2", "10")
	_, err = svc.Checkout(ctx, "C1")
	require.NoError(t, err)

	report, err := svc.Report(ctx, domain.ReportPeriod{})
	require.NoError(t, err)
	assert.Equal(t, 1, report.TotalOrders)
	assert.Equal(t, "955.80", report.TotalRevenue.StringFixed(2))
	cached := len(mr.Keys())
	assert.Equal(t, 1, cached)

	addToCart(t, svc, "PROD0002", "1", "0")
	_, err = svc.Checkout(ctx, "C1")
	require.NoError(t, err)

	report, err = svc.Report(ctx, domain.ReportPeriod{})
	require.NoError(t, err)
	assert.Equal(t, 2, report.TotalOrders)
	assert.Len(t, mr.Keys(), 2)

	from := fixedNow.AddDate(0, 0, 1)
	to := fixedNow
	_, err = svc.Report(ctx, domain.ReportPeriod{From: &from, To: &to})
	assert.ErrorIs(t, err, store.ErrInvalidArgument)
}

func TestExportReport(t *testing.T) {
	svc := seeded(t, memory.New())
	ctx := context.Background()
	target := filepath.Join(t.TempDir(), "out", "report.txt")

	path, err := svc.ExportReport(ctx, domain.ReportPeriod{}, target)
	require.NoError(t, err)
	assert.Equal(t, target, path)
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "KABRAJI SALES REPORT")
	assert.Contains(t, string(raw), "No low stock items!")

	t.Chdir(t.TempDir())
	path, err = svc.ExportReport(ctx, domain.ReportPeriod{}, "")
	require.NoError(t, err)
	assert.Equal(t, "kabraji_report_20240309_160405.txt", path)
	_, err = os.Stat(path)
	assert.NoError(t, err)

	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))
	_, err = svc.ExportReport(ctx, domain.ReportPeriod{}, filepath.Join(blocker, "report.txt"))
	assert.ErrorIs(t, err, store.ErrPersistence)
}

func TestDashboard(t *testing.T) {
	svc := seeded(t, memory.New())
	ctx := context.Background()
	addToCart(t, svc, "PROD0009", "5", "0")
	_, err := svc.Checkout(ctx, "C1")
	require.NoError(t, err)

	dash := svc.Dashboard()
	assert.Equal(t, 20, dash.ProductCount)
	assert.Equal(t, 1, dash.CustomerCount)
	assert.Equal(t, 1, dash.OrderCount)
	assert.Equal(t, 1, dash.PendingOrders)
	assert.Equal(t, 1, dash.LowStockCount)
	assert.True(t, dash.TotalRevenue.IsPositive())
}
