package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"kabraji/internal/domain"
	"kabraji/internal/reporting"
	"kabraji/internal/service"
	"kabraji/internal/store"
	"kabraji/internal/store/jsonfile"
)

func newApp(out io.Writer, errOut io.Writer) *cli.App {
	return &cli.App{
		Name:      "kabraji",
		Usage:     "operate the Kabraji shop data file",
		Writer:    out,
		ErrWriter: errOut,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "data-file", Value: "kabraji_data.json", EnvVars: []string{"KABRAJI_DATA_FILE"}},
			&cli.StringFlag{Name: "invoice-dir", Value: ".", EnvVars: []string{"KABRAJI_INVOICE_DIR"}},
			&cli.StringFlag{Name: "log-level", Value: "warn", EnvVars: []string{"KABRAJI_LOG_LEVEL"}},
		},
		Commands: []*cli.Command{
			{
				Name:   "seed",
				Usage:  "load the default product table into an empty catalog",
				Action: seedAction,
			},
			{
				Name:  "products",
				Usage: "manage the catalog",
				Subcommands: []*cli.Command{
					{Name: "list", Action: listProductsAction},
					{Name: "add", Flags: productFlags(true), Action: addProductAction},
					{Name: "update", ArgsUsage: "ID", Flags: productFlags(false), Action: updateProductAction},
					{Name: "delete", ArgsUsage: "ID", Action: deleteProductAction},
				},
			},
			{
				Name:  "customers",
				Usage: "manage the customer directory",
				Subcommands: []*cli.Command{
					{Name: "list", Action: listCustomersAction},
					{
						Name: "add",
						Flags: []cli.Flag{
							&cli.StringFlag{Name: "id", Required: true},
							&cli.StringFlag{Name: "name", Required: true},
							&cli.StringFlag{Name: "phone", Required: true},
							&cli.StringFlag{Name: "email"},
							&cli.StringFlag{Name: "address"},
						},
						Action: addCustomerAction,
					},
					{Name: "delete", ArgsUsage: "ID", Action: deleteCustomerAction},
				},
			},
			{
				Name:      "sell",
				Usage:     "check out a sale in one step",
				UsageText: "kabraji sell --customer C1 --line PROD0001:2:10 --line PROD0011:5",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "customer", Required: true},
					&cli.StringSliceFlag{Name: "line", Required: true, Usage: "PRODUCT:QTY[:DISCOUNT%]"},
				},
				Action: sellAction,
			},
			{
				Name:  "orders",
				Usage: "inspect committed orders",
				Subcommands: []*cli.Command{
					{Name: "list", Action: listOrdersAction},
					{Name: "status", ArgsUsage: "ORDER_ID STATUS", Action: orderStatusAction},
					{Name: "invoice", ArgsUsage: "ORDER_ID", Action: invoiceAction},
				},
			},
			{
				Name:  "report",
				Usage: "print or export the sales report",
				Flags: []cli.Flag{
					&cli.TimestampFlag{Name: "from", Layout: "2006-01-02"},
					&cli.TimestampFlag{Name: "to", Layout: "2006-01-02"},
					&cli.StringFlag{Name: "out", Usage: "export to this file; \"-\" for the default name"},
				},
				Action: reportAction,
			},
			{
				Name:   "dashboard",
				Action: dashboardAction,
			},
		},
	}
}

func productFlags(withID bool) []cli.Flag {
	flags := []cli.Flag{
		&cli.StringFlag{Name: "name", Required: true},
		&cli.StringFlag{Name: "category", Required: true},
		&cli.StringFlag{Name: "price", Required: true},
		&cli.StringFlag{Name: "stock", Required: true},
		&cli.StringFlag{Name: "unit", Required: true},
	}
	if withID {
		flags = append([]cli.Flag{&cli.StringFlag{Name: "id", Required: true}}, flags...)
	}
	return flags
}

func openService(c *cli.Context) *service.Service {
	logger := log.New()
	logger.SetOutput(c.App.ErrWriter)
	if level, err := log.ParseLevel(c.String("log-level")); err == nil {
		logger.SetLevel(level)
	}
	return service.Open(c.Context, jsonfile.New(c.String("data-file"), logger), service.Options{
		InvoiceDir: c.String("invoice-dir"),
		Logger:     logger,
	})
}

func requireArgs(c *cli.Context, n int) error {
	if c.NArg() != n {
		return errors.Wrapf(store.ErrInvalidArgument, "expected %d argument(s): %s", n, c.Command.ArgsUsage)
	}
	return nil
}

func seedAction(c *cli.Context) error {
	n, err := openService(c).InitializeDefaults(c.Context)
	if err != nil {
		return err
	}
	if n == 0 {
		fmt.Fprintln(c.App.Writer, "catalog already has products; nothing seeded")
		return nil
	}
	fmt.Fprintf(c.App.Writer, "seeded %d products\n", n)
	return nil
}

func productInput(c *cli.Context, id string) (domain.ProductInput, error) {
	price, err := domain.ParseAmount(c.String("price"))
	if err != nil {
		return domain.ProductInput{}, errors.Wrap(store.ErrInvalidArgument, err.Error())
	}
	stock, err := domain.ParseAmount(c.String("stock"))
	if err != nil {
		return domain.ProductInput{}, errors.Wrap(store.ErrInvalidArgument, err.Error())
	}
	return domain.ProductInput{
		ID:            id,
		Name:          c.String("name"),
		Category:      c.String("category"),
		UnitPrice:     &price,
		StockQuantity: &stock,
		Unit:          c.String("unit"),
	}, nil
}

func listProductsAction(c *cli.Context) error {
	tw := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCATEGORY\tPRICE\tSTOCK\tUNIT")
	for _, p := range openService(c).ListProducts() {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", p.ID, p.Name, p.Category, domain.FormatMoney(p.UnitPrice), p.StockQuantity, p.Unit)
	}
	return tw.Flush()
}

func addProductAction(c *cli.Context) error {
	in, err := productInput(c, c.String("id"))
	if err != nil {
		return err
	}
	product, err := openService(c).AddProduct(c.Context, in)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "added %s\n", product.ID)
	return nil
}

func updateProductAction(c *cli.Context) error {
	if err := requireArgs(c, 1); err != nil {
		return err
	}
	in, err := productInput(c, c.Args().First())
	if err != nil {
		return err
	}
	product, err := openService(c).UpdateProduct(c.Context, in.ID, in)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "updated %s\n", product.ID)
	return nil
}

func deleteProductAction(c *cli.Context) error {
	if err := requireArgs(c, 1); err != nil {
		return err
	}
	if err := openService(c).DeleteProduct(c.Context, c.Args().First()); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "deleted %s\n", c.Args().First())
	return nil
}

func listCustomersAction(c *cli.Context) error {
	tw := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tPHONE\tEMAIL\tADDRESS")
	for _, cu := range openService(c).ListCustomers() {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", cu.ID, cu.Name, cu.Phone, cu.Email, cu.Address)
	}
	return tw.Flush()
}

func addCustomerAction(c *cli.Context) error {
	customer, err := openService(c).AddCustomer(c.Context, domain.CustomerInput{
		ID:      c.String("id"),
		Name:    c.String("name"),
		Phone:   c.String("phone"),
		Email:   c.String("email"),
		Address: c.String("address"),
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "added %s\n", customer.ID)
	return nil
}

func deleteCustomerAction(c *cli.Context) error {
	if err := requireArgs(c, 1); err != nil {
		return err
	}
	if err := openService(c).DeleteCustomer(c.Context, c.Args().First()); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "deleted %s\n", c.Args().First())
	return nil
}

// parseLine reads PRODUCT:QTY[:DISCOUNT%].
func parseLine(raw string) (domain.CartLineInput, error) {
	parts := strings.Split(raw, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return domain.CartLineInput{}, errors.Wrapf(store.ErrInvalidArgument, "line %q: want PRODUCT:QTY[:DISCOUNT]", raw)
	}
	qty, err := decimal.NewFromString(strings.TrimSpace(parts[1]))
	if err != nil {
		return domain.CartLineInput{}, errors.Wrapf(store.ErrInvalidArgument, "line %q: bad quantity", raw)
	}
	discount := decimal.Zero
	if len(parts) == 3 {
		if discount, err = decimal.NewFromString(strings.TrimSpace(parts[2])); err != nil {
			return domain.CartLineInput{}, errors.Wrapf(store.ErrInvalidArgument, "line %q: bad discount", raw)
		}
	}
	return domain.CartLineInput{ProductID: strings.TrimSpace(parts[0]), Quantity: qty, DiscountPercent: discount}, nil
}

func sellAction(c *cli.Context) error {
	svc := openService(c)
	for _, raw := range c.StringSlice("line") {
		in, err := parseLine(raw)
		if err != nil {
			return err
		}
		if _, err := svc.AddToCart(in); err != nil {
			return err
		}
	}
	receipt, err := svc.Checkout(c.Context, c.String("customer"))
	if err != nil {
		return err
	}
	fmt.Fprint(c.App.Writer, receipt.Invoice)
	if receipt.InvoicePath != "" {
		fmt.Fprintf(c.App.Writer, "invoice saved to %s\n", receipt.InvoicePath)
	}
	return nil
}

func listOrdersAction(c *cli.Context) error {
	tw := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ORDER\tDATE\tCUSTOMER\tTOTAL\tSTATUS")
	for _, o := range openService(c).ListOrders() {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", o.OrderID, o.Timestamp.Format("02/01/2006 15:04"), o.CustomerName, domain.FormatMoney(o.GrandTotal), o.Status)
	}
	return tw.Flush()
}

func orderStatusAction(c *cli.Context) error {
	if err := requireArgs(c, 2); err != nil {
		return err
	}
	order, err := openService(c).SetOrderStatus(c.Context, c.Args().Get(0), c.Args().Get(1))
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "%s is now %s\n", order.OrderID, order.Status)
	return nil
}

func invoiceAction(c *cli.Context) error {
	if err := requireArgs(c, 1); err != nil {
		return err
	}
	text, err := openService(c).ReprintInvoice(c.Args().First())
	if err != nil {
		return err
	}
	fmt.Fprint(c.App.Writer, text)
	return nil
}

func reportAction(c *cli.Context) error {
	var period domain.ReportPeriod
	if from := c.Timestamp("from"); from != nil {
		day := dateOnly(*from)
		period.From = &day
	}
	if to := c.Timestamp("to"); to != nil {
		day := dateOnly(*to)
		period.To = &day
	}

	svc := openService(c)
	if out := c.String("out"); out != "" {
		if out == "-" {
			out = ""
		}
		path, err := svc.ExportReport(c.Context, period, out)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.App.Writer, "report exported to %s\n", path)
		return nil
	}

	report, err := svc.Report(c.Context, period)
	if err != nil {
		return err
	}
	fmt.Fprint(c.App.Writer, reporting.RenderText(report))
	return nil
}

func dashboardAction(c *cli.Context) error {
	d := openService(c).Dashboard()
	tw := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Products\t%d\n", d.ProductCount)
	fmt.Fprintf(tw, "Customers\t%d\n", d.CustomerCount)
	fmt.Fprintf(tw, "Orders\t%d\n", d.OrderCount)
	fmt.Fprintf(tw, "Pending orders\t%d\n", d.PendingOrders)
	fmt.Fprintf(tw, "Low stock items\t%d\n", d.LowStockCount)
	fmt.Fprintf(tw, "Revenue\t%s\n", domain.FormatMoney(d.TotalRevenue))
	return tw.Flush()
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
