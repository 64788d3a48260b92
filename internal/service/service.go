package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"kabraji/internal/cart"
	"kabraji/internal/catalog"
	"kabraji/internal/directory"
	"kabraji/internal/domain"
	"kabraji/internal/invoice"
	"kabraji/internal/ledger"
	"kabraji/internal/reporting"
	"kabraji/internal/store"
)

type Options struct {
	// InvoiceDir receives invoice_<order>.txt on checkout. Empty disables the artifact.
	InvoiceDir        string
	// LowStockThreshold of zero selects reporting.DefaultLowStockThreshold.
	LowStockThreshold decimal.Decimal
	TopProducts       int
	Reports           *reporting.Engine
	Logger            log.FieldLogger
	Clock             func() time.Time
}

// state is the whole shop: the three durable stores.
type state struct {
	catalog   *catalog.Catalog
	directory *directory.Directory
	ledger    *ledger.Ledger
}

func stateFrom(snapshot domain.Snapshot) *state {
	return &state{
		catalog:   catalog.New(snapshot.Products),
		directory: directory.New(snapshot.Customers),
		ledger:    ledger.New(snapshot.Orders, snapshot.SalesHistory),
	}
}

func (st *state) clone() *state {
	return &state{
		catalog:   st.catalog.Clone(),
		directory: st.directory.Clone(),
		ledger:    st.ledger.Clone(),
	}
}

func (st *state) snapshot() domain.Snapshot {
	return domain.Snapshot{
		Products:     st.catalog.List(),
		Customers:    st.directory.List(),
		Orders:       st.ledger.List(),
		SalesHistory: st.ledger.History(),
	}
}

// Service is the application state object. Every mutation is staged on a copy
// of the state, saved, and only then made current, so a failed save changes nothing.
type Service struct {
	mu       sync.Mutex
	gateway  store.Gateway
	state    *state
	revision string
	cart     *cart.Cart

	reports    *reporting.Engine
	validate   *validator.Validate
	invoiceDir string
	lowStock   decimal.Decimal
	topN       int
	now        func() time.Time
	logger     log.FieldLogger
}

// Open loads the persisted state. A missing or unreadable file is not fatal:
// the service starts empty and logs why.
func Open(ctx context.Context, gateway store.Gateway, opts Options) *Service {
	if opts.Logger == nil {
		opts.Logger = log.StandardLogger()
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.LowStockThreshold.IsZero() {
		opts.LowStockThreshold = decimal.NewFromInt(reporting.DefaultLowStockThreshold)
	}
	if opts.TopProducts <= 0 {
		opts.TopProducts = reporting.DefaultTopN
	}
	if opts.Reports == nil {
		opts.Reports = reporting.NewEngine(nil, 0, opts.Logger)
	}

	s := &Service{
		gateway:    gateway,
		cart:       cart.New(),
		reports:    opts.Reports,
		validate:   newValidator(),
		invoiceDir: opts.InvoiceDir,
		lowStock:   opts.LowStockThreshold,
		topN:       opts.TopProducts,
		now:        opts.Clock,
		logger:     opts.Logger.WithField("component", "service"),
	}

	snapshot, err := gateway.Load(ctx)
	if err != nil {
		s.logger.WithError(err).Warn("could not load saved data, starting with empty stores")
		snapshot = domain.Snapshot{}
	}
	s.state = stateFrom(snapshot)
	s.revision = s.revisionOf(snapshot)
	s.logger.WithFields(log.Fields{
		"products":  s.state.catalog.Len(),
		"customers": s.state.directory.Len(),
		"orders":    s.state.ledger.Len(),
	}).Info("state loaded")
	return s
}

// commit persists staged and makes it current. Callers hold s.mu.
func (s *Service) commit(ctx context.Context, staged *state) error {
	snapshot := staged.snapshot()
	if err := s.gateway.Save(ctx, snapshot); err != nil {
		if !errors.Is(err, store.ErrPersistence) {
			err = errors.Wrapf(store.ErrPersistence, "save: %v", err)
		}
		return err
	}
	s.state = staged
	s.revision = s.revisionOf(snapshot)
	return nil
}

func (s *Service) revisionOf(snapshot domain.Snapshot) string {
	payload, err := store.Encode(snapshot)
	if err != nil {
		return fmt.Sprintf("unencoded-%d", s.now().UnixNano())
	}
	return store.Digest(payload)
}

// InitializeDefaults seeds the standard product table into an empty catalog and
// returns how many products were added. It does nothing once any product exists.
func (s *Service) InitializeDefaults(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.catalog.Len() > 0 {
		return 0, nil
	}
	staged := s.state.clone()
	defaults := catalog.DefaultProducts()
	for _, p := range defaults {
		if err := staged.catalog.Add(p); err != nil {
			return 0, err
		}
	}
	if err := s.commit(ctx, staged); err != nil {
		return 0, err
	}
	s.logger.WithField("products", len(defaults)).Info("seeded default catalog")
	return len(defaults), nil
}

func (s *Service) AddProduct(ctx context.Context, in domain.ProductInput) (domain.Product, error) {
	in = in.Normalize()
	if err := s.check(in); err != nil {
		return domain.Product{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	staged := s.state.clone()
	product := in.Product()
	if err := staged.catalog.Add(product); err != nil {
		return domain.Product{}, err
	}
	if err := s.commit(ctx, staged); err != nil {
		return domain.Product{}, err
	}
	s.logger.WithField("product_id", product.ID).Info("product added")
	return product, nil
}

// UpdateProduct replaces every field of product id. The id in the input is ignored.
func (s *Service) UpdateProduct(ctx context.Context, id string, in domain.ProductInput) (domain.Product, error) {
	in.ID = id
	in = in.Normalize()
	if err := s.check(in); err != nil {
		return domain.Product{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	staged := s.state.clone()
	product := in.Product()
	if err := staged.catalog.Update(product); err != nil {
		return domain.Product{}, err
	}
	if err := s.commit(ctx, staged); err != nil {
		return domain.Product{}, err
	}
	s.logger.WithField("product_id", product.ID).Info("product updated")
	return product, nil
}

func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	staged := s.state.clone()
	if err := staged.catalog.Remove(id); err != nil {
		return err
	}
	if err := s.commit(ctx, staged); err != nil {
		return err
	}
	s.logger.WithField("product_id", id).Info("product deleted")
	return nil
}

func (s *Service) ListProducts() []domain.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.catalog.List()
}

func (s *Service) GetProduct(id string) (domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.catalog.Get(id)
}

func (s *Service) AddCustomer(ctx context.Context, in domain.CustomerInput) (domain.Customer, error) {
	in = in.Normalize()
	if err := s.check(in); err != nil {
		return domain.Customer{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	staged := s.state.clone()
	customer := in.Customer()
	if err := staged.directory.Add(customer); err != nil {
		return domain.Customer{}, err
	}
	if err := s.commit(ctx, staged); err != nil {
		return domain.Customer{}, err
	}
	s.logger.WithField("customer_id", customer.ID).Info("customer added")
	return customer, nil
}

func (s *Service) DeleteCustomer(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	staged := s.state.clone()
	if err := staged.directory.Remove(id); err != nil {
		return err
	}
	if err := s.commit(ctx, staged); err != nil {
		return err
	}
	s.logger.WithField("customer_id", id).Info("customer deleted")
	return nil
}

func (s *Service) ListCustomers() []domain.Customer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.directory.List()
}

func (s *Service) GetCustomer(id string) (domain.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.directory.Get(id)
}

func (s *Service) AddToCart(in domain.CartLineInput) (domain.CartLine, error) {
	if err := s.check(in); err != nil {
		return domain.CartLine{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.AddLine(s.state.catalog, in.ProductID, in.Quantity, in.DiscountPercent)
}

func (s *Service) RemoveFromCart(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.RemoveLine(index)
}

func (s *Service) Cart() domain.CartView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.CartView{Lines: s.cart.Lines(), Summary: s.cart.Summary()}
}

func (s *Service) ClearCart() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cart.Clear()
}

// Checkout commits the cart as a new order for customerID. Stock, ledger and
// cart change together or not at all. The invoice file is best effort: a
// failed write is logged and leaves InvoicePath empty.
func (s *Service) Checkout(ctx context.Context, customerID string) (domain.Receipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cart.Len() == 0 {
		return domain.Receipt{}, errors.Wrap(store.ErrEmptyCart, "checkout")
	}
	customer, err := s.state.directory.Get(customerID)
	if err != nil {
		return domain.Receipt{}, err
	}

	staged := s.state.clone()
	lines := s.cart.Lines()
	for _, line := range lines {
		if err := staged.catalog.DecrementStock(line.ProductID, line.Quantity); err != nil {
			return domain.Receipt{}, err
		}
	}

	summary := s.cart.Summary()
	order := domain.Order{
		OrderID:       staged.ledger.NextOrderID(),
		CustomerID:    customer.ID,
		CustomerName:  customer.Name,
		Timestamp:     s.now(),
		Lines:         lines,
		Subtotal:      summary.Subtotal,
		DiscountTotal: summary.DiscountTotal,
		Tax:           summary.Tax,
		GrandTotal:    summary.GrandTotal,
		Status:        domain.OrderStatusPending,
	}
	if err := staged.ledger.Append(order, domain.NewSalesHistoryEntry(order)); err != nil {
		return domain.Receipt{}, err
	}
	if err := s.commit(ctx, staged); err != nil {
		return domain.Receipt{}, err
	}
	s.cart.Clear()

	receipt := domain.Receipt{Order: order, Invoice: invoice.Render(order, &customer)}
	if s.invoiceDir != "" {
		path, err := invoice.Write(s.invoiceDir, order.OrderID, receipt.Invoice)
		if err != nil {
			s.logger.WithError(err).WithField("order_id", order.OrderID).Warn("invoice file not written")
		} else {
			receipt.InvoicePath = path
		}
	}

	s.logger.WithFields(log.Fields{
		"order_id":    order.OrderID,
		"customer_id": customer.ID,
		"lines":       len(order.Lines),
		"grand_total": order.GrandTotal.StringFixed(2),
	}).Info("order committed")
	return receipt, nil
}

func (s *Service) ListOrders() []domain.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.ledger.List()
}

func (s *Service) GetOrder(orderID string) (domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.ledger.Get(orderID)
}

// SetOrderStatus accepts the status name in any letter case.
func (s *Service) SetOrderStatus(ctx context.Context, orderID string, rawStatus string) (domain.Order, error) {
	status, ok := domain.ParseOrderStatus(rawStatus)
	if !ok {
		return domain.Order{}, errors.Wrapf(store.ErrInvalidArgument, "unknown order status %q", rawStatus)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	staged := s.state.clone()
	if err := staged.ledger.SetStatus(orderID, status); err != nil {
		return domain.Order{}, err
	}
	if err := s.commit(ctx, staged); err != nil {
		return domain.Order{}, err
	}
	s.logger.WithFields(log.Fields{"order_id": orderID, "status": status}).Info("order status changed")
	return s.state.ledger.Get(orderID)
}

// ReprintInvoice renders the invoice of a committed order again.
func (s *Service) ReprintInvoice(orderID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, err := s.state.ledger.Get(orderID)
	if err != nil {
		return "", err
	}
	var customer *domain.Customer
	if c, err := s.state.directory.Get(order.CustomerID); err == nil {
		customer = &c
	}
	return invoice.Render(order, customer), nil
}
