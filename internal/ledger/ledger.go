package ledger

import (
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"kabraji/internal/domain"
	"kabraji/internal/store"
	"kabraji/internal/xid"
)

// Ledger is the append-only record of committed orders and their sales history.
// Status is the only field that changes after an order is appended.
type Ledger struct {
	orders  []domain.Order
	history []domain.SalesHistoryEntry
	index   map[string]int
}

func New(orders []domain.Order, history []domain.SalesHistoryEntry) *Ledger {
	l := &Ledger{
		orders:  make([]domain.Order, 0, len(orders)),
		history: append([]domain.SalesHistoryEntry(nil), history...),
		index:   make(map[string]int, len(orders)),
	}
	for _, order := range orders {
		l.index[order.OrderID] = len(l.orders)
		l.orders = append(l.orders, order.Clone())
	}
	return l
}

func (l *Ledger) Clone() *Ledger {
	return New(l.orders, l.history)
}

func (l *Ledger) Len() int {
	return len(l.orders)
}

// NextOrderID returns one past the highest numeric suffix in use, so ids stay
// unique even if the ledger is ever trimmed.
func (l *Ledger) NextOrderID() string {
	highest := 0
	for _, order := range l.orders {
		if n, ok := xid.ParseSequence(xid.OrderPrefix, order.OrderID); ok && n > highest {
			highest = n
		}
	}
	return xid.Sequence(xid.OrderPrefix, highest+1)
}

func (l *Ledger) Append(order domain.Order, entry domain.SalesHistoryEntry) error {
	if order.OrderID == "" {
		return errors.Wrap(store.ErrInvalidArgument, "order id is required")
	}
	if len(order.Lines) == 0 {
		return errors.Wrapf(store.ErrEmptyCart, "order %s has no lines", order.OrderID)
	}
	if _, exists := l.index[order.OrderID]; exists {
		return errors.Wrapf(store.ErrDuplicateKey, "order %s", order.OrderID)
	}
	l.index[order.OrderID] = len(l.orders)
	l.orders = append(l.orders, order.Clone())
	l.history = append(l.history, entry)
	return nil
}

func (l *Ledger) Get(orderID string) (domain.Order, error) {
	pos, exists := l.index[orderID]
	if !exists {
		return domain.Order{}, errors.Wrapf(store.ErrNotFound, "order %s", orderID)
	}
	return l.orders[pos].Clone(), nil
}

// SetStatus moves an order to any status, including its current one.
func (l *Ledger) SetStatus(orderID string, status domain.OrderStatus) error {
	if !status.Valid() {
		return errors.Wrapf(store.ErrInvalidArgument, "unknown order status %q", status)
	}
	pos, exists := l.index[orderID]
	if !exists {
		return errors.Wrapf(store.ErrNotFound, "order %s", orderID)
	}
	l.orders[pos].Status = status
	return nil
}

func (l *Ledger) List() []domain.Order {
	out := make([]domain.Order, 0, len(l.orders))
	for _, order := range l.orders {
		out = append(out, order.Clone())
	}
	return out
}

func (l *Ledger) History() []domain.SalesHistoryEntry {
	return append([]domain.SalesHistoryEntry(nil), l.history...)
}

// TotalRevenue sums the history log rather than the orders themselves.
func (l *Ledger) TotalRevenue() decimal.Decimal {
	total := decimal.Zero
	for _, entry := range l.history {
		total = total.Add(entry.GrandTotal)
	}
	return total
}

func (l *Ledger) CountByStatus(status domain.OrderStatus) int {
	n := 0
	for _, order := range l.orders {
		if order.Status == status {
			n++
		}
	}
	return n
}
