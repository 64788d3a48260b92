package ledger

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kabraji/internal/domain"
	"kabraji/internal/store"
)

func order(id string, total int64) domain.Order {
	return domain.Order{
		OrderID:      id,
		CustomerID:   "C1",
		CustomerName: "Asha",
		Timestamp:    time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
		Lines: []domain.CartLine{{
			ProductID: "PROD0001", ProductName: "Asian Paints Royale",
			Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(total),
			DiscountPercent: decimal.Zero, LineTotal: decimal.NewFromInt(total),
		}},
		GrandTotal: decimal.NewFromInt(total),
		Status:     domain.OrderStatusPending,
	}
}

func appendOrder(t *testing.T, l *Ledger, o domain.Order) {
	t.Helper()
	require.NoError(t, l.Append(o, domain.NewSalesHistoryEntry(o)))
}

func TestNextOrderIDFollowsHighestSuffix(t *testing.T) {
	l := New(nil, nil)
	assert.Equal(t, "ORD00001", l.NextOrderID())

	appendOrder(t, l, order(l.NextOrderID(), 10))
	appendOrder(t, l, order(l.NextOrderID(), 20))
	assert.Equal(t, "ORD00003", l.NextOrderID())

	gapped := New([]domain.Order{order("ORD00007", 1), order("legacy", 1)}, nil)
	assert.Equal(t, "ORD00008", gapped.NextOrderID())
}

func TestAppendRejectsEmptyAndDuplicate(t *testing.T) {
	l := New(nil, nil)

	empty := order("ORD00001", 10)
	empty.Lines = nil
	assert.ErrorIs(t, l.Append(empty, domain.SalesHistoryEntry{}), store.ErrEmptyCart)

	appendOrder(t, l, order("ORD00001", 10))
	assert.ErrorIs(t, l.Append(order("ORD00001", 5), domain.SalesHistoryEntry{}), store.ErrDuplicateKey)
	assert.Len(t, l.History(), 1)
}

func TestSetStatusAllowsAnyTransition(t *testing.T) {
	l := New(nil, nil)
	appendOrder(t, l, order("ORD00001", 10))

	for _, status := range []domain.OrderStatus{
		domain.OrderStatusCompleted,
		domain.OrderStatusCompleted,
		domain.OrderStatusCancelled,
		domain.OrderStatusPending,
	} {
		require.NoError(t, l.SetStatus("ORD00001", status))
		got, err := l.Get("ORD00001")
		require.NoError(t, err)
		assert.Equal(t, status, got.Status)
	}

	assert.ErrorIs(t, l.SetStatus("ORD00009", domain.OrderStatusPending), store.ErrNotFound)
	assert.ErrorIs(t, l.SetStatus("ORD00001", "Shipped"), store.ErrInvalidArgument)
}

func TestTotalRevenueUsesHistory(t *testing.T) {
	l := New(nil, nil)
	appendOrder(t, l, order("ORD00001", 100))
	appendOrder(t, l, order("ORD00002", 250))

	assert.True(t, l.TotalRevenue().Equal(decimal.NewFromInt(350)))
	assert.Equal(t, 2, l.CountByStatus(domain.OrderStatusPending))
}

func TestReturnedOrdersDoNotAliasLedger(t *testing.T) {
	l := New(nil, nil)
	appendOrder(t, l, order("ORD00001", 100))

	got, _ := l.Get("ORD00001")
	got.Lines[0].ProductName = "mutated"
	listed := l.List()
	listed[0].Lines[0].Quantity = decimal.NewFromInt(99)

	again, _ := l.Get("ORD00001")
	assert.Equal(t, "Asian Paints Royale", again.Lines[0].ProductName)
	assert.True(t, again.Lines[0].Quantity.Equal(decimal.NewFromInt(1)))
}
