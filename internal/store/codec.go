package store

import (
	"bytes"
	"encoding/json"
	"sort"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"kabraji/internal/domain"
)

// document is the on-disk layout: products and customers keyed by id,
// orders and sales history as ordered sequences.
type document struct {
	Products     map[string]productRecord   `json:"products"`
	Customers    map[string]customerRecord  `json:"customers"`
	Orders       []domain.Order             `json:"orders"`
	SalesHistory []domain.SalesHistoryEntry `json:"sales_history"`
}

type productRecord struct {
	Name          string          `json:"name"`
	Category      string          `json:"category"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	StockQuantity decimal.Decimal `json:"stock_quantity"`
	Unit          string          `json:"unit"`
}

type customerRecord struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	Address string `json:"address"`
}

// Encode renders a snapshot in the persisted layout. Output is deterministic.
func Encode(snapshot domain.Snapshot) ([]byte, error) {
	doc := document{
		Products:     make(map[string]productRecord, len(snapshot.Products)),
		Customers:    make(map[string]customerRecord, len(snapshot.Customers)),
		Orders:       make([]domain.Order, 0, len(snapshot.Orders)),
		SalesHistory: make([]domain.SalesHistoryEntry, 0, len(snapshot.SalesHistory)),
	}
	for _, p := range snapshot.Products {
		doc.Products[p.ID] = productRecord{
			Name:          p.Name,
			Category:      p.Category,
			UnitPrice:     p.UnitPrice,
			StockQuantity: p.StockQuantity,
			Unit:          p.Unit,
		}
	}
	for _, c := range snapshot.Customers {
		doc.Customers[c.ID] = customerRecord{
			Name:    c.Name,
			Phone:   c.Phone,
			Email:   c.Email,
			Address: c.Address,
		}
	}
	for _, o := range snapshot.Orders {
		if o.Lines == nil {
			o.Lines = []domain.CartLine{}
		}
		doc.Orders = append(doc.Orders, o)
	}
	doc.SalesHistory = append(doc.SalesHistory, snapshot.SalesHistory...)

	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(doc); err != nil {
		return nil, errors.Wrap(err, "encode snapshot")
	}
	return buf.Bytes(), nil
}

// Decode parses the persisted layout. Products and customers come back ordered by id.
// Unknown keys and orders without an id, lines or a known status are rejected.
func Decode(payload []byte) (domain.Snapshot, error) {
	var doc document
	decoder := json.NewDecoder(bytes.NewReader(payload))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&doc); err != nil {
		return domain.Snapshot{}, errors.Wrap(err, "decode snapshot")
	}
	for i, order := range doc.Orders {
		switch {
		case order.OrderID == "":
			return domain.Snapshot{}, errors.Errorf("order at position %d has no order_id", i)
		case len(order.Lines) == 0:
			return domain.Snapshot{}, errors.Errorf("order %s has no lines", order.OrderID)
		case !order.Status.Valid():
			return domain.Snapshot{}, errors.Errorf("order %s has unknown status %q", order.OrderID, order.Status)
		}
	}

	snapshot := domain.Snapshot{
		Products:     make([]domain.Product, 0, len(doc.Products)),
		Customers:    make([]domain.Customer, 0, len(doc.Customers)),
		Orders:       make([]domain.Order, 0, len(doc.Orders)),
		SalesHistory: make([]domain.SalesHistoryEntry, 0, len(doc.SalesHistory)),
	}
	for id, rec := range doc.Products {
		snapshot.Products = append(snapshot.Products, domain.Product{
			ID:            id,
			Name:          rec.Name,
			Category:      rec.Category,
			UnitPrice:     rec.UnitPrice,
			StockQuantity: rec.StockQuantity,
			Unit:          rec.Unit,
		})
	}
	sort.Slice(snapshot.Products, func(i, j int) bool {
		return snapshot.Products[i].ID < snapshot.Products[j].ID
	})
	for id, rec := range doc.Customers {
		snapshot.Customers = append(snapshot.Customers, domain.Customer{
			ID:      id,
			Name:    rec.Name,
			Phone:   rec.Phone,
			Email:   rec.Email,
			Address: rec.Address,
		})
	}
	sort.Slice(snapshot.Customers, func(i, j int) bool {
		return snapshot.Customers[i].ID < snapshot.Customers[j].ID
	})
	snapshot.Orders = append(snapshot.Orders, doc.Orders...)
	snapshot.SalesHistory = append(snapshot.SalesHistory, doc.SalesHistory...)
	return snapshot, nil
}
