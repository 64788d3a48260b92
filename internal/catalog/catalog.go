package catalog

import (
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"kabraji/internal/domain"
	"kabraji/internal/store"
)

// Catalog owns the product table. Listing order is insertion order.
type Catalog struct {
	products []domain.Product
	index    map[string]int
}

func New(products []domain.Product) *Catalog {
	c := &Catalog{
		products: make([]domain.Product, 0, len(products)),
		index:    make(map[string]int, len(products)),
	}
	for _, p := range products {
		if _, exists := c.index[p.ID]; exists {
			continue
		}
		c.index[p.ID] = len(c.products)
		c.products = append(c.products, p)
	}
	return c
}

func (c *Catalog) Clone() *Catalog {
	return New(c.products)
}

func (c *Catalog) Len() int {
	return len(c.products)
}

func (c *Catalog) Add(product domain.Product) error {
	if err := checkProduct(product); err != nil {
		return err
	}
	if _, exists := c.index[product.ID]; exists {
		return errors.Wrapf(store.ErrDuplicateKey, "product %s", product.ID)
	}
	c.index[product.ID] = len(c.products)
	c.products = append(c.products, product)
	return nil
}

// Update replaces every field of an existing product except its id.
func (c *Catalog) Update(product domain.Product) error {
	if err := checkProduct(product); err != nil {
		return err
	}
	pos, exists := c.index[product.ID]
	if !exists {
		return errors.Wrapf(store.ErrNotFound, "product %s", product.ID)
	}
	c.products[pos] = product
	return nil
}

func (c *Catalog) Remove(id string) error {
	pos, exists := c.index[id]
	if !exists {
		return errors.Wrapf(store.ErrNotFound, "product %s", id)
	}
	c.products = append(c.products[:pos], c.products[pos+1:]...)
	delete(c.index, id)
	for i := pos; i < len(c.products); i++ {
		c.index[c.products[i].ID] = i
	}
	return nil
}

func (c *Catalog) Get(id string) (domain.Product, error) {
	pos, exists := c.index[id]
	if !exists {
		return domain.Product{}, errors.Wrapf(store.ErrNotFound, "product %s", id)
	}
	return c.products[pos], nil
}

func (c *Catalog) List() []domain.Product {
	return append([]domain.Product(nil), c.products...)
}

// DecrementStock removes amount from a product's stock, refusing to go below zero.
func (c *Catalog) DecrementStock(id string, amount decimal.Decimal) error {
	pos, exists := c.index[id]
	if !exists {
		return errors.Wrapf(store.ErrNotFound, "product %s", id)
	}
	if !amount.IsPositive() {
		return errors.Wrapf(store.ErrInvalidArgument, "decrement of %s for product %s", amount, id)
	}
	product := c.products[pos]
	if amount.GreaterThan(product.StockQuantity) {
		return errors.Wrapf(store.ErrInsufficientStock, "product %s: requested %s, available %s", id, amount, product.StockQuantity)
	}
	product.StockQuantity = product.StockQuantity.Sub(amount)
	c.products[pos] = product
	return nil
}

func checkProduct(p domain.Product) error {
	if p.ID == "" || p.Name == "" || p.Category == "" || p.Unit == "" {
		return errors.Wrap(store.ErrInvalidArgument, "product id, name, category and unit are required")
	}
	if p.UnitPrice.IsNegative() || p.StockQuantity.IsNegative() {
		return errors.Wrapf(store.ErrInvalidArgument, "product %s: price and stock must not be negative", p.ID)
	}
	return nil
}
