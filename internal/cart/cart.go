package cart

import (
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"kabraji/internal/domain"
	"kabraji/internal/store"
)

var hundred = decimal.NewFromInt(100)

// ProductSource resolves product ids to their current catalog entry.
type ProductSource interface {
	Get(id string) (domain.Product, error)
}

// Cart is the sale being assembled. Lines are priced snapshots and do not
// follow later catalog edits.
type Cart struct {
	lines []domain.CartLine
}

func New() *Cart {
	return &Cart{}
}

// AddLine prices a product into the cart. Stock is checked against the quantity
// already held in the cart for the same product.
func (c *Cart) AddLine(products ProductSource, productID string, quantity decimal.Decimal, discountPercent decimal.Decimal) (domain.CartLine, error) {
	if !quantity.IsPositive() {
		return domain.CartLine{}, errors.Wrapf(store.ErrInvalidArgument, "quantity %s must be greater than zero", quantity)
	}
	if discountPercent.IsNegative() || discountPercent.GreaterThan(hundred) {
		return domain.CartLine{}, errors.Wrapf(store.ErrInvalidArgument, "discount %s%% must be between 0 and 100", discountPercent)
	}

	product, err := products.Get(productID)
	if err != nil {
		return domain.CartLine{}, err
	}

	wanted := quantity.Add(c.QuantityOf(productID))
	if wanted.GreaterThan(product.StockQuantity) {
		return domain.CartLine{}, errors.Wrapf(store.ErrInsufficientStock, "product %s: available %s", productID, product.StockQuantity)
	}

	line := domain.NewCartLine(product, quantity, discountPercent)
	c.lines = append(c.lines, line)
	return line, nil
}

func (c *Cart) RemoveLine(index int) error {
	if index < 0 || index >= len(c.lines) {
		return errors.Wrapf(store.ErrIndexOutOfRange, "line %d of %d", index, len(c.lines))
	}
	c.lines = append(c.lines[:index], c.lines[index+1:]...)
	return nil
}

func (c *Cart) Clear() {
	c.lines = nil
}

func (c *Cart) Len() int {
	return len(c.lines)
}

func (c *Cart) Lines() []domain.CartLine {
	return append([]domain.CartLine(nil), c.lines...)
}

func (c *Cart) Summary() domain.Summary {
	return domain.Summarize(c.lines)
}

// QuantityOf sums the quantity of a product across all lines.
func (c *Cart) QuantityOf(productID string) decimal.Decimal {
	total := decimal.Zero
	for _, line := range c.lines {
		if line.ProductID == productID {
			total = total.Add(line.Quantity)
		}
	}
	return total
}
