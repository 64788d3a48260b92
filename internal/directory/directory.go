package directory

import (
	"github.com/pkg/errors"

	"kabraji/internal/domain"
	"kabraji/internal/store"
)

// Directory owns the customer table. Customers are added and removed, never edited.
type Directory struct {
	customers []domain.Customer
	index     map[string]int
}

func New(customers []domain.Customer) *Directory {
	d := &Directory{
		customers: make([]domain.Customer, 0, len(customers)),
		index:     make(map[string]int, len(customers)),
	}
	for _, c := range customers {
		if _, exists := d.index[c.ID]; exists {
			continue
		}
		d.index[c.ID] = len(d.customers)
		d.customers = append(d.customers, c)
	}
	return d
}

func (d *Directory) Clone() *Directory {
	return New(d.customers)
}

func (d *Directory) Len() int {
	return len(d.customers)
}

func (d *Directory) Add(customer domain.Customer) error {
	if customer.ID == "" || customer.Name == "" || customer.Phone == "" {
		return errors.Wrap(store.ErrInvalidArgument, "customer id, name and phone are required")
	}
	if _, exists := d.index[customer.ID]; exists {
		return errors.Wrapf(store.ErrDuplicateKey, "customer %s", customer.ID)
	}
	d.index[customer.ID] = len(d.customers)
	d.customers = append(d.customers, customer)
	return nil
}

func (d *Directory) Remove(id string) error {
	pos, exists := d.index[id]
	if !exists {
		return errors.Wrapf(store.ErrNotFound, "customer %s", id)
	}
	d.customers = append(d.customers[:pos], d.customers[pos+1:]...)
	delete(d.index, id)
	for i := pos; i < len(d.customers); i++ {
		d.index[d.customers[i].ID] = i
	}
	return nil
}

func (d *Directory) Get(id string) (domain.Customer, error) {
	pos, exists := d.index[id]
	if !exists {
		return domain.Customer{}, errors.Wrapf(store.ErrNotFound, "customer %s", id)
	}
	return d.customers[pos], nil
}

func (d *Directory) List() []domain.Customer {
	return append([]domain.Customer(nil), d.customers...)
}
