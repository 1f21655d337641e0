package domain

import "fmt"

// Product is a stock-keeping item owned by exactly one Branch.
// Identity is the ID; two products with the same ID are the same entity.
type Product struct {
	ID    string
	Name  string
	Stock int
}

// NewProduct builds a product without an id. Ids are assigned when the product joins a branch.
func NewProduct(name string, stock int) *Product {
	return &Product{Name: name, Stock: stock}
}

// UpdateStock replaces the stock with newStock. Negative values are rejected and leave the product untouched.
func (p *Product) UpdateStock(newStock int) error {
	if newStock < 0 {
		return fmt.Errorf("%w: %d", ErrNegativeStock, newStock)
	}
	p.Stock = newStock
	return nil
}

func (p *Product) Rename(name string) {
	p.Name = name
}

// Same reports whether p and other denote the same product.
func (p *Product) Same(other *Product) bool {
	if p == nil || other == nil {
		return p == other
	}
	return p.ID == other.ID
}

func (p *Product) clone() *Product {
	c := *p
	return &c
}
