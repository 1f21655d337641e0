package domain

// Branch owns an ordered list of products. Insertion order is preserved.
type Branch struct {
	ID       string
	Name     string
	Products []*Product
}

func NewBranch(name string) *Branch {
	return &Branch{Name: name}
}

// AddProduct appends product. The caller assigns the product id beforehand.
func (b *Branch) AddProduct(product *Product) error {
	if product == nil {
		return ErrNilProduct
	}
	b.Products = append(b.Products, product)
	return nil
}

// RemoveProduct drops the first product with the given id.
// Removing an absent product is a no-op.
func (b *Branch) RemoveProduct(id string) {
	for i, p := range b.Products {
		if p.ID == id {
			b.Products = append(b.Products[:i:i], b.Products[i+1:]...)
			return
		}
	}
}

func (b *Branch) FindProductByID(id string) (*Product, bool) {
	for _, p := range b.Products {
		if p.ID == id {
			return p, true
		}
	}
	return nil, false
}

// FindProductWithMaxStock returns the product with the highest stock.
// The scan only replaces the current best on a strictly greater stock, so the
// earliest product wins a tie. An empty branch yields false.
func (b *Branch) FindProductWithMaxStock() (*Product, bool) {
	var best *Product
	for _, p := range b.Products {
		if best == nil || p.Stock > best.Stock {
			best = p
		}
	}
	return best, best != nil
}

func (b *Branch) Rename(name string) {
	b.Name = name
}

func (b *Branch) clone() *Branch {
	c := &Branch{ID: b.ID, Name: b.Name}
	if b.Products != nil {
		c.Products = make([]*Product, len(b.Products))
		for i, p := range b.Products {
			c.Products[i] = p.clone()
		}
	}
	return c
}
