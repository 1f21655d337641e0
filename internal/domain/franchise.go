// Package domain holds the franchise aggregate: a Franchise owns its Branches,
// which own their Products. The whole tree is loaded, mutated and persisted as
// a single unit; nothing below the root is addressed or stored on its own.
package domain

// Franchise is the aggregate root.
type Franchise struct {
	ID       string
	Name     string
	Branches []*Branch
}

// ProductWithBranch pairs a product with the name of the branch that holds it.
type ProductWithBranch struct {
	Product    *Product
	BranchName string
}

func NewFranchise(name string) *Franchise {
	return &Franchise{Name: name, Branches: []*Branch{}}
}

// AddBranch appends branch. No duplicate-id check is made here.
func (f *Franchise) AddBranch(branch *Branch) error {
	if branch == nil {
		return ErrNilBranch
	}
	f.Branches = append(f.Branches, branch)
	return nil
}

// RemoveBranch drops the first branch with the given id. Absent ids are ignored.
func (f *Franchise) RemoveBranch(id string) {
	for i, b := range f.Branches {
		if b.ID == id {
			f.Branches = append(f.Branches[:i:i], f.Branches[i+1:]...)
			return
		}
	}
}

func (f *Franchise) FindBranchByID(id string) (*Branch, bool) {
	for _, b := range f.Branches {
		if b.ID == id {
			return b, true
		}
	}
	return nil, false
}

func (f *Franchise) Rename(name string) {
	f.Name = name
}

// ProductsWithMaxStockByBranch returns, in branch order, the highest-stock
// product of every branch that has at least one product.
func (f *Franchise) ProductsWithMaxStockByBranch() []ProductWithBranch {
	out := make([]ProductWithBranch, 0, len(f.Branches))
	for _, b := range f.Branches {
		if p, ok := b.FindProductWithMaxStock(); ok {
			out = append(out, ProductWithBranch{Product: p, BranchName: b.Name})
		}
	}
	return out
}

// Clone returns a deep copy that shares no branch or product with f.
func (f *Franchise) Clone() *Franchise {
	if f == nil {
		return nil
	}
	c := &Franchise{ID: f.ID, Name: f.Name}
	if f.Branches != nil {
		c.Branches = make([]*Branch, len(f.Branches))
		for i, b := range f.Branches {
			c.Branches[i] = b.clone()
		}
	}
	return c
}
