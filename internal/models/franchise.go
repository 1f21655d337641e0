// internal/models/franchise.go
package models

import "franchise-service/internal/domain"

// Franchise is the JSON document for one aggregate. Stores persist it as a
// single document and the REST and workflow layers return it as-is.
type Franchise struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Branches []Branch `json:"branches"`
}

type Branch struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Products []Product `json:"products"`
}

type Product struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Stock int    `json:"stock"`
}

// ProductWithBranch is one row of the max-stock projection.
type ProductWithBranch struct {
	Product    Product `json:"product"`
	BranchName string  `json:"branchName"`
}

func FranchiseFromDomain(f *domain.Franchise) Franchise {
	doc := Franchise{ID: f.ID, Name: f.Name, Branches: make([]Branch, 0, len(f.Branches))}
	for _, b := range f.Branches {
		doc.Branches = append(doc.Branches, branchFromDomain(b))
	}
	return doc
}

func branchFromDomain(b *domain.Branch) Branch {
	doc := Branch{ID: b.ID, Name: b.Name, Products: make([]Product, 0, len(b.Products))}
	for _, p := range b.Products {
		doc.Products = append(doc.Products, ProductFromDomain(p))
	}
	return doc
}

func ProductFromDomain(p *domain.Product) Product {
	return Product{ID: p.ID, Name: p.Name, Stock: p.Stock}
}

// ToDomain rebuilds the aggregate. Stored data is trusted: stock is not re-validated.
func (f Franchise) ToDomain() *domain.Franchise {
	out := &domain.Franchise{ID: f.ID, Name: f.Name, Branches: make([]*domain.Branch, 0, len(f.Branches))}
	for _, b := range f.Branches {
		branch := &domain.Branch{ID: b.ID, Name: b.Name, Products: make([]*domain.Product, 0, len(b.Products))}
		for _, p := range b.Products {
			branch.Products = append(branch.Products, &domain.Product{ID: p.ID, Name: p.Name, Stock: p.Stock})
		}
		out.Branches = append(out.Branches, branch)
	}
	return out
}

func ProductsWithBranchFromDomain(in []domain.ProductWithBranch) []ProductWithBranch {
	out := make([]ProductWithBranch, 0, len(in))
	for _, pb := range in {
		out = append(out, ProductWithBranch{Product: ProductFromDomain(pb.Product), BranchName: pb.BranchName})
	}
	return out
}
