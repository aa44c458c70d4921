// Package search provides substring/prefix product lookup scoped to a
// city, grouped by barcode across chains.
package search

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/chainwatch/price-compare/internal/store"
)

// BranchPricePoint is one chain's branch stocking a product.
type BranchPricePoint struct {
	BranchID   int64
	BranchName string
	City       string
	Price      float64
}

// Product is one barcode's aggregated search result.
type Product struct {
	Barcode        string
	Name           string
	Branches       []BranchPricePoint
	Min            float64
	Max            float64
	Avg            float64
	Range          float64
	StoreCount     int
	CheapestBranch int64
}

// Service implements product search against the store.
type Service struct {
	store store.Store
}

// New builds a Service.
func New(s store.Store) *Service {
	return &Service{store: s}
}

// NormalizeCity collapses internal whitespace and trims the input, the
// same normalization the original service applies before ever comparing
// a city name. It does not itself decide exact-vs-substring matching —
// that fallback rule (try an exact match, widen to a substring match only
// if nothing matched) lives in each store backend's cityWhereClause,
// which both this service and the cart comparator rely on via
// BranchesByCity/SearchProducts.
func NormalizeCity(city string) []string {
	city = strings.Join(strings.Fields(city), " ")
	if city == "" {
		return nil
	}
	return []string{city}
}

// Search returns up to limit products matching query in city.
func (s *Service) Search(ctx context.Context, query, city string, limit int) ([]Product, error) {
	cityCandidates := NormalizeCity(city)
	if len(cityCandidates) == 0 {
		return nil, fmt.Errorf("search: city must not be empty")
	}
	if limit <= 0 || limit > 100 {
		limit = 100
	}

	rows, err := s.store.SearchProducts(ctx, query, cityCandidates)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	byBarcode := make(map[string]*Product)
	var order []string
	for _, r := range rows {
		p, ok := byBarcode[r.Barcode]
		if !ok {
			p = &Product{Barcode: r.Barcode, Name: r.ProductName}
			byBarcode[r.Barcode] = p
			order = append(order, r.Barcode)
		}
		p.Branches = append(p.Branches, BranchPricePoint{
			BranchID:   r.BranchID,
			BranchName: r.BranchName,
			City:       r.City,
			Price:      r.Price,
		})
	}

	products := make([]Product, 0, len(order))
	for _, barcode := range order {
		p := byBarcode[barcode]
		summarize(p)
		products = append(products, *p)
	}

	sort.Slice(products, func(i, j int) bool {
		if products[i].StoreCount != products[j].StoreCount {
			return products[i].StoreCount > products[j].StoreCount
		}
		return products[i].Min < products[j].Min
	})

	if len(products) > limit {
		products = products[:limit]
	}
	return products, nil
}

// ProductByBarcode returns the single product's per-branch prices in
// a city, or ok=false if no branch in the city stocks it.
func (s *Service) ProductByBarcode(ctx context.Context, barcode, city string) (Product, bool, error) {
	rows, err := s.store.SearchProducts(ctx, "", NormalizeCity(city))
	if err != nil {
		return Product{}, false, fmt.Errorf("search: %w", err)
	}
	p := Product{Barcode: barcode}
	for _, r := range rows {
		if r.Barcode == barcode {
			p.Name = r.ProductName
			p.Branches = append(p.Branches, BranchPricePoint{BranchID: r.BranchID, BranchName: r.BranchName, City: r.City, Price: r.Price})
		}
	}
	if len(p.Branches) == 0 {
		return Product{}, false, nil
	}
	summarize(&p)
	return p, true, nil
}

func summarize(p *Product) {
	if len(p.Branches) == 0 {
		return
	}
	p.Min = p.Branches[0].Price
	p.Max = p.Branches[0].Price
	sum := 0.0
	cheapestIdx := 0
	for i, b := range p.Branches {
		sum += b.Price
		if b.Price < p.Min {
			p.Min = b.Price
			cheapestIdx = i
		}
		if b.Price > p.Max {
			p.Max = b.Price
		}
	}
	p.Avg = sum / float64(len(p.Branches))
	p.Range = p.Max - p.Min
	p.StoreCount = len(p.Branches)
	p.CheapestBranch = p.Branches[cheapestIdx].BranchID
}
