// Package cart selects, given a basket and a city, the branch that
// minimizes total cost while favoring completeness over price. No
// distance weighting: a city-scoped, barcode-exact-match cart has no
// location input to optimize against.
package cart

import (
	"context"
	"fmt"
	"sort"

	"github.com/chainwatch/price-compare/internal/search"
	"github.com/chainwatch/price-compare/internal/store"
)

// Item is one basket line.
type Item struct {
	Barcode  string
	Quantity int
	Name     string
}

// ItemDetail is the per-item breakdown within one branch's result.
type ItemDetail struct {
	Barcode   string
	Name      string
	Available bool
	Price     float64
	Quantity  int
	Subtotal  float64
}

// BranchResult is one candidate branch's full comparison detail.
type BranchResult struct {
	BranchID       int64
	BranchName     string
	ChainID        int64
	City           string
	Items          []ItemDetail
	AvailableItems int
	MissingItems   int
	TotalPrice     float64
}

// Comparison is the full response of comparing a cart.
type Comparison struct {
	CheapestStore *BranchResult
	AllStores     []BranchResult
	SavingsAmount float64
	SavingsPct    float64
	Items         []Item
}

// MaxCandidates caps the response size of AllStores, the ordered list
// of candidate branches.
const MaxCandidates = 25

// Comparator implements the cart comparison algorithm.
type Comparator struct {
	store store.Store
}

// New builds a Comparator.
func New(s store.Store) *Comparator {
	return &Comparator{store: s}
}

// Compare runs the 4.F algorithm for items in city.
func (c *Comparator) Compare(ctx context.Context, items []Item, city string) (Comparison, error) {
	cityCandidates := search.NormalizeCity(city)
	if len(cityCandidates) == 0 {
		return Comparison{}, fmt.Errorf("cart: city must not be empty")
	}

	branches, err := c.store.BranchesByCity(ctx, cityCandidates)
	if err != nil {
		return Comparison{}, fmt.Errorf("cart: list branches: %w", err)
	}

	var results []BranchResult
	for _, b := range branches {
		select {
		case <-ctx.Done():
			return Comparison{}, ctx.Err()
		default:
		}

		result, err := c.evaluateBranch(ctx, b, items)
		if err != nil {
			return Comparison{}, fmt.Errorf("cart: evaluate branch %d: %w", b.BranchID, err)
		}
		if result.AvailableItems == 0 {
			continue
		}
		results = append(results, result)
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].AvailableItems != results[j].AvailableItems {
			return results[i].AvailableItems > results[j].AvailableItems
		}
		return results[i].TotalPrice < results[j].TotalPrice
	})

	comparison := Comparison{AllStores: capCandidates(results), Items: items}
	if len(results) > 0 {
		best := results[0]
		comparison.CheapestStore = &best
	}

	completeBranches := filterComplete(results, len(items))
	if len(completeBranches) > 1 {
		best := completeBranches[0].TotalPrice
		worst := completeBranches[len(completeBranches)-1].TotalPrice
		comparison.SavingsAmount = worst - best
		if worst > 0 {
			comparison.SavingsPct = (worst - best) / worst * 100
		}
	}

	return comparison, nil
}

func (c *Comparator) evaluateBranch(ctx context.Context, b store.Branch, items []Item) (BranchResult, error) {
	result := BranchResult{
		BranchID:   b.BranchID,
		BranchName: b.Name,
		ChainID:    b.ChainID,
		City:       b.City,
	}

	for _, item := range items {
		detail := ItemDetail{Barcode: item.Barcode, Name: item.Name, Quantity: item.Quantity}

		row, ok, err := c.store.BranchPriceLookup(ctx, b.ChainID, item.Barcode, b.BranchID)
		if err != nil {
			return BranchResult{}, err
		}
		if !ok {
			result.MissingItems++
			result.Items = append(result.Items, detail)
			continue
		}

		detail.Available = true
		detail.Price = row.Price
		if detail.Name == "" {
			detail.Name = row.ProductName
		}
		// Zero-quantity items contribute zero to the total and don't
		// count toward availability, but they still must land in one of
		// the two buckets so AvailableItems+MissingItems == len(items).
		if item.Quantity > 0 {
			detail.Subtotal = row.Price * float64(item.Quantity)
			result.TotalPrice += detail.Subtotal
			result.AvailableItems++
		} else {
			result.MissingItems++
		}
		result.Items = append(result.Items, detail)
	}

	return result, nil
}

func filterComplete(results []BranchResult, cartSize int) []BranchResult {
	var out []BranchResult
	for _, r := range results {
		if r.AvailableItems == cartSize {
			out = append(out, r)
		}
	}
	return out
}

func capCandidates(results []BranchResult) []BranchResult {
	if len(results) > MaxCandidates {
		return results[:MaxCandidates]
	}
	return results
}
