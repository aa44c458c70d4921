// Package savedcart implements saved-cart persistence: a JSON blob
// keyed by (user, cart_name), with insert-or-replace semantics.
package savedcart

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/chainwatch/price-compare/internal/cart"
	"github.com/chainwatch/price-compare/internal/store"
)

// StoredItem is the serialized shape of one cart line.
type StoredItem struct {
	Barcode  string `json:"barcode"`
	Quantity int    `json:"quantity"`
	Name     string `json:"name,omitempty"`
}

// Cart is a saved cart as returned to callers, with items decoded.
type Cart struct {
	CartID    int64
	CartName  string
	City      string
	Items     []StoredItem
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Service implements saved-cart CRUD plus re-comparison.
type Service struct {
	store store.Store
}

// New builds a Service.
func New(s store.Store) *Service {
	return &Service{store: s}
}

// List returns every saved cart for a user.
func (s *Service) List(ctx context.Context, userID int64) ([]Cart, error) {
	rows, err := s.store.ListSavedCarts(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("savedcart: list: %w", err)
	}
	out := make([]Cart, 0, len(rows))
	for _, r := range rows {
		c, err := decode(r)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// Get fetches a single saved cart.
func (s *Service) Get(ctx context.Context, userID, cartID int64) (Cart, bool, error) {
	row, ok, err := s.store.GetSavedCart(ctx, userID, cartID)
	if err != nil || !ok {
		return Cart{}, ok, err
	}
	c, err := decode(row)
	return c, true, err
}

// Save inserts or replaces the cart under (userID, cartName).
func (s *Service) Save(ctx context.Context, userID int64, cartName, city string, items []StoredItem) (Cart, error) {
	itemsJSON, err := json.Marshal(items)
	if err != nil {
		return Cart{}, fmt.Errorf("savedcart: marshal items: %w", err)
	}
	row, err := s.store.SaveCart(ctx, userID, cartName, city, string(itemsJSON), time.Now().UTC())
	if err != nil {
		return Cart{}, fmt.Errorf("savedcart: save: %w", err)
	}
	return decode(row)
}

// Delete removes a saved cart.
func (s *Service) Delete(ctx context.Context, userID, cartID int64) error {
	if err := s.store.DeleteSavedCart(ctx, userID, cartID); err != nil {
		return fmt.Errorf("savedcart: delete: %w", err)
	}
	return nil
}

// CompareAgainstCurrentPrices re-runs the cart comparator on a saved
// cart's stored items and city.
func (s *Service) CompareAgainstCurrentPrices(ctx context.Context, comparator *cart.Comparator, userID, cartID int64) (cart.Comparison, error) {
	saved, ok, err := s.Get(ctx, userID, cartID)
	if err != nil {
		return cart.Comparison{}, err
	}
	if !ok {
		return cart.Comparison{}, &store.NotFoundError{Resource: "saved cart"}
	}

	items := make([]cart.Item, 0, len(saved.Items))
	for _, it := range saved.Items {
		items = append(items, cart.Item{Barcode: it.Barcode, Quantity: it.Quantity, Name: it.Name})
	}
	return comparator.Compare(ctx, items, saved.City)
}

func decode(row store.SavedCart) (Cart, error) {
	var items []StoredItem
	if err := json.Unmarshal([]byte(row.ItemsJSON), &items); err != nil {
		return Cart{}, fmt.Errorf("savedcart: unmarshal items: %w", err)
	}
	return Cart{
		CartID:    row.CartID,
		CartName:  row.CartName,
		City:      row.City,
		Items:     items,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}, nil
}
