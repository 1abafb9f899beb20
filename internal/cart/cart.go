// Package cart implements the reconciliation rules for cart mutations.
package cart

import (
	"fmt"

	"github.com/gameshop/gateway/internal/model"
)

// RejectionError is a local validation rejection. It carries the title of
// the item so the notice can name it; the cart is left unchanged.
type RejectionError struct {
	Title  string
	Reason string
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("%s: %q", e.Reason, e.Title)
}

// ErrOutOfStock rejects an add when the stock ceiling is zero.
func ErrOutOfStock(title string) error {
	return &RejectionError{Title: title, Reason: "item is not available"}
}

// ErrCeilingReached rejects an add when every available copy is already in
// the cart.
func ErrCeilingReached(title string) error {
	return &RejectionError{Title: title, Reason: "all available copies already added"}
}

// Add applies one add-to-cart operation and returns the next cart state.
// The stock ceiling is max(0, item.Stock); reconciliation is purely local,
// the server re-checks stock authoritatively at fulfilment time. On
// rejection the returned cart is the input unchanged.
func Add(c model.Cart, item model.CartLine) (model.Cart, error) {
	ceiling := item.Stock
	if ceiling < 0 {
		ceiling = 0
	}

	if ceiling == 0 {
		return c, ErrOutOfStock(item.Title)
	}

	if i := c.Find(item.ID); i >= 0 {
		if c[i].Quantity >= ceiling {
			return c, ErrCeilingReached(item.Title)
		}
		next := make(model.Cart, len(c))
		copy(next, c)
		next[i].Quantity++
		return next, nil
	}

	line := item
	line.Quantity = 1
	line.Stock = ceiling

	next := make(model.Cart, 0, len(c)+1)
	next = append(next, c...)
	next = append(next, line)
	return next, nil
}

// Remove deletes the line with the given item id, preserving the order of
// the remaining lines. Removing an absent id is a no-op.
func Remove(c model.Cart, id string) model.Cart {
	i := c.Find(id)
	if i < 0 {
		return c
	}

	next := make(model.Cart, 0, len(c)-1)
	next = append(next, c[:i]...)
	next = append(next, c[i+1:]...)
	return next
}
