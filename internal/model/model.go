// Package model contains the domain entities of the storefront gateway.
package model

import "time"

// Identity identifies the authenticated account a request acts for.
// The zero value means no identity is present.
type Identity struct {
	ID    string
	Email string
}

// Present reports whether an account identity is attached.
func (i Identity) Present() bool {
	return i.ID != ""
}

// CartLine is one catalog item in a cart together with its quantity and
// the stock snapshot captured when the item was first added.
type CartLine struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	Price    float64 `json:"price"`
	Discount float64 `json:"discount"`
	Quantity int     `json:"quantity"`
	Stock    int     `json:"stock"`
	Preorder bool    `json:"preorder"`
}

// LineTotal returns the discounted price of the line.
func (l CartLine) LineTotal() float64 {
	return l.Price * (1 - l.Discount/100) * float64(l.Quantity)
}

// Cart is an ordered sequence of cart lines. Insertion order is meaningful
// for display and line identity is keyed by the catalog item id.
type Cart []CartLine

// Find returns the index of the line with the given item id, or -1.
func (c Cart) Find(id string) int {
	for i, l := range c {
		if l.ID == id {
			return i
		}
	}
	return -1
}

// Total returns the discounted total of all lines.
func (c Cart) Total() float64 {
	var sum float64
	for _, l := range c {
		sum += l.LineTotal()
	}
	return sum
}

// OrderStatus is the closed taxonomy of order states shown to the user.
type OrderStatus string

const (
	OrderStatusPaid                OrderStatus = "pagato"
	OrderStatusFailed              OrderStatus = "fallito"
	OrderStatusPendingVerification OrderStatus = "in_attesa_verifica"
)

// ParseOrderStatus maps a wire status string onto the taxonomy. Unknown
// values are preserved verbatim rather than rejected, so a new backend
// status renders as plain text instead of breaking the order list.
func ParseOrderStatus(s string) OrderStatus {
	switch s {
	case "pagato", "paid":
		return OrderStatusPaid
	case "fallito", "failed":
		return OrderStatusFailed
	case "in_attesa_verifica", "pending_verification":
		return OrderStatusPendingVerification
	default:
		return OrderStatus(s)
	}
}

// Known reports whether the status is a member of the closed taxonomy.
func (s OrderStatus) Known() bool {
	switch s {
	case OrderStatusPaid, OrderStatusFailed, OrderStatusPendingVerification:
		return true
	}
	return false
}

// Badge returns the display badge class for the status. Unknown statuses
// get the neutral badge.
func (s OrderStatus) Badge() string {
	switch s {
	case OrderStatusPaid:
		return "success"
	case OrderStatusFailed:
		return "danger"
	case OrderStatusPendingVerification:
		return "warning"
	default:
		return "secondary"
	}
}

// Order is a read-only projection of an account's order as reported by the
// shop backend. The gateway never mutates orders.
type Order struct {
	ID         string
	Date       time.Time
	Total      float64
	Status     OrderStatus
	GameTitles string
}
