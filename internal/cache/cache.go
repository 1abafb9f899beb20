// Package cache provides the optional read-through cache for cart state.
package cache

import (
	"context"
	"errors"

	"github.com/gameshop/gateway/internal/model"
)

// ErrCacheMiss is returned by Get when no entry exists for the account.
var ErrCacheMiss = errors.New("cart not found in cache")

// CartCache is the contract the cart service uses to keep hot cart reads
// off the database. The durable store stays authoritative.
type CartCache interface {
	Get(ctx context.Context, accountID string) (model.Cart, error)
	Set(ctx context.Context, accountID string, c model.Cart) error
	Delete(ctx context.Context, accountID string) error
}
