// Package service implements the cart-to-order business logic of the
// storefront gateway.
package service

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/gameshop/gateway/internal/cache"
	"github.com/gameshop/gateway/internal/cart"
	"github.com/gameshop/gateway/internal/model"
)

// ErrIdentityRequired is returned when an operation needs an account
// identity and none is present.
var (
	ErrIdentityRequired = errors.New("account identity required")
	// ErrEmptyCart is returned when checkout is triggered on an empty cart.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrCheckoutInFlight is returned when a checkout session request for
	// the account is already being issued.
	ErrCheckoutInFlight = errors.New("checkout already in progress")
)

// Repository is the durable cart store contract used by the service.
type Repository interface {
	Close() error
	GetCart(ctx context.Context, accountID string) (model.Cart, error)
	SaveCart(ctx context.Context, accountID string, c model.Cart) error
}

// ShopClient is the remote shop backend contract used by the service.
type ShopClient interface {
	CreateCheckoutSession(ctx context.Context, ident model.Identity, lines model.Cart) (string, error)
	GetOrders(ctx context.Context, accountID string) ([]model.Order, error)
	GetPublicOrder(ctx context.Context, orderID string) (string, error)
}

// Service owns per-account cart state and the checkout handshake with the
// shop backend. Every cart mutation persists the full cart synchronously,
// so the durable row always reflects the last applied operation.
type Service struct {
	repo   Repository
	shop   ShopClient
	cache  cache.CartCache
	logger *zap.Logger

	sfg singleflight.Group

	mu       sync.Mutex
	inFlight map[string]struct{}
}

// NewService creates the service. The cache may be nil, in which case all
// reads go straight to the repository.
func NewService(repo Repository, shopClient ShopClient, cartCache cache.CartCache, logger *zap.Logger) *Service {
	return &Service{
		repo:     repo,
		shop:     shopClient,
		cache:    cartCache,
		logger:   logger,
		inFlight: make(map[string]struct{}),
	}
}

// Close closes the service resources.
func (s *Service) Close() error {
	if s.repo != nil {
		return s.repo.Close()
	}
	return nil
}

// GetCart returns the cart for the account. An absent identity always
// yields the empty cart without touching storage. Concurrent reads for
// one account share a single lookup.
func (s *Service) GetCart(ctx context.Context, accountID string) (model.Cart, error) {
	if accountID == "" {
		return model.Cart{}, nil
	}

	v, err, _ := s.sfg.Do(accountID, func() (interface{}, error) {
		if s.cache != nil {
			c, cacheErr := s.cache.Get(ctx, accountID)
			if cacheErr == nil {
				return c, nil
			}
			if !errors.Is(cacheErr, cache.ErrCacheMiss) {
				s.logger.Warn("cart cache get failed", zap.Error(cacheErr))
			}
		}

		c, repoErr := s.repo.GetCart(ctx, accountID)
		if repoErr != nil {
			return nil, repoErr
		}

		// Fill synchronously: a deferred write could land after a later
		// mutation's invalidation and pin a stale cart until the TTL.
		if s.cache != nil {
			if setErr := s.cache.Set(ctx, accountID, c); setErr != nil {
				s.logger.Warn("cart cache set failed", zap.Error(setErr))
			}
		}

		return c, nil
	})
	if err != nil {
		return nil, err
	}

	return v.(model.Cart), nil
}

// AddToCart reconciles one add operation against the item's stock snapshot
// and persists the result. Rejections leave the stored cart untouched.
func (s *Service) AddToCart(ctx context.Context, accountID string, item model.CartLine) (model.Cart, error) {
	if accountID == "" {
		return nil, ErrIdentityRequired
	}

	current, err := s.GetCart(ctx, accountID)
	if err != nil {
		return nil, err
	}

	next, err := cart.Add(current, item)
	if err != nil {
		return current, err
	}

	if err := s.persist(ctx, accountID, next); err != nil {
		return nil, err
	}

	return next, nil
}

// RemoveFromCart deletes the line with the given item id and persists the
// result. Removing an absent id is a no-op.
func (s *Service) RemoveFromCart(ctx context.Context, accountID, itemID string) (model.Cart, error) {
	if accountID == "" {
		return nil, ErrIdentityRequired
	}

	current, err := s.GetCart(ctx, accountID)
	if err != nil {
		return nil, err
	}

	next := cart.Remove(current, itemID)

	if err := s.persist(ctx, accountID, next); err != nil {
		return nil, err
	}

	return next, nil
}

// ClearCart resets the account's cart to the empty sequence. Safe to call
// on an already empty cart.
func (s *Service) ClearCart(ctx context.Context, accountID string) error {
	if accountID == "" {
		return ErrIdentityRequired
	}

	return s.persist(ctx, accountID, model.Cart{})
}

// persist writes the cart synchronously and drops any cached copy so the
// next read sees the durable state.
func (s *Service) persist(ctx context.Context, accountID string, c model.Cart) error {
	if err := s.repo.SaveCart(ctx, accountID, c); err != nil {
		return err
	}

	if s.cache != nil {
		if err := s.cache.Delete(ctx, accountID); err != nil {
			s.logger.Warn("cart cache invalidate failed", zap.Error(err))
		}
	}

	return nil
}

// BeginCheckout snapshots the cart and creates exactly one checkout
// session for it, returning the provider redirect URL. A second trigger
// while a session request is in flight is refused; on failure the cart is
// left untouched and checkout may be retried.
func (s *Service) BeginCheckout(ctx context.Context, ident model.Identity) (string, error) {
	if !ident.Present() {
		return "", ErrIdentityRequired
	}

	lines, err := s.GetCart(ctx, ident.ID)
	if err != nil {
		return "", err
	}
	if len(lines) == 0 {
		return "", ErrEmptyCart
	}

	s.mu.Lock()
	if _, busy := s.inFlight[ident.ID]; busy {
		s.mu.Unlock()
		return "", ErrCheckoutInFlight
	}
	s.inFlight[ident.ID] = struct{}{}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.inFlight, ident.ID)
		s.mu.Unlock()
	}()

	snapshot := make(model.Cart, len(lines))
	copy(snapshot, lines)

	return s.shop.CreateCheckoutSession(ctx, ident, snapshot)
}

// GetOrders fetches the account's order records from the shop backend.
func (s *Service) GetOrders(ctx context.Context, accountID string) ([]model.Order, error) {
	if accountID == "" {
		return nil, ErrIdentityRequired
	}
	return s.shop.GetOrders(ctx, accountID)
}

// LookupPublicOrder fetches the game titles of one order through the
// public endpoint. Used best-effort by the cancel page.
func (s *Service) LookupPublicOrder(ctx context.Context, orderID string) (string, error) {
	return s.shop.GetPublicOrder(ctx, orderID)
}
