// Package handler contains the HTTP handlers of the storefront gateway
// API.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/gameshop/gateway/internal/cart"
	"github.com/gameshop/gateway/internal/middleware"
	"github.com/gameshop/gateway/internal/model"
	"github.com/gameshop/gateway/internal/service"
)

// redirect delay the success page advertises before sending the client to
// the order list
const successRedirectSeconds = 2

// Service defines the business-logic contract used by the HTTP handlers.
type Service interface {
	GetCart(ctx context.Context, accountID string) (model.Cart, error)
	AddToCart(ctx context.Context, accountID string, item model.CartLine) (model.Cart, error)
	RemoveFromCart(ctx context.Context, accountID, itemID string) (model.Cart, error)
	ClearCart(ctx context.Context, accountID string) error
	BeginCheckout(ctx context.Context, ident model.Identity) (string, error)
	GetOrders(ctx context.Context, accountID string) ([]model.Order, error)
	LookupPublicOrder(ctx context.Context, orderID string) (string, error)
}

// Handler implements the HTTP handlers of the gateway API.
type Handler struct {
	service        Service
	logger         *zap.Logger
	authMiddleware *middleware.AuthMiddleware
}

// NewHandler creates a new HTTP handler instance.
func NewHandler(s Service, logger *zap.Logger, auth *middleware.AuthMiddleware) *Handler {
	return &Handler{
		service:        s,
		logger:         logger,
		authMiddleware: auth,
	}
}

type cartResponse struct {
	Items model.Cart `json:"items"`
	Total float64    `json:"total"`
}

type noticeResponse struct {
	Error string `json:"error"`
}

func (h *Handler) writeJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("encode response", zap.Error(err))
	}
}

func (h *Handler) writeCart(w http.ResponseWriter, c model.Cart) {
	if c == nil {
		c = model.Cart{}
	}
	h.writeJSON(w, http.StatusOK, cartResponse{Items: c, Total: c.Total()})
}

// GetCart returns the current account's cart with its discounted total.
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	ident, ok := middleware.GetIdentityFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	c, err := h.service.GetCart(r.Context(), ident.ID)
	if err != nil {
		h.logger.Error("get cart error", zap.Error(err), zap.String("accountID", ident.ID))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	h.writeCart(w, c)
}

// AddToCart adds one copy of the posted catalog item to the cart. The
// request body carries the item's catalog snapshot including its stock.
func (h *Handler) AddToCart(w http.ResponseWriter, r *http.Request) {
	ident, ok := middleware.GetIdentityFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	var item model.CartLine
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if item.ID == "" {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	c, err := h.service.AddToCart(r.Context(), ident.ID, item)
	if err != nil {
		var rej *cart.RejectionError
		if errors.As(err, &rej) {
			h.writeJSON(w, http.StatusConflict, noticeResponse{Error: rej.Error()})
			return
		}
		h.logger.Error("add to cart error", zap.Error(err), zap.String("accountID", ident.ID), zap.String("item", item.ID))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	h.writeCart(w, c)
}

// RemoveFromCart deletes the line for the given catalog item id.
func (h *Handler) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	ident, ok := middleware.GetIdentityFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	gameID := chi.URLParam(r, "gameID")

	c, err := h.service.RemoveFromCart(r.Context(), ident.ID, gameID)
	if err != nil {
		h.logger.Error("remove from cart error", zap.Error(err), zap.String("accountID", ident.ID))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	h.writeCart(w, c)
}

// ClearCart resets the account's cart to empty.
func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	ident, ok := middleware.GetIdentityFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	if err := h.service.ClearCart(r.Context(), ident.ID); err != nil {
		h.logger.Error("clear cart error", zap.Error(err), zap.String("accountID", ident.ID))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type checkoutResponse struct {
	URL string `json:"url"`
}

// BeginCheckout creates a checkout session for the current cart and
// returns the provider URL the client must navigate to.
func (h *Handler) BeginCheckout(w http.ResponseWriter, r *http.Request) {
	ident, ok := middleware.GetIdentityFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	url, err := h.service.BeginCheckout(r.Context(), ident)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmptyCart):
			h.writeJSON(w, http.StatusConflict, noticeResponse{Error: "cart is empty"})
		case errors.Is(err, service.ErrCheckoutInFlight):
			h.writeJSON(w, http.StatusConflict, noticeResponse{Error: "checkout already in progress"})
		default:
			h.logger.Error("checkout error", zap.Error(err), zap.String("accountID", ident.ID))
			h.writeJSON(w, http.StatusBadGateway, noticeResponse{Error: "checkout failed, please retry"})
		}
		return
	}

	h.writeJSON(w, http.StatusOK, checkoutResponse{URL: url})
}

type orderResponse struct {
	ID         string  `json:"_id"`
	GameTitles string  `json:"gameTitles"`
	Date       string  `json:"date"`
	Total      float64 `json:"total"`
	Status     string  `json:"status"`
	Badge      string  `json:"badge"`
}

// GetOrders returns the account's order history with the status taxonomy
// rendered to badges. An empty history answers 204.
func (h *Handler) GetOrders(w http.ResponseWriter, r *http.Request) {
	ident, ok := middleware.GetIdentityFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	orders, err := h.service.GetOrders(r.Context(), ident.ID)
	if err != nil {
		h.logger.Error("get orders error", zap.Error(err), zap.String("accountID", ident.ID))
		h.writeJSON(w, http.StatusBadGateway, noticeResponse{Error: "could not fetch orders, please retry later"})
		return
	}

	if len(orders) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	resp := make([]orderResponse, 0, len(orders))
	for _, o := range orders {
		resp = append(resp, orderResponse{
			ID:         o.ID,
			GameTitles: o.GameTitles,
			Date:       o.Date.Format(time.RFC3339),
			Total:      o.Total,
			Status:     string(o.Status),
			Badge:      o.Status.Badge(),
		})
	}

	h.writeJSON(w, http.StatusOK, resp)
}

type successResponse struct {
	Message         string `json:"message"`
	OrderID         string `json:"orderId,omitempty"`
	Redirect        string `json:"redirect"`
	RedirectSeconds int    `json:"redirectSeconds"`
}

// CheckoutSuccess is the landing point after a completed payment: it
// unconditionally clears the cart and points the client at the order
// list.
func (h *Handler) CheckoutSuccess(w http.ResponseWriter, r *http.Request) {
	ident, ok := middleware.GetIdentityFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	if err := h.service.ClearCart(r.Context(), ident.ID); err != nil {
		h.logger.Error("clear cart after payment error", zap.Error(err), zap.String("accountID", ident.ID))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, successResponse{
		Message:         "payment completed, your order has been registered",
		OrderID:         r.URL.Query().Get("orderId"),
		Redirect:        "/api/orders",
		RedirectSeconds: successRedirectSeconds,
	})
}

type cancelResponse struct {
	Message    string `json:"message"`
	OrderID    string `json:"orderId,omitempty"`
	GameTitles string `json:"gameTitles,omitempty"`
}

// CheckoutCancel is the landing point after a cancelled or failed payment.
// It mutates nothing; the order-detail lookup is best effort and its
// failure degrades to a generic message.
func (h *Handler) CheckoutCancel(w http.ResponseWriter, r *http.Request) {
	orderID := r.URL.Query().Get("orderId")

	resp := cancelResponse{
		Message: "payment was not completed, nothing has been charged",
		OrderID: orderID,
	}

	if orderID != "" {
		titles, err := h.service.LookupPublicOrder(r.Context(), orderID)
		if err != nil {
			h.logger.Warn("public order lookup failed", zap.Error(err), zap.String("orderID", orderID))
			resp.GameTitles = "N/A"
		} else {
			resp.GameTitles = titles
		}
	}

	h.writeJSON(w, http.StatusOK, resp)
}
