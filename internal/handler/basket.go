package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/eshopgo/checkout-pipeline/internal/domain/basket"
)

// getBasketResponse wraps a cart with its derived total.
type getBasketResponse struct {
	Cart       *basket.ShoppingCart `json:"cart"`
	TotalPrice string               `json:"total_price"`
}

// GetBasket returns the user's cart, or an empty cart when none exists yet.
// The default-cart decision lives here at the API boundary, not in the
// store.
func (h *Handler) GetBasket(w http.ResponseWriter, r *http.Request) {
	userName := r.PathValue("user")

	cart, err := h.baskets.Get(r.Context(), userName)
	switch {
	case errors.Is(err, basket.ErrNotFound):
		cart = &basket.ShoppingCart{UserName: userName, Items: []basket.CartItem{}}
	case err != nil:
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, getBasketResponse{Cart: cart, TotalPrice: cart.TotalPrice().String()})
}

// StoreBasket upserts the cart from the request body.
func (h *Handler) StoreBasket(w http.ResponseWriter, r *http.Request) {
	var cart basket.ShoppingCart
	if err := json.NewDecoder(r.Body).Decode(&cart); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Code: 400, Message: "malformed cart"})
		return
	}

	stored, err := h.baskets.Store(r.Context(), &cart)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, getBasketResponse{Cart: stored, TotalPrice: stored.TotalPrice().String()})
}

// DeleteBasket removes the user's cart.
func (h *Handler) DeleteBasket(w http.ResponseWriter, r *http.Request) {
	if err := h.baskets.Delete(r.Context(), r.PathValue("user")); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"is_success": true})
}

// checkoutRequest mirrors basket.CheckoutRequest on the wire.
type checkoutRequest struct {
	UserName   string    `json:"user_name"`
	CustomerID uuid.UUID `json:"customer_id"`

	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	EmailAddress string `json:"email_address"`
	AddressLine  string `json:"address_line"`
	Country      string `json:"country"`
	State        string `json:"state"`
	ZipCode      string `json:"zip_code"`

	CardName      string `json:"card_name"`
	CardNumber    string `json:"card_number"`
	Expiration    string `json:"expiration"`
	CVV           string `json:"cvv"`
	PaymentMethod int    `json:"payment_method"`
}

// CheckoutBasket publishes the checkout event and deletes the cart.
func (h *Handler) CheckoutBasket(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Code: 400, Message: "malformed checkout request"})
		return
	}

	err := h.baskets.Checkout(r.Context(), basket.CheckoutRequest{
		UserName:      req.UserName,
		CustomerID:    req.CustomerID,
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		EmailAddress:  req.EmailAddress,
		AddressLine:   req.AddressLine,
		Country:       req.Country,
		State:         req.State,
		ZipCode:       req.ZipCode,
		CardName:      req.CardName,
		CardNumber:    req.CardNumber,
		Expiration:    req.Expiration,
		CVV:           req.CVV,
		PaymentMethod: req.PaymentMethod,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"is_success": true})
}
