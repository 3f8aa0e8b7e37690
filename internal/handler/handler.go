// Package handler exposes the basket operations over JSON HTTP. The
// handlers are thin: decode, delegate to the basket service, map errors.
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/eshopgo/checkout-pipeline/internal/domain/basket"
)

// Handler serves the basket HTTP API.
type Handler struct {
	baskets *basket.Service
}

// NewHandler constructs a Handler around the basket service.
func NewHandler(baskets *basket.Service) *Handler {
	return &Handler{baskets: baskets}
}

// Register attaches the basket routes to the mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /basket/{user}", h.GetBasket)
	mux.HandleFunc("POST /basket", h.StoreBasket)
	mux.HandleFunc("DELETE /basket/{user}", h.DeleteBasket)
	mux.HandleFunc("POST /basket/checkout", h.CheckoutBasket)
}

// errorResponse is the JSON error body.
type errorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError maps domain errors onto HTTP statuses: validation to 400,
// absence to 404, everything else to 500 without leaking internals.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var vErr *basket.ValidationError
	switch {
	case errors.As(err, &vErr):
		writeJSON(w, http.StatusBadRequest, errorResponse{Code: 400, Message: vErr.Error()})
	case errors.Is(err, basket.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Code: 404, Message: "basket not found"})
	default:
		zctx.From(r.Context()).Error("Basket request failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Code: 500, Message: "internal error"})
	}
}
