package shell

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrEthical07/storefront/cart"
)

type updateQuantityRequest struct {
	Quantity int    `json:"quantity"`
	Size     string `json:"size"`
}

func (s *server) getCart(w http.ResponseWriter, _ *http.Request) {
	respondJSON(s.log, w, http.StatusOK, s.client.Cart().Snapshot())
}

func (s *server) addItem(w http.ResponseWriter, r *http.Request) {
	var item cart.LineItem
	if err := decode(w, r, &item); err != nil {
		respondError(s.log, w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if item.ProductID == "" {
		respondError(s.log, w, http.StatusBadRequest, "invalid_product_id", "id is required")
		return
	}
	s.client.AddToCart(item)
	respondJSON(s.log, w, http.StatusCreated, s.client.Cart().Snapshot())
}

func (s *server) updateItem(w http.ResponseWriter, r *http.Request) {
	var req updateQuantityRequest
	if err := decode(w, r, &req); err != nil {
		respondError(s.log, w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	s.client.UpdateQuantity(chi.URLParam(r, "id"), req.Size, req.Quantity)
	respondJSON(s.log, w, http.StatusOK, s.client.Cart().Snapshot())
}

func (s *server) removeItem(w http.ResponseWriter, r *http.Request) {
	s.client.RemoveFromCart(chi.URLParam(r, "id"), r.URL.Query().Get("size"))
	respondJSON(s.log, w, http.StatusOK, s.client.Cart().Snapshot())
}

func (s *server) clearCart(w http.ResponseWriter, _ *http.Request) {
	s.client.ClearCart()
	respondJSON(s.log, w, http.StatusOK, s.client.Cart().Snapshot())
}
