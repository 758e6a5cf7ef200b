package shell

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrEthical07/storefront/catalog"
)

type productResponse struct {
	catalog.Product
	Discount int `json:"discountPercent"`
}

type addToCartRequest struct {
	Size     string `json:"size"`
	Quantity int    `json:"quantity"`
}

func (s *server) getProduct(w http.ResponseWriter, r *http.Request) {
	p, ok := s.fetchProduct(w, r)
	if !ok {
		return
	}
	respondJSON(s.log, w, http.StatusOK, productResponse{Product: p, Discount: p.DiscountPercent()})
}

// addProductToCart applies a detail-page selection to the cart.
func (s *server) addProductToCart(w http.ResponseWriter, r *http.Request) {
	var req addToCartRequest
	if err := decode(w, r, &req); err != nil {
		respondError(s.log, w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	p, ok := s.fetchProduct(w, r)
	if !ok {
		return
	}

	view := catalog.NewDetailView(p)
	if req.Quantity > 0 {
		view.SetQuantity(req.Quantity)
	}
	if err := view.SelectSize(req.Size); err != nil {
		respondError(s.log, w, http.StatusBadRequest, "unknown_size", err.Error())
		return
	}
	item, err := view.LineItem()
	if err != nil {
		respondError(s.log, w, http.StatusConflict, "out_of_stock", err.Error())
		return
	}
	s.client.AddToCart(item)
	respondJSON(s.log, w, http.StatusCreated, s.client.Cart().Snapshot())
}

func (s *server) fetchProduct(w http.ResponseWriter, r *http.Request) (catalog.Product, bool) {
	if s.catalog == nil {
		respondError(s.log, w, http.StatusServiceUnavailable, "catalog_unavailable", "catalog is not configured")
		return catalog.Product{}, false
	}
	p, err := s.catalog.GetProduct(r.Context(), chi.URLParam(r, "id"))
	switch {
	case err == nil:
		return p, true
	case errors.Is(err, catalog.ErrProductNotFound):
		respondError(s.log, w, http.StatusNotFound, "not_found", "product not found")
	case errors.Is(err, catalog.ErrUnavailable):
		respondError(s.log, w, http.StatusServiceUnavailable, "service_unavailable", "catalog temporarily unavailable")
	default:
		s.log.WithError(err).Warn("shell: product lookup failed")
		respondError(s.log, w, http.StatusBadGateway, "upstream_error", "product lookup failed")
	}
	return catalog.Product{}, false
}
