package server

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dmitrymomot/storefront/internal/repository"
	"github.com/dmitrymomot/storefront/pkg/api"
)

const maxIdempotencyKey = 128

func (s *Server) checkout(w http.ResponseWriter, r *http.Request) error {
	u, _ := currentUser(r.Context())

	var in api.OrderRequest
	if err := decodeJSON(w, r, &in); err != nil {
		return err
	}

	key := strings.TrimSpace(r.Header.Get(api.IdempotencyHeader))
	if len(key) > maxIdempotencyKey {
		return ErrBadRequest("Idempotency key is too long")
	}

	lines := make([]repository.OrderLine, 0, len(in.Items))
	for _, it := range in.Items {
		lines = append(lines, repository.OrderLine{ProductID: it.ProductID, Quantity: it.Quantity})
	}

	order, err := s.repo.PlaceOrder(r.Context(), u.Username, lines, key)
	if err != nil {
		var stock *repository.StockError
		switch {
		case errors.As(err, &stock):
			return ErrConflict(stock.Error())
		case errors.Is(err, repository.ErrEmptyOrder):
			return ErrBadRequest("Order must contain at least one item")
		case errors.Is(err, repository.ErrInvalidQuantity):
			return ErrBadRequest("Quantity must be at least 1")
		case errors.Is(err, repository.ErrNotFound):
			return ErrNotFound("Product not found")
		default:
			return ErrInternal("Checkout failed", WithError(err))
		}
	}

	s.logger.InfoContext(r.Context(), "order placed",
		slog.Int64("order_id", order.ID),
		slog.String("total", order.Total.StringFixed(2)),
		slog.Bool("idempotent", key != ""),
	)
	writeJSON(w, http.StatusOK, toAPIOrder(order))
	return nil
}

func (s *Server) myOrders(w http.ResponseWriter, r *http.Request) error {
	u, _ := currentUser(r.Context())
	orders, err := s.repo.OrdersByUser(r.Context(), u.Username)
	if err != nil {
		return ErrInternal("Failed to retrieve orders", WithError(err))
	}
	writeJSON(w, http.StatusOK, toAPIOrders(orders))
	return nil
}

func (s *Server) allOrders(w http.ResponseWriter, r *http.Request) error {
	orders, err := s.repo.ListOrders(r.Context())
	if err != nil {
		return ErrInternal("Failed to retrieve orders", WithError(err))
	}
	writeJSON(w, http.StatusOK, toAPIOrders(orders))
	return nil
}
