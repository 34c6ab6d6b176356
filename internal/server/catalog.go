package server

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/storefront/internal/repository"
	"github.com/dmitrymomot/storefront/pkg/api"
	"github.com/dmitrymomot/storefront/pkg/sanitizer"
)

func productNotFound(id int64) *HTTPError {
	return ErrNotFound(fmt.Sprintf("Product not found with id: %d", id))
}

// productInput sanitizes and validates a product body.
func productInput(in api.Product) (repository.Product, error) {
	p := repository.Product{
		Name:        sanitizer.StripHTML(in.Name),
		Description: sanitizer.Description(in.Description),
		Price:       in.Price,
		Stock:       in.Stock,
	}
	switch {
	case p.Name == "":
		return p, errors.New("name is required")
	case p.Price.IsNegative():
		return p, errors.New("price must not be negative")
	case p.Stock < 0:
		return p, errors.New("stock must not be negative")
	}
	return p, nil
}

func (s *Server) listProducts(w http.ResponseWriter, r *http.Request) error {
	products, err := s.repo.ListProducts(r.Context())
	if err != nil {
		return ErrInternal("Failed to retrieve products", WithError(err))
	}
	writeJSON(w, http.StatusOK, toAPIProducts(products))
	return nil
}

func (s *Server) getProduct(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	p, err := s.repo.Product(r.Context(), id)
	if errors.Is(err, repository.ErrNotFound) {
		return productNotFound(id)
	}
	if err != nil {
		return ErrInternal("Failed to retrieve product", WithError(err))
	}
	writeJSON(w, http.StatusOK, toAPIProduct(p))
	return nil
}

func (s *Server) createProduct(w http.ResponseWriter, r *http.Request) error {
	var in api.Product
	if err := decodeJSON(w, r, &in); err != nil {
		return err
	}
	p, err := productInput(in)
	if err != nil {
		return ErrBadRequest("Failed to create product: " + err.Error())
	}

	created, err := s.repo.CreateProduct(r.Context(), p)
	if err != nil {
		return ErrInternal("Failed to create product", WithError(err))
	}
	s.logger.InfoContext(r.Context(), "product created", slog.Int64("product_id", created.ID))
	writeJSON(w, http.StatusCreated, toAPIProduct(created))
	return nil
}

func (s *Server) updateProduct(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	var in api.Product
	if err := decodeJSON(w, r, &in); err != nil {
		return err
	}
	p, err := productInput(in)
	if err != nil {
		return ErrBadRequest("Failed to update product: " + err.Error())
	}
	p.ID = id

	updated, err := s.repo.UpdateProduct(r.Context(), p)
	if errors.Is(err, repository.ErrNotFound) {
		return productNotFound(id)
	}
	if err != nil {
		return ErrInternal("Failed to update product", WithError(err))
	}
	s.logger.InfoContext(r.Context(), "product updated", slog.Int64("product_id", id))
	writeJSON(w, http.StatusOK, toAPIProduct(updated))
	return nil
}

func (s *Server) deleteProduct(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	err = s.repo.DeleteProduct(r.Context(), id)
	if errors.Is(err, repository.ErrNotFound) {
		return productNotFound(id)
	}
	if err != nil {
		return ErrInternal("Failed to delete product", WithError(err))
	}
	s.logger.InfoContext(r.Context(), "product deleted", slog.Int64("product_id", id))
	writeText(w, http.StatusOK, "Product deleted successfully")
	return nil
}
