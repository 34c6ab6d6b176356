package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

// ListProducts returns the catalog. Auth and transport failures yield an
// empty list.
func (c *Client) ListProducts(ctx context.Context) ([]Product, error) {
	var out []Product
	err := c.send(ctx, call{op: "list products", method: http.MethodGet, path: "/api/products"}, &out)
	if isQuiet(err) {
		return []Product{}, nil
	}
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []Product{}
	}
	return out, nil
}

// GetProduct returns one product.
func (c *Client) GetProduct(ctx context.Context, id int64) (*Product, error) {
	var out Product
	if err := c.send(ctx, call{op: "get product", method: http.MethodGet, path: productPath(id)}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateProduct adds a product. Requires the admin role.
func (c *Client) CreateProduct(ctx context.Context, p Product) (*Product, error) {
	const op = "create product"
	if err := validateProduct(op, p); err != nil {
		return nil, err
	}
	var out Product
	if err := c.send(ctx, call{op: op, method: http.MethodPost, path: "/api/products", body: p}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateProduct replaces a product. Requires the admin role.
func (c *Client) UpdateProduct(ctx context.Context, id int64, p Product) (*Product, error) {
	const op = "update product"
	if err := validateProduct(op, p); err != nil {
		return nil, err
	}
	var out Product
	if err := c.send(ctx, call{op: op, method: http.MethodPut, path: productPath(id), body: p}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteProduct removes a product and returns the server's message.
// Requires the admin role.
func (c *Client) DeleteProduct(ctx context.Context, id int64) (string, error) {
	return c.sendText(ctx, call{op: "delete product", method: http.MethodDelete, path: productPath(id)})
}

func productPath(id int64) string {
	return fmt.Sprintf("/api/products/%d", id)
}

func validateProduct(op string, p Product) error {
	switch {
	case strings.TrimSpace(p.Name) == "":
		return validationError(op, "product name is required")
	case !p.Price.IsPositive():
		return validationError(op, "price must be positive")
	case p.Stock < 0:
		return validationError(op, "stock cannot be negative")
	}
	return nil
}
