package server

import (
	"github.com/dmitrymomot/storefront/internal/repository"
	"github.com/dmitrymomot/storefront/pkg/api"
)

func toAPIProduct(p repository.Product) api.Product {
	return api.Product{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Stock:       p.Stock,
	}
}

func toAPIProducts(in []repository.Product) []api.Product {
	out := make([]api.Product, 0, len(in))
	for _, p := range in {
		out = append(out, toAPIProduct(p))
	}
	return out
}

func toAPIOrder(o repository.Order) api.Order {
	items := make([]api.OrderItem, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, api.OrderItem{
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			Price:       it.Price,
			Quantity:    it.Quantity,
		})
	}
	return api.Order{
		ID:        o.ID,
		User:      o.Username,
		Items:     items,
		Total:     o.Total,
		CreatedAt: o.CreatedAt,
	}
}

func toAPIOrders(in []repository.Order) []api.Order {
	out := make([]api.Order, 0, len(in))
	for _, o := range in {
		out = append(out, toAPIOrder(o))
	}
	return out
}

func toAPIUsers(in []repository.User) []api.User {
	out := make([]api.User, 0, len(in))
	for _, u := range in {
		out = append(out, api.User{
			ID:       u.ID,
			Username: u.Username,
			Email:    u.Email,
			Role:     u.Role,
			Enabled:  u.Enabled,
		})
	}
	return out
}
