package repository

import (
	"cmp"
	"context"
	"maps"
	"slices"
	"sync"
	"time"
)

// Memory is a Repository kept in process memory.
type Memory struct {
	users      map[int64]User
	products   map[int64]Product
	orders     map[int64]Order
	keys       map[string]int64
	now        func() time.Time
	nextUser   int64
	nextProdID int64
	nextOrder  int64
	mu         sync.RWMutex
}

var _ Repository = (*Memory)(nil)

// NewMemory creates an empty in-memory repository.
func NewMemory() *Memory {
	return &Memory{
		users:    make(map[int64]User),
		products: make(map[int64]Product),
		orders:   make(map[int64]Order),
		keys:     make(map[string]int64),
		now:      time.Now,
	}
}

func (m *Memory) CreateUser(_ context.Context, u User) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.users {
		if existing.Username == u.Username {
			return User{}, ErrDuplicate
		}
	}
	m.nextUser++
	u.ID = m.nextUser
	u.CreatedAt = m.now()
	if u.Role == "" {
		u.Role = RoleUser
	}
	m.users[u.ID] = u
	return u, nil
}

func (m *Memory) UserByID(_ context.Context, id int64) (User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return u, nil
}

func (m *Memory) UserByUsername(_ context.Context, username string) (User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, u := range m.users {
		if u.Username == username {
			return u, nil
		}
	}
	return User{}, ErrNotFound
}

func (m *Memory) ListUsers(_ context.Context) ([]User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return sortedByID(m.users, func(u User) int64 { return u.ID }), nil
}

func (m *Memory) SetEnabled(_ context.Context, id int64, enabled bool) error {
	return m.updateUser(id, func(u *User) { u.Enabled = enabled })
}

func (m *Memory) SetRole(_ context.Context, id int64, role string) error {
	return m.updateUser(id, func(u *User) { u.Role = role })
}

func (m *Memory) updateUser(id int64, fn func(*User)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return ErrNotFound
	}
	fn(&u)
	m.users[id] = u
	return nil
}

func (m *Memory) ListProducts(_ context.Context) ([]Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return sortedByID(m.products, func(p Product) int64 { return p.ID }), nil
}

func (m *Memory) Product(_ context.Context, id int64) (Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.products[id]
	if !ok {
		return Product{}, ErrNotFound
	}
	return p, nil
}

func (m *Memory) CreateProduct(_ context.Context, p Product) (Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextProdID++
	p.ID = m.nextProdID
	m.products[p.ID] = p
	return p, nil
}

func (m *Memory) UpdateProduct(_ context.Context, p Product) (Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.products[p.ID]; !ok {
		return Product{}, ErrNotFound
	}
	m.products[p.ID] = p
	return p, nil
}

func (m *Memory) DeleteProduct(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.products[id]; !ok {
		return ErrNotFound
	}
	delete(m.products, id)
	return nil
}

func (m *Memory) PlaceOrder(_ context.Context, username string, lines []OrderLine, key string) (Order, error) {
	if err := ValidateLines(lines); err != nil {
		return Order{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if key != "" {
		if id, ok := m.keys[username+"\x00"+key]; ok {
			return m.orders[id], nil
		}
	}

	// Check every line before touching stock so a shortage leaves the
	// catalog unchanged.
	need := make(map[int64]int, len(lines))
	for _, l := range lines {
		p, ok := m.products[l.ProductID]
		if !ok {
			return Order{}, ErrNotFound
		}
		need[l.ProductID] += l.Quantity
		if p.Stock < need[l.ProductID] {
			return Order{}, &StockError{ProductID: p.ID, ProductName: p.Name}
		}
	}

	items := make([]OrderItem, 0, len(lines))
	for _, l := range lines {
		p := m.products[l.ProductID]
		p.Stock -= l.Quantity
		m.products[p.ID] = p
		items = append(items, OrderItem{
			ProductID:   p.ID,
			ProductName: p.Name,
			Price:       p.Price,
			Quantity:    l.Quantity,
		})
	}

	m.nextOrder++
	o := Order{
		ID:        m.nextOrder,
		Username:  username,
		Items:     items,
		Total:     Total(items),
		CreatedAt: m.now(),
	}
	m.orders[o.ID] = o
	if key != "" {
		m.keys[username+"\x00"+key] = o.ID
	}
	return o, nil
}

func (m *Memory) OrdersByUser(_ context.Context, username string) ([]Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	all := sortedByID(m.orders, func(o Order) int64 { return o.ID })
	return slices.DeleteFunc(all, func(o Order) bool { return o.Username != username }), nil
}

func (m *Memory) ListOrders(_ context.Context) ([]Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return sortedByID(m.orders, func(o Order) int64 { return o.ID }), nil
}

func sortedByID[T any](m map[int64]T, id func(T) int64) []T {
	out := slices.Collect(maps.Values(m))
	slices.SortFunc(out, func(a, b T) int { return cmp.Compare(id(a), id(b)) })
	return out
}
