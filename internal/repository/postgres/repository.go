package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/dmitrymomot/storefront/internal/repository"
)

const uniqueViolation = "23505"

// Repository is a repository.Repository backed by PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

var _ repository.Repository = (*Repository)(nil)

// New creates a repository over pool.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const userColumns = `id, username, email, password_hash, role, enabled, created_at`

func scanUser(row pgx.Row) (repository.User, error) {
	var u repository.User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Role, &u.Enabled, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return repository.User{}, repository.ErrNotFound
	}
	return u, err
}

func (r *Repository) CreateUser(ctx context.Context, u repository.User) (repository.User, error) {
	if u.Role == "" {
		u.Role = repository.RoleUser
	}
	row := r.pool.QueryRow(ctx,
		`INSERT INTO users (username, email, password_hash, role, enabled)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+userColumns,
		u.Username, u.Email, u.PasswordHash, u.Role, u.Enabled,
	)
	created, err := scanUser(row)
	if isUniqueViolation(err) {
		return repository.User{}, repository.ErrDuplicate
	}
	return created, err
}

func (r *Repository) UserByID(ctx context.Context, id int64) (repository.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (r *Repository) UserByUsername(ctx context.Context, username string) (repository.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username))
}

func (r *Repository) ListUsers(ctx context.Context) ([]repository.User, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (repository.User, error) {
		return scanUser(row)
	})
}

func (r *Repository) SetEnabled(ctx context.Context, id int64, enabled bool) error {
	return r.exec(ctx, `UPDATE users SET enabled = $2 WHERE id = $1`, id, enabled)
}

func (r *Repository) SetRole(ctx context.Context, id int64, role string) error {
	return r.exec(ctx, `UPDATE users SET role = $2 WHERE id = $1`, id, role)
}

const productColumns = `id, name, description, price::text, stock`

func scanProduct(row pgx.Row) (repository.Product, error) {
	var (
		p     repository.Product
		price string
	)
	err := row.Scan(&p.ID, &p.Name, &p.Description, &price, &p.Stock)
	if errors.Is(err, pgx.ErrNoRows) {
		return repository.Product{}, repository.ErrNotFound
	}
	if err != nil {
		return repository.Product{}, err
	}
	p.Price, err = decimal.NewFromString(price)
	return p, err
}

func (r *Repository) ListProducts(ctx context.Context) ([]repository.Product, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+productColumns+` FROM products ORDER BY id`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (repository.Product, error) {
		return scanProduct(row)
	})
}

func (r *Repository) Product(ctx context.Context, id int64) (repository.Product, error) {
	return scanProduct(r.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id))
}

func (r *Repository) CreateProduct(ctx context.Context, p repository.Product) (repository.Product, error) {
	return scanProduct(r.pool.QueryRow(ctx,
		`INSERT INTO products (name, description, price, stock)
		 VALUES ($1, $2, $3::numeric, $4)
		 RETURNING `+productColumns,
		p.Name, p.Description, p.Price.String(), p.Stock,
	))
}

func (r *Repository) UpdateProduct(ctx context.Context, p repository.Product) (repository.Product, error) {
	return scanProduct(r.pool.QueryRow(ctx,
		`UPDATE products SET name = $2, description = $3, price = $4::numeric, stock = $5
		 WHERE id = $1
		 RETURNING `+productColumns,
		p.ID, p.Name, p.Description, p.Price.String(), p.Stock,
	))
}

func (r *Repository) DeleteProduct(ctx context.Context, id int64) error {
	return r.exec(ctx, `DELETE FROM products WHERE id = $1`, id)
}

func (r *Repository) PlaceOrder(ctx context.Context, username string, lines []repository.OrderLine, key string) (repository.Order, error) {
	if err := repository.ValidateLines(lines); err != nil {
		return repository.Order{}, err
	}

	var order repository.Order
	err := WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if key != "" {
			var id int64
			err := tx.QueryRow(ctx,
				`SELECT id FROM orders WHERE username = $1 AND idempotency_key = $2`,
				username, key,
			).Scan(&id)
			switch {
			case err == nil:
				o, err := loadOrder(ctx, tx, id)
				order = o
				return err
			case !errors.Is(err, pgx.ErrNoRows):
				return err
			}
		}

		items := make([]repository.OrderItem, 0, len(lines))
		for _, l := range lines {
			item, err := reserve(ctx, tx, l)
			if err != nil {
				return err
			}
			items = append(items, item)
		}

		var nullableKey *string
		if key != "" {
			nullableKey = &key
		}
		order = repository.Order{Username: username, Items: items, Total: repository.Total(items)}
		if err := tx.QueryRow(ctx,
			`INSERT INTO orders (username, total, idempotency_key)
			 VALUES ($1, $2::numeric, $3)
			 RETURNING id, created_at`,
			username, order.Total.String(), nullableKey,
		).Scan(&order.ID, &order.CreatedAt); err != nil {
			return err
		}

		for i, it := range items {
			if _, err := tx.Exec(ctx,
				`INSERT INTO order_items (order_id, position, product_id, product_name, price, quantity)
				 VALUES ($1, $2, $3, $4, $5::numeric, $6)`,
				order.ID, i, it.ProductID, it.ProductName, it.Price.String(), it.Quantity,
			); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return repository.Order{}, err
	}
	return order, nil
}

// reserve decrements stock for one line, or reports why it cannot.
func reserve(ctx context.Context, tx pgx.Tx, l repository.OrderLine) (repository.OrderItem, error) {
	item := repository.OrderItem{ProductID: l.ProductID, Quantity: l.Quantity}
	var price string
	err := tx.QueryRow(ctx,
		`UPDATE products SET stock = stock - $2
		 WHERE id = $1 AND stock >= $2
		 RETURNING name, price::text`,
		l.ProductID, l.Quantity,
	).Scan(&item.ProductName, &price)

	if errors.Is(err, pgx.ErrNoRows) {
		var name string
		lookup := tx.QueryRow(ctx, `SELECT name FROM products WHERE id = $1`, l.ProductID).Scan(&name)
		if errors.Is(lookup, pgx.ErrNoRows) {
			return item, repository.ErrNotFound
		}
		if lookup != nil {
			return item, lookup
		}
		return item, &repository.StockError{ProductID: l.ProductID, ProductName: name}
	}
	if err != nil {
		return item, err
	}

	item.Price, err = decimal.NewFromString(price)
	return item, err
}

func (r *Repository) OrdersByUser(ctx context.Context, username string) ([]repository.Order, error) {
	return r.orders(ctx, `WHERE o.username = $1`, username)
}

func (r *Repository) ListOrders(ctx context.Context) ([]repository.Order, error) {
	return r.orders(ctx, ``)
}

func (r *Repository) orders(ctx context.Context, where string, args ...any) ([]repository.Order, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT o.id, o.username, o.total::text, o.created_at,
		        i.product_id, i.product_name, i.price::text, i.quantity
		 FROM orders o
		 JOIN order_items i ON i.order_id = o.id
		 `+where+`
		 ORDER BY o.id, i.position`,
		args...,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []repository.Order
	for rows.Next() {
		var (
			id        int64
			username  string
			total     string
			createdAt time.Time
			item      repository.OrderItem
			itemPrice string
		)
		if err := rows.Scan(&id, &username, &total, &createdAt,
			&item.ProductID, &item.ProductName, &itemPrice, &item.Quantity); err != nil {
			return nil, err
		}
		if item.Price, err = decimal.NewFromString(itemPrice); err != nil {
			return nil, err
		}

		if n := len(out); n == 0 || out[n-1].ID != id {
			t, err := decimal.NewFromString(total)
			if err != nil {
				return nil, err
			}
			out = append(out, repository.Order{ID: id, Username: username, Total: t, CreatedAt: createdAt})
		}
		last := &out[len(out)-1]
		last.Items = append(last.Items, item)
	}
	return out, rows.Err()
}

func loadOrder(ctx context.Context, tx pgx.Tx, id int64) (repository.Order, error) {
	o := repository.Order{ID: id}
	var total string
	if err := tx.QueryRow(ctx,
		`SELECT username, total::text, created_at FROM orders WHERE id = $1`, id,
	).Scan(&o.Username, &total, &o.CreatedAt); err != nil {
		return o, err
	}
	var err error
	if o.Total, err = decimal.NewFromString(total); err != nil {
		return o, err
	}

	rows, err := tx.Query(ctx,
		`SELECT product_id, product_name, price::text, quantity
		 FROM order_items WHERE order_id = $1 ORDER BY position`, id)
	if err != nil {
		return o, err
	}
	o.Items, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (repository.OrderItem, error) {
		var (
			it    repository.OrderItem
			price string
		)
		if err := row.Scan(&it.ProductID, &it.ProductName, &price, &it.Quantity); err != nil {
			return it, err
		}
		p, err := decimal.NewFromString(price)
		it.Price = p
		return it, err
	})
	return o, err
}

func (r *Repository) exec(ctx context.Context, sql string, args ...any) error {
	tag, err := r.pool.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("postgres: exec: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
