package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/tabng/tab-backend/internal/apperror"
	"github.com/tabng/tab-backend/internal/database"
	"github.com/tabng/tab-backend/internal/pagination"
)

type PostgresRepository struct {
	db *sql.DB
}

const (
	selectOrdersQuery = `
		SELECT o.id, o.user_id, o.status, o.payment_status, o.payment_method, o.total, o.shipping_fee, o.tax,
		       o.shipping_address_id, o.billing_address_id, o.notes, o.tracking_number, o.created_at, o.updated_at,
		       u.name, u.email
		FROM orders o
		JOIN users u ON u.id = o.user_id
	`
	selectItemsQuery = `
		SELECT oi.id, oi.order_id, oi.product_id, oi.variant_id, oi.quantity, oi.price,
		       p.name, p.slug, p.images[1], v.size, v.color
		FROM order_items oi
		JOIN products p ON p.id = oi.product_id
		LEFT JOIN product_variants v ON v.id = oi.variant_id
		WHERE oi.order_id = ANY($1::uuid[])
		ORDER BY oi.created_at, oi.id
	`
	insertOrderQuery = `
		INSERT INTO orders (id, user_id, status, payment_status, payment_method, total, shipping_fee, tax,
		                    shipping_address_id, billing_address_id, notes, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$12)
	`
	insertItemQuery = `
		INSERT INTO order_items (id, order_id, product_id, variant_id, quantity, price, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`
	decrementProductQuery = `UPDATE products SET inventory = inventory - $2, updated_at = now() WHERE id = $1 AND inventory >= $2`
	decrementVariantQuery = `UPDATE product_variants SET inventory = inventory - $2, updated_at = now() WHERE id = $1 AND inventory >= $2`
	restoreProductQuery   = `UPDATE products SET inventory = inventory + $2, updated_at = now() WHERE id = $1`
	restoreVariantQuery   = `UPDATE product_variants SET inventory = inventory + $2, updated_at = now() WHERE id = $1`
	cancelOrderQuery      = `
		UPDATE orders SET status = 'CANCELLED', updated_at = $2
		WHERE id = $1 AND status NOT IN ('SHIPPED', 'DELIVERED', 'CANCELLED', 'RETURNED')
	`
	updateStatusQuery = `
		UPDATE orders
		SET status = $2, payment_status = $3, tracking_number = $4, notes = $5, updated_at = $6
		WHERE id = $1
	`
)

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) List(ctx context.Context, f ListFilter) ([]Order, error) {
	where := make([]string, 0)
	args := make([]interface{}, 0)
	if f.UserID != "" {
		args = append(args, f.UserID)
		where = append(where, fmt.Sprintf("o.user_id = $%d", len(args)))
	}
	if f.Status != nil {
		args = append(args, string(*f.Status))
		where = append(where, fmt.Sprintf("o.status = $%d", len(args)))
	}
	if f.PaymentStatus != nil {
		args = append(args, string(*f.PaymentStatus))
		where = append(where, fmt.Sprintf("o.payment_status = $%d", len(args)))
	}
	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		where = append(where, fmt.Sprintf("(o.id::text ILIKE $%[1]d OR u.email ILIKE $%[1]d OR u.name ILIKE $%[1]d)", len(args)))
	}
	if f.Cursor != "" {
		args = append(args, f.Cursor)
		where = append(where, pagination.Keyset("orders", "o", len(args)))
	}
	q := selectOrdersQuery
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	args = append(args, f.Limit+1)
	q += fmt.Sprintf(" ORDER BY o.created_at DESC, o.id DESC LIMIT $%d", len(args))

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	out := make([]Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.attachItems(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (Order, error) {
	o, err := scanOrder(r.db.QueryRowContext(ctx, selectOrdersQuery+" WHERE o.id = $1", id))
	if errors.Is(err, sql.ErrNoRows) {
		return Order{}, ErrNotFound
	}
	if err != nil {
		return Order{}, err
	}
	list := []Order{o}
	if err := r.attachItems(ctx, list); err != nil {
		return Order{}, err
	}
	return list[0], nil
}

// Create inserts the order and its items and takes the stock with a
// conditional decrement, all in one transaction. A decrement that matches no
// row aborts the whole order.
func (r *PostgresRepository) Create(ctx context.Context, o Order) (Order, error) {
	err := database.InTx(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, insertOrderQuery, o.ID, o.UserID, string(o.Status), string(o.PaymentStatus), o.PaymentMethod,
			o.Total, o.ShippingFee, o.Tax, o.ShippingAddressID, o.BillingAddressID, o.Notes, o.CreatedAt); err != nil {
			return err
		}
		for i := range o.Items {
			it := &o.Items[i]
			if it.ID == "" {
				it.ID = uuid.NewString()
			}
			it.OrderID = o.ID
			if _, err := tx.ExecContext(ctx, insertItemQuery, it.ID, o.ID, it.ProductID, it.VariantID, it.Quantity, it.Price, o.CreatedAt); err != nil {
				return err
			}
			q, target := decrementProductQuery, it.ProductID
			if it.VariantID != nil {
				q, target = decrementVariantQuery, *it.VariantID
			}
			res, err := tx.ExecContext(ctx, q, target, it.Quantity)
			if err != nil {
				return err
			}
			if n, _ := res.RowsAffected(); n == 0 {
				return insufficient(*it)
			}
		}
		return nil
	})
	if err != nil {
		return Order{}, wrap("create order", err)
	}
	return o, nil
}

func (r *PostgresRepository) Cancel(ctx context.Context, o Order) (Order, error) {
	err := database.InTx(ctx, r.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, cancelOrderQuery, o.ID, o.UpdatedAt)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrNotCancellable
		}
		for _, it := range o.Items {
			q, target := restoreProductQuery, it.ProductID
			if it.VariantID != nil {
				q, target = restoreVariantQuery, *it.VariantID
			}
			if _, err := tx.ExecContext(ctx, q, target, it.Quantity); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return Order{}, wrap("cancel order", err)
	}
	o.Status = StatusCancelled
	return o, nil
}

func (r *PostgresRepository) UpdateStatus(ctx context.Context, o Order) (Order, error) {
	res, err := r.db.ExecContext(ctx, updateStatusQuery, o.ID, string(o.Status), string(o.PaymentStatus), o.TrackingNumber, o.Notes, o.UpdatedAt)
	if err != nil {
		return Order{}, fmt.Errorf("update order status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return Order{}, ErrNotFound
	}
	return o, nil
}

func (r *PostgresRepository) attachItems(ctx context.Context, orders []Order) error {
	if len(orders) == 0 {
		return nil
	}
	ids := make([]string, len(orders))
	index := make(map[string]int, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
		index[o.ID] = i
		orders[i].Items = make([]Item, 0)
	}
	rows, err := r.db.QueryContext(ctx, selectItemsQuery, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("load order items: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			it          Item
			size, color sql.NullString
		)
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.VariantID, &it.Quantity, &it.Price,
			&it.ProductName, &it.ProductSlug, &it.ProductImage, &size, &color); err != nil {
			return err
		}
		if it.VariantID != nil {
			it.Variant = &VariantSummary{Size: nullString(size), Color: nullString(color)}
		}
		if i, ok := index[it.OrderID]; ok {
			orders[i].Items = append(orders[i].Items, it)
		}
	}
	return rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanOrder(row rowScanner) (Order, error) {
	var (
		o    Order
		c    Customer
		name sql.NullString
	)
	if err := row.Scan(&o.ID, &o.UserID, &o.Status, &o.PaymentStatus, &o.PaymentMethod, &o.Total, &o.ShippingFee, &o.Tax,
		&o.ShippingAddressID, &o.BillingAddressID, &o.Notes, &o.TrackingNumber, &o.CreatedAt, &o.UpdatedAt,
		&name, &c.Email); err != nil {
		return Order{}, err
	}
	c.ID = o.UserID
	c.Name = nullString(name)
	o.User = &c
	return o, nil
}

func nullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}

// wrap keeps client-facing errors intact and annotates the rest.
func wrap(op string, err error) error {
	var ae *apperror.Error
	if errors.As(err, &ae) {
		return err
	}
	return fmt.Errorf("%s: %w", op, err)
}
