package admin

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type PostgresStats struct {
	db *sql.DB
}

const (
	paidRevenueQuery = `SELECT COALESCE(SUM(total), 0) FROM orders WHERE payment_status = 'PAID'`
	totalsQuery      = `
		SELECT (SELECT COUNT(*) FROM orders),
		       (SELECT COUNT(*) FROM products),
		       (SELECT COUNT(*) FROM users WHERE role = 'USER')
	`
	paidOrdersSinceQuery = `
		SELECT total, created_at FROM orders
		WHERE payment_status = 'PAID' AND created_at >= $1
		ORDER BY created_at
	`
	productCountsQuery = `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE inventory < $1),
		       COUNT(*) FILTER (WHERE inventory = 0),
		       COUNT(*) FILTER (WHERE featured)
		FROM products
	`
	saleLinesQuery = `
		SELECT oi.product_id, p.name, oi.quantity, oi.price
		FROM order_items oi
		JOIN products p ON p.id = oi.product_id
		ORDER BY oi.created_at, oi.id
	`
	userActivityQuery = `
		SELECT (SELECT COUNT(*) FROM orders WHERE user_id = $1),
		       (SELECT COUNT(*) FROM reviews WHERE user_id = $1),
		       (SELECT COALESCE(SUM(total), 0) FROM orders WHERE user_id = $1 AND payment_status = 'PAID')
	`
)

func NewPostgresStats(db *sql.DB) *PostgresStats {
	return &PostgresStats{db: db}
}

func (r *PostgresStats) PaidRevenue(ctx context.Context) (decimal.Decimal, error) {
	var sum decimal.Decimal
	if err := r.db.QueryRowContext(ctx, paidRevenueQuery).Scan(&sum); err != nil {
		return decimal.Zero, fmt.Errorf("paid revenue: %w", err)
	}
	return sum, nil
}

func (r *PostgresStats) Totals(ctx context.Context) (Totals, error) {
	var t Totals
	if err := r.db.QueryRowContext(ctx, totalsQuery).Scan(&t.Orders, &t.Products, &t.Customers); err != nil {
		return Totals{}, fmt.Errorf("dashboard totals: %w", err)
	}
	return t, nil
}

func (r *PostgresStats) PaidOrdersSince(ctx context.Context, since time.Time) ([]PaidOrder, error) {
	rows, err := r.db.QueryContext(ctx, paidOrdersSinceQuery, since)
	if err != nil {
		return nil, fmt.Errorf("paid orders: %w", err)
	}
	defer rows.Close()
	out := make([]PaidOrder, 0)
	for rows.Next() {
		var o PaidOrder
		if err := rows.Scan(&o.Total, &o.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (r *PostgresStats) ProductCounts(ctx context.Context, lowBelow int) (ProductCounts, error) {
	var c ProductCounts
	if err := r.db.QueryRowContext(ctx, productCountsQuery, lowBelow).Scan(&c.Total, &c.LowInventory, &c.OutOfStock, &c.Featured); err != nil {
		return ProductCounts{}, fmt.Errorf("product counts: %w", err)
	}
	return c, nil
}

func (r *PostgresStats) SaleLines(ctx context.Context) ([]SaleLine, error) {
	rows, err := r.db.QueryContext(ctx, saleLinesQuery)
	if err != nil {
		return nil, fmt.Errorf("sale lines: %w", err)
	}
	defer rows.Close()
	out := make([]SaleLine, 0)
	for rows.Next() {
		var l SaleLine
		if err := rows.Scan(&l.ProductID, &l.Name, &l.Quantity, &l.Price); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *PostgresStats) UserActivity(ctx context.Context, userID string) (UserActivity, error) {
	var a UserActivity
	if err := r.db.QueryRowContext(ctx, userActivityQuery, userID).Scan(&a.Orders, &a.Reviews, &a.TotalSpent); err != nil {
		return UserActivity{}, fmt.Errorf("user activity: %w", err)
	}
	return a, nil
}
