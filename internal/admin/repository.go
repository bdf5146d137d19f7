package admin

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tabng/tab-backend/internal/auth"
	"github.com/tabng/tab-backend/internal/order"
	"github.com/tabng/tab-backend/internal/product"
	"github.com/tabng/tab-backend/internal/user"
)

// StatsRepository answers the aggregate queries behind the dashboard.
type StatsRepository interface {
	PaidRevenue(ctx context.Context) (decimal.Decimal, error)
	Totals(ctx context.Context) (Totals, error)
	PaidOrdersSince(ctx context.Context, since time.Time) ([]PaidOrder, error)
	ProductCounts(ctx context.Context, lowBelow int) (ProductCounts, error)
	SaleLines(ctx context.Context) ([]SaleLine, error)
	UserActivity(ctx context.Context, userID string) (UserActivity, error)
}

// InMemoryStats computes the same aggregates over fixed slices.
type InMemoryStats struct {
	mu       sync.RWMutex
	orders   []order.Order
	products []product.Product
	users    []user.User
	reviews  map[string]int
}

func NewInMemoryStats(orders []order.Order, products []product.Product, users []user.User, reviews map[string]int) *InMemoryStats {
	if reviews == nil {
		reviews = map[string]int{}
	}
	return &InMemoryStats{orders: orders, products: products, users: users, reviews: reviews}
}

func (s *InMemoryStats) PaidRevenue(_ context.Context) (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sum := decimal.Zero
	for _, o := range s.orders {
		if o.PaymentStatus == order.PaymentPaid {
			sum = sum.Add(o.Total)
		}
	}
	return sum, nil
}

func (s *InMemoryStats) Totals(_ context.Context) (Totals, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t := Totals{Orders: len(s.orders), Products: len(s.products)}
	for _, u := range s.users {
		if u.Role == auth.RoleUser {
			t.Customers++
		}
	}
	return t, nil
}

func (s *InMemoryStats) PaidOrdersSince(_ context.Context, since time.Time) ([]PaidOrder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]PaidOrder, 0)
	for _, o := range s.orders {
		if o.PaymentStatus == order.PaymentPaid && !o.CreatedAt.Before(since) {
			out = append(out, PaidOrder{Total: o.Total, CreatedAt: o.CreatedAt})
		}
	}
	return out, nil
}

func (s *InMemoryStats) ProductCounts(_ context.Context, lowBelow int) (ProductCounts, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c := ProductCounts{Total: len(s.products)}
	for _, p := range s.products {
		if p.Inventory < lowBelow {
			c.LowInventory++
		}
		if p.Inventory == 0 {
			c.OutOfStock++
		}
		if p.Featured {
			c.Featured++
		}
	}
	return c, nil
}

func (s *InMemoryStats) SaleLines(_ context.Context) ([]SaleLine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]SaleLine, 0)
	for _, o := range s.orders {
		for _, it := range o.Items {
			out = append(out, SaleLine{ProductID: it.ProductID, Name: it.ProductName, Quantity: it.Quantity, Price: it.Price})
		}
	}
	return out, nil
}

func (s *InMemoryStats) UserActivity(_ context.Context, userID string) (UserActivity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a := UserActivity{Reviews: s.reviews[userID], TotalSpent: decimal.Zero}
	for _, o := range s.orders {
		if o.UserID != userID {
			continue
		}
		a.Orders++
		if o.PaymentStatus == order.PaymentPaid {
			a.TotalSpent = a.TotalSpent.Add(o.Total)
		}
	}
	return a, nil
}
