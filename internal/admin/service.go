package admin

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/tabng/tab-backend/internal/order"
	"github.com/tabng/tab-backend/internal/pagination"
	"github.com/tabng/tab-backend/internal/user"
	"github.com/tealeg/xlsx"
	"go.uber.org/zap"
)

type Users interface {
	Profile(ctx context.Context, id string) (user.User, error)
	List(ctx context.Context, f user.ListFilter) (pagination.Page[user.User], error)
	Create(ctx context.Context, in user.CreateInput) (user.User, error)
	Update(ctx context.Context, id string, in user.UpdateInput) (user.User, error)
	Delete(ctx context.Context, actorID, id string) error
}

type Orders interface {
	All(ctx context.Context, f order.ListFilter) (pagination.Page[order.Order], error)
	UserOrders(ctx context.Context, userID string, f order.ListFilter) (pagination.Page[order.Order], error)
}

// Service backs the admin back office.
type Service struct {
	stats  StatsRepository
	users  Users
	orders Orders
	log    *zap.Logger
	now    func() time.Time
}

func NewService(stats StatsRepository, users Users, orders Orders, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{stats: stats, users: users, orders: orders, log: log, now: time.Now}
}

func (s *Service) Dashboard(ctx context.Context) (DashboardStats, error) {
	revenue, err := s.stats.PaidRevenue(ctx)
	if err != nil {
		return DashboardStats{}, err
	}
	totals, err := s.stats.Totals(ctx)
	if err != nil {
		return DashboardStats{}, err
	}
	recent, err := s.orders.All(ctx, order.ListFilter{Limit: recentOrders})
	if err != nil {
		return DashboardStats{}, err
	}
	since := s.now().UTC().AddDate(0, -revenueMonths, 0)
	paid, err := s.stats.PaidOrdersSince(ctx, since)
	if err != nil {
		return DashboardStats{}, err
	}
	return DashboardStats{
		TotalRevenue:   revenue,
		TotalOrders:    totals.Orders,
		TotalProducts:  totals.Products,
		TotalCustomers: totals.Customers,
		RecentOrders:   recent.Items,
		RevenueData:    GroupRevenueByMonth(paid),
	}, nil
}

func (s *Service) Users(ctx context.Context, f user.ListFilter) (pagination.Page[user.User], error) {
	return s.users.List(ctx, f)
}

// UserDetails loads the profile with addresses, the latest orders and the
// activity counts.
func (s *Service) UserDetails(ctx context.Context, id string) (UserDetails, error) {
	u, err := s.users.Profile(ctx, id)
	if err != nil {
		return UserDetails{}, err
	}
	orders, err := s.orders.UserOrders(ctx, id, order.ListFilter{Limit: userRecentOrders})
	if err != nil {
		return UserDetails{}, err
	}
	activity, err := s.stats.UserActivity(ctx, id)
	if err != nil {
		return UserDetails{}, err
	}
	return UserDetails{User: u, Orders: orders.Items, Count: activity, TotalSpent: activity.TotalSpent}, nil
}

func (s *Service) CreateUser(ctx context.Context, in user.CreateInput) (user.User, error) {
	u, err := s.users.Create(ctx, in)
	if err != nil {
		return user.User{}, err
	}
	s.log.Info("user created by admin", zap.String("user_id", u.ID), zap.String("role", string(u.Role)))
	return u, nil
}

func (s *Service) UpdateUser(ctx context.Context, id string, in user.UpdateInput) (user.User, error) {
	return s.users.Update(ctx, id, in)
}

func (s *Service) DeleteUser(ctx context.Context, actorID, id string) error {
	if err := s.users.Delete(ctx, actorID, id); err != nil {
		return err
	}
	s.log.Info("user deleted by admin", zap.String("user_id", id), zap.String("actor_id", actorID))
	return nil
}

func (s *Service) ProductStats(ctx context.Context) (ProductStats, error) {
	counts, err := s.stats.ProductCounts(ctx, lowInventory)
	if err != nil {
		return ProductStats{}, err
	}
	lines, err := s.stats.SaleLines(ctx)
	if err != nil {
		return ProductStats{}, err
	}
	return ProductStats{ProductCounts: counts, TopSellingProducts: TopSellers(lines, topSellers)}, nil
}

var exportHeader = []string{"Order ID", "Date", "Customer", "Email", "Status", "Payment Status", "Payment Method", "Items", "Tax", "Shipping", "Total"}

// ExportOrders writes every order matching f as an xlsx workbook, following
// the cursor until the list is exhausted.
func (s *Service) ExportOrders(ctx context.Context, f order.ListFilter, w io.Writer) error {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Orders")
	if err != nil {
		return fmt.Errorf("add sheet: %w", err)
	}
	header := sheet.AddRow()
	for _, h := range exportHeader {
		header.AddCell().SetValue(h)
	}

	f.Limit = pagination.MaxLimit
	f.Cursor = ""
	rows := 0
	for {
		page, err := s.orders.All(ctx, f)
		if err != nil {
			return err
		}
		for _, o := range page.Items {
			addOrderRow(sheet, o)
			rows++
		}
		if page.NextCursor == nil {
			break
		}
		f.Cursor = *page.NextCursor
	}
	if err := file.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	s.log.Info("orders exported", zap.Int("rows", rows))
	return nil
}

func addOrderRow(sheet *xlsx.Sheet, o order.Order) {
	var name, email string
	if o.User != nil {
		email = o.User.Email
		if o.User.Name != nil {
			name = *o.User.Name
		}
	}
	qty := 0
	for _, it := range o.Items {
		qty += it.Quantity
	}
	row := sheet.AddRow()
	row.AddCell().SetValue(o.ID)
	row.AddCell().SetValue(o.CreatedAt.UTC().Format(time.RFC3339))
	row.AddCell().SetValue(name)
	row.AddCell().SetValue(email)
	row.AddCell().SetValue(string(o.Status))
	row.AddCell().SetValue(string(o.PaymentStatus))
	row.AddCell().SetValue(o.PaymentMethod)
	row.AddCell().SetValue(qty)
	row.AddCell().SetValue(o.Tax.InexactFloat64())
	row.AddCell().SetValue(o.ShippingFee.InexactFloat64())
	row.AddCell().SetValue(o.Total.InexactFloat64())
}
