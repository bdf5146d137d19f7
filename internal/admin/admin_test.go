package admin

import (
	"bytes"
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tabng/tab-backend/internal/address"
	"github.com/tabng/tab-backend/internal/auth"
	"github.com/tabng/tab-backend/internal/order"
	"github.com/tabng/tab-backend/internal/product"
	"github.com/tabng/tab-backend/internal/user"
	"github.com/tealeg/xlsx"
)

var now = time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func seedOrders() []order.Order {
	mk := func(id, userID string, ps order.PaymentStatus, total int64, at time.Time, items ...order.Item) order.Order {
		return order.Order{ID: id, UserID: userID, Status: order.StatusPending, PaymentStatus: ps, PaymentMethod: "paystack",
			Total: dec(total), ShippingFee: order.ShippingFee, Tax: decimal.Zero, Items: items, CreatedAt: at, UpdatedAt: at,
			User: &order.Customer{ID: userID, Email: userID + "@tab.ng"}}
	}
	return []order.Order{
		mk("o1", "u1", order.PaymentPaid, 10000, now.AddDate(0, -1, 0),
			order.Item{ProductID: "p1", ProductName: "Kaftan", Quantity: 2, Price: dec(4000)}),
		mk("o2", "u1", order.PaymentPaid, 5000, now.AddDate(0, -1, 2),
			order.Item{ProductID: "p2", ProductName: "Cap", Quantity: 5, Price: dec(1000)}),
		mk("o3", "u2", order.PaymentPaid, 7000, now.AddDate(0, -8, 0),
			order.Item{ProductID: "p1", ProductName: "Kaftan", Quantity: 1, Price: dec(4000)}),
		mk("o4", "u2", order.PaymentPending, 3000, now.AddDate(0, 0, -1),
			order.Item{ProductID: "p3", ProductName: "Scarf", Quantity: 1, Price: dec(2000)}),
		mk("o5", "u1", order.PaymentPaid, 2000, now.AddDate(0, 0, -3)),
		mk("o6", "u1", order.PaymentFailed, 900, now.AddDate(0, 0, -4)),
	}
}

func seedUsers() []user.User {
	name := "Ada"
	return []user.User{
		{ID: "u1", Name: &name, Email: "u1@tab.ng", Role: auth.RoleUser, CreatedAt: now},
		{ID: "u2", Email: "u2@tab.ng", Role: auth.RoleUser, CreatedAt: now},
		{ID: "admin", Email: "admin@tab.ng", Role: auth.RoleAdmin, CreatedAt: now},
	}
}

func seedCatalog() []product.Product {
	return []product.Product{
		{ID: "p1", Name: "Kaftan", Price: dec(4000), Inventory: 3, Featured: true},
		{ID: "p2", Name: "Cap", Price: dec(1000), Inventory: 0},
		{ID: "p3", Name: "Scarf", Price: dec(2000), Inventory: 20, Featured: true},
	}
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	catalog := seedCatalog()
	products := product.NewInMemoryRepository(catalog)
	orders := order.NewInMemoryRepository(seedOrders(), products)
	addresses := address.NewService(address.NewInMemoryRepository([]address.Address{
		{ID: "a1", UserID: "u1", Type: address.TypeShipping, City: "Lagos"},
	}))
	users := user.NewService(user.NewInMemoryRepository(seedUsers(), nil), addresses)
	stats := NewInMemoryStats(seedOrders(), catalog, seedUsers(), map[string]int{"u1": 3})
	s := NewService(stats, users, order.NewService(orders, product.NewService(products), addresses, nil, nil), nil)
	s.now = func() time.Time { return now }
	return s
}

func TestGroupRevenueByMonth(t *testing.T) {
	got := GroupRevenueByMonth([]PaidOrder{
		{Total: dec(300), CreatedAt: time.Date(2026, 3, 31, 23, 0, 0, 0, time.UTC)},
		{Total: dec(100), CreatedAt: time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)},
		{Total: dec(200), CreatedAt: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)},
	})
	require.Len(t, got, 2)
	assert.Equal(t, "2026-01", got[0].Month)
	assert.True(t, got[0].Revenue.Equal(dec(100)))
	assert.Equal(t, "2026-03", got[1].Month)
	assert.True(t, got[1].Revenue.Equal(dec(500)))

	assert.Empty(t, GroupRevenueByMonth(nil))
}

func TestGroupRevenueByMonth_UsesUTC(t *testing.T) {
	lagos := time.FixedZone("WAT", 3600)
	got := GroupRevenueByMonth([]PaidOrder{{Total: dec(1), CreatedAt: time.Date(2026, 5, 1, 0, 30, 0, 0, lagos)}})
	require.Len(t, got, 1)
	assert.Equal(t, "2026-04", got[0].Month)
}

func TestTopSellers(t *testing.T) {
	lines := []SaleLine{
		{ProductID: "a", Name: "A", Quantity: 1, Price: dec(10)},
		{ProductID: "b", Name: "B", Quantity: 3, Price: dec(5)},
		{ProductID: "a", Name: "A", Quantity: 2, Price: dec(10)},
		{ProductID: "c", Name: "C", Quantity: 1, Price: dec(7)},
	}
	got := TopSellers(lines, 2)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, 3, got[0].Count)
	assert.True(t, got[0].Revenue.Equal(dec(30)))
	assert.Equal(t, "b", got[1].ID)
	assert.True(t, got[1].Revenue.Equal(dec(15)))
}

func TestDashboard(t *testing.T) {
	s := newTestService(t)

	d, err := s.Dashboard(context.Background())
	require.NoError(t, err)
	assert.True(t, d.TotalRevenue.Equal(dec(24000)), "got %s", d.TotalRevenue)
	assert.Equal(t, 6, d.TotalOrders)
	assert.Equal(t, 3, d.TotalProducts)
	assert.Equal(t, 2, d.TotalCustomers)
	require.Len(t, d.RecentOrders, 5)
	assert.Equal(t, "o4", d.RecentOrders[0].ID)

	// o3 is older than six months
	require.Len(t, d.RevenueData, 2)
	assert.Equal(t, "2026-05", d.RevenueData[0].Month)
	assert.True(t, d.RevenueData[0].Revenue.Equal(dec(15000)))
	assert.Equal(t, "2026-06", d.RevenueData[1].Month)
	assert.True(t, d.RevenueData[1].Revenue.Equal(dec(2000)))
}

func TestUserDetails(t *testing.T) {
	s := newTestService(t)

	d, err := s.UserDetails(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1@tab.ng", d.Email)
	assert.Empty(t, d.Password)
	assert.Len(t, d.Addresses, 1)
	assert.Len(t, d.Orders, 4)
	assert.Equal(t, 4, d.Count.Orders)
	assert.Equal(t, 3, d.Count.Reviews)
	assert.True(t, d.TotalSpent.Equal(dec(17000)), "got %s", d.TotalSpent)

	_, err = s.UserDetails(context.Background(), "ghost")
	assert.ErrorIs(t, err, user.ErrNotFound)
}

func TestProductStats(t *testing.T) {
	s := newTestService(t)

	st, err := s.ProductStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ProductCounts{Total: 3, LowInventory: 2, OutOfStock: 1, Featured: 2}, st.ProductCounts)
	require.Len(t, st.TopSellingProducts, 3)
	assert.Equal(t, "p2", st.TopSellingProducts[0].ID)
	assert.Equal(t, 5, st.TopSellingProducts[0].Count)
	assert.Equal(t, "p1", st.TopSellingProducts[1].ID)
	assert.True(t, st.TopSellingProducts[1].Revenue.Equal(dec(12000)))
}

func TestDeleteUser_Self(t *testing.T) {
	s := newTestService(t)

	assert.ErrorIs(t, s.DeleteUser(context.Background(), "admin", "admin"), user.ErrDeleteSelf)
	assert.ErrorIs(t, s.DeleteUser(context.Background(), "admin", "ghost"), user.ErrNotFound)
	assert.NoError(t, s.DeleteUser(context.Background(), "admin", "u2"))
}

func TestExportOrders_FollowsCursor(t *testing.T) {
	seed := make([]order.Order, 0, 130)
	for i := 0; i < 130; i++ {
		at := now.Add(-time.Duration(i) * time.Minute)
		seed = append(seed, order.Order{ID: fmt.Sprintf("o%03d", i), UserID: "u1", Status: order.StatusPending,
			PaymentStatus: order.PaymentPaid, Total: dec(100), CreatedAt: at, UpdatedAt: at})
	}
	products := product.NewInMemoryRepository(nil)
	orders := order.NewService(order.NewInMemoryRepository(seed, products), product.NewService(products), nil, nil, nil)
	s := NewService(NewInMemoryStats(nil, nil, nil, nil), nil, orders, nil)

	var buf bytes.Buffer
	require.NoError(t, s.ExportOrders(context.Background(), order.ListFilter{}, &buf))

	file, err := xlsx.OpenBinary(buf.Bytes())
	require.NoError(t, err)
	require.Len(t, file.Sheets, 1)
	sheet := file.Sheets[0]
	require.Len(t, sheet.Rows, 131)
	assert.Equal(t, "Order ID", sheet.Rows[0].Cells[0].Value)
	assert.Equal(t, "o000", sheet.Rows[1].Cells[0].Value)
	assert.Equal(t, "o129", sheet.Rows[130].Cells[0].Value)
}
