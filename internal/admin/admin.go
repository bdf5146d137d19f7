package admin

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tabng/tab-backend/internal/order"
	"github.com/tabng/tab-backend/internal/user"
)

const (
	recentOrders     = 5
	revenueMonths    = 6
	lowInventory     = 5
	topSellers       = 5
	userRecentOrders = 5
)

type RevenuePoint struct {
	Month   string          `json:"month"`
	Revenue decimal.Decimal `json:"revenue"`
}

// PaidOrder is the slice of an order the revenue chart needs.
type PaidOrder struct {
	Total     decimal.Decimal
	CreatedAt time.Time
}

type DashboardStats struct {
	TotalRevenue   decimal.Decimal `json:"totalRevenue"`
	TotalOrders    int             `json:"totalOrders"`
	TotalProducts  int             `json:"totalProducts"`
	TotalCustomers int             `json:"totalCustomers"`
	RecentOrders   []order.Order   `json:"recentOrders"`
	RevenueData    []RevenuePoint  `json:"revenueData"`
}

// SaleLine is one sold order item.
type SaleLine struct {
	ProductID string
	Name      string
	Quantity  int
	Price     decimal.Decimal
}

type ProductSale struct {
	ID      string          `json:"id"`
	Name    string          `json:"name"`
	Count   int             `json:"count"`
	Revenue decimal.Decimal `json:"revenue"`
}

type ProductCounts struct {
	Total        int `json:"totalProducts"`
	LowInventory int `json:"lowInventory"`
	OutOfStock   int `json:"outOfStock"`
	Featured     int `json:"featured"`
}

type ProductStats struct {
	ProductCounts
	TopSellingProducts []ProductSale `json:"topSellingProducts"`
}

type Totals struct {
	Orders    int
	Products  int
	Customers int
}

type UserActivity struct {
	Orders     int             `json:"orders"`
	Reviews    int             `json:"reviews"`
	TotalSpent decimal.Decimal `json:"-"`
}

type UserDetails struct {
	user.User
	Orders     []order.Order   `json:"orders"`
	Count      UserActivity    `json:"_count"`
	TotalSpent decimal.Decimal `json:"totalSpent"`
}

// GroupRevenueByMonth sums totals per UTC YYYY-MM, oldest month first.
func GroupRevenueByMonth(orders []PaidOrder) []RevenuePoint {
	sums := map[string]decimal.Decimal{}
	for _, o := range orders {
		month := o.CreatedAt.UTC().Format("2006-01")
		sums[month] = sums[month].Add(o.Total)
	}
	out := make([]RevenuePoint, 0, len(sums))
	for month, revenue := range sums {
		out = append(out, RevenuePoint{Month: month, Revenue: revenue})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out
}

// TopSellers aggregates lines per product and returns the n best by units
// sold. Ties keep first-sold order.
func TopSellers(lines []SaleLine, n int) []ProductSale {
	index := map[string]int{}
	out := make([]ProductSale, 0)
	for _, l := range lines {
		i, ok := index[l.ProductID]
		if !ok {
			i = len(out)
			index[l.ProductID] = i
			out = append(out, ProductSale{ID: l.ProductID, Name: l.Name, Revenue: decimal.Zero})
		}
		out[i].Count += l.Quantity
		out[i].Revenue = out[i].Revenue.Add(l.Price.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	if len(out) > n {
		out = out[:n]
	}
	return out
}
