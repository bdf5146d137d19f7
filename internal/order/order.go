package order

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tabng/tab-backend/internal/address"
	"github.com/tabng/tab-backend/internal/apperror"
)

type Status string

const (
	StatusPending    Status = "PENDING"
	StatusProcessing Status = "PROCESSING"
	StatusShipped    Status = "SHIPPED"
	StatusDelivered  Status = "DELIVERED"
	StatusCancelled  Status = "CANCELLED"
	StatusReturned   Status = "RETURNED"
)

func ParseStatus(s string) (Status, error) {
	switch st := Status(strings.ToUpper(s)); st {
	case StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled, StatusReturned:
		return st, nil
	}
	return "", fmt.Errorf("unknown order status %q", s)
}

// Cancellable reports whether a customer may still cancel an order in s.
func (s Status) Cancellable() bool {
	switch s {
	case StatusShipped, StatusDelivered, StatusCancelled, StatusReturned:
		return false
	}
	return true
}

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "PENDING"
	PaymentPaid     PaymentStatus = "PAID"
	PaymentFailed   PaymentStatus = "FAILED"
	PaymentRefunded PaymentStatus = "REFUNDED"
)

func ParsePaymentStatus(s string) (PaymentStatus, error) {
	switch ps := PaymentStatus(strings.ToUpper(s)); ps {
	case PaymentPending, PaymentPaid, PaymentFailed, PaymentRefunded:
		return ps, nil
	}
	return "", fmt.Errorf("unknown payment status %q", s)
}

var (
	TaxRate     = decimal.RequireFromString("0.075")
	ShippingFee = decimal.NewFromInt(1000)
)

type VariantSummary struct {
	Size  *string `json:"size,omitempty"`
	Color *string `json:"color,omitempty"`
}

type Item struct {
	ID           string          `json:"id"`
	OrderID      string          `json:"orderId"`
	ProductID    string          `json:"productId"`
	VariantID    *string         `json:"variantId,omitempty"`
	Quantity     int             `json:"quantity"`
	Price        decimal.Decimal `json:"price"`
	ProductName  string          `json:"productName"`
	ProductSlug  string          `json:"productSlug,omitempty"`
	ProductImage *string         `json:"productImage,omitempty"`
	Variant      *VariantSummary `json:"variant,omitempty"`
}

// Customer is the account summary shown on admin order listings.
type Customer struct {
	ID    string  `json:"id"`
	Name  *string `json:"name"`
	Email string  `json:"email"`
}

type Order struct {
	ID                string           `json:"id"`
	UserID            string           `json:"userId"`
	Status            Status           `json:"status"`
	PaymentStatus     PaymentStatus    `json:"paymentStatus"`
	PaymentMethod     string           `json:"paymentMethod"`
	Total             decimal.Decimal  `json:"total"`
	ShippingFee       decimal.Decimal  `json:"shippingFee"`
	Tax               decimal.Decimal  `json:"tax"`
	ShippingAddressID string           `json:"shippingAddressId"`
	BillingAddressID  *string          `json:"billingAddressId,omitempty"`
	ShippingAddress   *address.Address `json:"shippingAddress,omitempty"`
	Notes             *string          `json:"notes,omitempty"`
	TrackingNumber    *string          `json:"trackingNumber,omitempty"`
	Items             []Item           `json:"items"`
	User              *Customer        `json:"user,omitempty"`
	CreatedAt         time.Time        `json:"createdAt"`
	UpdatedAt         time.Time        `json:"updatedAt"`
}

// Subtotal is the sum of line prices before tax and shipping.
func (o Order) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, it := range o.Items {
		sum = sum.Add(it.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return sum
}

type ItemInput struct {
	ProductID string  `json:"productId"`
	VariantID *string `json:"variantId"`
	Quantity  int     `json:"quantity"`
}

type CreateInput struct {
	Items             []ItemInput `json:"items"`
	ShippingAddressID string      `json:"shippingAddressId"`
	BillingAddressID  *string     `json:"billingAddressId"`
	PaymentMethod     string      `json:"paymentMethod"`
	Notes             *string     `json:"notes"`
}

func (in CreateInput) Validate() map[string]string {
	errs := map[string]string{}
	if len(in.Items) == 0 {
		errs["items"] = "At least one item is required"
	}
	for i, it := range in.Items {
		if it.ProductID == "" {
			errs[fmt.Sprintf("items[%d].productId", i)] = "Product is required"
		}
		if it.Quantity < 1 {
			errs[fmt.Sprintf("items[%d].quantity", i)] = "Quantity must be at least 1"
		}
	}
	if in.ShippingAddressID == "" {
		errs["shippingAddressId"] = "Shipping address is required"
	}
	if strings.TrimSpace(in.PaymentMethod) == "" {
		errs["paymentMethod"] = "Payment method is required"
	}
	return errs
}

type ListFilter struct {
	Limit         int
	Cursor        string
	UserID        string
	Status        *Status
	PaymentStatus *PaymentStatus
	Search        string
}

type StatusUpdate struct {
	Status         string  `json:"status"`
	PaymentStatus  *string `json:"paymentStatus"`
	TrackingNumber *string `json:"trackingNumber"`
	Notes          *string `json:"notes"`
}

// insufficient names the product (and variant) that ran out of stock.
func insufficient(it Item) error {
	if it.VariantID == nil {
		return apperror.BadRequest(fmt.Sprintf("Not enough inventory for %s", it.ProductName))
	}
	var size, color string
	if it.Variant != nil {
		if it.Variant.Size != nil {
			size = *it.Variant.Size
		}
		if it.Variant.Color != nil {
			color = *it.Variant.Color
		}
	}
	return apperror.BadRequest(fmt.Sprintf("Not enough inventory for %s (%s %s)", it.ProductName, size, color))
}
