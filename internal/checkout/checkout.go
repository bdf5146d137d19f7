package checkout

import (
	"fmt"
	"math/rand"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tabng/tab-backend/internal/cart"
	"github.com/tabng/tab-backend/internal/payment"
)

type Stage string

const (
	StageInformation  Stage = "information"
	StageShipping     Stage = "shipping"
	StagePayment      Stage = "payment"
	StageConfirmation Stage = "confirmation"
)

type PaymentType string

const (
	PaymentPaystack       PaymentType = "paystack"
	PaymentCashOnDelivery PaymentType = "cash-on-delivery"
)

func ParsePaymentType(s string) (PaymentType, error) {
	switch PaymentType(strings.ToLower(strings.TrimSpace(s))) {
	case PaymentPaystack:
		return PaymentPaystack, nil
	case PaymentCashOnDelivery:
		return PaymentCashOnDelivery, nil
	}
	return "", fmt.Errorf("unknown payment type %q", s)
}

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
	PaymentFailed  PaymentStatus = "failed"
)

const DefaultCountry = "Nigeria"

type CustomerInfo struct {
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Phone     string `json:"phone"`
}

var (
	emailPattern = regexp.MustCompile(`\S+@\S+\.\S+`)
	nonDigits    = regexp.MustCompile(`\D`)
)

func (in CustomerInfo) Validate() map[string]string {
	errs := map[string]string{}
	switch {
	case in.Email == "":
		errs["email"] = "Email is required"
	case !emailPattern.MatchString(in.Email):
		errs["email"] = "Please enter a valid email address"
	}
	if in.FirstName == "" {
		errs["firstName"] = "First name is required"
	}
	if in.LastName == "" {
		errs["lastName"] = "Last name is required"
	}
	if in.Phone == "" {
		errs["phone"] = "Phone number is required"
	} else if n := len(nonDigits.ReplaceAllString(in.Phone, "")); n < 10 || n > 11 {
		errs["phone"] = "Please enter a valid phone number"
	}
	return errs
}

type ShippingAddress struct {
	Address   string `json:"address"`
	Apartment string `json:"apartment,omitempty"`
	City      string `json:"city"`
	State     string `json:"state"`
	ZipCode   string `json:"zipCode"`
	Country   string `json:"country"`
}

func (in ShippingAddress) Validate() map[string]string {
	errs := map[string]string{}
	if in.Address == "" {
		errs["address"] = "Address is required"
	}
	if in.City == "" {
		errs["city"] = "City is required"
	}
	if in.State == "" {
		errs["state"] = "State is required"
	}
	if in.ZipCode == "" {
		errs["zipCode"] = "Postal code is required"
	}
	return errs
}

type PaymentMethod struct {
	Type                PaymentType          `json:"type"`
	PaystackReference   string               `json:"paystackReference,omitempty"`
	PaystackTransaction *payment.Transaction `json:"paystackTransaction,omitempty"`
}

// OrderSummary is built once when an order is placed.
type OrderSummary struct {
	Items         []cart.Item     `json:"items"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	Shipping      decimal.Decimal `json:"shipping"`
	Total         decimal.Decimal `json:"total"`
	OrderNumber   string          `json:"orderNumber"`
	PaymentMethod PaymentMethod   `json:"paymentMethod"`
	PaymentStatus PaymentStatus   `json:"paymentStatus"`
}

func ShippingCost(subtotal decimal.Decimal) decimal.Decimal {
	return cart.Shipping(subtotal)
}

// GenerateOrderNumber returns TAB-<last 8 digits of epoch ms>-<4 random digits>.
func GenerateOrderNumber(now time.Time) string {
	ms := strconv.FormatInt(now.UnixMilli(), 10)
	if len(ms) > 8 {
		ms = ms[len(ms)-8:]
	}
	return fmt.Sprintf("TAB-%s-%04d", ms, rand.Intn(10000))
}
