package checkout

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cucumber/godog"
	"github.com/shopspring/decimal"
	"github.com/tabng/tab-backend/internal/apperror"
	"github.com/tabng/tab-backend/internal/cart"
	"github.com/tabng/tab-backend/internal/payment"
)

type checkoutTestContext struct {
	srv       *httptest.Server
	carts     *cart.Manager
	gateway   *payment.Gateway
	session   *Session
	placement Placement
	err       error
}

func (c *checkoutTestContext) reset() {
	c.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(initialized))
	}))
	c.carts = cart.NewManager(cart.NewMemorySnapshots(), nil)
	c.gateway = payment.NewGateway(payment.Config{SecretKey: "sk_test", BaseURL: c.srv.URL}, nil)
	c.session = NewService(c.carts, c.gateway, 0, nil).Session("bdd")
	c.placement = Placement{}
	c.err = nil
}

func (c *checkoutTestContext) store() (*cart.Store, error) {
	return c.carts.Open(context.Background(), "bdd")
}

func (c *checkoutTestContext) aCartHolding(name string, price int) error {
	s, err := c.store()
	if err != nil {
		return err
	}
	return s.Add(context.Background(), cart.Item{ID: name, Name: name, Price: decimal.NewFromInt(int64(price)), Quantity: 1})
}

func (c *checkoutTestContext) iEnterValidCustomerInformation() error {
	_, c.err = c.session.SubmitInformation(validInfo)
	return c.err
}

func (c *checkoutTestContext) iEnterCustomerInformationWithPhone(phone string) error {
	info := validInfo
	info.Phone = phone
	_, c.err = c.session.SubmitInformation(info)
	return nil
}

func (c *checkoutTestContext) iEnterAValidShippingAddress() error {
	_, c.err = c.session.SubmitShipping(validShipping)
	return c.err
}

func (c *checkoutTestContext) iChoose(method string) error {
	t, err := ParsePaymentType(method)
	if err != nil {
		return err
	}
	_, c.err = c.session.SelectPaymentMethod(t)
	return c.err
}

func (c *checkoutTestContext) iGoBack() error {
	_, c.err = c.session.Back()
	return c.err
}

func (c *checkoutTestContext) iPlaceTheOrder() error {
	c.placement, c.err = c.session.PlaceOrder(context.Background())
	return c.err
}

func (c *checkoutTestContext) thePaymentSucceeds() error {
	if err := c.gateway.Succeed(c.placement.Reference, payment.Transaction{Status: "success"}); err != nil {
		return err
	}
	c.session.wait()
	return nil
}

func (c *checkoutTestContext) thePaymentWindowIsClosed() error {
	if err := c.gateway.Close(c.placement.Reference); err != nil {
		return err
	}
	c.session.wait()
	return nil
}

func (c *checkoutTestContext) theCheckoutIsAtStep(stage string) error {
	if got := c.session.State().Stage; got != Stage(stage) {
		return fmt.Errorf("expected stage %s, got %s", stage, got)
	}
	return nil
}

func (c *checkoutTestContext) theOrderTotalIs(total int) error {
	sum := c.session.State().OrderSummary
	if sum == nil {
		return errors.New("no order summary")
	}
	if !sum.Total.Equal(decimal.NewFromInt(int64(total))) {
		return fmt.Errorf("expected total %d, got %s", total, sum.Total)
	}
	return nil
}

func (c *checkoutTestContext) thePaymentStatusIs(status string) error {
	sum := c.session.State().OrderSummary
	if sum == nil {
		return errors.New("no order summary")
	}
	if sum.PaymentStatus != PaymentStatus(status) {
		return fmt.Errorf("expected payment status %s, got %s", status, sum.PaymentStatus)
	}
	return nil
}

func (c *checkoutTestContext) theCartHolds(n int) error {
	s, err := c.store()
	if err != nil {
		return err
	}
	if got := len(s.Items()); got != n {
		return fmt.Errorf("expected %d cart lines, got %d", n, got)
	}
	return nil
}

func (c *checkoutTestContext) theCartIsEmpty() error {
	return c.theCartHolds(0)
}

func (c *checkoutTestContext) theErrorForIs(field, msg string) error {
	var ae *apperror.Error
	if !errors.As(c.err, &ae) {
		return fmt.Errorf("expected a validation error, got %v", c.err)
	}
	if ae.Fields[field] != msg {
		return fmt.Errorf("expected %q for %s, got %q", msg, field, ae.Fields[field])
	}
	return nil
}

func (c *checkoutTestContext) theCityIsStill(city string) error {
	if got := c.session.State().ShippingAddress.City; got != city {
		return fmt.Errorf("expected city %s, got %s", city, got)
	}
	return nil
}

func (c *checkoutTestContext) theCheckoutIsNotProcessing() error {
	if c.session.State().IsProcessing {
		return errors.New("checkout is still processing")
	}
	return nil
}

func InitializeScenario(ctx *godog.ScenarioContext) {
	tc := &checkoutTestContext{}

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		tc.reset()
		return ctx, nil
	})
	ctx.After(func(ctx context.Context, sc *godog.Scenario, err error) (context.Context, error) {
		tc.gateway.Shutdown()
		tc.session.wait()
		tc.srv.Close()
		return ctx, nil
	})

	// Given steps
	ctx.Step(`^a cart holding "([^"]*)" at (\d+) naira$`, tc.aCartHolding)

	// When steps
	ctx.Step(`^I enter valid customer information$`, tc.iEnterValidCustomerInformation)
	ctx.Step(`^I enter customer information with phone "([^"]*)"$`, tc.iEnterCustomerInformationWithPhone)
	ctx.Step(`^I enter a valid shipping address$`, tc.iEnterAValidShippingAddress)
	ctx.Step(`^I choose "([^"]*)"$`, tc.iChoose)
	ctx.Step(`^I go back$`, tc.iGoBack)
	ctx.Step(`^I place the order$`, tc.iPlaceTheOrder)
	ctx.Step(`^the payment succeeds$`, tc.thePaymentSucceeds)
	ctx.Step(`^the payment window is closed$`, tc.thePaymentWindowIsClosed)

	// Then steps
	ctx.Step(`^the checkout is at the "([^"]*)" step$`, tc.theCheckoutIsAtStep)
	ctx.Step(`^the order total is (\d+)$`, tc.theOrderTotalIs)
	ctx.Step(`^the payment status is "([^"]*)"$`, tc.thePaymentStatusIs)
	ctx.Step(`^the cart is empty$`, tc.theCartIsEmpty)
	ctx.Step(`^the cart still holds (\d+) item$`, tc.theCartHolds)
	ctx.Step(`^the error for "([^"]*)" is "([^"]*)"$`, tc.theErrorForIs)
	ctx.Step(`^the city is still "([^"]*)"$`, tc.theCityIsStill)
	ctx.Step(`^the checkout is not processing$`, tc.theCheckoutIsNotProcessing)
}

func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features"},
			TestingT: t,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
