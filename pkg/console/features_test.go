package console

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/cucumber/godog"
	"github.com/example/dinein/pkg/config"
	"github.com/example/dinein/pkg/models"
	"github.com/example/dinein/pkg/notify"
	"github.com/example/dinein/pkg/store/memstore"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type dineInContext struct {
	store    *memstore.Store
	system   *System
	customer *actor.PID
	menu     map[string]models.MenuItem
	cart     *CartView
	order    *models.Order
	bill     *BillReady
	err      error
}

func (c *dineInContext) reset() error {
	c.shutdown()
	s, err := memstore.New()
	if err != nil {
		return err
	}
	c.store = s
	c.menu = map[string]models.MenuItem{}
	c.cart, c.order, c.bill, c.err = nil, nil, nil, nil
	c.system, err = Start(Deps{
		Store:    s,
		Dine:     config.DineConfig{ConflictPolicy: "last_writer_wins", GSTRate: "0.18", PaymentMethods: []string{"UPI", "Cash", "Card"}},
		Logger:   zap.NewNop(),
		Notifier: &notify.Recorder{},
	})
	return err
}

func (c *dineInContext) shutdown() {
	if c.system != nil {
		c.system.Shutdown()
		c.system = nil
	}
}

func (c *dineInContext) theMenu(table *godog.Table) error {
	var items []models.MenuItem
	for _, row := range table.Rows[1:] {
		price, err := decimal.NewFromString(row.Cells[2].Value)
		if err != nil {
			return err
		}
		it := models.MenuItem{
			ID:        row.Cells[0].Value,
			Name:      row.Cells[1].Value,
			Price:     price,
			Category:  row.Cells[3].Value,
			Available: true,
		}
		c.menu[it.ID] = it
		items = append(items, it)
	}
	return c.store.SeedMenu(items...)
}

func (c *dineInContext) customerIsSeatedAtTable(name, tableName string) error {
	t, err := c.store.CreateTable(context.Background(), tableName)
	if err != nil {
		return err
	}
	seated, err := Ask[*Seated](c.system, c.system.Host, &SeatCustomer{
		Fields: models.CustomerFields{TableID: t.ID, Name: name},
	})
	if err != nil {
		return err
	}
	if !seated.Table.Occupied {
		return errors.New("table should be occupied once a customer is seated")
	}
	c.customer, err = c.system.SpawnCustomer(t.ID)
	if err != nil {
		return err
	}
	c.cart, err = Ask[*CartView](c.system, c.customer, &LoadCart{})
	return err
}

func (c *dineInContext) theCustomerAdds(n int, id string) error {
	item, ok := c.menu[id]
	if !ok {
		return fmt.Errorf("no menu item %q", id)
	}
	for range n {
		view, err := Ask[*CartView](c.system, c.customer, &AddToCart{Item: item.Ref()})
		if err != nil {
			return err
		}
		c.cart = view
	}
	return nil
}

func (c *dineInContext) theCustomerRemovesOne(id string) error {
	view, err := Ask[*CartView](c.system, c.customer, &RemoveOne{ItemID: id})
	if err != nil {
		return err
	}
	c.cart = view
	return nil
}

func (c *dineInContext) theCartTotalIs(total string, units int) error {
	want, err := decimal.NewFromString(total)
	if err != nil {
		return err
	}
	if !c.cart.Total.Equal(want) {
		return fmt.Errorf("cart total %s, want %s", c.cart.Total.StringFixed(2), total)
	}
	if c.cart.ItemCount != units {
		return fmt.Errorf("cart holds %d units, want %d", c.cart.ItemCount, units)
	}
	return nil
}

func (c *dineInContext) theCustomerPlacesTheOrder(method string) error {
	placed, err := Ask[*OrderPlaced](c.system, c.customer, &PlaceOrder{Method: models.PaymentMethod(method)})
	if err != nil {
		c.err = err
		return nil
	}
	c.order = &placed.Order
	return nil
}

func (c *dineInContext) theCartIsEmpty() error {
	if c.err != nil {
		return c.err
	}
	view, err := Ask[*CartView](c.system, c.customer, &LoadCart{})
	if err != nil {
		return err
	}
	if len(view.Lines) != 0 || !view.Total.IsZero() {
		return fmt.Errorf("cart still holds %d lines", len(view.Lines))
	}
	return nil
}

func (c *dineInContext) kitchenView() (*KitchenView, error) {
	return Ask[*KitchenView](c.system, c.system.Kitchen, &RefreshItems{})
}

func (c *dineInContext) theKitchenShowsPendingItems(n int) error {
	view, err := c.kitchenView()
	if err != nil {
		return err
	}
	if view.Counts.Pending != n {
		return fmt.Errorf("kitchen shows %d pending items, want %d", view.Counts.Pending, n)
	}
	return nil
}

func (c *dineInContext) theKitchenShowsActiveItems(n int) error {
	view, err := c.kitchenView()
	if err != nil {
		return err
	}
	if len(view.Items) != n {
		return fmt.Errorf("kitchen shows %d items, want %d", len(view.Items), n)
	}
	return nil
}

func (c *dineInContext) theKitchenMarksEveryItemPrepared() error {
	view, err := c.kitchenView()
	if err != nil {
		return err
	}
	for _, it := range view.Items {
		if _, err := c.system.Request(c.system.Kitchen, &MarkPrepared{ItemID: it.ID}); err != nil {
			return err
		}
	}
	return nil
}

func (c *dineInContext) theWaiterMarksEveryItemDelivered() error {
	if c.order == nil {
		return errors.New("no order placed")
	}
	if _, err := c.system.Request(c.system.Service, &RefreshItems{}); err != nil {
		return err
	}
	items, err := c.store.FetchOrderItems(context.Background(), c.order.ID)
	if err != nil {
		return err
	}
	for _, it := range items {
		if _, err := c.system.Request(c.system.Service, &MarkDelivered{ItemID: it.ID}); err != nil {
			c.err = err
			return nil
		}
	}
	return nil
}

func (c *dineInContext) theCustomerRequestsTheBill() error {
	bill, err := Ask[*BillReady](c.system, c.customer, &RequestBill{})
	if err != nil {
		return err
	}
	if !bill.Queued {
		return errors.New("payment request was not queued at the cashier")
	}
	c.bill = bill
	return nil
}

func (c *dineInContext) theBillIs(status, total string) error {
	want, err := decimal.NewFromString(total)
	if err != nil {
		return err
	}
	deadline := time.Now().Add(2 * time.Second)
	for {
		bill, err := Ask[*BillReady](c.system, c.customer, &GetBill{})
		if err != nil {
			return err
		}
		if string(bill.Bill.Status) == status {
			if !bill.Summary.Total.Equal(want) {
				return fmt.Errorf("bill total %s, want %s", bill.Summary.Total.StringFixed(2), total)
			}
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("bill status %s, want %s", bill.Bill.Status, status)
		}
		time.Sleep(20 * time.Millisecond)
	}
}

func (c *dineInContext) theCashierHasPendingPayments(n int) error {
	p, err := Ask[*Payments](c.system, c.system.Cashier, &ListPayments{})
	if err != nil {
		return err
	}
	if len(p.Pending) != n {
		return fmt.Errorf("cashier has %d pending payments, want %d", len(p.Pending), n)
	}
	return nil
}

func (c *dineInContext) theCashierConfirmsThePayment() error {
	if c.bill == nil {
		return errors.New("no bill requested")
	}
	_, err := c.system.Request(c.system.Cashier, &ConfirmPayment{BillID: c.bill.Bill.ID})
	return err
}

func (c *dineInContext) theRequestFailsWith(fragment string) error {
	if c.err == nil {
		return errors.New("expected the request to fail")
	}
	if !strings.Contains(c.err.Error(), fragment) {
		return fmt.Errorf("error %q does not mention %q", c.err, fragment)
	}
	return nil
}

func InitializeScenario(ctx *godog.ScenarioContext) {
	tc := &dineInContext{}

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		return ctx, tc.reset()
	})
	ctx.After(func(ctx context.Context, sc *godog.Scenario, err error) (context.Context, error) {
		tc.shutdown()
		return ctx, nil
	})

	ctx.Step(`^the menu:$`, tc.theMenu)
	ctx.Step(`^customer "([^"]*)" is seated at table "([^"]*)"$`, tc.customerIsSeatedAtTable)

	ctx.Step(`^the customer adds (\d+) of "([^"]*)"$`, tc.theCustomerAdds)
	ctx.Step(`^the customer removes one "([^"]*)"$`, tc.theCustomerRemovesOne)
	ctx.Step(`^the customer places the order paying by "([^"]*)"$`, tc.theCustomerPlacesTheOrder)
	ctx.Step(`^the kitchen marks every item prepared$`, tc.theKitchenMarksEveryItemPrepared)
	ctx.Step(`^the waiter marks every item delivered$`, tc.theWaiterMarksEveryItemDelivered)
	ctx.Step(`^the customer requests the bill$`, tc.theCustomerRequestsTheBill)
	ctx.Step(`^the cashier confirms the payment$`, tc.theCashierConfirmsThePayment)

	ctx.Step(`^the cart total is (\d+\.\d+) with (\d+) units$`, tc.theCartTotalIs)
	ctx.Step(`^the cart is empty$`, tc.theCartIsEmpty)
	ctx.Step(`^the kitchen shows (\d+) pending items$`, tc.theKitchenShowsPendingItems)
	ctx.Step(`^the kitchen shows (\d+) active items$`, tc.theKitchenShowsActiveItems)
	ctx.Step(`^the bill is "([^"]*)" with total (\d+\.\d+)$`, tc.theBillIs)
	ctx.Step(`^the cashier has (\d+) pending payments?$`, tc.theCashierHasPendingPayments)
	ctx.Step(`^the request fails with "([^"]*)"$`, tc.theRequestFailsWith)
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
