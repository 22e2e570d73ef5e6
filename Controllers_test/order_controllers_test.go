package Controllers_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/wowcafe/cafe-app/controllers"
	"github.com/wowcafe/cafe-app/models"
	"github.com/wowcafe/cafe-app/services"
	"github.com/wowcafe/cafe-app/utils"
)

type pushCall struct {
	Tokens []string
	Title  string
	Body   string
}

type fakePushSender struct {
	calls []pushCall
}

func (f *fakePushSender) SendToTokens(_ context.Context, tokens []string, title, body string, _ map[string]string) error {
	f.calls = append(f.calls, pushCall{Tokens: tokens, Title: title, Body: body})
	return nil
}

type orderTestEnv struct {
	db       *gorm.DB
	cart     *controllers.CartController
	orders   *controllers.OrderController
	push     *fakePushSender
	customer models.AuthUser
	staff    models.AuthUser
	courier  models.AuthUser
	item     models.Item
}

func setupOrderEnv(t *testing.T) *orderTestEnv {
	utils.InitLogger()

	db, err := gorm.Open(sqlite.Open("file:orderdb?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}
	err = db.AutoMigrate(
		&models.AuthUser{}, &models.MobileAccount{},
		&models.Item{}, &models.ItemSize{},
		&models.Cart{}, &models.CartItem{},
		&models.Order{}, &models.OrderLine{}, &models.OrderStatusEvent{},
		&models.DailyCounter{}, &models.Notification{},
	)
	if err != nil {
		t.Fatal(err)
	}

	for _, m := range []interface{}{
		&models.OrderStatusEvent{}, &models.OrderLine{}, &models.Order{},
		&models.CartItem{}, &models.Cart{}, &models.ItemSize{}, &models.Item{},
		&models.MobileAccount{}, &models.AuthUser{}, &models.DailyCounter{},
		&models.Notification{},
	} {
		db.Where("1 = 1").Delete(m)
	}

	env := &orderTestEnv{db: db, push: &fakePushSender{}}

	env.customer = models.AuthUser{
		FirstName: "Asha", LastName: "Rao",
		Phone: "9990001111", Email: "asha@example.com",
		Password: "x", Role: models.RoleCustomer,
		DeviceTokens: []string{"token-asha-1"},
	}
	env.staff = models.AuthUser{
		FirstName: "Ben", LastName: "Lee",
		Phone: "9990002222", Email: "ben@example.com",
		Password: "x", Role: models.RoleStaff,
	}
	env.courier = models.AuthUser{
		FirstName: "Cody", LastName: "Tran",
		Phone: "9990003333", Email: "cody@example.com",
		Password: "x", Role: models.RoleDeliveryMan,
	}
	for _, u := range []*models.AuthUser{&env.customer, &env.staff, &env.courier} {
		if err := db.Create(u).Error; err != nil {
			t.Fatal(err)
		}
	}

	env.item = models.Item{
		ItemName: "Masala Chai", Price: 2.0,
		ImgURL: "https://cdn.example.com/chai.png", ItemGroup: "tea",
		Sizes: []models.ItemSize{{Size: "large", Price: 2.5}},
	}
	if err := db.Create(&env.item).Error; err != nil {
		t.Fatal(err)
	}

	env.cart = controllers.NewCartController(db)
	env.orders = controllers.NewOrderController(db, env.cart, services.NewNotifier(env.push))
	return env
}

func TestPlaceOrderEmptyCartFails(t *testing.T) {
	env := setupOrderEnv(t)

	_, err := env.orders.PlaceOrder(env.customer.ID, models.RoleCustomer, controllers.PlaceOrderRequest{
		OrderType: models.OrderTypeDineIn,
		Total:     0,
	})
	assert.Error(t, err)
	appErr, ok := utils.AsAppError(err)
	assert.True(t, ok)
	assert.Equal(t, 400, appErr.Code)

	var count int64
	env.db.Model(&models.Order{}).Count(&count)
	assert.Zero(t, count)
}

func TestPlaceOrderSnapshotsCartAndClearsIt(t *testing.T) {
	env := setupOrderEnv(t)

	assert.NoError(t, env.cart.AddOrUpdateLine(env.customer.ID, env.item.ID, 2, "large"))
	assert.NoError(t, env.cart.AddOrUpdateLine(env.customer.ID, env.item.ID, 1, "regular"))

	order, err := env.orders.PlaceOrder(env.customer.ID, models.RoleCustomer, controllers.PlaceOrderRequest{
		OrderNote: "less sugar",
		OrderType: models.OrderTypeDineIn,
		Total:     7.0,
	})
	assert.NoError(t, err)
	assert.Equal(t, uint(1), order.OrderNo)
	assert.Equal(t, models.StatusPlaced, order.Status)
	// Mobile number defaults to the customer's own phone.
	assert.Equal(t, env.customer.Phone, order.MobileNumber)

	var persisted models.Order
	assert.NoError(t, env.db.Preload("Lines").Preload("StatusHistory").First(&persisted, order.ID).Error)
	assert.Len(t, persisted.Lines, 2)
	assert.Len(t, persisted.StatusHistory, 1)
	assert.Equal(t, models.StatusPlaced, persisted.StatusHistory[0].Status)

	bySize := map[string]models.OrderLine{}
	for _, line := range persisted.Lines {
		bySize[line.Size] = line
	}
	assert.Equal(t, 2, bySize["large"].Count)
	assert.Equal(t, 2.5, bySize["large"].Price)
	assert.Equal(t, 1, bySize["regular"].Count)
	assert.Equal(t, 2.0, bySize["regular"].Price)

	// Catalog edits after placement never touch the snapshot.
	assert.NoError(t, env.db.Model(&models.Item{}).Where("id = ?", env.item.ID).Update("price", 99.0).Error)
	var frozen models.OrderLine
	assert.NoError(t, env.db.Where("order_id = ? AND size = ?", order.ID, "regular").First(&frozen).Error)
	assert.Equal(t, 2.0, frozen.Price)

	views, err := env.cart.GetCartData(env.customer.ID)
	assert.NoError(t, err)
	assert.Empty(t, views)

	// Push went to the owner's registered tokens.
	assert.Len(t, env.push.calls, 1)
	assert.Equal(t, []string{"token-asha-1"}, env.push.calls[0].Tokens)
}

func TestSequentialOrderNumbersSameDay(t *testing.T) {
	env := setupOrderEnv(t)

	for i := 1; i <= 3; i++ {
		assert.NoError(t, env.cart.AddOrUpdateLine(env.customer.ID, env.item.ID, 1, "regular"))
		order, err := env.orders.PlaceOrder(env.customer.ID, models.RoleCustomer, controllers.PlaceOrderRequest{
			OrderType: models.OrderTypeDineIn,
			Total:     2.0,
		})
		assert.NoError(t, err)
		assert.Equal(t, uint(i), order.OrderNo)
	}
}

func TestPlaceOrderStaffResolvesMobileAccount(t *testing.T) {
	env := setupOrderEnv(t)

	// Unknown phone creates a mobile account; repeating reuses it.
	for i := 0; i < 2; i++ {
		assert.NoError(t, env.cart.AddOrUpdateLine(env.staff.ID, env.item.ID, 1, "regular"))
		order, err := env.orders.PlaceOrder(env.staff.ID, models.RoleStaff, controllers.PlaceOrderRequest{
			OrderType:    models.OrderTypeDineIn,
			MobileNumber: "8880009999",
			Total:        2.0,
		})
		assert.NoError(t, err)
		assert.Nil(t, order.UserID)
		assert.NotNil(t, order.MobileAccountID)
	}
	var accounts int64
	env.db.Model(&models.MobileAccount{}).Where("phone = ?", "8880009999").Count(&accounts)
	assert.Equal(t, int64(1), accounts)

	// A registered phone resolves to the auth user instead.
	assert.NoError(t, env.cart.AddOrUpdateLine(env.staff.ID, env.item.ID, 1, "regular"))
	order, err := env.orders.PlaceOrder(env.staff.ID, models.RoleStaff, controllers.PlaceOrderRequest{
		OrderType:    models.OrderTypeDineIn,
		MobileNumber: env.customer.Phone,
		Total:        2.0,
	})
	assert.NoError(t, err)
	assert.NotNil(t, order.UserID)
	assert.Equal(t, env.customer.ID, *order.UserID)
	assert.Nil(t, order.MobileAccountID)

	// Staff must supply a phone.
	assert.NoError(t, env.cart.AddOrUpdateLine(env.staff.ID, env.item.ID, 1, "regular"))
	_, err = env.orders.PlaceOrder(env.staff.ID, models.RoleStaff, controllers.PlaceOrderRequest{
		OrderType: models.OrderTypeDineIn,
		Total:     2.0,
	})
	appErr, ok := utils.AsAppError(err)
	assert.True(t, ok)
	assert.Equal(t, 400, appErr.Code)
}

func placeTestOrder(t *testing.T, env *orderTestEnv) *models.Order {
	assert.NoError(t, env.cart.AddOrUpdateLine(env.customer.ID, env.item.ID, 1, "regular"))
	order, err := env.orders.PlaceOrder(env.customer.ID, models.RoleCustomer, controllers.PlaceOrderRequest{
		OrderType: models.OrderTypeDelivery,
		Total:     2.0,
	})
	assert.NoError(t, err)
	return order
}

func TestUpdateOrderStatusNotFound(t *testing.T) {
	env := setupOrderEnv(t)

	_, err := env.orders.UpdateOrderStatus(12345, models.StatusInKitchen, env.staff.ID)
	appErr, ok := utils.AsAppError(err)
	assert.True(t, ok)
	assert.Equal(t, 404, appErr.Code)
}

func TestUpdateOrderStatusInvalidStatus(t *testing.T) {
	env := setupOrderEnv(t)
	order := placeTestOrder(t, env)

	_, err := env.orders.UpdateOrderStatus(order.ID, "microwaved", env.staff.ID)
	appErr, ok := utils.AsAppError(err)
	assert.True(t, ok)
	assert.Equal(t, 400, appErr.Code)
}

func TestUpdateOrderStatusAppendsHistory(t *testing.T) {
	env := setupOrderEnv(t)
	order := placeTestOrder(t, env)

	_, err := env.orders.UpdateOrderStatus(order.ID, models.StatusInKitchen, env.staff.ID)
	assert.NoError(t, err)

	var persisted models.Order
	assert.NoError(t, env.db.Preload("StatusHistory").First(&persisted, order.ID).Error)
	assert.Equal(t, models.StatusInKitchen, persisted.Status)
	assert.Len(t, persisted.StatusHistory, 2)
	// Status always mirrors the newest history entry.
	last := persisted.StatusHistory[len(persisted.StatusHistory)-1]
	assert.Equal(t, persisted.Status, last.Status)
	assert.True(t, last.UpdateTime.After(persisted.StatusHistory[0].UpdateTime))
}

func TestUpdateOrderStatusStampsDeliveryMan(t *testing.T) {
	env := setupOrderEnv(t)
	order := placeTestOrder(t, env)

	updated, err := env.orders.UpdateOrderStatus(order.ID, models.StatusInDelivery, env.courier.ID)
	assert.NoError(t, err)
	assert.NotNil(t, updated.DeliveryManID)
	assert.Equal(t, env.courier.ID, *updated.DeliveryManID)

	// A later status change leaves the assignment untouched.
	_, err = env.orders.UpdateOrderStatus(order.ID, models.StatusAllDone, env.staff.ID)
	assert.NoError(t, err)

	var persisted models.Order
	assert.NoError(t, env.db.First(&persisted, order.ID).Error)
	assert.NotNil(t, persisted.DeliveryManID)
	assert.Equal(t, env.courier.ID, *persisted.DeliveryManID)
}

func TestStatusUpdatesFromTwoActorsKeepAllHistory(t *testing.T) {
	env := setupOrderEnv(t)
	order := placeTestOrder(t, env)

	// Two actors updating the same order independently: the status column
	// carries the last write, and neither actor's history event is lost.
	_, err := env.orders.UpdateOrderStatus(order.ID, models.StatusInKitchen, env.staff.ID)
	assert.NoError(t, err)
	_, err = env.orders.UpdateOrderStatus(order.ID, models.StatusInDelivery, env.courier.ID)
	assert.NoError(t, err)

	var persisted models.Order
	assert.NoError(t, env.db.Preload("StatusHistory").First(&persisted, order.ID).Error)
	assert.Equal(t, models.StatusInDelivery, persisted.Status)
	assert.Len(t, persisted.StatusHistory, 3)

	seen := map[models.OrderStatus]bool{}
	for _, event := range persisted.StatusHistory {
		seen[event.Status] = true
	}
	assert.True(t, seen[models.StatusInKitchen])
	assert.True(t, seen[models.StatusInDelivery])
	// Status mirrors the most recent event, not the first writer's.
	assert.Equal(t, persisted.Status, persisted.StatusHistory[len(persisted.StatusHistory)-1].Status)
}

func TestSearchOrdersCustomerScoping(t *testing.T) {
	env := setupOrderEnv(t)

	mine := placeTestOrder(t, env)

	// An order owned by someone else.
	assert.NoError(t, env.cart.AddOrUpdateLine(env.courier.ID, env.item.ID, 1, "regular"))
	_, err := env.orders.PlaceOrder(env.courier.ID, models.RoleCustomer, controllers.PlaceOrderRequest{
		OrderType: models.OrderTypeDineIn,
		Total:     2.0,
	})
	assert.NoError(t, err)

	// Even a foreign user_id filter only ever returns the caller's orders.
	views, err := env.orders.GetOrdersWithFilters(env.customer.ID, models.RoleCustomer, controllers.OrderSearchRequest{
		Filters: map[string]interface{}{"user_id": env.courier.ID},
	})
	assert.NoError(t, err)
	assert.Len(t, views, 1)
	assert.Equal(t, mine.ID, views[0].ID)
	assert.Equal(t, env.customer.ID, *views[0].UserID)
}

func TestSearchOrdersFiltersAndDenormalization(t *testing.T) {
	env := setupOrderEnv(t)

	order := placeTestOrder(t, env)
	_, err := env.orders.UpdateOrderStatus(order.ID, models.StatusInDelivery, env.courier.ID)
	assert.NoError(t, err)

	views, err := env.orders.GetOrdersWithFilters(env.staff.ID, models.RoleStaff, controllers.OrderSearchRequest{
		OrFilters:    map[string][]interface{}{"status": {"inDelivery", "placed"}},
		TodayRecords: true,
		OrderBy:      &controllers.OrderBy{Key: "order_no", Sorting: "asc"},
	})
	assert.NoError(t, err)
	assert.Len(t, views, 1)
	assert.Equal(t, "Masala Chai", views[0].Items[0].ItemName)
	assert.NotNil(t, views[0].DeliveryMan)
	assert.Equal(t, "Cody Tran", views[0].DeliveryMan.Name)
	assert.Equal(t, env.courier.Phone, views[0].DeliveryMan.Phone)

	// Delivery men asking for inDelivery only see their assignments.
	views, err = env.orders.GetOrdersWithFilters(env.courier.ID, models.RoleDeliveryMan, controllers.OrderSearchRequest{
		Filters: map[string]interface{}{"status": "inDelivery"},
	})
	assert.NoError(t, err)
	assert.Len(t, views, 1)

	// An unknown filter key is a validation error.
	_, err = env.orders.GetOrdersWithFilters(env.staff.ID, models.RoleStaff, controllers.OrderSearchRequest{
		Filters: map[string]interface{}{"password": "x"},
	})
	appErr, ok := utils.AsAppError(err)
	assert.True(t, ok)
	assert.Equal(t, 400, appErr.Code)
}
