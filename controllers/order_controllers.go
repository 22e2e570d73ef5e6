package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/wowcafe/cafe-app/feed"
	"github.com/wowcafe/cafe-app/middlewares"
	"github.com/wowcafe/cafe-app/models"
	"github.com/wowcafe/cafe-app/services"
	"github.com/wowcafe/cafe-app/utils"
)

type OrderController struct {
	DB       *gorm.DB
	Cart     *CartController
	Notifier *services.Notifier
}

func NewOrderController(db *gorm.DB, cart *CartController, notifier *services.Notifier) *OrderController {
	return &OrderController{DB: db, Cart: cart, Notifier: notifier}
}

type PlaceOrderRequest struct {
	OrderNote       string  `json:"order_note"`
	OrderType       string  `json:"order_type" binding:"required"`
	DeliveryAddress string  `json:"delivery_address"`
	MobileNumber    string  `json:"mobile_number"`
	Total           float64 `json:"total"`
}

type OrderBy struct {
	Key     string `json:"key"`
	Sorting string `json:"sorting"`
}

type OrderSearchRequest struct {
	Filters      map[string]interface{}   `json:"filters"`
	OrFilters    map[string][]interface{} `json:"or_filters"`
	OrderBy      *OrderBy                 `json:"order_by"`
	TodayRecords bool                     `json:"today_records"`
}

type OrderLineView struct {
	ItemID   uint    `json:"item_id"`
	ItemName string  `json:"item_name"`
	Count    int     `json:"count"`
	Size     string  `json:"size"`
	Price    float64 `json:"price"`
}

type DeliveryManView struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

type OrderView struct {
	ID              uint                      `json:"id"`
	OrderNo         uint                      `json:"order_no"`
	UserID          *uint                     `json:"user_id,omitempty"`
	MobileAccountID *uint                     `json:"mobile_account_id,omitempty"`
	Status          models.OrderStatus        `json:"status"`
	StatusHistory   []models.OrderStatusEvent `json:"status_history"`
	Items           []OrderLineView           `json:"items"`
	OrderNote       string                    `json:"order_note"`
	OrderType       string                    `json:"order_type"`
	DeliveryAddress string                    `json:"delivery_address,omitempty"`
	MobileNumber    string                    `json:"mobile_number"`
	Total           float64                   `json:"total"`
	CreatedAt       time.Time                 `json:"created_at"`
	DeliveryMan     *DeliveryManView          `json:"delivery_man,omitempty"`
}

// Whitelisted filter keys -> order columns. Anything else in a filter set is
// rejected as a validation error.
var orderFilterColumns = map[string]string{
	"user_id":         "user_id",
	"status":          "status",
	"order_type":      "order_type",
	"order_no":        "order_no",
	"delivery_man_id": "delivery_man_id",
	"mobile_number":   "mobile_number",
}

var orderSortColumns = map[string]string{
	"created_at": "created_at",
	"order_no":   "order_no",
	"total":      "total",
	"status":     "status",
}

// PlaceOrder converts the caller's cart into an order. The cart snapshot is
// frozen into order lines, the day-scoped number is taken from the atomic
// counter inside the same transaction, and the cart is discarded afterwards.
// Notification dispatch is best-effort and can never fail the placement.
func (oc *OrderController) PlaceOrder(userID uint, role models.Role, req PlaceOrderRequest) (*models.Order, error) {
	if req.OrderType != models.OrderTypeDineIn && req.OrderType != models.OrderTypeDelivery {
		return nil, utils.NewValidationError("order_type must be 'Dine-in' or 'Delivery'")
	}

	cartLines, err := oc.Cart.GetCartData(userID)
	if err != nil {
		return nil, err
	}
	if len(cartLines) == 0 {
		return nil, utils.NewValidationError("cart is empty")
	}

	ownerUserID, mobileAccountID, mobileNumber, err := oc.resolveOwner(userID, role, req.MobileNumber)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	order := models.Order{
		UserID:          ownerUserID,
		MobileAccountID: mobileAccountID,
		Status:          models.StatusPlaced,
		OrderNote:       req.OrderNote,
		OrderType:       req.OrderType,
		DeliveryAddress: req.DeliveryAddress,
		MobileNumber:    mobileNumber,
		Total:           req.Total,
		CreatedAt:       now,
	}
	for _, line := range cartLines {
		order.Lines = append(order.Lines, models.OrderLine{
			ItemID: line.ItemID,
			Count:  line.Count,
			Size:   line.Size,
			Price:  line.Price,
		})
	}
	order.StatusHistory = []models.OrderStatusEvent{
		{Status: models.StatusPlaced, UpdateTime: now},
	}

	err = oc.DB.Transaction(func(tx *gorm.DB) error {
		orderNo, err := models.NextOrderNo(tx, models.DayKey(now))
		if err != nil {
			return err
		}
		order.OrderNo = orderNo
		return tx.Create(&order).Error
	})
	if err != nil {
		return nil, err
	}

	oc.notifyOrderPlaced(&order, cartLines)

	if err := oc.Cart.DiscardCart(userID); err != nil {
		utils.ErrorLogger.Printf("discard cart after order %d: %v", order.ID, err)
	}
	return &order, nil
}

// resolveOwner determines who the order belongs to. Customers own their own
// orders; staff placing on behalf of a phone number resolve a registered
// user first, then an existing mobile account, then create one (idempotent).
func (oc *OrderController) resolveOwner(userID uint, role models.Role, mobileNumber string) (*uint, *uint, string, error) {
	switch role {
	case models.RoleCustomer:
		if mobileNumber == "" {
			var user models.AuthUser
			if err := oc.DB.First(&user, userID).Error; err == nil {
				mobileNumber = user.Phone
			}
		}
		return &userID, nil, mobileNumber, nil

	case models.RoleAdmin, models.RoleStaff, models.RoleDeliveryMan:
		if mobileNumber == "" {
			return nil, nil, "", utils.NewValidationError("mobile_number is required when placing an order on behalf of a customer")
		}

		var user models.AuthUser
		err := oc.DB.Where("phone = ?", mobileNumber).First(&user).Error
		if err == nil {
			return &user.ID, nil, mobileNumber, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, "", err
		}

		account := models.MobileAccount{Phone: mobileNumber, Role: models.RoleCustomer}
		if err := oc.DB.
			Where(models.MobileAccount{Phone: mobileNumber}).
			FirstOrCreate(&account).Error; err != nil {
			return nil, nil, "", err
		}
		return nil, &account.ID, mobileNumber, nil
	}
	return nil, nil, "", utils.NewUnauthorizedError(fmt.Sprintf("unknown role %q", role))
}

func (oc *OrderController) notifyOrderPlaced(order *models.Order, lines []CartLineView) {
	summary := fmt.Sprintf("Order #%d (%s): ", order.OrderNo, order.OrderType)
	for i, line := range lines {
		if i > 0 {
			summary += ", "
		}
		summary += fmt.Sprintf("%dx %s (%s)", line.Count, line.ItemName, line.Size)
	}

	feed.Publish(feed.EventOrderPlaced, "orders", gin.H{
		"order_id": order.ID,
		"order_no": order.OrderNo,
		"message":  summary,
	})

	title := "New order placed"
	notif := models.Notification{
		UserID:    order.UserID,
		Title:     &title,
		Message:   summary,
		CreatedAt: time.Now(),
	}
	if err := oc.DB.Create(&notif).Error; err != nil {
		utils.ErrorLogger.Printf("persist feed notification: %v", err)
	}

	oc.pushToOwner(order)
}

// pushToOwner sends the status-specific push to the owner's registered
// device tokens, if any. Mobile-account owners have no tokens.
func (oc *OrderController) pushToOwner(order *models.Order) {
	if order.UserID == nil {
		return
	}
	var owner models.AuthUser
	if err := oc.DB.First(&owner, *order.UserID).Error; err != nil {
		return
	}
	title, body := services.OrderStatusMessage(order.Status, order.OrderNo)
	oc.Notifier.Push(owner.DeviceTokens, title, body, map[string]string{
		"order_id": strconv.FormatUint(uint64(order.ID), 10),
		"status":   string(order.Status),
	})
}

// UpdateOrderStatus sets a new status, appends exactly one history event and
// notifies the owner. Any status in the set may be applied from any current
// state. Transitioning into inDelivery stamps the acting user as the
// delivery man; other statuses leave the assignment untouched.
func (oc *OrderController) UpdateOrderStatus(orderID uint, status models.OrderStatus, actorID uint) (*models.Order, error) {
	if !status.Valid() {
		return nil, utils.NewValidationError(fmt.Sprintf("invalid order status %q", status))
	}

	var order models.Order
	err := oc.DB.Preload("Lines").Preload("StatusHistory").First(&order, orderID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.NewNotFoundError(fmt.Sprintf("order %d not found", orderID))
	}
	if err != nil {
		return nil, err
	}

	now := time.Now()
	event := models.OrderStatusEvent{OrderID: order.ID, Status: status, UpdateTime: now}

	err = oc.DB.Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{"status": status}
		if status == models.StatusInDelivery {
			updates["delivery_man_id"] = actorID
		}
		if err := tx.Model(&order).Updates(updates).Error; err != nil {
			return err
		}
		return tx.Create(&event).Error
	})
	if err != nil {
		return nil, err
	}

	order.Status = status
	if status == models.StatusInDelivery {
		order.DeliveryManID = &actorID
	}
	order.StatusHistory = append(order.StatusHistory, event)

	feed.Publish(feed.EventStatusUpdate, "orders", gin.H{
		"order_id": order.ID,
		"order_no": order.OrderNo,
		"status":   status,
	})
	oc.pushToOwner(&order)

	return &order, nil
}

// GetOrdersWithFilters runs the filtered order search with role scoping and
// denormalizes item names and the assigned delivery man per order.
func (oc *OrderController) GetOrdersWithFilters(userID uint, role models.Role, req OrderSearchRequest) ([]OrderView, error) {
	q := oc.DB.Model(&models.Order{}).Preload("Lines").Preload("StatusHistory")

	// Role scoping comes first so caller-supplied filters cannot widen it.
	switch role {
	case models.RoleCustomer:
		// Customers only ever see their own orders, whatever they ask for.
		delete(req.Filters, "user_id")
		delete(req.OrFilters, "user_id")
		q = q.Where("user_id = ?", userID)
	case models.RoleDeliveryMan:
		if searchWantsStatus(req, models.StatusInDelivery) {
			q = q.Where("delivery_man_id = ?", userID)
		}
	case models.RoleAdmin, models.RoleStaff:
		// Unrestricted.
	default:
		return nil, utils.NewUnauthorizedError(fmt.Sprintf("unknown role %q", role))
	}

	for key, value := range req.Filters {
		column, ok := orderFilterColumns[key]
		if !ok {
			return nil, utils.NewValidationError(fmt.Sprintf("unsupported filter key %q", key))
		}
		q = q.Where(fmt.Sprintf("%s = ?", column), value)
	}

	for key, values := range req.OrFilters {
		column, ok := orderFilterColumns[key]
		if !ok {
			return nil, utils.NewValidationError(fmt.Sprintf("unsupported filter key %q", key))
		}
		if len(values) > 0 {
			q = q.Where(fmt.Sprintf("%s IN ?", column), values)
		}
	}

	if req.TodayRecords {
		now := time.Now()
		startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		q = q.Where("created_at >= ?", startOfDay)
	}

	sortClause := "created_at desc"
	if req.OrderBy != nil && req.OrderBy.Key != "" {
		column, ok := orderSortColumns[req.OrderBy.Key]
		if !ok {
			return nil, utils.NewValidationError(fmt.Sprintf("unsupported sort key %q", req.OrderBy.Key))
		}
		direction := "asc"
		if req.OrderBy.Sorting == "desc" {
			direction = "desc"
		}
		sortClause = column + " " + direction
	}

	var orders []models.Order
	if err := q.Order(sortClause).Find(&orders).Error; err != nil {
		return nil, err
	}
	return oc.denormalizeOrders(orders)
}

func searchWantsStatus(req OrderSearchRequest, status models.OrderStatus) bool {
	if v, ok := req.Filters["status"]; ok {
		if s, ok := v.(string); ok && models.OrderStatus(s) == status {
			return true
		}
	}
	for _, v := range req.OrFilters["status"] {
		if s, ok := v.(string); ok && models.OrderStatus(s) == status {
			return true
		}
	}
	return false
}

// denormalizeOrders resolves item names per line and the delivery man's
// name/phone, each fetched once per distinct id within the call.
func (oc *OrderController) denormalizeOrders(orders []models.Order) ([]OrderView, error) {
	itemNames := make(map[uint]string)
	deliveryMen := make(map[uint]*DeliveryManView)

	views := make([]OrderView, 0, len(orders))
	for _, order := range orders {
		view := OrderView{
			ID:              order.ID,
			OrderNo:         order.OrderNo,
			UserID:          order.UserID,
			MobileAccountID: order.MobileAccountID,
			Status:          order.Status,
			StatusHistory:   order.StatusHistory,
			OrderNote:       order.OrderNote,
			OrderType:       order.OrderType,
			DeliveryAddress: order.DeliveryAddress,
			MobileNumber:    order.MobileNumber,
			Total:           order.Total,
			CreatedAt:       order.CreatedAt,
		}

		for _, line := range order.Lines {
			name, ok := itemNames[line.ItemID]
			if !ok {
				var item models.Item
				if err := oc.DB.First(&item, line.ItemID).Error; err == nil {
					name = item.ItemName
				}
				itemNames[line.ItemID] = name
			}
			view.Items = append(view.Items, OrderLineView{
				ItemID:   line.ItemID,
				ItemName: name,
				Count:    line.Count,
				Size:     line.Size,
				Price:    line.Price,
			})
		}

		if order.DeliveryManID != nil {
			dm, ok := deliveryMen[*order.DeliveryManID]
			if !ok {
				var user models.AuthUser
				if err := oc.DB.First(&user, *order.DeliveryManID).Error; err == nil {
					dm = &DeliveryManView{
						ID:    user.ID,
						Name:  user.FirstName + " " + user.LastName,
						Phone: user.Phone,
					}
				}
				deliveryMen[*order.DeliveryManID] = dm
			}
			view.DeliveryMan = dm
		}

		views = append(views, view)
	}
	return views, nil
}

// CreateOrder handles POST /order
func (oc *OrderController) CreateOrder(c *gin.Context) {
	userID, ok := middlewares.CurrentUserID(c)
	role, okRole := middlewares.CurrentRole(c)
	if !ok || !okRole {
		utils.RespondAppError(c, utils.NewUnauthorizedError(""))
		return
	}

	var req PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondAppError(c, utils.NewValidationError(err.Error()))
		return
	}

	order, err := oc.PlaceOrder(userID, role, req)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"status":   "ok",
		"order_no": order.OrderNo,
		"order_id": order.ID,
	})
}

// SetOrderStatus handles PUT /order-status/:order_id/:status
func (oc *OrderController) SetOrderStatus(c *gin.Context) {
	actorID, ok := middlewares.CurrentUserID(c)
	if !ok {
		utils.RespondAppError(c, utils.NewUnauthorizedError(""))
		return
	}

	orderID, err := strconv.ParseUint(c.Param("order_id"), 10, 32)
	if err != nil {
		utils.RespondAppError(c, utils.NewValidationError("invalid order_id"))
		return
	}

	order, err := oc.UpdateOrderStatus(uint(orderID), models.OrderStatus(c.Param("status")), actorID)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order status updated", gin.H{
		"status":   "ok",
		"order_id": order.ID,
	})
}

// SearchOrders handles POST /orders
func (oc *OrderController) SearchOrders(c *gin.Context) {
	userID, ok := middlewares.CurrentUserID(c)
	role, okRole := middlewares.CurrentRole(c)
	if !ok || !okRole {
		utils.RespondAppError(c, utils.NewUnauthorizedError(""))
		return
	}

	var req OrderSearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondAppError(c, utils.NewValidationError(err.Error()))
		return
	}

	views, err := oc.GetOrdersWithFilters(userID, role, req)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Orders", views)
}

// GetMyOrders handles GET /order — the caller's orders, most recent first.
func (oc *OrderController) GetMyOrders(c *gin.Context) {
	userID, ok := middlewares.CurrentUserID(c)
	role, okRole := middlewares.CurrentRole(c)
	if !ok || !okRole {
		utils.RespondAppError(c, utils.NewUnauthorizedError(""))
		return
	}

	views, err := oc.GetOrdersWithFilters(userID, role, OrderSearchRequest{})
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Orders", views)
}
