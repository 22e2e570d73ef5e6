package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/wowcafe/cafe-app/middlewares"
	"github.com/wowcafe/cafe-app/models"
	"github.com/wowcafe/cafe-app/utils"
)

type CartController struct {
	DB *gorm.DB
}

func NewCartController(db *gorm.DB) *CartController {
	return &CartController{DB: db}
}

// CartLineView is a denormalized cart line with the item resolved and the
// effective price computed for the chosen size.
type CartLineView struct {
	ItemID   uint    `json:"item_id"`
	ItemName string  `json:"item_name"`
	Count    int     `json:"count"`
	Size     string  `json:"size"`
	Price    float64 `json:"price"`
	Amount   float64 `json:"amount"`
}

// AddOrUpdateLine merges a line into the user's cart. Lines are matched on
// the (item, size) composite key; a zero count removes the matching line.
// The cart is created on first add.
func (cc *CartController) AddOrUpdateLine(userID, itemID uint, count int, size string) error {
	if size == "" {
		size = "regular"
	}

	if count <= 0 {
		// Removal is idempotent: deleting an absent line is not an error.
		return cc.DB.
			Where("cart_user_id = ? AND item_id = ? AND size = ?", userID, itemID, size).
			Delete(&models.CartItem{}).Error
	}

	cart := models.Cart{UserID: userID}
	if err := cc.DB.FirstOrCreate(&cart, models.Cart{UserID: userID}).Error; err != nil {
		return err
	}

	var line models.CartItem
	err := cc.DB.
		Where("cart_user_id = ? AND item_id = ? AND size = ?", userID, itemID, size).
		First(&line).Error
	switch {
	case err == nil:
		line.Count = count
		return cc.DB.Save(&line).Error
	case errors.Is(err, gorm.ErrRecordNotFound):
		line = models.CartItem{
			CartUserID: userID,
			ItemID:     itemID,
			Count:      count,
			Size:       size,
		}
		return cc.DB.Create(&line).Error
	default:
		return err
	}
}

// GetCartData resolves each line's item and effective price. A line whose
// item has been deleted from the catalog is an explicit stale-line error,
// never silently dropped. An absent cart reads as an empty one.
func (cc *CartController) GetCartData(userID uint) ([]CartLineView, error) {
	var lines []models.CartItem
	if err := cc.DB.Where("cart_user_id = ?", userID).Find(&lines).Error; err != nil {
		return nil, err
	}

	views := make([]CartLineView, 0, len(lines))
	items := make(map[uint]*models.Item)
	for _, line := range lines {
		item, ok := items[line.ItemID]
		if !ok {
			var resolved models.Item
			err := cc.DB.Preload("Sizes").First(&resolved, line.ItemID).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, utils.NewNotFoundError(
					fmt.Sprintf("stale cart line: item %d no longer exists", line.ItemID))
			}
			if err != nil {
				return nil, err
			}
			item = &resolved
			items[line.ItemID] = item
		}

		price := item.PriceForSize(line.Size)
		views = append(views, CartLineView{
			ItemID:   item.ID,
			ItemName: item.ItemName,
			Count:    line.Count,
			Size:     line.Size,
			Price:    price,
			Amount:   price * float64(line.Count),
		})
	}
	return views, nil
}

// DiscardCart deletes the cart wholesale. Calling it twice, or for a user
// with no cart, is a no-op.
func (cc *CartController) DiscardCart(userID uint) error {
	if err := cc.DB.Where("cart_user_id = ?", userID).Delete(&models.CartItem{}).Error; err != nil {
		return err
	}
	return cc.DB.Where("user_id = ?", userID).Delete(&models.Cart{}).Error
}

// AddToCart handles POST /add-to-cart/:item_id/:count/:size
func (cc *CartController) AddToCart(c *gin.Context) {
	userID, ok := middlewares.CurrentUserID(c)
	if !ok {
		utils.RespondAppError(c, utils.NewUnauthorizedError(""))
		return
	}

	itemID, err := strconv.ParseUint(c.Param("item_id"), 10, 32)
	if err != nil {
		utils.RespondAppError(c, utils.NewValidationError("invalid item_id"))
		return
	}
	count, err := strconv.Atoi(c.Param("count"))
	if err != nil || count < 0 {
		utils.RespondAppError(c, utils.NewValidationError("invalid count"))
		return
	}

	if err := cc.AddOrUpdateLine(userID, uint(itemID), count, c.Param("size")); err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Cart updated", gin.H{"status": "ok"})
}

// GetCart handles GET /cart-data
func (cc *CartController) GetCart(c *gin.Context) {
	userID, ok := middlewares.CurrentUserID(c)
	if !ok {
		utils.RespondAppError(c, utils.NewUnauthorizedError(""))
		return
	}

	views, err := cc.GetCartData(userID)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Cart data", views)
}

// ClearCart handles DELETE /cart-data
func (cc *CartController) ClearCart(c *gin.Context) {
	userID, ok := middlewares.CurrentUserID(c)
	if !ok {
		utils.RespondAppError(c, utils.NewUnauthorizedError(""))
		return
	}

	if err := cc.DiscardCart(userID); err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Cart discarded", gin.H{"status": "ok"})
}
