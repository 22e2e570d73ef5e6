package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/wowcafe/cafe-app/models"
	"github.com/wowcafe/cafe-app/utils"
)

type ItemController struct {
	DB *gorm.DB
}

func NewItemController(db *gorm.DB) *ItemController {
	return &ItemController{DB: db}
}

type itemSizeRequest struct {
	Size  string  `json:"size" binding:"required"`
	Price float64 `json:"price" binding:"required"`
}

type itemRequest struct {
	ItemName  string            `json:"item_name" binding:"required"`
	Price     float64           `json:"price" binding:"required"`
	ImgURL    string            `json:"img_url" binding:"required"`
	ItemGroup string            `json:"item_group" binding:"required"`
	Sizes     []itemSizeRequest `json:"available_sizes"`
}

// AddItems handles POST /items — bulk add. A duplicate item name or image
// URL anywhere in the batch conflicts with a 409.
func (ic *ItemController) AddItems(c *gin.Context) {
	var reqs []itemRequest
	if err := c.ShouldBindJSON(&reqs); err != nil {
		utils.RespondAppError(c, utils.NewValidationError(err.Error()))
		return
	}
	if len(reqs) == 0 {
		utils.RespondAppError(c, utils.NewValidationError("no items supplied"))
		return
	}

	// The pre-check covers duplicates inside the batch too, so a doubled
	// entry conflicts instead of tripping the unique constraint mid-insert.
	seenNames := make(map[string]bool)
	seenURLs := make(map[string]bool)
	for _, req := range reqs {
		var count int64
		ic.DB.Model(&models.Item{}).
			Where("item_name = ? OR img_url = ?", req.ItemName, req.ImgURL).
			Count(&count)
		if count > 0 || seenNames[req.ItemName] || seenURLs[req.ImgURL] {
			utils.RespondAppError(c, utils.NewDuplicateEntryError(
				fmt.Sprintf("item with name %q or image URL already exists", req.ItemName)))
			return
		}
		seenNames[req.ItemName] = true
		seenURLs[req.ImgURL] = true
	}

	err := ic.DB.Transaction(func(tx *gorm.DB) error {
		for _, req := range reqs {
			item := models.Item{
				ItemName:  req.ItemName,
				Price:     req.Price,
				ImgURL:    req.ImgURL,
				ItemGroup: req.ItemGroup,
			}
			for _, s := range req.Sizes {
				item.Sizes = append(item.Sizes, models.ItemSize{Size: s.Size, Price: s.Price})
			}
			if err := tx.Create(&item).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"status": "ok"})
}

// GetAllItems handles GET /items
func (ic *ItemController) GetAllItems(c *gin.Context) {
	var items []models.Item
	if err := ic.DB.Preload("Sizes").Find(&items).Error; err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of items", items)
}

// UpdateItem handles PUT /items/:item_id — explicit admin edit; orders keep
// their placement-time snapshot regardless.
func (ic *ItemController) UpdateItem(c *gin.Context) {
	itemID, err := strconv.ParseUint(c.Param("item_id"), 10, 32)
	if err != nil {
		utils.RespondAppError(c, utils.NewValidationError("invalid item_id"))
		return
	}

	var item models.Item
	if err := ic.DB.Preload("Sizes").First(&item, uint(itemID)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondAppError(c, utils.NewNotFoundError(fmt.Sprintf("item %d not found", itemID)))
			return
		}
		utils.RespondAppError(c, err)
		return
	}

	var req itemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondAppError(c, utils.NewValidationError(err.Error()))
		return
	}

	var conflicts int64
	ic.DB.Model(&models.Item{}).
		Where("(item_name = ? OR img_url = ?) AND id != ?", req.ItemName, req.ImgURL, item.ID).
		Count(&conflicts)
	if conflicts > 0 {
		utils.RespondAppError(c, utils.NewDuplicateEntryError(
			fmt.Sprintf("item with name %q or image URL already exists", req.ItemName)))
		return
	}

	err = ic.DB.Transaction(func(tx *gorm.DB) error {
		item.ItemName = req.ItemName
		item.Price = req.Price
		item.ImgURL = req.ImgURL
		item.ItemGroup = req.ItemGroup
		if err := tx.Where("item_id = ?", item.ID).Delete(&models.ItemSize{}).Error; err != nil {
			return err
		}
		item.Sizes = nil
		for _, s := range req.Sizes {
			item.Sizes = append(item.Sizes, models.ItemSize{ItemID: item.ID, Size: s.Size, Price: s.Price})
		}
		return tx.Save(&item).Error
	})
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Item updated", item)
}

// DeleteItems handles DELETE /items — generic filter-delete by query params
// (item_name, item_group or id).
func (ic *ItemController) DeleteItems(c *gin.Context) {
	q := ic.DB.Model(&models.Item{})
	applied := false

	if name := c.Query("item_name"); name != "" {
		q = q.Where("item_name = ?", name)
		applied = true
	}
	if group := c.Query("item_group"); group != "" {
		q = q.Where("item_group = ?", group)
		applied = true
	}
	if idStr := c.Query("id"); idStr != "" {
		id, err := strconv.ParseUint(idStr, 10, 32)
		if err != nil {
			utils.RespondAppError(c, utils.NewValidationError("invalid id"))
			return
		}
		q = q.Where("id = ?", uint(id))
		applied = true
	}
	if !applied {
		utils.RespondAppError(c, utils.NewValidationError("at least one filter is required"))
		return
	}

	if err := q.Delete(&models.Item{}).Error; err != nil {
		utils.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
