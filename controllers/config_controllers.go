package controllers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/wowcafe/cafe-app/models"
	"github.com/wowcafe/cafe-app/utils"
)

type ConfigController struct {
	DB *gorm.DB
}

func NewConfigController(db *gorm.DB) *ConfigController {
	return &ConfigController{DB: db}
}

type cafeConfigRequest struct {
	Restaurant string   `json:"restaurant" binding:"required"`
	Roles      []string `json:"roles" binding:"required"`
}

// POST and PUT carry the restaurant in the body and reject a path segment;
// GET and DELETE require the path segment. A mismatched shape is a 404, the
// same contract the resource has always had.
func rejectRestaurantSegment(c *gin.Context) bool {
	if c.Param("restaurant") != "" {
		utils.RespondAppError(c, utils.NewNotFoundError(
			fmt.Sprintf("the requested URL with method type '%s' was not found on the server", c.Request.Method)))
		return true
	}
	return false
}

func requireRestaurantSegment(c *gin.Context) (string, bool) {
	restaurant := c.Param("restaurant")
	if restaurant == "" {
		utils.RespondAppError(c, utils.NewNotFoundError(
			fmt.Sprintf("the requested URL with method type '%s' was not found on the server", c.Request.Method)))
		return "", false
	}
	return restaurant, true
}

// AddConfig handles POST /config
func (cf *ConfigController) AddConfig(c *gin.Context) {
	if rejectRestaurantSegment(c) {
		return
	}

	var req cafeConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondAppError(c, utils.NewValidationError(err.Error()))
		return
	}

	var count int64
	cf.DB.Model(&models.CafeConfig{}).Where("restaurant = ?", req.Restaurant).Count(&count)
	if count > 0 {
		utils.RespondAppError(c, utils.NewDuplicateEntryError(
			fmt.Sprintf("config for restaurant %q already exists", req.Restaurant)))
		return
	}

	cfg := models.CafeConfig{Restaurant: req.Restaurant, Roles: req.Roles}
	if err := cf.DB.Create(&cfg).Error; err != nil {
		utils.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// GetConfig handles GET /config/:restaurant
func (cf *ConfigController) GetConfig(c *gin.Context) {
	restaurant, ok := requireRestaurantSegment(c)
	if !ok {
		return
	}

	var cfg models.CafeConfig
	err := cf.DB.Where("restaurant = ?", restaurant).First(&cfg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		utils.RespondAppError(c, utils.NewNotFoundError(
			fmt.Sprintf("config for restaurant %q not found", restaurant)))
		return
	}
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Restaurant config", cfg)
}

// UpdateConfig handles PUT /config
func (cf *ConfigController) UpdateConfig(c *gin.Context) {
	if rejectRestaurantSegment(c) {
		return
	}

	var req cafeConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondAppError(c, utils.NewValidationError(err.Error()))
		return
	}

	var cfg models.CafeConfig
	err := cf.DB.Where("restaurant = ?", req.Restaurant).First(&cfg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		utils.RespondAppError(c, utils.NewNotFoundError(
			fmt.Sprintf("config for restaurant %q not found", req.Restaurant)))
		return
	}
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}

	cfg.Roles = req.Roles
	if err := cf.DB.Save(&cfg).Error; err != nil {
		utils.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// DeleteConfig handles DELETE /config/:restaurant
func (cf *ConfigController) DeleteConfig(c *gin.Context) {
	restaurant, ok := requireRestaurantSegment(c)
	if !ok {
		return
	}

	if err := cf.DB.Where("restaurant = ?", restaurant).Delete(&models.CafeConfig{}).Error; err != nil {
		utils.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
