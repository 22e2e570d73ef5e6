package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/wowcafe/cafe-app/feed"
	"github.com/wowcafe/cafe-app/models"
	"github.com/wowcafe/cafe-app/utils"
)

type NotificationController struct {
	DB *gorm.DB
}

func NewNotificationController(db *gorm.DB) *NotificationController {
	return &NotificationController{DB: db}
}

// GetAllNotifications lists the operational feed, newest first.
func (nc *NotificationController) GetAllNotifications(c *gin.Context) {
	var notifs []models.Notification
	if err := nc.DB.Order("created_at desc").Find(&notifs).Error; err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "All notifications", notifs)
}

// CreateNotification appends a manual feed entry and broadcasts it.
func (nc *NotificationController) CreateNotification(c *gin.Context) {
	type reqBody struct {
		UserID  *uint  `json:"user_id"`
		Title   string `json:"title"`
		Message string `json:"message" binding:"required"`
	}
	var body reqBody
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondAppError(c, utils.NewValidationError(err.Error()))
		return
	}

	notif := models.Notification{
		UserID:    body.UserID,
		Message:   body.Message,
		CreatedAt: time.Now(),
	}
	if body.Title != "" {
		notif.Title = &body.Title
	}

	if err := nc.DB.Create(&notif).Error; err != nil {
		utils.RespondAppError(c, err)
		return
	}

	feed.Publish(feed.EventStaffNotif, "notifications", notif)
	utils.RespondJSON(c, http.StatusCreated, "Notification created", notif)
}

// DeleteNotification removes a feed entry.
func (nc *NotificationController) DeleteNotification(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("notif_id"))
	if err != nil {
		utils.RespondAppError(c, utils.NewValidationError("invalid notif_id"))
		return
	}

	if err := nc.DB.Delete(&models.Notification{}, id).Error; err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Notification deleted", gin.H{"notif_id": id})
}
