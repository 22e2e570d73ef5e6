package controllers

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/wowcafe/cafe-app/middlewares"
	"github.com/wowcafe/cafe-app/models"
	"github.com/wowcafe/cafe-app/services"
	"github.com/wowcafe/cafe-app/utils"
)

type UserController struct {
	DB  *gorm.DB
	SMS *services.SMSSender
}

func NewUserController(db *gorm.DB, sms *services.SMSSender) *UserController {
	return &UserController{DB: db, SMS: sms}
}

func generateOTP() string {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "111000"
	}
	return fmt.Sprintf("%06d", n.Int64())
}

// Signup handles POST /signup
func (uc *UserController) Signup(c *gin.Context) {
	type request struct {
		FirstName string `json:"first_name" binding:"required"`
		LastName  string `json:"last_name" binding:"required"`
		Phone     string `json:"phone" binding:"required"`
		Email     string `json:"email" binding:"required,email"`
		Password  string `json:"password" binding:"required"`
		Role      string `json:"role"`
	}
	var req request
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondAppError(c, utils.NewValidationError(err.Error()))
		return
	}

	role := models.RoleCustomer
	if req.Role != "" {
		role = models.Role(req.Role)
		if !role.Valid() {
			utils.RespondAppError(c, utils.NewValidationError(fmt.Sprintf("invalid role %q", req.Role)))
			return
		}
	}

	var duplicates []string
	var count int64
	uc.DB.Model(&models.AuthUser{}).Where("email = ?", req.Email).Count(&count)
	if count > 0 {
		duplicates = append(duplicates, "email")
	}
	uc.DB.Model(&models.AuthUser{}).Where("phone = ?", req.Phone).Count(&count)
	if count > 0 {
		duplicates = append(duplicates, "phone")
	}
	if len(duplicates) > 0 {
		utils.RespondAppError(c, utils.NewDuplicateEntryError(
			fmt.Sprintf("duplicate entry: %v", duplicates)))
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}

	user := models.AuthUser{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
		Email:     req.Email,
		Password:  string(hashed),
		Role:      role,
		OTP:       generateOTP(),
	}
	if err := uc.DB.Create(&user).Error; err != nil {
		utils.RespondAppError(c, err)
		return
	}

	// Verification OTP is best-effort; signup succeeds regardless.
	if uc.SMS != nil {
		if err := uc.SMS.SendOTP(user.OTP, user.Phone); err != nil {
			utils.ErrorLogger.Printf("signup OTP to %s failed: %v", user.Phone, err)
		}
	}

	utils.InfoLogger.Printf("New user registered: %s (role=%s)", user.Email, user.Role)
	utils.RespondJSON(c, http.StatusCreated, "User registered", gin.H{"user_id": user.ID})
}

// Login handles POST /login — either email+password or phone+OTP.
func (uc *UserController) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Phone    string `json:"phone"`
		OTP      string `json:"otp"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondAppError(c, utils.NewValidationError(err.Error()))
		return
	}

	var user models.AuthUser
	switch {
	case req.Email != "":
		err := uc.DB.Where("email = ?", req.Email).First(&user).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondAppError(c, utils.NewNotFoundError(
				fmt.Sprintf("user not found with email: %q", req.Email)))
			return
		}
		if err != nil {
			utils.RespondAppError(c, err)
			return
		}
		if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)) != nil {
			utils.RespondAppError(c, utils.NewUnauthorizedError("invalid credentials"))
			return
		}

	case req.Phone != "":
		err := uc.DB.Where("phone = ?", req.Phone).First(&user).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondAppError(c, utils.NewNotFoundError(
				fmt.Sprintf("user not found with phone: %q", req.Phone)))
			return
		}
		if err != nil {
			utils.RespondAppError(c, err)
			return
		}
		if user.OTP == "" {
			utils.RespondAppError(c, utils.NewValidationError("OTP expired, please resend OTP"))
			return
		}
		if user.OTP != req.OTP {
			utils.RespondAppError(c, utils.NewValidationError("invalid OTP"))
			return
		}

	default:
		utils.RespondAppError(c, utils.NewValidationError("either email or phone is required"))
		return
	}

	accessToken, err := utils.GenerateToken(user.ID, string(user.Role))
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	refreshToken, err := utils.GenerateRefreshToken(user.ID, string(user.Role))
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}

	now := time.Now()
	uc.DB.Model(&user).Updates(map[string]interface{}{
		"otp":              "",
		"account_verified": true,
		"last_login":       user.CurrentLogin,
		"current_login":    now,
	})

	utils.RespondJSON(c, http.StatusOK, "Login successful", gin.H{
		"access_token":  accessToken,
		"refresh_token": refreshToken,
		"user_role":     user.Role,
	})
}

// SendOTP handles POST /otp
func (uc *UserController) SendOTP(c *gin.Context) {
	var req struct {
		Phone string `json:"phone" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondAppError(c, utils.NewValidationError(err.Error()))
		return
	}

	var user models.AuthUser
	err := uc.DB.Where("phone = ?", req.Phone).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		utils.RespondAppError(c, utils.NewNotFoundError("phone number not found"))
		return
	}
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}

	otp := generateOTP()
	if err := uc.DB.Model(&user).Update("otp", otp).Error; err != nil {
		utils.RespondAppError(c, err)
		return
	}

	if uc.SMS != nil {
		if err := uc.SMS.SendOTP(otp, user.Phone); err != nil {
			utils.RespondAppError(c, err)
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// ChangePassword handles PUT /change-password
func (uc *UserController) ChangePassword(c *gin.Context) {
	userID, ok := middlewares.CurrentUserID(c)
	if !ok {
		utils.RespondAppError(c, utils.NewUnauthorizedError(""))
		return
	}

	var req struct {
		OldPassword string `json:"old_password" binding:"required"`
		NewPassword string `json:"new_password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondAppError(c, utils.NewValidationError(err.Error()))
		return
	}

	var user models.AuthUser
	if err := uc.DB.First(&user, userID).Error; err != nil {
		utils.RespondAppError(c, utils.NewNotFoundError("user not found"))
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.OldPassword)) != nil {
		utils.RespondAppError(c, utils.NewValidationError("old password is invalid"))
		return
	}
	if req.NewPassword == req.OldPassword {
		utils.RespondAppError(c, utils.NewValidationError("new password can not be the same as the old password"))
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	if err := uc.DB.Model(&user).Update("password", string(hashed)).Error; err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Password updated", gin.H{"status": "success"})
}

// Logout handles POST /logout — revokes the presented token.
func (uc *UserController) Logout(c *gin.Context) {
	token, exists := c.Get("token")
	if !exists {
		utils.RespondAppError(c, utils.NewUnauthorizedError(""))
		return
	}
	utils.BlacklistToken(token.(string))
	utils.RespondJSON(c, http.StatusOK, "Token successfully revoked", nil)
}

// RefreshToken handles POST /refresh — a new access token from a refresh token.
func (uc *UserController) RefreshToken(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondAppError(c, utils.NewValidationError(err.Error()))
		return
	}

	claims, err := utils.ParseToken(req.RefreshToken)
	if err != nil || claims.TokenType != utils.TokenTypeRefresh {
		utils.RespondAppError(c, utils.NewUnauthorizedError("invalid refresh token"))
		return
	}

	accessToken, err := utils.GenerateToken(claims.UserID, claims.Role)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Token refreshed", gin.H{"access_token": accessToken})
}

// RegisterDeviceToken handles PUT /device-token — push target registration.
func (uc *UserController) RegisterDeviceToken(c *gin.Context) {
	userID, ok := middlewares.CurrentUserID(c)
	if !ok {
		utils.RespondAppError(c, utils.NewUnauthorizedError(""))
		return
	}

	var req struct {
		DeviceToken string `json:"device_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondAppError(c, utils.NewValidationError(err.Error()))
		return
	}

	var user models.AuthUser
	if err := uc.DB.First(&user, userID).Error; err != nil {
		utils.RespondAppError(c, utils.NewNotFoundError("user not found"))
		return
	}

	for _, t := range user.DeviceTokens {
		if t == req.DeviceToken {
			utils.RespondJSON(c, http.StatusOK, "Device token already registered", nil)
			return
		}
	}
	user.DeviceTokens = append(user.DeviceTokens, req.DeviceToken)
	if err := uc.DB.Model(&user).Update("device_tokens", user.DeviceTokens).Error; err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Device token registered", nil)
}

// GetProfile handles GET /profile
func (uc *UserController) GetProfile(c *gin.Context) {
	userID, ok := middlewares.CurrentUserID(c)
	if !ok {
		utils.RespondAppError(c, utils.NewUnauthorizedError(""))
		return
	}

	var user models.AuthUser
	if err := uc.DB.First(&user, userID).Error; err != nil {
		utils.RespondAppError(c, utils.NewNotFoundError("user not found"))
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Profile data", user)
}
