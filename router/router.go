package router

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/wowcafe/cafe-app/controllers"
	"github.com/wowcafe/cafe-app/middlewares"
	"github.com/wowcafe/cafe-app/services"
)

func SetupRouter(db *gorm.DB, notifier *services.Notifier, sms *services.SMSSender) *gin.Engine {
	r := gin.Default()

	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddlewares())
	r.Use(middlewares.LoggerMiddleware())

	userCtrl := controllers.NewUserController(db, sms)
	itemCtrl := controllers.NewItemController(db)
	cartCtrl := controllers.NewCartController(db)
	orderCtrl := controllers.NewOrderController(db, cartCtrl, notifier)
	configCtrl := controllers.NewConfigController(db)
	notifCtrl := controllers.NewNotificationController(db)
	attrCtrl := controllers.NewAttributeConfigController(db)
	productCtrl := controllers.NewProductController(db, attrCtrl)

	// Public auth endpoints with the strict limiter.
	public := r.Group("/")
	public.Use(middlewares.NewStrictRateLimiter())
	{
		public.POST("/signup", userCtrl.Signup)
		public.POST("/login", userCtrl.Login)
		public.POST("/otp", userCtrl.SendOTP)
		public.POST("/refresh", userCtrl.RefreshToken)
	}

	auth := r.Group("/")
	auth.Use(middlewares.AuthMiddleware())
	{
		auth.GET("/profile", userCtrl.GetProfile)
		auth.PUT("/change-password", userCtrl.ChangePassword)
		auth.POST("/logout", userCtrl.Logout)
		auth.PUT("/device-token", userCtrl.RegisterDeviceToken)

		auth.POST("/items", itemCtrl.AddItems)
		auth.GET("/items", itemCtrl.GetAllItems)
		auth.PUT("/items/:item_id", itemCtrl.UpdateItem)
		auth.DELETE("/items", itemCtrl.DeleteItems)

		auth.POST("/add-to-cart/:item_id/:count/:size", cartCtrl.AddToCart)
		auth.GET("/cart-data", cartCtrl.GetCart)
		auth.DELETE("/cart-data", cartCtrl.ClearCart)

		auth.POST("/order", orderCtrl.CreateOrder)
		auth.GET("/order", orderCtrl.GetMyOrders)
		auth.POST("/orders", orderCtrl.SearchOrders)
		auth.PUT("/order-status/:order_id/:status", orderCtrl.SetOrderStatus)

		auth.POST("/attribute-configs", attrCtrl.AddAttributeConfigs)
		auth.GET("/attribute-configs", attrCtrl.GetAttributeConfigs)
		auth.PUT("/attribute-configs/:config_id", attrCtrl.UpdateAttributeConfig)

		auth.POST("/products", productCtrl.AddProducts)
		auth.GET("/products", productCtrl.GetProducts)
		auth.PUT("/products/:product_id", productCtrl.UpdateProduct)
		auth.GET("/products/distinct/:field", productCtrl.GetDistinct)
		auth.GET("/products/family/:family", productCtrl.GetFamilyProducts)
		auth.GET("/products/family/:family/:field", productCtrl.GetFamilyDistinct)
		auth.POST("/upload/:file_type", productCtrl.UploadCatalogFile)

		auth.POST("/config", configCtrl.AddConfig)
		auth.POST("/config/:restaurant", configCtrl.AddConfig)
		auth.PUT("/config", configCtrl.UpdateConfig)
		auth.PUT("/config/:restaurant", configCtrl.UpdateConfig)
		auth.GET("/config", configCtrl.GetConfig)
		auth.GET("/config/:restaurant", configCtrl.GetConfig)
		auth.DELETE("/config", configCtrl.DeleteConfig)
		auth.DELETE("/config/:restaurant", configCtrl.DeleteConfig)

		auth.GET("/notifications", notifCtrl.GetAllNotifications)
		auth.POST("/notifications", notifCtrl.CreateNotification)
		auth.DELETE("/notifications/:notif_id", notifCtrl.DeleteNotification)
	}

	ws := r.Group("/ws")
	ws.Use(middlewares.WebSocketAuthMiddleware())
	{
		ws.GET("/feed", controllers.FeedHandler)
	}

	return r
}
