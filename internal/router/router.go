package router

import (
	"github.com/electroegy/electroegy-backend/config"
	"github.com/electroegy/electroegy-backend/internal/app/controller"
	"github.com/electroegy/electroegy-backend/internal/middleware"
	"github.com/gin-gonic/gin"
)

type Router struct {
	authController     *controller.AuthController
	productController  *controller.ProductController
	cartController     *controller.CartController
	orderController    *controller.OrderController
	reviewController   *controller.ReviewController
	wishlistController *controller.WishlistController
	exportController   *controller.ExportController
	authMiddleware     *middleware.AuthMiddleware
	config             *config.Config
}

func NewRouter(
	authController *controller.AuthController,
	productController *controller.ProductController,
	cartController *controller.CartController,
	orderController *controller.OrderController,
	reviewController *controller.ReviewController,
	wishlistController *controller.WishlistController,
	exportController *controller.ExportController,
	authMiddleware *middleware.AuthMiddleware,
	cfg *config.Config,
) *Router {
	return &Router{
		authController:     authController,
		productController:  productController,
		cartController:     cartController,
		orderController:    orderController,
		reviewController:   reviewController,
		wishlistController: wishlistController,
		exportController:   exportController,
		authMiddleware:     authMiddleware,
		config:             cfg,
	}
}

func (r *Router) Setup() *gin.Engine {
	gin.SetMode(r.config.Server.GinMode)

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.LoggingMiddleware())
	router.Use(corsMiddleware(r.config.CORS.AllowedOrigins))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"message": "ElectroEgy API is running",
		})
	})

	v1 := router.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/register", r.authController.Register)
			auth.POST("/login", r.authController.Login)
			auth.POST("/forgot-password", r.authController.ForgotPassword)
			auth.POST("/reset-password", r.authController.ResetPassword)
			auth.POST("/2fa/request-code", r.authController.RequestTwoFactorCode)
			auth.POST("/2fa/verify", r.authController.VerifyTwoFactor)

			auth.POST("/logout", r.authMiddleware.Authenticate(), r.authController.Logout)
			auth.GET("/me", r.authMiddleware.Authenticate(), r.authController.Me)
			auth.PUT("/me", r.authMiddleware.Authenticate(), r.authController.UpdateMe)
			auth.POST("/2fa/enable", r.authMiddleware.Authenticate(), r.authController.EnableTwoFactor)
			auth.POST("/2fa/disable", r.authMiddleware.Authenticate(), r.authController.DisableTwoFactor)
		}

		products := v1.Group("/products")
		{
			products.GET("", r.productController.ListProducts)
			products.GET("/recommended",
				r.authMiddleware.Authenticate(),
				r.productController.GetRecommendations,
			)
			products.GET("/:id", r.productController.GetProduct)
			products.GET("/:id/reviews", r.productController.GetProductReviews)

			products.POST("", r.authMiddleware.Authenticate(), r.productController.CreateProduct)
			products.PUT("/:id", r.authMiddleware.Authenticate(), r.productController.UpdateProduct)
			products.DELETE("/:id", r.authMiddleware.Authenticate(), r.productController.DeleteProduct)
		}

		cart := v1.Group("/cart")
		cart.Use(r.authMiddleware.Authenticate())
		{
			cart.GET("", r.cartController.GetCart)
			cart.POST("/items", r.cartController.AddItem)
			cart.PATCH("/items/:product_id", r.cartController.UpdateItem)
			cart.DELETE("/items/:product_id", r.cartController.RemoveItem)
			cart.DELETE("", r.cartController.ClearCart)
		}

		orders := v1.Group("/orders")
		orders.Use(r.authMiddleware.Authenticate())
		{
			orders.POST("", r.orderController.Checkout)
			orders.GET("", r.orderController.GetOrders)
			orders.GET("/:id", r.orderController.GetOrder)
			orders.GET("/:id/status", r.orderController.GetOrderStatus)
			orders.POST("/:id/cancel", r.orderController.CancelOrder)

			// Owner-or-staff transition; the service enforces ownership
			orders.PATCH("/:id/status", r.orderController.UpdateStatus)
			orders.PUT("/:id/status",
				r.authMiddleware.RequireStaff(),
				r.orderController.UpdateStatus,
			)
		}

		reviews := v1.Group("/reviews")
		reviews.Use(r.authMiddleware.Authenticate())
		{
			reviews.POST("", r.reviewController.CreateReview)
			reviews.DELETE("/:id", r.reviewController.DeleteReview)
		}

		wishlist := v1.Group("/wishlist")
		wishlist.Use(r.authMiddleware.Authenticate())
		{
			wishlist.GET("", r.wishlistController.GetWishlist)
			wishlist.POST("", r.wishlistController.AddItem)
			wishlist.DELETE("/:product_id", r.wishlistController.RemoveItem)
		}

		admin := v1.Group("/admin")
		admin.Use(r.authMiddleware.Authenticate(), r.authMiddleware.RequireStaff())
		{
			admin.GET("/export/products", r.exportController.ExportProducts)
			admin.GET("/export/orders", r.exportController.ExportOrders)
		}
	}

	return router
}

func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")

		allowed := false
		for _, allowedOrigin := range allowedOrigins {
			if origin == allowedOrigin || allowedOrigin == "*" {
				allowed = true
				break
			}
		}

		if allowed {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
