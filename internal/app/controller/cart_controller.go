package controller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/electroegy/electroegy-backend/internal/app/model"
	"github.com/electroegy/electroegy-backend/internal/app/service"
	apperrors "github.com/electroegy/electroegy-backend/internal/errors"
	"github.com/electroegy/electroegy-backend/internal/middleware"
	"github.com/gin-gonic/gin"
)

type CartController struct {
	cartService service.CartService
}

func NewCartController(cartService service.CartService) *CartController {
	return &CartController{cartService: cartService}
}

type AddCartItemRequest struct {
	ProductID uint `json:"product_id" binding:"required"`
	Quantity  int  `json:"quantity" binding:"required,min=1"`
}

type UpdateCartItemRequest struct {
	Quantity int `json:"quantity" binding:"required,min=1"`
}

func cartResponse(cart *model.Cart) gin.H {
	return gin.H{
		"cart":        cart,
		"total_price": cart.TotalPrice(),
		"total_items": cart.TotalItems(),
	}
}

// GetCart returns the authenticated user's cart
// GET /api/v1/cart
func (ctrl *CartController) GetCart(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "")
		return
	}

	cart, err := ctrl.cartService.GetCart(userID)
	if err != nil {
		log.Error("Failed to fetch cart", err, map[string]interface{}{
			"user_id": userID,
		})
		apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, "fetch cart")
		return
	}

	c.JSON(http.StatusOK, cartResponse(cart))
}

// AddItem adds a product to the cart, merging quantities when the product
// is already in it
// POST /api/v1/cart/items
func (ctrl *CartController) AddItem(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "")
		return
	}

	var req AddCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid add to cart request", map[string]interface{}{
			"user_id": userID,
			"error":   err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid cart item data")
		return
	}

	cart, err := ctrl.cartService.AddItem(userID, req.ProductID, req.Quantity)
	if err != nil {
		ctrl.respondCartError(c, err, userID, "add item to cart")
		return
	}

	c.JSON(http.StatusOK, cartResponse(cart))
}

// UpdateItem sets the quantity of a cart line
// PATCH /api/v1/cart/items/:product_id
func (ctrl *CartController) UpdateItem(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "")
		return
	}

	productID, err := parseIDParam(c, "product_id")
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidFormat, "Invalid product ID")
		return
	}

	var req UpdateCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid cart update request", map[string]interface{}{
			"user_id":    userID,
			"product_id": productID,
			"error":      err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid quantity")
		return
	}

	cart, err := ctrl.cartService.UpdateItemQuantity(userID, productID, req.Quantity)
	if err != nil {
		ctrl.respondCartError(c, err, userID, "update cart item")
		return
	}

	c.JSON(http.StatusOK, cartResponse(cart))
}

// RemoveItem removes a product from the cart
// DELETE /api/v1/cart/items/:product_id
func (ctrl *CartController) RemoveItem(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "")
		return
	}

	productID, err := parseIDParam(c, "product_id")
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidFormat, "Invalid product ID")
		return
	}

	cart, err := ctrl.cartService.RemoveItem(userID, productID)
	if err != nil {
		ctrl.respondCartError(c, err, userID, "remove cart item")
		return
	}

	c.JSON(http.StatusOK, cartResponse(cart))
}

// ClearCart removes every item from the cart
// DELETE /api/v1/cart
func (ctrl *CartController) ClearCart(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "")
		return
	}

	if err := ctrl.cartService.ClearCart(userID); err != nil {
		log.Error("Failed to clear cart", err, map[string]interface{}{
			"user_id": userID,
		})
		apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, "clear cart")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Cart cleared",
	})
}

func (ctrl *CartController) respondCartError(c *gin.Context, err error, userID uint, context string) {
	log := middleware.GetLoggerFromContext(c)

	switch {
	case errors.Is(err, service.ErrProductNotFound):
		apperrors.NotFound(c, apperrors.ProductNotFound, "Product not found")
	case errors.Is(err, service.ErrInsufficientStock):
		apperrors.BadRequest(c, apperrors.ProductOutOfStock, "Not enough stock for the requested quantity")
	case errors.Is(err, service.ErrInvalidQuantity):
		apperrors.BadRequest(c, apperrors.CartInvalidQuantity, "Quantity must be at least 1")
	case errors.Is(err, service.ErrCartItemNotFound):
		apperrors.NotFound(c, apperrors.CartItemNotFound, "Item is not in the cart")
	default:
		log.Error("Cart operation failed", err, map[string]interface{}{
			"user_id": userID,
		})
		apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, context)
	}
}

// parseIDParam reads a positive integer path parameter.
func parseIDParam(c *gin.Context, name string) (uint, error) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		if err == nil {
			err = strconv.ErrRange
		}
		return 0, err
	}
	return uint(id), nil
}
