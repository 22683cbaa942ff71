package controller

import (
	"errors"
	"net/http"

	"github.com/electroegy/electroegy-backend/internal/app/model"
	"github.com/electroegy/electroegy-backend/internal/app/service"
	apperrors "github.com/electroegy/electroegy-backend/internal/errors"
	"github.com/electroegy/electroegy-backend/internal/middleware"
	"github.com/gin-gonic/gin"
)

type OrderController struct {
	orderService service.OrderService
}

func NewOrderController(orderService service.OrderService) *OrderController {
	return &OrderController{orderService: orderService}
}

type CheckoutRequest struct {
	ShippingAddress string `json:"shipping_address" binding:"required"`
	City            string `json:"city" binding:"required"`
	Country         string `json:"country" binding:"required"`
	ZipCode         string `json:"zip_code" binding:"required"`
	PhoneNo         string `json:"phone_no" binding:"required"`
	PaymentMethod   string `json:"payment_method"`
}

type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// Checkout converts the user's cart into an order
// POST /api/v1/orders
func (ctrl *OrderController) Checkout(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "")
		return
	}

	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid checkout request", map[string]interface{}{
			"user_id": userID,
			"error":   err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid shipping information")
		return
	}

	order, err := ctrl.orderService.Checkout(userID, service.CheckoutInput{
		ShippingAddress: req.ShippingAddress,
		City:            req.City,
		Country:         req.Country,
		ZipCode:         req.ZipCode,
		PhoneNo:         req.PhoneNo,
		PaymentMethod:   req.PaymentMethod,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmptyCart):
			apperrors.BadRequest(c, apperrors.CartEmpty, "Your cart is empty")
		case errors.Is(err, service.ErrInvalidShippingInfo):
			apperrors.BadRequest(c, apperrors.ValidationRequired, "Shipping information is incomplete")
		case errors.Is(err, service.ErrProductNotFound):
			apperrors.BadRequest(c, apperrors.ProductNotFound, "A product in your cart is no longer available")
		default:
			log.Error("Checkout failed", err, map[string]interface{}{
				"user_id": userID,
			})
			apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, "checkout")
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Order placed successfully",
		"order":   order,
	})
}

// GetOrders lists the user's orders, or every order for staff
// GET /api/v1/orders
func (ctrl *OrderController) GetOrders(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "")
		return
	}
	isStaff, _ := middleware.GetIsStaff(c)

	orders, err := ctrl.orderService.GetOrders(userID, isStaff)
	if err != nil {
		log.Error("Failed to fetch orders", err, map[string]interface{}{
			"user_id": userID,
		})
		apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, "fetch orders")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"orders": orders,
		"count":  len(orders),
	})
}

// GetOrder returns a single order
// GET /api/v1/orders/:id
func (ctrl *OrderController) GetOrder(c *gin.Context) {
	order, ok := ctrl.fetchOrder(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"order": order,
	})
}

// GetOrderStatus returns just the status fields of an order
// GET /api/v1/orders/:id/status
func (ctrl *OrderController) GetOrderStatus(c *gin.Context) {
	order, ok := ctrl.fetchOrder(c)
	if !ok {
		return
	}

	resp := gin.H{
		"order_id":       order.ID,
		"order_number":   order.OrderNumber,
		"status":         order.Status,
		"payment_status": order.PaymentStatus,
	}
	if order.DeliveredAt != nil {
		resp["delivered_at"] = order.DeliveredAt
	}
	c.JSON(http.StatusOK, resp)
}

// UpdateStatus moves an order to a new status
// PUT /api/v1/orders/:id/status (staff), PATCH /api/v1/orders/:id/status (owner or staff)
func (ctrl *OrderController) UpdateStatus(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "")
		return
	}
	isStaff, _ := middleware.GetIsStaff(c)

	orderID, err := parseIDParam(c, "id")
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Invalid order ID")
		return
	}

	var req UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid status update request", map[string]interface{}{
			"user_id":  userID,
			"order_id": orderID,
			"error":    err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Status is required")
		return
	}

	order, err := ctrl.orderService.UpdateStatus(userID, isStaff, orderID, model.OrderStatus(req.Status))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidOrderStatus):
			apperrors.BadRequest(c, apperrors.OrderInvalidStatus, "Unknown order status")
		case errors.Is(err, service.ErrOrderNotFound):
			apperrors.NotFound(c, apperrors.OrderNotFound, "Order not found")
		case errors.Is(err, service.ErrOrderAccessDenied):
			apperrors.Forbidden(c, "")
		default:
			log.Error("Failed to update order status", err, map[string]interface{}{
				"user_id":  userID,
				"order_id": orderID,
				"status":   req.Status,
			})
			apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, "update order status")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Order status updated",
		"order":   order,
	})
}

// CancelOrder cancels an order that has not shipped yet
// POST /api/v1/orders/:id/cancel
func (ctrl *OrderController) CancelOrder(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "")
		return
	}
	isStaff, _ := middleware.GetIsStaff(c)

	orderID, err := parseIDParam(c, "id")
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Invalid order ID")
		return
	}

	order, err := ctrl.orderService.CancelOrder(userID, isStaff, orderID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			apperrors.NotFound(c, apperrors.OrderNotFound, "Order not found")
		case errors.Is(err, service.ErrOrderAccessDenied):
			apperrors.Forbidden(c, "")
		case errors.Is(err, service.ErrOrderNotCancellable):
			apperrors.BadRequest(c, apperrors.OrderNotCancellable, "This order can no longer be cancelled")
		default:
			log.Error("Failed to cancel order", err, map[string]interface{}{
				"user_id":  userID,
				"order_id": orderID,
			})
			apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, "cancel order")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Order cancelled",
		"order":   order,
	})
}

func (ctrl *OrderController) fetchOrder(c *gin.Context) (*model.Order, bool) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "")
		return nil, false
	}
	isStaff, _ := middleware.GetIsStaff(c)

	orderID, err := parseIDParam(c, "id")
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Invalid order ID")
		return nil, false
	}

	order, err := ctrl.orderService.GetOrder(userID, isStaff, orderID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			apperrors.NotFound(c, apperrors.OrderNotFound, "Order not found")
		case errors.Is(err, service.ErrOrderAccessDenied):
			apperrors.Forbidden(c, "")
		default:
			log.Error("Failed to fetch order", err, map[string]interface{}{
				"user_id":  userID,
				"order_id": orderID,
			})
			apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, "fetch order")
		}
		return nil, false
	}
	return order, true
}
