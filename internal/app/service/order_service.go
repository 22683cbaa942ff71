package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/electroegy/electroegy-backend/internal/app/model"
	"github.com/electroegy/electroegy-backend/internal/app/repository"
	"github.com/electroegy/electroegy-backend/pkg/logger"
	"github.com/electroegy/electroegy-backend/pkg/mail"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrOrderNotFound       = errors.New("order not found")
	ErrEmptyCart           = errors.New("cart is empty")
	ErrOrderNotCancellable = errors.New("order can no longer be cancelled")
	ErrInvalidOrderStatus  = errors.New("invalid order status")
	ErrOrderAccessDenied   = errors.New("no access to this order")
	ErrInvalidShippingInfo = errors.New("shipping address is required")
)

// CheckoutInput carries the shipping and payment fields for checkout.
type CheckoutInput struct {
	ShippingAddress string
	City            string
	Country         string
	ZipCode         string
	PhoneNo         string
	PaymentMethod   string
}

type OrderService interface {
	Checkout(userID uint, input CheckoutInput) (*model.Order, error)
	GetOrders(requesterID uint, isStaff bool) ([]model.Order, error)
	GetOrder(requesterID uint, isStaff bool, orderID uint) (*model.Order, error)
	UpdateStatus(requesterID uint, isStaff bool, orderID uint, status model.OrderStatus) (*model.Order, error)
	CancelOrder(requesterID uint, isStaff bool, orderID uint) (*model.Order, error)
}

type orderService struct {
	orderRepo repository.OrderRepository
	userRepo  repository.UserRepository
	mailer    mail.Sender
	db        *gorm.DB
}

func NewOrderService(
	orderRepo repository.OrderRepository,
	userRepo repository.UserRepository,
	mailer mail.Sender,
	db *gorm.DB,
) OrderService {
	return &orderService{
		orderRepo: orderRepo,
		userRepo:  userRepo,
		mailer:    mailer,
		db:        db,
	}
}

// Checkout turns the user's cart into an order in a single transaction.
// The cart row is locked so two concurrent checkouts of the same cart
// serialize; the loser finds an empty cart and gets ErrEmptyCart. Prices
// and names are frozen onto the order items at this instant, and stock is
// not decremented.
func (s *orderService) Checkout(userID uint, input CheckoutInput) (*model.Order, error) {
	logger.Info("Starting checkout", map[string]interface{}{
		"user_id": userID,
	})

	if input.ShippingAddress == "" {
		logger.Warn("Checkout rejected: missing shipping address", map[string]interface{}{
			"user_id": userID,
		})
		return nil, ErrInvalidShippingInfo
	}

	paymentMethod := input.PaymentMethod
	if paymentMethod == "" {
		paymentMethod = "COD"
	}

	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			logger.Error("Panic during checkout, rolling back", fmt.Errorf("panic: %v", r), map[string]interface{}{
				"user_id": userID,
			})
		}
	}()

	var cart model.Cart
	if err := tx.
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).
		First(&cart).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Checkout rejected: user has no cart", map[string]interface{}{
				"user_id": userID,
			})
			return nil, ErrEmptyCart
		}
		logger.Error("Failed to lock cart for checkout", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}

	var cartItems []model.CartItem
	if err := tx.Where("cart_id = ?", cart.ID).
		Preload("Product").
		Find(&cartItems).Error; err != nil {
		tx.Rollback()
		logger.Error("Failed to load cart items for checkout", err, map[string]interface{}{
			"user_id": userID,
			"cart_id": cart.ID,
		})
		return nil, err
	}

	if len(cartItems) == 0 {
		tx.Rollback()
		logger.Warn("Checkout rejected: cart is empty", map[string]interface{}{
			"user_id": userID,
			"cart_id": cart.ID,
		})
		return nil, ErrEmptyCart
	}

	var (
		totalAmount float64
		orderItems  []model.OrderItem
	)
	for _, item := range cartItems {
		if item.Product.ID == 0 {
			tx.Rollback()
			logger.Warn("Checkout rejected: cart references missing product", map[string]interface{}{
				"user_id":    userID,
				"product_id": item.ProductID,
			})
			return nil, ErrProductNotFound
		}

		productID := item.ProductID
		totalAmount += item.Product.Price * float64(item.Quantity)
		orderItems = append(orderItems, model.OrderItem{
			ProductID:   &productID,
			ProductName: item.Product.Name,
			Price:       item.Product.Price,
			Quantity:    item.Quantity,
		})
	}

	cartID := cart.ID
	order := &model.Order{
		OrderNumber:     uuid.NewString(),
		UserID:          userID,
		CartID:          &cartID,
		TotalAmount:     totalAmount,
		PaymentStatus:   model.PaymentStatusUnpaid,
		PaymentMethod:   paymentMethod,
		Status:          model.OrderStatusPending,
		ShippingAddress: input.ShippingAddress,
		City:            input.City,
		Country:         input.Country,
		ZipCode:         input.ZipCode,
		PhoneNo:         input.PhoneNo,
		Items:           orderItems,
	}

	if err := tx.Create(order).Error; err != nil {
		tx.Rollback()
		logger.Error("Failed to create order during checkout", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}

	if err := tx.Where("cart_id = ?", cart.ID).Delete(&model.CartItem{}).Error; err != nil {
		tx.Rollback()
		logger.Error("Failed to clear cart during checkout", err, map[string]interface{}{
			"user_id": userID,
			"cart_id": cart.ID,
		})
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		logger.Error("Failed to commit checkout transaction", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}

	logger.Info("Checkout completed", map[string]interface{}{
		"user_id":      userID,
		"order_id":     order.ID,
		"order_number": order.OrderNumber,
		"total_amount": order.TotalAmount,
		"item_count":   len(order.Items),
	})

	s.notifyOrderCreated(order)

	return s.orderRepo.FindByID(order.ID)
}

func (s *orderService) notifyOrderCreated(order *model.Order) {
	user, err := s.userRepo.FindByID(order.UserID)
	if err != nil {
		logger.Warn("Skipping order confirmation email: user lookup failed", map[string]interface{}{
			"order_id": order.ID,
			"user_id":  order.UserID,
		})
		return
	}

	subject := fmt.Sprintf("Order %s received", order.OrderNumber)
	body := fmt.Sprintf(
		"Hi %s,\n\nWe received your order %s for a total of %.2f. "+
			"We will let you know when it ships.\n\nThank you for shopping with us.",
		user.Username, order.OrderNumber, order.TotalAmount,
	)
	mail.SendAsync(s.mailer, user.Email, subject, body)
}

func (s *orderService) notifyStatusChanged(order *model.Order) {
	user, err := s.userRepo.FindByID(order.UserID)
	if err != nil {
		logger.Warn("Skipping order status email: user lookup failed", map[string]interface{}{
			"order_id": order.ID,
			"user_id":  order.UserID,
		})
		return
	}

	subject := fmt.Sprintf("Order %s is now %s", order.OrderNumber, order.Status)
	body := fmt.Sprintf(
		"Hi %s,\n\nYour order %s has been updated to: %s.",
		user.Username, order.OrderNumber, order.Status,
	)
	mail.SendAsync(s.mailer, user.Email, subject, body)
}

// GetOrders lists the requester's orders; staff see every order.
func (s *orderService) GetOrders(requesterID uint, isStaff bool) ([]model.Order, error) {
	logger.Debug("Fetching orders", map[string]interface{}{
		"requester_id": requesterID,
		"is_staff":     isStaff,
	})

	if isStaff {
		return s.orderRepo.FindAll()
	}
	return s.orderRepo.FindByUserID(requesterID)
}

func (s *orderService) GetOrder(requesterID uint, isStaff bool, orderID uint) (*model.Order, error) {
	logger.Debug("Fetching order", map[string]interface{}{
		"requester_id": requesterID,
		"order_id":     orderID,
	})

	order, err := s.orderRepo.FindByID(orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Order not found", map[string]interface{}{
				"order_id": orderID,
			})
			return nil, ErrOrderNotFound
		}
		return nil, err
	}

	if !isStaff && order.UserID != requesterID {
		logger.Warn("Order access denied", map[string]interface{}{
			"requester_id": requesterID,
			"order_id":     orderID,
			"owner_id":     order.UserID,
		})
		return nil, ErrOrderAccessDenied
	}

	return order, nil
}

// UpdateStatus moves the order to any valid status. Entering Delivered
// stamps DeliveredAt; leaving it clears the stamp again.
func (s *orderService) UpdateStatus(requesterID uint, isStaff bool, orderID uint, status model.OrderStatus) (*model.Order, error) {
	logger.Info("Updating order status", map[string]interface{}{
		"requester_id": requesterID,
		"order_id":     orderID,
		"status":       status,
	})

	if !model.IsValidOrderStatus(status) {
		logger.Warn("Invalid order status requested", map[string]interface{}{
			"order_id": orderID,
			"status":   status,
		})
		return nil, ErrInvalidOrderStatus
	}

	order, err := s.GetOrder(requesterID, isStaff, orderID)
	if err != nil {
		return nil, err
	}

	previous := order.Status
	order.Status = status
	if status == model.OrderStatusDelivered {
		if order.DeliveredAt == nil {
			now := time.Now()
			order.DeliveredAt = &now
		}
	} else {
		order.DeliveredAt = nil
	}

	if err := s.orderRepo.Update(order); err != nil {
		return nil, err
	}

	logger.Info("Order status updated", map[string]interface{}{
		"order_id": orderID,
		"from":     previous,
		"to":       status,
	})

	if previous != status {
		s.notifyStatusChanged(order)
	}

	return order, nil
}

// CancelOrder cancels an order that has not yet shipped.
func (s *orderService) CancelOrder(requesterID uint, isStaff bool, orderID uint) (*model.Order, error) {
	logger.Info("Cancelling order", map[string]interface{}{
		"requester_id": requesterID,
		"order_id":     orderID,
	})

	order, err := s.GetOrder(requesterID, isStaff, orderID)
	if err != nil {
		return nil, err
	}

	if !order.CanCancel() {
		logger.Warn("Order can no longer be cancelled", map[string]interface{}{
			"order_id": orderID,
			"status":   order.Status,
		})
		return nil, ErrOrderNotCancellable
	}

	order.Status = model.OrderStatusCancelled
	if err := s.orderRepo.Update(order); err != nil {
		return nil, err
	}

	logger.Info("Order cancelled", map[string]interface{}{
		"order_id": orderID,
	})

	s.notifyStatusChanged(order)

	return order, nil
}
