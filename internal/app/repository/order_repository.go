package repository

import (
	"github.com/electroegy/electroegy-backend/internal/app/model"
	"github.com/electroegy/electroegy-backend/pkg/logger"
	"gorm.io/gorm"
)

type OrderRepository interface {
	Create(order *model.Order) error
	FindByID(id uint) (*model.Order, error)
	FindByUserID(userID uint) ([]model.Order, error)
	FindAll() ([]model.Order, error)
	FindItemByID(id uint) (*model.OrderItem, error)
	FindOrderedCategories(userID uint) ([]string, error)
	Update(order *model.Order) error
}

type orderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) preloadOrder() *gorm.DB {
	return r.db.Preload("Items").Preload("Items.Product").Preload("User")
}

func (r *orderRepository) Create(order *model.Order) error {
	logger.Debug("Creating order in database", map[string]interface{}{
		"order_number": order.OrderNumber,
		"user_id":      order.UserID,
		"total_amount": order.TotalAmount,
	})

	if err := r.db.Create(order).Error; err != nil {
		logger.Error("Failed to create order in database", err, map[string]interface{}{
			"order_number": order.OrderNumber,
			"user_id":      order.UserID,
			"total_amount": order.TotalAmount,
		})
		return err
	}

	logger.Debug("Order created in database", map[string]interface{}{
		"order_id":     order.ID,
		"order_number": order.OrderNumber,
		"user_id":      order.UserID,
	})
	return nil
}

func (r *orderRepository) FindByID(id uint) (*model.Order, error) {
	logger.Debug("Finding order by ID in database", map[string]interface{}{
		"order_id": id,
	})

	var order model.Order
	if err := r.preloadOrder().First(&order, id).Error; err != nil {
		logger.Error("Failed to find order by ID in database", err, map[string]interface{}{
			"order_id": id,
		})
		return nil, err
	}

	logger.Debug("Order found by ID in database", map[string]interface{}{
		"order_id": order.ID,
		"user_id":  order.UserID,
		"status":   order.Status,
	})
	return &order, nil
}

func (r *orderRepository) FindByUserID(userID uint) ([]model.Order, error) {
	logger.Debug("Finding orders by user ID in database", map[string]interface{}{
		"user_id": userID,
	})

	var orders []model.Order
	if err := r.preloadOrder().Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&orders).Error; err != nil {
		logger.Error("Failed to find orders by user ID in database", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}

	logger.Debug("Orders found by user ID in database", map[string]interface{}{
		"user_id": userID,
		"count":   len(orders),
	})
	return orders, nil
}

func (r *orderRepository) FindAll() ([]model.Order, error) {
	logger.Debug("Finding all orders in database")

	var orders []model.Order
	if err := r.preloadOrder().Order("created_at DESC").Find(&orders).Error; err != nil {
		logger.Error("Failed to find all orders in database", err, nil)
		return nil, err
	}

	logger.Debug("All orders found in database", map[string]interface{}{
		"count": len(orders),
	})
	return orders, nil
}

func (r *orderRepository) FindItemByID(id uint) (*model.OrderItem, error) {
	logger.Debug("Finding order item by ID in database", map[string]interface{}{
		"order_item_id": id,
	})

	var item model.OrderItem
	if err := r.db.Preload("Order").First(&item, id).Error; err != nil {
		logger.Error("Failed to find order item by ID in database", err, map[string]interface{}{
			"order_item_id": id,
		})
		return nil, err
	}

	logger.Debug("Order item found by ID in database", map[string]interface{}{
		"order_item_id": item.ID,
		"order_id":      item.OrderID,
		"reviewed":      item.Reviewed,
	})
	return &item, nil
}

// FindOrderedCategories returns the distinct catalog categories the user
// has previously bought from. Feeds the recommendation listing.
func (r *orderRepository) FindOrderedCategories(userID uint) ([]string, error) {
	logger.Debug("Finding ordered categories by user ID in database", map[string]interface{}{
		"user_id": userID,
	})

	var categories []string
	err := r.db.Table("order_items").
		Select("DISTINCT products.category").
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Joins("JOIN products ON products.id = order_items.product_id").
		Where("orders.user_id = ? AND orders.deleted_at IS NULL", userID).
		Where("products.category <> ''").
		Scan(&categories).Error
	if err != nil {
		logger.Error("Failed to find ordered categories by user ID in database", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}

	logger.Debug("Ordered categories found by user ID in database", map[string]interface{}{
		"user_id": userID,
		"count":   len(categories),
	})
	return categories, nil
}

func (r *orderRepository) Update(order *model.Order) error {
	logger.Debug("Updating order in database", map[string]interface{}{
		"order_id": order.ID,
		"user_id":  order.UserID,
		"status":   order.Status,
	})

	if err := r.db.Save(order).Error; err != nil {
		logger.Error("Failed to update order in database", err, map[string]interface{}{
			"order_id": order.ID,
			"user_id":  order.UserID,
		})
		return err
	}

	logger.Debug("Order updated in database", map[string]interface{}{
		"order_id": order.ID,
		"user_id":  order.UserID,
		"status":   order.Status,
	})
	return nil
}
