package repository

import (
	"errors"
	"time"

	"github.com/electroegy/electroegy-backend/internal/app/model"
	"github.com/electroegy/electroegy-backend/pkg/logger"
	"gorm.io/gorm"
)

type CartRepository interface {
	FindOrCreateByUserID(userID uint) (*model.Cart, error)
	FindByUserID(userID uint) (*model.Cart, error)
	CreateItem(item *model.CartItem) error
	UpdateItem(item *model.CartItem) error
	FindItemByCartAndProduct(cartID, productID uint) (*model.CartItem, error)
	DeleteItem(id uint) error
	DeleteItemsByCartID(cartID uint) error
	DeleteItemsOlderThan(cutoff time.Time) (int64, error)
}

type cartRepository struct {
	db *gorm.DB
}

func NewCartRepository(db *gorm.DB) CartRepository {
	return &cartRepository{db: db}
}

func (r *cartRepository) preloadCart() *gorm.DB {
	return r.db.Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("cart_items.date_added ASC")
	}).Preload("Items.Product")
}

// FindOrCreateByUserID returns the user's cart, creating an empty one on
// first access. Every user has at most one cart row.
func (r *cartRepository) FindOrCreateByUserID(userID uint) (*model.Cart, error) {
	logger.Debug("Finding or creating cart by user ID in database", map[string]interface{}{
		"user_id": userID,
	})

	var cart model.Cart
	err := r.preloadCart().Where("user_id = ?", userID).First(&cart).Error
	if err == nil {
		logger.Debug("Cart found by user ID in database", map[string]interface{}{
			"cart_id":    cart.ID,
			"user_id":    userID,
			"item_count": len(cart.Items),
		})
		return &cart, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		logger.Error("Failed to find cart by user ID in database", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}

	cart = model.Cart{UserID: userID, IsActive: true}
	if createErr := r.db.Create(&cart).Error; createErr != nil {
		// A concurrent first request may have created the cart between the
		// lookup and the insert; the unique index on user_id rejects ours.
		// Re-read before giving up.
		if retryErr := r.preloadCart().Where("user_id = ?", userID).First(&cart).Error; retryErr == nil {
			logger.Debug("Cart created concurrently, returning existing row", map[string]interface{}{
				"cart_id": cart.ID,
				"user_id": userID,
			})
			return &cart, nil
		}
		logger.Error("Failed to create cart in database", createErr, map[string]interface{}{
			"user_id": userID,
		})
		return nil, createErr
	}

	logger.Debug("Cart created in database", map[string]interface{}{
		"cart_id": cart.ID,
		"user_id": userID,
	})
	return &cart, nil
}

func (r *cartRepository) FindByUserID(userID uint) (*model.Cart, error) {
	logger.Debug("Finding cart by user ID in database", map[string]interface{}{
		"user_id": userID,
	})

	var cart model.Cart
	err := r.preloadCart().Where("user_id = ?", userID).First(&cart).Error
	if err != nil {
		logger.Error("Failed to find cart by user ID in database", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}

	logger.Debug("Cart found by user ID in database", map[string]interface{}{
		"cart_id":    cart.ID,
		"user_id":    userID,
		"item_count": len(cart.Items),
	})
	return &cart, nil
}

func (r *cartRepository) CreateItem(item *model.CartItem) error {
	logger.Debug("Creating cart item in database", map[string]interface{}{
		"cart_id":    item.CartID,
		"product_id": item.ProductID,
		"quantity":   item.Quantity,
	})

	if err := r.db.Create(item).Error; err != nil {
		logger.Error("Failed to create cart item in database", err, map[string]interface{}{
			"cart_id":    item.CartID,
			"product_id": item.ProductID,
			"quantity":   item.Quantity,
		})
		return err
	}

	logger.Debug("Cart item created in database", map[string]interface{}{
		"cart_item_id": item.ID,
		"cart_id":      item.CartID,
		"product_id":   item.ProductID,
	})
	return nil
}

func (r *cartRepository) UpdateItem(item *model.CartItem) error {
	logger.Debug("Updating cart item in database", map[string]interface{}{
		"cart_item_id": item.ID,
		"cart_id":      item.CartID,
		"product_id":   item.ProductID,
		"quantity":     item.Quantity,
	})

	if err := r.db.Save(item).Error; err != nil {
		logger.Error("Failed to update cart item in database", err, map[string]interface{}{
			"cart_item_id": item.ID,
			"cart_id":      item.CartID,
			"product_id":   item.ProductID,
		})
		return err
	}

	logger.Debug("Cart item updated in database", map[string]interface{}{
		"cart_item_id": item.ID,
		"cart_id":      item.CartID,
		"product_id":   item.ProductID,
	})
	return nil
}

func (r *cartRepository) FindItemByCartAndProduct(cartID, productID uint) (*model.CartItem, error) {
	logger.Debug("Finding cart item by cart and product in database", map[string]interface{}{
		"cart_id":    cartID,
		"product_id": productID,
	})

	var item model.CartItem
	err := r.db.Where("cart_id = ? AND product_id = ?", cartID, productID).
		First(&item).Error
	if err != nil {
		logger.Error("Failed to find cart item by cart and product in database", err, map[string]interface{}{
			"cart_id":    cartID,
			"product_id": productID,
		})
		return nil, err
	}

	logger.Debug("Cart item found by cart and product in database", map[string]interface{}{
		"cart_item_id": item.ID,
		"cart_id":      cartID,
		"product_id":   productID,
	})
	return &item, nil
}

func (r *cartRepository) DeleteItem(id uint) error {
	logger.Debug("Deleting cart item from database", map[string]interface{}{
		"cart_item_id": id,
	})

	if err := r.db.Delete(&model.CartItem{}, id).Error; err != nil {
		logger.Error("Failed to delete cart item from database", err, map[string]interface{}{
			"cart_item_id": id,
		})
		return err
	}

	logger.Debug("Cart item deleted from database", map[string]interface{}{
		"cart_item_id": id,
	})
	return nil
}

func (r *cartRepository) DeleteItemsByCartID(cartID uint) error {
	logger.Debug("Deleting cart items by cart ID from database", map[string]interface{}{
		"cart_id": cartID,
	})

	if err := r.db.Where("cart_id = ?", cartID).Delete(&model.CartItem{}).Error; err != nil {
		logger.Error("Failed to delete cart items by cart ID from database", err, map[string]interface{}{
			"cart_id": cartID,
		})
		return err
	}

	logger.Debug("Cart items deleted by cart ID from database", map[string]interface{}{
		"cart_id": cartID,
	})
	return nil
}

// DeleteItemsOlderThan drops cart items added before cutoff. Used by the
// cleanup scheduler to expire abandoned carts.
func (r *cartRepository) DeleteItemsOlderThan(cutoff time.Time) (int64, error) {
	logger.Debug("Deleting stale cart items from database", map[string]interface{}{
		"cutoff": cutoff,
	})

	result := r.db.Where("date_added < ?", cutoff).Delete(&model.CartItem{})
	if result.Error != nil {
		logger.Error("Failed to delete stale cart items from database", result.Error, map[string]interface{}{
			"cutoff": cutoff,
		})
		return 0, result.Error
	}

	logger.Debug("Stale cart items deleted from database", map[string]interface{}{
		"cutoff": cutoff,
		"count":  result.RowsAffected,
	})
	return result.RowsAffected, nil
}
