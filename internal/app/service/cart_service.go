package service

import (
	"errors"

	"github.com/electroegy/electroegy-backend/internal/app/model"
	"github.com/electroegy/electroegy-backend/internal/app/repository"
	"github.com/electroegy/electroegy-backend/pkg/logger"
	"gorm.io/gorm"
)

var (
	ErrProductNotFound   = errors.New("product not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidQuantity   = errors.New("quantity must be at least 1")
	ErrCartItemNotFound  = errors.New("cart item not found")
)

type CartService interface {
	GetCart(userID uint) (*model.Cart, error)
	AddItem(userID, productID uint, quantity int) (*model.Cart, error)
	UpdateItemQuantity(userID, productID uint, quantity int) (*model.Cart, error)
	RemoveItem(userID, productID uint) (*model.Cart, error)
	ClearCart(userID uint) error
}

type cartService struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
}

func NewCartService(
	cartRepo repository.CartRepository,
	productRepo repository.ProductRepository,
) CartService {
	return &cartService{
		cartRepo:    cartRepo,
		productRepo: productRepo,
	}
}

func (s *cartService) GetCart(userID uint) (*model.Cart, error) {
	logger.Debug("Fetching cart", map[string]interface{}{
		"user_id": userID,
	})

	cart, err := s.cartRepo.FindOrCreateByUserID(userID)
	if err != nil {
		logger.Error("Failed to fetch cart", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}

	logger.Debug("Cart fetched successfully", map[string]interface{}{
		"user_id":    userID,
		"cart_id":    cart.ID,
		"item_count": len(cart.Items),
	})
	return cart, nil
}

// AddItem puts quantity units of the product into the user's cart. If the
// product is already there the quantities are merged into a single line.
// Stock is checked against the resulting quantity but never reserved.
func (s *cartService) AddItem(userID, productID uint, quantity int) (*model.Cart, error) {
	logger.Info("Adding item to cart", map[string]interface{}{
		"user_id":    userID,
		"product_id": productID,
		"quantity":   quantity,
	})

	if quantity < 1 {
		logger.Warn("Invalid quantity for cart add", map[string]interface{}{
			"user_id":  userID,
			"quantity": quantity,
		})
		return nil, ErrInvalidQuantity
	}

	product, err := s.productRepo.FindByID(productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Product not found for cart add", map[string]interface{}{
				"user_id":    userID,
				"product_id": productID,
			})
			return nil, ErrProductNotFound
		}
		logger.Error("Failed to fetch product for cart add", err, map[string]interface{}{
			"product_id": productID,
		})
		return nil, err
	}

	cart, err := s.cartRepo.FindOrCreateByUserID(userID)
	if err != nil {
		return nil, err
	}

	existing, err := s.cartRepo.FindItemByCartAndProduct(cart.ID, productID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		logger.Error("Failed to check for existing cart item", err, map[string]interface{}{
			"cart_id":    cart.ID,
			"product_id": productID,
		})
		return nil, err
	}

	newQuantity := quantity
	if existing != nil {
		newQuantity += existing.Quantity
	}

	if newQuantity > product.Stock {
		logger.Warn("Insufficient stock for cart add", map[string]interface{}{
			"user_id":    userID,
			"product_id": productID,
			"requested":  newQuantity,
			"stock":      product.Stock,
		})
		return nil, ErrInsufficientStock
	}

	if existing != nil {
		existing.Quantity = newQuantity
		if err := s.cartRepo.UpdateItem(existing); err != nil {
			return nil, err
		}
	} else {
		item := &model.CartItem{
			CartID:    cart.ID,
			ProductID: productID,
			Quantity:  quantity,
		}
		if err := s.cartRepo.CreateItem(item); err != nil {
			return nil, err
		}
	}

	logger.Info("Item added to cart", map[string]interface{}{
		"user_id":    userID,
		"cart_id":    cart.ID,
		"product_id": productID,
		"quantity":   newQuantity,
	})

	return s.cartRepo.FindByUserID(userID)
}

// UpdateItemQuantity sets the line quantity to an absolute value.
func (s *cartService) UpdateItemQuantity(userID, productID uint, quantity int) (*model.Cart, error) {
	logger.Info("Updating cart item quantity", map[string]interface{}{
		"user_id":    userID,
		"product_id": productID,
		"quantity":   quantity,
	})

	if quantity < 1 {
		logger.Warn("Invalid quantity for cart update", map[string]interface{}{
			"user_id":  userID,
			"quantity": quantity,
		})
		return nil, ErrInvalidQuantity
	}

	cart, err := s.cartRepo.FindOrCreateByUserID(userID)
	if err != nil {
		return nil, err
	}

	item, err := s.cartRepo.FindItemByCartAndProduct(cart.ID, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Cart item not found for update", map[string]interface{}{
				"user_id":    userID,
				"product_id": productID,
			})
			return nil, ErrCartItemNotFound
		}
		return nil, err
	}

	product, err := s.productRepo.FindByID(productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}

	if quantity > product.Stock {
		logger.Warn("Insufficient stock for cart update", map[string]interface{}{
			"user_id":    userID,
			"product_id": productID,
			"requested":  quantity,
			"stock":      product.Stock,
		})
		return nil, ErrInsufficientStock
	}

	item.Quantity = quantity
	if err := s.cartRepo.UpdateItem(item); err != nil {
		return nil, err
	}

	logger.Info("Cart item quantity updated", map[string]interface{}{
		"user_id":    userID,
		"cart_id":    cart.ID,
		"product_id": productID,
		"quantity":   quantity,
	})

	return s.cartRepo.FindByUserID(userID)
}

func (s *cartService) RemoveItem(userID, productID uint) (*model.Cart, error) {
	logger.Info("Removing item from cart", map[string]interface{}{
		"user_id":    userID,
		"product_id": productID,
	})

	cart, err := s.cartRepo.FindOrCreateByUserID(userID)
	if err != nil {
		return nil, err
	}

	item, err := s.cartRepo.FindItemByCartAndProduct(cart.ID, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Cart item not found for removal", map[string]interface{}{
				"user_id":    userID,
				"product_id": productID,
			})
			return nil, ErrCartItemNotFound
		}
		return nil, err
	}

	if err := s.cartRepo.DeleteItem(item.ID); err != nil {
		return nil, err
	}

	logger.Info("Item removed from cart", map[string]interface{}{
		"user_id":    userID,
		"cart_id":    cart.ID,
		"product_id": productID,
	})

	return s.cartRepo.FindByUserID(userID)
}

func (s *cartService) ClearCart(userID uint) error {
	logger.Info("Clearing cart", map[string]interface{}{
		"user_id": userID,
	})

	cart, err := s.cartRepo.FindOrCreateByUserID(userID)
	if err != nil {
		return err
	}

	if err := s.cartRepo.DeleteItemsByCartID(cart.ID); err != nil {
		return err
	}

	logger.Info("Cart cleared", map[string]interface{}{
		"user_id": userID,
		"cart_id": cart.ID,
	})
	return nil
}
