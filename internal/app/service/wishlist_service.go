package service

import (
	"errors"

	"github.com/electroegy/electroegy-backend/internal/app/model"
	"github.com/electroegy/electroegy-backend/internal/app/repository"
	"github.com/electroegy/electroegy-backend/pkg/logger"
	"gorm.io/gorm"
)

var (
	ErrWishlistItemNotFound = errors.New("wishlist item not found")
	ErrAlreadyInWishlist    = errors.New("product already in wishlist")
)

type WishlistService interface {
	GetWishlist(userID uint) ([]model.WishlistItem, error)
	AddToWishlist(userID, productID uint) (*model.WishlistItem, error)
	RemoveFromWishlist(userID, productID uint) error
}

type wishlistService struct {
	wishlistRepo repository.WishlistRepository
	productRepo  repository.ProductRepository
}

func NewWishlistService(
	wishlistRepo repository.WishlistRepository,
	productRepo repository.ProductRepository,
) WishlistService {
	return &wishlistService{
		wishlistRepo: wishlistRepo,
		productRepo:  productRepo,
	}
}

func (s *wishlistService) GetWishlist(userID uint) ([]model.WishlistItem, error) {
	logger.Debug("Fetching wishlist", map[string]interface{}{
		"user_id": userID,
	})

	return s.wishlistRepo.FindByUserID(userID)
}

func (s *wishlistService) AddToWishlist(userID, productID uint) (*model.WishlistItem, error) {
	logger.Info("Adding product to wishlist", map[string]interface{}{
		"user_id":    userID,
		"product_id": productID,
	})

	if _, err := s.productRepo.FindByID(productID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Product not found for wishlist add", map[string]interface{}{
				"user_id":    userID,
				"product_id": productID,
			})
			return nil, ErrProductNotFound
		}
		return nil, err
	}

	existing, err := s.wishlistRepo.FindByUserAndProduct(userID, productID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		logger.Error("Failed to check for existing wishlist item", err, map[string]interface{}{
			"user_id":    userID,
			"product_id": productID,
		})
		return nil, err
	}
	if existing != nil {
		logger.Warn("Product already in wishlist", map[string]interface{}{
			"user_id":    userID,
			"product_id": productID,
		})
		return nil, ErrAlreadyInWishlist
	}

	item := &model.WishlistItem{
		UserID:    userID,
		ProductID: productID,
	}
	if err := s.wishlistRepo.Create(item); err != nil {
		return nil, err
	}

	logger.Info("Product added to wishlist", map[string]interface{}{
		"wishlist_item_id": item.ID,
		"user_id":          userID,
		"product_id":       productID,
	})

	return item, nil
}

func (s *wishlistService) RemoveFromWishlist(userID, productID uint) error {
	logger.Info("Removing product from wishlist", map[string]interface{}{
		"user_id":    userID,
		"product_id": productID,
	})

	if _, err := s.wishlistRepo.FindByUserAndProduct(userID, productID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Wishlist item not found for removal", map[string]interface{}{
				"user_id":    userID,
				"product_id": productID,
			})
			return ErrWishlistItemNotFound
		}
		return err
	}

	if err := s.wishlistRepo.DeleteByUserAndProduct(userID, productID); err != nil {
		return err
	}

	logger.Info("Product removed from wishlist", map[string]interface{}{
		"user_id":    userID,
		"product_id": productID,
	})
	return nil
}
