package service

import (
	"errors"
	"fmt"

	"github.com/electroegy/electroegy-backend/internal/app/model"
	"github.com/electroegy/electroegy-backend/internal/app/repository"
	"github.com/electroegy/electroegy-backend/pkg/logger"
	"gorm.io/gorm"
)

var (
	ErrOrderItemNotFound  = errors.New("order item not found")
	ErrReviewNotAllowed   = errors.New("order item is not eligible for review")
	ErrAlreadyReviewed    = errors.New("order item already reviewed")
	ErrInvalidRating      = errors.New("rating must be between 1 and 5")
	ErrReviewNotFound     = errors.New("review not found")
	ErrReviewAccessDenied = errors.New("no access to this review")
)

type ReviewService interface {
	CreateReview(userID, orderItemID uint, rating int, comment string) (*model.Review, error)
	GetProductReviews(productID uint) ([]model.Review, error)
	DeleteReview(requesterID uint, isStaff bool, reviewID uint) error
}

type reviewService struct {
	reviewRepo  repository.ReviewRepository
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
	db          *gorm.DB
}

func NewReviewService(
	reviewRepo repository.ReviewRepository,
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	db *gorm.DB,
) ReviewService {
	return &reviewService{
		reviewRepo:  reviewRepo,
		orderRepo:   orderRepo,
		productRepo: productRepo,
		db:          db,
	}
}

// CreateReview records a review for a delivered order item. The review row
// and the item's reviewed flag are written in one transaction so an item
// can never be reviewed twice, then the product's average rating is
// refreshed.
func (s *reviewService) CreateReview(userID, orderItemID uint, rating int, comment string) (*model.Review, error) {
	logger.Info("Creating review", map[string]interface{}{
		"user_id":       userID,
		"order_item_id": orderItemID,
		"rating":        rating,
	})

	if rating < 1 || rating > 5 {
		logger.Warn("Invalid rating for review", map[string]interface{}{
			"user_id": userID,
			"rating":  rating,
		})
		return nil, ErrInvalidRating
	}

	item, err := s.orderRepo.FindItemByID(orderItemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Order item not found for review", map[string]interface{}{
				"order_item_id": orderItemID,
			})
			return nil, ErrOrderItemNotFound
		}
		return nil, err
	}

	if item.Order.ID == 0 || item.Order.UserID != userID {
		logger.Warn("Review rejected: requester does not own the order", map[string]interface{}{
			"user_id":       userID,
			"order_item_id": orderItemID,
		})
		return nil, ErrReviewAccessDenied
	}

	if item.Order.Status != model.OrderStatusDelivered {
		logger.Warn("Review rejected: order not delivered", map[string]interface{}{
			"order_item_id": orderItemID,
			"status":        item.Order.Status,
		})
		return nil, ErrReviewNotAllowed
	}

	if item.Reviewed {
		logger.Warn("Review rejected: order item already reviewed", map[string]interface{}{
			"order_item_id": orderItemID,
		})
		return nil, ErrAlreadyReviewed
	}

	if item.ProductID == nil {
		logger.Warn("Review rejected: product no longer in catalog", map[string]interface{}{
			"order_item_id": orderItemID,
		})
		return nil, ErrReviewNotAllowed
	}
	productID := *item.ProductID

	review := &model.Review{
		UserID:    userID,
		ProductID: productID,
		Rating:    rating,
		Comment:   comment,
	}

	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			logger.Error("Panic during review creation, rolling back", fmt.Errorf("panic: %v", r), map[string]interface{}{
				"order_item_id": orderItemID,
			})
		}
	}()

	if err := tx.Create(review).Error; err != nil {
		tx.Rollback()
		logger.Error("Failed to create review", err, map[string]interface{}{
			"user_id":    userID,
			"product_id": productID,
		})
		return nil, err
	}

	// Guard against a concurrent review of the same item: the flag flip
	// only succeeds if it is still false.
	result := tx.Model(&model.OrderItem{}).
		Where("id = ? AND reviewed = ?", orderItemID, false).
		Update("reviewed", true)
	if result.Error != nil {
		tx.Rollback()
		logger.Error("Failed to mark order item as reviewed", result.Error, map[string]interface{}{
			"order_item_id": orderItemID,
		})
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		tx.Rollback()
		logger.Warn("Review rejected: order item reviewed concurrently", map[string]interface{}{
			"order_item_id": orderItemID,
		})
		return nil, ErrAlreadyReviewed
	}

	if err := tx.Commit().Error; err != nil {
		logger.Error("Failed to commit review transaction", err, map[string]interface{}{
			"order_item_id": orderItemID,
		})
		return nil, err
	}

	logger.Info("Review created", map[string]interface{}{
		"review_id":     review.ID,
		"user_id":       userID,
		"product_id":    productID,
		"order_item_id": orderItemID,
	})

	s.refreshProductRating(productID)

	return review, nil
}

func (s *reviewService) refreshProductRating(productID uint) {
	avg, err := s.reviewRepo.AverageRatingByProduct(productID)
	if err != nil {
		logger.Warn("Failed to recompute product rating", map[string]interface{}{
			"product_id": productID,
		})
		return
	}
	if err := s.productRepo.UpdateRating(productID, avg); err != nil {
		logger.Warn("Failed to store product rating", map[string]interface{}{
			"product_id": productID,
			"rating":     avg,
		})
	}
}

func (s *reviewService) GetProductReviews(productID uint) ([]model.Review, error) {
	logger.Debug("Fetching product reviews", map[string]interface{}{
		"product_id": productID,
	})

	if _, err := s.productRepo.FindByID(productID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Product not found for reviews", map[string]interface{}{
				"product_id": productID,
			})
			return nil, ErrProductNotFound
		}
		return nil, err
	}

	return s.reviewRepo.FindByProductID(productID)
}

// DeleteReview removes a review. The order item stays flagged as reviewed;
// deleting a review does not reopen the one-shot gate.
func (s *reviewService) DeleteReview(requesterID uint, isStaff bool, reviewID uint) error {
	logger.Info("Deleting review", map[string]interface{}{
		"requester_id": requesterID,
		"review_id":    reviewID,
	})

	review, err := s.reviewRepo.FindByID(reviewID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Review not found for deletion", map[string]interface{}{
				"review_id": reviewID,
			})
			return ErrReviewNotFound
		}
		return err
	}

	if !isStaff && review.UserID != requesterID {
		logger.Warn("Review deletion denied", map[string]interface{}{
			"requester_id": requesterID,
			"review_id":    reviewID,
			"owner_id":     review.UserID,
		})
		return ErrReviewAccessDenied
	}

	if err := s.reviewRepo.Delete(reviewID); err != nil {
		return err
	}

	logger.Info("Review deleted", map[string]interface{}{
		"review_id": reviewID,
	})

	s.refreshProductRating(review.ProductID)

	return nil
}
