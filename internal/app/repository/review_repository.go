package repository

import (
	"github.com/electroegy/electroegy-backend/internal/app/model"
	"github.com/electroegy/electroegy-backend/pkg/logger"
	"gorm.io/gorm"
)

type ReviewRepository interface {
	Create(review *model.Review) error
	FindByID(id uint) (*model.Review, error)
	FindByProductID(productID uint) ([]model.Review, error)
	FindByUserID(userID uint) ([]model.Review, error)
	AverageRatingByProduct(productID uint) (float64, error)
	Delete(id uint) error
}

type reviewRepository struct {
	db *gorm.DB
}

func NewReviewRepository(db *gorm.DB) ReviewRepository {
	return &reviewRepository{db: db}
}

func (r *reviewRepository) Create(review *model.Review) error {
	logger.Debug("Creating review in database", map[string]interface{}{
		"user_id":    review.UserID,
		"product_id": review.ProductID,
		"rating":     review.Rating,
	})

	if err := r.db.Create(review).Error; err != nil {
		logger.Error("Failed to create review in database", err, map[string]interface{}{
			"user_id":    review.UserID,
			"product_id": review.ProductID,
		})
		return err
	}

	logger.Debug("Review created in database", map[string]interface{}{
		"review_id":  review.ID,
		"user_id":    review.UserID,
		"product_id": review.ProductID,
	})
	return nil
}

func (r *reviewRepository) FindByID(id uint) (*model.Review, error) {
	logger.Debug("Finding review by ID in database", map[string]interface{}{
		"review_id": id,
	})

	var review model.Review
	if err := r.db.Preload("User").First(&review, id).Error; err != nil {
		logger.Error("Failed to find review by ID in database", err, map[string]interface{}{
			"review_id": id,
		})
		return nil, err
	}

	logger.Debug("Review found by ID in database", map[string]interface{}{
		"review_id":  review.ID,
		"user_id":    review.UserID,
		"product_id": review.ProductID,
	})
	return &review, nil
}

func (r *reviewRepository) FindByProductID(productID uint) ([]model.Review, error) {
	logger.Debug("Finding reviews by product ID in database", map[string]interface{}{
		"product_id": productID,
	})

	var reviews []model.Review
	err := r.db.Where("product_id = ?", productID).
		Preload("User").
		Order("created_at DESC").
		Find(&reviews).Error
	if err != nil {
		logger.Error("Failed to find reviews by product ID in database", err, map[string]interface{}{
			"product_id": productID,
		})
		return nil, err
	}

	logger.Debug("Reviews found by product ID in database", map[string]interface{}{
		"product_id": productID,
		"count":      len(reviews),
	})
	return reviews, nil
}

func (r *reviewRepository) FindByUserID(userID uint) ([]model.Review, error) {
	logger.Debug("Finding reviews by user ID in database", map[string]interface{}{
		"user_id": userID,
	})

	var reviews []model.Review
	err := r.db.Where("user_id = ?", userID).
		Preload("Product").
		Order("created_at DESC").
		Find(&reviews).Error
	if err != nil {
		logger.Error("Failed to find reviews by user ID in database", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}

	logger.Debug("Reviews found by user ID in database", map[string]interface{}{
		"user_id": userID,
		"count":   len(reviews),
	})
	return reviews, nil
}

func (r *reviewRepository) AverageRatingByProduct(productID uint) (float64, error) {
	logger.Debug("Computing average rating for product in database", map[string]interface{}{
		"product_id": productID,
	})

	var avg float64
	err := r.db.Model(&model.Review{}).
		Where("product_id = ?", productID).
		Select("COALESCE(AVG(rating), 0)").
		Scan(&avg).Error
	if err != nil {
		logger.Error("Failed to compute average rating for product in database", err, map[string]interface{}{
			"product_id": productID,
		})
		return 0, err
	}

	logger.Debug("Average rating computed for product in database", map[string]interface{}{
		"product_id": productID,
		"rating":     avg,
	})
	return avg, nil
}

func (r *reviewRepository) Delete(id uint) error {
	logger.Debug("Deleting review from database", map[string]interface{}{
		"review_id": id,
	})

	if err := r.db.Delete(&model.Review{}, id).Error; err != nil {
		logger.Error("Failed to delete review from database", err, map[string]interface{}{
			"review_id": id,
		})
		return err
	}

	logger.Debug("Review deleted from database", map[string]interface{}{
		"review_id": id,
	})
	return nil
}
