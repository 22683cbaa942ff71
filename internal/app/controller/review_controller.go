package controller

import (
	"errors"
	"net/http"

	"github.com/electroegy/electroegy-backend/internal/app/service"
	apperrors "github.com/electroegy/electroegy-backend/internal/errors"
	"github.com/electroegy/electroegy-backend/internal/middleware"
	"github.com/gin-gonic/gin"
)

type ReviewController struct {
	reviewService service.ReviewService
}

func NewReviewController(reviewService service.ReviewService) *ReviewController {
	return &ReviewController{reviewService: reviewService}
}

type CreateReviewRequest struct {
	OrderItemID uint   `json:"order_item_id" binding:"required"`
	Rating      int    `json:"rating" binding:"required"`
	Comment     string `json:"comment"`
}

// CreateReview reviews a delivered order item
// POST /api/v1/reviews
func (ctrl *ReviewController) CreateReview(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "")
		return
	}

	var req CreateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid review payload", map[string]interface{}{
			"user_id": userID,
			"error":   err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid review data")
		return
	}

	review, err := ctrl.reviewService.CreateReview(userID, req.OrderItemID, req.Rating, req.Comment)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidRating):
			apperrors.BadRequest(c, apperrors.ReviewInvalidRating, "Rating must be between 1 and 5")
		case errors.Is(err, service.ErrOrderItemNotFound):
			apperrors.NotFound(c, apperrors.ResourceNotFound, "Order item not found")
		case errors.Is(err, service.ErrReviewNotAllowed):
			apperrors.BadRequest(c, apperrors.ReviewNotEligible, "You can only review items from your delivered orders")
		case errors.Is(err, service.ErrAlreadyReviewed):
			apperrors.Conflict(c, apperrors.ReviewAlreadyExists, "You already reviewed this item")
		default:
			log.Error("Failed to create review", err, map[string]interface{}{
				"user_id":       userID,
				"order_item_id": req.OrderItemID,
			})
			apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, "create review")
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Review submitted",
		"review":  review,
	})
}

// DeleteReview removes a review (author or staff)
// DELETE /api/v1/reviews/:id
func (ctrl *ReviewController) DeleteReview(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "")
		return
	}
	isStaff, _ := middleware.GetIsStaff(c)

	reviewID, err := parseIDParam(c, "id")
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Invalid review ID")
		return
	}

	if err := ctrl.reviewService.DeleteReview(userID, isStaff, reviewID); err != nil {
		switch {
		case errors.Is(err, service.ErrReviewNotFound):
			apperrors.NotFound(c, apperrors.ReviewNotFound, "Review not found")
		case errors.Is(err, service.ErrReviewAccessDenied):
			apperrors.Forbidden(c, "")
		default:
			log.Error("Failed to delete review", err, map[string]interface{}{
				"user_id":   userID,
				"review_id": reviewID,
			})
			apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, "delete review")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Review deleted",
	})
}
