package controller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/electroegy/electroegy-backend/internal/app/service"
	apperrors "github.com/electroegy/electroegy-backend/internal/errors"
	"github.com/electroegy/electroegy-backend/internal/middleware"
	"github.com/gin-gonic/gin"
)

type ProductController struct {
	productService service.ProductService
	reviewService  service.ReviewService
}

func NewProductController(productService service.ProductService, reviewService service.ReviewService) *ProductController {
	return &ProductController{
		productService: productService,
		reviewService:  reviewService,
	}
}

type ProductRequest struct {
	Name        string  `json:"name" binding:"required"`
	Description string  `json:"description"`
	Brand       string  `json:"brand"`
	Category    string  `json:"category"`
	Price       float64 `json:"price" binding:"required,gt=0"`
	Stock       int     `json:"stock" binding:"min=0"`
	ImageURL    string  `json:"image_url"`
}

func (r ProductRequest) toInput() service.ProductInput {
	return service.ProductInput{
		Name:        r.Name,
		Description: r.Description,
		Brand:       r.Brand,
		Category:    r.Category,
		Price:       r.Price,
		Stock:       r.Stock,
		ImageURL:    r.ImageURL,
	}
}

// ListProducts returns a filtered, paginated page of the catalog
// GET /api/v1/products
func (ctrl *ProductController) ListProducts(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	input := service.ProductListInput{
		Keyword:       c.Query("keyword"),
		Name:          c.Query("name"),
		Category:      c.Query("category"),
		Brand:         c.Query("brand"),
		SortBy:        c.Query("sort_by"),
		SortAscending: c.Query("order") == "asc",
	}

	if raw := c.Query("min_price"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			apperrors.BadRequest(c, apperrors.ValidationInvalidFormat, "min_price must be a number")
			return
		}
		input.MinPrice = &v
	}
	if raw := c.Query("max_price"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			apperrors.BadRequest(c, apperrors.ValidationInvalidFormat, "max_price must be a number")
			return
		}
		input.MaxPrice = &v
	}
	if raw := c.Query("page"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			apperrors.BadRequest(c, apperrors.ValidationInvalidFormat, "page must be a number")
			return
		}
		input.Page = v
	}
	if raw := c.Query("page_size"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			apperrors.BadRequest(c, apperrors.ValidationInvalidFormat, "page_size must be a number")
			return
		}
		input.PageSize = v
	}

	page, err := ctrl.productService.ListProducts(input)
	if err != nil {
		log.Error("Failed to list products", err, map[string]interface{}{
			"keyword":  input.Keyword,
			"category": input.Category,
		})
		apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, "list products")
		return
	}

	c.JSON(http.StatusOK, page)
}

// GetProduct returns a single product
// GET /api/v1/products/:id
func (ctrl *ProductController) GetProduct(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	productID, err := parseIDParam(c, "id")
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Invalid product ID")
		return
	}

	product, err := ctrl.productService.GetProduct(productID)
	if err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			apperrors.NotFound(c, apperrors.ProductNotFound, "Product not found")
			return
		}
		log.Error("Failed to fetch product", err, map[string]interface{}{
			"product_id": productID,
		})
		apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, "fetch product")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"product": product,
	})
}

// GetProductReviews returns a product's reviews
// GET /api/v1/products/:id/reviews
func (ctrl *ProductController) GetProductReviews(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	productID, err := parseIDParam(c, "id")
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Invalid product ID")
		return
	}

	reviews, err := ctrl.reviewService.GetProductReviews(productID)
	if err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			apperrors.NotFound(c, apperrors.ProductNotFound, "Product not found")
			return
		}
		log.Error("Failed to fetch reviews", err, map[string]interface{}{
			"product_id": productID,
		})
		apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, "fetch reviews")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"reviews": reviews,
		"count":   len(reviews),
	})
}

// GetRecommendations returns products picked from the user's order history
// GET /api/v1/products/recommended
func (ctrl *ProductController) GetRecommendations(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "")
		return
	}

	products, err := ctrl.productService.GetRecommendations(userID)
	if err != nil {
		log.Error("Failed to build recommendations", err, map[string]interface{}{
			"user_id": userID,
		})
		apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, "build recommendations")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"products": products,
		"count":    len(products),
	})
}

// CreateProduct adds a product to the catalog
// POST /api/v1/products
func (ctrl *ProductController) CreateProduct(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "")
		return
	}

	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid product payload", map[string]interface{}{
			"user_id": userID,
			"error":   err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid product data")
		return
	}

	product, err := ctrl.productService.CreateProduct(userID, req.toInput())
	if err != nil {
		if errors.Is(err, service.ErrInvalidProductData) {
			apperrors.BadRequest(c, apperrors.ProductInvalidPrice, "Product requires a name, a positive price and non-negative stock")
			return
		}
		log.Error("Failed to create product", err, map[string]interface{}{
			"user_id": userID,
			"name":    req.Name,
		})
		apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, "create product")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Product created successfully",
		"product": product,
	})
}

// UpdateProduct modifies a product owned by the user (staff may edit any)
// PUT /api/v1/products/:id
func (ctrl *ProductController) UpdateProduct(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "")
		return
	}
	isStaff, _ := middleware.GetIsStaff(c)

	productID, err := parseIDParam(c, "id")
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Invalid product ID")
		return
	}

	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid product payload", map[string]interface{}{
			"user_id":    userID,
			"product_id": productID,
			"error":      err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid product data")
		return
	}

	product, err := ctrl.productService.UpdateProduct(userID, isStaff, productID, req.toInput())
	if err != nil {
		switch {
		case errors.Is(err, service.ErrProductNotFound):
			apperrors.NotFound(c, apperrors.ProductNotFound, "Product not found")
		case errors.Is(err, service.ErrProductAccessDenied):
			apperrors.Forbidden(c, "")
		case errors.Is(err, service.ErrInvalidProductData):
			apperrors.BadRequest(c, apperrors.ProductInvalidPrice, "Product requires a name, a positive price and non-negative stock")
		default:
			log.Error("Failed to update product", err, map[string]interface{}{
				"user_id":    userID,
				"product_id": productID,
			})
			apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, "update product")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Product updated successfully",
		"product": product,
	})
}

// DeleteProduct removes a product owned by the user (staff may remove any)
// DELETE /api/v1/products/:id
func (ctrl *ProductController) DeleteProduct(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "")
		return
	}
	isStaff, _ := middleware.GetIsStaff(c)

	productID, err := parseIDParam(c, "id")
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Invalid product ID")
		return
	}

	if err := ctrl.productService.DeleteProduct(userID, isStaff, productID); err != nil {
		switch {
		case errors.Is(err, service.ErrProductNotFound):
			apperrors.NotFound(c, apperrors.ProductNotFound, "Product not found")
		case errors.Is(err, service.ErrProductAccessDenied):
			apperrors.Forbidden(c, "")
		default:
			log.Error("Failed to delete product", err, map[string]interface{}{
				"user_id":    userID,
				"product_id": productID,
			})
			apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, "delete product")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Product deleted successfully",
	})
}
