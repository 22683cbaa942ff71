package service

import (
	"errors"

	"github.com/electroegy/electroegy-backend/internal/app/model"
	"github.com/electroegy/electroegy-backend/internal/app/repository"
	"github.com/electroegy/electroegy-backend/pkg/logger"
	"gorm.io/gorm"
)

var (
	ErrProductAccessDenied = errors.New("no access to this product")
	ErrInvalidProductData  = errors.New("invalid product data")
)

const (
	DefaultPageSize     = 20
	MaxPageSize         = 100
	RecommendationLimit = 10
)

// ProductListInput is the query surface of the catalog listing.
type ProductListInput struct {
	Keyword       string
	Name          string
	Category      string
	Brand         string
	MinPrice      *float64
	MaxPrice      *float64
	SortBy        string
	SortAscending bool
	Page          int
	PageSize      int
}

// ProductPage is one page of catalog results.
type ProductPage struct {
	Products   []model.Product `json:"products"`
	Total      int64           `json:"total"`
	Page       int             `json:"page"`
	PageSize   int             `json:"page_size"`
	TotalPages int             `json:"total_pages"`
}

// ProductInput carries the writable product fields.
type ProductInput struct {
	Name        string
	Description string
	Brand       string
	Category    string
	Price       float64
	Stock       int
	ImageURL    string
}

type ProductService interface {
	ListProducts(input ProductListInput) (*ProductPage, error)
	GetProduct(id uint) (*model.Product, error)
	CreateProduct(userID uint, input ProductInput) (*model.Product, error)
	UpdateProduct(requesterID uint, isStaff bool, productID uint, input ProductInput) (*model.Product, error)
	DeleteProduct(requesterID uint, isStaff bool, productID uint) error
	GetRecommendations(userID uint) ([]model.Product, error)
	GetAllProducts() ([]model.Product, error)
}

type productService struct {
	productRepo repository.ProductRepository
	orderRepo   repository.OrderRepository
}

func NewProductService(
	productRepo repository.ProductRepository,
	orderRepo repository.OrderRepository,
) ProductService {
	return &productService{
		productRepo: productRepo,
		orderRepo:   orderRepo,
	}
}

func (s *productService) ListProducts(input ProductListInput) (*ProductPage, error) {
	logger.Debug("Listing products", map[string]interface{}{
		"keyword":  input.Keyword,
		"category": input.Category,
		"brand":    input.Brand,
		"page":     input.Page,
	})

	page := input.Page
	if page < 1 {
		page = 1
	}
	pageSize := input.PageSize
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}

	filter := repository.ProductFilter{
		Keyword:       input.Keyword,
		Name:          input.Name,
		Category:      input.Category,
		Brand:         input.Brand,
		MinPrice:      input.MinPrice,
		MaxPrice:      input.MaxPrice,
		SortBy:        repository.ProductSort(input.SortBy),
		SortAscending: input.SortAscending,
		Limit:         pageSize,
		Offset:        (page - 1) * pageSize,
	}

	total, err := s.productRepo.CountWithFilter(filter)
	if err != nil {
		return nil, err
	}

	products, err := s.productRepo.FindWithFilter(filter)
	if err != nil {
		return nil, err
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))

	logger.Debug("Products listed", map[string]interface{}{
		"total":       total,
		"page":        page,
		"page_size":   pageSize,
		"total_pages": totalPages,
	})

	return &ProductPage{
		Products:   products,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}, nil
}

func (s *productService) GetProduct(id uint) (*model.Product, error) {
	logger.Debug("Fetching product", map[string]interface{}{
		"product_id": id,
	})

	product, err := s.productRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Product not found", map[string]interface{}{
				"product_id": id,
			})
			return nil, ErrProductNotFound
		}
		return nil, err
	}

	return product, nil
}

func (s *productService) CreateProduct(userID uint, input ProductInput) (*model.Product, error) {
	logger.Info("Creating product", map[string]interface{}{
		"user_id": userID,
		"name":    input.Name,
	})

	if input.Name == "" || input.Price <= 0 || input.Stock < 0 {
		logger.Warn("Invalid product data", map[string]interface{}{
			"user_id": userID,
			"name":    input.Name,
			"price":   input.Price,
			"stock":   input.Stock,
		})
		return nil, ErrInvalidProductData
	}

	product := &model.Product{
		UserID:      userID,
		Name:        input.Name,
		Description: input.Description,
		Brand:       input.Brand,
		Category:    input.Category,
		Price:       input.Price,
		Stock:       input.Stock,
		ImageURL:    input.ImageURL,
	}

	if err := s.productRepo.Create(product); err != nil {
		return nil, err
	}

	logger.Info("Product created", map[string]interface{}{
		"product_id": product.ID,
		"name":       product.Name,
	})

	return product, nil
}

func (s *productService) UpdateProduct(requesterID uint, isStaff bool, productID uint, input ProductInput) (*model.Product, error) {
	logger.Info("Updating product", map[string]interface{}{
		"requester_id": requesterID,
		"product_id":   productID,
	})

	product, err := s.GetProduct(productID)
	if err != nil {
		return nil, err
	}

	if !isStaff && product.UserID != requesterID {
		logger.Warn("Product update denied", map[string]interface{}{
			"requester_id": requesterID,
			"product_id":   productID,
			"owner_id":     product.UserID,
		})
		return nil, ErrProductAccessDenied
	}

	if input.Name == "" || input.Price <= 0 || input.Stock < 0 {
		logger.Warn("Invalid product data for update", map[string]interface{}{
			"product_id": productID,
			"name":       input.Name,
			"price":      input.Price,
		})
		return nil, ErrInvalidProductData
	}

	product.Name = input.Name
	product.Description = input.Description
	product.Brand = input.Brand
	product.Category = input.Category
	product.Price = input.Price
	product.Stock = input.Stock
	product.ImageURL = input.ImageURL

	if err := s.productRepo.Update(product); err != nil {
		return nil, err
	}

	logger.Info("Product updated", map[string]interface{}{
		"product_id": product.ID,
		"name":       product.Name,
	})

	return product, nil
}

func (s *productService) DeleteProduct(requesterID uint, isStaff bool, productID uint) error {
	logger.Info("Deleting product", map[string]interface{}{
		"requester_id": requesterID,
		"product_id":   productID,
	})

	product, err := s.GetProduct(productID)
	if err != nil {
		return err
	}

	if !isStaff && product.UserID != requesterID {
		logger.Warn("Product deletion denied", map[string]interface{}{
			"requester_id": requesterID,
			"product_id":   productID,
			"owner_id":     product.UserID,
		})
		return ErrProductAccessDenied
	}

	if err := s.productRepo.Delete(productID); err != nil {
		return err
	}

	logger.Info("Product deleted", map[string]interface{}{
		"product_id": productID,
	})
	return nil
}

// GetRecommendations suggests products from categories the user has
// ordered before. Users without order history get the top-rated products
// instead.
func (s *productService) GetRecommendations(userID uint) ([]model.Product, error) {
	logger.Debug("Fetching recommendations", map[string]interface{}{
		"user_id": userID,
	})

	categories, err := s.orderRepo.FindOrderedCategories(userID)
	if err != nil {
		return nil, err
	}

	if len(categories) == 0 {
		logger.Debug("No order history, falling back to top rated", map[string]interface{}{
			"user_id": userID,
		})
		return s.productRepo.FindWithFilter(repository.ProductFilter{
			SortBy: repository.ProductSortRating,
			Limit:  RecommendationLimit,
		})
	}

	return s.productRepo.FindByCategories(categories, RecommendationLimit)
}

// GetAllProducts returns the unpaginated catalog. Used by the staff export.
func (s *productService) GetAllProducts() ([]model.Product, error) {
	return s.productRepo.FindAll()
}
