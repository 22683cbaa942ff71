package repository

import (
	"fmt"

	"github.com/electroegy/electroegy-backend/internal/app/model"
	"github.com/electroegy/electroegy-backend/pkg/logger"
	"gorm.io/gorm"
)

// ProductSort enumerates the supported list orderings.
type ProductSort string

const (
	ProductSortCreatedAt ProductSort = "created_at"
	ProductSortPrice     ProductSort = "price"
	ProductSortRating    ProductSort = "rating"
	ProductSortName      ProductSort = "name"
)

// ProductFilter narrows and orders product listings. Zero values mean
// "no constraint"; Limit<=0 disables pagination.
type ProductFilter struct {
	Keyword       string
	Name          string
	Category      string
	Brand         string
	MinPrice      *float64
	MaxPrice      *float64
	UserID        *uint
	SortBy        ProductSort
	SortAscending bool
	Limit         int
	Offset        int
}

type ProductRepository interface {
	Create(product *model.Product) error
	BulkCreate(products []model.Product, batchSize int) error
	FindAll() ([]model.Product, error)
	FindWithFilter(filter ProductFilter) ([]model.Product, error)
	CountWithFilter(filter ProductFilter) (int64, error)
	FindByID(id uint) (*model.Product, error)
	FindByCategories(categories []string, limit int) ([]model.Product, error)
	Update(product *model.Product) error
	UpdateRating(id uint, rating float64) error
	Delete(id uint) error
}

type productRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) Create(product *model.Product) error {
	logger.Debug("Creating product in database", map[string]interface{}{
		"name":     product.Name,
		"category": product.Category,
		"brand":    product.Brand,
		"user_id":  product.UserID,
	})

	if err := r.db.Create(product).Error; err != nil {
		logger.Error("Failed to create product in database", err, map[string]interface{}{
			"name":     product.Name,
			"category": product.Category,
			"user_id":  product.UserID,
		})
		return err
	}

	logger.Debug("Product created in database", map[string]interface{}{
		"product_id": product.ID,
		"name":       product.Name,
		"user_id":    product.UserID,
	})
	return nil
}

// BulkCreate inserts products in batches. Used by the catalog import.
func (r *productRepository) BulkCreate(products []model.Product, batchSize int) error {
	logger.Debug("Bulk creating products in database", map[string]interface{}{
		"count":      len(products),
		"batch_size": batchSize,
	})

	if err := r.db.CreateInBatches(products, batchSize).Error; err != nil {
		logger.Error("Failed to bulk create products in database", err, map[string]interface{}{
			"count": len(products),
		})
		return err
	}

	logger.Debug("Products bulk created in database", map[string]interface{}{
		"count": len(products),
	})
	return nil
}

func (r *productRepository) applyFilter(query *gorm.DB, filter ProductFilter) *gorm.DB {
	if filter.Keyword != "" {
		like := fmt.Sprintf("%%%s%%", filter.Keyword)
		query = query.Where("products.name LIKE ? OR products.description LIKE ?", like, like)
	}
	if filter.Name != "" {
		query = query.Where("products.name = ?", filter.Name)
	}
	if filter.Category != "" {
		query = query.Where("products.category = ?", filter.Category)
	}
	if filter.Brand != "" {
		query = query.Where("products.brand = ?", filter.Brand)
	}
	if filter.MinPrice != nil {
		query = query.Where("products.price >= ?", *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		query = query.Where("products.price <= ?", *filter.MaxPrice)
	}
	if filter.UserID != nil {
		query = query.Where("products.user_id = ?", *filter.UserID)
	}
	return query
}

func (r *productRepository) FindAll() ([]model.Product, error) {
	return r.FindWithFilter(ProductFilter{})
}

func (r *productRepository) FindWithFilter(filter ProductFilter) ([]model.Product, error) {
	logger.Debug("Finding products with filter", map[string]interface{}{
		"keyword":  filter.Keyword,
		"name":     filter.Name,
		"category": filter.Category,
		"brand":    filter.Brand,
		"sort_by":  filter.SortBy,
		"limit":    filter.Limit,
		"offset":   filter.Offset,
	})

	query := r.applyFilter(r.db.Model(&model.Product{}), filter)

	direction := "DESC"
	if filter.SortAscending {
		direction = "ASC"
	}
	switch filter.SortBy {
	case ProductSortPrice:
		query = query.Order("products.price " + direction)
	case ProductSortRating:
		query = query.Order("products.rating " + direction)
		query = query.Order("products.created_at DESC")
	case ProductSortName:
		query = query.Order("products.name " + direction)
	case ProductSortCreatedAt:
		fallthrough
	default:
		query = query.Order("products.created_at " + direction)
	}

	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	var products []model.Product
	if err := query.Find(&products).Error; err != nil {
		logger.Error("Failed to find products with filter", err, map[string]interface{}{
			"keyword":  filter.Keyword,
			"category": filter.Category,
			"brand":    filter.Brand,
		})
		return nil, err
	}

	logger.Debug("Products found with filter", map[string]interface{}{
		"count": len(products),
	})
	return products, nil
}

func (r *productRepository) CountWithFilter(filter ProductFilter) (int64, error) {
	logger.Debug("Counting products with filter", map[string]interface{}{
		"keyword":  filter.Keyword,
		"category": filter.Category,
		"brand":    filter.Brand,
	})

	var count int64
	query := r.applyFilter(r.db.Model(&model.Product{}), filter)
	if err := query.Count(&count).Error; err != nil {
		logger.Error("Failed to count products with filter", err, map[string]interface{}{
			"keyword":  filter.Keyword,
			"category": filter.Category,
		})
		return 0, err
	}

	logger.Debug("Products counted with filter", map[string]interface{}{
		"count": count,
	})
	return count, nil
}

func (r *productRepository) FindByID(id uint) (*model.Product, error) {
	logger.Debug("Finding product by ID in database", map[string]interface{}{
		"product_id": id,
	})

	var product model.Product
	if err := r.db.First(&product, id).Error; err != nil {
		logger.Error("Failed to find product by ID in database", err, map[string]interface{}{
			"product_id": id,
		})
		return nil, err
	}

	logger.Debug("Product found by ID in database", map[string]interface{}{
		"product_id": product.ID,
		"name":       product.Name,
	})
	return &product, nil
}

func (r *productRepository) FindByCategories(categories []string, limit int) ([]model.Product, error) {
	logger.Debug("Finding products by categories in database", map[string]interface{}{
		"categories": categories,
		"limit":      limit,
	})

	query := r.db.Model(&model.Product{}).
		Where("category IN ?", categories).
		Order("rating DESC").
		Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var products []model.Product
	if err := query.Find(&products).Error; err != nil {
		logger.Error("Failed to find products by categories in database", err, map[string]interface{}{
			"categories": categories,
		})
		return nil, err
	}

	logger.Debug("Products found by categories in database", map[string]interface{}{
		"categories": categories,
		"count":      len(products),
	})
	return products, nil
}

func (r *productRepository) Update(product *model.Product) error {
	logger.Debug("Updating product in database", map[string]interface{}{
		"product_id": product.ID,
		"name":       product.Name,
	})

	if err := r.db.Save(product).Error; err != nil {
		logger.Error("Failed to update product in database", err, map[string]interface{}{
			"product_id": product.ID,
			"name":       product.Name,
		})
		return err
	}

	logger.Debug("Product updated in database", map[string]interface{}{
		"product_id": product.ID,
		"name":       product.Name,
	})
	return nil
}

func (r *productRepository) UpdateRating(id uint, rating float64) error {
	logger.Debug("Updating product rating in database", map[string]interface{}{
		"product_id": id,
		"rating":     rating,
	})

	if err := r.db.Model(&model.Product{}).Where("id = ?", id).
		Update("rating", rating).Error; err != nil {
		logger.Error("Failed to update product rating in database", err, map[string]interface{}{
			"product_id": id,
			"rating":     rating,
		})
		return err
	}

	logger.Debug("Product rating updated in database", map[string]interface{}{
		"product_id": id,
		"rating":     rating,
	})
	return nil
}

func (r *productRepository) Delete(id uint) error {
	logger.Debug("Deleting product from database", map[string]interface{}{
		"product_id": id,
	})

	if err := r.db.Delete(&model.Product{}, id).Error; err != nil {
		logger.Error("Failed to delete product from database", err, map[string]interface{}{
			"product_id": id,
		})
		return err
	}

	logger.Debug("Product deleted from database", map[string]interface{}{
		"product_id": id,
	})
	return nil
}
