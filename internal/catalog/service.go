// Package catalog answers read-only product and category queries. Every
// product query is limited to active products.
package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/sonarshop/storefront/internal/domain"
	"gorm.io/gorm"
)

// DefaultTopSellingCount is used when ListTopSellingProducts gets a non-positive count.
const DefaultTopSellingCount = 8

// SearchFilter narrows SearchProducts. Zero values mean "not filtered".
type SearchFilter struct {
	// Term is matched case-sensitively as a substring of name, description,
	// brand or model. A blank term disables text matching.
	Term       string
	CategoryID *int64
	MinPrice   *decimal.Decimal
	MaxPrice   *decimal.Decimal
	// Brand must equal the product brand exactly.
	Brand string
}

// Service is the catalog query service
type Service struct {
	db *gorm.DB
}

// NewService creates a catalog service over db
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// activeProducts starts a product query joined with its category.
func (s *Service) activeProducts(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).
		Model(&domain.Product{}).
		Joins("Category").
		Where("products.is_active = ?", true)
}

func byName(q *gorm.DB) *gorm.DB {
	return q.Order("products.name ASC").Order("products.id ASC")
}

// ListProducts returns every active product by name.
func (s *Service) ListProducts(ctx context.Context) ([]domain.Product, error) {
	var rows []domain.Product
	if err := byName(s.activeProducts(ctx)).Find(&rows).Error; err != nil {
		return nil, errors.Wrap(err, "list products")
	}
	return rows, nil
}

// ListFeaturedProducts returns active featured products by name.
func (s *Service) ListFeaturedProducts(ctx context.Context) ([]domain.Product, error) {
	var rows []domain.Product
	q := s.activeProducts(ctx).Where("products.is_featured = ?", true)
	if err := byName(q).Find(&rows).Error; err != nil {
		return nil, errors.Wrap(err, "list featured products")
	}
	return rows, nil
}

// ListProductsByCategory returns the active products of one category by name.
func (s *Service) ListProductsByCategory(ctx context.Context, categoryID int64) ([]domain.Product, error) {
	var rows []domain.Product
	q := s.activeProducts(ctx).Where("products.category_id = ?", categoryID)
	if err := byName(q).Find(&rows).Error; err != nil {
		return nil, errors.Wrapf(err, "list products of category %d", categoryID)
	}
	return rows, nil
}

// GetProductByID returns ok == false when the product is missing or inactive.
func (s *Service) GetProductByID(ctx context.Context, id int64) (*domain.Product, bool, error) {
	var p domain.Product
	err := s.activeProducts(ctx).Where("products.id = ?", id).First(&p).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, false, nil
	case err != nil:
		return nil, false, errors.Wrapf(err, "get product %d", id)
	}
	return &p, true, nil
}

// SearchProducts applies every supplied filter (AND) and orders by name.
func (s *Service) SearchProducts(ctx context.Context, f SearchFilter) ([]domain.Product, error) {
	q := s.activeProducts(ctx)

	if strings.TrimSpace(f.Term) != "" {
		fn := s.positionFunc()
		q = q.Where(fmt.Sprintf(
			"(%[1]s(products.name, ?) > 0 OR %[1]s(products.description, ?) > 0 OR %[1]s(products.brand, ?) > 0 OR %[1]s(products.model, ?) > 0)", fn),
			f.Term, f.Term, f.Term, f.Term)
	}
	if f.CategoryID != nil {
		q = q.Where("products.category_id = ?", *f.CategoryID)
	}
	if f.MinPrice != nil {
		q = q.Where("products.price >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		q = q.Where("products.price <= ?", *f.MaxPrice)
	}
	if strings.TrimSpace(f.Brand) != "" {
		q = q.Where("products.brand = ?", f.Brand)
	}

	var rows []domain.Product
	if err := byName(q).Find(&rows).Error; err != nil {
		return nil, errors.Wrap(err, "search products")
	}
	return rows, nil
}

// positionFunc names the dialect's case-sensitive substring position function.
// Both return 0 when the needle is absent.
func (s *Service) positionFunc() string {
	if s.db.Dialector.Name() == "postgres" {
		return "strpos"
	}
	return "instr"
}

// ListCategories returns all categories by name.
func (s *Service) ListCategories(ctx context.Context) ([]domain.Category, error) {
	var rows []domain.Category
	if err := s.db.WithContext(ctx).Order("name ASC").Order("id ASC").Find(&rows).Error; err != nil {
		return nil, errors.Wrap(err, "list categories")
	}
	return rows, nil
}

// GetCategoryByID returns ok == false when the category does not exist.
func (s *Service) GetCategoryByID(ctx context.Context, id int64) (*domain.Category, bool, error) {
	var c domain.Category
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&c).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, false, nil
	case err != nil:
		return nil, false, errors.Wrapf(err, "get category %d", id)
	}
	return &c, true, nil
}

// ListDistinctBrands returns the non-blank brands of active products, ascending.
func (s *Service) ListDistinctBrands(ctx context.Context) ([]string, error) {
	var brands []string
	err := s.db.WithContext(ctx).
		Model(&domain.Product{}).
		Where("is_active = ? AND brand IS NOT NULL AND brand <> ''", true).
		Distinct().
		Order("brand ASC").
		Pluck("brand", &brands).Error
	if err != nil {
		return nil, errors.Wrap(err, "list brands")
	}
	out := brands[:0]
	for _, b := range brands {
		if strings.TrimSpace(b) != "" {
			out = append(out, b)
		}
	}
	return out, nil
}

// ListTopSellingProducts ranks featured products first, then oldest first.
// There is no sales data behind it; the ordering is a stand-in.
func (s *Service) ListTopSellingProducts(ctx context.Context, count int) ([]domain.Product, error) {
	if count <= 0 {
		count = DefaultTopSellingCount
	}
	var rows []domain.Product
	err := s.activeProducts(ctx).
		Order("products.is_featured DESC").
		Order("products.created_at ASC").
		Order("products.id ASC").
		Limit(count).
		Find(&rows).Error
	if err != nil {
		return nil, errors.Wrap(err, "list top selling products")
	}
	return rows, nil
}
