package app

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/sonarshop/storefront/internal/domain"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:embed seed/categories.csv
var seedCategoriesCSV []byte

//go:embed seed/products.csv
var seedProductsCSV []byte

type seedCategory struct {
	ID          int64  `csv:"id"`
	Name        string `csv:"name"`
	Description string `csv:"description"`
	ImageURL    string `csv:"image_url"`
}

type seedProduct struct {
	ID             int64  `csv:"id"`
	CategoryID     int64  `csv:"category_id"`
	Name           string `csv:"name"`
	Description    string `csv:"description"`
	Price          string `csv:"price"`
	OriginalPrice  string `csv:"original_price"`
	StockQuantity  int    `csv:"stock_quantity"`
	Brand          string `csv:"brand"`
	Model          string `csv:"model"`
	Specifications string `csv:"specifications"`
	ImageURL       string `csv:"image_url"`
	IsFeatured     bool   `csv:"is_featured"`
}

// SeedCategories returns the fixture categories.
func SeedCategories() ([]domain.Category, error) {
	var rows []seedCategory
	if err := gocsv.UnmarshalBytes(seedCategoriesCSV, &rows); err != nil {
		return nil, errors.Wrap(err, "decode seed categories")
	}
	out := make([]domain.Category, 0, len(rows))
	for _, r := range rows {
		c := domain.Category{
			ID:          r.ID,
			Name:        r.Name,
			Description: r.Description,
			ImageURL:    r.ImageURL,
		}
		if err := domain.Validate(&c); err != nil {
			return nil, errors.Wrapf(err, "seed category %d", r.ID)
		}
		out = append(out, c)
	}
	return out, nil
}

// SeedProducts returns the fixture products, all active.
func SeedProducts() ([]domain.Product, error) {
	var rows []seedProduct
	if err := gocsv.UnmarshalBytes(seedProductsCSV, &rows); err != nil {
		return nil, errors.Wrap(err, "decode seed products")
	}
	out := make([]domain.Product, 0, len(rows))
	for _, r := range rows {
		price, err := decimal.NewFromString(r.Price)
		if err != nil {
			return nil, errors.Wrapf(err, "seed product %d price", r.ID)
		}
		p := domain.Product{
			ID:             r.ID,
			CategoryID:     r.CategoryID,
			Name:           r.Name,
			Description:    r.Description,
			Price:          price,
			StockQuantity:  r.StockQuantity,
			Brand:          r.Brand,
			Model:          r.Model,
			Specifications: r.Specifications,
			ImageURL:       r.ImageURL,
			IsActive:       true,
			IsFeatured:     r.IsFeatured,
		}
		if s := strings.TrimSpace(r.OriginalPrice); s != "" {
			op, err := decimal.NewFromString(s)
			if err != nil {
				return nil, errors.Wrapf(err, "seed product %d original price", r.ID)
			}
			p.OriginalPrice = decimal.NewNullDecimal(op)
		}
		if err := domain.Validate(&p); err != nil {
			return nil, errors.Wrapf(err, "seed product %d", r.ID)
		}
		out = append(out, p)
	}
	return out, nil
}

// SeedCatalog inserts fixture rows whose ids are not present yet. Existing rows
// are never overwritten, so running it on every start is safe.
func (a *Application) SeedCatalog() error {
	categories, err := SeedCategories()
	if err != nil {
		return err
	}
	products, err := SeedProducts()
	if err != nil {
		return err
	}

	var created int
	err = a.gormDB.Transaction(func(tx *gorm.DB) error {
		now := tx.NowFunc()
		for _, c := range categories {
			var count int64
			if err := tx.Model(&domain.Category{}).Where("id = ?", c.ID).Count(&count).Error; err != nil {
				return errors.Wrap(err, "query category")
			}
			if count > 0 {
				continue
			}
			c.CreatedAt = now
			if err := tx.Create(&c).Error; err != nil {
				return errors.Wrapf(err, "create category %s", c.Name)
			}
			created++
			zap.L().Debug("initialized category", zap.Int64("id", c.ID), zap.String("name", c.Name))
		}
		for _, p := range products {
			var count int64
			if err := tx.Model(&domain.Product{}).Where("id = ?", p.ID).Count(&count).Error; err != nil {
				return errors.Wrap(err, "query product")
			}
			if count > 0 {
				continue
			}
			p.CreatedAt = now
			p.UpdatedAt = now
			if err := tx.Create(&p).Error; err != nil {
				return errors.Wrapf(err, "create product %s", p.Name)
			}
			created++
			zap.L().Debug("initialized product", zap.Int64("id", p.ID), zap.String("name", p.Name))
		}
		return nil
	})
	if err != nil {
		zap.L().Error("failed to seed catalog", zap.Error(err))
		return err
	}

	if created > 0 {
		if err := a.syncSequences("categories", "products"); err != nil {
			return err
		}
		zap.L().Info("seed catalog loaded", zap.Int("rows", created))
	}
	return nil
}

// syncSequences moves PostgreSQL serial sequences past explicitly inserted ids.
func (a *Application) syncSequences(tables ...string) error {
	if a.gormDB.Dialector.Name() != "postgres" {
		return nil
	}
	for _, table := range tables {
		sql := fmt.Sprintf("SELECT setval(pg_get_serial_sequence('%s', 'id'), (SELECT COALESCE(MAX(id), 1) FROM %s))", table, table)
		if err := a.gormDB.Exec(sql).Error; err != nil {
			return errors.Wrapf(err, "sync %s sequence", table)
		}
	}
	return nil
}
