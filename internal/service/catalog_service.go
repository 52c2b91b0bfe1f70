package service

import (
	"context"
	"errors"
	"fmt"

	"petmarket/internal/models"
	"petmarket/internal/store"
	"petmarket/internal/util"

	"go.uber.org/zap"
)

// CatalogService handles product catalog operations
type CatalogService struct {
	products ProductStore
	logger   *zap.Logger
}

// NewCatalogService creates a new catalog service
func NewCatalogService(products ProductStore) *CatalogService {
	return &CatalogService{
		products: products,
		logger:   util.GetLogger(),
	}
}

// CreateProductRequest carries the fields required to add a product
type CreateProductRequest struct {
	Title       string   `json:"title" binding:"required"`
	Description string   `json:"description"`
	Code        string   `json:"code" binding:"required"`
	Price       int64    `json:"price" binding:"min=0"`
	Stock       int      `json:"stock" binding:"min=0"`
	Category    string   `json:"category" binding:"required"`
	Thumbnails  []string `json:"thumbnails"`
}

// CreateProduct adds a product to the catalog. Codes are unique.
func (s *CatalogService) CreateProduct(ctx context.Context, req *CreateProductRequest) (*models.Product, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.CreateProduct")
	defer span.End()

	thumbnails := req.Thumbnails
	if thumbnails == nil {
		thumbnails = []string{}
	}

	product, err := s.products.CreateProduct(ctx, &models.Product{
		Title:       req.Title,
		Description: req.Description,
		Code:        req.Code,
		Price:       req.Price,
		Status:      true,
		Stock:       req.Stock,
		Category:    req.Category,
		Thumbnails:  thumbnails,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Product created",
		zap.String("product_id", product.ID.Hex()),
		zap.String("code", product.Code))
	return product, nil
}

// GetProduct returns a product by identifier
func (s *CatalogService) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	return s.products.GetProductByID(ctx, id)
}

// ListProducts returns a filtered, paginated catalog page. The query value
// matches a category, or "available"/"unavailable" for the active flag.
func (s *CatalogService) ListProducts(ctx context.Context, query, sort string, page, limit int) (*store.ProductPage, error) {
	filter := store.ProductFilter{Sort: sort, Page: page, Limit: limit}
	switch query {
	case "":
	case "available":
		t := true
		filter.Status = &t
	case "unavailable":
		f := false
		filter.Status = &f
	default:
		filter.Category = query
	}
	return s.products.ListProducts(ctx, filter)
}

// UpdateProduct applies a partial update
func (s *CatalogService) UpdateProduct(ctx context.Context, id string, update map[string]interface{}) (*models.Product, error) {
	// Identity and counters never move through the generic update path.
	delete(update, "_id")
	delete(update, "id")
	delete(update, "stock")

	if len(update) == 0 {
		return nil, fmt.Errorf("%w: empty update", models.ErrValidation)
	}
	return s.products.UpdateProduct(ctx, id, update)
}

// DeleteProduct removes a product from the catalog
func (s *CatalogService) DeleteProduct(ctx context.Context, id string) error {
	if err := s.products.DeleteProduct(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Product deleted", zap.String("product_id", id))
	return nil
}

// AdjustStock changes stock by a signed delta. Negative deltas go through
// the guarded decrement so stock cannot cross zero.
func (s *CatalogService) AdjustStock(ctx context.Context, id string, delta int) (*models.Product, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.AdjustStock")
	defer span.End()

	switch {
	case delta > 0:
		if err := s.products.IncrementStock(ctx, id, delta); err != nil {
			return nil, err
		}
	case delta < 0:
		if _, err := s.products.DecrementStock(ctx, id, -delta); err != nil {
			if errors.Is(err, models.ErrInsufficientStock) {
				return nil, models.ErrInsufficientStock
			}
			return nil, err
		}
	}
	return s.products.GetProductByID(ctx, id)
}
