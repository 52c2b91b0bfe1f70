package service

import (
	"context"
	"fmt"

	"petmarket/internal/models"
	"petmarket/internal/util"

	"go.uber.org/zap"
)

// CartService handles cart lifecycle and line-item mutation
type CartService struct {
	carts  CartStore
	logger *zap.Logger
}

// NewCartService creates a new cart service
func NewCartService(carts CartStore) *CartService {
	return &CartService{
		carts:  carts,
		logger: util.GetLogger(),
	}
}

// CreateCart creates a new empty cart
func (s *CartService) CreateCart(ctx context.Context) (*models.Cart, error) {
	cart, err := s.carts.CreateCart(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Cart created", zap.String("cart_id", cart.ID.Hex()))
	return cart, nil
}

// GetCart returns a cart with line items resolved and a subtotal
func (s *CartService) GetCart(ctx context.Context, id string) (*models.ResolvedCart, error) {
	return s.carts.GetCartResolved(ctx, id)
}

// AddProduct merges quantity into the cart's line for the product
func (s *CartService) AddProduct(ctx context.Context, cartID, productID string, quantity int) (*models.Cart, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive", models.ErrValidation)
	}
	return s.carts.AddCartItem(ctx, cartID, productID, quantity)
}

// RemoveProduct drops the product's line from the cart
func (s *CartService) RemoveProduct(ctx context.Context, cartID, productID string) (*models.Cart, error) {
	return s.carts.RemoveCartItem(ctx, cartID, productID)
}

// SetQuantity overwrites the quantity of an existing line
func (s *CartService) SetQuantity(ctx context.Context, cartID, productID string, quantity int) (*models.Cart, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive", models.ErrValidation)
	}
	return s.carts.SetCartItemQuantity(ctx, cartID, productID, quantity)
}

// ReplaceItems rewrites the cart contents wholesale. Duplicate product
// references collapse into a single merged line.
func (s *CartService) ReplaceItems(ctx context.Context, cartID string, items []models.CartItem) error {
	merged := make([]models.CartItem, 0, len(items))
	index := map[string]int{}
	for _, item := range items {
		if item.Quantity <= 0 {
			return fmt.Errorf("%w: quantity must be positive", models.ErrValidation)
		}
		key := item.Product.Hex()
		if i, ok := index[key]; ok {
			merged[i].Quantity += item.Quantity
			continue
		}
		index[key] = len(merged)
		merged = append(merged, item)
	}
	return s.carts.ReplaceCartItems(ctx, cartID, merged)
}

// ClearCart removes every line item
func (s *CartService) ClearCart(ctx context.Context, cartID string) error {
	return s.carts.ClearCart(ctx, cartID)
}
