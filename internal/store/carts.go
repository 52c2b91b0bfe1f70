package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"petmarket/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// CreateCart inserts a new empty cart
func (s *Store) CreateCart(ctx context.Context) (*models.Cart, error) {
	now := time.Now().UTC()
	cart := &models.Cart{
		Items:     []models.CartItem{},
		CreatedAt: now,
		UpdatedAt: now,
	}

	res, err := s.carts.InsertOne(ctx, cart)
	if err != nil {
		return nil, fmt.Errorf("failed to insert cart: %w", err)
	}

	cart.ID = res.InsertedID.(primitive.ObjectID)
	return cart, nil
}

// GetCart retrieves a cart with raw product references
func (s *Store) GetCart(ctx context.Context, id string) (*models.Cart, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}

	var cart models.Cart
	err = s.carts.FindOne(ctx, bson.M{"_id": oid}).Decode(&cart)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, models.ErrCartNotFound
	}
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

// GetCartResolved retrieves a cart with every line item resolved to the full
// product record. A line referencing a missing product fails the whole read.
func (s *Store) GetCartResolved(ctx context.Context, id string) (*models.ResolvedCart, error) {
	cart, err := s.GetCart(ctx, id)
	if err != nil {
		return nil, err
	}

	resolved := &models.ResolvedCart{
		ID:    cart.ID,
		Items: make([]models.ResolvedCartItem, 0, len(cart.Items)),
	}
	if len(cart.Items) == 0 {
		return resolved, nil
	}

	ids := make([]primitive.ObjectID, len(cart.Items))
	for i, item := range cart.Items {
		ids[i] = item.Product
	}

	cursor, err := s.products.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("failed to resolve cart products: %w", err)
	}

	var products []models.Product
	if err := cursor.All(ctx, &products); err != nil {
		return nil, err
	}

	byID := make(map[primitive.ObjectID]models.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	for _, item := range cart.Items {
		product, ok := byID[item.Product]
		if !ok {
			return nil, fmt.Errorf("%w: %s", models.ErrProductNotFound, item.Product.Hex())
		}
		resolved.Items = append(resolved.Items, models.ResolvedCartItem{
			Product:  product,
			Quantity: item.Quantity,
		})
		resolved.Subtotal += product.Price * int64(item.Quantity)
	}

	return resolved, nil
}

// AddCartItem merges a quantity into the cart: an existing line for the same
// product grows, otherwise a new line is appended. Keeps the
// no-duplicate-product invariant.
func (s *Store) AddCartItem(ctx context.Context, cartID, productID string, quantity int) (*models.Cart, error) {
	cart, err := s.GetCart(ctx, cartID)
	if err != nil {
		return nil, err
	}

	if _, err := s.GetProductByID(ctx, productID); err != nil {
		return nil, err
	}
	pid, _ := parseID(productID)

	merged := false
	for i := range cart.Items {
		if cart.Items[i].Product == pid {
			cart.Items[i].Quantity += quantity
			merged = true
			break
		}
	}
	if !merged {
		cart.Items = append(cart.Items, models.CartItem{Product: pid, Quantity: quantity})
	}

	return s.writeItems(ctx, cart.ID, cart.Items)
}

// RemoveCartItem drops the line for the given product, if present
func (s *Store) RemoveCartItem(ctx context.Context, cartID, productID string) (*models.Cart, error) {
	cart, err := s.GetCart(ctx, cartID)
	if err != nil {
		return nil, err
	}

	pid, err := parseID(productID)
	if err != nil {
		return nil, err
	}

	items := cart.Items[:0]
	for _, item := range cart.Items {
		if item.Product != pid {
			items = append(items, item)
		}
	}

	return s.writeItems(ctx, cart.ID, items)
}

// SetCartItemQuantity overwrites the quantity of an existing line
func (s *Store) SetCartItemQuantity(ctx context.Context, cartID, productID string, quantity int) (*models.Cart, error) {
	cart, err := s.GetCart(ctx, cartID)
	if err != nil {
		return nil, err
	}

	pid, err := parseID(productID)
	if err != nil {
		return nil, err
	}

	for i := range cart.Items {
		if cart.Items[i].Product == pid {
			cart.Items[i].Quantity = quantity
			return s.writeItems(ctx, cart.ID, cart.Items)
		}
	}
	return nil, models.ErrProductNotFound
}

// ReplaceCartItems rewrites the cart's line items wholesale
func (s *Store) ReplaceCartItems(ctx context.Context, cartID string, items []models.CartItem) error {
	oid, err := parseID(cartID)
	if err != nil {
		return err
	}
	if items == nil {
		items = []models.CartItem{}
	}
	_, err = s.writeItems(ctx, oid, items)
	return err
}

// ClearCart removes every line item
func (s *Store) ClearCart(ctx context.Context, cartID string) error {
	oid, err := parseID(cartID)
	if err != nil {
		return err
	}
	_, err = s.writeItems(ctx, oid, []models.CartItem{})
	return err
}

// DeleteCart removes the cart document
func (s *Store) DeleteCart(ctx context.Context, cartID string) error {
	oid, err := parseID(cartID)
	if err != nil {
		return err
	}

	res, err := s.carts.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return models.ErrCartNotFound
	}
	return nil
}

func (s *Store) writeItems(ctx context.Context, cartID primitive.ObjectID, items []models.CartItem) (*models.Cart, error) {
	now := time.Now().UTC()
	res, err := s.carts.UpdateOne(ctx,
		bson.M{"_id": cartID},
		bson.M{"$set": bson.M{"items": items, "updated_at": now}},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update cart items: %w", err)
	}
	if res.MatchedCount == 0 {
		return nil, models.ErrCartNotFound
	}
	return &models.Cart{ID: cartID, Items: items, UpdatedAt: now}, nil
}
