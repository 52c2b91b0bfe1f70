package service

import (
	"context"
	"testing"

	"petmarket/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newCartFixture() (*memStore, *CartService) {
	db := newMemStore()
	return db, NewCartService(db)
}

func TestCartServiceAddProductMerges(t *testing.T) {
	db, svc := newCartFixture()

	product := db.addProduct("dog-food", 100, 10)
	cart := db.addCart()

	_, err := svc.AddProduct(context.Background(), cart.ID.Hex(), product.ID.Hex(), 2)
	require.NoError(t, err)
	updated, err := svc.AddProduct(context.Background(), cart.ID.Hex(), product.ID.Hex(), 3)
	require.NoError(t, err)

	require.Len(t, updated.Items, 1)
	assert.Equal(t, 5, updated.Items[0].Quantity)
}

func TestCartServiceAddProductValidatesQuantity(t *testing.T) {
	db, svc := newCartFixture()

	product := db.addProduct("dog-food", 100, 10)
	cart := db.addCart()

	_, err := svc.AddProduct(context.Background(), cart.ID.Hex(), product.ID.Hex(), 0)
	assert.ErrorIs(t, err, models.ErrValidation)

	_, err = svc.AddProduct(context.Background(), cart.ID.Hex(), product.ID.Hex(), -1)
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestCartServiceAddUnknownProduct(t *testing.T) {
	db, svc := newCartFixture()
	cart := db.addCart()

	_, err := svc.AddProduct(context.Background(), cart.ID.Hex(), primitive.NewObjectID().Hex(), 1)
	assert.ErrorIs(t, err, models.ErrProductNotFound)
}

func TestCartServiceSetQuantity(t *testing.T) {
	db, svc := newCartFixture()

	product := db.addProduct("cat-toy", 50, 10)
	cart := db.addCart(models.CartItem{Product: product.ID, Quantity: 1})

	updated, err := svc.SetQuantity(context.Background(), cart.ID.Hex(), product.ID.Hex(), 7)
	require.NoError(t, err)
	assert.Equal(t, 7, updated.Items[0].Quantity)

	// the line must already exist
	_, err = svc.SetQuantity(context.Background(), cart.ID.Hex(), primitive.NewObjectID().Hex(), 2)
	assert.ErrorIs(t, err, models.ErrProductNotFound)
}

func TestCartServiceReplaceItemsMergesDuplicates(t *testing.T) {
	db, svc := newCartFixture()

	product := db.addProduct("bird-seed", 30, 10)
	other := db.addProduct("fish-flakes", 20, 10)
	cart := db.addCart()

	err := svc.ReplaceItems(context.Background(), cart.ID.Hex(), []models.CartItem{
		{Product: product.ID, Quantity: 2},
		{Product: other.ID, Quantity: 1},
		{Product: product.ID, Quantity: 3},
	})
	require.NoError(t, err)

	items := db.carts[cart.ID].Items
	require.Len(t, items, 2)
	assert.Equal(t, product.ID, items[0].Product)
	assert.Equal(t, 5, items[0].Quantity)
	assert.Equal(t, other.ID, items[1].Product)
	assert.Equal(t, 1, items[1].Quantity)
}

func TestCartServiceReplaceItemsRejectsNonPositive(t *testing.T) {
	db, svc := newCartFixture()
	cart := db.addCart()

	err := svc.ReplaceItems(context.Background(), cart.ID.Hex(), []models.CartItem{
		{Product: primitive.NewObjectID(), Quantity: 0},
	})
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestCartServiceGetCartResolvesSubtotal(t *testing.T) {
	db, svc := newCartFixture()

	food := db.addProduct("dog-food", 100, 5)
	toy := db.addProduct("cat-toy", 50, 5)
	cart := db.addCart(
		models.CartItem{Product: food.ID, Quantity: 2},
		models.CartItem{Product: toy.ID, Quantity: 1},
	)

	resolved, err := svc.GetCart(context.Background(), cart.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, int64(250), resolved.Subtotal)
	require.Len(t, resolved.Items, 2)
	assert.Equal(t, "dog-food", resolved.Items[0].Product.Title)
}

func TestCartServiceClearCart(t *testing.T) {
	db, svc := newCartFixture()

	product := db.addProduct("dog-food", 100, 5)
	cart := db.addCart(models.CartItem{Product: product.ID, Quantity: 2})

	require.NoError(t, svc.ClearCart(context.Background(), cart.ID.Hex()))
	assert.Empty(t, db.carts[cart.ID].Items)
}
