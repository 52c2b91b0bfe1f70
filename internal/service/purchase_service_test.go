package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"petmarket/internal/models"
	"petmarket/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// memStore is an in-memory stand-in for the Mongo store, with the same
// conditional-decrement semantics.
type memStore struct {
	products map[primitive.ObjectID]*models.Product
	carts    map[primitive.ObjectID]*models.Cart
	tickets  []*models.Ticket

	failTicketCreate bool
}

func newMemStore() *memStore {
	return &memStore{
		products: map[primitive.ObjectID]*models.Product{},
		carts:    map[primitive.ObjectID]*models.Cart{},
	}
}

func (m *memStore) addProduct(title string, price int64, stock int) *models.Product {
	p := &models.Product{
		ID:     primitive.NewObjectID(),
		Title:  title,
		Code:   title,
		Price:  price,
		Status: true,
		Stock:  stock,
	}
	m.products[p.ID] = p
	return p
}

func (m *memStore) addCart(items ...models.CartItem) *models.Cart {
	cart := &models.Cart{ID: primitive.NewObjectID(), Items: items}
	m.carts[cart.ID] = cart
	return cart
}

// --- ProductStore ---

func (m *memStore) CreateProduct(_ context.Context, p *models.Product) (*models.Product, error) {
	p.ID = primitive.NewObjectID()
	m.products[p.ID] = p
	return p, nil
}

func (m *memStore) GetProductByID(_ context.Context, id string) (*models.Product, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, models.ErrInvalidID
	}
	p, ok := m.products[oid]
	if !ok {
		return nil, models.ErrProductNotFound
	}
	return p, nil
}

func (m *memStore) GetProductByCode(_ context.Context, code string) (*models.Product, error) {
	for _, p := range m.products {
		if p.Code == code {
			return p, nil
		}
	}
	return nil, models.ErrProductNotFound
}

func (m *memStore) ListProducts(_ context.Context, _ store.ProductFilter) (*store.ProductPage, error) {
	page := &store.ProductPage{Page: 1, TotalPages: 1}
	for _, p := range m.products {
		page.Docs = append(page.Docs, *p)
	}
	page.Total = int64(len(page.Docs))
	return page, nil
}

func (m *memStore) UpdateProduct(_ context.Context, id string, _ map[string]interface{}) (*models.Product, error) {
	return m.GetProductByID(context.Background(), id)
}

func (m *memStore) DeleteProduct(_ context.Context, id string) error {
	oid, _ := primitive.ObjectIDFromHex(id)
	if _, ok := m.products[oid]; !ok {
		return models.ErrProductNotFound
	}
	delete(m.products, oid)
	return nil
}

func (m *memStore) DecrementStock(_ context.Context, id string, amount int) (int, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return 0, models.ErrInvalidID
	}
	p, ok := m.products[oid]
	if !ok {
		return 0, models.ErrProductNotFound
	}
	if p.Stock < amount {
		return 0, models.ErrInsufficientStock
	}
	p.Stock -= amount
	return p.Stock, nil
}

func (m *memStore) IncrementStock(_ context.Context, id string, amount int) error {
	oid, _ := primitive.ObjectIDFromHex(id)
	p, ok := m.products[oid]
	if !ok {
		return models.ErrProductNotFound
	}
	p.Stock += amount
	return nil
}

// --- CartStore ---

func (m *memStore) CreateCart(_ context.Context) (*models.Cart, error) {
	cart := &models.Cart{ID: primitive.NewObjectID(), Items: []models.CartItem{}}
	m.carts[cart.ID] = cart
	return cart, nil
}

func (m *memStore) GetCart(_ context.Context, id string) (*models.Cart, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, models.ErrInvalidID
	}
	cart, ok := m.carts[oid]
	if !ok {
		return nil, models.ErrCartNotFound
	}
	return cart, nil
}

func (m *memStore) GetCartResolved(ctx context.Context, id string) (*models.ResolvedCart, error) {
	cart, err := m.GetCart(ctx, id)
	if err != nil {
		return nil, err
	}
	resolved := &models.ResolvedCart{ID: cart.ID}
	for _, item := range cart.Items {
		p, ok := m.products[item.Product]
		if !ok {
			return nil, models.ErrProductNotFound
		}
		resolved.Items = append(resolved.Items, models.ResolvedCartItem{Product: *p, Quantity: item.Quantity})
		resolved.Subtotal += p.Price * int64(item.Quantity)
	}
	return resolved, nil
}

func (m *memStore) AddCartItem(ctx context.Context, cartID, productID string, quantity int) (*models.Cart, error) {
	cart, err := m.GetCart(ctx, cartID)
	if err != nil {
		return nil, err
	}
	if _, err := m.GetProductByID(ctx, productID); err != nil {
		return nil, err
	}
	pid, _ := primitive.ObjectIDFromHex(productID)
	for i := range cart.Items {
		if cart.Items[i].Product == pid {
			cart.Items[i].Quantity += quantity
			return cart, nil
		}
	}
	cart.Items = append(cart.Items, models.CartItem{Product: pid, Quantity: quantity})
	return cart, nil
}

func (m *memStore) RemoveCartItem(ctx context.Context, cartID, productID string) (*models.Cart, error) {
	cart, err := m.GetCart(ctx, cartID)
	if err != nil {
		return nil, err
	}
	pid, _ := primitive.ObjectIDFromHex(productID)
	items := cart.Items[:0]
	for _, item := range cart.Items {
		if item.Product != pid {
			items = append(items, item)
		}
	}
	cart.Items = items
	return cart, nil
}

func (m *memStore) SetCartItemQuantity(ctx context.Context, cartID, productID string, quantity int) (*models.Cart, error) {
	cart, err := m.GetCart(ctx, cartID)
	if err != nil {
		return nil, err
	}
	pid, _ := primitive.ObjectIDFromHex(productID)
	for i := range cart.Items {
		if cart.Items[i].Product == pid {
			cart.Items[i].Quantity = quantity
			return cart, nil
		}
	}
	return nil, models.ErrProductNotFound
}

func (m *memStore) ReplaceCartItems(ctx context.Context, cartID string, items []models.CartItem) error {
	cart, err := m.GetCart(ctx, cartID)
	if err != nil {
		return err
	}
	cart.Items = items
	return nil
}

func (m *memStore) ClearCart(ctx context.Context, cartID string) error {
	return m.ReplaceCartItems(ctx, cartID, []models.CartItem{})
}

func (m *memStore) DeleteCart(_ context.Context, cartID string) error {
	oid, _ := primitive.ObjectIDFromHex(cartID)
	delete(m.carts, oid)
	return nil
}

// --- TicketStore ---

func (m *memStore) CreateTicket(_ context.Context, ticket *models.Ticket) (*models.Ticket, error) {
	if m.failTicketCreate {
		return nil, errors.New("ticket store unavailable")
	}
	ticket.ID = primitive.NewObjectID()
	ticket.Code = "TICKET-TEST"
	ticket.PurchaseDatetime = time.Now()
	m.tickets = append(m.tickets, ticket)
	return ticket, nil
}

func (m *memStore) GetTicketByID(_ context.Context, id string) (*models.Ticket, error) {
	for _, t := range m.tickets {
		if t.ID.Hex() == id {
			return t, nil
		}
	}
	return nil, models.ErrTicketNotFound
}

func (m *memStore) GetTicketsByPurchaser(_ context.Context, email string) ([]models.Ticket, error) {
	var out []models.Ticket
	for _, t := range m.tickets {
		if t.Purchaser == email {
			out = append(out, *t)
		}
	}
	return out, nil
}

// fakePublisher records published events
type fakePublisher struct {
	ticketIssued   []*models.TicketIssuedEvent
	stockDepleted  []*models.StockDepletedEvent
	userRegistered []*models.UserRegisteredEvent
	resetRequested []*models.PasswordResetRequestedEvent
}

func (f *fakePublisher) PublishTicketIssued(_ context.Context, e *models.TicketIssuedEvent) error {
	f.ticketIssued = append(f.ticketIssued, e)
	return nil
}

func (f *fakePublisher) PublishStockDepleted(_ context.Context, e *models.StockDepletedEvent) error {
	f.stockDepleted = append(f.stockDepleted, e)
	return nil
}

func (f *fakePublisher) PublishUserRegistered(_ context.Context, e *models.UserRegisteredEvent) error {
	f.userRegistered = append(f.userRegistered, e)
	return nil
}

func (f *fakePublisher) PublishPasswordResetRequested(_ context.Context, e *models.PasswordResetRequestedEvent) error {
	f.resetRequested = append(f.resetRequested, e)
	return nil
}

func newPurchaseFixture() (*memStore, *fakePublisher, *PurchaseService) {
	db := newMemStore()
	publisher := &fakePublisher{}
	return db, publisher, NewPurchaseService(db, db, db, publisher)
}

func TestProcessPurchaseAllFulfilled(t *testing.T) {
	db, publisher, svc := newPurchaseFixture()

	food := db.addProduct("dog-food", 100, 5)
	toy := db.addProduct("cat-toy", 50, 4)
	cart := db.addCart(
		models.CartItem{Product: food.ID, Quantity: 3},
		models.CartItem{Product: toy.ID, Quantity: 4},
	)

	result, err := svc.ProcessPurchase(context.Background(), cart.ID.Hex(), "ana@example.com")
	require.NoError(t, err)

	assert.True(t, result.Completed)
	assert.Equal(t, 2, result.FulfilledCount)
	assert.Equal(t, 0, result.UnfulfilledCount)
	assert.Equal(t, int64(3*100+4*50), result.TotalAmount)

	require.NotNil(t, result.Ticket)
	assert.Equal(t, "ana@example.com", result.Ticket.Purchaser)
	assert.Equal(t, result.TotalAmount, result.Ticket.Amount)
	assert.Len(t, result.Ticket.Products, 2)
	assert.Empty(t, result.Ticket.ProductsUnavailable)

	assert.Equal(t, 2, food.Stock)
	assert.Equal(t, 0, toy.Stock)
	assert.Empty(t, db.carts[cart.ID].Items)

	// toy hit zero, so a depletion event went out
	require.Len(t, publisher.stockDepleted, 1)
	assert.Equal(t, toy.ID.Hex(), publisher.stockDepleted[0].ProductID)
	require.Len(t, publisher.ticketIssued, 1)
	assert.True(t, publisher.ticketIssued[0].Completed)
}

func TestProcessPurchasePartiallyFulfilled(t *testing.T) {
	db, publisher, svc := newPurchaseFixture()

	productA := db.addProduct("product-a", 100, 5)
	productB := db.addProduct("product-b", 50, 2)
	cart := db.addCart(
		models.CartItem{Product: productA.ID, Quantity: 3},
		models.CartItem{Product: productB.ID, Quantity: 10},
	)

	result, err := svc.ProcessPurchase(context.Background(), cart.ID.Hex(), "bruno@example.com")
	require.NoError(t, err)

	assert.False(t, result.Completed)
	assert.Equal(t, 1, result.FulfilledCount)
	assert.Equal(t, 1, result.UnfulfilledCount)
	assert.Equal(t, int64(300), result.TotalAmount)

	assert.Equal(t, 2, productA.Stock)
	assert.Equal(t, 2, productB.Stock, "insufficient line must not touch stock")

	require.NotNil(t, result.Ticket)
	require.Len(t, result.Ticket.Products, 1)
	assert.Equal(t, productA.ID, result.Ticket.Products[0].Product)
	assert.Equal(t, 3, result.Ticket.Products[0].Quantity)
	assert.Equal(t, int64(100), result.Ticket.Products[0].Price)

	require.Len(t, result.Ticket.ProductsUnavailable, 1)
	unavailable := result.Ticket.ProductsUnavailable[0]
	assert.Equal(t, productB.ID, unavailable.Product)
	assert.Equal(t, 10, unavailable.RequestedQuantity)
	assert.Equal(t, 2, unavailable.AvailableStock)

	// cart keeps only the unfulfilled remainder at the requested quantity
	items := db.carts[cart.ID].Items
	require.Len(t, items, 1)
	assert.Equal(t, productB.ID, items[0].Product)
	assert.Equal(t, 10, items[0].Quantity)

	require.Len(t, publisher.ticketIssued, 1)
	assert.False(t, publisher.ticketIssued[0].Completed)
}

func TestProcessPurchaseNothingFulfillable(t *testing.T) {
	db, publisher, svc := newPurchaseFixture()

	product := db.addProduct("rare-item", 500, 1)
	cart := db.addCart(models.CartItem{Product: product.ID, Quantity: 2})

	result, err := svc.ProcessPurchase(context.Background(), cart.ID.Hex(), "carla@example.com")
	require.NoError(t, err)

	assert.Nil(t, result.Ticket)
	assert.False(t, result.Completed)
	assert.Equal(t, 0, result.FulfilledCount)
	assert.Equal(t, 1, result.UnfulfilledCount)
	assert.Equal(t, int64(0), result.TotalAmount)

	assert.Equal(t, 1, product.Stock)
	assert.Empty(t, db.tickets)
	assert.Empty(t, publisher.ticketIssued)

	// cart content unchanged
	items := db.carts[cart.ID].Items
	require.Len(t, items, 1)
	assert.Equal(t, product.ID, items[0].Product)
	assert.Equal(t, 2, items[0].Quantity)
}

func TestProcessPurchaseCartNotFound(t *testing.T) {
	db, _, svc := newPurchaseFixture()
	product := db.addProduct("dog-food", 100, 5)

	_, err := svc.ProcessPurchase(context.Background(), primitive.NewObjectID().Hex(), "diego@example.com")
	assert.ErrorIs(t, err, models.ErrCartNotFound)

	assert.Equal(t, 5, product.Stock)
	assert.Empty(t, db.tickets)
}

func TestProcessPurchaseEmptyCart(t *testing.T) {
	db, _, svc := newPurchaseFixture()
	cart := db.addCart()

	_, err := svc.ProcessPurchase(context.Background(), cart.ID.Hex(), "elena@example.com")
	assert.ErrorIs(t, err, models.ErrEmptyCart)
	assert.Empty(t, db.tickets)
}

func TestProcessPurchaseMissingProductIsTerminal(t *testing.T) {
	db, _, svc := newPurchaseFixture()

	cart := db.addCart(models.CartItem{Product: primitive.NewObjectID(), Quantity: 1})

	_, err := svc.ProcessPurchase(context.Background(), cart.ID.Hex(), "franco@example.com")
	assert.ErrorIs(t, err, models.ErrProductNotFound)
	assert.Empty(t, db.tickets)
}

func TestProcessPurchaseTicketFailureRestoresStock(t *testing.T) {
	db, _, svc := newPurchaseFixture()
	db.failTicketCreate = true

	product := db.addProduct("dog-food", 100, 5)
	cart := db.addCart(models.CartItem{Product: product.ID, Quantity: 3})

	_, err := svc.ProcessPurchase(context.Background(), cart.ID.Hex(), "gina@example.com")
	require.Error(t, err)

	assert.Equal(t, 5, product.Stock, "decrement must be compensated")
	assert.Empty(t, db.tickets)

	// cart untouched by the failed attempt
	items := db.carts[cart.ID].Items
	require.Len(t, items, 1)
	assert.Equal(t, 3, items[0].Quantity)
}

func TestGetUserTickets(t *testing.T) {
	db, _, svc := newPurchaseFixture()

	product := db.addProduct("dog-food", 100, 10)
	cart := db.addCart(models.CartItem{Product: product.ID, Quantity: 1})

	_, err := svc.ProcessPurchase(context.Background(), cart.ID.Hex(), "hugo@example.com")
	require.NoError(t, err)

	tickets, err := svc.GetUserTickets(context.Background(), "hugo@example.com")
	require.NoError(t, err)
	require.Len(t, tickets, 1)
	assert.Equal(t, int64(100), tickets[0].Amount)

	none, err := svc.GetUserTickets(context.Background(), "nobody@example.com")
	require.NoError(t, err)
	assert.Empty(t, none)
}
