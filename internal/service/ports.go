package service

import (
	"context"
	"time"

	"petmarket/internal/models"
	"petmarket/internal/store"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Store contracts the services depend on. The Mongo store satisfies all of
// them; tests substitute in-memory fakes.

type ProductStore interface {
	CreateProduct(ctx context.Context, p *models.Product) (*models.Product, error)
	GetProductByID(ctx context.Context, id string) (*models.Product, error)
	GetProductByCode(ctx context.Context, code string) (*models.Product, error)
	ListProducts(ctx context.Context, filter store.ProductFilter) (*store.ProductPage, error)
	UpdateProduct(ctx context.Context, id string, update map[string]interface{}) (*models.Product, error)
	DeleteProduct(ctx context.Context, id string) error
	DecrementStock(ctx context.Context, id string, amount int) (int, error)
	IncrementStock(ctx context.Context, id string, amount int) error
}

type CartStore interface {
	CreateCart(ctx context.Context) (*models.Cart, error)
	GetCart(ctx context.Context, id string) (*models.Cart, error)
	GetCartResolved(ctx context.Context, id string) (*models.ResolvedCart, error)
	AddCartItem(ctx context.Context, cartID, productID string, quantity int) (*models.Cart, error)
	RemoveCartItem(ctx context.Context, cartID, productID string) (*models.Cart, error)
	SetCartItemQuantity(ctx context.Context, cartID, productID string, quantity int) (*models.Cart, error)
	ReplaceCartItems(ctx context.Context, cartID string, items []models.CartItem) error
	ClearCart(ctx context.Context, cartID string) error
	DeleteCart(ctx context.Context, cartID string) error
}

type TicketStore interface {
	CreateTicket(ctx context.Context, ticket *models.Ticket) (*models.Ticket, error)
	GetTicketByID(ctx context.Context, id string) (*models.Ticket, error)
	GetTicketsByPurchaser(ctx context.Context, email string) ([]models.Ticket, error)
}

type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	UpdateUserPassword(ctx context.Context, id, passwordHash string) error
	SetUserCart(ctx context.Context, userID string, cartID primitive.ObjectID) error
}

// EventPublisher is the outbound notification contract
type EventPublisher interface {
	PublishTicketIssued(ctx context.Context, event *models.TicketIssuedEvent) error
	PublishStockDepleted(ctx context.Context, event *models.StockDepletedEvent) error
	PublishUserRegistered(ctx context.Context, event *models.UserRegisteredEvent) error
	PublishPasswordResetRequested(ctx context.Context, event *models.PasswordResetRequestedEvent) error
}

// ResetTokenStore tracks outstanding single-use password-reset tokens
type ResetTokenStore interface {
	SetResetToken(ctx context.Context, token, userID string, ttl time.Duration) error
	ConsumeResetToken(ctx context.Context, token string) (string, error)
	AllowResetRequest(ctx context.Context, email string, max int64, window time.Duration) (bool, error)
}
