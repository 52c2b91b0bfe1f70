package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Product represents a catalog product with a mutable stock counter
type Product struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description" json:"description"`
	Code        string             `bson:"code" json:"code"`
	Price       int64              `bson:"price" json:"price"`
	Status      bool               `bson:"status" json:"status"`
	Stock       int                `bson:"stock" json:"stock"`
	Category    string             `bson:"category" json:"category"`
	Thumbnails  []string           `bson:"thumbnails" json:"thumbnails"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updated_at"`
}

// CartItem is a line item: a product reference plus a positive quantity
type CartItem struct {
	Product  primitive.ObjectID `bson:"product" json:"product"`
	Quantity int                `bson:"quantity" json:"quantity"`
}

// Cart holds mutable line items. A product appears at most once; adds merge
// quantities into the existing line.
type Cart struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Items     []CartItem         `bson:"items" json:"items"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`
}

// ResolvedCartItem is a line item with its product record embedded
type ResolvedCartItem struct {
	Product  Product `json:"product"`
	Quantity int     `json:"quantity"`
}

// ResolvedCart is a cart with every line item resolved to the full product
type ResolvedCart struct {
	ID       primitive.ObjectID `json:"id"`
	Items    []ResolvedCartItem `json:"items"`
	Subtotal int64              `json:"subtotal"`
}

// TicketLine is a fulfilled line with the unit price snapshotted at purchase time
type TicketLine struct {
	Product  primitive.ObjectID `bson:"product" json:"product"`
	Quantity int                `bson:"quantity" json:"quantity"`
	Price    int64              `bson:"price" json:"price"`
}

// UnfulfilledLine records a line that could not be bought: the requested
// quantity and the stock observed at check time, for audit.
type UnfulfilledLine struct {
	Product           primitive.ObjectID `bson:"product" json:"product"`
	RequestedQuantity int                `bson:"requested_quantity" json:"requested_quantity"`
	AvailableStock    int                `bson:"available_stock" json:"available_stock"`
}

// Ticket is the immutable record of a completed (possibly partial) purchase.
// Amount equals the sum of quantity x price over Products.
type Ticket struct {
	ID                  primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Code                string             `bson:"code" json:"code"`
	Amount              int64              `bson:"amount" json:"amount"`
	Purchaser           string             `bson:"purchaser" json:"purchaser"`
	Products            []TicketLine       `bson:"products" json:"products"`
	ProductsUnavailable []UnfulfilledLine  `bson:"products_unavailable" json:"products_unavailable"`
	PurchaseDatetime    time.Time          `bson:"purchase_datetime" json:"purchase_datetime"`
}

// User roles
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User represents an account. Password holds the bcrypt hash and is never
// serialized to JSON.
type User struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FirstName string             `bson:"first_name" json:"first_name"`
	LastName  string             `bson:"last_name" json:"last_name"`
	Email     string             `bson:"email" json:"email"`
	Age       int                `bson:"age" json:"age"`
	Password  string             `bson:"password" json:"-"`
	Cart      primitive.ObjectID `bson:"cart,omitempty" json:"cart"`
	Role      string             `bson:"role" json:"role"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`
}
