package models

import "time"

// Event types
const (
	EventTypeTicketIssued           = "TICKET_ISSUED"
	EventTypeStockDepleted          = "STOCK_DEPLETED"
	EventTypeUserRegistered         = "USER_REGISTERED"
	EventTypePasswordResetRequested = "PASSWORD_RESET_REQUESTED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// TicketLineData represents a fulfilled line in events
type TicketLineData struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unit_price"`
}

// TicketIssuedEvent published after a purchase produces a ticket
type TicketIssuedEvent struct {
	BaseEvent
	TicketID  string           `json:"ticket_id"`
	Code      string           `json:"code"`
	Purchaser string           `json:"purchaser"`
	Amount    int64            `json:"amount"`
	Completed bool             `json:"completed"`
	Items     []TicketLineData `json:"items"`
}

// StockDepletedEvent published when a decrement drives a product's stock to zero
type StockDepletedEvent struct {
	BaseEvent
	ProductID string `json:"product_id"`
	Code      string `json:"code"`
	Title     string `json:"title"`
}

// UserRegisteredEvent published when a new account is created
type UserRegisteredEvent struct {
	BaseEvent
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
}

// PasswordResetRequestedEvent published when a user asks for a reset link
type PasswordResetRequestedEvent struct {
	BaseEvent
	Email    string `json:"email"`
	ResetURL string `json:"reset_url"`
}
