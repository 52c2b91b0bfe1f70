package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"petmarket/internal/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const ticketCodeAttempts = 5

// CreateTicket inserts a ticket with a freshly generated unique code. Codes
// are randomly derived, so a duplicate-key insert is retried with a new code.
func (s *Store) CreateTicket(ctx context.Context, ticket *models.Ticket) (*models.Ticket, error) {
	if ticket.PurchaseDatetime.IsZero() {
		ticket.PurchaseDatetime = time.Now().UTC()
	}
	if ticket.ProductsUnavailable == nil {
		ticket.ProductsUnavailable = []models.UnfulfilledLine{}
	}

	var lastErr error
	for attempt := 0; attempt < ticketCodeAttempts; attempt++ {
		ticket.Code = generateTicketCode()

		res, err := s.tickets.InsertOne(ctx, ticket)
		if err == nil {
			ticket.ID = res.InsertedID.(primitive.ObjectID)
			return ticket, nil
		}
		if !mongo.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("failed to insert ticket: %w", err)
		}
		lastErr = err
	}
	return nil, fmt.Errorf("failed to generate unique ticket code: %w", lastErr)
}

// GetTicketByID retrieves a ticket by its identifier
func (s *Store) GetTicketByID(ctx context.Context, id string) (*models.Ticket, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}

	var ticket models.Ticket
	err = s.tickets.FindOne(ctx, bson.M{"_id": oid}).Decode(&ticket)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, models.ErrTicketNotFound
	}
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}

// GetTicketsByPurchaser retrieves a purchaser's tickets, newest first
func (s *Store) GetTicketsByPurchaser(ctx context.Context, email string) ([]models.Ticket, error) {
	opts := options.Find().SetSort(bson.D{{Key: "purchase_datetime", Value: -1}})

	cursor, err := s.tickets.Find(ctx, bson.M{"purchaser": email}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list tickets: %w", err)
	}

	tickets := []models.Ticket{}
	if err := cursor.All(ctx, &tickets); err != nil {
		return nil, err
	}
	return tickets, nil
}

// generateTicketCode derives TICKET-<unix-millis>-<9 chars> from a UUID
func generateTicketCode() string {
	entropy := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", ""))
	return fmt.Sprintf("TICKET-%d-%s", time.Now().UnixMilli(), entropy[:9])
}
