package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"petmarket/internal/models"
	"petmarket/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PurchaseService orchestrates the checkout workflow: cart read, per-item
// stock decrement, ticket issuance, cart reconciliation.
type PurchaseService struct {
	carts    CartStore
	products ProductStore
	tickets  TicketStore
	events   EventPublisher
	logger   *zap.Logger
}

// NewPurchaseService creates a new purchase service
func NewPurchaseService(carts CartStore, products ProductStore, tickets TicketStore, events EventPublisher) *PurchaseService {
	return &PurchaseService{
		carts:    carts,
		products: products,
		tickets:  tickets,
		events:   events,
		logger:   util.GetLogger(),
	}
}

// PurchaseResult summarizes one purchase attempt. Partial fulfillment is a
// success outcome, reported through Completed=false.
type PurchaseResult struct {
	Ticket           *models.Ticket `json:"ticket"`
	FulfilledCount   int            `json:"products_available"`
	UnfulfilledCount int            `json:"products_unavailable"`
	TotalAmount      int64          `json:"total_amount"`
	Completed        bool           `json:"completed"`
}

// ProcessPurchase runs one purchase attempt against the cart:
//
//  1. The cart is loaded with line items resolved to full product records.
//  2. Each line is settled independently with a conditional stock decrement;
//     lines whose products lack stock go to the unfulfilled set untouched.
//  3. If anything was fulfilled, a ticket snapshots purchaser, amount and
//     both sets.
//  4. The cart is rewritten to exactly the unfulfilled remainder, with the
//     originally requested quantities.
//
// A missing cart or product is terminal; nothing is retried. If ticket
// creation fails after stock was decremented, the decrements are restored
// best-effort (the compensation itself is not atomic).
func (s *PurchaseService) ProcessPurchase(ctx context.Context, cartID, purchaserEmail string) (*PurchaseResult, error) {
	ctx, span := util.StartSpan(ctx, "PurchaseService.ProcessPurchase")
	defer span.End()

	start := time.Now()
	defer func() {
		util.PurchaseLatency.Observe(time.Since(start).Seconds())
	}()

	cart, err := s.carts.GetCart(ctx, cartID)
	if err != nil {
		util.PurchasesFailedTotal.WithLabelValues("cart_not_found").Inc()
		return nil, err
	}
	if len(cart.Items) == 0 {
		util.PurchasesFailedTotal.WithLabelValues("empty_cart").Inc()
		return nil, models.ErrEmptyCart
	}

	resolved, err := s.carts.GetCartResolved(ctx, cartID)
	if err != nil {
		util.PurchasesFailedTotal.WithLabelValues("resolve_failed").Inc()
		return nil, err
	}

	var (
		fulfilled   []models.TicketLine
		unfulfilled []models.UnfulfilledLine
		totalAmount int64
	)

	for _, item := range resolved.Items {
		product := item.Product

		remaining, err := s.products.DecrementStock(ctx, product.ID.Hex(), item.Quantity)
		if errors.Is(err, models.ErrInsufficientStock) {
			unfulfilled = append(unfulfilled, models.UnfulfilledLine{
				Product:           product.ID,
				RequestedQuantity: item.Quantity,
				AvailableStock:    product.Stock,
			})
			continue
		}
		if err != nil {
			s.compensate(ctx, fulfilled)
			util.PurchasesFailedTotal.WithLabelValues("stock_error").Inc()
			return nil, fmt.Errorf("failed to decrement stock for product %s: %w", product.ID.Hex(), err)
		}

		fulfilled = append(fulfilled, models.TicketLine{
			Product:  product.ID,
			Quantity: item.Quantity,
			Price:    product.Price,
		})
		totalAmount += product.Price * int64(item.Quantity)

		if remaining == 0 {
			s.publishStockDepleted(ctx, &product)
		}
	}

	var ticket *models.Ticket
	if len(fulfilled) > 0 {
		ticket, err = s.tickets.CreateTicket(ctx, &models.Ticket{
			Amount:              totalAmount,
			Purchaser:           purchaserEmail,
			Products:            fulfilled,
			ProductsUnavailable: unfulfilled,
		})
		if err != nil {
			s.compensate(ctx, fulfilled)
			util.PurchasesFailedTotal.WithLabelValues("ticket_error").Inc()
			return nil, fmt.Errorf("failed to create ticket: %w", err)
		}

		util.TicketsIssuedTotal.Inc()
		util.TicketAmount.Observe(float64(totalAmount))
		s.publishTicketIssued(ctx, ticket, len(unfulfilled) == 0)
	}

	// The cart keeps exactly what could not be bought, at the quantities the
	// purchaser asked for.
	if len(unfulfilled) > 0 {
		remainder := make([]models.CartItem, len(unfulfilled))
		for i, line := range unfulfilled {
			remainder[i] = models.CartItem{
				Product:  line.Product,
				Quantity: line.RequestedQuantity,
			}
		}
		if err := s.carts.ReplaceCartItems(ctx, cartID, remainder); err != nil {
			return nil, fmt.Errorf("failed to rewrite cart: %w", err)
		}
	} else {
		if err := s.carts.ClearCart(ctx, cartID); err != nil {
			return nil, fmt.Errorf("failed to clear cart: %w", err)
		}
	}

	completed := len(unfulfilled) == 0
	switch {
	case completed:
		util.PurchasesTotal.WithLabelValues("completed").Inc()
	case len(fulfilled) > 0:
		util.PurchasesTotal.WithLabelValues("partial").Inc()
	default:
		util.PurchasesTotal.WithLabelValues("rejected").Inc()
	}
	util.PurchaseItemsFulfilled.Add(float64(len(fulfilled)))
	util.PurchaseItemsUnfulfilled.Add(float64(len(unfulfilled)))

	s.logger.Info("Purchase processed",
		zap.String("cart_id", cartID),
		zap.String("purchaser", purchaserEmail),
		zap.Int("fulfilled", len(fulfilled)),
		zap.Int("unfulfilled", len(unfulfilled)),
		zap.Int64("amount", totalAmount),
		zap.Bool("completed", completed))

	return &PurchaseResult{
		Ticket:           ticket,
		FulfilledCount:   len(fulfilled),
		UnfulfilledCount: len(unfulfilled),
		TotalAmount:      totalAmount,
		Completed:        completed,
	}, nil
}

// GetUserTickets returns a purchaser's tickets, newest first
func (s *PurchaseService) GetUserTickets(ctx context.Context, email string) ([]models.Ticket, error) {
	return s.tickets.GetTicketsByPurchaser(ctx, email)
}

// GetTicketByID returns a ticket by identifier
func (s *PurchaseService) GetTicketByID(ctx context.Context, id string) (*models.Ticket, error) {
	return s.tickets.GetTicketByID(ctx, id)
}

// compensate restores stock decremented for lines that will not be ticketed
func (s *PurchaseService) compensate(ctx context.Context, fulfilled []models.TicketLine) {
	for _, line := range fulfilled {
		if err := s.products.IncrementStock(ctx, line.Product.Hex(), line.Quantity); err != nil {
			s.logger.Error("Failed to compensate stock decrement",
				zap.String("product_id", line.Product.Hex()),
				zap.Int("quantity", line.Quantity),
				zap.Error(err))
			continue
		}
		util.StockCompensationsTotal.Inc()
	}
}

func (s *PurchaseService) publishTicketIssued(ctx context.Context, ticket *models.Ticket, completed bool) {
	items := make([]models.TicketLineData, len(ticket.Products))
	for i, line := range ticket.Products {
		items[i] = models.TicketLineData{
			ProductID: line.Product.Hex(),
			Quantity:  line.Quantity,
			UnitPrice: line.Price,
		}
	}

	event := &models.TicketIssuedEvent{
		BaseEvent: newBaseEvent(models.EventTypeTicketIssued),
		TicketID:  ticket.ID.Hex(),
		Code:      ticket.Code,
		Purchaser: ticket.Purchaser,
		Amount:    ticket.Amount,
		Completed: completed,
		Items:     items,
	}
	if err := s.events.PublishTicketIssued(ctx, event); err != nil {
		s.logger.Error("Failed to publish TicketIssued event", zap.Error(err))
	}
}

func (s *PurchaseService) publishStockDepleted(ctx context.Context, product *models.Product) {
	util.StockDepletedTotal.Inc()

	event := &models.StockDepletedEvent{
		BaseEvent: newBaseEvent(models.EventTypeStockDepleted),
		ProductID: product.ID.Hex(),
		Code:      product.Code,
		Title:     product.Title,
	}
	if err := s.events.PublishStockDepleted(ctx, event); err != nil {
		s.logger.Error("Failed to publish StockDepleted event", zap.Error(err))
	}
}

func newBaseEvent(eventType string) models.BaseEvent {
	return models.BaseEvent{
		EventID:   uuid.New().String(),
		EventType: eventType,
		Timestamp: time.Now(),
	}
}
