package broker

import (
	"context"
	"encoding/json"
	"fmt"

	"petmarket/internal/models"
	"petmarket/internal/util"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// EventPublisher handles publishing domain events
type EventPublisher struct {
	producer *Producer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(producer *Producer) *EventPublisher {
	return &EventPublisher{producer: producer}
}

// PublishTicketIssued publishes a TicketIssued event
func (ep *EventPublisher) PublishTicketIssued(ctx context.Context, event *models.TicketIssuedEvent) error {
	return ep.producer.PublishEvent(ctx, fmt.Sprintf("ticket-%s", event.TicketID), event)
}

// PublishStockDepleted publishes a StockDepleted event
func (ep *EventPublisher) PublishStockDepleted(ctx context.Context, event *models.StockDepletedEvent) error {
	return ep.producer.PublishEvent(ctx, fmt.Sprintf("product-%s", event.ProductID), event)
}

// PublishUserRegistered publishes a UserRegistered event
func (ep *EventPublisher) PublishUserRegistered(ctx context.Context, event *models.UserRegisteredEvent) error {
	return ep.producer.PublishEvent(ctx, fmt.Sprintf("user-%s", event.UserID), event)
}

// PublishPasswordResetRequested publishes a PasswordResetRequested event
func (ep *EventPublisher) PublishPasswordResetRequested(ctx context.Context, event *models.PasswordResetRequestedEvent) error {
	return ep.producer.PublishEvent(ctx, fmt.Sprintf("reset-%s", event.Email), event)
}

// EventHandler routes consumed notification events to registered callbacks
type EventHandler struct {
	onTicketIssued   func(context.Context, *models.TicketIssuedEvent) error
	onUserRegistered func(context.Context, *models.UserRegisteredEvent) error
	onPasswordReset  func(context.Context, *models.PasswordResetRequestedEvent) error
}

// NewEventHandler creates a new event handler
func NewEventHandler() *EventHandler {
	return &EventHandler{}
}

// OnTicketIssued registers a handler for TicketIssued events
func (eh *EventHandler) OnTicketIssued(handler func(context.Context, *models.TicketIssuedEvent) error) {
	eh.onTicketIssued = handler
}

// OnUserRegistered registers a handler for UserRegistered events
func (eh *EventHandler) OnUserRegistered(handler func(context.Context, *models.UserRegisteredEvent) error) {
	eh.onUserRegistered = handler
}

// OnPasswordResetRequested registers a handler for PasswordResetRequested events
func (eh *EventHandler) OnPasswordResetRequested(handler func(context.Context, *models.PasswordResetRequestedEvent) error) {
	eh.onPasswordReset = handler
}

// HandleMessage routes messages to appropriate handlers
func (eh *EventHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var baseEvent models.BaseEvent
	if err := json.Unmarshal(msg.Value, &baseEvent); err != nil {
		return fmt.Errorf("failed to unmarshal base event: %w", err)
	}

	logger := util.GetLogger()
	logger.Debug("Handling event",
		zap.String("type", baseEvent.EventType),
		zap.String("id", baseEvent.EventID))

	switch baseEvent.EventType {
	case models.EventTypeTicketIssued:
		if eh.onTicketIssued != nil {
			var event models.TicketIssuedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal TicketIssued event: %w", err)
			}
			return eh.onTicketIssued(ctx, &event)
		}

	case models.EventTypeUserRegistered:
		if eh.onUserRegistered != nil {
			var event models.UserRegisteredEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal UserRegistered event: %w", err)
			}
			return eh.onUserRegistered(ctx, &event)
		}

	case models.EventTypePasswordResetRequested:
		if eh.onPasswordReset != nil {
			var event models.PasswordResetRequestedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal PasswordResetRequested event: %w", err)
			}
			return eh.onPasswordReset(ctx, &event)
		}

	default:
		logger.Warn("Unhandled event type", zap.String("type", baseEvent.EventType))
	}

	return nil
}
