package worker

import (
	"context"

	"petmarket/internal/broker"
	"petmarket/internal/models"
	"petmarket/internal/service"
	"petmarket/internal/util"

	"go.uber.org/zap"
)

// MailWorker consumes notification events and delivers the matching emails
type MailWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
	mailer       *service.Mailer
	logger       *zap.Logger
}

// NewMailWorker creates a new mail worker
func NewMailWorker(consumer *broker.Consumer, mailer *service.Mailer) *MailWorker {
	w := &MailWorker{
		consumer: consumer,
		mailer:   mailer,
		logger:   util.GetLogger(),
	}

	eventHandler := broker.NewEventHandler()
	eventHandler.OnTicketIssued(w.handleTicketIssued)
	eventHandler.OnUserRegistered(w.handleUserRegistered)
	eventHandler.OnPasswordResetRequested(w.handlePasswordResetRequested)
	w.eventHandler = eventHandler

	return w
}

// Start starts the worker
func (w *MailWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting mail worker")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *MailWorker) Stop() error {
	w.logger.Info("Stopping mail worker")
	return w.consumer.Close()
}

func (w *MailWorker) handleTicketIssued(_ context.Context, event *models.TicketIssuedEvent) error {
	if err := w.mailer.SendTicketReceipt(event); err != nil {
		util.EmailsFailedTotal.WithLabelValues("receipt").Inc()
		w.logger.Error("Failed to send receipt email",
			zap.String("ticket_code", event.Code),
			zap.Error(err))
		return err
	}
	util.EmailsSentTotal.WithLabelValues("receipt").Inc()
	return nil
}

func (w *MailWorker) handleUserRegistered(_ context.Context, event *models.UserRegisteredEvent) error {
	if err := w.mailer.SendWelcome(event); err != nil {
		util.EmailsFailedTotal.WithLabelValues("welcome").Inc()
		w.logger.Error("Failed to send welcome email",
			zap.String("email", event.Email),
			zap.Error(err))
		return err
	}
	util.EmailsSentTotal.WithLabelValues("welcome").Inc()
	return nil
}

func (w *MailWorker) handlePasswordResetRequested(_ context.Context, event *models.PasswordResetRequestedEvent) error {
	if err := w.mailer.SendPasswordReset(event); err != nil {
		util.EmailsFailedTotal.WithLabelValues("reset").Inc()
		w.logger.Error("Failed to send reset email",
			zap.String("email", event.Email),
			zap.Error(err))
		return err
	}
	util.EmailsSentTotal.WithLabelValues("reset").Inc()
	return nil
}
