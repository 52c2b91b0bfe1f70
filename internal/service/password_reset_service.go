package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"petmarket/internal/auth"
	"petmarket/internal/models"
	"petmarket/internal/util"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	resetRequestMax    = 3
	resetRequestWindow = 15 * time.Minute
)

// PasswordResetService handles the reset flow: a signed short-lived token is
// mailed to the user, tracked single-use in the token store, and exchanged
// for a password update.
type PasswordResetService struct {
	users       UserStore
	tokens      *auth.Manager
	outstanding ResetTokenStore
	events      EventPublisher
	baseURL     string
	tokenTTL    time.Duration
	logger      *zap.Logger
}

// NewPasswordResetService creates a new password reset service
func NewPasswordResetService(users UserStore, tokens *auth.Manager, outstanding ResetTokenStore, events EventPublisher, baseURL string, tokenTTL time.Duration) *PasswordResetService {
	return &PasswordResetService{
		users:       users,
		tokens:      tokens,
		outstanding: outstanding,
		events:      events,
		baseURL:     baseURL,
		tokenTTL:    tokenTTL,
		logger:      util.GetLogger(),
	}
}

// RequestReset issues a reset token for the account behind email and
// dispatches the reset mail through the notification topic. An unknown email
// is reported as success to the caller so addresses cannot be probed.
func (s *PasswordResetService) RequestReset(ctx context.Context, email string) error {
	ctx, span := util.StartSpan(ctx, "PasswordResetService.RequestReset")
	defer span.End()

	allowed, err := s.outstanding.AllowResetRequest(ctx, email, resetRequestMax, resetRequestWindow)
	if err != nil {
		return err
	}
	if !allowed {
		util.PasswordResetsTotal.WithLabelValues("rejected").Inc()
		return fmt.Errorf("%w: too many reset requests", models.ErrValidation)
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	if errors.Is(err, models.ErrUserNotFound) {
		s.logger.Info("Reset requested for unknown email", zap.String("email", email))
		return nil
	}
	if err != nil {
		return err
	}

	token, err := s.tokens.IssueResetToken(user.ID.Hex())
	if err != nil {
		return err
	}
	if err := s.outstanding.SetResetToken(ctx, token, user.ID.Hex(), s.tokenTTL); err != nil {
		return err
	}

	util.PasswordResetsTotal.WithLabelValues("requested").Inc()

	event := &models.PasswordResetRequestedEvent{
		BaseEvent: newBaseEvent(models.EventTypePasswordResetRequested),
		Email:     user.Email,
		ResetURL:  fmt.Sprintf("%s/reset-password?token=%s", s.baseURL, url.QueryEscape(token)),
	}
	if err := s.events.PublishPasswordResetRequested(ctx, event); err != nil {
		s.logger.Error("Failed to publish PasswordResetRequested event", zap.Error(err))
	}

	return nil
}

// ResetPassword exchanges a valid, unconsumed token for a password update.
// The new password must differ from the current one.
func (s *PasswordResetService) ResetPassword(ctx context.Context, token, newPassword string) error {
	ctx, span := util.StartSpan(ctx, "PasswordResetService.ResetPassword")
	defer span.End()

	claims, err := s.tokens.VerifyResetToken(token)
	if err != nil {
		return err
	}

	userID, err := s.outstanding.ConsumeResetToken(ctx, token)
	if err != nil {
		return err
	}
	if userID == "" || userID != claims.Subject {
		return models.ErrInvalidToken
	}

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(newPassword)) == nil {
		return models.ErrSamePassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.users.UpdateUserPassword(ctx, userID, string(hash)); err != nil {
		return err
	}

	util.PasswordResetsTotal.WithLabelValues("completed").Inc()
	s.logger.Info("Password reset completed", zap.String("user_id", userID))
	return nil
}
