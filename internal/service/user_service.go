package service

import (
	"context"
	"errors"
	"fmt"

	"petmarket/internal/auth"
	"petmarket/internal/models"
	"petmarket/internal/util"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// UserService handles account registration and sessions
type UserService struct {
	users  UserStore
	carts  CartStore
	tokens *auth.Manager
	events EventPublisher
	logger *zap.Logger
}

// NewUserService creates a new user service
func NewUserService(users UserStore, carts CartStore, tokens *auth.Manager, events EventPublisher) *UserService {
	return &UserService{
		users:  users,
		carts:  carts,
		tokens: tokens,
		events: events,
		logger: util.GetLogger(),
	}
}

// RegisterRequest carries the fields required to create an account
type RegisterRequest struct {
	FirstName string `json:"first_name" binding:"required"`
	LastName  string `json:"last_name" binding:"required"`
	Email     string `json:"email" binding:"required,email"`
	Age       int    `json:"age" binding:"required,min=0"`
	Password  string `json:"password" binding:"required,min=6"`
}

// Register creates an account with a bcrypt-hashed password and attaches a
// fresh cart to it.
func (s *UserService) Register(ctx context.Context, req *RegisterRequest) (*models.User, error) {
	ctx, span := util.StartSpan(ctx, "UserService.Register")
	defer span.End()

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.users.CreateUser(ctx, &models.User{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Age:       req.Age,
		Password:  string(hash),
		Role:      models.RoleUser,
	})
	if err != nil {
		return nil, err
	}

	cart, err := s.carts.CreateCart(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create cart for user: %w", err)
	}
	if err := s.users.SetUserCart(ctx, user.ID.Hex(), cart.ID); err != nil {
		return nil, fmt.Errorf("failed to attach cart to user: %w", err)
	}
	user.Cart = cart.ID

	util.UsersRegisteredTotal.Inc()
	s.logger.Info("User registered",
		zap.String("user_id", user.ID.Hex()),
		zap.String("email", user.Email))

	event := &models.UserRegisteredEvent{
		BaseEvent: newBaseEvent(models.EventTypeUserRegistered),
		UserID:    user.ID.Hex(),
		Email:     user.Email,
		FirstName: user.FirstName,
	}
	if err := s.events.PublishUserRegistered(ctx, event); err != nil {
		s.logger.Error("Failed to publish UserRegistered event", zap.Error(err))
	}

	return user, nil
}

// Login verifies credentials and issues a session token. Unknown emails and
// wrong passwords are indistinguishable to the caller.
func (s *UserService) Login(ctx context.Context, email, password string) (string, *models.User, error) {
	ctx, span := util.StartSpan(ctx, "UserService.Login")
	defer span.End()

	user, err := s.users.GetUserByEmail(ctx, email)
	if errors.Is(err, models.ErrUserNotFound) {
		return "", nil, models.ErrInvalidCredentials
	}
	if err != nil {
		return "", nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return "", nil, models.ErrInvalidCredentials
	}

	token, err := s.tokens.IssueSession(user)
	if err != nil {
		return "", nil, err
	}

	s.logger.Info("User logged in", zap.String("email", user.Email))
	return token, user, nil
}

// GetCurrent returns the account behind a verified session claim
func (s *UserService) GetCurrent(ctx context.Context, userID string) (*models.User, error) {
	return s.users.GetUserByID(ctx, userID)
}
