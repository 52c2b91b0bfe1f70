package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"petmarket/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// CreateUser inserts a user. Emails are stored lowercased and must be unique.
func (s *Store) CreateUser(ctx context.Context, user *models.User) (*models.User, error) {
	now := time.Now().UTC()
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	user.CreatedAt = now
	user.UpdatedAt = now
	if user.Role == "" {
		user.Role = models.RoleUser
	}

	res, err := s.users.InsertOne(ctx, user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, models.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}

	user.ID = res.InsertedID.(primitive.ObjectID)
	return user, nil
}

// GetUserByEmail retrieves a user by email (case-insensitive)
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.users.FindOne(ctx, bson.M{"email": strings.ToLower(strings.TrimSpace(email))}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, models.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserByID retrieves a user by identifier
func (s *Store) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}

	var user models.User
	err = s.users.FindOne(ctx, bson.M{"_id": oid}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, models.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateUserPassword overwrites the stored password hash
func (s *Store) UpdateUserPassword(ctx context.Context, id, passwordHash string) error {
	oid, err := parseID(id)
	if err != nil {
		return err
	}

	res, err := s.users.UpdateOne(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": bson.M{"password": passwordHash, "updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	if res.MatchedCount == 0 {
		return models.ErrUserNotFound
	}
	return nil
}

// SetUserCart links a cart to a user
func (s *Store) SetUserCart(ctx context.Context, userID string, cartID primitive.ObjectID) error {
	oid, err := parseID(userID)
	if err != nil {
		return err
	}

	res, err := s.users.UpdateOne(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": bson.M{"cart": cartID, "updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return fmt.Errorf("failed to set user cart: %w", err)
	}
	if res.MatchedCount == 0 {
		return models.ErrUserNotFound
	}
	return nil
}
