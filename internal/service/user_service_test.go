package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"petmarket/internal/auth"
	"petmarket/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// fakeUserStore is an in-memory UserStore
type fakeUserStore struct {
	users map[primitive.ObjectID]*models.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: map[primitive.ObjectID]*models.User{}}
}

func (f *fakeUserStore) CreateUser(_ context.Context, user *models.User) (*models.User, error) {
	email := strings.ToLower(user.Email)
	for _, existing := range f.users {
		if existing.Email == email {
			return nil, models.ErrDuplicateEmail
		}
	}
	user.ID = primitive.NewObjectID()
	user.Email = email
	if user.Role == "" {
		user.Role = models.RoleUser
	}
	f.users[user.ID] = user
	return user, nil
}

func (f *fakeUserStore) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	email = strings.ToLower(email)
	for _, user := range f.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, models.ErrUserNotFound
}

func (f *fakeUserStore) GetUserByID(_ context.Context, id string) (*models.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, models.ErrInvalidID
	}
	user, ok := f.users[oid]
	if !ok {
		return nil, models.ErrUserNotFound
	}
	return user, nil
}

func (f *fakeUserStore) UpdateUserPassword(ctx context.Context, id, passwordHash string) error {
	user, err := f.GetUserByID(ctx, id)
	if err != nil {
		return err
	}
	user.Password = passwordHash
	return nil
}

func (f *fakeUserStore) SetUserCart(ctx context.Context, userID string, cartID primitive.ObjectID) error {
	user, err := f.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	user.Cart = cartID
	return nil
}

func newAuthManager() *auth.Manager {
	return auth.NewManager("test-secret", time.Hour, 15*time.Minute)
}

func newUserFixture() (*fakeUserStore, *memStore, *fakePublisher, *UserService) {
	users := newFakeUserStore()
	carts := newMemStore()
	publisher := &fakePublisher{}
	return users, carts, publisher, NewUserService(users, carts, newAuthManager(), publisher)
}

func TestRegisterCreatesUserWithCart(t *testing.T) {
	users, carts, publisher, svc := newUserFixture()

	user, err := svc.Register(context.Background(), &RegisterRequest{
		FirstName: "Ana",
		LastName:  "Gomez",
		Email:     "Ana@Example.com",
		Age:       30,
		Password:  "secret123",
	})
	require.NoError(t, err)

	assert.Equal(t, "ana@example.com", user.Email)
	assert.Equal(t, models.RoleUser, user.Role)
	assert.NotEqual(t, "secret123", user.Password, "password must be stored hashed")
	assert.False(t, user.Cart.IsZero())
	assert.Contains(t, carts.carts, user.Cart)

	require.Len(t, publisher.userRegistered, 1)
	assert.Equal(t, "ana@example.com", publisher.userRegistered[0].Email)

	_, err = users.GetUserByEmail(context.Background(), "ana@example.com")
	require.NoError(t, err)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	_, _, _, svc := newUserFixture()

	req := &RegisterRequest{
		FirstName: "Ana",
		LastName:  "Gomez",
		Email:     "ana@example.com",
		Age:       30,
		Password:  "secret123",
	}
	_, err := svc.Register(context.Background(), req)
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), req)
	assert.ErrorIs(t, err, models.ErrDuplicateEmail)
}

func TestLoginRoundTrip(t *testing.T) {
	_, _, _, svc := newUserFixture()

	registered, err := svc.Register(context.Background(), &RegisterRequest{
		FirstName: "Bruno",
		LastName:  "Diaz",
		Email:     "bruno@example.com",
		Age:       25,
		Password:  "secret123",
	})
	require.NoError(t, err)

	token, user, err := svc.Login(context.Background(), "bruno@example.com", "secret123")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, registered.ID, user.ID)

	claims, err := newAuthManager().VerifySession(token)
	require.NoError(t, err)
	assert.Equal(t, "bruno@example.com", claims.Email)
	assert.Equal(t, registered.ID.Hex(), claims.Subject)
}

func TestLoginWrongPassword(t *testing.T) {
	_, _, _, svc := newUserFixture()

	_, err := svc.Register(context.Background(), &RegisterRequest{
		FirstName: "Bruno",
		LastName:  "Diaz",
		Email:     "bruno@example.com",
		Age:       25,
		Password:  "secret123",
	})
	require.NoError(t, err)

	_, _, err = svc.Login(context.Background(), "bruno@example.com", "wrong-pass")
	assert.ErrorIs(t, err, models.ErrInvalidCredentials)

	// unknown email looks the same as a wrong password
	_, _, err = svc.Login(context.Background(), "nobody@example.com", "secret123")
	assert.ErrorIs(t, err, models.ErrInvalidCredentials)
}
