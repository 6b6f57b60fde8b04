package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"quizontal-backend/internal/docstore"
	"quizontal-backend/internal/models"
)

const userSchema = `{
	"type": "object",
	"required": ["display_name", "provider"],
	"properties": {
		"display_name": {"type": "string"},
		"email": {"type": "string"},
		"photo_url": {"type": "string"},
		"provider": {"enum": ["password", "google", "github"]},
		"provider_uid": {"type": "string"},
		"password_hash": {"type": "string"}
	}
}`

type userDoc struct {
	DisplayName  string    `json:"display_name"`
	Email        string    `json:"email"`
	PhotoURL     string    `json:"photo_url"`
	Provider     string    `json:"provider"`
	ProviderUID  string    `json:"provider_uid"`
	PasswordHash string    `json:"password_hash"`
	LastLogin    time.Time `json:"last_login"`
}

// UserRepository handles store operations for user profiles
type UserRepository struct {
	docs *docstore.Collection[userDoc]
}

// NewUserRepository creates a new user repository
func NewUserRepository(backend docstore.Backend) *UserRepository {
	return &UserRepository{
		docs: docstore.NewCollection[userDoc](backend, "users", docstore.WithSchema(userSchema)),
	}
}

// Create creates a new user and assigns its ID
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	doc, err := r.docs.Create(ctx, userDoc{
		DisplayName:  user.DisplayName,
		Email:        strings.ToLower(user.Email),
		PhotoURL:     user.PhotoURL,
		Provider:     user.Provider,
		ProviderUID:  user.ProviderUID,
		PasswordHash: user.PasswordHash,
		LastLogin:    user.LastLogin,
	})
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	user.ID = doc.ID
	user.CreatedAt = doc.CreatedAt
	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	doc, err := r.docs.Get(ctx, id)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, fmt.Errorf("user not found: %w", err)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return toUser(doc), nil
}

// GetByEmail retrieves a password user by email
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.first(ctx, "failed to get user by email",
		docstore.Eq("email", strings.ToLower(email)),
		docstore.Eq("provider", "password"),
	)
}

// GetByProviderUID retrieves an OAuth user by provider account id
func (r *UserRepository) GetByProviderUID(ctx context.Context, provider, uid string) (*models.User, error) {
	return r.first(ctx, "failed to get user by provider",
		docstore.Eq("provider", provider),
		docstore.Eq("provider_uid", uid),
	)
}

// UpdateProfile writes the display name and photo URL
func (r *UserRepository) UpdateProfile(ctx context.Context, user *models.User) error {
	err := r.docs.Update(ctx, user.ID, map[string]any{
		"display_name": user.DisplayName,
		"photo_url":    user.PhotoURL,
	})
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	return nil
}

// UpdateLastLogin records a successful sign-in
func (r *UserRepository) UpdateLastLogin(ctx context.Context, userID string, at time.Time) error {
	if err := r.docs.Update(ctx, userID, map[string]any{"last_login": at}); err != nil {
		return fmt.Errorf("failed to update last login: %w", err)
	}
	return nil
}

func (r *UserRepository) first(ctx context.Context, msg string, preds ...docstore.Predicate) (*models.User, error) {
	docs, err := r.docs.Query(ctx, preds...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", msg, err)
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("user not found: %w", docstore.ErrNotFound)
	}
	return toUser(docs[0]), nil
}

func toUser(d docstore.Document[userDoc]) *models.User {
	return &models.User{
		ID:           d.ID,
		DisplayName:  d.Data.DisplayName,
		Email:        d.Data.Email,
		PhotoURL:     d.Data.PhotoURL,
		Provider:     d.Data.Provider,
		ProviderUID:  d.Data.ProviderUID,
		PasswordHash: d.Data.PasswordHash,
		CreatedAt:    d.CreatedAt,
		LastLogin:    d.Data.LastLogin,
	}
}
