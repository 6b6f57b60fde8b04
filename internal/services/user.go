package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"path"
	"strings"
	"time"

	"quizontal-backend/internal/blob"
	"quizontal-backend/internal/docstore"
	"quizontal-backend/internal/identity"
	"quizontal-backend/internal/models"
	"quizontal-backend/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/nfnt/resize"
	"github.com/rs/zerolog/log"
)

const (
	avatarSize     = 256
	oauthStateTTL  = 10 * time.Minute
	presignExpires = 5 * time.Minute
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email is already registered")
	ErrUnknownProvider    = errors.New("unknown sign-in provider")
	ErrInvalidToken       = errors.New("invalid token")
	ErrInvalidImage       = errors.New("file is not a supported image")
)

// UserService handles accounts, sign-in and profiles
type UserService struct {
	userRepo  *repository.UserRepository
	blobs     blob.Store
	notifier  *identity.Notifier
	providers map[string]*identity.OAuthProvider
	jwtSecret string
	jwtTTL    time.Duration
	now       func() time.Time
}

// NewUserService creates a new user service
func NewUserService(
	userRepo *repository.UserRepository,
	blobs blob.Store,
	notifier *identity.Notifier,
	jwtSecret string,
	jwtTTL time.Duration,
	providers ...*identity.OAuthProvider,
) *UserService {
	byName := make(map[string]*identity.OAuthProvider, len(providers))
	for _, p := range providers {
		byName[p.Name()] = p
	}
	return &UserService{
		userRepo:  userRepo,
		blobs:     blobs,
		notifier:  notifier,
		providers: byName,
		jwtSecret: jwtSecret,
		jwtTTL:    jwtTTL,
		now:       time.Now,
	}
}

// AuthResponse is returned by every successful sign-in
type AuthResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// Signup registers an email/password account and signs it in
func (s *UserService) Signup(ctx context.Context, displayName, email, password string) (*AuthResponse, error) {
	if err := identity.ValidateSignup(displayName, email, password); err != nil {
		return nil, err
	}

	_, err := s.userRepo.GetByEmail(ctx, email)
	if err == nil {
		return nil, ErrEmailTaken
	}
	if !errors.Is(err, docstore.ErrNotFound) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	hash, err := identity.HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		DisplayName:  strings.TrimSpace(displayName),
		Email:        strings.ToLower(strings.TrimSpace(email)),
		Provider:     "password",
		PasswordHash: hash,
		LastLogin:    s.now(),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	log.Info().Str("user_id", user.ID).Msg("User signed up")
	return s.startSession(ctx, user)
}

// Login signs in an email/password account
func (s *UserService) Login(ctx context.Context, email, password string) (*AuthResponse, error) {
	user, err := s.userRepo.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if !identity.CheckPassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	user.LastLogin = s.now()
	if err := s.userRepo.UpdateLastLogin(ctx, user.ID, user.LastLogin); err != nil {
		return nil, fmt.Errorf("failed to update last login: %w", err)
	}
	return s.startSession(ctx, user)
}

// OAuthURL returns the provider consent URL with a signed state
func (s *UserService) OAuthURL(providerName string) (string, error) {
	p, ok := s.providers[providerName]
	if !ok {
		return "", ErrUnknownProvider
	}

	claims := jwt.MapClaims{
		"provider": providerName,
		"nonce":    uuid.New().String(),
		"exp":      s.now().Add(oauthStateTTL).Unix(),
	}
	state, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign state: %w", err)
	}
	return p.AuthCodeURL(state), nil
}

// OAuthCallback completes a provider sign-in, creating the profile on first login
func (s *UserService) OAuthCallback(ctx context.Context, providerName, code, state string) (*AuthResponse, error) {
	p, ok := s.providers[providerName]
	if !ok {
		return nil, ErrUnknownProvider
	}

	claims, err := s.parse(state)
	if err != nil || claims["provider"] != providerName {
		return nil, fmt.Errorf("%w: bad oauth state", ErrInvalidToken)
	}

	profile, err := p.Exchange(ctx, code)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByProviderUID(ctx, providerName, profile.UID)
	switch {
	case err == nil:
		user.LastLogin = s.now()
		if err := s.userRepo.UpdateLastLogin(ctx, user.ID, user.LastLogin); err != nil {
			return nil, fmt.Errorf("failed to update last login: %w", err)
		}
	case errors.Is(err, docstore.ErrNotFound):
		user = &models.User{
			DisplayName: profile.Name,
			Email:       profile.Email,
			PhotoURL:    profile.AvatarURL,
			Provider:    providerName,
			ProviderUID: profile.UID,
			LastLogin:   s.now(),
		}
		if err := s.userRepo.Create(ctx, user); err != nil {
			return nil, fmt.Errorf("failed to create user: %w", err)
		}
		log.Info().Str("user_id", user.ID).Str("provider", providerName).Msg("User signed up")
	default:
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return s.startSession(ctx, user)
}

// Logout ends the session of ident
func (s *UserService) Logout(ctx context.Context, ident models.Identity) error {
	return s.notifier.Publish(ctx, identity.Event{Kind: identity.SessionEnded, Identity: ident})
}

func (s *UserService) startSession(ctx context.Context, user *models.User) (*AuthResponse, error) {
	token, err := s.GenerateJWT(user)
	if err != nil {
		return nil, err
	}

	ev := identity.Event{Kind: identity.SessionStarted, Identity: user.Identity()}
	if err := s.notifier.Publish(ctx, ev); err != nil {
		log.Error().Err(err).Str("user_id", user.ID).Msg("Failed to publish session start")
	}
	return &AuthResponse{Token: token, User: user}, nil
}

// GenerateJWT generates a JWT token for a user
func (s *UserService) GenerateJWT(user *models.User) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"user_id": user.ID,
		"name":    user.DisplayName,
		"email":   user.Email,
		"exp":     now.Add(s.jwtTTL).Unix(),
		"iat":     now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// ValidateJWT validates a JWT token and returns the session identity
func (s *UserService) ValidateJWT(tokenString string) (models.Identity, error) {
	claims, err := s.parse(tokenString)
	if err != nil {
		return models.Identity{}, err
	}

	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return models.Identity{}, fmt.Errorf("%w: user_id not found in token", ErrInvalidToken)
	}
	name, _ := claims["name"].(string)
	email, _ := claims["email"].(string)

	return models.Identity{UserID: userID, DisplayName: name, Email: email}, nil
}

func (s *UserService) parse(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// GetProfile returns the user's profile
func (s *UserService) GetProfile(ctx context.Context, userID string) (*models.User, error) {
	return s.userRepo.GetByID(ctx, userID)
}

// UpdateProfile changes the display name
func (s *UserService) UpdateProfile(ctx context.Context, userID, displayName string) (*models.User, error) {
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		return nil, fmt.Errorf("%w: display name is required", identity.ErrInvalidInput)
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.DisplayName = displayName
	if err := s.userRepo.UpdateProfile(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// UploadAvatar stores a square-bounded thumbnail of the image as the user's photo
func (s *UserService) UploadAvatar(ctx context.Context, userID, filename string, r io.Reader) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	img, _, err := image.Decode(r)
	if err != nil {
		return nil, ErrInvalidImage
	}
	thumb := resize.Thumbnail(avatarSize, avatarSize, img, resize.Lanczos3)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, thumb, &jpeg.Options{Quality: 85}); err != nil {
		return nil, fmt.Errorf("failed to encode avatar: %w", err)
	}

	name := strings.TrimSuffix(blob.SafeName(filename), path.Ext(filename)) + ".jpg"
	key := fmt.Sprintf("avatars/%s/%s", userID, name)
	url, err := s.blobs.Put(ctx, key, &buf, int64(buf.Len()), "image/jpeg")
	if err != nil {
		return nil, err
	}

	user.PhotoURL = url
	if err := s.userRepo.UpdateProfile(ctx, user); err != nil {
		return nil, err
	}
	log.Info().Str("user_id", userID).Str("key", key).Msg("Avatar updated")
	return user, nil
}

// UploadImage stores a file under {folder}/{userID}/ and returns its URL
func (s *UserService) UploadImage(ctx context.Context, userID, folder, filename, contentType string, r io.Reader, size int64) (string, error) {
	if !strings.HasPrefix(contentType, "image/") {
		return "", ErrInvalidImage
	}
	key := blob.ObjectKey(uploadFolder(folder), userID, filename, s.now())
	return s.blobs.Put(ctx, key, r, size, contentType)
}

// UploadResponse represents the response with pre-signed URL
type UploadResponse struct {
	UploadURL string `json:"upload_url"`
	PublicURL string `json:"public_url"`
	Key       string `json:"key"`
	ExpiresIn int    `json:"expires_in"`
}

// PresignUpload returns a URL the client can PUT the file to directly
func (s *UserService) PresignUpload(ctx context.Context, userID, folder, filename, contentType string) (*UploadResponse, error) {
	if !strings.HasPrefix(contentType, "image/") {
		return nil, ErrInvalidImage
	}
	key := blob.ObjectKey(uploadFolder(folder), userID, filename, s.now())
	uploadURL, err := s.blobs.PresignPut(ctx, key, contentType, presignExpires)
	if err != nil {
		return nil, err
	}
	return &UploadResponse{
		UploadURL: uploadURL,
		PublicURL: s.blobs.URL(key),
		Key:       key,
		ExpiresIn: int(presignExpires.Seconds()),
	}, nil
}

func uploadFolder(folder string) string {
	folder = blob.SafeName(folder)
	if folder == "file" {
		return "uploads"
	}
	return folder
}
