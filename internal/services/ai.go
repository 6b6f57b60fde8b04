package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"quizontal-backend/internal/blob"
	"quizontal-backend/internal/media"
	"quizontal-backend/internal/models"
	"quizontal-backend/internal/repository"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"google.golang.org/genai"
)

// ErrEmptyPrompt is returned when Generate gets a blank prompt
var ErrEmptyPrompt = errors.New("prompt is required")

// ImageGenerator produces images from a text prompt
type ImageGenerator interface {
	GenerateImages(ctx context.Context, prompt string, count int) ([][]byte, error)
}

// MediaSearcher finds stock media used as placeholders
type MediaSearcher interface {
	Search(ctx context.Context, kind models.MediaKind, query string, page, perPage int) (*media.Page, error)
}

type genaiGenerator struct {
	client *genai.Client
	model  string
}

// NewGenAIGenerator creates an Imagen-backed generator
func NewGenAIGenerator(ctx context.Context, apiKey, model string) (ImageGenerator, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return &genaiGenerator{client: client, model: model}, nil
}

func (g *genaiGenerator) GenerateImages(ctx context.Context, prompt string, count int) ([][]byte, error) {
	resp, err := g.client.Models.GenerateImages(ctx, g.model, prompt, &genai.GenerateImagesConfig{
		NumberOfImages: int32(count),
		OutputMIMEType: "image/jpeg",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate images: %w", err)
	}

	var images [][]byte
	for _, gi := range resp.GeneratedImages {
		if gi != nil && gi.Image != nil && len(gi.Image.ImageBytes) > 0 {
			images = append(images, gi.Image.ImageBytes)
		}
	}
	if len(images) == 0 {
		return nil, errors.New("generator returned no images")
	}
	return images, nil
}

// AIService generates images for a prompt. Without a generator it returns
// stock photos matching the prompt as placeholders.
type AIService struct {
	generator ImageGenerator
	media     MediaSearcher
	blobs     blob.Store
	repo      *repository.AIImageRepository
	maxImages int
	now       func() time.Time
}

// NewAIService creates an AI service. generator may be nil.
func NewAIService(generator ImageGenerator, media MediaSearcher, blobs blob.Store, repo *repository.AIImageRepository, maxImages int) *AIService {
	return &AIService{
		generator: generator,
		media:     media,
		blobs:     blobs,
		repo:      repo,
		maxImages: maxImages,
		now:       time.Now,
	}
}

// Generate creates count images for prompt
func (s *AIService) Generate(ctx context.Context, userID, prompt string, count int) ([]*models.AIImage, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, ErrEmptyPrompt
	}
	count = lo.Clamp(count, 1, s.maxImages)

	if s.generator == nil {
		return s.placeholders(ctx, userID, prompt, count)
	}

	images, err := s.generator.GenerateImages(ctx, prompt, count)
	if err != nil {
		return nil, err
	}

	results := make([]*models.AIImage, 0, len(images))
	for i, data := range images {
		key := blob.ObjectKey("ai", userID, fmt.Sprintf("image_%d.jpg", i+1), s.now())
		url, err := s.blobs.Put(ctx, key, bytes.NewReader(data), int64(len(data)), "image/jpeg")
		if err != nil {
			return nil, err
		}

		img := &models.AIImage{UserID: userID, Prompt: prompt, ImageURL: url, ObjectKey: key}
		if err := s.repo.Create(ctx, img); err != nil {
			return nil, err
		}
		results = append(results, img)
	}

	log.Info().Str("user_id", userID).Int("count", len(results)).Msg("Generated AI images")
	return results, nil
}

func (s *AIService) placeholders(ctx context.Context, userID, prompt string, count int) ([]*models.AIImage, error) {
	page, err := s.media.Search(ctx, models.MediaPhoto, prompt, 1, count)
	if err != nil {
		return nil, fmt.Errorf("failed to find placeholder images: %w", err)
	}

	items := page.Items
	if len(items) > count {
		items = items[:count]
	}
	now := s.now()
	return lo.Map(items, func(item models.MediaItem, _ int) *models.AIImage {
		return &models.AIImage{
			ID:          item.ID,
			UserID:      userID,
			Prompt:      prompt,
			ImageURL:    item.URL,
			Placeholder: true,
			CreatedAt:   now,
		}
	}), nil
}

// History returns the user's generated images, newest first
func (s *AIService) History(ctx context.Context, userID string) ([]*models.AIImage, error) {
	return s.repo.ListByUser(ctx, userID)
}
