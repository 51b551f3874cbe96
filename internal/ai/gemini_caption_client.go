package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shinyyama/furnimarket-backend/internal/logger"
	"google.golang.org/genai"
)

const defaultCaptionModel = "gemini-2.5-flash"

// CaptionClient turns a product photo into listing text using Gemini.
type CaptionClient struct {
	model  string
	client *genai.Client
}

func NewCaptionClient(ctx context.Context, apiKey, model string) (*CaptionClient, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("GEMINI_API_KEY is not set")
	}
	if model == "" {
		model = defaultCaptionModel
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	return &CaptionClient{model: model, client: client}, nil
}

// Describe returns cleaned listing text for the image. hint may be empty.
func (c *CaptionClient) Describe(ctx context.Context, image []byte, mimeType, hint string) (string, error) {
	if c == nil || c.client == nil {
		return "", errors.New("gemini client is nil")
	}
	if len(image) == 0 {
		return "", errors.New("image is required")
	}
	mimeType = strings.TrimSpace(mimeType)
	if mimeType == "" {
		mimeType = "image/jpeg"
	}

	log := logger.FromContext(ctx)
	start := time.Now()

	parts := []*genai.Part{
		genai.NewPartFromText(BuildCaptionPrompt(hint)),
		genai.NewPartFromBytes(image, mimeType),
	}
	contents := []*genai.Content{
		genai.NewContentFromParts(parts, genai.RoleUser),
	}
	temp := float32(0.4)
	config := &genai.GenerateContentConfig{
		Temperature:     &temp,
		MaxOutputTokens: 1024,
	}

	log.Debug().Str("stage", "gemini_start").Str("model", c.model).Int("bytes", len(image)).Msg("caption")
	res, err := c.client.Models.GenerateContent(ctx, c.model, contents, config)
	if err != nil {
		log.Warn().Str("stage", "gemini_fail").Str("model", c.model).Err(err).Msg("caption")
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	raw := res.Text()
	text, err := CleanCaption(raw)
	if err != nil {
		log.Warn().Str("stage", "parse_fail").Int("len", len(raw)).Err(err).Msg("caption")
		return "", err
	}
	log.Info().
		Str("stage", "caption_done").
		Str("model", c.model).
		Int("len", len(text)).
		Int64("ms", time.Since(start).Milliseconds()).
		Msg("caption")
	return text, nil
}
