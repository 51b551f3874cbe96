package service

import (
	"context"
	"errors"
	"strings"

	"github.com/shinyyama/furnimarket-backend/internal/imagesrc"
	"github.com/shinyyama/furnimarket-backend/internal/logger"
	"github.com/shinyyama/furnimarket-backend/internal/metrics"
	"github.com/shinyyama/furnimarket-backend/internal/model"
	"github.com/shinyyama/furnimarket-backend/internal/repository"
)

const maxToggleAttempts = 3

var (
	ErrValidation         = repository.ErrValidation
	ErrNotFound           = repository.ErrNotFound
	ErrConflict           = repository.ErrConflict
	ErrStorage            = repository.ErrStorage
	ErrForbidden          = errors.New("forbidden")
	ErrCaptionUnavailable = errors.New("caption service not configured")
)

// Captioner produces listing text for an image.
type Captioner interface {
	Describe(ctx context.Context, image []byte, mimeType, hint string) (string, error)
}

type ImageFetcher interface {
	Fetch(ctx context.Context, ref string) (*imagesrc.Image, error)
}

// ItemService holds the write paths. The acting user is always an explicit
// argument.
type ItemService interface {
	Create(ctx context.Context, ownerID string, in model.NewItem) (*model.Item, error)
	Update(ctx context.Context, actorID string, id uint64, patch model.ItemPatch) error
	Delete(ctx context.Context, actorID string, id uint64) error
	ToggleFavorite(ctx context.Context, userID string, itemID uint64) (bool, error)
	Describe(ctx context.Context, imageRef, hint string) (string, error)
}

type itemService struct {
	store     *repository.Store
	fetcher   ImageFetcher
	captioner Captioner
	metrics   *metrics.Registry
}

// NewItemService wires the write paths. fetcher and captioner may be nil, in
// which case Describe reports ErrCaptionUnavailable.
func NewItemService(store *repository.Store, fetcher ImageFetcher, captioner Captioner, m *metrics.Registry) ItemService {
	if m == nil {
		m = metrics.New()
	}
	return &itemService{store: store, fetcher: fetcher, captioner: captioner, metrics: m}
}

func (s *itemService) Create(ctx context.Context, ownerID string, in model.NewItem) (*model.Item, error) {
	in.OwnerID = ownerID
	item, err := s.store.Items().Create(ctx, in)
	if err != nil {
		return nil, err
	}
	logger.FromContext(ctx).Info().Uint64("item", item.ID).Msg("item_created")
	return item, nil
}

func (s *itemService) Update(ctx context.Context, actorID string, id uint64, patch model.ItemPatch) error {
	item, err := s.store.Items().FindByID(ctx, id)
	if err != nil {
		return err
	}
	if item == nil {
		return ErrNotFound
	}
	if item.OwnerID != actorID {
		return ErrForbidden
	}
	return s.store.Items().Update(ctx, id, patch)
}

// Delete removes the item and its favorites in one transaction. A missing
// item is not an error.
func (s *itemService) Delete(ctx context.Context, actorID string, id uint64) error {
	var removed int64
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		item, err := tx.Items().FindByID(ctx, id)
		if err != nil {
			return err
		}
		if item == nil {
			return nil
		}
		if item.OwnerID != actorID {
			return ErrForbidden
		}
		removed, err = tx.Favorites().DeleteByItem(ctx, id)
		if err != nil {
			return err
		}
		return tx.Items().Delete(ctx, id)
	})
	if err != nil {
		return err
	}
	s.metrics.CascadeDeletes.Add(float64(removed))
	logger.FromContext(ctx).Info().Uint64("item", id).Int64("favorites_removed", removed).Msg("item_deleted")
	return nil
}

// ToggleFavorite flips the pair and retries when a concurrent toggle for the
// same pair wins the insert.
func (s *itemService) ToggleFavorite(ctx context.Context, userID string, itemID uint64) (bool, error) {
	log := logger.FromContext(ctx)
	var lastErr error
	for attempt := 1; attempt <= maxToggleAttempts; attempt++ {
		favorited, err := s.store.Favorites().Toggle(ctx, userID, itemID)
		if err == nil {
			s.metrics.FavoriteToggles.WithLabelValues(stateLabel(favorited)).Inc()
			log.Debug().Uint64("item", itemID).Bool("favorited", favorited).Int("attempt", attempt).Msg("favorite_toggled")
			return favorited, nil
		}
		if !errors.Is(err, repository.ErrConflict) {
			return false, err
		}
		s.metrics.FavoriteConflicts.Inc()
		log.Warn().Uint64("item", itemID).Int("attempt", attempt).Msg("favorite_toggle_conflict")
		lastErr = err
		if ctx.Err() != nil {
			break
		}
	}
	return false, lastErr
}

// Describe resolves the image reference and asks the caption service for
// listing text. Nothing is persisted; the caller submits the text as a
// normal description.
func (s *itemService) Describe(ctx context.Context, imageRef, hint string) (string, error) {
	if s.captioner == nil || s.fetcher == nil {
		return "", ErrCaptionUnavailable
	}
	if strings.TrimSpace(imageRef) == "" {
		return "", &repository.ValidationError{Field: "image", Reason: "is required"}
	}
	img, err := s.fetcher.Fetch(ctx, imageRef)
	if err != nil {
		s.metrics.CaptionRequests.WithLabelValues("fetch_error").Inc()
		if errors.Is(err, imagesrc.ErrUnsupportedRef) || errors.Is(err, imagesrc.ErrTooLarge) ||
			errors.Is(err, imagesrc.ErrNoStorage) || errors.Is(err, imagesrc.ErrBlockedAddress) {
			return "", &repository.ValidationError{Field: "image", Reason: err.Error()}
		}
		return "", err
	}
	text, err := s.captioner.Describe(ctx, img.Data, img.MimeType, hint)
	if err != nil {
		s.metrics.CaptionRequests.WithLabelValues("caption_error").Inc()
		return "", err
	}
	s.metrics.CaptionRequests.WithLabelValues("ok").Inc()
	return text, nil
}

func stateLabel(favorited bool) string {
	if favorited {
		return "on"
	}
	return "off"
}
