package service

import (
	"context"

	"github.com/shinyyama/furnimarket-backend/internal/logger"
	"github.com/shinyyama/furnimarket-backend/internal/metrics"
	"github.com/shinyyama/furnimarket-backend/internal/model"
	"github.com/shinyyama/furnimarket-backend/internal/repository"
)

// ViewService assembles read-only projections. An empty requesting user id
// means an anonymous viewer.
type ViewService interface {
	BuildFeed(ctx context.Context, requestingUserID string) ([]model.ItemView, error)
	BuildDetail(ctx context.Context, itemID uint64, requestingUserID string) (*model.ItemView, error)
	BuildFavoritesView(ctx context.Context, userID string) ([]model.ItemView, error)
	BuildMyItems(ctx context.Context, ownerID string) ([]model.Item, error)
}

type viewService struct {
	store   *repository.Store
	metrics *metrics.Registry
}

func NewViewService(store *repository.Store, m *metrics.Registry) ViewService {
	if m == nil {
		m = metrics.New()
	}
	return &viewService{store: store, metrics: m}
}

// BuildFeed lists every item newest first, marking the ones the requesting
// user has favorited.
func (s *viewService) BuildFeed(ctx context.Context, requestingUserID string) ([]model.ItemView, error) {
	var (
		items []model.Item
		favs  []model.Favorite
	)
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		var err error
		if items, err = tx.Items().ListAll(ctx); err != nil {
			return err
		}
		if requestingUserID == "" {
			return nil
		}
		favs, err = tx.Favorites().ListByUser(ctx, requestingUserID)
		return err
	})
	if err != nil {
		return nil, err
	}

	favorited := make(map[uint64]struct{}, len(favs))
	for _, f := range favs {
		favorited[f.ItemID] = struct{}{}
	}
	views := make([]model.ItemView, 0, len(items))
	for _, it := range items {
		_, ok := favorited[it.ID]
		views = append(views, model.ItemView{Item: it, IsFavorite: ok})
	}
	return views, nil
}

// BuildDetail returns nil without error when the item does not exist.
func (s *viewService) BuildDetail(ctx context.Context, itemID uint64, requestingUserID string) (*model.ItemView, error) {
	item, err := s.store.Items().FindByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, nil
	}
	view := &model.ItemView{Item: *item}
	if requestingUserID != "" {
		if view.IsFavorite, err = s.store.Favorites().Exists(ctx, requestingUserID, itemID); err != nil {
			return nil, err
		}
	}
	return view, nil
}

// BuildFavoritesView returns the user's favorited items ordered by when they
// were favorited, newest first. A favorite whose item is gone is reported and
// left out.
func (s *viewService) BuildFavoritesView(ctx context.Context, userID string) ([]model.ItemView, error) {
	var (
		favs  []model.Favorite
		items []model.Item
	)
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		var err error
		if favs, err = tx.Favorites().ListByUser(ctx, userID); err != nil {
			return err
		}
		ids := make([]uint64, 0, len(favs))
		for _, f := range favs {
			ids = append(ids, f.ItemID)
		}
		items, err = tx.Items().FindByIDs(ctx, ids)
		return err
	})
	if err != nil {
		return nil, err
	}

	byID := make(map[uint64]model.Item, len(items))
	for _, it := range items {
		byID[it.ID] = it
	}
	views := make([]model.ItemView, 0, len(favs))
	for _, f := range favs {
		it, ok := byID[f.ItemID]
		if !ok {
			s.metrics.DanglingFavorites.Inc()
			logger.FromContext(ctx).Error().
				Str("user", f.UserID).
				Uint64("item", f.ItemID).
				Time("favorited_at", f.CreatedAt).
				Msg("dangling_favorite")
			continue
		}
		views = append(views, model.ItemView{Item: it, IsFavorite: true})
	}
	return views, nil
}

func (s *viewService) BuildMyItems(ctx context.Context, ownerID string) ([]model.Item, error) {
	return s.store.Items().ListByOwner(ctx, ownerID)
}
