package repository

import (
	"context"
	"strings"
	"time"

	"github.com/shinyyama/furnimarket-backend/internal/model"
	"gorm.io/gorm"
)

// FavoriteRepository is the favorites index. The (user_id, item_id) primary
// key is the source of truth for uniqueness; Toggle never relies on a prior
// read being race free.
type FavoriteRepository interface {
	Exists(ctx context.Context, userID string, itemID uint64) (bool, error)
	Toggle(ctx context.Context, userID string, itemID uint64) (bool, error)
	ListByUser(ctx context.Context, userID string) ([]model.Favorite, error)
	DeleteByItem(ctx context.Context, itemID uint64) (int64, error)
	SetDB(db *gorm.DB)
	SetClock(now func() time.Time)
}

type favoriteRepository struct {
	db  *gorm.DB
	now func() time.Time
}

func NewFavoriteRepository(db *gorm.DB) FavoriteRepository {
	return &favoriteRepository{db: db, now: time.Now}
}

func (r *favoriteRepository) Exists(ctx context.Context, userID string, itemID uint64) (bool, error) {
	if r.db == nil {
		return false, storageErr("favorite exists", ErrDBNotReady)
	}
	var n int64
	if err := r.db.WithContext(ctx).
		Model(&model.Favorite{}).
		Where("user_id = ? AND item_id = ?", userID, itemID).
		Count(&n).Error; err != nil {
		return false, storageErr("favorite exists", err)
	}
	return n > 0, nil
}

// Toggle removes the pair when present and inserts it otherwise, returning
// the resulting state. A concurrent insert of the same pair loses on the
// primary key and is reported as ErrConflict.
func (r *favoriteRepository) Toggle(ctx context.Context, userID string, itemID uint64) (bool, error) {
	if r.db == nil {
		return false, storageErr("toggle favorite", ErrDBNotReady)
	}
	if strings.TrimSpace(userID) == "" {
		return false, invalid("userId", "is required")
	}

	var favorited bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&model.Item{}).Where("id = ?", itemID).Count(&n).Error; err != nil {
			return classify("toggle favorite", err)
		}
		if n == 0 {
			return ErrNotFound
		}

		res := tx.Where("user_id = ? AND item_id = ?", userID, itemID).Delete(&model.Favorite{})
		if res.Error != nil {
			return classify("toggle favorite", res.Error)
		}
		if res.RowsAffected > 0 {
			favorited = false
			return nil
		}

		fav := model.Favorite{UserID: userID, ItemID: itemID, CreatedAt: r.now()}
		if err := tx.Create(&fav).Error; err != nil {
			return classify("toggle favorite", err)
		}
		favorited = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return favorited, nil
}

// ListByUser returns the user's favorites, most recently created first.
func (r *favoriteRepository) ListByUser(ctx context.Context, userID string) ([]model.Favorite, error) {
	if r.db == nil {
		return nil, storageErr("list favorites", ErrDBNotReady)
	}
	list := []model.Favorite{}
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("item_id DESC").
		Find(&list).Error; err != nil {
		return nil, storageErr("list favorites", err)
	}
	return list, nil
}

// DeleteByItem removes every favorite of the item and reports how many rows went.
func (r *favoriteRepository) DeleteByItem(ctx context.Context, itemID uint64) (int64, error) {
	if r.db == nil {
		return 0, storageErr("delete item favorites", ErrDBNotReady)
	}
	res := r.db.WithContext(ctx).
		Where("item_id = ?", itemID).
		Delete(&model.Favorite{})
	if res.Error != nil {
		return 0, storageErr("delete item favorites", res.Error)
	}
	return res.RowsAffected, nil
}

func (r *favoriteRepository) SetDB(db *gorm.DB) {
	r.db = db
}

func (r *favoriteRepository) SetClock(now func() time.Time) {
	if now == nil {
		now = time.Now
	}
	r.now = now
}

// classify maps write races to ErrConflict and everything else to ErrStorage.
func classify(op string, err error) error {
	if isDuplicateKey(err) || isTransientLock(err) {
		return ErrConflict
	}
	return storageErr(op, err)
}

func isTransientLock(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "Deadlock found") ||
		strings.Contains(msg, "Lock wait timeout") ||
		strings.Contains(msg, "database is locked")
}
