package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/shinyyama/furnimarket-backend/internal/model"
	"gorm.io/gorm"
)

const (
	maxTitleLen    = 120
	maxWhatsAppLen = 32
)

// ItemRepository is the catalog store. It executes what it is asked;
// ownership is checked by the caller.
type ItemRepository interface {
	Create(ctx context.Context, in model.NewItem) (*model.Item, error)
	Update(ctx context.Context, id uint64, patch model.ItemPatch) error
	Delete(ctx context.Context, id uint64) error
	FindByID(ctx context.Context, id uint64) (*model.Item, error)
	FindByIDs(ctx context.Context, ids []uint64) ([]model.Item, error)
	FindByImage(ctx context.Context, image string) (*model.Item, error)
	ListAll(ctx context.Context) ([]model.Item, error)
	ListByOwner(ctx context.Context, ownerID string) ([]model.Item, error)
	SetDB(db *gorm.DB)
}

type itemRepository struct {
	db *gorm.DB
}

func NewItemRepository(db *gorm.DB) ItemRepository {
	return &itemRepository{db: db}
}

func (r *itemRepository) Create(ctx context.Context, in model.NewItem) (*model.Item, error) {
	if r.db == nil {
		return nil, storageErr("create item", ErrDBNotReady)
	}
	if err := ValidateNewItem(in); err != nil {
		return nil, err
	}
	item := &model.Item{
		Title:       strings.TrimSpace(in.Title),
		Price:       in.Price,
		Description: optionalText(in.Description),
		Image:       strings.TrimSpace(in.Image),
		WhatsApp:    strings.TrimSpace(in.WhatsApp),
		OwnerID:     strings.TrimSpace(in.OwnerID),
	}
	if err := r.db.WithContext(ctx).Create(item).Error; err != nil {
		return nil, storageErr("create item", err)
	}
	return item, nil
}

func (r *itemRepository) Update(ctx context.Context, id uint64, patch model.ItemPatch) error {
	if r.db == nil {
		return storageErr("update item", ErrDBNotReady)
	}
	if patch.IsEmpty() {
		return invalid("patch", "no fields to update")
	}
	updates := map[string]interface{}{}
	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if err := validateTitle(title); err != nil {
			return err
		}
		updates["title"] = title
	}
	if patch.Price != nil {
		if *patch.Price < 0 {
			return invalid("price", "must be a non-negative integer")
		}
		updates["price"] = *patch.Price
	}
	if patch.Description != nil {
		updates["description"] = optionalText(*patch.Description)
	}
	if patch.Image != nil {
		image := strings.TrimSpace(*patch.Image)
		if image == "" {
			return invalid("image", "is required")
		}
		updates["image"] = image
	}
	if patch.WhatsApp != nil {
		whatsapp := strings.TrimSpace(*patch.WhatsApp)
		if err := validateWhatsApp(whatsapp); err != nil {
			return err
		}
		updates["whatsapp"] = whatsapp
	}

	res := r.db.WithContext(ctx).
		Model(&model.Item{}).
		Where("id = ?", id).
		Updates(updates)
	if res.Error != nil {
		return storageErr("update item", res.Error)
	}
	if res.RowsAffected == 0 {
		// MySQL reports zero affected rows when values are unchanged.
		var n int64
		if err := r.db.WithContext(ctx).Model(&model.Item{}).Where("id = ?", id).Count(&n).Error; err != nil {
			return storageErr("update item", err)
		}
		if n == 0 {
			return ErrNotFound
		}
	}
	return nil
}

// Delete removes the row. Deleting a missing id succeeds.
func (r *itemRepository) Delete(ctx context.Context, id uint64) error {
	if r.db == nil {
		return storageErr("delete item", ErrDBNotReady)
	}
	if err := r.db.WithContext(ctx).Delete(&model.Item{}, id).Error; err != nil {
		return storageErr("delete item", err)
	}
	return nil
}

// FindByID returns nil without error when the item does not exist.
func (r *itemRepository) FindByID(ctx context.Context, id uint64) (*model.Item, error) {
	if r.db == nil {
		return nil, storageErr("find item", ErrDBNotReady)
	}
	var item model.Item
	if err := r.db.WithContext(ctx).First(&item, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, storageErr("find item", err)
	}
	return &item, nil
}

// FindByIDs returns the existing items among ids, in no particular order.
func (r *itemRepository) FindByIDs(ctx context.Context, ids []uint64) ([]model.Item, error) {
	if r.db == nil {
		return nil, storageErr("find items", ErrDBNotReady)
	}
	items := []model.Item{}
	if len(ids) == 0 {
		return items, nil
	}
	if err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&items).Error; err != nil {
		return nil, storageErr("find items", err)
	}
	return items, nil
}

func (r *itemRepository) FindByImage(ctx context.Context, image string) (*model.Item, error) {
	if r.db == nil {
		return nil, storageErr("find item by image", ErrDBNotReady)
	}
	var item model.Item
	if err := r.db.WithContext(ctx).
		Where("image = ?", image).
		First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, storageErr("find item by image", err)
	}
	return &item, nil
}

func (r *itemRepository) ListAll(ctx context.Context) ([]model.Item, error) {
	if r.db == nil {
		return nil, storageErr("list items", ErrDBNotReady)
	}
	items := []model.Item{}
	if err := r.db.WithContext(ctx).
		Order("id DESC").
		Find(&items).Error; err != nil {
		return nil, storageErr("list items", err)
	}
	return items, nil
}

func (r *itemRepository) ListByOwner(ctx context.Context, ownerID string) ([]model.Item, error) {
	if r.db == nil {
		return nil, storageErr("list owner items", ErrDBNotReady)
	}
	items := []model.Item{}
	if err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("id DESC").
		Find(&items).Error; err != nil {
		return nil, storageErr("list owner items", err)
	}
	return items, nil
}

func (r *itemRepository) SetDB(db *gorm.DB) {
	r.db = db
}

// ValidateNewItem checks the fields required to create a listing.
func ValidateNewItem(in model.NewItem) error {
	if err := validateTitle(strings.TrimSpace(in.Title)); err != nil {
		return err
	}
	if in.Price < 0 {
		return invalid("price", "must be a non-negative integer")
	}
	if strings.TrimSpace(in.Image) == "" {
		return invalid("image", "is required")
	}
	if err := validateWhatsApp(strings.TrimSpace(in.WhatsApp)); err != nil {
		return err
	}
	if strings.TrimSpace(in.OwnerID) == "" {
		return invalid("ownerId", "is required")
	}
	return nil
}

func validateTitle(title string) error {
	if title == "" {
		return invalid("title", "is required")
	}
	if len([]rune(title)) > maxTitleLen {
		return invalid("title", "must be at most 120 characters")
	}
	return nil
}

func validateWhatsApp(whatsapp string) error {
	if whatsapp == "" {
		return invalid("whatsapp", "is required")
	}
	if len([]rune(whatsapp)) > maxWhatsAppLen {
		return invalid("whatsapp", "must be at most 32 characters")
	}
	return nil
}

func optionalText(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
