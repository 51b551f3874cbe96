package model

// Item is a single marketplace listing. Price is in minor currency units.
type Item struct {
	ID          uint64  `gorm:"primaryKey;autoIncrement"`
	Title       string  `gorm:"size:120;not null"`
	Price       int64   `gorm:"not null"`
	Description *string `gorm:"type:text"`
	Image       string  `gorm:"type:text;not null"`
	WhatsApp    string  `gorm:"column:whatsapp;size:32;not null"`
	OwnerID     string  `gorm:"column:owner_id;size:128;not null;index:idx_items_owner_id"`
}

func (Item) TableName() string {
	return "items"
}

// NewItem carries the fields of an item that has not been assigned an id yet.
type NewItem struct {
	Title       string
	Price       int64
	Description string
	Image       string
	WhatsApp    string
	OwnerID     string
}

// ItemPatch is a partial update. Nil fields are left untouched; an empty
// Description clears the stored description.
type ItemPatch struct {
	Title       *string
	Price       *int64
	Description *string
	Image       *string
	WhatsApp    *string
}

func (p ItemPatch) IsEmpty() bool {
	return p.Title == nil && p.Price == nil && p.Description == nil && p.Image == nil && p.WhatsApp == nil
}

// ItemView is an item decorated with the requesting user's favorite status.
type ItemView struct {
	Item
	IsFavorite bool
}
