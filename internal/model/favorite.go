package model

import "time"

// Favorite is a user's like of an item. (UserID, ItemID) is the primary key.
type Favorite struct {
	UserID    string    `gorm:"column:user_id;primaryKey;size:128;index:idx_favorites_user_created,priority:1"`
	ItemID    uint64    `gorm:"column:item_id;primaryKey;autoIncrement:false"`
	CreatedAt time.Time `gorm:"column:created_at;not null;index:idx_favorites_user_created,priority:2"`

	Item *Item `gorm:"foreignKey:ItemID;references:ID;constraint:OnDelete:CASCADE"`
}

func (Favorite) TableName() string {
	return "favorites"
}
