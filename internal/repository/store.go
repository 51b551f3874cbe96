package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// Store groups the catalog and favorites repositories over one connection and
// exposes a transactional scope spanning both.
type Store struct {
	db        *gorm.DB
	now       func() time.Time
	items     ItemRepository
	favorites FavoriteRepository
}

func NewStore(db *gorm.DB) *Store {
	s := &Store{now: time.Now}
	s.SetDB(db)
	return s
}

func (s *Store) Items() ItemRepository {
	return s.items
}

func (s *Store) Favorites() FavoriteRepository {
	return s.favorites
}

func (s *Store) SetDB(db *gorm.DB) {
	s.db = db
	s.items = NewItemRepository(db)
	s.favorites = NewFavoriteRepository(db)
	s.favorites.SetClock(s.now)
}

func (s *Store) SetClock(now func() time.Time) {
	if now == nil {
		now = time.Now
	}
	s.now = now
	s.favorites.SetClock(now)
}

// Transaction runs fn with repositories bound to a single transaction. The
// transaction commits when fn returns nil and rolls back otherwise; fn's
// error is returned unchanged.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	if s.db == nil {
		return storageErr("begin transaction", ErrDBNotReady)
	}
	return s.db.WithContext(ctx).Transaction(func(gtx *gorm.DB) error {
		scoped := &Store{now: s.now}
		scoped.SetDB(gtx)
		return fn(scoped)
	})
}

func (s *Store) Ping(ctx context.Context) error {
	if s.db == nil {
		return storageErr("ping", ErrDBNotReady)
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return storageErr("ping", err)
	}
	return storageErr("ping", sqlDB.PingContext(ctx))
}
