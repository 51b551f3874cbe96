package repository

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/shinyyama/furnimarket-backend/internal/db"
	"github.com/shinyyama/furnimarket-backend/internal/model"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := db.OpenSQLite(filepath.Join(t.TempDir(), "test.db"), nil)
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return gdb
}

// stepClock returns strictly increasing timestamps one second apart.
type stepClock struct {
	mu sync.Mutex
	t  time.Time
}

func newStepClock() *stepClock {
	return &stepClock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

func sampleItem(owner string) model.NewItem {
	return model.NewItem{
		Title:    "Sofá",
		Price:    250000,
		Image:    "uri://1",
		WhatsApp: "+5511999999999",
		OwnerID:  owner,
	}
}

func mustCreate(t *testing.T, repo ItemRepository, in model.NewItem) *model.Item {
	t.Helper()
	item, err := repo.Create(context.Background(), in)
	require.NoError(t, err)
	return item
}
