package repository

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/shinyyama/furnimarket-backend/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestItemCreateThenFind(t *testing.T) {
	ctx := context.Background()
	repo := NewItemRepository(openTestDB(t))

	in := sampleItem("u1")
	in.Description = "  três lugares  "
	created, err := repo.Create(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), created.ID)

	got, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, created, got)
	assert.Equal(t, "Sofá", got.Title)
	assert.Equal(t, int64(250000), got.Price)
	require.NotNil(t, got.Description)
	assert.Equal(t, "três lugares", *got.Description)
	assert.Equal(t, "uri://1", got.Image)
	assert.Equal(t, "+5511999999999", got.WhatsApp)
	assert.Equal(t, "u1", got.OwnerID)
}

func TestItemCreateEmptyDescriptionIsAbsent(t *testing.T) {
	repo := NewItemRepository(openTestDB(t))
	item := mustCreate(t, repo, sampleItem("u1"))
	assert.Nil(t, item.Description)
}

func TestItemCreateValidation(t *testing.T) {
	repo := NewItemRepository(openTestDB(t))
	tests := []struct {
		name  string
		edit  func(*model.NewItem)
		field string
	}{
		{"missing title", func(in *model.NewItem) { in.Title = "   " }, "title"},
		{"long title", func(in *model.NewItem) { in.Title = strings.Repeat("a", 121) }, "title"},
		{"negative price", func(in *model.NewItem) { in.Price = -1 }, "price"},
		{"missing image", func(in *model.NewItem) { in.Image = "" }, "image"},
		{"missing whatsapp", func(in *model.NewItem) { in.WhatsApp = "" }, "whatsapp"},
		{"long whatsapp", func(in *model.NewItem) { in.WhatsApp = strings.Repeat("9", 64) }, "whatsapp"},
		{"missing owner", func(in *model.NewItem) { in.OwnerID = "" }, "ownerId"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := sampleItem("u1")
			tt.edit(&in)
			_, err := repo.Create(context.Background(), in)
			require.ErrorIs(t, err, ErrValidation)
			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestItemZeroPriceIsValid(t *testing.T) {
	repo := NewItemRepository(openTestDB(t))
	in := sampleItem("u1")
	in.Price = 0
	item := mustCreate(t, repo, in)
	assert.Zero(t, item.Price)
}

func TestItemFindMissingIsAbsent(t *testing.T) {
	repo := NewItemRepository(openTestDB(t))
	got, err := repo.FindByID(context.Background(), 42)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestItemUpdatePartial(t *testing.T) {
	ctx := context.Background()
	repo := NewItemRepository(openTestDB(t))
	in := sampleItem("u1")
	in.Description = "antes"
	item := mustCreate(t, repo, in)

	price := int64(199900)
	title := "Sofá retrátil"
	require.NoError(t, repo.Update(ctx, item.ID, model.ItemPatch{Title: &title, Price: &price}))

	got, err := repo.FindByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, title, got.Title)
	assert.Equal(t, price, got.Price)
	require.NotNil(t, got.Description)
	assert.Equal(t, "antes", *got.Description)
	assert.Equal(t, "u1", got.OwnerID)
	assert.Equal(t, item.ID, got.ID)

	empty := ""
	require.NoError(t, repo.Update(ctx, item.ID, model.ItemPatch{Description: &empty}))
	got, err = repo.FindByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Nil(t, got.Description)
}

func TestItemUpdateSameValues(t *testing.T) {
	ctx := context.Background()
	repo := NewItemRepository(openTestDB(t))
	item := mustCreate(t, repo, sampleItem("u1"))

	title := item.Title
	require.NoError(t, repo.Update(ctx, item.ID, model.ItemPatch{Title: &title}))
}

func TestItemUpdateErrors(t *testing.T) {
	ctx := context.Background()
	repo := NewItemRepository(openTestDB(t))
	item := mustCreate(t, repo, sampleItem("u1"))

	title := "novo"
	err := repo.Update(ctx, 999, model.ItemPatch{Title: &title})
	require.ErrorIs(t, err, ErrNotFound)

	err = repo.Update(ctx, item.ID, model.ItemPatch{})
	require.ErrorIs(t, err, ErrValidation)

	neg := int64(-5)
	err = repo.Update(ctx, item.ID, model.ItemPatch{Price: &neg})
	require.ErrorIs(t, err, ErrValidation)

	blank := " "
	err = repo.Update(ctx, item.ID, model.ItemPatch{Image: &blank})
	require.ErrorIs(t, err, ErrValidation)
	err = repo.Update(ctx, item.ID, model.ItemPatch{Title: &blank})
	require.ErrorIs(t, err, ErrValidation)
	err = repo.Update(ctx, item.ID, model.ItemPatch{WhatsApp: &blank})
	require.ErrorIs(t, err, ErrValidation)

	long := strings.Repeat("9", 33)
	err = repo.Update(ctx, item.ID, model.ItemPatch{WhatsApp: &long})
	require.ErrorIs(t, err, ErrValidation)
}

func TestItemWhatsAppAtLimit(t *testing.T) {
	repo := NewItemRepository(openTestDB(t))
	in := sampleItem("u1")
	in.WhatsApp = strings.Repeat("9", maxWhatsAppLen)
	item := mustCreate(t, repo, in)
	assert.Equal(t, in.WhatsApp, item.WhatsApp)
}

func TestItemDeleteIsIdempotent(t *testing.T) {
	ctx := context.Background()
	repo := NewItemRepository(openTestDB(t))
	item := mustCreate(t, repo, sampleItem("u1"))

	require.NoError(t, repo.Delete(ctx, item.ID))
	require.NoError(t, repo.Delete(ctx, item.ID))

	got, err := repo.FindByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestItemListOrdering(t *testing.T) {
	ctx := context.Background()
	repo := NewItemRepository(openTestDB(t))
	a := mustCreate(t, repo, sampleItem("u1"))
	b := mustCreate(t, repo, sampleItem("u2"))
	c := mustCreate(t, repo, sampleItem("u1"))

	all, err := repo.ListAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []uint64{c.ID, b.ID, a.ID}, ids(all))

	mine, err := repo.ListByOwner(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []uint64{c.ID, a.ID}, ids(mine))

	none, err := repo.ListByOwner(ctx, "nobody")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestItemFindByImage(t *testing.T) {
	ctx := context.Background()
	repo := NewItemRepository(openTestDB(t))
	item := mustCreate(t, repo, sampleItem("u1"))

	got, err := repo.FindByImage(ctx, "uri://1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, item.ID, got.ID)

	got, err = repo.FindByImage(ctx, "uri://missing")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestItemFindByIDs(t *testing.T) {
	ctx := context.Background()
	repo := NewItemRepository(openTestDB(t))
	a := mustCreate(t, repo, sampleItem("u1"))
	b := mustCreate(t, repo, sampleItem("u2"))

	got, err := repo.FindByIDs(ctx, []uint64{b.ID, 999, a.ID})
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint64{a.ID, b.ID}, ids(got))

	got, err = repo.FindByIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestItemRepositoryWithoutDB(t *testing.T) {
	repo := NewItemRepository(nil)
	_, err := repo.ListAll(context.Background())
	require.ErrorIs(t, err, ErrStorage)
	require.ErrorIs(t, err, ErrDBNotReady)
}

func ids(items []model.Item) []uint64 {
	out := make([]uint64, 0, len(items))
	for _, it := range items {
		out = append(out, it.ID)
	}
	return out
}
