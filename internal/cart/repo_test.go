package cart

import (
	"context"
	"testing"

	"github.com/angelmondragon/ecommerce-backend/pkg/db/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestRepositoryCreateHeaderDuplicateUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	header, err := f.repo.CreateHeader(ctx, f.user.ID)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, header.ID)

	_, err = f.repo.CreateHeader(ctx, f.user.ID)
	require.ErrorIs(t, err, ErrHeaderExists)
}

func TestRepositoryUpsertItem(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	product := f.product(t, "Bolt", "0.50")

	header, err := f.repo.CreateHeader(ctx, f.user.ID)
	require.NoError(t, err)

	item, err := f.repo.UpsertItem(ctx, &models.CartItem{
		CartHeaderID: header.ID,
		ProductID:    product.ID,
		Quantity:     2,
		Subtotal:     dec("1.00"),
	})
	require.NoError(t, err)

	_, err = f.repo.UpsertItem(ctx, &models.CartItem{
		CartHeaderID: header.ID,
		ProductID:    product.ID,
		Quantity:     1,
		Subtotal:     dec("0.50"),
	})
	require.ErrorIs(t, err, ErrItemExists)

	item.Quantity = 6
	item.Subtotal = dec("3.00")
	_, err = f.repo.UpsertItem(ctx, item)
	require.NoError(t, err)

	stored, err := f.repo.FindItem(ctx, header.ID, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 6, stored.Quantity)
	assert.True(t, stored.Subtotal.Equal(dec("3.00")))

	_, err = f.repo.UpsertItem(ctx, &models.CartItem{ID: uuid.New(), Quantity: 1})
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepositoryDeleteItemMissing(t *testing.T) {
	f := newFixture(t)
	err := f.repo.DeleteItem(context.Background(), uuid.New())
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepositoryDeleteItemsByProduct(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	doomed := f.product(t, "Doomed", "1.00")
	kept := f.product(t, "Kept", "1.00")

	solo, err := f.repo.CreateHeader(ctx, f.user.ID)
	require.NoError(t, err)
	mixed, err := f.repo.CreateHeader(ctx, f.otherUser(t).ID)
	require.NoError(t, err)

	for _, it := range []models.CartItem{
		{CartHeaderID: solo.ID, ProductID: doomed.ID, Quantity: 1, Subtotal: dec("1.00")},
		{CartHeaderID: mixed.ID, ProductID: doomed.ID, Quantity: 1, Subtotal: dec("1.00")},
		{CartHeaderID: mixed.ID, ProductID: kept.ID, Quantity: 1, Subtotal: dec("1.00")},
	} {
		_, err := f.repo.UpsertItem(ctx, &it)
		require.NoError(t, err)
	}

	headerIDs, err := f.repo.DeleteItemsByProduct(ctx, doomed.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{solo.ID, mixed.ID}, headerIDs)

	require.NoError(t, f.repo.DeleteEmptyHeaders(ctx, headerIDs))

	_, err = f.repo.FindHeaderByID(ctx, solo.ID)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
	_, err = f.repo.FindHeaderByID(ctx, mixed.ID)
	require.NoError(t, err)

	count, err := f.repo.CountItems(ctx, mixed.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}
