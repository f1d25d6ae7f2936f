package loan

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiebiao/library/internal/domain/book"
	"github.com/xiebiao/library/internal/domain/cart"
	"github.com/xiebiao/library/internal/domain/loan"
)

func TestAvailabilityForBook(t *testing.T) {
	f := newFixture()
	f.db.addBook(1, 2, true)
	ctx := context.Background()

	a, err := f.availability.ForBook(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, Availability{BookID: 1, Total: 2, OnLoan: 0, Available: 2}, a)

	_, err = f.availability.ForBook(ctx, 404)
	assert.ErrorIs(t, err, book.ErrBookNotFound)
}

func TestAvailabilityForBooksSkipsMissing(t *testing.T) {
	f := newFixture()
	f.db.addBook(1, 1, true)
	f.db.addBook(2, 3, true)

	got, err := f.availability.ForBooks(context.Background(), []uint{1, 2, 3})
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, 3, got[2].Available)
}

func TestCartAdd(t *testing.T) {
	f := newFixture()
	f.db.addBook(1, 1, true)
	ctx := context.Background()

	view, err := f.cart.Add(ctx, alice, 1)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, "alice", view.AddedBy)
	assert.Equal(t, 1, view.Items[0].Available)

	// 重复加入不报错也不重复
	view, err = f.cart.Add(ctx, alice, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, view.Count)
}

func TestCartAddRejectsInactiveBook(t *testing.T) {
	f := newFixture()
	f.db.addBook(1, 1, false)

	_, err := f.cart.Add(context.Background(), alice, 1)
	assert.ErrorIs(t, err, book.ErrBookInactive)
	assert.Empty(t, f.carts.ids(alice.UserID))
}

func TestCartAddRejectsNoStock(t *testing.T) {
	f := newFixture()
	f.db.addBook(1, 0, true)

	_, err := f.cart.Add(context.Background(), alice, 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, loan.ErrNoAvailability)

	ns, ok := IsNoStock(err)
	require.True(t, ok)
	assert.Equal(t, 0, ns.Availability.Total)
	assert.Equal(t, 0, ns.Availability.Available)
}

func TestCartCapEvictsOldest(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	for id := uint(1); id <= cart.MaxItems+1; id++ {
		f.db.addBook(id, 1, true)
		_, err := f.cart.Add(ctx, alice, id)
		require.NoError(t, err)
	}

	ids := f.carts.ids(alice.UserID)
	assert.Len(t, ids, cart.MaxItems)
	assert.Equal(t, uint(cart.MaxItems+1), ids[0], "最新加入的在最前")
	assert.NotContains(t, ids, uint(1), "最早加入的被淘汰")
}

func TestCartRemoveIsIdempotent(t *testing.T) {
	f := newFixture()
	f.db.addBook(1, 1, true)
	f.db.addBook(2, 1, true)
	ctx := context.Background()
	f.carts.seed(alice.UserID, 2, 1)

	_, err := f.cart.Remove(ctx, alice, 2)
	require.NoError(t, err)
	view, err := f.cart.Remove(ctx, alice, 2)
	require.NoError(t, err)

	assert.Equal(t, []uint{1}, f.carts.ids(alice.UserID))
	assert.Equal(t, 1, view.Count)
}

func TestCartListKeepsOrderAndSkipsDeletedBooks(t *testing.T) {
	f := newFixture()
	f.db.addBook(1, 1, true)
	f.db.addBook(3, 2, true)
	f.carts.seed(alice.UserID, 3, 2, 1)

	view, err := f.cart.List(context.Background(), alice)
	require.NoError(t, err)
	require.Len(t, view.Items, 2)
	assert.EqualValues(t, 3, view.Items[0].BookID)
	assert.EqualValues(t, 1, view.Items[1].BookID)
	assert.Equal(t, 2, view.Items[0].Total)
}

func TestCartIsPerUser(t *testing.T) {
	f := newFixture()
	f.db.addBook(1, 1, true)
	ctx := context.Background()

	_, err := f.cart.Add(ctx, alice, 1)
	require.NoError(t, err)

	view, err := f.cart.List(ctx, bob)
	require.NoError(t, err)
	assert.Empty(t, view.Items)

	require.NoError(t, f.cart.Clear(ctx, alice))
	assert.Empty(t, f.carts.ids(alice.UserID))
}
