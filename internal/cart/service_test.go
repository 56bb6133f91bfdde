package cart

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/resinriver/storefront/pkg/db"
	"github.com/resinriver/storefront/pkg/db/dbtest"
	"github.com/resinriver/storefront/pkg/db/models"
	pkgerrors "github.com/resinriver/storefront/pkg/errors"
)

type memSessions struct {
	carts     map[string]SessionCart
	deleteErr error
	deletes   int
}

func newMemSessions() *memSessions {
	return &memSessions{carts: map[string]SessionCart{}}
}

func (m *memSessions) Load(_ context.Context, token string) (SessionCart, error) {
	out := SessionCart{}
	for k, v := range m.carts[token] {
		out[k] = v
	}
	return out, nil
}

func (m *memSessions) Save(_ context.Context, token string, cart SessionCart) error {
	if cart.IsEmpty() {
		delete(m.carts, token)
		return nil
	}
	m.carts[token] = cart
	return nil
}

func (m *memSessions) Delete(_ context.Context, token string) error {
	m.deletes++
	if m.deleteErr != nil {
		return m.deleteErr
	}
	delete(m.carts, token)
	return nil
}

type cartFixture struct {
	db       *gorm.DB
	svc      Service
	repo     *Repository
	sessions *memSessions
	coaster  *models.Item
	tray     *models.Item
	retired  *models.Item
	user     uuid.UUID
}

func newCartFixture(t *testing.T) cartFixture {
	t.Helper()
	conn := dbtest.Open(t)
	sessions := newMemSessions()
	repo := NewRepository(conn)
	svc, err := NewService(ServiceParams{
		Repo:     repo,
		Tx:       db.NewFromConn(conn),
		Sessions: sessions,
	})
	require.NoError(t, err)

	mk := func(name, slug, price string) *models.Item {
		item := &models.Item{Name: name, Slug: slug, Price: decimal.RequireFromString(price), Available: true}
		require.NoError(t, conn.Create(item).Error)
		return item
	}
	f := cartFixture{
		db:       conn,
		svc:      svc,
		repo:     repo,
		sessions: sessions,
		coaster:  mk("Coaster", "coaster", "15.00"),
		tray:     mk("Serving Tray", "serving-tray", "45.00"),
		retired:  mk("Old Lamp", "old-lamp", "80.00"),
		user:     uuid.New(),
	}
	require.NoError(t, conn.Model(&models.Item{}).Where("id = ?", f.retired.ID).Update("available", false).Error)
	return f
}

func (f cartFixture) quantity(t *testing.T, itemID uuid.UUID) int {
	t.Helper()
	cart, err := f.repo.FindByUser(context.Background(), f.user)
	require.NoError(t, err)
	row, err := f.repo.FindItem(context.Background(), cart.ID, itemID)
	require.NoError(t, err)
	return row.Quantity
}

func TestMergeSessionCartIntoEmptyUserCart(t *testing.T) {
	f := newCartFixture(t)
	ctx := context.Background()
	f.sessions.carts["guest"] = SessionCart{f.coaster.ID.String(): 2}

	migrated, err := f.svc.MergeSessionCart(ctx, f.user, "guest")
	require.NoError(t, err)
	assert.Equal(t, 1, migrated)
	assert.Equal(t, 2, f.quantity(t, f.coaster.ID))
	_, stillThere := f.sessions.carts["guest"]
	assert.False(t, stillThere, "session cart should be cleared after a merge")
}

func TestMergeSessionCartSkipsInvalidLines(t *testing.T) {
	f := newCartFixture(t)
	ctx := context.Background()
	f.sessions.carts["guest"] = SessionCart{
		"not-a-uuid":             1,
		f.retired.ID.String():    1,
		uuid.New().String():      3,
		f.tray.ID.String() + "x": 1,
	}

	migrated, err := f.svc.MergeSessionCart(ctx, f.user, "guest")
	require.NoError(t, err)
	assert.Equal(t, 0, migrated)
	assert.Zero(t, f.sessions.deletes, "nothing migrated so the session cart stays")
	assert.Contains(t, f.sessions.carts, "guest")
}

func TestMergeSessionCartAddsToExistingLines(t *testing.T) {
	f := newCartFixture(t)
	ctx := context.Background()
	_, err := f.svc.AddItem(ctx, UserOwner(f.user), f.coaster.ID, 1)
	require.NoError(t, err)

	f.sessions.carts["guest"] = SessionCart{f.coaster.ID.String(): 2, f.tray.ID.String(): 1}
	migrated, err := f.svc.MergeSessionCart(ctx, f.user, "guest")
	require.NoError(t, err)
	assert.Equal(t, 2, migrated)
	assert.Equal(t, 3, f.quantity(t, f.coaster.ID))
	assert.Equal(t, 1, f.quantity(t, f.tray.ID))
}

func TestMergeSessionCartRepeatsWhenSessionNotCleared(t *testing.T) {
	f := newCartFixture(t)
	ctx := context.Background()
	f.sessions.deleteErr = errors.New("redis down")
	f.sessions.carts["guest"] = SessionCart{f.coaster.ID.String(): 2}

	_, err := f.svc.MergeSessionCart(ctx, f.user, "guest")
	require.NoError(t, err)
	_, err = f.svc.MergeSessionCart(ctx, f.user, "guest")
	require.NoError(t, err)

	assert.Equal(t, 4, f.quantity(t, f.coaster.ID))
}

func TestMergeSessionCartLegacyListForm(t *testing.T) {
	f := newCartFixture(t)
	legacy, err := DecodeSessionCart([]byte(`["` + f.tray.ID.String() + `","` + f.tray.ID.String() + `"]`))
	require.NoError(t, err)
	f.sessions.carts["guest"] = legacy

	migrated, err := f.svc.MergeSessionCart(context.Background(), f.user, "guest")
	require.NoError(t, err)
	assert.Equal(t, 1, migrated)
	assert.Equal(t, 2, f.quantity(t, f.tray.ID))
}

func TestAddItemGuestCart(t *testing.T) {
	f := newCartFixture(t)
	ctx := context.Background()
	owner := GuestOwner("tok")

	_, err := f.svc.AddItem(ctx, owner, f.coaster.ID, 2)
	require.NoError(t, err)
	view, err := f.svc.AddItem(ctx, owner, f.coaster.ID, 1)
	require.NoError(t, err)

	require.Len(t, view.Lines, 1)
	assert.Equal(t, 3, view.Lines[0].Quantity)
	assert.Equal(t, 3, view.ItemCount)
	assert.True(t, view.Subtotal.Equal(decimal.RequireFromString("45.00")))
	assert.Equal(t, "tok", view.Token)
}

func TestAddItemCapsLineQuantity(t *testing.T) {
	f := newCartFixture(t)
	ctx := context.Background()

	_, err := f.svc.AddItem(ctx, UserOwner(f.user), f.tray.ID, 90)
	require.NoError(t, err)
	view, err := f.svc.AddItem(ctx, UserOwner(f.user), f.tray.ID, 20)
	require.NoError(t, err)
	assert.Equal(t, DefaultMaxLineQuantity, view.Lines[0].Quantity)
}

func TestAddItemHugeQuantityStaysCapped(t *testing.T) {
	f := newCartFixture(t)
	ctx := context.Background()

	for _, owner := range []Owner{UserOwner(f.user), GuestOwner("tok-huge")} {
		_, err := f.svc.AddItem(ctx, owner, f.coaster.ID, 1)
		require.NoError(t, err)
		view, err := f.svc.AddItem(ctx, owner, f.coaster.ID, math.MaxInt)
		require.NoError(t, err)
		require.Len(t, view.Lines, 1)
		assert.Equal(t, DefaultMaxLineQuantity, view.Lines[0].Quantity)
		assert.True(t, view.Lines[0].LineTotal.IsPositive())

		lines, err := f.svc.Lines(ctx, owner)
		require.NoError(t, err)
		require.Len(t, lines, 1)
		assert.Equal(t, DefaultMaxLineQuantity, lines[0].Quantity)
	}
}

func TestAddItemRejectsBadInput(t *testing.T) {
	f := newCartFixture(t)
	ctx := context.Background()

	_, err := f.svc.AddItem(ctx, UserOwner(f.user), f.retired.ID, 1)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = f.svc.AddItem(ctx, UserOwner(f.user), uuid.New(), 1)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	_, err = f.svc.AddItem(ctx, UserOwner(f.user), f.coaster.ID, 0)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = f.svc.AddItem(ctx, Owner{}, f.coaster.ID, 1)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestUpdateQuantityZeroRemovesLine(t *testing.T) {
	f := newCartFixture(t)
	ctx := context.Background()
	owner := UserOwner(f.user)

	_, err := f.svc.AddItem(ctx, owner, f.coaster.ID, 2)
	require.NoError(t, err)
	view, err := f.svc.UpdateQuantity(ctx, owner, f.coaster.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, 5, view.Lines[0].Quantity)

	view, err = f.svc.UpdateQuantity(ctx, owner, f.coaster.ID, 0)
	require.NoError(t, err)
	assert.Empty(t, view.Lines)

	_, err = f.svc.UpdateQuantity(ctx, owner, f.tray.ID, 3)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestCountAndLinesSkipWithdrawnItems(t *testing.T) {
	f := newCartFixture(t)
	ctx := context.Background()
	owner := UserOwner(f.user)

	_, err := f.svc.AddItem(ctx, owner, f.coaster.ID, 2)
	require.NoError(t, err)
	_, err = f.svc.AddItem(ctx, owner, f.tray.ID, 1)
	require.NoError(t, err)
	require.NoError(t, f.db.Model(&models.Item{}).Where("id = ?", f.tray.ID).Update("available", false).Error)

	count, err := f.svc.Count(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	lines, err := f.svc.Lines(ctx, owner)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, f.coaster.ID, lines[0].ItemID)

	view, err := f.svc.View(ctx, owner)
	require.NoError(t, err)
	assert.Len(t, view.Lines, 2)
	assert.Equal(t, 2, view.ItemCount)
}

func TestClearEmptiesCarts(t *testing.T) {
	f := newCartFixture(t)
	ctx := context.Background()

	_, err := f.svc.AddItem(ctx, UserOwner(f.user), f.coaster.ID, 1)
	require.NoError(t, err)
	_, err = f.svc.AddItem(ctx, GuestOwner("tok"), f.coaster.ID, 1)
	require.NoError(t, err)

	require.NoError(t, f.svc.Clear(ctx, UserOwner(f.user)))
	require.NoError(t, f.svc.Clear(ctx, GuestOwner("tok")))

	for _, owner := range []Owner{UserOwner(f.user), GuestOwner("tok")} {
		count, err := f.svc.Count(ctx, owner)
		require.NoError(t, err)
		assert.Zero(t, count)
	}
}
