package repo

import (
	"VaultKeeper/internal/common"
	"VaultKeeper/internal/model"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInboxRepository_GetOrCreateIdempotent(t *testing.T) {
	db := newTestDB(t)
	r := NewInboxRepository(db)
	ctx := context.Background()
	u := mkUser(t, db, "bob")

	a, err := r.GetOrCreate(ctx, u.ID)
	require.NoError(t, err)
	b, err := r.GetOrCreate(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, a.ID, b.ID)
}

func TestInboxRepository_ItemsAndLogs(t *testing.T) {
	db := newTestDB(t)
	r := NewInboxRepository(db)
	ctx := context.Background()
	owner := mkUser(t, db, "owner")
	bob := mkUser(t, db, "bob")
	v := mkVault(t, db, owner.ID)
	s := mkShare(t, db, v, 5)

	in, err := r.GetOrCreate(ctx, bob.ID)
	require.NoError(t, err)

	item := &model.VaultInboxItem{
		ID: uuid.NewString(), InboxID: in.ID, ShareID: s.ID, SenderID: owner.ID,
		Note: "for you", KeyVersion: 1, TokenCipher: []byte{1}, TokenNonce: []byte{2},
	}
	require.NoError(t, r.AddItem(ctx, item))

	items, err := r.ListItems(ctx, in.ID)
	require.NoError(t, err)
	if assert.Len(t, items, 1) {
		assert.Equal(t, "for you", items[0].Note)
	}

	got, err := r.GetItem(ctx, in.ID, item.ID)
	require.NoError(t, err)
	assert.Equal(t, s.ID, got.ShareID)

	// чужой ящик не видит элемент
	other, _ := r.GetOrCreate(ctx, owner.ID)
	_, err = r.GetItem(ctx, other.ID, item.ID)
	assert.True(t, errors.Is(err, common.ErrNotFound))

	base := time.Now().UTC()
	require.NoError(t, r.AppendLog(ctx, &model.VaultInboxLog{InboxID: in.ID, Message: "delivered", CreatedAt: base}))
	require.NoError(t, r.AppendLog(ctx, &model.VaultInboxLog{InboxID: in.ID, Message: "opened", CreatedAt: base.Add(time.Second)}))

	logs, err := r.Logs(ctx, in.ID)
	require.NoError(t, err)
	if assert.Len(t, logs, 2) {
		assert.Equal(t, "opened", logs[0].Message)
	}
}
