package repo

import (
	"VaultKeeper/internal/model"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Схема первой версии без active/version и с пустыми iterations
// после миграций получает безопасные значения по умолчанию.
func TestMigrations_BackfillExistingRows(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	p, err := NewMigrator(db)
	require.NoError(t, err)
	_, err = p.UpTo(ctx, 1)
	require.NoError(t, err)

	now := time.Now().UTC()
	stmts := []struct {
		sql  string
		args []any
	}{
		{`INSERT INTO users (id, login, password, created_at) VALUES (1, 'old', 'hash', ?)`, []any{now}},
		{`INSERT INTO api_keys (user_id, name, prefix, hash, created_at) VALUES (1, 'k1', 'p1', ?, ?)`, []any{[]byte{1}, now}},
		{`INSERT INTO api_keys (user_id, name, prefix, hash, created_at) VALUES (1, 'k2', 'p2', ?, ?)`, []any{[]byte{2}, now}},
		{`INSERT INTO user_keys (user_id, cipher, nonce, created_at) VALUES (1, ?, ?, ?)`, []any{[]byte{1}, []byte{2}, now}},
		{`INSERT INTO vaults (id, owner_id, name, key_cipher, key_nonce, created_at, updated_at)
		  VALUES ('11111111-1111-1111-1111-111111111111', 1, 'v', ?, ?, ?, ?)`, []any{[]byte{1}, []byte{2}, now, now}},
		{`INSERT INTO vault_shares (id, vault_id, owner_id, token_hash, salt, key_cipher, key_nonce, delay_seconds, expires_at, created_at)
		  VALUES ('22222222-2222-2222-2222-222222222222', '11111111-1111-1111-1111-111111111111', 1, ?, ?, ?, ?, 60, ?, ?)`,
			[]any{[]byte{1}, []byte{2}, []byte{3}, []byte{4}, now.Add(time.Hour), now}},
		{`INSERT INTO vault_shares (id, vault_id, owner_id, token_hash, salt, key_cipher, key_nonce, iterations, delay_seconds, expires_at, created_at)
		  VALUES ('33333333-3333-3333-3333-333333333333', '11111111-1111-1111-1111-111111111111', 1, ?, ?, ?, ?, 7, 60, ?, ?)`,
			[]any{[]byte{1}, []byte{2}, []byte{3}, []byte{4}, now.Add(time.Hour), now}},
	}
	for _, st := range stmts {
		require.NoError(t, db.Exec(st.sql, st.args...).Error)
	}

	_, err = p.Up(ctx)
	require.NoError(t, err)

	var keys []model.APIKey
	require.NoError(t, db.Order("id").Find(&keys).Error)
	if assert.Len(t, keys, 2) {
		for _, k := range keys {
			assert.True(t, k.Active, "key %s must be active after migration", k.Name)
		}
	}

	var uk model.UserKey
	require.NoError(t, db.First(&uk).Error)
	assert.Equal(t, int64(1), uk.Version)

	var unset, set model.VaultShare
	require.NoError(t, db.Where("id = ?", "22222222-2222-2222-2222-222222222222").First(&unset).Error)
	assert.Equal(t, model.DefaultShareIterations, unset.Iterations)
	// заданное значение не трогаем
	require.NoError(t, db.Where("id = ?", "33333333-3333-3333-3333-333333333333").First(&set).Error)
	assert.Equal(t, int64(7), set.Iterations)
}

func TestMigrations_UpIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	assert.NoError(t, Migrate(context.Background(), db))

	p, err := NewMigrator(db)
	require.NoError(t, err)
	v, err := p.GetDBVersion(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, int64(4), v)
}

func TestIsPostgresDSN(t *testing.T) {
	assert.True(t, isPostgresDSN("postgres://u:p@localhost:5432/db"))
	assert.True(t, isPostgresDSN("host=localhost user=u dbname=db"))
	assert.False(t, isPostgresDSN("vaultkeeper.db"))
	assert.Equal(t, "file:x.db?"+sqlitePragmas, sqliteDSN("x.db"))
	assert.Equal(t, "file:a?mode=memory&"+sqlitePragmas, sqliteDSN("file:a?mode=memory"))
}
