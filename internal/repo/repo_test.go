package repo

import (
	"VaultKeeper/internal/model"
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// newTestDB инициализирует отдельную in-memory SQLite (modernc) и накатывает миграции
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db := openTestDB(t)
	if err := Migrate(context.Background(), db); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return db
}

// openTestDB открывает пустую БД без миграций
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := Open("file:" + uuid.NewString() + "?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("failed to open sqlite (modernc): %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// хелперы для подготовки данных
func mkUser(t *testing.T, db *gorm.DB, login string) *model.User {
	t.Helper()
	u, err := NewUserRepository(db).CreateUser(context.Background(), &model.User{Login: login, Password: "hash"})
	require.NoError(t, err)
	return u
}

func mkVault(t *testing.T, db *gorm.DB, ownerID int64) *model.Vault {
	t.Helper()
	v := &model.Vault{ID: uuid.NewString(), OwnerID: ownerID, Name: "v", KeyVersion: 1, KeyCipher: []byte{1}, KeyNonce: []byte{2}}
	require.NoError(t, NewVaultRepository(db).Create(context.Background(), v))
	return v
}

func mkEntry(t *testing.T, db *gorm.DB, vaultID, name string) *model.VaultEntry {
	t.Helper()
	e := &model.VaultEntry{ID: uuid.NewString(), VaultID: vaultID, Name: name, Kind: model.EntryField, Cipher: []byte{3}, Nonce: []byte{4}}
	require.NoError(t, NewEntryRepository(db).Create(context.Background(), e))
	return e
}

func mkShare(t *testing.T, db *gorm.DB, v *model.Vault, iterations int64, entryIDs ...string) *model.VaultShare {
	t.Helper()
	s := &model.VaultShare{
		ID: uuid.NewString(), VaultID: v.ID, OwnerID: v.OwnerID,
		TokenHash: []byte{1}, Salt: []byte{2}, KeyCipher: []byte{3}, KeyNonce: []byte{4},
		Iterations: iterations, DelaySeconds: 3600, ExpiresAt: time.Now().UTC().Add(time.Hour),
	}
	require.NoError(t, NewShareRepository(db).Create(context.Background(), s, entryIDs))
	return s
}
