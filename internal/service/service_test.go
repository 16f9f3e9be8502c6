package service

import (
	"VaultKeeper/internal/blobstore"
	"VaultKeeper/internal/crypto"
	"VaultKeeper/internal/metrics"
	"VaultKeeper/internal/model"
	"VaultKeeper/internal/ratelimit"
	"VaultKeeper/internal/repo"
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// testEnv — весь набор сервисов поверх отдельной in-memory SQLite.
type testEnv struct {
	db     *gorm.DB
	repos  repo.Manager
	blobs  blobstore.Store
	keys   *KeyService
	otp    *OTPService
	users  *UserService
	apiKey *APIKeyService
	vaults *VaultService
	shares *ShareService
	inbox  *InboxService
	now    time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()
	db, err := repo.Open("file:" + uuid.NewString() + "?mode=memory&cache=shared")
	require.NoError(t, err)
	require.NoError(t, repo.Migrate(ctx, db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	master, err := crypto.GenerateKey()
	require.NoError(t, err)
	logger := zap.NewNop().Sugar()
	repos := repo.NewManager(db)

	e := &testEnv{db: db, repos: repos, now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	e.blobs = blobstore.NewDBStore(repos.Blobs())
	e.keys = NewKeyService(master, repos, logger)
	e.otp = NewOTPService(repos.Users(), master)
	e.users = NewUserService(repos, e.keys, e.otp, ratelimit.New(3, time.Minute, time.Hour), metrics.Nop{}, logger)
	e.apiKey = NewAPIKeyService(repos.APIKeys())
	e.vaults = NewVaultService(repos, e.keys, e.blobs, OwnerPolicy{}, 1024, logger)
	e.shares = NewShareService(repos, e.vaults, ratelimit.New(3, time.Minute, time.Hour), metrics.Nop{},
		ShareDefaults{Delay: 24 * time.Hour, Iterations: model.DefaultShareIterations}, logger)
	e.shares.now = func() time.Time { return e.now }
	e.inbox = NewInboxService(repos, e.shares, e.keys, logger)
	e.inbox.now = func() time.Time { return e.now }
	return e
}

func (e *testEnv) register(t *testing.T, login string) *model.User {
	t.Helper()
	u, err := e.users.Register(context.Background(), login, "secret")
	require.NoError(t, err)
	return u
}

// vaultWithEntry создаёт хранилище с одной текстовой записью.
func (e *testEnv) vaultWithEntry(t *testing.T, owner int64, name, value string) (*model.Vault, *model.VaultEntry) {
	t.Helper()
	ctx := context.Background()
	v, err := e.vaults.CreateVault(ctx, owner, "main", nil)
	require.NoError(t, err)
	entry, err := e.vaults.PutEntry(ctx, owner, v.ID, EntryInput{Name: name, Kind: model.EntryField, Value: []byte(value)})
	require.NoError(t, err)
	return v, entry
}
