package service

import (
	"VaultKeeper/internal/common"
	"VaultKeeper/internal/model"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShareService_ConsumeBudget(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	u := e.register(t, "owner")
	v, entry := e.vaultWithEntry(t, u.ID, "wifi", "hunter2")

	const n = 3
	sh, token, err := e.shares.CreateShare(ctx, u.ID, v.ID, []string{entry.ID}, time.Hour, n)
	require.NoError(t, err)
	assert.Len(t, token, 43)
	assert.Equal(t, model.ShareActive, sh.State(e.now))
	assert.NotContains(t, string(sh.TokenHash), token)

	for i := 0; i < n; i++ {
		got, err := e.shares.ConsumeShare(ctx, sh.ID, token)
		require.NoError(t, err, "access %d", i+1)
		if assert.Len(t, got, 1) {
			assert.Equal(t, "hunter2", string(got[0].Value))
		}
	}
	_, err = e.shares.ConsumeShare(ctx, sh.ID, token)
	assert.ErrorIs(t, err, common.ErrShareExpired)

	stored, err := e.repos.Shares().GetByID(ctx, sh.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(n), stored.Accesses)
	assert.NotNil(t, stored.ExpiredAt)

	logs, err := e.shares.ShareLogs(ctx, u.ID, sh.ID)
	require.NoError(t, err)
	if assert.Len(t, logs, n+1) {
		assert.False(t, logs[0].Success)
		assert.True(t, logs[1].Success)
	}
}

func TestShareService_DelayExpiry(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	u := e.register(t, "owner")
	v, entry := e.vaultWithEntry(t, u.ID, "a", "b")

	sh, token, err := e.shares.CreateShare(ctx, u.ID, v.ID, []string{entry.ID}, time.Hour, 100)
	require.NoError(t, err)

	e.now = e.now.Add(59 * time.Minute)
	_, err = e.shares.ConsumeShare(ctx, sh.ID, token)
	assert.NoError(t, err)

	// бюджет не исчерпан, но срок вышел
	e.now = e.now.Add(time.Minute)
	_, err = e.shares.ConsumeShare(ctx, sh.ID, token)
	assert.ErrorIs(t, err, common.ErrShareExpired)

	stored, _ := e.repos.Shares().GetByID(ctx, sh.ID)
	assert.NotNil(t, stored.ExpiredAt)
	assert.Equal(t, int64(1), stored.Accesses)
}

func TestShareService_Defaults(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	u := e.register(t, "owner")
	v, entry := e.vaultWithEntry(t, u.ID, "a", "b")

	sh, _, err := e.shares.CreateShare(ctx, u.ID, v.ID, []string{entry.ID}, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(4000), sh.Iterations)
	assert.Equal(t, e.now.Add(24*time.Hour), sh.ExpiresAt)
	assert.Equal(t, int64(24*3600), sh.DelaySeconds)
}

func TestShareService_CreateValidation(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	u := e.register(t, "owner")
	other := e.register(t, "other")
	v, entry := e.vaultWithEntry(t, u.ID, "a", "b")
	foreign, foreignEntry := e.vaultWithEntry(t, other.ID, "c", "d")
	_ = foreign

	_, _, err := e.shares.CreateShare(ctx, u.ID, v.ID, nil, time.Hour, 1)
	assert.ErrorIs(t, err, common.ErrValidation)

	_, _, err = e.shares.CreateShare(ctx, u.ID, v.ID, []string{entry.ID}, -time.Second, 1)
	assert.ErrorIs(t, err, common.ErrValidation)

	_, _, err = e.shares.CreateShare(ctx, u.ID, v.ID, []string{entry.ID}, time.Hour, -1)
	assert.ErrorIs(t, err, common.ErrValidation)

	_, _, err = e.shares.CreateShare(ctx, u.ID, v.ID, []string{entry.ID}, MaxShareDelay+time.Second, 1)
	assert.ErrorIs(t, err, common.ErrValidation)

	// запись из чужого хранилища
	_, _, err = e.shares.CreateShare(ctx, u.ID, v.ID, []string{foreignEntry.ID}, time.Hour, 1)
	assert.ErrorIs(t, err, common.ErrValidation)

	_, _, err = e.shares.CreateShare(ctx, other.ID, v.ID, []string{entry.ID}, time.Hour, 1)
	assert.ErrorIs(t, err, common.ErrAccessDenied)
}

func TestShareService_DeniedAttemptsAreLoggedAndLimited(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	u := e.register(t, "owner")
	v, entry := e.vaultWithEntry(t, u.ID, "a", "b")
	sh, token, err := e.shares.CreateShare(ctx, u.ID, v.ID, []string{entry.ID}, time.Hour, 10)
	require.NoError(t, err)

	// неизвестный доступ неотличим от неверного токена
	_, err = e.shares.ConsumeShare(ctx, "00000000-0000-0000-0000-000000000000", token)
	assert.ErrorIs(t, err, common.ErrAccessDenied)

	for i := 0; i < 3; i++ {
		_, err = e.shares.ConsumeShare(ctx, sh.ID, "wrong")
		assert.ErrorIs(t, err, common.ErrAccessDenied)
	}
	_, err = e.shares.ConsumeShare(ctx, sh.ID, token)
	assert.ErrorIs(t, err, common.ErrRateLimited)

	logs, err := e.shares.ShareLogs(ctx, u.ID, sh.ID)
	require.NoError(t, err)
	assert.Len(t, logs, 4)
	for _, l := range logs {
		assert.False(t, l.Success)
	}

	stored, _ := e.repos.Shares().GetByID(ctx, sh.ID)
	assert.Zero(t, stored.Accesses)
}

func TestShareService_ExpiryHiddenBehindToken(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	u := e.register(t, "owner")
	v, entry := e.vaultWithEntry(t, u.ID, "a", "b")
	sh, _, err := e.shares.CreateShare(ctx, u.ID, v.ID, []string{entry.ID}, time.Hour, 1)
	require.NoError(t, err)
	require.NoError(t, e.shares.RevokeShare(ctx, u.ID, sh.ID))

	// без верного токена об истечении не сообщаем
	_, err = e.shares.ConsumeShare(ctx, sh.ID, "wrong")
	assert.ErrorIs(t, err, common.ErrAccessDenied)
}

func TestShareService_ConcurrentLastAccess(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	u := e.register(t, "owner")
	v, entry := e.vaultWithEntry(t, u.ID, "a", "b")
	sh, token, err := e.shares.CreateShare(ctx, u.ID, v.ID, []string{entry.ID}, time.Hour, 1)
	require.NoError(t, err)

	const workers = 6
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = e.shares.ConsumeShare(ctx, sh.ID, token)
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, common.ErrShareExpired)
	}
	assert.Equal(t, 1, ok)

	stored, _ := e.repos.Shares().GetByID(ctx, sh.ID)
	assert.Equal(t, int64(1), stored.Accesses)
}

func TestShareService_RevokeAndOwnership(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	u := e.register(t, "owner")
	other := e.register(t, "other")
	v, entry := e.vaultWithEntry(t, u.ID, "a", "b")
	sh, token, err := e.shares.CreateShare(ctx, u.ID, v.ID, []string{entry.ID}, time.Hour, 10)
	require.NoError(t, err)

	assert.ErrorIs(t, e.shares.RevokeShare(ctx, other.ID, sh.ID), common.ErrAccessDenied)
	_, err = e.shares.ShareLogs(ctx, other.ID, sh.ID)
	assert.ErrorIs(t, err, common.ErrAccessDenied)

	require.NoError(t, e.shares.RevokeShare(ctx, u.ID, sh.ID))
	_, err = e.shares.ConsumeShare(ctx, sh.ID, token)
	assert.ErrorIs(t, err, common.ErrShareExpired)

	list, err := e.shares.ListShares(ctx, u.ID, v.ID)
	require.NoError(t, err)
	if assert.Len(t, list, 1) {
		assert.Equal(t, model.ShareExpired, list[0].State(e.now))
	}
}

func TestShareService_DeletedEntryOmitted(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	u := e.register(t, "owner")
	v, a := e.vaultWithEntry(t, u.ID, "a", "1")
	b, err := e.vaults.PutEntry(ctx, u.ID, v.ID, EntryInput{Name: "b", Kind: model.EntryFile, Value: []byte("2")})
	require.NoError(t, err)
	sh, token, err := e.shares.CreateShare(ctx, u.ID, v.ID, []string{a.ID, b.ID}, time.Hour, 10)
	require.NoError(t, err)

	got, err := e.shares.ConsumeShare(ctx, sh.ID, token)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	require.NoError(t, e.vaults.DeleteEntry(ctx, u.ID, v.ID, a.ID))
	got, err = e.shares.ConsumeShare(ctx, sh.ID, token)
	require.NoError(t, err)
	if assert.Len(t, got, 1) {
		assert.Equal(t, "2", string(got[0].Value))
	}
}

func TestShareService_SurvivesKeyRotation(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	u := e.register(t, "owner")
	v, entry := e.vaultWithEntry(t, u.ID, "a", "kept")
	sh, token, err := e.shares.CreateShare(ctx, u.ID, v.ID, []string{entry.ID}, time.Hour, 10)
	require.NoError(t, err)

	_, err = e.keys.Rotate(ctx, u.ID)
	require.NoError(t, err)

	got, err := e.shares.ConsumeShare(ctx, sh.ID, token)
	require.NoError(t, err)
	if assert.Len(t, got, 1) {
		assert.Equal(t, "kept", string(got[0].Value))
	}
}

func TestShareService_FailureBudgetPerClient(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	u := e.register(t, "owner")
	v, entry := e.vaultWithEntry(t, u.ID, "a", "b")
	sh, token, err := e.shares.CreateShare(ctx, u.ID, v.ID, []string{entry.ID}, time.Hour, 10)
	require.NoError(t, err)

	attacker := WithClient(ctx, "203.0.113.7")
	for i := 0; i < 3; i++ {
		_, err = e.shares.ConsumeShare(attacker, sh.ID, "wrong")
		assert.ErrorIs(t, err, common.ErrAccessDenied)
	}
	_, err = e.shares.ConsumeShare(attacker, sh.ID, token)
	assert.ErrorIs(t, err, common.ErrRateLimited)

	// чужие ошибки не блокируют законного получателя
	values, err := e.shares.ConsumeShare(WithClient(ctx, "198.51.100.2"), sh.ID, token)
	require.NoError(t, err)
	require.Len(t, values, 1)
	assert.Equal(t, "a", values[0].Entry.Name)
	assert.Equal(t, []byte("b"), values[0].Value)
}
