package service

import (
	"VaultKeeper/internal/common"
	"context"
	"testing"
	"time"

	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserService_Register(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	t.Run("ok creates first key", func(t *testing.T) {
		u, err := e.users.Register(ctx, "john", "p@ss")
		require.NoError(t, err)
		assert.NotZero(t, u.ID)
		assert.NotEqual(t, "p@ss", u.Password)

		version, key, err := e.keys.Current(ctx, u.ID)
		assert.NoError(t, err)
		assert.Equal(t, int64(1), version)
		assert.Len(t, key, 32)
	})

	t.Run("conflict when login taken", func(t *testing.T) {
		user, err := e.users.Register(ctx, "john", "other")
		assert.Nil(t, user)
		assert.ErrorIs(t, err, ErrLoginTaken)
	})

	t.Run("validation", func(t *testing.T) {
		_, err := e.users.Register(ctx, "jo", "p")
		assert.ErrorIs(t, err, common.ErrValidation)
		_, err = e.users.Register(ctx, "johnny", "")
		assert.ErrorIs(t, err, common.ErrValidation)
	})
}

func TestUserService_Login(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	e.register(t, "alice")

	t.Run("ok with valid credentials", func(t *testing.T) {
		u, err := e.users.Login(ctx, "alice", "secret", "")
		assert.NoError(t, err)
		assert.Equal(t, "alice", u.Login)
	})

	t.Run("wrong password and unknown login look the same", func(t *testing.T) {
		_, err1 := e.users.Login(ctx, "alice", "wrong", "")
		_, err2 := e.users.Login(ctx, "nobody", "secret", "")
		assert.ErrorIs(t, err1, ErrInvalidCredentials)
		assert.ErrorIs(t, err2, ErrInvalidCredentials)
		assert.ErrorIs(t, err1, common.ErrAccessDenied)
	})

	t.Run("rate limited after budget", func(t *testing.T) {
		e.register(t, "bob")
		for i := 0; i < 3; i++ {
			_, err := e.users.Login(ctx, "bob", "wrong", "")
			assert.ErrorIs(t, err, ErrInvalidCredentials)
		}
		// даже верный пароль не помогает, пока бюджет пуст
		_, err := e.users.Login(ctx, "bob", "secret", "")
		assert.ErrorIs(t, err, common.ErrRateLimited)
	})
}

func TestUserService_LoginWithOTP(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	u := e.register(t, "carol")

	secret, url, err := e.otp.Setup(ctx, u.ID)
	require.NoError(t, err)
	assert.Contains(t, url, "otpauth://totp/")

	// до подтверждения коды не требуются
	_, err = e.users.Login(ctx, "carol", "secret", "")
	assert.NoError(t, err)

	assert.ErrorIs(t, e.otp.Confirm(ctx, u.ID, "000000x"), common.ErrValidation)
	code, err := totp.GenerateCode(secret, time.Now())
	require.NoError(t, err)
	require.NoError(t, e.otp.Confirm(ctx, u.ID, code))

	_, err = e.users.Login(ctx, "carol", "secret", "")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	// повторная настройка не снимает включённые коды
	_, _, err = e.otp.Setup(ctx, u.ID)
	assert.ErrorIs(t, err, common.ErrValidation)
	_, err = e.users.Login(ctx, "carol", "secret", "")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	code, _ = totp.GenerateCode(secret, time.Now())
	_, err = e.users.Login(ctx, "carol", "secret", code)
	assert.NoError(t, err)

	require.NoError(t, e.otp.Disable(ctx, u.ID, code))
	_, err = e.users.Login(ctx, "carol", "secret", "")
	assert.NoError(t, err)
	assert.ErrorIs(t, e.otp.Disable(ctx, u.ID, code), common.ErrValidation)
}
