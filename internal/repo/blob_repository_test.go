package repo

import (
	"VaultKeeper/internal/common"
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestBlobRepository_CreateIfAbsent_Idempotent(t *testing.T) {
	db := newTestDB(t)
	r := NewBlobRepository(db)
	ctx := context.Background()
	id := uuid.NewString()

	// первая вставка — created=true
	created, err := r.CreateIfAbsent(ctx, id, []byte{1, 2}, []byte{3})
	assert.NoError(t, err)
	assert.True(t, created)

	// повторная — created=false, содержимое не меняется
	created, err = r.CreateIfAbsent(ctx, id, []byte{9}, []byte{9})
	assert.NoError(t, err)
	assert.False(t, created)

	b, err := r.Get(ctx, id)
	assert.NoError(t, err)
	assert.Equal(t, []byte{1, 2}, b.Cipher)

	assert.NoError(t, r.Delete(ctx, id))
	assert.NoError(t, r.Delete(ctx, id))
	_, err = r.Get(ctx, id)
	assert.ErrorIs(t, err, common.ErrNotFound)
}
