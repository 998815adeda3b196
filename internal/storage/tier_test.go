package storage_test

import (
	"context"
	"errors"
	"testing"

	"github.com/2beens/gymclient/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/mock/gomock"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		// redismock builds a real client whose pool starts a reaper
		goleak.IgnoreTopFunction("github.com/go-redis/redis/v8/internal/pool.(*ConnPool).reaper"),
	)
}

func TestLoad_Complete(t *testing.T) {
	ctx := context.Background()
	tier := storage.NewMemoryTier(1)
	require.NoError(t, storage.Save(ctx, tier, storage.Snapshot{
		Token:      "tkn",
		User:       `{"usuarioID":1}`,
		AuthMethod: "google",
	}))

	snap, ok, err := storage.Load(ctx, tier)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "tkn", snap.Token)
	assert.Equal(t, `{"usuarioID":1}`, snap.User)
	assert.Equal(t, "google", snap.AuthMethod)
}

func TestLoad_Incomplete(t *testing.T) {
	ctx := context.Background()
	tier := storage.NewMemoryTier(1)

	_, ok, err := storage.Load(ctx, tier)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, tier.Set(ctx, storage.KeyToken, "tkn"))
	_, ok, err = storage.Load(ctx, tier)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLoad_TierError(t *testing.T) {
	ctrl := gomock.NewController(t)
	tier := NewMockPersistenceTier(ctrl)

	boom := errors.New("disk on fire")
	tier.EXPECT().Get(gomock.Any(), storage.KeyToken).Return("", boom)

	_, ok, err := storage.Load(context.Background(), tier)
	assert.ErrorIs(t, err, boom)
	assert.False(t, ok)
}

func TestClear_DeletesEverySessionKey(t *testing.T) {
	ctrl := gomock.NewController(t)
	tier := NewMockPersistenceTier(ctrl)
	tier.EXPECT().
		Delete(gomock.Any(), storage.KeyToken, storage.KeyUser, storage.KeyAuthMethod).
		Return(nil)

	require.NoError(t, storage.Clear(context.Background(), tier))
}

func TestMemoryTier(t *testing.T) {
	ctx := context.Background()
	tier := storage.NewMemoryTier(0)
	assert.False(t, tier.Durable())

	_, err := tier.Get(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrKeyNotFound)

	require.NoError(t, tier.Set(ctx, "k", "v"))
	val, err := tier.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", val)

	require.NoError(t, tier.Delete(ctx, "k", "never-set"))
	_, err = tier.Get(ctx, "k")
	assert.ErrorIs(t, err, storage.ErrKeyNotFound)
}
