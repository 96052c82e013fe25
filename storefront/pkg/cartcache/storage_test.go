package cartcache

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	testRedis "github.com/testcontainers/testcontainers-go/modules/redis"
)

type storageTeardownFunc func()

func testStorage(t *testing.T, c context.Context, storage Storage) {
	t.Helper()

	_, err := storage.Get(c, "userId")
	assert.ErrorIs(t, err, ErrKeyNotFound, "absent key should report not found")

	require.NoError(t, storage.Set(c, "userId", "user_abc"))
	value, err := storage.Get(c, "userId")
	require.NoError(t, err)
	assert.Equal(t, "user_abc", value)

	require.NoError(t, storage.Set(c, "userId", "user_def"), "set should overwrite")
	value, err = storage.Get(c, "userId")
	require.NoError(t, err)
	assert.Equal(t, "user_def", value)

	require.NoError(t, storage.Delete(c, "userId"))
	_, err = storage.Get(c, "userId")
	assert.ErrorIs(t, err, ErrKeyNotFound)

	assert.NoError(t, storage.Delete(c, "userId"), "deleting an absent key should succeed")
}

func TestStorage(t *testing.T) {
	tests := []struct {
		name        string
		integration bool
		setup       func(t *testing.T, c context.Context) (Storage, storageTeardownFunc)
	}{
		{
			name: "given memory storage should behave as key value store",
			setup: func(t *testing.T, c context.Context) (Storage, storageTeardownFunc) {
				return NewMemoryStorage(), func() {}
			},
		},
		{
			name: "given sqlite storage should behave as key value store",
			setup: func(t *testing.T, c context.Context) (Storage, storageTeardownFunc) {
				storage, err := NewSQLiteStorage(c, filepath.Join(t.TempDir(), "storefront.db"))
				if err != nil {
					t.Fatalf("failed opening sqlite storage with error: %s", err)
				}
				return storage, func() { _ = storage.Close() }
			},
		},
		{
			name:        "given redis storage should behave as key value store",
			integration: true,
			setup: func(t *testing.T, c context.Context) (Storage, storageTeardownFunc) {
				redisContainer, err := testRedis.Run(c, "redis:7.4.2-alpine3.21")
				if err != nil {
					t.Fatalf("failed running redis container with error: %s", err)
				}
				connStr, err := redisContainer.ConnectionString(c)
				if err != nil {
					t.Fatalf("failed getting redis connection string with error: %s", err)
				}
				opt, err := redis.ParseURL(connStr)
				if err != nil {
					t.Fatalf("failed parsing redis connection string with error: %s", err)
				}
				client := redis.NewClient(opt)
				return NewRedisStorage(client, "storefront:"), func() {
					_ = client.Close()
					if err := testcontainers.TerminateContainer(redisContainer); err != nil {
						t.Fatalf("failed to terminate container: %s", err)
					}
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.integration && testing.Short() {
				t.Skip("skipping container test in short mode")
			}
			c := testContext()
			storage, teardown := tt.setup(t, c)
			defer teardown()

			testStorage(t, c, storage)
		})
	}
}

func TestSQLiteStorageSurvivesReopen(t *testing.T) {
	c := testContext()
	path := filepath.Join(t.TempDir(), "storefront.db")

	first, err := NewSQLiteStorage(c, path)
	require.NoError(t, err)
	manager := New(c, first, newFakeRemote())
	userID := manager.UserID()
	manager.remote.(*fakeRemote).err = assert.AnError
	require.NoError(t, manager.AddItem(c, Candidate{ID: "p1", Name: "Scarf", Price: "19.99"}))
	manager.Wait()
	require.NoError(t, first.Close())

	second, err := NewSQLiteStorage(c, path)
	require.NoError(t, err)
	defer second.Close()
	reopened := New(c, second, newFakeRemote())
	assert.Equal(t, userID, reopened.UserID())

	reopened.remote.(*fakeRemote).err = assert.AnError
	items := reopened.Load(c)
	assert.Equal(t, map[string]int32{"p1": 1}, quantities(items), "local cart should survive a restart")
}
