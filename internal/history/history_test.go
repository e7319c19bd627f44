package history_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brainless/GoFish/internal/history"
)

func openStore(t *testing.T) *history.Store {
	t.Helper()
	store, err := history.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestAddAndSize(t *testing.T) {
	store := openStore(t)
	assert.Equal(t, 0, store.Size())

	require.NoError(t, store.Add("echo one"))
	require.NoError(t, store.Add("echo two"))
	assert.Equal(t, 2, store.Size())

	// Empty commands are not recorded.
	require.NoError(t, store.Add(""))
	assert.Equal(t, 2, store.Size())
}

func TestGetAllMostRecentFirst(t *testing.T) {
	store := openStore(t)
	require.NoError(t, store.Add("first"))
	require.NoError(t, store.Add("second"))
	require.NoError(t, store.Add("third"))

	assert.Equal(t, []string{"third", "second", "first"}, store.GetAll())
}

func TestItemsAtIndexes(t *testing.T) {
	store := openStore(t)
	require.NoError(t, store.Add("oldest"))
	require.NoError(t, store.Add("middle"))
	require.NoError(t, store.Add("newest"))

	items := store.ItemsAtIndexes([]int{1, 3, 99, 0, -2})
	assert.Equal(t, map[int]string{
		1: "newest",
		3: "oldest",
	}, items)
}

func TestReopenPersists(t *testing.T) {
	dir := t.TempDir()

	store, err := history.Open(dir)
	require.NoError(t, err)
	require.NoError(t, store.Add("persisted"))
	require.NoError(t, store.Close())

	reopened, err := history.Open(dir)
	require.NoError(t, err)
	defer reopened.Close()
	assert.Equal(t, []string{"persisted"}, reopened.GetAll())
}
