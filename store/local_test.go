package store

import (
	"testing"

	"ScreenSync/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalCache_GetAbsentKey(t *testing.T) {
	cache, err := OpenLocalCache(t.TempDir())
	require.NoError(t, err)
	defer cache.Close()

	_, ok, err := cache.Get("nope")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLocalCache_SetGetRoundTrip(t *testing.T) {
	cache, err := OpenLocalCache(t.TempDir())
	require.NoError(t, err)
	defer cache.Close()

	require.NoError(t, cache.Set("k", "v1"))
	require.NoError(t, cache.Set("k", "v2")) // 覆盖写

	got, ok, err := cache.Get("k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "v2", got)
}

func TestLocalCache_LoadBundleEmptyCache(t *testing.T) {
	cache, err := OpenLocalCache(t.TempDir())
	require.NoError(t, err)
	defer cache.Close()

	got, ok, err := cache.LoadBundle()
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, got)
}

func TestLocalCache_BundleSurvivesReopen(t *testing.T) {
	dir := t.TempDir()

	cache, err := OpenLocalCache(dir)
	require.NoError(t, err)

	b := model.EmptyBundle()
	b.LastUpdate = 42
	b.Playlist = append(b.Playlist, model.ContentItem{
		ID: "x", Title: "缓存恢复", Kind: model.KindDirect, URL: "https://cdn.example.com/x.mp4",
	})
	require.NoError(t, cache.SaveBundle(b))
	require.NoError(t, cache.Close())

	// 进程重启后（重新打开）最后一次 bundle 仍然可读
	reopened, err := OpenLocalCache(dir)
	require.NoError(t, err)
	defer reopened.Close()

	got, ok, err := reopened.LoadBundle()
	require.NoError(t, err)
	require.True(t, ok)
	assert.EqualValues(t, 42, got.LastUpdate)
	require.Len(t, got.Playlist, 1)
	assert.Equal(t, "x", got.Playlist[0].ID)
}
