package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBundle_FindItem(t *testing.T) {
	b := EmptyBundle()
	b.Playlist = []ContentItem{
		{ID: "a", Kind: KindDirect},
		{ID: "b", Kind: KindDirect},
	}

	item, ok := b.FindItem("b")
	require.True(t, ok)
	assert.Equal(t, "b", item.ID)

	_, ok = b.FindItem("missing")
	assert.False(t, ok)

	_, ok = b.FindItem("")
	assert.False(t, ok)
}

func TestBundle_NewerThan(t *testing.T) {
	b := &Bundle{LastUpdate: 100}

	assert.True(t, b.NewerThan(99))
	assert.False(t, b.NewerThan(100)) // 同龄不算更新
	assert.False(t, b.NewerThan(101))
}

func TestBundle_CloneIsDeep(t *testing.T) {
	b := EmptyBundle()
	b.LastUpdate = 7
	b.Playlist = []ContentItem{
		{ID: "a", Kind: KindDirect, Tags: []string{"promo"}},
	}
	b.Schedules = []ScheduleRule{
		{ID: "r", TargetItemID: "a", DaysOfWeek: []int{1, 2}},
	}

	clone := b.Clone()

	// 改副本不能影响原件
	clone.Playlist[0].ID = "mutated"
	clone.Playlist[0].Tags[0] = "mutated"
	clone.Schedules[0].DaysOfWeek[0] = 9
	clone.Config.CurrentItemID = "mutated"

	assert.Equal(t, "a", b.Playlist[0].ID)
	assert.Equal(t, "promo", b.Playlist[0].Tags[0])
	assert.Equal(t, 1, b.Schedules[0].DaysOfWeek[0])
	assert.Empty(t, b.Config.CurrentItemID)
}
