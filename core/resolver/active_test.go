package resolver

import (
	"testing"
	"time"

	"ScreenSync/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 2025-06-03 是周二，2025-06-07 是周六
func tuesdayAt(hour, min int) time.Time {
	return time.Date(2025, 6, 3, hour, min, 0, 0, time.UTC)
}

func saturdayAt(hour, min int) time.Time {
	return time.Date(2025, 6, 7, hour, min, 0, 0, time.UTC)
}

func weekdayRule(target string) model.ScheduleRule {
	return model.ScheduleRule{
		ID:           "r1",
		Name:         "work hours",
		TargetItemID: target,
		DaysOfWeek:   []int{1, 2, 3, 4, 5},
		StartTime:    "09:00",
		EndTime:      "18:00",
		Active:       true,
	}
}

func playlist(ids ...string) []model.ContentItem {
	items := make([]model.ContentItem, 0, len(ids))
	for _, id := range ids {
		items = append(items, model.ContentItem{ID: id, Title: "item " + id, Kind: model.KindDirect})
	}
	return items
}

func TestResolveActive_ScheduleMatch(t *testing.T) {
	// 工作日 09:00-18:00 指向 X，周二 10:00 应命中 X
	cfg := model.PlayerConfig{UseSchedule: true}
	schedules := []model.ScheduleRule{weekdayRule("X")}

	item, ok := ResolveActive(tuesdayAt(10, 0), cfg, schedules, playlist("X", "Y"))
	require.True(t, ok)
	assert.Equal(t, "X", item.ID)
}

func TestResolveActive_NoMatchFallsBackToCurrentItem(t *testing.T) {
	// 周六不在规则窗口内，回退到 CurrentItemID 指向的 Y
	cfg := model.PlayerConfig{UseSchedule: true, CurrentItemID: "Y"}
	schedules := []model.ScheduleRule{weekdayRule("X")}

	item, ok := ResolveActive(saturdayAt(10, 0), cfg, schedules, playlist("Y", "Z"))
	require.True(t, ok)
	assert.Equal(t, "Y", item.ID)
}

func TestResolveActive_NoCurrentItemFallsBackToFirst(t *testing.T) {
	cfg := model.PlayerConfig{UseSchedule: false}

	item, ok := ResolveActive(tuesdayAt(10, 0), cfg, nil, playlist("Y", "Z"))
	require.True(t, ok)
	assert.Equal(t, "Y", item.ID)
}

func TestResolveActive_EmptyPlaylistReturnsNone(t *testing.T) {
	cfg := model.PlayerConfig{UseSchedule: false}

	_, ok := ResolveActive(tuesdayAt(10, 0), cfg, nil, nil)
	assert.False(t, ok)
}

func TestResolveActive_DanglingScheduleRefReturnsNone(t *testing.T) {
	// 命中的规则指向不存在的内容项：返回"无"而不是静默回退
	cfg := model.PlayerConfig{UseSchedule: true, CurrentItemID: "Y"}
	schedules := []model.ScheduleRule{weekdayRule("GONE")}

	_, ok := ResolveActive(tuesdayAt(10, 0), cfg, schedules, playlist("Y", "Z"))
	assert.False(t, ok)
}

func TestResolveActive_FirstTableOrderMatchWins(t *testing.T) {
	// 两条规则窗口重叠，表序靠前的胜出
	cfg := model.PlayerConfig{UseSchedule: true}
	schedules := []model.ScheduleRule{
		{ID: "a", TargetItemID: "X", DaysOfWeek: []int{2}, StartTime: "08:00", EndTime: "20:00", Active: true},
		{ID: "b", TargetItemID: "Y", DaysOfWeek: []int{2}, StartTime: "09:00", EndTime: "18:00", Active: true},
	}

	item, ok := ResolveActive(tuesdayAt(10, 0), cfg, schedules, playlist("X", "Y"))
	require.True(t, ok)
	assert.Equal(t, "X", item.ID)
}

func TestResolveActive_InactiveRuleSkipped(t *testing.T) {
	cfg := model.PlayerConfig{UseSchedule: true}
	schedules := []model.ScheduleRule{
		{ID: "a", TargetItemID: "X", DaysOfWeek: []int{2}, StartTime: "08:00", EndTime: "20:00", Active: false},
		{ID: "b", TargetItemID: "Y", DaysOfWeek: []int{2}, StartTime: "09:00", EndTime: "18:00", Active: true},
	}

	item, ok := ResolveActive(tuesdayAt(10, 0), cfg, schedules, playlist("X", "Y"))
	require.True(t, ok)
	assert.Equal(t, "Y", item.ID)
}

func TestResolveActive_UseScheduleFalseIgnoresRules(t *testing.T) {
	// 规则本来会命中 X，但未启用排期时直接走回退
	cfg := model.PlayerConfig{UseSchedule: false, CurrentItemID: "Y"}
	schedules := []model.ScheduleRule{weekdayRule("X")}

	item, ok := ResolveActive(tuesdayAt(10, 0), cfg, schedules, playlist("X", "Y"))
	require.True(t, ok)
	assert.Equal(t, "Y", item.ID)
}

func TestScheduleRule_WindowBoundaries(t *testing.T) {
	rule := model.ScheduleRule{
		TargetItemID: "X",
		DaysOfWeek:   []int{2},
		StartTime:    "09:00",
		EndTime:      "18:00",
		Active:       true,
	}

	// 两端都是闭区间
	assert.True(t, rule.Matches(tuesdayAt(9, 0)))
	assert.True(t, rule.Matches(tuesdayAt(18, 0)))
	assert.False(t, rule.Matches(tuesdayAt(8, 59)))
	assert.False(t, rule.Matches(tuesdayAt(18, 1)))
}

func TestScheduleRule_StartEqualsEndMatchesSingleMinute(t *testing.T) {
	rule := model.ScheduleRule{
		TargetItemID: "X",
		DaysOfWeek:   []int{2},
		StartTime:    "12:30",
		EndTime:      "12:30",
		Active:       true,
	}

	assert.True(t, rule.Matches(tuesdayAt(12, 30)))
	assert.False(t, rule.Matches(tuesdayAt(12, 29)))
	assert.False(t, rule.Matches(tuesdayAt(12, 31)))
}

func TestScheduleRule_DayExclusionNeverMatches(t *testing.T) {
	rule := model.ScheduleRule{
		TargetItemID: "X",
		DaysOfWeek:   []int{1, 2, 3, 4, 5},
		StartTime:    "00:00",
		EndTime:      "23:59",
		Active:       true,
	}

	assert.False(t, rule.Matches(saturdayAt(10, 0)))
}

func TestScheduleRule_OvernightWindowNeverMatches(t *testing.T) {
	// StartTime > EndTime：不支持跨夜，永不命中
	rule := model.ScheduleRule{
		TargetItemID: "X",
		DaysOfWeek:   []int{2},
		StartTime:    "22:00",
		EndTime:      "06:00",
		Active:       true,
	}

	assert.False(t, rule.Matches(tuesdayAt(23, 0)))
	assert.False(t, rule.Matches(tuesdayAt(5, 0)))
	assert.False(t, rule.Matches(tuesdayAt(12, 0)))
}

func TestScheduleRule_MalformedTimeNeverMatches(t *testing.T) {
	rule := model.ScheduleRule{
		TargetItemID: "X",
		DaysOfWeek:   []int{2},
		StartTime:    "morning",
		EndTime:      "18:00",
		Active:       true,
	}

	assert.False(t, rule.Matches(tuesdayAt(10, 0)))
}
