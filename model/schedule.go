package model

import (
	"fmt"
	"time"
)

// ScheduleRule 将一个日/时间窗口绑定到指定内容项。
// TargetItemID 是对 ContentItem.ID 的引用而非所有权；
// 删除内容项不会级联删除引用它的规则（允许悬空引用）。
type ScheduleRule struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	TargetItemID string `json:"targetItemId"`
	DaysOfWeek   []int  `json:"daysOfWeek"` // 0=周日 .. 6=周六
	StartTime    string `json:"startTime"`  // "HH:MM"，分钟精度
	EndTime      string `json:"endTime"`    // "HH:MM"，仅支持当日窗口
	Active       bool   `json:"active"`
}

// parseMinutes 将 "HH:MM" 解析为当日分钟数。格式非法返回 -1。
func parseMinutes(s string) int {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return -1
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return -1
	}
	return h*60 + m
}

// Matches 判断规则在给定时刻是否命中。
// 窗口两端都是闭区间；StartTime > EndTime 的规则永不命中（不支持跨夜）。
func (r *ScheduleRule) Matches(now time.Time) bool {
	if !r.Active {
		return false
	}

	day := int(now.Weekday())
	dayOK := false
	for _, d := range r.DaysOfWeek {
		if d == day {
			dayOK = true
			break
		}
	}
	if !dayOK {
		return false
	}

	start := parseMinutes(r.StartTime)
	end := parseMinutes(r.EndTime)
	if start < 0 || end < 0 || start > end {
		return false
	}

	tod := now.Hour()*60 + now.Minute()
	return tod >= start && tod <= end
}
