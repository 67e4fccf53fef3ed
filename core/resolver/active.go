// Package resolver 实现两个纯函数解析器：
// 当前应播内容的裁决（active）与内容项到渲染指令的归一化（source）。
// 两者都是全函数，不做任何 I/O，也不在调用之间保留状态——
// 引擎在每个 tick 和每次 bundle 变更时都会重新执行它们。
package resolver

import (
	"time"

	"ScreenSync/model"
)

// ResolveActive 计算此刻应该播放的内容项。
//
// 启用排期时按表序扫描规则，第一条命中的规则胜出（不做优先级/重叠裁决）；
// 命中规则的 TargetItemID 在播放列表中不存在（悬空引用）时返回 (nil, false)，
// 不做静默回退，回退策略由调用方决定。
// 无规则命中或未启用排期时回退：CurrentItemID 指向的项 → 列表第一项 → 无。
func ResolveActive(now time.Time, cfg model.PlayerConfig, schedules []model.ScheduleRule, playlist []model.ContentItem) (*model.ContentItem, bool) {
	if cfg.UseSchedule {
		for i := range schedules {
			rule := &schedules[i]
			if !rule.Matches(now) {
				continue
			}
			// 第一条命中即定案
			for j := range playlist {
				if playlist[j].ID == rule.TargetItemID {
					return &playlist[j], true
				}
			}
			return nil, false // 悬空引用
		}
	}

	return fallbackItem(cfg, playlist)
}

// fallbackItem 无排期命中时的回退选择
func fallbackItem(cfg model.PlayerConfig, playlist []model.ContentItem) (*model.ContentItem, bool) {
	if cfg.CurrentItemID != "" {
		for i := range playlist {
			if playlist[i].ID == cfg.CurrentItemID {
				return &playlist[i], true
			}
		}
	}
	if len(playlist) > 0 {
		return &playlist[0], true
	}
	return nil, false
}
