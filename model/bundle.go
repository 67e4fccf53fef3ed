package model

// Bundle 是复制的最小单元：一块屏幕的全部配置、播放列表与排期表。
// 所有客户端之间只传递完整的 Bundle，绝不传递局部字段，
// 以避免远端存储上出现部分写入交错。
type Bundle struct {
	Config     PlayerConfig   `json:"config"`
	Playlist   []ContentItem  `json:"playlist"`
	Schedules  []ScheduleRule `json:"schedules"`
	LastUpdate int64          `json:"lastUpdate"` // 毫秒时间戳，每次写入严格递增
}

// EmptyBundle 返回首次运行时的默认空 Bundle。
func EmptyBundle() *Bundle {
	return &Bundle{
		Config:     DefaultPlayerConfig(),
		Playlist:   []ContentItem{},
		Schedules:  []ScheduleRule{},
		LastUpdate: 0,
	}
}

// FindItem 在播放列表中按 id 查找内容项。
// 悬空引用（id 不存在）返回 nil, false，由调用方决定回退策略。
func (b *Bundle) FindItem(id string) (*ContentItem, bool) {
	if id == "" {
		return nil, false
	}
	for i := range b.Playlist {
		if b.Playlist[i].ID == id {
			return &b.Playlist[i], true
		}
	}
	return nil, false
}

// NewerThan 判断本 Bundle 是否比给定时间戳更新。
// last-writer-wins 规则：时间戳小于等于本地值的写入一律丢弃。
func (b *Bundle) NewerThan(lastUpdate int64) bool {
	return b.LastUpdate > lastUpdate
}

// Clone 返回 Bundle 的深拷贝。
// 引擎对外只交出副本，保证权威状态只通过 reconciliation 变更。
func (b *Bundle) Clone() *Bundle {
	out := &Bundle{
		Config:     b.Config,
		Playlist:   make([]ContentItem, len(b.Playlist)),
		Schedules:  make([]ScheduleRule, len(b.Schedules)),
		LastUpdate: b.LastUpdate,
	}
	copy(out.Playlist, b.Playlist)
	copy(out.Schedules, b.Schedules)
	for i := range out.Playlist {
		if tags := out.Playlist[i].Tags; tags != nil {
			out.Playlist[i].Tags = append([]string(nil), tags...)
		}
	}
	for i := range out.Schedules {
		if days := out.Schedules[i].DaysOfWeek; days != nil {
			out.Schedules[i].DaysOfWeek = append([]int(nil), days...)
		}
	}
	return out
}
