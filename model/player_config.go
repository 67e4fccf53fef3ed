package model

// PlayerConfig 屏幕播放配置
type PlayerConfig struct {
	Autoplay      bool   `json:"autoplay"`
	Muted         bool   `json:"muted"`
	Loop          bool   `json:"loop"`
	CurrentItemID string `json:"currentItemId,omitempty"` // 最后播放项的弱引用
	UseSchedule   bool   `json:"useSchedule"`
	Language      string `json:"language,omitempty"` // BCP 47 语言标签
	PlayerMode    string `json:"playerMode,omitempty"`
}

// DefaultPlayerConfig 返回默认播放配置
func DefaultPlayerConfig() PlayerConfig {
	return PlayerConfig{
		Autoplay:    true,
		Muted:       true,
		Loop:        true,
		UseSchedule: false,
		Language:    "en",
		PlayerMode:  "fullscreen",
	}
}
