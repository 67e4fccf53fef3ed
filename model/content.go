package model

// ContentKind 内容项类型
type ContentKind string

const (
	KindDirect         ContentKind = "direct"         // 原始流媒体URL
	KindCatalogMovie   ContentKind = "catalogMovie"   // 第三方目录电影
	KindCatalogShow    ContentKind = "catalogShow"    // 第三方目录剧集
	KindCatalogEpisode ContentKind = "catalogEpisode" // 第三方目录单集
	KindLocalUpload    ContentKind = "localUpload"    // 本机上传的媒体文件
)

// ContentItem represents one playable unit in the playlist.
// Identity is ID; uniqueness is enforced by the authoring client and
// never re-validated here.
type ContentItem struct {
	ID    string      `json:"id"`
	Title string      `json:"title"`
	Kind  ContentKind `json:"kind"`

	// Locator fields, populated per kind.
	URL       string `json:"url,omitempty"`       // direct: raw stream or page URL
	CatalogID string `json:"catalogId,omitempty"` // catalog kinds: provider-specific id
	StableID  string `json:"stableId,omitempty"`  // catalog kinds: cross-catalog stable id (preferred)
	Season    int    `json:"season,omitempty"`    // catalogEpisode
	Episode   int    `json:"episode,omitempty"`   // catalogEpisode
	BlobKey   string `json:"blobKey,omitempty"`   // localUpload: key into the device blob store

	Tags    []string `json:"tags,omitempty"`
	AddedAt int64    `json:"addedAt,omitempty"` // 毫秒时间戳
}

// InstructionKind 渲染指令类型
type InstructionKind string

const (
	InstructionStream InstructionKind = "stream" // 直接喂给播放器的流媒体地址
	InstructionEmbed  InstructionKind = "embed"  // iframe 嵌入的第三方播放页
	InstructionBlob   InstructionKind = "blob"   // 本机 blob 存储中的媒体
)

// RenderInstruction 是渲染器可直接消费的归一化播放指令。
// 每个合法的 ContentItem 都恰好映射到一种指令；不存在"无法解析"的内容项，
// 只存在播放时解析不到字节的情况（由渲染器处理）。
type RenderInstruction struct {
	Kind    InstructionKind `json:"kind"`
	URL     string          `json:"url,omitempty"`     // stream / embed；blob 解析成功后也会填上
	BlobKey string          `json:"blobKey,omitempty"` // blob
	ItemID  string          `json:"itemId"`
	Title   string          `json:"title,omitempty"`

	// Unavailable 表示 blob 字节不在本设备上。
	// 这是终态，渲染器应展示不可用提示而不是重试。
	Unavailable bool `json:"unavailable,omitempty"`
}
