package resolver

import (
	"fmt"
	"net/url"
	"strings"

	"ScreenSync/model"
)

// EmbedTemplates 各目录类型的嵌入URL模板基址。
// 每种内容类型对应一个纯格式化分支，避免字符串拼接散落在各处。
type EmbedTemplates struct {
	MovieBase   string
	ShowBase    string
	EpisodeBase string
}

// ResolveSource 将内容项归一化为渲染指令。
//
// 这是一个全函数：每个合法的 ContentItem 恰好映射到一种指令，
// 标识缺失或畸形也只会产出尽力而为的URL，绝不失败。
// 字节层面的缺失（比如 blob 不在本机）留给播放时处理。
func ResolveSource(item *model.ContentItem, cfg model.PlayerConfig, tpl EmbedTemplates) model.RenderInstruction {
	switch item.Kind {
	case model.KindLocalUpload:
		return model.RenderInstruction{
			Kind:    model.InstructionBlob,
			BlobKey: item.BlobKey,
			ItemID:  item.ID,
			Title:   item.Title,
		}

	case model.KindCatalogMovie, model.KindCatalogShow, model.KindCatalogEpisode:
		return model.RenderInstruction{
			Kind:   model.InstructionEmbed,
			URL:    catalogEmbedURL(item, cfg, tpl),
			ItemID: item.ID,
			Title:  item.Title,
		}

	default: // KindDirect 以及任何未知类型都按直链处理
		if embedURL, ok := shortVideoEmbedURL(item.URL, cfg); ok {
			return model.RenderInstruction{
				Kind:   model.InstructionEmbed,
				URL:    embedURL,
				ItemID: item.ID,
				Title:  item.Title,
			}
		}
		return model.RenderInstruction{
			Kind:   model.InstructionStream,
			URL:    item.URL,
			ItemID: item.ID,
			Title:  item.Title,
		}
	}
}

// shortVideoEmbedURL 识别已知短视频托管站的URL并换算成嵌入地址。
// 识别不了（包括解析失败）返回 ("", false)，调用方按原始流处理。
func shortVideoEmbedURL(raw string, cfg model.PlayerConfig) (string, bool) {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "", false
	}

	host := strings.TrimPrefix(strings.ToLower(u.Host), "www.")
	var videoID string

	switch host {
	case "youtube.com", "m.youtube.com":
		if strings.HasPrefix(u.Path, "/watch") {
			videoID = u.Query().Get("v")
		} else if strings.HasPrefix(u.Path, "/shorts/") {
			videoID = strings.TrimPrefix(u.Path, "/shorts/")
		} else if strings.HasPrefix(u.Path, "/embed/") {
			videoID = strings.TrimPrefix(u.Path, "/embed/")
		}
	case "youtu.be":
		videoID = strings.TrimPrefix(u.Path, "/")
	}

	videoID = strings.Trim(videoID, "/")
	if videoID == "" {
		return "", false
	}

	q := url.Values{}
	q.Set("autoplay", boolParam(cfg.Autoplay))
	q.Set("mute", boolParam(cfg.Muted))
	if cfg.Loop {
		q.Set("loop", "1")
		// YouTube 的单曲循环要求 playlist 参数指向同一视频
		q.Set("playlist", videoID)
	}
	if cfg.Language != "" {
		q.Set("hl", cfg.Language)
	}

	return fmt.Sprintf("https://www.youtube.com/embed/%s?%s", url.PathEscape(videoID), q.Encode()), true
}

// catalogEmbedURL 按内容类型的固定模板构造第三方嵌入地址。
// 优先使用跨目录稳定ID，缺失时退回供应商ID；两者都缺也不报错，
// 产出只带可用查询参数的尽力而为URL。
func catalogEmbedURL(item *model.ContentItem, cfg model.PlayerConfig, tpl EmbedTemplates) string {
	base := tpl.MovieBase
	switch item.Kind {
	case model.KindCatalogShow:
		base = tpl.ShowBase
	case model.KindCatalogEpisode:
		base = tpl.EpisodeBase
	}

	q := url.Values{}
	if item.StableID != "" {
		q.Set("imdb", item.StableID)
	} else if item.CatalogID != "" {
		q.Set("tmdb", item.CatalogID)
	}

	if item.Kind == model.KindCatalogEpisode {
		if item.Season > 0 {
			q.Set("season", fmt.Sprintf("%d", item.Season))
		}
		if item.Episode > 0 {
			q.Set("episode", fmt.Sprintf("%d", item.Episode))
		}
	}

	if cfg.Autoplay {
		q.Set("autoplay", "1")
	}
	if cfg.Language != "" {
		q.Set("lang", cfg.Language)
	}

	if len(q) == 0 {
		return base
	}
	return base + "?" + q.Encode()
}

func boolParam(v bool) string {
	if v {
		return "1"
	}
	return "0"
}
