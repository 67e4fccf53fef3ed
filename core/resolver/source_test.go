package resolver

import (
	"net/url"
	"testing"

	"ScreenSync/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testTemplates = EmbedTemplates{
	MovieBase:   "https://vidsrc.net/embed/movie",
	ShowBase:    "https://vidsrc.net/embed/tv",
	EpisodeBase: "https://vidsrc.net/embed/tv",
}

func queryOf(t *testing.T, raw string) url.Values {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u.Query()
}

func TestResolveSource_DirectURLBecomesStream(t *testing.T) {
	item := &model.ContentItem{
		ID:   "d1",
		Kind: model.KindDirect,
		URL:  "https://cdn.example.com/promo.mp4",
	}

	inst := ResolveSource(item, model.DefaultPlayerConfig(), testTemplates)

	assert.Equal(t, model.InstructionStream, inst.Kind)
	assert.Equal(t, "https://cdn.example.com/promo.mp4", inst.URL)
	assert.Equal(t, "d1", inst.ItemID)
	assert.False(t, inst.Unavailable)
}

func TestResolveSource_YouTubeWatchURLBecomesEmbed(t *testing.T) {
	item := &model.ContentItem{
		ID:   "y1",
		Kind: model.KindDirect,
		URL:  "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
	}
	cfg := model.PlayerConfig{Autoplay: true, Muted: true, Loop: true, Language: "de"}

	inst := ResolveSource(item, cfg, testTemplates)

	require.Equal(t, model.InstructionEmbed, inst.Kind)
	assert.Contains(t, inst.URL, "youtube.com/embed/dQw4w9WgXcQ")

	q := queryOf(t, inst.URL)
	assert.Equal(t, "1", q.Get("autoplay"))
	assert.Equal(t, "1", q.Get("mute"))
	assert.Equal(t, "1", q.Get("loop"))
	// 单曲循环要求 playlist 指向自身
	assert.Equal(t, "dQw4w9WgXcQ", q.Get("playlist"))
	assert.Equal(t, "de", q.Get("hl"))
}

func TestResolveSource_YouTubeShortFormsRecognized(t *testing.T) {
	cases := []struct {
		name string
		url  string
	}{
		{"youtu.be", "https://youtu.be/abc123XYZ"},
		{"shorts", "https://youtube.com/shorts/abc123XYZ"},
		{"already embed", "https://www.youtube.com/embed/abc123XYZ"},
		{"mobile host", "https://m.youtube.com/watch?v=abc123XYZ"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			item := &model.ContentItem{ID: "y", Kind: model.KindDirect, URL: tc.url}
			inst := ResolveSource(item, model.PlayerConfig{}, testTemplates)

			require.Equal(t, model.InstructionEmbed, inst.Kind)
			assert.Contains(t, inst.URL, "/embed/abc123XYZ")
		})
	}
}

func TestResolveSource_YouTubeWithoutVideoIDStaysStream(t *testing.T) {
	item := &model.ContentItem{
		ID:   "y2",
		Kind: model.KindDirect,
		URL:  "https://www.youtube.com/watch",
	}

	inst := ResolveSource(item, model.PlayerConfig{}, testTemplates)

	assert.Equal(t, model.InstructionStream, inst.Kind)
	assert.Equal(t, item.URL, inst.URL)
}

func TestResolveSource_CatalogMoviePrefersStableID(t *testing.T) {
	item := &model.ContentItem{
		ID:        "m1",
		Kind:      model.KindCatalogMovie,
		StableID:  "tt0133093",
		CatalogID: "603",
	}

	inst := ResolveSource(item, model.PlayerConfig{}, testTemplates)

	require.Equal(t, model.InstructionEmbed, inst.Kind)
	assert.Contains(t, inst.URL, testTemplates.MovieBase)

	q := queryOf(t, inst.URL)
	assert.Equal(t, "tt0133093", q.Get("imdb"))
	assert.Empty(t, q.Get("tmdb"))
}

func TestResolveSource_CatalogMovieFallsBackToVendorID(t *testing.T) {
	item := &model.ContentItem{
		ID:        "m2",
		Kind:      model.KindCatalogMovie,
		CatalogID: "603",
	}

	inst := ResolveSource(item, model.PlayerConfig{}, testTemplates)

	q := queryOf(t, inst.URL)
	assert.Equal(t, "603", q.Get("tmdb"))
	assert.Empty(t, q.Get("imdb"))
}

func TestResolveSource_CatalogEpisodeCarriesSeasonEpisode(t *testing.T) {
	item := &model.ContentItem{
		ID:       "e1",
		Kind:     model.KindCatalogEpisode,
		StableID: "tt0903747",
		Season:   2,
		Episode:  5,
	}
	cfg := model.PlayerConfig{Autoplay: true, Language: "fr"}

	inst := ResolveSource(item, cfg, testTemplates)

	require.Equal(t, model.InstructionEmbed, inst.Kind)
	assert.Contains(t, inst.URL, testTemplates.EpisodeBase)

	q := queryOf(t, inst.URL)
	assert.Equal(t, "2", q.Get("season"))
	assert.Equal(t, "5", q.Get("episode"))
	assert.Equal(t, "1", q.Get("autoplay"))
	assert.Equal(t, "fr", q.Get("lang"))
}

func TestResolveSource_CatalogWithoutAnyIDStillProducesURL(t *testing.T) {
	// 标识缺失是数据问题不是解析错误：产出尽力而为的URL
	item := &model.ContentItem{ID: "m3", Kind: model.KindCatalogShow}

	inst := ResolveSource(item, model.PlayerConfig{}, testTemplates)

	require.Equal(t, model.InstructionEmbed, inst.Kind)
	assert.Equal(t, testTemplates.ShowBase, inst.URL)
}

func TestResolveSource_LocalUploadBecomesBlobInstruction(t *testing.T) {
	item := &model.ContentItem{
		ID:      "u1",
		Kind:    model.KindLocalUpload,
		BlobKey: "dev-1/f00d.mp4",
		Title:   "店内宣传片",
	}

	inst := ResolveSource(item, model.DefaultPlayerConfig(), testTemplates)

	assert.Equal(t, model.InstructionBlob, inst.Kind)
	assert.Equal(t, "dev-1/f00d.mp4", inst.BlobKey)
	assert.Empty(t, inst.URL) // URL由 blob 子存储异步补齐
	assert.Equal(t, "店内宣传片", inst.Title)
}

func TestResolveSource_UnknownKindTreatedAsDirect(t *testing.T) {
	item := &model.ContentItem{
		ID:   "x1",
		Kind: model.ContentKind("hologram"),
		URL:  "https://cdn.example.com/x.mp4",
	}

	inst := ResolveSource(item, model.PlayerConfig{}, testTemplates)

	assert.Equal(t, model.InstructionStream, inst.Kind)
	assert.Equal(t, item.URL, inst.URL)
}
