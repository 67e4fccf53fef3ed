// Package catalog 封装第三方影视目录的只读查询。
// 只有创作端消费它：按标题搜索目录条目、换取跨目录稳定ID，
// 产出的 ContentItem 再交给同步引擎分发。
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"ScreenSync/logger"
	"ScreenSync/model"
)

// Client 目录API客户端
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient 创建新的目录客户端
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: time.Second * 10,
		},
	}
}

// SetTimeout 设置请求超时时间
func (c *Client) SetTimeout(timeout time.Duration) {
	c.httpClient.Timeout = timeout
}

// Result 一条目录搜索结果
type Result struct {
	CatalogID string            `json:"catalogId"`
	Title     string            `json:"title"`
	Year      string            `json:"year,omitempty"`
	Overview  string            `json:"overview,omitempty"`
	PosterURL string            `json:"posterUrl,omitempty"`
	Kind      model.ContentKind `json:"kind"`
}

// ExternalIDs 目录条目的外部标识
type ExternalIDs struct {
	StableID string `json:"stableId"` // 跨目录稳定ID（IMDb 风格）
}

// searchResponse 目录搜索接口的原始响应
type searchResponse struct {
	Results []struct {
		ID           int64  `json:"id"`
		Title        string `json:"title"`
		Name         string `json:"name"` // 剧集接口用 name
		ReleaseDate  string `json:"release_date"`
		FirstAirDate string `json:"first_air_date"`
		Overview     string `json:"overview"`
		PosterPath   string `json:"poster_path"`
	} `json:"results"`
}

// externalIDsResponse 外部ID接口的原始响应
type externalIDsResponse struct {
	IMDbID string `json:"imdb_id"`
}

// searchPath 返回内容类型对应的搜索端点
func searchPath(kind model.ContentKind) (string, error) {
	switch kind {
	case model.KindCatalogMovie:
		return "/search/movie", nil
	case model.KindCatalogShow, model.KindCatalogEpisode:
		return "/search/tv", nil
	default:
		return "", fmt.Errorf("kind %q is not a catalog kind", kind)
	}
}

// SearchByTitle 按标题搜索目录
func (c *Client) SearchByTitle(ctx context.Context, query string, kind model.ContentKind) ([]Result, error) {
	path, err := searchPath(kind)
	if err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("query", query)
	if c.apiKey != "" {
		q.Set("api_key", c.apiKey)
	}

	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, q.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("创建请求失败: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("目录搜索请求失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("目录API返回错误状态码: %d", resp.StatusCode)
	}

	var raw searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("解析目录响应失败: %w", err)
	}

	results := make([]Result, 0, len(raw.Results))
	for _, r := range raw.Results {
		title := r.Title
		year := r.ReleaseDate
		if title == "" {
			title = r.Name
			year = r.FirstAirDate
		}
		if len(year) > 4 {
			year = year[:4]
		}
		results = append(results, Result{
			CatalogID: fmt.Sprintf("%d", r.ID),
			Title:     title,
			Year:      year,
			Overview:  r.Overview,
			PosterURL: r.PosterPath,
			Kind:      kind,
		})
	}

	logger.Info("catalog search completed",
		logger.String("query", query),
		logger.String("kind", string(kind)),
		logger.Int("count", len(results)))

	return results, nil
}

// GetExternalIDs 换取目录条目的跨目录稳定ID
func (c *Client) GetExternalIDs(ctx context.Context, catalogID string, kind model.ContentKind) (*ExternalIDs, error) {
	var path string
	switch kind {
	case model.KindCatalogMovie:
		path = fmt.Sprintf("/movie/%s/external_ids", catalogID)
	case model.KindCatalogShow, model.KindCatalogEpisode:
		path = fmt.Sprintf("/tv/%s/external_ids", catalogID)
	default:
		return nil, fmt.Errorf("kind %q is not a catalog kind", kind)
	}

	q := url.Values{}
	if c.apiKey != "" {
		q.Set("api_key", c.apiKey)
	}
	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("创建请求失败: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("外部ID请求失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("目录API返回错误状态码: %d", resp.StatusCode)
	}

	var raw externalIDsResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("解析外部ID响应失败: %w", err)
	}

	return &ExternalIDs{StableID: raw.IMDbID}, nil
}
