package extraction

import (
	"context"
	"fmt"
	"strings"

	"souschef/internal/infrastructure/config"
	"souschef/internal/pkg/common"

	"github.com/go-resty/resty/v2"
)

// InstagramPost Apify 返回的貼文欄位
type InstagramPost struct {
	Caption       string   `json:"caption"`
	OwnerUsername string   `json:"ownerUsername"`
	DisplayURL    string   `json:"displayUrl"`
	ThumbnailSrc  string   `json:"thumbnailSrc"`
	Images        []string `json:"images"`
	LikesCount    int      `json:"likesCount"`
	CommentsCount int      `json:"commentsCount"`
	Timestamp     string   `json:"timestamp"`
}

// ImageURL 依 displayUrl、thumbnailSrc、images[0] 的順序取圖
func (p *InstagramPost) ImageURL() *string {
	switch {
	case p.DisplayURL != "":
		return &p.DisplayURL
	case p.ThumbnailSrc != "":
		return &p.ThumbnailSrc
	case len(p.Images) > 0 && p.Images[0] != "":
		return &p.Images[0]
	}
	return nil
}

// PostScraper 抓取 Instagram 貼文
type PostScraper interface {
	Scrape(ctx context.Context, postURL string) (*InstagramPost, error)
}

// ApifyScraper 透過 Apify actor 同步執行並讀取資料集
type ApifyScraper struct {
	client *resty.Client
	token  string
	actor  string
}

type apifyInput struct {
	DirectURLs   []string `json:"directUrls"`
	ResultsType  string   `json:"resultsType"`
	ResultsLimit int      `json:"resultsLimit"`
}

// NewApifyScraper 創建 Apify 客戶端
func NewApifyScraper(cfg config.InstagramConfig) *ApifyScraper {
	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.ApifyBaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetHeader("Content-Type", "application/json")

	return &ApifyScraper{
		client: client,
		token:  cfg.ApifyToken,
		actor:  cfg.ApifyActor,
	}
}

// Scrape 執行 actor 並返回第一筆貼文
func (s *ApifyScraper) Scrape(ctx context.Context, postURL string) (*InstagramPost, error) {
	var items []InstagramPost
	req := s.client.R().
		SetContext(ctx).
		SetPathParam("actor", strings.ReplaceAll(s.actor, "/", "~")).
		SetBody(apifyInput{
			DirectURLs:   []string{postURL},
			ResultsType:  "posts",
			ResultsLimit: 1,
		}).
		SetResult(&items)
	if s.token != "" {
		req.SetQueryParam("token", s.token)
	}

	resp, err := req.Post("/acts/{actor}/run-sync-get-dataset-items")
	if err != nil {
		return nil, fmt.Errorf("failed to call Apify: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("apify returned status %d: %s", resp.StatusCode(), common.Truncate(resp.String(), 200))
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("no data returned for Instagram post")
	}
	return &items[0], nil
}

