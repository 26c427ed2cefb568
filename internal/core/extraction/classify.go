package extraction

import (
	"net/url"
	"regexp"
	"strings"

	"souschef/internal/pkg/common"
)

// Kind 擷取來源類型
type Kind string

const (
	KindInstagram  Kind = "instagram"
	KindRecipeSite Kind = "recipe_site"
	KindWebPage    Kind = "web"
	KindImages     Kind = "images"
	KindPDF        Kind = "pdf"
	KindText       Kind = "text"
)

var instagramPath = regexp.MustCompile(`^/(p|reel|tv)/([A-Za-z0-9_-]+)`)

var instagramHosts = map[string]bool{
	"instagram.com":     true,
	"www.instagram.com": true,
}

// ClassifyURL 驗證 URL 並判斷其類型
func ClassifyURL(raw string) (Kind, *url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil, common.ErrInvalidURL
	}

	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", nil, common.ErrInvalidURL
	}

	host := strings.ToLower(u.Hostname())
	if instagramHosts[host] && instagramPath.MatchString(u.Path) {
		return KindInstagram, u, nil
	}
	if IsSupportedDomain(host) {
		return KindRecipeSite, u, nil
	}
	return KindWebPage, u, nil
}

// InstagramShortcode 返回貼文短碼，不是 Instagram 貼文時返回空字串
func InstagramShortcode(u *url.URL) string {
	m := instagramPath.FindStringSubmatch(u.Path)
	if m == nil {
		return ""
	}
	return m[2]
}
