package wechat

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"
)

var imgSrcRe = regexp.MustCompile(`<img[^>]+src="([^"]+)"`)

// RehostImages downloads every external image referenced by the HTML,
// uploads it and rewrites the src to the hosted URL. Draft bodies may
// only reference hosted images; external ones are dropped at publish
// time. A failed rehost keeps the original URL and is only logged.
func (c *Client) RehostImages(ctx context.Context, html string) string {
	matches := imgSrcRe.FindAllStringSubmatch(html, -1)
	replaced := make(map[string]string)

	for _, m := range matches {
		src := m[1]
		if !isExternal(src) {
			continue
		}
		if _, done := replaced[src]; done {
			continue
		}
		hosted, err := c.rehostOne(ctx, src)
		if err != nil {
			log.Warn().Err(err).Str("src", src).Msg("image rehost failed, keeping original url")
			continue
		}
		replaced[src] = hosted
	}

	for src, hosted := range replaced {
		html = strings.ReplaceAll(html, src, hosted)
	}
	return html
}

func (c *Client) rehostOne(ctx context.Context, src string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return "", err
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return "", fmt.Errorf("download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download: status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return "", fmt.Errorf("download: %w", err)
	}

	name := path.Base(src)
	if i := strings.IndexByte(name, '?'); i >= 0 {
		name = name[:i]
	}
	if name == "" || name == "." || name == "/" {
		name = "image.jpg"
	}
	return c.UploadArticleImage(ctx, name, data)
}

func isExternal(src string) bool {
	if !strings.HasPrefix(src, "http://") && !strings.HasPrefix(src, "https://") {
		return false
	}
	return !strings.Contains(src, "mmbiz.qpic.cn")
}
