// Package favicon resolves icon URLs for pages whose tabs reported
// none. Resolution is best effort: every failure degrades to an empty
// string, never an error, so saving is never blocked on a flaky site.
package favicon

import (
	"context"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gabriel-vasile/mimetype"
	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"

	"github.com/SamisDone/tabsaver/internal/logging"
)

// Fetcher resolves favicons with retries and a per-host cache.
type Fetcher struct {
	client *resty.Client
	cache  sync.Map // host -> icon URL (may be "")
	logger *logging.Logger
}

// New creates a fetcher. Timeout bounds each page fetch.
func New(logger *logging.Logger, timeout time.Duration) *Fetcher {
	retry := retryablehttp.NewClient()
	retry.RetryMax = 2
	retry.RetryWaitMin = 100 * time.Millisecond
	retry.RetryWaitMax = 500 * time.Millisecond
	retry.Logger = nil

	client := resty.NewWithClient(retry.StandardClient()).
		SetTimeout(timeout).
		SetHeader("User-Agent", "tabsaver/1.0").
		SetRedirectPolicy(resty.FlexibleRedirectPolicy(5))

	return &Fetcher{client: client, logger: logger}
}

// Resolve returns an icon URL for pageURL, or "" when none could be
// found. Results are cached per host.
func (f *Fetcher) Resolve(ctx context.Context, pageURL string) string {
	page, err := url.Parse(pageURL)
	if err != nil || page.Host == "" || (page.Scheme != "http" && page.Scheme != "https") {
		return ""
	}

	if cached, ok := f.cache.Load(page.Host); ok {
		return cached.(string)
	}

	icon := f.discover(ctx, page)
	if icon == "" {
		icon = f.fallback(ctx, page)
	}
	f.cache.Store(page.Host, icon)
	if icon == "" {
		f.logger.Debug("no favicon found", zap.String("host", page.Host))
	}
	return icon
}

// discover fetches the page and reads its <link rel=icon> tags.
func (f *Fetcher) discover(ctx context.Context, page *url.URL) string {
	resp, err := f.client.R().SetContext(ctx).Get(page.String())
	if err != nil || resp.StatusCode() != 200 {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(resp.String()))
	if err != nil {
		return ""
	}

	var found string
	doc.Find("link[rel]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		rel, _ := sel.Attr("rel")
		if !strings.Contains(strings.ToLower(rel), "icon") {
			return true
		}
		href, ok := sel.Attr("href")
		if !ok || href == "" {
			return true
		}
		ref, err := url.Parse(href)
		if err != nil {
			return true
		}
		found = page.ResolveReference(ref).String()
		return false
	})
	return found
}

// fallback probes the conventional /favicon.ico location and keeps it
// only when the response actually sniffs as an image.
func (f *Fetcher) fallback(ctx context.Context, page *url.URL) string {
	candidate := page.Scheme + "://" + page.Host + "/favicon.ico"

	resp, err := f.client.R().SetContext(ctx).Get(candidate)
	if err != nil || resp.StatusCode() != 200 || len(resp.Body()) == 0 {
		return ""
	}
	kind := mimetype.Detect(resp.Body())
	if !strings.HasPrefix(kind.String(), "image/") {
		return ""
	}
	return candidate
}
