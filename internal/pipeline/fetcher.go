package pipeline

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/veriscope/veriscope/internal/model"
	"github.com/veriscope/veriscope/internal/util"
	"github.com/veriscope/veriscope/internal/worker"
)

// Fetcher downloads remote images politely: per-host rate limiting,
// robots.txt compliance with crawl delays, and a hard body size cap.
type Fetcher struct {
	httpClient    *http.Client
	userAgent     string
	maxBytes      int64
	limiter       *worker.Limiter
	robots        *util.RobotsChecker
	respectRobots bool
}

// NewFetcher creates a fetcher from the HTTP configuration.
func NewFetcher(cfg model.HTTPConfig) *Fetcher {
	var robots *util.RobotsChecker
	if cfg.RespectRobots {
		robots = util.NewRobotsChecker(util.NormalizeUserAgent(cfg.UserAgent), cfg.Timeout)
	}

	return &Fetcher{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				Proxy: util.NewProxyFunc(cfg.HTTPProxy, cfg.HTTPSProxy, cfg.NoProxy),
			},
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("stopped after 3 redirects")
				}
				return nil
			},
		},
		userAgent:     cfg.UserAgent,
		maxBytes:      cfg.MaxBodyBytes,
		limiter:       worker.NewLimiter(cfg.RequestsPerSecond, cfg.Burst),
		robots:        robots,
		respectRobots: cfg.RespectRobots,
	}
}

// FetchResult contains the raw image bytes and fetch metadata.
type FetchResult struct {
	Body        []byte
	ContentType string
	FinalURL    string
}

// Fetch retrieves an image from the given URL.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*FetchResult, error) {
	crawlDelay, err := f.checkRobots(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	if err := f.limiter.WaitWithDelay(ctx, rawURL, crawlDelay); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "image/jpeg,image/png,image/*;q=0.8")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status: %d %s", resp.StatusCode, resp.Status)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType != "" && !strings.HasPrefix(contentType, "image/") {
		return nil, fmt.Errorf("not an image: content-type %s", contentType)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(body)) > f.maxBytes {
		return nil, fmt.Errorf("image exceeds size limit of %d bytes", f.maxBytes)
	}

	return &FetchResult{
		Body:        body,
		ContentType: contentType,
		FinalURL:    resp.Request.URL.String(),
	}, nil
}

// checkRobots returns the crawl delay for the URL, or an error when
// robots.txt disallows it.
func (f *Fetcher) checkRobots(ctx context.Context, rawURL string) (crawlDelay time.Duration, err error) {
	if !f.respectRobots || f.robots == nil {
		return 0, nil
	}

	allowed, delay, err := f.robots.CanFetch(ctx, rawURL)
	if err != nil {
		return 0, fmt.Errorf("robots check: %w", err)
	}
	if !allowed {
		return 0, fmt.Errorf("robots.txt disallows fetching %s", rawURL)
	}
	return delay, nil
}
