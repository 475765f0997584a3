package xhs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"github.com/xiaoxiunique/xhs-poster/pkg/config"
	"github.com/xiaoxiunique/xhs-poster/pkg/logging"
)

// Client issues requests to the external platform on behalf of exactly one
// credential. Construction performs no I/O; every call attaches the cookie
// plus the browser-impersonation headers the platform requires. The client
// never retries: transport failures and non-success envelopes surface as
// typed step errors and policy is left to callers.
type Client struct {
	cookie     string
	creatorURL string
	edithURL   string
	uploadURL  string
	http       *http.Client
	logger     *zap.Logger
}

// New creates a client bound to the given cookie. A nil cfg uses the
// production platform hosts.
func New(cookie string, cfg *config.PlatformConfig) *Client {
	creatorURL := "https://creator.xiaohongshu.com"
	edithURL := "https://edith.xiaohongshu.com"
	uploadURL := "https://ros-upload.xiaohongshu.com"
	if cfg != nil {
		if cfg.CreatorURL != "" {
			creatorURL = cfg.CreatorURL
		}
		if cfg.EdithURL != "" {
			edithURL = cfg.EdithURL
		}
		if cfg.UploadURL != "" {
			uploadURL = cfg.UploadURL
		}
	}

	return &Client{
		cookie:     cookie,
		creatorURL: creatorURL,
		edithURL:   edithURL,
		uploadURL:  uploadURL,
		// No client-level timeout: callers bound every call with their
		// own context deadline.
		http:   &http.Client{},
		logger: logging.GetLogger().With(zap.String("component", "xhs-client")),
	}
}

// envelope is the common response wrapper the platform uses. Not every
// endpoint includes the success field, so it is a pointer: absent means ok.
type envelope struct {
	Code    int             `json:"code"`
	Success *bool           `json:"success"`
	Msg     string          `json:"msg"`
	Data    json.RawMessage `json:"data"`
}

func (e *envelope) ok() bool {
	return e.Success == nil || *e.Success
}

// setHeaders applies the browser-impersonation header set. The platform
// rejects requests without a plausible web-client fingerprint.
func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Accept", "application/json, text/plain, */*")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9,zh-CN;q=0.8,zh;q=0.7")
	req.Header.Set("Authorization", "")
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Cookie", c.cookie)
	req.Header.Set("Pragma", "no-cache")
	req.Header.Set("Referer", "https://creator.xiaohongshu.com/")
	req.Header.Set("Origin", "https://creator.xiaohongshu.com/")
	req.Header.Set("Sec-Ch-Ua", `"Google Chrome";v="119", "Chromium";v="119", "Not?A_Brand";v="24"`)
	req.Header.Set("Sec-Ch-Ua-Mobile", "?0")
	req.Header.Set("Sec-Ch-Ua-Platform", `"macOS"`)
	req.Header.Set("Sec-Fetch-Dest", "empty")
	req.Header.Set("Sec-Fetch-Mode", "cors")
	req.Header.Set("Sec-Fetch-Site", "same-origin")
	req.Header.Set("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119.0.0.0 Safari/537.36")
}

// getJSON issues a GET against base+path with the given query parameters
// and returns the raw response body.
func (c *Client) getJSON(ctx context.Context, base, path string, query url.Values) ([]byte, error) {
	u := base + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	c.setHeaders(req)

	return c.do(req)
}

// postJSON issues a POST with a JSON body against base+path and returns the
// raw response body.
func (c *Client) postJSON(ctx context.Context, base, path string, body interface{}) ([]byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, base+path, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	c.setHeaders(req)
	req.Header.Set("Content-Type", "application/json")

	return c.do(req)
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return body, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, truncate(body, 256))
	}
	return body, nil
}

// parseEnvelope unmarshals a platform envelope and rejects non-success
// responses.
func parseEnvelope(body []byte) (*envelope, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("malformed response: %w", err)
	}
	if !env.ok() {
		return nil, fmt.Errorf("platform rejected request: code %d: %s", env.Code, env.Msg)
	}
	return &env, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
