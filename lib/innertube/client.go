// Package innertube speaks YouTube's internal "innertube" API surface:
// it fetches the HTML pages that seed a session, extracts the two
// embedded script documents (initial data and client configuration) and
// issues continuation requests against youtubei/v1 endpoints.
package innertube

import (
	"encoding/json"
	"fmt"
	"net/http/cookiejar"
	"time"

	"context"

	"ytharvest/lib/jsontree"
	"ytharvest/lib/pagecache"
	"ytharvest/lib/telemetry"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("innertube")

const BaseURL = "https://www.youtube.com"

const (
	EndpointBrowse = "browse"
	EndpointNext   = "next"
)

// Session is the per-page client context minted by the upstream inside
// each HTML page. Consumers treat it as an opaque serialized blob; only
// this package reads its fields.
type Session struct {
	APIKey           string `json:"api_key"`
	ClientName       string `json:"client_name"`
	ClientVersion    string `json:"client_version"`
	LockedSafetyMode bool   `json:"locked_safety_mode"`
	UseSsl           bool   `json:"use_ssl"`
}

type Client struct {
	Http *resty.Client
	// optional page cache for seed documents, owned by the caller
	Cache pagecache.Cache
}

type ClientOptions struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
	Cache     pagecache.Cache
}

func NewClient(opts ClientOptions) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = BaseURL
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"
	}
	if opts.Timeout == 0 {
		opts.Timeout = time.Second * 30
	}

	client := resty.New()
	client.SetBaseURL(opts.BaseURL)
	jar, err := cookiejar.New(nil)
	if err == nil {
		client.SetCookieJar(jar)
	}
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	client.SetHeader("user-agent", opts.UserAgent)
	client.SetHeader("accept-language", "en-US,en;q=0.9")
	client.SetTimeout(opts.Timeout)

	telemetry.InstrumentResty(client, "innertube/http")

	return &Client{Http: client, Cache: opts.Cache}
}

// FetchInitialPage retrieves pageURL and extracts the initial data
// document plus the session context embedded in its script blocks. When
// a cache is attached the raw HTML is cached keyed by pageURL.
func (c *Client) FetchInitialPage(ctx context.Context, pageURL string) (jsontree.Document, json.RawMessage, error) {
	ctx, span := tracer.Start(ctx, "client:FetchInitialPage")
	defer span.End()
	span.SetAttributes(attribute.String("url", pageURL))

	html, err := c.pageHTML(ctx, pageURL)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch page")
		return nil, nil, err
	}

	doc, err := ExtractInitialData(html)
	if err != nil {
		span.SetStatus(codes.Error, "failed to extract initial data")
		return nil, nil, fmt.Errorf("%s: %w", pageURL, err)
	}
	session, err := ExtractSession(html)
	if err != nil {
		span.SetStatus(codes.Error, "failed to extract session config")
		return nil, nil, fmt.Errorf("%s: %w", pageURL, err)
	}

	raw, err := json.Marshal(session)
	if err != nil {
		return nil, nil, err
	}
	return doc, raw, nil
}

func (c *Client) pageHTML(ctx context.Context, pageURL string) (string, error) {
	if c.Cache != nil {
		if cached, ok := c.Cache.Get(pageURL); ok {
			return string(cached), nil
		}
	}

	res, err := c.Http.R().
		SetContext(ctx).
		Get(pageURL)
	if err != nil {
		return "", err
	}
	if res.IsError() {
		return "", fmt.Errorf("fetching %s: status %s", pageURL, res.Status())
	}

	html := res.String()
	if c.Cache != nil {
		c.Cache.Put(pageURL, []byte(html))
	}
	return html, nil
}

// FetchVideoDetail retrieves a watch page and returns its two embedded
// metadata documents under one root. Watch pages bypass the cache: a
// harvest touches each one at most once, so caching them only grows
// the store.
func (c *Client) FetchVideoDetail(ctx context.Context, videoURL string) (jsontree.Document, error) {
	ctx, span := tracer.Start(ctx, "client:FetchVideoDetail")
	defer span.End()
	span.SetAttributes(attribute.String("url", videoURL))

	res, err := c.Http.R().
		SetContext(ctx).
		Get(videoURL)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch watch page")
		return nil, err
	}
	if res.IsError() {
		span.SetStatus(codes.Error, "watch page request rejected")
		return nil, fmt.Errorf("fetching %s: status %s", videoURL, res.Status())
	}
	html := res.String()

	player, err := ExtractPlayerResponse(html)
	if err != nil {
		span.SetStatus(codes.Error, "failed to extract player response")
		return nil, fmt.Errorf("%s: %w", videoURL, err)
	}
	doc := jsontree.Document{"playerResponse": player}
	// the initial data document carries the interaction counters; its
	// absence does not invalidate the core metadata
	if initial, err := ExtractInitialData(html); err == nil {
		doc["initialData"] = initial
	}
	return doc, nil
}

// FetchContinuation requests the next page of a listing. endpoint picks
// the youtubei surface: "browse" for channel and playlist listings,
// "next" for comment threads.
func (c *Client) FetchContinuation(ctx context.Context, token string, session json.RawMessage, endpoint string) (jsontree.Document, error) {
	ctx, span := tracer.Start(ctx, "client:FetchContinuation")
	defer span.End()
	span.SetAttributes(attribute.String("endpoint", endpoint))

	var s Session
	if err := json.Unmarshal(session, &s); err != nil {
		span.SetStatus(codes.Error, "bad session context")
		return nil, fmt.Errorf("decoding session context: %w", err)
	}

	payload := map[string]any{
		"context": map[string]any{
			"client": map[string]any{
				"clientName":    s.ClientName,
				"clientVersion": s.ClientVersion,
			},
			"user": map[string]any{
				"lockedSafetyMode": s.LockedSafetyMode,
			},
			"request": map[string]any{
				"useSsl": s.UseSsl,
			},
		},
		"continuation": token,
	}

	var doc jsontree.Document
	res, err := c.Http.R().
		SetContext(ctx).
		SetQueryParam("key", s.APIKey).
		SetQueryParam("prettyPrint", "false").
		SetHeader("content-type", "application/json").
		SetBody(payload).
		SetResult(&doc).
		Post(fmt.Sprintf("/youtubei/v1/%s", endpoint))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "continuation request failed")
		return nil, err
	}
	if res.IsError() {
		span.SetStatus(codes.Error, "continuation request rejected")
		return nil, fmt.Errorf("continuation request: status %s", res.Status())
	}
	if doc == nil {
		return nil, fmt.Errorf("continuation request: empty response")
	}
	return doc, nil
}
