package harvest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"ytharvest/lib/jsontree"
)

var (
	// ErrSourceUnavailable means the seed page or the first page of a
	// listing could not be fetched or parsed. It aborts the call.
	ErrSourceUnavailable = errors.New("source unavailable")
	// ErrUnsupportedOrdering means the requested sort order is not
	// offered by the source for this listing.
	ErrUnsupportedOrdering = errors.New("unsupported sort order")
	// ErrInvalidFilterUsage means the filter specification or its
	// combination with other options is invalid.
	ErrInvalidFilterUsage = errors.New("invalid filter usage")
)

// continuation endpoints offered by the source
const (
	endpointBrowse = "browse"
	endpointNext   = "next"
)

// Source is the transport collaborator. The session context returned
// by FetchInitialPage is opaque to the engine: it is carried to
// continuation requests unchanged.
type Source interface {
	FetchInitialPage(ctx context.Context, pageURL string) (jsontree.Document, json.RawMessage, error)
	FetchContinuation(ctx context.Context, token string, session json.RawMessage, endpoint string) (jsontree.Document, error)
	// FetchVideoDetail retrieves the full metadata documents of one
	// video's watch page, used for enrichment.
	FetchVideoDetail(ctx context.Context, videoURL string) (jsontree.Document, error)
}

const siteURL = "https://www.youtube.com"

// ExtractVideoID accepts a bare video ID or any of the common URL
// shapes and returns the ID.
func ExtractVideoID(seed string) string {
	if !strings.Contains(seed, "/") {
		return seed
	}
	for _, marker := range []string{"v=", "youtu.be/", "/shorts/", "/embed/"} {
		if idx := strings.Index(seed, marker); idx >= 0 {
			id := seed[idx+len(marker):]
			if end := strings.IndexAny(id, "?&/"); end >= 0 {
				id = id[:end]
			}
			return id
		}
	}
	return seed
}

func watchURL(seed string) string {
	return fmt.Sprintf("%s/watch?v=%s", siteURL, ExtractVideoID(seed))
}

// channelVideosURL normalizes a channel seed (handle, channel path or
// full URL) to its "Videos" tab URL.
func channelVideosURL(seed string) string {
	page := seed
	switch {
	case strings.HasPrefix(seed, "http://"), strings.HasPrefix(seed, "https://"):
	case strings.HasPrefix(seed, "@"):
		page = fmt.Sprintf("%s/%s", siteURL, seed)
	default:
		page = fmt.Sprintf("%s/channel/%s", siteURL, seed)
	}
	page = strings.TrimRight(page, "/")
	if !strings.HasSuffix(page, "/videos") {
		page += "/videos"
	}
	return page
}

func playlistURL(seed string) string {
	if strings.HasPrefix(seed, "http://") || strings.HasPrefix(seed, "https://") {
		return seed
	}
	return fmt.Sprintf("%s/playlist?list=%s", siteURL, seed)
}
