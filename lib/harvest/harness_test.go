package harvest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"testing"

	"github.com/stretchr/testify/require"

	"ytharvest/lib/jsontree"
)

// fakeSource serves canned documents and records every transport
// interaction, so tests can assert exactly which requests a harvest
// issued.
type fakeSource struct {
	pages         map[string]jsontree.Document
	details       map[string]jsontree.Document
	continuations map[string]jsontree.Document
	failPages     map[string]bool
	failTokens    map[string]bool

	pageCalls   []string
	detailCalls []string
	contCalls   []string
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		pages:         map[string]jsontree.Document{},
		details:       map[string]jsontree.Document{},
		continuations: map[string]jsontree.Document{},
		failPages:     map[string]bool{},
		failTokens:    map[string]bool{},
	}
}

func (f *fakeSource) transportCalls() int {
	return len(f.pageCalls) + len(f.detailCalls) + len(f.contCalls)
}

func (f *fakeSource) FetchInitialPage(ctx context.Context, pageURL string) (jsontree.Document, json.RawMessage, error) {
	f.pageCalls = append(f.pageCalls, pageURL)
	if f.failPages[pageURL] {
		return nil, nil, errors.New("connection reset")
	}
	doc, ok := f.pages[pageURL]
	if !ok {
		return nil, nil, fmt.Errorf("no fixture page for %q", pageURL)
	}
	return doc, json.RawMessage(`{"apiKey":"fixture"}`), nil
}

func (f *fakeSource) FetchContinuation(ctx context.Context, token string, session json.RawMessage, endpoint string) (jsontree.Document, error) {
	f.contCalls = append(f.contCalls, endpoint+":"+token)
	if len(session) == 0 {
		return nil, errors.New("missing session context")
	}
	if f.failTokens[token] {
		return nil, errors.New("connection reset")
	}
	doc, ok := f.continuations[token]
	if !ok {
		return nil, fmt.Errorf("no fixture continuation for %q", token)
	}
	return doc, nil
}

func (f *fakeSource) FetchVideoDetail(ctx context.Context, videoURL string) (jsontree.Document, error) {
	f.detailCalls = append(f.detailCalls, videoURL)
	if f.failPages[videoURL] {
		return nil, errors.New("connection reset")
	}
	doc, ok := f.details[videoURL]
	if !ok {
		return nil, fmt.Errorf("no fixture detail for %q", videoURL)
	}
	return doc, nil
}

func collectVideos(t *testing.T, seq iter.Seq2[Video, error]) []Video {
	t.Helper()
	var out []Video
	for v, err := range seq {
		require.NoError(t, err)
		out = append(out, v)
	}
	return out
}

func collectComments(t *testing.T, seq iter.Seq2[Comment, error]) []Comment {
	t.Helper()
	var out []Comment
	for c, err := range seq {
		require.NoError(t, err)
		out = append(out, c)
	}
	return out
}

func firstError[T any](seq iter.Seq2[T, error]) error {
	for _, err := range seq {
		if err != nil {
			return err
		}
	}
	return nil
}

// --- document builders -------------------------------------------------

func continuationItem(token string) map[string]any {
	return map[string]any{
		"continuationItemRenderer": map[string]any{
			"continuationEndpoint": map[string]any{
				"continuationCommand": map[string]any{"token": token},
			},
		},
	}
}

func videoItem(id, title, views, length, published string) map[string]any {
	r := map[string]any{
		"videoId": id,
		"title":   map[string]any{"runs": []any{map[string]any{"text": title}}},
	}
	if views != "" {
		r["viewCountText"] = map[string]any{"simpleText": views}
	}
	if length != "" {
		r["lengthText"] = map[string]any{"simpleText": length}
	}
	if published != "" {
		r["publishedTimeText"] = map[string]any{"simpleText": published}
	}
	return map[string]any{"videoRenderer": r}
}

func playlistVideoItem(id, title, views, lengthSeconds string) map[string]any {
	r := map[string]any{
		"videoId":       id,
		"title":         map[string]any{"runs": []any{map[string]any{"text": title}}},
		"lengthSeconds": lengthSeconds,
		"videoInfo": map[string]any{
			"runs": []any{map[string]any{"text": views}},
		},
	}
	return map[string]any{"playlistVideoRenderer": r}
}

func listingPage(token string, items ...map[string]any) jsontree.Document {
	contents := make([]any, 0, len(items)+1)
	for _, item := range items {
		contents = append(contents, item)
	}
	if token != "" {
		contents = append(contents, continuationItem(token))
	}
	return jsontree.Document{"contents": contents}
}

func detailPage(id, title, description, category, publishDate, viewCount, likeText string, keywords ...string) jsontree.Document {
	kw := make([]any, 0, len(keywords))
	for _, k := range keywords {
		kw = append(kw, k)
	}
	return jsontree.Document{
		"videoDetails": map[string]any{
			"videoId":          id,
			"title":            title,
			"shortDescription": description,
			"viewCount":        viewCount,
			"lengthSeconds":    "120",
			"keywords":         kw,
			"channelId":        "UCfixture",
			"author":           "Fixture Channel",
		},
		"microformat": map[string]any{
			"playerMicroformatRenderer": map[string]any{
				"category":    category,
				"publishDate": publishDate,
			},
		},
		"likeButton": map[string]any{
			"likeCountIfIndifferent": likeText,
		},
	}
}

// watchPage builds the seed document of a video page with a comment
// sort menu offering the two standard orderings.
func watchPage(topToken, recentToken string) jsontree.Document {
	item := func(token string) any {
		return map[string]any{
			"serviceEndpoint": map[string]any{
				"continuationCommand": map[string]any{"token": token},
			},
		}
	}
	return jsontree.Document{
		"contents": map[string]any{
			"sortFilterSubMenuRenderer": map[string]any{
				"subMenuItems": []any{item(topToken), item(recentToken)},
			},
		},
	}
}

// commentFixture describes one comment and its scattered sibling
// fragments on a page.
type commentFixture struct {
	id        string
	text      string
	published string
	// likes is the toolbar's abbreviated like counter; empty means the
	// engagement fragment is absent from the page.
	likes      string
	replyCount float64
	parentKey  string
	pinned     bool
	hearted    bool
	byOwner    bool
	paid       string
	// replyToken adds a thread wrapper with a reply continuation.
	replyToken string
}

// commentBatch assembles a continuation response page: entity payloads
// under mutation wrappers, thread wrappers for reply cursors, and an
// optional next-page continuation.
func commentBatch(pageToken string, fixtures ...commentFixture) jsontree.Document {
	var mutations []any
	var contents []any

	for _, f := range fixtures {
		props := map[string]any{
			"commentId":       f.id,
			"content":         map[string]any{"content": f.text},
			"authorKey":       "author-" + f.id,
			"toolbarStateKey": "toolbar-" + f.id,
		}
		if f.published != "" {
			props["publishedTimeText"] = f.published
		}
		if f.parentKey != "" {
			props["parentCommentKey"] = f.parentKey
		}
		if f.pinned {
			props["pinnedText"] = "Pinned by creator"
		}
		mutations = append(mutations, map[string]any{
			"payload": map[string]any{
				"commentEntityPayload": map[string]any{
					"key":        "comment-" + f.id,
					"properties": props,
				},
			},
		})
		mutations = append(mutations, map[string]any{
			"payload": map[string]any{
				"authorEntityPayload": map[string]any{
					"key":         "author-" + f.id,
					"displayName": "user-" + f.id,
					"channelId":   "chan-" + f.id,
					"isCreator":   f.byOwner,
					"avatar": map[string]any{
						"thumbnails": []any{map[string]any{"url": "https://img/" + f.id}},
					},
				},
			},
		})
		if f.likes != "" {
			mutations = append(mutations, map[string]any{
				"payload": map[string]any{
					"engagementToolbarEntityPayload": map[string]any{
						"key":               "toolbar-" + f.id,
						"likeCountNotliked": f.likes,
						"replyCount":        f.replyCount,
					},
				},
			})
		}
		if f.hearted {
			mutations = append(mutations, map[string]any{
				"payload": map[string]any{
					"engagementToolbarStateEntityPayload": map[string]any{
						"key":        "toolbar-" + f.id,
						"heartState": "TOOLBAR_HEART_STATE_HEARTED",
					},
				},
			})
		}
		if f.paid != "" {
			mutations = append(mutations, map[string]any{
				"payload": map[string]any{
					"commentSurfaceEntityPayload": map[string]any{
						"key": "surface-" + f.id,
						"pdgCommentChip": map[string]any{
							"pdgCommentChipRenderer": map[string]any{"chipText": f.paid},
						},
					},
				},
			})
			mutations = append(mutations, map[string]any{
				"payload": map[string]any{
					"viewModel": map[string]any{
						"commentId":         f.id,
						"commentSurfaceKey": "surface-" + f.id,
					},
				},
			})
		}
		if f.replyToken != "" {
			contents = append(contents, map[string]any{
				"commentThreadRenderer": map[string]any{
					"commentViewModel": map[string]any{
						"commentViewModel": map[string]any{"commentId": f.id},
					},
					"replies": map[string]any{
						"commentRepliesRenderer": map[string]any{
							"contents": []any{continuationItem(f.replyToken)},
						},
					},
				},
			})
		}
	}

	if pageToken != "" {
		contents = append(contents, continuationItem(pageToken))
	}
	return jsontree.Document{
		"frameworkUpdates": map[string]any{
			"entityBatchUpdate": map[string]any{"mutations": mutations},
		},
		"onResponseReceivedEndpoints": contents,
	}
}
