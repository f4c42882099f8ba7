package harvest

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestCollectCommentPageJoinsFragments(t *testing.T) {
	doc := commentBatch("",
		commentFixture{
			id:         "c1",
			text:       "great video",
			published:  "2 days ago",
			likes:      "1.2K",
			replyCount: 3,
			pinned:     true,
			hearted:    true,
			byOwner:    true,
			paid:       "$5.00",
		},
	)

	page := collectCommentPage(doc)
	require.Len(t, page.payloads, 1)

	got, ok := page.parse(page.payloads[0], testNow)
	require.True(t, ok)

	want := Comment{
		ID:                   "c1",
		Text:                 "great video",
		Author:               "user-c1",
		AuthorChannelID:      "chan-c1",
		AuthorAvatarURL:      "https://img/c1",
		LikeCount:            1200,
		LikeCountKnown:       true,
		ReplyCount:           3,
		PublishDate:          testNow.AddDate(0, 0, -2),
		PublishDateEstimated: true,
		EstimateWindow:       24 * time.Hour,
		IsPinned:             true,
		IsByOwner:            true,
		IsHearted:            true,
		PaidAmount:           "$5.00",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("comment mismatch (-want +got):\n%s", diff)
	}
}

func TestParseCommentWithoutIdentifier(t *testing.T) {
	page := collectCommentPage(commentBatch(""))
	_, ok := page.parse(map[string]any{"content": map[string]any{"content": "orphan"}}, testNow)
	require.False(t, ok)
}

func TestParseCommentUnresolvedJoinsDegrade(t *testing.T) {
	// fragments referenced by key but absent from the page must not
	// drop the comment
	page := collectCommentPage(commentBatch(""))
	got, ok := page.parse(map[string]any{
		"commentId":       "c9",
		"content":         map[string]any{"content": "lonely"},
		"authorKey":       "author-missing",
		"toolbarStateKey": "toolbar-missing",
	}, testNow)
	require.True(t, ok)
	require.Equal(t, "c9", got.ID)
	require.Empty(t, got.Author)
	require.False(t, got.LikeCountKnown)
	require.Zero(t, got.LikeCount)
}

func TestParseCommentParentPrecedence(t *testing.T) {
	page := collectCommentPage(commentBatch(""))

	// an explicit parent key wins over the separator heuristic
	got, ok := page.parse(map[string]any{
		"commentId":        "base.child",
		"content":          map[string]any{"content": ""},
		"parentCommentKey": "explicit-parent",
	}, testNow)
	require.True(t, ok)
	require.Equal(t, "explicit-parent", got.ParentID)

	got, ok = page.parse(map[string]any{
		"commentId": "base.child",
		"content":   map[string]any{"content": ""},
	}, testNow)
	require.True(t, ok)
	require.Equal(t, "base", got.ParentID)
	require.True(t, got.IsReply())

	got, ok = page.parse(map[string]any{
		"commentId": "toplevel",
		"content":   map[string]any{"content": ""},
	}, testNow)
	require.True(t, ok)
	require.Empty(t, got.ParentID)
	require.False(t, got.IsReply())
}

func TestCommentFilterFieldsOmitUnknowns(t *testing.T) {
	c := Comment{ID: "c1", Text: "hello"}
	fields := c.FilterFields()
	_, hasLikes := fields["like_count"]
	require.False(t, hasLikes)
	_, hasDate := fields["publish_date"]
	require.False(t, hasDate)

	c.LikeCountKnown = true
	fields = c.FilterFields()
	require.Equal(t, int64(0), fields["like_count"])
}

func TestFirstCount(t *testing.T) {
	fragment := map[string]any{
		"likeCountLiked": "1.5K",
		"replyCount":     float64(7),
	}
	require.Equal(t, int64(1500), firstCount(fragment, "likeCountNotliked", "likeCountLiked"))
	require.Equal(t, int64(7), firstCount(fragment, "replyCount"))
	require.Equal(t, int64(0), firstCount(fragment, "absent"))
}
