package harvest

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseListingVideo(t *testing.T) {
	renderer := map[string]any{
		"videoId": "vid01",
		"title":   map[string]any{"runs": []any{map[string]any{"text": "A "}, map[string]any{"text": "Title"}}},
		"viewCountText":      map[string]any{"simpleText": "1.2M views"},
		"lengthText":         map[string]any{"simpleText": "12:34"},
		"publishedTimeText":  map[string]any{"simpleText": "Streamed 2 weeks ago"},
		"descriptionSnippet": map[string]any{"runs": []any{map[string]any{"text": "snippet"}}},
	}

	v, ok := parseListingVideo(renderer, testNow)
	require.True(t, ok)
	require.Equal(t, "vid01", v.ID)
	require.Equal(t, watchURL("vid01"), v.URL)
	require.Equal(t, "A Title", v.Title)
	require.Equal(t, int64(1_200_000), v.ViewCount)
	require.Equal(t, int64(754), v.DurationSeconds)
	require.Equal(t, "snippet", v.DescriptionSnippet)
	require.True(t, v.PublishDateEstimated)
	require.Equal(t, testNow.AddDate(0, 0, -14), v.PublishDate)
	require.False(t, v.Enriched)
}

func TestParseListingVideoPlaylistShape(t *testing.T) {
	renderer := map[string]any{
		"videoId":       "vid02",
		"title":         map[string]any{"runs": []any{map[string]any{"text": "Playlist entry"}}},
		"lengthSeconds": "95",
		"videoInfo":     map[string]any{"runs": []any{map[string]any{"text": "4,321 views"}}},
	}

	v, ok := parseListingVideo(renderer, testNow)
	require.True(t, ok)
	require.Equal(t, int64(4321), v.ViewCount)
	require.Equal(t, int64(95), v.DurationSeconds)
	require.True(t, v.PublishDate.IsZero())
}

func TestParseListingVideoWithoutIdentifier(t *testing.T) {
	_, ok := parseListingVideo(map[string]any{"title": map[string]any{"simpleText": "x"}}, testNow)
	require.False(t, ok)
}

func TestParseVideoDetailPrecedence(t *testing.T) {
	doc := detailPage("vid01", "Title", "desc", "Education", "2024-02-03T10:30:00-08:00", "999", "12K", "k1")

	v := parseVideoDetail(doc, "vid01")
	require.True(t, v.Enriched)
	require.Equal(t, "Education", v.Category)
	require.Equal(t, int64(12000), v.LikeCount)
	require.False(t, v.PublishDateEstimated)
	// precise timestamps keep their offset
	require.Equal(t, "2024-02-03T10:30:00-08:00", v.PublishDate.Format("2006-01-02T15:04:05-07:00"))
}

func TestVideoFilterFieldsGateEnrichedValues(t *testing.T) {
	bare := Video{ID: "vid01", Title: "t", ViewCount: 10}
	fields := bare.FilterFields()
	_, hasCategory := fields["category"]
	require.False(t, hasCategory)
	_, hasDate := fields["publish_date"]
	require.False(t, hasDate)

	enriched := bare
	enriched.Enriched = true
	enriched.Category = "Music"
	fields = enriched.FilterFields()
	require.Equal(t, "Music", fields["category"])
}

func TestRunsText(t *testing.T) {
	require.Equal(t, "plain", runsText(map[string]any{"simpleText": "plain"}))
	require.Equal(t, "ab", runsText(map[string]any{
		"runs": []any{map[string]any{"text": "a"}, map[string]any{"text": "b"}},
	}))
	require.Equal(t, "", runsText(nil))
}
