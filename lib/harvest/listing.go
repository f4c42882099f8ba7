package harvest

import (
	"strconv"
	"strings"
	"time"

	"ytharvest/lib/humandate"
	"ytharvest/lib/jsontree"
)

// runsText flattens the upstream's rich-text shape: either a
// {"simpleText": ...} leaf or a {"runs": [{"text": ...}, ...]} list.
func runsText(v any) string {
	if s := jsontree.GetString(v, "simpleText"); s != "" {
		return s
	}
	var sb strings.Builder
	for _, run := range jsontree.GetList(v, "runs") {
		sb.WriteString(jsontree.GetString(run, "text"))
	}
	return sb.String()
}

// parseListingVideo normalizes a videoRenderer or playlistVideoRenderer
// fragment into a bare listing record. A fragment without an identifier
// is unparseable.
func parseListingVideo(renderer map[string]any, now time.Time) (Video, bool) {
	id, ok := renderer["videoId"].(string)
	if !ok || id == "" {
		return Video{}, false
	}

	v := Video{
		ID:                 id,
		URL:                watchURL(id),
		Title:              runsText(renderer["title"]),
		DescriptionSnippet: runsText(renderer["descriptionSnippet"]),
	}

	if text := jsontree.GetString(renderer, "viewCountText.simpleText"); text != "" {
		v.ViewCount = humandate.ParseViewCount(text)
	} else if text := jsontree.GetString(renderer, "videoInfo.runs.0.text"); text != "" {
		// playlist entries carry views in the info line instead
		v.ViewCount = humandate.ParseViewCount(text)
	}

	if text := jsontree.GetString(renderer, "lengthText.simpleText"); text != "" {
		if seconds, err := humandate.ParseDuration(text); err == nil {
			v.DurationSeconds = seconds
		}
	} else if text, ok := renderer["lengthSeconds"].(string); ok {
		if seconds, err := strconv.ParseInt(text, 10, 64); err == nil {
			v.DurationSeconds = seconds
		}
	}

	if text := jsontree.GetString(renderer, "publishedTimeText.simpleText"); text != "" {
		if est, ok := humandate.ParseRelative(text, now); ok {
			v.PublishDate = est.Date
			v.PublishDateEstimated = true
			v.EstimateWindow = est.Granularity.Window()
		}
	}

	return v, true
}

// parseVideoDetail normalizes the watch-page metadata documents fetched
// for enrichment.
func parseVideoDetail(doc jsontree.Document, videoID string) Video {
	v := Video{
		ID:       videoID,
		URL:      watchURL(videoID),
		Enriched: true,
	}

	if details, ok := jsontree.FirstMap(doc, "videoDetails"); ok {
		if id, ok := details["videoId"].(string); ok && id != "" {
			v.ID = id
		}
		v.Title, _ = details["title"].(string)
		v.FullDescription, _ = details["shortDescription"].(string)
		v.ChannelID, _ = details["channelId"].(string)
		v.ChannelName, _ = details["author"].(string)
		if text, ok := details["viewCount"].(string); ok {
			v.ViewCount = humandate.ParseCount(text)
		}
		if text, ok := details["lengthSeconds"].(string); ok {
			if seconds, err := strconv.ParseInt(text, 10, 64); err == nil {
				v.DurationSeconds = seconds
			}
		}
		for _, kw := range jsontree.GetList(details, "keywords") {
			if s, ok := kw.(string); ok {
				v.Keywords = append(v.Keywords, s)
			}
		}
	}

	if micro, ok := jsontree.FirstMap(doc, "playerMicroformatRenderer"); ok {
		v.Category, _ = micro["category"].(string)
		if text, ok := micro["publishDate"].(string); ok {
			if date, err := humandate.ParsePrecise(text); err == nil {
				v.PublishDate = date
				v.PublishDateEstimated = false
				v.EstimateWindow = 0
			}
		}
	}

	// the like counter moves around between page variants; take the
	// first recognizable form
	for _, key := range []string{"likeCountIfIndifferent", "likeCountIfLiked", "likeCount"} {
		if text, ok := jsontree.FirstString(doc, key); ok {
			v.LikeCount = humandate.ParseCount(text)
			break
		}
	}

	return v
}

// parseChannelMetadata reads the channel header metadata out of a
// channel page's initial data document.
func parseChannelMetadata(doc jsontree.Document) (Channel, bool) {
	meta, ok := jsontree.FirstMap(doc, "channelMetadataRenderer")
	if !ok {
		return Channel{}, false
	}

	ch := Channel{}
	ch.ID, _ = meta["externalId"].(string)
	ch.Title, _ = meta["title"].(string)
	ch.Description, _ = meta["description"].(string)
	ch.VanityURL, _ = meta["vanityChannelUrl"].(string)
	thumbnails := jsontree.GetList(meta, "avatar.thumbnails")
	if len(thumbnails) > 0 {
		ch.AvatarURL = jsontree.GetString(thumbnails[len(thumbnails)-1], "url")
	}
	return ch, ch.ID != "" || ch.Title != ""
}
