package harvest

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"ytharvest/lib/humandate"
	"ytharvest/lib/jsontree"
)

// VideoMetadata fetches the full metadata record of a single video.
// The seed may be a video id or a watch URL.
func (e *Engine) VideoMetadata(ctx context.Context, seed string) (Video, error) {
	ctx, span := tracer.Start(ctx, "engine:VideoMetadata")
	defer span.End()

	videoID := ExtractVideoID(seed)
	span.SetAttributes(attribute.String("video_id", videoID))

	doc, err := e.src.FetchVideoDetail(ctx, watchURL(videoID))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "video detail fetch failed")
		return Video{}, fmt.Errorf("%w: video %q: %w", ErrSourceUnavailable, videoID, err)
	}
	return parseVideoDetail(doc, videoID), nil
}

// ChannelMetadata fetches the header metadata of a channel. The seed
// may be a channel id, an @handle, or a channel URL.
func (e *Engine) ChannelMetadata(ctx context.Context, seed string) (Channel, error) {
	ctx, span := tracer.Start(ctx, "engine:ChannelMetadata")
	defer span.End()
	span.SetAttributes(attribute.String("seed", seed))

	doc, _, err := e.src.FetchInitialPage(ctx, channelVideosURL(seed))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "channel page fetch failed")
		return Channel{}, fmt.Errorf("%w: channel %q: %w", ErrSourceUnavailable, seed, err)
	}
	ch, ok := parseChannelMetadata(doc)
	if !ok {
		return Channel{}, fmt.Errorf("channel %q: page carries no channel metadata", seed)
	}
	return ch, nil
}

// PlaylistMetadata reads the id and title of a playlist's landing page.
func (e *Engine) PlaylistMetadata(ctx context.Context, seed string) (Playlist, error) {
	ctx, span := tracer.Start(ctx, "engine:PlaylistMetadata")
	defer span.End()

	doc, _, err := e.src.FetchInitialPage(ctx, playlistURL(seed))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "playlist page fetch failed")
		return Playlist{}, fmt.Errorf("%w: playlist %q: %w", ErrSourceUnavailable, seed, err)
	}

	pl := Playlist{}
	if micro, ok := jsontree.FirstMap(doc, "microformatDataRenderer"); ok {
		pl.Title, _ = micro["title"].(string)
		pl.Description, _ = micro["description"].(string)
	}
	if header, ok := jsontree.FirstMap(doc, "playlistHeaderRenderer"); ok {
		pl.ID, _ = header["playlistId"].(string)
		if pl.Title == "" {
			pl.Title = runsText(header["title"])
		}
		if text := jsontree.GetString(header, "numVideosText.runs.0.text"); text != "" {
			pl.VideoCount = humandate.ParseCount(text)
		}
	}
	if pl.ID == "" && pl.Title == "" {
		return Playlist{}, fmt.Errorf("playlist %q: page carries no playlist metadata", seed)
	}
	return pl, nil
}
