// Package harvest walks paginated, continuation-driven listings of an
// upstream document source and normalizes their scattered fragments
// into canonical video and comment records.
package harvest

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"log/slog"
	"time"

	"ytharvest/lib/filters"
	"ytharvest/lib/jsontree"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

type Engine struct {
	src Source
	now func() time.Time
}

type Option func(*Engine)

// WithClock overrides the clock used to resolve relative dates.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

func New(src Source, opts ...Option) *Engine {
	e := &Engine{src: src, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// harvestState is the mutable state of one harvesting call. It is
// owned exclusively by that call; concurrent calls never share it.
type harvestState struct {
	seen     map[string]bool
	accepted int
	limit    int
	progress Progress
}

func newHarvestState(limit int, progress Progress) *harvestState {
	return &harvestState{seen: map[string]bool{}, limit: limit, progress: progress}
}

// duplicate records id in the seen set and reports whether it was
// already there. Overlapping pages can surface the same record twice;
// it is yielded exactly once.
func (s *harvestState) duplicate(id string) bool {
	if s.seen[id] {
		return true
	}
	s.seen[id] = true
	return false
}

func (s *harvestState) accept() {
	s.accepted++
	if s.progress != nil {
		s.progress(s.accepted)
	}
}

func (s *harvestState) limitReached() bool {
	return s.limit > 0 && s.accepted >= s.limit
}

// ChannelVideos lazily yields the listing records of a channel's
// "Videos" tab. The sequence is restartable per call, not mid
// iteration; breaking out of the range loop discards the walk state
// and issues no further requests.
func (e *Engine) ChannelVideos(ctx context.Context, seed string, opts ListingOptions) iter.Seq2[Video, error] {
	return e.listing(ctx, channelVideosURL(seed), fmt.Sprintf("channel %q", seed), opts)
}

// PlaylistVideos lazily yields the listing records of a playlist.
// Playlists are not guaranteed chronological, so no date cutoff is
// offered here.
func (e *Engine) PlaylistVideos(ctx context.Context, seed string, opts ListingOptions) iter.Seq2[Video, error] {
	return e.listing(ctx, playlistURL(seed), fmt.Sprintf("playlist %q", seed), opts)
}

func (e *Engine) listing(ctx context.Context, pageURL, seedDesc string, opts ListingOptions) iter.Seq2[Video, error] {
	return func(yield func(Video, error) bool) {
		ctx, span := tracer.Start(ctx, "engine:listing")
		defer span.End()
		span.SetAttributes(attribute.String("page_url", pageURL))

		fast, _, err := filters.Partition(opts.Filters, filters.VideoFields)
		if err != nil {
			span.SetStatus(codes.Error, "invalid filter spec")
			yield(Video{}, fmt.Errorf("%w: %s: %w", ErrInvalidFilterUsage, seedDesc, err))
			return
		}
		hasSlow := filters.HasSlow(opts.Filters, filters.VideoFields)
		mustEnrich := opts.Enrich || hasSlow
		if hasSlow && !opts.Enrich {
			slog.WarnContext(ctx, "slow filters force a full metadata fetch per candidate",
				"seed", seedDesc)
		}

		doc, session, err := e.src.FetchInitialPage(ctx, pageURL)
		if err != nil {
			span.SetStatus(codes.Error, "initial page fetch failed")
			yield(Video{}, fmt.Errorf("%w: %s: %w", ErrSourceUnavailable, seedDesc, err))
			return
		}

		state := newHarvestState(opts.Limit, opts.Progress)
		for {
			if ctx.Err() != nil {
				return
			}

			renderers := listingRenderers(doc)
			if len(renderers) == 0 {
				// natural end of the listing
				return
			}
			token := pageContinuationToken(doc, nil)

			for _, renderer := range renderers {
				video, ok := parseListingVideo(renderer, e.now())
				if !ok {
					slog.DebugContext(ctx, "skipping listing fragment without identifier")
					continue
				}
				if state.duplicate(video.ID) {
					continue
				}

				outcome := filters.Evaluate(video.FilterFields(), fast)
				if !outcome.Pass {
					continue
				}

				// an ambiguous date estimate upgrades this record to
				// enrichment so the precise date can settle it
				if mustEnrich || outcome.Ambiguous {
					full, err := e.VideoMetadata(ctx, video.ID)
					if err != nil {
						slog.WarnContext(ctx, "full metadata fetch failed",
							"video_id", video.ID, "err", err)
						if hasSlow || outcome.Ambiguous {
							// can't filter on unknown values
							continue
						}
					} else {
						video = video.merge(full)
					}
				}
				if !filters.Evaluate(video.FilterFields(), opts.Filters).Pass {
					continue
				}

				state.accept()
				if !yield(video, nil) {
					return
				}
				if state.limitReached() {
					return
				}
			}

			if token == "" {
				return
			}
			doc, err = e.src.FetchContinuation(ctx, token, session, endpointBrowse)
			if err != nil {
				// partial results beat total failure on a multi-page
				// harvest: treat the listing as exhausted
				slog.WarnContext(ctx, "continuation fetch failed, stopping",
					"seed", seedDesc, "err", err)
				return
			}
		}
	}
}

// listingRenderers finds the per-item fragments of a listing page,
// whatever surface it came from.
func listingRenderers(doc jsontree.Document) []map[string]any {
	var out []map[string]any
	for _, key := range []string{"videoRenderer", "playlistVideoRenderer"} {
		for m := range jsontree.FindMaps(doc, key) {
			out = append(out, m)
		}
	}
	return out
}

// Comments lazily yields the comments of a video in the requested
// order. Validation failures surface before any page is requested.
func (e *Engine) Comments(ctx context.Context, seed string, opts CommentOptions) iter.Seq2[Comment, error] {
	return func(yield func(Comment, error) bool) {
		ctx, span := tracer.Start(ctx, "engine:Comments")
		defer span.End()

		videoID := ExtractVideoID(seed)
		span.SetAttributes(
			attribute.String("video_id", videoID),
			attribute.String("sort_order", string(opts.SortOrder)),
		)

		order := opts.SortOrder
		if order == "" {
			order = SortTop
		}
		if order != SortTop && order != SortRecent {
			yield(Comment{}, fmt.Errorf("%w: %q (video %q)", ErrUnsupportedOrdering, order, videoID))
			return
		}
		// a date cutoff is only sound when arrival order matches
		// chronological order
		if !opts.SinceDate.IsZero() && order != SortRecent {
			yield(Comment{}, fmt.Errorf(
				"%w: since-date requires %q ordering, got %q (video %q)",
				ErrInvalidFilterUsage, SortRecent, order, videoID))
			return
		}
		fast, _, err := filters.Partition(opts.Filters, filters.CommentFields)
		if err != nil {
			yield(Comment{}, fmt.Errorf("%w: video %q: %w", ErrInvalidFilterUsage, videoID, err))
			return
		}
		hasSlow := filters.HasSlow(opts.Filters, filters.CommentFields)

		doc, session, err := e.src.FetchInitialPage(ctx, watchURL(videoID))
		if err != nil {
			span.SetStatus(codes.Error, "seed page fetch failed")
			yield(Comment{}, fmt.Errorf("%w: video %q: %w", ErrSourceUnavailable, videoID, err))
			return
		}

		token, err := commentSortToken(doc, order)
		if err != nil {
			yield(Comment{}, fmt.Errorf("%w (video %q)", err, videoID))
			return
		}
		if token == "" {
			slog.DebugContext(ctx, "video offers no comment listing", "video_id", videoID)
			return
		}

		state := newHarvestState(opts.Limit, opts.Progress)
		queue := newReplyQueue()

		firstPage := true
		for token != "" {
			if ctx.Err() != nil {
				return
			}

			pageDoc, err := e.src.FetchContinuation(ctx, token, session, endpointNext)
			if err != nil {
				if firstPage {
					span.SetStatus(codes.Error, "first comment page fetch failed")
					yield(Comment{}, fmt.Errorf("%w: video %q: %w", ErrSourceUnavailable, videoID, err))
					return
				}
				slog.WarnContext(ctx, "continuation fetch failed, stopping",
					"video_id", videoID, "err", err)
				break
			}
			firstPage = false

			page := collectCommentPage(pageDoc)
			if len(page.payloads) == 0 {
				break
			}
			cursors := replyCursors(pageDoc)

			for _, props := range page.payloads {
				c, ok := page.parse(props, e.now())
				if !ok {
					continue
				}
				if state.duplicate(c.ID) {
					continue
				}

				if cursor := cursors[c.ID]; cursor != "" {
					switch opts.ReplyMode {
					case ReplyModeTokens:
						c.ReplyContinuation = cursor
					case ReplyModeAll:
						queue.push(c.ID, cursor)
					}
				}

				if !opts.SinceDate.IsZero() && !c.PublishDate.IsZero() &&
					c.PublishDate.Before(opts.SinceDate) {
					// recent ordering is chronological-descending:
					// everything from here on is older than the cutoff
					return
				}

				if !e.filterComment(ctx, &c, fast, opts.Filters, hasSlow, cursors[c.ID], session) {
					continue
				}

				state.accept()
				if !yield(c, nil) {
					return
				}
				if state.limitReached() {
					return
				}
			}

			token = pageContinuationToken(pageDoc, cursors)
		}

		if opts.ReplyMode == ReplyModeAll {
			e.drainReplies(ctx, session, queue, state, fast, opts.Filters, hasSlow, yield)
		}
	}
}

// Replies lazily yields the replies of one thread given its
// continuation cursor. The thread's parent comment, which its pages
// repeat and the caller already holds, is not yielded again.
func (e *Engine) Replies(ctx context.Context, seed, replyCursor string, limit int) iter.Seq2[Comment, error] {
	return func(yield func(Comment, error) bool) {
		ctx, span := tracer.Start(ctx, "engine:Replies")
		defer span.End()

		videoID := ExtractVideoID(seed)
		_, session, err := e.src.FetchInitialPage(ctx, watchURL(videoID))
		if err != nil {
			span.SetStatus(codes.Error, "seed page fetch failed")
			yield(Comment{}, fmt.Errorf("%w: video %q: %w", ErrSourceUnavailable, videoID, err))
			return
		}

		queue := newReplyQueue()
		queue.push("", replyCursor)
		e.drainReplies(ctx, session, queue, newHarvestState(limit, nil), nil, nil, false, yield)
	}
}

// drainReplies walks queued reply-thread cursors until the queue and
// every nested continuation under it are exhausted. Cursor fetch
// failures skip the thread rather than aborting the harvest.
func (e *Engine) drainReplies(
	ctx context.Context,
	session json.RawMessage,
	queue *replyQueue,
	state *harvestState,
	fast, full filters.Spec,
	hasSlow bool,
	yield func(Comment, error) bool,
) {
	for !state.limitReached() {
		rc, ok := queue.pop()
		if !ok {
			return
		}
		if ctx.Err() != nil {
			return
		}

		doc, err := e.src.FetchContinuation(ctx, rc.token, session, endpointNext)
		if err != nil {
			slog.WarnContext(ctx, "reply thread fetch failed",
				"parent_id", rc.parentID, "err", err)
			continue
		}

		page := collectCommentPage(doc)
		for _, props := range page.payloads {
			c, ok := page.parse(props, e.now())
			if !ok {
				continue
			}
			// thread pages repeat the parent comment entity
			if c.ID == rc.parentID {
				continue
			}
			if c.ParentID == "" {
				if rc.parentID == "" {
					// a drain seeded from a bare cursor carries no
					// parent ID to match against, but the repeated
					// top-level entity is the thread's own parent
					continue
				}
				c.ParentID = rc.parentID
			}
			if state.duplicate(c.ID) {
				continue
			}
			if !e.filterComment(ctx, &c, fast, full, hasSlow, "", session) {
				continue
			}

			state.accept()
			if !yield(c, nil) {
				return
			}
			if state.limitReached() {
				return
			}
		}

		// reply threads paginate too; keep walking under the same parent
		queue.push(rc.parentID, pageContinuationToken(doc, nil))
	}
}

// filterComment runs the two filter stages on one comment, fetching
// its thread page for the slow stage when the engagement fragment did
// not resolve on the listing page.
func (e *Engine) filterComment(
	ctx context.Context,
	c *Comment,
	fast, full filters.Spec,
	hasSlow bool,
	replyToken string,
	session json.RawMessage,
) bool {
	outcome := filters.Evaluate(c.FilterFields(), fast)
	if !outcome.Pass {
		return false
	}
	if hasSlow || outcome.Ambiguous {
		e.enrichComment(ctx, c, replyToken, session)
	}
	return filters.Evaluate(c.FilterFields(), full).Pass
}

// enrichComment re-fetches a comment through its thread page, the only
// surface that reliably repeats the comment entity with its engagement
// fragment attached.
func (e *Engine) enrichComment(ctx context.Context, c *Comment, token string, session json.RawMessage) {
	if token == "" || c.LikeCountKnown {
		return
	}

	doc, err := e.src.FetchContinuation(ctx, token, session, endpointNext)
	if err != nil {
		slog.WarnContext(ctx, "comment enrichment fetch failed",
			"comment_id", c.ID, "err", err)
		return
	}

	page := collectCommentPage(doc)
	for _, props := range page.payloads {
		if id, _ := props["commentId"].(string); id != c.ID {
			continue
		}
		full, ok := page.parse(props, e.now())
		if ok && full.LikeCountKnown {
			c.LikeCount = full.LikeCount
			c.LikeCountKnown = true
			if full.ReplyCount > 0 {
				c.ReplyCount = full.ReplyCount
			}
			c.IsHearted = c.IsHearted || full.IsHearted
		}
		return
	}
}

// commentSortToken reads the comment section's sort menu and returns
// the continuation cursor of the requested ordering. An empty token
// with a nil error means the video has no comment section.
func commentSortToken(doc jsontree.Document, order SortOrder) (string, error) {
	menu, ok := jsontree.FirstMap(doc, "sortFilterSubMenuRenderer")
	if !ok {
		return "", nil
	}

	items := jsontree.GetList(menu, "subMenuItems")
	// the source offers orderings positionally: engagement-ranked
	// first, chronological second
	idx := 0
	if order == SortRecent {
		idx = 1
	}
	if idx >= len(items) {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedOrdering, order)
	}
	token := jsontree.GetString(items[idx], "serviceEndpoint.continuationCommand.token")
	if token == "" {
		token, _ = jsontree.FirstString(items[idx], "token")
	}
	if token == "" {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedOrdering, order)
	}
	return token, nil
}
