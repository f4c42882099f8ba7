package harvest

import (
	"log/slog"
	"time"

	"ytharvest/lib/humandate"
	"ytharvest/lib/jsontree"
)

// Comment data arrives scattered across independently keyed payload
// groups: the comment's own properties, its author, its engagement
// toolbar and the toolbar's state are separate top-level entities
// linked only by key strings. commentPage gathers one page's fragments
// into lookup tables so records can be joined in a single pass.
type commentPage struct {
	payloads      []map[string]any
	authors       map[string]map[string]any
	toolbars      map[string]map[string]any
	toolbarStates map[string]map[string]any
	surfaceKeys   map[string]string
	paid          map[string]string
}

func collectCommentPage(doc jsontree.Document) *commentPage {
	page := &commentPage{
		authors:       map[string]map[string]any{},
		toolbars:      map[string]map[string]any{},
		toolbarStates: map[string]map[string]any{},
		surfaceKeys:   map[string]string{},
		paid:          map[string]string{},
	}

	for payload := range jsontree.FindMaps(doc, "commentEntityPayload") {
		props, ok := payload["properties"].(map[string]any)
		if !ok {
			continue
		}
		page.payloads = append(page.payloads, props)
	}
	for payload := range jsontree.FindMaps(doc, "authorEntityPayload") {
		if key, ok := payload["key"].(string); ok {
			page.authors[key] = payload
		}
	}
	for payload := range jsontree.FindMaps(doc, "engagementToolbarEntityPayload") {
		if key, ok := payload["key"].(string); ok {
			page.toolbars[key] = payload
		}
	}
	for payload := range jsontree.FindMaps(doc, "engagementToolbarStateEntityPayload") {
		if key, ok := payload["key"].(string); ok {
			page.toolbarStates[key] = payload
		}
	}
	for m := range jsontree.FindContaining(doc, "commentSurfaceKey") {
		surfaceKey, _ := m["commentSurfaceKey"].(string)
		commentID, _ := m["commentId"].(string)
		if surfaceKey != "" && commentID != "" {
			page.surfaceKeys[surfaceKey] = commentID
		}
	}
	for payload := range jsontree.FindMaps(doc, "commentSurfaceEntityPayload") {
		key, _ := payload["key"].(string)
		if _, isPaid := payload["pdgCommentChip"]; !isPaid {
			continue
		}
		commentID, ok := page.surfaceKeys[key]
		if !ok {
			continue
		}
		amount, _ := jsontree.FirstString(payload["pdgCommentChip"], "chipText")
		if amount == "" {
			amount = "Paid Comment"
		}
		page.paid[commentID] = amount
	}

	return page
}

// parse joins one comment payload with its author and toolbar
// fragments. An unresolvable author or toolbar key degrades to empty
// fields rather than dropping the comment; a missing identifier is the
// only hard failure.
func (p *commentPage) parse(props map[string]any, now time.Time) (Comment, bool) {
	id, ok := props["commentId"].(string)
	if !ok || id == "" {
		slog.Debug("skipping comment fragment without identifier")
		return Comment{}, false
	}

	c := Comment{
		ID:   id,
		Text: jsontree.GetString(props, "content.content"),
	}

	authorKey, _ := props["authorKey"].(string)
	author := p.authors[authorKey]
	c.Author, _ = author["displayName"].(string)
	c.AuthorChannelID, _ = author["channelId"].(string)
	c.AuthorAvatarURL = authorAvatarURL(author)
	c.IsByOwner, _ = author["isCreator"].(bool)
	for _, badge := range jsontree.GetList(author, "authorBadges") {
		if kind := jsontree.GetString(badge, "type"); kind != "" {
			c.AuthorBadges = append(c.AuthorBadges, kind)
		}
	}

	toolbarKey, _ := props["toolbarStateKey"].(string)
	if toolbar, ok := p.toolbars[toolbarKey]; ok {
		c.LikeCountKnown = true
		c.LikeCount = firstCount(toolbar, "likeCountNotliked", "likeCountLiked", "likeCount")
		c.ReplyCount = firstCount(toolbar, "replyCount")
	}
	if state, ok := p.toolbarStates[toolbarKey]; ok {
		heart, _ := state["heartState"].(string)
		c.IsHearted = heart == "TOOLBAR_HEART_STATE_HEARTED" || heart == "HEARTED"
	}

	if text, ok := props["publishedTimeText"].(string); ok {
		if est, ok := humandate.ParseRelative(text, now); ok {
			c.PublishDate = est.Date
			c.PublishDateEstimated = true
			c.EstimateWindow = est.Granularity.Window()
		}
	}

	_, c.IsPinned = props["pinnedText"]

	// an explicit parent key takes precedence over the ID-separator
	// heuristic
	if parent, ok := props["parentCommentKey"].(string); ok && parent != "" {
		c.ParentID = parent
	} else if parent, ok := props["parentId"].(string); ok && parent != "" {
		c.ParentID = parent
	} else {
		c.ParentID = deriveParentID(id)
	}

	c.PaidAmount = p.paid[id]

	return c, true
}

func authorAvatarURL(author map[string]any) string {
	if url, ok := author["avatarThumbnailUrl"].(string); ok {
		return url
	}
	thumbnails := jsontree.GetList(author, "avatar.thumbnails")
	if len(thumbnails) == 0 {
		return ""
	}
	// the last thumbnail is the highest resolution
	return jsontree.GetString(thumbnails[len(thumbnails)-1], "url")
}

// firstCount returns the first of the named counter fields present in
// fragment, parsed from its abbreviated human form.
func firstCount(fragment map[string]any, names ...string) int64 {
	for _, name := range names {
		switch v := fragment[name].(type) {
		case string:
			if v != "" {
				return humandate.ParseCount(v)
			}
		case float64:
			return int64(v)
		}
	}
	return 0
}
