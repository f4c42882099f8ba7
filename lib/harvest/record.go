package harvest

import (
	"strings"
	"time"

	"ytharvest/lib/filters"
)

// ReplySeparator joins a parent comment identifier to a child's suffix
// in hierarchical comment IDs. This is an observed upstream convention,
// not a documented contract; an explicit parent key in a fragment
// always takes precedence over it.
const ReplySeparator = "."

// Video is the canonical listing record. The fields after Enriched are
// only populated by an enrichment fetch of the watch page.
type Video struct {
	ID                 string `json:"id"`
	URL                string `json:"url"`
	Title              string `json:"title"`
	ViewCount          int64  `json:"view_count"`
	DurationSeconds    int64  `json:"duration_seconds"`
	DescriptionSnippet string `json:"description_snippet,omitempty"`

	// PublishDate is estimated from relative text ("2 weeks ago") on
	// bare listing records; EstimateWindow is the granularity of that
	// estimate. Enrichment replaces it with the precise date.
	PublishDate          time.Time     `json:"publish_date,omitzero"`
	PublishDateEstimated bool          `json:"publish_date_estimated,omitempty"`
	EstimateWindow       time.Duration `json:"-"`

	Enriched        bool     `json:"enriched,omitempty"`
	LikeCount       int64    `json:"like_count,omitempty"`
	Category        string   `json:"category,omitempty"`
	Keywords        []string `json:"keywords,omitempty"`
	FullDescription string   `json:"full_description,omitempty"`
	ChannelID       string   `json:"channel_id,omitempty"`
	ChannelName     string   `json:"channel_name,omitempty"`
}

// FilterFields exposes the video to the filter evaluator. Fields whose
// true value is unknown on a bare record are omitted so that filtering
// on them fails until enrichment supplies them.
func (v Video) FilterFields() map[string]any {
	fields := map[string]any{
		"view_count":          v.ViewCount,
		"duration_seconds":    v.DurationSeconds,
		"title":               v.Title,
		"description_snippet": v.DescriptionSnippet,
	}
	if !v.PublishDate.IsZero() {
		fields["publish_date"] = filters.DateValue{
			Time:      v.PublishDate,
			Estimated: v.PublishDateEstimated,
			Slack:     v.EstimateWindow,
		}
	}
	if v.Enriched {
		fields["like_count"] = v.LikeCount
		fields["category"] = v.Category
		fields["keywords"] = v.Keywords
		fields["full_description"] = v.FullDescription
	}
	return fields
}

// merge overlays enriched metadata onto a bare listing record, keeping
// listing fields the watch page does not repeat.
func (v Video) merge(full Video) Video {
	out := full
	out.URL = v.URL
	if out.DurationSeconds == 0 {
		out.DurationSeconds = v.DurationSeconds
	}
	out.DescriptionSnippet = v.DescriptionSnippet
	if out.Title == "" {
		out.Title = v.Title
	}
	return out
}

// Comment is the canonical comment record.
type Comment struct {
	ID              string   `json:"id"`
	Text            string   `json:"text"`
	Author          string   `json:"author"`
	AuthorChannelID string   `json:"author_channel_id,omitempty"`
	AuthorAvatarURL string   `json:"author_avatar_url,omitempty"`
	AuthorBadges    []string `json:"author_badges,omitempty"`

	LikeCount int64 `json:"like_count"`
	// LikeCountKnown reports whether an engagement fragment actually
	// resolved for this comment; a zero LikeCount with it unset means
	// "unknown", not "zero likes".
	LikeCountKnown bool  `json:"like_count_known"`
	ReplyCount     int64 `json:"reply_count"`

	PublishDate          time.Time     `json:"publish_date,omitzero"`
	PublishDateEstimated bool          `json:"publish_date_estimated,omitempty"`
	EstimateWindow       time.Duration `json:"-"`

	IsPinned   bool   `json:"is_pinned,omitempty"`
	IsByOwner  bool   `json:"is_by_owner,omitempty"`
	IsHearted  bool   `json:"is_hearted,omitempty"`
	PaidAmount string `json:"paid_amount,omitempty"`

	// ParentID is empty for top-level comments.
	ParentID string `json:"parent_id,omitempty"`
	// ReplyContinuation is the cursor for this comment's reply thread,
	// populated when reply collection was requested.
	ReplyContinuation string `json:"reply_continuation,omitempty"`
}

// IsReply reports whether this comment is a reply to another comment.
// It holds exactly when ParentID is set.
func (c Comment) IsReply() bool {
	return c.ParentID != ""
}

func (c Comment) FilterFields() map[string]any {
	fields := map[string]any{
		"text":                c.Text,
		"author":              c.Author,
		"channel_id":          c.AuthorChannelID,
		"reply_count":         c.ReplyCount,
		"is_reply":            c.IsReply(),
		"is_pinned":           c.IsPinned,
		"is_by_owner":         c.IsByOwner,
		"is_hearted_by_owner": c.IsHearted,
	}
	if c.LikeCountKnown {
		fields["like_count"] = c.LikeCount
	}
	if !c.PublishDate.IsZero() {
		fields["publish_date"] = filters.DateValue{
			Time:      c.PublishDate,
			Estimated: c.PublishDateEstimated,
			Slack:     c.EstimateWindow,
		}
	}
	return fields
}

// Playlist is the metadata record of a playlist landing page.
type Playlist struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	VideoCount  int64  `json:"video_count,omitempty"`
}

// Channel is the metadata record of a channel page.
type Channel struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	VanityURL   string `json:"vanity_url,omitempty"`
	AvatarURL   string `json:"avatar_url,omitempty"`
}

// deriveParentID applies the separator convention: a comment identifier
// containing the separator is a reply, and everything before the first
// separator is the parent identifier.
func deriveParentID(id string) string {
	if idx := strings.Index(id, ReplySeparator); idx > 0 {
		return id[:idx]
	}
	return ""
}
