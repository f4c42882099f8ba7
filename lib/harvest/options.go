package harvest

import (
	"time"

	"ytharvest/lib/filters"
)

// SortOrder selects among the orderings the source offers for a
// comment listing.
type SortOrder string

const (
	// SortTop is the source's engagement-ranked ordering.
	SortTop SortOrder = "top"
	// SortRecent is chronological-descending ordering. It is the only
	// ordering under which a since-date cutoff is sound.
	SortRecent SortOrder = "recent"
)

// ReplyMode controls what happens with reply threads under top-level
// comments.
type ReplyMode int

const (
	// ReplyModeNone ignores reply threads entirely.
	ReplyModeNone ReplyMode = iota
	// ReplyModeTokens attaches each comment's reply continuation
	// cursor to the record without fetching the thread.
	ReplyModeTokens
	// ReplyModeAll queues reply cursors and drains them automatically
	// after the main listing is exhausted, yielding reply comments.
	ReplyModeAll
)

// Progress is invoked once per accepted record with the cumulative
// accepted count. It is purely observational.
type Progress func(accepted int)

type CommentOptions struct {
	SortOrder SortOrder
	// Limit caps the number of records yielded; zero or negative means
	// unlimited.
	Limit int
	// SinceDate stops the harvest at the first comment older than the
	// cutoff. Only valid with SortRecent.
	SinceDate time.Time
	Filters   filters.Spec
	ReplyMode ReplyMode
	Progress  Progress
}

type ListingOptions struct {
	Limit   int
	Filters filters.Spec
	// Enrich fetches full metadata for every record that passes the
	// fast filters. A slow filter in Filters upgrades the call to
	// enrichment regardless.
	Enrich   bool
	Progress Progress
}
