package harvest

import (
	"ytharvest/lib/jsontree"
)

// replyCursors locates "show more replies" continuations. The cursor is
// not attached to the comment payload itself: it hangs off a separate
// thread-wrapper node that also names the wrapped top-level comment, so
// each wrapper is scanned for both and the association is returned as
// comment id → cursor.
func replyCursors(doc jsontree.Document) map[string]string {
	out := map[string]string{}
	for thread := range jsontree.FindMaps(doc, "commentThreadRenderer") {
		id := jsontree.GetString(thread, "commentViewModel.commentViewModel.commentId")
		if id == "" {
			id, _ = jsontree.FirstString(thread["commentViewModel"], "commentId")
		}
		if id == "" {
			continue
		}

		replies, ok := thread["replies"]
		if !ok {
			continue
		}
		if token, ok := jsontree.FirstString(replies, "token"); ok && token != "" {
			out[id] = token
		}
	}
	return out
}

// pageContinuationToken finds the cursor for the next page of the
// current listing, skipping tokens that belong to reply threads.
func pageContinuationToken(doc jsontree.Document, exclude map[string]string) string {
	excluded := map[string]bool{}
	for _, token := range exclude {
		excluded[token] = true
	}
	for cmd := range jsontree.FindMaps(doc, "continuationCommand") {
		token, _ := cmd["token"].(string)
		if token != "" && !excluded[token] {
			return token
		}
	}
	return ""
}

type replyCursor struct {
	parentID string
	token    string
}

// replyQueue tracks reply-thread cursors awaiting draining. Upstream
// responses occasionally repeat a cursor; the processed set makes a
// re-encountered token a no-op.
type replyQueue struct {
	pending   []replyCursor
	processed map[string]bool
}

func newReplyQueue() *replyQueue {
	return &replyQueue{processed: map[string]bool{}}
}

func (q *replyQueue) push(parentID, token string) {
	if token == "" || q.processed[token] {
		return
	}
	q.pending = append(q.pending, replyCursor{parentID: parentID, token: token})
}

// pop returns the next unprocessed cursor and marks it processed.
func (q *replyQueue) pop() (replyCursor, bool) {
	for len(q.pending) > 0 {
		next := q.pending[0]
		q.pending = q.pending[1:]
		if q.processed[next.token] {
			continue
		}
		q.processed[next.token] = true
		return next, true
	}
	return replyCursor{}, false
}
