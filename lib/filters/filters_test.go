package filters

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPartition(t *testing.T) {
	spec := Spec{
		"view_count": {OpGte: 1000},
		"title":      {OpContains: "golang"},
		"like_count": {OpGt: 100},
		"keywords":   {OpContainsAny: []string{"tutorial"}},
	}

	fast, slow, err := Partition(spec, VideoFields)
	require.NoError(t, err)

	require.Len(t, fast, 2)
	require.Len(t, slow, 2)
	require.Contains(t, fast, "view_count")
	require.Contains(t, fast, "title")
	require.Contains(t, slow, "like_count")
	require.Contains(t, slow, "keywords")

	// fast and slow are disjoint and together cover the spec
	for name := range fast {
		require.NotContains(t, slow, name)
	}
	require.Equal(t, len(spec), len(fast)+len(slow))
}

func TestPartitionRejectsUnknownField(t *testing.T) {
	_, _, err := Partition(Spec{"no_such_field": {OpEq: 1}}, VideoFields)
	require.Error(t, err)
}

func TestPartitionRejectsBadOperator(t *testing.T) {
	_, _, err := Partition(Spec{"title": {OpGt: 5}}, VideoFields)
	require.Error(t, err)

	_, _, err = Partition(Spec{"is_reply": {OpContains: "x"}}, CommentFields)
	require.Error(t, err)
}

func TestPartitionRejectsBadRegex(t *testing.T) {
	_, _, err := Partition(Spec{"title": {OpRegex: "("}}, VideoFields)
	require.Error(t, err)
}

func TestEvaluateNumeric(t *testing.T) {
	fields := map[string]any{"view_count": int64(1500)}

	require.True(t, Evaluate(fields, Spec{"view_count": {OpGt: 1000}}).Pass)
	require.True(t, Evaluate(fields, Spec{"view_count": {OpGte: 1500}}).Pass)
	require.False(t, Evaluate(fields, Spec{"view_count": {OpLt: 1500}}).Pass)
	require.True(t, Evaluate(fields, Spec{"view_count": {OpEq: 1500}}).Pass)
	require.False(t, Evaluate(fields, Spec{"view_count": {OpGt: 1000, OpLte: 1200}}).Pass)
}

func TestEvaluateText(t *testing.T) {
	fields := map[string]any{"title": "Advanced Go Concurrency Patterns"}

	require.True(t, Evaluate(fields, Spec{"title": {OpContains: "go concurrency"}}).Pass)
	require.True(t, Evaluate(fields, Spec{"title": {OpRegex: `go\s+concurrency`}}).Pass)
	require.False(t, Evaluate(fields, Spec{"title": {OpEq: "other"}}).Pass)
	require.True(t, Evaluate(fields, Spec{"title": {OpEq: "advanced go concurrency patterns"}}).Pass)
}

func TestEvaluateList(t *testing.T) {
	fields := map[string]any{"keywords": []string{"Go", "concurrency", "tutorial"}}

	require.True(t, Evaluate(fields, Spec{"keywords": {OpContainsAny: []string{"rust", "go"}}}).Pass)
	require.True(t, Evaluate(fields, Spec{"keywords": {OpContainsAll: []string{"go", "tutorial"}}}).Pass)
	require.False(t, Evaluate(fields, Spec{"keywords": {OpContainsAll: []string{"go", "python"}}}).Pass)
	require.False(t, Evaluate(fields, Spec{"keywords": {OpContainsAny: []string{"python"}}}).Pass)
}

func TestEvaluateBool(t *testing.T) {
	fields := map[string]any{"is_reply": true}
	require.True(t, Evaluate(fields, Spec{"is_reply": {OpEq: true}}).Pass)
	require.False(t, Evaluate(fields, Spec{"is_reply": {OpEq: false}}).Pass)
}

func TestEvaluateMissingFieldFails(t *testing.T) {
	out := Evaluate(map[string]any{}, Spec{"view_count": {OpGt: 0}})
	require.False(t, out.Pass)
}

func TestEvaluatePreciseDate(t *testing.T) {
	published := time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC)
	fields := map[string]any{"publish_date": DateValue{Time: published}}

	cutoff := time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC)
	out := Evaluate(fields, Spec{"publish_date": {OpGte: cutoff}})
	require.True(t, out.Pass)
	require.False(t, out.Ambiguous)

	out = Evaluate(fields, Spec{"publish_date": {OpLt: cutoff}})
	require.False(t, out.Pass)
}

func TestEvaluateEstimatedDateIsPermissive(t *testing.T) {
	now := time.Date(2024, time.June, 15, 0, 0, 0, 0, time.UTC)

	// estimated "2 weeks ago" against a 10-day cutoff: a strict
	// comparison fails, but the week-granularity window lets it through
	// flagged as ambiguous.
	estimated := DateValue{
		Time:      now.AddDate(0, 0, -14),
		Estimated: true,
		Slack:     7 * 24 * time.Hour,
	}
	cutoff := now.AddDate(0, 0, -10)

	out := Evaluate(map[string]any{"publish_date": estimated}, Spec{"publish_date": {OpGte: cutoff}})
	require.True(t, out.Pass)
	require.True(t, out.Ambiguous)

	// well outside the window it fails outright
	old := DateValue{
		Time:      now.AddDate(0, 0, -60),
		Estimated: true,
		Slack:     7 * 24 * time.Hour,
	}
	out = Evaluate(map[string]any{"publish_date": old}, Spec{"publish_date": {OpGte: cutoff}})
	require.False(t, out.Pass)

	// comfortably inside the cutoff there is nothing ambiguous
	recent := DateValue{
		Time:      now.AddDate(0, 0, -1),
		Estimated: true,
		Slack:     24 * time.Hour,
	}
	out = Evaluate(map[string]any{"publish_date": recent}, Spec{"publish_date": {OpGte: cutoff}})
	require.True(t, out.Pass)
	require.False(t, out.Ambiguous)
}

func TestHasSlow(t *testing.T) {
	require.True(t, HasSlow(Spec{"like_count": {OpGt: 1}}, VideoFields))
	require.False(t, HasSlow(Spec{"title": {OpContains: "a"}}, VideoFields))
	require.True(t, HasSlow(Spec{"like_count": {OpGt: 1}}, CommentFields))
}
