package jsontree

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, raw string) Document {
	var doc Document
	err := json.Unmarshal([]byte(raw), &doc)
	require.NoError(t, err)
	return doc
}

func TestFindKey(t *testing.T) {
	doc := mustParse(t, `{
		"a": {"target": {"id": "one"}},
		"b": [
			{"target": {"id": "two"}},
			{"c": {"target": {"id": "three"}}}
		],
		"target": {"id": "zero", "nested": {"target": {"id": "inner"}}}
	}`)

	var ids []string
	for m := range FindMaps(doc, "target") {
		id, _ := m["id"].(string)
		ids = append(ids, id)
	}
	// the root match comes first, then children in key order, then the
	// match nested inside the root's own matched value
	require.Equal(t, []string{"zero", "one", "two", "three", "inner"}, ids)

	// matches nested inside a matched value are found too
	var all []string
	for m := range FindMaps(doc["target"], "target") {
		id, _ := m["id"].(string)
		all = append(all, id)
	}
	require.Equal(t, []string{"inner"}, all)
}

func TestFindKeyAbsent(t *testing.T) {
	doc := mustParse(t, `{"a": [1, 2, {"b": null}]}`)
	for range FindKey(doc, "missing") {
		t.Fatal("yielded a value for an absent key")
	}
}

func TestFindKeyListOrder(t *testing.T) {
	doc := mustParse(t, `{"items": [
		{"entry": "first"},
		{"entry": "second"},
		{"entry": "third"}
	]}`)

	var got []string
	for v := range FindKey(doc, "entry") {
		got = append(got, v.(string))
	}
	require.Equal(t, []string{"first", "second", "third"}, got)
}

func TestFindKeyEarlyStop(t *testing.T) {
	doc := mustParse(t, `{"items": [{"entry": 1}, {"entry": 2}]}`)
	count := 0
	for range FindKey(doc, "entry") {
		count++
		break
	}
	require.Equal(t, 1, count)
}

func TestFindKeyDeepDocument(t *testing.T) {
	// a pathologically deep chain must not overflow the stack
	leaf := map[string]any{"entry": "bottom"}
	node := any(leaf)
	for range 200_000 {
		node = map[string]any{"next": node}
	}

	var got []any
	for v := range FindKey(node, "entry") {
		got = append(got, v)
	}
	require.Equal(t, []any{"bottom"}, got)
}

func TestFindContaining(t *testing.T) {
	doc := mustParse(t, `{"mutations": [
		{"commentSurfaceKey": "sk1", "commentId": "c1"},
		{"commentSurfaceKey": "sk2", "commentId": "c2"},
		{"otherKey": true}
	]}`)

	got := map[string]string{}
	for m := range FindContaining(doc, "commentSurfaceKey") {
		sk, _ := m["commentSurfaceKey"].(string)
		id, _ := m["commentId"].(string)
		got[sk] = id
	}
	require.Equal(t, map[string]string{"sk1": "c1", "sk2": "c2"}, got)
}

func TestGet(t *testing.T) {
	doc := mustParse(t, `{
		"contents": {"tabs": [
			{"tabRenderer": {"title": "Videos", "selected": true}},
			{"tabRenderer": {"title": "Shorts"}}
		]}
	}`)

	require.Equal(t, "Videos", GetString(doc, "contents.tabs.0.tabRenderer.title"))
	require.Equal(t, "Shorts", GetString(doc, "contents.tabs.1.tabRenderer.title"))
	require.Nil(t, Get(doc, "contents.tabs.2.tabRenderer"))
	require.Nil(t, Get(doc, "contents.tabs.x"))
	require.Nil(t, Get(doc, "contents.missing.deeper"))
	require.Len(t, GetList(doc, "contents.tabs"), 2)
	require.NotNil(t, GetMap(doc, "contents.tabs.0.tabRenderer"))
}

func TestFirstHelpers(t *testing.T) {
	doc := mustParse(t, `{"a": {"token": "abc"}, "b": {"token": "def"}}`)
	s, ok := FirstString(doc, "token")
	require.True(t, ok)
	require.Contains(t, []string{"abc", "def"}, s)

	_, ok = FirstMap(doc, "nope")
	require.False(t, ok)
}
