package commands

import (
	"encoding/json"
	"iter"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"ytharvest/lib/harvest"
	"ytharvest/lib/serviceutil"
)

func outputVideos(seq iter.Seq2[harvest.Video, error]) {
	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		for v, err := range seq {
			if err != nil {
				serviceutil.Fatal("harvest failed", err)
			}
			if err := enc.Encode(v); err != nil {
				serviceutil.Fatal("failed to encode record", err)
			}
		}
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"ID", "Title", "Views", "Duration", "Published"})

	count := 0
	for v, err := range seq {
		if err != nil {
			serviceutil.Fatal("harvest failed", err)
		}
		t.AppendRow(table.Row{
			v.ID,
			text.Snip(v.Title, 60, "…"),
			v.ViewCount,
			time.Duration(v.DurationSeconds) * time.Second,
			formatDate(v.PublishDate, v.PublishDateEstimated),
		})
		count++
	}
	t.Render()
	slog.Info("harvest complete", "records", count)
}

func outputComments(seq iter.Seq2[harvest.Comment, error]) {
	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		for c, err := range seq {
			if err != nil {
				serviceutil.Fatal("harvest failed", err)
			}
			if err := enc.Encode(c); err != nil {
				serviceutil.Fatal("failed to encode record", err)
			}
		}
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"ID", "Author", "Likes", "Published", "Text"})

	count := 0
	for c, err := range seq {
		if err != nil {
			serviceutil.Fatal("harvest failed", err)
		}
		likes := "?"
		if c.LikeCountKnown {
			likes = strconv.FormatInt(c.LikeCount, 10)
		}
		t.AppendRow(table.Row{
			c.ID,
			c.Author,
			likes,
			formatDate(c.PublishDate, c.PublishDateEstimated),
			text.Snip(c.Text, 80, "…"),
		})
		count++
	}
	t.Render()
	slog.Info("harvest complete", "records", count)
}

// formatDate marks estimated dates with a tilde so they are not read
// as precise.
func formatDate(date time.Time, estimated bool) string {
	if date.IsZero() {
		return ""
	}
	out := date.Format("2006-01-02")
	if estimated {
		out = "~" + out
	}
	return out
}

func outputRecord(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		serviceutil.Fatal("failed to encode record", err)
	}
}
