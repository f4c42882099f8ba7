package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"ytharvest/lib/harvest"
	"ytharvest/lib/serviceutil"
)

var (
	commentSort  *string
	commentSince *string
	replyMode    *string
)

func init() {
	commentSort = commentsCmd.Flags().String("sort", "top", `Comment ordering: "top" or "recent".`)
	commentSince = commentsCmd.Flags().String("since", "", `Stop at comments older than this date (YYYY-MM-DD). Requires --sort recent.`)
	replyMode = commentsCmd.Flags().String("replies", "none", `Reply handling: "none", "tokens" or "all".`)
	rootCmd.AddCommand(commentsCmd)
}

var commentsCmd = &cobra.Command{
	Use:   "comments <video-id-or-url>",
	Short: "Harvests the comments of a video.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		opts := harvest.CommentOptions{
			SortOrder: harvest.SortOrder(*commentSort),
			Limit:     *limit,
			Filters:   parseFilters(),
			Progress:  progressLogger(),
		}

		switch *replyMode {
		case "none":
			opts.ReplyMode = harvest.ReplyModeNone
		case "tokens":
			opts.ReplyMode = harvest.ReplyModeTokens
		case "all":
			opts.ReplyMode = harvest.ReplyModeAll
		default:
			serviceutil.Fatal("invalid --replies value", fmt.Errorf("got %q", *replyMode))
		}

		if *commentSince != "" {
			since, err := time.Parse("2006-01-02", *commentSince)
			if err != nil {
				serviceutil.Fatal("failed to parse --since date", err)
			}
			opts.SinceDate = since
		}

		eng, cleanup := newEngine()
		defer cleanup()
		outputComments(eng.Comments(cmd.Context(), args[0], opts))
	},
}
