package commands

import (
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(repliesCmd)
}

var repliesCmd = &cobra.Command{
	Use:   "replies <video-id-or-url> <reply-cursor>",
	Short: "Harvests one reply thread given its continuation cursor.",
	Long: `Harvests one reply thread given its continuation cursor.

Cursors come from "comments --replies tokens" output.`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		eng, cleanup := newEngine()
		defer cleanup()
		outputComments(eng.Replies(cmd.Context(), args[0], args[1], *limit))
	},
}
