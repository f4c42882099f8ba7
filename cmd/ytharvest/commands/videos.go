package commands

import (
	"github.com/spf13/cobra"

	"ytharvest/lib/harvest"
)

var enrichVideos *bool

func init() {
	enrichVideos = videosCmd.Flags().Bool("enrich", false, "Fetch full metadata for every surviving record.")
	rootCmd.AddCommand(videosCmd)
}

var videosCmd = &cobra.Command{
	Use:   "videos <channel>",
	Short: "Harvests the video listing of a channel's videos tab.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		eng, cleanup := newEngine()
		defer cleanup()

		outputVideos(eng.ChannelVideos(cmd.Context(), args[0], harvest.ListingOptions{
			Limit:    *limit,
			Filters:  parseFilters(),
			Enrich:   *enrichVideos,
			Progress: progressLogger(),
		}))
	},
}
