package commands

import (
	"github.com/spf13/cobra"

	"ytharvest/lib/harvest"
	"ytharvest/lib/serviceutil"
)

var (
	enrichPlaylist *bool
	playlistMeta   *bool
)

func init() {
	enrichPlaylist = playlistCmd.Flags().Bool("enrich", false, "Fetch full metadata for every surviving record.")
	playlistMeta = playlistCmd.Flags().Bool("meta", false, "Print the playlist's own metadata instead of its videos.")
	rootCmd.AddCommand(playlistCmd)
}

var playlistCmd = &cobra.Command{
	Use:   "playlist <playlist-id-or-url>",
	Short: "Harvests the video listing of a playlist.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		eng, cleanup := newEngine()
		defer cleanup()

		if *playlistMeta {
			meta, err := eng.PlaylistMetadata(cmd.Context(), args[0])
			if err != nil {
				serviceutil.Fatal("failed to fetch playlist metadata", err)
			}
			outputRecord(meta)
			return
		}

		outputVideos(eng.PlaylistVideos(cmd.Context(), args[0], harvest.ListingOptions{
			Limit:    *limit,
			Filters:  parseFilters(),
			Enrich:   *enrichPlaylist,
			Progress: progressLogger(),
		}))
	},
}
