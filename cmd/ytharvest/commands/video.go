package commands

import (
	"github.com/spf13/cobra"

	"ytharvest/lib/serviceutil"
)

func init() {
	rootCmd.AddCommand(videoCmd)
	rootCmd.AddCommand(channelCmd)
}

var videoCmd = &cobra.Command{
	Use:   "video <video-id-or-url>",
	Short: "Fetches the full metadata of a single video.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		eng, cleanup := newEngine()
		defer cleanup()

		video, err := eng.VideoMetadata(cmd.Context(), args[0])
		if err != nil {
			serviceutil.Fatal("failed to fetch video metadata", err)
		}
		outputRecord(video)
	},
}

var channelCmd = &cobra.Command{
	Use:   "channel <channel-id-handle-or-url>",
	Short: "Fetches the metadata of a channel.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		eng, cleanup := newEngine()
		defer cleanup()

		ch, err := eng.ChannelMetadata(cmd.Context(), args[0])
		if err != nil {
			serviceutil.Fatal("failed to fetch channel metadata", err)
		}
		outputRecord(ch)
	},
}
