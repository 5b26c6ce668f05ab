package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/yourusername/ytdt/internal/domain"
)

const version = "1.0.0"

var (
	configPath string
	verbose    bool
	noProgress bool
	notify     bool

	rootCmd = &cobra.Command{
		Use:   "ytdt <url-or-query> <path> <format> [subtitles]",
		Short: "ytdt - download a YouTube video and convert it with ffmpeg",
		Long: `Download a single YouTube video by URL or search query and convert it to the
requested format with ffmpeg, optionally burning in subtitles.

Examples:
  ytdt https://youtu.be/dQw4w9WgXcQ ~/Music mp3
  ytdt "never gonna give you up" . mp4 en`,
		Args:          cobra.RangeArgs(3, 4),
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Run: func(cmd *cobra.Command, args []string) {
			req := domain.VideoRequest{
				Input:     args[0],
				OutputDir: args[1],
				Format:    args[2],
			}
			if len(args) == 4 {
				req.SubtitleLang = args[3]
			}
			exitOnError(runRequest(cmd.Context(), req))
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: ./configs, $HOME/.config/ytdt, /etc/ytdt)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug output to stderr")
	rootCmd.Flags().BoolVar(&noProgress, "no-progress", false, "Do not draw the progress line")
	rootCmd.Flags().BoolVar(&notify, "notify", false, "Send a desktop notification when the job ends")

	rootCmd.AddCommand(interactiveCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(logsCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(configCmd)
}

// exitOnError prints err the way every command reports failures and exits 1
func exitOnError(err error) {
	if err == nil {
		return
	}
	fmt.Fprintln(os.Stderr, errorStyle.Render("Error:"), err)
	os.Exit(1)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
