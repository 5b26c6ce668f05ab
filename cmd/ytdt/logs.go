package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var logsCmd = &cobra.Command{
	Use:   "logs [id]",
	Short: "Show the ffmpeg output recorded for a job",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		jsonOutput, _ := cmd.Flags().GetBool("json")

		s := mustLoadServices()
		defer s.Close()
		exitOnError(s.requireHistory())

		jm := s.jobManager()
		if jsonOutput {
			log, err := jm.GetJobLog(args[0])
			exitOnError(err)
			prettyJSON, _ := json.MarshalIndent(log, "", "  ")
			fmt.Println(string(prettyJSON))
			return
		}

		process, err := jm.ProcessLog(args[0])
		exitOnError(err)
		fmt.Fprint(os.Stdout, process)
	},
}

func init() {
	logsCmd.Flags().BoolP("json", "j", false, "Print the job, its events and the ffmpeg output as JSON")
}
