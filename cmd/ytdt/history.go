package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/yourusername/ytdt/internal/domain"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent jobs",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		stage, _ := cmd.Flags().GetString("status")
		limit, _ := cmd.Flags().GetInt("limit")

		s := mustLoadServices()
		defer s.Close()
		exitOnError(s.requireHistory())

		jobs, err := s.jobManager().ListJobs(stage, limit)
		exitOnError(err)

		if len(jobs) == 0 {
			fmt.Println("No jobs recorded yet")
			return
		}
		printJobTable(os.Stdout, jobs)
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Show job details (a unique ID prefix is enough)",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		s := mustLoadServices()
		defer s.Close()
		exitOnError(s.requireHistory())

		job, err := s.jobManager().GetJob(args[0])
		exitOnError(err)
		printJobDetails(os.Stdout, job)
	},
}

var historyStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show job statistics",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		s := mustLoadServices()
		defer s.Close()
		exitOnError(s.requireHistory())

		stats, err := s.jobManager().GetStats()
		exitOnError(err)

		fmt.Println("Job Statistics:")
		fmt.Printf("  Total:       %d\n", stats.Total)
		fmt.Printf("  Done:        %d\n", stats.Done)
		fmt.Printf("  Failed:      %d\n", stats.Failed)
		fmt.Printf("  Running:     %d\n", stats.Resolving+stats.Downloading+stats.Transcoding)
		fmt.Printf("  Downloaded:  %s\n", humanize.Bytes(uint64(stats.BytesTotal)))
	},
}

func init() {
	historyCmd.Flags().StringP("status", "s", "", "Filter by stage (resolving, downloading, transcoding, done, failed)")
	historyCmd.Flags().IntP("limit", "n", 20, "Maximum number of jobs to list")

	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyStatsCmd)
}

func printJobTable(out io.Writer, jobs []*domain.Job) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tFORMAT\tSTAGE\tCREATED")
	for _, job := range jobs {
		title := job.Title
		if title == "" {
			title = job.Input
		}
		stage := string(job.Stage)
		if job.Stage == domain.StageFailed && job.FailedStage != "" {
			stage = fmt.Sprintf("failed (%s)", job.FailedStage)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			job.ShortID(),
			truncate(title, 40),
			job.Format,
			stage,
			humanize.Time(job.CreatedAt))
	}
	w.Flush()
}

func printJobDetails(out io.Writer, job *domain.Job) {
	fmt.Fprintf(out, "Job Details:\n")
	fmt.Fprintf(out, "  ID:        %s\n", job.ID)
	fmt.Fprintf(out, "  Input:     %s\n", job.Input)
	if job.VideoID != "" {
		fmt.Fprintf(out, "  Video:     %s\n", domain.WatchURL(job.VideoID))
	}
	if job.Title != "" {
		fmt.Fprintf(out, "  Title:     %s\n", job.Title)
	}
	fmt.Fprintf(out, "  Format:    %s\n", job.Format)
	if job.SubtitleLang != "" {
		fmt.Fprintf(out, "  Subtitles: %s\n", job.SubtitleLang)
	}
	fmt.Fprintf(out, "  Stage:     %s\n", job.Stage)
	fmt.Fprintf(out, "  Created:   %s\n", job.CreatedAt.Format(time.DateTime))
	if job.CompletedAt != nil {
		fmt.Fprintf(out, "  Took:      %s\n", job.Duration().Round(time.Second))
	}
	if job.BytesDownloaded > 0 {
		fmt.Fprintf(out, "  Size:      %s\n", humanize.Bytes(uint64(job.BytesDownloaded)))
	}
	if job.OutputPath != "" {
		fmt.Fprintf(out, "  File:      %s\n", job.OutputPath)
	}
	if job.Stage == domain.StageFailed {
		fmt.Fprintf(out, "  Failed in: %s (%s)\n", job.FailedStage, job.ErrorKind)
		fmt.Fprintf(out, "  Error:     %s\n", job.ErrorMessage)
	}
}

func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}
