package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"go.uber.org/zap"

	"github.com/yourusername/ytdt/internal/app"
	"github.com/yourusername/ytdt/internal/domain"
	"github.com/yourusername/ytdt/internal/infrastructure"
)

var (
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true)
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
)

// runRequest runs one job in the foreground with a live progress line.
// Ctrl-C cancels the job and cleans up its files.
func runRequest(parent context.Context, req domain.VideoRequest) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := loadServices()
	if err != nil {
		return err
	}
	defer s.Close()

	req, warning, err := app.NormalizeRequest(req)
	if err != nil {
		return err
	}
	if warning != "" {
		fmt.Fprintln(os.Stderr, warnStyle.Render("Warning:"), warning)
	}

	transcoder := s.transcoder()
	if err := transcoder.Available(); err != nil {
		return err
	}

	showProgress := s.config.Progress.Enabled && !noProgress && isatty.IsTerminal(os.Stdout.Fd())
	renderer := infrastructure.NewProgressRenderer(nil, s.config.Progress.RefreshInterval, showProgress)

	hooks := app.Hooks{
		Progress: renderer,
		StageChanged: func(job *domain.Job) {
			switch job.Stage {
			case domain.StageDownloading:
				renderer.SetPhase(string(domain.StageDownloading))
				renderer.Start(job.Title)
			case domain.StageTranscoding:
				renderer.SetPhase(string(domain.StageTranscoding))
			}
		},
		TranscodeProgress: renderer.SetTranscodeFraction,
	}

	job, err := s.pipeline(transcoder, notify).Run(ctx, req, hooks)
	if err != nil {
		renderer.Stop("")
		if job != nil {
			s.log.Debug("Job failed", zap.String("job_id", job.ID))
			if job.Stage == domain.StageFailed && job.FailedStage == domain.StageTranscoding {
				fmt.Fprintln(os.Stderr, mutedStyle.Render("Downloaded file kept for inspection in "+job.OutputDir))
			}
		}
		return err
	}

	renderer.Stop(okStyle.Render("Done") + " " + job.OutputPath)
	if !showProgress {
		fmt.Println(job.OutputPath)
	}
	if s.repo != nil {
		fmt.Fprintln(os.Stderr, mutedStyle.Render("job "+job.ShortID()))
	}
	return nil
}
