package app

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/yourusername/ytdt/internal/domain"
	"go.uber.org/zap"
)

// Hooks lets a front end follow a running job. Every field is optional.
type Hooks struct {
	// Progress receives download samples and must not block
	Progress domain.ProgressSink
	// StageChanged is called after each stage transition
	StageChanged func(job *domain.Job)
	// TranscodeProgress receives ffmpeg progress in [0, 1]
	TranscodeProgress func(fraction float64)
}

// Pipeline runs resolve, download and transcode for one request
type Pipeline struct {
	resolver   domain.Resolver
	subtitles  domain.SubtitleFetcher
	downloader domain.Downloader
	transcoder domain.Transcoder
	repo       domain.JobRepository
	notifier   domain.Notifier
	logger     *zap.Logger
}

// NewPipeline creates a pipeline. repo and notifier may be nil.
func NewPipeline(
	resolver domain.Resolver,
	subtitles domain.SubtitleFetcher,
	downloader domain.Downloader,
	transcoder domain.Transcoder,
	repo domain.JobRepository,
	notifier domain.Notifier,
	logger *zap.Logger,
) *Pipeline {
	return &Pipeline{
		resolver:   resolver,
		subtitles:  subtitles,
		downloader: downloader,
		transcoder: transcoder,
		repo:       repo,
		notifier:   notifier,
		logger:     logger,
	}
}

// NormalizeRequest validates req and fills in defaults. The returned
// warning is non-empty when the subtitle language was dropped.
func NormalizeRequest(req domain.VideoRequest) (domain.VideoRequest, string, error) {
	req.Input = strings.TrimSpace(req.Input)
	req.Format = domain.NormalizeFormat(req.Format)
	req.SubtitleLang = strings.TrimSpace(req.SubtitleLang)
	if req.OutputDir == "" {
		req.OutputDir = "."
	}

	if req.Input == "" {
		return req, "", fmt.Errorf("%w: a url or search query is required", domain.ErrInvalidInput)
	}
	if !domain.ValidateFormat(req.Format) {
		return req, "", fmt.Errorf("%w: unsupported format %q (supported: %s)",
			domain.ErrInvalidInput, req.Format, strings.Join(domain.SupportedFormats, ", "))
	}

	info, err := os.Stat(req.OutputDir)
	if err != nil || !info.IsDir() {
		return req, "", fmt.Errorf("%w: output directory %q does not exist", domain.ErrInvalidInput, req.OutputDir)
	}

	var warning string
	if req.SubtitleLang != "" && domain.IsAudioOnlyFormat(req.Format) {
		warning = fmt.Sprintf("subtitles cannot be embedded in %s, ignoring language %q", req.Format, req.SubtitleLang)
		req.SubtitleLang = ""
	}
	return req, warning, nil
}

// Run executes the whole job. The returned job is never nil once the
// request is valid, and records the failing stage on error.
func (p *Pipeline) Run(ctx context.Context, req domain.VideoRequest, hooks Hooks) (*domain.Job, error) {
	req, warning, err := NormalizeRequest(req)
	if err != nil {
		return nil, err
	}
	if hooks.Progress == nil {
		hooks.Progress = domain.DiscardProgress{}
	}

	job := domain.NewJob(req)
	log := p.logger.With(zap.String("job_id", job.ID))
	if warning != "" {
		log.Warn(warning)
	}

	p.save(log, job, true)
	log.Info("job_started",
		zap.String("input", req.Input),
		zap.String("format", req.Format),
		zap.String("subtitle_lang", req.SubtitleLang),
		zap.String("output_dir", req.OutputDir))
	p.stageChanged(hooks, job)

	// Resolving
	video, err := p.resolver.Resolve(ctx, req.Input)
	if err != nil {
		return p.fail(log, hooks, job, domain.StageResolving, err)
	}
	job.MarkResolved(video)
	paths := domain.PathsFor(req.OutputDir, video.Title, req.Format)
	p.save(log, job, false)
	log.Info("job_resolved",
		zap.String("video_id", video.ID),
		zap.String("title", video.Title),
		zap.String("source", video.Source.String()))
	p.stageChanged(hooks, job)

	// Downloading, with the subtitle fetch alongside
	subCtx, cancelSubtitles := context.WithCancel(ctx)
	defer cancelSubtitles()

	var (
		wg           sync.WaitGroup
		subtitlePath string
	)
	if req.SubtitleLang != "" && p.subtitles != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			subtitlePath = p.fetchSubtitles(subCtx, log, video.ID, req.SubtitleLang, paths.Subtitle)
		}()
	}

	written, err := p.downloader.Download(ctx, video.Source, paths.Temp, hooks.Progress)
	if err != nil {
		cancelSubtitles()
	}
	wg.Wait()

	if err != nil {
		p.removeFile(log, subtitlePath)
		return p.fail(log, hooks, job, domain.StageDownloading, err)
	}
	if ctx.Err() != nil {
		p.removeFile(log, subtitlePath)
		p.removeFile(log, paths.Temp)
		return p.fail(log, hooks, job, domain.StageDownloading, fmt.Errorf("%w: %w", domain.ErrStream, ctx.Err()))
	}

	job.SubtitlePath = subtitlePath
	job.MarkTranscoding(written)
	p.save(log, job, false)
	log.Info("job_downloaded",
		zap.String("temp_path", paths.Temp),
		zap.Int64("bytes", written),
		zap.Bool("subtitles", subtitlePath != ""))
	p.stageChanged(hooks, job)

	// Transcoding
	output, err := p.transcoder.Transcode(ctx, domain.TranscodeSpec{
		JobID:        job.ID,
		InputPath:    paths.Temp,
		OutputPath:   paths.Output,
		TargetFormat: req.Format,
		Subtitles:    domain.SubtitlesFor(subtitlePath),
		Duration:     video.Duration,
		OnProgress:   hooks.TranscodeProgress,
	})
	if err != nil {
		p.removeFile(log, subtitlePath)
		if domain.KindOf(err) == domain.KindCancelled {
			p.removeFile(log, paths.Temp)
		} else {
			log.Warn("Transcode failed, keeping downloaded file", zap.String("temp_path", paths.Temp))
		}
		return p.fail(log, hooks, job, domain.StageTranscoding, err)
	}

	job.MarkDone(output)
	p.save(log, job, false)
	log.Info("job_done",
		zap.String("output", output),
		zap.Duration("duration", job.Duration()))
	p.stageChanged(hooks, job)

	if p.notifier != nil {
		p.notifier.NotifyJobCompleted(job)
	}
	return job, nil
}

// fetchSubtitles returns the subtitle path, or "" when none could be
// fetched. Failures never abort the job.
func (p *Pipeline) fetchSubtitles(ctx context.Context, log *zap.Logger, videoID, lang, dest string) string {
	path, err := p.subtitles.FetchSubtitle(ctx, videoID, lang, dest)
	if err != nil {
		if ctx.Err() == nil {
			log.Warn("Subtitles unavailable, continuing without them",
				zap.String("lang", lang),
				zap.Error(err))
		}
		return ""
	}
	if path == "" {
		log.Warn("No subtitles in requested language, continuing without them", zap.String("lang", lang))
	}
	return path
}

func (p *Pipeline) fail(log *zap.Logger, hooks Hooks, job *domain.Job, stage domain.JobStage, err error) (*domain.Job, error) {
	stageErr := &domain.StageError{Stage: stage, Err: err}
	job.MarkFailed(stageErr)
	p.save(log, job, false)

	log.Error("job_failed",
		zap.String("stage", string(stage)),
		zap.String("error_kind", string(job.ErrorKind)),
		zap.Error(err))
	p.stageChanged(hooks, job)

	if p.notifier != nil {
		p.notifier.NotifyJobFailed(job, stageErr)
	}
	return job, stageErr
}

func (p *Pipeline) save(log *zap.Logger, job *domain.Job, create bool) {
	if p.repo == nil {
		return
	}
	var err error
	if create {
		err = p.repo.Create(job)
	} else {
		err = p.repo.Update(job)
	}
	if err != nil {
		log.Warn("Failed to record job history", zap.Error(err))
	}
}

func (p *Pipeline) stageChanged(hooks Hooks, job *domain.Job) {
	if hooks.StageChanged != nil {
		hooks.StageChanged(job)
	}
}

func (p *Pipeline) removeFile(log *zap.Logger, path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		log.Warn("Failed to remove file", zap.String("path", path), zap.Error(err))
	}
}
