package infrastructure

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/yourusername/ytdt/internal/domain"
	"github.com/yourusername/ytdt/pkg/logger"
	"go.uber.org/zap"
)

const (
	progressPipeTarget = "pipe:1"
	progressTimePrefix = "out_time_us="
	progressEndLine    = "progress=end"

	// Lines of ffmpeg stderr kept for the error diagnostic
	diagnosticLines = 12
	diagnosticBytes = 64 * 1024
)

// FFmpegTranscoder converts downloaded files with the ffmpeg binary
type FFmpegTranscoder struct {
	config  domain.FFmpegConfig
	logsDir string
	logger  *zap.Logger
}

// NewFFmpegTranscoder creates a new transcoder. ffmpeg output is appended
// to the dated process log in logsDir when it is set.
func NewFFmpegTranscoder(config domain.FFmpegConfig, logsDir string, logger *zap.Logger) *FFmpegTranscoder {
	return &FFmpegTranscoder{
		config:  config,
		logsDir: logsDir,
		logger:  logger,
	}
}

// Available checks that the ffmpeg binary can be found
func (t *FFmpegTranscoder) Available() error {
	if _, err := exec.LookPath(t.config.Binary); err != nil {
		return fmt.Errorf("%w: ffmpeg binary %q not found: %v", domain.ErrTranscode, t.config.Binary, err)
	}
	return nil
}

// BuildArgs builds the ffmpeg command arguments for spec
func (t *FFmpegTranscoder) BuildArgs(spec domain.TranscodeSpec) []string {
	args := []string{"-hide_banner", "-nostdin", "-y", "-i", spec.InputPath}

	switch mode := spec.Subtitles.(type) {
	case domain.Embedded:
		args = append(args, "-vf", "subtitles="+escapeFilterPath(mode.Path))
	case domain.PlainConversion, nil:
	}
	if domain.IsAudioOnlyFormat(spec.TargetFormat) {
		args = append(args, "-vn")
	}

	return append(args, "-progress", progressPipeTarget, "-nostats", spec.OutputPath)
}

// filterPathReplacer escapes a path once for the filter option and once
// more for the filtergraph
var filterPathReplacer = strings.NewReplacer(
	`\`, `\\\\`,
	`'`, `\\\'`,
	`:`, `\\:`,
	`,`, `\,`,
	`[`, `\[`,
	`]`, `\]`,
	`;`, `\;`,
)

func escapeFilterPath(path string) string {
	return filterPathReplacer.Replace(path)
}

// Transcode runs ffmpeg for spec. ffmpeg writes next to the output path
// and the result is renamed into place only on success, so a failed or
// cancelled run never touches an existing file at the output path. On
// success the input file and any embedded subtitle file are removed. On
// failure the input is kept.
func (t *FFmpegTranscoder) Transcode(ctx context.Context, spec domain.TranscodeSpec) (string, error) {
	if spec.InputPath == "" || spec.OutputPath == "" {
		return "", fmt.Errorf("%w: transcode needs input and output paths", domain.ErrInvalidInput)
	}
	if spec.Subtitles == nil {
		spec.Subtitles = domain.PlainConversion{}
	}

	duration := spec.Duration
	if duration <= 0 && spec.OnProgress != nil {
		probed, err := t.probeDuration(ctx, spec.InputPath)
		if err != nil {
			t.logger.Warn("Could not probe duration, transcode progress unavailable",
				zap.String("path", spec.InputPath),
				zap.Error(err))
		}
		duration = probed
	}

	partial := partialOutputPath(spec.OutputPath)
	staged := spec
	staged.OutputPath = partial

	args := t.BuildArgs(staged)
	cmd := exec.CommandContext(ctx, t.config.Binary, args...)

	processLog := t.openProcessLog()
	defer processLog.Close()
	logger.WriteProcessHeader(processLog, spec.JobID, CommandLine(cmd))

	tail := newTailBuffer(diagnosticBytes)
	cmd.Stderr = io.MultiWriter(processLog, tail)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		logger.WriteProcessFooter(processLog, false, err.Error())
		return "", &domain.TranscodeError{Diagnostic: "cannot capture ffmpeg output", Err: err}
	}

	t.logger.Debug("Starting ffmpeg",
		zap.String("job_id", spec.JobID),
		zap.Strings("args", args))

	if err := cmd.Start(); err != nil {
		logger.WriteProcessFooter(processLog, false, fmt.Sprintf("ffmpeg did not start: %v", err))
		return "", &domain.TranscodeError{Diagnostic: "ffmpeg did not start", Err: err}
	}

	monitorProgress(stdout, duration, spec.OnProgress)
	err = cmd.Wait()

	if ctx.Err() != nil {
		t.removePartial(partial)
		logger.WriteProcessFooter(processLog, false, "cancelled")
		return "", &domain.TranscodeError{Diagnostic: "ffmpeg was interrupted", Err: ctx.Err()}
	}
	if err != nil {
		t.removePartial(partial)
		diagnostic := tail.LastLines(diagnosticLines)
		logger.WriteProcessFooter(processLog, false, fmt.Sprintf("ffmpeg failed: %v", err))
		return "", &domain.TranscodeError{Diagnostic: diagnostic, Err: err}
	}

	if err := os.Rename(partial, spec.OutputPath); err != nil {
		t.removePartial(partial)
		logger.WriteProcessFooter(processLog, false, fmt.Sprintf("cannot move output into place: %v", err))
		return "", &domain.TranscodeError{Diagnostic: "cannot move converted file into place", Err: err}
	}

	if spec.OnProgress != nil {
		spec.OnProgress(1)
	}
	logger.WriteProcessFooter(processLog, true, "Converted: "+spec.OutputPath)

	t.removeIntermediate(spec.InputPath)
	if embedded, ok := spec.Subtitles.(domain.Embedded); ok {
		t.removeIntermediate(embedded.Path)
	}

	return spec.OutputPath, nil
}

// probeDuration reads the container duration with ffprobe
func (t *FFmpegTranscoder) probeDuration(ctx context.Context, path string) (time.Duration, error) {
	cmd := exec.CommandContext(ctx, t.config.ProbeBinary,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path)
	output, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("failed to run ffprobe: %w", err)
	}

	seconds, err := strconv.ParseFloat(strings.TrimSpace(string(output)), 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse duration: %w", err)
	}
	return time.Duration(seconds * float64(time.Second)), nil
}

func (t *FFmpegTranscoder) openProcessLog() io.WriteCloser {
	if t.logsDir == "" {
		return nopWriteCloser{io.Discard}
	}
	f, err := logger.OpenProcessLog(t.logsDir)
	if err != nil {
		t.logger.Warn("Failed to open process log", zap.Error(err))
		return nopWriteCloser{io.Discard}
	}
	return f
}

// partialOutputPath keeps the extension so ffmpeg still picks the muxer
// from the file name: song.mp4 becomes song.part.mp4
func partialOutputPath(output string) string {
	ext := filepath.Ext(output)
	return strings.TrimSuffix(output, ext) + ".part" + ext
}

func (t *FFmpegTranscoder) removePartial(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		t.logger.Warn("Failed to remove partial output",
			zap.String("path", path),
			zap.Error(err))
	}
}

func (t *FFmpegTranscoder) removeIntermediate(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		t.logger.Warn("Failed to remove intermediate file",
			zap.String("path", path),
			zap.Error(err))
		return
	}
	t.logger.Debug("Removed intermediate file", zap.String("path", path))
}

// monitorProgress reads ffmpeg -progress output until the pipe closes
func monitorProgress(r io.Reader, total time.Duration, onProgress func(float64)) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if onProgress == nil {
			continue
		}
		line := strings.TrimSpace(scanner.Text())
		if line == progressEndLine {
			onProgress(1)
			continue
		}
		if total <= 0 || !strings.HasPrefix(line, progressTimePrefix) {
			continue
		}
		us, err := strconv.ParseInt(strings.TrimPrefix(line, progressTimePrefix), 10, 64)
		if err != nil || us < 0 {
			continue
		}
		fraction := float64(time.Duration(us)*time.Microsecond) / float64(total)
		if fraction > 1 {
			fraction = 1
		}
		onProgress(fraction)
	}
	// Drain so ffmpeg never blocks on a full pipe
	io.Copy(io.Discard, r)
}

// tailBuffer keeps the last max bytes written to it
type tailBuffer struct {
	mu  sync.Mutex
	buf []byte
	max int
}

func newTailBuffer(max int) *tailBuffer {
	return &tailBuffer{max: max}
}

func (b *tailBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf = append(b.buf, p...)
	if len(b.buf) > b.max {
		b.buf = b.buf[len(b.buf)-b.max:]
	}
	return len(p), nil
}

// LastLines returns the last n non-empty lines
func (b *tailBuffer) LastLines(n int) string {
	b.mu.Lock()
	defer b.mu.Unlock()

	var lines []string
	for _, line := range strings.Split(string(b.buf), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }
