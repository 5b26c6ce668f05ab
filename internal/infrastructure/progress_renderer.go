package infrastructure

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/mattn/go-colorable"
	"github.com/yourusername/ytdt/internal/domain"
)

var (
	progressValueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	progressLabelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	progressMutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

// ProgressRenderer redraws a single terminal line from the latest progress
// sample. Publish never blocks the downloader; samples the renderer has not
// drawn yet are replaced by newer ones.
type ProgressRenderer struct {
	enabled  bool
	out      io.Writer
	interval time.Duration
	slot     *domain.ProgressSlot

	mu        sync.Mutex
	phase     string
	title     string
	latest    domain.Progress
	transcode float64
	started   bool

	stop chan struct{}
	done chan struct{}
}

// NewProgressRenderer creates a renderer writing to out, or to a
// colorable stdout when out is nil
func NewProgressRenderer(out io.Writer, interval time.Duration, enabled bool) *ProgressRenderer {
	if out == nil {
		out = colorable.NewColorableStdout()
	}
	if interval <= 0 {
		interval = 250 * time.Millisecond
	}
	return &ProgressRenderer{
		enabled:  enabled,
		out:      out,
		interval: interval,
		slot:     domain.NewProgressSlot(),
		phase:    "starting",
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Publish hands a sample to the renderer
func (r *ProgressRenderer) Publish(p domain.Progress) {
	r.slot.Publish(p)
}

// Start begins redrawing in the background
func (r *ProgressRenderer) Start(title string) {
	r.mu.Lock()
	if r.started {
		r.mu.Unlock()
		return
	}
	r.started = true
	r.title = title
	r.mu.Unlock()

	if !r.enabled {
		close(r.done)
		return
	}

	go func() {
		defer close(r.done)
		t := time.NewTicker(r.interval)
		defer t.Stop()
		for {
			select {
			case <-r.stop:
				return
			case p := <-r.slot.C():
				r.mu.Lock()
				r.latest = p
				r.mu.Unlock()
			case <-t.C:
				fmt.Fprintf(r.out, "\r\033[2K%s", r.render())
			}
		}
	}()
}

// SetPhase changes the label shown in front of the line
func (r *ProgressRenderer) SetPhase(phase string) {
	r.mu.Lock()
	r.phase = phase
	r.mu.Unlock()
}

// SetTranscodeFraction records ffmpeg progress in [0, 1]
func (r *ProgressRenderer) SetTranscodeFraction(f float64) {
	r.mu.Lock()
	r.transcode = f
	r.mu.Unlock()
}

// Stop ends redrawing and replaces the line with final, if any
func (r *ProgressRenderer) Stop(final string) {
	r.mu.Lock()
	started := r.started
	r.mu.Unlock()
	if !started {
		return
	}

	select {
	case <-r.stop:
		return
	default:
		close(r.stop)
	}
	<-r.done

	if !r.enabled {
		return
	}
	if final == "" {
		fmt.Fprint(r.out, "\r\033[2K")
		return
	}
	fmt.Fprintf(r.out, "\r\033[2K%s\n", final)
}

func (r *ProgressRenderer) render() string {
	r.mu.Lock()
	defer r.mu.Unlock()

	title := r.title
	if len([]rune(title)) > 40 {
		title = string([]rune(title)[:40]) + "..."
	}

	var body string
	switch r.phase {
	case string(domain.StageTranscoding):
		body = fmt.Sprintf("%s %s",
			progressValueStyle.Render(fmt.Sprintf("%.2f%%", r.transcode*100)),
			progressLabelStyle.Render("converted"))
	case string(domain.StageDownloading):
		body = colorizeProgress(r.latest)
	default:
		body = progressMutedStyle.Render("...")
	}
	return strings.Join([]string{r.phase, body, progressMutedStyle.Render("| " + title)}, "  ")
}

// FormatProgressLine renders a sample as plain text. The estimate reads
// "unknown" when it cannot be computed.
func FormatProgressLine(p domain.Progress) string {
	return strings.Join(progressParts(p), " ")
}

func colorizeProgress(p domain.Progress) string {
	parts := progressParts(p)
	parts[0] = progressValueStyle.Render(parts[0])
	return strings.Join(parts, " ")
}

func progressParts(p domain.Progress) []string {
	size := humanize.Bytes(uint64(max(p.BytesDownloaded, 0)))
	if p.BytesTotal > 0 {
		size = fmt.Sprintf("(%s of %s)", size, humanize.Bytes(uint64(p.BytesTotal)))
	} else {
		size = fmt.Sprintf("(%s)", size)
	}

	eta := "unknown"
	if remaining, ok := p.RemainingMinutes(); ok {
		eta = fmt.Sprintf("%.2f minutes", remaining)
	}

	return []string{
		fmt.Sprintf("%.2f%%", p.Percent()*100),
		"downloaded",
		size,
		fmt.Sprintf("running for %.2f minutes,", p.ElapsedMinutes()),
		"estimated time left: " + eta,
	}
}
