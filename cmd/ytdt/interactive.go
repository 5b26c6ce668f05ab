package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/yourusername/ytdt/internal/domain"
)

// Formats offered by the picker
var interactiveFormats = []string{"mp3", "mp4", "flac", "wav", "mov"}

const (
	interactiveResults = 5
	searchTimeout      = 20 * time.Second
)

var interactiveCmd = &cobra.Command{
	Use:   "interactive",
	Short: "Pick a video, format and destination interactively",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if !isatty.IsTerminal(os.Stdin.Fd()) {
			exitOnError(errors.New("interactive mode requires a terminal"))
		}

		s := mustLoadServices()
		m := newPickerModel(s.innertube(), s.config.Download.OutputDir)
		final, err := tea.NewProgram(m).Run()
		s.Close()
		if err != nil {
			exitOnError(err)
		}
		picked, ok := final.(pickerModel)
		if !ok || !picked.done {
			fmt.Fprintln(os.Stderr, mutedStyle.Render("Cancelled"))
			return
		}
		exitOnError(runRequest(cmd.Context(), picked.request()))
	},
}

type pickerStep int

const (
	stepQuery pickerStep = iota
	stepResults
	stepFormat
	stepDir
	stepSubtitles
)

type searchDoneMsg struct {
	results []domain.SearchResult
	err     error
}

var (
	pickerSelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("230")).Background(lipgloss.Color("62")).Bold(true)
	pickerHintStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

// pickerModel walks through query, result, format, directory and
// subtitle selection
type pickerModel struct {
	searcher domain.Searcher
	step     pickerStep
	input    textinput.Model
	cursor   int

	results   []domain.SearchResult
	searching bool
	status    string

	source    string
	format    string
	outputDir string
	subtitles string

	defaultDir string
	done       bool
}

func newPickerModel(searcher domain.Searcher, defaultDir string) pickerModel {
	input := textinput.New()
	input.Prompt = "> "
	input.Placeholder = "search terms or a YouTube URL"
	input.CharLimit = 512
	input.Width = 60
	input.Focus()

	return pickerModel{
		searcher:   searcher,
		input:      input,
		defaultDir: defaultDir,
	}
}

func (m pickerModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m pickerModel) request() domain.VideoRequest {
	return domain.VideoRequest{
		Input:        m.source,
		OutputDir:    m.outputDir,
		Format:       m.format,
		SubtitleLang: m.subtitles,
	}
}

func (m pickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case searchDoneMsg:
		m.searching = false
		if msg.err != nil {
			m.status = "search failed: " + msg.err.Error()
			return m, nil
		}
		if len(msg.results) == 0 {
			m.status = "no results, try other terms"
			return m, nil
		}
		m.results = msg.results
		m.cursor = 0
		m.status = ""
		m.step = stepResults
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		}
	}

	switch m.step {
	case stepResults:
		return m.updateList(msg, len(m.results), func(m pickerModel) pickerModel {
			m.source = m.results[m.cursor].WatchURL()
			m.step = stepFormat
			m.cursor = 0
			return m
		})
	case stepFormat:
		return m.updateList(msg, len(interactiveFormats), func(m pickerModel) pickerModel {
			m.format = interactiveFormats[m.cursor]
			m.step = stepDir
			m.input.Reset()
			m.input.Placeholder = m.defaultDir
			return m
		})
	default:
		return m.updateInput(msg)
	}
}

func (m pickerModel) updateList(msg tea.Msg, n int, choose func(pickerModel) pickerModel) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < n-1 {
			m.cursor++
		}
	case "enter":
		return choose(m), nil
	}
	return m, nil
}

func (m pickerModel) updateInput(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok || key.Type != tea.KeyEnter {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	if m.searching {
		return m, nil
	}

	value := strings.TrimSpace(m.input.Value())
	switch m.step {
	case stepQuery:
		if value == "" {
			m.status = "enter search terms or a URL"
			return m, nil
		}
		if domain.IsVideoURL(value) {
			m.source = value
			m.step = stepFormat
			m.cursor = 0
			m.status = ""
			return m, nil
		}
		m.searching = true
		m.status = "searching..."
		return m, searchCmd(m.searcher, value)

	case stepDir:
		if value == "" {
			value = m.defaultDir
		}
		info, err := os.Stat(value)
		if err != nil || !info.IsDir() {
			m.status = fmt.Sprintf("%q is not an existing directory", value)
			return m, nil
		}
		m.outputDir = value
		m.status = ""
		if domain.IsAudioOnlyFormat(m.format) {
			m.done = true
			return m, tea.Quit
		}
		m.step = stepSubtitles
		m.input.Reset()
		m.input.Placeholder = "subtitle language code, empty for none"
		return m, nil

	case stepSubtitles:
		m.subtitles = value
		m.done = true
		return m, tea.Quit
	}
	return m, nil
}

func searchCmd(searcher domain.Searcher, query string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), searchTimeout)
		defer cancel()
		results, err := searcher.Search(ctx, query, interactiveResults)
		return searchDoneMsg{results: results, err: err}
	}
}

func (m pickerModel) View() string {
	var b strings.Builder

	switch m.step {
	case stepQuery:
		b.WriteString(titleStyle.Render("What do you want to download?") + "\n\n")
		b.WriteString(m.input.View() + "\n")
	case stepResults:
		b.WriteString(titleStyle.Render("Pick a video") + "\n\n")
		for i, r := range m.results {
			line := r.Title
			if r.Author != "" {
				line += pickerHintStyle.Render("  " + r.Author)
			}
			if r.Duration != "" {
				line += pickerHintStyle.Render("  " + r.Duration)
			}
			b.WriteString(renderChoice(i == m.cursor, line) + "\n")
		}
	case stepFormat:
		b.WriteString(titleStyle.Render("Choose a format") + "\n\n")
		for i, f := range interactiveFormats {
			b.WriteString(renderChoice(i == m.cursor, f) + "\n")
		}
	case stepDir:
		b.WriteString(titleStyle.Render("Save to which directory?") + "\n\n")
		b.WriteString(m.input.View() + "\n")
	case stepSubtitles:
		b.WriteString(titleStyle.Render("Subtitles to burn in (e.g. en)") + "\n\n")
		b.WriteString(m.input.View() + "\n")
	}

	if m.status != "" {
		b.WriteString("\n" + warnStyle.Render(m.status) + "\n")
	}
	b.WriteString("\n" + pickerHintStyle.Render("enter: select  up/down: move  esc: quit") + "\n")
	return b.String()
}

func renderChoice(selected bool, text string) string {
	if selected {
		return pickerSelStyle.Render("> " + text)
	}
	return "  " + text
}
