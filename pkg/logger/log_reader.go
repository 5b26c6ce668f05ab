package logger

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ProcessLogName is the prefix of the dated ffmpeg output log
const ProcessLogName = "transcode"

// Markers delimiting one job in the process log
const (
	processBlockStart = "=== ["
	processBlockJob   = "] Job: "
	processBlockEnd   = "=== END ==="
)

// LogEntry represents a parsed log entry
type LogEntry struct {
	Timestamp string                 `json:"timestamp"`
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	Category  string                 `json:"category"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
}

// LogReader reads the event and process logs
type LogReader struct {
	logsDir string
}

// NewLogReader creates a new log reader
func NewLogReader(logsDir string) *LogReader {
	return &LogReader{
		logsDir: logsDir,
	}
}

// GetLogPath returns the path to a category log file for a specific date
func (lr *LogReader) GetLogPath(category LogCategory, date time.Time) string {
	return CategoryLogPath(lr.logsDir, category, date)
}

// ProcessLogPath returns the path of the ffmpeg output log for a date
func ProcessLogPath(logsDir string, date time.Time) string {
	return filepath.Join(logsDir, fmt.Sprintf("%s-%s.log", ProcessLogName, date.Format("20060102")))
}

// ReadLogs reads the last limit entries of a category log, all when limit is 0
func (lr *LogReader) ReadLogs(category LogCategory, date time.Time, limit int) ([]LogEntry, error) {
	file, err := os.Open(lr.GetLogPath(category, date))
	if err != nil {
		if os.IsNotExist(err) {
			return []LogEntry{}, nil
		}
		return nil, err
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if limit > 0 && len(lines) > limit {
		lines = lines[len(lines)-limit:]
	}

	entries := make([]LogEntry, 0, len(lines))
	for _, line := range lines {
		entries = append(entries, parseEntry(line, category))
	}
	return entries, nil
}

// parseEntry decodes one zap JSON line, keeping extra keys as fields
func parseEntry(line string, category LogCategory) LogEntry {
	var raw map[string]interface{}
	if err := json.Unmarshal([]byte(line), &raw); err != nil {
		return LogEntry{
			Timestamp: time.Now().Format(time.RFC3339),
			Level:     "info",
			Message:   line,
			Category:  string(category),
		}
	}

	entry := LogEntry{Category: string(category)}
	entry.Timestamp, _ = raw["ts"].(string)
	entry.Level, _ = raw["level"].(string)
	entry.Message, _ = raw["msg"].(string)
	delete(raw, "ts")
	delete(raw, "level")
	delete(raw, "msg")
	if len(raw) > 0 {
		entry.Fields = raw
	}
	return entry
}

// SearchLogs returns entries whose message, level or field values contain query
func (lr *LogReader) SearchLogs(category LogCategory, date time.Time, query string, limit int) ([]LogEntry, error) {
	entries, err := lr.ReadLogs(category, date, 0)
	if err != nil {
		return nil, err
	}

	query = strings.ToLower(query)
	var filtered []LogEntry
	for _, entry := range entries {
		if entryContains(entry, query) {
			filtered = append(filtered, entry)
		}
	}

	if limit > 0 && len(filtered) > limit {
		filtered = filtered[len(filtered)-limit:]
	}
	return filtered, nil
}

func entryContains(entry LogEntry, query string) bool {
	if strings.Contains(strings.ToLower(entry.Message), query) ||
		strings.Contains(strings.ToLower(entry.Level), query) {
		return true
	}
	for _, v := range entry.Fields {
		if strings.Contains(strings.ToLower(fmt.Sprint(v)), query) {
			return true
		}
	}
	return false
}

// JobEvents returns the job log entries recorded for jobID on date
func (lr *LogReader) JobEvents(jobID string, date time.Time) ([]LogEntry, error) {
	entries, err := lr.ReadLogs(CategoryJobs, date, 0)
	if err != nil {
		return nil, err
	}

	var events []LogEntry
	for _, entry := range entries {
		if id, _ := entry.Fields["job_id"].(string); id == jobID {
			events = append(events, entry)
		}
	}
	return events, nil
}

// ReadProcessLog returns the ffmpeg output block written for jobID on date.
// It returns an empty string when the job has no block.
func (lr *LogReader) ReadProcessLog(jobID string, date time.Time) (string, error) {
	file, err := os.Open(ProcessLogPath(lr.logsDir, date))
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}
	defer file.Close()

	var (
		block   strings.Builder
		inBlock bool
	)
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, processBlockStart) && strings.Contains(line, processBlockJob) {
			inBlock = strings.HasSuffix(strings.TrimSuffix(line, " ==="), processBlockJob+jobID)
		}
		if !inBlock {
			continue
		}
		block.WriteString(line)
		block.WriteByte('\n')
		if line == processBlockEnd {
			inBlock = false
		}
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return block.String(), nil
}
