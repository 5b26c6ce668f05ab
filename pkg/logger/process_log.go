package logger

import (
	"fmt"
	"io"
	"os"
	"time"
)

// OpenProcessLog opens today's process log for appending
func OpenProcessLog(logsDir string) (*os.File, error) {
	if err := os.MkdirAll(logsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create logs directory: %w", err)
	}
	return os.OpenFile(ProcessLogPath(logsDir, time.Now()), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
}

// WriteProcessHeader writes the start marker of a job block
func WriteProcessHeader(w io.Writer, jobID, cmdLine string) {
	timestamp := time.Now().Format("2006-01-02 15:04:05")
	fmt.Fprintf(w, "\n%s%s%s%s ===\n", processBlockStart, timestamp, processBlockJob, jobID)
	fmt.Fprintf(w, "$ %s\n", cmdLine)
}

// WriteProcessFooter writes the end marker of a job block
func WriteProcessFooter(w io.Writer, success bool, message string) {
	timestamp := time.Now().Format("2006-01-02 15:04:05")
	status := "SUCCESS"
	if !success {
		status = "FAILED"
	}
	fmt.Fprintf(w, "[%s] %s: %s\n", timestamp, status, message)
	fmt.Fprintf(w, "%s\n\n", processBlockEnd)
}
