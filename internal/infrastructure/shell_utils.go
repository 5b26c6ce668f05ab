package infrastructure

import (
	"os/exec"
	"strings"
)

// ShellEscape quotes s for display in a shell command line. It is only
// used for log lines; exec.Command receives the raw arguments.
func ShellEscape(s string) string {
	if s == "" {
		return "''"
	}
	if !strings.ContainsFunc(s, isShellSpecialChar) {
		return s
	}
	// ' becomes '"'"' : close quote, quoted quote, reopen
	return "'" + strings.ReplaceAll(s, "'", `'"'"'`) + "'"
}

// ShellEscapeCommand joins a binary and its arguments into a copyable
// command line
func ShellEscapeCommand(binary string, args ...string) string {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, ShellEscape(binary))
	for _, arg := range args {
		parts = append(parts, ShellEscape(arg))
	}
	return strings.Join(parts, " ")
}

// CommandLine renders a prepared command for logging
func CommandLine(cmd *exec.Cmd) string {
	if len(cmd.Args) == 0 {
		return ShellEscape(cmd.Path)
	}
	return ShellEscapeCommand(cmd.Args[0], cmd.Args[1:]...)
}

func isShellSpecialChar(c rune) bool {
	return strings.ContainsRune(" \t'\"$`\\!*?[](){}|;<>&~#%\n\r", c)
}
