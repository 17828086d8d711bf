package main

import (
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"scribe/internal/jobs"
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

func statusLabel(status jobs.Status, colorize bool) string {
	label := string(status)
	if !colorize {
		return label
	}
	switch status {
	case jobs.StatusCompleted:
		return ansiGreen + label + ansiReset
	case jobs.StatusFailed:
		return ansiRed + label + ansiReset
	case jobs.StatusUnconfirmed:
		return ansiYellow + label + ansiReset
	default:
		return ansiBlue + label + ansiReset
	}
}

// remoteStatusLabel renders a service status constant such as
// "IN_PROGRESS" as "In Progress".
func remoteStatusLabel(status string) string {
	if status == "" {
		return ""
	}
	spaced := strings.ReplaceAll(strings.ToLower(status), "_", " ")
	return cases.Title(language.Und).String(spaced)
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
