package main

import (
	"io"
	"os"

	"github.com/mattn/go-isatty"

	"storyreel/internal/scenes"
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
)

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func colorizeVideoStatus(status scenes.VideoStatus, colorize bool) string {
	label := string(status)
	if !colorize {
		return label
	}
	switch status {
	case scenes.VideoCompleted:
		return ansiGreen + label + ansiReset
	case scenes.VideoFailed, scenes.VideoCancelled:
		return ansiRed + label + ansiReset
	case scenes.VideoProcessing:
		return ansiYellow + label + ansiReset
	default:
		return label
	}
}
