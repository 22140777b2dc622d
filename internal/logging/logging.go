package logging

import (
	"io"
	"log"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Configure sets up rotating file logging at the given path. Used by the
// interactive player, which must keep stderr clean for the terminal UI.
func Configure(path string) {
	log.SetOutput(rotatingWriter(path))
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
}

// ConfigureWithConsole mirrors log output to stderr in addition to the
// rotating file. Used by the one-shot commands and the watch/notify loops.
func ConfigureWithConsole(path string) {
	log.SetOutput(io.MultiWriter(os.Stderr, rotatingWriter(path)))
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
}

func rotatingWriter(path string) io.Writer {
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
		Compress:   false,
	}
}
