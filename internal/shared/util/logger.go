package util

import (
	"fmt"
	"io"
	"log"
	"os"
	"time"
)

// ANSI escapes for console output.
var (
	reset   = "\033[0m"
	red     = "\033[31m"
	green   = "\033[32m"
	yellow  = "\033[33m"
	blue    = "\033[34m"
	magenta = "\033[35m"
	cyan    = "\033[36m"
	white   = "\033[37m"
)

// Logger writes leveled, timestamped lines to stdout. Each entry carries an
// instance label (usually "Component.Method") so interleaved request logs
// stay attributable.
type Logger struct {
	std *log.Logger
}

func New() *Logger {
	return NewWithWriter(os.Stdout)
}

// NewWithWriter is used by tests to capture output.
func NewWithWriter(w io.Writer) *Logger {
	return &Logger{std: log.New(w, "", 0)}
}

func (l *Logger) Info(instance, message string) {
	l.print(green, "INFO", instance, message)
}

func (l *Logger) OK(instance, message string) {
	l.print(green, "OK", instance, message)
}

func (l *Logger) Debug(instance, message string) {
	l.print(cyan, "DEBUG", instance, message)
}

func (l *Logger) Warn(instance, message string) {
	l.print(yellow, "WARN", instance, message)
}

func (l *Logger) Error(instance string, err error) {
	l.print(red, "ERROR", instance, err.Error())
}

func (l *Logger) Fatal(instance string, err error) {
	l.print(red, "FATAL", instance, err.Error())
	os.Exit(1)
}

func (l *Logger) print(color, level, instance, message string) {
	ts := time.Now().Format("2006-01-02 15:04:05.000")
	l.std.Printf("%s|%s|%s %-5s%s | %-18s | %s\n",
		reset, ts, color, level, reset, instance, message)
}

// HTTP writes one access-log line per completed request.
func (l *Logger) HTTP(status int, elapsed time.Duration, host, method, path string) {
	l.std.Printf("|%s| %7s | %-20s | %s %s\n",
		paintStatus(status), elapsed, host, paintMethod(method), path)
}

func paintMethod(method string) string {
	var color string
	switch method {
	case "GET":
		color = blue
	case "POST":
		color = green
	case "PUT":
		color = magenta
	case "DELETE":
		color = red
	default:
		color = white
	}
	return color + fmt.Sprintf("%-6s", method) + reset
}

func paintStatus(code int) string {
	var color string
	switch {
	case code >= 500:
		color = red
	case code >= 400:
		color = yellow
	case code >= 300:
		color = cyan
	default:
		color = green
	}
	return color + fmt.Sprintf("%d", code) + reset
}
