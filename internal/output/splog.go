// Package output provides terminal output and debug logging for stax.
package output

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	warnStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	tipStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	appliedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	conflictStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
)

// Splog provides user-facing output plus a rotating debug log file
type Splog struct {
	writer io.Writer
	color  bool
	quiet  bool
	debug  *slog.Logger
}

// NewSplog creates a splog writing to stdout, with colors when attached
// to a terminal.
func NewSplog() *Splog {
	color := isatty.IsTerminal(os.Stdout.Fd()) && termenv.EnvColorProfile() != termenv.Ascii
	return &Splog{writer: os.Stdout, color: color}
}

// SetQuiet suppresses informational output
func (s *Splog) SetQuiet(quiet bool) {
	s.quiet = quiet
}

// EnableDebugLog routes debug messages to a rotating log file inside the
// repository's .git directory.
func (s *Splog) EnableDebugLog(gitDir string, maxSizeMB, maxBackups, maxAgeDays int) {
	if maxSizeMB <= 0 {
		maxSizeMB = 1
	}
	if maxBackups < 0 {
		maxBackups = 2
	}
	if maxAgeDays <= 0 {
		maxAgeDays = 30
	}
	writer := &lumberjack.Logger{
		Filename:   filepath.Join(gitDir, "stax", "debug.log"),
		MaxSize:    maxSizeMB,
		MaxBackups: maxBackups,
		MaxAge:     maxAgeDays,
	}
	s.debug = slog.New(slog.NewTextHandler(writer, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func (s *Splog) styled(style lipgloss.Style, text string) string {
	if !s.color {
		return text
	}
	return style.Render(text)
}

// Info writes an informational message
func (s *Splog) Info(format string, args ...interface{}) {
	if s.quiet {
		return
	}
	fmt.Fprintf(s.writer, format+"\n", args...)
}

// Warn writes a warning message
func (s *Splog) Warn(format string, args ...interface{}) {
	fmt.Fprintln(s.writer, s.styled(warnStyle, fmt.Sprintf("warning: "+format, args...)))
}

// Error writes an error message
func (s *Splog) Error(format string, args ...interface{}) {
	fmt.Fprintln(s.writer, s.styled(errorStyle, fmt.Sprintf("error: "+format, args...)))
}

// Tip writes a hint for the user's next step
func (s *Splog) Tip(format string, args ...interface{}) {
	if s.quiet {
		return
	}
	fmt.Fprintln(s.writer, s.styled(tipStyle, fmt.Sprintf("hint: "+format, args...)))
}

// Conflict renders a conflict notice
func (s *Splog) Conflict(format string, args ...interface{}) {
	fmt.Fprintln(s.writer, s.styled(conflictStyle, fmt.Sprintf(format, args...)))
}

// Applied renders an applied-patch name
func (s *Splog) Applied(name string) string {
	return s.styled(appliedStyle, name)
}

// Debug writes a formatted message to the debug log file when enabled
func (s *Splog) Debug(format string, args ...any) {
	if s.debug == nil {
		return
	}
	s.debug.Debug(fmt.Sprintf(format, args...))
}
