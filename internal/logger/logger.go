package logger

import (
	"io"
	"log"
	"os"

	"github.com/fatih/color"
)

// Log flags
const (
	LstdFlags     = log.LstdFlags
	Lmicroseconds = log.Lmicroseconds
)

// Logger wraps the standard log.Logger with verbosity and highlighted output
type Logger struct {
	*log.Logger
	verbose   bool
	highlight *color.Color
}

// New creates a new logger writing to stdout. Highlighting follows the
// terminal detection of fatih/color.
func New() *Logger {
	return &Logger{
		Logger:    log.New(os.Stdout, "", log.LstdFlags),
		highlight: color.New(color.FgGreen, color.Bold),
	}
}

// NewWriter creates a new logger that writes to the provided writer, without colors
func NewWriter(w io.Writer) *Logger {
	l := &Logger{
		Logger:    log.New(w, "", log.LstdFlags),
		highlight: color.New(color.FgGreen, color.Bold),
	}
	l.highlight.DisableColor()
	return l
}

// SetOutput sets the output destination for the logger. Colors are only kept for stdout.
func (l *Logger) SetOutput(w io.Writer) {
	l.Logger.SetOutput(w)
	if w != os.Stdout {
		l.highlight.DisableColor()
	}
}

// SetFlags sets the output flags for the logger
func (l *Logger) SetFlags(flag int) {
	l.Logger.SetFlags(flag)
}

// SetVerbose enables Debugf output
func (l *Logger) SetVerbose(v bool) {
	l.verbose = v
}

// Verbose reports whether Debugf output is enabled
func (l *Logger) Verbose() bool {
	return l.verbose
}

// Debugf logs only in verbose mode
func (l *Logger) Debugf(format string, v ...any) {
	if l.verbose {
		l.Printf(format, v...)
	}
}

// Highlight returns s colored like Highlightf output, for embedding in a larger entry
func (l *Logger) Highlight(s string) string {
	return l.highlight.Sprint(s)
}

// Highlightf logs a line that should stand out, e.g. a found key
func (l *Logger) Highlightf(format string, v ...any) {
	l.Print(l.highlight.Sprintf(format, v...))
}
