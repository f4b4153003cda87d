// Package output provides consistent CLI output for wikimg commands.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

// Writer provides formatted output for CLI.
type Writer struct {
	out         io.Writer
	interactive bool
}

// New creates a new output Writer. Decorations such as headers and in-place
// progress are only written when out is a terminal.
func New(out io.Writer) *Writer {
	return &Writer{
		out:         out,
		interactive: IsTerminal(out),
	}
}

// NewInteractive creates a Writer that always decorates its output.
func NewInteractive(out io.Writer) *Writer {
	return &Writer{out: out, interactive: true}
}

// IsTerminal reports whether w is a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Interactive reports whether the writer decorates its output.
func (w *Writer) Interactive() bool {
	return w.interactive
}

// Status prints a status message with an icon.
// Errors from writing are intentionally ignored for console output.
func (w *Writer) Status(icon, msg string) {
	if icon != "" {
		_, _ = fmt.Fprintf(w.out, "%s %s\n", icon, msg)
	} else {
		_, _ = fmt.Fprintf(w.out, "   %s\n", msg)
	}
}

// Statusf prints a formatted status message with an icon.
func (w *Writer) Statusf(icon, format string, args ...any) {
	w.Status(icon, fmt.Sprintf(format, args...))
}

// Success prints a success message with checkmark.
func (w *Writer) Success(msg string) {
	w.Status("✅", msg)
}

// Successf prints a formatted success message.
func (w *Writer) Successf(format string, args ...any) {
	w.Success(fmt.Sprintf(format, args...))
}

// Warningf prints a formatted warning message.
func (w *Writer) Warningf(format string, args ...any) {
	w.Status("⚠️ ", fmt.Sprintf(format, args...))
}

// Counter rewrites the current line with a running count. Non-interactive
// writers print nothing.
func (w *Writer) Counter(label string, n int) {
	if !w.interactive {
		return
	}
	_, _ = fmt.Fprintf(w.out, "\r   %s: %d", label, n)
}

// CounterDone ends a Counter line.
func (w *Writer) CounterDone() {
	if w.interactive {
		_, _ = fmt.Fprintln(w.out)
	}
}

// Matches prints one URL per line. On a terminal the keywords and a matches
// header are printed first.
func (w *Writer) Matches(keywords, urls []string) {
	if w.interactive {
		_, _ = fmt.Fprintf(w.out, "keywords %s\n", strings.Join(keywords, " "))
		_, _ = fmt.Fprintln(w.out, "matches")
	}
	for _, u := range urls {
		_, _ = fmt.Fprintln(w.out, u)
	}
}

// JSON writes v as indented JSON followed by a newline.
func (w *Writer) JSON(v any) error {
	enc := json.NewEncoder(w.out)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode JSON output: %w", err)
	}
	return nil
}
