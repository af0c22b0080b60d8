package output

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
)

var (
	// Classification colors
	Explicit = color.New(color.FgGreen)
	Implicit = color.New(color.FgYellow)
	Hidden   = color.New(color.Faint)

	// Message colors
	Success = color.New(color.FgGreen)
	Warning = color.New(color.FgYellow)
	Error   = color.New(color.FgRed)
	Info    = color.New(color.FgCyan)
	Dim     = color.New(color.Faint)

	// Structural colors
	Header = color.New(color.FgWhite, color.Bold)
	Item   = color.New(color.FgBlue, color.Bold)
	Tag    = color.New(color.FgMagenta, color.Bold)
)

// Stdout and Stderr are where the Print helpers write
var (
	Stdout io.Writer = os.Stdout
	Stderr io.Writer = os.Stderr
)

// NoColor disables color output
func NoColor() {
	color.NoColor = true
}

// ForceColor enables color output even when not a TTY
func ForceColor() {
	color.NoColor = false
}

// IsTerminal returns true if stdout is a terminal
func IsTerminal() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}

// ClassificationColor returns the color for an update classification name
func ClassificationColor(classification string) *color.Color {
	switch classification {
	case "explicit":
		return Explicit
	case "implicit":
		return Implicit
	case "hidden":
		return Hidden
	default:
		return color.New(color.Reset)
	}
}

// PrintSuccess prints a success message
func PrintSuccess(format string, args ...interface{}) {
	Success.Fprintf(Stdout, "✓ "+format+"\n", args...)
}

// PrintError prints an error message to stderr
func PrintError(format string, args ...interface{}) {
	Error.Fprintf(Stderr, "✗ "+format+"\n", args...)
}

// PrintWarning prints a warning message to stderr
func PrintWarning(format string, args ...interface{}) {
	Warning.Fprintf(Stderr, "⚠ "+format+"\n", args...)
}

// PrintInfo prints an info message
func PrintInfo(format string, args ...interface{}) {
	Info.Fprintf(Stdout, "→ "+format+"\n", args...)
}

// Sprintf returns a colored string without printing
func Sprintf(c *color.Color, format string, args ...interface{}) string {
	return c.Sprintf(format, args...)
}

// Sprint returns a colored string without printing
func Sprint(c *color.Color, a ...interface{}) string {
	return c.Sprint(a...)
}

// FormatClassification formats a classification tag with its color
func FormatClassification(classification string) string {
	c := ClassificationColor(classification)
	return c.Sprintf("[%s]", classification)
}

// FormatChange formats "current → new" with the new side highlighted
func FormatChange(current, next string) string {
	return fmt.Sprintf("%s → %s", current, Success.Sprint(next))
}
