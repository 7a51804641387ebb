package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"martianoff/delegen/delerr"
)

var (
	errorColor    = color.New(color.FgRed, color.Bold)
	locationColor = color.New(color.FgBlue, color.Bold)
	okColor       = color.New(color.FgGreen, color.Bold)
)

// colorEnabled reports whether f is a terminal that should get colored output.
func colorEnabled(f *os.File) bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// printDiagnostic renders err to w, colored when w is a terminal.
func printDiagnostic(w io.Writer, err error) {
	useColor := false
	if f, ok := w.(*os.File); ok {
		useColor = colorEnabled(f)
	}
	fmt.Fprint(w, formatDiagnostic(err, useColor))
}

// formatDiagnostic renders a generator error as
//
//	error[SpecError]: duplicate key `target`
//	  --> wrapper.delegate:2:1
func formatDiagnostic(err error, useColor bool) string {
	paint := func(c *color.Color, s string) string {
		if !useColor {
			return s
		}
		c.EnableColor()
		return c.Sprint(s)
	}

	var derr *delerr.Error
	if !errors.As(err, &derr) {
		return paint(errorColor, "error") + ": " + err.Error() + "\n"
	}
	out := paint(errorColor, fmt.Sprintf("error[%s]", derr.Type())) + ": " + derr.Msg + "\n"
	if loc := derr.Pos.String(); loc != "" {
		out += "  " + paint(locationColor, "-->") + " " + loc + "\n"
	}
	if derr.Cause != nil {
		out += "  caused by: " + derr.Cause.Error() + "\n"
	}
	return out
}

func printOK(w io.Writer, msg string) {
	useColor := false
	if f, ok := w.(*os.File); ok {
		useColor = colorEnabled(f)
	}
	if useColor {
		okColor.EnableColor()
		msg = okColor.Sprint(msg)
	}
	fmt.Fprintln(w, msg)
}
