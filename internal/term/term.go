// Package term holds terminal capabilities shared by report and diff output.
package term

import (
	"os"

	"github.com/mattn/go-isatty"
)

// NoColor disables ANSI colors when the output is not a terminal or the user
// asked for plain output via NO_COLOR or TERM=dumb.
var NoColor = os.Getenv("NO_COLOR") != "" || os.Getenv("TERM") == "dumb" ||
	(!isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()))

const (
	Green  = "\033[32m"
	Red    = "\033[31m"
	Yellow = "\033[33m"
	reset  = "\033[0m"
)

func Colorize(t, color string) string {
	if NoColor {
		return t
	}
	return color + t + reset
}
