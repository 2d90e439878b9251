package nix

import (
	"fmt"
	"strings"

	"github.com/ruuda/miniserver/internal/term"
)

type DeltaKind int

const (
	Added DeltaKind = iota
	Removed
	Changed
)

// Delta is a single difference between two package closures.
type Delta struct {
	Kind   DeltaKind
	Before Package // zero value for Added
	After  Package // zero value for Removed
}

func (d Delta) name() string {
	if d.Kind == Added {
		return d.After.NameWithGroup()
	}
	return d.Before.NameWithGroup()
}

// DiffPackages performs a merge-diff of two package lists sorted by name.
func DiffPackages(befores, afters []Package) []Delta {
	var deltas []Delta

	for len(befores) > 0 || len(afters) > 0 {
		if len(afters) == 0 || (len(befores) > 0 && befores[0].Name < afters[0].Name) {
			deltas = append(deltas, Delta{Kind: Removed, Before: befores[0]})
			befores = befores[1:]
			continue
		}
		if len(befores) == 0 || befores[0].Name > afters[0].Name {
			deltas = append(deltas, Delta{Kind: Added, After: afters[0]})
			afters = afters[1:]
			continue
		}

		if befores[0].Version != afters[0].Version {
			deltas = append(deltas, Delta{Kind: Changed, Before: befores[0], After: afters[0]})
		}
		befores = befores[1:]
		afters = afters[1:]
	}

	return deltas
}

// FormatDeltas pretty-prints a list of differences with aligned columns.
// Returns no lines when there are no differences.
func FormatDeltas(deltas []Delta) []string {
	var nameLen int
	beforeLen, afterLen := 1, 1
	for _, d := range deltas {
		nameLen = max(nameLen, len(d.name()))
		beforeLen = max(beforeLen, len(d.Before.Version))
		afterLen = max(afterLen, len(d.After.Version))
	}

	lines := make([]string, 0, len(deltas))
	for _, d := range deltas {
		op := " "
		arrow := "  "
		var name, vBefore, vAfter string

		switch d.Kind {
		case Added:
			op = term.Colorize("+", term.Green)
			name = d.After.NameWithGroup()
			vAfter = d.After.Version
		case Removed:
			op = term.Colorize("-", term.Red)
			name = d.Before.NameWithGroup()
			vBefore = d.Before.Version
		case Changed:
			arrow = term.Colorize("->", term.Yellow)
			name = d.Before.NameWithGroup()
			vBefore = d.Before.Version
			vAfter = d.After.Version
		}

		lines = append(lines, strings.TrimRight(fmt.Sprintf(
			"%s %-*s %-*s %s %-*s",
			op, nameLen, name, beforeLen, vBefore, arrow, afterLen, vAfter,
		), " "))
	}
	return lines
}
