package nix

import "strings"

// Package name and version, inferred through a heuristic from a store path.
type Package struct {
	Name    string
	Version string
	// Group is set when the name carries an interpreter prefix, e.g. group
	// "perl5.31.0" for "perl5.31.0-CGI". Keeping the group out of the name
	// avoids huge diffs when only the interpreter is bumped but the package
	// versions stay the same.
	Group string
}

func (p Package) String() string {
	if p.Version == "" {
		return p.Name
	}
	return p.Name + "-" + p.Version
}

// NameWithGroup returns the name prefixed by the group name if the package is
// part of a group. E.g. "perl5.31.0-CGI" when the name is "CGI" and the group
// is "perl5.31.0".
func (p Package) NameWithGroup() string {
	if p.Group != "" {
		return p.Group + "-" + p.Name
	}
	return p.Name
}

// Store paths can have a suffix when the derivation has multiple outputs;
// those outputs are merged into a single entry.
var outputSuffixes = []string{
	"bin",
	"data",
	"dev",
	"doc",
	"env",
	"lib",
	"man",
	"sdist.tar.gz",
}

// ParsePackage parses a package name and version from a name-version store
// file name, using heuristics.
func ParsePackage(nameVersion string) Package {
	var parts []string
	for _, part := range strings.Split(nameVersion, "-") {
		if part != "" {
			parts = append(parts, part)
		}
	}

	var name, version []string
	for i, part := range parts {
		// We assume that a part that starts with a digit is the version part.
		// So far this works well enough.
		if startsWithDigit(part) {
			version = parts[i:]
			break
		}
		name = append(name, part)
	}

	version = removeOutputSuffixes(version)

	pkg := Package{
		Name:    strings.Join(name, "-"),
		Version: strings.Join(version, "-"),
	}
	return pkg.extractGroup()
}

func removeOutputSuffixes(version []string) []string {
	var out []string
	for _, part := range version {
		var isSuffix bool
		for _, suffix := range outputSuffixes {
			if part == suffix {
				isSuffix = true
				break
			}
		}
		if !isSuffix {
			out = append(out, part)
		}
	}
	return out
}

// extractGroup splits an interpreter prefix like "perl5.32.0-" off the name.
// Heuristic, currently only Perl and Ruby show this grouping.
func (p Package) extractGroup() Package {
	prefix, rest, found := strings.Cut(p.Name, "-")
	if !found {
		return p
	}

	if strings.HasPrefix(prefix, "perl5") || strings.HasPrefix(prefix, "ruby2.") {
		return Package{Name: rest, Version: p.Version, Group: prefix}
	}
	return p
}
