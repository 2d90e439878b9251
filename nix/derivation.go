package nix

import "strings"

// Derivation is the JSON shape produced by "nix show-derivation".
type Derivation struct {
	Platform  string              `json:"platform"`
	Outputs   map[string]Output   `json:"outputs"`
	InputDrvs map[string][]string `json:"inputDrvs"`
	Env       map[string]string   `json:"env"`
}

type Output struct {
	Hash string `json:"hash"`
}

// PackageFromDerivation tries to extract a structured name and version from a
// derivation, if the derivation is a package.
func PackageFromDerivation(drv Derivation) (Package, bool) {
	// If the derivation is produced by a builtin, it is not a package.
	if drv.Platform == "builtin" {
		return Package{}, false
	}

	// If the derivation is a fixed-output derivation, then we assume it's not
	// a package (but instead likely something we fetch from the network).
	if drv.Outputs["out"].Hash != "" {
		return Package{}, false
	}

	// Some things are helper utils, not packages. We assume a package has at
	// least three inputs: Bash, stdenv, and its fetched source. These helpers
	// often have only two, no source.
	if len(drv.InputDrvs) <= 2 {
		return Package{}, false
	}

	name := drv.Env["name"]
	pname := drv.Env["pname"]
	version := drv.Env["version"]

	// Packages have names.
	if name == "" {
		return Package{}, false
	}

	// Hooks are not packages.
	if strings.HasSuffix(name, "-hook") || strings.HasSuffix(name, "-hook.sh") {
		return Package{}, false
	}

	// The stdenv is special, we don't count it as a package.
	if strings.HasSuffix(name, "stdenv-linux") {
		return Package{}, false
	}

	// Best case we have the full metadata split out.
	if pname != "" && version != "" {
		return Package{Name: pname, Version: version}.extractGroup(), true
	}

	// Sometimes we have only the name (including version) to go by, but at
	// least the version is known.
	if version != "" && strings.HasSuffix(name, "-"+version) {
		return Package{
			Name:    name[:len(name)-len(version)-1],
			Version: version,
		}.extractGroup(), true
	}

	// In some cases, we only have the name to go by, and we hope it includes
	// the version too. This can lead to false positives: some derivations
	// such as patch files or source archives are not packages at all, but so
	// far there is no reliable way to tell them apart. The heuristic is
	// whether the name parsed in a sensible way.
	pkg := ParsePackage(name)
	if pkg.Name != "" && pkg.Version != "" {
		return pkg, true
	}

	return Package{}, false
}
